package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/classifier.txt
	classifierRaw string

	//go:embed template/structured.txt
	structuredRaw string

	//go:embed template/knowledge.txt
	knowledgeRaw string

	//go:embed template/synthesizer.txt
	synthesizerRaw string
)

// PromptSet holds the system prompt for each pipeline stage.
type PromptSet struct {
	Classifier  string
	Structured  string
	Knowledge   string
	Synthesizer string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings. Safe to
// call concurrently; the embed is compile-time.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Classifier:  strings.TrimSpace(classifierRaw),
		Structured:  strings.TrimSpace(structuredRaw),
		Knowledge:   strings.TrimSpace(knowledgeRaw),
		Synthesizer: strings.TrimSpace(synthesizerRaw),
	}
}
