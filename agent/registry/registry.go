// Package registry assembles the pipeline capabilities from config and
// backend dependencies. The orchestrator only ever sees the contract
// interfaces it hands out.
package registry

import (
	"context"
	"fmt"

	classifyx "github.com/tawanchai/bankdesk/agent/classify"
	contractx "github.com/tawanchai/bankdesk/agent/contract"
	llmx "github.com/tawanchai/bankdesk/agent/llm"
	promptx "github.com/tawanchai/bankdesk/agent/prompt"
	responderx "github.com/tawanchai/bankdesk/agent/responder"
	synthx "github.com/tawanchai/bankdesk/agent/synth"
)

type registryImpl struct {
	classifier  contractx.Classifier
	structured  contractx.Responder
	knowledge   contractx.Responder
	synthesizer contractx.Synthesizer
}

func (r *registryImpl) Classifier() contractx.Classifier {
	return r.classifier
}

func (r *registryImpl) Structured() contractx.Responder {
	return r.structured
}

func (r *registryImpl) Knowledge() contractx.Responder {
	return r.knowledge
}

func (r *registryImpl) Synthesizer() contractx.Synthesizer {
	return r.synthesizer
}

// Deps are the responder backends the registry cannot build itself.
type Deps struct {
	Ledger   responderx.Ledger
	Embedder responderx.Embedder
	Searcher responderx.Searcher
}

func NewRegistry(ctx context.Context, cfg llmx.Config, deps Deps, respOpts ...responderx.Option) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()

	classifierModelCfg := cfg.OpenRouterFor(llmx.RoleClassifier)
	classifierModel, err := classifierModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create classifier model: %v", contractx.ErrModelInvoke, err)
	}
	responderModelCfg := cfg.OpenRouterFor(llmx.RoleResponder)
	responderModel, err := responderModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create responder model: %v", contractx.ErrModelInvoke, err)
	}
	synthesizerModelCfg := cfg.OpenRouterFor(llmx.RoleSynthesizer)
	synthesizerModel, err := synthesizerModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create synthesizer model: %v", contractx.ErrModelInvoke, err)
	}

	classifier, err := classifyx.New(ctx, classifierModel, prompts.Classifier)
	if err != nil {
		return nil, err
	}

	structured, err := responderx.NewStructured(ctx, responderModel, prompts.Structured, deps.Ledger, respOpts...)
	if err != nil {
		return nil, err
	}
	knowledge, err := responderx.NewKnowledge(ctx, responderModel, prompts.Knowledge, deps.Embedder, deps.Searcher, respOpts...)
	if err != nil {
		return nil, err
	}

	synthesizer, err := synthx.New(ctx, synthesizerModel, prompts.Synthesizer)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		classifier:  classifier,
		structured:  structured,
		knowledge:   knowledge,
		synthesizer: synthesizer,
	}, nil
}
