package route

import (
	"testing"

	contractx "github.com/tawanchai/bankdesk/agent/contract"
)

func TestRouteStructuredOnly(t *testing.T) {
	t.Parallel()

	plan := Route(contractx.IntentVerdict{Intent: contractx.IntentStructured}, "What is my balance?")
	if len(plan.Invocations) != 1 {
		t.Fatalf("expected exactly one invocation, got %d", len(plan.Invocations))
	}
	if plan.Invocations[0].Role != contractx.RoleStructured {
		t.Fatalf("unexpected role: %s", plan.Invocations[0].Role)
	}
	if plan.Invocations[0].Prompt != "What is my balance?" {
		t.Fatalf("unexpected prompt: %q", plan.Invocations[0].Prompt)
	}
	if plan.Concurrent() {
		t.Fatal("single invocation plan must not be concurrent")
	}
}

func TestRouteKnowledgeOnly(t *testing.T) {
	t.Parallel()

	plan := Route(contractx.IntentVerdict{Intent: contractx.IntentKnowledge}, "Which deposits do you offer?")
	if len(plan.Invocations) != 1 {
		t.Fatalf("expected exactly one invocation, got %d", len(plan.Invocations))
	}
	if plan.Invocations[0].Role != contractx.RoleKnowledge {
		t.Fatalf("unexpected role: %s", plan.Invocations[0].Role)
	}
}

func TestRouteHybridDispatchesBoth(t *testing.T) {
	t.Parallel()

	plan := Route(contractx.IntentVerdict{
		Intent:          contractx.IntentHybrid,
		StructuredQuery: "account standing",
		KnowledgeQuery:  "loan products",
	}, "Can I get a loan based on my account balance?")

	if len(plan.Invocations) != 2 {
		t.Fatalf("hybrid must dispatch exactly two responders, got %d", len(plan.Invocations))
	}
	if !plan.Concurrent() {
		t.Fatal("hybrid plan must be concurrent")
	}

	roles := map[contractx.ResponderRole]string{}
	for _, inv := range plan.Invocations {
		roles[inv.Role] = inv.Prompt
	}
	if roles[contractx.RoleStructured] != "account standing" {
		t.Fatalf("structured sub-query not used: %q", roles[contractx.RoleStructured])
	}
	if roles[contractx.RoleKnowledge] != "loan products" {
		t.Fatalf("knowledge sub-query not used: %q", roles[contractx.RoleKnowledge])
	}
}

func TestRouteMalformedLabelFailsClosed(t *testing.T) {
	t.Parallel()

	plan := Route(contractx.IntentVerdict{Intent: contractx.Intent("chitchat")}, "hello")
	if len(plan.Invocations) != 2 {
		t.Fatalf("malformed verdict must over-dispatch to both responders, got %d", len(plan.Invocations))
	}
	if plan.Intent != contractx.IntentHybrid {
		t.Fatalf("expected hybrid fallback, got %s", plan.Intent)
	}
	for _, inv := range plan.Invocations {
		if inv.Prompt != "hello" {
			t.Fatalf("expected original query for empty sub-query, got %q", inv.Prompt)
		}
	}
}
