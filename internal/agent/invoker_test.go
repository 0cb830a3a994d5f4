package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newInvokerFixture(t *testing.T, timeout time.Duration) (*Registry, *Invoker) {
	t.Helper()
	r := NewRegistry()
	err := r.Register(ToolSpec{
		Name:    "get_spending",
		Aliases: []string{"get_average_spending_by_category"},
		Params: []Param{
			{Name: "category", Required: true},
			{Name: "year", Default: "2012"},
		},
		Fn: func(ctx context.Context, args map[string]string) (string, error) {
			if args["category"] == "unobtainium" {
				return "", errors.New("category 'unobtainium' not recognized")
			}
			return fmt.Sprintf("spending for %s in %s: 11332 NOK/month", args["category"], args["year"]), nil
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r, NewInvoker(r, timeout, zap.NewNop())
}

func TestObserveSuccess(t *testing.T) {
	_, inv := newInvokerFixture(t, 0)

	obs := inv.Observe(context.Background(), Action{Tool: "get_spending", Args: []string{"housing"}})
	if !strings.Contains(obs, "housing") {
		t.Errorf("expected observation to mention the category, got %q", obs)
	}
	// Missing trailing argument must be filled from the declared default.
	if !strings.Contains(obs, "2012") {
		t.Errorf("expected defaulted year in observation, got %q", obs)
	}
	if strings.HasPrefix(obs, "Error:") {
		t.Errorf("expected success observation, got %q", obs)
	}
}

func TestObserveUnknownTool(t *testing.T) {
	_, inv := newInvokerFixture(t, 0)

	obs := inv.Observe(context.Background(), Action{Tool: "unknown_tool", Args: []string{"x"}})
	if !strings.Contains(obs, "unknown tool") {
		t.Errorf("expected unknown tool marker, got %q", obs)
	}
	if !strings.Contains(obs, "unknown_tool") {
		t.Errorf("expected observation to name the unrecognized tool, got %q", obs)
	}
}

func TestObserveToolError(t *testing.T) {
	_, inv := newInvokerFixture(t, 0)

	obs := inv.Observe(context.Background(), Action{Tool: "get_spending", Args: []string{"unobtainium"}})
	if !strings.HasPrefix(obs, "Error:") {
		t.Errorf("expected error-tagged observation, got %q", obs)
	}
	if !strings.Contains(obs, "not recognized") {
		t.Errorf("expected the tool error description, got %q", obs)
	}
}

func TestObserveMissingRequiredArg(t *testing.T) {
	_, inv := newInvokerFixture(t, 0)

	obs := inv.Observe(context.Background(), Action{Tool: "get_spending"})
	if !strings.HasPrefix(obs, "Error:") {
		t.Errorf("expected usage error observation, got %q", obs)
	}
	if !strings.Contains(obs, "category") {
		t.Errorf("expected the missing parameter name, got %q", obs)
	}
}

func TestObserveTooManyArgs(t *testing.T) {
	_, inv := newInvokerFixture(t, 0)

	obs := inv.Observe(context.Background(), Action{
		Tool: "get_spending",
		Args: []string{"housing", "2012", "extra"},
	})
	if !strings.HasPrefix(obs, "Error:") {
		t.Errorf("expected usage error observation, got %q", obs)
	}
}

func TestObserveViaAlias(t *testing.T) {
	_, inv := newInvokerFixture(t, 0)

	obs := inv.Observe(context.Background(), Action{
		Tool: "GET_AVERAGE_SPENDING_BY_CATEGORY",
		Args: []string{"food"},
	})
	if strings.HasPrefix(obs, "Error:") {
		t.Errorf("expected alias to dispatch to the canonical tool, got %q", obs)
	}
}

func TestObserveTimeout(t *testing.T) {
	r := NewRegistry()
	err := r.Register(ToolSpec{
		Name: "slow_tool",
		Fn: func(ctx context.Context, args map[string]string) (string, error) {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(5 * time.Second):
				return "too late", nil
			}
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inv := NewInvoker(r, 10*time.Millisecond, zap.NewNop())

	obs := inv.Observe(context.Background(), Action{Tool: "slow_tool"})
	if !strings.Contains(obs, "timed out") {
		t.Errorf("expected timeout folded into observation, got %q", obs)
	}
}
