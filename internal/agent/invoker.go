package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Invoker resolves parsed actions against the registry, binds arguments to
// parameter names, and runs the tool. Every failure mode is converted into a
// textual observation so the loop body never needs failure branches: an
// unknown tool, a bad argument list, a tool error, and a tool timeout all
// come back as "Error: ..." strings for the model to read.
type Invoker struct {
	registry *Registry
	timeout  time.Duration
	logger   *zap.Logger
}

// NewInvoker creates an Invoker. A timeout of zero disables the per-call
// deadline.
func NewInvoker(registry *Registry, timeout time.Duration, logger *zap.Logger) *Invoker {
	return &Invoker{
		registry: registry,
		timeout:  timeout,
		logger:   logger,
	}
}

// Observe executes the action and returns the observation text. It never
// returns an error.
func (inv *Invoker) Observe(ctx context.Context, action Action) string {
	spec, ok := inv.registry.Resolve(action.Tool)
	if !ok {
		inv.logger.Warn("model referenced unknown tool", zap.String("tool", action.Tool))
		return fmt.Sprintf("Error: unknown tool '%s'", action.Tool)
	}

	bound, err := bindArgs(spec, action.Args)
	if err != nil {
		inv.logger.Warn("argument binding failed",
			zap.String("tool", spec.Name),
			zap.Strings("args", action.Args),
			zap.Error(err),
		)
		return fmt.Sprintf("Error: %v", err)
	}

	callCtx := ctx
	if inv.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, inv.timeout)
		defer cancel()
	}

	inv.logger.Debug("invoking tool",
		zap.String("tool", spec.Name),
		zap.Strings("args", action.Args),
	)

	out, err := spec.Fn(callCtx, bound)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return fmt.Sprintf("Error: tool '%s' timed out after %s", spec.Name, inv.timeout)
		}
		return fmt.Sprintf("Error: %v", err)
	}
	return out
}

// bindArgs binds raw argument strings positionally to the tool's parameters,
// filling missing trailing arguments from declared defaults.
func bindArgs(spec *ToolSpec, args []string) (map[string]string, error) {
	if len(args) > len(spec.Params) {
		return nil, fmt.Errorf("%s takes at most %d argument(s), got %d",
			spec.Name, len(spec.Params), len(args))
	}

	bound := make(map[string]string, len(spec.Params))
	for i, p := range spec.Params {
		if i < len(args) {
			bound[p.Name] = args[i]
			continue
		}
		if p.Required {
			return nil, fmt.Errorf("%s requires argument '%s' (usage: %s)",
				spec.Name, p.Name, usage(spec))
		}
		bound[p.Name] = p.Default
	}
	return bound, nil
}

// usage renders a call signature like "get_spending(category, year)".
func usage(spec *ToolSpec) string {
	names := make([]string, len(spec.Params))
	for i, p := range spec.Params {
		names[i] = p.Name
	}
	return fmt.Sprintf("%s(%s)", spec.Name, strings.Join(names, ", "))
}
