package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Model is the language-model collaborator. Generate is synchronous and its
// failure is fatal to the session: a model that never answers cannot produce
// a recoverable observation.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Label identifies the model configuration in results, e.g. "ollama (llama3.2)".
	Label() string
}

// DefaultMaxIterations bounds the reasoning loop when no explicit limit is
// configured.
const DefaultMaxIterations = 5

// Loop drives the iterate-observe-continue cycle for one question at a time.
// A Loop holds no per-session state and is safe for concurrent use as long
// as the model and the registered tools are.
type Loop struct {
	model         Model
	invoker       *Invoker
	maxIterations int
	logger        *zap.Logger
}

// NewLoop creates a reasoning loop. maxIterations <= 0 selects the default.
func NewLoop(model Model, invoker *Invoker, maxIterations int, logger *zap.Logger) *Loop {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Loop{
		model:         model,
		invoker:       invoker,
		maxIterations: maxIterations,
		logger:        logger,
	}
}

// Run answers a single question. It returns an error only when the model
// collaborator fails; parse ambiguity and tool failures degrade to "try
// again next turn" and never abort the session. The returned Result always
// carries a non-empty answer: either the model's final answer or the
// ExhaustedAnswer sentinel once the iteration cap is reached.
func (l *Loop) Run(ctx context.Context, question string) (*Result, error) {
	var (
		history []string
		turns   []Turn
	)

	for i := 0; i < l.maxIterations; i++ {
		prompt := buildPrompt(question, history)

		output, err := l.model.Generate(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("model call failed on iteration %d: %w", i+1, err)
		}
		history = append(history, output)

		l.logger.Debug("model turn",
			zap.Int("iteration", i+1),
			zap.Int("outputLen", len(output)),
		)

		// Termination wins over an action: a turn carrying both markers is
		// terminal and no tool is called.
		if answer, ok := ParseFinal(output); ok {
			turns = append(turns, Turn{
				Index:    i,
				Output:   output,
				Terminal: true,
			})
			l.logger.Info("final answer reached",
				zap.Int("iterations", i+1),
			)
			return &Result{
				Question:   question,
				Answer:     answer,
				Turns:      turns,
				Iterations: i + 1,
				Model:      l.model.Label(),
			}, nil
		}

		action, ok := ParseAction(output)
		if !ok {
			// No action and no termination: record the bare turn and let the
			// model self-correct next iteration.
			turns = append(turns, Turn{Index: i, Output: output})
			continue
		}

		observation := l.invoker.Observe(ctx, action)
		history = append(history, "OBSERVATION: "+observation)
		turns = append(turns, Turn{
			Index:       i,
			Output:      output,
			Action:      &action,
			Observation: observation,
		})
	}

	l.logger.Warn("iteration limit reached without final answer",
		zap.Int("maxIterations", l.maxIterations),
	)
	return &Result{
		Question:   question,
		Answer:     ExhaustedAnswer,
		Turns:      turns,
		Iterations: l.maxIterations,
		Model:      l.model.Label(),
	}, nil
}
