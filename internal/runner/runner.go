// Package runner executes pending sessions. It watches the session store for
// mutations, claims sessions in the Pending phase, drives the reasoning loop
// for each one, and records the terminal outcome back into the store.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mnordvik/statbot/internal/agent"
	"github.com/mnordvik/statbot/internal/session"
	"github.com/mnordvik/statbot/pkg/api"
)

// Answerer produces an answer transcript for a session spec.
type Answerer interface {
	Answer(ctx context.Context, spec api.SessionSpec) (*agent.Result, error)
}

// AnswerFunc adapts a plain function to the Answerer interface.
type AnswerFunc func(ctx context.Context, spec api.SessionSpec) (*agent.Result, error)

func (f AnswerFunc) Answer(ctx context.Context, spec api.SessionSpec) (*agent.Result, error) {
	return f(ctx, spec)
}

const defaultResyncInterval = 30 * time.Second

// Runner consumes pending sessions from the store. Watch events drive the
// work queue; a periodic resync catches sessions created while no watch was
// active (e.g. rows persisted before the server started).
type Runner struct {
	store    session.Store
	answerer Answerer
	workers  int
	resync   time.Duration
	queue    *workQueue
	logger   *zap.Logger

	claimMu sync.Mutex // serializes the Pending -> Running transition
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// New creates a runner with the given worker count. workers <= 0 selects 1.
func New(store session.Store, answerer Answerer, workers int, logger *zap.Logger) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{
		store:    store,
		answerer: answerer,
		workers:  workers,
		resync:   defaultResyncInterval,
		queue:    newWorkQueue(),
		logger:   logger,
	}
}

// Start launches the watch loop, the resync ticker and the worker pool.
// It returns immediately; use Stop for a graceful shutdown.
func (r *Runner) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)

	r.logger.Info("starting session runner", zap.Int("workers", r.workers))

	events, cancelWatch := r.store.Watch()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancelWatch()
		r.watchLoop(ctx, events)
	}()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.resyncLoop(ctx)
	}()

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go func(worker int) {
			defer r.wg.Done()
			r.workerLoop(ctx, worker)
		}(i)
	}

	// Pick up sessions that were pending before the runner started.
	r.enqueuePending()
}

// Stop shuts the runner down and waits for in-flight sessions to finish.
func (r *Runner) Stop() {
	r.logger.Info("stopping session runner")
	if r.cancel != nil {
		r.cancel()
	}
	r.queue.Close()
	r.wg.Wait()
}

func (r *Runner) watchLoop(ctx context.Context, events <-chan api.WatchEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if evt.Type == api.EventDeleted {
				continue
			}
			sess, ok := evt.Object.(*api.Session)
			if !ok || sess.Status.Phase != api.SessionPending {
				continue
			}
			r.logger.Debug("pending session observed",
				zap.String("session", sess.Metadata.ID),
				zap.String("event", string(evt.Type)),
			)
			r.queue.Add(sess.Metadata.ID)
		}
	}
}

func (r *Runner) resyncLoop(ctx context.Context) {
	ticker := time.NewTicker(r.resync)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.enqueuePending()
		}
	}
}

// enqueuePending lists the store and queues every pending session.
func (r *Runner) enqueuePending() {
	sessions, err := r.store.List()
	if err != nil {
		r.logger.Warn("listing sessions for resync", zap.Error(err))
		return
	}
	for _, s := range sessions {
		if s.Status.Phase == api.SessionPending {
			r.queue.Add(s.Metadata.ID)
		}
	}
}

func (r *Runner) workerLoop(ctx context.Context, worker int) {
	for {
		id, ok := r.queue.Get()
		if !ok {
			return
		}

		select {
		case <-ctx.Done():
			r.queue.Done(id)
			return
		default:
		}

		if err := r.process(ctx, id); err != nil {
			r.logger.Error("processing session",
				zap.Int("worker", worker),
				zap.String("session", id),
				zap.Error(err),
			)
			r.queue.Requeue(id)
			continue
		}
		r.queue.Done(id)
	}
}

// process claims a pending session, runs the reasoning loop and writes the
// terminal status. A session that is gone or no longer pending is a no-op.
func (r *Runner) process(ctx context.Context, id string) error {
	sess, claimed, err := r.claim(id)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	r.logger.Info("session started",
		zap.String("session", id),
		zap.String("question", sess.Spec.Question),
	)

	result, runErr := r.answerer.Answer(ctx, sess.Spec)

	now := time.Now()
	sess.Metadata.UpdatedAt = now

	// A session cut short by shutdown is retryable, not failed: hand it back
	// as pending so the next start picks it up.
	if runErr != nil && ctx.Err() != nil {
		sess.Status.Phase = api.SessionPending
		sess.Status.StartedAt = time.Time{}
		if err := r.store.Update(sess); err != nil {
			return fmt.Errorf("returning session %q to pending: %w", id, err)
		}
		r.logger.Info("session interrupted by shutdown, returned to pending",
			zap.String("session", id),
		)
		return nil
	}

	sess.Status.FinishedAt = now

	switch {
	case runErr != nil:
		sess.Status.Phase = api.SessionFailed
		sess.Status.Error = runErr.Error()
	case result.Answer == agent.ExhaustedAnswer:
		sess.Status.Phase = api.SessionExhausted
		r.recordResult(sess, result)
	default:
		sess.Status.Phase = api.SessionCompleted
		r.recordResult(sess, result)
	}

	if err := r.store.Update(sess); err != nil {
		return fmt.Errorf("recording result for session %q: %w", id, err)
	}

	r.logger.Info("session finished",
		zap.String("session", id),
		zap.String("phase", string(sess.Status.Phase)),
		zap.Int("iterations", sess.Status.Iterations),
	)
	return nil
}

// claim transitions a session from Pending to Running. Returns claimed=false
// when the session is missing or another worker got there first.
func (r *Runner) claim(id string) (*api.Session, bool, error) {
	r.claimMu.Lock()
	defer r.claimMu.Unlock()

	sess, err := r.store.Get(id)
	if err == session.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting session %q: %w", id, err)
	}
	if sess.Status.Phase != api.SessionPending {
		return nil, false, nil
	}

	now := time.Now()
	sess.Status.Phase = api.SessionRunning
	sess.Status.StartedAt = now
	sess.Metadata.UpdatedAt = now

	if err := r.store.Update(sess); err != nil {
		if err == session.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("claiming session %q: %w", id, err)
	}
	return sess, true, nil
}

func (r *Runner) recordResult(sess *api.Session, result *agent.Result) {
	sess.Status.Answer = result.Answer
	sess.Status.Model = result.Model
	sess.Status.Iterations = result.Iterations
	sess.Status.Turns = toAPITurns(result.Turns)
}

func toAPITurns(turns []agent.Turn) []api.Turn {
	out := make([]api.Turn, len(turns))
	for i, t := range turns {
		out[i] = api.Turn{
			Index:       t.Index,
			Output:      t.Output,
			Observation: t.Observation,
			Terminal:    t.Terminal,
		}
		if t.Action != nil {
			out[i].Action = &api.ActionCall{
				Tool: t.Action.Tool,
				Args: t.Action.Args,
			}
		}
	}
	return out
}
