// Package coordinator implements the per-agent single-flight execution gate.
//
// Every admitted run gets a freshly provisioned resource bundle, owned and
// torn down by the goroutine that runs the session. Bundles are never reused
// across executions: reuse ties a handle created under one cancellation scope
// to a task running under another, which is exactly the lifetime corruption
// this design exists to rule out.
package coordinator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sacahan/casualtrader/internal/agent"
	"github.com/sacahan/casualtrader/internal/logger"
	"github.com/sacahan/casualtrader/internal/notify"
	"github.com/sacahan/casualtrader/internal/session"
	"github.com/sacahan/casualtrader/internal/store"
	"github.com/sacahan/casualtrader/internal/types"
	"github.com/sacahan/casualtrader/pkg/errors"
)

// Status is the coordinator's view of one agent.
type Status struct {
	Running   bool            `json:"running"`
	SessionID string          `json:"session_id,omitempty"`
	Mode      types.AgentMode `json:"mode,omitempty"`
}

// slot is the per-agent run state. Admission (check-not-running,
// mark-running, create session) is one critical section under mu; no
// interleaving can admit two runs for the same agent.
type slot struct {
	mu        sync.Mutex
	running   bool
	sessionID string
	mode      types.AgentMode
	cancel    context.CancelFunc
	// done closes when the run's cleanup has fully finished, resources
	// released included. Stop blocks on it.
	done chan struct{}
}

// Coordinator admits, tracks, and cancels agent executions, guaranteeing at
// most one in-flight run per agent.
type Coordinator struct {
	mu    sync.RWMutex
	slots map[string]*slot

	store       *store.Store
	provisioner *agent.Provisioner
	engine      agent.DecisionEngine
	recorder    *session.Recorder
	bus         *notify.Bus
	logger      *logger.Logger

	// runTimeout is the per-execution deadline. Zero disables it.
	runTimeout time.Duration
}

// New creates a coordinator.
func New(st *store.Store, provisioner *agent.Provisioner, engine agent.DecisionEngine,
	recorder *session.Recorder, bus *notify.Bus, runTimeout time.Duration, log *logger.Logger,
) *Coordinator {
	return &Coordinator{
		slots:       make(map[string]*slot),
		store:       st,
		provisioner: provisioner,
		engine:      engine,
		recorder:    recorder,
		bus:         bus,
		runTimeout:  runTimeout,
		logger:      log,
	}
}

// Start admits a run for the agent and launches it in the background,
// returning the new session id immediately. Fails with ErrCodeAgentBusy when
// a run for the agent is already in flight, and with ErrCodeAgentNotFound for
// unknown agents.
func (c *Coordinator) Start(ctx context.Context, agentID string, mode types.AgentMode) (string, error) {
	if !mode.IsValid() {
		return "", errors.Newf(errors.ErrCodeInvalidMode, "unknown agent mode %q", mode)
	}

	agentOpt, err := c.store.GetAgent(ctx, agentID)
	if err != nil {
		return "", err
	}

	if agentOpt.IsNone() {
		return "", errors.Newf(errors.ErrCodeAgentNotFound, "agent %s not found", agentID)
	}

	agentRow := agentOpt.Unwrap()
	agentSlot := c.slotFor(agentID)

	agentSlot.mu.Lock()
	defer agentSlot.mu.Unlock()

	if agentSlot.running {
		return "", errors.Newf(errors.ErrCodeAgentBusy, "agent %s is already running session %s", agentID, agentSlot.sessionID)
	}

	sess := types.NewExecutionSession(agentID, mode)

	if err := c.recorder.RecordAdmitted(ctx, sess); err != nil {
		return "", err
	}

	runCtx := context.Background()

	var cancel context.CancelFunc
	if c.runTimeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, c.runTimeout)
	} else {
		runCtx, cancel = context.WithCancel(runCtx)
	}

	agentSlot.running = true
	agentSlot.sessionID = sess.ID
	agentSlot.mode = mode
	agentSlot.cancel = cancel
	agentSlot.done = make(chan struct{})

	task := agent.Task{
		AgentID:      agentID,
		Mode:         mode,
		Instructions: agentRow.Instructions,
	}

	go c.run(runCtx, agentSlot, sess, task)

	c.logger.Info("session admitted",
		zap.String("agent_id", agentID),
		zap.String("session_id", sess.ID),
		zap.String("mode", string(mode)),
	)

	return sess.ID, nil
}

// Stop signals cooperative cancellation to the agent's running task and
// blocks until the task has fully unwound and released its resources. Only
// after Stop returns is a subsequent Start for the agent guaranteed a fresh
// bundle. Returns ErrCodeNotRunning when the agent has no run in flight.
func (c *Coordinator) Stop(ctx context.Context, agentID string) error {
	c.mu.RLock()
	agentSlot, ok := c.slots[agentID]
	c.mu.RUnlock()

	if !ok {
		return errors.Newf(errors.ErrCodeNotRunning, "agent %s is not running", agentID)
	}

	agentSlot.mu.Lock()

	if !agentSlot.running {
		agentSlot.mu.Unlock()

		return errors.Newf(errors.ErrCodeNotRunning, "agent %s is not running", agentID)
	}

	cancel := agentSlot.cancel
	done := agentSlot.done
	sessionID := agentSlot.sessionID
	agentSlot.mu.Unlock()

	cancel()

	select {
	case <-done:
	case <-ctx.Done():
		// The task keeps unwinding in the background; the caller abandoned
		// the wait, not the cleanup.
		return errors.Wrapf(errors.ErrCodeCancelled, ctx.Err(), "abandoned wait for session %s to unwind", sessionID)
	}

	c.logger.Info("session stopped",
		zap.String("agent_id", agentID),
		zap.String("session_id", sessionID),
	)

	return nil
}

// Status reports whether the agent currently has a run in flight.
func (c *Coordinator) Status(agentID string) Status {
	c.mu.RLock()
	agentSlot, ok := c.slots[agentID]
	c.mu.RUnlock()

	if !ok {
		return Status{}
	}

	agentSlot.mu.Lock()
	defer agentSlot.mu.Unlock()

	if !agentSlot.running {
		return Status{}
	}

	return Status{
		Running:   true,
		SessionID: agentSlot.sessionID,
		Mode:      agentSlot.mode,
	}
}

// Shutdown stops every running agent and waits for their cleanup.
func (c *Coordinator) Shutdown(ctx context.Context) {
	c.mu.RLock()
	agentIDs := make([]string, 0, len(c.slots))

	for agentID := range c.slots {
		agentIDs = append(agentIDs, agentID)
	}
	c.mu.RUnlock()

	for _, agentID := range agentIDs {
		if err := c.Stop(ctx, agentID); err != nil && !errors.HasCode(err, errors.ErrCodeNotRunning) {
			c.logger.Warn("failed to stop agent during shutdown",
				zap.String("agent_id", agentID),
				zap.Error(err),
			)
		}
	}
}

// run executes one admitted session. The deferred cleanup runs exactly once
// on every exit path (success, failure, panic, cancellation): release the
// bundle, clear the slot, persist the terminal state, publish the terminal
// event, then signal Stop waiters.
func (c *Coordinator) run(ctx context.Context, agentSlot *slot, sess *types.ExecutionSession, task agent.Task) {
	var bundle *agent.Bundle

	defer func() {
		if p := recover(); p != nil {
			sess.Fail(errors.Newf(errors.ErrCodeEngineFailed, "panic in execution task: %v", p))
			c.logger.Error("execution task panicked",
				zap.String("session_id", sess.ID),
				zap.Any("panic", p),
			)
		}

		c.provisioner.Release(bundle)

		agentSlot.mu.Lock()
		agentSlot.running = false
		agentSlot.cancel = nil
		done := agentSlot.done
		agentSlot.mu.Unlock()

		if !sess.Status.IsTerminal() {
			sess.Cancel()
		}

		// The run context may already be cancelled; terminal persistence and
		// notification must still happen.
		_ = c.recorder.RecordTerminal(context.Background(), sess)

		c.bus.Publish(types.TerminalEvent(sess))

		close(done)
	}()

	sess.MarkRunning()

	if err := c.recorder.RecordRunning(ctx, sess); err != nil {
		sess.Fail(err)

		return
	}

	c.bus.Publish(types.StartedEvent(sess.ID, sess.AgentID, sess.Mode))

	var err error

	bundle, err = c.provisioner.Provision(ctx, sess.ID, sess.AgentID, sess.Mode)
	if err != nil {
		c.finish(ctx, sess, err)

		return
	}

	outcome, err := c.engine.Execute(ctx, task, bundle)
	if err != nil {
		c.finish(ctx, sess, err)

		return
	}

	// Forward the engine's intents to the trade executor one at a time, in
	// the order returned. The first rejection fails the session.
	for _, intent := range outcome.Intents {
		if _, err := bundle.ApplyTrade(ctx, intent); err != nil {
			c.finish(ctx, sess, err)

			return
		}
	}

	sess.Complete(outcome.Summary)
}

// finish classifies a task error into the session's terminal state:
// cooperative cancellation becomes CANCELLED, a deadline expiry becomes
// FAILED with a timeout error, anything else becomes FAILED as-is.
func (c *Coordinator) finish(ctx context.Context, sess *types.ExecutionSession, err error) {
	switch {
	case ctx.Err() == context.Canceled:
		sess.Cancel()
	case ctx.Err() == context.DeadlineExceeded:
		sess.Fail(errors.Wrapf(errors.ErrCodeDeadlineExpired, err, "execution deadline of %s expired", c.runTimeout))
	default:
		sess.Fail(err)
	}
}

// slotFor returns the agent's slot, creating it on first use. Slots are one
// per agent; unrelated agents never contend on the same lock.
func (c *Coordinator) slotFor(agentID string) *slot {
	c.mu.RLock()
	existing, ok := c.slots[agentID]
	c.mu.RUnlock()

	if ok {
		return existing
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.slots[agentID]; ok {
		return existing
	}

	created := &slot{}
	c.slots[agentID] = created

	return created
}
