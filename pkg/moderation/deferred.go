package moderation

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PancyStudios/MarvinGo/pkg/errors"
	"github.com/PancyStudios/MarvinGo/pkg/logger"
	"github.com/PancyStudios/MarvinGo/pkg/metrics"
)

// ErrSchedulerClosed is returned when scheduling on a closed Scheduler
var ErrSchedulerClosed = errors.New("scheduler closed")

// DefaultActionTimeout bounds a single delayed action
const DefaultActionTimeout = 30 * time.Second

// Action is the privileged operation run by a deferred task
type Action func(ctx context.Context) error

const (
	taskPending int32 = iota
	taskRunning
	taskDone
	taskCancelled
)

// Task is a scheduled retraction. It runs at most once and can be cancelled
// until its timer fires.
type Task struct {
	Scope  int64
	Object int64
	Delay  time.Duration

	state atomic.Int32
	timer *time.Timer
	done  chan struct{}
	err   error
	sched *Scheduler
}

// Cancel stops the task if it has not started. It reports whether the task
// was prevented from running.
func (t *Task) Cancel() bool {
	if !t.state.CompareAndSwap(taskPending, taskCancelled) {
		return false
	}
	t.timer.Stop()
	t.sched.forget(t)
	close(t.done)
	metrics.DeferredTasks.WithLabelValues("cancelled").Inc()
	return true
}

// Done is closed once the task ran or was cancelled
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the action error after Done is closed
func (t *Task) Err() error {
	<-t.done
	return t.err
}

// Cancelled reports whether the task was cancelled
func (t *Task) Cancelled() bool {
	return t.state.Load() == taskCancelled
}

// SchedulerOptions configures a Scheduler
type SchedulerOptions struct {
	// RecheckDelayed consults the permission cache again when a delayed task
	// fires. Off by default: only immediate actions are gated.
	RecheckDelayed bool
	ActionTimeout  time.Duration
}

// Scheduler runs privileged actions now or after a delay.
//
// Immediate actions are gated by the permission cache and run in the caller's
// goroutine; their errors are returned. Delayed actions run on their own timer,
// are fire-and-forget and only log their failures.
type Scheduler struct {
	perms   *PermissionCache
	probe   Probe
	opts    SchedulerOptions
	baseCtx context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	pending map[*Task]struct{}
	closed  bool
}

// NewScheduler builds a Scheduler gating through perms with probe
func NewScheduler(perms *PermissionCache, probe Probe, opts SchedulerOptions) *Scheduler {
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = DefaultActionTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		perms:   perms,
		probe:   probe,
		opts:    opts,
		baseCtx: ctx,
		cancel:  cancel,
		pending: make(map[*Task]struct{}),
	}
}

// Schedule runs action against object in scope.
//
// With delay <= 0 the action runs synchronously if the bot is privileged in
// scope and is silently skipped otherwise; the returned task is nil.
// With delay > 0 a Task is returned and the action runs after delay.
func (s *Scheduler) Schedule(ctx context.Context, scope, object int64, delay time.Duration, action Action) (*Task, error) {
	if delay <= 0 {
		return nil, s.runNow(ctx, scope, object, action)
	}

	t := &Task{
		Scope:  scope,
		Object: object,
		Delay:  delay,
		done:   make(chan struct{}),
		sched:  s,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSchedulerClosed
	}
	s.pending[t] = struct{}{}
	t.timer = time.AfterFunc(delay, func() { s.fire(t, action) })

	metrics.DeferredTasks.WithLabelValues("scheduled").Inc()
	logger.Debug(fmt.Sprintf("Scheduled action on %d/%d in %v", scope, object, delay), "Scheduler")
	return t, nil
}

func (s *Scheduler) runNow(ctx context.Context, scope, object int64, action Action) error {
	ok, err := s.perms.IsPrivileged(ctx, scope, s.probe)
	if err != nil {
		return err
	}
	if !ok {
		metrics.DeferredTasks.WithLabelValues("suppressed").Inc()
		logger.Debug(fmt.Sprintf("Not privileged in %d, skipping action on %d", scope, object), "Scheduler")
		return nil
	}

	if err := action(ctx); err != nil {
		metrics.DeferredTasks.WithLabelValues("failed").Inc()
		return err
	}
	metrics.DeferredTasks.WithLabelValues("executed").Inc()
	return nil
}

func (s *Scheduler) fire(t *Task, action Action) {
	if !t.state.CompareAndSwap(taskPending, taskRunning) {
		return
	}
	defer func() {
		s.forget(t)
		t.state.Store(taskDone)
		close(t.done)
	}()
	defer errors.RecoverMiddleware()()

	ctx, cancel := context.WithTimeout(s.baseCtx, s.opts.ActionTimeout)
	defer cancel()

	if s.opts.RecheckDelayed {
		ok, err := s.perms.IsPrivileged(ctx, t.Scope, s.probe)
		if err != nil {
			t.err = err
			metrics.DeferredTasks.WithLabelValues("failed").Inc()
			logger.Warn(fmt.Sprintf("Permission check for delayed action on %d/%d failed: %v", t.Scope, t.Object, err), "Scheduler")
			return
		}
		if !ok {
			metrics.DeferredTasks.WithLabelValues("suppressed").Inc()
			return
		}
	}

	if err := action(ctx); err != nil {
		t.err = err
		metrics.DeferredTasks.WithLabelValues("failed").Inc()
		logger.Warn(fmt.Sprintf("Delayed action on %d/%d failed: %v", t.Scope, t.Object, err), "Scheduler")
		return
	}
	metrics.DeferredTasks.WithLabelValues("executed").Inc()
}

func (s *Scheduler) forget(t *Task) {
	s.mu.Lock()
	delete(s.pending, t)
	s.mu.Unlock()
}

// Pending returns the number of tasks waiting for their timer
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close cancels every pending task and aborts running ones.
// Later calls to Schedule with a delay fail with ErrSchedulerClosed.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	tasks := make([]*Task, 0, len(s.pending))
	for t := range s.pending {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()

	for _, t := range tasks {
		t.Cancel()
	}
	s.cancel()
}
