package moderation

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PancyStudios/MarvinGo/pkg/logger"
	"github.com/PancyStudios/MarvinGo/pkg/metrics"
)

// Outcome is the terminal state of an evaluated event
type Outcome int

const (
	Accepted Outcome = iota
	Rejected
)

func (o Outcome) String() string {
	if o == Rejected {
		return "rejected"
	}
	return "accepted"
}

// Reason explains a rejection
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonRateLimited Reason = "rate-limited"
	ReasonBlacklisted Reason = "blacklisted"
)

// Event is an inbound, moderation-relevant message
type Event struct {
	Scope  int64
	Object int64
	// Sender is the identity used for flood control
	Sender string
	// UserID and Mention address the explanation of a rejection: privately
	// to UserID, or in Scope prefixed by Mention when that fails
	UserID  int64
	Mention string
	// Text is checked against the blacklist; empty text skips the check
	Text string
}

// Verdict is the result of Gate.Evaluate
type Verdict struct {
	Outcome Outcome
	Reason  Reason
	// Token is the blacklisted word that caused the rejection
	Token string
}

// Accepted reports whether the caller may proceed
func (v Verdict) Accepted() bool {
	return v.Outcome == Accepted
}

// Retractor deletes a message from a chat
type Retractor interface {
	DeleteMessage(ctx context.Context, scope, object int64) error
}

// ExplainFunc tells the sender which token got their message rejected
type ExplainFunc func(ctx context.Context, ev Event, token string) error

// RejectionListener is notified of every rejection
type RejectionListener func(ctx context.Context, ev Event, v Verdict)

// GateOptions wires the components of a Gate
type GateOptions struct {
	Flood     *RateWindow
	Blacklist *SortedBlacklist
	Scheduler *Scheduler
	Retractor Retractor
	Explain   ExplainFunc
	// GraceDelay delays retraction of throttled and unrecognized input
	GraceDelay time.Duration
	// BlacklistDelay delays retraction of blacklisted content, 0 means now
	BlacklistDelay time.Duration
}

// Stats is a snapshot of the gate counters
type Stats struct {
	Accepted         uint64 `json:"accepted"`
	RateLimited      uint64 `json:"rateLimited"`
	Blacklisted      uint64 `json:"blacklisted"`
	FloodIdentities  int    `json:"floodIdentities"`
	PendingTasks     int    `json:"pendingTasks"`
	KnownScopes      int    `json:"knownScopes"`
	PermissionProbes int64  `json:"permissionProbes"`
	BlacklistSize    int    `json:"blacklistSize"`
}

// Gate owns the flood and permission state and decides, for each event,
// whether the caller may proceed. Rejections always retract the message:
// throttled senders silently after the grace delay, blacklisted content
// with an explanation naming the token.
type Gate struct {
	flood          *RateWindow
	blacklist      *SortedBlacklist
	scheduler      *Scheduler
	retractor      Retractor
	explain        ExplainFunc
	graceDelay     time.Duration
	blacklistDelay time.Duration

	mu        sync.RWMutex
	listeners []RejectionListener

	accepted    atomic.Uint64
	rateLimited atomic.Uint64
	blacklisted atomic.Uint64
}

// NewGate builds a Gate from its components
func NewGate(opts GateOptions) *Gate {
	return &Gate{
		flood:          opts.Flood,
		blacklist:      opts.Blacklist,
		scheduler:      opts.Scheduler,
		retractor:      opts.Retractor,
		explain:        opts.Explain,
		graceDelay:     opts.GraceDelay,
		blacklistDelay: opts.BlacklistDelay,
	}
}

// SetExplain replaces the explanation hook
func (g *Gate) SetExplain(fn ExplainFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.explain = fn
}

// OnReject registers a listener for rejections
func (g *Gate) OnReject(fn RejectionListener) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

// Evaluate runs ev through the rate check, then the content check.
// A returned error comes from a synchronous retraction; the verdict is valid
// regardless.
func (g *Gate) Evaluate(ctx context.Context, ev Event) (Verdict, error) {
	if g.flood != nil && g.flood.Check(ev.Sender) {
		v := Verdict{Outcome: Rejected, Reason: ReasonRateLimited}
		g.rateLimited.Add(1)
		g.notify(ctx, ev, v)
		logger.Debug(fmt.Sprintf("Sender %s is flooding in %d", ev.Sender, ev.Scope), "Gate")

		_, err := g.Retract(ctx, ev.Scope, ev.Object, g.graceDelay)
		return v, err
	}

	if v, err := g.CheckContent(ctx, ev); !v.Accepted() {
		return v, err
	}

	g.accepted.Add(1)
	metrics.Verdicts.WithLabelValues(Accepted.String(), "").Inc()
	return Verdict{Outcome: Accepted}, nil
}

// CheckContent runs only the content stage, for text that is screened after
// the sender already passed the rate check (a command argument, for example).
func (g *Gate) CheckContent(ctx context.Context, ev Event) (Verdict, error) {
	token, hit := g.blacklist.Scan(ev.Text)
	if !hit {
		return Verdict{Outcome: Accepted}, nil
	}

	v := Verdict{Outcome: Rejected, Reason: ReasonBlacklisted, Token: token}
	g.blacklisted.Add(1)
	g.notify(ctx, ev, v)
	logger.Info(fmt.Sprintf("Blacklisted token %q from %s in %d", token, ev.Sender, ev.Scope), "Gate")

	_, err := g.Retract(ctx, ev.Scope, ev.Object, g.blacklistDelay)

	g.mu.RLock()
	explain := g.explain
	g.mu.RUnlock()
	if explain != nil {
		if xerr := explain(ctx, ev, token); xerr != nil {
			logger.Warn(fmt.Sprintf("Could not explain rejection to %s: %v", ev.Sender, xerr), "Gate")
		}
	}
	return v, err
}

// Retract deletes object from scope now (gated by privileges) or after delay
func (g *Gate) Retract(ctx context.Context, scope, object int64, delay time.Duration) (*Task, error) {
	return g.scheduler.Schedule(ctx, scope, object, delay, func(ctx context.Context) error {
		return g.retractor.DeleteMessage(ctx, scope, object)
	})
}

// RetractLater deletes object after the grace delay
func (g *Gate) RetractLater(ctx context.Context, scope, object int64) (*Task, error) {
	return g.Retract(ctx, scope, object, g.graceDelay)
}

func (g *Gate) notify(ctx context.Context, ev Event, v Verdict) {
	metrics.Verdicts.WithLabelValues(v.Outcome.String(), string(v.Reason)).Inc()

	g.mu.RLock()
	listeners := g.listeners
	g.mu.RUnlock()

	for _, fn := range listeners {
		fn(ctx, ev, v)
	}
}

// Stats returns a snapshot of the gate counters
func (g *Gate) Stats() Stats {
	s := Stats{
		Accepted:      g.accepted.Load(),
		RateLimited:   g.rateLimited.Load(),
		Blacklisted:   g.blacklisted.Load(),
		BlacklistSize: g.blacklist.Len(),
	}
	if g.flood != nil {
		s.FloodIdentities = g.flood.Len()
	}
	if g.scheduler != nil {
		s.PendingTasks = g.scheduler.Pending()
		s.KnownScopes = g.scheduler.perms.Len()
		s.PermissionProbes = g.scheduler.perms.Probes()
	}
	return s
}

// Close cancels pending retractions
func (g *Gate) Close() {
	if g.scheduler != nil {
		g.scheduler.Close()
	}
}
