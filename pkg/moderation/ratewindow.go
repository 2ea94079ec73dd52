// Package moderation implements flood control and deferred moderation:
// a per-identity rate window, a sorted blacklist matcher, a lazily populated
// permission cache and a scheduler for delayed retractions, composed by Gate.
package moderation

import (
	"sync"
	"time"

	"github.com/PancyStudios/MarvinGo/pkg/errors"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMaxIdentities bounds the number of tracked senders
const DefaultMaxIdentities = 10000

// FloodRecord is the activity window of one identity
type FloodRecord struct {
	WindowStart time.Time
	Count       int
}

// RateWindowOptions configures a RateWindow
type RateWindowOptions struct {
	Timeframe     time.Duration
	CountLimit    int
	MaxIdentities int
	Now           func() time.Time
}

// RateWindow is a resetting fixed-window counter per identity.
//
// Records live in an expirable LRU whose TTL equals the timeframe. A record is
// only replaced (never incremented) once its window has elapsed, so TTL expiry
// and capacity eviction drop records that would have been reset anyway, or the
// least recently active senders when the map is full.
type RateWindow struct {
	timeframe time.Duration
	limit     int
	now       func() time.Time

	mu      sync.Mutex
	records *expirable.LRU[string, *FloodRecord]
}

// NewRateWindow validates the options and builds a RateWindow
func NewRateWindow(opts RateWindowOptions) (*RateWindow, error) {
	if opts.Timeframe <= 0 {
		return nil, errors.NewConfigurationError("timeframe", "must be positive")
	}
	if opts.CountLimit <= 0 {
		return nil, errors.NewConfigurationError("count_limit", "must be positive")
	}
	if opts.MaxIdentities <= 0 {
		opts.MaxIdentities = DefaultMaxIdentities
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &RateWindow{
		timeframe: opts.Timeframe,
		limit:     opts.CountLimit,
		now:       opts.Now,
		records:   expirable.NewLRU[string, *FloodRecord](opts.MaxIdentities, nil, opts.Timeframe),
	}, nil
}

// Check registers one event for identity and reports whether it is flooding.
// The first event of a window never floods; later ones flood once the count
// reaches the limit.
func (w *RateWindow) Check(identity string) bool {
	now := w.now()

	w.mu.Lock()
	defer w.mu.Unlock()

	rec, ok := w.records.Get(identity)
	if !ok || now.Sub(rec.WindowStart) >= w.timeframe {
		w.records.Add(identity, &FloodRecord{WindowStart: now, Count: 1})
		return false
	}

	rec.Count++
	return rec.Count >= w.limit
}

// Record returns a copy of the current record for identity
func (w *RateWindow) Record(identity string) (FloodRecord, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec, ok := w.records.Peek(identity)
	if !ok {
		return FloodRecord{}, false
	}
	return *rec, true
}

// Len returns the number of tracked identities
func (w *RateWindow) Len() int {
	return w.records.Len()
}

// Timeframe returns the configured window length
func (w *RateWindow) Timeframe() time.Duration {
	return w.timeframe
}

// CountLimit returns the configured event limit
func (w *RateWindow) CountLimit() int {
	return w.limit
}
