package moderation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deletion struct {
	scope, object int64
}

type fakeRetractor struct {
	mu      sync.Mutex
	deleted []deletion
}

func (f *fakeRetractor) DeleteMessage(ctx context.Context, scope, object int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, deletion{scope, object})
	return nil
}

func (f *fakeRetractor) Deleted() []deletion {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]deletion(nil), f.deleted...)
}

type gateFixture struct {
	gate      *Gate
	clock     *fakeClock
	retractor *fakeRetractor
	explained []string
}

func newGateFixture(t *testing.T, privileged bool) *gateFixture {
	t.Helper()
	fix := &gateFixture{clock: newFakeClock(), retractor: &fakeRetractor{}}

	flood, err := NewRateWindow(RateWindowOptions{Timeframe: 10 * time.Second, CountLimit: 3, Now: fix.clock.Now})
	require.NoError(t, err)
	bl, err := NewSortedBlacklist([]string{"idiota", "spam"})
	require.NoError(t, err)
	probe, _ := staticProbe(privileged)

	fix.gate = NewGate(GateOptions{
		Flood:     flood,
		Blacklist: bl,
		Scheduler: NewScheduler(NewPermissionCache(0), probe, SchedulerOptions{}),
		Retractor: fix.retractor,
		Explain: func(ctx context.Context, ev Event, token string) error {
			fix.explained = append(fix.explained, token)
			return nil
		},
		GraceDelay: testDelay,
	})
	t.Cleanup(fix.gate.Close)
	return fix
}

func TestGateAcceptsCleanMessages(t *testing.T) {
	fix := newGateFixture(t, true)

	v, err := fix.gate.Evaluate(context.Background(), Event{Scope: -1, Object: 1, Sender: "mario", Text: "ciao a tutti"})
	require.NoError(t, err)
	assert.True(t, v.Accepted())
	assert.Equal(t, ReasonNone, v.Reason)
	assert.Empty(t, fix.retractor.Deleted())
	assert.Empty(t, fix.explained)
}

func TestGateBlacklistRetractsImmediately(t *testing.T) {
	fix := newGateFixture(t, true)

	v, err := fix.gate.Evaluate(context.Background(), Event{Scope: -1, Object: 5, Sender: "mario", Text: "Questo e' spam puro"})
	require.NoError(t, err)
	assert.Equal(t, Rejected, v.Outcome)
	assert.Equal(t, ReasonBlacklisted, v.Reason)
	assert.Equal(t, "spam", v.Token)

	assert.Equal(t, []deletion{{-1, 5}}, fix.retractor.Deleted())
	assert.Equal(t, []string{"spam"}, fix.explained)
}

func TestGateBlacklistWithoutPrivilegesStillExplains(t *testing.T) {
	fix := newGateFixture(t, false)

	v, err := fix.gate.Evaluate(context.Background(), Event{Scope: -1, Object: 5, Sender: "mario", Text: "idiota"})
	require.NoError(t, err)
	assert.Equal(t, ReasonBlacklisted, v.Reason)
	assert.Empty(t, fix.retractor.Deleted())
	assert.Equal(t, []string{"idiota"}, fix.explained)
}

func TestGateRateLimitRetractsAfterGrace(t *testing.T) {
	fix := newGateFixture(t, false)
	ctx := context.Background()

	var rejected []Verdict
	fix.gate.OnReject(func(ctx context.Context, ev Event, v Verdict) {
		rejected = append(rejected, v)
	})

	for i := int64(1); i <= 2; i++ {
		v, err := fix.gate.Evaluate(ctx, Event{Scope: -1, Object: i, Sender: "luigi", Text: "ciao"})
		require.NoError(t, err)
		assert.True(t, v.Accepted())
	}

	// the flooding message also carries a blacklisted token; the rate check wins
	v, err := fix.gate.Evaluate(ctx, Event{Scope: -1, Object: 3, Sender: "luigi", Text: "spam"})
	require.NoError(t, err)
	assert.Equal(t, ReasonRateLimited, v.Reason)
	assert.Empty(t, v.Token)
	assert.Empty(t, fix.explained, "throttled senders are not told why")

	require.Len(t, rejected, 1)
	assert.Equal(t, ReasonRateLimited, rejected[0].Reason)

	assert.Empty(t, fix.retractor.Deleted(), "retraction waits for the grace delay")
	assert.Eventually(t, func() bool {
		return len(fix.retractor.Deleted()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []deletion{{-1, 3}}, fix.retractor.Deleted())

	stats := fix.gate.Stats()
	assert.Equal(t, uint64(2), stats.Accepted)
	assert.Equal(t, uint64(1), stats.RateLimited)
	assert.Equal(t, uint64(0), stats.Blacklisted)
	assert.Equal(t, 1, stats.FloodIdentities)
	assert.Equal(t, 2, stats.BlacklistSize)
}

func TestGateRetractLater(t *testing.T) {
	fix := newGateFixture(t, true)

	task, err := fix.gate.RetractLater(context.Background(), -1, 42)
	require.NoError(t, err)
	require.NotNil(t, task)
	waitDone(t, task)
	assert.Equal(t, []deletion{{-1, 42}}, fix.retractor.Deleted())
}

func TestGateCloseDropsPendingRetractions(t *testing.T) {
	fix := newGateFixture(t, true)

	task, err := fix.gate.Retract(context.Background(), -1, 42, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, fix.gate.Stats().PendingTasks)

	fix.gate.Close()
	assert.True(t, task.Cancelled())
	assert.Empty(t, fix.retractor.Deleted())
}

func TestGateCheckContentSkipsRateWindow(t *testing.T) {
	fix := newGateFixture(t, true)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		v, err := fix.gate.CheckContent(ctx, Event{Scope: -1, Object: i, Sender: "anna", Text: "commento pulito"})
		require.NoError(t, err)
		assert.True(t, v.Accepted())
	}

	v, err := fix.gate.CheckContent(ctx, Event{Scope: -1, Object: 6, Sender: "anna", Text: "idiota"})
	require.NoError(t, err)
	assert.Equal(t, ReasonBlacklisted, v.Reason)
	assert.Equal(t, []deletion{{-1, 6}}, fix.retractor.Deleted())

	stats := fix.gate.Stats()
	assert.Equal(t, uint64(0), stats.Accepted, "only full evaluations count as accepted")
	assert.Equal(t, uint64(1), stats.Blacklisted)
	assert.Equal(t, 0, stats.FloodIdentities)
	assert.Equal(t, 1, stats.KnownScopes)
	assert.Equal(t, int64(1), stats.PermissionProbes)
}

func TestGateSetExplainReplacesHook(t *testing.T) {
	fix := newGateFixture(t, true)
	var late []string
	fix.gate.SetExplain(func(ctx context.Context, ev Event, token string) error {
		late = append(late, token)
		return nil
	})

	v, err := fix.gate.CheckContent(context.Background(), Event{Scope: -1, Object: 9, Sender: "mario", Text: "idiota"})
	require.NoError(t, err)
	assert.Equal(t, ReasonBlacklisted, v.Reason)
	assert.Equal(t, []string{"idiota"}, late)
	assert.Empty(t, fix.explained)
}
