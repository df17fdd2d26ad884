package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroomapp/stockroom_bot/config"
	"github.com/stockroomapp/stockroom_bot/internal/model"
)

var testCfg = config.Poller{
	Regular:      2 * time.Second,
	PrePost:      time.Minute,
	Extended:     15 * time.Minute,
	Closed:       time.Hour,
	Fallback:     time.Minute,
	NoNetworkMax: 2 * time.Minute,
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.Now().Add(d)
	return ch
}

type fakeFetcher struct {
	mu     sync.Mutex
	quotes []model.Quote
	state  model.MarketState
	err    error
	calls  int
	block  chan struct{}
}

func (f *fakeFetcher) GetQuotes(_ context.Context, _ []string) ([]model.Quote, model.MarketState, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	return f.quotes, f.state, f.err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSource struct{ symbols []string }

func (s fakeSource) Symbols() []string { return s.symbols }

type fakeSink struct {
	mu      sync.Mutex
	applied [][]model.Quote
}

func (s *fakeSink) ApplyQuotes(quotes []model.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = append(s.applied, quotes)
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.applied)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPoller(fetcher *fakeFetcher, symbols []string, sink *fakeSink) *Poller {
	return NewWithClock(testCfg, fetcher, fakeSource{symbols: symbols}, sink, discardLogger(), &fakeClock{now: time.Unix(0, 0)})
}

func TestIntervalPerState(t *testing.T) {
	p := newTestPoller(&fakeFetcher{}, nil, &fakeSink{})
	assert.Equal(t, 2*time.Second, p.Interval(model.MarketStateRegular))
	assert.Equal(t, time.Minute, p.Interval(model.MarketStatePre))
	assert.Equal(t, time.Minute, p.Interval(model.MarketStatePost))
	assert.Equal(t, 15*time.Minute, p.Interval(model.MarketStatePrePre))
	assert.Equal(t, 15*time.Minute, p.Interval(model.MarketStatePostPost))
	assert.Equal(t, time.Hour, p.Interval(model.MarketStateClosed))
	assert.Equal(t, time.Minute, p.Interval(model.MarketStateNoSymbol))
	assert.Equal(t, time.Minute, p.Interval(model.MarketStateQuotaExceeded))
	assert.Equal(t, time.Minute, p.Interval(model.MarketStateUnknown))
}

func TestIntervalRegularHasNoBackoffDrift(t *testing.T) {
	p := newTestPoller(&fakeFetcher{}, nil, &fakeSink{})
	for i := 0; i < 5; i++ {
		assert.Equal(t, 2*time.Second, p.Interval(model.MarketStateRegular))
	}
}

func TestIntervalNoNetworkBackoff(t *testing.T) {
	p := newTestPoller(&fakeFetcher{}, nil, &fakeSink{})
	assert.Equal(t, 2*time.Second, p.Interval(model.MarketStateNoNetwork))
	assert.Equal(t, 4*time.Second, p.Interval(model.MarketStateNoNetwork))
	assert.Equal(t, 8*time.Second, p.Interval(model.MarketStateNoNetwork))
	for i := 0; i < 10; i++ {
		p.Interval(model.MarketStateNoNetwork)
	}
	// capped
	assert.Equal(t, 2*time.Minute, p.Interval(model.MarketStateNoNetwork))
	// reconnect resets the backoff
	p.Interval(model.MarketStateRegular)
	assert.Equal(t, 2*time.Second, p.Interval(model.MarketStateNoNetwork))
}

func TestPollAppliesQuotes(t *testing.T) {
	fetcher := &fakeFetcher{
		quotes: []model.Quote{{Symbol: "AAPL", Price: 150, MarketState: model.MarketStateRegular}},
		state:  model.MarketStateRegular,
	}
	sink := &fakeSink{}
	p := newTestPoller(fetcher, []string{"AAPL"}, sink)
	state := p.Poll(context.Background())
	assert.Equal(t, model.MarketStateRegular, state)
	require.Equal(t, 1, sink.count())
}

func TestPollNoSymbolsSkipsFetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	p := newTestPoller(fetcher, nil, &fakeSink{})
	state := p.Poll(context.Background())
	assert.Equal(t, model.MarketStateNoSymbol, state)
	assert.Zero(t, fetcher.callCount())
}

func TestPollFailureReportsStateWithoutApply(t *testing.T) {
	fetcher := &fakeFetcher{state: model.MarketStateNoNetwork, err: errors.New("dial tcp: timeout")}
	sink := &fakeSink{}
	p := newTestPoller(fetcher, []string{"AAPL"}, sink)
	state := p.Poll(context.Background())
	assert.Equal(t, model.MarketStateNoNetwork, state)
	assert.Zero(t, sink.count())
}

func TestPollInFlightGuard(t *testing.T) {
	block := make(chan struct{})
	fetcher := &fakeFetcher{block: block, state: model.MarketStateRegular}
	p := newTestPoller(fetcher, []string{"AAPL"}, &fakeSink{})

	done := make(chan model.MarketState, 1)
	go func() { done <- p.Poll(context.Background()) }()
	require.Eventually(t, func() bool { return fetcher.callCount() == 1 }, time.Second, time.Millisecond)

	// overlapping poll is dropped, not queued
	assert.Equal(t, model.MarketStateUnknown, p.Poll(context.Background()))
	assert.Equal(t, 1, fetcher.callCount())

	close(block)
	assert.Equal(t, model.MarketStateRegular, <-done)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	fetcher := &fakeFetcher{state: model.MarketStateClosed}
	p := newTestPoller(fetcher, []string{"AAPL"}, &fakeSink{})
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(stopped)
	}()
	require.Eventually(t, func() bool { return fetcher.callCount() >= 1 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestPollNowCoalesces(t *testing.T) {
	p := newTestPoller(&fakeFetcher{}, nil, &fakeSink{})
	p.PollNow()
	p.PollNow() // second request collapses into the pending one
	select {
	case <-p.pollNow:
	default:
		t.Fatal("expected a pending poll request")
	}
	select {
	case <-p.pollNow:
		t.Fatal("requests should coalesce")
	default:
	}
}
