package poller

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/stockroomapp/stockroom_bot/config"
	"github.com/stockroomapp/stockroom_bot/internal/model"
	"github.com/stockroomapp/stockroom_bot/utils"
)

// QuoteFetcher loads online quotes for a symbol batch. The returned market
// state also encodes fetch failures (NO_NETWORK, QUOTA_EXCEEDED, NO_SYMBOL),
// so a batch either yields quotes plus a state or fails as a whole.
type QuoteFetcher interface {
	GetQuotes(ctx context.Context, symbols []string) ([]model.Quote, model.MarketState, error)
}

// SymbolSource supplies the symbols to poll.
type SymbolSource interface {
	Symbols() []string
}

// QuoteSink receives each successful batch.
type QuoteSink interface {
	ApplyQuotes(quotes []model.Quote)
}

// Clock abstracts time for the scheduling loop.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Poller drives the adaptive quote refresh loop. The interval between polls
// is a function of the market state reported by the last poll; network
// failures back off exponentially until the connection comes back.
type Poller struct {
	cfg      config.Poller
	fetcher  QuoteFetcher
	source   SymbolSource
	sink     QuoteSink
	clock    Clock
	log      *slog.Logger
	pollNow  chan struct{}
	inFlight atomic.Bool
	backoff  time.Duration
}

func New(cfg config.Poller, fetcher QuoteFetcher, source SymbolSource, sink QuoteSink, log *slog.Logger) *Poller {
	return NewWithClock(cfg, fetcher, source, sink, log, realClock{})
}

func NewWithClock(cfg config.Poller, fetcher QuoteFetcher, source SymbolSource, sink QuoteSink, log *slog.Logger, clock Clock) *Poller {
	return &Poller{
		cfg:     cfg,
		fetcher: fetcher,
		source:  source,
		sink:    sink,
		clock:   clock,
		log:     log,
		pollNow: make(chan struct{}, 1),
	}
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) {
	for {
		state := p.Poll(ctx)
		interval := p.Interval(state)
		select {
		case <-ctx.Done():
			return
		case <-p.clock.After(interval):
		case <-p.pollNow:
		}
	}
}

// PollNow asks the loop to skip the remaining wait and poll immediately. The
// in-flight guard still applies; multiple pending requests collapse into one.
func (p *Poller) PollNow() {
	select {
	case p.pollNow <- struct{}{}:
	default:
	}
}

// Poll fetches one batch and feeds it to the sink. Only one poll may run at
// a time: a call overlapping an in-flight poll is dropped and reports the
// unknown state so the caller falls back to the default interval.
func (p *Poller) Poll(ctx context.Context) model.MarketState {
	if !p.inFlight.CompareAndSwap(false, true) {
		return model.MarketStateUnknown
	}
	defer p.inFlight.Store(false)

	symbols := p.source.Symbols()
	if len(symbols) == 0 {
		return model.MarketStateNoSymbol
	}

	quotes, state, err := p.fetcher.GetQuotes(ctx, symbols)
	if err != nil {
		p.log.Warn("quote poll failed", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("state", string(state)), slog.Any("error", err))
	}
	if len(quotes) > 0 {
		p.sink.ApplyQuotes(quotes)
	}
	return state
}

// Interval maps a market state to the next poll delay.
func (p *Poller) Interval(state model.MarketState) time.Duration {
	if state != model.MarketStateNoNetwork {
		p.backoff = 0
	}
	switch state {
	case model.MarketStateRegular:
		return p.cfg.Regular
	case model.MarketStatePre, model.MarketStatePost:
		return p.cfg.PrePost
	case model.MarketStatePrePre, model.MarketStatePostPost:
		return p.cfg.Extended
	case model.MarketStateClosed:
		return p.cfg.Closed
	case model.MarketStateNoNetwork:
		if p.backoff == 0 {
			p.backoff = p.cfg.Regular
		} else {
			p.backoff *= 2
		}
		if p.backoff > p.cfg.NoNetworkMax {
			p.backoff = p.cfg.NoNetworkMax
		}
		return p.backoff
	default:
		return p.cfg.Fallback
	}
}
