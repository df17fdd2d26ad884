package model

// MarketState mirrors the state string reported by the quote API, plus the
// synthetic states the poller derives from request failures.
type MarketState string

const (
	MarketStatePre           MarketState = "PRE"
	MarketStatePrePre        MarketState = "PREPRE"
	MarketStateRegular       MarketState = "REGULAR"
	MarketStatePost          MarketState = "POST"
	MarketStatePostPost      MarketState = "POSTPOST"
	MarketStateClosed        MarketState = "CLOSED"
	MarketStateNoNetwork     MarketState = "NO_NETWORK"
	MarketStateNoSymbol      MarketState = "NO_SYMBOL"
	MarketStateQuotaExceeded MarketState = "QUOTA_EXCEEDED"
	MarketStateUnknown       MarketState = ""
)

func (s MarketState) String() string {
	switch s {
	case MarketStateRegular:
		return "regular market"
	case MarketStatePre, MarketStatePrePre:
		return "pre market"
	case MarketStatePost, MarketStatePostPost:
		return "post market"
	case MarketStateClosed:
		return "market closed"
	case MarketStateNoSymbol:
		return "no symbols"
	case MarketStateQuotaExceeded:
		return "quota exceeded"
	default:
		return "network not available"
	}
}

// Quote is the latest known market data for one symbol. It is replaced
// wholesale on every poll; no history is kept.
type Quote struct {
	Symbol             string
	Name               string
	Price              float64
	Change             float64
	ChangePercent      float64
	MarketState        MarketState
	PostMarketApplied  bool
	PreMarketPrice     float64
	PreMarketChange    float64
	PreMarketChangePct float64
	PostMarketPrice    float64
	PostMarketChange   float64
	PostMarketChgPct   float64
	AnnualDividendRate float64
	AnnualDividendYld  float64
	DividendDate       int64
	MarketCap          float64
	Currency           string
	Exchange           string
}

// ParseMarketState maps the raw API string onto a known state; anything
// unrecognized becomes UNKNOWN.
func ParseMarketState(raw string) MarketState {
	switch MarketState(raw) {
	case MarketStatePre, MarketStatePrePre, MarketStateRegular,
		MarketStatePost, MarketStatePostPost, MarketStateClosed:
		return MarketState(raw)
	default:
		return MarketStateUnknown
	}
}

// WithExtendedHours substitutes the pre/post market price for the regular
// one when the market is outside regular hours and the API delivered an
// extended-hours price. Used when the post-market display toggle is on.
func (q Quote) WithExtendedHours() Quote {
	switch q.MarketState {
	case MarketStatePost, MarketStatePostPost, MarketStateClosed:
		if q.PostMarketPrice > 0 {
			q.Price = q.PostMarketPrice
			q.Change = q.PostMarketChange
			q.ChangePercent = q.PostMarketChgPct
			q.PostMarketApplied = true
		}
	case MarketStatePre, MarketStatePrePre:
		if q.PreMarketPrice > 0 {
			q.Price = q.PreMarketPrice
			q.Change = q.PreMarketChange
			q.ChangePercent = q.PreMarketChangePct
			q.PostMarketApplied = true
		}
	}
	return q
}
