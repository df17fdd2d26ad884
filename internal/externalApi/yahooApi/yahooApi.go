package yahooApi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/stockroomapp/stockroom_bot/config"
	"github.com/stockroomapp/stockroom_bot/internal/model"
	"github.com/stockroomapp/stockroom_bot/internal/model/yahooModel"
	"github.com/stockroomapp/stockroom_bot/utils"
)

type YahooApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *YahooApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.QuoteApi.Url)
	return &YahooApi{client: client}
}

// GetQuotes loads market data for a symbol batch in one request. Failures
// come back as a market state rather than just an error: transport problems
// map to NO_NETWORK, throttling to QUOTA_EXCEEDED and an empty result set to
// NO_SYMBOL, so the poller can schedule from the state alone. The batch
// succeeds or fails as a whole.
func (a *YahooApi) GetQuotes(ctx context.Context, symbols []string) ([]model.Quote, model.MarketState, error) {
	rqId := utils.GetRequestIDFromCtx(ctx)

	slog.Debug("start YahooApi.GetQuotes request", slog.String("rqID", rqId), slog.Int("symbols", len(symbols)))

	resp, err := a.client.R().
		SetHeader("Accept", "application/json").
		SetQueryParam("symbols", strings.Join(symbols, ",")).
		Get("/v7/finance/quote")

	if err != nil {
		slog.Error("error while dialing quote api", slog.String("err", err.Error()), slog.String("rqID", rqId))
		return nil, model.MarketStateNoNetwork, err
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		slog.Warn("quote api throttled the request", slog.String("rqID", rqId))
		return nil, model.MarketStateQuotaExceeded, nil
	}

	rawResponse := yahooModel.RawQuoteResponse{}
	err = json.Unmarshal(resp.Body(), &rawResponse)
	if err != nil {
		slog.Error("can't unmarshall response into yahooModel.RawQuoteResponse", slog.String("err", err.Error()), slog.String("rqID", rqId))
		return nil, model.MarketStateUnknown, err
	}

	if len(rawResponse.QuoteResponse.Result) == 0 {
		slog.Warn("quote api returned no results", slog.String("rqID", rqId))
		return nil, model.MarketStateNoSymbol, nil
	}

	quotes := make([]model.Quote, 0, len(rawResponse.QuoteResponse.Result))
	state := model.MarketStateUnknown
	for _, raw := range rawResponse.QuoteResponse.Result {
		quote := convertRawQuote(raw)
		if state == model.MarketStateUnknown {
			state = quote.MarketState
		}
		quotes = append(quotes, quote)
	}

	slog.Debug("YahooApi.GetQuotes request complete", slog.String("rqID", rqId), slog.Int("quotes", len(quotes)))

	return quotes, state, nil
}

func convertRawQuote(raw yahooModel.RawQuote) model.Quote {
	name := raw.LongName
	if name == "" {
		name = raw.ShortName
	}
	return model.Quote{
		Symbol:             raw.Symbol,
		Name:               name,
		Price:              raw.RegularMarketPrice,
		Change:             raw.RegularMarketChange,
		ChangePercent:      raw.RegularMarketChangePercent,
		MarketState:        model.ParseMarketState(raw.MarketState),
		PreMarketPrice:     raw.PreMarketPrice,
		PreMarketChange:    raw.PreMarketChange,
		PreMarketChangePct: raw.PreMarketChangePercent,
		PostMarketPrice:    raw.PostMarketPrice,
		PostMarketChange:   raw.PostMarketChange,
		PostMarketChgPct:   raw.PostMarketChangePercent,
		AnnualDividendRate: raw.TrailingAnnualDividendRate,
		AnnualDividendYld:  raw.TrailingAnnualDividendYield * 100,
		DividendDate:       raw.DividendDate,
		MarketCap:          raw.MarketCap,
		Currency:           raw.Currency,
		Exchange:           raw.FullExchangeName,
	}
}
