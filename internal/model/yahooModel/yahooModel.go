package yahooModel

// RawQuoteResponse mirrors the quote endpoint's JSON envelope.
type RawQuoteResponse struct {
	QuoteResponse struct {
		Result []RawQuote `json:"result"`
		Error  *RawError  `json:"error"`
	} `json:"quoteResponse"`
}

type RawError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type RawQuote struct {
	Symbol                      string  `json:"symbol"`
	LongName                    string  `json:"longName"`
	ShortName                   string  `json:"shortName"`
	MarketState                 string  `json:"marketState"`
	RegularMarketPrice          float64 `json:"regularMarketPrice"`
	RegularMarketChange         float64 `json:"regularMarketChange"`
	RegularMarketChangePercent  float64 `json:"regularMarketChangePercent"`
	PreMarketPrice              float64 `json:"preMarketPrice"`
	PreMarketChange             float64 `json:"preMarketChange"`
	PreMarketChangePercent      float64 `json:"preMarketChangePercent"`
	PostMarketPrice             float64 `json:"postMarketPrice"`
	PostMarketChange            float64 `json:"postMarketChange"`
	PostMarketChangePercent     float64 `json:"postMarketChangePercent"`
	TrailingAnnualDividendRate  float64 `json:"trailingAnnualDividendRate"`
	TrailingAnnualDividendYield float64 `json:"trailingAnnualDividendYield"`
	DividendDate                int64   `json:"dividendDate"`
	MarketCap                   float64 `json:"marketCap"`
	Currency                    string  `json:"currency"`
	FullExchangeName            string  `json:"fullExchangeName"`
}
