package alphavantage

// errorEnvelope captures the error shapes Alpha Vantage embeds in
// otherwise-200 responses. "Error Message" signals a hard failure,
// "Note" signals throttling or a premium-only request, "Information"
// appears on free-tier quota exhaustion.
type errorEnvelope struct {
	ErrorMessage string `json:"Error Message"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
}

// dailyBar is one day's OHLCV entry in a TIME_SERIES_DAILY response.
// All values arrive as strings.
type dailyBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// dailySeriesResponse is the TIME_SERIES_DAILY payload: a map of
// YYYY-MM-DD date strings to bars.
type dailySeriesResponse struct {
	errorEnvelope
	Series map[string]dailyBar `json:"Time Series (Daily)"`
}

// globalQuote is the GLOBAL_QUOTE payload for one symbol.
type globalQuote struct {
	Symbol           string `json:"01. symbol"`
	Price            string `json:"05. price"`
	Volume           string `json:"06. volume"`
	LatestTradingDay string `json:"07. latest trading day"`
}

type globalQuoteResponse struct {
	errorEnvelope
	Quote globalQuote `json:"Global Quote"`
}

// marketEntry is one market in a MARKET_STATUS response.
type marketEntry struct {
	Region           string `json:"region"`
	PrimaryExchanges string `json:"primary_exchanges"`
	CurrentStatus    string `json:"current_status"`
}

type marketStatusResponse struct {
	errorEnvelope
	Markets []marketEntry `json:"markets"`
}
