// Package chartapi is a minimal client for Yahoo-style v8 chart endpoints.
//
// It fetches one symbol's OHLC history as an ordered candle series. Any
// fetch or decode failure surfaces as an error; callers treat that as "no
// candles this cycle".
package chartapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"finintelbot/internal/model"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Config configures the chart client.
type Config struct {
	BaseURL  string        // default: query1.finance.yahoo.com
	Symbol   string        // e.g. "YM=F"
	Interval string        // e.g. "5m"
	Range    string        // lookback, e.g. "2d"
	Timeout  time.Duration // default: 15s
}

// Client fetches candle series over HTTP.
type Client struct {
	baseURL  string
	symbol   string
	interval string
	rng      string
	client   *http.Client
}

// New creates a chart client for one symbol/interval/range.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		symbol:   cfg.Symbol,
		interval: cfg.Interval,
		rng:      cfg.Range,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

// chartResponse mirrors the subset of the v8 chart payload we consume.
// Quote arrays use pointers because the API emits nulls for missing bars.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open  []*float64 `json:"open"`
					High  []*float64 `json:"high"`
					Low   []*float64 `json:"low"`
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch retrieves the candle series. Bars with any missing OHLC component
// are dropped; the result stays chronological.
func (c *Client) Fetch(ctx context.Context) (model.Series, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		c.baseURL, url.PathEscape(c.symbol),
		url.QueryEscape(c.interval), url.QueryEscape(c.rng))

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("chartapi: create request: %w", err)
	}
	req.Header.Set("User-Agent", "finintelbot/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chartapi: fetch %s: %w", c.symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chartapi: unexpected status %d for %s", resp.StatusCode, c.symbol)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("chartapi: decode: %w", err)
	}
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("chartapi: %s: %s", payload.Chart.Error.Code, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil // no data; caller treats as no signal this cycle
	}

	result := payload.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	series := make(model.Series, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o := at(quote.Open, i)
		h := at(quote.High, i)
		l := at(quote.Low, i)
		cl := at(quote.Close, i)
		if o == nil || h == nil || l == nil || cl == nil {
			continue
		}
		series = append(series, model.Candle{
			TS:    time.Unix(ts, 0).UTC(),
			Open:  *o,
			High:  *h,
			Low:   *l,
			Close: *cl,
		})
	}
	return series, nil
}

func at(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}
