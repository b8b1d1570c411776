package chartapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const samplePayload = `{
  "chart": {
    "result": [{
      "timestamp": [1717416000, 1717416300, 1717416600],
      "indicators": {
        "quote": [{
          "open":  [105.0, 105.5, null],
          "high":  [106.0, 106.5, 107.0],
          "low":   [104.5, 105.0, 105.5],
          "close": [105.5, 106.0, 106.5]
        }]
      }
    }],
    "error": null
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Symbol: "YM=F", Interval: "5m", Range: "2d"})
}

func TestFetch_ParsesSeriesAndDropsNullBars(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/YM=F" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("interval") != "5m" || r.URL.Query().Get("range") != "2d" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, samplePayload)
	})

	series, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	// Third bar has a null open and must be dropped
	if len(series) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(series))
	}
	if series[0].Close != 105.5 || series[1].Close != 106.0 {
		t.Errorf("unexpected closes: %+v", series)
	}
	if !series[0].TS.Before(series[1].TS) {
		t.Error("series must stay chronological")
	}
}

func TestFetch_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	})
	if _, err := c.Fetch(context.Background()); err == nil {
		t.Fatal("expected error from chart error payload")
	}
}

func TestFetch_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})
	if _, err := c.Fetch(context.Background()); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestFetch_EmptyResultIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
	})
	series, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("empty result should not error: %v", err)
	}
	if len(series) != 0 {
		t.Errorf("expected empty series, got %d", len(series))
	}
}
