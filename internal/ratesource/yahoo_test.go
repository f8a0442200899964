package ratesource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// chartJSON renders a minimal Yahoo v8 chart payload.
func chartJSON(symbol string, timestamps []int64, closes []string) string {
	ts := make([]string, len(timestamps))
	for i, v := range timestamps {
		ts[i] = fmt.Sprint(v)
	}
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"symbol":%q,"currency":"USD"},`+
		`"timestamp":[%s],"indicators":{"quote":[{"close":[%s]}]}}],"error":null}}`,
		symbol, strings.Join(ts, ","), strings.Join(closes, ","))
}

// fakeYahoo serves canned chart responses keyed by symbol.
func fakeYahoo(t *testing.T, bodies map[string]string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		symbol := strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/")
		if r.URL.Query().Get("interval") != "1d" {
			t.Errorf("interval = %q, want 1d", r.URL.Query().Get("interval"))
		}
		body, ok := bodies[symbol]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestParseChartPointsEmpty(t *testing.T) {
	if pts := parseChartPoints(yfChartResult{}); pts != nil {
		t.Fatalf("expected nil, got %d points", len(pts))
	}
}

func TestParseChartPoints(t *testing.T) {
	c1, c2, adj := 103.0, 104.0, 102.5
	result := yfChartResult{
		Timestamp: []int64{1700000000, 1700086400, 1700172800},
		Indicators: yfIndicators{
			Quote:    []yfQuote{{Close: []*float64{&c1, nil, &c2}}},
			AdjClose: []yfAdjClose{{AdjClose: []*float64{&adj}}},
		},
	}

	pts := parseChartPoints(result)
	if len(pts) != 2 {
		t.Fatalf("expected 2 points (nil close skipped), got %d", len(pts))
	}
	if pts[0].Close != 102.5 || pts[0].AdjClose != 102.5 {
		t.Errorf("adjusted close should win: %+v", pts[0])
	}
	if pts[1].Close != 104 {
		t.Errorf("second point = %+v", pts[1])
	}
	if pts[0].Date.Location() != time.UTC {
		t.Error("dates should be UTC")
	}
}

func TestYahooHistory(t *testing.T) {
	var hits int32
	srv := fakeYahoo(t, map[string]string{
		"SPY": chartJSON("SPY", []int64{1577923200, 1735689600}, []string{"324.87", "586.08"}),
	}, &hits)

	y := NewYahoo(YahooOptions{BaseURL: srv.URL, Client: srv.Client(), CacheTTL: time.Minute})
	from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	points, err := y.History(context.Background(), "spy", from, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 || points[1].Close != 586.08 {
		t.Errorf("points = %+v", points)
	}

	// Second call is served from cache.
	if _, err := y.History(context.Background(), "SPY", from, to); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("server hits = %d, want 1", hits)
	}
}

func TestYahooIndexAlias(t *testing.T) {
	srv := fakeYahoo(t, map[string]string{
		"^GSPC": chartJSON("^GSPC", []int64{1577923200, 1735689600}, []string{"3257.85", "5881.63"}),
	}, nil)

	y := NewYahoo(YahooOptions{BaseURL: srv.URL, Client: srv.Client()})
	points, err := y.History(context.Background(), "sp500", time.Time{}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Errorf("points = %d", len(points))
	}
}

func TestYahooNotFound(t *testing.T) {
	srv := fakeYahoo(t, map[string]string{
		"EMPTY": chartJSON("EMPTY", nil, nil),
	}, nil)
	y := NewYahoo(YahooOptions{BaseURL: srv.URL, Client: srv.Client()})

	for _, ticker := range []string{"NOPE", "EMPTY"} {
		_, err := y.History(context.Background(), ticker, time.Time{}, time.Now())
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: error = %v, want ErrNotFound", ticker, err)
		}
	}
}

func TestYahooMalformed(t *testing.T) {
	srv := fakeYahoo(t, map[string]string{"BAD": `{"chart":`}, nil)
	y := NewYahoo(YahooOptions{BaseURL: srv.URL, Client: srv.Client()})

	_, err := y.History(context.Background(), "BAD", time.Time{}, time.Now())
	if !errors.Is(err, ErrInvalidData) {
		t.Errorf("error = %v, want ErrInvalidData", err)
	}
}

func TestYahooServerErrorIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	y := NewYahoo(YahooOptions{BaseURL: srv.URL, Client: srv.Client()})

	_, err := y.History(context.Background(), "SPY", time.Time{}, time.Now())
	if err == nil || IsDataError(err) {
		t.Errorf("error = %v, want a retryable transport error", err)
	}
}
