package ratesource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/seenimoa/growthcast/internal/infra"
	"github.com/seenimoa/growthcast/pkg/models"
	"github.com/seenimoa/growthcast/pkg/utils"
)

// DefaultYahooBaseURL is the Yahoo Finance API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooOptions configures a Yahoo source. Zero values select defaults.
type YahooOptions struct {
	BaseURL           string
	Client            *http.Client
	CacheTTL          time.Duration
	RequestsPerSecond float64
}

// Yahoo implements Source using the Yahoo Finance v8 chart API.
type Yahoo struct {
	baseURL string
	client  *http.Client
	cache   *infra.Cache[[]models.PricePoint]
	limiter *rate.Limiter
}

// NewYahoo creates a new Yahoo Finance source.
func NewYahoo(opts YahooOptions) *Yahoo {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultYahooBaseURL
	}
	if opts.Client == nil {
		opts.Client = infra.HTTPClient
	}
	limit := rate.Inf
	burst := 1
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		burst = max(1, int(opts.RequestsPerSecond))
	}
	return &Yahoo{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  opts.Client,
		cache:   infra.NewCache[[]models.PricePoint](opts.CacheTTL),
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Name returns the data source name.
func (y *Yahoo) Name() string { return "Yahoo Finance" }

// --- Yahoo Finance v8 API types ---

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       yfChartMeta  `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

type yfChartMeta struct {
	Symbol   string `json:"symbol"`
	Currency string `json:"currency"`
	Timezone string `json:"exchangeTimezoneName"`
}

type yfIndicators struct {
	Quote    []yfQuote    `json:"quote"`
	AdjClose []yfAdjClose `json:"adjclose"`
}

type yfQuote struct {
	Close []*float64 `json:"close"`
}

type yfAdjClose struct {
	AdjClose []*float64 `json:"adjclose"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// History returns daily closes from the Yahoo chart API.
func (y *Yahoo) History(ctx context.Context, ticker string, from, to time.Time) ([]models.PricePoint, error) {
	symbol := utils.ToYahooSymbol(ticker)
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty ticker", ErrNotFound)
	}

	cacheKey := fmt.Sprintf("hist:%s:%d:%d", symbol, from.Unix(), to.Unix())
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached, nil
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf(
		"%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=div%%2Csplits",
		y.baseURL, url.PathEscape(symbol), from.Unix(), to.Unix(),
	)

	body, err := infra.Get(ctx, y.client, endpoint, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		var httpErr *infra.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ticker)
		}
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp yfChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse yahoo chart: %v", ErrInvalidData, err)
	}

	if resp.Chart.Error != nil {
		if resp.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ticker)
		}
		return nil, fmt.Errorf("%w: yahoo chart error: %s", ErrInvalidData, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ticker)
	}

	points := parseChartPoints(resp.Chart.Result[0])
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ticker)
	}

	y.cache.Set(cacheKey, points)
	return points, nil
}

// --- Helpers ---

// parseChartPoints extracts daily closes, skipping bars without a close.
// Adjusted closes are preferred so dividends and splits count toward growth.
func parseChartPoints(result yfChartResult) []models.PricePoint {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}

	closes := result.Indicators.Quote[0].Close
	var adjCloses []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjCloses = result.Indicators.AdjClose[0].AdjClose
	}

	points := make([]models.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		p := models.PricePoint{Date: time.Unix(ts, 0).UTC()}
		if i < len(closes) && closes[i] != nil {
			p.Close = *closes[i]
		}
		if i < len(adjCloses) && adjCloses[i] != nil {
			p.AdjClose = *adjCloses[i]
			p.Close = p.AdjClose
		}
		if p.Close == 0 {
			continue
		}
		points = append(points, p)
	}
	return points
}
