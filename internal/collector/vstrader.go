package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Aikkad/mac-trading-academy/internal/model"
)

// VsTraderFetcher implements Provider using the vstrader REST API.
type VsTraderFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewVsTraderFetcher creates a new fetcher with optional proxy support.
func NewVsTraderFetcher(baseURL, apiKey, proxyURL string) *VsTraderFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &VsTraderFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *VsTraderFetcher) Name() string { return "vstrader" }

// vsBar is the expected JSON shape from the vstrader API.
type vsBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Fetch requests bars for the interval. Weekly and monthly requests fall back
// to aggregating daily bars when the API has no native endpoint for them.
func (f *VsTraderFetcher) Fetch(ctx context.Context, symbol string, periodDays int, interval model.Interval) (*model.BarSeries, error) {
	bars, err := f.fetchBars(ctx, symbol, periodDays, interval)
	if err != nil && (interval == model.Interval1W || interval == model.Interval1M) {
		daily, dailyErr := f.fetchBars(ctx, symbol, periodDays, model.Interval1d)
		if dailyErr != nil {
			return nil, fmt.Errorf("%s fetch failed: %w; daily fallback also failed: %w", interval, err, dailyErr)
		}
		// Aggregation assumes ascending, deduplicated days.
		daily = cleanBars(symbol, daily)
		if interval == model.Interval1W {
			bars = aggregateBars(daily, weekKey)
		} else {
			bars = aggregateBars(daily, monthKey)
		}
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return model.NewBarSeries(symbol, interval, periodDays, cleanBars(symbol, bars))
}

func (f *VsTraderFetcher) fetchBars(ctx context.Context, symbol string, periodDays int, interval model.Interval) ([]model.Bar, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars?symbol=%s&interval=%s&days=%d",
		f.BaseURL, url.QueryEscape(symbol), url.QueryEscape(string(interval)), periodDays)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, truncate(body, 256))
	}
	var vsBars []vsBar
	if err := json.NewDecoder(resp.Body).Decode(&vsBars); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	bars := make([]model.Bar, len(vsBars))
	for i, vb := range vsBars {
		bars[i] = model.Bar{
			Time:   time.Unix(vb.Timestamp, 0).UTC(),
			Open:   vb.Open,
			High:   vb.High,
			Low:    vb.Low,
			Close:  vb.Close,
			Volume: int64(vb.Volume),
		}
	}
	return bars, nil
}

func weekKey(t time.Time) int {
	year, week := t.ISOWeek()
	return year*100 + week
}

func monthKey(t time.Time) int {
	return t.Year()*100 + int(t.Month())
}

// aggregateBars merges consecutive daily bars sharing a bucket key into one bar.
// Input must be in chronological order.
func aggregateBars(daily []model.Bar, key func(time.Time) int) []model.Bar {
	if len(daily) == 0 {
		return nil
	}
	var out []model.Bar
	cur := daily[0]
	curKey := key(cur.Time)

	for _, d := range daily[1:] {
		if k := key(d.Time); k != curKey {
			out = append(out, cur)
			cur = d
			curKey = k
			continue
		}
		if d.High > cur.High {
			cur.High = d.High
		}
		if d.Low < cur.Low {
			cur.Low = d.Low
		}
		cur.Close = d.Close
		cur.Volume += d.Volume
	}
	return append(out, cur)
}
