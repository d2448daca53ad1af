// Package exchange implements the outbound quote client for the BingX
// perpetual-swap REST API.
package exchange

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	simplejson "github.com/bitly/go-simplejson"
	"github.com/pkg/errors"

	"market-scannerv1/internal/model"
)

const (
	tickerPath = "/openApi/swap/v2/quote/ticker"
	klinesPath = "/openApi/swap/v3/quote/klines"
)

// Client calls the exchange quote endpoints over a shared, pooled HTTP
// client. One Client is constructed at process start and handed to every
// worker; the pool is sized to the worker count so connection reuse never
// becomes the bottleneck.
//
// Methods return explicit errors; the scan pipeline treats any error as
// "no data" (fail-soft), never as a request failure.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewClient creates a Client against baseURL. poolSize should be at least
// the configured worker concurrency; timeout bounds every request so one
// slow symbol cannot stall a scan.
func NewClient(baseURL string, timeout time.Duration, poolSize int, log *slog.Logger) *Client {
	if poolSize < 1 {
		poolSize = 1
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        poolSize,
				MaxIdleConnsPerHost: poolSize,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		log: log,
	}
}

// FetchTicker returns the 24h ticker rows in the order the exchange
// delivered them.
func (c *Client) FetchTicker(ctx context.Context) ([]model.TickerEntry, error) {
	j, err := c.getJSON(ctx, tickerPath, nil)
	if err != nil {
		return nil, err
	}

	data := j.Get("data")
	rows, err := data.Array()
	if err != nil {
		return nil, errors.Wrap(err, "ticker: data is not an array")
	}

	entries := make([]model.TickerEntry, 0, len(rows))
	for i := range rows {
		row := data.GetIndex(i)
		sym := row.Get("symbol").MustString()
		if sym == "" {
			continue
		}
		entries = append(entries, model.TickerEntry{
			Symbol:             sym,
			PriceChangePercent: jsonFloat(row.Get("priceChangePercent")),
		})
	}
	return entries, nil
}

// FetchKlines returns up to limit candles for symbol at interval, sorted
// ascending by open time regardless of the order the endpoint used.
func (c *Client) FetchKlines(ctx context.Context, symbol, interval string, limit int) (model.KlineSeries, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	j, err := c.getJSON(ctx, klinesPath, params)
	if err != nil {
		return nil, err
	}

	data := j.Get("data")
	rows, err := data.Array()
	if err != nil {
		return nil, errors.Wrapf(err, "klines %s %s: data is not an array", symbol, interval)
	}

	series := make(model.KlineSeries, 0, len(rows))
	for i := range rows {
		series = append(series, parseKlineRow(data.GetIndex(i)))
	}
	series.SortAscending()
	return series, nil
}

// getJSON performs one GET and parses the body. Non-2xx statuses and
// malformed bodies are errors here; degradation to "empty" happens in the
// pipeline, where it can be logged and counted.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values) (*simplejson.Json, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s: read body", path)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("exchange non-200", "path", path, "status", resp.StatusCode)
		return nil, errors.Errorf("GET %s: status %d", path, resp.StatusCode)
	}

	j, err := simplejson.NewJson(body)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s: malformed JSON", path)
	}
	return j, nil
}

// parseKlineRow accepts both row shapes the exchange has shipped:
// an object keyed time/open/high/low/close/volume, or a positional array
// [time, open, high, low, close, volume].
func parseKlineRow(row *simplejson.Json) model.Candle {
	if _, err := row.Array(); err == nil {
		return model.Candle{
			TS:     int64(jsonFloat(row.GetIndex(0))),
			Open:   jsonFloat(row.GetIndex(1)),
			High:   jsonFloat(row.GetIndex(2)),
			Low:    jsonFloat(row.GetIndex(3)),
			Close:  jsonFloat(row.GetIndex(4)),
			Volume: jsonFloat(row.GetIndex(5)),
		}
	}
	return model.Candle{
		TS:     int64(jsonFloat(row.Get("time"))),
		Open:   jsonFloat(row.Get("open")),
		High:   jsonFloat(row.Get("high")),
		Low:    jsonFloat(row.Get("low")),
		Close:  jsonFloat(row.Get("close")),
		Volume: jsonFloat(row.Get("volume")),
	}
}

// jsonFloat reads a numeric field the exchange may encode as a number or
// a quoted string. Unparseable values come back as 0.
func jsonFloat(j *simplejson.Json) float64 {
	if f, err := j.Float64(); err == nil {
		return f
	}
	if s, err := j.String(); err == nil {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	if n, err := j.Int64(); err == nil {
		return float64(n)
	}
	return 0
}
