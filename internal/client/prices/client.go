// Package prices fetches hourly OHLC history from the CryptoCompare API.
package prices

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const (
	defaultBaseURL = "https://min-api.cryptocompare.com"
	quoteSymbol    = "USD"
)

type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("prices API error (%d): %s", e.Status, e.Message)
}

// HistoryItem is one hourly candle. Time is the candle's opening unix
// timestamp; Close is the price at the end of that hour.
type HistoryItem struct {
	Time  int64           `json:"time"`
	Open  decimal.Decimal `json:"open"`
	Close decimal.Decimal `json:"close"`
}

type Client struct {
	rc     *resty.Client
	apiKey string
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second)
	return &Client{rc: rc, apiKey: apiKey}
}

type histoHourResponse struct {
	Response string `json:"Response"`
	Message  string `json:"Message"`
	Data     struct {
		Data []HistoryItem `json:"Data"`
	} `json:"Data"`
}

// HourlyHistory returns up to limit hourly candles for symbol quoted in USD,
// oldest first.
func (c *Client) HourlyHistory(ctx context.Context, symbol string, limit int) ([]HistoryItem, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if limit <= 0 {
		limit = 24
	}

	var out histoHourResponse
	req := c.rc.R().
		SetContext(ctx).
		SetQueryParam("fsym", symbol).
		SetQueryParam("tsym", quoteSymbol).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&out)
	if c.apiKey != "" {
		req.SetQueryParam("api_key", c.apiKey)
	}

	resp, err := req.Get("/data/v2/histohour")
	if err != nil {
		return nil, fmt.Errorf("fetch hourly history for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, &APIError{Status: resp.StatusCode(), Message: resp.String()}
	}
	if strings.EqualFold(out.Response, "Error") {
		return nil, &APIError{Status: resp.StatusCode(), Message: out.Message}
	}
	return out.Data.Data, nil
}
