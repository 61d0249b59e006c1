package prices

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHourlyHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/v2/histohour", r.URL.Path)
		assert.Equal(t, "BTC", r.URL.Query().Get("fsym"))
		assert.Equal(t, "USD", r.URL.Query().Get("tsym"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		assert.Equal(t, "secret", r.URL.Query().Get("api_key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"Response": "Success",
			"Data": {"Data": [
				{"time": 3600, "open": "100.5", "close": "101.25"},
				{"time": 7200, "open": "101.25", "close": "99.8"}
			]}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret", 0)
	items, err := client.HourlyHistory(context.Background(), "BTC", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, int64(3600), items[0].Time)
	assert.True(t, items[0].Close.Equal(decimal.RequireFromString("101.25")))
	assert.True(t, items[1].Close.Equal(decimal.RequireFromString("99.8")))
}

func TestHourlyHistoryAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Response": "Error", "Message": "limit exceeded"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 0)
	_, err := client.HourlyHistory(context.Background(), "BTC", 10)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "limit exceeded", apiErr.Message)
}

func TestHourlyHistoryRequiresSymbol(t *testing.T) {
	client := NewClient("", "", 0)
	_, err := client.HourlyHistory(context.Background(), "", 10)
	assert.Error(t, err)
}
