package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marketsPayload = `[
	{
		"id": "bitcoin",
		"symbol": "btc",
		"name": "Bitcoin",
		"current_price": 65000.12,
		"market_cap": 1280000000000,
		"market_cap_rank": 1,
		"total_volume": 35000000000,
		"price_change_percentage_24h": -1.24,
		"circulating_supply": 19700000,
		"last_updated": "2025-03-10T15:00:00.000Z"
	},
	{
		"id": "tether",
		"symbol": "usdt",
		"name": "Tether",
		"current_price": 1.0,
		"market_cap": 110000000000,
		"market_cap_rank": 3,
		"total_volume": null,
		"price_change_percentage_24h": null,
		"circulating_supply": 110000000000,
		"last_updated": "2025-03-10T15:00:00.000Z"
	}
]`

func TestFetchMarkets(t *testing.T) {
	var gotQuery map[string]string
	var gotAPIKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/coins/markets", r.URL.Path)
		gotAPIKey = r.Header.Get("x-cg-demo-api-key")
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(marketsPayload))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithAPIKey("test-key"))

	records, err := client.FetchMarkets(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "test-key", gotAPIKey)
	assert.Equal(t, "usd", gotQuery["vs_currency"])
	assert.Equal(t, "market_cap_desc", gotQuery["order"])
	assert.Equal(t, "50", gotQuery["per_page"])
	assert.Equal(t, "1", gotQuery["page"])
	assert.Equal(t, "false", gotQuery["sparkline"])

	btc := records[0]
	assert.Equal(t, "bitcoin", btc.CryptoID)
	assert.Equal(t, "btc", btc.Symbol)
	require.NotNil(t, btc.CurrentPrice)
	assert.Equal(t, 65000.12, *btc.CurrentPrice)
	require.NotNil(t, btc.Rank)
	assert.Equal(t, int64(1), *btc.Rank)

	// Nullable fields stay nil, not zero
	usdt := records[1]
	assert.Nil(t, usdt.Volume24h)
	assert.Nil(t, usdt.PriceChange24h)
}

func TestFetchMarkets_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))

	_, err := client.FetchMarkets(context.Background(), 10)
	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusTooManyRequests, upstreamErr.StatusCode)
}

func TestFetchMarkets_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "a list"}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))

	_, err := client.FetchMarkets(context.Background(), 10)
	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
}

func TestFetchMarkets_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(WithBaseURL(srv.URL))

	_, err := client.FetchMarkets(context.Background(), 10)
	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Zero(t, upstreamErr.StatusCode)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ping", r.URL.Path)
		w.Write([]byte(`{"gecko_says":"(V3) To the Moon!"}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	assert.NoError(t, client.Ping(context.Background()))
}

func TestPing_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	err := client.Ping(context.Background())
	require.Error(t, err)

	var upstreamErr *UpstreamError
	assert.True(t, errors.As(err, &upstreamErr))
}
