package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUSDPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "solana,usd-coin", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		w.Write([]byte(`{"solana":{"usd":151.37},"usd-coin":{"usd":0.9998}}`))
	}))
	defer srv.Close()

	c := NewCoinGeckoClient()
	c.baseURL = srv.URL

	prices, err := c.GetUSDPrices(context.Background(), []string{"usd-coin", "solana", "solana", ""})
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, "151.37", prices["solana"].String())
	assert.Equal(t, "0.9998", prices["usd-coin"].String())
}

func TestGetUSDPricesNoIDs(t *testing.T) {
	c := NewCoinGeckoClient()
	c.baseURL = "http://127.0.0.1:0"

	prices, err := c.GetUSDPrices(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestGetUSDPricesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewCoinGeckoClient()
	c.baseURL = srv.URL

	_, err := c.GetUSDPrices(context.Background(), []string{"solana"})
	require.Error(t, err)
}
