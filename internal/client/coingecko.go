package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	coingeckoAPI = "https://api.coingecko.com/api/v3"
)

// CoinGeckoClient client for CoinGecko API
type CoinGeckoClient struct {
	baseURL string
	client  *http.Client
}

// NewCoinGeckoClient creates a new CoinGecko client
func NewCoinGeckoClient() *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL: coingeckoAPI,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// priceResponse maps coin id to currency to price
type priceResponse map[string]map[string]decimal.Decimal

// GetUSDPrices gets USD prices for CoinGecko coin ids. Unknown ids are absent from the result.
func (c *CoinGeckoClient) GetUSDPrices(ctx context.Context, ids []string) (map[string]decimal.Decimal, error) {
	unique := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			unique[id] = struct{}{}
		}
	}
	if len(unique) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	list := make([]string, 0, len(unique))
	for id := range unique {
		list = append(list, id)
	}
	sort.Strings(list)

	query := url.Values{}
	query.Set("ids", strings.Join(list, ","))
	query.Set("vs_currencies", "usd")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/simple/price?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build price request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get prices: status %d", resp.StatusCode)
	}

	var priceResp priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&priceResp); err != nil {
		return nil, fmt.Errorf("failed to decode prices: %w", err)
	}

	prices := make(map[string]decimal.Decimal, len(priceResp))
	for id, quotes := range priceResp {
		if usd, ok := quotes["usd"]; ok {
			prices[id] = usd
		}
	}
	return prices, nil
}
