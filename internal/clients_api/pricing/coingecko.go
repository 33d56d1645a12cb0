package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// CoinGeckoClient queries the CoinGecko contract endpoint. CoinGecko only
// lists established tokens, so it sits last in the provider order.
type CoinGeckoClient struct {
	baseURL string
	http    *httpClient
}

func NewCoinGeckoClient(baseURL string, timeout time.Duration) *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL: baseURL,
		http:    newHTTPClient("CoinGecko", timeout, nil),
	}
}

func (c *CoinGeckoClient) Name() string { return "CoinGecko" }

type coinGeckoContractResponse struct {
	MarketData struct {
		CurrentPrice struct {
			USD float64 `json:"usd"`
		} `json:"current_price"`
		MarketCap struct {
			USD float64 `json:"usd"`
		} `json:"market_cap"`
		PriceChangePct24h float64 `json:"price_change_percentage_24h"`
	} `json:"market_data"`
}

func (c *CoinGeckoClient) Quote(ctx context.Context, mint string) (Quote, error) {
	endpoint := fmt.Sprintf("%s/api/v3/coins/solana/contract/%s", c.baseURL, url.PathEscape(mint))

	body, err := c.http.doGET(ctx, endpoint)
	if err != nil {
		return Quote{}, err
	}

	var resp coinGeckoContractResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Quote{}, fmt.Errorf("failed to unmarshal coingecko response: %w", err)
	}

	return Quote{
		Price:          resp.MarketData.CurrentPrice.USD,
		MarketCap:      resp.MarketData.MarketCap.USD,
		PriceChange24h: resp.MarketData.PriceChangePct24h,
	}, nil
}
