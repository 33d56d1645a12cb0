package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// BirdeyeClient queries the Birdeye token-overview API. The API key may be
// empty; the free tier still answers, just with tighter limits.
type BirdeyeClient struct {
	baseURL string
	http    *httpClient
}

func NewBirdeyeClient(baseURL, apiKey string, timeout time.Duration) *BirdeyeClient {
	var headers map[string]string
	if apiKey != "" {
		headers = map[string]string{"X-API-KEY": apiKey}
	}
	return &BirdeyeClient{
		baseURL: baseURL,
		http:    newHTTPClient("Birdeye", timeout, headers),
	}
}

func (c *BirdeyeClient) Name() string { return "Birdeye" }

type birdeyeOverviewResponse struct {
	Data struct {
		Price             float64 `json:"price"`
		MarketCap         float64 `json:"mc"`
		PriceChange24hPct float64 `json:"priceChange24hPercent"`
	} `json:"data"`
	Success bool `json:"success"`
}

func (c *BirdeyeClient) Quote(ctx context.Context, mint string) (Quote, error) {
	endpoint := fmt.Sprintf("%s/public/token_overview?address=%s", c.baseURL, url.QueryEscape(mint))

	body, err := c.http.doGET(ctx, endpoint)
	if err != nil {
		return Quote{}, err
	}

	var resp birdeyeOverviewResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Quote{}, fmt.Errorf("failed to unmarshal birdeye response: %w", err)
	}

	return Quote{
		Price:          resp.Data.Price,
		MarketCap:      resp.Data.MarketCap,
		PriceChange24h: resp.Data.PriceChange24hPct,
	}, nil
}
