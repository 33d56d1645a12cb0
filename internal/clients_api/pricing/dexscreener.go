package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// DexScreenerClient queries the DexScreener pairs API. Only the first pair
// is used; DexScreener orders pairs by liquidity.
type DexScreenerClient struct {
	baseURL string
	http    *httpClient
}

func NewDexScreenerClient(baseURL string, timeout time.Duration) *DexScreenerClient {
	return &DexScreenerClient{
		baseURL: baseURL,
		http:    newHTTPClient("DexScreener", timeout, nil),
	}
}

func (c *DexScreenerClient) Name() string { return "DexScreener" }

type dexScreenerResponse struct {
	Pairs []struct {
		PriceUsd    string  `json:"priceUsd"`
		FDV         float64 `json:"fdv"`
		MarketCap   float64 `json:"marketCap"`
		PriceChange struct {
			H24 float64 `json:"h24"`
		} `json:"priceChange"`
	} `json:"pairs"`
}

func (c *DexScreenerClient) Quote(ctx context.Context, mint string) (Quote, error) {
	endpoint := fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, url.PathEscape(mint))

	body, err := c.http.doGET(ctx, endpoint)
	if err != nil {
		return Quote{}, err
	}

	var resp dexScreenerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Quote{}, fmt.Errorf("failed to unmarshal dexscreener response: %w", err)
	}
	if len(resp.Pairs) == 0 {
		return Quote{}, nil
	}

	pair := resp.Pairs[0]
	price, _ := strconv.ParseFloat(pair.PriceUsd, 64)

	marketCap := pair.MarketCap
	if marketCap == 0 {
		marketCap = pair.FDV
	}

	return Quote{
		Price:          price,
		MarketCap:      marketCap,
		PriceChange24h: pair.PriceChange.H24,
	}, nil
}
