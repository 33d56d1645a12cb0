package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// JupiterClient queries the Jupiter price API. Jupiter carries the most
// reliable spot prices for Solana tokens and is tried first.
type JupiterClient struct {
	baseURL string
	http    *httpClient
}

func NewJupiterClient(baseURL string, timeout time.Duration) *JupiterClient {
	return &JupiterClient{
		baseURL: baseURL,
		http:    newHTTPClient("Jupiter", timeout, nil),
	}
}

func (c *JupiterClient) Name() string { return "Jupiter" }

type jupiterPriceResponse struct {
	Data map[string]struct {
		Price float64 `json:"price"`
	} `json:"data"`
}

// Price returns the USD spot price for mint, or 0 when Jupiter has none.
func (c *JupiterClient) Price(ctx context.Context, mint string) (float64, error) {
	endpoint := fmt.Sprintf("%s/price?ids=%s", c.baseURL, url.QueryEscape(mint))

	body, err := c.http.doGET(ctx, endpoint)
	if err != nil {
		return 0, err
	}

	var resp jupiterPriceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("failed to unmarshal jupiter response: %w", err)
	}

	return resp.Data[mint].Price, nil
}

// Quote adapts the price-only endpoint to the provider interface.
func (c *JupiterClient) Quote(ctx context.Context, mint string) (Quote, error) {
	price, err := c.Price(ctx, mint)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Price: price}, nil
}
