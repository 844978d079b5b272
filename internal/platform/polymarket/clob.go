package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/arbiterlabs/polyarb/internal/domain"
)

// ClobClient is the REST client for the public, unauthenticated endpoints of
// the Polymarket CLOB API. Scan mode uses it to pull best prices without a
// WebSocket subscription.
type ClobClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewClobClient creates a new CLOB REST client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
func NewClobClient(baseURL string) *ClobClient {
	return &ClobClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// BestPrice returns the current best price for one side of a token's book.
// The CLOB "buy" side quotes the best ask (what a buyer pays), "sell" the
// best bid. ok is false when the book is empty on that side.
func (c *ClobClient) BestPrice(ctx context.Context, tokenID string, side domain.Side) (price float64, ok bool, err error) {
	clobSide := "buy"
	if side == domain.SideBid {
		clobSide = "sell"
	}

	params := url.Values{}
	params.Set("token_id", tokenID)
	params.Set("side", clobSide)

	body, err := c.doGet(ctx, "/price?"+params.Encode())
	if err != nil {
		return 0, false, fmt.Errorf("polymarket/clob: price %s/%s: %w", tokenID, clobSide, err)
	}

	var p APIPrice
	if err := json.Unmarshal(body, &p); err != nil {
		return 0, false, fmt.Errorf("polymarket/clob: decode price: %w", err)
	}
	price, ok = p.Value()
	return price, ok, nil
}

// BestTick fetches one side of a token's book as a tick stamped with the
// fetch time. ok is false on an empty book.
func (c *ClobClient) BestTick(ctx context.Context, tokenID string, side domain.Side) (domain.Tick, bool, error) {
	price, ok, err := c.BestPrice(ctx, tokenID, side)
	if err != nil || !ok {
		return domain.Tick{}, false, err
	}
	return domain.Tick{
		TokenID:   tokenID,
		Side:      side,
		Price:     price,
		Timestamp: time.Now(),
	}, true, nil
}

// doGet sends an unauthenticated GET request to the CLOB API.
func (c *ClobClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}
