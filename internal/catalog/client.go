package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Lister reads the set of currently valid product ids from the catalog.
// The call is idempotent and safe to retry.
type Lister interface {
	ListProductIDs(ctx context.Context) ([]string, error)
}

// Client calls the catalog listing endpoint. Site and business-type context
// travel as request headers; the endpoint takes no body.
type Client struct {
	baseURL      string
	siteID       string
	businessType string
	httpClient   *http.Client
	breaker      *gobreaker.CircuitBreaker[[]string]
}

func NewClient(baseURL, siteID, businessType string, timeout time.Duration) *Client {
	return &Client{
		baseURL:      baseURL,
		siteID:       siteID,
		businessType: businessType,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[[]string](gobreaker.Settings{
			Name:        "catalog-listing",
			MaxRequests: 3,
			Timeout:     30 * time.Second,
		}),
	}
}

type listResponse struct {
	IDs []string `json:"ids"`
}

func (c *Client) ListProductIDs(ctx context.Context) ([]string, error) {
	return c.breaker.Execute(func() ([]string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/products/ids", nil)
		if err != nil {
			return nil, fmt.Errorf("build catalog request: %w", err)
		}
		req.Header.Set("X-Site-ID", c.siteID)
		req.Header.Set("X-Business-Type", c.businessType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("catalog request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
		}

		var body listResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("decode catalog response: %w", err)
		}
		return body.IDs, nil
	})
}
