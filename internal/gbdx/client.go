// Package gbdx provides a client for the GBDX catalog, ordering and imagery APIs.
package gbdx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Client handles communication with the GBDX APIs.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new GBDX API client. The token may be empty for
// catalog-only use; ordering and imagery calls require it.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger for the client.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger
	return c
}

// Search performs a catalog search and returns the raw records.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]Record, error) {
	body, err := json.Marshal(params.ToRequest())
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	c.logger.DebugContext(ctx, "executing GBDX catalog search",
		slog.Int("filter_count", len(params.Filters)),
		slog.Bool("spatial", params.SearchAreaWkt != ""),
	)

	var result SearchResponse
	if err := c.doJSON(ctx, http.MethodPost, "/catalog/v2/search", body, &result); err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}

	c.logger.DebugContext(ctx, "GBDX catalog search completed",
		slog.Int("record_count", len(result.Results)),
	)

	return result.Results, nil
}

// GetRecord retrieves a single catalog record by its identifier.
func (c *Client) GetRecord(ctx context.Context, id string) (*Record, error) {
	c.logger.DebugContext(ctx, "fetching catalog record", slog.String("id", id))

	var record Record
	path := "/catalog/v2/record/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &record); err != nil {
		return nil, fmt.Errorf("failed to fetch record %s: %w", id, err)
	}

	if record.Identifier == "" && record.Properties.CatalogID == "" {
		return nil, fmt.Errorf("record not found: %s", id)
	}

	return &record, nil
}

// Order places a fulfillment order for a catalog ID and returns the order ID.
func (c *Client) Order(ctx context.Context, catalogID string) (string, error) {
	body, err := json.Marshal(orderRequest{catalogID})
	if err != nil {
		return "", fmt.Errorf("failed to encode order request: %w", err)
	}

	var result orderResponse
	if err := c.doJSON(ctx, http.MethodPost, "/orders/v2/order", body, &result); err != nil {
		return "", fmt.Errorf("order placement failed for %s: %w", catalogID, err)
	}

	if result.OrderID == "" {
		return "", fmt.Errorf("order placement for %s returned no order ID", catalogID)
	}

	c.logger.InfoContext(ctx, "order placed",
		slog.String("catalog_id", catalogID),
		slog.String("order_id", result.OrderID),
	)

	return result.OrderID, nil
}

// Status polls the fulfillment status of an order. The returned status refers
// to the first acquisition in the order.
func (c *Client) Status(ctx context.Context, orderID string) (*OrderStatus, error) {
	var result statusResponse
	path := "/orders/v2/order/" + url.PathEscape(orderID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, fmt.Errorf("status poll failed for order %s: %w", orderID, err)
	}

	if len(result.Acquisitions) == 0 {
		return nil, fmt.Errorf("order %s has no acquisitions", orderID)
	}

	return &result.Acquisitions[0], nil
}

// FetchImage downloads the full-resolution image product for a scene,
// clipped to bbox, applying the given opaque recipe flags, and writes it to
// dstPath. Requires an API token.
func (c *Client) FetchImage(ctx context.Context, catalogID string, recipe map[string]string, bbox [4]float64, dstPath string) error {
	if c.token == "" {
		return fmt.Errorf("imagery fetch requires a GBDX token")
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = "/v1/image/" + url.PathEscape(catalogID) + ".tif"

	values := url.Values{}
	values.Set("bbox", fmt.Sprintf("%s,%s,%s,%s",
		formatCoord(bbox[0]), formatCoord(bbox[1]), formatCoord(bbox[2]), formatCoord(bbox[3])))
	for k, v := range recipe {
		values.Set(k, v)
	}
	u.RawQuery = values.Encode()

	return c.DownloadFile(ctx, u.String(), dstPath)
}

// DownloadFile fetches a URL and writes the response body to path.
func (c *Client) DownloadFile(ctx context.Context, rawURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	c.logger.DebugContext(ctx, "file downloaded", slog.String("path", path))
	return nil
}

// doJSON executes a request against the API and decodes the JSON response.
func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, out any) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "GBDX API request failed",
			slog.String("error", err.Error()),
			slog.String("path", path),
		)
		return fmt.Errorf("GBDX API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		c.logger.ErrorContext(ctx, "GBDX API returned non-success status",
			slog.Int("status_code", resp.StatusCode),
			slog.String("path", path),
			slog.String("response_body", string(respBody)),
		)
		return fmt.Errorf("GBDX API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode GBDX response: %w", err)
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "sat-gbdx/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
