package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"uvpaint-review/internal/config"
	"uvpaint-review/internal/domain/review"
)

var (
	ErrNotFound    = errors.New("inspection not found")
	ErrUnavailable = errors.New("upstream unavailable")
)

// Client talks to the inspection-data API. Each request carries its own
// timeout; there is no retry, a failed inspection is simply skipped by the
// batch layer.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(cfg config.UpstreamConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     log,
	}
}

// FetchInspection retrieves and decodes one inspection record.
func (c *Client) FetchInspection(ctx context.Context, inspectionID string) (*review.InspectionRecord, error) {
	body, err := c.fetchRaw(ctx, inspectionID)
	if err != nil {
		return nil, err
	}

	var rec review.InspectionRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("decode inspection %s: %w", inspectionID, err)
	}
	return &rec, nil
}

// FetchInspectionRaw relays the upstream response bytes unmodified; the
// proxy endpoint serves them as-is.
func (c *Client) FetchInspectionRaw(ctx context.Context, inspectionID string) ([]byte, error) {
	return c.fetchRaw(ctx, inspectionID)
}

func (c *Client) fetchRaw(ctx context.Context, inspectionID string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/inspections/%s", c.baseURL, url.PathEscape(inspectionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, inspectionID)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d for %s", ErrUnavailable, resp.StatusCode, inspectionID)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// Status probes the upstream base URL so the UI can show whether the
// inspection-data API is reachable.
func (c *Client) Status(ctx context.Context) (bool, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return false, 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false, 0, err
	}
	resp.Body.Close()
	return resp.StatusCode < 500, resp.StatusCode, nil
}
