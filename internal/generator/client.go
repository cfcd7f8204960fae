// Package generator is a client for the config generator service, which
// knows the maps and layers of the current tenant.
package generator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
)

// ErrNotConfigured is returned when no config generator service URL is set.
var ErrNotConfigured = fmt.Errorf("config generator service URL is not defined")

// Client calls the config generator service.
type Client struct {
	baseURL string
	tenant  string
	client  *http.Client
}

// MapDetails describes one map as reported by the config generator service.
type MapDetails struct {
	Name   string   `json:"name"`
	Layers []string `json:"layers"`
}

// NewClient creates a config generator client for the given base URL and
// tenant.
func NewClient(baseURL, tenant string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		tenant:  tenant,
		client:  &http.Client{Timeout: timeout},
	}
}

// Configured reports whether a service URL is set.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// Maps fetches the list of map names for the tenant.
func (c *Client) Maps(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.get(ctx, "maps", &names); err != nil {
		return nil, err
	}
	return names, nil
}

// Map fetches the details of one map, including its layer names.
func (c *Client) Map(ctx context.Context, name string) (*MapDetails, error) {
	details := &MapDetails{}
	if err := c.get(ctx, "maps/"+url.PathEscape(name), details); err != nil {
		return nil, err
	}
	return details, nil
}

// get performs a GET request against the service and decodes the JSON
// response into out.
func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid config generator service URL %q: %w", c.baseURL, err)
	}
	ref, err := url.Parse(endpoint)
	if err != nil {
		return err
	}
	target := base.ResolveReference(ref)
	query := target.Query()
	query.Set("tenant", c.tenant)
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s returned status %d: %s", target, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not decode response from %s: %w", target, err)
	}
	return nil
}
