// Package upstream issues raw requests against the retail site: POSTs to its
// AJAX service endpoints and GETs for full product pages. It knows nothing
// about caching or record semantics; adapters own those.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"shoezoneapi/internal/obs"
)

const DefaultBaseURL = "https://www.shoezone.com"

// Fixed AJAX endpoints exposed by the site. These are the only stable
// surface the site offers; everything else is scraped from HTML.
const (
	LocatorPath    = "/Services/StoreLocator.asmx/SearchStores"
	StockCheckPath = "/Services/StockCheck.asmx/CheckStoreStock"
)

type Client struct {
	http    *http.Client
	baseURL *url.URL
	log     zerolog.Logger
	metrics *obs.Metrics
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(raw); err == nil {
			c.baseURL = u
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func WithMetrics(m *obs.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func New(opts ...Option) *Client {
	u, _ := url.Parse(DefaultBaseURL)
	c := &Client{
		http:    http.DefaultClient,
		baseURL: u,
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// PostJSON sends body JSON-encoded to one of the AJAX endpoints and returns
// the outer reply envelope. Failures are not retried.
func (c *Client) PostJSON(ctx context.Context, path string, body any) (*Envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	u := c.resolve(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("path", path).Msg("upstream post")

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.UpstreamRequest(path, "error")
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.UpstreamRequest(path, "error")
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("POST %s: %s: %s", path, resp.Status, string(b))
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.metrics.UpstreamRequest(path, "error")
		return nil, fmt.Errorf("POST %s: decode envelope: %w", path, err)
	}
	c.metrics.UpstreamRequest(path, "ok")
	return &env, nil
}

// GetPage fetches a raw HTML document from the site.
func (c *Client) GetPage(ctx context.Context, path string) ([]byte, error) {
	u := c.resolve(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	c.log.Debug().Str("path", path).Msg("upstream get")

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.UpstreamRequest(path, "error")
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.UpstreamRequest(path, "error")
		return nil, fmt.Errorf("GET %s: %s", path, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.UpstreamRequest(path, "error")
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	c.metrics.UpstreamRequest(path, "ok")
	return body, nil
}

func (c *Client) resolve(path string) string {
	u := *c.baseURL
	u.Path = path
	return u.String()
}
