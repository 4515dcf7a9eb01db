// Package mirror talks to the hosted table store the dashboard's other
// installations read from. The remote side is an opaque REST peer with
// table-level upsert/delete endpoints; local data stays authoritative and
// the outbox worker decides when (and whether) rows get here.
package mirror

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is a thin wrapper over the mirror's table REST interface.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a mirror is configured at all. Running without
// one is supported; the outbox just accumulates.
func (c *Client) Enabled() bool { return c.baseURL != "" }

// Upsert writes one record into the named remote table.
func (c *Client) Upsert(ctx context.Context, table string, payload []byte) error {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, url.PathEscape(table))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Prefer", "resolution=merge-duplicates")
	return c.do(req)
}

// Delete removes one record from the named remote table by id.
func (c *Client) Delete(ctx context.Context, table, recordID string) error {
	endpoint := fmt.Sprintf("%s/rest/v1/%s?id=eq.%s", c.baseURL, url.PathEscape(table), url.QueryEscape(recordID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	return c.do(req)
}

func (c *Client) do(req *http.Request) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mirror: %s %s: %s: %s", req.Method, req.URL.Path, resp.Status, body)
	}
	return nil
}
