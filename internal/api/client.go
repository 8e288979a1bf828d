// Package api talks to the Fathom service over HTTP. All methods return
// plain errors; callers decide whether a failure is fatal (the interactive
// shell never treats one as fatal).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fathomhq/fathom-cli/internal/query"
)

// orgHeader carries the organization scoping the query endpoint expects.
const orgHeader = "x-fathom-org"

// Client is an authenticated HTTP client for one service endpoint.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	orgName string
}

// New builds a client. There is deliberately no client-side timeout: a
// query runs until the service answers or the caller's context ends.
func New(baseURL, apiKey, orgName string) *Client {
	return &Client{
		http:    &http.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		orgName: orgName,
	}
}

// OrgName returns the organization this client is scoped to.
func (c *Client) OrgName() string { return c.orgName }

func (c *Client) url(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Query runs one FQL query and parses the payload into a Response.
func (c *Client) Query(ctx context.Context, q string) (*query.Response, error) {
	body := map[string]string{
		"query": q,
		"fmt":   "json",
	}

	var headers map[string]string
	if c.orgName != "" {
		headers = map[string]string{orgHeader: c.orgName}
	}

	var resp query.Response
	if err := c.do(ctx, http.MethodPost, "/fql", body, headers, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Get issues an authenticated GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, nil, out)
}

// Post issues an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, nil, out)
}

// Delete issues an authenticated DELETE; the response body is discarded.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed (%s): %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	if out == nil {
		return nil
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
