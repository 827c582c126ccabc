package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is an HTTP implementation of Service.
//
// The wire format is plain JSON over a REST-ish surface:
//
//	GET  {base}/v1/documents/{id}[?tabs=1]
//	POST {base}/v1/documents/{id}/edits
//	GET  {base}/v1/changes?cursor={cursor}
//	GET  {base}/v1/changes/cursor
type Client struct {
	base  string
	token string
	http  *http.Client
}

// ClientConfig configures an HTTP client for the document service.
type ClientConfig struct {
	// BaseURL is the service root, without a trailing slash.
	BaseURL string

	// Token is the bearer token for authentication. Acquiring and
	// refreshing it is out of scope; the client only attaches it.
	Token string

	// Timeout bounds each request. Defaults to 30 seconds.
	Timeout time.Duration
}

// NewClient creates an HTTP client for the document service.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: no credentials configured", ErrAccess)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base:  cfg.BaseURL,
		token: cfg.Token,
		http:  &http.Client{Timeout: timeout},
	}, nil
}

// Fetch implements Service.Fetch.
func (c *Client) Fetch(ctx context.Context, docID string, opts FetchOptions) (*Document, error) {
	u := fmt.Sprintf("%s/v1/documents/%s", c.base, url.PathEscape(docID))
	if opts.IncludeTabs {
		u += "?tabs=1"
	}
	var doc Document
	if err := c.do(ctx, http.MethodGet, u, nil, &doc); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", docID, err)
	}
	return &doc, nil
}

type editPayload struct {
	Requests         []Request `json:"requests"`
	RequiredRevision string    `json:"requiredRevision,omitempty"`
}

// ApplyEdits implements Service.ApplyEdits.
func (c *Client) ApplyEdits(ctx context.Context, docID string, reqs []Request, opts EditOptions) (*EditResult, error) {
	u := fmt.Sprintf("%s/v1/documents/%s/edits", c.base, url.PathEscape(docID))
	payload := editPayload{Requests: reqs, RequiredRevision: opts.RequiredRevision}
	var result EditResult
	if err := c.do(ctx, http.MethodPost, u, payload, &result); err != nil {
		// do has no document context; name the rejected document here.
		var ce *ConflictError
		if errors.As(err, &ce) {
			ce.DocID = docID
		}
		return nil, fmt.Errorf("apply edits to %s: %w", docID, err)
	}
	return &result, nil
}

// ListChanges implements Service.ListChanges.
func (c *Client) ListChanges(ctx context.Context, cursor string) (*ChangePage, error) {
	u := fmt.Sprintf("%s/v1/changes?cursor=%s", c.base, url.QueryEscape(cursor))
	var page ChangePage
	if err := c.do(ctx, http.MethodGet, u, nil, &page); err != nil {
		return nil, &TransientError{Op: "list changes", Err: err}
	}
	return &page, nil
}

// CurrentCursor implements Service.CurrentCursor.
func (c *Client) CurrentCursor(ctx context.Context) (string, error) {
	u := fmt.Sprintf("%s/v1/changes/cursor", c.base)
	var resp struct {
		Cursor string `json:"cursor"`
	}
	if err := c.do(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return "", &TransientError{Op: "current cursor", Err: err}
	}
	return resp.Cursor, nil
}

// do performs one request and decodes the response body into out.
// Service-level failures are mapped onto the package error taxonomy.
func (c *Client) do(ctx context.Context, method, u string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransientError{Op: method + " " + u, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrAccess
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		var detail struct {
			RequiredRevision string `json:"requiredRevision"`
			CurrentRevision  string `json:"currentRevision"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&detail)
		return &ConflictError{
			RequiredRevision: detail.RequiredRevision,
			CurrentRevision:  detail.CurrentRevision,
		}
	case resp.StatusCode >= 500:
		return &TransientError{Op: method + " " + u,
			Err: fmt.Errorf("service returned %s", resp.Status)}
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("service returned %s", resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
