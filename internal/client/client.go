// Package client implements types.Store against the taxa REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/taxa/internal/server"
	"github.com/mesh-intelligence/taxa/pkg/types"
)

// DefaultTimeout bounds every request made by a client built without
// WithHTTPClient.
const DefaultTimeout = 30 * time.Second

// ErrBaseURL is returned by New for an unusable base URL.
var ErrBaseURL = errors.New("base URL must be an absolute http(s) URL")

var _ types.Store = (*Client)(nil)

// StatusError is returned for any non-2xx response. It unwraps to the store
// error matching the status code so callers can use errors.Is with the
// types sentinels.
type StatusError struct {
	Code    int
	Message string
	Fields  types.FieldErrors
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// Unwrap maps the status code back to a store error.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusBadRequest:
		if len(e.Fields) > 0 {
			return e.Fields
		}
		return types.ErrInvalidData
	case http.StatusNotFound:
		return types.ErrNotFound
	case http.StatusConflict:
		return types.ErrDuplicateName
	case http.StatusServiceUnavailable:
		return types.ErrDetached
	}
	return nil
}

// Client talks to a taxa server.
type Client struct {
	base *url.URL
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New returns a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBaseURL, baseURL)
	}
	c := &Client{base: u, http: &http.Client{Timeout: DefaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListTaxa fetches every taxon in position order.
func (c *Client) ListTaxa(ctx context.Context) ([]types.Taxon, error) {
	var taxa []types.Taxon
	if err := c.do(ctx, http.MethodGet, "/api/taxa", nil, &taxa); err != nil {
		return nil, err
	}
	return taxa, nil
}

// CreateTaxon posts a draft and returns the created taxon.
func (c *Client) CreateTaxon(ctx context.Context, draft types.TaxonDraft) (types.Taxon, error) {
	var t types.Taxon
	if err := c.do(ctx, http.MethodPost, "/api/taxa", draft, &t); err != nil {
		return types.Taxon{}, err
	}
	return t, nil
}

// UpdateTaxon replaces the taxon with id.
func (c *Client) UpdateTaxon(ctx context.Context, id int64, taxon types.Taxon) (types.Taxon, error) {
	var t types.Taxon
	if err := c.do(ctx, http.MethodPatch, taxonPath(id), taxon, &t); err != nil {
		return types.Taxon{}, err
	}
	return t, nil
}

// DeleteTaxon removes the taxon with id.
func (c *Client) DeleteTaxon(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, taxonPath(id), nil, nil)
}

// ReorderTaxa sends the full id order and returns the server's list.
func (c *Client) ReorderTaxa(ctx context.Context, ids []int64) ([]types.Taxon, error) {
	var taxa []types.Taxon
	if err := c.do(ctx, http.MethodPut, "/api/taxa/order", server.OrderRequest{IDs: ids}, &taxa); err != nil {
		return nil, err
	}
	return taxa, nil
}

// DataTypes fetches the server's type registry.
func (c *Client) DataTypes(ctx context.Context) ([]types.Descriptor, error) {
	var descs []types.Descriptor
	if err := c.do(ctx, http.MethodGet, "/api/taxon-types", nil, &descs); err != nil {
		return nil, err
	}
	return descs, nil
}

func taxonPath(id int64) string {
	return "/api/taxa/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	se := &StatusError{Code: resp.StatusCode}
	var body server.ErrorResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		se.Message = body.Error
		se.Fields = body.Fields
	} else {
		se.Message = strings.TrimSpace(string(data))
		if se.Message == "" {
			se.Message = http.StatusText(resp.StatusCode)
		}
	}
	return se
}
