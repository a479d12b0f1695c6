// Package xapian talks to a xapian-bridge HTTP service that owns the
// on-disk Xapian indexes of every content domain.
package xapian

import (
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

	"github.com/kailas-cloud/ekn/internal/db"
)

// Compile-time check: Client implements db.Store.
var _ db.Store = (*Client)(nil)

const maxErrorBody = 512

// Config holds connection parameters for the bridge.
type Config struct {
	BaseURL string
	// Timeout bounds a single HTTP round trip. Zero means no limit.
	Timeout time.Duration
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// Client implements db.Store over the bridge's HTTP API.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient validates cfg and creates a bridge client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", cfg.BaseURL)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{base: base, http: hc}, nil
}

type queryResponse struct {
	NumResults int               `json:"numResults"`
	UpperBound int               `json:"upperBound"`
	Offset     int               `json:"offset"`
	Results    []json.RawMessage `json:"results"`
}

// Query runs a compiled query against the index at q.Params.Path.
func (c *Client) Query(ctx context.Context, q *db.Query) (*db.SearchResult, error) {
	v := url.Values{}
	v.Set("path", q.Params.Path)
	v.Set("q", q.Compiled.Query)
	v.Set("offset", strconv.Itoa(q.Compiled.Offset))
	v.Set("limit", strconv.Itoa(q.Compiled.Limit))
	v.Set("cutoff", strconv.Itoa(q.Compiled.Cutoff))
	v.Set("collapse", strconv.Itoa(q.Compiled.CollapseValue))
	if q.Compiled.HasSort {
		v.Set("sortBy", strconv.Itoa(q.Compiled.SortValue))
		v.Set("order", q.Compiled.Order.String())
	}

	var resp queryResponse
	if err := c.get(ctx, db.OpQuery, "/query", v, &resp); err != nil {
		return nil, err
	}

	hits := make([]string, 0, len(resp.Results))
	for i, raw := range resp.Results {
		hit, err := decodeHit(raw)
		if err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("result %d: %w", i, err)}
		}
		hits = append(hits, hit)
	}
	return &db.SearchResult{
		NumResults: resp.NumResults,
		UpperBound: resp.UpperBound,
		Offset:     resp.Offset,
		Hits:       hits,
	}, nil
}

type fixResponse struct {
	StopWordCorrectedQuery string `json:"stopWordCorrectedQuery"`
	SpellCorrectedQuery    string `json:"spellCorrectedQuery"`
}

// Fix asks the bridge for stop-word and spelling corrections of q.Text.
func (c *Client) Fix(ctx context.Context, q *db.FixQuery) (*db.FixResult, error) {
	v := url.Values{}
	v.Set("path", q.Params.Path)
	v.Set("q", q.Text)

	var resp fixResponse
	if err := c.get(ctx, db.OpFix, "/fix", v, &resp); err != nil {
		return nil, err
	}
	return &db.FixResult{
		StopWordCorrected: resp.StopWordCorrectedQuery,
		SpellCorrected:    resp.SpellCorrectedQuery,
	}, nil
}

// Ping checks that the bridge answers HTTP requests.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+"/", nil)
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	defer drain(resp.Body)
	if resp.StatusCode >= http.StatusInternalServerError {
		return &db.Error{Op: db.OpPing, Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}
	return nil
}

// WaitForReady polls Ping until the bridge responds or timeout expires.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.Ping(ctx); err == nil {
		return nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for search backend: %w", ctx.Err())
		case <-ticker.C:
			if err := c.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (c *Client) get(ctx context.Context, op, path string, v url.Values, out any) error {
	u := c.base.String() + path + "?" + v.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &db.Error{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &db.Error{Op: op, Err: err}
	}
	defer drain(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return &db.Error{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%w: %s", db.ErrIndexNotFound, v.Get("path"))}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &db.Error{Op: op, Status: resp.StatusCode, Err: errors.New(msg)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &db.Error{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// decodeHit accepts either a JSON string or an inline JSON document.
func decodeHit(raw json.RawMessage) (string, error) {
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	if !json.Valid(raw) {
		return "", errors.New("invalid hit")
	}
	return string(raw), nil
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<16))
	_ = body.Close()
}
