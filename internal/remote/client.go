// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package remote talks to the remote change log: it fetches the diffs
// recorded for a manuscript so they can be replayed locally, and submits
// compacted diffs from the local journal.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pdiddy/manuscript-history/internal/change"
	"github.com/pdiddy/manuscript-history/internal/httputil"
	"github.com/pdiddy/manuscript-history/pkg/richtext"
	"github.com/pdiddy/manuscript-history/pkg/types"
)

// ErrNotFound is returned when the change log has no manuscript with the
// requested id.
var ErrNotFound = errors.New("manuscript not found")

var requests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "manuscript_remote_requests_total",
	Help: "Requests made to the remote change log, by operation and status code",
}, []string{"op", "code"})

// Client is a remote change-log client.
type Client struct {
	BaseURL    string
	Token      string
	UserAgent  string
	MaxRetries int
	HTTP       *http.Client

	// Schema validates rich-text steps in fetched diffs.
	Schema *richtext.Schema
}

// NewClient returns a client for cfg. token overrides cfg.Token when set.
func NewClient(cfg types.RemoteConfig, token string) *Client {
	if token == "" {
		token = cfg.Token
	}
	return &Client{
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		Token:      token,
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
		HTTP:       &http.Client{Timeout: cfg.Timeout},
		Schema:     richtext.DefaultSchema,
	}
}

func (c *Client) changesURL(manuscriptID string) string {
	return c.BaseURL + "/manuscripts/" + url.PathEscape(manuscriptID) + "/changes"
}

// FetchChanges returns the diffs recorded for a manuscript, oldest first.
func (c *Client) FetchChanges(ctx context.Context, manuscriptID string) ([]change.Diff, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.changesURL(manuscriptID), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(ctx, "fetch", req)
	if err != nil {
		return nil, fmt.Errorf("fetching changes of %s: %w", manuscriptID, err)
	}
	diffs, err := change.UnmarshalDiffs(c.schema(), body)
	if err != nil {
		return nil, fmt.Errorf("parsing changes of %s: %w", manuscriptID, err)
	}
	slog.Debug("remote: fetched changes", "manuscript", manuscriptID, "count", len(diffs))
	return diffs, nil
}

// SubmitChanges posts diffs to the change log of a manuscript.
func (c *Client) SubmitChanges(ctx context.Context, manuscriptID string, diffs []change.Diff) error {
	if diffs == nil {
		diffs = []change.Diff{}
	}
	payload, err := json.Marshal(diffs)
	if err != nil {
		return fmt.Errorf("encoding changes: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.changesURL(manuscriptID), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if _, err := c.do(ctx, "submit", req); err != nil {
		return fmt.Errorf("submitting changes of %s: %w", manuscriptID, err)
	}
	slog.Info("remote: submitted changes", "manuscript", manuscriptID, "count", len(diffs))
	return nil
}

// do sends req with credentials and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, op string, req *http.Request) ([]byte, error) {
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	requests.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("change log returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func (c *Client) schema() *richtext.Schema {
	if c.Schema == nil {
		return richtext.DefaultSchema
	}
	return c.Schema
}
