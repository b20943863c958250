package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/feedlark/lister/internal/errors"
	"github.com/feedlark/lister/internal/post"
)

// HTTPClient implements Client against the feed service's JSON API:
// GET {base}/lists and GET {base}/lists/{id}/timeline.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewHTTPClient creates a feed service client. The http.Client timeout is
// the only network deadline in the system; fetch retries sit above it.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Lists enumerates all lists visible to the credential.
func (c *HTTPClient) Lists(ctx context.Context) ([]List, error) {
	var lists []List
	if err := c.getJSON(ctx, c.baseURL+"/lists", &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// Timeline fetches one page of a list's posts, newest first.
func (c *HTTPClient) Timeline(ctx context.Context, handle string, q TimelineQuery) ([]post.Post, error) {
	params := url.Values{}
	if q.Count > 0 {
		params.Set("count", strconv.Itoa(q.Count))
	}
	if q.SinceID > 0 {
		params.Set("since_id", strconv.FormatInt(q.SinceID, 10))
	}
	if q.MaxID > 0 {
		params.Set("max_id", strconv.FormatInt(q.MaxID, 10))
	}

	u := fmt.Sprintf("%s/lists/%s/timeline", c.baseURL, url.PathEscape(handle))
	if enc := params.Encode(); enc != "" {
		u += "?" + enc
	}

	var posts []post.Post
	if err := c.getJSON(ctx, u, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// getJSON performs one authenticated GET and decodes the response body,
// classifying every failure mode for the retry policy upstream.
func (c *HTTPClient) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// Respect cancellation over classification so callers stop retrying
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.NewTransientNetwork(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Debug("feed service error response",
			"url", rawURL,
			"status", resp.StatusCode,
		)
		return errors.NewFeedService(
			fmt.Sprintf("feed service returned %d", resp.StatusCode),
			map[string]any{"status": resp.StatusCode, "body": string(body)},
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewFeedService("malformed feed service response: "+err.Error(), nil)
	}
	return nil
}
