package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/KigaliAI/youtufy-app/internal/model"
)

const (
	// DefaultBaseURL is the platform data API root.
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

	// pageSize and batchSize are the platform maxima for subscriptions.list
	// pages and channels.list id batches.
	pageSize  = 50
	batchSize = 50

	callTimeout  = 15 * time.Second
	callAttempts = 3
	callBackoff  = 250 * time.Millisecond
)

// Client talks to the platform data API with a caller-supplied credential.
// Calls are paced by a token bucket so a large subscription list cannot burn
// through quota in one burst.
type Client struct {
	httpc   *http.Client
	baseURL string
	limiter *rate.Limiter
	workers int
}

// Options tune the client. Zero values select defaults.
type Options struct {
	// BaseURL overrides the API root (tests point it at a local server).
	BaseURL string
	// Workers bounds concurrent enrichment batches and activity lookups.
	Workers int
	// CallsPerSecond paces outbound API calls. <= 0 disables pacing.
	CallsPerSecond float64
	// HTTPClient overrides the default client (timeout included).
	HTTPClient *http.Client
}

func NewClient(opts Options) *Client {
	c := &Client{
		httpc:   opts.HTTPClient,
		baseURL: opts.BaseURL,
		workers: opts.Workers,
	}
	if c.httpc == nil {
		c.httpc = &http.Client{Timeout: callTimeout}
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.workers <= 0 {
		c.workers = 4
	}
	if opts.CallsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.CallsPerSecond), 1)
	}
	return c
}

// get performs one authenticated API call, decoding the JSON response into
// out. Transient failures (network, timeout, 5xx) are retried with bounded
// backoff; quota and terminal rejections are classified and returned as-is.
func (c *Client) get(ctx context.Context, cred *model.Credential, resource string, query url.Values, out any) error {
	u := fmt.Sprintf("%s/%s?%s", c.baseURL, resource, query.Encode())

	var lastErr error
	for attempt := 1; attempt <= callAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		err := c.doOnce(ctx, cred, u, out)
		if err == nil {
			return nil
		}
		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.Retryable() {
			return err
		}
		if attempt < callAttempts {
			select {
			case <-time.After(callBackoff * time.Duration(1<<(attempt-1))):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, cred *model.Credential, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &APIError{Kind: KindTerminal, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &APIError{Kind: KindTransient, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Kind: KindTerminal, Status: resp.StatusCode,
			Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func classifyStatus(resp *http.Response) *APIError {
	var body errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(raw, &body)

	reason := ""
	if len(body.Error.Errors) > 0 {
		reason = body.Error.Errors[0].Reason
	}

	kind := KindTerminal
	switch {
	case resp.StatusCode >= 500:
		kind = KindTransient
	case resp.StatusCode == http.StatusTooManyRequests:
		kind = KindRateLimited
	case resp.StatusCode == http.StatusForbidden &&
		(reason == "quotaExceeded" || reason == "rateLimitExceeded" || reason == "userRateLimitExceeded"):
		kind = KindRateLimited
	}

	return &APIError{
		Kind:   kind,
		Status: resp.StatusCode,
		Reason: reason,
		Err:    fmt.Errorf("%s", body.Error.Message),
	}
}
