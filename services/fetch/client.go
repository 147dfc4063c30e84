// Package fetch is the outbound HTTP layer shared by all site adapters:
// browser-like headers, a bounded concurrency gate over every request, a
// typed failure taxonomy and a one-shot challenge-solving fallback for
// protected sites.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"streamscout/config"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultHeaders returns the browser-like header bundle sent when the
// caller supplies none.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      defaultUserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
		"Accept-Encoding": "gzip, deflate",
		"DNT":             "1",
		"Connection":      "keep-alive",
	}
}

// Options adjusts a single fetch.
type Options struct {
	Headers   map[string]string // overrides the default bundle per key
	Timeout   time.Duration     // zero means the client default
	Protected bool              // site sits behind an anti-bot challenge
}

// solver is the challenge-solving fallback. It runs on its own transport
// and slot pool so its blocking behavior cannot starve the primary gate.
type solver interface {
	Solve(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error)
}

// Client performs resilient GETs. Safe for concurrent use; all per-call
// state lives on the stack.
type Client struct {
	httpc         *http.Client
	gate          *semaphore.Weighted
	solver        solver
	timeout       time.Duration
	retryAttempts uint
	retryDelay    time.Duration
}

// NewClient builds a client from fetch settings. A nil httpc gets a
// default client; tests inject one with a fake transport.
func NewClient(cfg config.FetchSettings, httpc *http.Client) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: timeout}
	}
	maxConcurrent := int64(cfg.MaxConcurrent)
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	slots := cfg.ChallengeSlots
	if slots <= 0 {
		slots = 2
	}
	attempts := cfg.RetryAttempts
	if attempts < 0 {
		attempts = 0
	}
	return &Client{
		httpc:         httpc,
		gate:          semaphore.NewWeighted(maxConcurrent),
		solver:        NewChallengeSolver(slots),
		timeout:       timeout,
		retryAttempts: uint(attempts),
		retryDelay:    time.Duration(cfg.RetryDelayMs) * time.Millisecond,
	}
}

// SetSolver replaces the challenge fallback (tests use a stub).
func (c *Client) SetSolver(s solver) { c.solver = s }

// Fetch GETs a URL and returns the raw body. The primary attempt runs
// under the shared gate; if it fails and the site is flagged protected,
// one fallback attempt goes through the challenge solver. The gate slot is
// released before the fallback so a stuck solver never blocks unrelated
// fetches.
func (c *Client) Fetch(ctx context.Context, rawURL string, opt Options) ([]byte, error) {
	body, primaryErr := c.fetchPrimary(ctx, rawURL, opt)
	if primaryErr == nil {
		return body, nil
	}

	if opt.Protected && c.solver != nil {
		log.Printf("[fetch] primary fetch failed for %s (%v), trying challenge solver", rawURL, primaryErr)
		solved, err := c.solver.Solve(ctx, rawURL, c.mergeHeaders(opt.Headers))
		if err == nil {
			return solved, nil
		}
		log.Printf("[fetch] challenge solver failed for %s: %v", rawURL, err)
	}

	var che *ChallengeError
	if errors.As(primaryErr, &che) {
		// Unprotected sites (or a failed fallback) see a plain fetch error.
		return nil, &Error{URL: rawURL, StatusCode: che.StatusCode}
	}
	return nil, primaryErr
}

// FetchJSON GETs a URL and decodes the JSON body into dest.
func (c *Client) FetchJSON(ctx context.Context, rawURL string, opt Options, dest any) error {
	if opt.Headers == nil {
		opt.Headers = map[string]string{"Accept": "application/json"}
	} else if _, ok := opt.Headers["Accept"]; !ok {
		opt.Headers["Accept"] = "application/json"
	}
	body, err := c.Fetch(ctx, rawURL, opt)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &Error{URL: rawURL, Err: fmt.Errorf("decode json: %w", err)}
	}
	return nil
}

func (c *Client) fetchPrimary(ctx context.Context, rawURL string, opt Options) ([]byte, error) {
	// FIFO gate over every outbound request, nested sub-fetches included.
	if err := c.gate.Acquire(ctx, 1); err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}
	defer c.gate.Release(1)

	timeout := opt.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}
	for k, v := range c.mergeHeaders(opt.Headers) {
		req.Header.Set(k, v)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if challengeResponse(resp.StatusCode, body) {
			return nil, &ChallengeError{URL: rawURL, StatusCode: resp.StatusCode}
		}
		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, &Error{URL: rawURL, StatusCode: resp.StatusCode}
	}
	return body, nil
}

func (c *Client) mergeHeaders(overrides map[string]string) map[string]string {
	headers := DefaultHeaders()
	for k, v := range overrides {
		headers[k] = v
	}
	return headers
}

var challengeMarkers = []string{
	"just a moment",
	"cf-browser-verification",
	"checking your browser",
	"ddos-guard",
	"cf-turnstile",
}

// challengeResponse detects anti-automation interstitials: a blocked
// status paired with a known challenge marker in the body.
func challengeResponse(status int, body []byte) bool {
	if status != http.StatusForbidden && status != http.StatusServiceUnavailable {
		return false
	}
	lower := strings.ToLower(string(body))
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
