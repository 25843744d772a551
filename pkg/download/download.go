// Copyright (C) 2025  Mufi-Lang
//
// SPDX-License-Identifier: Apache-2.0

// Package download fetches release artifacts over HTTP, hashing them as they stream in.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/datawire/dlib/dlog"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/Mufi-Lang/mufi-bucket/pkg/scoop/hash"
)

type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// Backoff controls retries of transport errors and 5xx responses.  Backoff.Steps is the
	// total number of attempts.
	Backoff wait.Backoff
}

//nolint:gochecknoglobals // Would be 'const'.
var DefaultBackoff = wait.Backoff{
	Duration: 1 * time.Second,
	Factor:   2,
	Jitter:   0.1,
	Steps:    4,
}

func (c *Client) fillDefaults() {
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.UserAgent == "" {
		c.UserAgent = "mufi-bucket/bucketctl"
	}
	if c.Backoff.Steps == 0 {
		c.Backoff = DefaultBackoff
	}
}

type HTTPError struct {
	URL        string
	Status     string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %q => HTTP %s", e.URL, e.Status)
}

func (e *HTTPError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// errTruncated marks a body that ended before its Content-Length.
var errTruncated = errors.New("short read")

// isTemporary reports whether err is worth retrying.  Anything not known to be transient (a
// malformed URL, a refused connection) fails on the first attempt.
func isTemporary(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, errTruncated) {
		return true
	}
	// *HTTPError, *url.Error, *net.OpError, and syscall.Errno all implement this.
	var tmp interface{ Temporary() bool }
	if errors.As(err, &tmp) {
		return tmp.Temporary()
	}
	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) {
		return timeout.Timeout()
	}
	return false
}

// retry calls fn until it succeeds, fails with a permanent error, the backoff runs out, or ctx
// is canceled (including while sleeping between attempts).
func (c Client) retry(ctx context.Context, what string, fn func() error) error {
	var lastErr error
	attempt := 0
	err := wait.ExponentialBackoffWithContext(ctx, c.Backoff, func() (bool, error) {
		attempt++
		lastErr = fn()
		switch {
		case lastErr == nil:
			return true, nil
		case !isTemporary(lastErr):
			return false, lastErr
		default:
			dlog.Warnf(ctx, "%s: attempt %d/%d: %v", what, attempt, c.Backoff.Steps, lastErr)
			return false, nil
		}
	})
	if errors.Is(err, wait.ErrWaitTimeout) {
		return lastErr
	}
	return err
}

func (c Client) do(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	return c.HTTPClient.Do(req)
}

// Hash downloads url and returns its digest under algo, and its size.  The body is never held
// in memory as a whole.
func (c Client) Hash(ctx context.Context, url, algo string) (hash.Hash, int64, error) {
	c.fillDefaults()
	var (
		sum  hash.Hash
		size int64
	)
	err := c.retry(ctx, url, func() (err error) {
		dlog.Debugf(ctx, "downloading %s", url)
		resp, err := c.do(ctx, http.MethodGet, url)
		if err != nil {
			return err
		}
		defer func() {
			if _err := resp.Body.Close(); _err != nil && err == nil {
				err = _err
			}
		}()
		if resp.StatusCode != http.StatusOK {
			return &HTTPError{URL: url, Status: resp.Status, StatusCode: resp.StatusCode}
		}
		sum, size, err = hash.Sum(algo, resp.Body)
		if err != nil {
			return fmt.Errorf("GET %q: %w", url, err)
		}
		if resp.ContentLength >= 0 && size != resp.ContentLength {
			return fmt.Errorf("GET %q: %w: got %d of %d bytes", url, errTruncated, size, resp.ContentLength)
		}
		return nil
	})
	if err != nil {
		return hash.Hash{}, 0, err
	}
	return sum, size, nil
}

// Probe reports the final HTTP status of url, following redirects.  It tries a HEAD request
// first, and falls back to GET for servers that don't allow HEAD.
func (c Client) Probe(ctx context.Context, url string) (int, error) {
	c.fillDefaults()
	var status int
	err := c.retry(ctx, url, func() error {
		var err error
		status, err = c.probeOnce(ctx, http.MethodHead, url)
		if err != nil {
			return err
		}
		switch status {
		case http.StatusMethodNotAllowed, http.StatusForbidden, http.StatusNotImplemented:
			status, err = c.probeOnce(ctx, http.MethodGet, url)
			if err != nil {
				return err
			}
		}
		if status >= 500 || status == http.StatusTooManyRequests {
			return &HTTPError{URL: url, Status: http.StatusText(status), StatusCode: status}
		}
		return nil
	})
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, nil
	}
	return status, err
}

func (c Client) probeOnce(ctx context.Context, method, url string) (int, error) {
	resp, err := c.do(ctx, method, url)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	if err := resp.Body.Close(); err != nil {
		return 0, err
	}
	return resp.StatusCode, nil
}
