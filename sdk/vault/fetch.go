package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytescookies/cookievault/internal/shared/logger"
)

// Retryable error codes shared with the ErrorManager.
const (
	CodeNetworkError     = "NETWORK_ERROR"
	CodeTimeoutError     = "TIMEOUT_ERROR"
	CodeTemporaryFailure = "TEMPORARY_FAILURE"
	CodeOffline          = "NETWORK_OFFLINE"
)

// ErrOffline is returned when connectivity is down; offline failures
// are never retried.
var ErrOffline = errors.New("network offline")

// NetworkError wraps a transport-level failure with a machine code.
type NetworkError struct {
	Code string
	Err  error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) ErrorCode() string { return e.Code }

// StatusError is a terminal HTTP failure carrying the server's wire code.
type StatusError struct {
	StatusCode int
	WireCode   string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("http %d", e.StatusCode)
}

func (e *StatusError) ErrorCode() string { return e.WireCode }

// TokenRefresher is the slice of SessionManager that ResilientFetch
// needs for the 401 path.
type TokenRefresher interface {
	AuthHeaders(ctx context.Context) (map[string]string, error)
	Refresh(ctx context.Context) bool
}

// ResilientFetch wraps outbound requests with bounded retry, backoff
// with jitter, offline fail-fast and 401-triggered refresh-and-retry.
type ResilientFetch struct {
	client  *http.Client
	policy  BackoffPolicy
	session TokenRefresher
	online  func() bool
	log     logger.Interface
}

// FetchConfig configures a ResilientFetch. Session and Online are
// optional; without a session the 401 path is terminal, and without an
// online check connectivity is assumed.
type FetchConfig struct {
	HTTPClient *http.Client
	Policy     BackoffPolicy
	Session    TokenRefresher
	Online     func() bool
	Logger     logger.Interface
}

func NewResilientFetch(cfg FetchConfig) *ResilientFetch {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	policy := cfg.Policy
	if policy.MaxAttempts == 0 {
		policy = DefaultBackoff()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewLogger()
	}
	return &ResilientFetch{
		client:  client,
		policy:  policy,
		session: cfg.Session,
		online:  cfg.Online,
		log:     log,
	}
}

// Do executes the request, retrying 5xx and network failures up to the
// policy's attempt ceiling. 401 triggers one refresh-and-retry that does
// not consume a retry slot; other 4xx are terminal. The caller owns the
// returned body.
func (f *ResilientFetch) Do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var lastErr error
	refreshed := false

	for attempt := 0; attempt < f.policy.MaxAttempts; attempt++ {
		resp, err := f.attempt(ctx, method, url, body)

		if err == nil {
			switch {
			case resp.StatusCode < 400:
				return resp, nil

			case resp.StatusCode == http.StatusUnauthorized && f.session != nil && !refreshed:
				drain(resp)
				if !f.session.Refresh(ctx) {
					return nil, &StatusError{
						StatusCode: http.StatusUnauthorized,
						WireCode:   "SESSION_EXPIRED",
						Message:    "session refresh failed",
					}
				}
				refreshed = true
				// The retried request's result is returned directly.
				retried, retryErr := f.attempt(ctx, method, url, body)
				if retryErr != nil {
					return nil, retryErr
				}
				if retried.StatusCode >= 400 {
					defer drain(retried)
					return nil, statusError(retried)
				}
				return retried, nil

			case resp.StatusCode >= 400 && resp.StatusCode < 500:
				defer drain(resp)
				return nil, statusError(resp)

			default:
				drain(resp)
				lastErr = &NetworkError{
					Code: CodeTemporaryFailure,
					Err:  fmt.Errorf("server returned %d", resp.StatusCode),
				}
			}
		} else {
			if ctx.Err() != nil {
				return nil, &NetworkError{Code: CodeTimeoutError, Err: ctx.Err()}
			}
			lastErr = &NetworkError{Code: CodeNetworkError, Err: err}
		}

		if f.online != nil && !f.online() {
			return nil, fmt.Errorf("%w: %v", ErrOffline, lastErr)
		}

		if attempt < f.policy.MaxAttempts-1 {
			f.log.Debugw("retrying request",
				"url", url,
				"attempt", attempt+1,
				"error", lastErr)
			select {
			case <-ctx.Done():
				return nil, &NetworkError{Code: CodeTimeoutError, Err: ctx.Err()}
			case <-time.After(f.policy.Delay(attempt)):
			}
		}
	}

	return nil, lastErr
}

func (f *ResilientFetch) attempt(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	if f.session != nil {
		headers, err := f.session.AuthHeaders(ctx)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
	}

	return f.client.Do(req)
}

func statusError(resp *http.Response) *StatusError {
	se := &StatusError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var apiErr struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(body, &apiErr) == nil {
			se.WireCode = apiErr.Code
			se.Message = apiErr.Error
		}
	}
	return se
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
