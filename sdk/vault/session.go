// Package vault provides a Go SDK for CookieVault backends: session and
// token lifecycle management, resilient HTTP fetching and the encrypted
// cookie export/import pipeline.
package vault

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bytescookies/cookievault/internal/shared/logger"
)

// RefreshThreshold is how close to expiry a token may get before it is
// refreshed, both proactively and on AuthHeaders.
const RefreshThreshold = 5 * time.Minute

// ErrNotAuthenticated is returned when no session is held.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrSessionExpired is returned when the session could not be kept
// alive and has been cleared.
var ErrSessionExpired = errors.New("session expired")

// DeviceFingerprint identifies the physical browser. The same values
// always map to the same device server-side.
type DeviceFingerprint struct {
	UserAgent string `json:"userAgent"`
	Platform  string `json:"platform"`
	Language  string `json:"language"`
}

// ID returns the stable fingerprint hash.
func (f DeviceFingerprint) ID() string {
	sum := sha256.Sum256([]byte(f.UserAgent + "|" + f.Platform + "|" + f.Language))
	return hex.EncodeToString(sum[:])
}

// SessionConfig configures a SessionManager.
type SessionConfig struct {
	BaseURL     string
	HTTPClient  *http.Client
	Store       *TokenStore
	Fingerprint DeviceFingerprint
	Backoff     BackoffPolicy
	Logger      logger.Interface
}

// SessionManager owns the token lifecycle: login, logout, rotation and
// proactive refresh scheduling. All state transitions go through it.
type SessionManager struct {
	baseURL     string
	client      *http.Client
	store       *TokenStore
	fingerprint DeviceFingerprint
	backoff     BackoffPolicy
	log         logger.Interface

	mu       sync.Mutex
	state    *SessionState
	epoch    uint64
	inflight *refreshCall
	timer    *time.Timer
	handlers []EventHandler

	now   func() time.Time
	sleep func(time.Duration)
}

// refreshCall is the shared in-flight refresh; concurrent callers wait
// on done instead of issuing duplicate network calls.
type refreshCall struct {
	done chan struct{}
	ok   bool
}

func NewSessionManager(cfg SessionConfig) *SessionManager {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	policy := cfg.Backoff
	if policy.MaxAttempts == 0 {
		policy = DefaultBackoff()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewLogger()
	}
	return &SessionManager{
		baseURL:     cfg.BaseURL,
		client:      client,
		store:       cfg.Store,
		fingerprint: cfg.Fingerprint,
		backoff:     policy,
		log:         log,
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// OnEvent registers a handler for auth lifecycle events.
func (m *SessionManager) OnEvent(h EventHandler) {
	m.mu.Lock()
	m.handlers = append(m.handlers, h)
	m.mu.Unlock()
}

// Restore loads a persisted session and resumes refresh scheduling.
// An expired persisted session is discarded silently.
func (m *SessionManager) Restore(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	state, err := m.store.Load(ctx)
	if err != nil {
		return err
	}
	if state == nil {
		return nil
	}
	if m.untilExpiry(state) <= 0 {
		return m.store.Clear(ctx)
	}

	m.mu.Lock()
	m.state = state
	m.scheduleRefreshLocked()
	m.mu.Unlock()
	return nil
}

type credentialsRequest struct {
	Email    string             `json:"email"`
	Name     string             `json:"name,omitempty"`
	Password string             `json:"password"`
	Device   *DeviceFingerprint `json:"device,omitempty"`
}

type tokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    int64     `json:"expiresAt"`
	User         *UserInfo `json:"user,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Login authenticates with the backend. Expected auth failures return
// false and emit LOGIN_FAILURE; they do not surface as errors.
func (m *SessionManager) Login(ctx context.Context, email, password string) (bool, error) {
	return m.authenticate(ctx, "/auth/login", credentialsRequest{
		Email:    email,
		Password: password,
		Device:   &m.fingerprint,
	})
}

// Register creates an account and logs straight in.
func (m *SessionManager) Register(ctx context.Context, email, name, password string) (bool, error) {
	return m.authenticate(ctx, "/auth/register", credentialsRequest{
		Email:    email,
		Name:     name,
		Password: password,
		Device:   &m.fingerprint,
	})
}

func (m *SessionManager) authenticate(ctx context.Context, path string, req credentialsRequest) (bool, error) {
	var resp tokenResponse
	status, apiErr, err := m.post(ctx, path, req, nil, &resp)
	if err != nil {
		return false, err
	}
	if status >= 400 {
		msg := "authentication failed"
		if apiErr != nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		m.emit(EventLoginFailure, msg)
		return false, nil
	}

	state := &SessionState{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt,
		DeviceID:     m.fingerprint.ID(),
	}
	if resp.User != nil {
		state.User = *resp.User
	}

	m.mu.Lock()
	m.state = state
	m.scheduleRefreshLocked()
	m.mu.Unlock()

	if err := m.persist(ctx, state); err != nil {
		m.log.Warnw("failed to persist session", "error", err)
	}

	m.emit(EventLoginSuccess, "")
	return true, nil
}

// Logout invalidates the server session best-effort, then always
// clears local state and cancels any pending refresh. Idempotent; a
// refresh completing after logout cannot resurrect the session.
func (m *SessionManager) Logout(ctx context.Context) {
	m.mu.Lock()
	state := m.state
	m.epoch++
	m.state = nil
	m.cancelTimerLocked()
	m.mu.Unlock()

	if state != nil {
		headers := map[string]string{"Authorization": "Bearer " + state.AccessToken}
		if _, _, err := m.post(ctx, "/auth/logout", struct{}{}, headers, nil); err != nil {
			m.log.Warnw("server-side logout failed", "error", err)
		}
	}

	if m.store != nil {
		if err := m.store.Clear(ctx); err != nil {
			m.log.Warnw("failed to clear persisted session", "error", err)
		}
	}

	m.emit(EventLogoutSuccess, "")
}

// Refresh rotates the token pair. At most one refresh is in flight at a
// time; concurrent callers share the same attempt and its result.
func (m *SessionManager) Refresh(ctx context.Context) bool {
	return m.refreshShared(ctx, false)
}

// refreshShared is the single-flight core. With onlyIfStale set, a
// caller that finds the token already fresh (because another caller's
// refresh just landed) returns without a network call.
func (m *SessionManager) refreshShared(ctx context.Context, onlyIfStale bool) bool {
	m.mu.Lock()
	state := m.state
	if state == nil {
		m.mu.Unlock()
		return false
	}
	if onlyIfStale && m.untilExpiry(state) >= RefreshThreshold {
		m.mu.Unlock()
		return true
	}
	if c := m.inflight; c != nil {
		m.mu.Unlock()
		<-c.done
		return c.ok
	}
	c := &refreshCall{done: make(chan struct{})}
	m.inflight = c
	epoch := m.epoch
	m.mu.Unlock()

	ok := m.doRefresh(ctx, state, epoch)

	m.mu.Lock()
	c.ok = ok
	m.inflight = nil
	m.mu.Unlock()
	close(c.done)

	return ok
}

func (m *SessionManager) doRefresh(ctx context.Context, state *SessionState, epoch uint64) bool {
	if state == nil {
		return false
	}

	req := struct {
		RefreshToken string `json:"refreshToken"`
	}{RefreshToken: state.RefreshToken}

	var resp tokenResponse
	var lastErr error
	for attempt := 0; attempt < m.backoff.MaxAttempts; attempt++ {
		status, apiErr, err := m.post(ctx, "/auth/refresh", req, nil, &resp)
		if err == nil && status < 400 {
			return m.applyRefresh(ctx, state, &resp, epoch)
		}
		if err == nil && status >= 400 && status < 500 {
			// The refresh token itself was rejected; retrying cannot help.
			msg := "refresh rejected"
			if apiErr != nil && apiErr.Error != "" {
				msg = apiErr.Error
			}
			m.refreshFailed(ctx, epoch, msg)
			return false
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("refresh failed with status %d", status)
		}
		if attempt < m.backoff.MaxAttempts-1 {
			m.sleep(m.backoff.Delay(attempt))
		}
	}

	m.log.Warnw("token refresh exhausted retries", "error", lastErr)
	m.refreshFailed(ctx, epoch, "refresh retries exhausted")
	return false
}

func (m *SessionManager) applyRefresh(ctx context.Context, old *SessionState, resp *tokenResponse, epoch uint64) bool {
	next := &SessionState{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt,
		User:         old.User,
		DeviceID:     old.DeviceID,
	}

	m.mu.Lock()
	if m.epoch != epoch {
		// Logged out while the refresh was in flight.
		m.mu.Unlock()
		return false
	}
	m.state = next
	m.scheduleRefreshLocked()
	m.mu.Unlock()

	if err := m.persist(ctx, next); err != nil {
		m.log.Warnw("failed to persist refreshed session", "error", err)
	}

	m.emit(EventTokenRefreshed, "")
	return true
}

// refreshFailed tears the session down; a failed refresh must never
// leave a half-authenticated state.
func (m *SessionManager) refreshFailed(ctx context.Context, epoch uint64, msg string) {
	m.emit(EventTokenRefreshFailed, msg)

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	m.epoch++
	m.state = nil
	m.cancelTimerLocked()
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.Clear(ctx); err != nil {
			m.log.Warnw("failed to clear persisted session", "error", err)
		}
	}

	m.emit(EventSessionExpired, msg)
}

// AuthHeaders returns the headers for an authenticated request,
// refreshing first when the token is inside the refresh threshold.
func (m *SessionManager) AuthHeaders(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	state := m.state
	m.mu.Unlock()
	if state == nil {
		return nil, ErrNotAuthenticated
	}

	if m.untilExpiry(state) < RefreshThreshold {
		if !m.refreshShared(ctx, true) {
			return nil, ErrSessionExpired
		}
		m.mu.Lock()
		state = m.state
		m.mu.Unlock()
		if state == nil {
			return nil, ErrSessionExpired
		}
	}

	info, _ := json.Marshal(m.fingerprint)
	return map[string]string{
		"Authorization": "Bearer " + state.AccessToken,
		"x-device-id":   m.fingerprint.ID(),
		"x-device-info": string(info),
	}, nil
}

// IsAuthenticated reports whether a live, unexpired session is held.
func (m *SessionManager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state != nil && m.untilExpiry(m.state) > 0
}

// CurrentUser returns the logged-in user, or nil.
func (m *SessionManager) CurrentUser() *UserInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil
	}
	u := m.state.User
	return &u
}

func (m *SessionManager) untilExpiry(state *SessionState) time.Duration {
	return time.UnixMilli(state.ExpiresAt).Sub(m.now())
}

// scheduleRefreshLocked arms the proactive refresh timer, cancelling
// any previous one. Exactly one timer is live per manager.
func (m *SessionManager) scheduleRefreshLocked() {
	m.cancelTimerLocked()
	if m.state == nil {
		return
	}
	delay := m.untilExpiry(m.state) - RefreshThreshold
	if delay < 0 {
		delay = 0
	}
	m.timer = time.AfterFunc(delay, func() {
		m.Refresh(context.Background())
	})
}

func (m *SessionManager) cancelTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *SessionManager) persist(ctx context.Context, state *SessionState) error {
	if m.store == nil {
		return nil
	}
	return m.store.Save(ctx, state)
}

func (m *SessionManager) emit(t EventType, msg string) {
	m.mu.Lock()
	handlers := make([]EventHandler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	ev := Event{Type: t, Message: msg, At: m.now()}
	for _, h := range handlers {
		h(ev)
	}
}

// post sends a JSON request to the auth API. A non-2xx status is not an
// error; the decoded error body is returned alongside the status.
func (m *SessionManager) post(ctx context.Context, path string, body any, headers map[string]string, out any) (int, *errorResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-device-id", m.fingerprint.ID())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, nil, &NetworkError{Code: CodeNetworkError, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &NetworkError{Code: CodeNetworkError, Err: err}
	}

	if resp.StatusCode >= 400 {
		var apiErr errorResponse
		if json.Unmarshal(respBody, &apiErr) != nil {
			apiErr = errorResponse{Error: string(respBody)}
		}
		return resp.StatusCode, &apiErr, nil
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil, nil
}
