package vault

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRefresher stands in for a SessionManager on the 401 path.
type fakeRefresher struct {
	token     atomic.Value
	refreshOK bool
	refreshed int64
}

func newFakeRefresher(token string, refreshOK bool) *fakeRefresher {
	f := &fakeRefresher{refreshOK: refreshOK}
	f.token.Store(token)
	return f
}

func (f *fakeRefresher) AuthHeaders(ctx context.Context) (map[string]string, error) {
	return map[string]string{"Authorization": "Bearer " + f.token.Load().(string)}, nil
}

func (f *fakeRefresher) Refresh(ctx context.Context) bool {
	atomic.AddInt64(&f.refreshed, 1)
	if !f.refreshOK {
		return false
	}
	f.token.Store("fresh")
	return true
}

func fastPolicy() BackoffPolicy {
	return BackoffPolicy{Base: time.Millisecond, Cap: 5 * time.Millisecond, Jitter: 0.1, MaxAttempts: 3}
}

func TestResilientFetch_UnauthorizedTriggersRefreshAndRetriesOnce(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "expired", "code": "TOKEN_EXPIRED"})
			return
		}
		io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	session := newFakeRefresher("stale", true)
	f := NewResilientFetch(FetchConfig{Policy: fastPolicy(), Session: session})

	resp, err := f.Do(context.Background(), http.MethodGet, srv.URL+"/x", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(2), atomic.LoadInt64(&hits))
	assert.Equal(t, int64(1), atomic.LoadInt64(&session.refreshed))
}

func TestResilientFetch_UnauthorizedWithFailedRefreshIsTerminal(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	session := newFakeRefresher("stale", false)
	f := NewResilientFetch(FetchConfig{Policy: fastPolicy(), Session: session})

	_, err := f.Do(context.Background(), http.MethodGet, srv.URL+"/x", nil)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))
}

func TestResilientFetch_ClientErrorsAreNotRetried(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "bad domain", "code": "VALIDATION_ERROR"})
	}))
	defer srv.Close()

	f := NewResilientFetch(FetchConfig{Policy: fastPolicy()})

	_, err := f.Do(context.Background(), http.MethodPost, srv.URL+"/x", []byte(`{}`))
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", se.WireCode)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))
}

func TestResilientFetch_ServerErrorsAreRetried(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&hits, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	f := NewResilientFetch(FetchConfig{Policy: fastPolicy()})

	resp, err := f.Do(context.Background(), http.MethodGet, srv.URL+"/x", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(3), atomic.LoadInt64(&hits))
}

func TestResilientFetch_ExhaustedRetriesSurfaceLastError(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewResilientFetch(FetchConfig{Policy: fastPolicy()})

	_, err := f.Do(context.Background(), http.MethodGet, srv.URL+"/x", nil)
	require.Error(t, err)

	var ne *NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, CodeTemporaryFailure, ne.Code)
	assert.Equal(t, int64(3), atomic.LoadInt64(&hits))
}

func TestResilientFetch_OfflineFailsFast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	f := NewResilientFetch(FetchConfig{
		Policy: fastPolicy(),
		Online: func() bool { return false },
	})

	start := time.Now()
	_, err := f.Do(context.Background(), http.MethodGet, srv.URL+"/x", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOffline))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
