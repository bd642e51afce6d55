package vault

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytescookies/cookievault/internal/domain/cookie"
	"github.com/bytescookies/cookievault/internal/infrastructure/crypto"
)

// fakeCookieStore is an in-memory stand-in for the browser cookie API.
type fakeCookieStore struct {
	mu      sync.Mutex
	cookies []cookie.Cookie
	set     []cookie.Cookie
}

func (s *fakeCookieStore) GetAll(ctx context.Context, filter CookieFilter) ([]cookie.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]cookie.Cookie, 0, len(s.cookies))
	for _, c := range s.cookies {
		if filter.Domain == "" || c.Domain == filter.Domain {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeCookieStore) Set(ctx context.Context, c cookie.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = append(s.set, c)
	return nil
}

// syncBackend is a minimal in-memory cookie sync server.
func syncBackend(t *testing.T) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	payloads := make(map[string]json.RawMessage)

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/cookies/sync":
			var req struct {
				Domain  string          `json:"domain"`
				Payload json.RawMessage `json:"payload"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			mu.Lock()
			payloads[req.Domain] = req.Payload
			mu.Unlock()
			w.Write([]byte(`{"success":true}`))

		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/cookies/"):
			domain := strings.TrimPrefix(r.URL.Path, "/cookies/")
			mu.Lock()
			payload, ok := payloads[domain]
			mu.Unlock()
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]string{"error": "not found", "code": "NOT_FOUND"})
				return
			}
			w.Write([]byte(`{"payload":` + string(payload) + `}`))

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestCookieManager(t *testing.T, baseURL string, store *fakeCookieStore) *CookieManager {
	t.Helper()
	cipher, err := crypto.NewCookieCipher("unit-test-secret")
	require.NoError(t, err)
	return NewCookieManager(CookieManagerConfig{
		Store:   store,
		Cipher:  cipher,
		Fetch:   NewResilientFetch(FetchConfig{Policy: fastPolicy()}),
		BaseURL: baseURL,
	})
}

func TestCookieManager_ExportImportRoundTrip(t *testing.T) {
	srv := syncBackend(t)
	defer srv.Close()

	source := &fakeCookieStore{cookies: []cookie.Cookie{
		{Name: "sid", Value: "abc123", Domain: "example.com", Path: "/", Secure: true, HTTPOnly: true, SameSite: cookie.SameSiteStrict},
		{Name: "theme", Value: "dark", Domain: "example.com", Path: "/settings", Secure: true, HTTPOnly: true, SameSite: cookie.SameSiteLax},
	}}

	exporter := newTestCookieManager(t, srv.URL, source)
	exported, err := exporter.Export(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, exported.Exported)
	assert.Equal(t, 0, exported.Skipped)

	target := &fakeCookieStore{}
	importer := newTestCookieManager(t, srv.URL, target)
	imported, err := importer.Import(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, imported.Imported)
	assert.Equal(t, 0, imported.Failed)
	assert.Equal(t, source.cookies, target.set)
}

func TestCookieManager_ExportSkipsInvalidCookies(t *testing.T) {
	srv := syncBackend(t)
	defer srv.Close()

	store := &fakeCookieStore{cookies: []cookie.Cookie{
		{Name: "good", Value: "v", Domain: "example.com", Path: "/", Secure: true, HTTPOnly: true, SameSite: cookie.SameSiteStrict},
		{Name: "evil", Value: "<script>alert(1)</script>", Domain: "example.com", Path: "/", Secure: true, HTTPOnly: true, SameSite: cookie.SameSiteStrict},
		{Name: "broken", Value: "v", Domain: "example.com", Path: "no-slash", Secure: true, HTTPOnly: true, SameSite: cookie.SameSiteStrict},
	}}

	cm := newTestCookieManager(t, srv.URL, store)
	result, err := cm.Export(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Exported)
	assert.Equal(t, 2, result.Skipped)
}

func TestCookieManager_ExportFailsWithNoCookies(t *testing.T) {
	srv := syncBackend(t)
	defer srv.Close()

	cm := newTestCookieManager(t, srv.URL, &fakeCookieStore{})
	_, err := cm.Export(context.Background(), "example.com")
	assert.Error(t, err)
}

func TestCookieManager_ImportRejectsTamperedPayload(t *testing.T) {
	var stored json.RawMessage
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var req struct {
				Payload json.RawMessage `json:"payload"`
			}
			json.NewDecoder(r.Body).Decode(&req)

			// Corrupt the ciphertext before storing it.
			var payload crypto.EncryptedPayload
			json.Unmarshal(req.Payload, &payload)
			payload.Ciphertext = "QUFBQQ==" + payload.Ciphertext[8:]
			tampered, _ := json.Marshal(payload)
			mu.Lock()
			stored = tampered
			mu.Unlock()
			w.Write([]byte(`{"success":true}`))
			return
		}
		mu.Lock()
		defer mu.Unlock()
		w.Write([]byte(`{"payload":` + string(stored) + `}`))
	}))
	defer srv.Close()

	store := &fakeCookieStore{cookies: []cookie.Cookie{
		{Name: "sid", Value: "abc", Domain: "example.com", Path: "/", Secure: true, HTTPOnly: true, SameSite: cookie.SameSiteStrict},
	}}
	cm := newTestCookieManager(t, srv.URL, store)

	_, err := cm.Export(context.Background(), "example.com")
	require.NoError(t, err)

	_, err = cm.Import(context.Background(), "example.com")
	require.Error(t, err)
	assert.True(t, crypto.IsSecurityError(err))
}

func TestCookieManager_ImportFetchErrorSurfaces(t *testing.T) {
	srv := syncBackend(t)
	defer srv.Close()

	cm := newTestCookieManager(t, srv.URL, &fakeCookieStore{})
	_, err := cm.Import(context.Background(), "unknown.com")
	assert.Error(t, err)
}
