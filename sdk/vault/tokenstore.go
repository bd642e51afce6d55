package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

const sessionKey = "cookievault.session"

// KV is the persistence collaborator backing the TokenStore. Swapping a
// durable backend for an ephemeral one changes nothing above it.
type KV interface {
	Get(ctx context.Context, keys []string) (map[string]string, error)
	Set(ctx context.Context, items map[string]string) error
	Remove(ctx context.Context, keys []string) error
}

// UserInfo mirrors the user shape returned by the auth endpoints.
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SessionState is the persisted token pair plus identity. ExpiresAt is
// epoch milliseconds, matching the wire format.
type SessionState struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresAt    int64    `json:"expiresAt"`
	User         UserInfo `json:"user"`
	DeviceID     string   `json:"deviceId,omitempty"`
}

// TokenStore persists the current session state through a KV backend.
type TokenStore struct {
	kv KV
}

func NewTokenStore(kv KV) *TokenStore {
	return &TokenStore{kv: kv}
}

// Load returns the persisted session, or nil when none is stored.
func (s *TokenStore) Load(ctx context.Context) (*SessionState, error) {
	items, err := s.kv.Get(ctx, []string{sessionKey})
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	raw, ok := items[sessionKey]
	if !ok || raw == "" {
		return nil, nil
	}

	var state SessionState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &state, nil
}

func (s *TokenStore) Save(ctx context.Context, state *SessionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.kv.Set(ctx, map[string]string{sessionKey: string(raw)}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, []string{sessionKey}); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// MemoryKV is an in-process KV, used in tests and short-lived tools.
type MemoryKV struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{items: make(map[string]string)}
}

func (m *MemoryKV) Get(ctx context.Context, keys []string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.items[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *MemoryKV) Set(ctx context.Context, items map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range items {
		m.items[k] = v
	}
	return nil
}

func (m *MemoryKV) Remove(ctx context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

// FileKV persists entries as a single JSON file, giving CLI sessions
// durability across process restarts.
type FileKV struct {
	mu   sync.Mutex
	path string
}

func NewFileKV(path string) *FileKV {
	return &FileKV{path: path}
}

func (f *FileKV) Get(ctx context.Context, keys []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.read()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := all[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (f *FileKV) Set(ctx context.Context, items map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.read()
	if err != nil {
		return err
	}
	for k, v := range items {
		all[k] = v
	}
	return f.write(all)
}

func (f *FileKV) Remove(ctx context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.read()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(all, k)
	}
	return f.write(all)
}

func (f *FileKV) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("read store: %w", err)
	}
	all := make(map[string]string)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &all); err != nil {
			return nil, fmt.Errorf("decode store: %w", err)
		}
	}
	return all, nil
}

func (f *FileKV) write(all map[string]string) error {
	data, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return nil
}
