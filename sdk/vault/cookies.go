package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bytescookies/cookievault/internal/domain/cookie"
	"github.com/bytescookies/cookievault/internal/infrastructure/crypto"
	"github.com/bytescookies/cookievault/internal/shared/logger"
)

// CookieStore is the browser-provided cookie API. It is trusted local
// capability; failures are reported, not retried.
type CookieStore interface {
	GetAll(ctx context.Context, filter CookieFilter) ([]cookie.Cookie, error)
	Set(ctx context.Context, c cookie.Cookie) error
}

// CookieFilter narrows a GetAll call.
type CookieFilter struct {
	Domain string
}

// ExportResult summarizes one export run.
type ExportResult struct {
	Exported int
	Skipped  int
	Warnings int
}

// ImportResult summarizes one import run.
type ImportResult struct {
	Imported int
	Skipped  int
	Failed   int
}

// CookieManager runs the export/import pipeline: collect, validate,
// encrypt, sync; and the reverse. Every cookie passes validation both
// directions, so a tampered or stale vault cannot inject bad cookies.
type CookieManager struct {
	store     CookieStore
	validator *cookie.Validator
	cipher    *crypto.CookieCipher
	fetch     *ResilientFetch
	errors    *ErrorManager
	baseURL   string
	log       logger.Interface
}

// CookieManagerConfig configures a CookieManager.
type CookieManagerConfig struct {
	Store        CookieStore
	Cipher       *crypto.CookieCipher
	Fetch        *ResilientFetch
	ErrorManager *ErrorManager
	BaseURL      string
	Logger       logger.Interface
}

func NewCookieManager(cfg CookieManagerConfig) *CookieManager {
	log := cfg.Logger
	if log == nil {
		log = logger.NewLogger()
	}
	em := cfg.ErrorManager
	if em == nil {
		em = NewErrorManager(log)
	}
	return &CookieManager{
		store:     cfg.Store,
		validator: cookie.NewValidator(),
		cipher:    cfg.Cipher,
		fetch:     cfg.Fetch,
		errors:    em,
		baseURL:   cfg.BaseURL,
		log:       log,
	}
}

// Export collects the domain's cookies, validates each one, encrypts
// the valid set and syncs it to the backend. Invalid cookies are
// skipped and counted, never silently dropped from the log.
func (cm *CookieManager) Export(ctx context.Context, domain string) (*ExportResult, error) {
	cookies, err := cm.store.GetAll(ctx, CookieFilter{Domain: domain})
	if err != nil {
		cm.errors.Handle(ctx, err, "cookie-export")
		return nil, fmt.Errorf("read cookie store: %w", err)
	}
	if len(cookies) == 0 {
		return nil, fmt.Errorf("no cookies found for domain %q", domain)
	}

	result := &ExportResult{}
	valid := make([]cookie.Cookie, 0, len(cookies))
	for i := range cookies {
		vr, err := cm.validator.Validate(&cookies[i])
		if err != nil {
			cm.errors.Handle(ctx, err, "cookie-validate")
			result.Skipped++
			continue
		}
		result.Warnings += len(vr.Warnings)
		if !vr.IsValid {
			cm.log.Warnw("skipping invalid cookie",
				"name", cookies[i].Name,
				"issues", len(vr.Errors))
			result.Skipped++
			continue
		}
		valid = append(valid, cookies[i])
	}

	if len(valid) == 0 {
		return nil, fmt.Errorf("no valid cookies to export for domain %q", domain)
	}

	payload, err := cm.cipher.Encrypt(valid)
	if err != nil {
		cm.errors.Handle(ctx, err, "cookie-encrypt")
		return nil, fmt.Errorf("encrypt cookies: %w", err)
	}

	body, err := json.Marshal(map[string]any{
		"domain":  domain,
		"payload": payload,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal sync request: %w", err)
	}

	resp, err := cm.fetch.Do(ctx, http.MethodPost, cm.baseURL+"/cookies/sync", body)
	if err != nil {
		cm.errors.Handle(ctx, err, "cookie-sync")
		return nil, fmt.Errorf("sync cookies: %w", err)
	}
	drain(resp)

	result.Exported = len(valid)
	cm.log.Infow("cookies exported",
		"domain", domain,
		"exported", result.Exported,
		"skipped", result.Skipped)
	return result, nil
}

// Import fetches the domain's encrypted payload, decrypts it and writes
// the cookies back into the browser store. Each cookie is re-validated
// before it is set.
func (cm *CookieManager) Import(ctx context.Context, domain string) (*ImportResult, error) {
	u := cm.baseURL + "/cookies/" + url.PathEscape(domain)
	resp, err := cm.fetch.Do(ctx, http.MethodGet, u, nil)
	if err != nil {
		cm.errors.Handle(ctx, err, "cookie-fetch")
		return nil, fmt.Errorf("fetch cookies: %w", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Payload crypto.EncryptedPayload `json:"payload"`
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var cookies []cookie.Cookie
	if err := cm.cipher.Decrypt(&envelope.Payload, &cookies); err != nil {
		cm.errors.Handle(ctx, err, "cookie-decrypt")
		return nil, fmt.Errorf("decrypt cookies: %w", err)
	}

	result := &ImportResult{}
	for i := range cookies {
		vr, err := cm.validator.Validate(&cookies[i])
		if err != nil || !vr.IsValid {
			result.Skipped++
			continue
		}
		if err := cm.store.Set(ctx, cookies[i]); err != nil {
			cm.log.Warnw("failed to set cookie",
				"name", cookies[i].Name,
				"error", err)
			result.Failed++
			continue
		}
		result.Imported++
	}

	cm.log.Infow("cookies imported",
		"domain", domain,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"failed", result.Failed)
	return result, nil
}
