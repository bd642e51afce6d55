package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bytescookies/cookievault/internal/domain/cookie"
	"github.com/bytescookies/cookievault/internal/infrastructure/crypto"
	"github.com/bytescookies/cookievault/internal/shared/logger"
)

// Severity classifies how serious a failure is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// retryCooldown bounds how long per-error retry counters are kept.
const retryCooldown = 30 * time.Second

// EnhancedError is the classified form of a raw failure. Created per
// failure, consumed once, never persisted.
type EnhancedError struct {
	Err         error
	Timestamp   time.Time
	Context     string
	Severity    Severity
	Code        string
	Recoverable bool
}

func (e *EnhancedError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Severity, e.Context, e.Err)
}

func (e *EnhancedError) Unwrap() error { return e.Err }

// HandleResult reports what the ErrorManager did with a failure.
type HandleResult struct {
	Handled    bool
	Recovered  bool
	Message    string
	Action     string
	RetryDelay time.Duration
}

// RecoveryFunc attempts to recover from a classified error.
type RecoveryFunc func(ctx context.Context, e *EnhancedError) error

// ErrorManager classifies failures, decides retry eligibility and runs
// registered recovery strategies.
type ErrorManager struct {
	mu         sync.Mutex
	strategies map[string]RecoveryFunc
	attempts   map[string]int
	backoff    BackoffPolicy
	log        logger.Interface
}

func NewErrorManager(log logger.Interface) *ErrorManager {
	if log == nil {
		log = logger.NewLogger()
	}
	return &ErrorManager{
		strategies: make(map[string]RecoveryFunc),
		attempts:   make(map[string]int),
		backoff:    DefaultBackoff(),
		log:        log,
	}
}

// RegisterStrategy installs a recovery strategy for an error code.
func (em *ErrorManager) RegisterStrategy(code string, fn RecoveryFunc) {
	em.mu.Lock()
	em.strategies[code] = fn
	em.mu.Unlock()
}

// Handle classifies the error, logs it and either schedules a retry or
// runs the recovery strategy for its code. A strategy that is missing
// or fails yields a non-recovered result, never a crash.
func (em *ErrorManager) Handle(ctx context.Context, err error, errContext string) HandleResult {
	e := em.classify(err, errContext)

	em.log.Warnw("handling error",
		"code", e.Code,
		"severity", string(e.Severity),
		"context", e.Context,
		"recoverable", e.Recoverable,
		"error", err)

	if !e.Recoverable {
		return HandleResult{
			Handled: true,
			Message: e.Err.Error(),
			Action:  "surface",
		}
	}

	if isRetryableCode(e.Code) {
		key := e.Code + "|" + e.Context
		em.mu.Lock()
		em.attempts[key]++
		attempt := em.attempts[key]
		em.mu.Unlock()

		// Counters decay after the cooldown so memory stays bounded.
		time.AfterFunc(retryCooldown, func() {
			em.mu.Lock()
			delete(em.attempts, key)
			em.mu.Unlock()
		})

		if attempt <= em.backoff.MaxAttempts {
			return HandleResult{
				Handled:    true,
				Message:    e.Err.Error(),
				Action:     "retry",
				RetryDelay: em.backoff.Delay(attempt - 1),
			}
		}
	}

	em.mu.Lock()
	strategy := em.strategies[e.Code]
	em.mu.Unlock()

	if strategy == nil {
		return HandleResult{
			Handled: true,
			Message: e.Err.Error(),
			Action:  "none",
		}
	}

	recovered := em.runStrategy(ctx, strategy, e)
	return HandleResult{
		Handled:   true,
		Recovered: recovered,
		Message:   e.Err.Error(),
		Action:    "recover",
	}
}

func (em *ErrorManager) runStrategy(ctx context.Context, fn RecoveryFunc, e *EnhancedError) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			em.log.Errorw("recovery strategy panicked", "code", e.Code, "panic", r)
			ok = false
		}
	}()
	if err := fn(ctx, e); err != nil {
		em.log.Warnw("recovery strategy failed", "code", e.Code, "error", err)
		return false
	}
	return true
}

func (em *ErrorManager) classify(err error, errContext string) *EnhancedError {
	e := &EnhancedError{
		Err:         err,
		Timestamp:   time.Now(),
		Context:     errContext,
		Severity:    SeverityInfo,
		Code:        "UNKNOWN_ERROR",
		Recoverable: true,
	}

	switch {
	case crypto.IsSecurityError(err):
		e.Severity = SeverityCritical
		e.Code = "SECURITY_ERROR"
		e.Recoverable = false
	case isValidationError(err):
		e.Severity = SeverityWarning
		e.Code = "VALIDATION_ERROR"
	default:
		if coded, ok := err.(interface{ ErrorCode() string }); ok {
			e.Code = coded.ErrorCode()
		}
	}
	return e
}

func isValidationError(err error) bool {
	var ve *cookie.ValidationError
	return errors.As(err, &ve)
}

func isRetryableCode(code string) bool {
	switch code {
	case CodeNetworkError, CodeTimeoutError, CodeTemporaryFailure:
		return true
	}
	return false
}
