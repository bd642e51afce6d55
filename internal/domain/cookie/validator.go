package cookie

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/bytescookies/cookievault/internal/shared/biztime"
)

// Validation issue codes. Errors fail the cookie; warnings do not.
const (
	CodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	CodeInvalidDomainFormat  = "INVALID_DOMAIN_FORMAT"
	CodeInvalidPathFormat    = "INVALID_PATH_FORMAT"
	CodeValueTooLong         = "VALUE_TOO_LONG"
	CodeSuspiciousContent    = "SUSPICIOUS_CONTENT"
	CodeCookieTooLarge       = "COOKIE_TOO_LARGE"
	CodeMissingSecureFlag    = "MISSING_SECURE_FLAG"
	CodeMissingHTTPOnlyFlag  = "MISSING_HTTPONLY_FLAG"
	CodeWeakSameSite         = "WEAK_SAME_SITE"
)

const (
	maxCookieSize = 4096
	maxValueLen   = 4096
)

var (
	domainRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{1,61}[a-zA-Z0-9]\.[a-zA-Z]{2,}$`)

	suspiciousPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<script`),
		regexp.MustCompile(`(?i)javascript:`),
		regexp.MustCompile(`(?i)data:`),
		regexp.MustCompile(`(?i)vbscript:`),
		regexp.MustCompile(`(?i)onclick`),
		regexp.MustCompile(`(?i)onerror`),
		regexp.MustCompile(`(?i)onload`),
		regexp.MustCompile(`(?i)%3Cscript`),
	}
)

// ValidationError signals that validation itself broke, not that the
// cookie failed a rule. Rule failures land in Result.Errors.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("validation error: %s", e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Issue is a single finding against one cookie field.
type Issue struct {
	Field    string `json:"field"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Metadata summarizes the validated cookie.
type Metadata struct {
	Created       int64 `json:"created"`
	Size          int   `json:"size"`
	HasSecureFlag bool  `json:"hasSecureFlag"`
}

// Result is the outcome of validating one cookie. IsValid is true when
// no error-severity issues were found; warnings never block.
type Result struct {
	IsValid  bool     `json:"isValid"`
	Errors   []Issue  `json:"errors"`
	Warnings []Issue  `json:"warnings"`
	Metadata Metadata `json:"metadata"`
}

// Validator applies the cookie rule set.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate runs every rule against c. All rules run even after the first
// failure so the result lists everything wrong at once.
func (v *Validator) Validate(c *Cookie) (*Result, error) {
	if c == nil {
		return nil, &ValidationError{Reason: "nil cookie"}
	}

	var errs, warnings []Issue

	v.checkRequiredFields(c, &errs)
	v.checkDomain(c.Domain, &errs)
	v.checkValue(c.Value, &warnings)
	v.checkSuspiciousContent(c.Value, &errs)
	v.checkSize(c, &warnings)
	v.checkPath(c.Path, &errs)
	v.checkSecurityFlags(c, &warnings)

	size, err := cookieSize(c)
	if err != nil {
		return nil, &ValidationError{Reason: "validation failed", Err: err}
	}

	return &Result{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
		Metadata: Metadata{
			Created:       biztime.UnixMilli(biztime.NowUTC()),
			Size:          size,
			HasSecureFlag: c.Secure,
		},
	}, nil
}

func (v *Validator) checkRequiredFields(c *Cookie, errs *[]Issue) {
	required := []struct {
		field string
		value string
	}{
		{"domain", c.Domain},
		{"name", c.Name},
		{"value", c.Value},
		{"path", c.Path},
	}
	for _, f := range required {
		if f.value == "" {
			*errs = append(*errs, Issue{
				Field:    f.field,
				Code:     CodeMissingRequiredField,
				Message:  fmt.Sprintf("Missing required field: %s", f.field),
				Severity: "error",
			})
		}
	}
}

func (v *Validator) checkDomain(domain string, errs *[]Issue) {
	if !domainRegex.MatchString(domain) {
		*errs = append(*errs, Issue{
			Field:    "domain",
			Code:     CodeInvalidDomainFormat,
			Message:  "Invalid domain format",
			Severity: "error",
		})
	}
}

func (v *Validator) checkValue(value string, warnings *[]Issue) {
	if len(value) > maxValueLen {
		*warnings = append(*warnings, Issue{
			Field:    "value",
			Code:     CodeValueTooLong,
			Message:  "Cookie value exceeds recommended length",
			Severity: "warning",
		})
	}
}

func (v *Validator) checkSuspiciousContent(value string, errs *[]Issue) {
	for _, pattern := range suspiciousPatterns {
		if pattern.MatchString(value) {
			*errs = append(*errs, Issue{
				Field:    "value",
				Code:     CodeSuspiciousContent,
				Message:  "Cookie value contains suspicious content",
				Severity: "error",
			})
			return
		}
	}
}

func (v *Validator) checkSize(c *Cookie, warnings *[]Issue) {
	size, err := cookieSize(c)
	if err != nil {
		return
	}
	if size > maxCookieSize {
		*warnings = append(*warnings, Issue{
			Field:    "size",
			Code:     CodeCookieTooLarge,
			Message:  fmt.Sprintf("Cookie size (%d bytes) exceeds recommended limit", size),
			Severity: "warning",
		})
	}
}

func (v *Validator) checkPath(path string, errs *[]Issue) {
	if !strings.HasPrefix(path, "/") {
		*errs = append(*errs, Issue{
			Field:    "path",
			Code:     CodeInvalidPathFormat,
			Message:  "Path must start with /",
			Severity: "error",
		})
	}
}

func (v *Validator) checkSecurityFlags(c *Cookie, warnings *[]Issue) {
	if strings.Contains(c.Domain, "https://") && !c.Secure {
		*warnings = append(*warnings, Issue{
			Field:    "secure",
			Code:     CodeMissingSecureFlag,
			Message:  "Secure flag recommended for HTTPS domains",
			Severity: "warning",
		})
	}
	if !c.HTTPOnly {
		*warnings = append(*warnings, Issue{
			Field:    "httpOnly",
			Code:     CodeMissingHTTPOnlyFlag,
			Message:  "HttpOnly flag recommended for security",
			Severity: "warning",
		})
	}
	if c.SameSite == "" || c.SameSite == SameSiteNone {
		*warnings = append(*warnings, Issue{
			Field:    "sameSite",
			Code:     CodeWeakSameSite,
			Message:  "Consider using strict SameSite policy",
			Severity: "warning",
		})
	}
}

func cookieSize(c *Cookie) (int, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return 0, err
	}
	return len(raw), nil
}
