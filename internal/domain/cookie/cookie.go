// Package cookie holds the cookie entity and its validation rules.
package cookie

// SameSite mirrors the browser cookie attribute values.
type SameSite string

const (
	SameSiteStrict SameSite = "strict"
	SameSiteLax    SameSite = "lax"
	SameSiteNone   SameSite = "none"
)

// Cookie is a browser cookie as exported or imported by clients. JSON
// tags follow the browser cookie API field names.
type Cookie struct {
	Name           string   `json:"name"`
	Value          string   `json:"value"`
	Domain         string   `json:"domain"`
	Path           string   `json:"path"`
	Secure         bool     `json:"secure"`
	HTTPOnly       bool     `json:"httpOnly"`
	SameSite       SameSite `json:"sameSite,omitempty"`
	ExpirationDate float64  `json:"expirationDate,omitempty"`
	Session        bool     `json:"session,omitempty"`
}
