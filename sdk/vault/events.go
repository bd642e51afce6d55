package vault

import "time"

// EventType identifies an auth lifecycle event.
type EventType string

const (
	EventLoginSuccess       EventType = "LOGIN_SUCCESS"
	EventLoginFailure       EventType = "LOGIN_FAILURE"
	EventLogoutSuccess      EventType = "LOGOUT_SUCCESS"
	EventSessionExpired     EventType = "SESSION_EXPIRED"
	EventTokenRefreshed     EventType = "TOKEN_REFRESHED"
	EventTokenRefreshFailed EventType = "TOKEN_REFRESH_FAILED"
)

// Event is emitted by the SessionManager on auth state transitions.
type Event struct {
	Type    EventType
	Message string
	At      time.Time
}

// EventHandler receives auth events. Handlers run synchronously on the
// goroutine that triggered the transition; keep them fast.
type EventHandler func(Event)
