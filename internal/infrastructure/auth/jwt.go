package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bytescookies/cookievault/internal/shared/biztime"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims binds a token to a user, a session row and the device the
// session was opened from. TokenID changes on every rotation.
type Claims struct {
	UserUUID  string    `json:"user_uuid"`
	SessionID string    `json:"session_id"`
	TokenID   string    `json:"token_id"`
	DeviceID  string    `json:"device_id"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair carries a freshly issued access/refresh pair. ExpiresAt is
// the access token expiry as epoch milliseconds, the shape clients store.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
}

type JWTService struct {
	secret           []byte
	accessExpMinutes int
	refreshExpDays   int
}

func NewJWTService(secret string, accessExpMinutes, refreshExpDays int) *JWTService {
	return &JWTService{
		secret:           []byte(secret),
		accessExpMinutes: accessExpMinutes,
		refreshExpDays:   refreshExpDays,
	}
}

// Generate issues an access/refresh pair sharing the same session, token
// and device identity.
func (s *JWTService) Generate(userUUID, sessionID, tokenID, deviceID string) (*TokenPair, error) {
	now := biztime.NowUTC()
	accessExp := now.Add(time.Duration(s.accessExpMinutes) * time.Minute)
	refreshExp := now.Add(time.Duration(s.refreshExpDays) * 24 * time.Hour)

	accessTokenString, err := s.sign(userUUID, sessionID, tokenID, deviceID, TokenTypeAccess, now, accessExp)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshTokenString, err := s.sign(userUUID, sessionID, tokenID, deviceID, TokenTypeRefresh, now, refreshExp)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessTokenString,
		RefreshToken: refreshTokenString,
		ExpiresAt:    biztime.UnixMilli(accessExp),
	}, nil
}

func (s *JWTService) sign(userUUID, sessionID, tokenID, deviceID string, tokenType TokenType, now, exp time.Time) (string, error) {
	claims := &Claims{
		UserUUID:  userUUID,
		SessionID: sessionID,
		TokenID:   tokenID,
		DeviceID:  deviceID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// VerifyRefresh verifies tokenString and requires the refresh token type.
func (s *JWTService) VerifyRefresh(tokenString string) (*Claims, error) {
	claims, err := s.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, fmt.Errorf("token is not a refresh token")
	}
	return claims, nil
}

// ShouldRefresh checks if the access token should be refreshed.
// Returns true if the token expires within 5 minutes.
func (s *JWTService) ShouldRefresh(claims *Claims) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return false
	}
	threshold := 5 * time.Minute
	return biztime.NowUTC().Add(threshold).After(claims.ExpiresAt.Time)
}

// AccessExpMinutes returns the access token expiration time in minutes
func (s *JWTService) AccessExpMinutes() int {
	return s.accessExpMinutes
}

// RefreshExpDays returns the refresh token expiration time in days
func (s *JWTService) RefreshExpDays() int {
	return s.refreshExpDays
}
