package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	appusecases "github.com/bytescookies/cookievault/internal/application/auth/helpers"
	"github.com/bytescookies/cookievault/internal/application/auth/usecases"
	"github.com/bytescookies/cookievault/internal/infrastructure/auth"
	"github.com/bytescookies/cookievault/internal/infrastructure/migration"
	"github.com/bytescookies/cookievault/internal/infrastructure/repository"
	"github.com/bytescookies/cookievault/internal/interfaces/http/middleware"
	"github.com/bytescookies/cookievault/internal/shared/logger"
)

// testServer wires the full auth stack onto an in-memory database.
type testServer struct {
	engine *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(migration.AutoMigrateModels()...))

	log := logger.NewLogger()

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	payloadRepo := repository.NewCookiePayloadRepository(db)

	hasher := auth.NewBcryptPasswordHasher(4)
	jwtSvc := auth.NewJWTService("handler-test-secret", 15, 7)
	helper := appusecases.NewAuthHelper(jwtSvc, sessionRepo, deviceRepo, log)

	authHandler := NewAuthHandler(
		usecases.NewRegisterUseCase(userRepo, hasher, helper, log),
		usecases.NewLoginUseCase(userRepo, hasher, helper, log),
		usecases.NewRefreshTokenUseCase(userRepo, sessionRepo, jwtSvc, helper, log),
		usecases.NewLogoutUseCase(sessionRepo, log),
		log,
	)
	deviceHandler := NewDeviceHandler(
		usecases.NewListDevicesUseCase(deviceRepo, log),
		usecases.NewRenameDeviceUseCase(deviceRepo, log),
		usecases.NewDeactivateDeviceUseCase(deviceRepo, sessionRepo, log),
		log,
	)
	cookieHandler := NewCookieHandler(usecases.NewSyncCookiesUseCase(payloadRepo, log), log)
	authMW := middleware.NewAuthMiddleware(jwtSvc, sessionRepo, log)

	engine := gin.New()
	engine.POST("/auth/register", authHandler.Register)
	engine.POST("/auth/login", authHandler.Login)
	engine.POST("/auth/refresh", authHandler.RefreshToken)
	engine.POST("/auth/logout", authMW.RequireAuth(), authHandler.Logout)
	engine.GET("/devices", authMW.RequireAuth(), deviceHandler.ListDevices)
	engine.PATCH("/devices/:deviceId", authMW.RequireAuth(), deviceHandler.RenameDevice)
	engine.DELETE("/devices/:deviceId", authMW.RequireAuth(), deviceHandler.DeactivateDevice)
	engine.POST("/cookies/sync", authMW.RequireAuth(), cookieHandler.SyncCookies)
	engine.GET("/cookies/domains", authMW.RequireAuth(), cookieHandler.ListDomains)
	engine.GET("/cookies/:domain", authMW.RequireAuth(), cookieHandler.GetCookies)

	return &testServer{engine: engine}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) register(t *testing.T, email string) TokenResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"email":    email,
		"name":     "Test User",
		"password": "secret123",
		"device": gin.H{
			"userAgent": "TestAgent/1.0",
			"platform":  "linux",
			"language":  "en-US",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error, body.Code
}

func TestAuthFlow_RegisterLoginRefreshLogout(t *testing.T) {
	srv := newTestServer(t)

	reg := srv.register(t, "a@b.com")
	require.NotEmpty(t, reg.AccessToken)
	require.NotEmpty(t, reg.RefreshToken)
	require.NotNil(t, reg.User)
	assert.Equal(t, "a@b.com", reg.User.Email)

	// Duplicate registration conflicts.
	w := srv.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"email": "a@b.com", "name": "Test User", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	_, code := decodeError(t, w)
	assert.Equal(t, "USER_EXISTS", code)

	// Login with the right and wrong password.
	w = srv.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "a@b.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = srv.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "a@b.com", "password": "wrong-pass1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	_, code = decodeError(t, w)
	assert.Equal(t, "INVALID_CREDENTIALS", code)

	// Refresh rotates the pair; the old refresh token dies with it.
	w = srv.do(t, http.MethodPost, "/auth/refresh", "", gin.H{"refreshToken": login.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rotated TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rotated))
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	w = srv.do(t, http.MethodPost, "/auth/refresh", "", gin.H{"refreshToken": login.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	_, code = decodeError(t, w)
	assert.Equal(t, "SESSION_EXPIRED", code)

	// The access token issued by the rotation works until logout.
	w = srv.do(t, http.MethodGet, "/devices", rotated.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = srv.do(t, http.MethodPost, "/auth/logout", rotated.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodGet, "/devices", rotated.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthFlow_AccessTokenInvalidatedByRotation(t *testing.T) {
	srv := newTestServer(t)
	reg := srv.register(t, "rot@b.com")

	w := srv.do(t, http.MethodPost, "/auth/refresh", "", gin.H{"refreshToken": reg.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)

	// The pre-rotation access token's session row is gone.
	w = srv.do(t, http.MethodGet, "/devices", reg.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_RejectsBadTokens(t *testing.T) {
	srv := newTestServer(t)
	srv.register(t, "mw@b.com")

	w := srv.do(t, http.MethodGet, "/devices", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	_, code := decodeError(t, w)
	assert.Equal(t, "MISSING_TOKEN", code)

	w = srv.do(t, http.MethodGet, "/devices", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	_, code = decodeError(t, w)
	assert.Equal(t, "INVALID_TOKEN", code)
}

func TestAuthMiddleware_RejectsRefreshTokenOnProtectedRoute(t *testing.T) {
	srv := newTestServer(t)
	reg := srv.register(t, "type@b.com")

	w := srv.do(t, http.MethodGet, "/devices", reg.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	_, code := decodeError(t, w)
	assert.Equal(t, "INVALID_TOKEN", code)
}

func TestRegister_RejectsWeakPassword(t *testing.T) {
	srv := newTestServer(t)

	// Digits-only fails the password rule even at sufficient length.
	w := srv.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"email": "weak@b.com", "name": "Test User", "password": "123456789",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCookieSync_StoreAndFetch(t *testing.T) {
	srv := newTestServer(t)
	reg := srv.register(t, "sync@b.com")

	payload := gin.H{
		"data":      "Y2lwaGVydGV4dA==",
		"iv":        "aXZpdml2aXZpdml2aXY=",
		"hash":      "deadbeef",
		"salt":      "c2FsdHNhbHQ=",
		"timestamp": 1700000000000,
		"version":   "2.0",
	}

	w := srv.do(t, http.MethodPost, "/cookies/sync", reg.AccessToken, gin.H{
		"domain":  "example.com",
		"payload": payload,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = srv.do(t, http.MethodGet, "/cookies/domains", reg.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var domains struct {
		Domains []string `json:"domains"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &domains))
	assert.Equal(t, []string{"example.com"}, domains.Domains)

	w = srv.do(t, http.MethodGet, "/cookies/example.com", reg.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched struct {
		Payload map[string]any `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, "Y2lwaGVydGV4dA==", fetched.Payload["data"])
	assert.Equal(t, "2.0", fetched.Payload["version"])

	// Unknown domain and foreign users see nothing.
	w = srv.do(t, http.MethodGet, "/cookies/other.com", reg.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	other := srv.register(t, fmt.Sprintf("other-%d@b.com", 1))
	w = srv.do(t, http.MethodGet, "/cookies/example.com", other.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCookieSync_RejectsIncompletePayload(t *testing.T) {
	srv := newTestServer(t)
	reg := srv.register(t, "bad@b.com")

	w := srv.do(t, http.MethodPost, "/cookies/sync", reg.AccessToken, gin.H{
		"domain": "example.com",
		"payload": gin.H{
			"data":    "Y2lwaGVydGV4dA==",
			"version": "2.0",
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	_, code := decodeError(t, w)
	assert.Equal(t, "VALIDATION_ERROR", code)
}

func TestDeviceFlow_RenameAndDeactivate(t *testing.T) {
	srv := newTestServer(t)
	reg := srv.register(t, "dev@b.com")

	w := srv.do(t, http.MethodGet, "/devices", reg.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Devices []usecases.DeviceInfo `json:"devices"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Devices, 1)
	deviceID := list.Devices[0].DeviceID

	// Rename strips markup from the new name.
	w = srv.do(t, http.MethodPatch, "/devices/"+deviceID, reg.AccessToken, gin.H{
		"name": "<b>Work Laptop</b>",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var renamed struct {
		Device usecases.DeviceInfo `json:"device"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &renamed))
	assert.Equal(t, "Work Laptop", renamed.Device.Name)

	// Deactivating the device kills its sessions.
	w = srv.do(t, http.MethodDelete, "/devices/"+deviceID, reg.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodGet, "/devices", reg.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Logging in again from the same fingerprint is refused while the
	// device stays deactivated.
	w = srv.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"email":    "dev@b.com",
		"password": "secret123",
		"device": gin.H{
			"userAgent": "TestAgent/1.0",
			"platform":  "linux",
			"language":  "en-US",
		},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	_, code := decodeError(t, w)
	assert.Equal(t, "DEVICE_INACTIVE", code)
}
