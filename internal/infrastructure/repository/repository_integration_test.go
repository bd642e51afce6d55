package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bytescookies/cookievault/internal/domain/cookie"
	"github.com/bytescookies/cookievault/internal/domain/device"
	"github.com/bytescookies/cookievault/internal/domain/user"
	"github.com/bytescookies/cookievault/internal/infrastructure/persistence/models"
	"github.com/bytescookies/cookievault/internal/shared/biztime"
	"github.com/bytescookies/cookievault/internal/shared/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.UserModel{},
		&models.SessionModel{},
		&models.DeviceModel{},
		&models.CookiePayloadModel{},
	)
	require.NoError(t, err)

	return db
}

func createTestUser(t *testing.T, repo user.Repository) *user.User {
	u, err := user.NewUser("pat@example.com", "Pat", "bcrypt-hash")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), u))
	require.NotZero(t, u.ID)
	return u
}

func TestUserRepository_CRUD(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := createTestUser(t, repo)

	byEmail, err := repo.GetByEmail(ctx, "pat@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.UUID, byEmail.UUID)

	byUUID, err := repo.GetByUUID(ctx, u.UUID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, byUUID.Email)

	exists, err := repo.ExistsByEmail(ctx, "pat@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)

	createTestUser(t, repo)

	dup, err := user.NewUser("pat@example.com", "Other", "hash")
	require.NoError(t, err)

	err = repo.Create(context.Background(), dup)
	require.Error(t, err)
	assert.True(t, errors.IsAuthError(err))
}

func TestSessionRepository_RotationFlow(t *testing.T) {
	db := setupTestDB(t)
	userRepo := NewUserRepository(db)
	sessionRepo := NewSessionRepository(db)
	ctx := context.Background()

	u := createTestUser(t, userRepo)

	s, err := user.NewSession(u.ID, "token-1", "device-1", "hash-1", biztime.NowUTC().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, sessionRepo.Create(ctx, s))

	// Lookup by refresh token hash, the refresh path.
	found, err := sessionRepo.GetByRefreshTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, s.SessionID, found.SessionID)
	assert.True(t, found.IsLive())

	// Rotate: invalidate the old row, insert the successor.
	require.NoError(t, sessionRepo.Invalidate(ctx, s.SessionID))

	next, err := user.NewSession(u.ID, "token-2", "device-1", "hash-2", biztime.NowUTC().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, sessionRepo.Create(ctx, next))

	old, err := sessionRepo.GetBySessionID(ctx, s.SessionID)
	require.NoError(t, err)
	assert.False(t, old.IsValid)

	active, err := sessionRepo.GetActiveByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, next.SessionID, active[0].SessionID)
}

func TestSessionRepository_InvalidateByDeviceID(t *testing.T) {
	db := setupTestDB(t)
	userRepo := NewUserRepository(db)
	sessionRepo := NewSessionRepository(db)
	ctx := context.Background()

	u := createTestUser(t, userRepo)

	for _, tokenID := range []string{"t1", "t2"} {
		s, err := user.NewSession(u.ID, tokenID, "device-a", "h"+tokenID, biztime.NowUTC().Add(time.Hour))
		require.NoError(t, err)
		require.NoError(t, sessionRepo.Create(ctx, s))
	}
	other, err := user.NewSession(u.ID, "t3", "device-b", "h3", biztime.NowUTC().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, sessionRepo.Create(ctx, other))

	require.NoError(t, sessionRepo.InvalidateByDeviceID(ctx, "device-a"))

	active, err := sessionRepo.GetActiveByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "device-b", active[0].DeviceID)
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	userRepo := NewUserRepository(db)
	sessionRepo := NewSessionRepository(db)
	ctx := context.Background()

	u := createTestUser(t, userRepo)

	expired, err := user.NewSession(u.ID, "t1", "d", "h1", biztime.NowUTC().Add(-time.Hour))
	require.NoError(t, err)
	require.NoError(t, sessionRepo.Create(ctx, expired))

	live, err := user.NewSession(u.ID, "t2", "d", "h2", biztime.NowUTC().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, sessionRepo.Create(ctx, live))

	deleted, err := sessionRepo.DeleteExpired(ctx, biztime.NowUTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = sessionRepo.GetByTokenID(ctx, "t1")
	assert.True(t, errors.IsNotFoundError(err))
	_, err = sessionRepo.GetByTokenID(ctx, "t2")
	assert.NoError(t, err)
}

func TestDeviceRepository_UpsertFlow(t *testing.T) {
	db := setupTestDB(t)
	userRepo := NewUserRepository(db)
	deviceRepo := NewDeviceRepository(db)
	ctx := context.Background()

	u := createTestUser(t, userRepo)
	fp := device.Fingerprint{UserAgent: "Mozilla/5.0", Platform: "MacIntel", Language: "en-US"}

	d, err := device.NewDevice(u.ID, fp)
	require.NoError(t, err)
	require.NoError(t, deviceRepo.Create(ctx, d))

	found, err := deviceRepo.GetByUserAndFingerprint(ctx, u.ID, fp.Hash())
	require.NoError(t, err)
	assert.Equal(t, d.DeviceID, found.DeviceID)
	assert.Equal(t, fp, found.Fingerprint)

	found.Touch()
	require.NoError(t, found.Rename("Laptop"))
	require.NoError(t, deviceRepo.Update(ctx, found))

	listed, err := deviceRepo.ListByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Laptop", listed[0].Name)
}

func TestCookiePayloadRepository_Upsert(t *testing.T) {
	db := setupTestDB(t)
	userRepo := NewUserRepository(db)
	payloadRepo := NewCookiePayloadRepository(db)
	ctx := context.Background()

	u := createTestUser(t, userRepo)

	record := &cookie.PayloadRecord{
		UserID:       u.ID,
		Domain:       "example.com",
		Ciphertext:   "cipher-1",
		IV:           "iv",
		IntegrityTag: "tag",
		Salt:         "salt",
		Version:      "2.0",
		Timestamp:    biztime.UnixMilli(biztime.NowUTC()),
		CreatedAt:    biztime.NowUTC(),
		UpdatedAt:    biztime.NowUTC(),
	}
	require.NoError(t, payloadRepo.Upsert(ctx, record))

	// Second upsert for the same (user, domain) replaces the batch.
	record.ID = 0
	record.Ciphertext = "cipher-2"
	record.UpdatedAt = biztime.NowUTC()
	require.NoError(t, payloadRepo.Upsert(ctx, record))

	stored, err := payloadRepo.GetByUserAndDomain(ctx, u.ID, "example.com")
	require.NoError(t, err)
	assert.Equal(t, "cipher-2", stored.Ciphertext)

	domains, err := payloadRepo.ListDomainsByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com"}, domains)

	require.NoError(t, payloadRepo.DeleteByUserAndDomain(ctx, u.ID, "example.com"))
	_, err = payloadRepo.GetByUserAndDomain(ctx, u.ID, "example.com")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestCookiePayloadRepository_DeleteStale(t *testing.T) {
	db := setupTestDB(t)
	userRepo := NewUserRepository(db)
	payloadRepo := NewCookiePayloadRepository(db)
	ctx := context.Background()

	u := createTestUser(t, userRepo)

	old := &models.CookiePayloadModel{
		UserID: u.ID, Domain: "old.com",
		Ciphertext: "c", IV: "i", IntegrityTag: "t", Salt: "s", Version: "2.0",
		Timestamp: 0,
		CreatedAt: biztime.NowUTC().Add(-48 * time.Hour),
		UpdatedAt: biztime.NowUTC().Add(-48 * time.Hour),
	}
	require.NoError(t, db.Create(old).Error)

	fresh := &cookie.PayloadRecord{
		UserID: u.ID, Domain: "fresh.com",
		Ciphertext: "c", IV: "i", IntegrityTag: "t", Salt: "s", Version: "2.0",
		Timestamp: biztime.UnixMilli(biztime.NowUTC()),
		CreatedAt:  biztime.NowUTC(),
		UpdatedAt:  biztime.NowUTC(),
	}
	require.NoError(t, payloadRepo.Upsert(ctx, fresh))

	deleted, err := payloadRepo.DeleteStale(ctx, biztime.NowUTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	domains, err := payloadRepo.ListDomainsByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh.com"}, domains)
}
