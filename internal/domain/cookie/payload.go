package cookie

import (
	"context"
	"time"
)

// PayloadRecord is an encrypted cookie batch synced to the server. One
// record per user and domain; re-syncing replaces the previous batch.
// The server never sees plaintext cookies, only the sealed fields.
type PayloadRecord struct {
	ID           uint
	UserID       uint
	Domain       string
	Ciphertext   string
	IV           string
	IntegrityTag string
	Salt         string
	Version      string
	Timestamp    int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PayloadRepository persists synced cookie payloads.
type PayloadRepository interface {
	// Upsert replaces the record for (UserID, Domain) or creates it.
	Upsert(ctx context.Context, record *PayloadRecord) error
	GetByUserAndDomain(ctx context.Context, userID uint, domain string) (*PayloadRecord, error)
	ListDomainsByUser(ctx context.Context, userID uint) ([]string, error)
	DeleteByUserAndDomain(ctx context.Context, userID uint, domain string) error

	// DeleteStale removes records not updated since the cutoff.
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}
