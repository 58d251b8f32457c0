// Package storage defines the persistence contracts for identity state.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a unique constraint rejected the write.
	ErrConflict = errors.New("record already exists")
)

// AccountRecord is a stored gardener account.
type AccountRecord struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CertificateRecord is a stored client certificate link.
type CertificateRecord struct {
	Fingerprint string
	AccountID   string
	Subject     string
	NotBefore   time.Time
	NotAfter    time.Time
	ANSIEnabled bool
	LastSeenAt  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AccountStore persists account records.
type AccountStore interface {
	// CreateAccount inserts a new account. A taken username returns
	// ErrConflict.
	CreateAccount(ctx context.Context, record AccountRecord) error
	// UpdateAccount rewrites an existing account by id.
	UpdateAccount(ctx context.Context, record AccountRecord) error
	GetAccountByID(ctx context.Context, accountID string) (AccountRecord, error)
	GetAccountByUsername(ctx context.Context, username string) (AccountRecord, error)
}

// CertificateStore persists certificate records.
type CertificateStore interface {
	// CreateCertificate inserts a new certificate. An already linked
	// fingerprint returns ErrConflict.
	CreateCertificate(ctx context.Context, record CertificateRecord) error
	// UpdateCertificate rewrites an existing certificate by fingerprint.
	UpdateCertificate(ctx context.Context, record CertificateRecord) error
	GetCertificateByFingerprint(ctx context.Context, fingerprint string) (CertificateRecord, error)
	// ListCertificatesByAccount returns certificates least recently seen
	// first.
	ListCertificatesByAccount(ctx context.Context, accountID string) ([]CertificateRecord, error)
	DeleteCertificate(ctx context.Context, fingerprint string) error
}

// IdentityStore is the combined persistence surface of the identity service.
type IdentityStore interface {
	AccountStore
	CertificateStore
}
