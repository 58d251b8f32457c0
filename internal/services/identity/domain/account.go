// Package domain implements gardener accounts and the client-certificate
// identity model. A certificate fingerprint is the unit of authentication;
// accounts exist so several certificates can share one garden.
package domain

import (
	"regexp"
	"strconv"
	"time"

	apperrors "github.com/astralgarden/astral.garden/internal/platform/errors"
)

const (
	// MaxUsernameLength bounds usernames at registration.
	MaxUsernameLength = 30
	// MinPasswordLength is the shortest password SetPassword accepts.
	MinPasswordLength = 8
)

var usernamePattern = regexp.MustCompile(`^[\x20-\x7e]+$`)

// Account is a gardener identity shared by all linked certificates.
type Account struct {
	ID       string
	Username string
	// PasswordHash is the bcrypt hash used by LinkExisting. Empty means the
	// account never set a password.
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PasswordSet reports whether the account can authorize a certificate link
// with a password.
func (a Account) PasswordSet() bool {
	return a.PasswordHash != ""
}

// Certificate is one linked client certificate. Display settings are kept
// here rather than on the account so each device keeps its own rendering
// preferences.
type Certificate struct {
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

// ValidateUsername enforces the registration constraints: non-empty,
// printable ASCII, at most MaxUsernameLength characters.
func ValidateUsername(username string) error {
	if username == "" {
		return apperrors.New(apperrors.CodeUsernameEmpty, "username is required")
	}
	if len(username) > MaxUsernameLength {
		return apperrors.WithMetadata(apperrors.CodeUsernameInvalid, "username is too long", map[string]string{
			"MaxLength": strconv.Itoa(MaxUsernameLength),
		})
	}
	if !usernamePattern.MatchString(username) {
		return apperrors.WithMetadata(apperrors.CodeUsernameInvalid, "username must be printable ASCII", map[string]string{
			"MaxLength": strconv.Itoa(MaxUsernameLength),
		})
	}
	return nil
}
