package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/astralgarden/astral.garden/internal/platform/errors"
	"github.com/astralgarden/astral.garden/internal/platform/id"
)

var (
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("identity store is not configured")
	// ErrFingerprintRequired indicates a certificate fingerprint is required.
	ErrFingerprintRequired = errors.New("certificate fingerprint is required")
	// ErrAccountIDRequired indicates an account id is required.
	ErrAccountIDRequired = errors.New("account id is required")
	// ErrLinkGrantsNotConfigured indicates grant signing keys are missing.
	ErrLinkGrantsNotConfigured = errors.New("link grants are not configured")
)

// Store is the domain persistence boundary for accounts and certificates.
type Store interface {
	GetAccountByID(ctx context.Context, accountID string) (Account, error)
	GetAccountByUsername(ctx context.Context, username string) (Account, error)
	// CreateAccount fails when the username is already taken.
	CreateAccount(ctx context.Context, account Account) error
	UpdateAccount(ctx context.Context, account Account) error
	GetCertificateByFingerprint(ctx context.Context, fingerprint string) (Certificate, error)
	// CreateCertificate fails when the fingerprint is already linked.
	CreateCertificate(ctx context.Context, certificate Certificate) error
	UpdateCertificate(ctx context.Context, certificate Certificate) error
	// ListCertificatesByAccount returns certificates oldest sighting first.
	ListCertificatesByAccount(ctx context.Context, accountID string) ([]Certificate, error)
	DeleteCertificate(ctx context.Context, fingerprint string) error
}

// Config carries the optional dependencies for Service.
type Config struct {
	Clock      func() time.Time
	NewID      func() (string, error)
	LinkGrants LinkGrantConfig
}

// Service orchestrates account registration and certificate linking.
type Service struct {
	store  Store
	clock  func() time.Time
	newID  func() (string, error)
	grants LinkGrantConfig
}

// NewService constructs identity domain use-cases.
func NewService(store Store, cfg Config) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := cfg.NewID
	if newID == nil {
		newID = id.NewID
	}
	grants := cfg.LinkGrants
	if grants.Now == nil {
		grants.Now = clock
	}
	return &Service{
		store:  store,
		clock:  clock,
		newID:  newID,
		grants: grants,
	}
}

// Session is the authenticated pairing of an account and the certificate
// that presented it.
type Session struct {
	Account     Account
	Certificate Certificate
}

// CertificateInfo carries the metadata of a presented client certificate.
type CertificateInfo struct {
	Fingerprint string
	Subject     string
	NotBefore   time.Time
	NotAfter    time.Time
}

// Resolve authenticates a certificate fingerprint and touches its last-seen
// time. Unknown fingerprints are rejected so callers can offer registration.
func (s *Service) Resolve(ctx context.Context, fingerprint string) (Session, error) {
	if s == nil || s.store == nil {
		return Session{}, ErrStoreNotConfigured
	}
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return Session{}, ErrFingerprintRequired
	}
	certificate, err := s.store.GetCertificateByFingerprint(ctx, fingerprint)
	if apperrors.IsCode(err, apperrors.CodeNotFound) {
		return Session{}, apperrors.New(apperrors.CodeUnauthenticated, "certificate is not linked to an account")
	}
	if err != nil {
		return Session{}, err
	}
	account, err := s.store.GetAccountByID(ctx, certificate.AccountID)
	if err != nil {
		return Session{}, err
	}

	now := s.nowUTC()
	certificate.LastSeenAt = now
	certificate.UpdatedAt = now
	if err := s.store.UpdateCertificate(ctx, certificate); err != nil {
		return Session{}, err
	}
	return Session{Account: account, Certificate: certificate}, nil
}

// FindAccount looks up an account by username, for addressing other
// gardeners by name.
func (s *Service) FindAccount(ctx context.Context, username string) (Account, error) {
	if s == nil || s.store == nil {
		return Account{}, ErrStoreNotConfigured
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return Account{}, apperrors.New(apperrors.CodeUsernameEmpty, "username is required")
	}
	return s.store.GetAccountByUsername(ctx, username)
}

// GetAccount looks up an account by id, for resolving display names.
func (s *Service) GetAccount(ctx context.Context, accountID string) (Account, error) {
	if s == nil || s.store == nil {
		return Account{}, ErrStoreNotConfigured
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return Account{}, ErrAccountIDRequired
	}
	return s.store.GetAccountByID(ctx, accountID)
}

// RegisterNewInput names a fresh account and the certificate that claims it.
type RegisterNewInput struct {
	Username    string
	Certificate CertificateInfo
}

// RegisterNew creates an account and links its first certificate. The
// garden itself is seeded lazily on the first visit.
func (s *Service) RegisterNew(ctx context.Context, input RegisterNewInput) (Session, error) {
	if s == nil || s.store == nil {
		return Session{}, ErrStoreNotConfigured
	}
	username := strings.TrimSpace(input.Username)
	if err := ValidateUsername(username); err != nil {
		return Session{}, err
	}
	if err := s.requireUnlinked(ctx, input.Certificate); err != nil {
		return Session{}, err
	}
	if _, err := s.store.GetAccountByUsername(ctx, username); err == nil {
		return Session{}, apperrors.New(apperrors.CodeUsernameTaken, "username is already taken")
	} else if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		return Session{}, err
	}

	accountID, err := s.newID()
	if err != nil {
		return Session{}, fmt.Errorf("generate account id: %w", err)
	}
	now := s.nowUTC()
	account := Account{
		ID:        accountID,
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return Session{}, err
	}
	certificate, err := s.linkCertificate(ctx, account.ID, input.Certificate, now)
	if err != nil {
		return Session{}, err
	}
	return Session{Account: account, Certificate: certificate}, nil
}

// LinkExistingInput authorizes an additional certificate with a password.
type LinkExistingInput struct {
	Username    string
	Password    string
	Certificate CertificateInfo
}

// LinkExisting attaches a new certificate to an account after a password
// check. Accounts without a password cannot be linked this way.
func (s *Service) LinkExisting(ctx context.Context, input LinkExistingInput) (Session, error) {
	if s == nil || s.store == nil {
		return Session{}, ErrStoreNotConfigured
	}
	if err := s.requireUnlinked(ctx, input.Certificate); err != nil {
		return Session{}, err
	}
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return Session{}, apperrors.New(apperrors.CodeUsernameEmpty, "username is required")
	}
	account, err := s.store.GetAccountByUsername(ctx, username)
	if apperrors.IsCode(err, apperrors.CodeNotFound) {
		return Session{}, apperrors.New(apperrors.CodeNotFound, "no account with that username")
	}
	if err != nil {
		return Session{}, err
	}
	if !account.PasswordSet() {
		return Session{}, apperrors.New(apperrors.CodePasswordNotSet, "account has no password set")
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)) != nil {
		return Session{}, apperrors.New(apperrors.CodePasswordIncorrect, "password is incorrect")
	}

	certificate, err := s.linkCertificate(ctx, account.ID, input.Certificate, s.nowUTC())
	if err != nil {
		return Session{}, err
	}
	return Session{Account: account, Certificate: certificate}, nil
}

// IssueLinkGrant signs a short-lived token that authorizes linking one new
// certificate to the account without a password round-trip.
func (s *Service) IssueLinkGrant(ctx context.Context, accountID string) (string, error) {
	if s == nil || s.store == nil {
		return "", ErrStoreNotConfigured
	}
	if len(s.grants.PrivateKey) == 0 {
		return "", ErrLinkGrantsNotConfigured
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return "", ErrAccountIDRequired
	}
	if _, err := s.store.GetAccountByID(ctx, accountID); err != nil {
		return "", err
	}
	jwtID, err := s.newID()
	if err != nil {
		return "", fmt.Errorf("generate grant id: %w", err)
	}
	return SignLinkGrant(accountID, jwtID, s.grants)
}

// LinkWithGrantInput attaches a certificate authorized by a link grant.
type LinkWithGrantInput struct {
	Grant       string
	Certificate CertificateInfo
}

// LinkWithGrant validates a grant and links the presented certificate to
// the granted account.
func (s *Service) LinkWithGrant(ctx context.Context, input LinkWithGrantInput) (Session, error) {
	if s == nil || s.store == nil {
		return Session{}, ErrStoreNotConfigured
	}
	if !s.grants.Enabled() {
		return Session{}, ErrLinkGrantsNotConfigured
	}
	if err := s.requireUnlinked(ctx, input.Certificate); err != nil {
		return Session{}, err
	}
	claims, err := ValidateLinkGrant(input.Grant, s.grants)
	if err != nil {
		return Session{}, err
	}
	account, err := s.store.GetAccountByID(ctx, claims.AccountID)
	if err != nil {
		return Session{}, err
	}
	certificate, err := s.linkCertificate(ctx, account.ID, input.Certificate, s.nowUTC())
	if err != nil {
		return Session{}, err
	}
	return Session{Account: account, Certificate: certificate}, nil
}

// SetPasswordInput carries a new account password.
type SetPasswordInput struct {
	AccountID string
	Password  string
}

// SetPassword hashes and stores the account password used by LinkExisting.
func (s *Service) SetPassword(ctx context.Context, input SetPasswordInput) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	accountID := strings.TrimSpace(input.AccountID)
	if accountID == "" {
		return ErrAccountIDRequired
	}
	if len(input.Password) < MinPasswordLength {
		return apperrors.WithMetadata(apperrors.CodePasswordTooShort, "password is too short", map[string]string{
			"MinLength": fmt.Sprintf("%d", MinPasswordLength),
		})
	}
	account, err := s.store.GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	account.PasswordHash = string(hash)
	account.UpdatedAt = s.nowUTC()
	return s.store.UpdateAccount(ctx, account)
}

// SetANSIInput toggles color rendering for one certificate.
type SetANSIInput struct {
	Fingerprint string
	Enabled     bool
}

// SetANSI stores the per-certificate color preference.
func (s *Service) SetANSI(ctx context.Context, input SetANSIInput) (Certificate, error) {
	if s == nil || s.store == nil {
		return Certificate{}, ErrStoreNotConfigured
	}
	fingerprint := strings.TrimSpace(input.Fingerprint)
	if fingerprint == "" {
		return Certificate{}, ErrFingerprintRequired
	}
	certificate, err := s.store.GetCertificateByFingerprint(ctx, fingerprint)
	if apperrors.IsCode(err, apperrors.CodeNotFound) {
		return Certificate{}, apperrors.New(apperrors.CodeUnauthenticated, "certificate is not linked to an account")
	}
	if err != nil {
		return Certificate{}, err
	}
	certificate.ANSIEnabled = input.Enabled
	certificate.UpdatedAt = s.nowUTC()
	if err := s.store.UpdateCertificate(ctx, certificate); err != nil {
		return Certificate{}, err
	}
	return certificate, nil
}

// ListCertificates returns the account's certificates oldest sighting first.
func (s *Service) ListCertificates(ctx context.Context, accountID string) ([]Certificate, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, ErrAccountIDRequired
	}
	return s.store.ListCertificatesByAccount(ctx, accountID)
}

// DeleteCertificateInput identifies a certificate to unlink. The active
// fingerprint is the one authenticating this request.
type DeleteCertificateInput struct {
	AccountID         string
	Fingerprint       string
	ActiveFingerprint string
}

// DeleteCertificate unlinks a certificate. The certificate must belong to
// the requesting account and cannot be the one currently authenticated.
func (s *Service) DeleteCertificate(ctx context.Context, input DeleteCertificateInput) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	accountID := strings.TrimSpace(input.AccountID)
	if accountID == "" {
		return ErrAccountIDRequired
	}
	fingerprint := strings.TrimSpace(input.Fingerprint)
	if fingerprint == "" {
		return ErrFingerprintRequired
	}
	certificate, err := s.store.GetCertificateByFingerprint(ctx, fingerprint)
	if err != nil {
		return err
	}
	// Another account's certificate looks identical to a missing one.
	if certificate.AccountID != accountID {
		return apperrors.New(apperrors.CodeNotFound, "certificate not found")
	}
	if fingerprint == strings.TrimSpace(input.ActiveFingerprint) {
		return apperrors.New(apperrors.CodeCertificateActive, "cannot delete the active certificate")
	}
	return s.store.DeleteCertificate(ctx, fingerprint)
}

func (s *Service) requireUnlinked(ctx context.Context, info CertificateInfo) error {
	fingerprint := strings.TrimSpace(info.Fingerprint)
	if fingerprint == "" {
		return ErrFingerprintRequired
	}
	_, err := s.store.GetCertificateByFingerprint(ctx, fingerprint)
	if err == nil {
		return apperrors.New(apperrors.CodeCertificateLinked, "certificate is already linked to an account")
	}
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		return err
	}
	return nil
}

func (s *Service) linkCertificate(ctx context.Context, accountID string, info CertificateInfo, now time.Time) (Certificate, error) {
	certificate := Certificate{
		Fingerprint: strings.TrimSpace(info.Fingerprint),
		AccountID:   accountID,
		Subject:     strings.TrimSpace(info.Subject),
		NotBefore:   info.NotBefore,
		NotAfter:    info.NotAfter,
		LastSeenAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateCertificate(ctx, certificate); err != nil {
		return Certificate{}, err
	}
	return certificate, nil
}

func (s *Service) nowUTC() time.Time {
	return s.clock().UTC()
}
