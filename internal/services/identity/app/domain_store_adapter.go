package server

import (
	"context"
	"errors"

	apperrors "github.com/astralgarden/astral.garden/internal/platform/errors"
	"github.com/astralgarden/astral.garden/internal/services/identity/domain"
	"github.com/astralgarden/astral.garden/internal/services/identity/storage"
)

type domainStoreAdapter struct {
	store storage.IdentityStore
}

func newDomainStoreAdapter(store storage.IdentityStore) *domainStoreAdapter {
	return &domainStoreAdapter{store: store}
}

func (a *domainStoreAdapter) GetAccountByID(ctx context.Context, accountID string) (domain.Account, error) {
	if a == nil || a.store == nil {
		return domain.Account{}, domain.ErrStoreNotConfigured
	}
	record, err := a.store.GetAccountByID(ctx, accountID)
	if err != nil {
		return domain.Account{}, mapAccountStorageError(err)
	}
	return toDomainAccount(record), nil
}

func (a *domainStoreAdapter) GetAccountByUsername(ctx context.Context, username string) (domain.Account, error) {
	if a == nil || a.store == nil {
		return domain.Account{}, domain.ErrStoreNotConfigured
	}
	record, err := a.store.GetAccountByUsername(ctx, username)
	if err != nil {
		return domain.Account{}, mapAccountStorageError(err)
	}
	return toDomainAccount(record), nil
}

func (a *domainStoreAdapter) CreateAccount(ctx context.Context, account domain.Account) error {
	if a == nil || a.store == nil {
		return domain.ErrStoreNotConfigured
	}
	if err := a.store.CreateAccount(ctx, toStorageAccount(account)); err != nil {
		return mapAccountStorageError(err)
	}
	return nil
}

func (a *domainStoreAdapter) UpdateAccount(ctx context.Context, account domain.Account) error {
	if a == nil || a.store == nil {
		return domain.ErrStoreNotConfigured
	}
	if err := a.store.UpdateAccount(ctx, toStorageAccount(account)); err != nil {
		return mapAccountStorageError(err)
	}
	return nil
}

func (a *domainStoreAdapter) GetCertificateByFingerprint(ctx context.Context, fingerprint string) (domain.Certificate, error) {
	if a == nil || a.store == nil {
		return domain.Certificate{}, domain.ErrStoreNotConfigured
	}
	record, err := a.store.GetCertificateByFingerprint(ctx, fingerprint)
	if err != nil {
		return domain.Certificate{}, mapCertificateStorageError(err)
	}
	return toDomainCertificate(record), nil
}

func (a *domainStoreAdapter) CreateCertificate(ctx context.Context, certificate domain.Certificate) error {
	if a == nil || a.store == nil {
		return domain.ErrStoreNotConfigured
	}
	if err := a.store.CreateCertificate(ctx, toStorageCertificate(certificate)); err != nil {
		return mapCertificateStorageError(err)
	}
	return nil
}

func (a *domainStoreAdapter) UpdateCertificate(ctx context.Context, certificate domain.Certificate) error {
	if a == nil || a.store == nil {
		return domain.ErrStoreNotConfigured
	}
	if err := a.store.UpdateCertificate(ctx, toStorageCertificate(certificate)); err != nil {
		return mapCertificateStorageError(err)
	}
	return nil
}

func (a *domainStoreAdapter) ListCertificatesByAccount(ctx context.Context, accountID string) ([]domain.Certificate, error) {
	if a == nil || a.store == nil {
		return nil, domain.ErrStoreNotConfigured
	}
	records, err := a.store.ListCertificatesByAccount(ctx, accountID)
	if err != nil {
		return nil, mapCertificateStorageError(err)
	}
	certificates := make([]domain.Certificate, 0, len(records))
	for _, record := range records {
		certificates = append(certificates, toDomainCertificate(record))
	}
	return certificates, nil
}

func (a *domainStoreAdapter) DeleteCertificate(ctx context.Context, fingerprint string) error {
	if a == nil || a.store == nil {
		return domain.ErrStoreNotConfigured
	}
	if err := a.store.DeleteCertificate(ctx, fingerprint); err != nil {
		return mapCertificateStorageError(err)
	}
	return nil
}

func toStorageAccount(account domain.Account) storage.AccountRecord {
	return storage.AccountRecord{
		ID:           account.ID,
		Username:     account.Username,
		PasswordHash: account.PasswordHash,
		CreatedAt:    account.CreatedAt,
		UpdatedAt:    account.UpdatedAt,
	}
}

func toDomainAccount(record storage.AccountRecord) domain.Account {
	return domain.Account{
		ID:           record.ID,
		Username:     record.Username,
		PasswordHash: record.PasswordHash,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
}

func toStorageCertificate(certificate domain.Certificate) storage.CertificateRecord {
	return storage.CertificateRecord{
		Fingerprint: certificate.Fingerprint,
		AccountID:   certificate.AccountID,
		Subject:     certificate.Subject,
		NotBefore:   certificate.NotBefore,
		NotAfter:    certificate.NotAfter,
		ANSIEnabled: certificate.ANSIEnabled,
		LastSeenAt:  certificate.LastSeenAt,
		CreatedAt:   certificate.CreatedAt,
		UpdatedAt:   certificate.UpdatedAt,
	}
}

func toDomainCertificate(record storage.CertificateRecord) domain.Certificate {
	return domain.Certificate{
		Fingerprint: record.Fingerprint,
		AccountID:   record.AccountID,
		Subject:     record.Subject,
		NotBefore:   record.NotBefore,
		NotAfter:    record.NotAfter,
		ANSIEnabled: record.ANSIEnabled,
		LastSeenAt:  record.LastSeenAt,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func mapAccountStorageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.Wrap(apperrors.CodeNotFound, "account not found", err)
	case errors.Is(err, storage.ErrConflict):
		return apperrors.Wrap(apperrors.CodeUsernameTaken, "username already taken", err)
	}
	return err
}

func mapCertificateStorageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.Wrap(apperrors.CodeNotFound, "certificate not found", err)
	case errors.Is(err, storage.ErrConflict):
		return apperrors.Wrap(apperrors.CodeCertificateLinked, "certificate already linked", err)
	}
	return err
}
