package server

import (
	"context"
	"errors"

	apperrors "github.com/astralgarden/astral.garden/internal/platform/errors"
	"github.com/astralgarden/astral.garden/internal/services/mailbox/domain"
	"github.com/astralgarden/astral.garden/internal/services/mailbox/storage"
)

type domainStoreAdapter struct {
	store storage.MailboxStore
}

func newDomainStoreAdapter(store storage.MailboxStore) *domainStoreAdapter {
	return &domainStoreAdapter{store: store}
}

func (a *domainStoreAdapter) AppendMessage(ctx context.Context, message domain.Message) error {
	if a == nil || a.store == nil {
		return domain.ErrStoreNotConfigured
	}
	if err := a.store.AppendMessage(ctx, toStorageMessage(message)); err != nil {
		return mapStorageError(err)
	}
	return nil
}

func (a *domainStoreAdapter) GetMessage(ctx context.Context, accountID, messageID string) (domain.Message, error) {
	if a == nil || a.store == nil {
		return domain.Message{}, domain.ErrStoreNotConfigured
	}
	record, err := a.store.GetMessage(ctx, accountID, messageID)
	if err != nil {
		return domain.Message{}, mapStorageError(err)
	}
	return toDomainMessage(record), nil
}

func (a *domainStoreAdapter) ListMessages(ctx context.Context, accountID, filterClause string, filterParams []any, limit, offset int) ([]domain.Message, error) {
	if a == nil || a.store == nil {
		return nil, domain.ErrStoreNotConfigured
	}
	records, err := a.store.ListMessages(ctx, accountID, filterClause, filterParams, limit, offset)
	if err != nil {
		return nil, mapStorageError(err)
	}
	messages := make([]domain.Message, 0, len(records))
	for _, record := range records {
		messages = append(messages, toDomainMessage(record))
	}
	return messages, nil
}

func (a *domainStoreAdapter) MarkMessageSeen(ctx context.Context, accountID, messageID string) error {
	if a == nil || a.store == nil {
		return domain.ErrStoreNotConfigured
	}
	if err := a.store.MarkMessageSeen(ctx, accountID, messageID); err != nil {
		return mapStorageError(err)
	}
	return nil
}

func (a *domainStoreAdapter) CountUnread(ctx context.Context, accountID string) (int, error) {
	if a == nil || a.store == nil {
		return 0, domain.ErrStoreNotConfigured
	}
	count, err := a.store.CountUnread(ctx, accountID)
	if err != nil {
		return 0, mapStorageError(err)
	}
	return count, nil
}

func toStorageMessage(message domain.Message) storage.MessageRecord {
	return storage.MessageRecord{
		ID:        message.ID,
		FromID:    message.FromID,
		FromName:  message.FromName,
		ToID:      message.ToID,
		Subject:   message.Subject,
		Body:      message.Body,
		Seen:      message.Seen,
		CreatedAt: message.CreatedAt,
	}
}

func toDomainMessage(record storage.MessageRecord) domain.Message {
	return domain.Message{
		ID:        record.ID,
		FromID:    record.FromID,
		FromName:  record.FromName,
		ToID:      record.ToID,
		Subject:   record.Subject,
		Body:      record.Body,
		Seen:      record.Seen,
		CreatedAt: record.CreatedAt,
	}
}

func mapStorageError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.Wrap(apperrors.CodeNotFound, "message not found", err)
	}
	return err
}
