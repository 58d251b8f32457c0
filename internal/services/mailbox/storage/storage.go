// Package storage defines persistence contracts for the mailbox service.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// MessageRecord is the persisted form of a mailbox message.
type MessageRecord struct {
	ID        string
	FromID    string
	FromName  string
	ToID      string
	Subject   string
	Body      string
	Seen      bool
	CreatedAt time.Time
}

// MailboxStore persists delivered messages.
type MailboxStore interface {
	// AppendMessage stores a new message.
	AppendMessage(ctx context.Context, record MessageRecord) error

	// GetMessage returns the message when it belongs to the account.
	// Returns ErrNotFound otherwise.
	GetMessage(ctx context.Context, accountID, messageID string) (MessageRecord, error)

	// ListMessages returns the account's messages newest first. The optional
	// filter clause references message columns and is ANDed with the account
	// scope.
	ListMessages(ctx context.Context, accountID, filterClause string, filterParams []any, limit, offset int) ([]MessageRecord, error)

	// MarkMessageSeen sets the seen flag on the account's message.
	// Returns ErrNotFound when the message does not exist or belongs to
	// another account.
	MarkMessageSeen(ctx context.Context, accountID, messageID string) error

	// CountUnread returns how many of the account's messages are unseen.
	CountUnread(ctx context.Context, accountID string) (int, error)
}
