package domain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/astralgarden/astral.garden/internal/platform/errors"
	"github.com/astralgarden/astral.garden/internal/platform/id"
	"github.com/astralgarden/astral.garden/internal/services/mailbox/filter"
)

var (
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("mailbox store is not configured")
	// ErrSenderRequired indicates a sender account id is required.
	ErrSenderRequired = errors.New("sender account id is required")
	// ErrRecipientRequired indicates a recipient account id is required.
	ErrRecipientRequired = errors.New("recipient account id is required")
	// ErrAccountIDRequired indicates an account id is required.
	ErrAccountIDRequired = errors.New("account id is required")
	// ErrMessageIDRequired indicates a message id is required.
	ErrMessageIDRequired = errors.New("message id is required")
)

const (
	// DefaultPageSize is used when a list request does not set one.
	DefaultPageSize = 20
	// MaxPageSize caps a single mailbox page.
	MaxPageSize = 100
)

// Store is the domain persistence boundary for mailbox messages.
type Store interface {
	AppendMessage(ctx context.Context, message Message) error
	GetMessage(ctx context.Context, accountID, messageID string) (Message, error)
	// ListMessages returns the account's messages newest first. The optional
	// filter clause references message columns and is scoped to the account.
	ListMessages(ctx context.Context, accountID, filterClause string, filterParams []any, limit, offset int) ([]Message, error)
	// MarkMessageSeen sets the seen flag; it never clears it.
	MarkMessageSeen(ctx context.Context, accountID, messageID string) error
	CountUnread(ctx context.Context, accountID string) (int, error)
}

// Config carries the optional dependencies for Service.
type Config struct {
	Clock func() time.Time
	NewID func() (string, error)
}

// Service orchestrates postcard delivery and mailbox reads.
type Service struct {
	store Store
	clock func() time.Time
	newID func() (string, error)
}

// NewService constructs mailbox domain use-cases.
func NewService(store Store, cfg Config) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := cfg.NewID
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		store: store,
		clock: clock,
		newID: newID,
	}
}

// SendInput identifies the sender, the recipient, and the postcard content.
type SendInput struct {
	FromID   string
	FromName string
	ToID     string
	Subject  string
	Body     string
}

// Send delivers a postcard to the recipient's mailbox.
func (s *Service) Send(ctx context.Context, input SendInput) (Message, error) {
	if s == nil || s.store == nil {
		return Message{}, ErrStoreNotConfigured
	}
	fromID := strings.TrimSpace(input.FromID)
	if fromID == "" {
		return Message{}, ErrSenderRequired
	}
	toID := strings.TrimSpace(input.ToID)
	if toID == "" {
		return Message{}, ErrRecipientRequired
	}
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return Message{}, apperrors.New(apperrors.CodeMessageSubjectEmpty, "message subject is empty")
	}
	if len(subject) > MaxSubjectLength {
		return Message{}, apperrors.WithMetadata(apperrors.CodeMessageSubjectTooLong, "message subject too long", map[string]string{
			"MaxLength": strconv.Itoa(MaxSubjectLength),
		})
	}
	body := strings.TrimSpace(input.Body)
	if len(body) > MaxBodyLength {
		return Message{}, apperrors.WithMetadata(apperrors.CodeMessageBodyTooLong, "message body too long", map[string]string{
			"MaxLength": strconv.Itoa(MaxBodyLength),
		})
	}

	messageID, err := s.newID()
	if err != nil {
		return Message{}, fmt.Errorf("generate message id: %w", err)
	}
	message := Message{
		ID:        messageID,
		FromID:    fromID,
		FromName:  strings.TrimSpace(input.FromName),
		ToID:      toID,
		Subject:   subject,
		Body:      body,
		CreatedAt: s.nowUTC(),
	}
	if err := s.store.AppendMessage(ctx, message); err != nil {
		return Message{}, err
	}
	return message, nil
}

// ListInput scopes a mailbox page to one account with an optional filter.
type ListInput struct {
	AccountID string
	// Filter is an AIP-160 expression over seen, from, and created_at.
	Filter   string
	Page     int
	PageSize int
}

// List returns one page of the account's messages, newest first.
func (s *Service) List(ctx context.Context, input ListInput) ([]Message, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	accountID := strings.TrimSpace(input.AccountID)
	if accountID == "" {
		return nil, ErrAccountIDRequired
	}

	cond, err := filter.ParseMessageFilter(input.Filter)
	if err != nil {
		return nil, apperrors.WrapWithMetadata(apperrors.CodeFilterInvalid, "invalid mailbox filter", map[string]string{
			"Detail": err.Error(),
		}, err)
	}

	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	page := input.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	return s.store.ListMessages(ctx, accountID, cond.Clause, cond.Params, pageSize, offset)
}

// MarkSeenInput identifies one message in the caller's mailbox.
type MarkSeenInput struct {
	AccountID string
	MessageID string
}

// MarkSeen returns the message and records that it has been read. Reading is
// idempotent and a seen flag is never cleared.
func (s *Service) MarkSeen(ctx context.Context, input MarkSeenInput) (Message, error) {
	if s == nil || s.store == nil {
		return Message{}, ErrStoreNotConfigured
	}
	accountID := strings.TrimSpace(input.AccountID)
	if accountID == "" {
		return Message{}, ErrAccountIDRequired
	}
	messageID := strings.TrimSpace(input.MessageID)
	if messageID == "" {
		return Message{}, ErrMessageIDRequired
	}

	message, err := s.store.GetMessage(ctx, accountID, messageID)
	if err != nil {
		return Message{}, err
	}
	if message.Seen {
		return message, nil
	}
	if err := s.store.MarkMessageSeen(ctx, accountID, messageID); err != nil {
		return Message{}, err
	}
	message.Seen = true
	return message, nil
}

// UnreadCount reports how many messages the account has not read yet.
func (s *Service) UnreadCount(ctx context.Context, accountID string) (int, error) {
	if s == nil || s.store == nil {
		return 0, ErrStoreNotConfigured
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return 0, ErrAccountIDRequired
	}
	return s.store.CountUnread(ctx, accountID)
}

func (s *Service) nowUTC() time.Time {
	return s.clock().UTC()
}
