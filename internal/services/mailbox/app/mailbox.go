package server

import (
	"github.com/astralgarden/astral.garden/internal/services/mailbox/domain"
	mailboxsqlite "github.com/astralgarden/astral.garden/internal/services/mailbox/storage/sqlite"
)

// Mailbox owns the sqlite store and the message use-cases built on top of it.
type Mailbox struct {
	store   *mailboxsqlite.Store
	service *domain.Service
}

// Open opens the mailbox database at path and assembles the domain service.
func Open(path string, cfg domain.Config) (*Mailbox, error) {
	store, err := mailboxsqlite.Open(path)
	if err != nil {
		return nil, err
	}
	return &Mailbox{
		store:   store,
		service: domain.NewService(newDomainStoreAdapter(store), cfg),
	}, nil
}

// Service returns the mailbox domain service.
func (m *Mailbox) Service() *domain.Service {
	if m == nil {
		return nil
	}
	return m.service
}

// Close releases the underlying database.
func (m *Mailbox) Close() error {
	if m == nil || m.store == nil {
		return nil
	}
	return m.store.Close()
}
