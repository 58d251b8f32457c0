package server

import (
	"github.com/astralgarden/astral.garden/internal/services/identity/domain"
	identitysqlite "github.com/astralgarden/astral.garden/internal/services/identity/storage/sqlite"
)

// Identity owns the sqlite store and the account use-cases built on top of it.
type Identity struct {
	store   *identitysqlite.Store
	service *domain.Service
}

// Open opens the identity database at path and assembles the domain service.
func Open(path string, cfg domain.Config) (*Identity, error) {
	store, err := identitysqlite.Open(path)
	if err != nil {
		return nil, err
	}
	return &Identity{
		store:   store,
		service: domain.NewService(newDomainStoreAdapter(store), cfg),
	}, nil
}

// Service returns the identity domain service.
func (i *Identity) Service() *domain.Service {
	if i == nil {
		return nil
	}
	return i.service
}

// Close releases the underlying database.
func (i *Identity) Close() error {
	if i == nil || i.store == nil {
		return nil
	}
	return i.store.Close()
}
