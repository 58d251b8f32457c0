package server

import (
	"github.com/astralgarden/astral.garden/internal/services/garden/domain"
	gardensqlite "github.com/astralgarden/astral.garden/internal/services/garden/storage/sqlite"
)

// Garden owns the sqlite store and the lifecycle engine built on top of it.
type Garden struct {
	store   *gardensqlite.Store
	service *domain.Service
}

// Open opens the garden database at path and assembles the domain service.
func Open(path string, cfg domain.Config) (*Garden, error) {
	store, err := gardensqlite.Open(path)
	if err != nil {
		return nil, err
	}
	return &Garden{
		store:   store,
		service: domain.NewService(newDomainStoreAdapter(store), cfg),
	}, nil
}

// Service returns the garden domain service.
func (g *Garden) Service() *domain.Service {
	if g == nil {
		return nil
	}
	return g.service
}

// Close releases the underlying database.
func (g *Garden) Close() error {
	if g == nil || g.store == nil {
		return nil
	}
	return g.store.Close()
}
