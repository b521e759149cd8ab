package service

import (
	"context"
	"sync"

	"github.com/Zytronium/star-trek-battle-sim/internal/model"
	"github.com/Zytronium/star-trek-battle-sim/internal/repository"
)

// ShipCatalog is the read-only lookup the battle engine needs to build
// runtime ships. Tests substitute a stub.
type ShipCatalog interface {
	GetShipFullByID(ctx context.Context, id int) (*model.ShipTemplate, error)
}

// CatalogService wraps the catalog repository with a template cache.
// Templates are immutable, so cached pointers are safely shared across
// sessions.
type CatalogService struct {
	repo *repository.CatalogRepository

	mu    sync.RWMutex
	cache map[int]*model.ShipTemplate
}

func NewCatalogService(repo *repository.CatalogRepository) *CatalogService {
	return &CatalogService{
		repo:  repo,
		cache: make(map[int]*model.ShipTemplate),
	}
}

func (s *CatalogService) GetShipFullByID(ctx context.Context, id int) (*model.ShipTemplate, error) {
	s.mu.RLock()
	tpl, ok := s.cache[id]
	s.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	tpl, err := s.repo.GetShipFullByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[id] = tpl
	s.mu.Unlock()
	return tpl, nil
}

func (s *CatalogService) ListShips(ctx context.Context) ([]model.Ship, error) {
	return s.repo.ListShips(ctx)
}

func (s *CatalogService) ListBosses(ctx context.Context) ([]model.Ship, error) {
	return s.repo.ListBosses(ctx)
}

func (s *CatalogService) ListShipsFull(ctx context.Context) ([]*model.ShipTemplate, error) {
	return s.repo.ListShipsFull(ctx)
}

func (s *CatalogService) GetShipByID(ctx context.Context, id int) (*model.Ship, error) {
	return s.repo.GetShipByID(ctx, id)
}

func (s *CatalogService) GetWeaponByID(ctx context.Context, id int) (*model.Weapon, error) {
	return s.repo.GetWeaponByID(ctx, id)
}

func (s *CatalogService) GetDefenseByID(ctx context.Context, id int) (*model.Defense, error) {
	return s.repo.GetDefenseByID(ctx, id)
}
