package application

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Repository persists applications.
type Repository interface {
	Create(ctx context.Context, app Application) error
	Get(ctx context.Context, id uuid.UUID) (Application, error)
	// List returns applications newest first.
	List(ctx context.Context) ([]Application, error)
	Update(ctx context.Context, app Application) error
}

// MemoryRepository is an in-process Repository.
type MemoryRepository struct {
	mu    sync.RWMutex
	apps  map[uuid.UUID]Application
	order []uuid.UUID
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{apps: make(map[uuid.UUID]Application)}
}

func (r *MemoryRepository) Create(_ context.Context, app Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps[app.ID] = app
	r.order = append(r.order, app.ID)
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.apps[id]
	if !ok {
		return Application{}, ErrNotFound
	}
	return app, nil
}

func (r *MemoryRepository) List(_ context.Context) ([]Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	apps := make([]Application, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		apps = append(apps, r.apps[r.order[i]])
	}
	return apps, nil
}

func (r *MemoryRepository) Update(_ context.Context, app Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.apps[app.ID]; !ok {
		return ErrNotFound
	}
	r.apps[app.ID] = app
	return nil
}
