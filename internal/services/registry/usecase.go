package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/NordCoder/Krymon/internal/domain/service"
	"github.com/google/uuid"
)

// Usecase owns every read-modify-write over the shared store. Mutations are
// serialized by mu so concurrent writers cannot lose each other's updates.
type Usecase struct {
	store service.Store
	clk   func() time.Time
	newID func() string

	mu sync.Mutex
}

type Option func(*Usecase)

func WithClock(clk func() time.Time) Option {
	return func(u *Usecase) { u.clk = clk }
}

func WithIDGenerator(gen func() string) Option {
	return func(u *Usecase) { u.newID = gen }
}

func New(store service.Store, opts ...Option) *Usecase {
	u := &Usecase{
		store: store,
		clk:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

func (u *Usecase) Store() service.Store { return u.store }

func (u *Usecase) List(ctx context.Context) (service.Registry, error) {
	return u.store.LoadOrEmpty(ctx)
}

// Add registers a new service in state UNKNOWN and returns it.
func (u *Usecase) Add(ctx context.Context, in service.NewService) (service.Service, error) {
	svc := service.Service{
		ID:        u.newID(),
		Name:      in.Name,
		URL:       in.URL,
		Status:    service.StatusUnknown,
		LastCheck: u.clk().UTC(),
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	current, err := u.store.LoadOrEmpty(ctx)
	if err != nil {
		return service.Service{}, fmt.Errorf("load registry: %w", err)
	}
	if current.IndexOf(svc.ID) >= 0 {
		return service.Service{}, fmt.Errorf("generated id %s already registered", svc.ID)
	}
	if err := u.store.Save(ctx, current.With(svc)); err != nil {
		return service.Service{}, fmt.Errorf("save registry: %w", err)
	}
	return svc, nil
}

// Delete removes the service with exactly this id. It reports false, and
// writes nothing, when no such service exists.
func (u *Usecase) Delete(ctx context.Context, id string) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	current, err := u.store.LoadOrEmpty(ctx)
	if err != nil {
		return false, fmt.Errorf("load registry: %w", err)
	}
	next, removed := current.Without(id)
	if !removed {
		return false, nil
	}
	if err := u.store.Save(ctx, next); err != nil {
		return false, fmt.Errorf("save registry: %w", err)
	}
	return true, nil
}

// ApplyProbes merges probe results onto the registry as it is now, not as it
// was when probing started, and persists the result.
func (u *Usecase) ApplyProbes(ctx context.Context, probed []service.Service) (service.Registry, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	current, err := u.store.LoadOrEmpty(ctx)
	if err != nil {
		return service.Registry{}, fmt.Errorf("load registry: %w", err)
	}
	merged := current.Merge(probed)
	if err := u.store.Save(ctx, merged); err != nil {
		return service.Registry{}, fmt.Errorf("save registry: %w", err)
	}
	return merged, nil
}
