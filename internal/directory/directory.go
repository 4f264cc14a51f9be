package directory

import (
	"context"
	"sync"
	"time"

	"github.com/example/accessride/internal/apperrors"
	"github.com/example/accessride/internal/models"
)

// DriverDirectory is the queryable set of drivers consulted during
// matching and history fan-out.
type DriverDirectory interface {
	// Available lists drivers currently accepting rides, in the
	// directory's natural enumeration order.
	Available(ctx context.Context) ([]models.Driver, error)
	Get(ctx context.Context, id string) (*models.Driver, error)
	Upsert(ctx context.Context, d models.Driver) error
	SetAvailability(ctx context.Context, id string, available bool) error
}

// Index is the in-memory directory. Enumeration follows insertion order.
type Index struct {
	mu      sync.RWMutex
	order   []string
	drivers map[string]models.Driver
}

func NewIndex() *Index {
	return &Index{drivers: make(map[string]models.Driver)}
}

func (x *Index) Upsert(ctx context.Context, d models.Driver) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	d.Updated = time.Now()
	if _, ok := x.drivers[d.ID]; !ok {
		x.order = append(x.order, d.ID)
	}
	x.drivers[d.ID] = d
	return nil
}

func (x *Index) Get(ctx context.Context, id string) (*models.Driver, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	d, ok := x.drivers[id]
	if !ok {
		return nil, apperrors.E(apperrors.NotFound, "driver not found")
	}
	return &d, nil
}

func (x *Index) SetAvailability(ctx context.Context, id string, available bool) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	d, ok := x.drivers[id]
	if !ok {
		return apperrors.E(apperrors.NotFound, "driver not found")
	}
	d.Available = available
	d.Updated = time.Now()
	x.drivers[id] = d
	return nil
}

func (x *Index) Available(ctx context.Context) ([]models.Driver, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]models.Driver, 0, len(x.order))
	for _, id := range x.order {
		d := x.drivers[id]
		if d.Available {
			out = append(out, d)
		}
	}
	return out, nil
}
