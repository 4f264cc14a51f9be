package storage

import (
	"context"
	"sync"
	"time"

	"github.com/example/accessride/internal/apperrors"
	"github.com/example/accessride/internal/models"
)

// RideStore defines persistence for ride records. Rides are never deleted;
// terminal states are retained for history.
type RideStore interface {
	CreateRide(ctx context.Context, r *models.Ride) error
	GetRide(ctx context.Context, id string) (*models.Ride, error)
	// AssignDriver sets the driver and flips status to assigned, but only
	// while the ride is still searching. A lost race yields Conflict.
	AssignDriver(ctx context.Context, id, driverID string) (*models.Ride, error)
	// UpdateStatus persists the new status and bumps updated_at.
	UpdateStatus(ctx context.Context, id string, status models.RideStatus) error
}

// HistoryStore persists the immutable per-party trip snapshots.
type HistoryStore interface {
	AppendHistory(ctx context.Context, rec *models.RideHistory) error
	HistoryForRide(ctx context.Context, rideID string) ([]models.RideHistory, error)
}

// MemoryStore backs both stores with mutex-guarded maps. Used by tests and
// by local runs without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	rides   map[string]*models.Ride
	history []models.RideHistory
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rides: make(map[string]*models.Ride)}
}

func (m *MemoryStore) CreateRide(ctx context.Context, r *models.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.rides[r.ID] = &cp
	return nil
}

func (m *MemoryStore) GetRide(ctx context.Context, id string) (*models.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, apperrors.E(apperrors.NotFound, "ride not found")
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) AssignDriver(ctx context.Context, id, driverID string) (*models.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, apperrors.E(apperrors.NotFound, "ride not found")
	}
	if r.Status != models.StatusSearching {
		return nil, apperrors.E(apperrors.Conflict, "ride is no longer searching")
	}
	r.DriverID = driverID
	r.Status = models.StatusAssigned
	r.UpdatedAt = time.Now()
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) UpdateStatus(ctx context.Context, id string, status models.RideStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return apperrors.E(apperrors.NotFound, "ride not found")
	}
	r.Status = status
	r.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) AppendHistory(ctx context.Context, rec *models.RideHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, *rec)
	return nil
}

func (m *MemoryStore) HistoryForRide(ctx context.Context, rideID string) ([]models.RideHistory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.RideHistory
	for _, h := range m.history {
		if h.RideID == rideID {
			out = append(out, h)
		}
	}
	return out, nil
}
