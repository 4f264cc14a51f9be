package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/accessride/internal/apperrors"
	"github.com/example/accessride/internal/models"
)

// PostgresStore implements RideStore and HistoryStore on lib/pq. Location
// and driver-summary columns hold JSON so the schema stays close to the
// document shape the clients exchange.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) CreateRide(ctx context.Context, r *models.Ride) error {
	pickup, err := json.Marshal(r.Pickup)
	if err != nil {
		return fmt.Errorf("marshal pickup: %w", err)
	}
	dropoff, err := json.Marshal(r.Dropoff)
	if err != nil {
		return fmt.Errorf("marshal dropoff: %w", err)
	}
	access, err := json.Marshal(r.Accessibility)
	if err != nil {
		return fmt.Errorf("marshal accessibility: %w", err)
	}
	var scheduled sql.NullTime
	if r.ScheduledAt != nil {
		scheduled = sql.NullTime{Time: *r.ScheduledAt, Valid: true}
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO rides(id, rider_id, pickup, dropoff, status, fare, accessibility, scheduled_at, driver_id, created_at, updated_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,''),$10,$11)`,
		r.ID, r.RiderID, pickup, dropoff, string(r.Status), r.Fare, access, scheduled, r.DriverID, r.CreatedAt, r.UpdatedAt)
	return err
}

func (p *PostgresStore) GetRide(ctx context.Context, id string) (*models.Ride, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id, rider_id, pickup, dropoff, status, fare, accessibility, scheduled_at, COALESCE(driver_id,''), created_at, updated_at
		 FROM rides WHERE id=$1`, id)
	var (
		r                       models.Ride
		pickup, dropoff, access []byte
		status                  string
		scheduled               sql.NullTime
	)
	err := row.Scan(&r.ID, &r.RiderID, &pickup, &dropoff, &status, &r.Fare, &access, &scheduled, &r.DriverID, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.E(apperrors.NotFound, "ride not found")
	}
	if err != nil {
		return nil, err
	}
	r.Status = models.RideStatus(status)
	if err := json.Unmarshal(pickup, &r.Pickup); err != nil {
		return nil, fmt.Errorf("unmarshal pickup: %w", err)
	}
	if err := json.Unmarshal(dropoff, &r.Dropoff); err != nil {
		return nil, fmt.Errorf("unmarshal dropoff: %w", err)
	}
	if err := json.Unmarshal(access, &r.Accessibility); err != nil {
		return nil, fmt.Errorf("unmarshal accessibility: %w", err)
	}
	if scheduled.Valid {
		t := scheduled.Time
		r.ScheduledAt = &t
	}
	return &r, nil
}

// AssignDriver is a compare-and-set keyed on status, so two concurrent
// assignments cannot both win.
func (p *PostgresStore) AssignDriver(ctx context.Context, id, driverID string) (*models.Ride, error) {
	res, err := p.db.ExecContext(ctx,
		`UPDATE rides SET driver_id=$1, status=$2, updated_at=$3 WHERE id=$4 AND status=$5`,
		driverID, string(models.StatusAssigned), time.Now(), id, string(models.StatusSearching))
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Distinguish a missing ride from a lost race.
		if _, err := p.GetRide(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperrors.E(apperrors.Conflict, "ride is no longer searching")
	}
	return p.GetRide(ctx, id)
}

func (p *PostgresStore) UpdateStatus(ctx context.Context, id string, status models.RideStatus) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE rides SET status=$1, updated_at=$2 WHERE id=$3`,
		string(status), time.Now(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.E(apperrors.NotFound, "ride not found")
	}
	return nil
}

func (p *PostgresStore) AppendHistory(ctx context.Context, rec *models.RideHistory) error {
	pickup, err := json.Marshal(rec.Pickup)
	if err != nil {
		return fmt.Errorf("marshal pickup: %w", err)
	}
	dropoff, err := json.Marshal(rec.Dropoff)
	if err != nil {
		return fmt.Errorf("marshal dropoff: %w", err)
	}
	var driver []byte
	if rec.Driver != nil {
		if driver, err = json.Marshal(rec.Driver); err != nil {
			return fmt.Errorf("marshal driver summary: %w", err)
		}
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO ride_history(user_id, ride_id, pickup, dropoff, fare, driver, created_at, updated_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
		rec.UserID, rec.RideID, pickup, dropoff, rec.Fare, driver, rec.CreatedAt, rec.UpdatedAt)
	return err
}

func (p *PostgresStore) HistoryForRide(ctx context.Context, rideID string) ([]models.RideHistory, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT user_id, ride_id, pickup, dropoff, fare, driver, created_at, updated_at
		 FROM ride_history WHERE ride_id=$1 ORDER BY created_at`, rideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.RideHistory
	for rows.Next() {
		var (
			h               models.RideHistory
			pickup, dropoff []byte
			driver          []byte
		)
		if err := rows.Scan(&h.UserID, &h.RideID, &pickup, &dropoff, &h.Fare, &driver, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(pickup, &h.Pickup); err != nil {
			return nil, fmt.Errorf("unmarshal pickup: %w", err)
		}
		if err := json.Unmarshal(dropoff, &h.Dropoff); err != nil {
			return nil, fmt.Errorf("unmarshal dropoff: %w", err)
		}
		if len(driver) > 0 {
			h.Driver = &models.DriverSummary{}
			if err := json.Unmarshal(driver, h.Driver); err != nil {
				return nil, fmt.Errorf("unmarshal driver summary: %w", err)
			}
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (p *PostgresStore) Close() error { return p.db.Close() }
