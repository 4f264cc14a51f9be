package lifecycle

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/example/accessride/internal/apperrors"
	"github.com/example/accessride/internal/directory"
	"github.com/example/accessride/internal/dispatch"
	"github.com/example/accessride/internal/fare"
	"github.com/example/accessride/internal/geo"
	"github.com/example/accessride/internal/ingest"
	"github.com/example/accessride/internal/models"
	"github.com/example/accessride/internal/observability"
	"github.com/example/accessride/internal/payments"
	"github.com/example/accessride/internal/storage"
)

// EventPublisher decouples the controller from the Kafka producer. Ride
// events are best-effort.
type EventPublisher interface {
	PublishRideEvent(ev ingest.RideEvent) error
}

// Controller drives ride status transitions and the side effects hanging
// off them. All collaborators are injected; there is no ambient state.
type Controller struct {
	Rides    storage.RideStore
	History  storage.HistoryStore
	Drivers  directory.DriverDirectory
	Notifier dispatch.Notifier
	Payments payments.Gateway // optional
	Events   EventPublisher   // optional
	Logger   *slog.Logger

	SpeedKmh float64
	Rates    fare.Rates
	Currency string
}

func NewController(rides storage.RideStore, history storage.HistoryStore, drivers directory.DriverDirectory, notifier dispatch.Notifier, logger *slog.Logger) *Controller {
	return &Controller{
		Rides:    rides,
		History:  history,
		Drivers:  drivers,
		Notifier: notifier,
		Logger:   logger,
		SpeedKmh: geo.DefaultSpeedKmh,
		Rates:    fare.DefaultRates,
		Currency: "usd",
	}
}

// Create books a new ride: quote distance and duration, price it, normalize
// the accessibility tags and persist the ride in searching state.
func (c *Controller) Create(ctx context.Context, riderID string, pickup, dropoff *models.Location, options []string, scheduledAt *time.Time) (*models.Ride, error) {
	if riderID == "" {
		return nil, apperrors.E(apperrors.Unauthenticated, "caller identity required")
	}
	if pickup == nil || dropoff == nil {
		return nil, apperrors.E(apperrors.InvalidArgument, "pickup and dropoff locations are required")
	}
	if err := models.ValidateOptions(options); err != nil {
		return nil, apperrors.E(apperrors.InvalidArgument, err.Error())
	}

	est := geo.EstimateTrip(pickup.Geopoint, dropoff.Geopoint, c.SpeedKmh)
	amount := c.Rates.Compute(est.DistanceKm, est.DurationHours)

	now := time.Now()
	ride := &models.Ride{
		ID:            newID(),
		RiderID:       riderID,
		Pickup:        *pickup,
		Dropoff:       *dropoff,
		Status:        models.StatusSearching,
		Fare:          amount,
		Accessibility: models.NormalizeOptions(options),
		ScheduledAt:   scheduledAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := c.Rides.CreateRide(ctx, ride); err != nil {
		return nil, fmt.Errorf("create ride: %w", err)
	}
	observability.RidesCreated.Inc()
	c.Logger.Info("ride created",
		"ride_id", ride.ID, "rider_id", riderID,
		"distance_km", est.DistanceKm, "fare", amount,
		"scheduled", scheduledAt != nil)
	c.publishEvent(ride)
	return ride, nil
}

// Assign transitions a searching ride to assigned. The store performs the
// write as a compare-and-set keyed on the searching status, so a double
// assignment loses with Conflict instead of overwriting the first driver.
// The driver alert is fire-and-forget.
func (c *Controller) Assign(ctx context.Context, rideID, driverID, callerID string) (*models.Ride, error) {
	if callerID == "" {
		return nil, apperrors.E(apperrors.Unauthenticated, "caller identity required")
	}
	if driverID == "" {
		return nil, apperrors.E(apperrors.InvalidArgument, "driver id is required")
	}
	current, err := c.Rides.GetRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if callerID != current.RiderID {
		return nil, apperrors.E(apperrors.PermissionDenied, "only the rider can assign a driver")
	}

	ride, err := c.Rides.AssignDriver(ctx, rideID, driverID)
	if err != nil {
		return nil, err
	}
	observability.RidesAssigned.Inc()
	c.Logger.Info("driver assigned", "ride_id", rideID, "driver_id", driverID)

	if err := c.Notifier.NotifyAssignment(ctx, driverID, models.Assignment{
		RideID: ride.ID,
		Pickup: ride.Pickup,
		Fare:   ride.Fare,
	}); err != nil {
		observability.NotifyFailures.Inc()
		c.Logger.Warn("assignment notification failed", "ride_id", rideID, "driver_id", driverID, "error", err)
	}
	c.publishEvent(ride)
	return ride, nil
}

// UpdateStatus moves a ride to newStatus on behalf of callerID and runs the
// transition's side effects in order. Inter-state moves stay as permissive
// as the original flow (completing straight from assigned is allowed), but
// terminal states are frozen: a second completion fails with Conflict and
// writes nothing, so history stays exactly-once.
func (c *Controller) UpdateStatus(ctx context.Context, rideID string, newStatus models.RideStatus, callerID string) (models.RideStatus, error) {
	if callerID == "" {
		return "", apperrors.E(apperrors.Unauthenticated, "caller identity required")
	}
	if !models.ValidStatuses[newStatus] {
		return "", apperrors.E(apperrors.InvalidArgument, fmt.Sprintf("invalid status %q", newStatus))
	}
	ride, err := c.Rides.GetRide(ctx, rideID)
	if err != nil {
		return "", err
	}
	if callerID != ride.RiderID && (ride.DriverID == "" || callerID != ride.DriverID) {
		return "", apperrors.E(apperrors.PermissionDenied, "not authorized to update this ride")
	}
	if ride.Status.Terminal() {
		return "", apperrors.E(apperrors.Conflict, fmt.Sprintf("ride already %s", ride.Status))
	}

	if err := c.Rides.UpdateStatus(ctx, rideID, newStatus); err != nil {
		return "", err
	}
	ride.Status = newStatus
	switch newStatus {
	case models.StatusCompleted:
		observability.RidesCompleted.Inc()
	case models.StatusCancelled:
		observability.RidesCancelled.Inc()
	}

	// The status write above is already committed; effect failures cannot
	// roll it back. Each effect declares whether its failure surfaces to
	// the caller or is logged and swallowed.
	var firstErr error
	for _, e := range c.effectsFor(ride) {
		if err := e.run(ctx); err != nil {
			observability.EffectFailures.WithLabelValues(e.name).Inc()
			c.Logger.Error("transition effect failed",
				"effect", e.name, "ride_id", ride.ID, "status", newStatus, "error", err)
			if e.policy == abortParent && firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", e.name, err)
			}
		}
	}
	if firstErr != nil {
		return newStatus, firstErr
	}
	return newStatus, nil
}

type effectPolicy int

const (
	abortParent effectPolicy = iota
	logAndContinue
)

type effect struct {
	name   string
	policy effectPolicy
	run    func(ctx context.Context) error
}

func (c *Controller) effectsFor(ride *models.Ride) []effect {
	var effects []effect
	if ride.Status == models.StatusCompleted {
		effects = append(effects,
			effect{name: "rider_history", policy: abortParent, run: func(ctx context.Context) error {
				return c.writeRiderHistory(ctx, ride)
			}},
			effect{name: "driver_history", policy: logAndContinue, run: func(ctx context.Context) error {
				return c.writeDriverHistory(ctx, ride)
			}},
			effect{name: "settle_fare", policy: logAndContinue, run: func(ctx context.Context) error {
				return c.settleFare(ctx, ride)
			}},
		)
	}
	effects = append(effects, effect{name: "publish_event", policy: logAndContinue, run: func(ctx context.Context) error {
		return c.publishEventErr(ride)
	}})
	return effects
}

func (c *Controller) snapshot(ride *models.Ride) models.RideHistory {
	return models.RideHistory{
		RideID:    ride.ID,
		Pickup:    ride.Pickup,
		Dropoff:   ride.Dropoff,
		Fare:      ride.Fare,
		CreatedAt: ride.CreatedAt,
		UpdatedAt: time.Now(),
	}
}

func (c *Controller) writeRiderHistory(ctx context.Context, ride *models.Ride) error {
	rec := c.snapshot(ride)
	rec.UserID = ride.RiderID
	if ride.DriverID != "" {
		if d, err := c.Drivers.Get(ctx, ride.DriverID); err == nil {
			rec.Driver = models.Summarize(d)
		}
	}
	if err := c.History.AppendHistory(ctx, &rec); err != nil {
		return err
	}
	observability.HistoryWrites.Inc()
	return nil
}

// writeDriverHistory mirrors the trip into the driver's own history, keyed
// by the account that owns the driver profile. A missing driver record or
// one without an owning account skips the write without failing.
func (c *Controller) writeDriverHistory(ctx context.Context, ride *models.Ride) error {
	if ride.DriverID == "" {
		return nil
	}
	d, err := c.Drivers.Get(ctx, ride.DriverID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.NotFound {
			c.Logger.Warn("driver record missing, skipping driver history", "ride_id", ride.ID, "driver_id", ride.DriverID)
			return nil
		}
		return err
	}
	if d.UserID == "" {
		c.Logger.Warn("driver has no owning account, skipping driver history", "ride_id", ride.ID, "driver_id", ride.DriverID)
		return nil
	}
	rec := c.snapshot(ride)
	rec.UserID = d.UserID
	rec.Driver = models.Summarize(d)
	if err := c.History.AppendHistory(ctx, &rec); err != nil {
		return err
	}
	observability.HistoryWrites.Inc()
	return nil
}

func (c *Controller) settleFare(ctx context.Context, ride *models.Ride) error {
	if c.Payments == nil {
		return nil
	}
	cents := int64(math.Round(ride.Fare * 100))
	holdID, err := c.Payments.Hold(ctx, cents, c.Currency, ride.RiderID)
	if err != nil {
		return fmt.Errorf("hold: %w", err)
	}
	if err := c.Payments.Capture(ctx, holdID); err != nil {
		return fmt.Errorf("capture %s: %w", holdID, err)
	}
	return nil
}

func (c *Controller) publishEventErr(ride *models.Ride) error {
	if c.Events == nil {
		return nil
	}
	return c.Events.PublishRideEvent(ingest.RideEvent{
		RideID:   ride.ID,
		RiderID:  ride.RiderID,
		DriverID: ride.DriverID,
		Status:   ride.Status,
		At:       time.Now(),
	})
}

func (c *Controller) publishEvent(ride *models.Ride) {
	if err := c.publishEventErr(ride); err != nil {
		observability.EffectFailures.WithLabelValues("publish_event").Inc()
		c.Logger.Warn("ride event publish failed", "ride_id", ride.ID, "error", err)
	}
}

func newID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
