package dispatch

import (
	"context"
	"log/slog"

	"github.com/example/accessride/internal/models"
)

// Notifier alerts a driver that a ride was assigned to them. Delivery is
// best-effort: callers log failures and move on, an undelivered alert never
// rolls back an assignment.
type Notifier interface {
	NotifyAssignment(ctx context.Context, driverID string, a models.Assignment) error
}

// LogNotifier is the no-transport fallback used in local runs.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l *LogNotifier) NotifyAssignment(ctx context.Context, driverID string, a models.Assignment) error {
	l.Logger.Info("assignment notification", "driver_id", driverID, "ride_id", a.RideID, "fare", a.Fare)
	return nil
}
