package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/example/accessride/internal/apperrors"
	"github.com/example/accessride/internal/models"
	"github.com/example/accessride/internal/observability"
)

type bookRideRequest struct {
	Pickup        *models.Location `json:"pickup"`
	Dropoff       *models.Location `json:"dropoff"`
	Options       []string         `json:"accessibility_options"`
	ScheduledTime string           `json:"scheduled_time,omitempty"` // RFC3339, absent for on-demand
}

func (s *Server) handleBookRide(w http.ResponseWriter, r *http.Request) {
	var req bookRideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.E(apperrors.InvalidArgument, "malformed request body", err))
		return
	}
	var scheduled *time.Time
	if req.ScheduledTime != "" {
		t, err := time.Parse(time.RFC3339, req.ScheduledTime)
		if err != nil {
			writeError(w, apperrors.E(apperrors.InvalidArgument, "scheduled_time must be RFC3339", err))
			return
		}
		scheduled = &t
	}
	ride, err := s.Controller.Create(r.Context(), callerID(r.Context()), req.Pickup, req.Dropoff, req.Options, scheduled)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ride_id": ride.ID,
		"status":  ride.Status,
		"fare":    ride.Fare,
	})
}

type updateStatusRequest struct {
	NewStatus string `json:"new_status"`
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	rideID := mux.Vars(r)["ride_id"]
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.E(apperrors.InvalidArgument, "malformed request body", err))
		return
	}
	status, err := s.Controller.UpdateStatus(r.Context(), rideID, models.RideStatus(req.NewStatus), callerID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": status})
}

type assignRequest struct {
	DriverID string `json:"driver_id"`
}

func (s *Server) handleAssignDriver(w http.ResponseWriter, r *http.Request) {
	rideID := mux.Vars(r)["ride_id"]
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.E(apperrors.InvalidArgument, "malformed request body", err))
		return
	}
	ride, err := s.Controller.Assign(r.Context(), rideID, req.DriverID, callerID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"status":    ride.Status,
		"driver_id": ride.DriverID,
	})
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	var options []string
	if raw := r.URL.Query().Get("options"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				options = append(options, o)
			}
		}
	}
	if err := models.ValidateOptions(options); err != nil {
		writeError(w, apperrors.E(apperrors.InvalidArgument, err.Error()))
		return
	}
	drivers, err := s.Matching.FindCandidates(r.Context(), options)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"drivers": drivers})
}

// handleDriverLocation ingests a driver location/availability report:
// publish to Kafka when configured, then update the directory directly so
// local runs work without a broker.
func (s *Server) handleDriverLocation(w http.ResponseWriter, r *http.Request) {
	var d models.Driver
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, apperrors.E(apperrors.InvalidArgument, "malformed driver report", err))
		return
	}
	if d.ID == "" {
		writeError(w, apperrors.E(apperrors.InvalidArgument, "driver id is required"))
		return
	}
	if s.Kafka != nil {
		if err := s.Kafka.PublishLocation(d); err != nil {
			s.logger.Warn("location publish failed", "driver_id", d.ID, "error", err)
		}
	}
	if err := s.Directory.Upsert(r.Context(), d); err != nil {
		writeError(w, err)
		return
	}
	observability.DriversUpserted.Inc()
	w.WriteHeader(http.StatusNoContent)
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["driver_id"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return // Upgrade already replied
	}
	s.WSReg.Add(id, conn)
	go func() {
		defer s.WSReg.Remove(id)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				_ = conn.Close()
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	kind := apperrors.KindOf(err)
	writeJSON(w, apperrors.HTTPStatus(kind), map[string]any{
		"error": map[string]string{
			"status":  kind.String(),
			"message": apperrors.Message(err),
		},
	})
}
