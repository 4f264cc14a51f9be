package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/accessride/internal/directory"
	"github.com/example/accessride/internal/dispatch"
	"github.com/example/accessride/internal/lifecycle"
	"github.com/example/accessride/internal/matching"
	"github.com/example/accessride/internal/models"
	"github.com/example/accessride/internal/storage"
)

var testSecret = []byte("test-secret")

type nopNotifier struct{}

func (nopNotifier) NotifyAssignment(ctx context.Context, driverID string, a models.Assignment) error {
	return nil
}

func newTestServer(t *testing.T) (*Server, *storage.MemoryStore, *directory.Index) {
	t.Helper()
	store := storage.NewMemoryStore()
	dir := directory.NewIndex()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl := lifecycle.NewController(store, store, dir, nopNotifier{}, logger)
	srv := NewServer(Options{
		Controller: ctrl,
		Matching:   matching.NewService(dir),
		Directory:  dir,
		WSReg:      dispatch.NewWSRegistry(),
		Logger:     logger,
		JWTSecret:  testSecret,
	})
	return srv, store, dir
}

func signToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func bookBody() map[string]any {
	return map[string]any{
		"pickup":  map[string]any{"geopoint": map[string]float64{"lat": 6.5244, "lon": 3.3792}},
		"dropoff": map[string]any{"geopoint": map[string]float64{"lat": 6.5354, "lon": 3.3892}},
	}
}

func TestBookRideRequiresAuth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/rides", "", bookBody())
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBookRideRejectsBadToken(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/rides", "not-a-token", bookBody())
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestBookRideMissingPickup(t *testing.T) {
	srv, _, _ := newTestServer(t)
	body := map[string]any{"dropoff": map[string]any{"geopoint": map[string]float64{"lat": 1, "lon": 1}}}
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/rides", signToken(t, "rider1"), body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBookRideHappyPath(t *testing.T) {
	srv, store, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/rides", signToken(t, "rider1"), bookBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		RideID string  `json:"ride_id"`
		Status string  `json:"status"`
		Fare   float64 `json:"fare"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "searching" {
		t.Fatalf("expected searching, got %s", resp.Status)
	}
	if resp.Fare <= 5 {
		t.Fatalf("expected fare above base, got %f", resp.Fare)
	}
	if _, err := store.GetRide(context.Background(), resp.RideID); err != nil {
		t.Fatalf("ride not persisted: %v", err)
	}
}

func TestBookRideBadScheduledTime(t *testing.T) {
	srv, _, _ := newTestServer(t)
	body := bookBody()
	body["scheduled_time"] = "tomorrow-ish"
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/rides", signToken(t, "rider1"), body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func bookRide(t *testing.T, srv *Server, rider string) string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/rides", signToken(t, rider), bookBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("book ride: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		RideID string `json:"ride_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.RideID
}

func TestAssignAndStatusFlow(t *testing.T) {
	srv, _, dir := newTestServer(t)
	if err := dir.Upsert(context.Background(), models.Driver{ID: "driver1", UserID: "user-d1", Available: true}); err != nil {
		t.Fatalf("seed driver: %v", err)
	}
	rideID := bookRide(t, srv, "rider1")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/rides/"+rideID+"/assign", signToken(t, "rider1"),
		map[string]string{"driver_id": "driver1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("assign: %d %s", rec.Code, rec.Body.String())
	}

	// second assign loses the race deterministically
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/rides/"+rideID+"/assign", signToken(t, "rider1"),
		map[string]string{"driver_id": "driver2"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on re-assign, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/rides/"+rideID+"/status", signToken(t, "driver1"),
		map[string]string{"new_status": "in_progress"})
	if rec.Code != http.StatusOK {
		t.Fatalf("driver status update: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success bool   `json:"success"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Status != "in_progress" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestStatusUpdateErrorMapping(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rideID := bookRide(t, srv, "rider1")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/rides/unknown/status", signToken(t, "rider1"),
		map[string]string{"new_status": "completed"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/rides/"+rideID+"/status", signToken(t, "rider1"),
		map[string]string{"new_status": "flying"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/rides/"+rideID+"/status", signToken(t, "intruder"),
		map[string]string{"new_status": "completed"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var resp struct {
		Error struct {
			Status string `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Status != "permission-denied" {
		t.Fatalf("expected permission-denied, got %q", resp.Error.Status)
	}
}

func TestCandidatesEndpoint(t *testing.T) {
	srv, _, dir := newTestServer(t)
	seed := []models.Driver{
		{ID: "d1", Available: true, Vehicle: models.Vehicle{Features: []string{"wheelchair"}}},
		{ID: "d2", Available: true, Vehicle: models.Vehicle{Features: []string{"assistance"}}},
		{ID: "d3", Available: false, Vehicle: models.Vehicle{Features: []string{"wheelchair"}}},
	}
	for _, d := range seed {
		if err := dir.Upsert(context.Background(), d); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/drivers/candidates?options=wheelchair", signToken(t, "rider1"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("candidates: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Drivers []models.Driver `json:"drivers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Drivers) != 1 || resp.Drivers[0].ID != "d1" {
		t.Fatalf("expected only d1, got %+v", resp.Drivers)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/drivers/candidates?options=hoverboard", signToken(t, "rider1"), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown option, got %d", rec.Code)
	}
}

func TestDriverLocationIngest(t *testing.T) {
	srv, _, dir := newTestServer(t)
	d := models.Driver{
		ID: "driver9", UserID: "user-d9", Available: true,
		Loc: models.Location{Geopoint: models.Coord{Lat: 6.52, Lon: 3.37}},
	}
	rec := doJSON(t, srv, http.MethodPost, "/internal/driver/locations", "", d)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	got, err := dir.Get(context.Background(), "driver9")
	if err != nil {
		t.Fatalf("driver not in directory: %v", err)
	}
	if !got.Available {
		t.Fatalf("availability lost on ingest: %+v", got)
	}
}
