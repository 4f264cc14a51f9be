package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/accessride/internal/directory"
	"github.com/example/accessride/internal/dispatch"
	"github.com/example/accessride/internal/ingest"
	"github.com/example/accessride/internal/lifecycle"
	"github.com/example/accessride/internal/matching"
)

// Server is the HTTP API surface: booking, status updates, driver
// candidates, driver location ingest and the driver websocket.
type Server struct {
	Controller *lifecycle.Controller
	Matching   *matching.Service
	Directory  directory.DriverDirectory
	Kafka      *ingest.KafkaProducer // optional
	WSReg      *dispatch.WSRegistry

	logger    *slog.Logger
	jwtSecret []byte
	mux       *mux.Router
}

type Options struct {
	Controller *lifecycle.Controller
	Matching   *matching.Service
	Directory  directory.DriverDirectory
	Kafka      *ingest.KafkaProducer
	WSReg      *dispatch.WSRegistry
	Logger     *slog.Logger
	JWTSecret  []byte
}

func NewServer(opts Options) *Server {
	s := &Server{
		Controller: opts.Controller,
		Matching:   opts.Matching,
		Directory:  opts.Directory,
		Kafka:      opts.Kafka,
		WSReg:      opts.WSReg,
		logger:     opts.Logger,
		jwtSecret:  opts.JWTSecret,
		mux:        mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.mux.PathPrefix("/api/v1").Subrouter()
	api.Use(s.authMiddleware)
	api.HandleFunc("/rides", s.handleBookRide).Methods("POST")
	api.HandleFunc("/rides/{ride_id}/status", s.handleUpdateStatus).Methods("POST")
	api.HandleFunc("/rides/{ride_id}/assign", s.handleAssignDriver).Methods("POST")
	api.HandleFunc("/drivers/candidates", s.handleCandidates).Methods("GET")

	s.mux.HandleFunc("/internal/driver/locations", s.handleDriverLocation).Methods("POST")
	s.mux.HandleFunc("/ws/{driver_id}", s.handleWS)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func newID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
