// Package server exposes the JSON HTTP API over gorilla/mux.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/moneysplitter/backend/internal/expense"
	"github.com/moneysplitter/backend/internal/settlement"
	"github.com/moneysplitter/backend/internal/storage"
)

// Server owns the router and the services behind it.
type Server struct {
	router  *mux.Router
	store   storage.Store
	manager *expense.Manager
	tracker *settlement.Tracker
}

// New creates a Server wired to the given store and services.
func New(store storage.Store, manager *expense.Manager, tracker *settlement.Tracker) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		store:   store,
		manager: manager,
		tracker: tracker,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Users
	api.HandleFunc("/users", s.handleCreateUser).Methods("POST")
	api.HandleFunc("/users", s.handleListUsers).Methods("GET")
	api.HandleFunc("/users/{id}", s.handleGetUser).Methods("GET")

	// Groups
	api.HandleFunc("/groups", s.handleCreateGroup).Methods("POST")
	api.HandleFunc("/groups", s.handleListGroups).Methods("GET")
	api.HandleFunc("/groups/{id}", s.handleGetGroup).Methods("GET")
	api.HandleFunc("/groups/{id}", s.handleDeleteGroup).Methods("DELETE")

	// Expenses
	api.HandleFunc("/expenses", s.handleCreateExpense).Methods("POST")
	api.HandleFunc("/expenses/confirm", s.handleConfirmExpense).Methods("POST")
	api.HandleFunc("/expenses", s.handleListExpenses).Methods("GET")
	api.HandleFunc("/expenses/{id}", s.handleGetExpense).Methods("GET")
	api.HandleFunc("/expenses/{id}", s.handleDeleteExpense).Methods("DELETE")
	api.HandleFunc("/expenses/{id}/status", s.handleExpenseStatus).Methods("GET")
	api.HandleFunc("/expenses/{id}/payments", s.handleRecordPayment).Methods("POST")
	api.HandleFunc("/expenses/{id}/content-record", s.handleAttachContentRecord).Methods("POST")
	api.HandleFunc("/expenses/{id}/ledger-record", s.handleRecordOnLedger).Methods("POST")

	// Ops
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods("GET")
}

// Handler returns the full middleware stack: CORS, logging, metrics, routes.
func (s *Server) Handler() http.Handler {
	corsOptions := cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}
	return loggingMiddleware(metricsMiddleware(cors.New(corsOptions).Handler(s.router)))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
