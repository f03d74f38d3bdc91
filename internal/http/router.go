package http

import (
	"net/http"

	"codegen-backend/internal/handlers"
	"codegen-backend/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	healthHandler *handlers.HealthHandler,
	codegenHandler *handlers.CodegenHandler,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.PanicRecovery)
	r.Use(middleware.MetricsMiddleware)

	// Health and metrics
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Worker API. Registered on the root router so a method mismatch
	// reaches MethodNotAllowedHandler instead of NotFoundHandler.
	r.HandleFunc("/api/status", codegenHandler.Status).Methods("GET")
	r.HandleFunc("/api/pass", codegenHandler.TriggerPass).Methods("POST")
	r.HandleFunc("/api/pool/check", codegenHandler.CheckPool).Methods("POST")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	return r
}
