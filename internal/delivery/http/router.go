package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"admissionfair/internal/delivery/http/controllers"
	"admissionfair/internal/delivery/http/helpers"
)

// RouterDeps holds everything NewRouter mounts.
type RouterDeps struct {
	CheckIn *controllers.CheckInController
	Health  *controllers.HealthController
	// Metrics serves the Prometheus exposition; nil leaves /metrics unmounted.
	Metrics http.Handler
	// StaticDir holds the built frontend; empty or missing disables static serving.
	StaticDir string
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(deps RouterDeps) *http.ServeMux {
	mux := http.NewServeMux()

	// API Routes
	mux.HandleFunc("POST /api/checkin", deps.CheckIn.CheckIn)
	mux.HandleFunc("GET /api/students", deps.CheckIn.List)
	mux.HandleFunc("GET /api/analytics", deps.CheckIn.Analytics)
	mux.HandleFunc("GET /api/export", deps.CheckIn.Export)
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "no such endpoint")
	})

	// Operations
	mux.HandleFunc("GET /healthz", deps.Health.Health)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Frontend
	if static := NewStaticHandler(deps.StaticDir); static != nil {
		mux.Handle("/", static)
	}

	return mux
}
