package routes

import (
	"net/http"

	"github.com/medly/scheduleconsole/internal/api/handlers"
	"github.com/medly/scheduleconsole/internal/api/middleware"
	"github.com/medly/scheduleconsole/internal/application/services"
	"github.com/medly/scheduleconsole/internal/infrastructure/observability"
)

// Options are the router settings taken from configuration
type Options struct {
	AllowedOrigins []string
	SecureCookies  bool
	RateLimiter    *middleware.RateLimiter
	BackendProxy   http.Handler
}

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	console        *services.ConsoleService
	consoleHandler *handlers.ConsoleHandler
	patientHandler *handlers.PatientHandler
	sseHandler     *handlers.SSEHandler

	opts    Options
	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	console *services.ConsoleService,
	consoleHandler *handlers.ConsoleHandler,
	patientHandler *handlers.PatientHandler,
	sseHandler *handlers.SSEHandler,
	opts Options,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		console:        console,
		consoleHandler: consoleHandler,
		patientHandler: patientHandler,
		sseHandler:     sseHandler,
		opts:           opts,
		metrics:        metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Schedule and views
	r.session("GET /console/schedule", r.consoleHandler.GetSchedule)
	r.session("POST /console/schedule/reload", r.consoleHandler.Reload)
	r.session("GET /console/view/day", r.consoleHandler.DayView)
	r.session("GET /console/view/week", r.consoleHandler.WeekView)
	r.session("GET /console/view/week/lookup", r.consoleHandler.Lookup)

	// Row gestures
	r.session("POST /console/rows/{doctorId}/windows", r.consoleHandler.CreateWindow)
	r.session("POST /console/rows/{doctorId}/double-click", r.consoleHandler.DoubleClick)
	r.session("POST /console/rows/{doctorId}/drag", r.consoleHandler.Drag)
	r.session("POST /console/rows/{doctorId}/select-span", r.consoleHandler.SelectSpan)

	// Selection
	r.session("GET /console/selection", r.consoleHandler.GetSelection)
	r.session("DELETE /console/selection", r.consoleHandler.ClearSelection)
	r.session("POST /console/selection/click", r.consoleHandler.Click)
	r.session("POST /console/selection/scope", r.consoleHandler.SelectScope)

	// Bulk adjust
	r.session("GET /console/bulk-adjust/form", r.consoleHandler.BulkForm)
	r.session("DELETE /console/bulk-adjust/form", r.consoleHandler.DiscardBulkForm)
	r.session("POST /console/bulk-adjust", r.consoleHandler.SubmitBulk)
	r.session("POST /console/bulk-adjust/clear-day", r.consoleHandler.ClearDay)

	// Sync events
	if r.sseHandler != nil {
		r.session("GET /console/stream", r.sseHandler.StreamConsole)
	}

	// Login-lite and patient history
	if r.patientHandler != nil {
		r.session("POST /console/login", r.patientHandler.Login)
		r.session("DELETE /console/login", r.patientHandler.Logout)
		r.session("GET /console/me", r.patientHandler.Me)
		r.session("GET /console/patients/upcoming", r.patientHandler.Upcoming)
		r.session("GET /console/patients/bookings", r.patientHandler.Bookings)
		r.mux.HandleFunc("GET /console/patients/bookings/{id}", r.patientHandler.Booking)
		r.mux.HandleFunc("GET /console/patients/hospital-users", r.patientHandler.HospitalUsers)
		r.mux.HandleFunc("GET /console/patients/hospital-user-profile", r.patientHandler.HospitalUserProfile)
		r.mux.HandleFunc("GET /console/patients/hospitals/upcoming", r.patientHandler.UpcomingByHospital)
	}

	// Same-origin rewrite to the backend
	if r.opts.BackendProxy != nil {
		r.mux.Handle("/api/", r.opts.BackendProxy)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = r.opts.RateLimiter.Middleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so rejected requests also carry the headers
	handler = middleware.CORSMiddleware(r.opts.AllowedOrigins)(handler)

	return handler
}

func (r *Router) session(pattern string, h http.HandlerFunc) {
	r.mux.Handle(pattern, middleware.SessionMiddleware(r.console, r.opts.SecureCookies)(h))
}
