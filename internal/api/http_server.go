package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"krishi/internal/config"
	"krishi/internal/domain"
	"krishi/internal/service"

	"github.com/rs/zerolog"
)

// HTTPServer is the marketplace's HTTP surface: registration, login, booking
// creation, response submission and the four role-scoped dashboards.
type HTTPServer struct {
	cfg      *config.Config
	users    domain.UserService
	bookings domain.BookingService
	sessions *service.SessionService
	logger   *zerolog.Logger
	server   *http.Server
	limiters sync.Map // map[string]*rate.Limiter
}

func NewHTTPServer(
	cfg *config.Config,
	users domain.UserService,
	bookings domain.BookingService,
	sessions *service.SessionService,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		users:    users,
		bookings: bookings,
		sessions: sessions,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/api/v1/users/register", srv.handleRegister)
	mux.HandleFunc("/api/v1/auth/login", srv.handleLogin)
	mux.HandleFunc("/api/v1/auth/logout", srv.requireSession(srv.handleLogout))
	mux.HandleFunc("/api/v1/bookings", srv.requireSession(srv.handleBookings))
	mux.HandleFunc("/api/v1/bookings/", srv.requireSession(srv.handleBookingResponses))
	mux.HandleFunc("/api/v1/bookings/landowner", srv.requireSession(srv.handleLandownerView))
	mux.HandleFunc("/api/v1/bookings/labor", srv.requireSession(srv.handleLaborView))
	mux.HandleFunc("/api/v1/bookings/machinery", srv.requireSession(srv.handleMachineryView))
	mux.HandleFunc("/api/v1/admin/overview", srv.requireSession(srv.handleAdminOverview))
	mux.HandleFunc("/api/v1/admin/export", srv.requireSession(srv.handleAdminExport))

	handler := srv.loggingMiddleware(srv.rateLimitMiddleware(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the full middleware chain for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
