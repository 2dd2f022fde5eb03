package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"krishi/internal/database"
	"krishi/internal/export"
	"krishi/internal/models"
)

type registerRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	Contact     string `json:"contact"`
	District    string `json:"district"`
	Acres       int64  `json:"acres"`
	Crops       string `json:"crops"`
	Workers     int64  `json:"workers"`
	MachineType string `json:"machine_type"`
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body registerRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user := &models.User{
		Username: body.Username,
		Role:     strings.ToLower(strings.TrimSpace(body.Role)),
		Name:     body.Name,
		Address:  body.Address,
		Contact:  body.Contact,
		District: body.District,
	}
	switch user.Role {
	case models.RoleLandowner:
		user.Landowner = &models.LandownerProfile{Acres: body.Acres, Crops: body.Crops}
	case models.RoleLabor:
		user.Labor = &models.LaborProfile{Workers: body.Workers}
	case models.RoleMachinery:
		user.Machinery = &models.MachineryProfile{MachineType: body.MachineType}
	}

	if err := s.users.Register(r.Context(), user, body.Password); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"user_id": user.ID, "role": user.Role})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// Login attempts are throttled through the session repository, so the
	// budget holds across instances when Redis backs it.
	window := time.Duration(models.RateLimitWindow) * time.Second
	allowed, err := s.sessions.CheckRateLimit(r.Context(), "login:"+clientKey(r), models.LoginRateLimit, window)
	if err != nil {
		s.logger.Error().Err(err).Msg("login rate limit check failed")
	} else if !allowed {
		writeError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	user, err := s.users.Authenticate(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, database.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.writeServiceError(w, err)
		return
	}

	session, err := s.sessions.Create(r.Context(), user)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": session.Token,
		"user":  user,
	})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	token := strings.TrimSpace(r.Header.Get(SessionTokenHeader))
	if err := s.sessions.Destroy(r.Context(), token); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

type createBookingRequest struct {
	ServiceDate string `json:"service_date"` // YYYY-MM-DD
	Days        int    `json:"days"`
	ServiceType string `json:"service_type"`
	NumLabor    int    `json:"num_labor"`
	MachineType string `json:"machine_type"`
}

func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body createBookingRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	serviceDate, err := time.Parse("2006-01-02", strings.TrimSpace(body.ServiceDate))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid service_date; expected YYYY-MM-DD")
		return
	}

	session := sessionFrom(r)
	booking, err := s.bookings.CreateBooking(r.Context(), session.UserID, models.Booking{
		ServiceDate: serviceDate,
		Days:        body.Days,
		ServiceType: body.ServiceType,
		NumLabor:    body.NumLabor,
		MachineType: body.MachineType,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

// handleBookingResponses serves POST /api/v1/bookings/{id}/responses.
func (s *HTTPServer) handleBookingResponses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	const prefix = "/api/v1/bookings/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	idStr, tail, ok := strings.Cut(rest, "/")
	if !ok || tail != "responses" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	bookingID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	var body struct {
		Decision string `json:"decision"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	session := sessionFrom(r)
	response, err := s.bookings.SubmitResponse(r.Context(), bookingID, session.UserID, body.Decision)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	status, err := s.bookings.Status(r.Context(), bookingID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"response": response,
		"status":   status,
	})
}

func (s *HTTPServer) handleLandownerView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	view, err := s.bookings.LandownerView(r.Context(), sessionFrom(r).UserID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleLaborView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	view, err := s.bookings.LaborView(r.Context(), sessionFrom(r).UserID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleMachineryView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	view, err := s.bookings.MachineryView(r.Context(), sessionFrom(r).UserID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleAdminOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if sessionFrom(r).Role != models.RoleAdmin {
		writeError(w, http.StatusForbidden, "admin only")
		return
	}

	view, err := s.bookings.AdminView(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if sessionFrom(r).Role != models.RoleAdmin {
		writeError(w, http.StatusForbidden, "admin only")
		return
	}

	view, err := s.bookings.AdminView(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	report, err := export.BuildBookingsReport(view)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	defer report.Close()

	fileName := "bookings_" + time.Now().Format("2006-01-02") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	if err := report.Write(w); err != nil {
		s.logger.Error().Err(err).Msg("failed to stream export")
	}
}

// writeServiceError maps the error taxonomy onto HTTP status codes.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrDuplicateResponse):
		// Benign no-op: the responder already answered.
		writeError(w, http.StatusConflict, "already responded")
	case errors.Is(err, database.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, "username already exists")
	case errors.Is(err, database.ErrInvalidRole):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, database.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
