package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"krishi/internal/config"
	"krishi/internal/database"
	"krishi/internal/events"
	"krishi/internal/logging"
	"krishi/internal/models"
	"krishi/internal/repository"
	"krishi/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler  http.Handler
	users    *service.UserService
	sessions *service.SessionService
}

func setupServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}

	db, err := database.NewDB(":memory:", logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := service.NewUserService(db, logging.Nop())
	bookings := service.NewBookingService(db, users, events.NewEventBus(), logging.Nop())
	sessions := service.NewSessionService(repository.NewMemorySessionRepository(time.Hour))

	srv := NewHTTPServer(cfg, users, bookings, sessions, logging.Nop())
	return &testServer{handler: srv.Handler(), users: users, sessions: sessions}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set(SessionTokenHeader, token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) register(t *testing.T, body map[string]any) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/users/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (ts *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (ts *testServer) registerLandowner(t *testing.T, username string) string {
	t.Helper()
	ts.register(t, map[string]any{
		"username": username,
		"password": "secret",
		"role":     models.RoleLandowner,
		"name":     "Owner " + username,
		"acres":    10,
	})
	return ts.login(t, username, "secret")
}

func (ts *testServer) registerLabor(t *testing.T, username string) string {
	t.Helper()
	ts.register(t, map[string]any{
		"username": username,
		"password": "secret",
		"role":     models.RoleLabor,
		"name":     "Labor " + username,
		"workers":  3,
	})
	return ts.login(t, username, "secret")
}

func (ts *testServer) createBooking(t *testing.T, token string, body map[string]any) int64 {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/bookings", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var booking models.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booking))
	require.NotZero(t, booking.ID)
	return booking.ID
}

func TestHealthz(t *testing.T) {
	ts := setupServer(t, nil)
	rec := ts.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterAndLoginFlow(t *testing.T) {
	ts := setupServer(t, nil)

	token := ts.registerLandowner(t, "ramesh")
	assert.NotEmpty(t, token)

	// Wrong password.
	rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"username": "ramesh",
		"password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Duplicate username.
	rec = ts.do(t, http.MethodPost, "/api/v1/users/register", "", map[string]any{
		"username": "ramesh",
		"password": "secret",
		"role":     models.RoleLandowner,
		"acres":    5,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogout(t *testing.T) {
	ts := setupServer(t, nil)
	token := ts.registerLandowner(t, "ramesh")

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The token no longer resolves.
	rec = ts.do(t, http.MethodGet, "/api/v1/bookings/landowner", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateBooking_RequiresSession(t *testing.T) {
	ts := setupServer(t, nil)
	rec := ts.do(t, http.MethodPost, "/api/v1/bookings", "", map[string]any{
		"service_date": "2026-09-15",
		"days":         2,
		"service_type": "labor",
		"num_labor":    2,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateBooking(t *testing.T) {
	ts := setupServer(t, nil)
	owner := ts.registerLandowner(t, "ramesh")
	labor := ts.registerLabor(t, "suresh")

	id := ts.createBooking(t, owner, map[string]any{
		"service_date": "2026-09-15",
		"days":         2,
		"service_type": "both",
		"num_labor":    2,
		"machine_type": "tractor",
	})
	assert.NotZero(t, id)

	// Only landowners create bookings.
	rec := ts.do(t, http.MethodPost, "/api/v1/bookings", labor, map[string]any{
		"service_date": "2026-09-15",
		"days":         2,
		"service_type": "labor",
		"num_labor":    1,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Malformed date.
	rec = ts.do(t, http.MethodPost, "/api/v1/bookings", owner, map[string]any{
		"service_date": "15-09-2026",
		"days":         2,
		"service_type": "labor",
		"num_labor":    1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown service type.
	rec = ts.do(t, http.MethodPost, "/api/v1/bookings", owner, map[string]any{
		"service_date": "2026-09-15",
		"days":         2,
		"service_type": "plumbing",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitResponse(t *testing.T) {
	ts := setupServer(t, nil)
	owner := ts.registerLandowner(t, "ramesh")
	labor := ts.registerLabor(t, "suresh")

	id := ts.createBooking(t, owner, map[string]any{
		"service_date": "2026-09-15",
		"days":         2,
		"service_type": "labor",
		"num_labor":    1,
	})

	path := fmt.Sprintf("/api/v1/bookings/%d/responses", id)
	rec := ts.do(t, http.MethodPost, path, labor, map[string]any{"decision": models.DecisionAccept})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Status struct {
			Labor struct {
				State string `json:"state"`
			} `json:"labor"`
			Action string `json:"action"`
		} `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Confirmed", resp.Status.Labor.State)
	assert.Equal(t, "Closed", resp.Status.Action)

	// Second answer from the same responder is refused.
	rec = ts.do(t, http.MethodPost, path, labor, map[string]any{"decision": models.DecisionReject})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Landowners cannot respond.
	rec = ts.do(t, http.MethodPost, path, owner, map[string]any{"decision": models.DecisionAccept})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Unknown booking.
	rec = ts.do(t, http.MethodPost, "/api/v1/bookings/9999/responses", labor, map[string]any{"decision": models.DecisionAccept})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Malformed id.
	rec = ts.do(t, http.MethodPost, "/api/v1/bookings/abc/responses", labor, map[string]any{"decision": models.DecisionAccept})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoleViews(t *testing.T) {
	ts := setupServer(t, nil)
	owner := ts.registerLandowner(t, "ramesh")
	labor := ts.registerLabor(t, "suresh")

	ts.createBooking(t, owner, map[string]any{
		"service_date": "2026-09-15",
		"days":         2,
		"service_type": "labor",
		"num_labor":    2,
	})

	rec := ts.do(t, http.MethodGet, "/api/v1/bookings/landowner", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ownerView struct {
		Bookings []json.RawMessage `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ownerView))
	assert.Len(t, ownerView.Bookings, 1)

	rec = ts.do(t, http.MethodGet, "/api/v1/bookings/labor", labor, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Role mismatch on a view is refused.
	rec = ts.do(t, http.MethodGet, "/api/v1/bookings/labor", owner, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/bookings/machinery", labor, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminEndpoints(t *testing.T) {
	ts := setupServer(t, nil)
	owner := ts.registerLandowner(t, "ramesh")

	ts.register(t, map[string]any{
		"username": "admin",
		"password": "secret",
		"role":     models.RoleAdmin,
	})
	admin := ts.login(t, "admin", "secret")

	ts.createBooking(t, owner, map[string]any{
		"service_date": "2026-09-15",
		"days":         1,
		"service_type": "machinery",
		"machine_type": "tractor",
	})

	rec := ts.do(t, http.MethodGet, "/api/v1/admin/overview", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var overview struct {
		Bookings   []json.RawMessage `json:"bookings"`
		Landowners []json.RawMessage `json:"landowners"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &overview))
	assert.Len(t, overview.Bookings, 1)
	assert.Len(t, overview.Landowners, 1)

	rec = ts.do(t, http.MethodGet, "/api/v1/admin/export", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.NotZero(t, rec.Body.Len())

	// Non-admins are turned away.
	rec = ts.do(t, http.MethodGet, "/api/v1/admin/overview", owner, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := &config.Config{}
	cfg.RateLimit.RPS = 0.001
	cfg.RateLimit.Burst = 2
	ts := setupServer(t, cfg)

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		rec := ts.do(t, http.MethodGet, "/healthz", "", nil)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429, 429}, codes)
}

func TestLoginAttemptsAreThrottled(t *testing.T) {
	ts := setupServer(t, nil)
	ts.register(t, map[string]any{
		"username": "ramesh",
		"password": "secret",
		"role":     models.RoleLandowner,
		"acres":    5,
	})

	for i := 0; i < models.LoginRateLimit; i++ {
		rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
			"username": "ramesh",
			"password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	// The budget is exhausted even for the right password.
	rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"username": "ramesh",
		"password": "secret",
	})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestUnknownDecisionRejected(t *testing.T) {
	ts := setupServer(t, nil)
	owner := ts.registerLandowner(t, "ramesh")
	labor := ts.registerLabor(t, "suresh")

	id := ts.createBooking(t, owner, map[string]any{
		"service_date": "2026-09-15",
		"days":         1,
		"service_type": "labor",
		"num_labor":    1,
	})

	rec := ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/responses", id), labor, map[string]any{"decision": "Maybe"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
