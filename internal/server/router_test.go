package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xuri/excelize/v2"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/adapters/handler"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/adapters/middleware"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/config"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/services"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/logging"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/metrics"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/server"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/test/mocks"
)

const providerCookie = "sb-access-token"

// testAPI wires the real services over in-memory mocks behind the real router.
type testAPI struct {
	router   http.Handler
	clock    *mocks.Clock
	staff    *mocks.MockStaffRepository
	bookings *mocks.MockBookingRepository
	cleaning *mocks.MockCleaningRepository
	rooms    *mocks.MockRoomRepository
	provider *mocks.MockIdentityProvider
	notifier *mocks.MockBookingNotifier
	registry *prometheus.Registry
}

type apiOptions struct {
	withoutDatabase bool
	checks          map[string]handler.Pinger
}

func newTestAPI(t *testing.T, opts apiOptions) *testAPI {
	t.Helper()

	a := &testAPI{
		clock:    mocks.NewClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
		staff:    mocks.NewMockStaffRepository(),
		bookings: mocks.NewMockBookingRepository(),
		cleaning: mocks.NewMockCleaningRepository(),
		rooms:    mocks.NewMockRoomRepository(),
		provider: mocks.NewMockIdentityProvider(),
		notifier: mocks.NewMockBookingNotifier(),
		registry: prometheus.NewRegistry(),
	}
	logger := logging.Discard()
	cfg := &config.Config{AllowedOrigins: []string{"http://localhost:3000"}, HostelID: "1"}

	legacy := services.NewLegacySessions(a.clock.Now)
	resolver := services.NewSessionService(a.provider, a.staff, legacy, providerCookie, logger)
	legacyAuth := services.NewLegacyAuthService("acoidnam", "secret", "", legacy, nil, logger)

	var (
		staffSvc    *services.StaffService
		bookingSvc  *services.BookingService
		cleaningSvc *services.CleaningService
		roomSvc     *services.RoomService
	)
	bookingCfg := services.BookingConfig{HostelID: "1", Location: time.UTC, RequirePhone: true, StrictTransitions: true}
	if opts.withoutDatabase {
		staffSvc = services.NewStaffService(nil, a.provider, "", a.clock.Now, logger)
		bookingSvc = services.NewBookingService(nil, nil, a.notifier, bookingCfg, a.clock.Now, logger)
		cleaningSvc = services.NewCleaningService(nil, time.UTC, true, a.clock.Now, logger)
		roomSvc = services.NewRoomService(nil, a.clock.Now)
	} else {
		staffSvc = services.NewStaffService(a.staff, a.provider, "https://mandiocahostel.com", a.clock.Now, logger)
		bookingSvc = services.NewBookingService(a.bookings, a.rooms, a.notifier, bookingCfg, a.clock.Now, logger)
		cleaningSvc = services.NewCleaningService(a.cleaning, time.UTC, true, a.clock.Now, logger)
		roomSvc = services.NewRoomService(a.rooms, a.clock.Now)
	}

	m := metrics.New(a.registry)
	a.router = server.NewRouter(cfg, logger, m, a.registry, middleware.NewAuthMiddleware(resolver, logger), server.Handlers{
		Health:   handler.NewHealthHandler("test", opts.checks, logger),
		Auth:     handler.NewAuthHandler(legacyAuth, resolver, staffSvc, false, m.LoginAttempts, logger),
		Staff:    handler.NewStaffHandler(staffSvc, logger),
		Bookings: handler.NewBookingHandler(bookingSvc, "1", m.BookingsCreated, logger),
		Cleaning: handler.NewCleaningHandler(cleaningSvc, logger),
		Rooms:    handler.NewRoomHandler(roomSvc, logger),
	})
	return a
}

func (a *testAPI) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// loginLegacy performs the shared-admin login and returns the session cookie.
func (a *testAPI) loginLegacy(t *testing.T) *http.Cookie {
	t.Helper()
	rec := a.do(http.MethodPost, "/api/admin/login", `{"username":"acoidnam","password":"secret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == services.LegacyCookieName {
			return c
		}
	}
	t.Fatal("login: no session cookie set")
	return nil
}

// providerSession registers a staff user and returns a provider session cookie.
func (a *testAPI) providerSession(id string, role domain.Role) *http.Cookie {
	providerID := "prov-" + id
	a.staff.AddUser(mocks.CreateTestStaffUser(id, providerID, role))
	a.provider.AddToken("token-"+id, domain.ProviderUser{ID: providerID})
	return &http.Cookie{Name: providerCookie, Value: "token-" + id}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	body := decode[handler.ErrorResponse](t, rec)
	if body.Error != msg {
		t.Errorf("expected error %q, got %q", msg, body.Error)
	}
}

func TestCreateBooking_EndToEnd(t *testing.T) {
	// ARRANGE
	api := newTestAPI(t, apiOptions{})
	api.rooms.AddRoom(mocks.CreateTestRoom("dorm-6"))
	body := `{
		"hostel_id": "1",
		"room_id": "dorm-6",
		"guest_name": "Ana Gomez",
		"guest_email": "ana@example.com",
		"guest_phone": "+595 981 123456",
		"check_in": "2099-01-10",
		"check_out": "2099-01-12",
		"guest_count": 2,
		"total_price": 48
	}`

	// ACT
	rec := api.do(http.MethodPost, "/api/bookings", body)

	// ASSERT
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[handler.CreateBookingResponse](t, rec)
	if resp.Message != "Booking request received successfully" {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if resp.Booking == nil || resp.Booking.TotalPrice != 48 || resp.Booking.Status != domain.BookingPending {
		t.Fatalf("unexpected booking %+v", resp.Booking)
	}
	if resp.Nights != 2 {
		t.Errorf("expected 2 nights, got %d", resp.Nights)
	}
	if resp.QuotedPrice == nil || *resp.QuotedPrice != 24 {
		t.Errorf("expected quoted_price 24, got %v", resp.QuotedPrice)
	}
	if api.bookings.Count() != 1 {
		t.Errorf("expected one stored booking, got %d", api.bookings.Count())
	}
	if len(api.notifier.StaffNotified) != 1 {
		t.Error("staff should be notified")
	}
}

func TestCreateBooking_Errors(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		api := newTestAPI(t, apiOptions{})
		rec := api.do(http.MethodPost, "/api/bookings", `{"room_id":"dorm-6"}`)
		assertError(t, rec, http.StatusBadRequest, "Missing required field: guest_name")
	})

	t.Run("malformed body", func(t *testing.T) {
		api := newTestAPI(t, apiOptions{})
		rec := api.do(http.MethodPost, "/api/bookings", `{"room_id":`)
		assertError(t, rec, http.StatusBadRequest, "Invalid request payload")
	})

	t.Run("staff email failure", func(t *testing.T) {
		api := newTestAPI(t, apiOptions{})
		api.notifier.StaffError = errors.New("resend down")
		req, _ := json.Marshal(mocks.CreateTestBookingRequest())
		rec := api.do(http.MethodPost, "/api/bookings", string(req))
		assertError(t, rec, http.StatusInternalServerError, "Failed to send booking notification. Please try again.")
		if api.bookings.Count() != 0 {
			t.Errorf("no booking should be stored, got %d", api.bookings.Count())
		}
	})

	t.Run("no database", func(t *testing.T) {
		api := newTestAPI(t, apiOptions{withoutDatabase: true})
		req, _ := json.Marshal(mocks.CreateTestBookingRequest())
		rec := api.do(http.MethodPost, "/api/bookings", string(req))
		assertError(t, rec, http.StatusServiceUnavailable, "Database not configured")
	})
}

func TestGuestBookingLookup(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	api.bookings.AddBooking(domain.Booking{ID: "b1", HostelID: "1", GuestEmail: "ana@example.com", Status: domain.BookingPending})

	rec := api.do(http.MethodGet, "/api/bookings?email=ana@example.com", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode[handler.BookingsResponse](t, rec)
	if len(resp.Bookings) != 1 {
		t.Errorf("expected 1 booking, got %d", len(resp.Bookings))
	}
	if got := api.bookings.ListFilters[0].HostelID; got != "1" {
		t.Errorf("hostel_id should default to the configured hostel, got %q", got)
	}

	assertError(t, api.do(http.MethodGet, "/api/bookings", ""), http.StatusBadRequest, "email is required")
}

func TestAuthorizationGate(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	volunteer := api.providerSession("vol-1", domain.RoleVolunteer)
	admin := api.providerSession("admin-1", domain.RoleAdmin)
	legacy := api.loginLegacy(t)
	futureStamp := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	futureLegacy := &http.Cookie{Name: services.LegacyCookieName, Value: strconv.FormatInt(futureStamp, 16) + "_0011223344556677"}

	tests := []struct {
		name   string
		path   string
		cookie *http.Cookie
		want   int
	}{
		{"anonymous users list", "/api/admin/users", nil, http.StatusUnauthorized},
		{"anonymous cleaning", "/api/admin/cleaning", nil, http.StatusUnauthorized},
		{"volunteer users list", "/api/admin/users", volunteer, http.StatusUnauthorized},
		{"volunteer bookings", "/api/admin/bookings", volunteer, http.StatusUnauthorized},
		{"volunteer cleaning", "/api/admin/cleaning", volunteer, http.StatusOK},
		{"admin users list", "/api/admin/users", admin, http.StatusOK},
		{"legacy users list", "/api/admin/users", legacy, http.StatusOK},
		{"legacy cleaning", "/api/admin/cleaning", legacy, http.StatusOK},
		{"forged legacy cookie", "/api/admin/users", &http.Cookie{Name: services.LegacyCookieName, Value: "garbage"}, http.StatusUnauthorized},
		{"future-dated legacy cookie", "/api/admin/users", futureLegacy, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cookies []*http.Cookie
			if tt.cookie != nil {
				cookies = append(cookies, tt.cookie)
			}
			rec := api.do(http.MethodGet, tt.path, "", cookies...)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if tt.want == http.StatusUnauthorized {
				assertError(t, rec, http.StatusUnauthorized, "Unauthorized")
			}
		})
	}
}

func TestLegacyLogin(t *testing.T) {
	api := newTestAPI(t, apiOptions{})

	assertError(t, api.do(http.MethodPost, "/api/admin/login", `{"username":"acoidnam","password":"wrong"}`),
		http.StatusUnauthorized, "Invalid credentials")

	rec := api.do(http.MethodPost, "/api/admin/login", `{"username":"acoidnam","password":"secret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	cookie := rec.Result().Cookies()[0]
	if cookie.Name != services.LegacyCookieName || !cookie.HttpOnly || cookie.MaxAge != 86400 || cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("unexpected cookie %+v", cookie)
	}

	logout := api.do(http.MethodPost, "/api/admin/logout", "")
	cleared := logout.Result().Cookies()[0]
	if cleared.Name != services.LegacyCookieName || cleared.MaxAge >= 0 {
		t.Errorf("logout should expire the cookie, got %+v", cleared)
	}
}

func TestSessionEndpoint(t *testing.T) {
	api := newTestAPI(t, apiOptions{})

	anon := decode[handler.SessionResponse](t, api.do(http.MethodGet, "/api/admin/session", ""))
	if anon.Authenticated || anon.AuthType != nil || anon.Role != nil {
		t.Errorf("unexpected anonymous session %+v", anon)
	}

	legacy := decode[handler.SessionResponse](t, api.do(http.MethodGet, "/api/admin/session", "", api.loginLegacy(t)))
	if !legacy.Authenticated || *legacy.AuthType != "legacy" || !legacy.IsAdmin || legacy.UserID != nil {
		t.Errorf("unexpected legacy session %+v", legacy)
	}

	vol := api.providerSession("vol-1", domain.RoleVolunteer)
	rec := api.do(http.MethodGet, "/api/admin/session", "", vol)
	provider := decode[handler.SessionResponse](t, rec)
	if !provider.Authenticated || *provider.AuthType != "provider" || !provider.IsVolunteer || provider.IsAdmin {
		t.Errorf("unexpected provider session %+v", provider)
	}
	if provider.UserID == nil || *provider.UserID != "vol-1" || provider.UserName == nil {
		t.Errorf("expected user details, got %+v", provider)
	}
	if len(api.staff.TouchLastLoginCalls) != 1 {
		t.Errorf("session check should record the login, got %v", api.staff.TouchLastLoginCalls)
	}
}

func TestStaffUserLifecycle(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	admin := api.loginLegacy(t)

	// Invite
	rec := api.do(http.MethodPost, "/api/admin/users", `{"email":"maria@example.com","name":"Maria"}`, admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[handler.UserResponse](t, rec)
	if created.User.AuthProviderID == nil {
		t.Error("invited user should be linked to the provider account")
	}
	if len(api.provider.InviteCalls) != 1 {
		t.Errorf("expected one invite, got %d", len(api.provider.InviteCalls))
	}

	// Duplicate
	assertError(t, api.do(http.MethodPost, "/api/admin/users", `{"email":"MARIA@example.com","name":"M"}`, admin),
		http.StatusBadRequest, "User with this email already exists")

	// Invite failure answers 200 with a warning
	api.provider.InviteError = errors.New("provider down")
	rec = api.do(http.MethodPost, "/api/admin/users", `{"email":"joao@example.com","name":"Joao"}`, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with warning, got %d", rec.Code)
	}
	if w := decode[handler.UserResponse](t, rec).Warning; w != services.InviteFailedWarning {
		t.Errorf("unexpected warning %q", w)
	}

	// Update
	rec = api.do(http.MethodPatch, "/api/admin/users/"+created.User.ID, `{"role":"admin"}`, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", rec.Code)
	}
	if decode[handler.UserResponse](t, rec).User.Role != domain.RoleAdmin {
		t.Error("role should be admin")
	}

	// Delete
	rec = api.do(http.MethodDelete, "/api/admin/users/"+created.User.ID, "", admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	if len(api.provider.DeleteCalls) != 1 {
		t.Errorf("provider account should be removed, got %v", api.provider.DeleteCalls)
	}
	assertError(t, api.do(http.MethodGet, "/api/admin/users/"+created.User.ID, "", admin), http.StatusNotFound, "User not found")
}

func TestAdminBookingStatus(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	admin := api.loginLegacy(t)
	api.bookings.AddBooking(domain.Booking{ID: "b1", HostelID: "1", Status: domain.BookingPending})

	rec := api.do(http.MethodPatch, "/api/admin/bookings/b1", `{"status":"confirmed"}`, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if decode[handler.BookingResponse](t, rec).Booking.Status != domain.BookingConfirmed {
		t.Error("booking should be confirmed")
	}

	assertError(t, api.do(http.MethodPatch, "/api/admin/bookings/b1", `{"status":"pending"}`, admin),
		http.StatusConflict, "Invalid status transition from confirmed to pending")
	assertError(t, api.do(http.MethodPatch, "/api/admin/bookings/b1", `{"status":"archived"}`, admin),
		http.StatusBadRequest, "Invalid status")
	assertError(t, api.do(http.MethodPatch, "/api/admin/bookings/missing", `{"status":"cancelled"}`, admin),
		http.StatusNotFound, "Booking not found")

	rec = api.do(http.MethodPut, "/api/admin/bookings", `{"id":"b1","status":"cancelled"}`, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT form: expected 200, got %d", rec.Code)
	}
	assertError(t, api.do(http.MethodPut, "/api/admin/bookings", `{"status":"cancelled"}`, admin),
		http.StatusBadRequest, "Missing required field: id")

	list := decode[handler.BookingsResponse](t, api.do(http.MethodGet, "/api/admin/bookings?status=cancelled", "", admin))
	if len(list.Bookings) != 1 {
		t.Errorf("expected one cancelled booking, got %d", len(list.Bookings))
	}
}

func TestBookingExport(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	admin := api.loginLegacy(t)
	phone := "+595 981 000000"
	api.bookings.AddBooking(domain.Booking{
		ID:         "b1",
		HostelID:   "1",
		RoomID:     "dorm-6",
		GuestName:  "Ana Gomez",
		GuestEmail: "ana@example.com",
		GuestPhone: &phone,
		CheckIn:    domain.NewDate(2099, 1, 10),
		CheckOut:   domain.NewDate(2099, 1, 12),
		GuestCount: 2,
		TotalPrice: 48,
		Status:     domain.BookingPending,
	})

	rec := api.do(http.MethodGet, "/api/admin/bookings/export", "", admin)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "bookings_") {
		t.Errorf("unexpected Content-Disposition %q", rec.Header().Get("Content-Disposition"))
	}
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Bookings")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus one row, got %d", len(rows))
	}
	if rows[0][0] != "ID" || rows[1][1] != "Ana Gomez" || rows[1][7] != "2" {
		t.Errorf("unexpected rows %v", rows)
	}
}

func TestCleaningWorkflow(t *testing.T) {
	// ARRANGE
	api := newTestAPI(t, apiOptions{})
	vol := api.providerSession("vol-1", domain.RoleVolunteer)

	// ACT: create with an empty checklist
	rec := api.do(http.MethodPost, "/api/admin/cleaning", `{"area_type":"bathroom","area_name":"Bathroom 1","scheduled_date":"2024-06-01"}`, vol)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	task := decode[handler.TaskResponse](t, rec).Task

	// ACT: replace the checklist with three items, one completed
	rec = api.do(http.MethodPatch, "/api/admin/cleaning/"+task.ID, `{"checklist":[
		{"task":"Clean toilet","required":true,"completed":true},
		{"task":"Mop floor","required":true,"completed":false},
		{"task":"Refill soap","required":false,"completed":false}
	]}`, vol)

	// ASSERT
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	task = decode[handler.TaskResponse](t, rec).Task
	if len(task.Checklist) != 3 {
		t.Fatalf("expected 3 items, got %d", len(task.Checklist))
	}
	completed := 0
	for _, item := range task.Checklist {
		if item.Completed {
			completed++
		}
	}
	if completed != 1 {
		t.Errorf("expected one completed item, got %d", completed)
	}

	// Toggle a single item
	rec = api.do(http.MethodPatch, "/api/admin/cleaning/"+task.ID+"/checklist/"+task.Checklist[1].ID, `{"completed":true}`, vol)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: expected 200, got %d", rec.Code)
	}
	if !decode[handler.TaskResponse](t, rec).Task.Checklist[1].Completed {
		t.Error("item should be completed")
	}

	// Status walk with verifier
	for _, status := range []string{"in_progress", "completed", "verified"} {
		rec = api.do(http.MethodPatch, "/api/admin/cleaning/"+task.ID, `{"status":"`+status+`"}`, vol)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %s: expected 200, got %d: %s", status, rec.Code, rec.Body.String())
		}
	}
	task = decode[handler.TaskResponse](t, rec).Task
	if task.VerifiedBy == nil || *task.VerifiedBy != "vol-1" {
		t.Errorf("verified_by should be vol-1, got %v", task.VerifiedBy)
	}

	// Listing the day returns it
	list := decode[handler.TasksResponse](t, api.do(http.MethodGet, "/api/admin/cleaning?date=2024-06-01", "", vol))
	if len(list.Tasks) != 1 {
		t.Errorf("expected 1 task, got %d", len(list.Tasks))
	}

	// Delete
	if rec := api.do(http.MethodDelete, "/api/admin/cleaning/"+task.ID, "", vol); rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	assertError(t, api.do(http.MethodPatch, "/api/admin/cleaning/"+task.ID, `{"notes":"x"}`, vol), http.StatusNotFound, "Task not found")
}

func TestCleaningUnassign(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	vol := api.providerSession("vol-1", domain.RoleVolunteer)
	seed := mocks.CreateTestTask("t1", domain.NewDate(2024, 6, 1))
	seed.AssignedTo = mocks.StrPtr("vol-1")
	api.cleaning.AddTask(seed)

	rec := api.do(http.MethodPatch, "/api/admin/cleaning/t1", `{"assigned_to":null}`, vol)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if task := decode[handler.TaskResponse](t, rec).Task; task.AssignedTo != nil {
		t.Errorf("assignee should be cleared, got %q", *task.AssignedTo)
	}
	assertError(t, api.do(http.MethodPatch, "/api/admin/cleaning/t1", `{"status":"completed"}`, vol),
		http.StatusConflict, "Invalid status transition from pending to completed")
}

func TestCleaningNullFieldsLeftUntouched(t *testing.T) {
	// ARRANGE
	api := newTestAPI(t, apiOptions{})
	vol := api.providerSession("vol-1", domain.RoleVolunteer)
	api.cleaning.AddTask(mocks.CreateTestTask("t1", domain.NewDate(2024, 6, 1)))

	// ACT
	rec := api.do(http.MethodPatch, "/api/admin/cleaning/t1", `{"checklist":null,"status":null,"notes":"towels low"}`, vol)

	// ASSERT
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	task := decode[handler.TaskResponse](t, rec).Task
	if len(task.Checklist) != 3 {
		t.Errorf("null checklist must keep the stored items, got %d", len(task.Checklist))
	}
	if task.Status != domain.TaskPending {
		t.Errorf("null status must keep the stored status, got %s", task.Status)
	}
	if task.Notes == nil || *task.Notes != "towels low" {
		t.Errorf("notes should still be applied, got %v", task.Notes)
	}
}

func TestRooms(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	admin := api.loginLegacy(t)

	rec := api.do(http.MethodPost, "/api/admin/rooms", `{"name":"Private 1","room_type":"private","price_per_night":35,"bed_count":1,"max_guests":2}`, admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	room := decode[handler.RoomResponse](t, rec).Room

	public := decode[handler.RoomsResponse](t, api.do(http.MethodGet, "/api/rooms", ""))
	if len(public.Rooms) != 1 {
		t.Fatalf("expected the room in the public list, got %d", len(public.Rooms))
	}

	if rec := api.do(http.MethodPatch, "/api/admin/rooms/"+room.ID, `{"available":false}`, admin); rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", rec.Code)
	}
	public = decode[handler.RoomsResponse](t, api.do(http.MethodGet, "/api/rooms", ""))
	if len(public.Rooms) != 0 {
		t.Errorf("unavailable room should be hidden, got %d", len(public.Rooms))
	}

	if rec := api.do(http.MethodPost, "/api/admin/rooms", `{"name":"X"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("room admin needs a session, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	t.Run("unconfigured collaborators stay ready", func(t *testing.T) {
		api := newTestAPI(t, apiOptions{checks: map[string]handler.Pinger{"database": nil}})
		rec := api.do(http.MethodGet, "/health/ready", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got := decode[handler.HealthResponse](t, rec).Checks["database"].Status; got != "NOT_CONFIGURED" {
			t.Errorf("expected NOT_CONFIGURED, got %q", got)
		}
	})

	t.Run("failing ping", func(t *testing.T) {
		down := handler.PingerFunc(func(ctx context.Context) error { return errors.New("refused") })
		api := newTestAPI(t, apiOptions{checks: map[string]handler.Pinger{"redis": down}})
		rec := api.do(http.MethodGet, "/health/ready", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
		if got := decode[handler.HealthResponse](t, rec).Checks["redis"].Message; got != "Cannot connect to redis" {
			t.Errorf("unexpected message %q", got)
		}
	})

	t.Run("liveness", func(t *testing.T) {
		api := newTestAPI(t, apiOptions{})
		resp := decode[handler.HealthResponse](t, api.do(http.MethodGet, "/health", ""))
		if resp.Status != "UP" || resp.Version != "test" {
			t.Errorf("unexpected health %+v", resp)
		}
	})
}

func TestNotFoundAndMetrics(t *testing.T) {
	api := newTestAPI(t, apiOptions{})

	assertError(t, api.do(http.MethodGet, "/api/nope", ""), http.StatusNotFound, "Not found")
	api.do(http.MethodGet, "/api/rooms", "")

	rec := api.do(http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `backoffice_http_requests_total{method="GET",route="/api/rooms",status="200"}`) {
		t.Errorf("expected request counter for /api/rooms in:\n%s", rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	req := httptest.NewRequest(http.MethodOptions, "/api/admin/cleaning/t1", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()

	api.router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("unexpected allow-origin %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("credentials should be allowed, got %q", got)
	}
}
