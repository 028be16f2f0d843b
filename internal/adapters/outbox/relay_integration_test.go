package outbox_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/adapters/outbox"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/adapters/repository"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/domain"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/core/ports"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/internal/logging"
	"github.com/AchilleasB/mandioca-hostel/backoffice-service/test/mocks"
)

// These tests need a disposable PostgreSQL database:
//
//	TEST_DB_CONNECTION_STRING=postgres://... go test ./internal/adapters/outbox/...
var (
	testDB    *sql.DB
	testDBURL string
)

func TestMain(m *testing.M) {
	testDBURL = os.Getenv("TEST_DB_CONNECTION_STRING")
	if testDBURL == "" {
		fmt.Println("Skipping relay integration tests: TEST_DB_CONNECTION_STRING not set")
		os.Exit(0)
	}

	var err error
	testDB, err = sql.Open("postgres", testDBURL)
	if err != nil {
		fmt.Printf("Failed to connect to test database: %v\n", err)
		os.Exit(1)
	}
	if err := repository.Migrate(context.Background(), testDB); err != nil {
		fmt.Printf("Failed to migrate test database: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	_, _ = testDB.Exec("DELETE FROM outbox_events")
	_, _ = testDB.Exec("DELETE FROM bookings")
	testDB.Close()
	os.Exit(code)
}

func cleanup(t *testing.T) {
	t.Helper()
	if _, err := testDB.Exec("DELETE FROM outbox_events"); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
}

func createBooking(t *testing.T, repo *repository.BookingRepository) string {
	t.Helper()
	now := time.Now().UTC()
	id := uuid.NewString()
	_, err := repo.Create(context.Background(), domain.Booking{
		ID:            id,
		HostelID:      "1",
		RoomID:        "dorm-6",
		GuestName:     "Integration Guest",
		GuestEmail:    "guest@example.com",
		CheckIn:       domain.NewDate(2099, 1, 10),
		CheckOut:      domain.NewDate(2099, 1, 12),
		GuestCount:    1,
		TotalPrice:    24,
		Status:        domain.BookingPending,
		PaymentStatus: domain.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, ports.OutboxEvent{
		ID:        uuid.NewString(),
		EventType: ports.EventBookingCreated,
		Payload:   []byte(fmt.Sprintf(`{"booking_id":%q}`, id)),
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return id
}

func countUnprocessed(t *testing.T) int {
	t.Helper()
	var n int
	if err := testDB.QueryRow("SELECT COUNT(*) FROM outbox_events WHERE processed_at IS NULL").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestIntegration_RelayPublishesBookingEvents(t *testing.T) {
	cleanup(t)
	repo := repository.NewBookingRepository(testDB)
	publisher := mocks.NewMockEventPublisher()
	relay := outbox.NewRelay(testDB, testDBURL, publisher, nil, logging.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go func() { _ = relay.Start(ctx) }()
	time.Sleep(200 * time.Millisecond)

	id := createBooking(t, repo)

	deadline := time.Now().Add(5 * time.Second)
	for publisher.GetPublishCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	events := publisher.GetPublishedEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(events))
	}
	if events[0].EventType != ports.EventBookingCreated {
		t.Errorf("unexpected event type %q", events[0].EventType)
	}
	if string(events[0].Payload) == "" || !relay.IsHealthy() {
		t.Errorf("unexpected payload %q for booking %s", events[0].Payload, id)
	}
	if n := countUnprocessed(t); n != 0 {
		t.Errorf("expected no pending events, got %d", n)
	}
}

func TestIntegration_RelayCatchesUpOnStartup(t *testing.T) {
	cleanup(t)
	repo := repository.NewBookingRepository(testDB)
	for i := 0; i < 3; i++ {
		createBooking(t, repo)
	}

	publisher := mocks.NewMockEventPublisher()
	relay := outbox.NewRelay(testDB, testDBURL, publisher, nil, logging.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() { _ = relay.Start(ctx) }()
	time.Sleep(2 * time.Second)

	if got := publisher.GetPublishCount(); got != 3 {
		t.Errorf("expected 3 published events, got %d", got)
	}
	if n := countUnprocessed(t); n != 0 {
		t.Errorf("expected no pending events, got %d", n)
	}
}

func TestIntegration_FailedPublishStaysPending(t *testing.T) {
	cleanup(t)
	createBooking(t, repository.NewBookingRepository(testDB))

	publisher := mocks.NewMockEventPublisher()
	publisher.PublishError = fmt.Errorf("broker unavailable")
	relay := outbox.NewRelay(testDB, testDBURL, publisher, nil, logging.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go func() { _ = relay.Start(ctx) }()
	time.Sleep(time.Second)

	if n := countUnprocessed(t); n != 1 {
		t.Errorf("event should stay pending for the next sweep, got %d pending", n)
	}
}
