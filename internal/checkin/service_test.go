package checkin_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-checkin/internal/checkin"
	checkindb "ms-checkin/internal/checkin/db"
	"ms-checkin/internal/models"
)

// MockCheckInDB implements the DBLayer interface over in-memory maps. The
// guard semantics of ApplyCheckIn mirror the real conditional update:
// validation and mutation happen under one lock.
type MockCheckInDB struct {
	mu      sync.Mutex
	guests  map[string]*models.Guest
	ledger  map[string][]models.CheckInEntry
	failOn  string
	failErr error
}

func NewMockCheckInDB() *MockCheckInDB {
	return &MockCheckInDB{
		guests: make(map[string]*models.Guest),
		ledger: make(map[string][]models.CheckInEntry),
	}
}

func (m *MockCheckInDB) GetGuestByID(_ context.Context, id string) (*models.Guest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == "GetGuestByID" {
		return nil, m.failErr
	}
	guest, ok := m.guests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *guest
	return &copied, nil
}

func (m *MockCheckInDB) ApplyCheckIn(_ context.Context, guestID, performedBy string, plusOnes int, now time.Time) (*models.Guest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == "ApplyCheckIn" {
		return nil, m.failErr
	}
	guest, ok := m.guests[guestID]
	if !ok || guest.PlusOnesCheckedIn+plusOnes > guest.PlusOnesAllowed {
		return nil, checkindb.ErrGuardFailed
	}

	guest.PlusOnesCheckedIn += plusOnes
	guest.Status = models.StatusCheckedIn
	if guest.CheckInTime == nil {
		arrival := now
		guest.CheckInTime = &arrival
		guest.CheckedInBy = performedBy
	}
	guest.LastModified = now

	m.ledger[guestID] = append(m.ledger[guestID], models.CheckInEntry{
		GuestID:           guestID,
		Timestamp:         now,
		PerformedBy:       performedBy,
		PlusOnesAtCheckIn: guest.PlusOnesCheckedIn,
	})

	copied := *guest
	return &copied, nil
}

func (m *MockCheckInDB) GetLedgerByGuest(_ context.Context, guestID string) ([]models.CheckInEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.CheckInEntry(nil), m.ledger[guestID]...), nil
}

// MockPublisher records published check-in events.
type MockPublisher struct {
	mu     sync.Mutex
	events []models.CheckInEntry
	err    error
}

func (p *MockPublisher) PublishGuestCheckedIn(entry models.CheckInEntry, _ models.GuestView) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, entry)
	return nil
}

func seedGuest(db *MockCheckInDB, id string, allowed, checkedIn int) *models.Guest {
	now := time.Now().UTC().Add(-time.Hour)
	guest := &models.Guest{
		ID:                id,
		FirstName:         "Ada",
		LastName:          "Lovelace",
		TicketType:        "VIP",
		PlusOnesAllowed:   allowed,
		PlusOnesCheckedIn: checkedIn,
		Status:            models.StatusNotCheckedIn,
		CreatedAt:         now,
		LastModified:      now,
	}
	db.guests[id] = guest
	return guest
}

func newService(db *MockCheckInDB, pub *MockPublisher) *checkin.Service {
	if pub == nil {
		return checkin.NewService(db, nil, nil, nil)
	}
	return checkin.NewService(db, pub, nil, nil)
}

func TestCheckInValidation(t *testing.T) {
	svc := newService(NewMockCheckInDB(), nil)
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, "", "usher-A", 0)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.CheckIn(ctx, "g1", "", 0)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.CheckIn(ctx, "g1", "usher-A", -1)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCheckInNotFound(t *testing.T) {
	svc := newService(NewMockCheckInDB(), nil)

	_, err := svc.CheckIn(context.Background(), "missing", "usher-A", 0)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCheckInFirstArrival(t *testing.T) {
	db := NewMockCheckInDB()
	pub := &MockPublisher{}
	svc := newService(db, pub)
	seedGuest(db, "g1", 2, 0)

	view, err := svc.CheckIn(context.Background(), "g1", "usher-A", 2)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCheckedIn, view.Status)
	assert.Equal(t, 2, view.PlusOnesCheckedIn)
	assert.Equal(t, 0, view.PlusOnesRemaining)
	assert.Equal(t, "usher-A", view.CheckedInBy)
	assert.NotEmpty(t, view.CheckInTime)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "g1", pub.events[0].GuestID)
	assert.Equal(t, 2, pub.events[0].PlusOnesAtCheckIn)
}

func TestCheckInIdempotentRescan(t *testing.T) {
	db := NewMockCheckInDB()
	pub := &MockPublisher{}
	svc := newService(db, pub)
	seedGuest(db, "g1", 2, 0)
	ctx := context.Background()

	first, err := svc.CheckIn(ctx, "g1", "usher-A", 0)
	require.NoError(t, err)

	// Scanning the same badge again is a no-op success: no second ledger
	// entry, check-in time unchanged.
	second, err := svc.CheckIn(ctx, "g1", "usher-B", 0)
	require.NoError(t, err)
	assert.Equal(t, first.CheckInTime, second.CheckInTime)
	assert.Equal(t, "usher-A", second.CheckedInBy)

	entries, err := svc.Ledger(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Len(t, pub.events, 1)
}

func TestCheckInTopUpAfterArrival(t *testing.T) {
	db := NewMockCheckInDB()
	svc := newService(db, nil)
	seedGuest(db, "g1", 3, 0)
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, "g1", "usher-A", 1)
	require.NoError(t, err)

	// The rest of the party arrives later; the top-up counts against the
	// same allowance.
	view, err := svc.CheckIn(ctx, "g1", "usher-B", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, view.PlusOnesCheckedIn)
	assert.Equal(t, "usher-A", view.CheckedInBy)

	entries, err := svc.Ledger(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestCheckInInvariantViolation(t *testing.T) {
	db := NewMockCheckInDB()
	pub := &MockPublisher{}
	svc := newService(db, pub)
	seedGuest(db, "g1", 2, 1)

	_, err := svc.CheckIn(context.Background(), "g1", "usher-A", 2)
	assert.ErrorIs(t, err, models.ErrInvariantViolation)
	assert.Empty(t, pub.events)
}

func TestCheckInConcurrentContention(t *testing.T) {
	db := NewMockCheckInDB()
	svc := newService(db, nil)
	seedGuest(db, "g1", 2, 1)
	ctx := context.Background()

	// Two ushers race to add one plus-one each against a single remaining
	// slot. Exactly one wins; the loser gets an invariant violation, never
	// a silent overshoot.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CheckIn(ctx, "g1", "usher", 1)
		}(i)
	}
	wg.Wait()

	var successes, violations int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case assert.ErrorIs(t, err, models.ErrInvariantViolation):
			violations++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, violations)

	guest, err := db.GetGuestByID(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 2, guest.PlusOnesCheckedIn)
}

func TestCheckInPublishFailureIsNonFatal(t *testing.T) {
	db := NewMockCheckInDB()
	pub := &MockPublisher{err: assert.AnError}
	svc := newService(db, pub)
	seedGuest(db, "g1", 1, 0)

	view, err := svc.CheckIn(context.Background(), "g1", "usher-A", 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCheckedIn, view.Status)
}

func TestCheckInStorageUnavailable(t *testing.T) {
	db := NewMockCheckInDB()
	seedGuest(db, "g1", 1, 0)
	db.failOn = "ApplyCheckIn"
	db.failErr = assert.AnError
	svc := newService(db, nil)

	_, err := svc.CheckIn(context.Background(), "g1", "usher-A", 0)
	assert.ErrorIs(t, err, models.ErrStorageUnavailable)
}

func TestLedgerForMissingGuest(t *testing.T) {
	svc := newService(NewMockCheckInDB(), nil)

	_, err := svc.Ledger(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
