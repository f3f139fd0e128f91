package checkin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	checkindb "ms-checkin/internal/checkin/db"
	"ms-checkin/internal/logger"
	"ms-checkin/internal/models"
	"ms-checkin/internal/normalize"
)

type DBLayer interface {
	GetGuestByID(ctx context.Context, id string) (*models.Guest, error)
	ApplyCheckIn(ctx context.Context, guestID, performedBy string, plusOnes int, now time.Time) (*models.Guest, error)
	GetLedgerByGuest(ctx context.Context, guestID string) ([]models.CheckInEntry, error)
}

// EventPublisher streams successful check-ins to downstream consumers
// (analytics, post-event reconciliation). Publishing is best-effort: the
// database transaction is the source of truth and has already committed.
type EventPublisher interface {
	PublishGuestCheckedIn(entry models.CheckInEntry, guest models.GuestView) error
}

// StatsCache keeps the arrived-guest counter warm for the roster stats
// endpoint. Also best-effort.
type StatsCache interface {
	IncrCheckedIn(ctx context.Context) error
}

type Service struct {
	DB     DBLayer
	Kafka  EventPublisher
	Stats  StatsCache
	Logger *logger.Logger
}

func NewService(db DBLayer, kafka EventPublisher, stats StatsCache, log *logger.Logger) *Service {
	return &Service{DB: db, Kafka: kafka, Stats: stats, Logger: log}
}

// CheckIn marks a guest and plusOnes accompanying guests as arrived.
//
// The caller decides the plus-one count; the service only validates it
// against the allowance. Re-scanning an already-arrived guest with
// plusOnes == 0 is an idempotent no-op: the current view comes back with no
// new ledger entry and check_in_time untouched. A positive plusOnes on an
// already-arrived guest is a valid incremental top-up, still subject to the
// allowance.
func (s *Service) CheckIn(ctx context.Context, guestID, performedBy string, plusOnes int) (*models.GuestView, error) {
	if strings.TrimSpace(guestID) == "" {
		return nil, fmt.Errorf("%w: guest id is required", models.ErrValidation)
	}
	if strings.TrimSpace(performedBy) == "" {
		return nil, fmt.Errorf("%w: performed_by is required", models.ErrValidation)
	}
	if plusOnes < 0 {
		return nil, fmt.Errorf("%w: plus_ones must be non-negative, got %d", models.ErrValidation, plusOnes)
	}

	guest, err := s.DB.GetGuestByID(ctx, guestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", models.ErrNotFound, guestID)
		}
		return nil, fmt.Errorf("%w: reading guest %s: %v", models.ErrStorageUnavailable, guestID, err)
	}

	// Canonicalize so legacy status spellings ("Checked In") still count.
	alreadyIn := normalize.CanonicalStatus(guest.Status) == models.StatusCheckedIn && guest.CheckInTime != nil
	if alreadyIn && plusOnes == 0 {
		// Idempotent re-scan of an arrived guest.
		view := normalize.FromGuest(guest)
		return &view, nil
	}

	// Pre-check against the count we just read. The authoritative check is
	// the guard inside ApplyCheckIn; this one only gives a precise message
	// without burning a transaction.
	if guest.PlusOnesCheckedIn+plusOnes > guest.PlusOnesAllowed {
		return nil, fmt.Errorf("%w: guest %s has %d of %d plus-ones checked in, requested %d more",
			models.ErrInvariantViolation, guestID, guest.PlusOnesCheckedIn, guest.PlusOnesAllowed, plusOnes)
	}

	now := time.Now().UTC()
	updated, err := s.DB.ApplyCheckIn(ctx, guestID, performedBy, plusOnes, now)
	if err != nil {
		if errors.Is(err, checkindb.ErrGuardFailed) {
			return nil, s.explainGuardFailure(ctx, guestID, plusOnes)
		}
		return nil, fmt.Errorf("%w: applying check-in for guest %s: %v", models.ErrStorageUnavailable, guestID, err)
	}

	if s.Logger != nil {
		s.Logger.LogCheckIn(guestID, performedBy, fmt.Sprintf("checked in %d plus-one(s), cumulative %d/%d",
			plusOnes, updated.PlusOnesCheckedIn, updated.PlusOnesAllowed))
	}

	view := normalize.FromGuest(updated)
	s.afterCommit(ctx, updated, view, !alreadyIn, performedBy, now)
	return &view, nil
}

// explainGuardFailure re-reads the guest after the conditional update
// matched nothing, to distinguish a lost race over the allowance from a
// vanished row.
func (s *Service) explainGuardFailure(ctx context.Context, guestID string, plusOnes int) error {
	current, err := s.DB.GetGuestByID(ctx, guestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", models.ErrNotFound, guestID)
		}
		return fmt.Errorf("%w: re-reading guest %s: %v", models.ErrStorageUnavailable, guestID, err)
	}
	return fmt.Errorf("%w: guest %s has %d of %d plus-ones checked in, requested %d more",
		models.ErrInvariantViolation, guestID, current.PlusOnesCheckedIn, current.PlusOnesAllowed, plusOnes)
}

// afterCommit runs the best-effort side effects of a committed check-in.
// Failures are logged, never surfaced: the caller's check-in already
// happened.
func (s *Service) afterCommit(ctx context.Context, guest *models.Guest, view models.GuestView, firstArrival bool, performedBy string, now time.Time) {
	if s.Kafka != nil {
		entry := models.CheckInEntry{
			GuestID:           guest.ID,
			Timestamp:         now,
			PerformedBy:       performedBy,
			PlusOnesAtCheckIn: guest.PlusOnesCheckedIn,
		}
		if err := s.Kafka.PublishGuestCheckedIn(entry, view); err != nil && s.Logger != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("failed to publish check-in event for guest %s: %v", guest.ID, err))
		}
	}
	if s.Stats != nil && firstArrival {
		if err := s.Stats.IncrCheckedIn(ctx); err != nil && s.Logger != nil {
			s.Logger.Warn("REDIS", fmt.Sprintf("failed to bump checked-in counter: %v", err))
		}
	}
}

// Ledger returns the audit trail for one guest, oldest entry first.
func (s *Service) Ledger(ctx context.Context, guestID string) ([]models.CheckInEntry, error) {
	if strings.TrimSpace(guestID) == "" {
		return nil, fmt.Errorf("%w: guest id is required", models.ErrValidation)
	}
	if _, err := s.DB.GetGuestByID(ctx, guestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", models.ErrNotFound, guestID)
		}
		return nil, fmt.Errorf("%w: reading guest %s: %v", models.ErrStorageUnavailable, guestID, err)
	}
	entries, err := s.DB.GetLedgerByGuest(ctx, guestID)
	if err != nil {
		return nil, fmt.Errorf("%w: reading ledger for guest %s: %v", models.ErrStorageUnavailable, guestID, err)
	}
	return entries, nil
}

// GetGuest returns the canonical view of one guest.
func (s *Service) GetGuest(ctx context.Context, guestID string) (*models.GuestView, error) {
	guest, err := s.DB.GetGuestByID(ctx, guestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", models.ErrNotFound, guestID)
		}
		return nil, fmt.Errorf("%w: reading guest %s: %v", models.ErrStorageUnavailable, guestID, err)
	}
	view := normalize.FromGuest(guest)
	return &view, nil
}
