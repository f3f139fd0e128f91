package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ms-checkin/internal/models"
)

// ErrGuardFailed reports that the conditional check-in update matched no
// row: either the guest vanished or a concurrent check-in consumed the
// remaining allowance first. The caller re-reads to tell the two apart.
var ErrGuardFailed = errors.New("conditional check-in update matched no row")

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetGuestByID(ctx context.Context, id string) (*models.Guest, error) {
	var guest models.Guest
	err := d.Bun.NewSelect().
		Model(&guest).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &guest, nil
}

// CreateGuest inserts a guest row. Used by the import/registration path;
// the check-in flow never creates guests.
func (d *DB) CreateGuest(ctx context.Context, guest *models.Guest) error {
	_, err := d.Bun.NewInsert().Model(guest).Exec(ctx)
	return err
}

// ApplyCheckIn performs one check-in as a single transaction: a guarded
// conditional UPDATE on the guest row plus exactly one ledger INSERT.
//
// The allowance invariant is enforced inside the UPDATE itself via
// "plus_ones_checked_in + ? <= plus_ones_allowed", so two concurrent
// attempts against the same guest can never both pass a stale-count check:
// the database serializes the row update and the loser's guard matches
// nothing. check_in_time and checked_in_by are written only on the first
// transition (COALESCE / CASE on the pre-update check_in_time).
//
// Returns ErrGuardFailed when the guard matched no row. On any error the
// transaction rolls back, so a ledger entry never exists without its
// counter update and vice versa.
func (d *DB) ApplyCheckIn(ctx context.Context, guestID, performedBy string, plusOnes int, now time.Time) (*models.Guest, error) {
	var updated models.Guest

	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Guest)(nil)).
			Set("plus_ones_checked_in = plus_ones_checked_in + ?", plusOnes).
			Set("status = ?", models.StatusCheckedIn).
			Set("check_in_time = COALESCE(check_in_time, ?)", now).
			Set("checked_in_by = CASE WHEN check_in_time IS NULL THEN ? ELSE checked_in_by END", performedBy).
			Set("last_modified = ?", now).
			Where("id = ?", guestID).
			Where("plus_ones_checked_in + ? <= plus_ones_allowed", plusOnes).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrGuardFailed
		}

		if err := tx.NewSelect().
			Model(&updated).
			Where("id = ?", guestID).
			Limit(1).
			Scan(ctx); err != nil {
			return err
		}

		entry := models.CheckInEntry{
			GuestID:           guestID,
			Timestamp:         now,
			PerformedBy:       performedBy,
			PlusOnesAtCheckIn: updated.PlusOnesCheckedIn,
		}
		_, err = tx.NewInsert().Model(&entry).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetLedgerByGuest returns the audit trail for one guest, oldest first.
func (d *DB) GetLedgerByGuest(ctx context.Context, guestID string) ([]models.CheckInEntry, error) {
	var entries []models.CheckInEntry
	err := d.Bun.NewSelect().
		Model(&entries).
		Where("guest_id = ?", guestID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entries, nil
}
