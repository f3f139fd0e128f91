package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CheckInEntry is one row of the append-only check-in ledger. Entries are
// written exactly once per successful check-in and never updated or deleted,
// so "who checked whom in and when" stays reconstructable independently of
// the mutable counters on the guest row.
type CheckInEntry struct {
	bun.BaseModel `bun:"table:checkin_ledger"`

	ID                int64     `bun:"id,pk,autoincrement"`
	GuestID           string    `bun:"guest_id,notnull"`
	Timestamp         time.Time `bun:"timestamp,notnull"`
	PerformedBy       string    `bun:"performed_by,notnull"`
	PlusOnesAtCheckIn int       `bun:"plus_ones_at_checkin"`
}
