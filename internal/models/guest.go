package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	StatusCheckedIn    = "checked_in"
	StatusNotCheckedIn = "not_checked_in"
)

// TicketTypes lists the ticket tiers the roster recognizes. The filter
// layer validates against this set; check-in logic never branches on it.
var TicketTypes = []string{"VIP", "Premium", "General"}

func KnownTicketType(t string) bool {
	for _, known := range TicketTypes {
		if t == known {
			return true
		}
	}
	return false
}

type Guest struct {
	bun.BaseModel `bun:"table:guests"`

	ID                string     `bun:"id,pk"`
	FirstName         string     `bun:"first_name,notnull"`
	LastName          string     `bun:"last_name"`
	Email             string     `bun:"email"`
	Phone             string     `bun:"phone"`
	TicketType        string     `bun:"ticket_type"`
	PlusOnesAllowed   int        `bun:"plus_ones_allowed"`
	PlusOnesCheckedIn int        `bun:"plus_ones_checked_in"`
	Status            string     `bun:"status"`
	CheckInTime       *time.Time `bun:"check_in_time,nullzero"`
	CheckedInBy       string     `bun:"checked_in_by"`
	ConfirmationCode  string     `bun:"confirmation_code"`
	Notes             string     `bun:"notes"`
	CreatedAt         time.Time  `bun:"created_at,notnull"`
	LastModified      time.Time  `bun:"last_modified,notnull"`
}

type CheckInRequest struct {
	GuestID  string `json:"guest_id"`
	PlusOnes int    `json:"plus_ones"`
}

// GuestView is the canonical read model shared by the check-in and roster
// paths. Timestamps are preformatted strings so that rows with missing or
// unparseable values degrade to a sentinel instead of failing the read.
type GuestView struct {
	ID                string `json:"id"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	FullName          string `json:"full_name"`
	Email             string `json:"email,omitempty"`
	Phone             string `json:"phone,omitempty"`
	TicketType        string `json:"ticket_type"`
	PlusOnesAllowed   int    `json:"plus_ones_allowed"`
	PlusOnesCheckedIn int    `json:"plus_ones_checked_in"`
	PlusOnesRemaining int    `json:"plus_ones_remaining"`
	Status            string `json:"status"`
	CheckInTime       string `json:"check_in_time,omitempty"`
	CheckedInBy       string `json:"checked_in_by,omitempty"`
	ConfirmationCode  string `json:"confirmation_code,omitempty"`
	Notes             string `json:"notes,omitempty"`
	CreatedAt         string `json:"created_at"`
	LastModified      string `json:"last_modified"`
}
