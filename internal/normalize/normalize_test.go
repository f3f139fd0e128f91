package normalize_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ms-checkin/internal/models"
	"ms-checkin/internal/normalize"
)

func TestFromRowNamingConventionsAgree(t *testing.T) {
	checkInTime := "2026-08-27T14:30:00Z"

	camel := map[string]any{
		"id":                "guest-1",
		"firstName":         "Ada",
		"lastName":          "Lovelace",
		"email":             "ada@example.com",
		"phone":             "+44 20 7946 0000",
		"ticketType":        "VIP",
		"plusOnesAllowed":   2,
		"plusOnesCheckedIn": 1,
		"status":            "checked_in",
		"checkInTime":       checkInTime,
		"checkedInBy":       "usher-A",
		"confirmationCode":  "GST-ABC123",
		"notes":             "front row",
		"createdAt":         "2026-08-01T09:00:00Z",
		"lastModified":      checkInTime,
	}

	snake := map[string]any{
		"id":                   "guest-1",
		"first_name":           "Ada",
		"last_name":            "Lovelace",
		"email":                "ada@example.com",
		"phone":                "+44 20 7946 0000",
		"ticket_type":          "VIP",
		"plus_ones_allowed":    2,
		"plus_ones_checked_in": 1,
		"status":               "Checked In",
		"check_in_time":        checkInTime,
		"checked_in_by":        "usher-A",
		"confirmation_code":    "GST-ABC123",
		"notes":                "front row",
		"created_at":           "2026-08-01T09:00:00Z",
		"last_modified":        checkInTime,
	}

	camelView := normalize.FromRow(camel)
	snakeView := normalize.FromRow(snake)

	assert.Equal(t, camelView, snakeView)
	assert.Equal(t, "Ada Lovelace", camelView.FullName)
	assert.Equal(t, models.StatusCheckedIn, camelView.Status)
	assert.Equal(t, 1, camelView.PlusOnesRemaining)
}

func TestFromRowPrefersCamelCase(t *testing.T) {
	view := normalize.FromRow(map[string]any{
		"id":         "guest-2",
		"firstName":  "Grace",
		"first_name": "Legacy",
	})
	assert.Equal(t, "Grace", view.FirstName)
}

func TestFromRowStatusNormalization(t *testing.T) {
	cases := map[string]string{
		"checked_in":     models.StatusCheckedIn,
		"Checked In":     models.StatusCheckedIn,
		"  CHECKED  IN ": models.StatusCheckedIn,
		"not_checked_in": models.StatusNotCheckedIn,
		"Not Checked In": models.StatusNotCheckedIn,
		"pending":        models.StatusNotCheckedIn,
		"":               models.StatusNotCheckedIn,
	}
	for raw, want := range cases {
		view := normalize.FromRow(map[string]any{"id": "g", "status": raw})
		assert.Equal(t, want, view.Status, "status %q", raw)
	}
}

func TestFromRowIsTotal(t *testing.T) {
	// An empty row still yields a usable view.
	view := normalize.FromRow(map[string]any{})
	assert.Equal(t, "", view.ID)
	assert.Equal(t, "", view.FullName)
	assert.Equal(t, models.StatusNotCheckedIn, view.Status)
	assert.Equal(t, 0, view.PlusOnesRemaining)
	assert.Equal(t, normalize.TimeUnknown, view.CreatedAt)
	assert.Equal(t, normalize.TimeUnknown, view.LastModified)
	// Absent check-in time means "not arrived", not "unknown".
	assert.Equal(t, "", view.CheckInTime)
}

func TestFromRowUnparseableTimestamp(t *testing.T) {
	view := normalize.FromRow(map[string]any{
		"id":            "g",
		"created_at":    "yesterday-ish",
		"check_in_time": "not a date",
	})
	assert.Equal(t, normalize.TimeUnknown, view.CreatedAt)
	assert.Equal(t, normalize.TimeUnknown, view.CheckInTime)
}

func TestFromRowRemainingNeverNegative(t *testing.T) {
	view := normalize.FromRow(map[string]any{
		"id":                   "g",
		"plus_ones_allowed":    1,
		"plus_ones_checked_in": 3,
	})
	assert.Equal(t, 0, view.PlusOnesRemaining)
}

func TestFromGuestMatchesFromRow(t *testing.T) {
	arrived := time.Date(2026, 8, 27, 14, 30, 0, 0, time.UTC)
	created := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	guest := &models.Guest{
		ID:                "guest-3",
		FirstName:         "Alan",
		LastName:          "Turing",
		TicketType:        "Premium",
		PlusOnesAllowed:   3,
		PlusOnesCheckedIn: 2,
		Status:            models.StatusCheckedIn,
		CheckInTime:       &arrived,
		CheckedInBy:       "usher-B",
		CreatedAt:         created,
		LastModified:      arrived,
	}

	row := map[string]any{
		"id":                   "guest-3",
		"first_name":           "Alan",
		"last_name":            "Turing",
		"ticket_type":          "Premium",
		"plus_ones_allowed":    3,
		"plus_ones_checked_in": 2,
		"status":               models.StatusCheckedIn,
		"check_in_time":        arrived,
		"checked_in_by":        "usher-B",
		"created_at":           created,
		"last_modified":        arrived,
	}

	assert.Equal(t, normalize.FromRow(row), normalize.FromGuest(guest))
}
