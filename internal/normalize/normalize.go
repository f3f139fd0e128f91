package normalize

import (
	"strconv"
	"strings"
	"time"

	"ms-checkin/internal/models"
)

// TimeUnknown is the sentinel rendered for a timestamp that is present but
// cannot be parsed, or required but missing. Reads never fail on bad dates.
const TimeUnknown = "unknown"

// timeLayouts covers the formats seen across imports and both database
// dialects. Tried in order.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FromRow maps a raw guest row onto the canonical view. It is total: any
// row shape produces a view, with unknown values degraded to defaults.
// Attribute keys are accepted in both the current camelCase convention and
// the legacy snake_case one; camelCase wins when both are present.
func FromRow(row map[string]any) models.GuestView {
	first := asString(pick(row, "firstName", "first_name"))
	last := asString(pick(row, "lastName", "last_name"))
	allowed := asInt(pick(row, "plusOnesAllowed", "plus_ones_allowed"))
	checkedIn := asInt(pick(row, "plusOnesCheckedIn", "plus_ones_checked_in"))

	return models.GuestView{
		ID:                asString(pick(row, "id", "guestId", "guest_id")),
		FirstName:         first,
		LastName:          last,
		FullName:          FullName(first, last),
		Email:             asString(pick(row, "email", "email_address", "emailAddress")),
		Phone:             asString(pick(row, "phone", "phone_number", "phoneNumber")),
		TicketType:        asString(pick(row, "ticketType", "ticket_type")),
		PlusOnesAllowed:   allowed,
		PlusOnesCheckedIn: checkedIn,
		PlusOnesRemaining: Remaining(allowed, checkedIn),
		Status:            CanonicalStatus(asString(pick(row, "status", "checkin_status", "checkinStatus"))),
		CheckInTime:       timeString(pick(row, "checkInTime", "check_in_time")),
		CheckedInBy:       asString(pick(row, "checkedInBy", "checked_in_by")),
		ConfirmationCode:  asString(pick(row, "confirmationCode", "confirmation_code")),
		Notes:             asString(pick(row, "notes")),
		CreatedAt:         requiredTime(pick(row, "createdAt", "created_at")),
		LastModified:      requiredTime(pick(row, "lastModified", "last_modified")),
	}
}

// FromGuest is the typed fast path used by the write side. Derived fields
// follow the same rules as FromRow.
func FromGuest(g *models.Guest) models.GuestView {
	view := models.GuestView{
		ID:                g.ID,
		FirstName:         g.FirstName,
		LastName:          g.LastName,
		FullName:          FullName(g.FirstName, g.LastName),
		Email:             g.Email,
		Phone:             g.Phone,
		TicketType:        g.TicketType,
		PlusOnesAllowed:   g.PlusOnesAllowed,
		PlusOnesCheckedIn: g.PlusOnesCheckedIn,
		PlusOnesRemaining: Remaining(g.PlusOnesAllowed, g.PlusOnesCheckedIn),
		Status:            CanonicalStatus(g.Status),
		CheckedInBy:       g.CheckedInBy,
		ConfirmationCode:  g.ConfirmationCode,
		Notes:             g.Notes,
		CreatedAt:         requiredTime(g.CreatedAt),
		LastModified:      requiredTime(g.LastModified),
	}
	if g.CheckInTime != nil {
		view.CheckInTime = timeString(*g.CheckInTime)
	}
	return view
}

// FullName joins the name parts and trims, so a missing last name does not
// leave a trailing space.
func FullName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// Remaining clamps at zero so a legacy row with an over-counted checked-in
// value never renders a negative allowance.
func Remaining(allowed, checkedIn int) int {
	if remaining := allowed - checkedIn; remaining > 0 {
		return remaining
	}
	return 0
}

// CanonicalStatus folds free-text status values ("Checked In", " checked_in ",
// "CHECKED  IN") into the canonical enum. Anything unrecognized, including
// the empty string, normalizes to not_checked_in.
func CanonicalStatus(raw string) string {
	folded := strings.Join(strings.Fields(strings.ToLower(strings.ReplaceAll(raw, "_", " "))), "_")
	if folded == models.StatusCheckedIn {
		return models.StatusCheckedIn
	}
	return models.StatusNotCheckedIn
}

// pick returns the first present, non-nil value among the given keys.
func pick(row map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := row[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return ""
	}
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

// timeString renders a stored timestamp as RFC 3339 UTC. A missing value
// yields the empty string (meaningful for check_in_time: the guest has not
// arrived); a present but unparseable value yields TimeUnknown.
func timeString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	case *time.Time:
		if t == nil {
			return ""
		}
		return timeString(*t)
	case int64:
		return time.Unix(t, 0).UTC().Format(time.RFC3339)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return ""
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC().Format(time.RFC3339)
			}
		}
		return TimeUnknown
	default:
		return TimeUnknown
	}
}

// requiredTime is timeString for fields every guest row should carry
// (created_at, last_modified): a missing value is reported as TimeUnknown
// rather than silently blank.
func requiredTime(v any) string {
	if s := timeString(v); s != "" {
		return s
	}
	return TimeUnknown
}
