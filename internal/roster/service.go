package roster

import (
	"context"
	"fmt"

	"ms-checkin/internal/logger"
	"ms-checkin/internal/models"
	"ms-checkin/internal/normalize"
	rosterdb "ms-checkin/internal/roster/db"
)

const (
	DefaultPageSize = 20
	// MaxPageSize caps page_size so a caller cannot force an unbounded scan.
	MaxPageSize = 100
)

type DBLayer interface {
	CountGuests(ctx context.Context, f rosterdb.Filters) (int, error)
	ListGuestRows(ctx context.Context, f rosterdb.Filters, limit, offset int) ([]map[string]interface{}, error)
}

// StatsCache serves the arrived-guest counter; nil disables caching.
type StatsCache interface {
	CheckedInCount(ctx context.Context) (int64, bool, error)
	SetCheckedInCount(ctx context.Context, count int64) error
}

type Service struct {
	DB     DBLayer
	Cache  StatsCache
	Logger *logger.Logger
}

func NewService(db DBLayer, cache StatsCache, log *logger.Logger) *Service {
	return &Service{DB: db, Cache: cache, Logger: log}
}

// Page is one roster page. Items is never nil, so an empty match encodes
// as [] rather than null.
type Page struct {
	Items      []models.GuestView `json:"items"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
	TotalItems int                `json:"total_items"`
}

// Stats summarizes arrival progress across the whole roster.
type Stats struct {
	TotalGuests  int `json:"total_guests"`
	CheckedIn    int `json:"checked_in"`
	NotCheckedIn int `json:"not_checked_in"`
}

// ListGuests returns one page of the filtered roster, ordered by guest id
// ascending. page is 1-indexed; pageSize is clamped to MaxPageSize. The
// total and the page rows are two read-committed queries against the same
// filter, so a write committed between them can skew the count by one;
// the roster is a monitoring view and accepts that window.
func (s *Service) ListGuests(ctx context.Context, f rosterdb.Filters, page, pageSize int) (*Page, error) {
	if err := validateFilters(f); err != nil {
		return nil, err
	}
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be >= 1, got %d", models.ErrValidation, page)
	}
	if pageSize < 1 {
		return nil, fmt.Errorf("%w: page_size must be >= 1, got %d", models.ErrValidation, pageSize)
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	total, err := s.DB.CountGuests(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: counting guests: %v", models.ErrStorageUnavailable, err)
	}

	result := &Page{
		Items:      []models.GuestView{},
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
	if total == 0 {
		return result, nil
	}

	rows, err := s.DB.ListGuestRows(ctx, f, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: listing guests: %v", models.ErrStorageUnavailable, err)
	}
	for _, row := range rows {
		result.Items = append(result.Items, normalize.FromRow(row))
	}
	return result, nil
}

// GetStats reports total/arrived counts. The arrived count is served from
// the Redis counter when warm and re-warmed from a database count on a
// miss; cache failures fall through to the database.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	total, err := s.DB.CountGuests(ctx, rosterdb.Filters{})
	if err != nil {
		return nil, fmt.Errorf("%w: counting guests: %v", models.ErrStorageUnavailable, err)
	}

	checkedIn, err := s.checkedInCount(ctx)
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalGuests:  total,
		CheckedIn:    checkedIn,
		NotCheckedIn: total - checkedIn,
	}, nil
}

func (s *Service) checkedInCount(ctx context.Context) (int, error) {
	if s.Cache != nil {
		if cached, ok, err := s.Cache.CheckedInCount(ctx); err == nil && ok {
			return int(cached), nil
		} else if err != nil && s.Logger != nil {
			s.Logger.Warn("REDIS", fmt.Sprintf("stats cache read failed, falling back to database: %v", err))
		}
	}

	count, err := s.DB.CountGuests(ctx, rosterdb.Filters{Status: models.StatusCheckedIn})
	if err != nil {
		return 0, fmt.Errorf("%w: counting checked-in guests: %v", models.ErrStorageUnavailable, err)
	}

	if s.Cache != nil {
		if err := s.Cache.SetCheckedInCount(ctx, int64(count)); err != nil && s.Logger != nil {
			s.Logger.Warn("REDIS", fmt.Sprintf("failed to warm stats cache: %v", err))
		}
	}
	return count, nil
}

func validateFilters(f rosterdb.Filters) error {
	switch f.Status {
	case "", models.StatusCheckedIn, models.StatusNotCheckedIn:
	default:
		return fmt.Errorf("%w: unknown status filter %q", models.ErrValidation, f.Status)
	}
	if f.TicketType != "" && !models.KnownTicketType(f.TicketType) {
		return fmt.Errorf("%w: unknown ticket_type filter %q", models.ErrValidation, f.TicketType)
	}
	return nil
}
