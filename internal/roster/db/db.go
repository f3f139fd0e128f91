package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-checkin/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// Filters narrows the roster. Empty fields mean no constraint on that
// dimension; validation of the values happens in the service layer.
type Filters struct {
	Status     string
	TicketType string
}

func (d *DB) applyFilters(q *bun.SelectQuery, f Filters) *bun.SelectQuery {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.TicketType != "" {
		q = q.Where("ticket_type = ?", f.TicketType)
	}
	return q
}

// CountGuests counts the filtered set. Runs as its own read-committed
// query; the page fetch may observe writes committed in between, which the
// roster contract accepts.
func (d *DB) CountGuests(ctx context.Context, f Filters) (int, error) {
	return d.applyFilters(d.Bun.NewSelect().Model((*models.Guest)(nil)), f).Count(ctx)
}

// ListGuestRows returns one page of guest rows as raw column maps, ordered
// by primary key ascending so pages stay stable and never skip or repeat a
// guest. Rows go through the normalization layer before leaving the
// service, which is why they stay untyped here.
func (d *DB) ListGuestRows(ctx context.Context, f Filters, limit, offset int) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	err := d.applyFilters(d.Bun.NewSelect().Model((*models.Guest)(nil)), f).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
