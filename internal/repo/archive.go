// Package repo – resolution archive.
//
// The ledger drops a request the moment its tally is resolved; the archive
// keeps that outcome so past leaderboards stay auditable. Inserts happen
// on the sweep path and must never block resolution, so the sweeper treats
// failures here as log-only.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-request-bot/internal/domain"
)

// Archive persists resolved requests.
type Archive struct {
	// DB is the database handle used for all archive operations.
	DB *gorm.DB
}

// Record inserts one resolved request. The row id is generated here; the
// caller supplies everything else.
func (a *Archive) Record(ctx context.Context, r domain.ResolvedRequest) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.ResolvedAt.IsZero() {
		r.ResolvedAt = time.Now().UTC()
	}
	return a.DB.WithContext(ctx).Create(&r).Error
}

// Recent returns the most recently resolved requests, newest first, up to
// limit rows.
func (a *Archive) Recent(ctx context.Context, limit int) ([]domain.ResolvedRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []domain.ResolvedRequest
	err := a.DB.WithContext(ctx).
		Order("resolved_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// TopSince returns the highest-voted resolutions since the given time,
// votes descending, up to limit rows.
func (a *Archive) TopSince(ctx context.Context, since time.Time, limit int) ([]domain.ResolvedRequest, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []domain.ResolvedRequest
	err := a.DB.WithContext(ctx).
		Where("resolved_at >= ?", since).
		Order("votes DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
