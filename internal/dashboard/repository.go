package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fjord-bootcamp/backend/internal/models"
)

// Repository reads dashboard data.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a dashboard repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LatestAnnouncements returns published, non-WIP announcements, newest first.
func (r *Repository) LatestAnnouncements(ctx context.Context, limit int) ([]models.Announcement, error) {
	const query = `SELECT id, title, wip, published_at FROM announcements
		WHERE NOT wip AND published_at IS NOT NULL
		ORDER BY published_at DESC, id DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Announcement, error) {
		var a models.Announcement
		err := row.Scan(&a.ID, &a.Title, &a.WIP, &a.PublishedAt)
		return a, err
	})
}

// ReportsBetween returns the user's non-WIP reports dated in [from, to).
func (r *Repository) ReportsBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.Report, error) {
	const query = `SELECT id, user_id, reported_on, emotion, wip FROM reports
		WHERE user_id = $1 AND NOT wip AND reported_on >= $2 AND reported_on < $3
		ORDER BY reported_on`
	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Report, error) {
		var rep models.Report
		err := row.Scan(&rep.ID, &rep.UserID, &rep.ReportedOn, &rep.Emotion, &rep.WIP)
		return rep, err
	})
}
