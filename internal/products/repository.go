package products

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fjord-bootcamp/backend/internal/models"
	"github.com/fjord-bootcamp/backend/pkg/database"
)

// Row is an unchecked product with its submitter.
type Row struct {
	Product   models.Product
	Submitter models.User
}

const (
	uncheckedFrom = ` FROM products p JOIN users u ON u.id = p.user_id WHERE NOT p.checked AND NOT p.wip`
	noReplyFrom   = ` AND NOT EXISTS (SELECT 1 FROM product_comments pc WHERE pc.product_id = p.id AND pc.user_id = $1)`
	rowColumns    = `SELECT p.id, p.user_id, p.practice_title, p.wip, p.checked, p.published_at, p.created_at, p.updated_at,
		u.id, u.login_name, u.name, u.admin, u.mentor, u.adviser, u.trainee, u.graduated_on, u.retired_on, u.avatar_key`
	submissionOrder = ` ORDER BY COALESCE(p.published_at, p.created_at), p.id`
)

// Repository reads the review queue.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a products repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanRow(row pgx.CollectableRow) (Row, error) {
	var r Row
	p, u := &r.Product, &r.Submitter
	err := row.Scan(&p.ID, &p.UserID, &p.PracticeTitle, &p.WIP, &p.Checked, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
		&u.ID, &u.LoginName, &u.Name, &u.Admin, &u.Mentor, &u.Adviser, &u.Trainee, &u.GraduatedOn, &u.RetiredOn, &u.AvatarKey)
	return r, err
}

// queueQuery is the count and page statements of one review queue page.
type queueQuery struct {
	Count     string
	CountArgs []any
	List      string
	ListArgs  []any
}

// buildQueueQuery composes the queue statements. A non-zero reviewerID
// restricts the queue to products that reviewer has not commented on.
func buildQueueQuery(reviewerID int64, page, perPage int) queueQuery {
	from := uncheckedFrom
	var args []any
	if reviewerID != 0 {
		from += noReplyFrom
		args = append(args, reviewerID)
	}
	n := len(args)
	return queueQuery{
		Count:     `SELECT COUNT(*)` + from,
		CountArgs: args,
		List:      rowColumns + from + submissionOrder + fmt.Sprintf(` LIMIT $%d OFFSET $%d`, n+1, n+2),
		ListArgs:  append(append([]any{}, args...), perPage, database.Offset(page, perPage)),
	}
}

func (r *Repository) page(ctx context.Context, q queueQuery) ([]Row, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, q.Count, q.CountArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count unchecked products: %w", err)
	}
	rows, err := r.pool.Query(ctx, q.List, q.ListArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list unchecked products: %w", err)
	}
	list, err := pgx.CollectRows(rows, scanRow)
	if err != nil {
		return nil, 0, fmt.Errorf("scan unchecked products: %w", err)
	}
	return list, total, nil
}

// ListUnchecked returns one page of unchecked, non-WIP products, oldest
// submission first, and the total count.
func (r *Repository) ListUnchecked(ctx context.Context, page, perPage int) ([]Row, int64, error) {
	return r.page(ctx, buildQueueQuery(0, page, perPage))
}

// ListUncheckedNoReplied is ListUnchecked restricted to products the
// reviewer has not commented on.
func (r *Repository) ListUncheckedNoReplied(ctx context.Context, reviewerID int64, page, perPage int) ([]Row, int64, error) {
	return r.page(ctx, buildQueueQuery(reviewerID, page, perPage))
}
