package talks

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fjord-bootcamp/backend/internal/models"
	"github.com/fjord-bootcamp/backend/internal/target"
	"github.com/fjord-bootcamp/backend/pkg/database"
)

// Row is a talk with its owner.
type Row struct {
	Talk  models.Talk
	Owner models.User
}

const rowColumns = `SELECT t.id, t.user_id, t.unreplied, t.updated_at,
	u.id, u.login_name, u.name, u.admin, u.mentor, u.adviser, u.trainee, u.graduated_on, u.retired_on, u.avatar_key`

// ownerCondition selects the talks listed under t.
func ownerCondition(t target.Talk) string {
	switch t {
	case target.TalkStudentAndTrainee:
		return "NOT u.admin AND NOT u.mentor AND NOT u.adviser AND u.graduated_on IS NULL AND u.retired_on IS NULL"
	case target.TalkMentor:
		return "u.mentor"
	case target.TalkGraduate:
		return "u.graduated_on IS NOT NULL"
	case target.TalkAdviser:
		return "u.adviser"
	case target.TalkTrainee:
		return "u.trainee"
	case target.TalkRetired:
		return "u.retired_on IS NOT NULL"
	case target.TalkUnreplied:
		return "t.unreplied"
	default:
		return "TRUE"
	}
}

// Repository handles talk persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a talks repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanRow(row pgx.CollectableRow) (Row, error) {
	var r Row
	t, u := &r.Talk, &r.Owner
	err := row.Scan(&t.ID, &t.UserID, &t.Unreplied, &t.UpdatedAt,
		&u.ID, &u.LoginName, &u.Name, &u.Admin, &u.Mentor, &u.Adviser, &u.Trainee, &u.GraduatedOn, &u.RetiredOn, &u.AvatarKey)
	return r, err
}

// GetByID returns a talk and its owner.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Row, error) {
	rows, err := r.pool.Query(ctx, rowColumns+` FROM talks t JOIN users u ON u.id = t.user_id WHERE t.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get talk: %w", err)
	}
	row, err := pgx.CollectOneRow(rows, scanRow)
	if err != nil {
		return nil, database.NotFound("get talk", err)
	}
	return &row, nil
}

// IDByUser returns the id of the talk owned by userID.
func (r *Repository) IDByUser(ctx context.Context, userID int64) (int64, error) {
	var id int64
	if err := r.pool.QueryRow(ctx, `SELECT id FROM talks WHERE user_id = $1`, userID).Scan(&id); err != nil {
		return 0, database.NotFound("get talk by user", err)
	}
	return id, nil
}

// listQuery composes the count and page statements of a talk listing.
func listQuery(t target.Talk, page, perPage int) (count, list string, args []any) {
	from := ` FROM talks t JOIN users u ON u.id = t.user_id WHERE ` + ownerCondition(t)
	count = `SELECT COUNT(*)` + from
	list = rowColumns + from + ` ORDER BY t.updated_at DESC, t.id DESC LIMIT $1 OFFSET $2`
	return count, list, []any{perPage, database.Offset(page, perPage)}
}

// List returns one page of the talks selected by t, most recently updated
// first, and the total count.
func (r *Repository) List(ctx context.Context, t target.Talk, page, perPage int) ([]Row, int64, error) {
	count, list, args := listQuery(t, page, perPage)
	var total int64
	if err := r.pool.QueryRow(ctx, count).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count talks: %w", err)
	}
	rows, err := r.pool.Query(ctx, list, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list talks: %w", err)
	}
	talks, err := pgx.CollectRows(rows, scanRow)
	if err != nil {
		return nil, 0, fmt.Errorf("scan talks: %w", err)
	}
	return talks, total, nil
}
