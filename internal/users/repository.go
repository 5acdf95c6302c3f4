package users

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fjord-bootcamp/backend/internal/models"
	"github.com/fjord-bootcamp/backend/internal/target"
	"github.com/fjord-bootcamp/backend/pkg/database"
)

const userColumns = `id, login_name, name, name_kana, email, password_hash, admin, mentor, adviser, trainee,
	job_seeking, hibernated, graduated_on, retired_on, retire_reason, training_ends_on, company_id,
	description, twitter_account, discord_account, github_account, blog_url, facebook_url, times_url,
	avatar_key, last_activity_at, created_at, updated_at`

const listOrder = ` ORDER BY updated_at DESC, id DESC`

// ListQuery selects one page of a target listing.
type ListQuery struct {
	Target   target.User
	ViewerID int64
	Now      time.Time
	Page     int
	PerPage  int
}

// SearchQuery is an incremental search within a target.
type SearchQuery struct {
	Target   target.User
	ViewerID int64
	Now      time.Time
	Word     string
	Page     int
	PerPage  int
}

// TagCount is a tag with the number of users carrying it.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CompanyUsers groups the current members of a company.
type CompanyUsers struct {
	Company models.Company `json:"company"`
	Users   []models.User  `json:"-"`
}

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a users repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.LoginName, &u.Name, &u.NameKana, &u.Email, &u.Password, &u.Admin, &u.Mentor,
		&u.Adviser, &u.Trainee, &u.JobSeeking, &u.Hibernated, &u.GraduatedOn, &u.RetiredOn, &u.RetireReason,
		&u.TrainingEndsOn, &u.CompanyID, &u.Description, &u.TwitterAccount, &u.DiscordAccount, &u.GithubAccount,
		&u.BlogURL, &u.FacebookURL, &u.TimesURL, &u.AvatarKey, &u.LastActivityAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func collectUsers(rows pgx.Rows) ([]models.User, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.User, error) {
		u, err := scanUser(row)
		if err != nil {
			return models.User{}, err
		}
		return *u, nil
	})
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, database.NotFound("get user", err)
	}
	return u, nil
}

// GetByLoginName returns the user whose login name or email equals login.
func (r *Repository) GetByLoginName(ctx context.Context, login string) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE login_name = $1 OR email = $1 LIMIT 1`, login))
	if err != nil {
		return nil, database.NotFound("get user by login", err)
	}
	return u, nil
}

// TouchActivity records the time of the user's latest request.
func (r *Repository) TouchActivity(ctx context.Context, id int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_activity_at = $2 WHERE id = $1`, id, at)
	return err
}

// AdminIDs returns the ids of all admins in ascending order.
func (r *Repository) AdminIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM users WHERE admin ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list admin ids: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// ListByIDs returns the users with the given ids ordered by id.
func (r *Repository) ListByIDs(ctx context.Context, ids []int64) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("list users by ids: %w", err)
	}
	return collectUsers(rows)
}

func (r *Repository) page(ctx context.Context, where string, a args, page, perPage int) ([]models.User, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE `+where, a...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	limit := a.add(perPage)
	offset := a.add(database.Offset(page, perPage))
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where+listOrder+` LIMIT `+limit+` OFFSET `+offset, a...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	list, err := collectUsers(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("scan users: %w", err)
	}
	return list, total, nil
}

// List returns one page of the users selected by q.Target and the total count.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]models.User, int64, error) {
	var a args
	where := predicate(q.Target, q.ViewerID, q.Now, &a)
	return r.page(ctx, where, a, q.Page, q.PerPage)
}

// Search returns one page of users of q.Target whose searchable fields
// contain q.Word, and the total number of matches.
func (r *Repository) Search(ctx context.Context, q SearchQuery) ([]models.User, int64, error) {
	var a args
	where := predicate(q.Target, q.ViewerID, q.Now, &a) + " AND " + searchCondition(q.Word, &a)
	list, total, err := r.page(ctx, where, a, q.Page, q.PerPage)
	if err != nil {
		return nil, 0, fmt.Errorf("search users: %w", err)
	}
	return list, total, nil
}

// ListTags returns the tags of active users with their user counts, most used first.
func (r *Repository) ListTags(ctx context.Context) ([]TagCount, error) {
	const query = `SELECT t.name, COUNT(*) FROM user_tags t
		JOIN users u ON u.id = t.user_id AND u.retired_on IS NULL
		GROUP BY t.name ORDER BY COUNT(*) DESC, t.name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (TagCount, error) {
		var t TagCount
		err := row.Scan(&t.Name, &t.Count)
		return t, err
	})
}

// ListByTag returns one page of active users carrying tag.
func (r *Repository) ListByTag(ctx context.Context, tag string, page, perPage int) ([]models.User, int64, error) {
	var a args
	where := "id IN (SELECT user_id FROM user_tags WHERE name = " + a.add(tag) + ") AND retired_on IS NULL"
	return r.page(ctx, where, a, page, perPage)
}

// ListByGeneration returns one page of users who signed up in [from, to).
func (r *Repository) ListByGeneration(ctx context.Context, from, to time.Time, page, perPage int) ([]models.User, int64, error) {
	var a args
	where := "created_at >= " + a.add(from) + " AND created_at < " + a.add(to)
	return r.page(ctx, where, a, page, perPage)
}

// ListCompanies returns companies with their current users, ordered by company id.
func (r *Repository) ListCompanies(ctx context.Context) ([]CompanyUsers, error) {
	const query = `SELECT c.id, c.name, ` + prefixedUserColumns + `
		FROM companies c JOIN users u ON u.company_id = c.id AND u.retired_on IS NULL
		ORDER BY c.id, u.id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var out []CompanyUsers
	for rows.Next() {
		var c models.Company
		var u models.User
		err := rows.Scan(&c.ID, &c.Name, &u.ID, &u.LoginName, &u.Name, &u.Admin, &u.Mentor, &u.Adviser,
			&u.Trainee, &u.GraduatedOn, &u.RetiredOn, &u.AvatarKey)
		if err != nil {
			return nil, fmt.Errorf("scan company user: %w", err)
		}
		if n := len(out); n == 0 || out[n-1].Company.ID != c.ID {
			out = append(out, CompanyUsers{Company: c})
		}
		last := &out[len(out)-1]
		last.Users = append(last.Users, u)
	}
	return out, rows.Err()
}

const prefixedUserColumns = `u.id, u.login_name, u.name, u.admin, u.mentor, u.adviser, u.trainee,
	u.graduated_on, u.retired_on, u.avatar_key`

// IsFollowing reports whether follower follows followed.
func (r *Repository) IsFollowing(ctx context.Context, followerID, followedID int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM followings WHERE follower_id = $1 AND followed_id = $2)`,
		followerID, followedID).Scan(&ok)
	return ok, err
}

// TalkID returns the id of the user's talk.
func (r *Repository) TalkID(ctx context.Context, userID int64) (int64, error) {
	var id int64
	if err := r.pool.QueryRow(ctx, `SELECT id FROM talks WHERE user_id = $1`, userID).Scan(&id); err != nil {
		return 0, database.NotFound("get talk id", err)
	}
	return id, nil
}

// TalkIDs maps each of userIDs that owns a talk to that talk's id.
func (r *Repository) TalkIDs(ctx context.Context, userIDs []int64) (map[int64]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id, id FROM talks WHERE user_id = ANY($1)`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("list talk ids: %w", err)
	}
	defer rows.Close()
	out := make(map[int64]int64, len(userIDs))
	for rows.Next() {
		var userID, id int64
		if err := rows.Scan(&userID, &id); err != nil {
			return nil, fmt.Errorf("scan talk id: %w", err)
		}
		out[userID] = id
	}
	return out, rows.Err()
}

// UncheckedProducts returns the user's submitted products awaiting review, oldest first.
func (r *Repository) UncheckedProducts(ctx context.Context, userID int64) ([]models.Product, error) {
	const query = `SELECT id, user_id, practice_title, wip, checked, published_at, created_at, updated_at
		FROM products WHERE user_id = $1 AND NOT checked AND NOT wip
		ORDER BY COALESCE(published_at, created_at), id`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list unchecked products: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Product, error) {
		var p models.Product
		err := row.Scan(&p.ID, &p.UserID, &p.PracticeTitle, &p.WIP, &p.Checked, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt)
		return p, err
	})
}

// Company returns a company by ID.
func (r *Repository) Company(ctx context.Context, id int64) (*models.Company, error) {
	var c models.Company
	if err := r.pool.QueryRow(ctx, `SELECT id, name FROM companies WHERE id = $1`, id).Scan(&c.ID, &c.Name); err != nil {
		return nil, database.NotFound("get company", err)
	}
	return &c, nil
}

// SetGraduated marks the user graduated on the given date.
func (r *Repository) SetGraduated(ctx context.Context, id int64, on time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET graduated_on = $2, job_seeking = FALSE, updated_at = NOW() WHERE id = $1`, id, on)
	if err != nil {
		return fmt.Errorf("set graduated: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ToggleJobSeeking flips the job seeking flag and returns the new value.
func (r *Repository) ToggleJobSeeking(ctx context.Context, id int64) (bool, error) {
	var v bool
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET job_seeking = NOT job_seeking, updated_at = NOW() WHERE id = $1 RETURNING job_seeking`,
		id).Scan(&v)
	if err != nil {
		return false, database.NotFound("toggle job seeking", err)
	}
	return v, nil
}

// SetAvatarKey stores the object key of the user's avatar.
func (r *Repository) SetAvatarKey(ctx context.Context, id int64, key string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET avatar_key = $2, updated_at = NOW() WHERE id = $1`, id, key)
	if err != nil {
		return fmt.Errorf("set avatar key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanReport(row pgx.CollectableRow) (models.Report, error) {
	var rep models.Report
	err := row.Scan(&rep.ID, &rep.UserID, &rep.ReportedOn, &rep.Emotion, &rep.WIP)
	return rep, err
}

// Reports returns the user's published daily reports, oldest first.
func (r *Repository) Reports(ctx context.Context, userID int64) ([]models.Report, error) {
	const query = `SELECT id, user_id, reported_on, emotion, wip FROM reports
		WHERE user_id = $1 AND NOT wip ORDER BY reported_on`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return pgx.CollectRows(rows, scanReport)
}

// ReportsBetween returns the user's published reports dated in [from, to).
func (r *Repository) ReportsBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.Report, error) {
	const query = `SELECT id, user_id, reported_on, emotion, wip FROM reports
		WHERE user_id = $1 AND NOT wip AND reported_on >= $2 AND reported_on < $3
		ORDER BY reported_on`
	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list reports between: %w", err)
	}
	return pgx.CollectRows(rows, scanReport)
}
