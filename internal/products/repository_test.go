package products

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjord-bootcamp/backend/pkg/database/dbtest"
)

func TestBuildQueueQuery_All(t *testing.T) {
	q := buildQueueQuery(0, 3, 50)

	assert.Contains(t, q.Count, "NOT p.checked AND NOT p.wip")
	assert.NotContains(t, q.Count, "product_comments")
	assert.Empty(t, q.CountArgs)
	assert.Contains(t, q.List, "ORDER BY COALESCE(p.published_at, p.created_at), p.id LIMIT $1 OFFSET $2")
	assert.Equal(t, []any{50, 100}, q.ListArgs)
}

func TestBuildQueueQuery_NoReplied(t *testing.T) {
	q := buildQueueQuery(42, 1, 50)

	assert.Contains(t, q.Count, "NOT p.wip")
	assert.Contains(t, q.Count, "pc.product_id = p.id AND pc.user_id = $1")
	assert.Equal(t, []any{int64(42)}, q.CountArgs)
	assert.Contains(t, q.List, "LIMIT $2 OFFSET $3")
	assert.Equal(t, []any{int64(42), 50, 0}, q.ListArgs)
}

func TestRepository_Queue(t *testing.T) {
	pool := dbtest.Open(t)
	ctx := context.Background()
	repo := NewRepository(pool)

	base := time.Now().UTC().Truncate(time.Second)
	author := dbtest.User(t, pool, "hatsuno")
	reviewer := dbtest.User(t, pool, "machida")
	otherMentor := dbtest.User(t, pool, "komagata")

	product := func(title string, wip, checked bool, published *time.Time, created time.Time) int64 {
		return dbtest.InsertID(t, pool,
			`INSERT INTO products (user_id, practice_title, wip, checked, published_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			author, title, wip, checked, published, created)
	}
	published := base.AddDate(0, 0, -3)
	late := product("published later", false, false, &published, base.AddDate(0, 0, -10))
	early := product("early", false, false, nil, base.AddDate(0, 0, -5))
	product("wip", true, false, nil, base.AddDate(0, 0, -20))
	product("checked", false, true, nil, base.AddDate(0, 0, -20))
	tie := product("tie", false, false, nil, base.AddDate(0, 0, -5))

	comment := func(productID, userID int64) {
		dbtest.InsertID(t, pool, `INSERT INTO product_comments (product_id, user_id) VALUES ($1, $2) RETURNING id`, productID, userID)
	}
	comment(early, reviewer)
	comment(late, otherMentor)

	ids := func(rows []Row) []int64 {
		out := make([]int64, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.Product.ID)
		}
		return out
	}

	rows, total, err := repo.ListUnchecked(ctx, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []int64{early, tie, late}, ids(rows))
	assert.Equal(t, "hatsuno", rows[0].Submitter.LoginName)

	rows, total, err = repo.ListUnchecked(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []int64{late}, ids(rows))

	rows, total, err = repo.ListUncheckedNoReplied(ctx, reviewer, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []int64{tie, late}, ids(rows), "another mentor's comment does not remove a product")

	rows, _, err = repo.ListUncheckedNoReplied(ctx, otherMentor, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, []int64{early, tie}, ids(rows))
}
