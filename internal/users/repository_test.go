package users

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjord-bootcamp/backend/internal/target"
	"github.com/fjord-bootcamp/backend/pkg/database/dbtest"
)

func TestRepository_SearchPagesPastFirstPage(t *testing.T) {
	pool := dbtest.Open(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		dbtest.User(t, pool, fmt.Sprintf("kimura%02d", i))
	}
	dbtest.User(t, pool, "machida")

	q := SearchQuery{Target: target.UserAll, Now: time.Now(), Word: "kimura", Page: 1, PerPage: SearchPerPage}
	first, total, err := repo.Search(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	assert.Len(t, first, 20)

	q.Page = 2
	second, total, err := repo.Search(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	require.Len(t, second, 5)

	seen := map[int64]bool{}
	for _, u := range append(first, second...) {
		assert.Contains(t, u.LoginName, "kimura")
		seen[u.ID] = true
	}
	assert.Len(t, seen, 25)
}

func TestRepository_TalkIDsAndReportsBetween(t *testing.T) {
	pool := dbtest.Open(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	kimura := dbtest.User(t, pool, "kimura")
	hatsuno := dbtest.User(t, pool, "hatsuno")
	talk := dbtest.InsertID(t, pool, `INSERT INTO talks (user_id) VALUES ($1) RETURNING id`, kimura)

	ids, err := repo.TalkIDs(ctx, []int64{kimura, hatsuno})
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{kimura: talk}, ids)

	for _, day := range []time.Time{
		time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	} {
		dbtest.InsertID(t, pool, `INSERT INTO reports (user_id, reported_on) VALUES ($1, $2) RETURNING id`, kimura, day)
	}
	dbtest.InsertID(t, pool, `INSERT INTO reports (user_id, reported_on, wip) VALUES ($1, '2024-05-10', TRUE) RETURNING id`, kimura)

	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	reports, err := repo.ReportsBetween(ctx, kimura, from, from.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, 1, reports[0].ReportedOn.Day())
	assert.Equal(t, 31, reports[1].ReportedOn.Day())
}
