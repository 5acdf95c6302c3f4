package products

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjord-bootcamp/backend/internal/models"
)

var now = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

func submitted(id int64, ago time.Duration) models.Product {
	at := now.Add(-ago)
	return models.Product{ID: id, PublishedAt: &at, CreatedAt: at.Add(-time.Hour)}
}

const day = 24 * time.Hour

func TestBucket(t *testing.T) {
	tests := []struct {
		ago  time.Duration
		want int
	}{
		{0, 0},
		{23 * time.Hour, 0},
		{day, 1},
		{6*day + 23*time.Hour, 6},
		{7 * day, 7},
		{40 * day, 7},
		{-time.Hour, 0},
	}
	for _, tt := range tests {
		p := submitted(1, tt.ago)
		assert.Equal(t, tt.want, Bucket(&p, now), tt.ago.String())
	}
}

func TestBucket_FallsBackToCreatedAt(t *testing.T) {
	p := models.Product{ID: 1, CreatedAt: now.Add(-3 * day)}
	assert.Equal(t, 3, Bucket(&p, now))
}

func TestSummarize_KeepsEarliestPerBucket(t *testing.T) {
	list := []models.Product{
		submitted(1, 30*day),
		submitted(2, 9*day),
		submitted(3, 2*day+time.Hour),
		submitted(4, 2*day+5*time.Hour),
		submitted(5, time.Hour),
	}
	groups := Summarize(list, now)
	require.Len(t, groups, 3)

	assert.Equal(t, 0, groups[0].ElapsedDays)
	assert.Equal(t, int64(5), groups[0].Product.ID)
	assert.Equal(t, 2, groups[1].ElapsedDays)
	assert.Equal(t, int64(4), groups[1].Product.ID)
	assert.Equal(t, 7, groups[2].ElapsedDays)
	assert.Equal(t, "7+", groups[2].Label)
	assert.Equal(t, int64(1), groups[2].Product.ID)
}

func TestSummarize_TieBreaksOnID(t *testing.T) {
	a, b := submitted(9, day), submitted(4, day)
	groups := Summarize([]models.Product{a, b}, now)
	require.Len(t, groups, 1)
	assert.Equal(t, int64(4), groups[0].Product.ID)
	assert.Equal(t, "1", groups[0].Label)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Empty(t, Summarize(nil, now))
}
