package users

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGeneration(t *testing.T) {
	tests := []struct {
		at   time.Time
		want int
	}{
		{time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(2013, 3, 31, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(2013, 4, 1, 0, 0, 0, 0, time.UTC), 2},
		{time.Date(2013, 12, 31, 0, 0, 0, 0, time.UTC), 4},
		{time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), 46},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Generation(tt.at), tt.at.String())
	}
}

func TestGenerationRange_RoundTrips(t *testing.T) {
	for g := 1; g <= 60; g++ {
		from, to := GenerationRange(g, time.UTC)
		assert.Equal(t, g, Generation(from))
		assert.Equal(t, g, Generation(to.Add(-time.Second)))
		assert.Equal(t, g+1, Generation(to))
	}

	from, to := GenerationRange(46, time.UTC)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), to)
}
