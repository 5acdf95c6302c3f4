package products

import (
	"sort"
	"strconv"
	"time"

	"github.com/fjord-bootcamp/backend/internal/models"
)

// MaxElapsedBucket collects every product waiting this many days or longer.
const MaxElapsedBucket = 7

// ElapsedGroup is the earliest submitted product of one elapsed-days bucket.
type ElapsedGroup struct {
	ElapsedDays int            `json:"elapsed_days"`
	Label       string         `json:"label"`
	Product     models.Product `json:"product"`
}

// Bucket returns the elapsed-days bucket of p.
func Bucket(p *models.Product, now time.Time) int {
	d := p.ElapsedDays(now)
	if d > MaxElapsedBucket {
		return MaxElapsedBucket
	}
	return d
}

func bucketLabel(b int) string {
	if b == MaxElapsedBucket {
		return "7+"
	}
	return strconv.Itoa(b)
}

func earlier(a, b *models.Product) bool {
	if ta, tb := a.SubmittedAt(), b.SubmittedAt(); !ta.Equal(tb) {
		return ta.Before(tb)
	}
	return a.ID < b.ID
}

// Summarize keeps the earliest submitted product of each non-empty
// elapsed-days bucket, ordered by bucket.
func Summarize(list []models.Product, now time.Time) []ElapsedGroup {
	first := map[int]*models.Product{}
	for i := range list {
		p := &list[i]
		b := Bucket(p, now)
		if cur, ok := first[b]; !ok || earlier(p, cur) {
			first[b] = p
		}
	}
	out := make([]ElapsedGroup, 0, len(first))
	for b, p := range first {
		out = append(out, ElapsedGroup{ElapsedDays: b, Label: bucketLabel(b), Product: *p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ElapsedDays < out[j].ElapsedDays })
	return out
}
