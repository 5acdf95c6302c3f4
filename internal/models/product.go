package models

import "time"

// Product is a practice submission awaiting review.
type Product struct {
	ID            int64        `json:"id"`
	UserID        int64        `json:"user_id"`
	PracticeTitle string       `json:"practice_title"`
	WIP           bool         `json:"wip"`
	Checked       bool         `json:"checked"`
	PublishedAt   *time.Time   `json:"published_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	User          *UserSummary `json:"user,omitempty"`
}

// SubmittedAt returns the publishing time, falling back to creation.
func (p *Product) SubmittedAt() time.Time {
	if p.PublishedAt != nil {
		return *p.PublishedAt
	}
	return p.CreatedAt
}

// ElapsedDays returns the whole days between submission and now.
func (p *Product) ElapsedDays(now time.Time) int {
	d := now.Sub(p.SubmittedAt())
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}
