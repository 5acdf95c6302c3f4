package models

import "time"

// Talk is the private consultation thread between one user and the admins.
type Talk struct {
	ID        int64        `json:"id"`
	UserID    int64        `json:"user_id"`
	Unreplied bool         `json:"unreplied"`
	UpdatedAt time.Time    `json:"updated_at"`
	User      *UserSummary `json:"user,omitempty"`
}
