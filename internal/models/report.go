package models

import "time"

// Emotion is the mood attached to a daily report.
type Emotion string

const (
	EmotionSad   Emotion = "sad"
	EmotionSoso  Emotion = "soso"
	EmotionHappy Emotion = "happy"
)

// Report is a daily report; only the date and emotion are used here.
type Report struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	ReportedOn time.Time `json:"reported_on"`
	Emotion    Emotion   `json:"emotion"`
	WIP        bool      `json:"wip"`
}

// Announcement is a staff notice shown on the dashboard.
type Announcement struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	WIP         bool       `json:"wip"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// Company sponsors trainees.
type Company struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
