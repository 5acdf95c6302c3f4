package dashboard

import (
	"time"

	"github.com/fjord-bootcamp/backend/internal/models"
)

// MonthLayout is the format of the niconico_calendar query value.
const MonthLayout = "2006-01"

// Day is one cell of the calendar. Blank cells pad the first and last week.
type Day struct {
	Date     string         `json:"date,omitempty"`
	Day      int            `json:"day,omitempty"`
	Emotion  models.Emotion `json:"emotion,omitempty"`
	ReportID int64          `json:"report_id,omitempty"`
	Today    bool           `json:"today,omitempty"`
}

// Calendar is a month of daily report moods, laid out in Sunday-first weeks.
type Calendar struct {
	Month     string  `json:"month"`
	PrevMonth string  `json:"prev_month"`
	NextMonth string  `json:"next_month"`
	Weeks     [][]Day `json:"weeks"`
}

// ParseMonth returns the first day of the month named by raw, or of the
// month containing today when raw is missing or malformed.
func ParseMonth(raw string, today time.Time) time.Time {
	if m, err := time.ParseInLocation(MonthLayout, raw, today.Location()); err == nil {
		return m
	}
	return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
}

// BuildCalendar lays out the month starting at month. today is marked only
// when it falls inside that month.
func BuildCalendar(month time.Time, reports []models.Report, today time.Time) Calendar {
	byDay := make(map[int]models.Report, len(reports))
	for _, r := range reports {
		if r.ReportedOn.Year() == month.Year() && r.ReportedOn.Month() == month.Month() {
			byDay[r.ReportedOn.Day()] = r
		}
	}

	next := month.AddDate(0, 1, 0)
	cal := Calendar{
		Month:     month.Format(MonthLayout),
		PrevMonth: month.AddDate(0, -1, 0).Format(MonthLayout),
		NextMonth: next.Format(MonthLayout),
	}
	week := make([]Day, int(month.Weekday()))
	for d := month; d.Before(next); d = d.AddDate(0, 0, 1) {
		cell := Day{Date: d.Format(time.DateOnly), Day: d.Day()}
		if r, ok := byDay[d.Day()]; ok {
			cell.Emotion, cell.ReportID = r.Emotion, r.ID
		}
		cell.Today = d.Year() == today.Year() && d.YearDay() == today.YearDay()
		week = append(week, cell)
		if len(week) == 7 {
			cal.Weeks = append(cal.Weeks, week)
			week = nil
		}
	}
	if len(week) > 0 {
		cal.Weeks = append(cal.Weeks, append(week, make([]Day, 7-len(week))...))
	}
	return cal
}
