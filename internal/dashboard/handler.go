package dashboard

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fjord-bootcamp/backend/internal/middleware"
	"github.com/fjord-bootcamp/backend/internal/models"
	"github.com/fjord-bootcamp/backend/pkg/response"
)

// AnnouncementLimit is how many announcements the dashboard shows.
const AnnouncementLimit = 5

// Store is the data the dashboard reads.
type Store interface {
	LatestAnnouncements(ctx context.Context, limit int) ([]models.Announcement, error)
	ReportsBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.Report, error)
}

// Landing is shown to guests.
type Landing struct {
	Welcome   bool   `json:"welcome"`
	LoginPath string `json:"login_path"`
}

// Dashboard is the signed-in home page.
type Dashboard struct {
	User          models.UserSummary    `json:"user"`
	MissingFields []string              `json:"missing_fields"`
	Announcements []models.Announcement `json:"announcements"`
	Calendar      *Calendar             `json:"niconico_calendar,omitempty"`
}

// Handler serves the root page.
type Handler struct {
	store    Store
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewHandler creates a dashboard handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, location: time.Local, now: time.Now, logger: logger}
}

// MissingFields lists the account links u has not filled in yet.
func MissingFields(u *models.User) []string {
	out := []string{}
	if u.GithubAccount == "" {
		out = append(out, "github_account")
	}
	if u.DiscordAccount == "" {
		out = append(out, "discord_account")
	}
	return out
}

// ShowsCalendar reports whether u gets the niconico calendar.
func ShowsCalendar(u *models.User) bool {
	return u.IsActiveLearner()
}

// Show handles GET /.
func (h *Handler) Show(c *gin.Context) {
	viewer := middleware.Viewer(c)
	if viewer == nil {
		response.OK(c, Landing{Welcome: true, LoginPath: "/login"})
		return
	}
	ctx := c.Request.Context()

	announcements, err := h.store.LatestAnnouncements(ctx, AnnouncementLimit)
	if err != nil {
		h.logger.Error("list announcements failed", zap.Error(err))
		response.Internal(c, "failed to load dashboard")
		return
	}
	d := Dashboard{
		User:          viewer.Summary(""),
		MissingFields: MissingFields(viewer),
		Announcements: announcements,
	}
	if ShowsCalendar(viewer) {
		today := h.now().In(h.location)
		month := ParseMonth(c.Query("niconico_calendar"), today)
		reports, err := h.store.ReportsBetween(ctx, viewer.ID, month, month.AddDate(0, 1, 0))
		if err != nil {
			h.logger.Error("list reports failed", zap.Int64("user_id", viewer.ID), zap.Error(err))
			response.Internal(c, "failed to load dashboard")
			return
		}
		cal := BuildCalendar(month, reports, today)
		d.Calendar = &cal
	}
	response.OK(c, d)
}
