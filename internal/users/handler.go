package users

import (
	"context"
	"encoding/csv"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fjord-bootcamp/backend/internal/dashboard"
	"github.com/fjord-bootcamp/backend/internal/middleware"
	"github.com/fjord-bootcamp/backend/internal/models"
	"github.com/fjord-bootcamp/backend/internal/policy"
	"github.com/fjord-bootcamp/backend/internal/target"
	"github.com/fjord-bootcamp/backend/pkg/database"
	"github.com/fjord-bootcamp/backend/pkg/response"
)

// UsersPath is the user directory landing page.
const UsersPath = "/users"

// Store is the persistence the user pages need.
type Store interface {
	Searcher
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, q ListQuery) ([]models.User, int64, error)
	ListTags(ctx context.Context) ([]TagCount, error)
	ListByTag(ctx context.Context, tag string, page, perPage int) ([]models.User, int64, error)
	ListCompanies(ctx context.Context) ([]CompanyUsers, error)
	ListByGeneration(ctx context.Context, from, to time.Time, page, perPage int) ([]models.User, int64, error)
	IsFollowing(ctx context.Context, followerID, followedID int64) (bool, error)
	TalkID(ctx context.Context, userID int64) (int64, error)
	UncheckedProducts(ctx context.Context, userID int64) ([]models.Product, error)
	Company(ctx context.Context, id int64) (*models.Company, error)
	Reports(ctx context.Context, userID int64) ([]models.Report, error)
	ReportsBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.Report, error)
	TalkIDs(ctx context.Context, userIDs []int64) (map[int64]int64, error)
	SetGraduated(ctx context.Context, id int64, on time.Time) error
	ToggleJobSeeking(ctx context.Context, id int64) (bool, error)
}

// AvatarJobs schedules avatar imports.
type AvatarJobs interface {
	EnqueueAvatarImport(ctx context.Context, userID int64, sourceURL string) error
}

// ListItem is a user row in a listing. TalkPath is set for admin viewers,
// OwnTrainee for advisers looking at their company's trainees.
type ListItem struct {
	models.UserSummary
	TimesURL   string `json:"times_url,omitempty"`
	TalkPath   string `json:"talk_path,omitempty"`
	OwnTrainee bool   `json:"own_trainee,omitempty"`
	Inactive   bool   `json:"inactive,omitempty"`
}

// ListResponse is the payload of the user directory.
type ListResponse struct {
	Target        target.User   `json:"target"`
	Targets       []target.User `json:"targets"`
	SearchEnabled bool          `json:"search_enabled"`
	Users         []ListItem    `json:"users"`
}

// AvatarURLRequest is the body for PUT /api/users/:id/avatar_url.
type AvatarURLRequest struct {
	URL string `json:"url" binding:"required"`
}

// Handler handles user directory and profile endpoints.
type Handler struct {
	store    Store
	search   *SearchService
	avatars  AvatarResolver
	jobs     AvatarJobs
	render   *DescriptionRenderer
	perPage  int
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewHandler creates a users handler.
func NewHandler(store Store, avatars AvatarResolver, jobs AvatarJobs, perPage int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:    store,
		search:   NewSearchService(store, avatars),
		avatars:  avatars,
		jobs:     jobs,
		render:   NewDescriptionRenderer(),
		perPage:  perPage,
		location: time.Local,
		now:      time.Now,
		logger:   logger,
	}
}

// Search returns the search service shared with the websocket surface.
func (h *Handler) Search() *SearchService { return h.search }

func pageParam(c *gin.Context) int { return database.PageParam(c.Query("page")) }

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) meta(page int, total int64) response.Meta {
	return response.Meta{Page: page, PerPage: h.perPage, TotalPages: database.TotalPages(total, h.perPage), Total: total}
}

func (h *Handler) items(ctx context.Context, viewer *models.User, list []models.User) ([]ListItem, error) {
	var talkIDs map[int64]int64
	if viewer.Admin && len(list) > 0 {
		ids := make([]int64, 0, len(list))
		for i := range list {
			ids = append(ids, list[i].ID)
		}
		var err error
		if talkIDs, err = h.store.TalkIDs(ctx, ids); err != nil {
			return nil, err
		}
	}
	out := make([]ListItem, 0, len(list))
	now := h.now()
	for i := range list {
		u := &list[i]
		item := ListItem{
			UserSummary: u.Summary(h.avatars.URL(ctx, u.AvatarKey)),
			TimesURL:    u.TimesURL,
			OwnTrainee:  OwnTrainee(viewer, u),
			Inactive:    viewer.IsStaff() && u.IsInactive(now),
		}
		if id, ok := talkIDs[u.ID]; ok && ShowsTalkLink(viewer, u) {
			item.TalkPath = policy.TalkPath(id)
		}
		out = append(out, item)
	}
	return out, nil
}

// listed writes a page of users, or a 500 when their list items fail to load.
func (h *Handler) listed(c *gin.Context, list []models.User, payload func([]ListItem) any, meta response.Meta) {
	items, err := h.items(c.Request.Context(), middleware.Viewer(c), list)
	if err != nil {
		h.logger.Error("load list items failed", zap.Error(err))
		response.Internal(c, "failed to list users")
		return
	}
	response.Page(c, payload(items), meta)
}

// Index handles GET /users. A target the viewer's role may not list
// redirects to the default tab.
func (h *Handler) Index(c *gin.Context) {
	h.list(c, middleware.Page)
}

// List handles GET /api/users. Disallowed targets fall back to the default.
func (h *Handler) List(c *gin.Context) {
	h.list(c, middleware.API)
}

func (h *Handler) list(c *gin.Context, s middleware.Surface) {
	viewer := middleware.Viewer(c)
	role := models.RoleOf(viewer)
	t, forbidden := target.ParseUser(c.Query("target"), role)
	if forbidden && s == middleware.Page {
		response.Redirect(c, UsersPath)
		return
	}

	page := pageParam(c)
	list, total, err := h.store.List(c.Request.Context(), ListQuery{
		Target:   t,
		ViewerID: viewer.ID,
		Now:      h.now(),
		Page:     page,
		PerPage:  h.perPage,
	})
	if err != nil {
		h.logger.Error("list users failed", zap.String("target", string(t)), zap.Error(err))
		response.Internal(c, "failed to list users")
		return
	}
	h.listed(c, list, func(items []ListItem) any {
		return ListResponse{
			Target:        t,
			Targets:       target.UserTargetsFor(role),
			SearchEnabled: t.Searchable() && total > 0,
			Users:         items,
		}
	}, h.meta(page, total))
}

// SearchUsers handles GET /api/users/search.
func (h *Handler) SearchUsers(c *gin.Context) {
	res, err := h.search.Search(c.Request.Context(), middleware.Viewer(c), c.Query("target"), c.Query("word"), pageParam(c))
	if err != nil {
		h.logger.Error("search users failed", zap.Error(err))
		response.Internal(c, "failed to search users")
		return
	}
	response.OK(c, res)
}

// Tags handles GET /users/tags.
func (h *Handler) Tags(c *gin.Context) {
	tags, err := h.store.ListTags(c.Request.Context())
	if err != nil {
		h.logger.Error("list tags failed", zap.Error(err))
		response.Internal(c, "failed to list tags")
		return
	}
	response.OK(c, gin.H{"tags": tags, "search_enabled": false})
}

// Tag handles GET /users/tags/:tag.
func (h *Handler) Tag(c *gin.Context) {
	tag := c.Param("tag")
	page := pageParam(c)
	list, total, err := h.store.ListByTag(c.Request.Context(), tag, page, h.perPage)
	if err != nil {
		h.logger.Error("list users by tag failed", zap.String("tag", tag), zap.Error(err))
		response.Internal(c, "failed to list users")
		return
	}
	h.listed(c, list, func(items []ListItem) any {
		return gin.H{"tag": tag, "search_enabled": false, "users": items}
	}, h.meta(page, total))
}

// Companies handles GET /users/companies.
func (h *Handler) Companies(c *gin.Context) {
	groups, err := h.store.ListCompanies(c.Request.Context())
	if err != nil {
		h.logger.Error("list companies failed", zap.Error(err))
		response.Internal(c, "failed to list companies")
		return
	}
	viewer := middleware.Viewer(c)
	type companyPayload struct {
		Company models.Company `json:"company"`
		Users   []ListItem     `json:"users"`
	}
	out := make([]companyPayload, 0, len(groups))
	for _, g := range groups {
		items, err := h.items(c.Request.Context(), viewer, g.Users)
		if err != nil {
			h.logger.Error("load list items failed", zap.Int64("company_id", g.Company.ID), zap.Error(err))
			response.Internal(c, "failed to list companies")
			return
		}
		out = append(out, companyPayload{Company: g.Company, Users: items})
	}
	response.OK(c, gin.H{"companies": out, "search_enabled": false})
}

// Generation handles GET /generations/:id.
func (h *Handler) Generation(c *gin.Context) {
	g, err := strconv.Atoi(c.Param("id"))
	if err != nil || g < 1 {
		response.NotFound(c, "generation not found")
		return
	}
	from, to := GenerationRange(g, h.location)
	page := pageParam(c)
	list, total, err := h.store.ListByGeneration(c.Request.Context(), from, to, page, h.perPage)
	if err != nil {
		h.logger.Error("list generation failed", zap.Int("generation", g), zap.Error(err))
		response.Internal(c, "failed to list users")
		return
	}
	h.listed(c, list, func(items []ListItem) any {
		return gin.H{
			"generation":     g,
			"starts_on":      from.Format(time.DateOnly),
			"ends_on":        to.AddDate(0, 0, -1).Format(time.DateOnly),
			"search_enabled": false,
			"users":          items,
		}
	}, h.meta(page, total))
}

func (h *Handler) loadUser(c *gin.Context) (*models.User, bool) {
	id, ok := idParam(c)
	if !ok {
		response.NotFound(c, "user not found")
		return nil, false
	}
	u, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "user not found")
			return nil, false
		}
		h.logger.Error("get user failed", zap.Int64("user_id", id), zap.Error(err))
		response.Internal(c, "failed to load user")
		return nil, false
	}
	return u, true
}

// Show handles GET /users/:id.
func (h *Handler) Show(c *gin.Context) {
	viewer := middleware.Viewer(c)
	u, ok := h.loadUser(c)
	if !ok {
		return
	}
	if middleware.Refuse(c, policy.Decide(viewer, policy.Profile(u.ID), policy.ActionView), middleware.Page) {
		return
	}
	ctx := c.Request.Context()

	in := ProfileInput{
		Viewer:    viewer,
		User:      u,
		AvatarURL: h.avatars.URL(ctx, u.AvatarKey),
		Now:       h.now(),
	}
	html, err := h.render.Render(u.Description)
	if err != nil {
		h.logger.Warn("render description failed", zap.Int64("user_id", u.ID), zap.Error(err))
	}
	in.DescriptionHTML = html

	if err := h.loadProfileExtras(ctx, &in); err != nil {
		h.logger.Error("load profile failed", zap.Int64("user_id", u.ID), zap.Error(err))
		response.Internal(c, "failed to load user")
		return
	}
	if dashboard.ShowsCalendar(u) {
		cal, err := h.calendar(ctx, u.ID, c.Query("niconico_calendar"))
		if err != nil {
			h.logger.Error("load calendar failed", zap.Int64("user_id", u.ID), zap.Error(err))
			response.Internal(c, "failed to load user")
			return
		}
		in.Calendar = &cal
	}
	response.OK(c, BuildProfile(in))
}

// calendar builds the niconico calendar of userID for the month named by
// rawMonth, defaulting to the current month.
func (h *Handler) calendar(ctx context.Context, userID int64, rawMonth string) (dashboard.Calendar, error) {
	today := h.now().In(h.location)
	month := dashboard.ParseMonth(rawMonth, today)
	reports, err := h.store.ReportsBetween(ctx, userID, month, month.AddDate(0, 1, 0))
	if err != nil {
		return dashboard.Calendar{}, err
	}
	return dashboard.BuildCalendar(month, reports, today), nil
}

func (h *Handler) loadProfileExtras(ctx context.Context, in *ProfileInput) error {
	v, u := in.Viewer, in.User
	var err error
	if u.CompanyID != nil {
		if in.Company, err = h.store.Company(ctx, *u.CompanyID); err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}
	}
	if v.ID != u.ID {
		if in.Following, err = h.store.IsFollowing(ctx, v.ID, u.ID); err != nil {
			return err
		}
	}
	if ShowsTalkLink(v, u) {
		if in.TalkID, err = h.store.TalkID(ctx, u.ID); err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}
	}
	if v.IsStaff() {
		if in.Unchecked, err = h.store.UncheckedProducts(ctx, u.ID); err != nil {
			return err
		}
	}
	return nil
}

// ReportsCSV handles GET /api/users/:id/reports.csv (staff).
func (h *Handler) ReportsCSV(c *gin.Context) {
	u, ok := h.loadUser(c)
	if !ok {
		return
	}
	reports, err := h.store.Reports(c.Request.Context(), u.ID)
	if err != nil {
		h.logger.Error("list reports failed", zap.Int64("user_id", u.ID), zap.Error(err))
		response.Internal(c, "failed to list reports")
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": u.LoginName + "_reports.csv"}))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"id", "reported_on", "emotion"})
	for _, r := range reports {
		_ = w.Write([]string{strconv.FormatInt(r.ID, 10), r.ReportedOn.Format(time.DateOnly), string(r.Emotion)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		h.logger.Warn("write reports csv failed", zap.Int64("user_id", u.ID), zap.Error(err))
	}
}

// Graduate handles POST /users/:id/graduation (admin).
func (h *Handler) Graduate(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.NotFound(c, "user not found")
		return
	}
	if err := h.store.SetGraduated(c.Request.Context(), id, h.now().In(h.location)); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		h.logger.Error("graduate user failed", zap.Int64("user_id", id), zap.Error(err))
		response.Internal(c, "failed to update user")
		return
	}
	h.logger.Info("user graduated", zap.Int64("user_id", id), zap.Int64("by", middleware.Viewer(c).ID))
	response.Redirect(c, UsersPath+"/"+strconv.FormatInt(id, 10))
}

// ToggleJobSeeking handles PATCH /api/users/:id/job_seeking (admin).
func (h *Handler) ToggleJobSeeking(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.NotFound(c, "user not found")
		return
	}
	v, err := h.store.ToggleJobSeeking(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		h.logger.Error("toggle job seeking failed", zap.Int64("user_id", id), zap.Error(err))
		response.Internal(c, "failed to update user")
		return
	}
	response.OK(c, gin.H{"id": id, "job_seeking": v})
}

// UpdateAvatarURL handles PUT /api/users/:id/avatar_url. The image is
// fetched and stored by the worker.
func (h *Handler) UpdateAvatarURL(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		response.NotFound(c, "user not found")
		return
	}
	if middleware.Refuse(c, policy.Decide(middleware.Viewer(c), policy.Profile(id), policy.ActionEdit), middleware.API) {
		return
	}
	var req AvatarURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "url is required")
		return
	}
	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		response.BadRequest(c, "url must be an absolute http(s) URL")
		return
	}
	if err := h.jobs.EnqueueAvatarImport(c.Request.Context(), id, u.String()); err != nil {
		h.logger.Error("enqueue avatar import failed", zap.Int64("user_id", id), zap.Error(err))
		response.Internal(c, "failed to schedule avatar import")
		return
	}
	response.Accepted(c, gin.H{"id": id, "status": "queued"})
}
