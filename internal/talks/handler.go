package talks

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fjord-bootcamp/backend/internal/middleware"
	"github.com/fjord-bootcamp/backend/internal/models"
	"github.com/fjord-bootcamp/backend/internal/policy"
	"github.com/fjord-bootcamp/backend/internal/target"
	"github.com/fjord-bootcamp/backend/pkg/database"
	"github.com/fjord-bootcamp/backend/pkg/response"
)

// Store is the talk persistence the handlers need.
type Store interface {
	GetByID(ctx context.Context, id int64) (*Row, error)
	IDByUser(ctx context.Context, userID int64) (int64, error)
	List(ctx context.Context, t target.Talk, page, perPage int) ([]Row, int64, error)
}

// Admins lists admin ids, typically through a cache.
type Admins interface {
	AdminIDs(ctx context.Context) ([]int64, error)
}

// UserLoader loads users by id, ordered by id.
type UserLoader interface {
	ListByIDs(ctx context.Context, ids []int64) ([]models.User, error)
}

// AvatarResolver turns stored avatar keys into URLs.
type AvatarResolver interface {
	URL(ctx context.Context, key string) string
}

// IndexResponse is the payload of GET /talks.
type IndexResponse struct {
	Target  target.Talk   `json:"target"`
	Targets []target.Talk `json:"targets"`
}

// ListResponse is the payload of GET /api/talks.
type ListResponse struct {
	Target target.Talk  `json:"target"`
	Talks  []models.Talk `json:"talks"`
}

// ShowResponse is the payload of GET /talks/:id.
type ShowResponse struct {
	Talk       models.Talk          `json:"talk"`
	OtherParty models.UserSummary   `json:"other_party"`
	Members    []models.UserSummary `json:"members"`
}

// Handler handles talk endpoints.
type Handler struct {
	store   Store
	admins  Admins
	users   UserLoader
	avatars AvatarResolver
	perPage int
	logger  *zap.Logger
}

// NewHandler creates a talks handler.
func NewHandler(store Store, admins Admins, users UserLoader, avatars AvatarResolver, perPage int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, admins: admins, users: users, avatars: avatars, perPage: perPage, logger: logger}
}

func (h *Handler) summary(ctx context.Context, u *models.User) models.UserSummary {
	return u.Summary(h.avatars.URL(ctx, u.AvatarKey))
}

// Index handles GET /talks (admin).
func (h *Handler) Index(c *gin.Context) {
	response.OK(c, IndexResponse{Target: target.ParseTalk(c.Query("target")), Targets: target.Talks})
}

// List handles GET /api/talks (admin).
func (h *Handler) List(c *gin.Context) {
	t := target.ParseTalk(c.Query("target"))
	page := database.PageParam(c.Query("page"))
	ctx := c.Request.Context()

	rows, total, err := h.store.List(ctx, t, page, h.perPage)
	if err != nil {
		h.logger.Error("list talks failed", zap.String("target", string(t)), zap.Error(err))
		response.Internal(c, "failed to list talks")
		return
	}
	list := make([]models.Talk, 0, len(rows))
	for i := range rows {
		talk := rows[i].Talk
		s := h.summary(ctx, &rows[i].Owner)
		talk.User = &s
		list = append(list, talk)
	}
	response.Page(c, ListResponse{Target: t, Talks: list}, response.Meta{
		Page:       page,
		PerPage:    h.perPage,
		TotalPages: database.TotalPages(total, h.perPage),
		Total:      total,
	})
}

// Show handles GET /talks/:id. Viewers who neither own the talk nor are
// admins are sent to their own talk.
func (h *Handler) Show(c *gin.Context) {
	viewer := middleware.Viewer(c)
	ctx := c.Request.Context()
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.NotFound(c, "talk not found")
		return
	}
	row, err := h.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "talk not found")
			return
		}
		h.logger.Error("get talk failed", zap.Int64("talk_id", id), zap.Error(err))
		response.Internal(c, "failed to load talk")
		return
	}

	res := policy.Resource{Kind: policy.KindTalk, OwnerID: row.Talk.UserID}
	if d := policy.Decide(viewer, res, policy.ActionView); !d.Allowed() {
		own, err := h.store.IDByUser(ctx, viewer.ID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			h.logger.Error("get own talk failed", zap.Int64("user_id", viewer.ID), zap.Error(err))
			response.Internal(c, "failed to load talk")
			return
		}
		middleware.Refuse(c, policy.Decide(viewer, policy.Talk(row.Talk.UserID, own), policy.ActionView), middleware.Page)
		return
	}

	members, err := h.members(ctx, row.Talk.UserID)
	if err != nil {
		h.logger.Error("load talk members failed", zap.Int64("talk_id", id), zap.Error(err))
		response.Internal(c, "failed to load talk")
		return
	}
	other := viewer
	if viewer.Admin {
		other = &row.Owner
	}
	talk := row.Talk
	owner := h.summary(ctx, &row.Owner)
	talk.User = &owner
	response.OK(c, ShowResponse{Talk: talk, OtherParty: h.summary(ctx, other), Members: members})
}

// members returns every admin plus the owner, ordered by id.
func (h *Handler) members(ctx context.Context, ownerID int64) ([]models.UserSummary, error) {
	ids, err := h.admins.AdminIDs(ctx)
	if err != nil {
		return nil, err
	}
	ids = MemberIDs(ids, ownerID)
	list, err := h.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserSummary, 0, len(list))
	for i := range list {
		out = append(out, h.summary(ctx, &list[i]))
	}
	return out, nil
}
