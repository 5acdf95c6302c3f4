package products

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fjord-bootcamp/backend/internal/middleware"
	"github.com/fjord-bootcamp/backend/internal/models"
	"github.com/fjord-bootcamp/backend/internal/target"
	"github.com/fjord-bootcamp/backend/pkg/database"
	"github.com/fjord-bootcamp/backend/pkg/response"
)

// Queue is the review-queue query surface.
type Queue interface {
	ListUnchecked(ctx context.Context, page, perPage int) ([]Row, int64, error)
	ListUncheckedNoReplied(ctx context.Context, reviewerID int64, page, perPage int) ([]Row, int64, error)
}

// AvatarResolver turns stored avatar keys into URLs.
type AvatarResolver interface {
	URL(ctx context.Context, key string) string
}

// UncheckedResponse is the payload of GET /api/products/unchecked.
type UncheckedResponse struct {
	Target   target.Product   `json:"target"`
	Products []models.Product `json:"products"`
	Summary  []ElapsedGroup   `json:"summary"`
}

// Handler serves the review queue.
type Handler struct {
	queue   Queue
	avatars AvatarResolver
	perPage int
	now     func() time.Time
	logger  *zap.Logger
}

// NewHandler creates a products handler.
func NewHandler(queue Queue, avatars AvatarResolver, perPage int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{queue: queue, avatars: avatars, perPage: perPage, now: time.Now, logger: logger}
}

// Unchecked handles GET /api/products/unchecked (staff).
func (h *Handler) Unchecked(c *gin.Context) {
	viewer := middleware.Viewer(c)
	t := target.ParseProduct(c.Query("target"))
	page := database.PageParam(c.Query("page"))
	ctx := c.Request.Context()

	var (
		rows  []Row
		total int64
		err   error
	)
	switch t {
	case target.ProductUncheckedNoReplied:
		rows, total, err = h.queue.ListUncheckedNoReplied(ctx, viewer.ID, page, h.perPage)
	default:
		rows, total, err = h.queue.ListUnchecked(ctx, page, h.perPage)
	}
	if err != nil {
		h.logger.Error("list unchecked products failed", zap.String("target", string(t)), zap.Error(err))
		response.Internal(c, "failed to list products")
		return
	}

	list := make([]models.Product, 0, len(rows))
	for i := range rows {
		p := rows[i].Product
		s := rows[i].Submitter.Summary(h.avatars.URL(ctx, rows[i].Submitter.AvatarKey))
		p.User = &s
		list = append(list, p)
	}
	response.Page(c, UncheckedResponse{
		Target:   t,
		Products: list,
		Summary:  Summarize(list, h.now()),
	}, response.Meta{
		Page:       page,
		PerPage:    h.perPage,
		TotalPages: database.TotalPages(total, h.perPage),
		Total:      total,
	})
}
