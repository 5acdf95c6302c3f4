package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fjord-bootcamp/backend/internal/auth"
	"github.com/fjord-bootcamp/backend/internal/models"
)

// ContextViewer is the gin context key holding the signed-in *models.User.
const ContextViewer = "viewer"

// activityResolution limits how often last_activity_at is written.
const activityResolution = 10 * time.Minute

// ViewerStore loads the signed-in user and records activity.
type ViewerStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	TouchActivity(ctx context.Context, id int64, at time.Time) error
}

// Session resolves the session token from the cookie or an Authorization
// bearer header and stores the user under ContextViewer. Requests without a
// valid token continue as guests; authorization is decided later.
func Session(jwtService *auth.JWTService, users ViewerStore, cookieName string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			token, _ = c.Cookie(cookieName)
		}
		if token == "" {
			c.Next()
			return
		}
		claims, err := jwtService.Validate(token)
		if err != nil {
			c.Next()
			return
		}
		id, _ := claims.UserID()
		user, err := users.GetByID(c.Request.Context(), id)
		if err != nil || user.IsRetired() {
			c.Next()
			return
		}

		now := time.Now()
		if user.LastActivityAt == nil || now.Sub(*user.LastActivityAt) > activityResolution {
			if err := users.TouchActivity(c.Request.Context(), user.ID, now); err != nil {
				logger.Warn("touch activity failed", zap.Int64("user_id", user.ID), zap.Error(err))
			}
		}
		c.Set(ContextViewer, user)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Viewer returns the signed-in user, or nil for guests.
func Viewer(c *gin.Context) *models.User {
	v, ok := c.Get(ContextViewer)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
