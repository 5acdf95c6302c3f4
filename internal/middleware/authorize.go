package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/fjord-bootcamp/backend/internal/policy"
	"github.com/fjord-bootcamp/backend/pkg/response"
)

// Surface selects how a refused request is answered.
type Surface int

const (
	// Page routes redirect.
	Page Surface = iota
	// API routes answer with 401/403 JSON.
	API
)

var reasonMessages = map[policy.Reason]string{
	policy.ReasonLogin: "please sign in",
	policy.ReasonAdmin: "please sign in as an administrator",
	policy.ReasonStaff: "staff only",
	policy.ReasonOwner: "not allowed",
}

// Refuse writes the response for a non-Allow decision. It reports whether
// the request was refused.
func Refuse(c *gin.Context, d policy.Decision, s Surface) bool {
	if d.Allowed() {
		return false
	}
	msg := reasonMessages[d.Reason]
	if msg == "" {
		msg = "forbidden"
	}
	if s == API {
		if d.NeedsLogin() {
			response.Unauthorized(c, msg)
		} else {
			response.Forbidden(c, msg)
		}
		return true
	}
	if d.Effect == policy.Redirect {
		c.Header("X-Flash-Alert", string(d.Reason))
		response.Redirect(c, d.Location)
		return true
	}
	response.Forbidden(c, msg)
	return true
}

// Authorize runs the policy for a resource kind that needs no per-record
// data and aborts the chain when the viewer is refused.
func Authorize(kind policy.Kind, s Surface) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := policy.Decide(Viewer(c), policy.Resource{Kind: kind}, policy.ActionView)
		if Refuse(c, d, s) {
			return
		}
		c.Next()
	}
}

// RequireLogin rejects guests.
func RequireLogin(s Surface) gin.HandlerFunc {
	return Authorize(policy.KindMemberArea, s)
}
