// Package policy decides who may see or change what. It has no HTTP or
// database dependencies; handlers and middleware translate a Decision into
// a response.
package policy

import (
	"fmt"

	"github.com/fjord-bootcamp/backend/internal/models"
)

// Paths used as redirect targets.
const (
	LoginPath = "/login"
	RootPath  = "/"
)

// Kind identifies the resource being accessed.
type Kind int

const (
	KindDashboard Kind = iota
	// KindMemberArea is any page only signed-in users may open.
	KindMemberArea
	KindTalkList
	KindTalk
	KindProductQueue
	// KindStaffArea is any staff-only data other than the product queue.
	KindStaffArea
	KindUserList
	KindUserProfile
	KindUserAdmin
)

// Action is what the viewer wants to do with the resource.
type Action string

const (
	ActionView Action = "view"
	ActionEdit Action = "edit"
)

// Resource describes the target of an access check.
type Resource struct {
	Kind Kind
	// OwnerID is the user owning the resource (talk owner, profile user).
	OwnerID int64
	// Fallback is where a viewer who may not see the resource is sent.
	Fallback string
}

// Effect is the outcome of a decision.
type Effect int

const (
	Allow Effect = iota
	Deny
	Redirect
)

// Reason explains a non-Allow decision.
type Reason string

const (
	ReasonNone  Reason = ""
	ReasonLogin Reason = "login_required"
	ReasonAdmin Reason = "admin_required"
	ReasonStaff Reason = "staff_required"
	ReasonOwner Reason = "owner_required"
)

// Decision is the result of Decide.
type Decision struct {
	Effect   Effect
	Location string
	Reason   Reason
}

// Allowed reports whether the decision lets the request through.
func (d Decision) Allowed() bool { return d.Effect == Allow }

// NeedsLogin reports whether the viewer was rejected for not being signed in.
func (d Decision) NeedsLogin() bool { return d.Reason == ReasonLogin }

func allow() Decision { return Decision{Effect: Allow} }

func redirect(to string, why Reason) Decision {
	return Decision{Effect: Redirect, Location: to, Reason: why}
}

func deny(why Reason) Decision { return Decision{Effect: Deny, Reason: why} }

// Talk builds the resource for a single talk. viewerTalkID is the id of the
// viewer's own talk, used as the redirect target for non-owners. Viewers
// without a talk (viewerTalkID 0) are sent to RootPath.
func Talk(ownerID, viewerTalkID int64) Resource {
	fallback := RootPath
	if viewerTalkID > 0 {
		fallback = TalkPath(viewerTalkID)
	}
	return Resource{Kind: KindTalk, OwnerID: ownerID, Fallback: fallback}
}

// TalkPath returns the page path of a talk.
func TalkPath(id int64) string { return fmt.Sprintf("/talks/%d", id) }

// Profile builds the resource for a user's profile.
func Profile(userID int64) Resource {
	return Resource{Kind: KindUserProfile, OwnerID: userID}
}

// Decide returns whether viewer may perform a on r. A nil viewer is a guest.
func Decide(viewer *models.User, r Resource, a Action) Decision {
	if viewer == nil {
		if r.Kind == KindDashboard && a == ActionView {
			return allow()
		}
		return redirect(LoginPath, ReasonLogin)
	}

	switch r.Kind {
	case KindDashboard, KindMemberArea, KindUserList:
		return allow()
	case KindTalkList:
		if viewer.Admin {
			return allow()
		}
		return redirect(RootPath, ReasonAdmin)
	case KindTalk:
		if viewer.Admin || viewer.ID == r.OwnerID {
			return allow()
		}
		if r.Fallback == "" {
			return deny(ReasonOwner)
		}
		return redirect(r.Fallback, ReasonOwner)
	case KindProductQueue, KindStaffArea:
		if viewer.IsStaff() {
			return allow()
		}
		return deny(ReasonStaff)
	case KindUserProfile:
		if a == ActionView || viewer.ID == r.OwnerID {
			return allow()
		}
		return deny(ReasonOwner)
	case KindUserAdmin:
		if viewer.Admin {
			return allow()
		}
		return redirect(RootPath, ReasonAdmin)
	}
	return deny(ReasonNone)
}
