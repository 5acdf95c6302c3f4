package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Role is the primary role a user acts under when authorizing a request.
type Role string

const (
	RoleGuest   Role = "guest"
	RoleStudent Role = "student"
	RoleTrainee Role = "trainee"
	RoleAdviser Role = "adviser"
	RoleMentor  Role = "mentor"
	RoleAdmin   Role = "admin"
)

// InactiveAfter is how long without activity before a user is marked inactive.
const InactiveAfter = 30 * 24 * time.Hour

// User represents a platform user. Role flags are not exclusive.
type User struct {
	ID             int64      `json:"id"`
	LoginName      string     `json:"login_name"`
	Name           string     `json:"name"`
	NameKana       string     `json:"name_kana"`
	Email          string     `json:"-"`
	Password       string     `json:"-"`
	Admin          bool       `json:"admin"`
	Mentor         bool       `json:"mentor"`
	Adviser        bool       `json:"adviser"`
	Trainee        bool       `json:"trainee"`
	JobSeeking     bool       `json:"job_seeking"`
	Hibernated     bool       `json:"hibernated"`
	GraduatedOn    *time.Time `json:"graduated_on,omitempty"`
	RetiredOn      *time.Time `json:"retired_on,omitempty"`
	RetireReason   string     `json:"-"`
	TrainingEndsOn *time.Time `json:"training_ends_on,omitempty"`
	CompanyID      *int64     `json:"company_id,omitempty"`
	Description    string     `json:"description"`
	TwitterAccount string     `json:"twitter_account"`
	DiscordAccount string     `json:"discord_account"`
	GithubAccount  string     `json:"github_account"`
	BlogURL        string     `json:"blog_url"`
	FacebookURL    string     `json:"facebook_url"`
	TimesURL       string     `json:"times_url"`
	AvatarKey      string     `json:"-"`
	LastActivityAt *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// RoleOf returns the highest role held by u. A nil user is a guest.
func RoleOf(u *User) Role {
	switch {
	case u == nil:
		return RoleGuest
	case u.Admin:
		return RoleAdmin
	case u.Mentor:
		return RoleMentor
	case u.Adviser:
		return RoleAdviser
	case u.Trainee:
		return RoleTrainee
	default:
		return RoleStudent
	}
}

// IsStaff reports whether the user may work the review queues.
func (u *User) IsStaff() bool {
	return u != nil && (u.Admin || u.Mentor)
}

// IsGraduated reports whether a graduation date is set.
func (u *User) IsGraduated() bool { return u.GraduatedOn != nil }

// IsRetired reports whether a retirement date is set.
func (u *User) IsRetired() bool { return u.RetiredOn != nil }

// IsStudent reports whether the user holds none of the staff, adviser or trainee roles.
func (u *User) IsStudent() bool {
	return !u.Admin && !u.Mentor && !u.Adviser && !u.Trainee
}

// IsActiveLearner reports whether the user is a student or trainee still taking the course.
func (u *User) IsActiveLearner() bool {
	return (u.IsStudent() || u.Trainee) && !u.IsGraduated() && !u.IsRetired() && !u.Hibernated
}

// IsInactive reports whether the user has not been active for InactiveAfter.
// Users who never logged in are not considered inactive.
func (u *User) IsInactive(now time.Time) bool {
	return u.LastActivityAt != nil && u.LastActivityAt.Before(now.Add(-InactiveAfter))
}

// RoleLabel returns the label shown on profiles. Graduation and retirement
// take precedence for learners.
func (u *User) RoleLabel() string {
	switch {
	case u.Admin:
		return "admin"
	case u.Mentor:
		return "mentor"
	case u.Adviser:
		return "adviser"
	case u.IsRetired():
		return "retired"
	case u.IsGraduated():
		return "graduate"
	case u.Trainee:
		return "trainee"
	default:
		return "student"
	}
}

// UserSummary is the compact user shape embedded in other payloads.
type UserSummary struct {
	ID        int64  `json:"id"`
	LoginName string `json:"login_name"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar_url"`
}

// Summary converts u to a UserSummary with the given avatar URL.
func (u *User) Summary(avatarURL string) UserSummary {
	return UserSummary{
		ID:        u.ID,
		LoginName: u.LoginName,
		Name:      u.Name,
		Role:      u.RoleLabel(),
		AvatarURL: avatarURL,
	}
}
