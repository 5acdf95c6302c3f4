package users

import (
	"strconv"
	"time"

	"github.com/fjord-bootcamp/backend/internal/dashboard"
	"github.com/fjord-bootcamp/backend/internal/models"
	"github.com/fjord-bootcamp/backend/internal/policy"
)

// EditProfilePath is where users change their own profile.
const EditProfilePath = "/current_user/edit"

// Profile is the user page as seen by a particular viewer. Optional fields
// are left empty when the viewer may not see them.
type Profile struct {
	User            models.UserSummary `json:"user"`
	NameKana        string             `json:"name_kana"`
	DescriptionHTML string             `json:"description_html"`
	TwitterAccount  string             `json:"twitter_account,omitempty"`
	DiscordAccount  string             `json:"discord_account,omitempty"`
	GithubAccount   string             `json:"github_account,omitempty"`
	BlogURL         string             `json:"blog_url,omitempty"`
	FacebookURL     string             `json:"facebook_url,omitempty"`
	TimesURL        string             `json:"times_url,omitempty"`
	Generation      int                `json:"generation"`
	Company         *models.Company    `json:"company,omitempty"`
	JobSeeking      bool               `json:"job_seeking"`

	GraduatedOn    *time.Time `json:"graduated_on,omitempty"`
	RetiredOn      *time.Time `json:"retired_on,omitempty"`
	RetireReason   string     `json:"retire_reason,omitempty"`
	TrainingEndsOn *time.Time `json:"training_ends_on,omitempty"`
	DaysToGraduate int        `json:"days_to_graduate,omitempty"`

	LastActivityAt    *time.Time       `json:"last_activity_at,omitempty"`
	Inactive          bool             `json:"inactive,omitempty"`
	UncheckedProducts []models.Product `json:"unchecked_products,omitempty"`
	ReportsCSVPath    string           `json:"reports_csv_path,omitempty"`
	TalkPath          string           `json:"talk_path,omitempty"`
	OwnTrainee        bool             `json:"own_trainee,omitempty"`

	Calendar *dashboard.Calendar `json:"niconico_calendar,omitempty"`

	CanFollow bool   `json:"can_follow"`
	Following bool   `json:"following"`
	EditPath  string `json:"edit_path,omitempty"`
	CanAdmin  bool   `json:"can_admin"`
}

// ProfileInput carries what BuildProfile needs. Fields only some viewers
// see are loaded by the caller only for those viewers.
type ProfileInput struct {
	Viewer          *models.User
	User            *models.User
	AvatarURL       string
	DescriptionHTML string
	Company         *models.Company
	Following       bool
	TalkID          int64
	Unchecked       []models.Product
	Calendar        *dashboard.Calendar
	Now             time.Time
}

// ShowsTalkLink reports whether viewer gets a link to u's talk.
func ShowsTalkLink(viewer, u *models.User) bool {
	return viewer.Admin && !u.Admin
}

// OwnTrainee reports whether u is a trainee sent by viewer's company.
func OwnTrainee(viewer, u *models.User) bool {
	return viewer.Adviser && u.Trainee && viewer.CompanyID != nil && u.CompanyID != nil &&
		*viewer.CompanyID == *u.CompanyID
}

// ReportsCSVPath returns the daily report download path of a user.
func ReportsCSVPath(id int64) string {
	return "/api/users/" + strconv.FormatInt(id, 10) + "/reports.csv"
}

// BuildProfile assembles the profile of in.User for in.Viewer.
func BuildProfile(in ProfileInput) Profile {
	v, u := in.Viewer, in.User
	p := Profile{
		User:            u.Summary(in.AvatarURL),
		NameKana:        u.NameKana,
		DescriptionHTML: in.DescriptionHTML,
		TwitterAccount:  u.TwitterAccount,
		DiscordAccount:  u.DiscordAccount,
		GithubAccount:   u.GithubAccount,
		BlogURL:         u.BlogURL,
		FacebookURL:     u.FacebookURL,
		TimesURL:        u.TimesURL,
		Generation:      Generation(u.CreatedAt),
		Company:         in.Company,
		JobSeeking:      u.JobSeeking,
		GraduatedOn:     u.GraduatedOn,
		RetiredOn:       u.RetiredOn,
		CanFollow:       v.ID != u.ID && !OwnTrainee(v, u),
		Following:       in.Following,
		OwnTrainee:      OwnTrainee(v, u),
		Calendar:        in.Calendar,
		CanAdmin:        policy.Decide(v, policy.Resource{Kind: policy.KindUserAdmin}, policy.ActionEdit).Allowed(),
	}
	if v.Admin {
		p.RetireReason = u.RetireReason
	}
	if u.Trainee {
		p.TrainingEndsOn = u.TrainingEndsOn
	}
	if u.GraduatedOn != nil {
		if d := daysBetween(u.CreatedAt.In(in.Now.Location()), *u.GraduatedOn); d > 0 {
			p.DaysToGraduate = d
		}
	}
	if v.IsStaff() {
		p.LastActivityAt = u.LastActivityAt
		p.Inactive = u.IsInactive(in.Now)
		p.UncheckedProducts = in.Unchecked
		p.ReportsCSVPath = ReportsCSVPath(u.ID)
	}
	if ShowsTalkLink(v, u) && in.TalkID != 0 {
		p.TalkPath = policy.TalkPath(in.TalkID)
	}
	if policy.Decide(v, policy.Profile(u.ID), policy.ActionEdit).Allowed() {
		p.EditPath = EditProfilePath
	}
	return p
}

// daysBetween returns the calendar days from the date of from to the date
// of to. It is negative when to comes first.
func daysBetween(from, to time.Time) int {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}
