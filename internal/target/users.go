package target

import "github.com/fjord-bootcamp/backend/internal/models"

// User selects a role- or status-scoped user listing.
type User string

const (
	UserStudentAndTrainee User = "student_and_trainee"
	UserFollowings        User = "followings"
	UserMentor            User = "mentor"
	UserGraduate          User = "graduate"
	UserAdviser           User = "adviser"
	UserTrainee           User = "trainee"
	UserJobSeeking        User = "job_seeking"
	UserRetired           User = "retired"
	UserInactive          User = "inactive"
	UserHibernated        User = "hibernated"
	UserAll               User = "all"
)

// DefaultUser is the landing tab of the user directory.
const DefaultUser = UserStudentAndTrainee

var (
	learnerUserTargets = []User{UserStudentAndTrainee, UserFollowings, UserGraduate, UserTrainee}
	adviserUserTargets = []User{UserStudentAndTrainee, UserFollowings, UserGraduate, UserAdviser, UserTrainee, UserJobSeeking}
	staffUserTargets   = []User{
		UserStudentAndTrainee, UserFollowings, UserMentor, UserGraduate, UserAdviser,
		UserTrainee, UserJobSeeking, UserRetired, UserInactive, UserHibernated, UserAll,
	}
)

// UserTargetsFor returns the targets role may list, in tab order.
func UserTargetsFor(role models.Role) []User {
	switch role {
	case models.RoleAdmin, models.RoleMentor:
		return staffUserTargets
	case models.RoleAdviser:
		return adviserUserTargets
	default:
		return learnerUserTargets
	}
}

func known(raw string) bool {
	for _, t := range staffUserTargets {
		if string(t) == raw {
			return true
		}
	}
	return false
}

// ParseUser normalizes a raw user target for role. Unknown values fall back
// to DefaultUser silently. A known target the role may not list also falls
// back, and forbidden is set so the caller can redirect to the default tab.
func ParseUser(raw string, role models.Role) (t User, forbidden bool) {
	for _, allowed := range UserTargetsFor(role) {
		if string(allowed) == raw {
			return allowed, false
		}
	}
	return DefaultUser, known(raw)
}

// Searchable reports whether incremental search is offered on the target.
func (t User) Searchable() bool {
	return t != UserFollowings
}
