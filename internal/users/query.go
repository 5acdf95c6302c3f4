package users

import (
	"strconv"
	"strings"
	"time"

	"github.com/fjord-bootcamp/backend/internal/models"
	"github.com/fjord-bootcamp/backend/internal/target"
)

// args collects positional query parameters.
type args []any

// add appends v and returns its placeholder.
func (a *args) add(v any) string {
	*a = append(*a, v)
	return "$" + strconv.Itoa(len(*a))
}

const learner = `NOT admin AND NOT mentor AND NOT adviser`

// predicate returns the WHERE condition selecting the users of t.
// viewerID is only used by the followings target.
func predicate(t target.User, viewerID int64, now time.Time, a *args) string {
	switch t {
	case target.UserFollowings:
		return "id IN (SELECT followed_id FROM followings WHERE follower_id = " + a.add(viewerID) + ")"
	case target.UserMentor:
		return "mentor AND retired_on IS NULL"
	case target.UserGraduate:
		return "graduated_on IS NOT NULL AND retired_on IS NULL"
	case target.UserAdviser:
		return "adviser AND retired_on IS NULL"
	case target.UserTrainee:
		return "trainee AND retired_on IS NULL"
	case target.UserJobSeeking:
		return "job_seeking AND retired_on IS NULL AND graduated_on IS NULL"
	case target.UserRetired:
		return "retired_on IS NOT NULL"
	case target.UserInactive:
		return learner + " AND graduated_on IS NULL AND retired_on IS NULL AND NOT hibernated" +
			" AND last_activity_at < " + a.add(now.Add(-models.InactiveAfter))
	case target.UserHibernated:
		return "hibernated AND retired_on IS NULL"
	case target.UserAll:
		return "TRUE"
	default:
		return learner + " AND graduated_on IS NULL AND retired_on IS NULL AND NOT hibernated"
	}
}

// searchColumns are matched against the search word, in reporting order.
var searchColumns = []string{
	"login_name", "name", "name_kana", "twitter_account", "discord_account",
	"github_account", "blog_url", "facebook_url", "description",
}

// searchCondition matches word against every searchable column.
func searchCondition(word string, a *args) string {
	p := a.add("%" + escapeLike(word) + "%")
	conds := make([]string, len(searchColumns))
	for i, col := range searchColumns {
		conds[i] = col + " ILIKE " + p
	}
	return "(" + strings.Join(conds, " OR ") + ")"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
