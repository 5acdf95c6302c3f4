package users

import (
	"context"
	"time"

	"github.com/fjord-bootcamp/backend/internal/models"
	"github.com/fjord-bootcamp/backend/internal/target"
	"github.com/fjord-bootcamp/backend/pkg/database"
)

// SearchPerPage is the page size of incremental search results.
const SearchPerPage = 20

// Searcher is the query side of incremental search. It returns one page of
// matches and the total match count.
type Searcher interface {
	Search(ctx context.Context, q SearchQuery) ([]models.User, int64, error)
}

// AvatarResolver turns stored avatar keys into URLs.
type AvatarResolver interface {
	URL(ctx context.Context, key string) string
}

// SearchHit is one search match.
type SearchHit struct {
	models.UserSummary
	MatchedOn string `json:"matched_on"`
}

// SearchResult is the answer to an incremental search. Total counts every
// match; Users holds the requested page of them.
type SearchResult struct {
	Target     target.User `json:"target"`
	Word       string      `json:"word"`
	Active     bool        `json:"active"`
	Page       int         `json:"page"`
	TotalPages int         `json:"total_pages"`
	Total      int64       `json:"total"`
	Users      []SearchHit `json:"users"`
}

// SearchService runs incremental searches for the HTTP and websocket surfaces.
type SearchService struct {
	store   Searcher
	avatars AvatarResolver
	now     func() time.Time
}

// NewSearchService creates a search service.
func NewSearchService(store Searcher, avatars AvatarResolver) *SearchService {
	return &SearchService{store: store, avatars: avatars, now: time.Now}
}

// Search normalizes rawTarget for the viewer's role and returns the given
// page of users of that target matching rawWord. Inactive words and targets
// without search yield an inactive result without querying.
func (s *SearchService) Search(ctx context.Context, viewer *models.User, rawTarget, rawWord string, page int) (SearchResult, error) {
	t, _ := target.ParseUser(rawTarget, models.RoleOf(viewer))
	w := ParseWord(rawWord)
	if page < 1 {
		page = 1
	}
	res := SearchResult{Target: t, Word: w.Text, Page: page, TotalPages: 1, Users: []SearchHit{}}
	if !w.Active || !t.Searchable() {
		return res, nil
	}
	res.Active = true

	found, total, err := s.store.Search(ctx, SearchQuery{
		Target:   t,
		ViewerID: viewer.ID,
		Now:      s.now(),
		Word:     w.Text,
		Page:     page,
		PerPage:  SearchPerPage,
	})
	if err != nil {
		return SearchResult{}, err
	}
	res.Total = total
	res.TotalPages = database.TotalPages(total, SearchPerPage)
	for i := range found {
		u := &found[i]
		res.Users = append(res.Users, SearchHit{
			UserSummary: u.Summary(s.avatars.URL(ctx, u.AvatarKey)),
			MatchedOn:   MatchedField(u, w.Text),
		})
	}
	return res, nil
}
