package users

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"

	"github.com/fjord-bootcamp/backend/internal/models"
)

// Minimum search word lengths, in runes.
const (
	MinWideWordLen   = 2
	MinNarrowWordLen = 3
)

// Word is a normalized incremental-search input.
type Word struct {
	Text string
	// Active is false when Text is below the activation threshold.
	Active bool
}

// ParseWord trims raw, folds full-width ASCII to its narrow form and decides
// whether the word is long enough to search. Words containing any wide
// character activate at MinWideWordLen runes, others at MinNarrowWordLen.
func ParseWord(raw string) Word {
	text := width.Fold.String(strings.TrimSpace(raw))
	min := MinNarrowWordLen
	if hasWide(text) {
		min = MinWideWordLen
	}
	return Word{Text: text, Active: utf8.RuneCountInString(text) >= min}
}

func hasWide(s string) bool {
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			return true
		}
	}
	return false
}

// MatchedField returns the name of the first searchable field of u that
// contains word, ignoring case, or "" when none does.
func MatchedField(u *models.User, word string) string {
	folder := cases.Fold()
	needle := folder.String(word)
	fields := []string{
		u.LoginName, u.Name, u.NameKana, u.TwitterAccount, u.DiscordAccount,
		u.GithubAccount, u.BlogURL, u.FacebookURL, u.Description,
	}
	for i, f := range fields {
		if f != "" && strings.Contains(folder.String(f), needle) {
			return searchColumns[i]
		}
	}
	return ""
}
