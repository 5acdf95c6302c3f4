// Package target holds the closed sets of listing selectors accepted by the
// filterable endpoints. Raw request values are parsed once at the handler
// boundary; anything outside an allow-list becomes that endpoint's default.
package target

// Product selects the review-queue variant.
type Product string

const (
	ProductUncheckedAll       Product = "unchecked_all"
	ProductUncheckedNoReplied Product = "unchecked_no_replied"
)

// DefaultProduct is used for missing or unknown product targets.
const DefaultProduct = ProductUncheckedAll

// ParseProduct normalizes a raw product target.
func ParseProduct(raw string) Product {
	switch p := Product(raw); p {
	case ProductUncheckedAll, ProductUncheckedNoReplied:
		return p
	}
	return DefaultProduct
}

// Talk selects which talks the admin talk list shows.
type Talk string

const (
	TalkAll               Talk = "all"
	TalkStudentAndTrainee Talk = "student_and_trainee"
	TalkMentor            Talk = "mentor"
	TalkGraduate          Talk = "graduate"
	TalkAdviser           Talk = "adviser"
	TalkTrainee           Talk = "trainee"
	TalkRetired           Talk = "retired"
	TalkUnreplied         Talk = "unreplied"
)

// DefaultTalk is used for missing or unknown talk targets.
const DefaultTalk = TalkAll

// Talks lists every talk target in display order.
var Talks = []Talk{TalkAll, TalkStudentAndTrainee, TalkMentor, TalkGraduate, TalkAdviser, TalkTrainee, TalkRetired, TalkUnreplied}

// ParseTalk normalizes a raw talk target.
func ParseTalk(raw string) Talk {
	for _, t := range Talks {
		if string(t) == raw {
			return t
		}
	}
	return DefaultTalk
}
