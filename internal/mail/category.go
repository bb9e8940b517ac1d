package mail

import "fmt"

// Category is the closed classification set. Routing over categories must be
// exhaustive, so new values need a matching workflow route.
type Category string

const (
	CategoryUrgent        Category = "urgent"
	CategoryGeneral       Category = "general"
	CategoryPriceInquiry  Category = "price_inquiry"
	CategoryMeetingInvite Category = "meeting_invite"
	CategorySpam          Category = "spam"
)

// categoryAliases maps oracle output labels to categories. The Traditional
// Chinese labels are the ones the deployment's prompts were written with.
var categoryAliases = map[string]Category{
	"urgent":         CategoryUrgent,
	"急件":             CategoryUrgent,
	"general":        CategoryGeneral,
	"一般":             CategoryGeneral,
	"price_inquiry":  CategoryPriceInquiry,
	"詢價":             CategoryPriceInquiry,
	"meeting_invite": CategoryMeetingInvite,
	"會議邀約":           CategoryMeetingInvite,
	"spam":           CategorySpam,
	"垃圾":             CategorySpam,
}

// ParseCategory resolves an oracle label to a Category. Unrecognized labels
// are an error so a misbehaving classifier surfaces as an oracle failure
// instead of silently routing.
func ParseCategory(label string) (Category, error) {
	if c, ok := categoryAliases[label]; ok {
		return c, nil
	}
	return "", fmt.Errorf("unrecognized category %q", label)
}

// Categories lists every valid category, for prompt construction and
// exhaustiveness checks in tests.
func Categories() []Category {
	return []Category{
		CategoryUrgent,
		CategoryGeneral,
		CategoryPriceInquiry,
		CategoryMeetingInvite,
		CategorySpam,
	}
}
