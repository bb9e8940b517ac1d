// Package guardrail gates drafted replies behind a deterministic content
// policy. A triggered guardrail is not an error: the workflow completes and
// the record is flagged for human review before anything is sent.
package guardrail

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/mailtriage/internal/mail"
)

// DefaultSensitiveTerms are the terms whose presence in a reply implies a
// money or contract commitment. The Traditional Chinese terms come from the
// deployment's jurisdiction; the English ones cover bilingual replies.
func DefaultSensitiveTerms() []string {
	return []string{
		"報價",
		"價格",
		"費用",
		"合約",
		"簽約",
		"付款",
		"訂金",
		"定金",
		"折扣",
		"優惠價",
		"quotation",
		"pricing",
		"contract",
		"payment",
		"deposit",
		"discount",
	}
}

// Checker evaluates the reply policy. Stateless across emails.
type Checker struct {
	terms []string
}

// NewChecker builds a checker over the given sensitive terms; nil means the
// default list.
func NewChecker(terms []string) *Checker {
	if terms == nil {
		terms = DefaultSensitiveTerms()
	}
	return &Checker{terms: terms}
}

// Result is the policy outcome for one reply.
type Result struct {
	Triggered bool
	Reason    string
}

// Check applies the policy rules in order, first match wins:
//  1. price-inquiry emails always need human confirmation, reply or not;
//  2. a reply containing a sensitive term triggers on the first term found,
//     scanned as a literal substring.
func (c *Checker) Check(category mail.Category, reply string) Result {
	if category == mail.CategoryPriceInquiry {
		return Result{
			Triggered: true,
			Reason:    "requires human confirmation for pricing email",
		}
	}
	if reply != "" {
		for _, term := range c.terms {
			if strings.Contains(reply, term) {
				return Result{
					Triggered: true,
					Reason:    fmt.Sprintf("reply contains sensitive term %q", term),
				}
			}
		}
	}
	return Result{}
}
