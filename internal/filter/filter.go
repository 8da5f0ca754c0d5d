// Package filter implements the rule-based pre-filter that decides whether a
// ticket is worth an LLM assessment at all. It is pure: the caller supplies
// the clock, so the same inputs always produce the same answer.
package filter

import (
	"time"

	"github.com/tuannvm/jiraclean/internal/models"
)

// Criteria are the eligibility thresholds for expensive analysis.
// Both day minimums are non-negative; Excluded lists status names that
// disqualify a ticket outright.
type Criteria struct {
	MinAgeDays      int
	MinInactiveDays int
	Excluded        []string
}

// Passes reports whether the ticket is eligible for analysis at the given
// instant: old enough, quiet long enough, and not in an excluded status.
func (c Criteria) Passes(t models.Ticket, now time.Time) bool {
	if AgeDays(t, now) < c.MinAgeDays {
		return false
	}
	if InactivityDays(t, now) < c.MinInactiveDays {
		return false
	}
	for _, status := range c.Excluded {
		if t.Status == status {
			return false
		}
	}
	return true
}

// AgeDays is the whole number of days since the ticket was created,
// clamped at zero for clock skew.
func AgeDays(t models.Ticket, now time.Time) int {
	return wholeDays(now.Sub(t.Created))
}

// InactivityDays is the whole number of days since the ticket was last
// updated, clamped at zero.
func InactivityDays(t models.Ticket, now time.Time) int {
	return wholeDays(now.Sub(t.Updated))
}

func wholeDays(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}
