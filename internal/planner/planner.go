// Package planner maps an assessment result to at most one planned action.
// It decides whether and what, never how; transport belongs to the executor.
package planner

import (
	"github.com/tuannvm/jiraclean/internal/assessment"
	"github.com/tuannvm/jiraclean/internal/models"
)

// ActionKind enumerates the side effects the system knows how to take.
type ActionKind string

const (
	// ActionAddComment posts the assessment's planned comment to the ticket.
	ActionAddComment ActionKind = "add-comment"
)

// PlannedAction is a concrete, not-yet-executed side effect. It is only
// ever constructed for results that need action.
type PlannedAction struct {
	Kind      ActionKind
	TicketKey string
	Comment   string
}

// Plan returns the action warranted by the result, or nil when the result
// needs none. Failed assessments never produce an action.
func Plan(ticket models.Ticket, result assessment.Result) *PlannedAction {
	if result == nil || !result.NeedsAction() {
		return nil
	}
	return &PlannedAction{
		Kind:      ActionAddComment,
		TicketKey: ticket.Key,
		Comment:   result.PlannedComment(),
	}
}
