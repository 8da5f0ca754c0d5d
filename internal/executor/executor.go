// Package executor performs planned actions against the tracker, or
// simulates them in dry-run mode.
package executor

import (
	"context"
	"fmt"

	"github.com/tuannvm/jiraclean/internal/jira"
	log "github.com/tuannvm/jiraclean/internal/logging"
	"github.com/tuannvm/jiraclean/internal/models"
	"github.com/tuannvm/jiraclean/internal/planner"
)

// Mode selects between simulating and performing side effects.
type Mode int

const (
	// DryRun produces previews only. No mutating tracker call is ever
	// made in this mode, regardless of action content.
	DryRun Mode = iota
	// Live performs the action against the tracker.
	Live
)

func (m Mode) String() string {
	if m == Live {
		return "live"
	}
	return "dry-run"
}

// Outcome reports what execution did (or would have done).
type Outcome struct {
	Simulated bool
	CommentID string
	// Preview is the exact text that would have been posted; set only
	// when Simulated.
	Preview string
}

// Executor applies planned actions in a fixed mode chosen at construction.
type Executor struct {
	poster jira.CommentPoster
	mode   Mode
}

// New creates an executor. The poster may be nil in DryRun mode since it
// is never touched.
func New(poster jira.CommentPoster, mode Mode) *Executor {
	return &Executor{poster: poster, mode: mode}
}

// Mode returns the executor's mode.
func (e *Executor) Mode() Mode { return e.mode }

// Execute performs or simulates the action. Failures are returned to the
// caller untouched; retry policy lives in the tracker adapter and the
// pipeline, not here.
func (e *Executor) Execute(ctx context.Context, action *planner.PlannedAction) (Outcome, error) {
	if action == nil {
		return Outcome{}, fmt.Errorf("no action to execute")
	}
	if action.Kind != planner.ActionAddComment {
		return Outcome{}, fmt.Errorf("unsupported action kind %q", action.Kind)
	}

	body := stampComment(action.Comment)

	if e.mode == DryRun {
		log.Infof("DRY RUN: would add comment to %s", action.TicketKey)
		return Outcome{Simulated: true, Preview: body}, nil
	}

	comment, err := e.poster.AddComment(ctx, action.TicketKey, body)
	if err != nil {
		return Outcome{}, err
	}
	log.Infof("Added comment %s to %s", comment.ID, action.TicketKey)
	return Outcome{CommentID: comment.ID}, nil
}

// stampComment prefixes the governance marker so future runs can recognize
// the tool's own comments in ticket history.
func stampComment(body string) string {
	return models.SystemCommentMarker + "\n\n" + body
}
