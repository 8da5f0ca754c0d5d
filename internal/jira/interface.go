package jira

import (
	"context"

	"github.com/tuannvm/jiraclean/internal/models"
)

// SearchPage is one page of search results. Tickets may hold fewer entries
// than the search returned when the adapter drops malformed issues; Fetched
// keeps the raw count so pagination still advances past the dropped ones.
type SearchPage struct {
	Tickets []models.Ticket
	StartAt int
	Fetched int
	Total   int
}

// IsLast reports whether the page exhausts the search.
func (p *SearchPage) IsLast() bool {
	return p.StartAt+p.Fetched >= p.Total
}

// TicketSource is the read side of the tracker as seen by the pipeline:
// repeated paginated searches until IsLast.
type TicketSource interface {
	SearchTickets(ctx context.Context, startAt, maxResults int) (*SearchPage, error)
}

// CommentPoster is the only mutating tracker operation the core ever
// performs, and only ever from the live-mode action executor.
type CommentPoster interface {
	AddComment(ctx context.Context, ticketKey, body string) (*models.PostedComment, error)
}
