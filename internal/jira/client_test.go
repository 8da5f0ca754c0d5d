package jira

import (
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	atlas "github.com/ctreminiom/go-atlassian/v2/pkg/infra/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannvm/jiraclean/internal/models"
)

func dt(t time.Time) *atlas.DateTimeScheme {
	d := atlas.DateTimeScheme(t)
	return &d
}

func sampleIssue() *atlas.IssueSchemeV2 {
	return &atlas.IssueSchemeV2{
		Key: "PROJ-12",
		Fields: &atlas.IssueFieldsSchemeV2{
			Summary:     "Login flakiness",
			Description: "Intermittent 500s on login.",
			Created:     dt(time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)),
			Updated:     dt(time.Date(2025, 5, 20, 16, 0, 0, 0, time.UTC)),
			IssueType:   &atlas.IssueTypeScheme{Name: "Bug"},
			Status:      &atlas.StatusScheme{Name: "To Do"},
			Reporter:    &atlas.UserScheme{DisplayName: "Jane Doe"},
			Assignee:    &atlas.UserScheme{DisplayName: "John Roe"},
			Comment: &atlas.IssueCommentPageSchemeV2{
				Comments: []*atlas.IssueCommentSchemeV2{
					{
						ID:      "100",
						Body:    "Any update here?",
						Author:  &atlas.UserScheme{DisplayName: "Jane Doe"},
						Created: "2025-04-01T10:00:00.000+0000",
					},
				},
			},
		},
		Changelog: &atlas.IssueChangelogScheme{
			Histories: []*atlas.IssueChangelogHistoryScheme{
				{
					Author:  &atlas.IssueChangelogAuthor{DisplayName: "John Roe"},
					Created: "2025-04-02T11:00:00.000+0000",
					Items: []*atlas.IssueChangelogHistoryItemScheme{
						{Field: "status", FromString: "Backlog", ToString: "To Do"},
					},
				},
			},
		},
	}
}

func TestFromIssue(t *testing.T) {
	ticket, err := fromIssue(sampleIssue())
	require.NoError(t, err)

	assert.Equal(t, "PROJ-12", ticket.Key)
	assert.Equal(t, "Bug", ticket.Type)
	assert.Equal(t, "To Do", ticket.Status)
	assert.Equal(t, "Login flakiness", ticket.Summary)
	assert.Equal(t, "Jane Doe", ticket.Reporter)
	assert.Equal(t, "John Roe", ticket.Assignee)
	assert.True(t, ticket.Created.Equal(time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)))
	assert.True(t, ticket.Updated.Equal(time.Date(2025, 5, 20, 16, 0, 0, 0, time.UTC)))

	require.Len(t, ticket.Comments, 1)
	assert.Equal(t, "100", ticket.Comments[0].ID)
	assert.Equal(t, "Jane Doe", ticket.Comments[0].Author)
	assert.False(t, ticket.Comments[0].Created.IsZero())

	require.Len(t, ticket.Changes, 1)
	assert.Equal(t, "status", ticket.Changes[0].Field)
	assert.Equal(t, "Backlog", ticket.Changes[0].From)
	assert.Equal(t, "To Do", ticket.Changes[0].To)
	assert.Equal(t, "John Roe", ticket.Changes[0].Author)
}

func TestFromIssueRejectsMissingFields(t *testing.T) {
	_, err := fromIssue(nil)
	assert.Error(t, err)

	_, err = fromIssue(&atlas.IssueSchemeV2{Key: "PROJ-1"})
	assert.Error(t, err)
}

func TestFromIssueRejectsMissingDates(t *testing.T) {
	issue := sampleIssue()
	issue.Fields.Created = nil
	_, err := fromIssue(issue)
	assert.ErrorContains(t, err, "created")

	issue = sampleIssue()
	issue.Fields.Updated = nil
	_, err = fromIssue(issue)
	assert.ErrorContains(t, err, "updated")
}

func TestFromIssueKeepsCommentWithBadTimestamp(t *testing.T) {
	issue := sampleIssue()
	issue.Fields.Comment.Comments[0].Created = "not-a-date"

	ticket, err := fromIssue(issue)
	require.NoError(t, err)
	require.Len(t, ticket.Comments, 1)
	assert.True(t, ticket.Comments[0].Created.IsZero())
	assert.Equal(t, "Any update here?", ticket.Comments[0].Body)
}

func TestFromIssueMinimalFields(t *testing.T) {
	issue := &atlas.IssueSchemeV2{
		Key: "PROJ-2",
		Fields: &atlas.IssueFieldsSchemeV2{
			Summary: "Bare issue",
			Created: dt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
			Updated: dt(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)),
		},
	}

	ticket, err := fromIssue(issue)
	require.NoError(t, err)
	assert.Empty(t, ticket.Type)
	assert.Empty(t, ticket.Assignee)
	assert.Empty(t, ticket.Comments)
	assert.Empty(t, ticket.Changes)
}

func TestBuildJQL(t *testing.T) {
	c := &Client{projectKey: "PROJ", excluded: []string{"Done", "Closed"}}
	assert.Equal(t,
		`project = "PROJ" AND status != "Done" AND status != "Closed" ORDER BY updated ASC`,
		c.buildJQL())
}

func TestBuildJQLNoExclusions(t *testing.T) {
	c := &Client{projectKey: "PROJ"}
	assert.Equal(t, `project = "PROJ" ORDER BY updated ASC`, c.buildJQL())
}

func TestClassifyMarksClientErrorsPermanent(t *testing.T) {
	boom := errors.New("request failed")

	var perm *backoff.PermanentError
	assert.ErrorAs(t, classify(&atlas.ResponseScheme{Code: 404}, boom), &perm)
	assert.ErrorAs(t, classify(&atlas.ResponseScheme{Code: 400}, boom), &perm)

	for _, code := range []int{500, 503} {
		assert.NotErrorIs(t, classify(&atlas.ResponseScheme{Code: code}, boom), &backoff.PermanentError{})
	}
	assert.NotErrorIs(t, classify(nil, boom), &backoff.PermanentError{})
}

func TestSearchPageIsLastUsesFetchedCount(t *testing.T) {
	// Two issues fetched, one dropped as malformed: the page still covers
	// both positions of the search window.
	page := &SearchPage{
		Tickets: []models.Ticket{{Key: "PROJ-3"}},
		StartAt: 2,
		Fetched: 2,
		Total:   4,
	}
	assert.True(t, page.IsLast())

	page.Total = 6
	assert.False(t, page.IsLast())
}
