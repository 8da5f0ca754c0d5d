package jira

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	v2 "github.com/ctreminiom/go-atlassian/v2/jira/v2"
	atlas "github.com/ctreminiom/go-atlassian/v2/pkg/infra/models"

	"github.com/tuannvm/jiraclean/internal/config"
	log "github.com/tuannvm/jiraclean/internal/logging"
	"github.com/tuannvm/jiraclean/internal/models"
)

// searchFields is the field set needed to build a models.Ticket.
var searchFields = []string{
	"summary", "description", "status", "issuetype",
	"reporter", "assignee", "created", "updated", "comment",
}

// Client adapts a Jira Cloud instance to the TicketSource and CommentPoster
// interfaces. Transient request failures are retried with exponential
// backoff inside this boundary; callers see only the final outcome.
type Client struct {
	api        *v2.Client
	projectKey string
	excluded   []string
	maxElapsed time.Duration
}

// NewClient creates a Jira client scoped to one project. Excluded statuses
// are pushed into the JQL so ineligible tickets are not even fetched.
func NewClient(cfg *config.Config, projectKey string) (*Client, error) {
	if cfg.JiraBaseURL == "" {
		return nil, fmt.Errorf("jira base URL not configured")
	}
	if cfg.JiraAPIToken == "" {
		return nil, fmt.Errorf("jira API token not configured")
	}

	api, err := v2.New(&http.Client{Timeout: 30 * time.Second}, cfg.JiraBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Jira client: %w", err)
	}
	api.Auth.SetBasicAuth(cfg.JiraUsername, cfg.JiraAPIToken)
	api.Auth.SetUserAgent("jiraclean/1.0")

	return &Client{
		api:        api,
		projectKey: projectKey,
		excluded:   cfg.ExcludedStatuses,
		maxElapsed: 20 * time.Second,
	}, nil
}

// SearchTickets fetches one page of candidate tickets for the project,
// oldest-updated first. Issues with unparsable timestamps are dropped here
// with a warning so downstream stages can rely on valid dates.
func (c *Client) SearchTickets(ctx context.Context, startAt, maxResults int) (*SearchPage, error) {
	jql := c.buildJQL()

	var result *atlas.IssueSearchSchemeV2
	err := c.retry(ctx, func() error {
		page, resp, err := c.api.Issue.Search.Get(ctx, jql, searchFields, []string{"changelog"}, startAt, maxResults, "")
		if err != nil {
			return classify(resp, fmt.Errorf("search failed: %w", err))
		}
		result = page
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search tickets for project %s: %w", c.projectKey, err)
	}

	page := &SearchPage{StartAt: result.StartAt, Fetched: len(result.Issues), Total: result.Total}
	for _, issue := range result.Issues {
		ticket, err := fromIssue(issue)
		if err != nil {
			log.Warnf("Dropping malformed issue %s: %v", issue.Key, err)
			continue
		}
		page.Tickets = append(page.Tickets, ticket)
	}
	return page, nil
}

// AddComment posts a comment to a ticket and returns the created comment.
func (c *Client) AddComment(ctx context.Context, ticketKey, body string) (*models.PostedComment, error) {
	var created *atlas.IssueCommentSchemeV2
	err := c.retry(ctx, func() error {
		comment, resp, err := c.api.Issue.Comment.Add(ctx, ticketKey, &atlas.CommentPayloadSchemeV2{Body: body}, nil)
		if err != nil {
			return classify(resp, fmt.Errorf("add comment failed: %w", err))
		}
		created = comment
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to post comment to %s: %w", ticketKey, err)
	}

	return &models.PostedComment{
		ID:      created.ID,
		Body:    created.Body,
		Created: created.Created,
		URL:     fmt.Sprintf("%s/browse/%s?focusedCommentId=%s", strings.TrimSuffix(c.api.Site.String(), "/"), ticketKey, created.ID),
	}, nil
}

func (c *Client) buildJQL() string {
	parts := []string{fmt.Sprintf("project = %q", c.projectKey)}
	for _, status := range c.excluded {
		parts = append(parts, fmt.Sprintf("status != %q", status))
	}
	return strings.Join(parts, " AND ") + " ORDER BY updated ASC"
}

// retry runs op with exponential backoff until it succeeds, is marked
// permanent, MaxElapsedTime passes, or ctx is done.
func (c *Client) retry(ctx context.Context, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = c.maxElapsed
	return backoff.Retry(op, backoff.WithContext(policy, ctx))
}

// classify marks client-side HTTP errors as permanent; retrying a 4xx with
// the same request cannot help.
func classify(resp *atlas.ResponseScheme, err error) error {
	if resp != nil && resp.Code >= 400 && resp.Code < 500 {
		return backoff.Permanent(err)
	}
	return err
}

// fromIssue converts a Jira issue into the pipeline's ticket snapshot.
// Missing or malformed timestamps reject the issue here, not downstream.
func fromIssue(issue *atlas.IssueSchemeV2) (models.Ticket, error) {
	var t models.Ticket
	if issue == nil || issue.Fields == nil {
		return t, fmt.Errorf("issue has no fields")
	}

	// Created/Updated arrive pre-parsed from the SDK; comment and changelog
	// timestamps below are raw strings and go through ParseJiraTime.
	if issue.Fields.Created == nil {
		return t, fmt.Errorf("missing created date")
	}
	if issue.Fields.Updated == nil {
		return t, fmt.Errorf("missing updated date")
	}
	created := time.Time(*issue.Fields.Created)
	updated := time.Time(*issue.Fields.Updated)

	t = models.Ticket{
		Key:         issue.Key,
		Summary:     issue.Fields.Summary,
		Description: issue.Fields.Description,
		Created:     created,
		Updated:     updated,
	}
	if issue.Fields.IssueType != nil {
		t.Type = issue.Fields.IssueType.Name
	}
	if issue.Fields.Status != nil {
		t.Status = issue.Fields.Status.Name
	}
	if issue.Fields.Reporter != nil {
		t.Reporter = issue.Fields.Reporter.DisplayName
	}
	if issue.Fields.Assignee != nil {
		t.Assignee = issue.Fields.Assignee.DisplayName
	}

	if issue.Fields.Comment != nil {
		for _, comment := range issue.Fields.Comment.Comments {
			if comment == nil {
				continue
			}
			entry := models.Comment{ID: comment.ID, Body: comment.Body}
			if comment.Author != nil {
				entry.Author = comment.Author.DisplayName
			}
			if ts, err := models.ParseJiraTime(comment.Created); err == nil {
				entry.Created = ts
			}
			t.Comments = append(t.Comments, entry)
		}
	}

	if issue.Changelog != nil {
		for _, history := range issue.Changelog.Histories {
			if history == nil {
				continue
			}
			var when time.Time
			if ts, err := models.ParseJiraTime(history.Created); err == nil {
				when = ts
			}
			author := ""
			if history.Author != nil {
				author = history.Author.DisplayName
			}
			for _, item := range history.Items {
				if item == nil {
					continue
				}
				t.Changes = append(t.Changes, models.Change{
					Author:  author,
					Field:   item.Field,
					From:    item.FromString,
					To:      item.ToString,
					Created: when,
				})
			}
		}
	}

	return t, nil
}
