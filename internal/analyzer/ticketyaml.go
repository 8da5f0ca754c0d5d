package analyzer

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tuannvm/jiraclean/internal/models"
)

// promptTicket is the cleaned view of a ticket that goes into the prompt.
// Comments posted by this tool are flagged so the model does not mistake
// them for real activity.
type promptTicket struct {
	Key         string `yaml:"key"`
	Summary     string `yaml:"summary"`
	Description string `yaml:"description"`
	Status      string `yaml:"status"`
	IssueType   string `yaml:"issue_type"`
	CreatedDate string `yaml:"created_date"`
	UpdatedDate string `yaml:"updated_date"`
	Users       struct {
		Reporter string `yaml:"reporter"`
		Assignee string `yaml:"assignee"`
	} `yaml:"users"`
	Comments         []promptComment `yaml:"comments"`
	HasSystemComment bool            `yaml:"has_system_comment"`
	Changes          []promptChange  `yaml:"changes,omitempty"`
}

type promptComment struct {
	Author          string `yaml:"author"`
	Created         string `yaml:"created"`
	Body            string `yaml:"body"`
	IsSystemComment bool   `yaml:"is_system_comment"`
}

type promptChange struct {
	Author  string `yaml:"author"`
	Created string `yaml:"created"`
	Field   string `yaml:"field"`
	From    string `yaml:"from,omitempty"`
	To      string `yaml:"to,omitempty"`
}

// ticketYAML serializes a ticket for template substitution.
func ticketYAML(t models.Ticket) (string, error) {
	doc := promptTicket{
		Key:         t.Key,
		Summary:     t.Summary,
		Description: t.Description,
		Status:      t.Status,
		IssueType:   t.Type,
		CreatedDate: t.Created.Format(time.RFC3339),
		UpdatedDate: t.Updated.Format(time.RFC3339),
	}
	doc.Users.Reporter = t.Reporter
	doc.Users.Assignee = t.Assignee
	if doc.Users.Assignee == "" {
		doc.Users.Assignee = "Unassigned"
	}

	for _, c := range t.Comments {
		system := strings.Contains(c.Body, models.SystemCommentMarker)
		doc.Comments = append(doc.Comments, promptComment{
			Author:          c.Author,
			Created:         c.Created.Format(time.RFC3339),
			Body:            c.Body,
			IsSystemComment: system,
		})
		if system {
			doc.HasSystemComment = true
		}
	}

	for _, ch := range t.Changes {
		doc.Changes = append(doc.Changes, promptChange{
			Author:  ch.Author,
			Created: ch.Created.Format(time.RFC3339),
			Field:   ch.Field,
			From:    ch.From,
			To:      ch.To,
		})
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to serialize ticket %s: %w", t.Key, err)
	}
	return string(out), nil
}
