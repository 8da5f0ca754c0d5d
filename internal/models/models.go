package models

import (
	"fmt"
	"time"
)

// SystemCommentMarker tags every comment this tool posts, so later runs can
// tell their own comments apart from real activity.
const SystemCommentMarker = "[JIRA GOVERNANCE SYSTEM]"

// jiraTimeLayout is the timestamp format Jira's REST API uses for
// created/updated fields, e.g. "2024-03-01T09:30:00.000+0000".
const jiraTimeLayout = "2006-01-02T15:04:05.000-0700"

// Ticket is a read-only snapshot of a Jira issue for one pipeline pass.
// The source adapter guarantees Created and Updated are populated and
// Created <= Updated; downstream stages never mutate a Ticket.
type Ticket struct {
	Key         string
	Type        string
	Status      string
	Summary     string
	Description string
	Created     time.Time
	Updated     time.Time
	Reporter    string
	Assignee    string
	Comments    []Comment
	Changes     []Change
}

// Comment is a single entry of a ticket's comment history.
type Comment struct {
	ID      string
	Author  string
	Body    string
	Created time.Time
}

// Change is a single entry of a ticket's change history.
type Change struct {
	Author  string
	Field   string
	From    string
	To      string
	Created time.Time
}

// PostedComment is the tracker's record of a comment created by this tool.
type PostedComment struct {
	ID      string
	Body    string
	Created string
	URL     string
}

// ParseJiraTime parses a Jira REST timestamp. RFC 3339 is accepted as a
// fallback since self-hosted instances have been seen emitting it.
func ParseJiraTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(jiraTimeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized Jira timestamp %q: %w", s, err)
	}
	return t, nil
}
