package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tuannvm/jiraclean/internal/models"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func ticketAged(ageDays, inactiveDays int, status string) models.Ticket {
	return models.Ticket{
		Key:     "PROJ-1",
		Status:  status,
		Created: now.AddDate(0, 0, -ageDays),
		Updated: now.AddDate(0, 0, -inactiveDays),
	}
}

func TestPasses(t *testing.T) {
	criteria := Criteria{
		MinAgeDays:      14,
		MinInactiveDays: 7,
		Excluded:        []string{"Closed", "Done", "Resolved"},
	}

	tests := []struct {
		name   string
		ticket models.Ticket
		want   bool
	}{
		{"old and quiet", ticketAged(20, 10, "To Do"), true},
		{"exactly at age boundary", ticketAged(14, 10, "To Do"), true},
		{"one day too new", ticketAged(13, 10, "To Do"), false},
		{"exactly at inactivity boundary", ticketAged(20, 7, "To Do"), true},
		{"recent activity", ticketAged(20, 6, "In Progress"), false},
		{"excluded status", ticketAged(20, 10, "Done"), false},
		{"too new entirely", ticketAged(2, 1, "To Do"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, criteria.Passes(tt.ticket, now))
		})
	}
}

func TestPassesSubDayBoundary(t *testing.T) {
	criteria := Criteria{MinAgeDays: 14}

	// 13 days and 23 hours is still 13 whole days.
	ticket := models.Ticket{
		Created: now.Add(-(13*24 + 23) * time.Hour),
		Updated: now.Add(-(13*24 + 23) * time.Hour),
	}
	assert.False(t, criteria.Passes(ticket, now))

	ticket.Created = now.Add(-14 * 24 * time.Hour)
	assert.True(t, criteria.Passes(ticket, now))
}

func TestPassesIsPure(t *testing.T) {
	criteria := Criteria{MinAgeDays: 14, MinInactiveDays: 7, Excluded: []string{"Done"}}
	ticket := ticketAged(20, 10, "To Do")

	first := criteria.Passes(ticket, now)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, criteria.Passes(ticket, now))
	}
}

func TestDayCountsClampToZero(t *testing.T) {
	// Created "in the future" relative to now, e.g. clock skew.
	ticket := models.Ticket{
		Created: now.Add(time.Hour),
		Updated: now.Add(time.Hour),
	}
	assert.Equal(t, 0, AgeDays(ticket, now))
	assert.Equal(t, 0, InactivityDays(ticket, now))

	// Zero thresholds always pass on the date checks.
	assert.True(t, Criteria{}.Passes(ticket, now))
}
