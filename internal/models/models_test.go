package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJiraTime(t *testing.T) {
	got, err := ParseJiraTime("2024-03-01T09:30:00.000+0000")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC).Unix(), got.Unix())
}

func TestParseJiraTimeWithOffset(t *testing.T) {
	got, err := ParseJiraTime("2024-03-01T09:30:00.000+0200")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 7, 30, 0, 0, time.UTC).Unix(), got.Unix())
}

func TestParseJiraTimeRFC3339Fallback(t *testing.T) {
	got, err := ParseJiraTime("2024-03-01T09:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC).Unix(), got.Unix())
}

func TestParseJiraTimeRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "yesterday", "2024-03-01", "01/03/2024 09:30"} {
		_, err := ParseJiraTime(s)
		assert.Error(t, err, "input %q", s)
	}
}
