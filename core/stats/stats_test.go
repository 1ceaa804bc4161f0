package stats

import (
	"testing"
	"time"

	"github.com/asaidimu/go-tabula/core"
	"github.com/stretchr/testify/assert"
)

var (
	users = []core.Record{
		{"user_id": 1, "role": "admin"},
		{"user_id": 2, "role": "user"},
		{"user_id": 3, "role": "user"},
		{"user_id": 4},
	}
	tasks = []core.Record{
		{"task_id": 1, "status": "Pending", "created_at": "2026-10-15T09:30:00.123456"},
		{"task_id": 2, "status": "Completed", "created_at": "2026-10-15T01:00:00"},
		{"task_id": 3, "status": "In Progress", "created_at": "2026-10-12T23:59:59"},
		{"task_id": 4, "status": "Completed", "created_at": "2026-10-09T00:00:00"},
		{"task_id": 5, "status": "Completed", "created_at": "2026-10-08T12:00:00"},
		{"task_id": 6, "status": "Pending", "created_at": "not a date"},
		{"task_id": 7, "status": "Pending"},
	}
)

func TestSummarize(t *testing.T) {
	assert.Equal(t, Summary{
		TotalUsers:     4,
		AdminUsers:     1,
		TotalTasks:     7,
		CompletedTasks: 3,
	}, Summarize(users, tasks))

	assert.Equal(t, Summary{}, Summarize(nil, nil))
}

func TestUsersByRole(t *testing.T) {
	assert.Equal(t, []Point{
		{Label: "Total Users", Value: 4},
		{Label: "Admins", Value: 1},
		{Label: "Regular Users", Value: 2},
	}, UsersByRole(users))
}

func TestTasksByStatus(t *testing.T) {
	assert.Equal(t, []Point{
		{Label: "Pending", Value: 3},
		{Label: "In Progress", Value: 1},
		{Label: "Completed", Value: 3},
	}, TasksByStatus(tasks))
}

func TestActivityTrend(t *testing.T) {
	now := time.Date(2026, time.October, 15, 18, 0, 0, 0, time.UTC)
	points := ActivityTrend(tasks, now)

	assert.Equal(t, []Point{
		{Label: "Oct 9", Value: 1},
		{Label: "Oct 10", Value: 0},
		{Label: "Oct 11", Value: 0},
		{Label: "Oct 12", Value: 1},
		{Label: "Oct 13", Value: 0},
		{Label: "Oct 14", Value: 0},
		{Label: "Oct 15", Value: 2},
	}, points)
}

func TestActivityTrend_IgnoresFutureTasks(t *testing.T) {
	now := time.Date(2026, time.October, 15, 18, 0, 0, 0, time.UTC)
	points := ActivityTrend([]core.Record{{"created_at": "2026-10-16T00:00:00Z"}}, now)
	for _, p := range points {
		assert.Zero(t, p.Value)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input any
		ok    bool
	}{
		{"2026-10-15T09:30:00.123456", true},
		{"2026-10-15T09:30:00Z", true},
		{"2026-10-15T09:30:00+02:00", true},
		{"2026-10-15 09:30:00", true},
		{"2026-10-15", true},
		{time.Now(), true},
		{"yesterday", false},
		{nil, false},
		{42, false},
	}
	for _, tt := range tests {
		_, ok := ParseTimestamp(tt.input)
		assert.Equal(t, tt.ok, ok, "%v", tt.input)
	}
}
