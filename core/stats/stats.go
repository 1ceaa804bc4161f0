// Package stats computes the admin dashboard figures and chart series from the
// user and task records the console has fetched.
package stats

import (
	"time"

	"github.com/asaidimu/go-tabula/core"
)

// Task statuses accepted by the backend.
const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
)

// Summary holds the dashboard stat cards.
type Summary struct {
	TotalUsers     int `json:"total_users"`
	AdminUsers     int `json:"admin_users"`
	TotalTasks     int `json:"total_tasks"`
	CompletedTasks int `json:"completed_tasks"`
}

// Point is one labelled value of a chart series.
type Point struct {
	Label string `json:"name"`
	Value int    `json:"value"`
}

// Summarize counts users, admins, tasks and completed tasks.
func Summarize(users, tasks []core.Record) Summary {
	return Summary{
		TotalUsers:     len(users),
		AdminUsers:     countWhere(users, "role", "admin"),
		TotalTasks:     len(tasks),
		CompletedTasks: countWhere(tasks, "status", StatusCompleted),
	}
}

// UsersByRole returns the user chart: every user, admins, and regular users.
func UsersByRole(users []core.Record) []Point {
	return []Point{
		{Label: "Total Users", Value: len(users)},
		{Label: "Admins", Value: countWhere(users, "role", "admin")},
		{Label: "Regular Users", Value: countWhere(users, "role", "user")},
	}
}

// TasksByStatus returns the task chart, one point per status.
func TasksByStatus(tasks []core.Record) []Point {
	return []Point{
		{Label: StatusPending, Value: countWhere(tasks, "status", StatusPending)},
		{Label: StatusInProgress, Value: countWhere(tasks, "status", StatusInProgress)},
		{Label: StatusCompleted, Value: countWhere(tasks, "status", StatusCompleted)},
	}
}

// TrendDays is the number of days covered by ActivityTrend.
const TrendDays = 7

// ActivityTrend counts tasks created on each of the last TrendDays days up to
// and including now, oldest first. Days are taken in now's location. Tasks
// without a parseable created_at are not counted.
func ActivityTrend(tasks []core.Record, now time.Time) []Point {
	loc := now.Location()
	today := midnight(now)

	points := make([]Point, TrendDays)
	for i := range points {
		day := today.AddDate(0, 0, i-(TrendDays-1))
		points[i].Label = day.Format("Jan 2")
	}

	for _, task := range tasks {
		created, ok := ParseTimestamp(task["created_at"])
		if !ok {
			continue
		}
		day := midnight(created.In(loc))
		offset := int(today.Sub(day).Hours()/24 + 0.5)
		if day.After(today) || offset >= TrendDays {
			continue
		}
		points[TrendDays-1-offset].Value++
	}
	return points
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp reads a created_at value. Timestamps without a zone are
// taken as UTC, which is how the backend records them.
func ParseTimestamp(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, val); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func countWhere(records []core.Record, field, value string) int {
	n := 0
	for _, r := range records {
		if v, ok := r[field].(string); ok && v == value {
			n++
		}
	}
	return n
}
