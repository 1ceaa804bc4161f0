package client

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/asaidimu/go-tabula/core"
	"github.com/asaidimu/go-tabula/core/stats"
	"github.com/asaidimu/go-tabula/utils"
)

// Task priorities.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

var (
	priorities = []string{PriorityLow, PriorityMedium, PriorityHigh}
	statuses   = []string{stats.StatusPending, stats.StatusInProgress, stats.StatusCompleted}
)

// User is a backend user account.
type User struct {
	ID        int64   `json:"user_id"`
	Fullname  string  `json:"fullname"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone"`
	Gender    string  `json:"gender"`
	Role      string  `json:"role"`
	CreatedAt *string `json:"created_at"`
}

// Task is a backend task. AssignedTo is absent on the caller's own tasks.
type Task struct {
	ID             int64   `json:"task_id"`
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	Status         string  `json:"status"`
	Priority       string  `json:"priority"`
	AssignedTo     *int64  `json:"assigned_to,omitempty"`
	AssignedToName string  `json:"assigned_to_name,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// NewUser is the input to CreateUser.
type NewUser struct {
	Fullname string `json:"fullname"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Normalize trims the fields and checks the required ones. Role defaults to
// "user".
func (u NewUser) Normalize() (NewUser, error) {
	u.Fullname = strings.TrimSpace(u.Fullname)
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.TrimSpace(u.Email)
	u.Phone = strings.TrimSpace(u.Phone)
	u.Gender = strings.TrimSpace(u.Gender)
	u.Role = strings.TrimSpace(u.Role)
	if u.Role == "" {
		u.Role = "user"
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"fullname", u.Fullname},
		{"username", u.Username},
		{"email", u.Email},
		{"password", u.Password},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return u, validationError("missing required fields: %s", strings.Join(missing, ", "))
	}
	return u, nil
}

// NewTask is the input to CreateTask.
type NewTask struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority"`
	AssignedTo  int64  `json:"assigned_to"`
}

// Normalize trims the fields and checks the required ones. Priority defaults
// to Medium.
func (t NewTask) Normalize() (NewTask, error) {
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
	t.Priority = strings.TrimSpace(t.Priority)
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}

	switch {
	case t.Title == "":
		return t, validationError("title is required")
	case t.AssignedTo <= 0:
		return t, validationError("assigned_to is required")
	case !slices.Contains(priorities, t.Priority):
		return t, validationError("invalid priority %q", t.Priority)
	}
	return t, nil
}

// ValidStatus reports whether status is one a task may be set to.
func ValidStatus(status string) bool {
	return slices.Contains(statuses, status)
}

// EnrichTasks returns a copy of tasks with AssignedToName set to the assignee's
// username, or the assignee id when the user is unknown.
func EnrichTasks(tasks []Task, users []User) []Task {
	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}

	out := slices.Clone(tasks)
	for i := range out {
		if out[i].AssignedTo == nil {
			continue
		}
		if name, ok := names[*out[i].AssignedTo]; ok && name != "" {
			out[i].AssignedToName = name
		} else {
			out[i].AssignedToName = strconv.FormatInt(*out[i].AssignedTo, 10)
		}
	}
	return out
}

// Records converts models into view records keyed by their JSON field names.
func Records[T any](items []T) ([]core.Record, error) {
	records := make([]core.Record, 0, len(items))
	for i, item := range items {
		m, err := utils.StructToMap(item)
		if err != nil {
			return nil, fmt.Errorf("could not convert item %d to record: %w", i, err)
		}
		records = append(records, core.Record(m))
	}
	return records, nil
}

// FromRecords converts view records back into models.
func FromRecords[T any](records []core.Record) ([]T, error) {
	items := make([]T, 0, len(records))
	for i, r := range records {
		item, err := utils.MapToStruct[T](r)
		if err != nil {
			return nil, fmt.Errorf("could not convert record %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}
