package console

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/asaidimu/go-tabula/config"
	"github.com/asaidimu/go-tabula/core/session"
	"github.com/asaidimu/go-tabula/internal/fakeapi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t        *testing.T
	srv      *fakeapi.Server
	cfg      *config.Config
	sessions *session.FileStore
	stdin    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := fakeapi.New(nil)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := config.Default()
	cfg.ServerURL = srv.URL
	cfg.SessionFile = filepath.Join(dir, "state", "session.json")
	cfg.SnapshotDB = filepath.Join(dir, "state", "snapshot.db")
	cfg.ExportDir = filepath.Join(dir, "exports")

	return &harness{
		t:        t,
		srv:      srv,
		cfg:      cfg,
		sessions: session.NewFileStore(cfg.SessionFile),
	}
}

func (h *harness) run(args ...string) (string, error) {
	var out bytes.Buffer
	plain := termenv.Ascii
	err := Run(context.Background(), args, Options{
		Config:       h.cfg,
		Out:          &out,
		In:           strings.NewReader(h.stdin),
		Sessions:     h.sessions,
		ColorProfile: &plain,
	})
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

func (h *harness) loginAdmin() {
	h.t.Helper()
	h.mustRun("login", "--user", "admin", "--password", "admin123")
}

func (h *harness) loginDemo() {
	h.t.Helper()
	h.mustRun("login", "--user", "demo", "--password", "demo123")
}

func TestLoginAndWhoami(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("login", "-u", "admin@example.com", "--password", "admin123")
	assert.Contains(t, out, "Logged in as admin (admin)")

	saved, err := h.sessions.Load()
	require.NoError(t, err)
	assert.Equal(t, "admin", saved.Username)
	assert.NotEmpty(t, saved.Cookies)

	out = h.mustRun("whoami")
	assert.Contains(t, out, "System Admin")
	assert.Contains(t, out, "users:manage")
}

func TestLogin_PasswordFromStdin(t *testing.T) {
	h := newHarness(t)
	h.stdin = "demo123\n"

	out := h.mustRun("login", "--user", "demo", "--password-stdin")
	assert.Contains(t, out, "Logged in as demo (user)")
}

func TestLogin_NoTerminalForPrompt(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("login", "--user", "admin")
	assert.ErrorContains(t, err, "no terminal available")
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("login", "--user", "admin", "--password", "nope")
	assert.ErrorContains(t, err, "Incorrect password")

	_, err = h.sessions.Load()
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.loginAdmin()

	out := h.mustRun("logout")
	assert.Contains(t, out, "Logged out")

	_, err := h.run("whoami")
	assert.ErrorIs(t, err, session.ErrLoginRequired)

	out = h.mustRun("logout")
	assert.Contains(t, out, "Not logged in")
}

func TestCommandsCheckCapabilities(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("users")
	assert.ErrorIs(t, err, session.ErrLoginRequired)

	h.loginDemo()
	for _, args := range [][]string{
		{"users"},
		{"tasks"},
		{"stats"},
		{"activity"},
		{"add-user", "--fullname", "X", "--username", "x", "--email", "x@x", "--password", "p"},
		{"delete-task", "1"},
		{"export", "users"},
	} {
		_, err := h.run(args...)
		assert.ErrorIs(t, err, session.ErrAccessDenied, args)
	}

	_, err = h.run("my-tasks")
	assert.NoError(t, err)
}

func TestUsersTable(t *testing.T) {
	h := newHarness(t)
	h.loginAdmin()
	h.mustRun("add-user", "--fullname", "Ann Lee", "--username", "ann", "--email", "ann@example.com", "--password", "pw")

	out := h.mustRun("users")
	assert.Contains(t, out, "Username")
	assert.Contains(t, out, "ann@example.com")
	assert.Contains(t, out, "Page 1 of 1 (3 records)")

	out = h.mustRun("users", "--search", "ANN")
	assert.Contains(t, out, "Ann Lee")
	assert.NotContains(t, out, "Demo User")
	assert.Contains(t, out, "(1 records)")

	out = h.mustRun("users", "--sort", "username", "--desc")
	demo := strings.Index(out, "demo@example.com")
	ann := strings.Index(out, "ann@example.com")
	admin := strings.Index(out, "admin@example.com")
	assert.True(t, demo < ann && ann < admin, out)

	out = h.mustRun("users", "--page-size", "2", "--page", "2")
	assert.Contains(t, out, "Page 2 of 2 (3 records)")

	out = h.mustRun("users", "--search", "nobody")
	assert.Contains(t, out, "No records found.")
}

func TestUsersTable_OutOfRangePageShowsNearestPage(t *testing.T) {
	h := newHarness(t)
	h.loginAdmin()
	h.mustRun("add-user", "--fullname", "Ann Lee", "--username", "ann", "--email", "ann@example.com", "--password", "pw")

	out := h.mustRun("users", "--page-size", "2", "--page", "99")
	assert.Contains(t, out, "Page 2 of 2 (3 records)")
	assert.Contains(t, out, "ann@example.com")
	assert.NotContains(t, out, "admin@example.com")
	assert.NotContains(t, out, "No records found.")

	out = h.mustRun("users", "--page-size", "2", "--page", "0")
	assert.Contains(t, out, "Page 1 of 2 (3 records)")
	assert.Contains(t, out, "admin@example.com")
	assert.Contains(t, out, "demo@example.com")
	assert.NotContains(t, out, "ann@example.com")
	assert.NotContains(t, out, "No records found.")
}

func TestUsersTable_InvalidPageSize(t *testing.T) {
	h := newHarness(t)
	h.loginAdmin()

	_, err := h.run("users", "--page-size", "0")
	assert.ErrorContains(t, err, "page size must be positive")
}

func TestTasksWorkflow(t *testing.T) {
	h := newHarness(t)
	h.loginAdmin()

	out := h.mustRun("add-task", "--title", "Write report", "--assign", "demo", "--priority", "High")
	assert.Contains(t, out, `Task "Write report" created`)
	h.mustRun("add-task", "--title", "Plan sprint", "--assign", "2")

	_, err := h.run("add-task", "--title", "Ghost", "--assign", "nobody")
	assert.ErrorContains(t, err, "unknown user")

	out = h.mustRun("tasks", "--search", "demo")
	assert.Contains(t, out, "Write report")
	assert.Contains(t, out, "(2 records)")

	h.loginDemo()
	out = h.mustRun("my-tasks")
	assert.Contains(t, out, "Plan sprint")

	out = h.mustRun("set-status", "1", "Completed")
	assert.Contains(t, out, "Task 1 is now Completed")
	assert.Equal(t, "Completed", h.srv.Tasks()[0].Status)

	_, err = h.run("set-status", "1", "Done")
	assert.ErrorContains(t, err, "invalid status")

	h.loginAdmin()
	h.mustRun("delete-task", "2")
	assert.Len(t, h.srv.Tasks(), 1)
}

func TestDeleteUser(t *testing.T) {
	h := newHarness(t)
	h.loginAdmin()

	h.mustRun("delete-user", "2")
	assert.Len(t, h.srv.Users(), 1)

	_, err := h.run("delete-user", "--all")
	assert.ErrorContains(t, err, "--yes")

	_, err = h.run("delete-user", "abc")
	assert.ErrorContains(t, err, "invalid id")
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	h.srv.AddTask(fakeapi.Task{Title: "Write report, draft", Priority: "High", AssignedTo: 2})
	h.srv.AddTask(fakeapi.Task{Title: "Plan", AssignedTo: 1})
	h.loginAdmin()

	out := h.mustRun("export", "tasks", "--all", "--sort", "title")
	path := filepath.Join(h.cfg.ExportDir, "tasks.csv")
	assert.Contains(t, out, "Exported to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"ID,Title,Description,Priority,Status,AssignedTo\n"+
			"2,Plan,,Medium,Pending,admin\n"+
			`1,"Write report, draft",,High,Pending,demo`,
		string(data))

	h.mustRun("export", "users", "--page-size", "1", "-o", "first.csv")
	data, err = os.ReadFile(filepath.Join(h.cfg.ExportDir, "first.csv"))
	require.NoError(t, err)
	assert.Equal(t, "ID,Name,Username,Email,Phone,Role,Gender\n1,System Admin,admin,admin@example.com,,admin,Other", string(data))
}

func TestExport_NoData(t *testing.T) {
	h := newHarness(t)
	h.loginAdmin()

	out := h.mustRun("export", "tasks")
	assert.Contains(t, out, "No data to export")
	assert.NoFileExists(t, filepath.Join(h.cfg.ExportDir, "tasks.csv"))
}

func TestOffline(t *testing.T) {
	h := newHarness(t)
	h.loginAdmin()

	_, err := h.run("users", "--offline")
	assert.ErrorIs(t, err, errNoSnapshot)

	h.mustRun("users")
	h.srv.Close()

	out := h.mustRun("users", "--offline", "--search", "demo")
	assert.Contains(t, out, "Offline snapshot from")
	assert.Contains(t, out, "demo@example.com")

	_, err = h.run("users")
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	h := newHarness(t)
	h.srv.AddTask(fakeapi.Task{Title: "a", AssignedTo: 2, Status: "Completed"})
	h.srv.AddTask(fakeapi.Task{Title: "b", AssignedTo: 2})
	h.loginAdmin()

	out := h.mustRun("stats")
	for _, want := range []string{"Total Users", "Completed", "Users by Role", "Tasks by Status", "In Progress", "Tasks Created (last 7 days)"} {
		assert.Contains(t, out, want)
	}
	today := time.Now().Format("Jan 2")
	assert.Contains(t, out, today)
}

func TestActivity(t *testing.T) {
	h := newHarness(t)
	h.loginAdmin()

	out := h.mustRun("activity")
	assert.Contains(t, out, "session:login")

	h.mustRun("add-task", "--title", "Write report", "--assign", "2")
	_, _ = h.run("delete-task", "99")

	out = h.mustRun("activity", "--limit", "2")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "tasks:delete")
	assert.Contains(t, lines[0], "task 99 failed")
	assert.Contains(t, lines[0], "Task not found")
	assert.Contains(t, lines[1], "tasks:create")
	assert.Contains(t, lines[1], "task Write report")
}

func TestHelpAndUnknownCommand(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("--help")
	assert.Contains(t, out, "Commands:")
	assert.Contains(t, out, "my-tasks")

	out = h.mustRun("users", "--help")
	assert.Contains(t, out, "--page-size")

	_, err := h.run("frobnicate")
	assert.ErrorContains(t, err, `unknown command "frobnicate"`)

	_, err = h.run("export")
	assert.ErrorContains(t, err, "subcommand required")
}
