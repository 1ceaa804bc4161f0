package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/asaidimu/go-tabula/client"
	"github.com/asaidimu/go-tabula/core"
	"github.com/asaidimu/go-tabula/core/session"
	"github.com/asaidimu/go-tabula/core/stats"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// Root returns the console's command tree.
func (a *App) Root() *Command {
	return &Command{
		Name:    "taskconsole",
		Summary: "Task management admin console",
		Subcommands: []*Command{
			a.loginCommand(),
			a.logoutCommand(),
			a.whoamiCommand(),
			a.tableCommand("users", "List users", TabUsers, session.ManageUsers),
			a.tableCommand("tasks", "List all tasks", TabTasks, session.ManageTasks),
			a.tableCommand("my-tasks", "List the tasks assigned to you", TabMyTasks, session.ViewOwnTasks),
			a.addUserCommand(),
			a.addTaskCommand(),
			a.setStatusCommand(),
			a.deleteUserCommand(),
			a.deleteTaskCommand(),
			a.statsCommand(),
			a.activityCommand(),
			{
				Name:    "export",
				Summary: "Export a table to CSV",
				Subcommands: []*Command{
					a.exportCommand(TabUsers, "Export users to CSV", session.ManageUsers),
					a.exportCommand(TabTasks, "Export tasks to CSV", session.ManageTasks),
				},
			},
		},
	}
}

func exactArgs(args []string, n int, usage string) error {
	if len(args) != n {
		return fmt.Errorf("expected %d argument(s): %s", n, usage)
	}
	return nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

// readPassword reads a single line from the input, or prompts with echo
// disabled when the input is a terminal and fromStdin is false.
func (a *App) readPassword(fromStdin bool) (string, error) {
	if !fromStdin {
		f, ok := a.in.(*os.File)
		if !ok || !term.IsTerminal(int(f.Fd())) {
			return "", errors.New("no terminal available for a password prompt (use --password or --password-stdin)")
		}
		fmt.Fprint(a.out, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.out)
		if err != nil {
			return "", fmt.Errorf("could not read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("could not read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *App) loginCommand() *Command {
	var (
		user          string
		password      string
		passwordStdin bool
	)
	return &Command{
		Name:    "login",
		Summary: "Sign in with a username or email",
		Usage:   "taskconsole login --user <username|email> [--password <password> | --password-stdin]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
			fs.StringVarP(&user, "user", "u", "", "username or email")
			fs.StringVar(&password, "password", "", "password")
			fs.BoolVar(&passwordStdin, "password-stdin", false, "read the password from standard input")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if passwordStdin || password == "" {
				p, err := a.readPassword(passwordStdin)
				if err != nil {
					return err
				}
				password = p
			}

			c, err := a.client()
			if err != nil {
				return err
			}
			s, err := c.Login(ctx, user, password)
			var apiErr *client.APIError
			if errors.As(err, &apiErr) {
				return fmt.Errorf("login failed: %s", apiErr.Message)
			}
			if err != nil {
				return err
			}

			if err := a.sessions.Save(s); err != nil {
				return fmt.Errorf("could not save session: %w", err)
			}
			a.current = s
			a.notify.Success("Logged in as %s (%s)", s.Username, s.Role)
			return nil
		},
	}
}

func (a *App) logoutCommand() *Command {
	return &Command{
		Name:    "logout",
		Summary: "Sign out",
		Run: func(ctx context.Context, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			if s == nil {
				a.notify.Info("Not logged in")
				return nil
			}

			if c, err := a.client(); err == nil {
				if err := c.Logout(ctx); err != nil && !client.IsUnauthorized(err) {
					a.notify.Failure("Server logout failed: %v", err)
				}
			}
			if err := a.sessions.Clear(); err != nil {
				return err
			}
			a.current = nil
			a.notify.Success("Logged out")
			return nil
		},
	}
}

func (a *App) whoamiCommand() *Command {
	return &Command{
		Name:    "whoami",
		Summary: "Show the signed-in user",
		Run: func(ctx context.Context, args []string) error {
			s, err := a.require()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 2, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "User:\t%s\n", s.Username)
			if s.Fullname != "" {
				fmt.Fprintf(tw, "Name:\t%s\n", s.Fullname)
			}
			if s.Email != "" {
				fmt.Fprintf(tw, "Email:\t%s\n", s.Email)
			}
			fmt.Fprintf(tw, "Role:\t%s\n", s.Role)
			caps := make([]string, 0)
			for _, c := range s.Capabilities().List() {
				caps = append(caps, string(c))
			}
			fmt.Fprintf(tw, "Capabilities:\t%s\n", strings.Join(caps, ", "))
			return tw.Flush()
		},
	}
}

func (a *App) tableCommand(name, summary, tab string, capability session.Capability) *Command {
	var opts tableOptions
	return &Command{
		Name:    name,
		Summary: summary,
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
			opts.bind(fs, a.cfg.PageSize)
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if _, err := a.require(capability); err != nil {
				return err
			}
			return a.showTable(ctx, a.tabs[tab], &opts)
		},
	}
}

func (a *App) exportCommand(tab, summary string, capability session.Capability) *Command {
	var (
		opts   tableOptions
		all    bool
		output string
	)
	return &Command{
		Name:    tab,
		Summary: summary,
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet(tab, pflag.ContinueOnError)
			opts.bind(fs, a.cfg.PageSize)
			fs.BoolVar(&all, "all", false, "export every matching row instead of the current page")
			fs.StringVarP(&output, "output", "o", "", "file name (default "+a.tabs[tab].FileName+")")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if _, err := a.require(capability); err != nil {
				return err
			}
			return a.exportTable(ctx, a.tabs[tab], &opts, all, output)
		},
	}
}

func (a *App) addUserCommand() *Command {
	var u client.NewUser
	return &Command{
		Name:    "add-user",
		Summary: "Create a user",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("add-user", pflag.ContinueOnError)
			fs.StringVar(&u.Fullname, "fullname", "", "full name")
			fs.StringVar(&u.Username, "username", "", "username")
			fs.StringVar(&u.Email, "email", "", "email address")
			fs.StringVar(&u.Password, "password", "", "initial password")
			fs.StringVar(&u.Phone, "phone", "", "phone number")
			fs.StringVar(&u.Gender, "gender", "", "gender")
			fs.StringVar(&u.Role, "role", "user", "role: user or admin")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if _, err := a.require(session.ManageUsers); err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.CreateUser(ctx, u); err != nil {
				return err
			}
			a.notify.Success("User %s created", strings.TrimSpace(u.Username))
			return nil
		},
	}
}

// resolveUser turns a user id or username into an id.
func (a *App) resolveUser(ctx context.Context, c *client.Client, ref string) (int64, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return id, nil
	}
	users, err := c.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	i := slices.IndexFunc(users, func(u client.User) bool { return u.Username == ref })
	if i < 0 {
		return 0, fmt.Errorf("%w: unknown user %q", client.ErrValidation, ref)
	}
	return users[i].ID, nil
}

func (a *App) addTaskCommand() *Command {
	var (
		task   client.NewTask
		assign string
	)
	return &Command{
		Name:    "add-task",
		Summary: "Create and assign a task",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("add-task", pflag.ContinueOnError)
			fs.StringVar(&task.Title, "title", "", "task title")
			fs.StringVar(&task.Description, "description", "", "task description")
			fs.StringVar(&task.Priority, "priority", client.PriorityMedium, "Low, Medium or High")
			fs.StringVar(&assign, "assign", "", "assignee user id or username")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if _, err := a.require(session.ManageTasks); err != nil {
				return err
			}
			if assign == "" {
				return fmt.Errorf("%w: --assign is required", client.ErrValidation)
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			if task.AssignedTo, err = a.resolveUser(ctx, c, assign); err != nil {
				return err
			}
			if err := c.CreateTask(ctx, task); err != nil {
				return err
			}
			a.notify.Success("Task %q created", strings.TrimSpace(task.Title))
			return nil
		},
	}
}

func (a *App) setStatusCommand() *Command {
	return &Command{
		Name:    "set-status",
		Summary: "Update the status of one of your tasks",
		Usage:   `taskconsole set-status <task-id> <Pending|"In Progress"|Completed>`,
		Run: func(ctx context.Context, args []string) error {
			if err := exactArgs(args, 2, "<task-id> <status>"); err != nil {
				return err
			}
			if _, err := a.require(session.UpdateOwnTasks); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.UpdateTaskStatus(ctx, id, args[1]); err != nil {
				return err
			}
			a.notify.Success("Task %d is now %s", id, args[1])
			return nil
		},
	}
}

func (a *App) deleteUserCommand() *Command {
	var all, yes bool
	return &Command{
		Name:    "delete-user",
		Summary: "Delete a user, or every user with --all",
		Usage:   "taskconsole delete-user <user-id> | --all --yes",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("delete-user", pflag.ContinueOnError)
			fs.BoolVar(&all, "all", false, "delete every user")
			fs.BoolVar(&yes, "yes", false, "confirm deleting every user")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if _, err := a.require(session.ManageUsers); err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}

			if all {
				if !yes {
					return errors.New("refusing to delete every user without --yes")
				}
				if err := c.DeleteAllUsers(ctx); err != nil {
					return err
				}
				a.notify.Success("All users deleted")
				return nil
			}

			if err := exactArgs(args, 1, "<user-id>"); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.DeleteUser(ctx, id); err != nil {
				return err
			}
			a.notify.Success("User %d deleted", id)
			return nil
		},
	}
}

func (a *App) deleteTaskCommand() *Command {
	return &Command{
		Name:    "delete-task",
		Summary: "Delete a task",
		Usage:   "taskconsole delete-task <task-id>",
		Run: func(ctx context.Context, args []string) error {
			if err := exactArgs(args, 1, "<task-id>"); err != nil {
				return err
			}
			if _, err := a.require(session.ManageTasks); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.DeleteTask(ctx, id); err != nil {
				return err
			}
			a.notify.Success("Task %d deleted", id)
			return nil
		},
	}
}

func (a *App) statsCommand() *Command {
	var offline bool
	return &Command{
		Name:    "stats",
		Summary: "Show dashboard statistics",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("stats", pflag.ContinueOnError)
			fs.BoolVar(&offline, "offline", false, "use the last saved snapshot instead of the server")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if _, err := a.require(session.ViewStats); err != nil {
				return err
			}
			var users, tasks []core.Record
			var err error
			if tasks, err = a.records(ctx, TabTasks, offline); err != nil {
				return err
			}
			if users, err = a.records(ctx, TabUsers, offline); err != nil {
				return err
			}

			a.render.Cards(stats.Summarize(users, tasks))
			a.render.Bars("Users by Role", stats.UsersByRole(users))
			a.render.Bars("Tasks by Status", stats.TasksByStatus(tasks))
			a.render.Bars("Tasks Created (last 7 days)", stats.ActivityTrend(tasks, a.now()))
			return nil
		},
	}
}

func (a *App) activityCommand() *Command {
	var limit int
	return &Command{
		Name:    "activity",
		Summary: "Show recent activity, newest first",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("activity", pflag.ContinueOnError)
			fs.IntVarP(&limit, "limit", "n", 10, "number of entries to show")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if _, err := a.require(session.ViewStats); err != nil {
				return err
			}
			store, err := a.snapshots(ctx)
			if err != nil {
				return err
			}
			entries, err := store.RecentActivity(ctx, 0)
			if err != nil {
				return err
			}
			a.feed.Seed(entries)

			entries = a.feed.Entries()
			slices.Reverse(entries)
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
			if len(entries) == 0 {
				a.notify.Info("No recent activity")
				return nil
			}

			tw := tabwriter.NewWriter(a.out, 2, 0, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Timestamp.Local().Format(time.DateTime), e.Action, e.Details)
			}
			return tw.Flush()
		},
	}
}
