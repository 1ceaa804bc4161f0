package console

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asaidimu/go-tabula/client"
	"github.com/asaidimu/go-tabula/core"
	"github.com/asaidimu/go-tabula/core/activity"
	"github.com/asaidimu/go-tabula/core/view"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Tab names, also used as snapshot collection names.
const (
	TabUsers   = "users"
	TabTasks   = "tasks"
	TabMyTasks = "my_tasks"
)

var userColumns = []view.Column{
	{Field: "user_id", Header: "ID", Sortable: true},
	{Field: "fullname", Header: "Name", Searchable: true, Sortable: true},
	{Field: "username", Header: "Username", Searchable: true, Sortable: true},
	{Field: "email", Header: "Email", Searchable: true, Sortable: true},
	{Field: "phone", Header: "Phone"},
	{Field: "role", Header: "Role", Sortable: true},
	{Field: "gender", Header: "Gender", Sortable: true},
}

var userExport = []view.ExportColumn{
	{Header: "ID", Field: "user_id"},
	{Header: "Name", Field: "fullname"},
	{Header: "Username", Field: "username"},
	{Header: "Email", Field: "email"},
	{Header: "Phone", Field: "phone"},
	{Header: "Role", Field: "role"},
	{Header: "Gender", Field: "gender"},
}

var taskColumns = []view.Column{
	{Field: "task_id", Header: "ID", Sortable: true},
	{Field: "title", Header: "Title", Searchable: true, Sortable: true},
	{Field: "priority", Header: "Priority", Sortable: true},
	{Field: "status", Header: "Status", Sortable: true},
	{Field: "assigned_to_name", Header: "Assigned To", Searchable: true, Sortable: true},
	{Field: "created_at", Header: "Created", Sortable: true},
}

var taskExport = []view.ExportColumn{
	{Header: "ID", Field: "task_id"},
	{Header: "Title", Field: "title"},
	{Header: "Description", Field: "description"},
	{Header: "Priority", Field: "priority"},
	{Header: "Status", Field: "status"},
	{Header: "AssignedTo", Field: "assigned_to_name"},
}

var myTaskColumns = []view.Column{
	{Field: "task_id", Header: "ID", Sortable: true},
	{Field: "title", Header: "Title", Searchable: true, Sortable: true},
	{Field: "description", Header: "Description", Searchable: true},
	{Field: "priority", Header: "Priority", Sortable: true},
	{Field: "status", Header: "Status", Sortable: true},
	{Field: "created_at", Header: "Created", Sortable: true},
}

// Tab is one table of the console: its columns, export layout and the view
// state the user asked for.
type Tab struct {
	Name     string
	View     *view.TabularView
	Export   []view.ExportColumn
	FileName string
	State    view.State
}

func newTabs(pageSize int) map[string]*Tab {
	return map[string]*Tab{
		TabUsers: {
			Name: TabUsers, View: view.New(userColumns), Export: userExport,
			FileName: "users.csv", State: view.NewState(pageSize),
		},
		TabTasks: {
			Name: TabTasks, View: view.New(taskColumns), Export: taskExport,
			FileName: "tasks.csv", State: view.NewState(pageSize),
		},
		TabMyTasks: {
			Name: TabMyTasks, View: view.New(myTaskColumns), Export: taskExport,
			FileName: "my_tasks.csv", State: view.NewState(pageSize),
		},
	}
}

// tableOptions are the flags shared by table commands.
type tableOptions struct {
	search   string
	sort     string
	desc     bool
	page     int
	pageSize int
	offline  bool
}

func (o *tableOptions) bind(fs *pflag.FlagSet, defaultPageSize int) {
	fs.StringVarP(&o.search, "search", "s", "", "show rows containing this text")
	fs.StringVar(&o.sort, "sort", "", "sort by this field")
	fs.BoolVar(&o.desc, "desc", false, "sort descending")
	fs.IntVarP(&o.page, "page", "p", 1, "page to show")
	fs.IntVar(&o.pageSize, "page-size", defaultPageSize, "rows per page")
	fs.BoolVar(&o.offline, "offline", false, "use the last saved snapshot instead of the server")
}

func (o *tableOptions) state() view.State {
	qb := view.NewQueryBuilder().Search(o.search)
	if o.sort != "" {
		if o.desc {
			qb.OrderByDesc(o.sort)
		} else {
			qb.OrderByAsc(o.sort)
		}
	}
	return qb.Page(o.page, o.pageSize).Build()
}

var errNoSnapshot = errors.New("no offline snapshot")

// records returns the rows for tab, from the server or from the local
// snapshot. Fetched rows replace the snapshot.
func (a *App) records(ctx context.Context, tab string, offline bool) ([]core.Record, error) {
	if offline {
		store, err := a.snapshots(ctx)
		if err != nil {
			return nil, err
		}
		snap, err := store.LoadSnapshot(ctx, tab)
		if err != nil {
			return nil, err
		}
		if snap.Empty() {
			return nil, fmt.Errorf("%w for %s; run without --offline first", errNoSnapshot, tab)
		}
		a.notify.Info("Offline snapshot from %s", snap.TakenAt.Local().Format(time.DateTime))
		return snap.Records, nil
	}

	c, err := a.client()
	if err != nil {
		return nil, err
	}

	var records []core.Record
	switch tab {
	case TabUsers:
		users, err := c.ListUsers(ctx)
		if err != nil {
			return nil, err
		}
		records, err = client.Records(users)
		if err != nil {
			return nil, err
		}
	case TabTasks:
		tasks, err := c.ListTasks(ctx)
		if err != nil {
			return nil, err
		}
		users, err := c.ListUsers(ctx)
		if err != nil {
			return nil, err
		}
		records, err = client.Records(client.EnrichTasks(tasks, users))
		if err != nil {
			return nil, err
		}
	case TabMyTasks:
		tasks, err := c.MyTasks(ctx)
		if err != nil {
			return nil, err
		}
		records, err = client.Records(tasks)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown table %q", tab)
	}

	a.saveSnapshot(ctx, tab, records)
	return records, nil
}

func (a *App) saveSnapshot(ctx context.Context, tab string, records []core.Record) {
	store, err := a.snapshots(ctx)
	if err == nil {
		err = store.SaveSnapshot(ctx, tab, records)
	}
	if err != nil {
		a.logger.Warn("Could not save offline snapshot", zap.String("table", tab), zap.Error(err))
	}
}

func (a *App) showTable(ctx context.Context, tab *Tab, opts *tableOptions) error {
	records, err := a.records(ctx, tab.Name, opts.offline)
	if err != nil {
		return err
	}
	tab.State = opts.state()
	if !tab.State.Sort.IsNone() && !tab.View.Sortable(tab.State.Sort.Field) {
		a.notify.Info("Column %q is not sortable; showing unsorted", tab.State.Sort.Field)
	}

	result, err := tab.View.Apply(records, tab.State)
	if err != nil {
		return err
	}
	a.render.Table(tab.View.Columns(), result)
	return nil
}

func (a *App) exportTable(ctx context.Context, tab *Tab, opts *tableOptions, all bool, output string) error {
	records, err := a.records(ctx, tab.Name, opts.offline)
	if err != nil {
		return err
	}
	tab.State = opts.state()

	scope := view.ScopePage
	if all {
		scope = view.ScopeAll
	}
	if output == "" {
		output = tab.FileName
	}

	var path string
	err = a.bus.Track(tab.Name, activity.OpExport, output, func() error {
		content, err := tab.View.Export(records, tab.State, scope, tab.Export)
		if err != nil {
			return err
		}
		path, err = a.exporter.Write(output, content)
		return err
	})
	if errors.Is(err, view.ErrEmptyInput) {
		a.notify.Failure("No data to export")
		return nil
	}
	if err != nil {
		return err
	}
	a.notify.Success("Exported to %s", path)
	return nil
}
