// Package client talks to the task backend's REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/asaidimu/go-tabula/core/activity"
	"github.com/asaidimu/go-tabula/core/session"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single request when no HTTP client is supplied.
const DefaultTimeout = 15 * time.Second

// Client is a backend API client. It holds the session cookies of the
// signed-in user and is safe for concurrent use.
type Client struct {
	base    *url.URL
	http    *http.Client
	jar     *cookiejar.Jar
	bus     *activity.Bus
	logger  *zap.Logger
	cookies []session.Cookie
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Its cookie jar is replaced.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		clone := *hc
		c.http = &clone
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithBus publishes an event for every operation on bus.
func WithBus(bus *activity.Bus) Option {
	return func(c *Client) { c.bus = bus }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCookies restores the cookies of an earlier session.
func WithCookies(cookies []session.Cookie) Option {
	return func(c *Client) { c.cookies = cookies }
}

// New creates a client for the backend at baseURL, which must be an http or
// https URL. Paths such as /api/login are resolved against it.
//
// The client owns a cookie jar that carries the backend's session cookie
// between calls. Cookies returns its contents after Login so they can be
// saved, and WithCookies puts them back in a later process:
//
//	c, err := client.New(cfg.ServerURL,
//	    client.WithTimeout(cfg.RequestTimeout()),
//	    client.WithCookies(saved.Cookies),
//	    client.WithBus(bus),
//	    client.WithLogger(logger),
//	)
//
// Without WithBus the client emits no activity events. Without WithLogger
// it logs nothing.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("could not create cookie jar: %w", err)
	}

	c := &Client{
		base:   base,
		http:   &http.Client{Timeout: DefaultTimeout},
		jar:    jar,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.Jar = jar

	if len(c.cookies) > 0 {
		restored := make([]*http.Cookie, 0, len(c.cookies))
		for _, ck := range c.cookies {
			restored = append(restored, &http.Cookie{Name: ck.Name, Value: ck.Value, Path: "/"})
		}
		jar.SetCookies(c.root(), restored)
		c.cookies = nil
	}
	return c, nil
}

func (c *Client) root() *url.URL {
	return &url.URL{Scheme: c.base.Scheme, Host: c.base.Host, Path: "/"}
}

// Cookies returns the session cookies currently held for the backend.
func (c *Client) Cookies() []session.Cookie {
	var out []session.Cookie
	for _, ck := range c.jar.Cookies(c.root()) {
		out = append(out, session.Cookie{Name: ck.Name, Value: ck.Value})
	}
	return out
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("could not encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("could not build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: could not read response: %w", method, path, err)
	}

	c.logger.Debug("Backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		if eb.Error == "" {
			eb.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: eb.Error}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: could not decode response: %w", method, path, err)
	}
	return nil
}

type loginResponse struct {
	User struct {
		ID       int64  `json:"id"`
		Fullname string `json:"fullname"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	} `json:"user"`
}

// Login signs in with a username or email and returns the new session,
// including the cookies the backend issued.
func (c *Client) Login(ctx context.Context, usernameOrEmail, password string) (*session.Session, error) {
	usernameOrEmail = strings.TrimSpace(usernameOrEmail)
	if usernameOrEmail == "" || password == "" {
		return nil, validationError("username/email and password are required")
	}

	var resp loginResponse
	err := c.bus.Track(activity.CollectionSession, activity.OpLogin, usernameOrEmail, func() error {
		return c.do(ctx, http.MethodPost, "/api/login", map[string]string{
			"username_or_email": usernameOrEmail,
			"password":          password,
		}, &resp)
	})
	if err != nil {
		return nil, err
	}

	return &session.Session{
		UserID:   resp.User.ID,
		Username: resp.User.Username,
		Fullname: resp.User.Fullname,
		Email:    resp.User.Email,
		Role:     session.Role(resp.User.Role),
		Cookies:  c.Cookies(),
	}, nil
}

// Logout ends the backend session.
func (c *Client) Logout(ctx context.Context) error {
	return c.bus.Track(activity.CollectionSession, activity.OpLogout, "", func() error {
		return c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
	})
}

// ListUsers returns every user.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var resp struct {
		Users []User `json:"users"`
	}
	err := c.bus.Track(activity.CollectionUsers, activity.OpRead, "", func() error {
		return c.do(ctx, http.MethodGet, "/api/get_users", nil, &resp)
	})
	if err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// CreateUser registers a new user.
func (c *Client) CreateUser(ctx context.Context, user NewUser) error {
	user, err := user.Normalize()
	if err != nil {
		return err
	}
	return c.bus.Track(activity.CollectionUsers, activity.OpCreate, "user "+user.Username, func() error {
		return c.do(ctx, http.MethodPost, "/api/add_user", user, nil)
	})
}

// DeleteUser removes the user with the given id.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	if id <= 0 {
		return validationError("invalid user id %d", id)
	}
	return c.bus.Track(activity.CollectionUsers, activity.OpDelete, "user "+strconv.FormatInt(id, 10), func() error {
		return c.do(ctx, http.MethodDelete, "/api/delete_user/"+strconv.FormatInt(id, 10), nil, nil)
	})
}

// DeleteAllUsers removes every user.
func (c *Client) DeleteAllUsers(ctx context.Context) error {
	return c.bus.Track(activity.CollectionUsers, activity.OpDeleteAll, "all users", func() error {
		return c.do(ctx, http.MethodDelete, "/api/delete_all_users", nil, nil)
	})
}

// ListTasks returns every task.
func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	return c.listTasks(ctx, "/api/get_all_tasks")
}

// MyTasks returns the tasks assigned to the signed-in user.
func (c *Client) MyTasks(ctx context.Context) ([]Task, error) {
	return c.listTasks(ctx, "/api/my_tasks")
}

func (c *Client) listTasks(ctx context.Context, path string) ([]Task, error) {
	var resp struct {
		Tasks []Task `json:"tasks"`
	}
	err := c.bus.Track(activity.CollectionTasks, activity.OpRead, "", func() error {
		return c.do(ctx, http.MethodGet, path, nil, &resp)
	})
	if err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// CreateTask creates and assigns a task.
func (c *Client) CreateTask(ctx context.Context, task NewTask) error {
	task, err := task.Normalize()
	if err != nil {
		return err
	}
	return c.bus.Track(activity.CollectionTasks, activity.OpCreate, "task "+task.Title, func() error {
		return c.do(ctx, http.MethodPost, "/api/add_task", task, nil)
	})
}

// UpdateTaskStatus sets the status of one of the signed-in user's tasks.
func (c *Client) UpdateTaskStatus(ctx context.Context, id int64, status string) error {
	if id <= 0 {
		return validationError("invalid task id %d", id)
	}
	if !ValidStatus(status) {
		return validationError("invalid status %q", status)
	}
	subject := fmt.Sprintf("task %d to %s", id, status)
	return c.bus.Track(activity.CollectionTasks, activity.OpUpdate, subject, func() error {
		return c.do(ctx, http.MethodPut, "/api/update_task_status/"+strconv.FormatInt(id, 10),
			map[string]string{"status": status}, nil)
	})
}

// DeleteTask removes the task with the given id.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	if id <= 0 {
		return validationError("invalid task id %d", id)
	}
	return c.bus.Track(activity.CollectionTasks, activity.OpDelete, "task "+strconv.FormatInt(id, 10), func() error {
		return c.do(ctx, http.MethodDelete, "/api/delete_task/"+strconv.FormatInt(id, 10), nil, nil)
	})
}
