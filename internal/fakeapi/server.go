// Package fakeapi serves an in-memory copy of the task backend's REST API for
// tests.
package fakeapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "session"

// User is a stored account. Password is hashed by AddUser and never kept in
// the clear.
type User struct {
	ID        int64     `json:"user_id"`
	Fullname  string    `json:"fullname"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	hash      []byte
	Phone     *string   `json:"phone"`
	Gender    string    `json:"gender"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"-"`
}

// Task is a stored task.
type Task struct {
	ID          int64     `json:"task_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	AssignedTo  int64     `json:"assigned_to"`
	CreatedAt   time.Time `json:"-"`
}

// Server is a running fake backend.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	users    []User
	tasks    []Task
	sessions map[string]int64
	nextUser int64
	nextTask int64
	logger   *zap.Logger
}

// New starts a fake backend seeded with an admin (admin/admin123) and a
// regular user (demo/demo123).
func New(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		sessions: make(map[string]int64),
		logger:   logger,
	}
	s.AddUser(User{Fullname: "System Admin", Username: "admin", Email: "admin@example.com", Password: "admin123", Gender: "Other", Role: "admin"})
	s.AddUser(User{Fullname: "Demo User", Username: "demo", Email: "demo@example.com", Password: "demo123", Gender: "Female", Role: "user"})
	s.Server = httptest.NewServer(s.router())
	return s
}

// AddUser stores u and returns its id.
func (s *Server) AddUser(u User) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUser++
	u.ID = s.nextUser
	if u.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.MinCost)
		if err != nil {
			s.logger.Error("hash password", zap.String("username", u.Username), zap.Error(err))
		}
		u.hash, u.Password = hash, ""
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users = append(s.users, u)
	return u.ID
}

// AddTask stores t and returns its id.
func (s *Server) AddTask(t Task) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTask++
	t.ID = s.nextTask
	if t.Status == "" {
		t.Status = "Pending"
	}
	if t.Priority == "" {
		t.Priority = "Medium"
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	s.tasks = append(s.tasks, t)
	return t.ID
}

// Users returns a copy of the stored users.
func (s *Server) Users() []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]User(nil), s.users...)
}

// Tasks returns a copy of the stored tasks.
func (s *Server) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Task(nil), s.tasks...)
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/logout", s.handleLogout).Methods(http.MethodPost)
	r.HandleFunc("/api/get_users", s.handleGetUsers).Methods(http.MethodGet)
	r.HandleFunc("/api/add_user", s.handleAddUser).Methods(http.MethodPost)
	r.HandleFunc("/api/delete_user/{id:[0-9]+}", s.admin(s.handleDeleteUser)).Methods(http.MethodDelete)
	r.HandleFunc("/api/delete_all_users", s.admin(s.handleDeleteAllUsers)).Methods(http.MethodDelete)
	r.HandleFunc("/api/add_task", s.admin(s.handleAddTask)).Methods(http.MethodPost)
	r.HandleFunc("/api/get_all_tasks", s.admin(s.handleGetAllTasks)).Methods(http.MethodGet)
	r.HandleFunc("/api/my_tasks", s.loggedIn(s.handleMyTasks)).Methods(http.MethodGet)
	r.HandleFunc("/api/update_task_status/{id:[0-9]+}", s.loggedIn(s.handleUpdateTaskStatus)).Methods(http.MethodPut)
	r.HandleFunc("/api/delete_task/{id:[0-9]+}", s.admin(s.handleDeleteTask)).Methods(http.MethodDelete)
	return r
}

type authedHandler func(w http.ResponseWriter, r *http.Request, current User)

func (s *Server) current(r *http.Request) (User, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return User{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.sessions[cookie.Value]
	if !ok {
		return User{}, false
	}
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

func (s *Server) loggedIn(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.current(r)
		if !ok {
			s.writeError(w, http.StatusUnauthorized, "Login required")
			return
		}
		next(w, r, u)
	}
}

func (s *Server) admin(next authedHandler) http.HandlerFunc {
	return s.loggedIn(func(w http.ResponseWriter, r *http.Request, u User) {
		if u.Role != "admin" {
			s.writeError(w, http.StatusForbidden, "Access denied")
			return
		}
		next(w, r, u)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UsernameOrEmail string `json:"username_or_email"`
		Password        string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request, JSON body required")
		return
	}
	if req.UsernameOrEmail == "" || req.Password == "" {
		s.writeError(w, http.StatusBadRequest, "Username/email and password are required")
		return
	}

	s.mu.Lock()
	var found *User
	for i := range s.users {
		if s.users[i].Username == req.UsernameOrEmail || s.users[i].Email == req.UsernameOrEmail {
			found = &s.users[i]
			break
		}
	}
	if found == nil {
		s.mu.Unlock()
		s.writeError(w, http.StatusUnauthorized, "Invalid username/email")
		return
	}
	if bcrypt.CompareHashAndPassword(found.hash, []byte(req.Password)) != nil {
		s.mu.Unlock()
		s.writeError(w, http.StatusUnauthorized, "Incorrect password")
		return
	}
	token := uuid.NewString()
	s.sessions[token] = found.ID
	u := *found
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: token, Path: "/", HttpOnly: true})
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user": map[string]any{
			"id":       u.ID,
			"fullname": u.Fullname,
			"username": u.Username,
			"email":    u.Email,
			"phone":    u.Phone,
			"gender":   u.Gender,
			"role":     u.Role,
		},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) handleGetUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]map[string]any, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, map[string]any{
			"user_id":    u.ID,
			"fullname":   u.Fullname,
			"username":   u.Username,
			"email":      u.Email,
			"phone":      u.Phone,
			"gender":     u.Gender,
			"role":       u.Role,
			"created_at": u.CreatedAt.Format("2006-01-02T15:04:05.000000"),
		})
	}
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Fullname string `json:"fullname"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
		Gender   string `json:"gender"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.Fullname = strings.TrimSpace(req.Fullname)
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Fullname == "" || req.Username == "" || req.Email == "" || req.Password == "" {
		s.writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if req.Role == "" {
		req.Role = "user"
	}

	s.mu.Lock()
	for _, u := range s.users {
		if u.Username == req.Username {
			s.mu.Unlock()
			s.writeError(w, http.StatusBadRequest, "Username already exists")
			return
		}
		if u.Email == req.Email {
			s.mu.Unlock()
			s.writeError(w, http.StatusBadRequest, "Email already exists")
			return
		}
	}
	s.mu.Unlock()

	u := User{Fullname: req.Fullname, Username: req.Username, Email: req.Email, Password: req.Password, Gender: req.Gender, Role: req.Role}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		u.Phone = &phone
	}
	s.AddUser(u)
	s.writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request, current User) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if id == current.ID {
		s.writeError(w, http.StatusForbidden, "Cannot delete yourself")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range s.users {
		if u.ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			s.writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
			return
		}
	}
	s.writeError(w, http.StatusNotFound, "User not found")
}

func (s *Server) handleDeleteAllUsers(w http.ResponseWriter, r *http.Request, _ User) {
	s.mu.Lock()
	s.users = nil
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "All users deleted successfully"})
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request, _ User) {
	var req struct {
		Title       string  `json:"title"`
		Description *string `json:"description"`
		Priority    string  `json:"priority"`
		AssignedTo  int64   `json:"assigned_to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Title == "" || req.AssignedTo == 0 {
		s.writeError(w, http.StatusBadRequest, "Title and assigned_to are required")
		return
	}

	s.mu.Lock()
	exists := false
	for _, u := range s.users {
		if u.ID == req.AssignedTo {
			exists = true
			break
		}
	}
	s.mu.Unlock()
	if !exists {
		s.writeError(w, http.StatusNotFound, "Assigned user not found")
		return
	}

	s.AddTask(Task{Title: req.Title, Description: req.Description, Priority: req.Priority, AssignedTo: req.AssignedTo})
	s.writeJSON(w, http.StatusCreated, map[string]string{"message": "Task created successfully"})
}

func taskJSON(t Task, withAssignee bool) map[string]any {
	out := map[string]any{
		"task_id":     t.ID,
		"title":       t.Title,
		"description": t.Description,
		"status":      t.Status,
		"priority":    t.Priority,
		"created_at":  t.CreatedAt.Format("2006-01-02T15:04:05.000000"),
	}
	if withAssignee {
		out["assigned_to"] = t.AssignedTo
	}
	return out
}

func (s *Server) handleGetAllTasks(w http.ResponseWriter, r *http.Request, _ User) {
	s.mu.Lock()
	out := make([]map[string]any, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, taskJSON(t, true))
	}
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, map[string]any{"tasks": out})
}

func (s *Server) handleMyTasks(w http.ResponseWriter, r *http.Request, current User) {
	s.mu.Lock()
	out := make([]map[string]any, 0)
	for _, t := range s.tasks {
		if t.AssignedTo == current.ID {
			out = append(out, taskJSON(t, false))
		}
	}
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, map[string]any{"tasks": out})
}

func (s *Server) handleUpdateTaskStatus(w http.ResponseWriter, r *http.Request, current User) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	var req struct {
		Status string `json:"status"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	switch req.Status {
	case "Pending", "In Progress", "Completed":
	default:
		s.writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID != id {
			continue
		}
		if s.tasks[i].AssignedTo != current.ID {
			s.writeError(w, http.StatusForbidden, "Unauthorized")
			return
		}
		s.tasks[i].Status = req.Status
		s.writeJSON(w, http.StatusOK, map[string]string{"message": "Task status updated"})
		return
	}
	s.writeError(w, http.StatusNotFound, "Task not found")
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request, _ User) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			s.writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
			return
		}
	}
	s.writeError(w, http.StatusNotFound, "Task not found")
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSON(w, statusCode, map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}
