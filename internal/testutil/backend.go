// Package testutil provides testing utilities.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"taskdeck/internal/service"
)

// DefaultPageSize is the backend page size when the request has no page_size.
const DefaultPageSize = 10

var signingKey = []byte("testutil-secret")

// MintToken returns an HS256 JWT with the given exp.
func MintToken(exp time.Time) string {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
		"jti": uuid.NewString(),
	}).SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	return tok
}

type account struct {
	user     service.User
	password string
}

// Backend is an in-memory implementation of the task REST API served over
// httptest. It is single-tenant: every account sees the same tasks.
type Backend struct {
	Server *httptest.Server

	// PageSize overrides DefaultPageSize.
	PageSize int

	// CategoriesPaginated makes GET /categories/ answer with an envelope.
	CategoriesPaginated bool

	// AccessTTL is the lifetime of issued access tokens.
	AccessTTL time.Duration

	mu           sync.Mutex
	accounts     map[string]*account
	access       map[string]string // token -> username
	refresh      map[string]string // token -> username
	tasks        []service.Task    // creation order
	categories   []service.Category
	nextTaskID   int
	nextCatID    int
	nextUserID   int
	refreshCalls int
	requests     []string
	failures     map[string]int // "METHOD /path" -> status, consumed once
}

// NewBackend starts a backend and stops it when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		AccessTTL:  5 * time.Minute,
		accounts:   make(map[string]*account),
		access:     make(map[string]string),
		refresh:    make(map[string]string),
		failures:   make(map[string]int),
		nextTaskID: 1,
		nextCatID:  1,
		nextUserID: 1,
	}
	b.Server = httptest.NewServer(b.router())
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the API base URL.
func (b *Backend) URL() string {
	return b.Server.URL + "/api"
}

// AddUser registers an account directly.
func (b *Backend) AddUser(username, password string) service.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(username, "", password)
}

func (b *Backend) addUserLocked(username, email, password string) service.User {
	u := service.User{
		ID:         b.nextUserID,
		Username:   username,
		Email:      email,
		DateJoined: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	b.nextUserID++
	b.accounts[username] = &account{user: u, password: password}
	return u
}

// IssueTokens returns a fresh token pair for username.
func (b *Backend) IssueTokens(username string) (access, refresh string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issueLocked(username)
}

func (b *Backend) issueLocked(username string) (string, string) {
	access := MintToken(time.Now().Add(b.AccessTTL))
	refresh := MintToken(time.Now().Add(24 * time.Hour))
	b.access[access] = username
	b.refresh[refresh] = username
	return access, refresh
}

// RevokeAccess makes the server reject access while it still looks valid locally.
func (b *Backend) RevokeAccess(access string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.access, access)
}

// RevokeRefresh makes the next refresh exchange with token fail.
func (b *Backend) RevokeRefresh(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.refresh, token)
}

// RevokeAllAccess rejects every issued access token.
func (b *Backend) RevokeAllAccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.access = make(map[string]string)
}

// AddTask stores t, assigning an id.
func (b *Backend) AddTask(t service.Task) service.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	t.ID = b.nextTaskID
	b.nextTaskID++
	b.tasks = append(b.tasks, t)
	return t
}

// AddCategory stores a category.
func (b *Backend) AddCategory(name string) service.Category {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := service.Category{ID: b.nextCatID, Name: name}
	b.nextCatID++
	b.categories = append(b.categories, c)
	return c
}

// Tasks returns a copy of all stored tasks in creation order.
func (b *Backend) Tasks() []service.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]service.Task(nil), b.tasks...)
}

// User returns the stored profile of username.
func (b *Backend) User(username string) (service.User, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[username]
	if !ok {
		return service.User{}, false
	}
	return a.user, true
}

// RefreshCalls returns how many refresh exchanges were attempted.
func (b *Backend) RefreshCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshCalls
}

// Requests returns "METHOD /path" for every request seen, in order.
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

// CountRequests returns how many requests matched "METHOD /path".
func (b *Backend) CountRequests(methodPath string) int {
	n := 0
	for _, r := range b.Requests() {
		if r == methodPath {
			n++
		}
	}
	return n
}

// FailOnce makes the next request to method+path answer with status.
func (b *Backend) FailOnce(method, path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = status
}

func (b *Backend) router() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(b.record)

	api.Methods("POST").Path("/token/").HandlerFunc(b.handleLogin)
	api.Methods("POST").Path("/token/refresh/").HandlerFunc(b.handleRefresh)
	api.Methods("POST").Path("/user/register/").HandlerFunc(b.handleRegister)

	authed := api.NewRoute().Subrouter()
	authed.Use(b.authenticate)
	authed.Methods("GET").Path("/user/me/").HandlerFunc(b.handleMe)
	authed.Methods("PATCH").Path("/user/me/").HandlerFunc(b.handlePatchMe)
	authed.Methods("DELETE").Path("/user/me/").HandlerFunc(b.handleDeleteMe)
	authed.Methods("GET").Path("/tasks/").HandlerFunc(b.handleListTasks)
	authed.Methods("POST").Path("/tasks/").HandlerFunc(b.handleCreateTask)
	authed.Methods("GET").Path("/tasks/{id:[0-9]+}/").HandlerFunc(b.handleGetTask)
	authed.Methods("PUT", "PATCH").Path("/tasks/{id:[0-9]+}/").HandlerFunc(b.handleUpdateTask)
	authed.Methods("DELETE").Path("/tasks/{id:[0-9]+}/").HandlerFunc(b.handleDeleteTask)
	authed.Methods("GET").Path("/categories/").HandlerFunc(b.handleListCategories)
	authed.Methods("POST").Path("/categories/").HandlerFunc(b.handleCreateCategory)

	return r
}

type userKey struct{}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		b.requests = append(b.requests, key)
		status, fail := b.failures[key]
		delete(b.failures, key)
		b.mu.Unlock()

		if fail {
			writeJSON(w, status, map[string]string{"detail": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		b.mu.Lock()
		username, ok := b.access[token]
		b.mu.Unlock()
		if token == "" || !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid for any token type"})
			return
		}
		r.Header.Set("X-Test-User", username)
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds service.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[creds.Username]
	if !ok || a.password != creds.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
		return
	}
	access, refresh := b.issueLocked(creds.Username)
	writeJSON(w, http.StatusOK, service.TokenPair{Access: access, Refresh: refresh})
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Refresh string `json:"refresh"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshCalls++
	username, ok := b.refresh[body.Refresh]
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
		return
	}
	access := MintToken(time.Now().Add(b.AccessTTL))
	b.access[access] = username
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg service.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.accounts[reg.Username]; exists {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"A user with that username already exists."}})
		return
	}
	u := b.addUserLocked(reg.Username, reg.Email, reg.Password)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"id": u.ID, "username": u.Username, "email": u.Email})
}

func (b *Backend) handleMe(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[r.Header.Get("X-Test-User")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	writeJSON(w, http.StatusOK, a.user)
}

func (b *Backend) handlePatchMe(w http.ResponseWriter, r *http.Request) {
	var upd map[string]string
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[r.Header.Get("X-Test-User")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	if v, ok := upd["first_name"]; ok {
		a.user.FirstName = v
	}
	if v, ok := upd["last_name"]; ok {
		a.user.LastName = v
	}
	if v, ok := upd["email"]; ok {
		a.user.Email = v
	}
	writeJSON(w, http.StatusOK, a.user)
}

func (b *Backend) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	username := r.Header.Get("X-Test-User")
	delete(b.accounts, username)
	for tok, u := range b.access {
		if u == username {
			delete(b.access, tok)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	b.mu.Lock()
	var matched []service.Task
	// Newest first.
	for i := len(b.tasks) - 1; i >= 0; i-- {
		t := b.tasks[i]
		if c := q.Get("completed"); c != "" && strconv.FormatBool(t.Completed) != c {
			continue
		}
		if c := q.Get("category"); c != "" && strconv.Itoa(t.CategoryID()) != c {
			continue
		}
		if s := strings.ToLower(q.Get("search")); s != "" &&
			!strings.Contains(strings.ToLower(t.Title), s) &&
			!strings.Contains(strings.ToLower(t.Description), s) {
			continue
		}
		matched = append(matched, t)
	}
	pageSize := b.PageSize
	b.mu.Unlock()

	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if n, err := strconv.Atoi(q.Get("page_size")); err == nil && n > 0 {
		pageSize = n
	}
	page := 1
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		page = n
	}

	start := (page - 1) * pageSize
	if start > 0 && start >= len(matched) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Invalid page."})
		return
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}

	resp := service.Page[service.Task]{Count: len(matched), Results: matched[start:end]}
	if resp.Results == nil {
		resp.Results = []service.Task{}
	}
	if end < len(matched) {
		resp.Next = b.pageLink(r, page+1)
	}
	if page > 1 {
		resp.Previous = b.pageLink(r, page-1)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (b *Backend) pageLink(r *http.Request, page int) *string {
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page))
	link := b.Server.URL + r.URL.Path + "?" + q.Encode()
	return &link
}

func (b *Backend) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in service.TaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"title": {"This field may not be blank."}})
		return
	}
	t := service.Task{
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Category:    in.Category,
	}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
	writeJSON(w, http.StatusCreated, b.AddTask(t))
}

func (b *Backend) findTask(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	for i, t := range b.tasks {
		if t.ID == id {
			return i, true
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	return 0, false
}

func (b *Backend) handleGetTask(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i, ok := b.findTask(w, r); ok {
		writeJSON(w, http.StatusOK, b.tasks[i])
	}
}

func (b *Backend) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	i, ok := b.findTask(w, r)
	if !ok {
		return
	}
	t := b.tasks[i]
	// A PUT carries every editable field; PATCH only some. Both decode the
	// fields present onto the stored task.
	data, _ := json.Marshal(fields)
	if err := json.Unmarshal(data, &t); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	t.ID = b.tasks[i].ID
	b.tasks[i] = t
	writeJSON(w, http.StatusOK, t)
}

func (b *Backend) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, ok := b.findTask(w, r)
	if !ok {
		return
	}
	b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) handleListCategories(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	cats := append([]service.Category(nil), b.categories...)
	paginated := b.CategoriesPaginated
	b.mu.Unlock()

	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	if cats == nil {
		cats = []service.Category{}
	}
	if !paginated {
		writeJSON(w, http.StatusOK, cats)
		return
	}

	// Two categories per page so that clients have to follow next.
	const size = 2
	page := 1
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && n > 0 {
		page = n
	}
	start := (page - 1) * size
	if start > len(cats) {
		start = len(cats)
	}
	end := start + size
	if end > len(cats) {
		end = len(cats)
	}
	resp := service.Page[service.Category]{Count: len(cats), Results: cats[start:end]}
	if end < len(cats) {
		resp.Next = b.pageLink(r, page+1)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (b *Backend) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in service.Category
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.Name) == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"name": {"This field may not be blank."}})
		return
	}
	b.mu.Lock()
	for _, c := range b.categories {
		if c.Name == in.Name {
			b.mu.Unlock()
			writeJSON(w, http.StatusBadRequest, map[string][]string{"name": {"category with this name already exists."}})
			return
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, b.AddCategory(in.Name))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(fmt.Sprintf("testutil: encode response: %v", err))
	}
}

// ParseURL is a small helper for tests asserting on pagination links.
func ParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid url %q: %v", raw, err)
	}
	return u
}
