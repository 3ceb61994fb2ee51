package apiclient_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskdeck/internal/apiclient"
	"taskdeck/internal/config"
	"taskdeck/internal/errs"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
	"taskdeck/internal/testutil"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{Settings: config.Settings{
		BaseURL:         baseURL,
		PageSize:        10,
		Timeout:         5 * time.Second,
		BreakerFailures: 3,
		BreakerCooldown: time.Minute,
	}}
}

func loggedIn(t *testing.T, b *testutil.Backend) *session.Session {
	t.Helper()
	b.AddUser("alice", "password1")
	access, refresh := b.IssueTokens("alice")
	sess := session.New()
	require.NoError(t, sess.Login(access, refresh))
	return sess
}

// capture records the headers of every request leaving the chain.
type capture struct {
	mu      sync.Mutex
	headers []http.Header
}

func (c *capture) RoundTrip(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	c.headers = append(c.headers, req.Header.Clone())
	c.mu.Unlock()
	return http.DefaultTransport.RoundTrip(req)
}

func TestClient_AttachesBearerAndRequestID(t *testing.T) {
	b := testutil.NewBackend(t)
	sess := loggedIn(t, b)
	b.AddTask(service.Task{Title: "Buy milk"})

	var c capture
	client := apiclient.New(testConfig(b.URL()), sess, zap.NewNop(), apiclient.WithTransport(&c))

	page, err := client.ListTasks(context.Background(), service.TaskQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Buy milk", page.Results[0].Title)

	require.Len(t, c.headers, 1)
	assert.Equal(t, "Bearer "+sess.AccessToken(), c.headers[0].Get("Authorization"))
	_, err = uuid.Parse(c.headers[0].Get(apiclient.RequestIDHeader))
	assert.NoError(t, err)
}

func TestClient_TransparentRefresh(t *testing.T) {
	b := testutil.NewBackend(t)
	sess := loggedIn(t, b)
	stale := sess.AccessToken()
	b.RevokeAccess(stale)
	b.AddTask(service.Task{Title: "Water plants"})

	client := apiclient.New(testConfig(b.URL()), sess, zap.NewNop())
	page, err := client.ListTasks(context.Background(), service.TaskQuery{Page: 1})
	require.NoError(t, err)
	assert.Len(t, page.Results, 1)

	assert.Equal(t, 1, b.RefreshCalls())
	assert.NotEqual(t, stale, sess.AccessToken())
	assert.Equal(t, []string{
		"GET /api/tasks/",
		"POST /api/token/refresh/",
		"GET /api/tasks/",
	}, b.Requests())
}

func TestClient_RefreshFailureClearsSession(t *testing.T) {
	b := testutil.NewBackend(t)
	sess := loggedIn(t, b)
	b.RevokeAccess(sess.AccessToken())
	b.RevokeRefresh(sess.RefreshToken())

	loggedOut := 0
	client := apiclient.New(testConfig(b.URL()), sess, zap.NewNop(),
		apiclient.WithLogoutHook(func() { loggedOut++ }))

	_, err := client.Me(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrSessionExpired)
	assert.True(t, errs.IsAuth(err))
	assert.Equal(t, 1, loggedOut)
	assert.False(t, sess.Present())
	assert.Equal(t, 1, b.RefreshCalls())
}

// roundTripFunc adapts a function to http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func TestClient_CancelledRefreshKeepsSession(t *testing.T) {
	b := testutil.NewBackend(t)
	sess := loggedIn(t, b)
	access, refresh := sess.AccessToken(), sess.RefreshToken()
	b.RevokeAccess(access)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	interrupt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, "/token/refresh/") {
			cancel()
			return nil, req.Context().Err()
		}
		return http.DefaultTransport.RoundTrip(req)
	})

	loggedOut := 0
	client := apiclient.New(testConfig(b.URL()), sess, zap.NewNop(),
		apiclient.WithTransport(interrupt),
		apiclient.WithLogoutHook(func() { loggedOut++ }))

	_, err := client.Me(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, errs.ErrSessionExpired)
	assert.Equal(t, 0, loggedOut)
	assert.True(t, sess.Present())
	assert.Equal(t, access, sess.AccessToken())
	assert.Equal(t, refresh, sess.RefreshToken())
}

func TestClient_TokenEndpoint401DoesNotRefresh(t *testing.T) {
	b := testutil.NewBackend(t)
	sess := loggedIn(t, b)

	client := apiclient.New(testConfig(b.URL()), sess, zap.NewNop())
	_, err := client.Login(context.Background(), service.Credentials{Username: "alice", Password: "wrong"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.Contains(t, err.Error(), "No active account found")
	assert.Equal(t, 0, b.RefreshCalls())
	assert.True(t, sess.Present())
}

func TestClient_NoRefreshTokenReturnsUnauthorized(t *testing.T) {
	b := testutil.NewBackend(t)

	client := apiclient.New(testConfig(b.URL()), session.New(), zap.NewNop())
	_, err := client.ListTasks(context.Background(), service.TaskQuery{Page: 1})
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.Equal(t, 0, b.RefreshCalls())
}

func TestClient_RetriesAtMostOnce(t *testing.T) {
	var taskCalls, refreshCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/token/refresh/":
			atomic.AddInt32(&refreshCalls, 1)
			json.NewEncoder(w).Encode(map[string]string{"access": "fresh"})
		default:
			atomic.AddInt32(&taskCalls, 1)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"nope"}`))
		}
	}))
	defer srv.Close()

	sess := session.New()
	require.NoError(t, sess.Login("stale", "refresh"))

	client := apiclient.New(testConfig(srv.URL+"/api"), sess, zap.NewNop())
	_, err := client.ListTasks(context.Background(), service.TaskQuery{Page: 1})
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&taskCalls))
	assert.Equal(t, "fresh", sess.AccessToken())
	assert.Equal(t, "refresh", sess.RefreshToken())
}

func TestClient_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	const n = 5
	var refreshCalls int32
	var arrived sync.WaitGroup
	arrived.Add(n)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/token/refresh/" {
			atomic.AddInt32(&refreshCalls, 1)
			json.NewEncoder(w).Encode(map[string]string{"access": "fresh"})
			return
		}
		if r.Header.Get("Authorization") == "Bearer stale" {
			arrived.Done()
			arrived.Wait()
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"count":0,"next":null,"previous":null,"results":[]}`))
	}))
	defer srv.Close()

	sess := session.New()
	require.NoError(t, sess.Login("stale", "refresh"))
	client := apiclient.New(testConfig(srv.URL+"/api"), sess, zap.NewNop())

	var wg sync.WaitGroup
	errc := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.ListTasks(context.Background(), service.TaskQuery{Page: 1})
			errc <- err
		}()
	}
	wg.Wait()
	close(errc)

	for err := range errc {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
}

func TestClient_BreakerOpensAfterServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := apiclient.New(testConfig(srv.URL+"/api"), session.New(), zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := client.ListCategories(ctx)
		var apiErr *apiclient.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	}

	_, err := client.ListCategories(ctx)
	assert.ErrorIs(t, err, errs.ErrBackendUnavailable)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestClient_ListCategories(t *testing.T) {
	for _, paginated := range []bool{false, true} {
		name := "plain list"
		if paginated {
			name = "paginated envelope"
		}
		t.Run(name, func(t *testing.T) {
			b := testutil.NewBackend(t)
			b.CategoriesPaginated = paginated
			sess := loggedIn(t, b)
			for _, n := range []string{"Work", "Home", "Errands", "Books", "Garden"} {
				b.AddCategory(n)
			}

			client := apiclient.New(testConfig(b.URL()), sess, zap.NewNop())
			cats, err := client.ListCategories(context.Background())
			require.NoError(t, err)

			var names []string
			for _, c := range cats {
				names = append(names, c.Name)
			}
			assert.Equal(t, []string{"Books", "Errands", "Garden", "Home", "Work"}, names)
		})
	}
}

func TestClient_ListCategoriesStopsAtPageCap(t *testing.T) {
	sess := loggedIn(t, testutil.NewBackend(t))

	var calls int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"count":    1000,
			"next":     fmt.Sprintf("%s/categories/?page=%d", srv.URL, n+1),
			"previous": nil,
			"results":  []map[string]interface{}{{"id": n, "name": fmt.Sprintf("c%d", n)}},
		})
	}))
	defer srv.Close()

	client := apiclient.New(testConfig(srv.URL), sess, zap.NewNop())
	cats, err := client.ListCategories(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 50 pages")
	assert.Nil(t, cats)
	assert.Equal(t, int32(50), atomic.LoadInt32(&calls))
}

func TestClient_TaskLifecycle(t *testing.T) {
	b := testutil.NewBackend(t)
	sess := loggedIn(t, b)
	cat := b.AddCategory("Work")
	client := apiclient.New(testConfig(b.URL()), sess, zap.NewNop())
	ctx := context.Background()

	due, err := service.ParseDate("2026-03-01")
	require.NoError(t, err)
	catID := cat.ID

	created, err := client.CreateTask(ctx, service.TaskInput{Title: "Report", DueDate: due, Category: &catID})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "2026-03-01", created.DueDate.String())

	toggled, err := client.SetTaskCompleted(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	done := true
	edited, err := client.UpdateTask(ctx, created.ID, service.TaskInput{Title: "Final report", Completed: &done})
	require.NoError(t, err)
	assert.Equal(t, "Final report", edited.Title)
	assert.True(t, edited.Completed)
	assert.Zero(t, edited.CategoryID())
	assert.True(t, edited.DueDate.IsZero())

	page, err := client.ListTasks(ctx, service.TaskQuery{Page: 1, Filter: service.Completed})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)

	page, err = client.ListTasks(ctx, service.TaskQuery{Page: 1, Filter: service.Pending})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Count)
	assert.NotNil(t, page.Results)

	require.NoError(t, client.DeleteTask(ctx, created.ID))
	_, err = client.GetTask(ctx, created.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestClient_ListTasksQuery(t *testing.T) {
	b := testutil.NewBackend(t)
	sess := loggedIn(t, b)
	work := b.AddCategory("Work")
	workID := work.ID
	b.AddTask(service.Task{Title: "Write report", Category: &workID})
	b.AddTask(service.Task{Title: "Read report"})
	b.AddTask(service.Task{Title: "Groceries", Description: "milk", Category: &workID})

	client := apiclient.New(testConfig(b.URL()), sess, zap.NewNop())
	page, err := client.ListTasks(context.Background(), service.TaskQuery{
		Page:     1,
		PageSize: 10,
		Search:   "report",
		Category: workID,
	})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Write report", page.Results[0].Title)
}

func TestClient_Pagination(t *testing.T) {
	b := testutil.NewBackend(t)
	sess := loggedIn(t, b)
	for i := 0; i < 12; i++ {
		b.AddTask(service.Task{Title: "task"})
	}

	client := apiclient.New(testConfig(b.URL()), sess, zap.NewNop())
	first, err := client.ListTasks(context.Background(), service.TaskQuery{Page: 1, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 12, first.Count)
	assert.True(t, first.HasNext())
	assert.False(t, first.HasPrevious())
	assert.Equal(t, "2", testutil.ParseURL(t, *first.Next).Query().Get("page"))

	last, err := client.ListTasks(context.Background(), service.TaskQuery{Page: 3, PageSize: 5})
	require.NoError(t, err)
	assert.Len(t, last.Results, 2)
	assert.False(t, last.HasNext())
	assert.True(t, last.HasPrevious())
}

func TestClient_RegisterDuplicate(t *testing.T) {
	b := testutil.NewBackend(t)
	b.AddUser("alice", "password1")

	client := apiclient.New(testConfig(b.URL()), session.New(), zap.NewNop())
	err := client.Register(context.Background(), service.Registration{Username: "alice", Email: "a@b.c", Password: "password1"})
	assert.ErrorIs(t, err, errs.ErrAlreadyExists)
	assert.True(t, strings.Contains(err.Error(), "username: A user with that username already exists."))
}

func TestClient_ProfileUpdate(t *testing.T) {
	b := testutil.NewBackend(t)
	sess := loggedIn(t, b)
	client := apiclient.New(testConfig(b.URL()), sess, zap.NewNop())

	u, err := client.UpdateMe(context.Background(), service.ProfileUpdate{FirstName: "Alice", LastName: "Liddell", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.FirstName)

	me, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", me.Email)
}
