// Package apiclient implements service.Service over the task REST API.
//
// Requests pass through a transport chain: bearer attachment with one
// refresh-and-replay on 401, a client-side rate limit, a circuit breaker,
// a request id, and debug logging.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"taskdeck/internal/config"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
)

// AllTasksPageSize is the page size used to load the whole task set in one call.
const AllTasksPageSize = 100

// maxCategoryPages bounds how many "next" links ListCategories follows.
const maxCategoryPages = 50

// Client implements service.Service using the REST API.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *zap.Logger
}

var _ service.Service = (*Client)(nil)

// Option customizes a Client.
type Option func(*options)

type options struct {
	base     http.RoundTripper
	onLogout func()
}

// WithTransport replaces http.DefaultTransport at the bottom of the chain.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// WithLogoutHook registers fn to run after a failed refresh cleared the session.
func WithLogoutHook(fn func()) Option {
	return func(o *options) { o.onLogout = fn }
}

// New creates a REST client bound to sess.
func New(cfg *config.Config, sess *session.Session, logger *zap.Logger, opts ...Option) *Client {
	o := options{base: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := cfg.Settings
	baseURL := strings.TrimRight(s.BaseURL, "/")

	var inner http.RoundTripper = o.base
	inner = logged(inner, logger)
	inner = requestID(inner)
	inner = breaker(inner, newBreaker(s.BreakerFailures, s.BreakerCooldown, logger))
	inner = rateLimited(inner, newLimiter(s.RateLimit, s.RateBurst))

	auth := &authTransport{
		next:     inner,
		session:  sess,
		baseURL:  baseURL,
		logger:   logger,
		onLogout: o.onLogout,
	}

	return &Client{
		http:    &http.Client{Transport: auth, Timeout: s.Timeout},
		baseURL: baseURL,
		logger:  logger,
	}
}

// Login implements service.Service.
func (c *Client) Login(ctx context.Context, creds service.Credentials) (service.TokenPair, error) {
	var pair service.TokenPair
	if err := c.do(ctx, http.MethodPost, "/token/", nil, creds, &pair); err != nil {
		return service.TokenPair{}, err
	}
	if pair.Access == "" || pair.Refresh == "" {
		return service.TokenPair{}, fmt.Errorf("login response is missing tokens")
	}
	return pair, nil
}

// Register implements service.Service.
func (c *Client) Register(ctx context.Context, reg service.Registration) error {
	return c.do(ctx, http.MethodPost, "/user/register/", nil, reg, nil)
}

// Me implements service.Service.
func (c *Client) Me(ctx context.Context) (service.User, error) {
	var u service.User
	err := c.do(ctx, http.MethodGet, "/user/me/", nil, nil, &u)
	return u, err
}

// UpdateMe implements service.Service.
func (c *Client) UpdateMe(ctx context.Context, upd service.ProfileUpdate) (service.User, error) {
	var u service.User
	err := c.do(ctx, http.MethodPatch, "/user/me/", nil, upd, &u)
	return u, err
}

// DeleteMe implements service.Service.
func (c *Client) DeleteMe(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/user/me/", nil, nil, nil)
}

// ListTasks implements service.Service.
func (c *Client) ListTasks(ctx context.Context, q service.TaskQuery) (service.Page[service.Task], error) {
	var page service.Page[service.Task]
	err := c.do(ctx, http.MethodGet, "/tasks/", taskParams(q), nil, &page)
	if err != nil {
		return service.Page[service.Task]{}, err
	}
	if page.Results == nil {
		page.Results = []service.Task{}
	}
	return page, nil
}

// taskParams builds the query string for a task list request.
func taskParams(q service.TaskQuery) url.Values {
	v := url.Values{}
	page := q.Page
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	switch q.Filter {
	case service.Completed:
		v.Set("completed", "true")
	case service.Pending:
		v.Set("completed", "false")
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category > 0 {
		v.Set("category", strconv.Itoa(q.Category))
	}
	return v
}

// GetTask implements service.Service.
func (c *Client) GetTask(ctx context.Context, id int) (service.Task, error) {
	var t service.Task
	err := c.do(ctx, http.MethodGet, taskPath(id), nil, nil, &t)
	return t, err
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, in service.TaskInput) (service.Task, error) {
	var t service.Task
	err := c.do(ctx, http.MethodPost, "/tasks/", nil, in, &t)
	return t, err
}

// UpdateTask implements service.Service.
func (c *Client) UpdateTask(ctx context.Context, id int, in service.TaskInput) (service.Task, error) {
	var t service.Task
	err := c.do(ctx, http.MethodPut, taskPath(id), nil, in, &t)
	return t, err
}

// SetTaskCompleted implements service.Service.
func (c *Client) SetTaskCompleted(ctx context.Context, id int, completed bool) (service.Task, error) {
	var t service.Task
	body := map[string]bool{"completed": completed}
	err := c.do(ctx, http.MethodPatch, taskPath(id), nil, body, &t)
	return t, err
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil, nil)
}

func taskPath(id int) string {
	return "/tasks/" + strconv.Itoa(id) + "/"
}

// ListCategories implements service.Service.
// The endpoint answers with either a plain list or a paginated envelope;
// envelopes are followed through their next links.
func (c *Client) ListCategories(ctx context.Context) ([]service.Category, error) {
	var all []service.Category
	next := c.endpoint("/categories/", nil)

	for i := 0; next != ""; i++ {
		if i == maxCategoryPages {
			return nil, fmt.Errorf("categories response exceeds %d pages", maxCategoryPages)
		}
		var raw json.RawMessage
		if err := c.doURL(ctx, http.MethodGet, next, nil, &raw); err != nil {
			return nil, err
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '[' {
			var list []service.Category
			if err := json.Unmarshal(raw, &list); err != nil {
				return nil, fmt.Errorf("invalid categories response: %w", err)
			}
			return append(all, list...), nil
		}

		var page service.Page[service.Category]
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("invalid categories response: %w", err)
		}
		all = append(all, page.Results...)
		next = ""
		if page.HasNext() {
			next = *page.Next
		}
	}
	if all == nil {
		all = []service.Category{}
	}
	return all, nil
}

// CreateCategory implements service.Service.
func (c *Client) CreateCategory(ctx context.Context, name string) (service.Category, error) {
	var cat service.Category
	err := c.do(ctx, http.MethodPost, "/categories/", nil, map[string]string{"name": name}, &cat)
	return cat, err
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	return c.doURL(ctx, method, c.endpoint(path, query), in, out)
}

// doURL sends in as JSON to rawURL and decodes a 2xx body into out.
func (c *Client) doURL(ctx context.Context, method, rawURL string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from %s %s: %w", method, req.URL.Path, err)
	}
	return nil
}

// wrapError turns transport failures into user-facing errors. Sentinels stay
// reachable through errors.Is.
func wrapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}
