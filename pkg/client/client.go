// Package client is a Go client for the taskflow HTTP API.
package client

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
	"sync"
	"time"

	"github.com/BuzzLyutic/taskflow/internal/model"
	"github.com/BuzzLyutic/taskflow/internal/validation"
	"github.com/BuzzLyutic/taskflow/pkg/respond"
)

type (
	Task        = model.Task
	Filter      = model.TaskFilter
	Stats       = model.TaskStats
	DailyTasks  = model.DailyTasks
	User        = model.User
	Session     = model.Session
	CreateInput = validation.CreateTaskRequest
	UpdateInput = validation.UpdateTaskRequest
	SignupInput = model.SignupInput
)

// APIError is a non-2xx response. Message is the server's error text.
type APIError struct {
	StatusCode int
	Message    string
	Fields     []respond.FieldError
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

type Config struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("client: BaseURL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("client: invalid BaseURL %q: %w", cfg.BaseURL, err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		token:      cfg.Token,
	}, nil
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ---- auth

// Login stores the returned session token for subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, model.LoginInput{Email: email, Password: password}, nil, &s)
	if err == nil {
		c.SetToken(s.Token)
	}
	return s, err
}

func (c *Client) Signup(ctx context.Context, in SignupInput) (Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", nil, in, nil, &s)
	if err == nil {
		c.SetToken(s.Token)
	}
	return s, err
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil, nil)
	c.SetToken("")
	return err
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	return u, c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, nil, &u)
}

// ---- tasks

func (c *Client) List(ctx context.Context, f Filter) ([]Task, error) {
	var tasks []Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", filterQuery(f), nil, nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

func (c *Client) Get(ctx context.Context, id string) (Task, error) {
	var t Task
	return t, c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), nil, nil, nil, &t)
}

func (c *Client) Create(ctx context.Context, in CreateInput) (Task, error) {
	return c.CreateIdempotent(ctx, in, "")
}

// CreateIdempotent sends key as Idempotency-Key; repeating a key returns the first task.
func (c *Client) CreateIdempotent(ctx context.Context, in CreateInput, key string) (Task, error) {
	var headers http.Header
	if key != "" {
		headers = http.Header{"Idempotency-Key": []string{key}}
	}
	var t Task
	return t, c.do(ctx, http.MethodPost, "/api/tasks", nil, in, headers, &t)
}

func (c *Client) Update(ctx context.Context, id string, in UpdateInput) (Task, error) {
	var t Task
	return t, c.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(id), nil, in, nil, &t)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil, nil, nil)
}

func (c *Client) ToggleCompletion(ctx context.Context, id string) (Task, error) {
	var t Task
	return t, c.do(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(id)+"/toggle", nil, nil, nil, &t)
}

func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	return s, c.do(ctx, http.MethodGet, "/api/tasks/stats", nil, nil, nil, &s)
}

// ByDate takes a YYYY-MM-DD date; an empty date means today on the server.
func (c *Client) ByDate(ctx context.Context, date string) (DailyTasks, error) {
	var q url.Values
	if date != "" {
		q = url.Values{"date": []string{date}}
	}
	var d DailyTasks
	return d, c.do(ctx, http.MethodGet, "/api/tasks/by-date", q, nil, nil, &d)
}

func (c *Client) Grouped(ctx context.Context) (map[string][]Task, error) {
	var groups map[string][]Task
	return groups, c.do(ctx, http.MethodGet, "/api/tasks/grouped", nil, nil, nil, &groups)
}

func filterQuery(f Filter) url.Values {
	q := url.Values{}
	if f.Completed != nil {
		q.Set("completed", strconv.FormatBool(*f.Completed))
	}
	if len(f.Priorities) > 0 {
		ps := make([]string, len(f.Priorities))
		for i, p := range f.Priorities {
			ps[i] = string(p)
		}
		q.Set("priority", strings.Join(ps, ","))
	}
	for _, c := range f.Categories {
		q.Add("category", c)
	}
	if f.DueFrom != nil {
		q.Set("dueFrom", f.DueFrom.Format(time.RFC3339Nano))
	}
	if f.DueTo != nil {
		q.Set("dueTo", f.DueTo.Format(time.RFC3339Nano))
	}
	for _, t := range f.Tags {
		q.Add("tags", t)
	}
	if f.Sort.Field != "" {
		q.Set("sort", string(f.Sort.Field))
	}
	if f.Sort.Direction != "" {
		q.Set("order", string(f.Sort.Direction))
	}
	return q
}

type envelope struct {
	Success bool                 `json:"success"`
	Data    json.RawMessage      `json:"data"`
	Error   string               `json:"error"`
	Message string               `json:"message"`
	Fields  []respond.FieldError `json:"fields"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, headers http.Header, out any) error {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return fmt.Errorf("client: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("client: read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("client: decode response of %s %s: %w", method, path, err)
	}

	if resp.StatusCode >= 300 || !env.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Error, Fields: env.Fields}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("client: decode data of %s %s: %w", method, path, err)
	}
	return nil
}
