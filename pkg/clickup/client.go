// Package clickup provides a client for the ClickUp REST API v2, limited to
// the list, task, custom-field and comment endpoints a CRM list needs.
package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/reconcile-cli/internal/resilience"
)

const defaultBaseURL = "https://api.clickup.com/api/v2"

// Client defines the ClickUp operations used by this application.
type Client interface {
	// ListTasks returns one page of tasks in a list.
	ListTasks(ctx context.Context, listID string, opts ListTasksOptions) ([]Task, error)
	// ListFields returns the custom fields accessible in a list.
	ListFields(ctx context.Context, listID string) ([]Field, error)
	// TaskComments returns the comments on a task.
	TaskComments(ctx context.Context, taskID string) ([]Comment, error)
	// SetCustomField sets one custom field value on a task.
	SetCustomField(ctx context.Context, taskID, fieldID string, value any) error
	// SetCustomType sets the task's custom task type.
	SetCustomType(ctx context.Context, taskID string, customType any) error
}

// ListTasksOptions filters a task page.
type ListTasksOptions struct {
	Page     int
	Statuses []string
	OrderBy  string
	Subtasks bool
}

// Option configures the ClickUp client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL. Empty keeps the default.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default rate limit (1.5 req/s). Zero or
// negative disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithRetry sets the retry policy for read requests. Writes are attempted
// once; callers that want write retries wrap them.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a ClickUp client authenticated with a personal API token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(1.5, 1),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("clickup", "read")
	}
	return c
}

func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *httpClient) ListTasks(ctx context.Context, listID string, opts ListTasksOptions) ([]Task, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(opts.Page))
	orderBy := opts.OrderBy
	if orderBy == "" {
		orderBy = "created"
	}
	q.Set("order_by", orderBy)
	q.Set("subtasks", strconv.FormatBool(opts.Subtasks))
	for _, s := range opts.Statuses {
		q.Add("statuses[]", s)
	}

	var resp tasksResponse
	if err := c.get(ctx, "/list/"+url.PathEscape(listID)+"/task", q, &resp); err != nil {
		return nil, eris.Wrapf(err, "clickup: list tasks page %d", opts.Page)
	}
	return resp.Tasks, nil
}

func (c *httpClient) ListFields(ctx context.Context, listID string) ([]Field, error) {
	var resp fieldsResponse
	if err := c.get(ctx, "/list/"+url.PathEscape(listID)+"/field", nil, &resp); err != nil {
		return nil, eris.Wrap(err, "clickup: list fields")
	}
	return resp.Fields, nil
}

func (c *httpClient) TaskComments(ctx context.Context, taskID string) ([]Comment, error) {
	var resp commentsResponse
	if err := c.get(ctx, "/task/"+url.PathEscape(taskID)+"/comment", nil, &resp); err != nil {
		return nil, eris.Wrapf(err, "clickup: comments for task %s", taskID)
	}
	return resp.Comments, nil
}

func (c *httpClient) SetCustomField(ctx context.Context, taskID, fieldID string, value any) error {
	path := fmt.Sprintf("/task/%s/field/%s", url.PathEscape(taskID), url.PathEscape(fieldID))
	if _, err := c.send(ctx, http.MethodPost, path, nil, map[string]any{"value": value}); err != nil {
		return eris.Wrapf(err, "clickup: set field %s on task %s", fieldID, taskID)
	}
	return nil
}

func (c *httpClient) SetCustomType(ctx context.Context, taskID string, customType any) error {
	path := "/task/" + url.PathEscape(taskID)
	if _, err := c.send(ctx, http.MethodPut, path, nil, map[string]any{"custom_type": customType}); err != nil {
		return eris.Wrapf(err, "clickup: set custom type on task %s", taskID)
	}
	return nil
}

// get issues a GET with retry and decodes the JSON body into out.
func (c *httpClient) get(ctx context.Context, path string, q url.Values, out any) error {
	data, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return c.send(ctx, http.MethodGet, path, q, nil)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}

// send performs a single rate-limited request and returns the body of a 2xx
// response. Non-2xx responses become resilience.StatusError values.
func (c *httpClient) send(ctx context.Context, method, path string, q url.Values, body any) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "rate limit")
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, eris.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		zap.L().Debug("clickup: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, resilience.StatusError("clickup", resp.StatusCode, data, resp.Header)
	}
	return data, nil
}
