// Package todoist is a small client for the Todoist REST API covering what
// the daemon reads and writes. The Sync API fills the two gaps REST leaves:
// completed-task history and due writes that keep the recurrence rule.
package todoist

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
	"time"

	"github.com/google/uuid"
	"github.com/marcus/autodoist/internal/models"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the REST v2 endpoint
const DefaultBaseURL = "https://api.todoist.com/rest/v2"

// DefaultSyncURL is the Sync v9 endpoint
const DefaultSyncURL = "https://api.todoist.com/sync/v9"

// completedPageSize is the largest page the completed-tasks endpoint serves
const completedPageSize = 200

// maxCompletedPages bounds one history read
const maxCompletedPages = 10

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
)

// Client is an HTTP client for the Todoist REST API.
type Client struct {
	BaseURL   string
	SyncURL   string
	Token     string
	UserAgent string
	HTTP      *http.Client
	// Limiter paces requests; the service allows roughly 450 per 15 minutes
	Limiter *rate.Limiter
}

// New creates a new client.
func New(token string) *Client {
	return &Client{
		BaseURL:   DefaultBaseURL,
		SyncURL:   DefaultSyncURL,
		Token:     token,
		UserAgent: "autodoist",
		HTTP:      &http.Client{Timeout: 30 * time.Second},
		Limiter:   rate.NewLimiter(rate.Every(2*time.Second), 50),
	}
}

// Label is a personal label.
type Label struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Order int    `json:"order"`
}

// --- Read methods ---

// Projects lists all projects.
func (c *Client) Projects(ctx context.Context) ([]models.Project, error) {
	var resp []models.Project
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &resp); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return resp, nil
}

// Sections lists all sections.
func (c *Client) Sections(ctx context.Context) ([]models.Section, error) {
	var resp []models.Section
	if err := c.do(ctx, http.MethodGet, "/sections", nil, &resp); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return resp, nil
}

// Tasks lists all active tasks.
func (c *Client) Tasks(ctx context.Context) ([]models.Item, error) {
	var resp []models.Item
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &resp); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return resp, nil
}

type completedPage struct {
	Items []struct {
		TaskID    string `json:"task_id"`
		ProjectID string `json:"project_id"`
		SectionID string `json:"section_id"`
		Content   string `json:"content"`
		Item      *struct {
			ParentID   string      `json:"parent_id"`
			ChildOrder int         `json:"child_order"`
			Labels     []string    `json:"labels"`
			Due        *models.Due `json:"due"`
			Checked    bool        `json:"checked"`
			IsDeleted  bool        `json:"is_deleted"`
		} `json:"item_object"`
	} `json:"items"`
}

// CompletedTasks lists tasks completed since the given time that are still
// completed. A task completed more than once is listed once.
func (c *Client) CompletedTasks(ctx context.Context, since time.Time) ([]models.Item, error) {
	var out []models.Item
	seen := make(map[string]bool)
	for page := 0; page < maxCompletedPages; page++ {
		q := url.Values{}
		q.Set("annotate_items", "true")
		q.Set("limit", strconv.Itoa(completedPageSize))
		q.Set("offset", strconv.Itoa(page*completedPageSize))
		q.Set("since", since.UTC().Format("2006-01-02T15:04"))

		var resp completedPage
		if err := c.send(ctx, http.MethodGet, c.SyncURL+"/completed/get_all?"+q.Encode(), nil, &resp); err != nil {
			return nil, fmt.Errorf("list completed tasks: %w", err)
		}
		for _, e := range resp.Items {
			if seen[e.TaskID] || e.Item == nil || e.Item.IsDeleted || !e.Item.Checked {
				continue
			}
			seen[e.TaskID] = true
			out = append(out, models.Item{
				ID:        e.TaskID,
				ParentID:  e.Item.ParentID,
				ProjectID: e.ProjectID,
				SectionID: e.SectionID,
				Content:   e.Content,
				Order:     e.Item.ChildOrder,
				Completed: true,
				Labels:    e.Item.Labels,
				Due:       e.Item.Due,
			})
		}
		if len(resp.Items) < completedPageSize {
			break
		}
	}
	return out, nil
}

// Labels lists all personal labels.
func (c *Client) Labels(ctx context.Context) ([]Label, error) {
	var resp []Label
	if err := c.do(ctx, http.MethodGet, "/labels", nil, &resp); err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	return resp, nil
}

// --- Write methods ---

// CreateLabel creates a personal label.
func (c *Client) CreateLabel(ctx context.Context, name string) (*Label, error) {
	var resp Label
	if err := c.do(ctx, http.MethodPost, "/labels", map[string]string{"name": name}, &resp); err != nil {
		return nil, fmt.Errorf("create label %q: %w", name, err)
	}
	return &resp, nil
}

// UpdateTask writes the task fields carried by u. Reopening is separate.
// Due changes go through the Sync API, which takes the whole due object;
// REST would turn a recurring task into a one-off.
func (c *Client) UpdateTask(ctx context.Context, u models.ItemUpdate) error {
	if !u.NeedsTaskUpdate() {
		return nil
	}
	body := make(map[string]any)
	if u.Content != nil {
		body["content"] = *u.Content
	}
	if u.SetLabels {
		labels := u.Labels
		if labels == nil {
			labels = []string{}
		}
		body["labels"] = labels
	}

	var err error
	if u.Due != nil {
		body["id"] = u.ItemID
		body["due"] = u.Due
		err = c.command(ctx, "item_update", body)
	} else {
		err = c.do(ctx, http.MethodPost, "/tasks/"+u.ItemID, body, nil)
	}
	if err != nil {
		return fmt.Errorf("update task %s: %w", u.ItemID, err)
	}
	return nil
}

// ReopenTask reopens a completed task.
func (c *Client) ReopenTask(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodPost, "/tasks/"+id+"/reopen", nil, nil); err != nil {
		return fmt.Errorf("reopen task %s: %w", id, err)
	}
	return nil
}

// RenameProject sets a project's name.
func (c *Client) RenameProject(ctx context.Context, id, name string) error {
	if err := c.do(ctx, http.MethodPost, "/projects/"+id, map[string]string{"name": name}, nil); err != nil {
		return fmt.Errorf("rename project %s: %w", id, err)
	}
	return nil
}

// RenameSection sets a section's name.
func (c *Client) RenameSection(ctx context.Context, id, name string) error {
	if err := c.do(ctx, http.MethodPost, "/sections/"+id, map[string]string{"name": name}, nil); err != nil {
		return fmt.Errorf("rename section %s: %w", id, err)
	}
	return nil
}

// --- Internal helpers ---

type syncCommand struct {
	Type string         `json:"type"`
	UUID string         `json:"uuid"`
	Args map[string]any `json:"args"`
}

// command runs a single Sync API command and reports its status
func (c *Client) command(ctx context.Context, typ string, args map[string]any) error {
	cmd := syncCommand{Type: typ, UUID: uuid.NewString(), Args: args}
	var resp struct {
		SyncStatus map[string]json.RawMessage `json:"sync_status"`
	}
	body := map[string]any{"commands": []syncCommand{cmd}}
	if err := c.send(ctx, http.MethodPost, c.SyncURL+"/sync", body, &resp); err != nil {
		return err
	}

	status, ok := resp.SyncStatus[cmd.UUID]
	if !ok {
		return fmt.Errorf("%s: no status in response", typ)
	}
	var plain string
	if json.Unmarshal(status, &plain) == nil && plain == "ok" {
		return nil
	}
	var failed struct {
		Code    int    `json:"error_code"`
		Message string `json:"error"`
	}
	if err := json.Unmarshal(status, &failed); err != nil {
		return fmt.Errorf("%s: unexpected status %s", typ, status)
	}
	if strings.Contains(strings.ToLower(failed.Message), "not found") {
		return fmt.Errorf("%w: %s", ErrNotFound, failed.Message)
	}
	return fmt.Errorf("%s: %s (code %d)", typ, failed.Message, failed.Code)
}

// do executes an authenticated REST request.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	return c.send(ctx, method, c.BaseURL+path, body, result)
}

// send executes an authenticated HTTP request. Writes carry a fresh request
// ID so the service can drop duplicates.
func (c *Client) send(ctx context.Context, method, target string, body, result any) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("X-Request-Id", uuid.NewString())
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		msg := strings.TrimSpace(string(respBody))
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrForbidden, msg)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, msg)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: retry after %s", ErrRateLimited, resp.Header.Get("Retry-After"))
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, msg)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
