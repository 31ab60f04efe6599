package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
)

// TaskFilter narrows a task list request. Zero values impose no
// constraint. Status and Priority are sets; a task matches when its
// value is any of the listed ones.
type TaskFilter struct {
	Page     int
	PageSize int
	Status   []string
	Priority []string
	Query    string
}

func (f TaskFilter) values() url.Values {
	q := url.Values{}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(f.PageSize))
	}
	for _, s := range f.Status {
		q.Add("status", s)
	}
	for _, p := range f.Priority {
		q.Add("priority", p)
	}
	if f.Query != "" {
		q.Set("search", f.Query)
	}
	return q
}

// TaskDraft is the create payload.
type TaskDraft struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Priority    string  `json:"priority,omitempty"`
	Category    string  `json:"category,omitempty"`
	AssigneeID  *int64  `json:"assignee_id,omitempty"`
	TeamID      *int64  `json:"team_id,omitempty"`
}

// TaskPatch is the partial update payload. Nil fields are not sent.
type TaskPatch struct {
	Title           *string `json:"title,omitempty"`
	Description     *string `json:"description,omitempty"`
	Priority        *string `json:"priority,omitempty"`
	Status          *string `json:"status,omitempty"`
	Category        *string `json:"category,omitempty"`
	ProgressPercent *int    `json:"progress_percent,omitempty"`
	AssigneeID      *int64  `json:"assignee_id,omitempty"`
}

// TaskStore holds the task list and the currently viewed task.
//
// List results replace the store's page wholesale. Each list request is
// tagged with a monotonic sequence number; a response that arrives
// after a newer request has been issued is discarded, so the visible
// state always reflects the most recently issued request.
//
// Mutations are confirm-then-apply: nothing changes in the store until
// the server has acknowledged the call.
type TaskStore struct {
	mu        sync.Mutex
	transport Transport

	items    []Task
	total    int64
	page     int
	pageSize int
	current  *Task

	listSeq   uint64
	loading   bool
	lastError string
}

// NewTaskStore creates a task store over the given transport.
func NewTaskStore(transport Transport) *TaskStore {
	return &TaskStore{transport: transport}
}

// List fetches a page of tasks and replaces the store's list state.
// Returns ErrStaleResponse when a newer List superseded this call; the
// store state is untouched in that case.
func (s *TaskStore) List(ctx context.Context, filter TaskFilter) error {
	s.mu.Lock()
	s.listSeq++
	seq := s.listSeq
	s.loading = true
	s.mu.Unlock()

	resp, err := s.transport.Request(ctx, http.MethodGet, "/api/v1/tasks", nil, filter.values())

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.listSeq {
		// Superseded while in flight. The newer request owns the
		// loading flag and the state.
		return ErrStaleResponse
	}
	s.loading = false

	if err != nil {
		s.lastError = userMessage(err)
		return err
	}

	var payload struct {
		Tasks      []Task   `json:"tasks"`
		Pagination pageInfo `json:"pagination"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		s.lastError = "unexpected task list response"
		return &RequestError{Message: s.lastError}
	}

	s.items = payload.Tasks
	s.total = payload.Pagination.Total
	s.page = payload.Pagination.Page
	s.pageSize = payload.Pagination.PageSize
	s.lastError = ""
	return nil
}

// Get fetches one task and sets it as the currently viewed task.
func (s *TaskStore) Get(ctx context.Context, id int64) (*Task, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.transport.Request(ctx, http.MethodGet, fmt.Sprintf("/api/v1/tasks/%d", id), nil, nil)
	if err != nil {
		s.setError(err)
		return nil, err
	}

	var task Task
	if err := json.Unmarshal(resp.Data, &task); err != nil {
		wrapped := &RequestError{Message: "unexpected task response"}
		s.setError(wrapped)
		return nil, wrapped
	}

	s.mu.Lock()
	s.current = &task
	s.lastError = ""
	s.mu.Unlock()

	return &task, nil
}

// Create sends the draft and, only on success, prepends the created
// task and increments the total.
func (s *TaskStore) Create(ctx context.Context, draft TaskDraft) (*Task, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.transport.Request(ctx, http.MethodPost, "/api/v1/tasks", draft, nil)
	if err != nil {
		s.setError(err)
		return nil, err
	}

	var task Task
	if err := json.Unmarshal(resp.Data, &task); err != nil {
		wrapped := &RequestError{Message: "unexpected task response"}
		s.setError(wrapped)
		return nil, wrapped
	}

	s.mu.Lock()
	s.items = append([]Task{task}, s.items...)
	s.total++
	s.lastError = ""
	s.mu.Unlock()

	return &task, nil
}

// Update sends the patch and, on success, replaces the matching list
// entry and the currently viewed task when it has the same id.
func (s *TaskStore) Update(ctx context.Context, id int64, patch TaskPatch) (*Task, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.transport.Request(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/tasks/%d", id), patch, nil)
	if err != nil {
		s.setError(err)
		return nil, err
	}

	var task Task
	if err := json.Unmarshal(resp.Data, &task); err != nil {
		wrapped := &RequestError{Message: "unexpected task response"}
		s.setError(wrapped)
		return nil, wrapped
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i] = task
			break
		}
	}
	if s.current != nil && s.current.ID == id {
		s.current = &task
	}
	s.lastError = ""
	s.mu.Unlock()

	return &task, nil
}

// Remove deletes the task remotely and, only on success, drops it from
// the list and decrements the total.
func (s *TaskStore) Remove(ctx context.Context, id int64) error {
	s.setLoading(true)
	defer s.setLoading(false)

	_, err := s.transport.Request(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/tasks/%d", id), nil, nil)
	if err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.total--
			break
		}
	}
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.lastError = ""
	s.mu.Unlock()

	return nil
}

// ClearCurrent drops the currently viewed task. Called when the detail
// view goes away so a late response cannot resurrect it.
func (s *TaskStore) ClearCurrent() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// Page returns a copy of the current list state.
func (s *TaskStore) Page() Page[Task] {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]Task, len(s.items))
	copy(items, s.items)
	return Page[Task]{
		Items:    items,
		Total:    s.total,
		Page:     s.page,
		PageSize: s.pageSize,
	}
}

// Current returns the currently viewed task, or nil.
func (s *TaskStore) Current() *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	task := *s.current
	return &task
}

// State returns the loading flag and last error message for rendering.
func (s *TaskStore) State() (loading bool, errMessage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading, s.lastError
}

func (s *TaskStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *TaskStore) setError(err error) {
	s.mu.Lock()
	s.lastError = userMessage(err)
	s.mu.Unlock()
}
