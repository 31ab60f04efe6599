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

// TeamDraft is the team create payload.
type TeamDraft struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// TeamStore holds the team list and the currently viewed team.
//
// List entries never carry rosters; Get populates the current team
// including its members. The members_count and tasks_count fields are
// cached projections: membership changes made elsewhere leave them
// stale until Refresh or the next List/Get.
type TeamStore struct {
	mu        sync.Mutex
	transport Transport

	items    []Team
	total    int64
	page     int
	pageSize int
	current  *Team

	listSeq   uint64
	loading   bool
	lastError string
}

// NewTeamStore creates a team store over the given transport.
func NewTeamStore(transport Transport) *TeamStore {
	return &TeamStore{transport: transport}
}

// List fetches a page of teams, rosters omitted. Stale responses are
// discarded the same way TaskStore.List discards them.
func (s *TeamStore) List(ctx context.Context, page, pageSize int) error {
	s.mu.Lock()
	s.listSeq++
	seq := s.listSeq
	s.loading = true
	s.mu.Unlock()

	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}

	resp, err := s.transport.Request(ctx, http.MethodGet, "/api/v1/teams", nil, q)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.listSeq {
		return ErrStaleResponse
	}
	s.loading = false

	if err != nil {
		s.lastError = userMessage(err)
		return err
	}

	var payload struct {
		Teams      []Team   `json:"teams"`
		Pagination pageInfo `json:"pagination"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		s.lastError = "unexpected team list response"
		return &RequestError{Message: s.lastError}
	}

	s.items = payload.Teams
	s.total = payload.Pagination.Total
	s.page = payload.Pagination.Page
	s.pageSize = payload.Pagination.PageSize
	s.lastError = ""
	return nil
}

// Get fetches one team with its roster and sets it as the currently
// viewed team.
func (s *TeamStore) Get(ctx context.Context, id int64) (*Team, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.transport.Request(ctx, http.MethodGet, fmt.Sprintf("/api/v1/teams/%d", id), nil, nil)
	if err != nil {
		s.setError(err)
		return nil, err
	}

	var team Team
	if err := json.Unmarshal(resp.Data, &team); err != nil {
		wrapped := &RequestError{Message: "unexpected team response"}
		s.setError(wrapped)
		return nil, wrapped
	}

	s.mu.Lock()
	s.current = &team
	s.lastError = ""
	s.mu.Unlock()

	return &team, nil
}

// Create sends the draft and, only on success, appends the created
// team to the list.
func (s *TeamStore) Create(ctx context.Context, draft TeamDraft) (*Team, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.transport.Request(ctx, http.MethodPost, "/api/v1/teams", draft, nil)
	if err != nil {
		s.setError(err)
		return nil, err
	}

	var team Team
	if err := json.Unmarshal(resp.Data, &team); err != nil {
		wrapped := &RequestError{Message: "unexpected team response"}
		s.setError(wrapped)
		return nil, wrapped
	}

	s.mu.Lock()
	s.items = append(s.items, team)
	s.total++
	s.lastError = ""
	s.mu.Unlock()

	return &team, nil
}

// Refresh re-fetches the currently viewed team for callers that need
// ground-truth counters. No-op when no team is being viewed.
func (s *TeamStore) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return nil
	}
	id := s.current.ID
	s.mu.Unlock()

	_, err := s.Get(ctx, id)
	return err
}

// ClearCurrent drops the currently viewed team.
func (s *TeamStore) ClearCurrent() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// Page returns a copy of the current list state.
func (s *TeamStore) Page() Page[Team] {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]Team, len(s.items))
	copy(items, s.items)
	return Page[Team]{
		Items:    items,
		Total:    s.total,
		Page:     s.page,
		PageSize: s.pageSize,
	}
}

// Current returns the currently viewed team, or nil.
func (s *TeamStore) Current() *Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	team := *s.current
	return &team
}

// State returns the loading flag and last error message for rendering.
func (s *TeamStore) State() (loading bool, errMessage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading, s.lastError
}

func (s *TeamStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *TeamStore) setError(err error) {
	s.mu.Lock()
	s.lastError = userMessage(err)
	s.mu.Unlock()
}
