package client

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport routes requests to a handler func, letting tests
// control responses and their timing.
type fakeTransport struct {
	mu      sync.Mutex
	calls   int
	handler func(method, path string, body any, query url.Values) (*Response, error)
}

func (f *fakeTransport) Request(_ context.Context, method, path string, body any, query url.Values) (*Response, error) {
	f.mu.Lock()
	f.calls++
	handler := f.handler
	f.mu.Unlock()
	return handler(method, path, body, query)
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func jsonResponse(t *testing.T, status int, v any) *Response {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return &Response{Status: status, Data: data}
}

func taskListPayload(tasks []Task, total int64) map[string]any {
	return map[string]any{
		"tasks": tasks,
		"pagination": map[string]any{
			"page":      1,
			"page_size": 20,
			"total":     total,
		},
	}
}

func TestTaskStore_Create(t *testing.T) {
	transport := &fakeTransport{
		handler: func(method, path string, body any, _ url.Values) (*Response, error) {
			assert.Equal(t, "POST", method)
			assert.Equal(t, "/api/v1/tasks", path)
			return jsonResponse(t, 201, Task{
				ID:       42,
				Title:    "Fix login bug",
				Priority: "high",
				Category: "bug",
				Status:   "todo",
			}), nil
		},
	}

	store := NewTaskStore(transport)
	created, err := store.Create(context.Background(), TaskDraft{
		Title:    "Fix login bug",
		Priority: "high",
		Category: "bug",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, transport.callCount())
	assert.Equal(t, int64(42), created.ID)

	page := store.Page()
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Fix login bug", page.Items[0].Title)
	assert.Equal(t, int64(1), page.Total)

	loading, errMsg := store.State()
	assert.False(t, loading)
	assert.Empty(t, errMsg)
}

func TestTaskStore_StaleListResponseDiscarded(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})

	transport := &fakeTransport{}
	transport.handler = func(_, _ string, _ any, query url.Values) (*Response, error) {
		switch query.Get("search") {
		case "a":
			close(firstStarted)
			<-releaseFirst
			return jsonResponse(t, 200, taskListPayload([]Task{{ID: 1, Title: "stale"}}, 1)), nil
		case "ab":
			return jsonResponse(t, 200, taskListPayload([]Task{{ID: 2, Title: "fresh"}}, 1)), nil
		}
		t.Fatalf("unexpected query %v", query)
		return nil, nil
	}

	store := NewTaskStore(transport)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- store.List(context.Background(), TaskFilter{Query: "a"})
	}()
	<-firstStarted

	require.NoError(t, store.List(context.Background(), TaskFilter{Query: "ab"}))
	close(releaseFirst)

	err := <-firstDone
	assert.ErrorIs(t, err, ErrStaleResponse)

	page := store.Page()
	require.Len(t, page.Items, 1)
	assert.Equal(t, "fresh", page.Items[0].Title)
}

func TestTaskStore_RemoveFailureKeepsState(t *testing.T) {
	transport := &fakeTransport{
		handler: func(method, path string, _ any, _ url.Values) (*Response, error) {
			if method == "GET" {
				return jsonResponse(t, 200, taskListPayload([]Task{{ID: 7, Title: "keep me"}}, 1)), nil
			}
			return nil, &RequestError{Status: 500, Message: "database unavailable"}
		},
	}

	store := NewTaskStore(transport)
	require.NoError(t, store.List(context.Background(), TaskFilter{}))

	err := store.Remove(context.Background(), 7)
	require.Error(t, err)

	page := store.Page()
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(7), page.Items[0].ID)
	assert.Equal(t, int64(1), page.Total)

	_, errMsg := store.State()
	assert.Equal(t, "database unavailable", errMsg)
}

func TestTaskStore_RemoveSuccess(t *testing.T) {
	transport := &fakeTransport{
		handler: func(method, _ string, _ any, _ url.Values) (*Response, error) {
			if method == "GET" {
				return jsonResponse(t, 200, taskListPayload([]Task{{ID: 7}, {ID: 8}}, 2)), nil
			}
			return &Response{Status: 204}, nil
		},
	}

	store := NewTaskStore(transport)
	require.NoError(t, store.List(context.Background(), TaskFilter{}))
	require.NoError(t, store.Remove(context.Background(), 7))

	page := store.Page()
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(8), page.Items[0].ID)
	assert.Equal(t, int64(1), page.Total)
}

func TestTaskStore_UpdateSyncsListAndCurrent(t *testing.T) {
	status := "completed"
	transport := &fakeTransport{
		handler: func(method, path string, _ any, _ url.Values) (*Response, error) {
			switch {
			case method == "GET" && path == "/api/v1/tasks":
				return jsonResponse(t, 200, taskListPayload([]Task{{ID: 5, Status: "todo"}}, 1)), nil
			case method == "GET":
				return jsonResponse(t, 200, Task{ID: 5, Status: "todo"}), nil
			default:
				return jsonResponse(t, 200, Task{ID: 5, Status: status}), nil
			}
		},
	}

	store := NewTaskStore(transport)
	require.NoError(t, store.List(context.Background(), TaskFilter{}))
	_, err := store.Get(context.Background(), 5)
	require.NoError(t, err)

	_, err = store.Update(context.Background(), 5, TaskPatch{Status: &status})
	require.NoError(t, err)

	page := store.Page()
	assert.Equal(t, "completed", page.Items[0].Status)
	require.NotNil(t, store.Current())
	assert.Equal(t, "completed", store.Current().Status)
}

func TestTaskStore_ClearCurrent(t *testing.T) {
	transport := &fakeTransport{
		handler: func(_, _ string, _ any, _ url.Values) (*Response, error) {
			return jsonResponse(t, 200, Task{ID: 5}), nil
		},
	}

	store := NewTaskStore(transport)
	_, err := store.Get(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, store.Current())

	store.ClearCurrent()
	assert.Nil(t, store.Current())
}

func TestTaskFilter_Values(t *testing.T) {
	q := TaskFilter{Page: 2, PageSize: 10, Status: []string{"todo"}, Query: "login"}.values()
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "10", q.Get("page_size"))
	assert.Equal(t, "todo", q.Get("status"))
	assert.Equal(t, "login", q.Get("search"))

	empty := TaskFilter{}.values()
	assert.Empty(t, empty)
}

func TestTaskFilter_Values_MultipleStatuses(t *testing.T) {
	q := TaskFilter{
		Status:   []string{"todo", "completed"},
		Priority: []string{"high", "urgent"},
	}.values()
	assert.Equal(t, []string{"todo", "completed"}, q["status"])
	assert.Equal(t, []string{"high", "urgent"}, q["priority"])
	assert.Equal(t, "status=todo&status=completed", url.Values{"status": q["status"]}.Encode())
}
