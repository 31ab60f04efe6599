package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// NotificationStore holds the notification list and an unread counter.
//
// The counter is a cached projection, not a derived value: it is bumped
// on push arrival, decremented (floored at zero) on mark-as-read, and
// zeroed on mark-all-read. It can drift from server truth until
// Refresh re-derives it.
type NotificationStore struct {
	mu        sync.Mutex
	transport Transport

	items     []Notification
	total     int64
	unread    int64
	loading   bool
	lastError string
}

// NewNotificationStore creates a notification store over the given
// transport.
func NewNotificationStore(transport Transport) *NotificationStore {
	return &NotificationStore{transport: transport}
}

// List fetches the notification list and replaces the store state.
func (s *NotificationStore) List(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.transport.Request(ctx, http.MethodGet, "/api/v1/notifications", nil, nil)
	if err != nil {
		s.setError(err)
		return err
	}

	var payload struct {
		Notifications []Notification `json:"notifications"`
		Pagination    pageInfo       `json:"pagination"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		wrapped := &RequestError{Message: "unexpected notification list response"}
		s.setError(wrapped)
		return wrapped
	}

	s.mu.Lock()
	s.items = payload.Notifications
	s.total = payload.Pagination.Total
	s.lastError = ""
	s.mu.Unlock()

	return nil
}

// Refresh re-derives the unread counter from the server, resynchronizing
// any drift the cached projection has accumulated.
func (s *NotificationStore) Refresh(ctx context.Context) error {
	resp, err := s.transport.Request(ctx, http.MethodGet, "/api/v1/notifications/unread-count", nil, nil)
	if err != nil {
		s.setError(err)
		return err
	}

	var payload struct {
		UnreadCount int64 `json:"unread_count"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		wrapped := &RequestError{Message: "unexpected unread count response"}
		s.setError(wrapped)
		return wrapped
	}

	s.mu.Lock()
	s.unread = payload.UnreadCount
	s.lastError = ""
	s.mu.Unlock()

	return nil
}

// Receive is the push-arrival intake. The notification is inserted at
// the front and the unread counter incremented by exactly one, with no
// duplicate suppression: a redelivered notification (for example after
// a reconnect) appears twice.
func (s *NotificationStore) Receive(n Notification) {
	s.mu.Lock()
	s.items = append([]Notification{n}, s.items...)
	s.total++
	s.unread++
	s.mu.Unlock()
}

// MarkRead marks one notification as read, replacing the matching item
// in place and decrementing the unread counter floored at zero. The
// decrement happens regardless of the item's prior is_read value, so
// repeating the call on an already-read item under-counts; the floor
// keeps the counter non-negative.
func (s *NotificationStore) MarkRead(ctx context.Context, id int64) (*Notification, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.transport.Request(ctx, http.MethodPut, fmt.Sprintf("/api/v1/notifications/%d/read", id), nil, nil)
	if err != nil {
		s.setError(err)
		return nil, err
	}

	var updated Notification
	if err := json.Unmarshal(resp.Data, &updated); err != nil {
		wrapped := &RequestError{Message: "unexpected notification response"}
		s.setError(wrapped)
		return nil, wrapped
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i] = updated
			break
		}
	}
	if s.unread > 0 {
		s.unread--
	}
	s.lastError = ""
	s.mu.Unlock()

	return &updated, nil
}

// MarkAllRead marks everything read and zeroes the counter in a single
// state transition.
func (s *NotificationStore) MarkAllRead(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	_, err := s.transport.Request(ctx, http.MethodPut, "/api/v1/notifications/read-all", nil, nil)
	if err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	for i := range s.items {
		s.items[i].IsRead = true
	}
	s.unread = 0
	s.lastError = ""
	s.mu.Unlock()

	return nil
}

// Remove deletes a notification remotely and, only on success, drops it
// from the list. An unread notification also decrements the counter.
func (s *NotificationStore) Remove(ctx context.Context, id int64) error {
	s.setLoading(true)
	defer s.setLoading(false)

	_, err := s.transport.Request(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/notifications/%d", id), nil, nil)
	if err != nil {
		s.setError(err)
		return err
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == id {
			if !s.items[i].IsRead && s.unread > 0 {
				s.unread--
			}
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.total--
			break
		}
	}
	s.lastError = ""
	s.mu.Unlock()

	return nil
}

// Items returns a copy of the notification list.
func (s *NotificationStore) Items() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]Notification, len(s.items))
	copy(items, s.items)
	return items
}

// UnreadCount returns the cached unread counter.
func (s *NotificationStore) UnreadCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// State returns the loading flag and last error message for rendering.
func (s *NotificationStore) State() (loading bool, errMessage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading, s.lastError
}

func (s *NotificationStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *NotificationStore) setError(err error) {
	s.mu.Lock()
	s.lastError = userMessage(err)
	s.mu.Unlock()
}
