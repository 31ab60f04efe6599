package client

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notificationStoreWith(t *testing.T, items []Notification, unread int64) (*NotificationStore, *fakeTransport) {
	t.Helper()

	transport := &fakeTransport{
		handler: func(method, path string, _ any, _ url.Values) (*Response, error) {
			switch {
			case method == "GET" && path == "/api/v1/notifications":
				return jsonResponse(t, 200, map[string]any{
					"notifications": items,
					"pagination": map[string]any{
						"page": 1, "page_size": 20, "total": len(items),
					},
				}), nil
			case method == "GET" && path == "/api/v1/notifications/unread-count":
				return jsonResponse(t, 200, map[string]any{"unread_count": unread}), nil
			case method == "PUT" && path == "/api/v1/notifications/read-all":
				return jsonResponse(t, 200, map[string]any{"marked_read": unread}), nil
			default:
				// markRead echoes the notification as read.
				return jsonResponse(t, 200, Notification{ID: 1, IsRead: true}), nil
			}
		},
	}

	store := NewNotificationStore(transport)
	require.NoError(t, store.List(context.Background()))
	require.NoError(t, store.Refresh(context.Background()))
	return store, transport
}

func TestNotificationStore_ReceivePrependsAndIncrements(t *testing.T) {
	store, _ := notificationStoreWith(t, []Notification{{ID: 1}}, 0)

	store.Receive(Notification{ID: 2, Title: "second"})
	store.Receive(Notification{ID: 3, Title: "third"})

	items := store.Items()
	require.Len(t, items, 3)
	assert.Equal(t, int64(3), items[0].ID)
	assert.Equal(t, int64(2), items[1].ID)
	assert.Equal(t, int64(2), store.UnreadCount())
}

func TestNotificationStore_ReceiveDoesNotDeduplicate(t *testing.T) {
	store, _ := notificationStoreWith(t, nil, 0)

	n := Notification{ID: 9, Title: "redelivered"}
	store.Receive(n)
	store.Receive(n)

	assert.Len(t, store.Items(), 2)
	assert.Equal(t, int64(2), store.UnreadCount())
}

func TestNotificationStore_MarkReadFloorsAtZero(t *testing.T) {
	store, _ := notificationStoreWith(t, []Notification{
		{ID: 1}, {ID: 2}, {ID: 3},
	}, 3)

	_, err := store.MarkRead(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), store.UnreadCount())

	// Marking the same, already-read notification again under-counts
	// but must never go negative.
	for i := 0; i < 5; i++ {
		_, err := store.MarkRead(context.Background(), 1)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, store.UnreadCount(), int64(0))
	assert.Equal(t, int64(0), store.UnreadCount())

	items := store.Items()
	assert.True(t, items[0].IsRead)
	assert.Equal(t, int64(1), items[0].ID, "marked item keeps its position")
}

func TestNotificationStore_MarkAllReadIdempotent(t *testing.T) {
	store, _ := notificationStoreWith(t, []Notification{
		{ID: 1}, {ID: 2}, {ID: 3},
	}, 3)

	for i := 0; i < 2; i++ {
		require.NoError(t, store.MarkAllRead(context.Background()))
		assert.Equal(t, int64(0), store.UnreadCount())
		for _, n := range store.Items() {
			assert.True(t, n.IsRead)
		}
	}
}

func TestNotificationStore_RemoveUnreadDecrements(t *testing.T) {
	transport := &fakeTransport{
		handler: func(method, path string, _ any, _ url.Values) (*Response, error) {
			if method == "DELETE" {
				return &Response{Status: 204}, nil
			}
			return jsonResponse(t, 200, map[string]any{
				"notifications": []Notification{{ID: 1}, {ID: 2, IsRead: true}},
				"pagination":    map[string]any{"page": 1, "page_size": 20, "total": 2},
			}), nil
		},
	}

	store := NewNotificationStore(transport)
	require.NoError(t, store.List(context.Background()))
	store.Receive(Notification{ID: 3})

	// Removing a read notification leaves the counter alone.
	require.NoError(t, store.Remove(context.Background(), 2))
	assert.Equal(t, int64(1), store.UnreadCount())

	// Removing an unread one decrements it.
	require.NoError(t, store.Remove(context.Background(), 1))
	assert.Equal(t, int64(0), store.UnreadCount())
}

func TestNotificationStore_RefreshResynchronizes(t *testing.T) {
	store, _ := notificationStoreWith(t, nil, 7)

	// Drift the cached counter, then resync from the server.
	store.Receive(Notification{ID: 1})
	assert.Equal(t, int64(8), store.UnreadCount())

	require.NoError(t, store.Refresh(context.Background()))
	assert.Equal(t, int64(7), store.UnreadCount())
}
