package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taskhive/server/internal/utils/metrics"
	"github.com/taskhive/server/internal/utils/pagination"
)

// Metrics register against the default registry, so the package shares
// one instance across tests.
var testMetrics = metrics.New("taskhive_notification_test")

type fakeNotificationRepo struct {
	byID    map[int64]*Notification
	nextID  int64
	unread  int64
	created []*Notification

	markedRead  []int64
	markAllHits int
	deleted     []int64

	countCalls int
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{byID: map[int64]*Notification{}, nextID: 1}
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *Notification) error {
	n.ID = f.nextID
	f.nextID++
	f.byID[n.ID] = n
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationRepo) GetByID(_ context.Context, id int64) (*Notification, error) {
	n, ok := f.byID[id]
	if !ok {
		return nil, ErrNotificationNotFound
	}
	return n, nil
}

func (f *fakeNotificationRepo) List(_ context.Context, _ int64, _ bool, _ *pagination.Pagination) ([]*Notification, int64, error) {
	return nil, 0, nil
}

func (f *fakeNotificationRepo) CountUnread(_ context.Context, _ int64) (int64, error) {
	f.countCalls++
	return f.unread, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id int64) error {
	f.markedRead = append(f.markedRead, id)
	f.byID[id].IsRead = true
	return nil
}

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, _ int64) (int64, error) {
	f.markAllHits++
	return f.unread, nil
}

func (f *fakeNotificationRepo) Delete(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	delete(f.byID, id)
	return nil
}

type fakeCounter struct {
	value  int64
	cached bool

	incrErr error

	incrs         int
	decrs         int
	resets        int
	invalidations int
	lastSet       *int64
}

func (f *fakeCounter) Get(_ context.Context, _ int64) (int64, bool, error) {
	return f.value, f.cached, nil
}

func (f *fakeCounter) Set(_ context.Context, _, count int64) error {
	f.lastSet = &count
	return nil
}

func (f *fakeCounter) Incr(_ context.Context, _ int64) error {
	if f.incrErr != nil {
		return f.incrErr
	}
	f.incrs++
	return nil
}

func (f *fakeCounter) Decr(_ context.Context, _ int64) error {
	f.decrs++
	return nil
}

func (f *fakeCounter) Reset(_ context.Context, _ int64) error {
	f.resets++
	return nil
}

func (f *fakeCounter) Invalidate(_ context.Context, _ int64) error {
	f.invalidations++
	return nil
}

type fakePusher struct {
	pushed []*Notification
}

func (f *fakePusher) Push(_ int64, n *Notification) {
	f.pushed = append(f.pushed, n)
}

func newTestService(repo *fakeNotificationRepo, counter *fakeCounter, pusher *fakePusher) *Service {
	return NewService(repo, counter, pusher, testMetrics, zap.NewNop())
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("persists, bumps the counter and pushes", func(t *testing.T) {
		repo := newFakeNotificationRepo()
		counter := &fakeCounter{}
		pusher := &fakePusher{}
		svc := newTestService(repo, counter, pusher)

		n := &Notification{UserID: 7, Type: TypeTaskAssigned, Title: "Task assigned to you"}
		require.NoError(t, svc.Create(ctx, n))

		require.Len(t, repo.created, 1)
		assert.Equal(t, 1, counter.incrs)
		require.Len(t, pusher.pushed, 1)
		assert.Equal(t, n.ID, pusher.pushed[0].ID)
	})

	t.Run("counter failure invalidates instead of leaving it stale", func(t *testing.T) {
		repo := newFakeNotificationRepo()
		counter := &fakeCounter{incrErr: errors.New("redis down")}
		pusher := &fakePusher{}
		svc := newTestService(repo, counter, pusher)

		n := &Notification{UserID: 7, Type: TypeTeamInvited, Title: "Added to team"}
		require.NoError(t, svc.Create(ctx, n))

		assert.Equal(t, 0, counter.incrs)
		assert.Equal(t, 1, counter.invalidations)
		assert.Len(t, pusher.pushed, 1)
	})

	t.Run("rejects unknown types", func(t *testing.T) {
		repo := newFakeNotificationRepo()
		svc := newTestService(repo, &fakeCounter{}, &fakePusher{})

		err := svc.Create(ctx, &Notification{UserID: 7, Type: Type("nonsense")})
		require.Error(t, err)
		assert.Empty(t, repo.created)
	})
}

func TestService_UnreadCount(t *testing.T) {
	ctx := context.Background()

	t.Run("served from the cache on a hit", func(t *testing.T) {
		repo := newFakeNotificationRepo()
		counter := &fakeCounter{value: 5, cached: true}
		svc := newTestService(repo, counter, &fakePusher{})

		count, err := svc.UnreadCount(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(5), count)
		assert.Equal(t, 0, repo.countCalls)
	})

	t.Run("falls back to the repository and repopulates", func(t *testing.T) {
		repo := newFakeNotificationRepo()
		repo.unread = 3
		counter := &fakeCounter{}
		svc := newTestService(repo, counter, &fakePusher{})

		count, err := svc.UnreadCount(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
		assert.Equal(t, 1, repo.countCalls)
		require.NotNil(t, counter.lastSet)
		assert.Equal(t, int64(3), *counter.lastSet)
	})
}

func TestService_MarkRead(t *testing.T) {
	ctx := context.Background()

	t.Run("marks and decrements once", func(t *testing.T) {
		repo := newFakeNotificationRepo()
		counter := &fakeCounter{}
		svc := newTestService(repo, counter, &fakePusher{})

		require.NoError(t, repo.Create(ctx, &Notification{UserID: 7, Type: TypeTaskAssigned}))

		n, err := svc.MarkRead(ctx, 7, 1)
		require.NoError(t, err)
		assert.True(t, n.IsRead)
		assert.Equal(t, []int64{1}, repo.markedRead)
		assert.Equal(t, 1, counter.decrs)
	})

	t.Run("already read is a no-op", func(t *testing.T) {
		repo := newFakeNotificationRepo()
		counter := &fakeCounter{}
		svc := newTestService(repo, counter, &fakePusher{})

		require.NoError(t, repo.Create(ctx, &Notification{UserID: 7, Type: TypeTaskAssigned, IsRead: true}))

		_, err := svc.MarkRead(ctx, 7, 1)
		require.NoError(t, err)
		assert.Empty(t, repo.markedRead)
		assert.Equal(t, 0, counter.decrs)
	})

	t.Run("rejects another user's notification", func(t *testing.T) {
		repo := newFakeNotificationRepo()
		svc := newTestService(repo, &fakeCounter{}, &fakePusher{})

		require.NoError(t, repo.Create(ctx, &Notification{UserID: 8, Type: TypeTaskAssigned}))

		_, err := svc.MarkRead(ctx, 7, 1)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestService_MarkAllRead(t *testing.T) {
	repo := newFakeNotificationRepo()
	repo.unread = 4
	counter := &fakeCounter{}
	svc := newTestService(repo, counter, &fakePusher{})

	affected, err := svc.MarkAllRead(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(4), affected)
	assert.Equal(t, 1, repo.markAllHits)
	assert.Equal(t, 1, counter.resets)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deleting unread decrements the counter", func(t *testing.T) {
		repo := newFakeNotificationRepo()
		counter := &fakeCounter{}
		svc := newTestService(repo, counter, &fakePusher{})

		require.NoError(t, repo.Create(ctx, &Notification{UserID: 7, Type: TypeTaskAssigned}))

		require.NoError(t, svc.Delete(ctx, 7, 1))
		assert.Equal(t, []int64{1}, repo.deleted)
		assert.Equal(t, 1, counter.decrs)
	})

	t.Run("deleting read leaves the counter alone", func(t *testing.T) {
		repo := newFakeNotificationRepo()
		counter := &fakeCounter{}
		svc := newTestService(repo, counter, &fakePusher{})

		require.NoError(t, repo.Create(ctx, &Notification{UserID: 7, Type: TypeTaskAssigned, IsRead: true}))

		require.NoError(t, svc.Delete(ctx, 7, 1))
		assert.Equal(t, []int64{1}, repo.deleted)
		assert.Equal(t, 0, counter.decrs)
	})
}
