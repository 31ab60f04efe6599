package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taskhive/server/internal/utils/pagination"
)

// fakeRepository captures the filter List receives so tests can assert
// on the scoping the service applied.
type fakeRepository struct {
	Repository
	lastFilter *Filter
	tasks      []*Task
}

func (f *fakeRepository) List(_ context.Context, filter *Filter, _ *pagination.Pagination) ([]*Task, int64, error) {
	f.lastFilter = filter
	return f.tasks, int64(len(f.tasks)), nil
}

type fakeMembership struct {
	memberOf map[int64]bool
	teamIDs  []int64
}

func (f *fakeMembership) IsMember(_ context.Context, teamID, _ int64) (bool, error) {
	return f.memberOf[teamID], nil
}

func (f *fakeMembership) TeamIDs(_ context.Context, _ int64) ([]int64, error) {
	return f.teamIDs, nil
}

func TestStatus_Valid(t *testing.T) {
	tests := []struct {
		status   Status
		expected bool
	}{
		{StatusTodo, true},
		{StatusInProgress, true},
		{StatusInReview, true},
		{StatusCompleted, true},
		{StatusArchived, true},
		{Status("done"), false},
		{Status(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.Valid())
		})
	}
}

func TestTask_IsOverdue(t *testing.T) {
	past := time.Now().Add(-24 * time.Hour)
	future := time.Now().Add(24 * time.Hour)

	tests := []struct {
		name     string
		task     Task
		expected bool
	}{
		{"no due date", Task{Status: StatusTodo}, false},
		{"due in future", Task{Status: StatusTodo, DueDate: &future}, false},
		{"past due, todo", Task{Status: StatusTodo, DueDate: &past}, true},
		{"past due, in progress", Task{Status: StatusInProgress, DueDate: &past}, true},
		{"past due, completed", Task{Status: StatusCompleted, DueDate: &past}, false},
		{"past due, archived", Task{Status: StatusArchived, DueDate: &past}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.task.IsOverdue())
		})
	}
}

func TestApplyStatusTransition(t *testing.T) {
	s := &Service{}

	t.Run("to in_progress sets started_at once", func(t *testing.T) {
		task := &Task{Status: StatusTodo}
		completed := s.applyStatusTransition(task, StatusInProgress)

		assert.False(t, completed)
		assert.Equal(t, StatusInProgress, task.Status)
		require.NotNil(t, task.StartedAt)

		started := *task.StartedAt
		s.applyStatusTransition(task, StatusInReview)
		s.applyStatusTransition(task, StatusInProgress)
		assert.Equal(t, started, *task.StartedAt)
	})

	t.Run("to completed sets completed_at and full progress", func(t *testing.T) {
		task := &Task{Status: StatusInProgress, ProgressPercent: 60}
		completed := s.applyStatusTransition(task, StatusCompleted)

		assert.True(t, completed)
		assert.Equal(t, StatusCompleted, task.Status)
		assert.Equal(t, 100, task.ProgressPercent)
		require.NotNil(t, task.CompletedAt)
	})

	t.Run("completed to completed is not a completion", func(t *testing.T) {
		now := time.Now()
		task := &Task{Status: StatusCompleted, CompletedAt: &now}
		assert.False(t, s.applyStatusTransition(task, StatusCompleted))
	})

	t.Run("reopening clears completed_at", func(t *testing.T) {
		now := time.Now()
		task := &Task{Status: StatusCompleted, CompletedAt: &now, ProgressPercent: 100}
		completed := s.applyStatusTransition(task, StatusInProgress)

		assert.False(t, completed)
		assert.Nil(t, task.CompletedAt)
	})

	t.Run("archiving completed keeps completed_at", func(t *testing.T) {
		now := time.Now()
		task := &Task{Status: StatusCompleted, CompletedAt: &now}
		s.applyStatusTransition(task, StatusArchived)

		assert.Equal(t, StatusArchived, task.Status)
		require.NotNil(t, task.CompletedAt)
	})
}

func TestActor_CanManage(t *testing.T) {
	assert.True(t, Actor{Role: "admin"}.CanManage())
	assert.True(t, Actor{Role: "manager"}.CanManage())
	assert.False(t, Actor{Role: "member"}.CanManage())
	assert.False(t, Actor{Role: "viewer"}.CanManage())
}

func TestService_ListScoping(t *testing.T) {
	ctx := context.Background()
	actor := Actor{ID: 7, Role: "member"}

	newService := func(teams *fakeMembership) (*Service, *fakeRepository) {
		repo := &fakeRepository{}
		return &Service{repo: repo, teams: teams, logger: zap.NewNop()}, repo
	}

	t.Run("member sees owned, assigned and team tasks", func(t *testing.T) {
		svc, repo := newService(&fakeMembership{teamIDs: []int64{3, 4}})

		_, _, err := svc.List(ctx, actor, nil, nil)
		require.NoError(t, err)

		require.NotNil(t, repo.lastFilter)
		// The scope must not be an owner-only constraint; assignment
		// and team membership also grant visibility.
		assert.Nil(t, repo.lastFilter.OwnerID)
		require.NotNil(t, repo.lastFilter.visibleToUser)
		assert.Equal(t, actor.ID, *repo.lastFilter.visibleToUser)
		assert.Equal(t, []int64{3, 4}, repo.lastFilter.visibleTeams)
	})

	t.Run("member without teams is still scoped to self", func(t *testing.T) {
		svc, repo := newService(&fakeMembership{})

		_, _, err := svc.List(ctx, actor, &Filter{}, nil)
		require.NoError(t, err)

		require.NotNil(t, repo.lastFilter.visibleToUser)
		assert.Equal(t, actor.ID, *repo.lastFilter.visibleToUser)
		assert.Empty(t, repo.lastFilter.visibleTeams)
	})

	t.Run("manager is not scoped", func(t *testing.T) {
		svc, repo := newService(&fakeMembership{})

		_, _, err := svc.List(ctx, Actor{ID: 1, Role: "manager"}, nil, nil)
		require.NoError(t, err)

		assert.Nil(t, repo.lastFilter.visibleToUser)
		assert.Empty(t, repo.lastFilter.visibleTeams)
	})

	t.Run("member may filter by own owner or assignee id", func(t *testing.T) {
		svc, repo := newService(&fakeMembership{})

		_, _, err := svc.List(ctx, actor, &Filter{OwnerID: &actor.ID, AssigneeID: &actor.ID}, nil)
		require.NoError(t, err)
		assert.Nil(t, repo.lastFilter.visibleToUser)
	})

	t.Run("member may not filter by another user", func(t *testing.T) {
		svc, _ := newService(&fakeMembership{})
		other := int64(9)

		_, _, err := svc.List(ctx, actor, &Filter{OwnerID: &other}, nil)
		assert.ErrorIs(t, err, ErrForbidden)

		_, _, err = svc.List(ctx, actor, &Filter{AssigneeID: &other}, nil)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("team filter requires membership", func(t *testing.T) {
		svc, repo := newService(&fakeMembership{memberOf: map[int64]bool{5: true}})

		mine := int64(5)
		_, _, err := svc.List(ctx, actor, &Filter{TeamID: &mine}, nil)
		require.NoError(t, err)
		assert.Nil(t, repo.lastFilter.visibleToUser)

		foreign := int64(6)
		_, _, err = svc.List(ctx, actor, &Filter{TeamID: &foreign}, nil)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}
