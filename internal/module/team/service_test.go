package team

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTeamRepo backs service tests with an in-memory team and roster.
type fakeTeamRepo struct {
	Repository
	team    *Team
	members map[int64]*Member
	owners  int64

	updatedRole *Member
	removed     []int64
}

func (f *fakeTeamRepo) GetByID(_ context.Context, _ int64) (*Team, error) {
	return f.team, nil
}

func (f *fakeTeamRepo) GetMember(_ context.Context, _, userID int64) (*Member, error) {
	m, ok := f.members[userID]
	if !ok {
		return nil, ErrMemberNotFound
	}
	return m, nil
}

func (f *fakeTeamRepo) GetMemberDetail(_ context.Context, _, userID int64) (*Member, error) {
	return f.GetMember(context.Background(), 0, userID)
}

func (f *fakeTeamRepo) CountMembersByRole(_ context.Context, _ int64, _ Role) (int64, error) {
	return f.owners, nil
}

func (f *fakeTeamRepo) Update(_ context.Context, team *Team) error {
	f.team = team
	return nil
}

func (f *fakeTeamRepo) UpdateMember(_ context.Context, member *Member) error {
	f.updatedRole = member
	return nil
}

func (f *fakeTeamRepo) RemoveMember(_ context.Context, _, userID int64) error {
	f.removed = append(f.removed, userID)
	return nil
}

type fakeTeamNotifier struct {
	added   []int64
	removed []int64
}

func (f *fakeTeamNotifier) TeamMemberAdded(_ context.Context, _ *Team, userID, _ int64) {
	f.added = append(f.added, userID)
}

func (f *fakeTeamNotifier) TeamMemberRemoved(_ context.Context, _ *Team, userID, _ int64) {
	f.removed = append(f.removed, userID)
}

func TestRole_Level(t *testing.T) {
	tests := []struct {
		role     Role
		expected int
	}{
		{RoleOwner, 100},
		{RoleAdmin, 75},
		{RoleMember, 50},
		{RoleViewer, 25},
		{Role("invalid"), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.role.Level())
		})
	}
}

func TestRole_IsAtLeast(t *testing.T) {
	tests := []struct {
		role     Role
		other    Role
		expected bool
	}{
		{RoleOwner, RoleOwner, true},
		{RoleOwner, RoleAdmin, true},
		{RoleAdmin, RoleOwner, false},
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleMember, true},
		{RoleMember, RoleAdmin, false},
		{RoleViewer, RoleMember, false},
		{RoleViewer, RoleViewer, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"_"+string(tt.other), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.role.IsAtLeast(tt.other))
		})
	}
}

func TestIsMemberOf(t *testing.T) {
	team := &Team{
		ID: 1,
		Members: []Member{
			{TeamID: 1, UserID: 10, Role: RoleOwner},
			{TeamID: 1, UserID: 20, Role: RoleMember},
		},
	}

	assert.True(t, isMemberOf(team, 10))
	assert.True(t, isMemberOf(team, 20))
	assert.False(t, isMemberOf(team, 30))
}

func TestActor_CanManage(t *testing.T) {
	assert.True(t, Actor{Role: "admin"}.CanManage())
	assert.True(t, Actor{Role: "manager"}.CanManage())
	assert.False(t, Actor{Role: "member"}.CanManage())
	assert.False(t, Actor{Role: "viewer"}.CanManage())
}

func TestMember_ToResponse(t *testing.T) {
	m := &Member{ID: 5, TeamID: 1, UserID: 10, Username: "alice", FullName: "Alice Doe", Role: RoleOwner}
	resp := m.ToResponse()

	assert.Equal(t, int64(5), resp.ID)
	assert.Equal(t, int64(10), resp.UserID)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, "Alice Doe", resp.FullName)
	assert.Equal(t, RoleOwner, resp.Role)
}

func TestService_Update_TogglesActive(t *testing.T) {
	repo := &fakeTeamRepo{team: &Team{ID: 1, Name: "platform", IsActive: true}}
	svc := NewService(repo, &fakeTeamNotifier{}, zap.NewNop())

	inactive := false
	team, err := svc.Update(context.Background(), Actor{ID: 1, Role: "admin"}, 1, &UpdateRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, team.IsActive)
}

func TestService_UpdateMemberRole_LastOwner(t *testing.T) {
	ctx := context.Background()
	admin := Actor{ID: 1, Role: "admin"}

	newFixture := func(owners int64) (*Service, *fakeTeamRepo) {
		repo := &fakeTeamRepo{
			team: &Team{ID: 1, Name: "platform"},
			members: map[int64]*Member{
				10: {TeamID: 1, UserID: 10, Role: RoleOwner, Username: "alice"},
			},
			owners: owners,
		}
		return NewService(repo, &fakeTeamNotifier{}, zap.NewNop()), repo
	}

	t.Run("demoting the sole owner is rejected", func(t *testing.T) {
		svc, repo := newFixture(1)

		_, err := svc.UpdateMemberRole(ctx, admin, 1, 10, &UpdateMemberRequest{Role: RoleMember})
		assert.ErrorIs(t, err, ErrLastOwner)
		assert.Nil(t, repo.updatedRole)
	})

	t.Run("demoting one of two owners succeeds", func(t *testing.T) {
		svc, repo := newFixture(2)

		member, err := svc.UpdateMemberRole(ctx, admin, 1, 10, &UpdateMemberRequest{Role: RoleMember})
		require.NoError(t, err)
		require.NotNil(t, repo.updatedRole)
		assert.Equal(t, RoleMember, repo.updatedRole.Role)
		assert.Equal(t, "alice", member.Username)
	})
}

func TestService_RemoveMember_LastOwner(t *testing.T) {
	ctx := context.Background()
	admin := Actor{ID: 1, Role: "admin"}

	newFixture := func(owners int64) (*Service, *fakeTeamRepo, *fakeTeamNotifier) {
		repo := &fakeTeamRepo{
			team: &Team{ID: 1, Name: "platform"},
			members: map[int64]*Member{
				10: {TeamID: 1, UserID: 10, Role: RoleOwner},
			},
			owners: owners,
		}
		notifier := &fakeTeamNotifier{}
		return NewService(repo, notifier, zap.NewNop()), repo, notifier
	}

	t.Run("the sole owner cannot be removed", func(t *testing.T) {
		svc, repo, _ := newFixture(1)

		err := svc.RemoveMember(ctx, admin, 1, 10)
		assert.ErrorIs(t, err, ErrLastOwner)
		assert.Empty(t, repo.removed)
	})

	t.Run("an owner leaves when another remains", func(t *testing.T) {
		svc, repo, notifier := newFixture(2)

		require.NoError(t, svc.RemoveMember(ctx, admin, 1, 10))
		assert.Equal(t, []int64{10}, repo.removed)
		assert.Equal(t, []int64{10}, notifier.removed)
	})
}
