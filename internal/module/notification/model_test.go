package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestType_Valid(t *testing.T) {
	valid := []Type{
		TypeTaskAssigned, TypeTaskUpdated, TypeTaskCompleted,
		TypeTaskDueSoon, TypeTaskOverdue,
		TypeTeamInvited, TypeTeamRemoved, TypeCommentAdded,
		TypeMention, TypeSystem,
	}
	for _, typ := range valid {
		assert.True(t, typ.Valid(), string(typ))
	}

	assert.False(t, Type("team_member_added").Valid())
	assert.False(t, Type("").Valid())
}
