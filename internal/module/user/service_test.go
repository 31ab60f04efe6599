package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid", "Sup3rsecret", nil},
		{"no uppercase", "sup3rsecret", ErrWeakPassword},
		{"no lowercase", "SUP3RSECRET", ErrWeakPassword},
		{"no digit", "Supersecret", ErrWeakPassword},
		{"empty", "", ErrWeakPassword},
		{"symbols allowed", "Pa55word!@#", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePasswordStrength(tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUsernamePattern(t *testing.T) {
	tests := []struct {
		username string
		valid    bool
	}{
		{"alice", true},
		{"alice_smith", true},
		{"alice-smith", true},
		{"Alice99", true},
		{"alice smith", false},
		{"alice@example", false},
		{"алиса", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			assert.Equal(t, tt.valid, usernamePattern.MatchString(tt.username))
		})
	}
}

func TestRole_Valid(t *testing.T) {
	tests := []struct {
		role     Role
		expected bool
	}{
		{RoleAdmin, true},
		{RoleManager, true},
		{RoleMember, true},
		{RoleViewer, true},
		{Role("superuser"), false},
		{Role(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.role.Valid())
		})
	}
}

func TestUser_CanManage(t *testing.T) {
	tests := []struct {
		role     Role
		expected bool
	}{
		{RoleAdmin, true},
		{RoleManager, true},
		{RoleMember, false},
		{RoleViewer, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			u := &User{Role: tt.role}
			assert.Equal(t, tt.expected, u.CanManage())
		})
	}
}
