package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_roles(t *testing.T) {
	tests := []struct {
		name        string
		roles       []string
		wantAdmin   bool
		wantTeacher bool
		wantStudent bool
	}{
		{name: "no roles"},
		{name: "super admin", roles: []string{RoleAdminSuper}, wantAdmin: true},
		{name: "school admin", roles: []string{RoleAdminSchool}, wantAdmin: true},
		{name: "teacher", roles: []string{RoleTeacher}, wantTeacher: true},
		{name: "student", roles: []string{RoleStudent}, wantStudent: true},
		{name: "admin & teacher", roles: []string{RoleTeacher, RoleAdmin}, wantAdmin: true, wantTeacher: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr := User{ID: "1", Roles: tt.roles}
			assert.Equal(t, tt.wantAdmin, usr.IsAdmin())
			assert.Equal(t, tt.wantTeacher, usr.IsTeacher())
			assert.Equal(t, tt.wantStudent, usr.IsStudent())
		})
	}
}

func TestIsValidRole(t *testing.T) {
	for _, role := range AllRoles {
		assert.True(t, IsValidRole(role), role)
	}
	assert.False(t, IsValidRole("admin:owner"))
	assert.False(t, IsValidRole(""))
}

func TestUser_DisplayName(t *testing.T) {
	assert.Equal(t, "Jane", User{Name: "Jane", Username: "jane"}.DisplayName())
	assert.Equal(t, "jane", User{Username: "jane"}.DisplayName())
}
