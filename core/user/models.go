package user

import (
	"sort"
	"strings"
)

// Roles
const (
	// Admin
	RoleAdmin       = "admin:"
	RoleAdminSuper  = "admin:super"
	RoleAdminSchool = "admin:school"

	// Teacher (staff)
	RoleTeacher = "teacher:"

	// Student
	RoleStudent = "student:"
)

var (
	AdminRoles   = []string{RoleAdmin, RoleAdminSuper, RoleAdminSchool}
	TeacherRoles = []string{RoleTeacher}
	StudentRoles = []string{RoleStudent}
	AllRoles     = getAllRoles()
)

func getAllRoles() []string {
	all := make([]string, 0, 5)
	all = append(all, AdminRoles...)
	all = append(all, TeacherRoles...)
	all = append(all, StudentRoles...)
	sort.Strings(all)
	return all
}

// IsValidRole reports whether role is one of AllRoles.
func IsValidRole(role string) bool {
	i := sort.SearchStrings(AllRoles, role)
	return i < len(AllRoles) && AllRoles[i] == role
}

// User is the authenticated caller, as carried by the access token.
type User struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Username string   `json:"username"`
	SchoolID string   `json:"school_id"`
	Roles    []string `json:"roles"`
}

func (u User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u User) IsAdmin() bool {
	return u.RoleStartsWith(RoleAdmin)
}

func (u User) IsTeacher() bool {
	return u.RoleStartsWith(RoleTeacher)
}

func (u User) IsStudent() bool {
	return u.RoleStartsWith(RoleStudent)
}

// DisplayName returns the name used to stamp records entered by u.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
