package domain

import "strings"

// Role is the application role stored on a profile
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleLearner Role = "learner"
)

// Roles lists every role in display order
var Roles = []Role{RoleAdmin, RoleTeacher, RoleLearner}

// ParseRole converts raw text into a Role
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleLearner:
		return true
	}
	return false
}

// Home returns the landing route for the role. Unknown roles go to the entry page.
func (r Role) Home() string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleTeacher:
		return "/teacher"
	case RoleLearner:
		return "/elev"
	}
	return EntryRoute
}

// Label returns the Norwegian name of the role
func (r Role) Label() string {
	switch r {
	case RoleTeacher:
		return "Lærer"
	case RoleLearner:
		return "Elev"
	}
	return "Administrator"
}
