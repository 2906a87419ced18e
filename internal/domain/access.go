package domain

import "strings"

// EntryRoute is the public sign-in page
const EntryRoute = "/"

// Decision is the outcome of a routing check
type Decision struct {
	Allow    bool
	Redirect string
}

// Allowed grants access to the requested view
func Allowed() Decision {
	return Decision{Allow: true}
}

// RedirectTo sends the user elsewhere
func RedirectTo(target string) Decision {
	return Decision{Redirect: target}
}

// String is used for metric labels and logs
func (d Decision) String() string {
	if d.Allow {
		return "allow"
	}
	return "redirect:" + d.Redirect
}

// routeRoles maps gated route prefixes to the role they require
var routeRoles = []struct {
	prefix string
	role   Role
}{
	{"/admin", RoleAdmin},
	{"/teacher", RoleTeacher},
	{"/elev", RoleLearner},
}

// RouteRole returns the role a client route requires.
// public is true for "/" and "/invite/:code", which need no session.
func RouteRole(path string) (role *Role, public bool) {
	path = "/" + strings.Trim(path, "/")
	if path == EntryRoute || strings.HasPrefix(path, "/invite/") {
		return nil, true
	}
	for _, rr := range routeRoles {
		if path == rr.prefix || strings.HasPrefix(path, rr.prefix+"/") {
			r := rr.role
			return &r, false
		}
	}
	return nil, false
}
