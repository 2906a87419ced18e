package domain

import (
	"regexp"
	"strings"
	"time"
)

// InviteLink binds a code to a role and classroom
type InviteLink struct {
	ID            string
	Code          string
	Role          Role
	ClassroomID   string
	ClassroomName string // Populated via JOIN
	Active        bool
	SingleUse     bool
	CreatedAt     time.Time
}

// InviteRedemption records which identity consumed which invite
type InviteRedemption struct {
	InviteID   string
	IdentityID string
	RedeemedAt time.Time
}

var inviteCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{4,64}$`)

// NormalizeInviteCode trims the code and reports whether it is well formed
func NormalizeInviteCode(code string) (string, bool) {
	code = strings.TrimSpace(code)
	return code, inviteCodePattern.MatchString(code)
}

// Path returns the public invite route for the link
func (l InviteLink) Path() string {
	return "/invite/" + l.Code
}
