package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"norgeskole/internal/domain"
	"norgeskole/internal/testutil"
)

const (
	classroomID = "6f1d2c3b-4a5e-4f60-8a7b-9c0d1e2f3a4b"
	inviteID    = "0b8e7d6c-5a4f-4e3d-9c2b-1a0f9e8d7c6b"
	otherInvite = "1c9f8e7d-6b5a-4f4e-8d3c-2b1a0f9e8d7c"
	missingID   = "2d0a9f8e-7c6b-4a5f-9e4d-3c2b1a0f9e8d"
)

func newAdminService() (*InviteAdminService, *testutil.MockInviteRepository, *testutil.MockClassroomRepository, *testutil.MockMailer) {
	invites := new(testutil.MockInviteRepository)
	classrooms := new(testutil.MockClassroomRepository)
	m := new(testutil.MockMailer)
	return NewInviteAdminService(invites, classrooms, m, "https://skole.no/", testutil.NewTestLogger()), invites, classrooms, m
}

func TestNewInviteCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-z]{12}$`)
	seen := make(map[string]bool)

	for i := 0; i < 200; i++ {
		code := NewInviteCode()
		require.Regexp(t, pattern, code)
		_, ok := domain.NormalizeInviteCode(code)
		require.True(t, ok)
		require.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestInviteAdminService_CreateInvite(t *testing.T) {
	service, invites, classrooms, _ := newAdminService()

	classrooms.On("GetClassroom", mock.Anything, classroomID).
		Return(&domain.Classroom{ID: classroomID, Name: "8A"}, nil)
	invites.On("CreateInvite", mock.Anything, mock.MatchedBy(func(l domain.InviteLink) bool {
		return l.Role == domain.RoleTeacher && l.ClassroomID == classroomID && l.Active && l.SingleUse && len(l.Code) == InviteCodeLength
	})).Return(domain.InviteLink{ID: inviteID, Code: "abc123def456", Role: domain.RoleTeacher, ClassroomID: classroomID, Active: true, SingleUse: true}, nil)

	link, err := service.CreateInvite(context.Background(), InviteInput{Role: "teacher", ClassroomID: classroomID, SingleUse: true})

	require.NoError(t, err)
	assert.Equal(t, "8A", link.ClassroomName)
	assert.Equal(t, "https://skole.no/invite/abc123def456", service.InviteURL(link))
	invites.AssertExpectations(t)
}

func TestInviteAdminService_CreateInvite_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		input     InviteInput
		classroom *domain.Classroom
		lookup    bool
		wantErr   error
	}{
		{name: "missing role", input: InviteInput{ClassroomID: classroomID}, wantErr: domain.ErrValidation},
		{name: "unknown role", input: InviteInput{Role: "janitor", ClassroomID: classroomID}, wantErr: domain.ErrValidation},
		{name: "missing classroom", input: InviteInput{Role: "learner"}, wantErr: domain.ErrValidation},
		{name: "classroom id is not a uuid", input: InviteInput{Role: "learner", ClassroomID: "class-1"}, wantErr: domain.ErrValidation},
		{name: "classroom does not exist", input: InviteInput{Role: "learner", ClassroomID: missingID}, lookup: true, wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, invites, classrooms, _ := newAdminService()
			if tt.lookup {
				classrooms.On("GetClassroom", mock.Anything, tt.input.ClassroomID).Return(tt.classroom, nil)
			}

			_, err := service.CreateInvite(context.Background(), tt.input)

			assert.ErrorIs(t, err, tt.wantErr)
			invites.AssertNotCalled(t, "CreateInvite", mock.Anything, mock.Anything)
		})
	}
}

func TestInviteAdminService_SendInvite(t *testing.T) {
	active := &domain.InviteLink{ID: inviteID, Code: "abc123", Role: domain.RoleLearner, Active: true}
	inactive := &domain.InviteLink{ID: otherInvite, Code: "def456", Role: domain.RoleLearner}

	tests := []struct {
		name      string
		id        string
		to        string
		link      *domain.InviteLink
		lookup    bool
		sends     bool
		mailError error
		wantErr   error
	}{
		{name: "sends link", id: inviteID, to: "ny@skole.no", link: active, lookup: true, sends: true},
		{name: "bad address", id: inviteID, to: "ny", wantErr: domain.ErrValidation},
		{name: "inactive link", id: otherInvite, to: "ny@skole.no", link: inactive, lookup: true, wantErr: domain.ErrNotFound},
		{name: "unknown link", id: missingID, to: "ny@skole.no", lookup: true, wantErr: domain.ErrNotFound},
		{name: "malformed id", id: "inv-1", to: "ny@skole.no", wantErr: domain.ErrNotFound},
		{name: "mailer fails", id: inviteID, to: "ny@skole.no", link: active, lookup: true, sends: true, mailError: errors.New("throttled")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, invites, _, m := newAdminService()
			if tt.lookup {
				invites.On("GetInvite", mock.Anything, tt.id).Return(tt.link, nil)
			}
			if tt.sends {
				m.On("SendInvite", mock.Anything, tt.to, "https://skole.no"+tt.link.Path(), tt.link.Role).Return(tt.mailError)
			}

			err := service.SendInvite(context.Background(), tt.id, tt.to)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.mailError != nil:
				assert.ErrorIs(t, err, tt.mailError)
			default:
				assert.NoError(t, err)
			}
			if !tt.sends {
				m.AssertNotCalled(t, "SendInvite", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
			m.AssertExpectations(t)
		})
	}
}

func TestInviteAdminService_SetActive(t *testing.T) {
	service, invites, _, _ := newAdminService()
	invites.On("SetInviteActive", mock.Anything, inviteID, false).Return(nil)
	invites.On("SetInviteActive", mock.Anything, missingID, true).Return(domain.ErrNotFound)

	assert.NoError(t, service.SetActive(context.Background(), inviteID, false))
	assert.ErrorIs(t, service.SetActive(context.Background(), missingID, true), domain.ErrNotFound)
	assert.ErrorIs(t, service.SetActive(context.Background(), "ghost", true), domain.ErrNotFound)
	invites.AssertNumberOfCalls(t, "SetInviteActive", 2)
}
