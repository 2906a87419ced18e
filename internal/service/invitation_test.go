package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"norgeskole/internal/domain"
	"norgeskole/internal/metrics"
	"norgeskole/internal/repository"
	"norgeskole/internal/testutil"
)

func newInvitationService(invites repository.InviteRepository, identity IdentityProvider) *InvitationService {
	return NewInvitationService(invites, identity, metrics.New(), testutil.NewTestLogger())
}

func validRequest() RegistrationRequest {
	return RegistrationRequest{
		Code:     "ABC123",
		Email:    "ali@skole.no",
		Password: "hemmelig",
		Name:     "Ali",
		L1:       "so",
	}
}

func TestInvitationService_ResolveInviteRole(t *testing.T) {
	tests := []struct {
		name          string
		code          string
		mockRole      domain.Role
		mockError     error
		callsRepo     bool
		expectedRole  domain.Role
		expectedError error
	}{
		{
			name:         "valid code",
			code:         "  ABC123 ",
			mockRole:     domain.RoleTeacher,
			callsRepo:    true,
			expectedRole: domain.RoleTeacher,
		},
		{
			name:          "empty code is rejected locally",
			code:          "   ",
			expectedError: domain.ErrInvalidInviteCode,
		},
		{
			name:          "unknown code",
			code:          "ABC123",
			mockError:     domain.ErrInvalidInviteCode,
			callsRepo:     true,
			expectedError: domain.ErrInvalidInviteCode,
		},
		{
			name:          "remote failure reads as invalid code",
			code:          "ABC123",
			mockError:     errors.New("connection refused"),
			callsRepo:     true,
			expectedError: domain.ErrInvalidInviteCode,
		},
		{
			name:          "unknown role",
			code:          "ABC123",
			mockRole:      domain.Role("janitor"),
			callsRepo:     true,
			expectedError: domain.ErrInvalidInviteCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invites := new(testutil.MockInviteRepository)
			if tt.callsRepo {
				invites.On("GetInviteRole", mock.Anything, "ABC123").Return(tt.mockRole, tt.mockError)
			}
			service := newInvitationService(invites, new(testutil.MockIdentityProvider))

			role, err := service.ResolveInviteRole(context.Background(), tt.code)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedRole, role)
			}
			invites.AssertExpectations(t)
			if !tt.callsRepo {
				invites.AssertNotCalled(t, "GetInviteRole", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestInvitationService_Register_HappyPath(t *testing.T) {
	invites := new(testutil.MockInviteRepository)
	identity := new(testutil.MockIdentityProvider)
	service := newInvitationService(invites, identity)

	l1 := "so"
	profile := *testutil.NewTestProfile("id-1", domain.RoleLearner)
	profile.L1 = &l1

	invites.On("GetInviteRole", mock.Anything, "ABC123").Return(domain.RoleLearner, nil)
	identity.On("SignUp", mock.Anything, "ali@skole.no", "hemmelig").
		Return(domain.Identity{ID: "id-1", Email: "ali@skole.no"}, nil)
	invites.On("RegisterWithInvite", mock.Anything, repository.RegisterParams{
		Code:       "ABC123",
		IdentityID: "id-1",
		Email:      "ali@skole.no",
		Name:       "Ali",
		L1:         &l1,
		WantRole:   domain.RoleLearner,
	}).Return(profile, nil)

	reg, err := service.Register(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, domain.StateRegistered, reg.State)
	assert.Equal(t, domain.RoleLearner, reg.Role)
	assert.Equal(t, "/elev", reg.Profile.Role.Home())
	invites.AssertExpectations(t)
	identity.AssertExpectations(t)
	identity.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestInvitationService_Register_InvalidCodeCreatesNothing(t *testing.T) {
	invites := new(testutil.MockInviteRepository)
	identity := new(testutil.MockIdentityProvider)
	service := newInvitationService(invites, identity)

	invites.On("GetInviteRole", mock.Anything, "ABC123").Return(domain.Role(""), domain.ErrInvalidInviteCode)

	reg, err := service.Register(context.Background(), validRequest())

	assert.ErrorIs(t, err, domain.ErrInvalidInviteCode)
	assert.Equal(t, domain.StateAbandoned, reg.State)
	assert.Equal(t, domain.StateCodeResolved, reg.FailedAt)
	assert.False(t, reg.Orphaned())
	identity.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything, mock.Anything)
	invites.AssertNotCalled(t, "RegisterWithInvite", mock.Anything, mock.Anything)
}

func TestInvitationService_Register_InvalidInputCreatesNothing(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(r *RegistrationRequest)
		field string
	}{
		{"blank name", func(r *RegistrationRequest) { r.Name = "   " }, "name"},
		{"bad email", func(r *RegistrationRequest) { r.Email = "ali" }, "email"},
		{"short password", func(r *RegistrationRequest) { r.Password = "123" }, "password"},
		{"unknown l1", func(r *RegistrationRequest) { r.L1 = "xx" }, "l1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invites := new(testutil.MockInviteRepository)
			identity := new(testutil.MockIdentityProvider)
			service := newInvitationService(invites, identity)

			req := validRequest()
			tt.edit(&req)

			reg, err := service.Register(context.Background(), req)

			assert.ErrorIs(t, err, domain.ErrValidation)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Fields[0].Field)
			assert.Equal(t, domain.StateCodeResolved, reg.FailedAt)
			invites.AssertNotCalled(t, "GetInviteRole", mock.Anything, mock.Anything)
			identity.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestInvitationService_Register_IdentityFailureLeavesNoOrphan(t *testing.T) {
	invites := new(testutil.MockInviteRepository)
	identity := new(testutil.MockIdentityProvider)
	service := newInvitationService(invites, identity)

	invites.On("GetInviteRole", mock.Anything, "ABC123").Return(domain.RoleLearner, nil)
	identity.On("SignUp", mock.Anything, "ali@skole.no", "hemmelig").
		Return(domain.Identity{}, errors.New("auth backend down"))

	reg, err := service.Register(context.Background(), validRequest())

	assert.ErrorIs(t, err, domain.ErrIdentityCreation)
	assert.Equal(t, domain.StateIdentityCreated, reg.FailedAt)
	assert.False(t, reg.Orphaned())
	invites.AssertNotCalled(t, "RegisterWithInvite", mock.Anything, mock.Anything)
}

func TestInvitationService_Register_EmailTakenIsReported(t *testing.T) {
	invites := new(testutil.MockInviteRepository)
	identity := new(testutil.MockIdentityProvider)
	service := newInvitationService(invites, identity)

	invites.On("GetInviteRole", mock.Anything, "ABC123").Return(domain.RoleLearner, nil)
	identity.On("SignUp", mock.Anything, mock.Anything, mock.Anything).Return(domain.Identity{}, domain.ErrEmailTaken)

	_, err := service.Register(context.Background(), validRequest())

	assert.ErrorIs(t, err, domain.ErrEmailTaken)
	assert.NotErrorIs(t, err, domain.ErrIdentityCreation)
}

func TestInvitationService_Register_ProfileFailureIsCompensated(t *testing.T) {
	tests := []struct {
		name        string
		deleteError error
		orphaned    bool
		expected    error
	}{
		{
			name:     "identity deleted",
			expected: domain.ErrProfileRegistration,
		},
		{
			name:        "deletion fails",
			deleteError: errors.New("auth backend down"),
			orphaned:    true,
			expected:    domain.ErrOrphanedIdentity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invites := new(testutil.MockInviteRepository)
			identity := new(testutil.MockIdentityProvider)
			service := newInvitationService(invites, identity)

			invites.On("GetInviteRole", mock.Anything, "ABC123").Return(domain.RoleLearner, nil)
			identity.On("SignUp", mock.Anything, mock.Anything, mock.Anything).
				Return(domain.Identity{ID: "id-1", Email: "ali@skole.no"}, nil)
			invites.On("RegisterWithInvite", mock.Anything, mock.Anything).
				Return(domain.Profile{}, errors.New("deadlock detected"))
			identity.On("Delete", mock.Anything, "id-1").Return(tt.deleteError)

			reg, err := service.Register(context.Background(), validRequest())

			assert.ErrorIs(t, err, tt.expected)
			assert.ErrorIs(t, err, domain.ErrProfileRegistration)
			assert.Equal(t, domain.StateAbandoned, reg.State)
			assert.Equal(t, domain.StateRegistered, reg.FailedAt)
			assert.Equal(t, tt.orphaned, reg.Orphaned())
			assert.Equal(t, !tt.orphaned, reg.Compensated)
			identity.AssertExpectations(t)
		})
	}
}

func TestInvitationService_Register_CompensationSurvivesCancelledRequest(t *testing.T) {
	invites := new(testutil.MockInviteRepository)
	identity := new(testutil.MockIdentityProvider)
	service := newInvitationService(invites, identity)

	ctx, cancel := context.WithCancel(context.Background())

	invites.On("GetInviteRole", mock.Anything, "ABC123").Return(domain.RoleLearner, nil)
	identity.On("SignUp", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.Identity{ID: "id-1", Email: "ali@skole.no"}, nil)
	invites.On("RegisterWithInvite", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(domain.Profile{}, context.Canceled)
	identity.On("Delete", mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil }), "id-1").Return(nil)

	reg, err := service.Register(ctx, validRequest())

	assert.Error(t, err)
	assert.True(t, reg.Compensated)
	identity.AssertExpectations(t)
}

func TestInvitationService_RegisterWithInvite_IsIdempotent(t *testing.T) {
	store := testutil.NewMemoryStore()
	store.AddInvite("ABC123", domain.RoleLearner, "class-1", true)
	service := newInvitationService(store, store)

	session := *testutil.NewTestSession("id-1")

	first, err := service.RegisterWithInvite(context.Background(), session, "ABC123", "Ali", "so")
	require.NoError(t, err)
	second, err := service.RegisterWithInvite(context.Background(), session, " ABC123 ", "Ali", "so")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.ProfileCount())
}

func TestInvitationService_RegisterWithInvite_RejectsSecondInvite(t *testing.T) {
	store := testutil.NewMemoryStore()
	store.AddInvite("LEARN1", domain.RoleLearner, "class-1", false)
	store.AddInvite("LEARN2", domain.RoleLearner, "class-2", false)
	service := newInvitationService(store, store)

	session := *testutil.NewTestSession("id-1")

	_, err := service.RegisterWithInvite(context.Background(), session, "LEARN1", "Ali", "")
	require.NoError(t, err)

	_, err = service.RegisterWithInvite(context.Background(), session, "LEARN2", "Ali", "")
	assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
	assert.Equal(t, 1, store.ProfileCount())
}

func TestInvitationService_Register_ConcurrentRedemptions(t *testing.T) {
	tests := []struct {
		name         string
		singleUse    bool
		users        int
		wantProfiles int
	}{
		{name: "single use invite is consumed once", singleUse: true, users: 10, wantProfiles: 1},
		{name: "multi use invite serves everyone", singleUse: false, users: 10, wantProfiles: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewMemoryStore()
			store.AddInvite("ABC123", domain.RoleLearner, "class-1", tt.singleUse)
			service := newInvitationService(store, store)

			var wg sync.WaitGroup
			var mu sync.Mutex
			succeeded, consumed := 0, 0

			for i := 0; i < tt.users; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					req := validRequest()
					req.Email = fmt.Sprintf("elev%d@skole.no", i)

					_, err := service.Register(context.Background(), req)

					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						succeeded++
					case errors.Is(err, domain.ErrInviteConsumed):
						consumed++
					default:
						t.Errorf("unexpected error: %v", err)
					}
				}(i)
			}
			wg.Wait()

			assert.Equal(t, tt.wantProfiles, succeeded)
			assert.Equal(t, tt.users-tt.wantProfiles, consumed)
			assert.Equal(t, tt.wantProfiles, store.ProfileCount())
			assert.Equal(t, tt.wantProfiles, store.IdentityCount(), "losing identities are compensated")
		})
	}
}

func TestInvitationService_Register_OrphanCanRecover(t *testing.T) {
	store := testutil.NewMemoryStore()
	store.AddInvite("ONCE01", domain.RoleLearner, "class-1", true)
	store.AddInvite("MULTI1", domain.RoleLearner, "class-1", false)
	store.FailDelete = true
	service := newInvitationService(store, store)

	first := validRequest()
	first.Code = "ONCE01"
	_, err := service.Register(context.Background(), first)
	require.NoError(t, err)

	second := validRequest()
	second.Code = "ONCE01"
	second.Email = "berit@skole.no"
	reg, err := service.Register(context.Background(), second)

	require.ErrorIs(t, err, domain.ErrOrphanedIdentity)
	require.True(t, reg.Orphaned())

	session := domain.Session{IdentityID: reg.IdentityID, Email: "berit@skole.no"}
	profile, err := service.RegisterWithInvite(context.Background(), session, "MULTI1", "Berit", "")

	assert.NoError(t, err)
	assert.Equal(t, reg.IdentityID, profile.ID)
	assert.Equal(t, 2, store.ProfileCount())
}

func TestInvitationService_CheckTransition(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	service := NewInvitationService(nil, nil, metrics.New(), zap.New(core))

	reg := domain.NewRegistration("ABC123")
	service.checkTransition(reg, reg.ResolveCode(domain.RoleLearner))
	assert.Equal(t, 0, logs.Len())

	service.checkTransition(reg, reg.Register(domain.Profile{ID: "id-1"}))

	entries := logs.FilterMessage("Registration state transition refused").All()
	require.Len(t, entries, 1)
	assert.Equal(t, string(domain.StateCodeResolved), entries[0].ContextMap()["state"])
	assert.Equal(t, domain.StateCodeResolved, reg.State)
}

func TestInvitationService_Register_TransitionsInOrder(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	store := testutil.NewMemoryStore()
	store.AddInvite("ABC123", domain.RoleLearner, "class-1", false)
	service := NewInvitationService(store, store, metrics.New(), zap.New(core))

	reg, err := service.Register(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, domain.StateRegistered, reg.State)
	assert.Equal(t, 0, logs.FilterMessage("Registration state transition refused").Len())
}
