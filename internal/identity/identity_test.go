package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"norgeskole/internal/domain"
	"norgeskole/internal/events"
	"norgeskole/internal/testutil"
)

const testSecret = "test-secret"

func newTestService() (*Service, *testutil.MockIdentityRepository, *testutil.MockSessionRepository, *events.MemoryBus) {
	identities := new(testutil.MockIdentityRepository)
	sessions := new(testutil.MockSessionRepository)
	bus := events.NewMemoryBus(4, testutil.NewTestLogger())

	svc := NewService(identities, sessions, bus, testSecret, "norgeskole", time.Hour, testutil.NewTestLogger())
	svc.cost = bcrypt.MinCost
	return svc, identities, sessions, bus
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestService_SignUp(t *testing.T) {
	svc, identities, _, _ := newTestService()

	identities.On("CreateIdentity", mock.Anything, "kari@skole.no", mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("hemmelig")) == nil
	})).Return(domain.Identity{ID: "id-1", Email: "kari@skole.no"}, nil)

	identity, err := svc.SignUp(context.Background(), "  Kari@Skole.no ", "hemmelig")

	require.NoError(t, err)
	assert.Equal(t, "id-1", identity.ID)
	identities.AssertExpectations(t)
}

func TestService_SignUp_Errors(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		mockCall  bool
		mockError error
		wantErr   error
		fields    int
	}{
		{name: "bad email and short password", email: "kari", password: "123", wantErr: domain.ErrValidation, fields: 2},
		{name: "short password", email: "kari@skole.no", password: "12345", wantErr: domain.ErrValidation, fields: 1},
		{name: "email taken", email: "kari@skole.no", password: "hemmelig", mockCall: true, mockError: domain.ErrEmailTaken, wantErr: domain.ErrEmailTaken},
		{name: "store failure", email: "kari@skole.no", password: "hemmelig", mockCall: true, mockError: errors.New("db down"), wantErr: domain.ErrIdentityCreation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, identities, _, _ := newTestService()
			if tt.mockCall {
				identities.On("CreateIdentity", mock.Anything, tt.email, mock.Anything).Return(domain.Identity{}, tt.mockError)
			}

			_, err := svc.SignUp(context.Background(), tt.email, tt.password)

			assert.ErrorIs(t, err, tt.wantErr)
			if tt.fields > 0 {
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Len(t, verr.Fields, tt.fields)
			}
			if !tt.mockCall {
				identities.AssertNotCalled(t, "CreateIdentity", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestService_SignInAndResolve(t *testing.T) {
	svc, identities, sessions, bus := newTestService()

	identities.On("GetIdentityByEmail", mock.Anything, "kari@skole.no").
		Return(&domain.Identity{ID: "id-1", Email: "kari@skole.no", PasswordHash: hashed(t, "hemmelig")}, nil)

	var stored domain.Session
	sessions.On("CreateSession", mock.Anything, mock.AnythingOfType("domain.Session")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(domain.Session) }).
		Return(nil)

	updates, release := bus.Subscribe("id-1")
	defer release()

	session, err := svc.SignIn(context.Background(), "KARI@skole.no", "hemmelig")
	require.NoError(t, err)
	assert.Equal(t, "id-1", session.IdentityID)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, stored.ID, session.ID)

	select {
	case e := <-updates:
		assert.Equal(t, events.SignedIn, e.Kind)
	case <-time.After(time.Second):
		t.Fatal("no sign-in event")
	}

	stored.Token = ""
	sessions.On("GetSession", mock.Anything, session.ID).Return(&stored, nil)

	resolved, err := svc.Resolve(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, "id-1", resolved.IdentityID)
	assert.Equal(t, session.Token, resolved.Token)
}

func TestService_SignIn_InvalidCredentials(t *testing.T) {
	tests := []struct {
		name     string
		identity *domain.Identity
		password string
	}{
		{name: "unknown email", password: "hemmelig"},
		{name: "wrong password", identity: &domain.Identity{ID: "id-1", PasswordHash: "$2a$04$invalidinvalidinvalidinvalidinvalidinvalidinvalidinva"}, password: "feil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, identities, sessions, _ := newTestService()
			identities.On("GetIdentityByEmail", mock.Anything, "kari@skole.no").Return(tt.identity, nil)

			_, err := svc.SignIn(context.Background(), "kari@skole.no", tt.password)

			assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
			sessions.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
		})
	}
}

func TestService_Resolve_Rejects(t *testing.T) {
	svc, _, sessions, _ := newTestService()
	now := time.Now().UTC()

	valid, err := newToken([]byte(testSecret), "norgeskole", "id-1", "sid-1", "kari@skole.no", now, now.Add(time.Hour))
	require.NoError(t, err)
	otherIssuer, err := newToken([]byte(testSecret), "someone-else", "id-1", "sid-1", "kari@skole.no", now, now.Add(time.Hour))
	require.NoError(t, err)
	wrongKey, err := newToken([]byte("other-secret"), "norgeskole", "id-1", "sid-1", "kari@skole.no", now, now.Add(time.Hour))
	require.NoError(t, err)
	expired, err := newToken([]byte(testSecret), "norgeskole", "id-1", "sid-1", "kari@skole.no", now.Add(-2*time.Hour), now.Add(-time.Hour))
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{SessionID: "sid-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	t.Run("malformed tokens", func(t *testing.T) {
		for _, token := range []string{"", "garbage", otherIssuer, wrongKey, expired, unsigned} {
			_, err := svc.Resolve(context.Background(), token)
			assert.ErrorIs(t, err, domain.ErrAuthorization)
		}
		sessions.AssertNotCalled(t, "GetSession", mock.Anything, mock.Anything)
	})

	t.Run("revoked session", func(t *testing.T) {
		sessions.On("GetSession", mock.Anything, "sid-1").Return(nil, nil).Once()
		_, err := svc.Resolve(context.Background(), valid)
		assert.ErrorIs(t, err, domain.ErrAuthorization)
	})

	t.Run("session of another identity", func(t *testing.T) {
		sessions.On("GetSession", mock.Anything, "sid-1").
			Return(&domain.Session{ID: "sid-1", IdentityID: "id-2", ExpiresAt: now.Add(time.Hour)}, nil).Once()
		_, err := svc.Resolve(context.Background(), valid)
		assert.ErrorIs(t, err, domain.ErrAuthorization)
	})

	t.Run("store failure", func(t *testing.T) {
		sessions.On("GetSession", mock.Anything, "sid-1").Return(nil, errors.New("db down")).Once()
		_, err := svc.Resolve(context.Background(), valid)
		assert.ErrorIs(t, err, domain.ErrRemote)
	})
}

func TestService_SignOut(t *testing.T) {
	svc, _, sessions, bus := newTestService()

	sessions.On("GetSession", mock.Anything, "sid-1").Return(&domain.Session{ID: "sid-1", IdentityID: "id-1"}, nil)
	sessions.On("DeleteSession", mock.Anything, "sid-1").Return(nil)
	sessions.On("GetSession", mock.Anything, "sid-gone").Return(nil, nil)

	updates, release := bus.Subscribe("id-1")
	defer release()

	require.NoError(t, svc.SignOut(context.Background(), "sid-1"))
	assert.Equal(t, events.SignedOut, (<-updates).Kind)

	require.NoError(t, svc.SignOut(context.Background(), "sid-gone"))
	sessions.AssertNumberOfCalls(t, "DeleteSession", 1)
}

func TestService_Delete(t *testing.T) {
	tests := []struct {
		name         string
		sessionError error
		deleteError  error
		wantErr      error
	}{
		{name: "removes identity"},
		{name: "sessions fail", sessionError: errors.New("db"), wantErr: errors.New("db")},
		{name: "identity missing", deleteError: domain.ErrNotFound, wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, identities, sessions, _ := newTestService()
			sessions.On("DeleteIdentitySessions", mock.Anything, "id-1").Return(tt.sessionError)
			identities.On("DeleteIdentity", mock.Anything, "id-1").Return(tt.deleteError).Maybe()

			err := svc.Delete(context.Background(), "id-1")

			if tt.wantErr == nil {
				assert.NoError(t, err)
				identities.AssertExpectations(t)
				return
			}
			assert.Error(t, err)
			if errors.Is(tt.wantErr, domain.ErrNotFound) {
				assert.ErrorIs(t, err, domain.ErrNotFound)
			}
		})
	}
}

func TestService_DeleteOrphan(t *testing.T) {
	tests := []struct {
		name        string
		deleted     bool
		deleteError error
		wantEvent   bool
		wantErr     bool
	}{
		{name: "still orphaned", deleted: true, wantEvent: true},
		{name: "registered in the meantime", deleted: false},
		{name: "db error", deleteError: errors.New("db"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, identities, sessions, bus := newTestService()
			identities.On("DeleteOrphanIdentity", mock.Anything, "id-1").Return(tt.deleted, tt.deleteError)
			updates, release := bus.Subscribe("id-1")
			defer release()

			deleted, err := svc.DeleteOrphan(context.Background(), "id-1")

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.deleted, deleted)
			sessions.AssertNotCalled(t, "DeleteIdentitySessions", mock.Anything, mock.Anything)
			identities.AssertNotCalled(t, "DeleteIdentity", mock.Anything, mock.Anything)

			if tt.wantEvent {
				e := <-updates
				assert.Equal(t, events.SignedOut, e.Kind)
			} else {
				assert.Len(t, updates, 0)
			}
		})
	}
}

func TestService_ListOrphans(t *testing.T) {
	svc, identities, _, _ := newTestService()
	now := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	orphans := []domain.Identity{{ID: "o-1"}}
	identities.On("ListOrphanIdentities", mock.Anything, now.Add(-time.Hour)).Return(orphans, nil)

	got, err := svc.ListOrphans(context.Background(), time.Hour)

	require.NoError(t, err)
	assert.Equal(t, orphans, got)
}
