package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"norgeskole/internal/domain"
	"norgeskole/internal/repository"
)

// MockIdentityRepository is a mock for IdentityRepository
type MockIdentityRepository struct {
	mock.Mock
}

func (m *MockIdentityRepository) CreateIdentity(ctx context.Context, email, passwordHash string) (domain.Identity, error) {
	args := m.Called(ctx, email, passwordHash)
	return args.Get(0).(domain.Identity), args.Error(1)
}

func (m *MockIdentityRepository) GetIdentityByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

func (m *MockIdentityRepository) DeleteIdentity(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockIdentityRepository) DeleteOrphanIdentity(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdentityRepository) ListOrphanIdentities(ctx context.Context, olderThan time.Time) ([]domain.Identity, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Identity), args.Error(1)
}

// MockSessionRepository is a mock for SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) CreateSession(ctx context.Context, session domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) DeleteSession(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteIdentitySessions(ctx context.Context, identityID string) error {
	args := m.Called(ctx, identityID)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockProfileRepository is a mock for ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockProfileRepository) UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate) (*domain.Profile, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockProfileRepository) UpdateDifficulty(ctx context.Context, id string, level int) error {
	args := m.Called(ctx, id, level)
	return args.Error(0)
}

func (m *MockProfileRepository) ListLearners(ctx context.Context, classroomID string) ([]domain.Profile, error) {
	args := m.Called(ctx, classroomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Profile), args.Error(1)
}

func (m *MockProfileRepository) CountLearners(ctx context.Context, classroomID string) (int, error) {
	args := m.Called(ctx, classroomID)
	return args.Int(0), args.Error(1)
}

// MockClassroomRepository is a mock for ClassroomRepository
type MockClassroomRepository struct {
	mock.Mock
}

func (m *MockClassroomRepository) CreateClassroom(ctx context.Context, name string) (domain.Classroom, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(domain.Classroom), args.Error(1)
}

func (m *MockClassroomRepository) ListClassrooms(ctx context.Context) ([]domain.Classroom, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Classroom), args.Error(1)
}

func (m *MockClassroomRepository) GetClassroom(ctx context.Context, id string) (*domain.Classroom, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Classroom), args.Error(1)
}

func (m *MockClassroomRepository) CountClassrooms(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockInviteRepository is a mock for InviteRepository
type MockInviteRepository struct {
	mock.Mock
}

func (m *MockInviteRepository) GetInviteRole(ctx context.Context, code string) (domain.Role, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(domain.Role), args.Error(1)
}

func (m *MockInviteRepository) RegisterWithInvite(ctx context.Context, params repository.RegisterParams) (domain.Profile, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(domain.Profile), args.Error(1)
}

func (m *MockInviteRepository) CreateInvite(ctx context.Context, link domain.InviteLink) (domain.InviteLink, error) {
	args := m.Called(ctx, link)
	return args.Get(0).(domain.InviteLink), args.Error(1)
}

func (m *MockInviteRepository) ListInvites(ctx context.Context) ([]domain.InviteLink, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InviteLink), args.Error(1)
}

func (m *MockInviteRepository) GetInvite(ctx context.Context, id string) (*domain.InviteLink, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InviteLink), args.Error(1)
}

func (m *MockInviteRepository) SetInviteActive(ctx context.Context, id string, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockInviteRepository) CountActiveInvites(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockDailyWordRepository is a mock for DailyWordRepository
type MockDailyWordRepository struct {
	mock.Mock
}

func (m *MockDailyWordRepository) CreateDailyWord(ctx context.Context, word domain.DailyWord) (domain.DailyWord, error) {
	args := m.Called(ctx, word)
	return args.Get(0).(domain.DailyWord), args.Error(1)
}

func (m *MockDailyWordRepository) ApproveDailyWord(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDailyWordRepository) GetDailyWord(ctx context.Context, id string) (*domain.DailyWord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DailyWord), args.Error(1)
}

func (m *MockDailyWordRepository) ListDailyWords(ctx context.Context, classroomID string, onlyApproved bool, limit int) ([]domain.DailyWord, error) {
	args := m.Called(ctx, classroomID, onlyApproved, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DailyWord), args.Error(1)
}

func (m *MockDailyWordRepository) CountDailyWordsSince(ctx context.Context, classroomID string, since time.Time) (int, error) {
	args := m.Called(ctx, classroomID, since)
	return args.Int(0), args.Error(1)
}

func (m *MockDailyWordRepository) AddLevelText(ctx context.Context, lt domain.LevelText) (domain.LevelText, error) {
	args := m.Called(ctx, lt)
	return args.Get(0).(domain.LevelText), args.Error(1)
}

func (m *MockDailyWordRepository) AddTranslation(ctx context.Context, tr domain.Translation) (domain.Translation, error) {
	args := m.Called(ctx, tr)
	return args.Get(0).(domain.Translation), args.Error(1)
}

func (m *MockDailyWordRepository) AddPronunciation(ctx context.Context, p domain.Pronunciation) (domain.Pronunciation, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Pronunciation), args.Error(1)
}

func (m *MockDailyWordRepository) AddTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	args := m.Called(ctx, task)
	return args.Get(0).(domain.Task), args.Error(1)
}

func (m *MockDailyWordRepository) ListTasksSince(ctx context.Context, classroomID string, since time.Time) ([]domain.Task, error) {
	args := m.Called(ctx, classroomID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Task), args.Error(1)
}

// MockTelegramLinkRepository is a mock for TelegramLinkRepository
type MockTelegramLinkRepository struct {
	mock.Mock
}

func (m *MockTelegramLinkRepository) LinkChat(ctx context.Context, chatID int64, identityID string) error {
	args := m.Called(ctx, chatID, identityID)
	return args.Error(0)
}

func (m *MockTelegramLinkRepository) GetChatIdentity(ctx context.Context, chatID int64) (string, error) {
	args := m.Called(ctx, chatID)
	return args.String(0), args.Error(1)
}

func (m *MockTelegramLinkRepository) UnlinkChat(ctx context.Context, chatID int64) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

// MockIdentityProvider is a mock for the identity service
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) SignUp(ctx context.Context, email, password string) (domain.Identity, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(domain.Identity), args.Error(1)
}

func (m *MockIdentityProvider) SignIn(ctx context.Context, email, password string) (domain.Session, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(domain.Session), args.Error(1)
}

func (m *MockIdentityProvider) SignOut(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockIdentityProvider) Resolve(ctx context.Context, token string) (domain.Session, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(domain.Session), args.Error(1)
}

func (m *MockIdentityProvider) Delete(ctx context.Context, identityID string) error {
	args := m.Called(ctx, identityID)
	return args.Error(0)
}

func (m *MockIdentityProvider) DeleteOrphan(ctx context.Context, identityID string) (bool, error) {
	args := m.Called(ctx, identityID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdentityProvider) ListOrphans(ctx context.Context, grace time.Duration) ([]domain.Identity, error) {
	args := m.Called(ctx, grace)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Identity), args.Error(1)
}

func (m *MockIdentityProvider) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockMailer is a mock for Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendInvite(ctx context.Context, to, inviteURL string, role domain.Role) error {
	args := m.Called(ctx, to, inviteURL, role)
	return args.Error(0)
}
