package repository

import (
	"context"
	"time"

	"norgeskole/internal/domain"
)

// RegisterParams are the arguments of the register_with_invite procedure
type RegisterParams struct {
	Code       string
	IdentityID string
	Email      string
	Name       string
	L1         *string
	WantRole   domain.Role
}

// IdentityRepository stores authentication accounts
type IdentityRepository interface {
	CreateIdentity(ctx context.Context, email, passwordHash string) (domain.Identity, error)
	GetIdentityByEmail(ctx context.Context, email string) (*domain.Identity, error)
	DeleteIdentity(ctx context.Context, id string) error
	// DeleteOrphanIdentity deletes id only if it has no profile and reports whether it did
	DeleteOrphanIdentity(ctx context.Context, id string) (bool, error)
	// ListOrphanIdentities returns identities without a profile created before olderThan
	ListOrphanIdentities(ctx context.Context, olderThan time.Time) ([]domain.Identity, error)
}

// SessionRepository stores issued sessions so they can be revoked
type SessionRepository interface {
	CreateSession(ctx context.Context, session domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteIdentitySessions(ctx context.Context, identityID string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// ProfileRepository defines profile data operations
type ProfileRepository interface {
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate) (*domain.Profile, error)
	UpdateDifficulty(ctx context.Context, id string, level int) error
	ListLearners(ctx context.Context, classroomID string) ([]domain.Profile, error)
	CountLearners(ctx context.Context, classroomID string) (int, error)
}

// ClassroomRepository defines classroom data operations
type ClassroomRepository interface {
	CreateClassroom(ctx context.Context, name string) (domain.Classroom, error)
	ListClassrooms(ctx context.Context) ([]domain.Classroom, error)
	GetClassroom(ctx context.Context, id string) (*domain.Classroom, error)
	CountClassrooms(ctx context.Context) (int, error)
}

// InviteRepository covers invite links and the two invite procedures
type InviteRepository interface {
	GetInviteRole(ctx context.Context, code string) (domain.Role, error)
	RegisterWithInvite(ctx context.Context, params RegisterParams) (domain.Profile, error)
	CreateInvite(ctx context.Context, link domain.InviteLink) (domain.InviteLink, error)
	ListInvites(ctx context.Context) ([]domain.InviteLink, error)
	GetInvite(ctx context.Context, id string) (*domain.InviteLink, error)
	SetInviteActive(ctx context.Context, id string, active bool) error
	CountActiveInvites(ctx context.Context) (int, error)
}

// DailyWordRepository defines daily word data operations
type DailyWordRepository interface {
	CreateDailyWord(ctx context.Context, word domain.DailyWord) (domain.DailyWord, error)
	ApproveDailyWord(ctx context.Context, id string) error
	GetDailyWord(ctx context.Context, id string) (*domain.DailyWord, error)
	ListDailyWords(ctx context.Context, classroomID string, onlyApproved bool, limit int) ([]domain.DailyWord, error)
	CountDailyWordsSince(ctx context.Context, classroomID string, since time.Time) (int, error)
	AddLevelText(ctx context.Context, lt domain.LevelText) (domain.LevelText, error)
	AddTranslation(ctx context.Context, tr domain.Translation) (domain.Translation, error)
	AddPronunciation(ctx context.Context, p domain.Pronunciation) (domain.Pronunciation, error)
	AddTask(ctx context.Context, task domain.Task) (domain.Task, error)
	ListTasksSince(ctx context.Context, classroomID string, since time.Time) ([]domain.Task, error)
}

// TelegramLinkRepository maps Telegram chats to identities
type TelegramLinkRepository interface {
	LinkChat(ctx context.Context, chatID int64, identityID string) error
	GetChatIdentity(ctx context.Context, chatID int64) (string, error)
	UnlinkChat(ctx context.Context, chatID int64) error
}
