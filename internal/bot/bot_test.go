package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"norgeskole/internal/domain"
	"norgeskole/internal/middleware"
	"norgeskole/internal/service"
	"norgeskole/internal/testutil"
)

// fakeContext implements the parts of tele.Context the handlers touch
type fakeContext struct {
	tele.Context
	sender  *tele.User
	text    string
	sent    []string
	deleted bool
	store   map[string]any
}

func newFakeContext(chatID int64, text string) *fakeContext {
	return &fakeContext{sender: &tele.User{ID: chatID}, text: text, store: map[string]any{}}
}

func (f *fakeContext) Sender() *tele.User {
	return f.sender
}

func (f *fakeContext) Text() string {
	return f.text
}

func (f *fakeContext) Callback() *tele.Callback {
	return nil
}

func (f *fakeContext) Get(key string) any {
	return f.store[key]
}

func (f *fakeContext) Set(key string, v any) {
	f.store[key] = v
}

func (f *fakeContext) Send(what any, _ ...any) error {
	f.sent = append(f.sent, what.(string))
	return nil
}

func (f *fakeContext) Delete() error {
	f.deleted = true
	return nil
}

func (f *fakeContext) last() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type mockWords struct {
	mock.Mock
}

func (m *mockWords) ListForLearner(ctx context.Context, learner domain.Profile) ([]domain.DailyWord, error) {
	args := m.Called(ctx, learner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DailyWord), args.Error(1)
}

func (m *mockWords) GetForLearner(ctx context.Context, learner domain.Profile, id string) (*service.LearnerWord, error) {
	args := m.Called(ctx, learner, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LearnerWord), args.Error(1)
}

type fixture struct {
	handler  *Handler
	identity *testutil.MockIdentityProvider
	profiles *testutil.MockProfileRepository
	words    *mockWords
	links    *testutil.MockTelegramLinkRepository
}

func newFixture() fixture {
	f := fixture{
		identity: new(testutil.MockIdentityProvider),
		profiles: new(testutil.MockProfileRepository),
		words:    new(mockWords),
		links:    new(testutil.MockTelegramLinkRepository),
	}
	f.handler = NewHandler(nil, f.identity, f.profiles, f.words, f.links, testutil.NewTestLogger())
	return f
}

func TestCleanCallbackData(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "normal string", input: "word_1", expected: "word_1"},
		{name: "string with whitespace", input: "  word_1  ", expected: "word_1"},
		{name: "telebot unique prefix", input: "\fword_1", expected: "word_1"},
		{name: "string with tab", input: "word\t_1", expected: "word_1"},
		{name: "empty string", input: "", expected: ""},
		{name: "string with unprintable characters", input: "word\x00_1\x01", expected: "word_1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanCallbackData(tt.input))
		})
	}
}

func TestFormatWord(t *testing.T) {
	theme := "Mat"
	word := service.LearnerWord{
		Word:        domain.DailyWord{Norwegian: "eple", Date: time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), Theme: &theme},
		LevelText:   &domain.LevelText{Text: "Et rødt eple."},
		Translation: &domain.Translation{Text: "apple"},
	}

	assert.Equal(t, "📖 eple\n📅 14.03.2024\n🏷 Mat\n\nEt rødt eple.\n\n🌍 apple", formatWord(word))

	word.Word.Theme = nil
	word.LevelText = nil
	word.Translation = nil
	assert.Equal(t, "📖 eple\n📅 14.03.2024", formatWord(word))
}

func TestHandler_SignInLinksLearner(t *testing.T) {
	f := newFixture()
	session := testutil.NewTestSession("id-1")

	f.links.On("GetChatIdentity", mock.Anything, int64(7)).Return("", nil)
	f.identity.On("SignIn", mock.Anything, "ola@skole.no", "hemmelig").Return(*session, nil)
	f.identity.On("SignOut", mock.Anything, session.ID).Return(nil)
	f.profiles.On("GetProfile", mock.Anything, "id-1").Return(testutil.NewTestProfile("id-1", domain.RoleLearner), nil)
	f.links.On("LinkChat", mock.Anything, int64(7), "id-1").Return(nil)

	c := newFakeContext(7, "/start")
	require.NoError(t, f.handler.handleStart(c))
	assert.Equal(t, stepWaitingEmail, f.handler.GetState(7).Step)

	c.text = "ola@skole.no"
	require.NoError(t, f.handler.handleText(c))
	assert.Equal(t, stepWaitingPassword, f.handler.GetState(7).Step)

	c.text = "hemmelig"
	require.NoError(t, f.handler.handleText(c))

	assert.True(t, c.deleted)
	assert.Contains(t, c.last(), "Du er logget inn")
	assert.Equal(t, stepIdle, f.handler.GetState(7).Step)
	f.links.AssertExpectations(t)
	f.identity.AssertExpectations(t)
}

func TestHandler_SignInRejects(t *testing.T) {
	tests := []struct {
		name      string
		signInErr error
		role      domain.Role
		reply     string
		nextStep  loginStep
	}{
		{name: "wrong password", signInErr: domain.ErrInvalidCredentials, reply: "Feil e-post eller passord", nextStep: stepWaitingEmail},
		{name: "identity service down", signInErr: errors.New("timeout"), reply: errorMessage, nextStep: stepIdle},
		{name: "teacher account", role: domain.RoleTeacher, reply: "bare for elever", nextStep: stepIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			session := testutil.NewTestSession("id-1")
			if tt.signInErr != nil {
				f.identity.On("SignIn", mock.Anything, "ola@skole.no", "pw").Return(domain.Session{}, tt.signInErr)
			} else {
				f.identity.On("SignIn", mock.Anything, "ola@skole.no", "pw").Return(*session, nil)
				f.identity.On("SignOut", mock.Anything, session.ID).Return(nil)
				f.profiles.On("GetProfile", mock.Anything, "id-1").Return(testutil.NewTestProfile("id-1", tt.role), nil)
			}

			f.handler.SetState(7, &loginState{Step: stepWaitingPassword, Email: "ola@skole.no"})
			c := newFakeContext(7, "pw")

			require.NoError(t, f.handler.handleText(c))

			assert.Contains(t, c.last(), tt.reply)
			assert.Equal(t, tt.nextStep, f.handler.GetState(7).Step)
			f.links.AssertNotCalled(t, "LinkChat", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_Today(t *testing.T) {
	f := newFixture()
	learner := testutil.NewTestProfile("id-1", domain.RoleLearner)
	word := testutil.NewTestDailyWord("w-1", "eple", true)

	f.profiles.On("GetProfile", mock.Anything, "id-1").Return(learner, nil)
	f.words.On("ListForLearner", mock.Anything, *learner).Return([]domain.DailyWord{*word}, nil)
	f.words.On("GetForLearner", mock.Anything, *learner, "w-1").Return(&service.LearnerWord{Word: *word}, nil)

	c := newFakeContext(7, "")
	c.Set(middleware.ChatIdentityKey, "id-1")

	require.NoError(t, f.handler.handleToday(c))

	assert.Equal(t, formatWord(service.LearnerWord{Word: *word}), c.last())
}

func TestHandler_TodayWithoutWords(t *testing.T) {
	f := newFixture()
	learner := testutil.NewTestProfile("id-1", domain.RoleLearner)

	f.profiles.On("GetProfile", mock.Anything, "id-1").Return(learner, nil)
	f.words.On("ListForLearner", mock.Anything, *learner).Return([]domain.DailyWord{}, nil)

	c := newFakeContext(7, "")
	c.Set(middleware.ChatIdentityKey, "id-1")

	require.NoError(t, f.handler.handleToday(c))

	assert.Equal(t, "Ingen ord ennå", c.last())
	f.words.AssertNotCalled(t, "GetForLearner", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Logout(t *testing.T) {
	f := newFixture()
	f.links.On("UnlinkChat", mock.Anything, int64(7)).Return(nil)

	c := newFakeContext(7, "")
	require.NoError(t, f.handler.handleLogout(c))

	assert.Contains(t, c.last(), "logget ut")
	f.links.AssertExpectations(t)
}
