package bot

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"norgeskole/internal/domain"
	"norgeskole/internal/middleware"
	"norgeskole/internal/repository"
	"norgeskole/internal/service"
)

const (
	requestTimeout = 10 * time.Second
	errorMessage   = "Noe gikk galt. Prøv igjen senere."
)

// Authenticator signs learners in with their web credentials
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (domain.Session, error)
	SignOut(ctx context.Context, sessionID string) error
}

// Profiles loads the profile of a linked identity
type Profiles interface {
	GetProfile(ctx context.Context, identityID string) (*domain.Profile, error)
}

// Words returns the daily words a learner may see
type Words interface {
	ListForLearner(ctx context.Context, learner domain.Profile) ([]domain.DailyWord, error)
	GetForLearner(ctx context.Context, learner domain.Profile, id string) (*service.LearnerWord, error)
}

// loginStep is where a chat is in the sign-in conversation
type loginStep string

const (
	stepIdle            loginStep = "idle"
	stepWaitingEmail    loginStep = "waiting_email"
	stepWaitingPassword loginStep = "waiting_password"
)

// loginState holds what the chat has typed so far
type loginState struct {
	Step  loginStep
	Email string
}

// Handler manages all bot interactions
type Handler struct {
	bot      *tele.Bot
	identity Authenticator
	profiles Profiles
	words    Words
	links    repository.TelegramLinkRepository
	logger   *zap.Logger

	states   map[int64]*loginState
	stateMux sync.RWMutex
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	identity Authenticator,
	profiles Profiles,
	words Words,
	links repository.TelegramLinkRepository,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:      bot,
		identity: identity,
		profiles: profiles,
		words:    words,
		links:    links,
		logger:   logger,
		states:   make(map[int64]*loginState),
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle(tele.OnText, h.handleText)

	linked := h.bot.Group()
	linked.Use(middleware.LinkedChat(h.links, h.logger))
	linked.Handle(&btnToday, h.handleToday)
	linked.Handle(&btnRecent, h.handleRecent)
	linked.Handle(&btnMenu, h.handleMenu)
	linked.Handle(&btnLogout, h.handleLogout)
	linked.Handle(tele.OnCallback, h.handleCallback)
}

// GetState returns the chat's current login state
func (h *Handler) GetState(chatID int64) *loginState {
	h.stateMux.RLock()
	defer h.stateMux.RUnlock()

	state, exists := h.states[chatID]
	if !exists {
		return &loginState{Step: stepIdle}
	}
	return state
}

// SetState sets the chat's login state
func (h *Handler) SetState(chatID int64, state *loginState) {
	h.stateMux.Lock()
	defer h.stateMux.Unlock()
	h.states[chatID] = state
}

// ResetState forgets anything typed during sign-in
func (h *Handler) ResetState(chatID int64) {
	h.stateMux.Lock()
	defer h.stateMux.Unlock()
	delete(h.states, chatID)
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// learner loads the profile of the identity LinkedChat put in the context
func (h *Handler) learner(ctx context.Context, c tele.Context) (*domain.Profile, error) {
	identityID, _ := c.Get(middleware.ChatIdentityKey).(string)
	return h.profiles.GetProfile(ctx, identityID)
}

var (
	btnToday = tele.Btn{
		Unique: "today",
		Text:   "📖 Dagens ord",
	}
	btnRecent = tele.Btn{
		Unique: "recent",
		Text:   "📚 Siste ord",
	}
	btnLogout = tele.Btn{
		Unique: "logout",
		Text:   "🚪 Logg ut",
	}
	btnMenu = tele.Btn{
		Unique: "menu",
		Text:   "🏠 Meny",
	}
)

// mainMenuMarkup returns the main menu keyboard
func mainMenuMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(btnToday),
		menu.Row(btnRecent),
		menu.Row(btnLogout),
	)
	return menu
}
