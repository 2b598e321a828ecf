// session владеет состоянием «текущий пользователь» как единым инжектируемым
// объектом с явным жизненным циклом: одна точка разрешения при старте,
// изменения только через Login/Signup/Logout, типизированные события вместо
// глобальных имён. Разнородные «user or null»-обёртки старых клиентов здесь
// сведены в один tagged-вариант: LoggedIn{user, expiry} | Anonymous.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/kruglovaa/go-journal-feed/internal/cache"
	"github.com/kruglovaa/go-journal-feed/internal/models"
	"github.com/kruglovaa/go-journal-feed/pkg/log"
)

// CacheKey — семантический ключ персистентной записи «текущая сессия».
const CacheKey = "session:current"

// ErrNotAuthenticated — действие требует активной сессии.
var ErrNotAuthenticated = errors.New("not authenticated")

// Session — tagged-вариант состояния сессии.
// Нулевое значение — Anonymous.
type Session struct {
	authenticated bool
	user          models.User
	expiresAt     time.Time
}

// Anonymous — сессия без пользователя.
func Anonymous() Session {
	return Session{}
}

// LoggedIn — активная сессия пользователя с абсолютным сроком годности.
func LoggedIn(user models.User, expiresAt time.Time) Session {
	return Session{authenticated: true, user: user, expiresAt: expiresAt}
}

// User возвращает пользователя активной сессии; ok=false для Anonymous.
func (s Session) User() (models.User, bool) {
	if !s.authenticated {
		return models.User{}, false
	}

	return s.user, true
}

// ExpiresAt — срок годности активной сессии (нулевое время для Anonymous).
func (s Session) ExpiresAt() time.Time {
	return s.expiresAt
}

// Active сообщает, действует ли сессия в момент now.
func (s Session) Active(now time.Time) bool {
	return s.authenticated && now.Before(s.expiresAt)
}

// persistedSession — форма записи в кэш-сторе.
type persistedSession struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"` // Unix UTC
}

// Manager — владелец текущей сессии.
type Manager struct {
	mu    sync.RWMutex
	cur   Session
	token string

	store      cache.Cache
	defaultTTL time.Duration
	bus        *bus

	// подменяется в тестах.
	now func() time.Time
}

// NewManager создаёт менеджер с Anonymous-сессией.
// Персистентное состояние поднимается отдельным явным вызовом Resolve.
func NewManager(store cache.Cache, defaultTTL time.Duration) *Manager {
	return &Manager{
		store:      store,
		defaultTTL: defaultTTL,
		bus:        newBus(),
		now:        time.Now,
	}
}

// Resolve — единственная точка восстановления сессии из персистентной записи.
// Просроченная, битая или отсутствующая запись даёт Anonymous; ошибка стора
// не фатальна — работаем дальше без сессии.
func (m *Manager) Resolve(ctx context.Context) Session {
	const op = "session.Resolve"

	var p persistedSession
	ok, err := m.store.Get(ctx, CacheKey, &p)
	if err != nil {
		log.From(ctx).Warn("session_restore_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)

		return m.Current()
	}

	if !ok {
		return m.Current()
	}

	user, expiresAt, perr := userFromPersisted(p)
	if perr != nil || !m.now().UTC().Before(expiresAt) {
		// Запись недействительна — убираем, чтобы не разбирать её снова.
		_ = m.store.Invalidate(ctx, CacheKey)
		return m.Current()
	}

	m.mu.Lock()
	m.cur = LoggedIn(user, expiresAt)
	m.token = p.AccessToken
	m.mu.Unlock()

	return m.Current()
}

// Current возвращает снимок текущей сессии.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.cur
}

// CurrentUser возвращает пользователя действующей сессии.
// ok=false и для Anonymous, и для истёкшей LoggedIn-сессии.
func (m *Manager) CurrentUser() (models.User, bool) {
	m.mu.RLock()
	cur := m.cur
	m.mu.RUnlock()

	if !cur.Active(m.now().UTC()) {
		return models.User{}, false
	}

	return cur.User()
}

// Login устанавливает сессию после входа и публикует EventLogin.
func (m *Manager) Login(ctx context.Context, user models.User, accessToken string) error {
	return m.establish(ctx, user, accessToken, EventLogin)
}

// Signup устанавливает сессию после регистрации и публикует EventSignup.
func (m *Manager) Signup(ctx context.Context, user models.User, accessToken string) error {
	return m.establish(ctx, user, accessToken, EventSignup)
}

// Logout сбрасывает сессию, удаляет персистентную запись и публикует EventLogout.
func (m *Manager) Logout(ctx context.Context) error {
	const op = "session.Logout"

	m.mu.Lock()
	user, wasAuthenticated := m.cur.User()
	m.cur = Anonymous()
	m.token = ""
	m.mu.Unlock()

	if err := m.store.Invalidate(ctx, CacheKey); err != nil {
		log.From(ctx).Warn("session_invalidate_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}

	if wasAuthenticated {
		m.bus.publish(Event{Kind: EventLogout, User: user})
	}

	return nil
}

// Subscribe подписывает на события жизненного цикла сессии.
// Возвращённая функция отменяет подписку и закрывает канал.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	return m.bus.subscribe()
}

// Close отменяет все подписки.
func (m *Manager) Close() {
	m.bus.close()
}

func (m *Manager) establish(ctx context.Context, user models.User, accessToken string, kind EventKind) error {
	const op = "session.establish"

	now := m.now().UTC()

	// Срок сессии берём из claims access-токена; нечитаемый токен — не
	// причина отказывать во входе, падаем на настроенный TTL.
	expiresAt, err := tokenExpiry(accessToken)
	if err != nil || !expiresAt.After(now) {
		expiresAt = now.Add(m.defaultTTL)
	}

	m.mu.Lock()
	m.cur = LoggedIn(user, expiresAt)
	m.token = accessToken
	m.mu.Unlock()

	p := persistedSession{
		UserID:      user.ID.String(),
		Username:    user.Username,
		AvatarURL:   user.AvatarURL,
		AccessToken: accessToken,
		ExpiresAt:   expiresAt.Unix(),
	}

	if err := m.store.Set(ctx, CacheKey, p, expiresAt.Sub(now)); err != nil {
		log.From(ctx).Warn("session_persist_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}

	m.bus.publish(Event{Kind: kind, User: user})

	return nil
}
