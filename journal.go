// journal — фасад фид-ядра клиентской подсистемы платформы: собирает кэш,
// HTTP-клиент, сессию, нормализованный стор и контроллеры лент в один объект
// с явным жизненным циклом.
//
// Типовое использование:
//
//	cfg := config.MustLoad("")
//	client, err := journal.New(*cfg)
//	...
//	latest := client.Feed("latest")
//	_ = latest.Load(ctx)
package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kruglovaa/go-journal-feed/internal/api"
	"github.com/kruglovaa/go-journal-feed/internal/cache"
	"github.com/kruglovaa/go-journal-feed/internal/comments"
	"github.com/kruglovaa/go-journal-feed/internal/config"
	"github.com/kruglovaa/go-journal-feed/internal/engage"
	"github.com/kruglovaa/go-journal-feed/internal/feed"
	"github.com/kruglovaa/go-journal-feed/internal/metrics"
	"github.com/kruglovaa/go-journal-feed/internal/models"
	"github.com/kruglovaa/go-journal-feed/internal/session"
	"github.com/kruglovaa/go-journal-feed/internal/store"
	"github.com/kruglovaa/go-journal-feed/pkg/log"
)

// ErrAuthRequired — операция фасада требует активной сессии.
var ErrAuthRequired = errors.New("authentication required")

// Client — фасад подсистемы.
type Client struct {
	cfg config.Config

	cache   cache.Cache
	api     api.Client
	session *session.Manager
	store   *store.Store
	metrics *metrics.Metrics
	engage  *engage.Engine

	mu      sync.Mutex
	feeds   map[string]*feed.Controller
	threads map[uuid.UUID]*comments.Thread
}

// New собирает подсистему из конфигурации.
// Непустой cache.path включает персистентный SQLite-кэш (и переживание
// сессии между запусками); пустой — кэш в памяти.
func New(cfg config.Config) (*Client, error) {
	const op = "journal.New"

	var (
		c   cache.Cache
		err error
	)
	if cfg.Cache.Path != "" {
		c, err = cache.NewSQLite(cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else {
		c = cache.NewMemory()
	}

	apiClient := api.NewHTTP(cfg.API.BaseURL, cfg.API.UserAgent, &http.Client{
		Timeout: cfg.API.Timeout,
	})

	sess := session.NewManager(c, cfg.Session.TTL)
	st := store.New()
	m := metrics.New()

	return &Client{
		cfg:     cfg,
		cache:   c,
		api:     apiClient,
		session: sess,
		store:   st,
		metrics: m,
		engage:  engage.New(apiClient, st, sess, m),
		feeds:   make(map[string]*feed.Controller),
		threads: make(map[uuid.UUID]*comments.Thread),
	}, nil
}

// Resolve восстанавливает сессию из персистентного кэша.
// Вызывается один раз при старте, до первых загрузок лент.
func (c *Client) Resolve(ctx context.Context) session.Session {
	return c.session.Resolve(ctx)
}

// Session — менеджер текущей сессии.
func (c *Client) Session() *session.Manager {
	return c.session
}

// Engage — движок оптимистичных взаимодействий с записями.
func (c *Client) Engage() *engage.Engine {
	return c.engage
}

// Feed возвращает контроллер именованной ленты, создавая его при первом
// обращении. Все ленты делят один нормализованный стор: мутация записи
// видна в каждой из них без ручного fan-out.
func (c *Client) Feed(view string) *feed.Controller {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ctrl, ok := c.feeds[view]; ok {
		return ctrl
	}

	ctrl := feed.New(feed.Options{
		API:        c.api,
		Store:      c.store,
		Cache:      c.cache,
		Session:    c.session,
		Metrics:    c.metrics,
		View:       view,
		Limit:      c.cfg.Limits.Default,
		FeedTTL:    c.cfg.Cache.FeedTTL,
		TopListTTL: c.cfg.Cache.TopListTTL,
	})
	c.feeds[view] = ctrl

	return ctrl
}

// Thread возвращает тред комментариев записи, создавая его при первом
// обращении.
func (c *Client) Thread(entryID uuid.UUID) *comments.Thread {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.threads[entryID]; ok {
		return t
	}

	t := comments.NewThread(c.api, c.session, c.metrics, entryID, c.cfg.Limits.Default)
	c.threads[entryID] = t

	return t
}

// cachedEntry — форма кэшированной записи по slug.
type cachedEntry struct {
	Entry models.Entry `json:"entry"`
}

// EntryBySlug возвращает запись по slug: сначала локальный кэш, затем сеть.
// Найденная запись кладётся в стор, так что дальнейшие лайки и сохранения
// применяются к ней наравне с записями из лент.
func (c *Client) EntryBySlug(ctx context.Context, slug string) (*models.Entry, error) {
	const op = "journal.EntryBySlug"

	key := "entry:" + slug

	var cached cachedEntry
	ok, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		log.From(ctx).Warn("cache_read_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}
	if ok {
		c.metrics.CacheHits.Inc()
		c.store.Upsert(cached.Entry)

		entry := cached.Entry

		return &entry, nil
	}

	c.metrics.CacheMisses.Inc()

	viewer := uuid.Nil
	if u, active := c.session.CurrentUser(); active {
		viewer = u.ID
	}

	entry, err := c.api.EntryBySlug(ctx, slug, viewer)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.store.Upsert(*entry)

	if err := c.cache.Set(ctx, key, cachedEntry{Entry: *entry}, c.cfg.Cache.EntryTTL); err != nil {
		log.From(ctx).Warn("cache_write_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}

	return entry, nil
}

// SubscriptionStatus сообщает, подписан ли текущий пользователь на автора.
// Аноним никогда не подписан; сеть при этом не трогается.
func (c *Client) SubscriptionStatus(ctx context.Context, authorID uuid.UUID) (bool, error) {
	user, ok := c.session.CurrentUser()
	if !ok {
		return false, nil
	}

	return c.api.SubscriptionStatus(ctx, authorID, user.ID)
}

// ToggleSubscription переключает подписку текущего пользователя на автора.
func (c *Client) ToggleSubscription(ctx context.Context, authorID uuid.UUID) (bool, error) {
	const op = "journal.ToggleSubscription"

	user, ok := c.session.CurrentUser()
	if !ok {
		return false, fmt.Errorf("%s: %w", op, ErrAuthRequired)
	}

	return c.api.ToggleSubscription(ctx, authorID, user.ID)
}

// Metrics — реестр Prometheus-коллекторов подсистемы.
func (c *Client) Metrics() prometheus.Gatherer {
	return c.metrics.Gatherer()
}

// Flush дожидается завершения всех фоновых подтверждений мутаций.
func (c *Client) Flush() {
	c.engage.Flush()

	c.mu.Lock()
	threads := make([]*comments.Thread, 0, len(c.threads))
	for _, t := range c.threads {
		threads = append(threads, t)
	}
	c.mu.Unlock()

	for _, t := range threads {
		t.Flush()
	}
}

// Close дожидается фоновых подтверждений и освобождает ресурсы.
func (c *Client) Close() error {
	const op = "journal.Close"

	done := make(chan struct{})
	go func() {
		c.Flush()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		// Подвисшие подтверждения не должны держать закрытие вечно.
	}

	c.session.Close()

	if err := c.cache.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
