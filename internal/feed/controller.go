// feed реализует контроллер ленты: выбор кэш-или-сеть, постраничную загрузку,
// переключение сортировки/оси/фасета и слияние результатов в нормализованный
// стор. Контроллер владеет каноническим состоянием одной именованной ленты
// («latest», «featured», …); сами сущности делятся со всеми остальными
// лентами через общий store.Store.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kruglovaa/go-journal-feed/internal/api"
	"github.com/kruglovaa/go-journal-feed/internal/cache"
	"github.com/kruglovaa/go-journal-feed/internal/facet"
	"github.com/kruglovaa/go-journal-feed/internal/metrics"
	"github.com/kruglovaa/go-journal-feed/internal/models"
	"github.com/kruglovaa/go-journal-feed/internal/session"
	"github.com/kruglovaa/go-journal-feed/internal/store"
	"github.com/kruglovaa/go-journal-feed/pkg/log"
)

// ErrAuthRequired — операция требует активной сессии (лента «только подписки»).
var ErrAuthRequired = errors.New("authentication required")

// Options — зависимости и параметры контроллера.
type Options struct {
	API     api.Client
	Store   *store.Store
	Cache   cache.Cache
	Session *session.Manager
	Metrics *metrics.Metrics

	// View — имя ленты; одновременно имя проекции в сторе.
	View string
	// Limit — размер страницы.
	Limit int
	// FeedTTL — срок жизни кэшированной первой страницы нефасетной выдачи.
	FeedTTL time.Duration
	// TopListTTL — срок жизни кэшированного «топа» фасета.
	TopListTTL time.Duration
}

// track — изолированное состояние пагинации одной конфигурации.
type track struct {
	page       int // последняя успешно загруженная страница; 0 — ничего не загружено
	hasMore    bool
	loaded     bool
	failedPage int // страница, на которой случилась последняя ошибка
}

// config — конфигурация, с которой был выпущен фетч.
type config struct {
	ordering models.Ordering
	scope    models.Scope
	fct      models.Facet
}

// Controller — контроллер одной именованной ленты.
type Controller struct {
	mu sync.Mutex

	api     api.Client
	store   *store.Store
	cache   cache.Cache
	session *session.Manager
	metrics *metrics.Metrics

	view       string
	limit      int
	feedTTL    time.Duration
	topListTTL time.Duration

	ordering models.Ordering
	scope    models.Scope
	fct      models.Facet

	// gen — поколение конфигурации: каждый сброс (сортировка/ось/фасет)
	// инкрементирует его, и ответы, выпущенные под старым поколением,
	// отбрасываются вместо коммита устаревших данных поверх новых.
	gen uint64

	loading     bool // начальная загрузка или загрузка после сброса
	loadingMore bool // пагинация
	err         error

	browse     track
	facetTrack track
}

// Snapshot — иммутабельный снимок состояния ленты для потребителя (UI).
type Snapshot struct {
	Entries     []models.Entry
	Page        int
	HasMore     bool
	Loading     bool
	LoadingMore bool
	Ordering    models.Ordering
	Scope       models.Scope
	Facet       models.Facet
	Err         error
}

// New создаёт контроллер с конфигурацией по умолчанию (latest/all, без фасета).
func New(opts Options) *Controller {
	return &Controller{
		api:        opts.API,
		store:      opts.Store,
		cache:      opts.Cache,
		session:    opts.Session,
		metrics:    opts.Metrics,
		view:       opts.View,
		limit:      opts.Limit,
		feedTTL:    opts.FeedTTL,
		topListTTL: opts.TopListTTL,
		ordering:   models.OrderingLatest,
		scope:      models.ScopeAll,
	}
}

// Snapshot возвращает снимок текущего состояния ленты.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	t := c.activeTrack()
	snap := Snapshot{
		Page:        t.page,
		HasMore:     t.hasMore,
		Loading:     c.loading,
		LoadingMore: c.loadingMore,
		Ordering:    c.ordering,
		Scope:       c.scope,
		Facet:       c.fct,
		Err:         c.err,
	}
	view := facet.ViewKey(c.view, c.fct)
	c.mu.Unlock()

	snap.Entries = c.store.View(view)

	return snap
}

// Load загружает первую страницу текущей конфигурации.
// Повторный вызов при уже загруженной идентичной конфигурации — no-op.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()

	if c.loading || c.loadingMore {
		c.mu.Unlock()
		return nil
	}

	if c.activeTrack().loaded && c.err == nil {
		// Идентичная конфигурация уже загружена — повторный фетч избыточен.
		c.mu.Unlock()
		return nil
	}

	c.loading = true
	c.err = nil
	gen, cfg := c.gen, c.currentConfig()
	c.mu.Unlock()

	return c.fetchPage(ctx, 1, false, gen, cfg)
}

// LoadMore запрашивает следующую страницу текущей конфигурации.
// No-op, если дальше ничего нет или фетч уже в полёте: пагинация
// сериализована, страницы растут строго монотонно.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()

	t := c.activeTrack()
	if !t.hasMore || c.loading || c.loadingMore {
		c.mu.Unlock()
		return nil
	}

	c.loadingMore = true
	page := t.page + 1
	gen, cfg := c.gen, c.currentConfig()
	c.mu.Unlock()

	return c.fetchPage(ctx, page, true, gen, cfg)
}

// SwitchOrdering меняет сортировку: список, курсор и hasMore сбрасываются,
// первая страница перезапрашивается под новой конфигурацией.
// Активный фасет при этом снимается: сортировка — ось нефасетного просмотра.
func (c *Controller) SwitchOrdering(ctx context.Context, ordering models.Ordering) error {
	c.mu.Lock()

	if ordering == c.ordering && c.fct.IsZero() {
		c.mu.Unlock()
		return nil
	}

	c.ordering = ordering
	c.fct = models.Facet{}
	gen, cfg := c.resetLocked()
	c.mu.Unlock()

	return c.fetchPage(ctx, 1, false, gen, cfg)
}

// ToggleScope переключает ось «все» / «только подписки».
// Лента подписок без активной сессии не имеет смысла: для анонима операция
// отклоняется до каких-либо сбросов и сетевых вызовов.
func (c *Controller) ToggleScope(ctx context.Context) error {
	const op = "feed.ToggleScope"

	c.mu.Lock()

	target := models.ScopeFollowing
	if c.scope == models.ScopeFollowing {
		target = models.ScopeAll
	}

	if target == models.ScopeFollowing {
		if _, ok := c.session.CurrentUser(); !ok {
			c.mu.Unlock()
			return fmt.Errorf("%s: %w", op, ErrAuthRequired)
		}
	}

	c.scope = target
	c.fct = models.Facet{}
	gen, cfg := c.resetLocked()
	c.mu.Unlock()

	return c.fetchPage(ctx, 1, false, gen, cfg)
}

// SelectFacet переводит ленту на изолированный фасетный трек.
// Курсор нефасетного просмотра не трогается и переживает фасетную «вылазку».
func (c *Controller) SelectFacet(ctx context.Context, f models.Facet) error {
	if f.IsZero() {
		return c.ClearFacet(ctx)
	}

	c.mu.Lock()

	if f == c.fct && c.facetTrack.loaded && c.err == nil {
		c.mu.Unlock()
		return nil
	}

	c.fct = f
	c.facetTrack = track{}
	c.gen++
	c.loading = true
	c.loadingMore = false
	c.err = nil
	c.store.ReplaceView(facet.ViewKey(c.view, f), nil)
	gen, cfg := c.gen, c.currentConfig()
	c.mu.Unlock()

	return c.fetchPage(ctx, 1, false, gen, cfg)
}

// ClearFacet возвращает ленту на нефасетный трек. Если нефасетная выдача уже
// была загружена, её список и курсор используются как есть, без перезапроса.
func (c *Controller) ClearFacet(ctx context.Context) error {
	c.mu.Lock()

	if c.fct.IsZero() {
		c.mu.Unlock()
		return nil
	}

	c.store.DropView(facet.ViewKey(c.view, c.fct))
	c.fct = models.Facet{}
	c.facetTrack = track{}
	c.gen++
	c.loading = false
	c.loadingMore = false
	c.err = nil

	if c.browse.loaded {
		c.mu.Unlock()
		return nil
	}

	c.loading = true
	gen, cfg := c.gen, c.currentConfig()
	c.mu.Unlock()

	return c.fetchPage(ctx, 1, false, gen, cfg)
}

// Retry очищает ошибку и повторяет страницу, на которой случился сбой.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()

	if c.err == nil {
		c.mu.Unlock()
		return nil
	}

	if c.loading || c.loadingMore {
		c.mu.Unlock()
		return nil
	}

	t := c.activeTrack()
	page := t.failedPage
	if page <= 0 {
		page = 1
	}

	appendPage := page > 1
	c.err = nil
	if appendPage {
		c.loadingMore = true
	} else {
		c.loading = true
	}
	gen, cfg := c.gen, c.currentConfig()
	c.mu.Unlock()

	return c.fetchPage(ctx, page, appendPage, gen, cfg)
}

// currentConfig — снимок конфигурации под локом.
func (c *Controller) currentConfig() config {
	return config{ordering: c.ordering, scope: c.scope, fct: c.fct}
}

// activeTrack — трек активной конфигурации (фасетный или нефасетный).
func (c *Controller) activeTrack() *track {
	if !c.fct.IsZero() {
		return &c.facetTrack
	}

	return &c.browse
}

// resetLocked сбрасывает нефасетный трек под новую конфигурацию:
// список очищается, курсор — на первую страницу, поколение растёт.
func (c *Controller) resetLocked() (uint64, config) {
	c.browse = track{}
	c.gen++
	c.loading = true
	c.loadingMore = false
	c.err = nil
	c.store.ReplaceView(c.view, nil)

	return c.gen, c.currentConfig()
}

// cachedPage — форма кэшируемой первой страницы.
type cachedPage struct {
	Entries []models.Entry `json:"entries"`
	HasMore bool           `json:"has_more"`
}

// fetchPage выполняет загрузку одной страницы конфигурации cfg,
// выпущенную под поколением gen, и коммитит результат, только если
// поколение к моменту ответа не изменилось.
func (c *Controller) fetchPage(ctx context.Context, page int, appendPage bool, gen uint64, cfg config) error {
	const op = "feed.fetchPage"

	lg := log.From(ctx).With(
		slog.String("op", op),
		slog.String("view", c.view),
		slog.Int("page", page),
	)

	// Первая страница кэшируемой конфигурации: сначала локальный кэш.
	cacheKey, ttl := c.cachePlan(cfg)
	if page == 1 && cacheKey != "" {
		var cached cachedPage
		ok, err := c.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			lg.Warn("cache_read_failed", slog.String("err", err.Error()))
		}

		if ok {
			c.metrics.CacheHits.Inc()
			c.metrics.FeedFetches.WithLabelValues(metrics.OutcomeCache).Inc()

			c.commit(gen, cfg, page, appendPage, cached.Entries, cached.HasMore)
			return nil
		}

		c.metrics.CacheMisses.Inc()
	}

	viewer := uuid.Nil
	if u, ok := c.session.CurrentUser(); ok {
		viewer = u.ID
	}

	resp, err := c.api.ListEntries(ctx, api.ListEntriesParams{
		Page:     page,
		Limit:    c.limit,
		Ordering: cfg.ordering,
		Scope:    cfg.scope,
		Facet:    cfg.fct,
		Viewer:   viewer,
	})
	if err != nil {
		return c.fail(ctx, gen, cfg, page, err)
	}

	committed := c.commit(gen, cfg, page, appendPage, resp.Entries, resp.HasMore)
	if !committed {
		c.metrics.FeedFetches.WithLabelValues(metrics.OutcomeStale).Inc()
		lg.Debug("stale_response_discarded")

		return nil
	}

	c.metrics.FeedFetches.WithLabelValues(metrics.OutcomeOK).Inc()

	if page == 1 && cacheKey != "" {
		payload := cachedPage{Entries: resp.Entries, HasMore: resp.HasMore}
		if err := c.cache.Set(ctx, cacheKey, payload, ttl); err != nil {
			lg.Warn("cache_write_failed", slog.String("err", err.Error()))
		}
	}

	return nil
}

// commit применяет страницу к стору и треку. Возвращает false, если ответ
// устарел (поколение сменилось) и был отброшен.
func (c *Controller) commit(gen uint64, cfg config, page int, appendPage bool, entries []models.Entry, hasMore bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		// Конфигурация сменилась, пока ответ был в полёте: флаги загрузки
		// принадлежат уже новому фетчу, здесь их не трогаем.
		return false
	}

	view := facet.ViewKey(c.view, cfg.fct)
	if appendPage {
		c.store.AppendView(view, entries)
	} else {
		c.store.ReplaceView(view, entries)
	}

	t := c.activeTrack()
	t.page = page
	t.hasMore = hasMore
	t.loaded = true
	t.failedPage = 0

	c.loading = false
	c.loadingMore = false
	c.err = nil

	return true
}

// fail фиксирует сбой фетча: последний удачный список сохраняется,
// дальнейшая пагинация останавливается до явного Retry.
func (c *Controller) fail(ctx context.Context, gen uint64, cfg config, page int, err error) error {
	const op = "feed.fetchPage"

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.metrics.FeedFetches.WithLabelValues(metrics.OutcomeStale).Inc()
		return nil
	}

	c.metrics.FeedFetches.WithLabelValues(metrics.OutcomeError).Inc()

	t := c.activeTrack()
	t.hasMore = false
	t.failedPage = page

	c.loading = false
	c.loadingMore = false
	c.err = err

	log.From(ctx).Warn("feed_fetch_failed",
		slog.String("op", op),
		slog.String("view", c.view),
		slog.Int("page", page),
		slog.String("err", err.Error()),
	)

	return fmt.Errorf("%s: %w", op, err)
}

// cachePlan возвращает ключ кэша и TTL для первой страницы конфигурации.
// Фасетные «топы» живут под семантическими ключами top-by-*; нефасетные
// выдачи — под ключом ленты, квалифицированным сортировкой и осью.
// Лента «только подписки» не кэшируется: она зависит от пользователя.
func (c *Controller) cachePlan(cfg config) (string, time.Duration) {
	if !cfg.fct.IsZero() {
		return facet.Resolve(cfg.fct).CacheKey, c.topListTTL
	}

	if cfg.scope == models.ScopeFollowing {
		return "", 0
	}

	return c.view + ":" + string(cfg.ordering) + ":" + string(cfg.scope), c.feedTTL
}
