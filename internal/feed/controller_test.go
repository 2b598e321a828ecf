package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/kruglovaa/go-journal-feed/internal/api"
	"github.com/kruglovaa/go-journal-feed/internal/cache"
	"github.com/kruglovaa/go-journal-feed/internal/metrics"
	"github.com/kruglovaa/go-journal-feed/internal/models"
	"github.com/kruglovaa/go-journal-feed/internal/session"
	"github.com/kruglovaa/go-journal-feed/internal/store"
	"github.com/kruglovaa/go-journal-feed/mocks"
)

// Файл unit-тестов контроллера ленты.
//
// Покрываем ключевую бизнес-логику:
//  - Load: первая страница, кэш-или-сеть, идемпотентность повторного вызова;
//  - LoadMore: строго монотонные страницы, дедупликация на границах,
//    hasMore=false -> ноль сетевых запросов;
//  - смена сортировки/оси: сброс списка и курсора, перезапрос первой страницы;
//  - фасет: изолированный трек, возврат к нефасетному курсору без перезапроса,
//    семантический ключ кэша «топа»;
//  - сбой начальной загрузки и сбой пагинации + Retry;
//  - отбрасывание устаревшего ответа после смены конфигурации (поколения).

type testEnv struct {
	ctrl    *Controller
	api     *mocks.MockClient
	cache   *cache.Memory
	store   *store.Store
	session *session.Manager
	metrics *metrics.Metrics
}

func newEnvForTest(t *testing.T) *testEnv {
	t.Helper()

	gc := gomock.NewController(t)
	t.Cleanup(gc.Finish)

	mockAPI := mocks.NewMockClient(gc)
	mem := cache.NewMemory()
	st := store.New()
	sess := session.NewManager(cache.NewMemory(), time.Hour)
	m := metrics.New()

	return &testEnv{
		ctrl: New(Options{
			API:        mockAPI,
			Store:      st,
			Cache:      mem,
			Session:    sess,
			Metrics:    m,
			View:       "latest",
			Limit:      10,
			FeedTTL:    time.Minute,
			TopListTTL: time.Minute,
		}),
		api:     mockAPI,
		cache:   mem,
		store:   st,
		session: sess,
		metrics: m,
	}
}

func entryForTest(title string) models.Entry {
	return models.Entry{ID: uuid.New(), Title: title}
}

func pageOf(hasMore bool, entries ...models.Entry) *models.EntriesPage {
	return &models.EntriesPage{Entries: entries, HasMore: hasMore}
}

func titles(entries []models.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Title)
	}

	return out
}

func TestLoad_FirstPage(t *testing.T) {
	t.Parallel()

	env := newEnvForTest(t)
	a, b := entryForTest("a"), entryForTest("b")

	env.api.EXPECT().
		ListEntries(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p api.ListEntriesParams) (*models.EntriesPage, error) {
			require.Equal(t, 1, p.Page)
			require.Equal(t, 10, p.Limit)
			require.Equal(t, models.OrderingLatest, p.Ordering)
			require.Equal(t, models.ScopeAll, p.Scope)
			require.Equal(t, uuid.Nil, p.Viewer, "anonymous viewer")
			return pageOf(true, a, b), nil
		}).
		Times(1)

	require.NoError(t, env.ctrl.Load(context.Background()))

	snap := env.ctrl.Snapshot()
	require.Equal(t, []string{"a", "b"}, titles(snap.Entries))
	require.Equal(t, 1, snap.Page)
	require.True(t, snap.HasMore)
	require.False(t, snap.Loading)
	require.NoError(t, snap.Err)

	// Идентичная конфигурация уже загружена: повторный Load — no-op.
	require.NoError(t, env.ctrl.Load(context.Background()))
}

// TestLoad_ServedFromCache — свежая кэшированная первая страница отдаётся
// без единого сетевого запроса.
func TestLoad_ServedFromCache(t *testing.T) {
	t.Parallel()

	env := newEnvForTest(t)
	ctx := context.Background()

	a := entryForTest("cached")
	require.NoError(t, env.cache.Set(ctx, "latest:latest:all",
		cachedPage{Entries: []models.Entry{a}, HasMore: true}, time.Minute))

	require.NoError(t, env.ctrl.Load(ctx))

	snap := env.ctrl.Snapshot()
	require.Equal(t, []string{"cached"}, titles(snap.Entries))
	require.True(t, snap.HasMore)

	require.Equal(t, float64(1), testutil.ToFloat64(env.metrics.CacheHits))
	require.Equal(t, float64(1),
		testutil.ToFloat64(env.metrics.FeedFetches.WithLabelValues(metrics.OutcomeCache)))
}

func TestLoadMore_MonotonicPagesAndDedupe(t *testing.T) {
	t.Parallel()

	env := newEnvForTest(t)
	ctx := context.Background()
	a, b, c := entryForTest("a"), entryForTest("b"), entryForTest("c")

	gomock.InOrder(
		env.api.EXPECT().
			ListEntries(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p api.ListEntriesParams) (*models.EntriesPage, error) {
				require.Equal(t, 1, p.Page)
				return pageOf(true, a, b), nil
			}),
		env.api.EXPECT().
			ListEntries(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p api.ListEntriesParams) (*models.EntriesPage, error) {
				require.Equal(t, 2, p.Page, "pages must grow strictly monotonically")
				// Сдвиг выдачи на сервере: b пришла второй раз.
				return pageOf(false, b, c), nil
			}),
	)

	require.NoError(t, env.ctrl.Load(ctx))
	require.NoError(t, env.ctrl.LoadMore(ctx))

	snap := env.ctrl.Snapshot()
	require.Equal(t, []string{"a", "b", "c"}, titles(snap.Entries), "duplicate ids collapse")
	require.Equal(t, 2, snap.Page)
	require.False(t, snap.HasMore)

	// hasMore=false -> дальнейшие LoadMore не ходят в сеть (EXPECT исчерпан).
	require.NoError(t, env.ctrl.LoadMore(ctx))
	require.NoError(t, env.ctrl.LoadMore(ctx))
}

func TestLoadMore_BeforeLoadIsNoop(t *testing.T) {
	t.Parallel()

	env := newEnvForTest(t)
	require.NoError(t, env.ctrl.LoadMore(context.Background()))
}

func TestSwitchOrdering_ResetsAndRefetches(t *testing.T) {
	t.Parallel()

	env := newEnvForTest(t)
	ctx := context.Background()
	a, b := entryForTest("a"), entryForTest("b")

	gomock.InOrder(
		env.api.EXPECT().
			ListEntries(gomock.Any(), gomock.Any()).
			Return(pageOf(true, a), nil),
		env.api.EXPECT().
			ListEntries(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p api.ListEntriesParams) (*models.EntriesPage, error) {
				require.Equal(t, models.OrderingTop, p.Ordering)
				require.Equal(t, 1, p.Page, "switch must restart from the first page")
				return pageOf(false, b), nil
			}),
	)

	require.NoError(t, env.ctrl.Load(ctx))
	require.NoError(t, env.ctrl.SwitchOrdering(ctx, models.OrderingTop))

	snap := env.ctrl.Snapshot()
	require.Equal(t, []string{"b"}, titles(snap.Entries), "old list must not survive the switch")
	require.Equal(t, 1, snap.Page)
	require.Equal(t, models.OrderingTop, snap.Ordering)
}

// TestInitialFailure_Retry — сбой начальной загрузки оставляет пустой список
// и ошибку в снапшоте; Retry очищает её и повторяет ту же первую страницу.
func TestInitialFailure_Retry(t *testing.T) {
	t.Parallel()

	env := newEnvForTest(t)
	ctx := context.Background()
	a := entryForTest("a")

	gomock.InOrder(
		env.api.EXPECT().
			ListEntries(gomock.Any(), gomock.Any()).
			Return(nil, api.ErrUnavailable),
		env.api.EXPECT().
			ListEntries(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p api.ListEntriesParams) (*models.EntriesPage, error) {
				require.Equal(t, 1, p.Page)
				return pageOf(false, a), nil
			}),
	)

	err := env.ctrl.Load(ctx)
	require.ErrorIs(t, err, api.ErrUnavailable)

	snap := env.ctrl.Snapshot()
	require.Empty(t, snap.Entries)
	require.ErrorIs(t, snap.Err, api.ErrUnavailable)

	require.NoError(t, env.ctrl.Retry(ctx))

	snap = env.ctrl.Snapshot()
	require.Equal(t, []string{"a"}, titles(snap.Entries))
	require.NoError(t, snap.Err)
}

// TestPaginationFailure_PreservesListAndHaltsUntilRetry — сценарий «сбой на
// середине пагинации»: загруженное сохраняется, дальнейшая пагинация стоит
// до явного Retry, Retry повторяет именно сбойную страницу.
func TestPaginationFailure_PreservesListAndHaltsUntilRetry(t *testing.T) {
	t.Parallel()

	env := newEnvForTest(t)
	ctx := context.Background()
	a, b, c := entryForTest("a"), entryForTest("b"), entryForTest("c")

	gomock.InOrder(
		env.api.EXPECT().
			ListEntries(gomock.Any(), gomock.Any()).
			Return(pageOf(true, a, b), nil),
		env.api.EXPECT().
			ListEntries(gomock.Any(), gomock.Any()).
			Return(nil, api.ErrUnavailable),
		env.api.EXPECT().
			ListEntries(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p api.ListEntriesParams) (*models.EntriesPage, error) {
				require.Equal(t, 2, p.Page, "retry must reattempt the failed page")
				return pageOf(false, c), nil
			}),
	)

	require.NoError(t, env.ctrl.Load(ctx))

	err := env.ctrl.LoadMore(ctx)
	require.ErrorIs(t, err, api.ErrUnavailable)

	snap := env.ctrl.Snapshot()
	require.Equal(t, []string{"a", "b"}, titles(snap.Entries), "loaded pages survive the failure")
	require.False(t, snap.HasMore)
	require.ErrorIs(t, snap.Err, api.ErrUnavailable)

	// До Retry пагинация стоит: ни одного сетевого запроса.
	require.NoError(t, env.ctrl.LoadMore(ctx))

	require.NoError(t, env.ctrl.Retry(ctx))

	snap = env.ctrl.Snapshot()
	require.Equal(t, []string{"a", "b", "c"}, titles(snap.Entries))
	require.NoError(t, snap.Err)
}

// TestSelectFacet_IsolatedTrack — фасетная «вылазка» не трогает курсор
// нефасетного просмотра; возврат использует старый список без перезапроса;
// повторный выбор того же фасета отдаётся из кэша «топа» без сети.
func TestSelectFacet_IsolatedTrack(t *testing.T) {
	t.Parallel()

	env := newEnvForTest(t)
	ctx := context.Background()
	a, b, x, y := entryForTest("a"), entryForTest("b"), entryForTest("x"), entryForTest("y")
	horror := models.Facet{Kind: models.FacetTag, Value: "horror"}

	gomock.InOrder(
		env.api.EXPECT().
			ListEntries(gomock.Any(), gomock.Any()).
			Return(pageOf(true, a, b), nil),
		env.api.EXPECT().
			ListEntries(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p api.ListEntriesParams) (*models.EntriesPage, error) {
				require.Equal(t, horror, p.Facet)
				require.Equal(t, 1, p.Page, "facet track starts from its own first page")
				return pageOf(true, x), nil
			}),
		env.api.EXPECT().
			ListEntries(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p api.ListEntriesParams) (*models.EntriesPage, error) {
				require.Equal(t, horror, p.Facet)
				require.Equal(t, 2, p.Page)
				return pageOf(false, y), nil
			}),
	)

	require.NoError(t, env.ctrl.Load(ctx))
	require.NoError(t, env.ctrl.SelectFacet(ctx, horror))

	snap := env.ctrl.Snapshot()
	require.Equal(t, []string{"x"}, titles(snap.Entries))
	require.Equal(t, horror, snap.Facet)

	require.NoError(t, env.ctrl.LoadMore(ctx))
	require.Equal(t, []string{"x", "y"}, titles(env.ctrl.Snapshot().Entries))

	// «Топ» фасета лёг в кэш под семантическим ключом.
	var cached cachedPage
	ok, err := env.cache.Get(ctx, "top-by-tag:horror", &cached)
	require.NoError(t, err)
	require.True(t, ok)

	// Возврат: нефасетный список и курсор пережили вылазку, сеть не нужна.
	require.NoError(t, env.ctrl.ClearFacet(ctx))

	snap = env.ctrl.Snapshot()
	require.Equal(t, []string{"a", "b"}, titles(snap.Entries))
	require.Equal(t, 1, snap.Page)
	require.True(t, snap.HasMore)
	require.True(t, snap.Facet.IsZero())

	// Повторный выбор того же фасета: первая страница из кэша, без сети.
	require.NoError(t, env.ctrl.SelectFacet(ctx, horror))
	require.Equal(t, []string{"x"}, titles(env.ctrl.Snapshot().Entries))
}

func TestToggleScope_RequiresAuth(t *testing.T) {
	t.Parallel()

	env := newEnvForTest(t)

	err := env.ctrl.ToggleScope(context.Background())
	require.ErrorIs(t, err, ErrAuthRequired)

	snap := env.ctrl.Snapshot()
	require.Equal(t, models.ScopeAll, snap.Scope, "scope must stay unchanged")
}

func TestToggleScope_LoggedIn(t *testing.T) {
	t.Parallel()

	env := newEnvForTest(t)
	ctx := context.Background()

	user := models.User{ID: uuid.New(), Username: "night_owl"}
	require.NoError(t, env.session.Login(ctx, user, "not-a-jwt"))

	a, b := entryForTest("a"), entryForTest("b")

	gomock.InOrder(
		env.api.EXPECT().
			ListEntries(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p api.ListEntriesParams) (*models.EntriesPage, error) {
				require.Equal(t, user.ID, p.Viewer)
				return pageOf(false, a), nil
			}),
		env.api.EXPECT().
			ListEntries(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p api.ListEntriesParams) (*models.EntriesPage, error) {
				require.Equal(t, models.ScopeFollowing, p.Scope)
				require.Equal(t, 1, p.Page)
				return pageOf(false, b), nil
			}),
	)

	require.NoError(t, env.ctrl.Load(ctx))
	require.NoError(t, env.ctrl.ToggleScope(ctx))

	snap := env.ctrl.Snapshot()
	require.Equal(t, models.ScopeFollowing, snap.Scope)
	require.Equal(t, []string{"b"}, titles(snap.Entries))
}

// TestStaleResponseDiscarded — ответ, выпущенный до смены конфигурации,
// отбрасывается: он не перетирает данные нового поколения.
func TestStaleResponseDiscarded(t *testing.T) {
	t.Parallel()

	env := newEnvForTest(t)
	ctx := context.Background()
	stale, fresh := entryForTest("stale"), entryForTest("fresh")

	entered := make(chan struct{})
	release := make(chan struct{})

	env.api.EXPECT().
		ListEntries(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ api.ListEntriesParams) (*models.EntriesPage, error) {
			close(entered)
			<-release
			return pageOf(true, stale), nil
		})
	env.api.EXPECT().
		ListEntries(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p api.ListEntriesParams) (*models.EntriesPage, error) {
			require.Equal(t, models.OrderingTop, p.Ordering)
			return pageOf(false, fresh), nil
		})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = env.ctrl.Load(ctx)
	}()

	<-entered
	// Пользователь переключил сортировку, пока первый ответ был в полёте.
	require.NoError(t, env.ctrl.SwitchOrdering(ctx, models.OrderingTop))

	close(release)
	wg.Wait()

	snap := env.ctrl.Snapshot()
	require.Equal(t, []string{"fresh"}, titles(snap.Entries), "stale page must not overwrite the new generation")
	require.Equal(t, models.OrderingTop, snap.Ordering)
	require.NoError(t, snap.Err)

	require.Equal(t, float64(1),
		testutil.ToFloat64(env.metrics.FeedFetches.WithLabelValues(metrics.OutcomeStale)))
}
