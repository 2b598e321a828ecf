package journal

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kruglovaa/go-journal-feed/internal/api/apitest"
	"github.com/kruglovaa/go-journal-feed/internal/config"
	"github.com/kruglovaa/go-journal-feed/internal/models"
)

// Интеграционные тесты фасада поверх имитации удалённого сервиса (apitest):
// реальный HTTP-клиент, реальный кэш, реальные контроллеры — мокается только
// сам сервис.
//
// Покрываем сквозные сценарии:
//  - постраничная загрузка именованной ленты;
//  - лайк записи: оптимистичный флип + сверка с серверной истиной;
//  - выборка по slug с кэшированием (повторное чтение без сети);
//  - комментарий: создание и каскадное удаление;
//  - подписка на автора.

func cfgForTest(srvURL string) config.Config {
	return config.Config{
		Env: "test",
		API: config.APIConfig{
			BaseURL:   srvURL,
			Timeout:   5 * time.Second,
			UserAgent: "journal-feed-test/1.0",
		},
		Limits: config.LimitsConfig{Default: 2, Max: 100},
		Cache: config.CacheConfig{
			FeedTTL:    time.Minute,
			TopListTTL: time.Minute,
			EntryTTL:   time.Minute,
		},
		Session: config.SessionConfig{TTL: time.Hour},
	}
}

func seedEntries(srv *apitest.Server, n int) []string {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := uuid.New().String()
		ids = append(ids, id)
		srv.AddEntry(apitest.Entry{
			ID:         id,
			Slug:       "entry-" + id[:8],
			Title:      "Entry",
			AuthorID:   uuid.New().String(),
			AuthorName: "author",
			Tags:       []string{"dreams"},
			Category:   "daily",
			IsPublic:   true,
			CreatedAt:  int64(1717243200 + i),
		})
	}

	return ids
}

func newClientForTest(t *testing.T, srv *apitest.Server) *Client {
	t.Helper()

	client, err := New(cfgForTest(srv.URL()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func loginForTest(t *testing.T, client *Client) models.User {
	t.Helper()

	user := models.User{ID: uuid.New(), Username: "night_owl"}
	require.NoError(t, client.Session().Login(context.Background(), user, "not-a-jwt"))

	return user
}

func TestFeed_PaginatedLoad(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	seedEntries(srv, 3)

	client := newClientForTest(t, srv)
	ctx := context.Background()

	latest := client.Feed("latest")
	require.NoError(t, latest.Load(ctx))

	snap := latest.Snapshot()
	require.Len(t, snap.Entries, 2, "limit=2")
	require.True(t, snap.HasMore)

	require.NoError(t, latest.LoadMore(ctx))

	snap = latest.Snapshot()
	require.Len(t, snap.Entries, 3)
	require.False(t, snap.HasMore)
}

func TestEngage_LikeRoundTrip(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	ids := seedEntries(srv, 2)

	client := newClientForTest(t, srv)
	ctx := context.Background()
	loginForTest(t, client)

	latest := client.Feed("latest")
	require.NoError(t, latest.Load(ctx))

	entryID := uuid.MustParse(ids[1]) // самая свежая — первая в latest
	require.NoError(t, client.Engage().ToggleLike(ctx, entryID))
	client.Flush()

	snap := latest.Snapshot()
	require.Equal(t, entryID, snap.Entries[0].ID)
	require.True(t, snap.Entries[0].LikedByMe)
	require.Equal(t, 1, snap.Entries[0].LikeCount, "server truth after confirmation")
}

// TestEntryBySlug_CachedSecondRead — повторное чтение по slug отдаётся из
// кэша: даже при упавшем сервисе запись доступна.
func TestEntryBySlug_CachedSecondRead(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	id := uuid.New().String()
	srv.AddEntry(apitest.Entry{
		ID:        id,
		Slug:      "midnight-walk",
		Title:     "Midnight walk",
		AuthorID:  uuid.New().String(),
		IsPublic:  true,
		CreatedAt: 1717243200,
	})

	client := newClientForTest(t, srv)
	ctx := context.Background()

	first, err := client.EntryBySlug(ctx, "midnight-walk")
	require.NoError(t, err)
	require.Equal(t, "Midnight walk", first.Title)

	// Сервис «лёг» — кэш продолжает отдавать запись.
	srv.FailNext("GET /entries/slug/midnight-walk", 1)

	second, err := client.EntryBySlug(ctx, "midnight-walk")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestThread_AddAndCascadeDelete(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	ids := seedEntries(srv, 1)

	client := newClientForTest(t, srv)
	ctx := context.Background()
	user := loginForTest(t, client)

	entryID := uuid.MustParse(ids[0])
	thread := client.Thread(entryID)
	require.NoError(t, thread.Load(ctx))
	require.Empty(t, thread.Snapshot().Roots)

	created, err := thread.Add(ctx, "first!")
	require.NoError(t, err)
	require.Equal(t, user.ID, created.AuthorID)

	reply, err := thread.Reply(ctx, created.ID, "self-reply")
	require.NoError(t, err)
	require.Equal(t, created.ID, reply.ParentID)

	require.NoError(t, thread.Delete(ctx, created.ID))
	require.Empty(t, thread.Snapshot().Roots)
	require.Empty(t, thread.Replies(created.ID))
}

func TestSubscription_Toggle(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	client := newClientForTest(t, srv)
	ctx := context.Background()
	authorID := uuid.New()

	// Аноним не подписан и не может подписаться.
	subscribed, err := client.SubscriptionStatus(ctx, authorID)
	require.NoError(t, err)
	require.False(t, subscribed)

	_, err = client.ToggleSubscription(ctx, authorID)
	require.ErrorIs(t, err, ErrAuthRequired)

	loginForTest(t, client)

	subscribed, err = client.ToggleSubscription(ctx, authorID)
	require.NoError(t, err)
	require.True(t, subscribed)

	subscribed, err = client.SubscriptionStatus(ctx, authorID)
	require.NoError(t, err)
	require.True(t, subscribed)
}
