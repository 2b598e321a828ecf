package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kruglovaa/go-journal-feed/internal/models"
)

// Файл unit-тестов нормализованного стора.
//
// Покрываем ключевой инвариант подсистемы: сущность хранится ровно один раз,
// проекции — лишь упорядоченные списки id, и мутация через Apply видна во
// всех проекциях одновременно.
//
//  - ReplaceView / View (порядок и копийность);
//  - AppendView (дедупликация id на границах страниц);
//  - Apply поверх актуального состояния;
//  - DropView не трогает сущности.

func entryForTest(title string) models.Entry {
	return models.Entry{
		ID:    uuid.New(),
		Title: title,
	}
}

func TestReplaceView_OrderPreserved(t *testing.T) {
	t.Parallel()

	s := New()
	a, b, c := entryForTest("a"), entryForTest("b"), entryForTest("c")

	s.ReplaceView("latest", []models.Entry{a, b, c})

	got := s.View("latest")
	require.Len(t, got, 3)
	require.Equal(t, []string{"a", "b", "c"}, titles(got))
}

// TestAppendView_DeduplicatesAcrossPages — запись, пришедшая и на первой, и на
// второй странице (сдвиг выдачи на сервере), попадает в проекцию один раз.
func TestAppendView_DeduplicatesAcrossPages(t *testing.T) {
	t.Parallel()

	s := New()
	a, b, c := entryForTest("a"), entryForTest("b"), entryForTest("c")

	s.ReplaceView("latest", []models.Entry{a, b})
	s.AppendView("latest", []models.Entry{b, c})

	got := s.View("latest")
	require.Equal(t, []string{"a", "b", "c"}, titles(got))
	require.Equal(t, 3, s.Len("latest"))
}

// TestApply_VisibleInAllViews — одна мутация сущности видна во всех проекциях,
// которые её содержат: ручной fan-out по спискам не нужен.
func TestApply_VisibleInAllViews(t *testing.T) {
	t.Parallel()

	s := New()
	shared := entryForTest("shared")
	other := entryForTest("other")

	s.ReplaceView("latest", []models.Entry{shared, other})
	s.ReplaceView("featured", []models.Entry{shared})

	ok := s.Apply(shared.ID, func(e *models.Entry) {
		e.LikedByMe = true
		e.LikeCount++
	})
	require.True(t, ok)

	for _, view := range []string{"latest", "featured"} {
		got := s.View(view)
		require.True(t, got[0].LikedByMe, view)
		require.Equal(t, 1, got[0].LikeCount, view)
	}
}

// TestApply_SeesLatestState — вторая мутация видит результат первой,
// а не снапшот исходного состояния.
func TestApply_SeesLatestState(t *testing.T) {
	t.Parallel()

	s := New()
	e := entryForTest("e")
	s.Upsert(e)

	s.Apply(e.ID, func(e *models.Entry) { e.LikeCount = 5 })
	s.Apply(e.ID, func(e *models.Entry) { e.LikeCount++ })

	got, ok := s.Entry(e.ID)
	require.True(t, ok)
	require.Equal(t, 6, got.LikeCount)
}

func TestApply_UnknownEntry(t *testing.T) {
	t.Parallel()

	require.False(t, New().Apply(uuid.New(), func(*models.Entry) {}))
}

// TestView_ReturnsCopies — мутация среза, полученного из View, не влияет на
// внутреннее состояние стора.
func TestView_ReturnsCopies(t *testing.T) {
	t.Parallel()

	s := New()
	e := entryForTest("original")
	s.ReplaceView("latest", []models.Entry{e})

	got := s.View("latest")
	got[0].Title = "mutated"

	again := s.View("latest")
	if diff := cmp.Diff("original", again[0].Title); diff != "" {
		t.Fatalf("store state mutated through View copy (-want +got):\n%s", diff)
	}
}

func TestDropView_KeepsEntities(t *testing.T) {
	t.Parallel()

	s := New()
	e := entryForTest("e")
	s.ReplaceView("latest", []models.Entry{e})
	s.ReplaceView("featured", []models.Entry{e})

	s.DropView("latest")

	require.Empty(t, s.View("latest"))
	require.Len(t, s.View("featured"), 1)

	_, ok := s.Entry(e.ID)
	require.True(t, ok)
}

func titles(entries []models.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Title)
	}

	return out
}
