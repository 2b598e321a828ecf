// engage — движок оптимистичных взаимодействий с записями (лайк, сохранение).
//
// Мутация применяется к стору немедленно и синхронно, сетевой запрос уходит в
// фоне. Успешный ответ сервера — истина: локальное состояние сверяется с ним.
// Сбой откатывает ровно то, что было применено, поверх актуального состояния
// (не снапшота на момент клика): перекрывающиеся мутации не затирают друг
// друга устаревшими копиями.
package engage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/kruglovaa/go-journal-feed/internal/api"
	"github.com/kruglovaa/go-journal-feed/internal/metrics"
	"github.com/kruglovaa/go-journal-feed/internal/models"
	"github.com/kruglovaa/go-journal-feed/internal/session"
	"github.com/kruglovaa/go-journal-feed/internal/store"
	"github.com/kruglovaa/go-journal-feed/pkg/log"
)

var (
	// ErrAuthRequired — взаимодействие доступно только вошедшему пользователю.
	// Возвращается до какого-либо изменения состояния и сетевого вызова.
	ErrAuthRequired = errors.New("authentication required")
	// ErrUnknownEntry — записи нет в локальном сторе.
	ErrUnknownEntry = errors.New("unknown entry")
)

// Engine — движок оптимистичных мутаций записей.
type Engine struct {
	api     api.Client
	store   *store.Store
	session *session.Manager
	metrics *metrics.Metrics

	wg sync.WaitGroup
}

// New создаёт движок.
func New(apiClient api.Client, st *store.Store, sess *session.Manager, m *metrics.Metrics) *Engine {
	return &Engine{
		api:     apiClient,
		store:   st,
		session: sess,
		metrics: m,
	}
}

// ToggleLike оптимистично переключает лайк записи.
//
// Флип и счётчик применяются синхронно, до возврата; запрос подтверждается в
// фоне. Быстрый двойной клик даёт две независимые мутации: каждая видит
// актуальное состояние и откатывается симметрично, итог — исходное состояние.
func (e *Engine) ToggleLike(ctx context.Context, entryID uuid.UUID) error {
	const op = "engage.ToggleLike"

	user, ok := e.session.CurrentUser()
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrAuthRequired)
	}

	var (
		want  bool
		delta int
	)
	applied := e.store.Apply(entryID, func(entry *models.Entry) {
		want = !entry.LikedByMe
		delta = -1
		if want {
			delta = 1
		}

		entry.LikedByMe = want
		entry.LikeCount += delta
	})
	if !applied {
		return fmt.Errorf("%s: %w", op, ErrUnknownEntry)
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		res, err := e.api.ToggleEntryLike(ctx, entryID, user.ID)
		if err != nil {
			// Симметричный откат поверх актуального состояния: инвертируем
			// относительно текущего значения, а не снапшота на момент клика,
			// поэтому перекрывающиеся сбои сворачиваются в исходное состояние
			// независимо от порядка откатов.
			e.store.Apply(entryID, func(entry *models.Entry) {
				entry.LikeCount -= delta
				entry.LikedByMe = !entry.LikedByMe
			})
			e.metrics.Rollbacks.Inc()

			log.From(ctx).Warn("like_rolled_back",
				slog.String("op", op),
				slog.String("entry_id", entryID.String()),
				slog.String("err", err.Error()),
			)

			return
		}

		// Сервер авторитативен: сверяем локальное состояние с ответом.
		e.store.Apply(entryID, func(entry *models.Entry) {
			entry.LikedByMe = res.Liked
			entry.LikeCount = res.LikeCount
		})
	}()

	return nil
}

// ToggleSave оптимистично переключает сохранение записи в закладки.
// Ответ сервера — только подтверждение, счётчиков у сохранения нет.
func (e *Engine) ToggleSave(ctx context.Context, entryID uuid.UUID) error {
	const op = "engage.ToggleSave"

	user, ok := e.session.CurrentUser()
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrAuthRequired)
	}

	var want bool
	applied := e.store.Apply(entryID, func(entry *models.Entry) {
		want = !entry.SavedByMe
		entry.SavedByMe = want
	})
	if !applied {
		return fmt.Errorf("%s: %w", op, ErrUnknownEntry)
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		if err := e.api.ToggleEntrySave(ctx, entryID, user.ID, want); err != nil {
			e.store.Apply(entryID, func(entry *models.Entry) {
				entry.SavedByMe = !entry.SavedByMe
			})
			e.metrics.Rollbacks.Inc()

			log.From(ctx).Warn("save_rolled_back",
				slog.String("op", op),
				slog.String("entry_id", entryID.String()),
				slog.String("err", err.Error()),
			)
		}
	}()

	return nil
}

// Flush дожидается завершения всех фоновых подтверждений.
// Нужен при завершении работы и в тестах для детерминизма.
func (e *Engine) Flush() {
	e.wg.Wait()
}
