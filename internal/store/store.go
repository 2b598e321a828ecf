// store — нормализованный единый источник истины по записям ленты.
//
// Сущности лежат в одной map по id; каждая одновременно открытая лента
// («latest», «featured», фасетные выдачи) — это лишь упорядоченная проекция
// идентификаторов поверх общей map. Любая мутация (оптимистичный лайк,
// сверка с сервером, откат) применяется к сущности ровно один раз и сразу
// видна во всех проекциях — ручной fan-out по N копиям списка не нужен.
//
// Проекции отдаются копиями значений: вызывающие не получают изменяемых
// ссылок на внутреннее состояние.
package store

import (
	"sync"

	"github.com/google/uuid"

	"github.com/kruglovaa/go-journal-feed/internal/models"
)

// Store — нормализованное хранилище записей с именованными проекциями.
type Store struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]models.Entry
	views   map[string][]uuid.UUID
}

// New создаёт пустой стор.
func New() *Store {
	return &Store{
		entries: make(map[uuid.UUID]models.Entry),
		views:   make(map[string][]uuid.UUID),
	}
}

// ReplaceView атомарно заменяет проекцию новой выдачей (сброс конфигурации).
func (s *Store) ReplaceView(view string, entries []models.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		s.entries[e.ID] = e
		ids = append(ids, e.ID)
	}

	s.views[view] = ids
}

// AppendView дописывает страницу в хвост проекции, отбрасывая id,
// уже присутствующие в ней (итоговый список свободен от дубликатов).
func (s *Store) AppendView(view string, entries []models.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make(map[uuid.UUID]struct{}, len(s.views[view]))
	for _, id := range s.views[view] {
		existing[id] = struct{}{}
	}

	ids := s.views[view]
	for _, e := range entries {
		s.entries[e.ID] = e
		if _, dup := existing[e.ID]; dup {
			continue
		}

		existing[e.ID] = struct{}{}
		ids = append(ids, e.ID)
	}

	s.views[view] = ids
}

// DropView удаляет проекцию (сами сущности остаются: их могут держать
// другие проекции).
func (s *Store) DropView(view string) {
	s.mu.Lock()
	delete(s.views, view)
	s.mu.Unlock()
}

// View возвращает срез-копию сущностей проекции в её порядке.
func (s *Store) View(view string) []models.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.views[view]
	out := make([]models.Entry, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.entries[id]; ok {
			out = append(out, e)
		}
	}

	return out
}

// Len возвращает длину проекции.
func (s *Store) Len(view string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.views[view])
}

// Entry возвращает копию сущности по id.
func (s *Store) Entry(id uuid.UUID) (models.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]

	return e, ok
}

// Upsert кладёт сущность вне проекций (например, открытую по slug).
func (s *Store) Upsert(e models.Entry) {
	s.mu.Lock()
	s.entries[e.ID] = e
	s.mu.Unlock()
}

// Apply применяет мутацию к актуальному состоянию сущности под локом.
// Мутации всегда видят последнее локальное состояние, а не снапшот,
// снятый до запуска более ранней незавершённой мутации.
func (s *Store) Apply(id uuid.UUID, mutate func(*models.Entry)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return false
	}

	mutate(&e)
	s.entries[id] = e

	return true
}
