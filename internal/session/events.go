package session

import (
	"sync"

	"github.com/kruglovaa/go-journal-feed/internal/models"
)

// EventKind — вид события жизненного цикла сессии.
type EventKind string

const (
	EventLogin  EventKind = "login"
	EventLogout EventKind = "logout"
	EventSignup EventKind = "signup"
)

// Event — типизированное уведомление подписчикам.
type Event struct {
	Kind EventKind
	User models.User
}

// bus — минимальный pub/sub с ограниченными очередями: медленный подписчик
// теряет события, но никогда не блокирует публикацию.
type bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
	closed bool
}

const subscriberBuffer = 8

func newBus() *bus {
	return &bus{subs: make(map[int]chan Event)}
}

func (b *bus) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

func (b *bus) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			// Переполненная очередь: событие для этого подписчика теряется.
		}
	}
}

func (b *bus) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
