// comments — модель двухуровневого треда комментариев одной записи:
// корневые комментарии с пагинацией и их прямые ответы, без более глубокой
// вложенности. Ответ на ответ прикрепляется к корню своей ветки с
// @-упоминанием адресата, так что глубина дерева никогда не превышает двух.
package comments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/kruglovaa/go-journal-feed/internal/api"
	"github.com/kruglovaa/go-journal-feed/internal/metrics"
	"github.com/kruglovaa/go-journal-feed/internal/models"
	"github.com/kruglovaa/go-journal-feed/internal/session"
	"github.com/kruglovaa/go-journal-feed/pkg/log"
)

var (
	// ErrAuthRequired — операция доступна только вошедшему пользователю.
	ErrAuthRequired = errors.New("authentication required")
	// ErrEmptyContent — текст комментария пуст после обрезки пробелов.
	ErrEmptyContent = errors.New("empty content")
	// ErrNotOwner — редактировать и удалять можно только свои комментарии.
	ErrNotOwner = errors.New("not the comment owner")
	// ErrUnknownComment — комментария нет в локальном треде.
	ErrUnknownComment = errors.New("unknown comment")
)

// Thread — состояние треда комментариев одной записи.
type Thread struct {
	mu sync.Mutex

	api     api.Client
	session *session.Manager
	metrics *metrics.Metrics

	entryID uuid.UUID
	limit   int

	byID    map[string]models.Comment
	roots   []string            // корневые комментарии в порядке показа
	replies map[string][]string // корень -> прямые ответы в порядке показа

	page        int
	hasMore     bool
	loaded      bool
	loading     bool
	loadingMore bool
	err         error

	wg sync.WaitGroup
}

// Snapshot — снимок треда для потребителя.
type Snapshot struct {
	Roots       []models.Comment
	HasMore     bool
	Loading     bool
	LoadingMore bool
	Err         error
}

// NewThread создаёт пустой тред для записи entryID.
func NewThread(apiClient api.Client, sess *session.Manager, m *metrics.Metrics, entryID uuid.UUID, limit int) *Thread {
	return &Thread{
		api:     apiClient,
		session: sess,
		metrics: m,
		entryID: entryID,
		limit:   limit,
		byID:    make(map[string]models.Comment),
		replies: make(map[string][]string),
	}
}

// Load загружает первую страницу треда. Повторный вызов при уже загруженном
// треде — no-op.
func (t *Thread) Load(ctx context.Context) error {
	t.mu.Lock()

	if t.loading || t.loadingMore || (t.loaded && t.err == nil) {
		t.mu.Unlock()
		return nil
	}

	t.loading = true
	t.err = nil
	t.mu.Unlock()

	return t.fetchPage(ctx, 1, false)
}

// LoadMore запрашивает следующую страницу корневых комментариев.
// No-op, если дальше ничего нет или фетч уже в полёте.
func (t *Thread) LoadMore(ctx context.Context) error {
	t.mu.Lock()

	if !t.hasMore || t.loading || t.loadingMore {
		t.mu.Unlock()
		return nil
	}

	t.loadingMore = true
	page := t.page + 1
	t.mu.Unlock()

	return t.fetchPage(ctx, page, true)
}

// Retry очищает ошибку и повторяет сбойную загрузку.
func (t *Thread) Retry(ctx context.Context) error {
	t.mu.Lock()

	if t.err == nil || t.loading || t.loadingMore {
		t.mu.Unlock()
		return nil
	}

	page := 1
	appendPage := false
	if t.loaded {
		page = t.page + 1
		appendPage = true
	}

	t.err = nil
	if appendPage {
		t.loadingMore = true
	} else {
		t.loading = true
	}
	t.mu.Unlock()

	return t.fetchPage(ctx, page, appendPage)
}

// Add создаёт корневой комментарий и вставляет его в голову треда.
func (t *Thread) Add(ctx context.Context, content string) (*models.Comment, error) {
	const op = "comments.Add"

	user, ok := t.session.CurrentUser()
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrAuthRequired)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyContent)
	}

	created, err := t.api.CreateComment(ctx, api.CreateCommentInput{
		EntryID:    t.entryID,
		AuthorID:   user.ID,
		AuthorName: user.Username,
		Content:    content,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	t.mu.Lock()
	t.byID[created.ID] = *created
	t.roots = append([]string{created.ID}, t.roots...)
	t.mu.Unlock()

	return created, nil
}

// Reply создаёт ответ в ветке комментария parentID.
//
// Ответ на ответ прикрепляется к корню ветки: дерево остаётся двухуровневым.
// Если текст ещё не начинается с упоминания адресата, оно добавляется.
func (t *Thread) Reply(ctx context.Context, parentID, content string) (*models.Comment, error) {
	const op = "comments.Reply"

	user, ok := t.session.CurrentUser()
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrAuthRequired)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyContent)
	}

	t.mu.Lock()
	parent, ok := t.byID[parentID]
	t.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrUnknownComment)
	}

	rootID := parentID
	if parent.IsReply() {
		rootID = parent.ParentID
	}

	if mention := "@" + parent.AuthorName; parent.AuthorName != "" && !strings.HasPrefix(content, mention) {
		content = mention + " " + content
	}

	created, err := t.api.CreateComment(ctx, api.CreateCommentInput{
		EntryID:    t.entryID,
		ParentID:   rootID,
		AuthorID:   user.ID,
		AuthorName: user.Username,
		Content:    content,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	t.mu.Lock()
	t.byID[created.ID] = *created
	t.replies[rootID] = append(t.replies[rootID], created.ID)
	t.mu.Unlock()

	return created, nil
}

// Edit меняет текст своего комментария.
// Проверка владельца здесь — быстрый UX-гейт; авторитетная проверка за сервером.
func (t *Thread) Edit(ctx context.Context, id, content string) (*models.Comment, error) {
	const op = "comments.Edit"

	user, ok := t.session.CurrentUser()
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrAuthRequired)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyContent)
	}

	t.mu.Lock()
	existing, ok := t.byID[id]
	t.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrUnknownComment)
	}

	if existing.AuthorID != user.ID {
		return nil, fmt.Errorf("%s: %w", op, ErrNotOwner)
	}

	updated, err := t.api.UpdateComment(ctx, id, user.ID, content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	t.mu.Lock()
	t.byID[id] = *updated
	t.mu.Unlock()

	return updated, nil
}

// Delete удаляет свой комментарий. Удаление корня каскадно убирает его
// прямые ответы из треда — сервер делает то же самое на своей стороне.
func (t *Thread) Delete(ctx context.Context, id string) error {
	const op = "comments.Delete"

	user, ok := t.session.CurrentUser()
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrAuthRequired)
	}

	t.mu.Lock()
	existing, ok := t.byID[id]
	t.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrUnknownComment)
	}

	if existing.AuthorID != user.ID {
		return fmt.Errorf("%s: %w", op, ErrNotOwner)
	}

	if err := t.api.DeleteComment(ctx, id, user.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if existing.IsReply() {
		t.replies[existing.ParentID] = removeID(t.replies[existing.ParentID], id)
		delete(t.byID, id)

		return nil
	}

	for _, replyID := range t.replies[id] {
		delete(t.byID, replyID)
	}
	delete(t.replies, id)
	t.roots = removeID(t.roots, id)
	delete(t.byID, id)

	return nil
}

// ToggleLike оптимистично переключает лайк комментария: флип синхронный,
// подтверждение в фоне, сбой откатывается симметрично поверх актуального
// состояния, успешный ответ сервера авторитативен.
func (t *Thread) ToggleLike(ctx context.Context, id string) error {
	const op = "comments.ToggleLike"

	user, ok := t.session.CurrentUser()
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrAuthRequired)
	}

	var (
		want  bool
		delta int
	)
	applied := t.apply(id, func(c *models.Comment) {
		want = !c.LikedByMe
		delta = -1
		if want {
			delta = 1
		}

		c.LikedByMe = want
		c.LikeCount += delta
	})
	if !applied {
		return fmt.Errorf("%s: %w", op, ErrUnknownComment)
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		res, err := t.api.ToggleCommentLike(ctx, id, user.ID)
		if err != nil {
			t.apply(id, func(c *models.Comment) {
				c.LikeCount -= delta
				c.LikedByMe = !c.LikedByMe
			})
			t.metrics.Rollbacks.Inc()

			log.From(ctx).Warn("comment_like_rolled_back",
				slog.String("op", op),
				slog.String("comment_id", id),
				slog.String("err", err.Error()),
			)

			return
		}

		t.apply(id, func(c *models.Comment) {
			c.LikedByMe = res.Liked
			c.LikeCount = res.LikeCount
		})
	}()

	return nil
}

// Snapshot возвращает снимок треда: корневые комментарии и статус загрузки.
func (t *Thread) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	roots := make([]models.Comment, 0, len(t.roots))
	for _, id := range t.roots {
		if c, ok := t.byID[id]; ok {
			roots = append(roots, c)
		}
	}

	return Snapshot{
		Roots:       roots,
		HasMore:     t.hasMore,
		Loading:     t.loading,
		LoadingMore: t.loadingMore,
		Err:         t.err,
	}
}

// Replies возвращает прямые ответы ветки rootID в порядке показа.
func (t *Thread) Replies(rootID string) []models.Comment {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := t.replies[rootID]
	out := make([]models.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := t.byID[id]; ok {
			out = append(out, c)
		}
	}

	return out
}

// Comment возвращает копию комментария по id.
func (t *Thread) Comment(id string) (models.Comment, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.byID[id]

	return c, ok
}

// Flush дожидается завершения всех фоновых подтверждений лайков.
func (t *Thread) Flush() {
	t.wg.Wait()
}

func (t *Thread) fetchPage(ctx context.Context, page int, appendPage bool) error {
	const op = "comments.fetchPage"

	viewer := uuid.Nil
	if u, ok := t.session.CurrentUser(); ok {
		viewer = u.ID
	}

	resp, err := t.api.ListComments(ctx, api.ListCommentsParams{
		EntryID: t.entryID,
		Page:    page,
		Limit:   t.limit,
		Viewer:  viewer,
	})

	t.mu.Lock()
	defer t.mu.Unlock()

	t.loading = false
	t.loadingMore = false

	if err != nil {
		t.hasMore = false
		t.err = err

		log.From(ctx).Warn("comments_fetch_failed",
			slog.String("op", op),
			slog.String("entry_id", t.entryID.String()),
			slog.Int("page", page),
			slog.String("err", err.Error()),
		)

		return fmt.Errorf("%s: %w", op, err)
	}

	if !appendPage {
		t.byID = make(map[string]models.Comment)
		t.roots = nil
		t.replies = make(map[string][]string)
	}

	t.ingestLocked(resp.Comments)
	t.page = page
	t.hasMore = resp.HasMore
	t.loaded = true
	t.err = nil

	return nil
}

// ingestLocked раскладывает плоскую страницу по корням и веткам ответов.
func (t *Thread) ingestLocked(page []models.Comment) {
	for _, c := range page {
		if _, dup := t.byID[c.ID]; dup {
			t.byID[c.ID] = c
			continue
		}

		t.byID[c.ID] = c
		if c.IsReply() {
			t.replies[c.ParentID] = append(t.replies[c.ParentID], c.ID)
		} else {
			t.roots = append(t.roots, c.ID)
		}
	}
}

// apply применяет мутацию к актуальному состоянию комментария под локом.
func (t *Thread) apply(id string, mutate func(*models.Comment)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.byID[id]
	if !ok {
		return false
	}

	mutate(&c)
	t.byID[id] = c

	return true
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}

	return out
}
