// apitest — in-memory имитация удалённого сервиса платформы для тестов.
// Поднимает httptest.Server с тем же контрактом маршрутов и wire-форматом,
// что и настоящий сервис: пагинация записей, выборка по slug, лайки,
// сохранения, комментарии и подписки.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// Entry — запись, засеиваемая в имитацию.
type Entry struct {
	ID         string   `json:"id"`
	Slug       string   `json:"slug"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	AuthorID   string   `json:"-"`
	AuthorName string   `json:"-"`
	Tags       []string `json:"tags"`
	Category   string   `json:"category"`
	Likes      []string `json:"likes"`
	IsPublic   bool     `json:"is_public"`
	CreatedAt  int64    `json:"created_at"`
}

type comment struct {
	ID         string   `json:"id"`
	EntryID    string   `json:"entry_id"`
	ParentID   string   `json:"parent_id"`
	AuthorID   string   `json:"author_id"`
	AuthorName string   `json:"author_name"`
	Content    string   `json:"content"`
	Likes      []string `json:"likes"`
	CreatedAt  int64    `json:"created_at"`
}

// Server — имитация удалённого сервиса.
type Server struct {
	mu sync.Mutex

	entries  []*Entry
	comments []*comment
	nextID   int
	saved    map[string]map[string]bool // user -> entry -> saved
	subs     map[string]map[string]bool // author -> user -> subscribed

	// failures — маршруты, следующий вызов которых вернёт 500.
	// Ключ — "METHOD /path-prefix".
	failures map[string]int

	srv *httptest.Server
}

// New поднимает имитацию на локальном httptest-сервере.
func New() *Server {
	s := &Server{
		saved:    make(map[string]map[string]bool),
		subs:     make(map[string]map[string]bool),
		failures: make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(s.failureMiddleware)

	r.Get("/entries", s.listEntries)
	r.Get("/entries/slug/{slug}", s.entryBySlug)
	r.Post("/entries/{id}/like", s.toggleEntryLike)
	r.Post("/entries/{id}/save", s.toggleEntrySave)
	r.Get("/entries/{id}/comments", s.listComments)
	r.Post("/comments", s.createComment)
	r.Put("/comments/{id}", s.updateComment)
	r.Delete("/comments/{id}", s.deleteComment)
	r.Post("/comments/{id}/like", s.toggleCommentLike)
	r.Get("/authors/{id}/subscription", s.subscriptionStatus)
	r.Post("/authors/{id}/subscription", s.toggleSubscription)

	s.srv = httptest.NewServer(r)

	return s
}

// URL — базовый адрес имитации.
func (s *Server) URL() string {
	return s.srv.URL
}

// Close останавливает сервер.
func (s *Server) Close() {
	s.srv.Close()
}

// AddEntry засеивает запись.
func (s *Server) AddEntry(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := e
	s.entries = append(s.entries, &cp)
}

// AddComment засеивает комментарий и возвращает его id.
func (s *Server) AddComment(entryID, parentID, authorID, authorName, content string, createdAt int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	c := &comment{
		ID:         fmt.Sprintf("c%d", s.nextID),
		EntryID:    entryID,
		ParentID:   parentID,
		AuthorID:   authorID,
		AuthorName: authorName,
		Content:    content,
		CreatedAt:  createdAt,
	}
	s.comments = append(s.comments, c)

	return c.ID
}

// FailNext заставляет следующие n запросов на маршрут ответить 500.
// route — "METHOD /path-prefix", например "POST /entries".
func (s *Server) FailNext(route string, n int) {
	s.mu.Lock()
	s.failures[route] = n
	s.mu.Unlock()
}

func (s *Server) failureMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		var matched string
		for route, n := range s.failures {
			method, prefix, ok := strings.Cut(route, " ")
			if ok && n > 0 && r.Method == method && strings.HasPrefix(r.URL.Path, prefix) {
				matched = route
				break
			}
		}
		if matched != "" {
			s.failures[matched]--
		}
		s.mu.Unlock()

		if matched != "" {
			writeError(w, http.StatusInternalServerError, "internal", "induced failure")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	sortMode := r.URL.Query().Get("sort")
	tag := r.URL.Query().Get("tag")
	category := r.URL.Query().Get("category")

	s.mu.Lock()
	filtered := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.IsPublic {
			continue
		}
		if tag != "" && !containsString(e.Tags, tag) {
			continue
		}
		if category != "" && e.Category != category {
			continue
		}

		filtered = append(filtered, e)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		switch sortMode {
		case "top":
			return len(filtered[i].Likes) > len(filtered[j].Likes)
		case "oldest":
			return filtered[i].CreatedAt < filtered[j].CreatedAt
		default:
			return filtered[i].CreatedAt > filtered[j].CreatedAt
		}
	})

	from := (page - 1) * limit
	to := from + limit
	if from > len(filtered) {
		from = len(filtered)
	}
	if to > len(filtered) {
		to = len(filtered)
	}

	out := make([]map[string]any, 0, to-from)
	for _, e := range filtered[from:to] {
		out = append(out, entryJSON(e))
	}
	hasMore := to < len(filtered)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"entries": out, "has_more": hasMore})
}

func (s *Server) entryBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.Slug == slug && e.IsPublic {
			writeJSON(w, http.StatusOK, map[string]any{"entry": entryJSON(e)})
			return
		}
	}

	writeError(w, http.StatusNotFound, "not_found", "entry not found")
}

func (s *Server) toggleEntryLike(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
		writeError(w, http.StatusBadRequest, "invalid_argument", "user_id required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.ID != id {
			continue
		}

		if containsString(e.Likes, body.UserID) {
			e.Likes = removeString(e.Likes, body.UserID)
		} else {
			e.Likes = append(e.Likes, body.UserID)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"is_liked":   containsString(e.Likes, body.UserID),
			"like_count": len(e.Likes),
		})
		return
	}

	writeError(w, http.StatusNotFound, "not_found", "entry not found")
}

func (s *Server) toggleEntrySave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		UserID string `json:"user_id"`
		Saved  bool   `json:"saved"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
		writeError(w, http.StatusBadRequest, "invalid_argument", "user_id required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saved[body.UserID] == nil {
		s.saved[body.UserID] = make(map[string]bool)
	}
	s.saved[body.UserID][id] = body.Saved

	writeJSON(w, http.StatusOK, map[string]any{"saved": body.Saved})
}

// Saved сообщает, сохранена ли запись пользователем (для проверок в тестах).
func (s *Server) Saved(userID, entryID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saved[userID][entryID]
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	roots := make([]*comment, 0)
	byParent := make(map[string][]*comment)
	for _, c := range s.comments {
		if c.EntryID != entryID {
			continue
		}
		if c.ParentID == "" {
			roots = append(roots, c)
		} else {
			byParent[c.ParentID] = append(byParent[c.ParentID], c)
		}
	}

	sort.SliceStable(roots, func(i, j int) bool { return roots[i].CreatedAt > roots[j].CreatedAt })

	from := (page - 1) * limit
	to := from + limit
	if from > len(roots) {
		from = len(roots)
	}
	if to > len(roots) {
		to = len(roots)
	}

	// Страница отдаётся плоско: корни среза плюс все их прямые ответы.
	out := make([]map[string]any, 0)
	for _, root := range roots[from:to] {
		out = append(out, commentJSON(root))
		for _, reply := range byParent[root.ID] {
			out = append(out, commentJSON(reply))
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"comments": out, "has_more": to < len(roots)})
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		EntryID    string `json:"entry_id"`
		ParentID   string `json:"parent_id"`
		AuthorID   string `json:"author_id"`
		AuthorName string `json:"author_name"`
		Content    string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.EntryID == "" || body.Content == "" {
		writeError(w, http.StatusBadRequest, "invalid_argument", "entry_id and content required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	c := &comment{
		ID:         fmt.Sprintf("c%d", s.nextID),
		EntryID:    body.EntryID,
		ParentID:   body.ParentID,
		AuthorID:   body.AuthorID,
		AuthorName: body.AuthorName,
		Content:    body.Content,
		CreatedAt:  time.Now().Unix(),
	}
	s.comments = append(s.comments, c)

	writeJSON(w, http.StatusOK, map[string]any{"comment": commentJSON(c)})
}

func (s *Server) updateComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		UserID  string `json:"user_id"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Content == "" {
		writeError(w, http.StatusBadRequest, "invalid_argument", "content required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.comments {
		if c.ID != id {
			continue
		}
		if c.AuthorID != body.UserID {
			writeError(w, http.StatusUnauthorized, "not_owner", "not the comment owner")
			return
		}

		c.Content = body.Content
		writeJSON(w, http.StatusOK, map[string]any{"comment": commentJSON(c)})
		return
	}

	writeError(w, http.StatusNotFound, "not_found", "comment not found")
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := r.URL.Query().Get("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.comments {
		if c.ID != id {
			continue
		}
		if c.AuthorID != userID {
			writeError(w, http.StatusUnauthorized, "not_owner", "not the comment owner")
			return
		}

		// Каскад: прямые ответы уходят вместе с корнем.
		kept := s.comments[:0]
		for _, other := range s.comments {
			if other.ID == id || other.ParentID == id {
				continue
			}
			kept = append(kept, other)
		}
		s.comments = kept

		writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
		return
	}

	writeError(w, http.StatusNotFound, "not_found", "comment not found")
}

func (s *Server) toggleCommentLike(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
		writeError(w, http.StatusBadRequest, "invalid_argument", "user_id required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.comments {
		if c.ID != id {
			continue
		}

		if containsString(c.Likes, body.UserID) {
			c.Likes = removeString(c.Likes, body.UserID)
		} else {
			c.Likes = append(c.Likes, body.UserID)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"is_liked":   containsString(c.Likes, body.UserID),
			"like_count": len(c.Likes),
		})
		return
	}

	writeError(w, http.StatusNotFound, "not_found", "comment not found")
}

func (s *Server) subscriptionStatus(w http.ResponseWriter, r *http.Request) {
	authorID := chi.URLParam(r, "id")
	userID := r.URL.Query().Get("user_id")

	s.mu.Lock()
	subscribed := s.subs[authorID][userID]
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"subscribed": subscribed})
}

func (s *Server) toggleSubscription(w http.ResponseWriter, r *http.Request) {
	authorID := chi.URLParam(r, "id")

	var body struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
		writeError(w, http.StatusBadRequest, "invalid_argument", "user_id required")
		return
	}

	s.mu.Lock()
	if s.subs[authorID] == nil {
		s.subs[authorID] = make(map[string]bool)
	}
	s.subs[authorID][body.UserID] = !s.subs[authorID][body.UserID]
	subscribed := s.subs[authorID][body.UserID]
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"subscribed": subscribed})
}

func entryJSON(e *Entry) map[string]any {
	return map[string]any{
		"id":      e.ID,
		"slug":    e.Slug,
		"title":   e.Title,
		"content": e.Content,
		"author": map[string]any{
			"id":       e.AuthorID,
			"username": e.AuthorName,
		},
		"tags":       e.Tags,
		"category":   e.Category,
		"like_count": len(e.Likes),
		"likes":      e.Likes,
		"is_public":  e.IsPublic,
		"created_at": e.CreatedAt,
	}
}

func commentJSON(c *comment) map[string]any {
	return map[string]any{
		"id":          c.ID,
		"entry_id":    c.EntryID,
		"parent_id":   c.ParentID,
		"author_id":   c.AuthorID,
		"author_name": c.AuthorName,
		"content":     c.Content,
		"like_count":  len(c.Likes),
		"likes":       c.Likes,
		"created_at":  c.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"code": code, "message": message},
	})
}

func containsString(items []string, v string) bool {
	for _, it := range items {
		if it == v {
			return true
		}
	}

	return false
}

func removeString(items []string, v string) []string {
	out := items[:0]
	for _, it := range items {
		if it != v {
			out = append(out, it)
		}
	}

	return out
}
