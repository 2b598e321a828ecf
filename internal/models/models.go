// models содержит доменные сущности клиентского фид-ядра.
// Эти типы используются слоями api, store, feed, engage и comments.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Ordering — режим сортировки ленты.
type Ordering string

const (
	// OrderingLatest — по убыванию даты публикации.
	OrderingLatest Ordering = "latest"
	// OrderingTop — по убыванию количества лайков.
	OrderingTop Ordering = "top"
	// OrderingOldest — по возрастанию даты публикации.
	OrderingOldest Ordering = "oldest"
)

// Scope — ось «все записи» / «только подписки».
type Scope string

const (
	ScopeAll       Scope = "all"
	ScopeFollowing Scope = "following"
)

// FacetKind — вид фасета: свободный тег или фиксированная категория.
type FacetKind string

const (
	FacetTag      FacetKind = "tag"
	FacetCategory FacetKind = "category"
)

// Facet — срез ленты по тегу или категории.
// Нулевое значение означает «фасет не выбран».
type Facet struct {
	Kind  FacetKind
	Value string
}

// IsZero сообщает, что фасет не выбран.
func (f Facet) IsZero() bool {
	return f.Kind == "" && f.Value == ""
}

// Author — автор записи (ссылка на профиль).
type Author struct {
	ID        uuid.UUID
	Username  string
	AvatarURL string
}

// Entry — доменная сущность записи дневника.
//
// Особенности:
//   - ID — UUIDv4, временные метки — в UTC;
//   - LikeCount — серверно-авторитативное значение; локально оно меняется
//     только оптимистично и затем сверяется с ответом сервера;
//   - LikedByMe/SavedByMe — производные флаги текущего пользователя,
//     вычисленные на границе api из множества likes (единая точка свёртки).
type Entry struct {
	ID           uuid.UUID
	Slug         string
	Title        string
	Content      string
	Author       Author
	Tags         []string
	Category     string
	LikeCount    int
	LikedByMe    bool
	SavedByMe    bool
	IsPublic     bool
	ThumbnailURL string
	CreatedAt    time.Time
}

// Comment — комментарий к записи.
//
// Особенности:
//   - ID — строковый идентификатор сервера;
//   - ParentID == "" — корневой комментарий; непустой ParentID всегда
//     указывает на корневой комментарий (ответы на ответы выпрямляются
//     под исходный корень при создании);
//   - LikeCount — счётчик, независимый от лайков записи.
type Comment struct {
	ID         string
	EntryID    uuid.UUID
	ParentID   string
	AuthorID   uuid.UUID
	AuthorName string
	Content    string
	LikeCount  int
	LikedByMe  bool
	CreatedAt  time.Time
}

// IsReply сообщает, является ли комментарий ответом.
func (c Comment) IsReply() bool {
	return c.ParentID != ""
}

// User — пользователь платформы (минимальный профиль для клиентской части).
type User struct {
	ID        uuid.UUID
	Username  string
	AvatarURL string
}

// EntriesPage — страница выдачи записей.
type EntriesPage struct {
	Entries []Entry
	HasMore bool
}

// CommentsPage — страница выдачи корневых комментариев.
type CommentsPage struct {
	Comments []Comment
	HasMore  bool
}
