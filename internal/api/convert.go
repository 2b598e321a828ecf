package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/kruglovaa/go-journal-feed/internal/models"
)

// Конвертация wire -> домен. Здесь единственная точка, где множество likes
// сворачивается в liked-флаг зрителя: дальше по слоям ходит уже готовый флаг,
// а LikeCount остаётся серверно-авторитативным числом.

func entryFromDTO(d entryDTO, viewer uuid.UUID) models.Entry {
	authorID, _ := uuid.Parse(d.Author.ID)
	id, _ := uuid.Parse(d.ID)

	return models.Entry{
		ID:      id,
		Slug:    d.Slug,
		Title:   d.Title,
		Content: d.Content,
		Author: models.Author{
			ID:        authorID,
			Username:  d.Author.Username,
			AvatarURL: d.Author.AvatarURL,
		},
		Tags:         d.Tags,
		Category:     d.Category,
		LikeCount:    d.LikeCount,
		LikedByMe:    containsViewer(d.Likes, viewer),
		IsPublic:     d.IsPublic,
		ThumbnailURL: d.ThumbnailURL,
		CreatedAt:    time.Unix(d.CreatedAt, 0).UTC(),
	}
}

func entriesFromDTO(items []entryDTO, viewer uuid.UUID) []models.Entry {
	out := make([]models.Entry, 0, len(items))
	for _, d := range items {
		out = append(out, entryFromDTO(d, viewer))
	}

	return out
}

func commentFromDTO(d commentDTO, viewer uuid.UUID) models.Comment {
	entryID, _ := uuid.Parse(d.EntryID)
	authorID, _ := uuid.Parse(d.AuthorID)

	return models.Comment{
		ID:         d.ID,
		EntryID:    entryID,
		ParentID:   d.ParentID,
		AuthorID:   authorID,
		AuthorName: d.AuthorName,
		Content:    d.Content,
		LikeCount:  d.LikeCount,
		LikedByMe:  containsViewer(d.Likes, viewer),
		CreatedAt:  time.Unix(d.CreatedAt, 0).UTC(),
	}
}

func commentsFromDTO(items []commentDTO, viewer uuid.UUID) []models.Comment {
	out := make([]models.Comment, 0, len(items))
	for _, d := range items {
		out = append(out, commentFromDTO(d, viewer))
	}

	return out
}

// containsViewer проверяет вхождение зрителя в множество likes.
// Анонимный зритель (uuid.Nil) не входит ни в одно множество.
func containsViewer(likes []string, viewer uuid.UUID) bool {
	if viewer == uuid.Nil {
		return false
	}

	v := viewer.String()
	for _, id := range likes {
		if id == v {
			return true
		}
	}

	return false
}
