package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kruglovaa/go-journal-feed/internal/facet"
	"github.com/kruglovaa/go-journal-feed/internal/models"
	"github.com/kruglovaa/go-journal-feed/pkg/log"
)

// ListEntriesParams — параметры постраничной выборки записей.
// Viewer — идентификатор текущего пользователя (uuid.Nil для анонима);
// нужен для свёртки множества likes в liked-флаг на границе конвертации.
type ListEntriesParams struct {
	Page     int
	Limit    int
	Ordering models.Ordering
	Scope    models.Scope
	Facet    models.Facet
	Viewer   uuid.UUID
}

// ListCommentsParams — параметры постраничной выборки корневых комментариев.
type ListCommentsParams struct {
	EntryID uuid.UUID
	Page    int
	Limit   int
	Viewer  uuid.UUID
}

// CreateCommentInput — создание корневого комментария или ответа.
type CreateCommentInput struct {
	EntryID    uuid.UUID
	ParentID   string
	AuthorID   uuid.UUID
	AuthorName string
	Content    string
}

// LikeResult — серверно-авторитативный результат переключения лайка.
type LikeResult struct {
	Liked     bool
	LikeCount int
}

// Client — контракт удалённого сервиса платформы.
type Client interface {
	// ListEntries возвращает страницу записей с учётом сортировки/оси/фасета.
	ListEntries(ctx context.Context, p ListEntriesParams) (*models.EntriesPage, error)
	// EntryBySlug возвращает запись по slug; ErrNotFound, если записи нет.
	EntryBySlug(ctx context.Context, slug string, viewer uuid.UUID) (*models.Entry, error)
	// ToggleEntryLike переключает лайк записи и возвращает серверную истину.
	ToggleEntryLike(ctx context.Context, entryID, userID uuid.UUID) (*LikeResult, error)
	// ToggleEntrySave переключает сохранение записи (ответ — только подтверждение).
	ToggleEntrySave(ctx context.Context, entryID, userID uuid.UUID, saved bool) error
	// ListComments возвращает страницу корневых комментариев записи.
	ListComments(ctx context.Context, p ListCommentsParams) (*models.CommentsPage, error)
	// CreateComment создаёт корневой комментарий или ответ.
	CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error)
	// UpdateComment меняет текст комментария (авторство проверяет сервер).
	UpdateComment(ctx context.Context, id string, userID uuid.UUID, content string) (*models.Comment, error)
	// DeleteComment удаляет комментарий (сервер каскадно убирает прямые ответы).
	DeleteComment(ctx context.Context, id string, userID uuid.UUID) error
	// ToggleCommentLike переключает лайк комментария.
	ToggleCommentLike(ctx context.Context, id string, userID uuid.UUID) (*LikeResult, error)
	// SubscriptionStatus сообщает, подписан ли userID на автора.
	SubscriptionStatus(ctx context.Context, authorID, userID uuid.UUID) (bool, error)
	// ToggleSubscription переключает подписку и возвращает новое состояние.
	ToggleSubscription(ctx context.Context, authorID, userID uuid.UUID) (bool, error)
}

// HTTPClient — реализация Client поверх HTTP/JSON.
type HTTPClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewHTTP создаёт клиент удалённого сервиса.
func NewHTTP(baseURL, userAgent string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      httpClient,
	}
}

// ListEntries реализует Client.ListEntries.
func (c *HTTPClient) ListEntries(ctx context.Context, p ListEntriesParams) (*models.EntriesPage, error) {
	const op = "api.ListEntries"

	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))
	q.Set("sort", string(p.Ordering))
	q.Set("scope", string(p.Scope))
	for k, vs := range facet.Query(p.Facet) {
		q[k] = vs
	}

	var resp entriesListResponse
	if err := c.do(ctx, http.MethodGet, "/entries?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.EntriesPage{
		Entries: entriesFromDTO(resp.Entries, p.Viewer),
		HasMore: resp.HasMore,
	}, nil
}

// EntryBySlug реализует Client.EntryBySlug.
func (c *HTTPClient) EntryBySlug(ctx context.Context, slug string, viewer uuid.UUID) (*models.Entry, error) {
	const op = "api.EntryBySlug"

	var resp entryResponse
	if err := c.do(ctx, http.MethodGet, "/entries/slug/"+url.PathEscape(slug), nil, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entry := entryFromDTO(resp.Entry, viewer)

	return &entry, nil
}

// ToggleEntryLike реализует Client.ToggleEntryLike.
func (c *HTTPClient) ToggleEntryLike(ctx context.Context, entryID, userID uuid.UUID) (*LikeResult, error) {
	const op = "api.ToggleEntryLike"

	var resp toggleLikeResponse
	err := c.do(ctx, http.MethodPost,
		"/entries/"+entryID.String()+"/like",
		toggleLikeRequest{UserID: userID.String()},
		&resp,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &LikeResult{Liked: resp.IsLiked, LikeCount: resp.LikeCount}, nil
}

// ToggleEntrySave реализует Client.ToggleEntrySave.
func (c *HTTPClient) ToggleEntrySave(ctx context.Context, entryID, userID uuid.UUID, saved bool) error {
	const op = "api.ToggleEntrySave"

	err := c.do(ctx, http.MethodPost,
		"/entries/"+entryID.String()+"/save",
		toggleSaveRequest{UserID: userID.String(), Saved: saved},
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ListComments реализует Client.ListComments.
func (c *HTTPClient) ListComments(ctx context.Context, p ListCommentsParams) (*models.CommentsPage, error) {
	const op = "api.ListComments"

	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))

	var resp commentsListResponse
	err := c.do(ctx, http.MethodGet,
		"/entries/"+p.EntryID.String()+"/comments?"+q.Encode(), nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.CommentsPage{
		Comments: commentsFromDTO(resp.Comments, p.Viewer),
		HasMore:  resp.HasMore,
	}, nil
}

// CreateComment реализует Client.CreateComment.
func (c *HTTPClient) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	const op = "api.CreateComment"

	var resp commentResponse
	err := c.do(ctx, http.MethodPost, "/comments", createCommentRequest{
		EntryID:    in.EntryID.String(),
		ParentID:   in.ParentID,
		AuthorID:   in.AuthorID.String(),
		AuthorName: in.AuthorName,
		Content:    in.Content,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	comment := commentFromDTO(resp.Comment, in.AuthorID)

	return &comment, nil
}

// UpdateComment реализует Client.UpdateComment.
func (c *HTTPClient) UpdateComment(ctx context.Context, id string, userID uuid.UUID, content string) (*models.Comment, error) {
	const op = "api.UpdateComment"

	var resp commentResponse
	err := c.do(ctx, http.MethodPut, "/comments/"+url.PathEscape(id), updateCommentRequest{
		UserID:  userID.String(),
		Content: content,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	comment := commentFromDTO(resp.Comment, userID)

	return &comment, nil
}

// DeleteComment реализует Client.DeleteComment.
func (c *HTTPClient) DeleteComment(ctx context.Context, id string, userID uuid.UUID) error {
	const op = "api.DeleteComment"

	q := url.Values{}
	q.Set("user_id", userID.String())

	if err := c.do(ctx, http.MethodDelete, "/comments/"+url.PathEscape(id)+"?"+q.Encode(), nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ToggleCommentLike реализует Client.ToggleCommentLike.
func (c *HTTPClient) ToggleCommentLike(ctx context.Context, id string, userID uuid.UUID) (*LikeResult, error) {
	const op = "api.ToggleCommentLike"

	var resp toggleLikeResponse
	err := c.do(ctx, http.MethodPost,
		"/comments/"+url.PathEscape(id)+"/like",
		toggleLikeRequest{UserID: userID.String()},
		&resp,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &LikeResult{Liked: resp.IsLiked, LikeCount: resp.LikeCount}, nil
}

// SubscriptionStatus реализует Client.SubscriptionStatus.
func (c *HTTPClient) SubscriptionStatus(ctx context.Context, authorID, userID uuid.UUID) (bool, error) {
	const op = "api.SubscriptionStatus"

	q := url.Values{}
	q.Set("user_id", userID.String())

	var resp subscriptionResponse
	err := c.do(ctx, http.MethodGet,
		"/authors/"+authorID.String()+"/subscription?"+q.Encode(), nil, &resp)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return resp.Subscribed, nil
}

// ToggleSubscription реализует Client.ToggleSubscription.
func (c *HTTPClient) ToggleSubscription(ctx context.Context, authorID, userID uuid.UUID) (bool, error) {
	const op = "api.ToggleSubscription"

	var resp subscriptionResponse
	err := c.do(ctx, http.MethodPost,
		"/authors/"+authorID.String()+"/subscription",
		toggleSubscriptionRequest{UserID: userID.String()},
		&resp,
	)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return resp.Subscribed, nil
}

// do выполняет запрос и декодирует ответ в out (nil — тело не нужно).
// Транспортные ошибки сворачиваются в ErrUnavailable, неуспешные статусы —
// в сентинели из errFromStatus.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.From(ctx).Warn("api_transport_error",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("err", err.Error()),
		)

		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// Конверт ошибки читаем best-effort: статус важнее тела.
		var envelope apiError
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&envelope)

		log.From(ctx).Warn("api_status_error",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("code", envelope.Error.Code),
		)

		return errFromStatus(resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	return nil
}
