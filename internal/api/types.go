package api

// Wire-модели удалённого сервиса. Временные метки — Unix UTC,
// имена полей — snake_case, формат ошибки — единый конверт {"error": {...}}.

type authorDTO struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type entryDTO struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Author       authorDTO `json:"author"`
	Tags         []string  `json:"tags"`
	Category     string    `json:"category"`
	LikeCount    int       `json:"like_count"`
	Likes        []string  `json:"likes"` // множество user id, свёртывается в liked-флаг зрителя
	IsPublic     bool      `json:"is_public"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	CreatedAt    int64     `json:"created_at"` // Unix UTC
}

type entriesListResponse struct {
	Entries []entryDTO `json:"entries"`
	HasMore bool       `json:"has_more"`
}

type entryResponse struct {
	Entry entryDTO `json:"entry"`
}

type commentDTO struct {
	ID         string   `json:"id"`
	EntryID    string   `json:"entry_id"`
	ParentID   string   `json:"parent_id"` // "" — корень
	AuthorID   string   `json:"author_id"`
	AuthorName string   `json:"author_name"`
	Content    string   `json:"content"`
	LikeCount  int      `json:"like_count"`
	Likes      []string `json:"likes"`
	CreatedAt  int64    `json:"created_at"` // Unix UTC
}

type commentsListResponse struct {
	Comments []commentDTO `json:"comments"`
	HasMore  bool         `json:"has_more"`
}

type commentResponse struct {
	Comment commentDTO `json:"comment"`
}

type toggleLikeRequest struct {
	UserID string `json:"user_id"`
}

type toggleLikeResponse struct {
	IsLiked   bool `json:"is_liked"`
	LikeCount int  `json:"like_count"`
}

type toggleSaveRequest struct {
	UserID string `json:"user_id"`
	Saved  bool   `json:"saved"`
}

type createCommentRequest struct {
	EntryID    string `json:"entry_id"`
	ParentID   string `json:"parent_id,omitempty"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
}

type updateCommentRequest struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

type subscriptionResponse struct {
	Subscribed bool `json:"subscribed"`
}

type toggleSubscriptionRequest struct {
	UserID string `json:"user_id"`
}

// apiError — конверт ошибки удалённого сервиса.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
