package model

import "time"

type ContentType string

const (
	ContentVideo   ContentType = "video"
	ContentAudio   ContentType = "audio"
	ContentArticle ContentType = "article"
	ContentLink    ContentType = "link"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentVideo, ContentAudio, ContentArticle, ContentLink:
		return true
	}
	return false
}

type Language string

const (
	LanguageEnglish Language = "english"
	LanguageHindi   Language = "hindi"
	LanguageUrdu    Language = "urdu"
)

func (l Language) Valid() bool {
	switch l {
	case LanguageEnglish, LanguageHindi, LanguageUrdu:
		return true
	}
	return false
}

type ResourceCategory struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

// Resource материал библиотеки самопомощи: видео, аудио, статья или ссылка
type Resource struct {
	ID              int64       `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	ContentType     ContentType `json:"content_type"`
	CategoryID      int64       `json:"category_id"`
	Language        Language    `json:"language"`
	DurationMinutes *int        `json:"duration_minutes,omitempty"`
	ContentURL      string      `json:"content_url,omitempty"`
	ContentText     string      `json:"content_text,omitempty"`
	ThumbnailURL    string      `json:"thumbnail_url,omitempty"`
	IsActive        bool        `json:"is_active"`
	CreatedBy       int64       `json:"-"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`

	AverageRating *float64             `json:"average_rating,omitempty"` // nil, пока нет оценок
	TotalRatings  int                  `json:"total_ratings"`
	Interaction   *ResourceInteraction `json:"user_interaction,omitempty"`
}

// ResourceInteraction закладка, оценка и прогресс пользователя по материалу
type ResourceInteraction struct {
	UserID             int64      `json:"-"`
	ResourceID         int64      `json:"resource_id"`
	IsBookmarked       bool       `json:"is_bookmarked"`
	Rating             *int       `json:"rating,omitempty"` // 1..5
	ProgressPercentage int        `json:"progress_percentage"`
	LastAccessedAt     *time.Time `json:"last_accessed_at,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// InteractionUpdate частичное изменение взаимодействия, nil поля не меняются
type InteractionUpdate struct {
	IsBookmarked *bool
	Rating       *int
	Progress     *int
}

type ResourceFilter struct {
	CategoryID      int64
	ContentType     ContentType
	Language        Language
	Search          string
	IncludeInactive bool
	BookmarkedOnly  bool // только закладки запрашивающего пользователя
}
