package domain

import "time"

// PostStatus описывает стадию модерации поста.
type PostStatus string

const (
	// StatusPending пост создан пайплайном и ждёт решения модератора.
	StatusPending PostStatus = "PENDING"
	// StatusPublished пост одобрен и виден в публичном блоге.
	StatusPublished PostStatus = "PUBLISHED"
	// StatusRejected пост отклонён модератором.
	StatusRejected PostStatus = "REJECTED"
)

// Valid сообщает, является ли значение известным статусом.
func (s PostStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPublished, StatusRejected:
		return true
	}
	return false
}

// ImageSource описывает происхождение обложки поста.
type ImageSource string

const (
	// ImageSourceUnsplash обложка найдена через поиск Unsplash.
	ImageSourceUnsplash ImageSource = "UNSPLASH"
	// ImageSourceAIGenerated запасное значение, когда поиск картинки не дал результата.
	ImageSourceAIGenerated ImageSource = "AI_GENERATED"
	// ImageSourceNone у поста нет обложки.
	ImageSourceNone ImageSource = "NONE"
)

// Post — статья блога, созданная из сообщения телеграм-канала.
type Post struct {
	ID                int64
	TelegramMessageID int64
	OriginalChannel   string
	OriginalText      string
	RewrittenTitle    string
	RewrittenContent  string
	Summary           string
	Tags              []string
	Slug              string
	ImageURL          string
	ImageSource       ImageSource
	MetaTitle         string
	MetaDescription   string
	Status            PostStatus
	Views             int64
	PublishedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ChannelMessage — сырое сообщение телеграм-канала до переработки.
type ChannelMessage struct {
	ID      int64
	Text    string
	Date    time.Time
	Channel string
}

// RewrittenArticle — структурированный результат переработки текста LLM.
// Все шесть полей обязательны; Tags допускается пустым.
type RewrittenArticle struct {
	Title           string
	Summary         string
	Content         string
	Tags            []string
	MetaTitle       string
	MetaDescription string
}

// SyncedPost — краткая сводка по созданному за прогон посту.
type SyncedPost struct {
	PostID            int64      `json:"id"`
	TelegramMessageID int64      `json:"telegramId"`
	Title             string     `json:"title"`
	Status            PostStatus `json:"status"`
}

// SyncReport — агрегированный итог одного прогона синхронизации.
type SyncReport struct {
	Processed int
	Skipped   int
	Errors    int
	Posts     []SyncedPost
	Duration  time.Duration
}

// TagCount — частота тега среди опубликованных постов.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Lead — заявка из формы обратной связи.
type Lead struct {
	Telegram  string    `json:"telegram"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage — реплика диалога продающего чата.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Role описывает уровень доступа аутентифицированного вызова.
type Role string

const (
	// RoleAdmin полный доступ к модерации.
	RoleAdmin Role = "ADMIN"
	// RoleEditor аутентифицирован, но без прав модерации.
	RoleEditor Role = "EDITOR"
)
