package domain

import (
	"context"
	"time"
)

// PostFilter задаёт выборку постов для админской модерации.
type PostFilter struct {
	// Status пустой или "ALL" означает все статусы.
	Status    string
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string
}

// PublicFilter задаёт выборку опубликованных постов.
type PublicFilter struct {
	Page   int
	Limit  int
	Search string
	Tag    string
}

// ChannelFetcher выгружает последние сообщения исходного канала.
type ChannelFetcher interface {
	FetchRecent(ctx context.Context, limit int) ([]ChannelMessage, error)
}

// ArticleRewriter переписывает сырой текст в структурированную статью через LLM.
type ArticleRewriter interface {
	Rewrite(ctx context.Context, rawText, sourceChannel string) (RewrittenArticle, error)
}

// ImageFinder подбирает обложку по ключевым словам.
// Любая проблема апстрима выражается пустым URL, а не ошибкой:
// картинка — необязательное улучшение пайплайна.
type ImageFinder interface {
	FindImage(ctx context.Context, keywords []string, orientation string) string
}

// PostRepo управляет хранилищем постов.
type PostRepo interface {
	CreatePost(ctx context.Context, post Post) (Post, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ExistingMessageIDs(ctx context.Context, channel string) (map[int64]struct{}, error)
	GetPost(ctx context.Context, id int64) (Post, error)
	GetPublishedBySlug(ctx context.Context, slug string) (Post, error)
	ListPosts(ctx context.Context, filter PostFilter) ([]Post, int, error)
	ListPublished(ctx context.Context, filter PublicFilter) ([]Post, int, error)
	SetStatus(ctx context.Context, id int64, status PostStatus, publishedAt *time.Time) (Post, error)
	DeletePost(ctx context.Context, id int64) error
	IncrementViews(ctx context.Context, id int64) error
	PublishedTagCounts(ctx context.Context, limit int) ([]TagCount, error)
}

// Cache используется для простых TTL-хранилищ и одноразовых замков.
type Cache interface {
	Once(ctx context.Context, key string, ttl time.Duration, fn func() error) (bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// LeadQueue — очередь заявок на доставку в мессенджер.
type LeadQueue interface {
	Enqueue(ctx context.Context, lead Lead) error
	Pop(ctx context.Context) (Lead, error)
}

// LeadNotifier доставляет заявку получателю.
type LeadNotifier interface {
	NotifyLead(ctx context.Context, lead Lead) error
}
