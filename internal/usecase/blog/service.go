package blog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/timoshinoleg-eng/chatbot24-landing/internal/domain"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/infra/metrics"
)

// ErrInvalidFilter возвращается при недопустимых параметрах выборки.
var ErrInvalidFilter = errors.New("некорректные параметры выборки")

const (
	defaultLimit = 10
	maxLimit     = 50

	tagCloudSize     = 20
	tagCloudCacheKey = "blog:tagcloud"
	tagCloudCacheTTL = 5 * time.Minute

	viewIncrementTimeout = 5 * time.Second
)

// Service — публичный путь чтения блога: только опубликованные посты.
type Service struct {
	posts domain.PostRepo
	cache domain.Cache
	log   zerolog.Logger
}

// NewService создаёт сервис публичного чтения. cache может быть nil.
func NewService(posts domain.PostRepo, cache domain.Cache, log zerolog.Logger) *Service {
	return &Service{posts: posts, cache: cache, log: log}
}

// ListPublished возвращает страницу опубликованных постов, общее количество
// и облако тегов. Облако считается только для первой страницы без фильтров —
// это полный скан опубликованных постов, и после фильтрации оно не нужно.
func (s *Service) ListPublished(ctx context.Context, filter domain.PublicFilter) ([]domain.Post, int, []domain.TagCount, error) {
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.Page < 1 {
		return nil, 0, nil, fmt.Errorf("%w: страница должна быть ≥ 1", ErrInvalidFilter)
	}
	if filter.Limit == 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit < 1 || filter.Limit > maxLimit {
		return nil, 0, nil, fmt.Errorf("%w: limit вне диапазона 1..%d", ErrInvalidFilter, maxLimit)
	}

	posts, total, err := s.posts.ListPublished(ctx, filter)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("выборка опубликованных постов: %w", err)
	}

	var tagCloud []domain.TagCount
	if filter.Page == 1 && filter.Search == "" && filter.Tag == "" {
		tagCloud = s.tagCloud(ctx)
	}
	return posts, total, tagCloud, nil
}

// GetBySlug возвращает опубликованный пост и отсоединённо инкрементирует
// счётчик просмотров: неудавшийся инкремент никогда не ломает чтение.
func (s *Service) GetBySlug(ctx context.Context, slug string) (domain.Post, error) {
	if slug == "" {
		return domain.Post{}, domain.ErrPostNotFound
	}
	post, err := s.posts.GetPublishedBySlug(ctx, slug)
	if err != nil {
		return domain.Post{}, err
	}

	go func(id int64) {
		incCtx, cancel := context.WithTimeout(context.Background(), viewIncrementTimeout)
		defer cancel()
		if err := s.posts.IncrementViews(incCtx, id); err != nil {
			s.log.Warn().Err(err).Int64("post_id", id).Msg("blog: инкремент просмотров не удался")
			return
		}
		metrics.PostViewsTotal.Inc()
	}(post.ID)

	return post, nil
}

func (s *Service) tagCloud(ctx context.Context) []domain.TagCount {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, tagCloudCacheKey); err == nil {
			var cached []domain.TagCount
			if json.Unmarshal(raw, &cached) == nil {
				return cached
			}
		}
	}
	counts, err := s.posts.PublishedTagCounts(ctx, tagCloudSize)
	if err != nil {
		s.log.Warn().Err(err).Msg("blog: подсчёт облака тегов не удался")
		return nil
	}
	if s.cache != nil {
		if raw, err := json.Marshal(counts); err == nil {
			if err := s.cache.Set(ctx, tagCloudCacheKey, raw, tagCloudCacheTTL); err != nil {
				s.log.Debug().Err(err).Msg("blog: кэш облака тегов недоступен")
			}
		}
	}
	return counts
}
