package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/timoshinoleg-eng/chatbot24-landing/internal/domain"
)

// ErrInvalidID возвращается при пустом или отрицательном id поста.
var ErrInvalidID = errors.New("некорректный id поста")

// ErrInvalidStatus возвращается, когда целевой статус не PUBLISHED и не REJECTED.
var ErrInvalidStatus = errors.New("статус должен быть PUBLISHED или REJECTED")

// ErrInvalidFilter возвращается при недопустимых параметрах выборки.
var ErrInvalidFilter = errors.New("некорректные параметры выборки")

const (
	defaultLimit = 20
	maxLimit     = 100
)

var allowedSortBy = map[string]struct{}{
	"createdAt":   {},
	"updatedAt":   {},
	"publishedAt": {},
	"views":       {},
}

// Service реализует админские операции над постами: выборку,
// переходы статусов и удаление. Авторизация выполняется выше,
// на HTTP-слое.
type Service struct {
	posts domain.PostRepo
	log   zerolog.Logger
}

// NewService создаёт сервис модерации.
func NewService(posts domain.PostRepo, log zerolog.Logger) *Service {
	return &Service{posts: posts, log: log}
}

// List возвращает страницу постов и общее количество по фильтру.
func (s *Service) List(ctx context.Context, filter domain.PostFilter) ([]domain.Post, int, error) {
	normalized, err := normalizeFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	posts, total, err := s.posts.ListPosts(ctx, normalized)
	if err != nil {
		return nil, 0, fmt.Errorf("выборка постов: %w", err)
	}
	return posts, total, nil
}

// Get возвращает пост целиком для карточки модерации, без оглядки на статус.
func (s *Service) Get(ctx context.Context, id int64) (domain.Post, error) {
	if id <= 0 {
		return domain.Post{}, ErrInvalidID
	}
	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

// SetStatus переводит пост в PUBLISHED или REJECTED.
// Публикация выставляет publishedAt (переданный или текущий момент),
// отклонение всегда сбрасывает его в null.
func (s *Service) SetStatus(ctx context.Context, id int64, status domain.PostStatus, publishedAt *time.Time) (domain.Post, error) {
	if id <= 0 {
		return domain.Post{}, ErrInvalidID
	}
	if status != domain.StatusPublished && status != domain.StatusRejected {
		return domain.Post{}, ErrInvalidStatus
	}
	var ts *time.Time
	if status == domain.StatusPublished {
		if publishedAt != nil {
			ts = publishedAt
		} else {
			now := time.Now().UTC()
			ts = &now
		}
	}
	post, err := s.posts.SetStatus(ctx, id, status, ts)
	if err != nil {
		return domain.Post{}, err
	}
	s.log.Info().Int64("post_id", id).Str("status", string(status)).Msg("moderation: статус обновлён")
	return post, nil
}

// Delete безвозвратно удаляет пост.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if err := s.posts.DeletePost(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("post_id", id).Msg("moderation: пост удалён")
	return nil
}

func normalizeFilter(filter domain.PostFilter) (domain.PostFilter, error) {
	switch filter.Status {
	case "", "ALL":
		filter.Status = "ALL"
	case string(domain.StatusPending), string(domain.StatusPublished), string(domain.StatusRejected):
	default:
		return domain.PostFilter{}, fmt.Errorf("%w: неизвестный статус %q", ErrInvalidFilter, filter.Status)
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.Page < 1 {
		return domain.PostFilter{}, fmt.Errorf("%w: страница должна быть ≥ 1", ErrInvalidFilter)
	}
	if filter.Limit == 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit < 1 || filter.Limit > maxLimit {
		return domain.PostFilter{}, fmt.Errorf("%w: limit вне диапазона 1..%d", ErrInvalidFilter, maxLimit)
	}
	if filter.SortBy == "" {
		filter.SortBy = "createdAt"
	}
	if _, ok := allowedSortBy[filter.SortBy]; !ok {
		return domain.PostFilter{}, fmt.Errorf("%w: неизвестное поле сортировки %q", ErrInvalidFilter, filter.SortBy)
	}
	switch filter.SortOrder {
	case "":
		filter.SortOrder = "desc"
	case "asc", "desc":
	default:
		return domain.PostFilter{}, fmt.Errorf("%w: порядок сортировки asc или desc", ErrInvalidFilter)
	}
	return filter, nil
}
