package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/timoshinoleg-eng/chatbot24-landing/internal/domain"
)

type stubPostRepo struct {
	posts      map[int64]domain.Post
	lastFilter domain.PostFilter
}

func (s *stubPostRepo) CreatePost(_ context.Context, post domain.Post) (domain.Post, error) {
	return post, nil
}
func (s *stubPostRepo) SlugExists(context.Context, string) (bool, error) { return false, nil }
func (s *stubPostRepo) ExistingMessageIDs(context.Context, string) (map[int64]struct{}, error) {
	return nil, nil
}
func (s *stubPostRepo) GetPost(_ context.Context, id int64) (domain.Post, error) {
	post, ok := s.posts[id]
	if !ok {
		return domain.Post{}, domain.ErrPostNotFound
	}
	return post, nil
}
func (s *stubPostRepo) GetPublishedBySlug(context.Context, string) (domain.Post, error) {
	return domain.Post{}, domain.ErrPostNotFound
}
func (s *stubPostRepo) ListPosts(_ context.Context, filter domain.PostFilter) ([]domain.Post, int, error) {
	s.lastFilter = filter
	return nil, 0, nil
}
func (s *stubPostRepo) ListPublished(context.Context, domain.PublicFilter) ([]domain.Post, int, error) {
	return nil, 0, nil
}
func (s *stubPostRepo) SetStatus(_ context.Context, id int64, status domain.PostStatus, publishedAt *time.Time) (domain.Post, error) {
	post, ok := s.posts[id]
	if !ok {
		return domain.Post{}, domain.ErrPostNotFound
	}
	post.Status = status
	post.PublishedAt = publishedAt
	s.posts[id] = post
	return post, nil
}
func (s *stubPostRepo) DeletePost(_ context.Context, id int64) error {
	if _, ok := s.posts[id]; !ok {
		return domain.ErrPostNotFound
	}
	delete(s.posts, id)
	return nil
}
func (s *stubPostRepo) IncrementViews(context.Context, int64) error { return nil }
func (s *stubPostRepo) PublishedTagCounts(context.Context, int) ([]domain.TagCount, error) {
	return nil, nil
}

func newTestService(repo *stubPostRepo) *Service {
	return NewService(repo, zerolog.Nop())
}

func TestSetStatusPublishSetsTimestamp(t *testing.T) {
	repo := &stubPostRepo{posts: map[int64]domain.Post{1: {ID: 1, Status: domain.StatusPending}}}
	service := newTestService(repo)

	post, err := service.SetStatus(context.Background(), 1, domain.StatusPublished, nil)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if post.Status != domain.StatusPublished {
		t.Fatalf("ожидали PUBLISHED, получили %s", post.Status)
	}
	if post.PublishedAt == nil {
		t.Fatalf("публикация должна выставлять publishedAt")
	}
}

func TestSetStatusPublishKeepsProvidedTimestamp(t *testing.T) {
	repo := &stubPostRepo{posts: map[int64]domain.Post{1: {ID: 1, Status: domain.StatusPending}}}
	service := newTestService(repo)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	post, err := service.SetStatus(context.Background(), 1, domain.StatusPublished, &ts)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if post.PublishedAt == nil || !post.PublishedAt.Equal(ts) {
		t.Fatalf("ожидали переданный publishedAt, получили %v", post.PublishedAt)
	}
}

func TestSetStatusRejectClearsTimestamp(t *testing.T) {
	published := time.Now().UTC()
	repo := &stubPostRepo{posts: map[int64]domain.Post{
		1: {ID: 1, Status: domain.StatusPublished, PublishedAt: &published},
	}}
	service := newTestService(repo)

	post, err := service.SetStatus(context.Background(), 1, domain.StatusRejected, nil)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if post.Status != domain.StatusRejected {
		t.Fatalf("ожидали REJECTED, получили %s", post.Status)
	}
	if post.PublishedAt != nil {
		t.Fatalf("отклонение должно сбрасывать publishedAt")
	}
}

func TestSetStatusAllowsAnySourceState(t *testing.T) {
	repo := &stubPostRepo{posts: map[int64]domain.Post{
		1: {ID: 1, Status: domain.StatusRejected},
	}}
	service := newTestService(repo)

	post, err := service.SetStatus(context.Background(), 1, domain.StatusPublished, nil)
	if err != nil {
		t.Fatalf("переход REJECTED -> PUBLISHED должен быть разрешён: %v", err)
	}
	if post.Status != domain.StatusPublished {
		t.Fatalf("ожидали PUBLISHED, получили %s", post.Status)
	}
}

func TestSetStatusValidation(t *testing.T) {
	repo := &stubPostRepo{posts: map[int64]domain.Post{1: {ID: 1}}}
	service := newTestService(repo)

	if _, err := service.SetStatus(context.Background(), 0, domain.StatusPublished, nil); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("ожидали ErrInvalidID, получили %v", err)
	}
	if _, err := service.SetStatus(context.Background(), 1, domain.StatusPending, nil); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("возврат в PENDING запрещён, получили %v", err)
	}
	if _, err := service.SetStatus(context.Background(), 1, domain.PostStatus("UNKNOWN"), nil); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("ожидали ErrInvalidStatus, получили %v", err)
	}
	if _, err := service.SetStatus(context.Background(), 99, domain.StatusPublished, nil); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("ожидали ErrPostNotFound, получили %v", err)
	}
}

func TestGetReturnsPostOfAnyStatus(t *testing.T) {
	repo := &stubPostRepo{posts: map[int64]domain.Post{
		1: {ID: 1, Slug: "chernovik", Status: domain.StatusPending},
	}}
	service := newTestService(repo)

	post, err := service.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if post.ID != 1 || post.Status != domain.StatusPending {
		t.Fatalf("ожидали пост 1 в PENDING, получили %+v", post)
	}

	if _, err := service.Get(context.Background(), 99); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("ожидали ErrPostNotFound, получили %v", err)
	}
	if _, err := service.Get(context.Background(), 0); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("ожидали ErrInvalidID, получили %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo := &stubPostRepo{posts: map[int64]domain.Post{1: {ID: 1}}}
	service := newTestService(repo)

	if err := service.Delete(context.Background(), 1); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if err := service.Delete(context.Background(), 1); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("повторное удаление должно давать ErrPostNotFound, получили %v", err)
	}
	if err := service.Delete(context.Background(), -5); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("ожидали ErrInvalidID, получили %v", err)
	}
}

func TestListNormalizesFilter(t *testing.T) {
	repo := &stubPostRepo{}
	service := newTestService(repo)

	if _, _, err := service.List(context.Background(), domain.PostFilter{}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if repo.lastFilter.Status != "ALL" || repo.lastFilter.Page != 1 || repo.lastFilter.Limit != 20 {
		t.Fatalf("фильтр по умолчанию: %+v", repo.lastFilter)
	}
	if repo.lastFilter.SortBy != "createdAt" || repo.lastFilter.SortOrder != "desc" {
		t.Fatalf("сортировка по умолчанию: %+v", repo.lastFilter)
	}
}

func TestListRejectsBadFilter(t *testing.T) {
	service := newTestService(&stubPostRepo{})

	bad := []domain.PostFilter{
		{Limit: 101},
		{Limit: -1},
		{Page: -1},
		{Status: "DRAFT"},
		{SortBy: "slug"},
		{SortOrder: "sideways"},
	}
	for _, filter := range bad {
		if _, _, err := service.List(context.Background(), filter); !errors.Is(err, ErrInvalidFilter) {
			t.Fatalf("ожидали ErrInvalidFilter для %+v, получили %v", filter, err)
		}
	}
}
