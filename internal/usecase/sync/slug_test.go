package sync

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/timoshinoleg-eng/chatbot24-landing/internal/domain"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Новый ИИ-инструмент":        "novyy-ii-instrument",
		"Чат-боты для бизнеса!":      "chat-boty-dlya-biznesa",
		"Hello, World":               "hello-world",
		"  много   пробелов  ":       "mnogo-probelov",
		"щука_и_ёж":                  "schuka-i-yozh",
		"!!!":                        "",
		"AI & ML — тренды 2025 года": "ai-ml-trendy-2025-goda",
	}
	for input, expected := range cases {
		if got := Slugify(input); got != expected {
			t.Fatalf("Slugify(%q): ожидали %q, получили %q", input, expected, got)
		}
	}
}

func TestSlugifyTruncates(t *testing.T) {
	long := strings.Repeat("automation ", 20)
	slug := Slugify(long)
	if len(slug) > 60 {
		t.Fatalf("slug длиннее 60 символов: %d", len(slug))
	}
	if strings.HasSuffix(slug, "-") {
		t.Fatalf("slug не должен кончаться дефисом: %q", slug)
	}
}

func TestResolveSlugAddsSuffixOnCollision(t *testing.T) {
	repo := &stubPostRepo{slugs: map[string]bool{"novyy-ii-instrument": true}}
	service := newTestService(&stubFetcher{}, repo, &stubRewriter{}, &stubImages{})

	slug, err := service.resolveSlug(context.Background(), "novyy-ii-instrument")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if slug != "novyy-ii-instrument-1" {
		t.Fatalf("ожидали суффикс -1, получили %q", slug)
	}
}

func TestResolveSlugEmptyBase(t *testing.T) {
	repo := &stubPostRepo{}
	service := newTestService(&stubFetcher{}, repo, &stubRewriter{}, &stubImages{})

	slug, err := service.resolveSlug(context.Background(), "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if slug != "post" {
		t.Fatalf("пустая база должна давать post, получили %q", slug)
	}
}

type alwaysTakenRepo struct {
	stubPostRepo
	probes int
}

func (r *alwaysTakenRepo) SlugExists(context.Context, string) (bool, error) {
	r.probes++
	return true, nil
}

func TestResolveSlugCapsProbes(t *testing.T) {
	repo := &alwaysTakenRepo{}
	service := NewService(&stubFetcher{}, &stubRewriter{}, &stubImages{}, repo, nil, zerolog.Nop(), "@test_channel", 20, 50)

	slug, err := service.resolveSlug(context.Background(), "base")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !strings.HasPrefix(slug, "base-") {
		t.Fatalf("ожидали случайный суффикс на базе, получили %q", slug)
	}
	if repo.probes > maxSlugProbes+1 {
		t.Fatalf("слишком много обращений к хранилищу: %d", repo.probes)
	}
	var _ domain.PostRepo = repo
}
