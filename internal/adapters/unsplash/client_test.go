package unsplash

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient("test-key", 0, zerolog.Nop())
	client.baseURL = srv.URL
	return client, srv
}

func TestFindImageReturnsFirstResult(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/photos" {
			t.Fatalf("неожиданный путь %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Client-ID test-key" {
			t.Fatalf("ожидали Client-ID авторизацию")
		}
		if r.URL.Query().Get("orientation") != "landscape" {
			t.Fatalf("ожидали landscape, получили %s", r.URL.Query().Get("orientation"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"id":"1","urls":{"regular":"https://images.unsplash.com/first"}},{"id":"2","urls":{"regular":"https://images.unsplash.com/second"}}]}`))
	})

	url := client.FindImage(context.Background(), []string{"chatbot", "ai"}, "landscape")
	if url != "https://images.unsplash.com/first" {
		t.Fatalf("ожидали первый результат, получили %q", url)
	}
}

func TestFindImageSwallowsErrors(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	if url := client.FindImage(context.Background(), []string{"chatbot"}, ""); url != "" {
		t.Fatalf("ошибка апстрима должна давать пустую строку, получили %q", url)
	}
}

func TestFindImageEmptyResults(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	})
	if url := client.FindImage(context.Background(), []string{"ничего"}, ""); url != "" {
		t.Fatalf("пустой поиск должен давать пустую строку, получили %q", url)
	}
}

func TestFindImageWithoutKey(t *testing.T) {
	client := NewClient("", 0, zerolog.Nop())
	if url := client.FindImage(context.Background(), []string{"chatbot"}, ""); url != "" {
		t.Fatalf("без ключа поиск не выполняется, получили %q", url)
	}
}

func TestFindImageEmptyKeywords(t *testing.T) {
	client := NewClient("key", 0, zerolog.Nop())
	if url := client.FindImage(context.Background(), nil, ""); url != "" {
		t.Fatalf("без ключевых слов поиск не выполняется, получили %q", url)
	}
}
