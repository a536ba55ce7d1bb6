package unsplash

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/timoshinoleg-eng/chatbot24-landing/internal/domain"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/infra/metrics"
)

const (
	defaultBaseURL = "https://api.unsplash.com"
	perPage        = 10
)

// Client ищет обложки статей в Unsplash.
// Подбор картинки не критичен для пайплайна: любая ошибка
// проглатывается, наружу уходит пустая строка.
type Client struct {
	accessKey string
	baseURL   string
	http      *http.Client
	log       zerolog.Logger
}

// NewClient создаёт клиент Unsplash. Пустой accessKey допустим:
// поиск тогда всегда возвращает пустую строку.
func NewClient(accessKey string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		accessKey: accessKey,
		baseURL:   defaultBaseURL,
		http:      &http.Client{Timeout: timeout},
		log:       log,
	}
}

var _ domain.ImageFinder = (*Client)(nil)

type searchResponse struct {
	Results []struct {
		ID   string `json:"id"`
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
		Links struct {
			DownloadLocation string `json:"download_location"`
		} `json:"links"`
	} `json:"results"`
}

// FindImage возвращает URL первой релевантной фотографии
// или пустую строку, если подобрать не удалось.
func (c *Client) FindImage(ctx context.Context, keywords []string, orientation string) string {
	if c.accessKey == "" {
		return ""
	}
	query := strings.TrimSpace(strings.Join(keywords, " "))
	if query == "" {
		return ""
	}
	if orientation == "" {
		orientation = "landscape"
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", fmt.Sprintf("%d", perPage))
	params.Set("orientation", orientation)
	params.Set("order_by", "relevant")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		c.log.Warn().Err(err).Msg("unsplash: не удалось собрать запрос")
		return ""
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ObserveNetworkRequest("unsplash", "search_photos", "api", start, err)
	if err != nil {
		c.log.Warn().Err(err).Str("query", query).Msg("unsplash: поиск не удался")
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Str("query", query).Msg("unsplash: неожиданный статус")
		return ""
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.log.Warn().Err(err).Msg("unsplash: не удалось разобрать ответ")
		return ""
	}
	if len(payload.Results) == 0 {
		c.log.Debug().Str("query", query).Msg("unsplash: ничего не нашлось")
		return ""
	}

	first := payload.Results[0]
	if first.Links.DownloadLocation != "" {
		// Требование Unsplash API: регистрировать скачивание.
		// На результат не влияет, поэтому не ждём.
		go c.trackDownload(first.Links.DownloadLocation)
	}
	return first.URLs.Regular
}

func (c *Client) trackDownload(location string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Msg("unsplash: track download не прошёл")
		return
	}
	resp.Body.Close()
}
