package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/timoshinoleg-eng/chatbot24-landing/internal/domain"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/usecase/blog"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/usecase/chat"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/usecase/leads"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/usecase/moderation"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/usecase/sync"
)

// Handler собирает HTTP-маршруты сайта: пайплайн синхронизации,
// модерацию, публичный блог, чат и форму заявок.
type Handler struct {
	sync       *sync.Service
	moderation *moderation.Service
	blog       *blog.Service
	chat       *chat.Service
	leads      *leads.Service
	cronSecret string
	tokens     map[string]domain.Role
	log        zerolog.Logger
}

// NewHandler создаёт обработчик API.
// tokens — карта bearer-токенов админки на роли.
func NewHandler(
	syncSvc *sync.Service,
	moderationSvc *moderation.Service,
	blogSvc *blog.Service,
	chatSvc *chat.Service,
	leadsSvc *leads.Service,
	cronSecret string,
	tokens map[string]domain.Role,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		sync:       syncSvc,
		moderation: moderationSvc,
		blog:       blogSvc,
		chat:       chatSvc,
		leads:      leadsSvc,
		cronSecret: cronSecret,
		tokens:     tokens,
		log:        log,
	}
}

// Register вешает маршруты API на роутер.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/sync", h.handleSync)
		r.Post("/sync", h.handleSync)

		r.Route("/admin/posts", func(r chi.Router) {
			r.Use(h.requireRole(domain.RoleAdmin))
			r.Get("/", h.handleAdminList)
			r.Patch("/", h.handleAdminPatch)
			r.Delete("/", h.handleAdminDelete)
		})

		r.Get("/blog/posts", h.handleBlogPosts)
		r.Post("/chat", h.handleChat)
		r.Post("/submit", h.handleSubmit)
	})
}

type pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

func newPagination(page, limit, total int) pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}
}

// postJSON — представление поста во внешнем API.
type postJSON struct {
	ID                int64              `json:"id"`
	TelegramMessageID int64              `json:"telegramMessageId"`
	OriginalChannel   string             `json:"originalChannel"`
	Title             string             `json:"title"`
	Content           string             `json:"content"`
	Summary           string             `json:"summary"`
	Tags              []string           `json:"tags"`
	Slug              string             `json:"slug"`
	ImageURL          string             `json:"imageUrl,omitempty"`
	ImageSource       domain.ImageSource `json:"imageSource"`
	MetaTitle         string             `json:"metaTitle"`
	MetaDescription   string             `json:"metaDescription"`
	Status            domain.PostStatus  `json:"status"`
	Views             int64              `json:"views"`
	PublishedAt       *time.Time         `json:"publishedAt"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

func toPostJSON(post domain.Post) postJSON {
	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}
	return postJSON{
		ID:                post.ID,
		TelegramMessageID: post.TelegramMessageID,
		OriginalChannel:   post.OriginalChannel,
		Title:             post.RewrittenTitle,
		Content:           post.RewrittenContent,
		Summary:           post.Summary,
		Tags:              tags,
		Slug:              post.Slug,
		ImageURL:          post.ImageURL,
		ImageSource:       post.ImageSource,
		MetaTitle:         post.MetaTitle,
		MetaDescription:   post.MetaDescription,
		Status:            post.Status,
		Views:             post.Views,
		PublishedAt:       post.PublishedAt,
		CreatedAt:         post.CreatedAt,
		UpdatedAt:         post.UpdatedAt,
	}
}

func toPostList(posts []domain.Post) []postJSON {
	out := make([]postJSON, 0, len(posts))
	for _, post := range posts {
		out = append(out, toPostJSON(post))
	}
	return out
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Warn().Err(err).Msg("httpapi: не удалось записать ответ")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{
		"success": false,
		"error":   http.StatusText(status),
		"message": message,
	})
}

// bearerToken достаёт токен из Authorization: Bearer <token>.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// requireRole пускает только вызовы с токеном нужной роли.
// Неизвестный токен — 401, известный с недостаточной ролью — 403.
func (h *Handler) requireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				h.writeError(w, http.StatusUnauthorized, "требуется авторизация")
				return
			}
			got, ok := h.tokens[token]
			if !ok {
				h.writeError(w, http.StatusUnauthorized, "неизвестный токен")
				return
			}
			if got != role {
				h.writeError(w, http.StatusForbidden, "недостаточно прав")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
