package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/timoshinoleg-eng/chatbot24-landing/internal/domain"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/usecase/blog"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/usecase/chat"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/usecase/leads"
)

// handleBlogPosts — публичное чтение блога. С параметром slug отдаёт
// один пост, иначе страницу списка с облаком тегов.
func (h *Handler) handleBlogPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if slug := q.Get("slug"); slug != "" {
		post, err := h.blog.GetBySlug(r.Context(), slug)
		if err != nil {
			if errors.Is(err, domain.ErrPostNotFound) {
				h.writeError(w, http.StatusNotFound, "пост не найден")
				return
			}
			h.log.Error().Err(err).Str("slug", slug).Msg("httpapi: чтение поста не удалось")
			h.writeError(w, http.StatusInternalServerError, "не удалось получить пост")
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    toPostJSON(post),
		})
		return
	}

	filter := domain.PublicFilter{
		Search: q.Get("search"),
		Tag:    q.Get("tag"),
	}
	var err error
	if filter.Page, err = intQuery(q.Get("page"), 0); err != nil {
		h.writeError(w, http.StatusBadRequest, "page должен быть числом")
		return
	}
	if filter.Limit, err = intQuery(q.Get("limit"), 0); err != nil {
		h.writeError(w, http.StatusBadRequest, "limit должен быть числом")
		return
	}

	posts, total, tagCloud, err := h.blog.ListPublished(r.Context(), filter)
	if err != nil {
		if errors.Is(err, blog.ErrInvalidFilter) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("httpapi: выборка блога не удалась")
		h.writeError(w, http.StatusInternalServerError, "не удалось получить посты")
		return
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	payload := map[string]any{
		"success":    true,
		"data":       toPostList(posts),
		"pagination": newPagination(page, limit, total),
	}
	if tagCloud != nil {
		payload["meta"] = map[string]any{"tags": tagCloud}
	}
	h.writeJSON(w, http.StatusOK, payload)
}

type chatRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
}

// handleChat отвечает на историю диалога продающего ассистента.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}

	reply, err := h.chat.Reply(r.Context(), req.Messages)
	if err != nil {
		if errors.Is(err, chat.ErrNoMessages) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("httpapi: чат не ответил")
		h.writeError(w, http.StatusServiceUnavailable, "ассистент временно недоступен")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": reply,
	})
}

// handleSubmit принимает заявку формы обратной связи.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var lead domain.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		h.writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}

	if err := h.leads.Submit(r.Context(), lead); err != nil {
		var validation *leads.ValidationError
		if errors.As(err, &validation) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   http.StatusText(http.StatusBadRequest),
				"fields":  validation.Fields,
			})
			return
		}
		h.log.Error().Err(err).Msg("httpapi: приём заявки не удался")
		h.writeError(w, http.StatusInternalServerError, "не удалось принять заявку")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "заявка принята",
	})
}
