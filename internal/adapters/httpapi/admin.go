package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/timoshinoleg-eng/chatbot24-landing/internal/domain"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/usecase/moderation"
)

// handleAdminList отдаёт страницу постов для модерации.
// С параметром id отдаёт один пост независимо от статуса.
func (h *Handler) handleAdminList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("id") != "" {
		h.handleAdminGet(w, r)
		return
	}
	filter := domain.PostFilter{
		Status:    q.Get("status"),
		Search:    q.Get("search"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
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

	posts, total, err := h.moderation.List(r.Context(), filter)
	if err != nil {
		if errors.Is(err, moderation.ErrInvalidFilter) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("httpapi: выборка постов модерации не удалась")
		h.writeError(w, http.StatusInternalServerError, "не удалось получить посты")
		return
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"data":       toPostList(posts),
		"pagination": newPagination(page, limit, total),
	})
}

// handleAdminGet отдаёт один пост по query-параметру id.
func (h *Handler) handleAdminGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "id должен быть положительным числом")
		return
	}

	post, err := h.moderation.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			h.writeError(w, http.StatusNotFound, "пост не найден")
			return
		}
		h.log.Error().Err(err).Int64("post_id", id).Msg("httpapi: выборка поста не удалась")
		h.writeError(w, http.StatusInternalServerError, "не удалось получить пост")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    toPostJSON(post),
	})
}

type adminPatchRequest struct {
	ID          int64      `json:"id"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"publishedAt"`
}

// handleAdminPatch переводит пост в PUBLISHED или REJECTED.
func (h *Handler) handleAdminPatch(w http.ResponseWriter, r *http.Request) {
	var req adminPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}

	post, err := h.moderation.SetStatus(r.Context(), req.ID, domain.PostStatus(req.Status), req.PublishedAt)
	if err != nil {
		switch {
		case errors.Is(err, moderation.ErrInvalidID), errors.Is(err, moderation.ErrInvalidStatus):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrPostNotFound):
			h.writeError(w, http.StatusNotFound, "пост не найден")
		default:
			h.log.Error().Err(err).Int64("post_id", req.ID).Msg("httpapi: смена статуса не удалась")
			h.writeError(w, http.StatusInternalServerError, "не удалось обновить пост")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    toPostJSON(post),
	})
}

// handleAdminDelete удаляет пост по query-параметру id.
func (h *Handler) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "id должен быть положительным числом")
		return
	}

	if err := h.moderation.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			h.writeError(w, http.StatusNotFound, "пост не найден")
			return
		}
		h.log.Error().Err(err).Int64("post_id", id).Msg("httpapi: удаление поста не удалось")
		h.writeError(w, http.StatusInternalServerError, "не удалось удалить пост")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"id": id},
	})
}

func intQuery(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
