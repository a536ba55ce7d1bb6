package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/timoshinoleg-eng/chatbot24-landing/internal/domain"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/usecase/sync"
)

type syncResponse struct {
	Success   bool                `json:"success"`
	Message   string              `json:"message"`
	Processed int                 `json:"processed"`
	Skipped   int                 `json:"skipped"`
	Errors    int                 `json:"errors"`
	Posts     []domain.SyncedPost `json:"posts"`
	Duration  string              `json:"duration"`
	Timestamp time.Time           `json:"timestamp"`
}

// handleSync запускает прогон синхронизации канала.
// Эндпоинт дёргает планировщик, поэтому он защищён общим секретом,
// а не пользовательскими токенами.
func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret == "" || bearerToken(r) != h.cronSecret {
		h.writeError(w, http.StatusUnauthorized, "требуется авторизация")
		return
	}

	report, err := h.sync.Run(r.Context())
	if err != nil {
		if errors.Is(err, sync.ErrSyncBusy) {
			h.writeError(w, http.StatusConflict, "синхронизация уже выполняется")
			return
		}
		h.log.Error().Err(err).Msg("httpapi: прогон синхронизации не удался")
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success":  false,
			"error":    http.StatusText(http.StatusInternalServerError),
			"message":  err.Error(),
			"duration": report.Duration.String(),
		})
		return
	}

	posts := report.Posts
	if posts == nil {
		posts = []domain.SyncedPost{}
	}
	h.writeJSON(w, http.StatusOK, syncResponse{
		Success:   true,
		Message:   "синхронизация завершена",
		Processed: report.Processed,
		Skipped:   report.Skipped,
		Errors:    report.Errors,
		Posts:     posts,
		Duration:  report.Duration.String(),
		Timestamp: time.Now().UTC(),
	})
}
