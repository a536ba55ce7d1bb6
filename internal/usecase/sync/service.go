package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/timoshinoleg-eng/chatbot24-landing/internal/domain"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/infra/metrics"
)

// ErrSyncBusy возвращается, когда замок прогона удерживается другим процессом.
var ErrSyncBusy = errors.New("синхронизация уже выполняется")

const (
	syncLockKey = "sync:telegram:lock"
	syncLockTTL = 10 * time.Minute

	maxSlugProbes = 50
)

// fallbackKeywords добавляются к тегам статьи при поиске обложки.
var fallbackKeywords = []string{"technology", "ai"}

// Service — оркестратор синхронизации: выгружает сообщения канала,
// переписывает их через LLM, подбирает обложку и сохраняет посты
// в статусе PENDING для модерации.
type Service struct {
	fetcher  domain.ChannelFetcher
	rewriter domain.ArticleRewriter
	images   domain.ImageFinder
	posts    domain.PostRepo
	cache    domain.Cache
	log      zerolog.Logger

	channel    string
	fetchLimit int
	minTextLen int
}

// NewService создаёт оркестратор. cache может быть nil — тогда прогоны не
// защищены замком от наложения по времени.
func NewService(fetcher domain.ChannelFetcher, rewriter domain.ArticleRewriter, images domain.ImageFinder, posts domain.PostRepo, cache domain.Cache, log zerolog.Logger, channel string, fetchLimit, minTextLen int) *Service {
	if fetchLimit <= 0 {
		fetchLimit = 20
	}
	if minTextLen <= 0 {
		minTextLen = 50
	}
	return &Service{
		fetcher:    fetcher,
		rewriter:   rewriter,
		images:     images,
		posts:      posts,
		cache:      cache,
		log:        log,
		channel:    channel,
		fetchLimit: fetchLimit,
		minTextLen: minTextLen,
	}
}

// Run выполняет один прогон синхронизации под замком наложения.
// Два пересекающихся по времени прогона не выполняются одновременно:
// второй сразу получает ErrSyncBusy.
func (s *Service) Run(ctx context.Context) (domain.SyncReport, error) {
	if s.cache == nil {
		return s.run(ctx)
	}
	var (
		report domain.SyncReport
		runErr error
	)
	acquired, err := s.cache.Once(ctx, syncLockKey, syncLockTTL, func() error {
		report, runErr = s.run(ctx)
		return runErr
	})
	if err != nil && !acquired {
		// Redis недоступен: прогон важнее замка, дубли постов всё равно
		// отсекаются уникальностью telegram_message_id в хранилище.
		s.log.Warn().Err(err).Msg("sync: замок недоступен, прогон без защиты от наложения")
		return s.run(ctx)
	}
	if !acquired {
		return domain.SyncReport{}, ErrSyncBusy
	}
	return report, runErr
}

func (s *Service) run(ctx context.Context) (domain.SyncReport, error) {
	start := time.Now()
	runLog := s.log.With().Str("run_id", uuid.NewString()[:8]).Logger()
	runLog.Info().Str("channel", s.channel).Msg("sync: старт прогона")

	var report domain.SyncReport

	messages, err := s.fetcher.FetchRecent(ctx, s.fetchLimit)
	if err != nil {
		report.Duration = time.Since(start)
		metrics.ObserveSyncRun(report.Duration, true)
		return report, fmt.Errorf("выгрузка сообщений канала: %w", err)
	}
	if len(messages) == 0 {
		report.Duration = time.Since(start)
		metrics.ObserveSyncRun(report.Duration, false)
		runLog.Info().Msg("sync: новых сообщений нет")
		return report, nil
	}

	existing, err := s.posts.ExistingMessageIDs(ctx, s.channel)
	if err != nil {
		report.Duration = time.Since(start)
		metrics.ObserveSyncRun(report.Duration, true)
		return report, fmt.Errorf("загрузка импортированных id: %w", err)
	}

	for _, msg := range messages {
		if _, seen := existing[msg.ID]; seen {
			report.Skipped++
			metrics.IncSyncMessage("skipped")
			continue
		}
		outcome := s.processMessage(ctx, runLog, msg, &report)
		metrics.IncSyncMessage(outcome)
	}

	report.Duration = time.Since(start)
	metrics.ObserveSyncRun(report.Duration, false)
	runLog.Info().
		Int("processed", report.Processed).
		Int("skipped", report.Skipped).
		Int("errors", report.Errors).
		Dur("duration", report.Duration).
		Msg("sync: прогон завершён")
	return report, nil
}

// processMessage проводит одно сообщение через весь пайплайн.
// Любая ошибка локальна для сообщения и не прерывает прогон.
func (s *Service) processMessage(ctx context.Context, runLog zerolog.Logger, msg domain.ChannelMessage, report *domain.SyncReport) string {
	msgLog := runLog.With().Int64("message_id", msg.ID).Logger()

	if utf8.RuneCountInString(strings.TrimSpace(msg.Text)) < s.minTextLen {
		msgLog.Debug().Msg("sync: сообщение слишком короткое, пропуск")
		report.Skipped++
		return "skipped"
	}

	article, err := s.rewriter.Rewrite(ctx, msg.Text, s.channel)
	if err != nil {
		msgLog.Error().Err(err).Str("stage", "rewrite").Msg("sync: переработка не удалась")
		report.Errors++
		return "error"
	}

	keywords := article.Tags
	if len(keywords) > 3 {
		keywords = keywords[:3]
	}
	keywords = append(append([]string{}, keywords...), fallbackKeywords...)
	imageURL := s.images.FindImage(ctx, keywords, "landscape")
	imageSource := domain.ImageSourceAIGenerated
	if imageURL != "" {
		imageSource = domain.ImageSourceUnsplash
	}

	slug, err := s.resolveSlug(ctx, Slugify(article.Title))
	if err != nil {
		msgLog.Error().Err(err).Str("stage", "slug").Msg("sync: подбор slug не удался")
		report.Errors++
		return "error"
	}

	created, err := s.posts.CreatePost(ctx, domain.Post{
		TelegramMessageID: msg.ID,
		OriginalChannel:   s.channel,
		OriginalText:      msg.Text,
		RewrittenTitle:    article.Title,
		RewrittenContent:  article.Content,
		Summary:           article.Summary,
		Tags:              article.Tags,
		Slug:              slug,
		ImageURL:          imageURL,
		ImageSource:       imageSource,
		MetaTitle:         article.MetaTitle,
		MetaDescription:   article.MetaDescription,
		Status:            domain.StatusPending,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateMessage) {
			// Параллельный прогон успел вставить то же сообщение.
			msgLog.Warn().Msg("sync: сообщение вставлено конкурентно, пропуск")
			report.Skipped++
			return "skipped"
		}
		msgLog.Error().Err(err).Str("stage", "insert").Msg("sync: сохранение поста не удалось")
		report.Errors++
		return "error"
	}

	msgLog.Info().Int64("post_id", created.ID).Str("slug", created.Slug).Msg("sync: пост создан")
	report.Processed++
	report.Posts = append(report.Posts, domain.SyncedPost{
		PostID:            created.ID,
		TelegramMessageID: msg.ID,
		Title:             article.Title,
		Status:            created.Status,
	})
	return "processed"
}

// resolveSlug подбирает свободный slug: base, base-1, base-2, ...
// После maxSlugProbes попыток берётся случайный суффикс, чтобы не
// крутить хранилище на патологически одинаковых заголовках.
func (s *Service) resolveSlug(ctx context.Context, base string) (string, error) {
	if base == "" {
		base = "post"
	}
	candidate := base
	for i := 1; ; i++ {
		taken, err := s.posts.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("проверка slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		if i > maxSlugProbes {
			return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8]), nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
