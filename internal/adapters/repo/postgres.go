package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/timoshinoleg-eng/chatbot24-landing/internal/domain"
	"github.com/timoshinoleg-eng/chatbot24-landing/internal/infra/metrics"
)

// Postgres реализует domain.PostRepo на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var _ domain.PostRepo = (*Postgres)(nil)

const postColumns = `id, telegram_message_id, original_channel, original_text, rewritten_title, rewritten_content, summary, tags, slug, image_url, image_source, meta_title, meta_description, status, views, published_at, created_at, updated_at`

// Имена сортировочных полей внешнего API и их колонки.
var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"publishedAt": "published_at",
	"views":       "views",
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 5*time.Second)
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

func scanPost(row pgx.Row) (domain.Post, error) {
	var post domain.Post
	err := row.Scan(
		&post.ID, &post.TelegramMessageID, &post.OriginalChannel, &post.OriginalText,
		&post.RewrittenTitle, &post.RewrittenContent, &post.Summary, &post.Tags,
		&post.Slug, &post.ImageURL, &post.ImageSource, &post.MetaTitle, &post.MetaDescription,
		&post.Status, &post.Views, &post.PublishedAt, &post.CreatedAt, &post.UpdatedAt,
	)
	return post, err
}

// CreatePost вставляет пост и возвращает сохранённую запись.
// Повтор telegram_message_id канала превращается в domain.ErrDuplicateMessage,
// занятый slug — в domain.ErrSlugTaken.
func (p *Postgres) CreatePost(ctx context.Context, post domain.Post) (domain.Post, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	if post.Tags == nil {
		post.Tags = []string{}
	}

	start := time.Now()
	created, err := scanPost(p.pool.QueryRow(ctx, `
INSERT INTO posts (telegram_message_id, original_channel, original_text, rewritten_title, rewritten_content, summary, tags, slug, image_url, image_source, meta_title, meta_description, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
RETURNING `+postColumns+`
`, post.TelegramMessageID, post.OriginalChannel, post.OriginalText, post.RewrittenTitle, post.RewrittenContent, post.Summary, post.Tags, post.Slug, post.ImageURL, post.ImageSource, post.MetaTitle, post.MetaDescription, post.Status))
	metrics.ObserveNetworkRequest("postgres", "posts_insert", "posts", start, err)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "slug") {
				return domain.Post{}, domain.ErrSlugTaken
			}
			return domain.Post{}, domain.ErrDuplicateMessage
		}
		return domain.Post{}, err
	}
	return created, nil
}

// SlugExists проверяет занятость slug среди всех постов.
func (p *Postgres) SlugExists(ctx context.Context, slug string) (bool, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var exists bool
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE slug=$1)`, slug).Scan(&exists)
	metrics.ObserveNetworkRequest("postgres", "posts_slug_exists", "posts", start, err)
	return exists, err
}

// ExistingMessageIDs возвращает id уже импортированных сообщений канала.
func (p *Postgres) ExistingMessageIDs(ctx context.Context, channel string) (map[int64]struct{}, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT telegram_message_id FROM posts WHERE original_channel=$1`, channel)
	metrics.ObserveNetworkRequest("postgres", "posts_existing_ids", "posts", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// GetPost возвращает пост по id в любом статусе.
func (p *Postgres) GetPost(ctx context.Context, id int64) (domain.Post, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	post, err := scanPost(p.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id=$1`, id))
	metrics.ObserveNetworkRequest("postgres", "posts_get", "posts", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Post{}, domain.ErrPostNotFound
	}
	return post, err
}

// GetPublishedBySlug возвращает опубликованный пост по slug.
// Пост в любом другом статусе для публичного API не существует.
func (p *Postgres) GetPublishedBySlug(ctx context.Context, slug string) (domain.Post, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	post, err := scanPost(p.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE slug=$1 AND status=$2`, slug, domain.StatusPublished))
	metrics.ObserveNetworkRequest("postgres", "posts_get_by_slug", "posts", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Post{}, domain.ErrPostNotFound
	}
	return post, err
}

// ListPosts возвращает страницу постов для модерации и общее число подходящих.
func (p *Postgres) ListPosts(ctx context.Context, filter domain.PostFilter) ([]domain.Post, int, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var (
		conds []string
		args  []any
	)
	if filter.Status != "" && filter.Status != "ALL" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status=$%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		idx := len(args)
		args = append(args, search)
		conds = append(conds, fmt.Sprintf("(rewritten_title ILIKE $%d OR summary ILIKE $%d OR $%d = ANY(tags))", idx, idx, idx+1))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`+where, args...).Scan(&total)
	metrics.ObserveNetworkRequest("postgres", "posts_count", "posts", start, err)
	if err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	order := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		order = "ASC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	start = time.Now()
	rows, err := p.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM posts%s ORDER BY %s %s NULLS LAST LIMIT $%d OFFSET $%d`,
		postColumns, where, column, order, len(args)-1, len(args),
	), args...)
	metrics.ObserveNetworkRequest("postgres", "posts_list", "posts", start, err)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	posts, err := collectPosts(rows)
	return posts, total, err
}

// ListPublished возвращает страницу опубликованных постов и общее число подходящих.
func (p *Postgres) ListPublished(ctx context.Context, filter domain.PublicFilter) ([]domain.Post, int, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	conds := []string{"status=$1"}
	args := []any{domain.StatusPublished}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		idx := len(args)
		args = append(args, search)
		conds = append(conds, fmt.Sprintf("(rewritten_title ILIKE $%d OR summary ILIKE $%d OR $%d = ANY(tags))", idx, idx, idx+1))
	}
	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		args = append(args, tag)
		conds = append(conds, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`+where, args...).Scan(&total)
	metrics.ObserveNetworkRequest("postgres", "posts_count_published", "posts", start, err)
	if err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	start = time.Now()
	rows, err := p.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM posts%s ORDER BY published_at DESC NULLS LAST LIMIT $%d OFFSET $%d`,
		postColumns, where, len(args)-1, len(args),
	), args...)
	metrics.ObserveNetworkRequest("postgres", "posts_list_published", "posts", start, err)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	posts, err := collectPosts(rows)
	return posts, total, err
}

// SetStatus меняет статус поста и отметку публикации, возвращает обновлённую запись.
func (p *Postgres) SetStatus(ctx context.Context, id int64, status domain.PostStatus, publishedAt *time.Time) (domain.Post, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	post, err := scanPost(p.pool.QueryRow(ctx, `
UPDATE posts SET status=$2, published_at=$3, updated_at=now()
WHERE id=$1
RETURNING `+postColumns+`
`, id, status, publishedAt))
	metrics.ObserveNetworkRequest("postgres", "posts_set_status", "posts", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Post{}, domain.ErrPostNotFound
	}
	return post, err
}

// DeletePost удаляет пост безвозвратно.
func (p *Postgres) DeletePost(ctx context.Context, id int64) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `DELETE FROM posts WHERE id=$1`, id)
	metrics.ObserveNetworkRequest("postgres", "posts_delete", "posts", start, err)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

// IncrementViews атомарно увеличивает счётчик просмотров.
func (p *Postgres) IncrementViews(ctx context.Context, id int64) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `UPDATE posts SET views = views + 1 WHERE id=$1`, id)
	metrics.ObserveNetworkRequest("postgres", "posts_increment_views", "posts", start, err)
	return err
}

// PublishedTagCounts возвращает самые частые теги опубликованных постов.
func (p *Postgres) PublishedTagCounts(ctx context.Context, limit int) ([]domain.TagCount, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT tag, COUNT(*) AS cnt
FROM posts, unnest(tags) AS tag
WHERE status=$1
GROUP BY tag
ORDER BY cnt DESC, tag
LIMIT $2
`, domain.StatusPublished, limit)
	metrics.ObserveNetworkRequest("postgres", "posts_tag_counts", "posts", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []domain.TagCount
	for rows.Next() {
		var tc domain.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}

func collectPosts(rows pgx.Rows) ([]domain.Post, error) {
	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}
