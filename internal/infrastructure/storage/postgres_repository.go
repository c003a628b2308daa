package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"RegulatoryScanner/internal/domain"
	"RegulatoryScanner/internal/ports"
)

const articlesTable = "articles"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var articleColumns = []string{
	"id", "source", "title", "summary", "article_url", "content_hash", "published_date",
	"created_at", "updated_at", "relevance", "categories", "status", "ai_analysis",
}

type articleRow struct {
	ID            string         `db:"id"`
	Source        string         `db:"source"`
	Title         string         `db:"title"`
	Summary       string         `db:"summary"`
	ArticleURL    string         `db:"article_url"`
	ContentHash   string         `db:"content_hash"`
	PublishedDate sql.NullTime   `db:"published_date"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
	Relevance     string         `db:"relevance"`
	Categories    pq.StringArray `db:"categories"`
	Status        string         `db:"status"`
	AIAnalysis    sql.NullString `db:"ai_analysis"`
}

func (r articleRow) toDomain() domain.Article {
	a := domain.Article{
		ID:          r.ID,
		Source:      domain.Source(r.Source),
		Title:       r.Title,
		Summary:     r.Summary,
		ArticleURL:  r.ArticleURL,
		ContentHash: r.ContentHash,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Relevance:   domain.Relevance(r.Relevance),
		Categories:  []string(r.Categories),
		Status:      domain.ArticleStatus(r.Status),
		AIAnalysis:  r.AIAnalysis.String,
	}
	if a.Categories == nil {
		a.Categories = []string{}
	}
	if r.PublishedDate.Valid {
		t := r.PublishedDate.Time
		a.PublishedDate = &t
	}
	return a
}

// PostgresRepository persists regulatory articles into Postgres.
type PostgresRepository struct {
	db *sqlx.DB
}

var _ ports.ArticleRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sqlx.DB implementation.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// KnownURLs returns the subset of urls already stored for source.
func (r *PostgresRepository) KnownURLs(ctx context.Context, source domain.Source, urls []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(urls) == 0 {
		return result, nil
	}

	query, args, err := psql.Select("article_url").
		From(articlesTable).
		Where(sq.Eq{"source": string(source)}).
		Where(sq.Expr("article_url = ANY(?)", pq.StringArray(urls))).
		ToSql()
	if err != nil {
		return nil, &domain.StorageError{Op: "build known urls", Err: err}
	}

	var known []string
	if err := r.db.SelectContext(ctx, &known, query, args...); err != nil {
		return nil, &domain.StorageError{Op: "query known urls", Err: err}
	}

	for _, u := range known {
		result[u] = true
	}
	return result, nil
}

// InsertIfAbsent inserts the article unless (source, article_url) exists; it reports whether a row was written.
func (r *PostgresRepository) InsertIfAbsent(ctx context.Context, article domain.Article) (bool, error) {
	categories := article.Categories
	if categories == nil {
		categories = []string{}
	}

	query, args, err := psql.Insert(articlesTable).
		Columns(articleColumns...).
		Values(
			article.ID,
			string(article.Source),
			article.Title,
			article.Summary,
			article.ArticleURL,
			article.ContentHash,
			nullTime(article.PublishedDate),
			article.CreatedAt,
			article.UpdatedAt,
			string(article.Relevance),
			pq.StringArray(categories),
			string(article.Status),
			nullString(article.AIAnalysis),
		).
		Suffix("ON CONFLICT (source, article_url) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return false, &domain.StorageError{Op: "build insert", Err: err}
	}

	var id string
	err = r.db.QueryRowxContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, &domain.StorageError{Op: "insert article", Err: err}
	}
	return true, nil
}

// List returns articles matching filter, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error) {
	builder := psql.Select(articleColumns...).From(articlesTable)

	if filter.Source != "" {
		builder = builder.Where(sq.Eq{"source": string(filter.Source)})
	}
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.MinRelevance > 0 {
		builder = builder.Where(sq.Eq{"relevance": relevanceStrings(domain.RelevanceAtLeast(filter.MinRelevance))})
	}

	builder = builder.OrderBy("created_at DESC", "id DESC")
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	return r.selectArticles(ctx, builder, "list articles")
}

// Get loads one article by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (domain.Article, error) {
	query, args, err := psql.Select(articleColumns...).
		From(articlesTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Article{}, &domain.StorageError{Op: "build get", Err: err}
	}

	var row articleRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Article{}, &domain.StorageError{Op: "get article", Err: err}
	}
	return row.toDomain(), nil
}

// TransitionStatus moves the article to `to` only if its current status is in `from`.
func (r *PostgresRepository) TransitionStatus(ctx context.Context, id string, from []domain.ArticleStatus, to domain.ArticleStatus) error {
	if len(from) == 0 {
		return fmt.Errorf("%w: nothing may move to %s", domain.ErrInvalidTransition, to)
	}

	query, args, err := psql.Update(articlesTable).
		Set("status", string(to)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"status": statusStrings(from)}).
		ToSql()
	if err != nil {
		return &domain.StorageError{Op: "build status update", Err: err}
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return &domain.StorageError{Op: "update status", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &domain.StorageError{Op: "update status rows", Err: err}
	}
	if affected > 0 {
		return nil
	}

	current, err := r.currentStatus(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current, to)
}

// ListPublishedByCategories serves the client-facing relevant-news view.
func (r *PostgresRepository) ListPublishedByCategories(ctx context.Context, categories []string, relevance []domain.Relevance, limit int) ([]domain.Article, error) {
	if len(categories) == 0 || len(relevance) == 0 {
		return []domain.Article{}, nil
	}

	builder := psql.Select(articleColumns...).
		From(articlesTable).
		Where(sq.Eq{"status": string(domain.StatusPublished)}).
		Where(sq.Expr("categories && ?", pq.StringArray(categories))).
		Where(sq.Eq{"relevance": relevanceStrings(relevance)}).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	return r.selectArticles(ctx, builder, "list relevant news")
}

// UpdateClassification rewrites relevance, categories and analysis for an explicit re-score.
func (r *PostgresRepository) UpdateClassification(ctx context.Context, id string, cls domain.Classification) error {
	categories := cls.Categories
	if categories == nil {
		categories = []string{}
	}

	query, args, err := psql.Update(articlesTable).
		Set("relevance", string(cls.Relevance)).
		Set("categories", pq.StringArray(categories)).
		Set("ai_analysis", nullString(cls.AIAnalysis)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return &domain.StorageError{Op: "build classification update", Err: err}
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return &domain.StorageError{Op: "update classification", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &domain.StorageError{Op: "update classification rows", Err: err}
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return nil
}

func (r *PostgresRepository) currentStatus(ctx context.Context, id string) (domain.ArticleStatus, error) {
	query, args, err := psql.Select("status").From(articlesTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return "", &domain.StorageError{Op: "build status lookup", Err: err}
	}

	var status string
	err = r.db.GetContext(ctx, &status, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return "", &domain.StorageError{Op: "lookup status", Err: err}
	}
	return domain.ArticleStatus(status), nil
}

func (r *PostgresRepository) selectArticles(ctx context.Context, builder sq.SelectBuilder, op string) ([]domain.Article, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, &domain.StorageError{Op: "build " + op, Err: err}
	}

	var rows []articleRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, &domain.StorageError{Op: op, Err: err}
	}

	articles := make([]domain.Article, 0, len(rows))
	for _, row := range rows {
		articles = append(articles, row.toDomain())
	}
	return articles, nil
}

func relevanceStrings(values []domain.Relevance) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func statusStrings(values []domain.ArticleStatus) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
