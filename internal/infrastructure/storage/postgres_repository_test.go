package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RegulatoryScanner/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	return sqlx.NewDb(mockDB, "postgres"), mock
}

func articleRowsFixture() *sqlmock.Rows {
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(articleColumns).AddRow(
		"5d6c1c5e-5c37-4a8b-9a3e-0d2f3c0f9a11", "FDA", "Company recalls peanut butter", "summary",
		"https://www.fda.gov/recall-1", "hash", nil, created, created,
		"high", "{Food}", "published", nil,
	)
}

func sampleArticle() domain.Article {
	now := time.Now().UTC()
	return domain.Article{
		ID:          "5d6c1c5e-5c37-4a8b-9a3e-0d2f3c0f9a11",
		Source:      domain.SourceFDA,
		Title:       "Company recalls peanut butter",
		ArticleURL:  "https://www.fda.gov/recall-1",
		ContentHash: "hash",
		CreatedAt:   now,
		UpdatedAt:   now,
		Relevance:   domain.RelevanceHigh,
		Categories:  []string{"Food"},
		Status:      domain.StatusPending,
	}
}

func TestInsertIfAbsent(t *testing.T) {
	t.Parallel()

	t.Run("inserted", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		repo := NewPostgresRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO articles")).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(sampleArticle().ID))

		inserted, err := repo.InsertIfAbsent(context.Background(), sampleArticle())
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate is silent", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		repo := NewPostgresRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (source, article_url) DO NOTHING")).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		inserted, err := repo.InsertIfAbsent(context.Background(), sampleArticle())
		require.NoError(t, err)
		assert.False(t, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver error is a storage error", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		repo := NewPostgresRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO articles")).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.InsertIfAbsent(context.Background(), sampleArticle())
		require.Error(t, err)
		assert.True(t, domain.IsStorage(err))
	})
}

func TestKnownURLs(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT article_url FROM articles WHERE source = $1 AND article_url = ANY($2)")).
		WithArgs("GACC", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"article_url"}).AddRow("http://www.customs.gov.cn/a.html"))

	known, err := repo.KnownURLs(context.Background(), domain.SourceGACC,
		[]string{"http://www.customs.gov.cn/a.html", "http://www.customs.gov.cn/b.html"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"http://www.customs.gov.cn/a.html": true}, known)
	assert.NoError(t, mock.ExpectationsWereMet())

	empty, err := repo.KnownURLs(context.Background(), domain.SourceGACC, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListAppliesFilters(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE source = $1 AND status = $2 AND relevance IN ($3,$4) ORDER BY created_at DESC, id DESC LIMIT 10")).
		WithArgs("FDA", "published", "medium", "high").
		WillReturnRows(articleRowsFixture())

	articles, err := repo.List(context.Background(), domain.ArticleFilter{
		Source:       domain.SourceFDA,
		Status:       domain.StatusPublished,
		MinRelevance: 2,
		Limit:        10,
	})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, domain.RelevanceHigh, articles[0].Relevance)
	assert.Equal(t, []string{"Food"}, articles[0].Categories)
	assert.Nil(t, articles[0].PublishedDate)
	assert.Empty(t, articles[0].AIAnalysis)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNotFound(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM articles WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows(articleColumns))

	_, err := repo.Get(context.Background(), "5d6c1c5e-5c37-4a8b-9a3e-0d2f3c0f9a11")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransitionStatus(t *testing.T) {
	t.Parallel()

	const id = "5d6c1c5e-5c37-4a8b-9a3e-0d2f3c0f9a11"
	updateSQL := regexp.QuoteMeta("UPDATE articles SET status = $1, updated_at = NOW() WHERE id = $2 AND status IN ($3)")
	lookupSQL := regexp.QuoteMeta("SELECT status FROM articles WHERE id = $1")

	t.Run("moves allowed status", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		repo := NewPostgresRepository(db)

		mock.ExpectExec(updateSQL).
			WithArgs("approved", id, "pending").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.TransitionStatus(context.Background(), id, []domain.ArticleStatus{domain.StatusPending}, domain.StatusApproved)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects from wrong state", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		repo := NewPostgresRepository(db)

		mock.ExpectExec(updateSQL).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(lookupSQL).WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("rejected"))

		err := repo.TransitionStatus(context.Background(), id, []domain.ArticleStatus{domain.StatusPending}, domain.StatusApproved)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("missing row", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		repo := NewPostgresRepository(db)

		mock.ExpectExec(updateSQL).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(lookupSQL).WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"status"}))

		err := repo.TransitionStatus(context.Background(), id, []domain.ArticleStatus{domain.StatusPending}, domain.StatusApproved)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("no source states", func(t *testing.T) {
		t.Parallel()
		db, _ := newMockDB(t)
		repo := NewPostgresRepository(db)

		err := repo.TransitionStatus(context.Background(), id, nil, domain.StatusPending)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestListPublishedByCategories(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewPostgresRepository(db)

	empty, err := repo.ListPublishedByCategories(context.Background(), nil, []domain.Relevance{domain.RelevanceHigh}, 20)
	require.NoError(t, err)
	assert.Empty(t, empty)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = $1 AND categories && $2 AND relevance IN ($3,$4)")).
		WithArgs("published", sqlmock.AnyArg(), "medium", "high").
		WillReturnRows(articleRowsFixture())

	news, err := repo.ListPublishedByCategories(context.Background(), []string{"Food"},
		[]domain.Relevance{domain.RelevanceMedium, domain.RelevanceHigh}, 20)
	require.NoError(t, err)
	require.Len(t, news, 1)
	assert.Equal(t, domain.StatusPublished, news[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateClassificationNotFound(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewPostgresRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE articles SET relevance = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateClassification(context.Background(), "5d6c1c5e-5c37-4a8b-9a3e-0d2f3c0f9a11",
		domain.Classification{Relevance: domain.RelevanceLow})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
