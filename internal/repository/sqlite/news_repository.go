package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"csecv/internal/domain"
	"csecv/internal/repository"
)

const createNewsTable = `
CREATE TABLE IF NOT EXISTS news (
	id TEXT PRIMARY KEY,
	topic_id TEXT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	url TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL DEFAULT '',
	added_by TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_news_topic ON news(topic_id);
`

const newsColumns = `id, topic_id, title, url, source, summary, added_by, created_at, updated_at`

type NewsRepository struct {
	db *sql.DB
}

func NewNewsRepository(db *sql.DB) repository.NewsRepository {
	return &NewsRepository{db: db}
}

func (r *NewsRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createNewsTable); err != nil {
		return fmt.Errorf("create news table: %w", err)
	}
	return nil
}

func (r *NewsRepository) Create(ctx context.Context, item *domain.NewsItem) error {
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO news (`+newsColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.TopicID,
		item.Title,
		item.URL,
		item.Source,
		item.Summary,
		item.AddedBy,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert news: %w", err)
	}
	return nil
}

func (r *NewsRepository) GetByID(ctx context.Context, id string) (*domain.NewsItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+newsColumns+` FROM news WHERE id = ?`, id)
	return scanNews(row)
}

func (r *NewsRepository) ListByTopic(ctx context.Context, topicID string) ([]domain.NewsItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+newsColumns+` FROM news WHERE topic_id = ? ORDER BY created_at`, topicID)
	if err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	defer rows.Close()

	var items []domain.NewsItem
	for rows.Next() {
		item, err := scanNews(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *NewsRepository) Update(ctx context.Context, item *domain.NewsItem) error {
	item.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE news SET title = ?, url = ?, source = ?, summary = ?, updated_at = ? WHERE id = ?`,
		item.Title,
		item.URL,
		item.Source,
		item.Summary,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update news: %w", err)
	}
	return requireAffected(res, "news item", item.ID)
}

func (r *NewsRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM news WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete news: %w", err)
	}
	return requireAffected(res, "news item", id)
}

func (r *NewsRepository) ReplaceForTopic(ctx context.Context, topicID string, items []domain.NewsItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace news: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM news WHERE topic_id = ?`, topicID); err != nil {
		return fmt.Errorf("clear news: %w", err)
	}
	now := time.Now().UTC()
	for i := range items {
		items[i].TopicID = topicID
		items[i].CreatedAt = now
		items[i].UpdatedAt = now
		if _, err := tx.ExecContext(ctx, `
INSERT INTO news (`+newsColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			items[i].ID,
			items[i].TopicID,
			items[i].Title,
			items[i].URL,
			items[i].Source,
			items[i].Summary,
			items[i].AddedBy,
			items[i].CreatedAt,
			items[i].UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert news: %w", err)
		}
	}
	return tx.Commit()
}

func scanNews(row interface {
	Scan(dest ...any) error
}) (*domain.NewsItem, error) {
	var item domain.NewsItem
	if err := row.Scan(
		&item.ID,
		&item.TopicID,
		&item.Title,
		&item.URL,
		&item.Source,
		&item.Summary,
		&item.AddedBy,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("news item: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan news: %w", err)
	}
	return &item, nil
}
