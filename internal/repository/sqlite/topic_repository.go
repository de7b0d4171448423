package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"csecv/internal/domain"
	"csecv/internal/repository"
)

const createTopicsTable = `
CREATE TABLE IF NOT EXISTS topics (
	id TEXT PRIMARY KEY,
	slug TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	logo TEXT NOT NULL DEFAULT '',
	image_path TEXT NOT NULL DEFAULT '',
	video_title TEXT NOT NULL DEFAULT '',
	video_url TEXT NOT NULL DEFAULT '',
	created_by TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

const topicColumns = `id, slug, title, description, logo, image_path, video_title, video_url, created_by, created_at, updated_at`

type TopicRepository struct {
	db *sql.DB
}

func NewTopicRepository(db *sql.DB) repository.TopicRepository {
	return &TopicRepository{db: db}
}

func (r *TopicRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTopicsTable); err != nil {
		return fmt.Errorf("create topics table: %w", err)
	}
	return nil
}

func (r *TopicRepository) Create(ctx context.Context, topic *domain.Topic) error {
	now := time.Now().UTC()
	topic.CreatedAt = now
	topic.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO topics (`+topicColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		topic.ID,
		topic.Slug,
		topic.Title,
		topic.Description,
		topic.Logo,
		topic.ImagePath,
		topic.VideoTitle,
		topic.VideoURL,
		topic.CreatedBy,
		topic.CreatedAt,
		topic.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return fmt.Errorf("topic already exists: %w", err)
		}
		return fmt.Errorf("insert topic: %w", err)
	}
	return nil
}

func (r *TopicRepository) GetByID(ctx context.Context, id string) (*domain.Topic, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+topicColumns+` FROM topics WHERE id = ?`, id)
	return scanTopic(row)
}

func (r *TopicRepository) GetBySlug(ctx context.Context, slug string) (*domain.Topic, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+topicColumns+` FROM topics WHERE slug = ?`, slug)
	return scanTopic(row)
}

func (r *TopicRepository) List(ctx context.Context) ([]domain.Topic, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+topicColumns+` FROM topics ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var topics []domain.Topic
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		topics = append(topics, *topic)
	}
	return topics, rows.Err()
}

func (r *TopicRepository) Update(ctx context.Context, topic *domain.Topic) error {
	topic.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE topics
SET title = ?, description = ?, logo = ?, image_path = ?, video_title = ?, video_url = ?, updated_at = ?
WHERE id = ?`,
		topic.Title,
		topic.Description,
		topic.Logo,
		topic.ImagePath,
		topic.VideoTitle,
		topic.VideoURL,
		topic.UpdatedAt,
		topic.ID,
	)
	if err != nil {
		return fmt.Errorf("update topic: %w", err)
	}
	return requireAffected(res, "topic", topic.ID)
}

func (r *TopicRepository) UpdateImagePath(ctx context.Context, id, imagePath string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE topics SET image_path = ?, updated_at = ? WHERE id = ?`,
		imagePath, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update topic image: %w", err)
	}
	return requireAffected(res, "topic", id)
}

func (r *TopicRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM topics WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	return requireAffected(res, "topic", id)
}

func requireAffected(res sql.Result, entity, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", entity, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, repository.ErrNotFound)
	}
	return nil
}

func scanTopic(row interface {
	Scan(dest ...any) error
}) (*domain.Topic, error) {
	var topic domain.Topic
	if err := row.Scan(
		&topic.ID,
		&topic.Slug,
		&topic.Title,
		&topic.Description,
		&topic.Logo,
		&topic.ImagePath,
		&topic.VideoTitle,
		&topic.VideoURL,
		&topic.CreatedBy,
		&topic.CreatedAt,
		&topic.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("topic: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan topic: %w", err)
	}
	return &topic, nil
}
