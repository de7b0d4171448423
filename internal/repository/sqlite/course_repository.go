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

const createCoursesTable = `
CREATE TABLE IF NOT EXISTS courses (
	id TEXT PRIMARY KEY,
	topic_id TEXT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	url TEXT NOT NULL,
	provider TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL DEFAULT '',
	added_by TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_courses_topic ON courses(topic_id);
`

const courseColumns = `id, topic_id, title, url, provider, summary, added_by, created_at, updated_at`

type CourseRepository struct {
	db *sql.DB
}

func NewCourseRepository(db *sql.DB) repository.CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCoursesTable); err != nil {
		return fmt.Errorf("create courses table: %w", err)
	}
	return nil
}

func (r *CourseRepository) Create(ctx context.Context, course *domain.Course) error {
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO courses (`+courseColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		course.ID,
		course.TopicID,
		course.Title,
		course.URL,
		course.Provider,
		course.Summary,
		course.AddedBy,
		course.CreatedAt,
		course.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert course: %w", err)
	}
	return nil
}

func (r *CourseRepository) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = ?`, id)
	return scanCourse(row)
}

func (r *CourseRepository) ListByTopic(ctx context.Context, topicID string) ([]domain.Course, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE topic_id = ? ORDER BY created_at`, topicID)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []domain.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *course)
	}
	return courses, rows.Err()
}

func (r *CourseRepository) Update(ctx context.Context, course *domain.Course) error {
	course.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE courses SET title = ?, url = ?, provider = ?, summary = ?, updated_at = ? WHERE id = ?`,
		course.Title,
		course.URL,
		course.Provider,
		course.Summary,
		course.UpdatedAt,
		course.ID,
	)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return requireAffected(res, "course", course.ID)
}

func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return requireAffected(res, "course", id)
}

func (r *CourseRepository) ReplaceForTopic(ctx context.Context, topicID string, courses []domain.Course) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace courses: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE topic_id = ?`, topicID); err != nil {
		return fmt.Errorf("clear courses: %w", err)
	}
	now := time.Now().UTC()
	for i := range courses {
		courses[i].TopicID = topicID
		courses[i].CreatedAt = now
		courses[i].UpdatedAt = now
		if _, err := tx.ExecContext(ctx, `
INSERT INTO courses (`+courseColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			courses[i].ID,
			courses[i].TopicID,
			courses[i].Title,
			courses[i].URL,
			courses[i].Provider,
			courses[i].Summary,
			courses[i].AddedBy,
			courses[i].CreatedAt,
			courses[i].UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert course: %w", err)
		}
	}
	return tx.Commit()
}

func scanCourse(row interface {
	Scan(dest ...any) error
}) (*domain.Course, error) {
	var course domain.Course
	if err := row.Scan(
		&course.ID,
		&course.TopicID,
		&course.Title,
		&course.URL,
		&course.Provider,
		&course.Summary,
		&course.AddedBy,
		&course.CreatedAt,
		&course.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("course: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan course: %w", err)
	}
	return &course, nil
}
