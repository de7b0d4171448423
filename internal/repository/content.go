package repository

import (
	"context"

	"csecv/internal/domain"
)

// TopicRepository defines persistence operations for topics.
type TopicRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, topic *domain.Topic) error
	GetByID(ctx context.Context, id string) (*domain.Topic, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Topic, error)
	List(ctx context.Context) ([]domain.Topic, error)
	Update(ctx context.Context, topic *domain.Topic) error
	UpdateImagePath(ctx context.Context, id, imagePath string) error
	Delete(ctx context.Context, id string) error
}

// NewsRepository defines persistence operations for news items.
type NewsRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, item *domain.NewsItem) error
	GetByID(ctx context.Context, id string) (*domain.NewsItem, error)
	ListByTopic(ctx context.Context, topicID string) ([]domain.NewsItem, error)
	Update(ctx context.Context, item *domain.NewsItem) error
	Delete(ctx context.Context, id string) error
	ReplaceForTopic(ctx context.Context, topicID string, items []domain.NewsItem) error
}

// CourseRepository defines persistence operations for courses.
type CourseRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, course *domain.Course) error
	GetByID(ctx context.Context, id string) (*domain.Course, error)
	ListByTopic(ctx context.Context, topicID string) ([]domain.Course, error)
	Update(ctx context.Context, course *domain.Course) error
	Delete(ctx context.Context, id string) error
	ReplaceForTopic(ctx context.Context, topicID string, courses []domain.Course) error
}

// QuestionRepository defines persistence operations for quiz questions and
// their options.
type QuestionRepository interface {
	Init(ctx context.Context) error
	ListByTopic(ctx context.Context, topicID string) ([]domain.Question, error)
	ReplaceForTopic(ctx context.Context, topicID string, questions []domain.Question) error
}
