package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"csecv/internal/domain"
	"csecv/internal/repository"
)

var (
	// ErrTopicExists is returned when creating a topic whose slug is taken.
	ErrTopicExists = errors.New("topic already exists")
	// ErrTopicNotFound is returned when the referenced topic does not exist.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrNewsNotFound is returned when the referenced news item does not exist.
	ErrNewsNotFound = errors.New("news not found")
	// ErrCourseNotFound is returned when the referenced course does not exist.
	ErrCourseNotFound = errors.New("course not found")
	// ErrNotYourNews is returned when a non-admin edits someone else's news item.
	ErrNotYourNews = errors.New("news item belongs to another user")
	// ErrNotYourCourse is returned when a non-admin edits someone else's course.
	ErrNotYourCourse = errors.New("course belongs to another user")
)

type TopicInput struct {
	Slug        string
	Title       string
	Description string
	Logo        string
	ImagePath   string
	VideoTitle  string
	VideoURL    string
}

type NewsInput struct {
	Title   string
	URL     string
	Source  string
	Summary string
}

type CourseInput struct {
	Title    string
	URL      string
	Provider string
	Summary  string
}

// ContentService coordinates topic, news, course and quiz operations.
// Ownership checks live here: a non-admin caller may only update items they
// added themselves.
type ContentService interface {
	CreateTopic(ctx context.Context, in TopicInput, createdBy string) (*domain.Topic, error)
	GetTopic(ctx context.Context, ref string) (*domain.Topic, error)
	ListTopics(ctx context.Context) ([]domain.Topic, error)
	UpdateTopic(ctx context.Context, id string, in TopicInput) (*domain.Topic, error)
	SetTopicImage(ctx context.Context, id, imagePath string) error
	DeleteTopic(ctx context.Context, id string) error

	AddNews(ctx context.Context, topicRef string, in NewsInput, addedBy string) (*domain.NewsItem, error)
	ListNews(ctx context.Context, topicRef string) ([]domain.NewsItem, error)
	UpdateNews(ctx context.Context, id string, in NewsInput, callerID string, callerIsAdmin bool) (*domain.NewsItem, error)
	DeleteNews(ctx context.Context, id string) error

	AddCourse(ctx context.Context, topicRef string, in CourseInput, addedBy string) (*domain.Course, error)
	ListCourses(ctx context.Context, topicRef string) ([]domain.Course, error)
	UpdateCourse(ctx context.Context, id string, in CourseInput, callerID string, callerIsAdmin bool) (*domain.Course, error)
	DeleteCourse(ctx context.Context, id string) error

	ListQuestions(ctx context.Context, topicRef string) ([]domain.Question, error)
}

type contentService struct {
	topics    repository.TopicRepository
	news      repository.NewsRepository
	courses   repository.CourseRepository
	questions repository.QuestionRepository
}

func NewContentService(topics repository.TopicRepository, news repository.NewsRepository, courses repository.CourseRepository, questions repository.QuestionRepository) ContentService {
	return &contentService{
		topics:    topics,
		news:      news,
		courses:   courses,
		questions: questions,
	}
}

func (s *contentService) CreateTopic(ctx context.Context, in TopicInput, createdBy string) (*domain.Topic, error) {
	slug := strings.TrimSpace(in.Slug)
	if _, err := s.topics.GetBySlug(ctx, slug); err == nil {
		return nil, ErrTopicExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	topic := &domain.Topic{
		ID:          uuid.NewString(),
		Slug:        slug,
		Title:       in.Title,
		Description: in.Description,
		Logo:        in.Logo,
		ImagePath:   in.ImagePath,
		VideoTitle:  in.VideoTitle,
		VideoURL:    in.VideoURL,
		CreatedBy:   createdBy,
	}
	if err := s.topics.Create(ctx, topic); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already exists") {
			return nil, ErrTopicExists
		}
		return nil, err
	}
	return topic, nil
}

// GetTopic resolves a topic by id first, then by slug, so public pages can
// keep linking with slugs while the admin panel uses ids.
func (s *contentService) GetTopic(ctx context.Context, ref string) (*domain.Topic, error) {
	topic, err := s.topics.GetByID(ctx, ref)
	if err == nil {
		return topic, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	topic, err = s.topics.GetBySlug(ctx, ref)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTopicNotFound
		}
		return nil, err
	}
	return topic, nil
}

func (s *contentService) ListTopics(ctx context.Context) ([]domain.Topic, error) {
	return s.topics.List(ctx)
}

func (s *contentService) UpdateTopic(ctx context.Context, id string, in TopicInput) (*domain.Topic, error) {
	topic, err := s.topics.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTopicNotFound
		}
		return nil, err
	}

	topic.Title = in.Title
	topic.Description = in.Description
	topic.Logo = in.Logo
	if in.ImagePath != "" {
		topic.ImagePath = in.ImagePath
	}
	topic.VideoTitle = in.VideoTitle
	topic.VideoURL = in.VideoURL

	if err := s.topics.Update(ctx, topic); err != nil {
		return nil, err
	}
	return topic, nil
}

func (s *contentService) SetTopicImage(ctx context.Context, id, imagePath string) error {
	if err := s.topics.UpdateImagePath(ctx, id, imagePath); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTopicNotFound
		}
		return err
	}
	return nil
}

func (s *contentService) DeleteTopic(ctx context.Context, id string) error {
	if err := s.topics.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTopicNotFound
		}
		return err
	}
	return nil
}

func (s *contentService) AddNews(ctx context.Context, topicRef string, in NewsInput, addedBy string) (*domain.NewsItem, error) {
	topic, err := s.GetTopic(ctx, topicRef)
	if err != nil {
		return nil, err
	}
	item := &domain.NewsItem{
		ID:      uuid.NewString(),
		TopicID: topic.ID,
		Title:   in.Title,
		URL:     in.URL,
		Source:  in.Source,
		Summary: in.Summary,
		AddedBy: addedBy,
	}
	if err := s.news.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *contentService) ListNews(ctx context.Context, topicRef string) ([]domain.NewsItem, error) {
	topic, err := s.GetTopic(ctx, topicRef)
	if err != nil {
		return nil, err
	}
	return s.news.ListByTopic(ctx, topic.ID)
}

func (s *contentService) UpdateNews(ctx context.Context, id string, in NewsInput, callerID string, callerIsAdmin bool) (*domain.NewsItem, error) {
	item, err := s.news.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNewsNotFound
		}
		return nil, err
	}
	if !callerIsAdmin && item.AddedBy != callerID {
		return nil, ErrNotYourNews
	}

	item.Title = in.Title
	item.URL = in.URL
	item.Source = in.Source
	item.Summary = in.Summary
	if err := s.news.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *contentService) DeleteNews(ctx context.Context, id string) error {
	if err := s.news.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNewsNotFound
		}
		return err
	}
	return nil
}

func (s *contentService) AddCourse(ctx context.Context, topicRef string, in CourseInput, addedBy string) (*domain.Course, error) {
	topic, err := s.GetTopic(ctx, topicRef)
	if err != nil {
		return nil, err
	}
	course := &domain.Course{
		ID:       uuid.NewString(),
		TopicID:  topic.ID,
		Title:    in.Title,
		URL:      in.URL,
		Provider: in.Provider,
		Summary:  in.Summary,
		AddedBy:  addedBy,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *contentService) ListCourses(ctx context.Context, topicRef string) ([]domain.Course, error) {
	topic, err := s.GetTopic(ctx, topicRef)
	if err != nil {
		return nil, err
	}
	return s.courses.ListByTopic(ctx, topic.ID)
}

func (s *contentService) UpdateCourse(ctx context.Context, id string, in CourseInput, callerID string, callerIsAdmin bool) (*domain.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if !callerIsAdmin && course.AddedBy != callerID {
		return nil, ErrNotYourCourse
	}

	course.Title = in.Title
	course.URL = in.URL
	course.Provider = in.Provider
	course.Summary = in.Summary
	if err := s.courses.Update(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *contentService) DeleteCourse(ctx context.Context, id string) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCourseNotFound
		}
		return err
	}
	return nil
}

func (s *contentService) ListQuestions(ctx context.Context, topicRef string) ([]domain.Question, error) {
	topic, err := s.GetTopic(ctx, topicRef)
	if err != nil {
		return nil, err
	}
	return s.questions.ListByTopic(ctx, topic.ID)
}
