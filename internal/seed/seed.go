package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"csecv/internal/domain"
	"csecv/internal/repository"
)

// Document is the on-disk seed format: the topics to publish, with their
// attached news, courses and quiz questions.
type Document struct {
	Topics []Topic `json:"topics"`
}

type Topic struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Logo        string     `json:"logo"`
	Image       string     `json:"image"`
	Video       Video      `json:"video"`
	News        []News     `json:"news"`
	Courses     []Course   `json:"courses"`
	Quiz        []Question `json:"quiz"`
}

type Video struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type News struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Source  string `json:"source"`
	Summary string `json:"summary"`
}

type Course struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Provider string `json:"provider"`
	Summary  string `json:"summary"`
}

type Question struct {
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

type Option struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Importer upserts seed content at startup. Topics are matched by slug;
// child collections are replaced wholesale, mirroring how the site's
// curated content was originally published.
type Importer struct {
	topics    repository.TopicRepository
	news      repository.NewsRepository
	courses   repository.CourseRepository
	questions repository.QuestionRepository
	logger    *logrus.Logger
}

func NewImporter(topics repository.TopicRepository, news repository.NewsRepository, courses repository.CourseRepository, questions repository.QuestionRepository, logger *logrus.Logger) *Importer {
	return &Importer{
		topics:    topics,
		news:      news,
		courses:   courses,
		questions: questions,
		logger:    logger,
	}
}

// Import loads the seed document at path. A missing file is not an error;
// the site simply starts empty.
func (im *Importer) Import(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			im.logger.Debugf("seed file %s not present, skipping", path)
			return nil
		}
		return fmt.Errorf("read seed file: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	for _, entry := range doc.Topics {
		if err := im.upsertTopic(ctx, entry); err != nil {
			return fmt.Errorf("seed topic %s: %w", entry.Slug, err)
		}
	}
	im.logger.Infof("seeded %d topics from %s", len(doc.Topics), path)
	return nil
}

func (im *Importer) upsertTopic(ctx context.Context, entry Topic) error {
	topic, err := im.topics.GetBySlug(ctx, entry.Slug)
	switch {
	case err == nil:
		topic.Title = entry.Title
		topic.Description = entry.Description
		topic.Logo = entry.Logo
		topic.ImagePath = entry.Image
		topic.VideoTitle = entry.Video.Title
		topic.VideoURL = entry.Video.URL
		if err := im.topics.Update(ctx, topic); err != nil {
			return err
		}
	case errors.Is(err, repository.ErrNotFound):
		topic = &domain.Topic{
			ID:          uuid.NewString(),
			Slug:        entry.Slug,
			Title:       entry.Title,
			Description: entry.Description,
			Logo:        entry.Logo,
			ImagePath:   entry.Image,
			VideoTitle:  entry.Video.Title,
			VideoURL:    entry.Video.URL,
		}
		if err := im.topics.Create(ctx, topic); err != nil {
			return err
		}
	default:
		return err
	}

	news := make([]domain.NewsItem, len(entry.News))
	for i, n := range entry.News {
		news[i] = domain.NewsItem{
			ID:      uuid.NewString(),
			Title:   n.Title,
			URL:     n.URL,
			Source:  n.Source,
			Summary: n.Summary,
		}
	}
	if err := im.news.ReplaceForTopic(ctx, topic.ID, news); err != nil {
		return err
	}

	courses := make([]domain.Course, len(entry.Courses))
	for i, c := range entry.Courses {
		courses[i] = domain.Course{
			ID:       uuid.NewString(),
			Title:    c.Title,
			URL:      c.URL,
			Provider: c.Provider,
			Summary:  c.Summary,
		}
	}
	if err := im.courses.ReplaceForTopic(ctx, topic.ID, courses); err != nil {
		return err
	}

	questions := make([]domain.Question, len(entry.Quiz))
	for i, q := range entry.Quiz {
		question := domain.Question{
			ID:   uuid.NewString(),
			Text: q.Text,
		}
		for _, o := range q.Options {
			question.Options = append(question.Options, domain.QuestionOption{
				ID:      uuid.NewString(),
				Text:    o.Text,
				Correct: o.Correct,
			})
		}
		questions[i] = question
	}
	return im.questions.ReplaceForTopic(ctx, topic.ID, questions)
}
