package seed

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"csecv/internal/repository"
	"csecv/internal/repository/sqlite"
)

const fixture = `{
  "topics": [
    {
      "slug": "phishing",
      "title": "Phishing",
      "description": "Recognizing fraudulent messages",
      "video": {"title": "Intro", "url": "https://example.com/video"},
      "news": [
        {"title": "Breach report", "url": "https://example.com/breach", "source": "Example"}
      ],
      "courses": [
        {"title": "Basics", "url": "https://example.com/course", "provider": "Coursera"}
      ],
      "quiz": [
        {
          "text": "What is phishing?",
          "options": [
            {"text": "A scam", "correct": true},
            {"text": "A sport"}
          ]
        }
      ]
    }
  ]
}`

func newImporter(t *testing.T) (*Importer, repository.TopicRepository, repository.NewsRepository, repository.QuestionRepository) {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	topics := sqlite.NewTopicRepository(db)
	news := sqlite.NewNewsRepository(db)
	courses := sqlite.NewCourseRepository(db)
	questions := sqlite.NewQuestionRepository(db)
	for _, init := range []func(context.Context) error{topics.Init, news.Init, courses.Init, questions.Init} {
		require.NoError(t, init(ctx))
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewImporter(topics, news, courses, questions, logger), topics, news, questions
}

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImport_CreatesTopicWithChildren(t *testing.T) {
	im, topics, news, questions := newImporter(t)
	ctx := context.Background()

	require.NoError(t, im.Import(ctx, writeSeed(t, fixture)))

	topic, err := topics.GetBySlug(ctx, "phishing")
	require.NoError(t, err)
	require.Equal(t, "Phishing", topic.Title)
	require.Equal(t, "https://example.com/video", topic.VideoURL)

	items, err := news.ListByTopic(ctx, topic.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Breach report", items[0].Title)

	quiz, err := questions.ListByTopic(ctx, topic.ID)
	require.NoError(t, err)
	require.Len(t, quiz, 1)
	require.Len(t, quiz[0].Options, 2)
	require.True(t, quiz[0].Options[0].Correct)
	require.False(t, quiz[0].Options[1].Correct)
}

func TestImport_IsIdempotent(t *testing.T) {
	im, topics, news, _ := newImporter(t)
	ctx := context.Background()
	path := writeSeed(t, fixture)

	require.NoError(t, im.Import(ctx, path))
	first, err := topics.GetBySlug(ctx, "phishing")
	require.NoError(t, err)

	require.NoError(t, im.Import(ctx, path))
	second, err := topics.GetBySlug(ctx, "phishing")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID, "re-import must keep the topic id")

	all, err := topics.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	items, err := news.ListByTopic(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, items, 1, "children are replaced, not appended")
}

func TestImport_MissingFileIsNotAnError(t *testing.T) {
	im, _, _, _ := newImporter(t)
	require.NoError(t, im.Import(context.Background(), filepath.Join(t.TempDir(), "absent.json")))
}

func TestImport_MalformedFile(t *testing.T) {
	im, _, _, _ := newImporter(t)
	err := im.Import(context.Background(), writeSeed(t, "{not json"))
	require.Error(t, err)
}
