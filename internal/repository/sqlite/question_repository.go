package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"csecv/internal/domain"
	"csecv/internal/repository"
)

const createQuestionTables = `
CREATE TABLE IF NOT EXISTS questions (
	id TEXT PRIMARY KEY,
	topic_id TEXT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
	text TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_questions_topic ON questions(topic_id);
CREATE TABLE IF NOT EXISTS question_options (
	id TEXT PRIMARY KEY,
	question_id TEXT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
	text TEXT NOT NULL,
	correct INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_options_question ON question_options(question_id);
`

type QuestionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) repository.QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createQuestionTables); err != nil {
		return fmt.Errorf("create question tables: %w", err)
	}
	return nil
}

func (r *QuestionRepository) ListByTopic(ctx context.Context, topicID string) ([]domain.Question, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, topic_id, text FROM questions WHERE topic_id = ? ORDER BY rowid`, topicID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.TopicID, &q.Text); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range questions {
		options, err := r.listOptions(ctx, questions[i].ID)
		if err != nil {
			return nil, err
		}
		questions[i].Options = options
	}
	return questions, nil
}

func (r *QuestionRepository) listOptions(ctx context.Context, questionID string) ([]domain.QuestionOption, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, question_id, text, correct FROM question_options WHERE question_id = ? ORDER BY rowid`, questionID)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	defer rows.Close()

	var options []domain.QuestionOption
	for rows.Next() {
		var o domain.QuestionOption
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.Correct); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

func (r *QuestionRepository) ReplaceForTopic(ctx context.Context, topicID string, questions []domain.Question) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace questions: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE topic_id = ?`, topicID); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}
	for i := range questions {
		questions[i].TopicID = topicID
		if _, err := tx.ExecContext(ctx, `INSERT INTO questions (id, topic_id, text) VALUES (?, ?, ?)`,
			questions[i].ID, topicID, questions[i].Text); err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
		for j := range questions[i].Options {
			opt := &questions[i].Options[j]
			opt.QuestionID = questions[i].ID
			if _, err := tx.ExecContext(ctx, `INSERT INTO question_options (id, question_id, text, correct) VALUES (?, ?, ?, ?)`,
				opt.ID, opt.QuestionID, opt.Text, opt.Correct); err != nil {
				return fmt.Errorf("insert option: %w", err)
			}
		}
	}
	return tx.Commit()
}
