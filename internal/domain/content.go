package domain

import "time"

// Topic is an awareness theme grouping news, courses and quiz questions.
type Topic struct {
	ID          string
	Slug        string
	Title       string
	Description string
	Logo        string
	ImagePath   string
	VideoTitle  string
	VideoURL    string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewsItem is an external article attached to a topic. AddedBy references the
// user that created it and drives the ownership check on update.
type NewsItem struct {
	ID        string
	TopicID   string
	Title     string
	URL       string
	Source    string
	Summary   string
	AddedBy   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Course is an external training resource attached to a topic.
type Course struct {
	ID        string
	TopicID   string
	Title     string
	URL       string
	Provider  string
	Summary   string
	AddedBy   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Question belongs to a topic's quiz. Scoring happens client side, so the
// options carry the correct flag.
type Question struct {
	ID      string
	TopicID string
	Text    string
	Options []QuestionOption
}

type QuestionOption struct {
	ID         string
	QuestionID string
	Text       string
	Correct    bool
}
