package http

import (
	"time"

	"csecv/internal/domain"
	"csecv/internal/storage"
)

type TopicResponse struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
	Image       string `json:"image"`
	VideoTitle  string `json:"videoTitle"`
	VideoURL    string `json:"videoUrl"`
	CreatedBy   string `json:"createdBy,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func topicToResponse(topic domain.Topic) TopicResponse {
	return TopicResponse{
		ID:          topic.ID,
		Slug:        topic.Slug,
		Title:       topic.Title,
		Description: topic.Description,
		Logo:        topic.Logo,
		Image:       topic.ImagePath,
		VideoTitle:  topic.VideoTitle,
		VideoURL:    topic.VideoURL,
		CreatedBy:   topic.CreatedBy,
		CreatedAt:   topic.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   topic.UpdatedAt.Format(time.RFC3339),
	}
}

type NewsResponse struct {
	ID        string `json:"id"`
	TopicID   string `json:"topicId"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Source    string `json:"source"`
	Summary   string `json:"summary"`
	AddedBy   string `json:"addedBy,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func newsToResponse(item domain.NewsItem) NewsResponse {
	return NewsResponse{
		ID:        item.ID,
		TopicID:   item.TopicID,
		Title:     item.Title,
		URL:       item.URL,
		Source:    item.Source,
		Summary:   item.Summary,
		AddedBy:   item.AddedBy,
		CreatedAt: item.CreatedAt.Format(time.RFC3339),
	}
}

type CourseResponse struct {
	ID        string `json:"id"`
	TopicID   string `json:"topicId"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Provider  string `json:"provider"`
	Summary   string `json:"summary"`
	AddedBy   string `json:"addedBy,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func courseToResponse(course domain.Course) CourseResponse {
	return CourseResponse{
		ID:        course.ID,
		TopicID:   course.TopicID,
		Title:     course.Title,
		URL:       course.URL,
		Provider:  course.Provider,
		Summary:   course.Summary,
		AddedBy:   course.AddedBy,
		CreatedAt: course.CreatedAt.Format(time.RFC3339),
	}
}

type QuestionResponse struct {
	ID      string           `json:"id"`
	Text    string           `json:"text"`
	Options []OptionResponse `json:"options"`
}

type OptionResponse struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct,omitempty"`
}

func questionToResponse(question domain.Question) QuestionResponse {
	resp := QuestionResponse{
		ID:      question.ID,
		Text:    question.Text,
		Options: make([]OptionResponse, len(question.Options)),
	}
	for i, o := range question.Options {
		resp.Options[i] = OptionResponse{ID: o.ID, Text: o.Text, Correct: o.Correct}
	}
	return resp
}

// UserResponse never carries password material; the role shown is the
// effective one, overlay applied.
type UserResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Username  string      `json:"username"`
	Role      domain.Role `json:"role"`
	CreatedAt string      `json:"createdAt"`
}

func (h *Handler) userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Role:      h.users.EffectiveRole(user),
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

type AssetResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"lastModified,omitempty"`
}

func assetToResponse(obj storage.ObjectInfo) AssetResponse {
	resp := AssetResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}
