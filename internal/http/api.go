package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"csecv/internal/auth"
	"csecv/internal/domain"
	"csecv/internal/service"
	"csecv/internal/storage"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	content   service.ContentService
	codec     *auth.Codec
	assets    storage.Service
	bucket    string
	keyPrefix string
	logger    *logrus.Logger
}

func NewHandler(users service.UserService, content service.ContentService, codec *auth.Codec, assets storage.Service, bucket, keyPrefix string, logger *logrus.Logger) *Handler {
	return &Handler{
		users:     users,
		content:   content,
		codec:     codec,
		assets:    assets,
		bucket:    bucket,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		api.GET("/me", h.getMe)
		api.POST("/register", h.register)
		api.POST("/login", h.login)
		api.POST("/logout", h.logout)
		api.PUT("/profile", h.requireSession, h.updateProfile)
		api.PUT("/password", h.requireSession, h.changePassword)

		api.GET("/topics", h.listTopics)
		api.GET("/topics/:id", h.getTopic)
		api.GET("/topics/:id/news", h.listNews)
		api.GET("/topics/:id/courses", h.listCourses)
		api.GET("/topics/:id/quiz", h.listQuestions)

		api.POST("/topics", h.requireSession, h.requireRole(domain.RoleThemeEditor), h.createTopic)
		api.PUT("/topics/:id", h.requireSession, h.requireRole(domain.RoleThemeEditor), h.updateTopic)
		api.DELETE("/topics/:id", h.requireSession, h.requireRole(domain.RoleAdmin), h.deleteTopic)
		api.POST("/topics/:id/image", h.requireSession, h.requireRole(domain.RoleThemeEditor), h.uploadTopicImage)

		api.POST("/topics/:id/news", h.requireSession, h.requireRole(domain.RoleNewsEditor), h.addNews)
		api.PUT("/news/:id", h.requireSession, h.requireRole(domain.RoleNewsEditor), h.updateNews)
		api.DELETE("/news/:id", h.requireSession, h.requireRole(domain.RoleAdmin), h.deleteNews)

		api.POST("/topics/:id/courses", h.requireSession, h.requireRole(domain.RoleCourseEditor), h.addCourse)
		api.PUT("/courses/:id", h.requireSession, h.requireRole(domain.RoleCourseEditor), h.updateCourse)
		api.DELETE("/courses/:id", h.requireSession, h.requireRole(domain.RoleAdmin), h.deleteCourse)

		api.GET("/assets", h.requireSession, h.requireRole(domain.RoleAdmin), h.listAssets)
		api.GET("/assets/url", h.requireSession, h.requireRole(domain.RoleAdmin), h.assetURL)
		api.GET("/users", h.requireSession, h.requireRole(domain.RoleOwner), h.listUsers)
		api.PUT("/users/:id/role", h.requireSession, h.requireRole(domain.RoleOwner), h.assignRole)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// serverError hides store internals behind a generic code; the detail only
// goes to the log.
func (h *Handler) serverError(c *gin.Context, err error) {
	h.logger.WithError(err).Errorf("%s %s", c.Request.Method, c.Request.URL.Path)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
}

type topicRequest struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
	Image       string `json:"image"`
	VideoTitle  string `json:"videoTitle"`
	VideoURL    string `json:"videoUrl"`
}

func (r topicRequest) toInput() service.TopicInput {
	return service.TopicInput{
		Slug:        r.Slug,
		Title:       r.Title,
		Description: r.Description,
		Logo:        r.Logo,
		ImagePath:   r.Image,
		VideoTitle:  r.VideoTitle,
		VideoURL:    r.VideoURL,
	}
}

func (h *Handler) listTopics(c *gin.Context) {
	topics, err := h.content.ListTopics(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}
	resp := make([]TopicResponse, len(topics))
	for i := range topics {
		resp[i] = topicToResponse(topics[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getTopic(c *gin.Context) {
	topic, err := h.content.GetTopic(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTopicNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "topic_not_found"})
			return
		}
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, topicToResponse(*topic))
}

func (h *Handler) createTopic(c *gin.Context) {
	var req topicRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Slug == "" || req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}

	topic, err := h.content.CreateTopic(c.Request.Context(), req.toInput(), currentUser(c).ID)
	if err != nil {
		if errors.Is(err, service.ErrTopicExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "topic_exists"})
			return
		}
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, topicToResponse(*topic))
}

func (h *Handler) updateTopic(c *gin.Context) {
	var req topicRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}

	topic, err := h.content.UpdateTopic(c.Request.Context(), c.Param("id"), req.toInput())
	if err != nil {
		if errors.Is(err, service.ErrTopicNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "topic_not_found"})
			return
		}
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, topicToResponse(*topic))
}

func (h *Handler) deleteTopic(c *gin.Context) {
	deleteAssets, err := strconv.ParseBool(c.DefaultQuery("delete_assets", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_flag"})
		return
	}

	topic, err := h.content.GetTopic(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTopicNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "topic_not_found"})
			return
		}
		h.serverError(c, err)
		return
	}

	var warnings []string
	if deleteAssets {
		if h.assets == nil || h.bucket == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "storage_not_configured"})
			return
		}
		remoteCtx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		prefix := h.topicAssetPrefix(topic.ID)
		if err := h.assets.DeletePrefix(remoteCtx, h.bucket, prefix); err != nil {
			warnings = append(warnings, fmt.Sprintf("delete assets: %v", err))
		}
	}

	if err := h.content.DeleteTopic(c.Request.Context(), topic.ID); err != nil {
		h.serverError(c, err)
		return
	}

	resp := gin.H{"deleted": topic.ID}
	if len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) uploadTopicImage(c *gin.Context) {
	if h.assets == nil || h.bucket == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "storage_not_configured"})
		return
	}

	topic, err := h.content.GetTopic(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTopicNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "topic_not_found"})
			return
		}
		h.serverError(c, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_file"})
		return
	}
	file, err := header.Open()
	if err != nil {
		h.serverError(c, err)
		return
	}
	defer file.Close()

	key := path.Join(h.topicAssetPrefix(topic.ID), path.Base(header.Filename))
	location, err := h.assets.Upload(c.Request.Context(), file, h.bucket, key, header.Header.Get("Content-Type"))
	if err != nil {
		h.serverError(c, err)
		return
	}
	if err := h.content.SetTopicImage(c.Request.Context(), topic.ID, location); err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "location": location})
}

func (h *Handler) topicAssetPrefix(topicID string) string {
	return path.Join(h.keyPrefix, "topics", topicID)
}

type newsRequest struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Source  string `json:"source"`
	Summary string `json:"summary"`
}

func (h *Handler) listNews(c *gin.Context) {
	items, err := h.content.ListNews(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTopicNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "topic_not_found"})
			return
		}
		h.serverError(c, err)
		return
	}
	resp := make([]NewsResponse, len(items))
	for i := range items {
		resp[i] = newsToResponse(items[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) addNews(c *gin.Context) {
	var req newsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}

	item, err := h.content.AddNews(c.Request.Context(), c.Param("id"), service.NewsInput(req), currentUser(c).ID)
	if err != nil {
		if errors.Is(err, service.ErrTopicNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "topic_not_found"})
			return
		}
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, newsToResponse(*item))
}

func (h *Handler) updateNews(c *gin.Context) {
	var req newsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}

	isAdmin := effectiveRole(c).Satisfies(domain.RoleAdmin)
	item, err := h.content.UpdateNews(c.Request.Context(), c.Param("id"), service.NewsInput(req), currentUser(c).ID, isAdmin)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNewsNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "news_not_found"})
		case errors.Is(err, service.ErrNotYourNews):
			c.JSON(http.StatusForbidden, gin.H{"error": "not_your_news"})
		default:
			h.serverError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, newsToResponse(*item))
}

func (h *Handler) deleteNews(c *gin.Context) {
	if err := h.content.DeleteNews(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrNewsNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "news_not_found"})
			return
		}
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

type courseRequest struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Provider string `json:"provider"`
	Summary  string `json:"summary"`
}

func (h *Handler) listCourses(c *gin.Context) {
	courses, err := h.content.ListCourses(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTopicNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "topic_not_found"})
			return
		}
		h.serverError(c, err)
		return
	}
	resp := make([]CourseResponse, len(courses))
	for i := range courses {
		resp[i] = courseToResponse(courses[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) addCourse(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}

	course, err := h.content.AddCourse(c.Request.Context(), c.Param("id"), service.CourseInput(req), currentUser(c).ID)
	if err != nil {
		if errors.Is(err, service.ErrTopicNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "topic_not_found"})
			return
		}
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, courseToResponse(*course))
}

func (h *Handler) updateCourse(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}

	isAdmin := effectiveRole(c).Satisfies(domain.RoleAdmin)
	course, err := h.content.UpdateCourse(c.Request.Context(), c.Param("id"), service.CourseInput(req), currentUser(c).ID, isAdmin)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCourseNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "course_not_found"})
		case errors.Is(err, service.ErrNotYourCourse):
			c.JSON(http.StatusForbidden, gin.H{"error": "not_your_course"})
		default:
			h.serverError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, courseToResponse(*course))
}

func (h *Handler) deleteCourse(c *gin.Context) {
	if err := h.content.DeleteCourse(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "course_not_found"})
			return
		}
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

func (h *Handler) listQuestions(c *gin.Context) {
	questions, err := h.content.ListQuestions(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTopicNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "topic_not_found"})
			return
		}
		h.serverError(c, err)
		return
	}
	resp := make([]QuestionResponse, len(questions))
	for i := range questions {
		resp[i] = questionToResponse(questions[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listAssets(c *gin.Context) {
	if h.assets == nil || h.bucket == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "storage_not_configured"})
		return
	}
	prefix := c.DefaultQuery("prefix", h.keyPrefix)
	objects, err := h.assets.ListObjects(c.Request.Context(), h.bucket, prefix)
	if err != nil {
		h.serverError(c, err)
		return
	}
	resp := make([]AssetResponse, len(objects))
	for i := range objects {
		resp[i] = assetToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}

// assetURL hands out a short-lived presigned link; the bucket stays private.
func (h *Handler) assetURL(c *gin.Context) {
	if h.assets == nil || h.bucket == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "storage_not_configured"})
		return
	}
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}
	url, err := h.assets.GetObjectURL(c.Request.Context(), h.bucket, key, 15*time.Minute)
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "url": url})
}
