package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"csecv/internal/auth"
	"csecv/internal/domain"
	"csecv/internal/repository/sqlite"
	"csecv/internal/service"
)

const ownerEmail = "boss@ufps.edu.co"

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	topicRepo := sqlite.NewTopicRepository(db)
	newsRepo := sqlite.NewNewsRepository(db)
	courseRepo := sqlite.NewCourseRepository(db)
	questionRepo := sqlite.NewQuestionRepository(db)
	for _, init := range []func(context.Context) error{
		userRepo.Init, topicRepo.Init, newsRepo.Init, courseRepo.Init, questionRepo.Init,
	} {
		require.NoError(t, init(ctx))
	}

	owners := domain.NewOwnerList([]string{ownerEmail})
	users := service.NewUserService(userRepo, owners)
	content := service.NewContentService(topicRepo, newsRepo, courseRepo, questionRepo)
	codec := auth.NewCodec("test-secret", time.Hour)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	router := gin.New()
	NewHandler(users, content, codec, nil, "", "csecv-assets", logger).RegisterRoutes(router)
	return router
}

func doReq(t *testing.T, router *gin.Engine, method, path string, body any, cookie string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "sess", Value: cookie})
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), target))
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "sess" {
			return c.Value
		}
	}
	t.Fatalf("no sess cookie in response")
	return ""
}

func register(t *testing.T, router *gin.Engine, email, username string) (cookie, userID string) {
	t.Helper()
	w := doReq(t, router, http.MethodPost, "/api/register", gin.H{
		"email":    email,
		"username": username,
		"password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookie = sessionCookie(t, w)

	var me struct {
		UserID string `json:"userId"`
	}
	decode(t, doReq(t, router, http.MethodGet, "/api/me", nil, cookie), &me)
	require.NotEmpty(t, me.UserID)
	return cookie, me.UserID
}

func promote(t *testing.T, router *gin.Engine, ownerCookie, userID, role string) {
	t.Helper()
	w := doReq(t, router, http.MethodPut, "/api/users/"+userID+"/role", gin.H{"role": role}, ownerCookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func createTopic(t *testing.T, router *gin.Engine, cookie, slug string) TopicResponse {
	t.Helper()
	w := doReq(t, router, http.MethodPost, "/api/topics", gin.H{"slug": slug, "title": slug}, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var topic TopicResponse
	decode(t, w, &topic)
	return topic
}

func TestRegisterAndMe(t *testing.T) {
	router := newTestServer(t)

	w := doReq(t, router, http.MethodPost, "/api/register", gin.H{
		"email":    "a@ufps.edu.co",
		"username": "a",
		"password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(t, w)

	var me struct {
		Authenticated bool   `json:"authenticated"`
		Email         string `json:"email"`
		Role          string `json:"role"`
	}
	decode(t, doReq(t, router, http.MethodGet, "/api/me", nil, cookie), &me)
	require.True(t, me.Authenticated)
	require.Equal(t, "a@ufps.edu.co", me.Email)
	require.Equal(t, "user", me.Role)
}

func TestRegister_MissingFields(t *testing.T) {
	router := newTestServer(t)

	w := doReq(t, router, http.MethodPost, "/api/register", gin.H{"email": "a@ufps.edu.co"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "missing_fields")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	router := newTestServer(t)
	register(t, router, "a@ufps.edu.co", "a")

	w := doReq(t, router, http.MethodPost, "/api/register", gin.H{
		"email":    "A@UFPS.EDU.CO",
		"username": "other",
		"password": "secret456",
	}, "")
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "email_exists")
}

func TestLogin_WrongPassword(t *testing.T) {
	router := newTestServer(t)
	register(t, router, "a@ufps.edu.co", "a")

	w := doReq(t, router, http.MethodPost, "/api/login", gin.H{
		"email":    "a@ufps.edu.co",
		"password": "wrong",
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "invalid_credentials")
	for _, c := range w.Result().Cookies() {
		require.NotEqual(t, "sess", c.Name, "failed login must not set a session cookie")
	}
}

func TestMe_TamperedCookie(t *testing.T) {
	router := newTestServer(t)
	cookie, _ := register(t, router, "a@ufps.edu.co", "a")

	var me struct {
		Authenticated bool `json:"authenticated"`
	}
	decode(t, doReq(t, router, http.MethodGet, "/api/me", nil, cookie+"x"), &me)
	require.False(t, me.Authenticated)
}

func TestProfile_RequiresSession(t *testing.T) {
	router := newTestServer(t)

	w := doReq(t, router, http.MethodPut, "/api/profile", gin.H{"username": "b"}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "unauthenticated")
}

func TestProfile_UpdateRefreshesCookie(t *testing.T) {
	router := newTestServer(t)
	cookie, _ := register(t, router, "a@ufps.edu.co", "a")

	w := doReq(t, router, http.MethodPut, "/api/profile", gin.H{"username": "renamed"}, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	fresh := sessionCookie(t, w)
	require.NotEqual(t, cookie, fresh)

	var me struct {
		Username string `json:"username"`
	}
	decode(t, doReq(t, router, http.MethodGet, "/api/me", nil, fresh), &me)
	require.Equal(t, "renamed", me.Username)

	w = doReq(t, router, http.MethodPut, "/api/profile", gin.H{"username": ""}, fresh)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "missing_username")
}

func TestPassword_ChangeFlow(t *testing.T) {
	router := newTestServer(t)
	cookie, _ := register(t, router, "a@ufps.edu.co", "a")

	w := doReq(t, router, http.MethodPut, "/api/password", gin.H{
		"currentPassword": "wrong",
		"newPassword":     "newsecret1",
	}, cookie)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doReq(t, router, http.MethodPut, "/api/password", gin.H{
		"currentPassword": "secret123",
		"newPassword":     "newsecret1",
	}, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = doReq(t, router, http.MethodPost, "/api/login", gin.H{
		"email":    "a@ufps.edu.co",
		"password": "newsecret1",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestOwnerOverlay(t *testing.T) {
	router := newTestServer(t)
	cookie, _ := register(t, router, ownerEmail, "boss")

	var me struct {
		Role string `json:"role"`
	}
	decode(t, doReq(t, router, http.MethodGet, "/api/me", nil, cookie), &me)
	require.Equal(t, "owner", me.Role)
}

func TestTopicCreation_RoleGate(t *testing.T) {
	router := newTestServer(t)
	ownerCookie, _ := register(t, router, ownerEmail, "boss")
	aliceCookie, aliceID := register(t, router, "alice@ufps.edu.co", "alice")

	w := doReq(t, router, http.MethodPost, "/api/topics", gin.H{"slug": "phishing", "title": "Phishing"}, aliceCookie)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Body.String(), "insufficient_permissions")

	// promotion takes effect without re-login: the gate re-reads the store
	promote(t, router, ownerCookie, aliceID, "theme_editor")
	topic := createTopic(t, router, aliceCookie, "phishing")
	require.Equal(t, "phishing", topic.Slug)

	w = doReq(t, router, http.MethodPost, "/api/topics", gin.H{"slug": "phishing", "title": "Again"}, aliceCookie)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "topic_exists")

	// delete needs admin; theme_editor is not enough
	w = doReq(t, router, http.MethodDelete, "/api/topics/"+topic.ID, nil, aliceCookie)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doReq(t, router, http.MethodDelete, "/api/topics/"+topic.ID, nil, ownerCookie)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestUsersEndpoint_OwnerOnly(t *testing.T) {
	router := newTestServer(t)
	ownerCookie, _ := register(t, router, ownerEmail, "boss")
	aliceCookie, aliceID := register(t, router, "alice@ufps.edu.co", "alice")

	w := doReq(t, router, http.MethodGet, "/api/users", nil, aliceCookie)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doReq(t, router, http.MethodPut, "/api/users/"+aliceID+"/role", gin.H{"role": "admin"}, aliceCookie)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Body.String(), "insufficient_permissions")

	w = doReq(t, router, http.MethodGet, "/api/users", nil, ownerCookie)
	require.Equal(t, http.StatusOK, w.Code)
	var users []UserResponse
	decode(t, w, &users)
	require.Len(t, users, 2)
	require.NotContains(t, w.Body.String(), "passwordHash")

	w = doReq(t, router, http.MethodPut, "/api/users/"+aliceID+"/role", gin.H{"role": "owner"}, ownerCookie)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "invalid_role")

	w = doReq(t, router, http.MethodPut, "/api/users/"+aliceID+"/role", gin.H{"role": "superuser"}, ownerCookie)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doReq(t, router, http.MethodPut, "/api/users/missing/role", gin.H{"role": "admin"}, ownerCookie)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "user_not_found")
}

func TestNewsOwnership(t *testing.T) {
	router := newTestServer(t)
	ownerCookie, _ := register(t, router, ownerEmail, "boss")
	amyCookie, amyID := register(t, router, "amy@ufps.edu.co", "amy")
	benCookie, benID := register(t, router, "ben@ufps.edu.co", "ben")
	promote(t, router, ownerCookie, amyID, "news_editor")
	promote(t, router, ownerCookie, benID, "news_editor")

	topic := createTopic(t, router, ownerCookie, "phishing")

	w := doReq(t, router, http.MethodPost, "/api/topics/"+topic.ID+"/news", gin.H{
		"title": "Breach",
		"url":   "https://example.com/breach",
	}, amyCookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var item NewsResponse
	decode(t, w, &item)

	update := gin.H{"title": "Edited", "url": "https://example.com/breach"}

	w = doReq(t, router, http.MethodPut, "/api/news/"+item.ID, update, benCookie)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Body.String(), "not_your_news")

	w = doReq(t, router, http.MethodPut, "/api/news/"+item.ID, update, amyCookie)
	require.Equal(t, http.StatusOK, w.Code)

	// admin (owner here) bypasses ownership
	w = doReq(t, router, http.MethodPut, "/api/news/"+item.ID, update, ownerCookie)
	require.Equal(t, http.StatusOK, w.Code)

	// delete needs admin
	w = doReq(t, router, http.MethodDelete, "/api/news/"+item.ID, nil, amyCookie)
	require.Equal(t, http.StatusForbidden, w.Code)
	w = doReq(t, router, http.MethodDelete, "/api/news/"+item.ID, nil, ownerCookie)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCourseOwnership(t *testing.T) {
	router := newTestServer(t)
	ownerCookie, _ := register(t, router, ownerEmail, "boss")
	amyCookie, amyID := register(t, router, "amy@ufps.edu.co", "amy")
	benCookie, benID := register(t, router, "ben@ufps.edu.co", "ben")
	promote(t, router, ownerCookie, amyID, "course_editor")
	promote(t, router, ownerCookie, benID, "course_editor")

	topic := createTopic(t, router, ownerCookie, "general")

	w := doReq(t, router, http.MethodPost, "/api/topics/"+topic.ID+"/courses", gin.H{
		"title": "Basics",
		"url":   "https://example.com/basics",
	}, amyCookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var course CourseResponse
	decode(t, w, &course)

	update := gin.H{"title": "Edited", "url": "https://example.com/basics"}
	w = doReq(t, router, http.MethodPut, "/api/courses/"+course.ID, update, benCookie)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Body.String(), "not_your_course")

	w = doReq(t, router, http.MethodPut, "/api/courses/"+course.ID, update, amyCookie)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestPublicReads(t *testing.T) {
	router := newTestServer(t)
	ownerCookie, _ := register(t, router, ownerEmail, "boss")
	topic := createTopic(t, router, ownerCookie, "servidores")

	// no session required
	w := doReq(t, router, http.MethodGet, "/api/topics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doReq(t, router, http.MethodGet, "/api/topics/servidores", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var got TopicResponse
	decode(t, w, &got)
	require.Equal(t, topic.ID, got.ID)

	for _, path := range []string{"news", "courses", "quiz"} {
		w = doReq(t, router, http.MethodGet, fmt.Sprintf("/api/topics/%s/%s", topic.Slug, path), nil, "")
		require.Equal(t, http.StatusOK, w.Code, path)
	}

	w = doReq(t, router, http.MethodGet, "/api/topics/missing", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "topic_not_found")
}

func TestLogout(t *testing.T) {
	router := newTestServer(t)
	cookie, _ := register(t, router, "a@ufps.edu.co", "a")

	w := doReq(t, router, http.MethodPost, "/api/logout", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	for _, c := range w.Result().Cookies() {
		if c.Name == "sess" {
			require.Empty(t, c.Value)
			require.Negative(t, c.MaxAge)
		}
	}
}

func TestAssets_NotConfigured(t *testing.T) {
	router := newTestServer(t)
	ownerCookie, _ := register(t, router, ownerEmail, "boss")

	w := doReq(t, router, http.MethodGet, "/api/assets", nil, ownerCookie)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "storage_not_configured")
}
