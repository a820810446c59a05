package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tasktrack/backend/internal/config"
	"tasktrack/backend/internal/models"
	"tasktrack/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// APITestSuite drives the whole HTTP surface against an in-memory
// database: register, login, then the task lifecycle end to end.
type APITestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
}

func (s *APITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(&models.User{}, &models.Task{}))
	s.db = db

	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		Auth: config.AuthConfig{
			JWTSecret:  "test-secret",
			TokenTTL:   time.Hour,
			BCryptCost: bcrypt.MinCost,
		},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}

	s.router = NewRouter(Dependencies{
		DB:              db,
		Config:          cfg,
		Tokens:          services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		AuthService:     services.NewAuthService(),
		RegisterService: services.NewRegisterService(cfg.Auth.BCryptCost),
		UserService:     services.NewUserService(),
		TaskService:     services.NewTaskService(nil),
	})
}

func (s *APITestSuite) SetupTest() {
	s.Require().NoError(s.db.Exec("DELETE FROM tasks").Error)
	s.Require().NoError(s.db.Exec("DELETE FROM users").Error)
}

func (s *APITestSuite) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, path, &buf)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *APITestSuite) registerAndLogin(username string) string {
	w := s.request(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "correct horse battery",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().NotEmpty(resp.Token)
	return resp.Token
}

func (s *APITestSuite) TestHealthEndpoint() {
	w := s.request(http.MethodGet, "/api/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "ok")
}

func (s *APITestSuite) TestTasksRequireAuth() {
	w := s.request(http.MethodGet, "/api/tasks", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestRegisterLoginRoundTrip() {
	s.registerAndLogin("alice")

	w := s.request(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "correct horse battery",
	})
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "Login successful")

	w = s.request(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestMeEndpoint() {
	token := s.registerAndLogin("alice")

	w := s.request(http.MethodGet, "/api/auth/me", token, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "alice@example.com")
}

func (s *APITestSuite) TestTaskLifecycle() {
	token := s.registerAndLogin("alice")

	w := s.request(http.MethodPost, "/api/tasks", token, map[string]string{
		"title":    "Ship release",
		"priority": "high",
		"due_date": "2026-09-15",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Task models.TaskWithUsers `json:"task"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))
	s.Equal("Ship release", created.Task.Title)
	s.Equal(models.StatusPending, created.Task.Status)
	s.Equal("alice", created.Task.CreatorName)

	taskURL := fmt.Sprintf("/api/tasks/%s", created.Task.ID)

	w = s.request(http.MethodGet, "/api/tasks", token, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "Ship release")

	w = s.request(http.MethodPut, taskURL, token, map[string]string{
		"status": "in_progress",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Contains(w.Body.String(), "in_progress")

	w = s.request(http.MethodPatch, taskURL+"/complete", token, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Contains(w.Body.String(), "Task marked as completed")
	s.Contains(w.Body.String(), "completed_at")

	w = s.request(http.MethodDelete, taskURL, token, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.request(http.MethodGet, taskURL, token, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestForbiddenAcrossUsers() {
	aliceToken := s.registerAndLogin("alice")
	bobToken := s.registerAndLogin("bob")

	w := s.request(http.MethodPost, "/api/tasks", aliceToken, map[string]string{
		"title": "Private task",
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	var created struct {
		Task models.TaskWithUsers `json:"task"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))
	taskURL := fmt.Sprintf("/api/tasks/%s", created.Task.ID)

	w = s.request(http.MethodPut, taskURL, bobToken, map[string]string{"title": "Hijacked"})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.request(http.MethodDelete, taskURL, bobToken, nil)
	s.Equal(http.StatusForbidden, w.Code)

	// Other users can still read it.
	w = s.request(http.MethodGet, taskURL, bobToken, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *APITestSuite) TestAssignedTasksEndpoint() {
	aliceToken := s.registerAndLogin("alice")
	bobToken := s.registerAndLogin("bob")

	var bob models.User
	s.Require().NoError(s.db.Where("username = ?", "bob").First(&bob).Error)

	w := s.request(http.MethodPost, "/api/tasks", aliceToken, map[string]interface{}{
		"title":       "Handed off",
		"assigned_to": bob.ID.String(),
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.request(http.MethodGet, "/api/tasks/assigned", bobToken, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "Handed off")

	w = s.request(http.MethodGet, "/api/tasks/assigned", aliceToken, nil)
	s.Equal(http.StatusOK, w.Code)
	s.NotContains(w.Body.String(), "Handed off")
}

func (s *APITestSuite) TestUserDirectory() {
	token := s.registerAndLogin("alice")
	s.registerAndLogin("bob")

	w := s.request(http.MethodGet, "/api/users", token, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "alice")
	s.Contains(w.Body.String(), "bob")

	var bob models.User
	s.Require().NoError(s.db.Where("username = ?", "bob").First(&bob).Error)

	w = s.request(http.MethodGet, "/api/users/"+bob.ID.String(), token, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "bob@example.com")

	w = s.request(http.MethodGet, "/api/users/"+uuid.Must(uuid.NewV4()).String(), token, nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Contains(w.Body.String(), "user not found")
}

func (s *APITestSuite) TestMetricsRequiresAdmin() {
	token := s.registerAndLogin("alice")

	w := s.request(http.MethodGet, "/api/metrics", token, nil)
	s.Equal(http.StatusForbidden, w.Code)

	s.Require().NoError(s.db.Model(&models.User{}).
		Where("username = ?", "alice").
		Update("role", models.RoleAdmin).Error)

	adminLogin := s.request(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "correct horse battery",
	})
	s.Require().Equal(http.StatusOK, adminLogin.Code)

	var resp struct {
		Token string `json:"token"`
	}
	s.Require().NoError(json.Unmarshal(adminLogin.Body.Bytes(), &resp))

	w = s.request(http.MethodGet, "/api/metrics", resp.Token, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "request_count")
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
