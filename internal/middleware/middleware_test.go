package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-tracker-api/internal/database"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type authTestEnv struct {
	db     *gorm.DB
	tokens *services.TokenService
	router *gin.Engine
}

func setupAuthTestEnv(t *testing.T) authTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})
	require.NoError(t, db.AutoMigrate(database.AllModels()...))

	log := logrus.New()
	log.SetOutput(io.Discard)

	tokens := services.NewTokenService("secret", time.Minute, time.Hour)
	r := gin.New()
	r.GET("/me", RequireAuth(tokens, repository.NewStore(db), log), func(c *gin.Context) {
		actor, ok := GetActor(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": actor.ID, "is_staff": actor.IsStaff})
	})

	return authTestEnv{db: db, tokens: tokens, router: r}
}

func (env authTestEnv) get(header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_ValidAccessToken(t *testing.T) {
	env := setupAuthTestEnv(t)

	user := &models.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, env.db.Create(user).Error)
	pair, err := env.tokens.IssuePair(user)
	require.NoError(t, err)

	// staff is read from the row, not from the token
	require.NoError(t, env.db.Model(user).Update("is_staff", true).Error)

	w := env.get("Bearer " + pair.Access)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		ID      uint64 `json:"id"`
		IsStaff bool   `json:"is_staff"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, user.ID, body.ID)
	assert.True(t, body.IsStaff)
}

func TestRequireAuth_Rejects(t *testing.T) {
	env := setupAuthTestEnv(t)

	user := &models.User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, env.db.Create(user).Error)
	pair, err := env.tokens.IssuePair(user)
	require.NoError(t, err)

	ghost, err := env.tokens.IssueAccess(&models.User{ID: 999})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"empty token", "Bearer "},
		{"refresh token", "Bearer " + pair.Refresh},
		{"garbage", "Bearer nope"},
		{"deleted user", "Bearer " + ghost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.get(tt.header)
			require.Equal(t, http.StatusUnauthorized, w.Code)

			var apiErr apierrors.APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
			assert.Equal(t, apierrors.ErrCodeUnauthorized, apiErr.Code)
		})
	}
}

func TestRequireIDParams(t *testing.T) {
	r := gin.New()
	r.GET("/things/:id", RequireIDParams("id"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": IDParam(c, "id")})
	})

	tests := []struct {
		path string
		code int
	}{
		{"/things/12", http.StatusOK},
		{"/things/abc", http.StatusNotFound},
		{"/things/0", http.StatusNotFound},
		{"/things/-3", http.StatusNotFound},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.code, w.Code, tt.path)
	}
}
