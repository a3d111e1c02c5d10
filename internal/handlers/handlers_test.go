package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-tracker-api/internal/config"
	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"github.com/yukikurage/project-tracker-api/internal/storage"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiTestEnv struct {
	db     *gorm.DB
	router *gin.Engine
	tokens *services.TokenService
}

func setupAPITestEnv(t *testing.T) apiTestEnv {
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

	files, err := storage.NewLocalStorage(t.TempDir(), 1<<20)
	require.NoError(t, err)

	store := repository.NewStore(db)
	tokens := services.NewTokenService("test-secret", time.Hour, 24*time.Hour)
	mailer := services.NewMailer(&config.Config{}, log)
	google := services.NewGoogleVerifier("", "")

	r := gin.New()
	RegisterRoutes(r, Dependencies{
		Store:          store,
		Tokens:         tokens,
		Auth:           services.NewAuthService(store, tokens, google, mailer, "http://localhost:3000", log),
		Users:          services.NewUserService(store),
		Projects:       services.NewProjectService(store),
		Tasks:          services.NewTaskService(store),
		Comments:       services.NewCommentService(store),
		Attachments:    services.NewAttachmentService(store, files, log),
		Activity:       services.NewActivityService(store),
		Notifications:  services.NewNotificationService(store),
		MaxUploadBytes: 1 << 20,
		Log:            log,
	})

	return apiTestEnv{db: db, router: r, tokens: tokens}
}

// createUser stores a user with password "supersecret" and returns it with an access token.
func (env apiTestEnv) createUser(t *testing.T, username string) (*models.User, string) {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hashed),
	}
	require.NoError(t, env.db.Create(user).Error)

	access, err := env.tokens.IssueAccess(user)
	require.NoError(t, err)
	return user, access
}

func (env apiTestEnv) do(t *testing.T, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
