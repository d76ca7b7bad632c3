package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/config"
	"openshelf/internal/core/domain"
	"openshelf/internal/pkg/password"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:routes_%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	cfg := &config.Config{
		AppMode: "dev",
		Port:    "0",
		JWT: config.JWTConfig{
			Secret:           "test-access-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
		Upload: config.UploadConfig{Dir: t.TempDir()},
	}
	config.AppConfig = cfg

	app := fiber.New()
	Setup(app, db, cfg)
	return app, db
}

func createAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	hashed, err := password.Hash("admin-password")
	require.NoError(t, err)

	admin := &models.User{
		Username:      "root",
		Email:         "root@example.com",
		Password:      hashed,
		Role:          string(domain.RoleAdmin),
		AccountStatus: domain.AccountActive,
	}
	require.NoError(t, db.Create(admin).Error)
	return admin
}

func doJSON(t *testing.T, app *fiber.App, method, target, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var parsed map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}
	return resp, parsed
}

func loginToken(t *testing.T, app *fiber.App, email, pass string) string {
	t.Helper()

	resp, body := doJSON(t, app, "POST", "/api/login", "", fiber.Map{
		"email":    email,
		"password": pass,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	return data["access_token"].(string)
}

func TestRegisterLoginFlow(t *testing.T) {
	app, _ := setupApp(t)

	resp, body := doJSON(t, app, "POST", "/api/register", "", fiber.Map{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	token := loginToken(t, app, "alice@example.com", "password123")

	resp, body = doJSON(t, app, "GET", "/api/me", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	user := body["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "student", user["role"])
}

func TestBooksPublicListing(t *testing.T) {
	app, db := setupApp(t)

	require.NoError(t, db.Create(&models.Book{
		Title: "Dune", Author: "Frank Herbert", Category: "SF",
		TotalCopies: 2, CopiesAvailable: 2,
	}).Error)

	resp, body := doJSON(t, app, "GET", "/api/books", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	books := body["data"].(map[string]interface{})["books"].([]interface{})
	require.Len(t, books, 1)

	first := books[0].(map[string]interface{})
	assert.Equal(t, "Dune", first["title"])
	// Anonymous listing carries no display status
	_, present := first["display_status"]
	assert.False(t, present)
}

func TestAdminGuards(t *testing.T) {
	app, db := setupApp(t)
	createAdmin(t, db)

	// No token at all
	resp, _ := doJSON(t, app, "GET", "/api/issue-requests", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Student token is not enough
	_, _ = doJSON(t, app, "POST", "/api/register", "", fiber.Map{
		"username": "alice", "email": "alice@example.com", "password": "password123",
	})
	studentToken := loginToken(t, app, "alice@example.com", "password123")
	resp, _ = doJSON(t, app, "GET", "/api/issue-requests", studentToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Admin token works
	adminToken := loginToken(t, app, "root@example.com", "admin-password")
	resp, _ = doJSON(t, app, "GET", "/api/issue-requests", adminToken, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLoanLifecycleOverHTTP(t *testing.T) {
	app, db := setupApp(t)
	createAdmin(t, db)

	require.NoError(t, db.Create(&models.Book{
		Title: "Dune", Author: "Frank Herbert", Category: "SF",
		TotalCopies: 1, CopiesAvailable: 1,
	}).Error)

	_, _ = doJSON(t, app, "POST", "/api/register", "", fiber.Map{
		"username": "alice", "email": "alice@example.com", "password": "password123",
	})
	student := loginToken(t, app, "alice@example.com", "password123")
	admin := loginToken(t, app, "root@example.com", "admin-password")

	// Student requests the book
	resp, body := doJSON(t, app, "POST", "/api/issue-book", student, fiber.Map{"bookId": 1})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	request := body["data"].(map[string]interface{})["request"].(map[string]interface{})
	requestID := uint(request["issue_id"].(float64))
	assert.Equal(t, "pending_issue", request["return_status"])

	// Duplicate request is rejected
	resp, _ = doJSON(t, app, "POST", "/api/issue-book", student, fiber.Map{"bookId": 1})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// Admin accepts
	resp, body = doJSON(t, app, "POST", "/api/handle-request", admin, fiber.Map{
		"requestId": requestID, "action": "accept",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	request = body["data"].(map[string]interface{})["request"].(map[string]interface{})
	assert.Equal(t, "issued", request["return_status"])

	// Catalog shows the copy as gone
	_, body = doJSON(t, app, "GET", "/api/books", "", nil)
	book := body["data"].(map[string]interface{})["books"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, float64(0), book["available_copies"])

	// Student sends it back, admin confirms
	resp, _ = doJSON(t, app, "POST", "/api/return-book", student, fiber.Map{"issueId": requestID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, "POST", "/api/handle-return", admin, fiber.Map{
		"requestId": requestID, "action": "accept",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	request = body["data"].(map[string]interface{})["request"].(map[string]interface{})
	assert.Equal(t, "returned", request["return_status"])

	_, body = doJSON(t, app, "GET", "/api/books", "", nil)
	book = body["data"].(map[string]interface{})["books"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, float64(1), book["available_copies"])
}
