package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/config"
	"openshelf/internal/core/domain"
	"openshelf/internal/pkg/password"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the repositories and services against an in-memory
// SQLite database, one per test.
type testEnv struct {
	db        *gorm.DB
	userRepo  repositories.UserRepository
	tokenRepo repositories.RefreshTokenRepository
	bookRepo  repositories.BookRepository
	issueRepo repositories.IssueRepository

	auth   *AuthService
	users  *UserService
	books  *BookService
	issues *IssueService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// Shared-cache keeps the memory DB alive across pooled connections.
	// The DSN is derived from the test name so tests stay isolated.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	userRepo := repositories.NewUserRepository(db)
	tokenRepo := repositories.NewRefreshTokenRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	issueRepo := repositories.NewIssueRepository(db)

	cfg := &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "test-access-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}

	return &testEnv{
		db:        db,
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		bookRepo:  bookRepo,
		issueRepo: issueRepo,
		auth:      NewAuthService(userRepo, tokenRepo, cfg),
		users:     NewUserService(userRepo, tokenRepo),
		books:     NewBookService(bookRepo, issueRepo),
		issues:    NewIssueService(issueRepo, bookRepo, userRepo),
	}
}

func (e *testEnv) createUser(t *testing.T, username, role string) *models.User {
	t.Helper()

	hashed, err := password.Hash("password123")
	require.NoError(t, err)

	user := &models.User{
		Username:      username,
		Email:         username + "@example.com",
		Password:      hashed,
		Role:          role,
		AccountStatus: domain.AccountActive,
	}
	require.NoError(t, e.userRepo.Create(context.Background(), user))
	return user
}

func (e *testEnv) createStudent(t *testing.T, username string) *models.User {
	return e.createUser(t, username, string(domain.RoleStudent))
}

func (e *testEnv) createBook(t *testing.T, title string, copies int) *models.Book {
	t.Helper()

	book := &models.Book{
		Title:           title,
		Author:          "Test Author",
		Category:        "Fiction",
		TotalCopies:     copies,
		CopiesAvailable: copies,
	}
	require.NoError(t, e.bookRepo.Create(context.Background(), book))
	return book
}

func (e *testEnv) bookByID(t *testing.T, id uint) *models.Book {
	t.Helper()

	book, err := e.bookRepo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return book
}

func (e *testEnv) issueByID(t *testing.T, id uint) *models.Issue {
	t.Helper()

	issue, err := e.issueRepo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return issue
}
