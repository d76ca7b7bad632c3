package repositories

import (
	"context"
	"time"

	"openshelf/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	ListByRole(ctx context.Context, role string, offset, limit int) ([]*models.User, int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
}

// BookRepository defines book repository interface
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id uint) (*models.Book, error)
	Update(ctx context.Context, book *models.Book) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	SetCopies(ctx context.Context, id uint, total, available int) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context) ([]*models.Book, error)
}

// IssueRepository defines issue repository interface.
// The compound transitions run as a single database transaction with
// conditional updates so a concurrent double-accept cannot drive
// copies_available outside its bounds.
type IssueRepository interface {
	Create(ctx context.Context, issue *models.Issue) error
	GetByID(ctx context.Context, id uint) (*models.Issue, error)
	ListByUserAndStatuses(ctx context.Context, userID uint, statuses []string) ([]*models.Issue, error)
	ListByStatus(ctx context.Context, status string) ([]*models.Issue, error)
	HasOpen(ctx context.Context, userID, bookID uint) (bool, error)
	CountByBookAndStatus(ctx context.Context, bookID uint, status string) (int64, error)
	ListIssuedBefore(ctx context.Context, cutoff time.Time) ([]*models.Issue, error)
	Transition(ctx context.Context, issueID uint, from, to string) error
	ApproveIssue(ctx context.Context, issueID, bookID uint) error
	ApproveReturn(ctx context.Context, issueID, bookID uint) error
}
