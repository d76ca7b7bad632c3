package repositories

import (
	"context"
	"time"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/core/domain"

	"gorm.io/gorm"
)

// issueRepository implements IssueRepository interface
type issueRepository struct {
	db *gorm.DB
}

// NewIssueRepository creates a new issue repository
func NewIssueRepository(db *gorm.DB) IssueRepository {
	return &issueRepository{db: db}
}

// Create creates a new issue record
func (r *issueRepository) Create(ctx context.Context, issue *models.Issue) error {
	return r.db.WithContext(ctx).Create(issue).Error
}

// GetByID gets an issue by ID with book and user preloaded
func (r *issueRepository) GetByID(ctx context.Context, id uint) (*models.Issue, error) {
	var issue models.Issue
	err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("User").
		Where("id = ?", id).
		First(&issue).Error
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

// ListByUserAndStatuses lists a user's issues filtered by status set
func (r *issueRepository) ListByUserAndStatuses(ctx context.Context, userID uint, statuses []string) ([]*models.Issue, error) {
	var issues []*models.Issue
	err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("User").
		Where("user_id = ? AND return_status IN ?", userID, statuses).
		Order("request_date DESC").
		Find(&issues).Error
	if err != nil {
		return nil, err
	}
	return issues, nil
}

// ListByStatus lists all issues in a given status
func (r *issueRepository) ListByStatus(ctx context.Context, status string) ([]*models.Issue, error) {
	var issues []*models.Issue
	err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("User").
		Where("return_status = ?", status).
		Order("request_date ASC").
		Find(&issues).Error
	if err != nil {
		return nil, err
	}
	return issues, nil
}

// HasOpen reports whether the user already has a non-terminal issue for the book
func (r *issueRepository) HasOpen(ctx context.Context, userID, bookID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Issue{}).
		Where("user_id = ? AND book_id = ? AND return_status IN ?",
			userID, bookID, domain.OpenIssueStatuses).
		Count(&count).Error
	return count > 0, err
}

// CountByBookAndStatus counts issues for a book in a given status
func (r *issueRepository) CountByBookAndStatus(ctx context.Context, bookID uint, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Issue{}).
		Where("book_id = ? AND return_status = ?", bookID, status).
		Count(&count).Error
	return count, err
}

// ListIssuedBefore lists currently issued loans whose issue date is older
// than the cutoff (used by the overdue reminder scan)
func (r *issueRepository) ListIssuedBefore(ctx context.Context, cutoff time.Time) ([]*models.Issue, error) {
	var issues []*models.Issue
	err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("User").
		Where("return_status = ? AND issue_date IS NOT NULL AND issue_date < ?",
			domain.IssueIssued, cutoff).
		Order("issue_date ASC").
		Find(&issues).Error
	if err != nil {
		return nil, err
	}
	return issues, nil
}

// Transition moves an issue from one status to another.
// The WHERE clause carries the expected current status, so a stale or
// concurrent transition affects zero rows and fails instead of
// overwriting newer state.
func (r *issueRepository) Transition(ctx context.Context, issueID uint, from, to string) error {
	result := r.db.WithContext(ctx).Model(&models.Issue{}).
		Where("id = ? AND return_status = ?", issueID, from).
		Update("return_status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// ApproveIssue accepts a pending issue request: flips the status to
// issued, stamps the issue date, and decrements the book's available
// copies. Both updates are conditional and share one transaction, so
// two admins accepting at once cannot hand out the same copy twice.
func (r *issueRepository) ApproveIssue(ctx context.Context, issueID, bookID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		result := tx.Model(&models.Issue{}).
			Where("id = ? AND return_status = ?", issueID, domain.IssuePendingIssue).
			Updates(map[string]interface{}{
				"return_status": domain.IssueIssued,
				"issue_date":    now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrInvalidTransition
		}

		result = tx.Model(&models.Book{}).
			Where("id = ? AND copies_available > 0", bookID).
			Update("copies_available", gorm.Expr("copies_available - 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNoCopies
		}

		return nil
	})
}

// ApproveReturn accepts a pending return: flips the status to returned,
// stamps the return date, and increments the book's available copies.
// The increment is capped at total_copies so a double-accept cannot
// inflate availability.
func (r *issueRepository) ApproveReturn(ctx context.Context, issueID, bookID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		result := tx.Model(&models.Issue{}).
			Where("id = ? AND return_status = ?", issueID, domain.IssuePendingReturn).
			Updates(map[string]interface{}{
				"return_status": domain.IssueReturned,
				"return_date":   now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrInvalidTransition
		}

		// Unscoped so returns still close out loans of soft-deleted books
		result = tx.Unscoped().Model(&models.Book{}).
			Where("id = ? AND copies_available < total_copies", bookID).
			Update("copies_available", gorm.Expr("copies_available + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrInvalidTransition
		}

		return nil
	})
}
