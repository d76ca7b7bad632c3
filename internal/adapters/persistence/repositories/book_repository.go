package repositories

import (
	"context"

	"openshelf/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// bookRepository implements BookRepository interface
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

// Create creates a new book
func (r *bookRepository) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// GetByID gets a book by ID
func (r *bookRepository) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Update updates a book
func (r *bookRepository) Update(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Save(book).Error
}

// UpdateFields updates only the given columns
func (r *bookRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Book{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// SetCopies sets both copy counters in one update
func (r *bookRepository) SetCopies(ctx context.Context, id uint, total, available int) error {
	return r.db.WithContext(ctx).Model(&models.Book{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_copies":     total,
			"copies_available": available,
		}).Error
}

// Delete soft deletes a book
func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Book{}, id).Error
}

// List returns the full catalog, newest first
func (r *bookRepository) List(ctx context.Context) ([]*models.Book, error) {
	var books []*models.Book
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&books).Error
	if err != nil {
		return nil, err
	}
	return books, nil
}
