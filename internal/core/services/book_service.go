package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/core/domain"

	"gorm.io/gorm"
)

// Book errors
var (
	ErrBookNotFound     = errors.New("book not found")
	ErrInvalidBookInput = errors.New("invalid book input")
	ErrCopiesBelowLoans = errors.New("total copies cannot be lower than currently loaned copies")
)

// BookService handles catalog business logic
type BookService struct {
	bookRepo  repositories.BookRepository
	issueRepo repositories.IssueRepository
}

// NewBookService creates a new book service
func NewBookService(bookRepo repositories.BookRepository, issueRepo repositories.IssueRepository) *BookService {
	return &BookService{
		bookRepo:  bookRepo,
		issueRepo: issueRepo,
	}
}

// CreateBookInput represents book creation input
type CreateBookInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Author      string `json:"author" validate:"required,max=150"`
	Category    string `json:"category" validate:"required,max=100"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	PDFURL      string `json:"book_pdf_url"`
	TotalCopies int    `json:"copies" validate:"min=0"`
}

// UpdateBookInput represents a partial book update. Nil fields are
// left untouched.
type UpdateBookInput struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	PDFURL      *string `json:"book_pdf_url"`
}

// List returns the catalog. When viewerID is non-zero, each book also
// carries a display status derived from that viewer's open loans. The
// status is computed per request and never stored.
func (s *BookService) List(ctx context.Context, viewerID uint) ([]*models.BookResponse, error) {
	books, err := s.bookRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	var openByBook map[uint]string
	if viewerID != 0 {
		issues, err := s.issueRepo.ListByUserAndStatuses(ctx, viewerID, domain.OpenIssueStatuses)
		if err != nil {
			return nil, err
		}
		openByBook = make(map[uint]string, len(issues))
		for _, issue := range issues {
			openByBook[issue.BookID] = issue.Status
		}
	}

	responses := make([]*models.BookResponse, 0, len(books))
	for _, book := range books {
		resp := book.ToResponse()
		if viewerID != 0 {
			resp.DisplayStatus = displayStatus(book, openByBook[book.ID])
		}
		responses = append(responses, resp)
	}

	return responses, nil
}

// displayStatus derives the viewer-facing status of a book. The
// viewer's own open loan wins over raw availability.
func displayStatus(book *models.Book, openStatus string) string {
	switch openStatus {
	case domain.IssuePendingIssue:
		return domain.DisplayPendingIssue
	case domain.IssueIssued, domain.IssuePendingReturn:
		return domain.DisplayIssued
	}
	if book.CopiesAvailable > 0 {
		return domain.DisplayAvailable
	}
	return domain.DisplayUnavailable
}

// GetByID gets a single book
func (s *BookService) GetByID(ctx context.Context, id uint) (*models.BookResponse, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return book.ToResponse(), nil
}

// Create adds a new book to the catalog. Available copies start equal
// to total copies.
func (s *BookService) Create(ctx context.Context, input *CreateBookInput) (*models.BookResponse, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Author = strings.TrimSpace(input.Author)
	input.Category = strings.TrimSpace(input.Category)

	if input.Title == "" || input.Author == "" || input.Category == "" {
		return nil, ErrInvalidBookInput
	}
	if input.TotalCopies < 0 {
		return nil, ErrInvalidBookInput
	}

	book := &models.Book{
		Title:           input.Title,
		Author:          input.Author,
		Category:        input.Category,
		Description:     input.Description,
		ImageURL:        input.ImageURL,
		PDFURL:          input.PDFURL,
		TotalCopies:     input.TotalCopies,
		CopiesAvailable: input.TotalCopies,
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, err
	}

	log.Printf("✅ Book created: %s (ID: %d)", book.Title, book.ID)
	return book.ToResponse(), nil
}

// Update applies a partial update to book metadata
func (s *BookService) Update(ctx context.Context, id uint, input *UpdateBookInput) (*models.BookResponse, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	fields := map[string]interface{}{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrInvalidBookInput
		}
		fields["title"] = title
	}
	if input.Author != nil {
		author := strings.TrimSpace(*input.Author)
		if author == "" {
			return nil, ErrInvalidBookInput
		}
		fields["author"] = author
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			return nil, ErrInvalidBookInput
		}
		fields["category"] = category
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.PDFURL != nil {
		fields["pdf_url"] = *input.PDFURL
	}

	if len(fields) == 0 {
		return book.ToResponse(), nil
	}

	if err := s.bookRepo.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// UpdateCopies changes the total copy count. Available copies are
// recomputed as total minus currently loaned out copies, so stock
// adjustments never orphan an active loan.
func (s *BookService) UpdateCopies(ctx context.Context, id uint, totalCopies int) (*models.BookResponse, error) {
	if totalCopies < 0 {
		return nil, ErrInvalidBookInput
	}

	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	loaned := book.TotalCopies - book.CopiesAvailable
	if totalCopies < loaned {
		return nil, ErrCopiesBelowLoans
	}

	if err := s.bookRepo.SetCopies(ctx, id, totalCopies, totalCopies-loaned); err != nil {
		return nil, err
	}

	log.Printf("✅ Book %d copies updated: total=%d", id, totalCopies)
	return s.GetByID(ctx, id)
}

// UpdateImage stores the new cover image URL for a book
func (s *BookService) UpdateImage(ctx context.Context, id uint, imageURL string) (*models.BookResponse, error) {
	if _, err := s.bookRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	if err := s.bookRepo.UpdateFields(ctx, id, map[string]interface{}{"image_url": imageURL}); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// Delete removes a book from the catalog. Existing issue records keep
// their denormalized history.
func (s *BookService) Delete(ctx context.Context, id uint) error {
	if _, err := s.bookRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFound
		}
		return err
	}

	if err := s.bookRepo.Delete(ctx, id); err != nil {
		return err
	}

	log.Printf("✅ Book deleted (ID: %d)", id)
	return nil
}
