package handlers

import (
	"errors"
	"strconv"

	"openshelf/internal/config"
	"openshelf/internal/core/services"
	"openshelf/internal/pkg/response"
	"openshelf/internal/pkg/upload"

	"github.com/gofiber/fiber/v2"
)

// BookHandler handles catalog endpoints
type BookHandler struct {
	bookService *services.BookService
	cfg         *config.Config
}

// NewBookHandler creates a new book handler
func NewBookHandler(bookService *services.BookService, cfg *config.Config) *BookHandler {
	return &BookHandler{
		bookService: bookService,
		cfg:         cfg,
	}
}

// UpdateCopiesRequest represents a copy count change request body
type UpdateCopiesRequest struct {
	BookID      uint `json:"bookId"`
	TotalCopies int  `json:"totalCopies"`
}

// List returns the catalog
// @Summary List books
// @Description List all books. Authenticated viewers also get a per-book display status.
// @Tags Books
// @Produce json
// @Success 200 {object} response.Response
// @Router /books [get]
func (h *BookHandler) List(c *fiber.Ctx) error {
	// Viewer identity comes from the token when present; the userId
	// query parameter is a fallback for unauthenticated clients.
	var viewerID uint
	if id, ok := c.Locals("userID").(uint); ok {
		viewerID = id
	} else if raw := c.Query("userId"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			viewerID = uint(id)
		}
	}

	books, err := h.bookService.List(c.Context(), viewerID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list books")
	}

	return response.Success(c, "Books retrieved successfully", fiber.Map{
		"books": books,
	})
}

// GetByID returns a single book
// @Summary Get book
// @Description Get a single book by ID
// @Tags Books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id} [get]
func (h *BookHandler) GetByID(c *fiber.Ctx) error {
	bookID, err := c.ParamsInt("id")
	if err != nil || bookID <= 0 {
		return response.BadRequest(c, "Invalid book ID")
	}

	book, err := h.bookService.GetByID(c.Context(), uint(bookID))
	if err != nil {
		if errors.Is(err, services.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to get book")
	}

	return response.Success(c, "Book retrieved successfully", fiber.Map{
		"book": book,
	})
}

// Create adds a new book to the catalog. The form may carry a cover
// image and a PDF URL alongside the metadata.
// @Summary Create book
// @Description Add a new book to the catalog (admin only)
// @Tags Books
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param author formData string true "Author"
// @Param category formData string true "Category"
// @Param description formData string false "Description"
// @Param copies formData int false "Total copies"
// @Param book_pdf_url formData string false "PDF URL"
// @Param image formData file false "Cover image"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /books [post]
func (h *BookHandler) Create(c *fiber.Ctx) error {
	input := &services.CreateBookInput{
		Title:       c.FormValue("title"),
		Author:      c.FormValue("author"),
		Category:    c.FormValue("category"),
		Description: c.FormValue("description"),
		PDFURL:      c.FormValue("book_pdf_url"),
	}

	if raw := c.FormValue("copies"); raw != "" {
		copies, err := strconv.Atoi(raw)
		if err != nil || copies < 0 {
			return response.BadRequest(c, "Copies must be a non-negative number")
		}
		input.TotalCopies = copies
	}

	if file, err := c.FormFile("image"); err == nil && file != nil {
		imageURL, err := upload.SaveImage(c, file, h.cfg.Upload.Dir, "book")
		if err != nil {
			if errors.Is(err, upload.ErrUnsupportedType) {
				return response.BadRequest(c, "Unsupported image type")
			}
			if errors.Is(err, upload.ErrFileTooLarge) {
				return response.BadRequest(c, "Image exceeds maximum size")
			}
			return response.InternalServerError(c, "Failed to save image")
		}
		input.ImageURL = imageURL
	}

	book, err := h.bookService.Create(c.Context(), input)
	if err != nil {
		if errors.Is(err, services.ErrInvalidBookInput) {
			return response.BadRequest(c, "Title, author and category are required")
		}
		return response.InternalServerError(c, "Failed to create book")
	}

	return response.Created(c, "Book created successfully", fiber.Map{
		"book": book,
	})
}

// Update applies a partial metadata update
// @Summary Update book
// @Description Update book metadata (admin only)
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param body body services.UpdateBookInput true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id} [put]
func (h *BookHandler) Update(c *fiber.Ctx) error {
	bookID, err := c.ParamsInt("id")
	if err != nil || bookID <= 0 {
		return response.BadRequest(c, "Invalid book ID")
	}

	var input services.UpdateBookInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	book, err := h.bookService.Update(c.Context(), uint(bookID), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, services.ErrInvalidBookInput):
			return response.BadRequest(c, "Title, author and category cannot be empty")
		default:
			return response.InternalServerError(c, "Failed to update book")
		}
	}

	return response.Success(c, "Book updated successfully", fiber.Map{
		"book": book,
	})
}

// UpdateCopies changes a book's total copy count
// @Summary Update book copies
// @Description Change the total copy count of a book (admin only)
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateCopiesRequest true "New copy count"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/update-copies [post]
func (h *BookHandler) UpdateCopies(c *fiber.Ctx) error {
	var req UpdateCopiesRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.BookID == 0 {
		return response.BadRequest(c, "Book ID is required")
	}

	book, err := h.bookService.UpdateCopies(c.Context(), req.BookID, req.TotalCopies)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, services.ErrInvalidBookInput):
			return response.BadRequest(c, "Copies must be a non-negative number")
		case errors.Is(err, services.ErrCopiesBelowLoans):
			return response.BadRequest(c, "Total copies cannot be lower than currently loaned copies")
		default:
			return response.InternalServerError(c, "Failed to update copies")
		}
	}

	return response.Success(c, "Book copies updated", fiber.Map{
		"book": book,
	})
}

// UpdateImage replaces a book's cover image
// @Summary Update book cover
// @Description Upload a new cover image for a book (admin only)
// @Tags Books
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param bookId formData int true "Book ID"
// @Param image formData file true "Cover image"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /books/update-image [post]
func (h *BookHandler) UpdateImage(c *fiber.Ctx) error {
	bookID, err := strconv.Atoi(c.FormValue("bookId"))
	if err != nil || bookID <= 0 {
		return response.BadRequest(c, "Invalid book ID")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return response.BadRequest(c, "Image file is required")
	}

	imageURL, err := upload.SaveImage(c, file, h.cfg.Upload.Dir, "book")
	if err != nil {
		if errors.Is(err, upload.ErrUnsupportedType) {
			return response.BadRequest(c, "Unsupported image type")
		}
		if errors.Is(err, upload.ErrFileTooLarge) {
			return response.BadRequest(c, "Image exceeds maximum size")
		}
		return response.InternalServerError(c, "Failed to save image")
	}

	book, err := h.bookService.UpdateImage(c.Context(), uint(bookID), imageURL)
	if err != nil {
		if errors.Is(err, services.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to update cover image")
	}

	return response.Success(c, "Book cover updated", fiber.Map{
		"book": book,
	})
}

// Delete removes a book
// @Summary Delete book
// @Description Remove a book from the catalog (admin only)
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id} [delete]
func (h *BookHandler) Delete(c *fiber.Ctx) error {
	bookID, err := c.ParamsInt("id")
	if err != nil || bookID <= 0 {
		return response.BadRequest(c, "Invalid book ID")
	}

	if err := h.bookService.Delete(c.Context(), uint(bookID)); err != nil {
		if errors.Is(err, services.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to delete book")
	}

	return response.Success(c, "Book deleted successfully", nil)
}
