package handlers

import (
	"errors"

	"openshelf/internal/core/services"
	"openshelf/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// IssueHandler handles loan lifecycle endpoints
type IssueHandler struct {
	issueService *services.IssueService
}

// NewIssueHandler creates a new issue handler
func NewIssueHandler(issueService *services.IssueService) *IssueHandler {
	return &IssueHandler{issueService: issueService}
}

// RequestIssueRequest represents an issue request body
type RequestIssueRequest struct {
	BookID uint `json:"bookId"`
}

// HandleRequestRequest represents an admin decision body
type HandleRequestRequest struct {
	RequestID uint   `json:"requestId"`
	Action    string `json:"action"`
}

// ReturnBookRequest represents a return request body
type ReturnBookRequest struct {
	IssueID uint `json:"issueId"`
}

// CancelRequestRequest represents a cancellation body
type CancelRequestRequest struct {
	IssueID uint `json:"issueId"`
}

// RequestIssue creates a pending issue request for the caller
// @Summary Request book issue
// @Description Request to borrow a book
// @Tags Issues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RequestIssueRequest true "Book to request"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /issue-book [post]
func (h *IssueHandler) RequestIssue(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req RequestIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.BookID == 0 {
		return response.BadRequest(c, "Book ID is required")
	}

	issue, err := h.issueService.RequestIssue(c.Context(), userID, req.BookID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, services.ErrUserBlocked):
			return response.Forbidden(c, "User account is blocked")
		case errors.Is(err, services.ErrNoAvailableCopies):
			return response.Conflict(c, "No copies available for this book")
		case errors.Is(err, services.ErrDuplicateRequest):
			return response.Conflict(c, "An open request for this book already exists")
		default:
			return response.InternalServerError(c, "Failed to create issue request")
		}
	}

	return response.Created(c, "Issue request created", fiber.Map{
		"request": issue,
	})
}

// MyOrders returns the caller's loans split into issued and pending
// @Summary My orders
// @Description List the caller's active loans and pending requests
// @Tags Issues
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /my-orders [get]
func (h *IssueHandler) MyOrders(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	orders, err := h.issueService.MyOrders(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list orders")
	}

	return response.Success(c, "Orders retrieved successfully", fiber.Map{
		"issued":  orders.Issued,
		"pending": orders.Pending,
	})
}

// IssueRequests lists requests waiting for issue approval
// @Summary List issue requests
// @Description List pending issue requests (admin only)
// @Tags Issues
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /issue-requests [get]
func (h *IssueHandler) IssueRequests(c *fiber.Ctx) error {
	requests, err := h.issueService.ListPendingIssues(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list issue requests")
	}

	return response.Success(c, "Issue requests retrieved successfully", fiber.Map{
		"requests": requests,
	})
}

// HandleIssueRequest resolves a pending issue request
// @Summary Handle issue request
// @Description Accept or reject a pending issue request (admin only)
// @Tags Issues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body HandleRequestRequest true "Decision"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /handle-request [post]
func (h *IssueHandler) HandleIssueRequest(c *fiber.Ctx) error {
	var req HandleRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.RequestID == 0 {
		return response.BadRequest(c, "Request ID is required")
	}

	issue, err := h.issueService.HandleIssueRequest(c.Context(), req.RequestID, req.Action)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrIssueNotFound):
			return response.NotFound(c, "Issue request not found")
		case errors.Is(err, services.ErrInvalidAction):
			return response.BadRequest(c, "Action must be accept or reject")
		case errors.Is(err, services.ErrRequestNotPending):
			return response.Conflict(c, "Request is not in a pending state")
		case errors.Is(err, services.ErrNoAvailableCopies):
			return response.Conflict(c, "No copies available for this book")
		default:
			return response.InternalServerError(c, "Failed to handle issue request")
		}
	}

	return response.Success(c, "Issue request handled", fiber.Map{
		"request": issue,
	})
}

// ReturnBook marks an issued book as awaiting return approval
// @Summary Request book return
// @Description Request return of an issued book
// @Tags Issues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ReturnBookRequest true "Loan to return"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /return-book [post]
func (h *IssueHandler) ReturnBook(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req ReturnBookRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.IssueID == 0 {
		return response.BadRequest(c, "Issue ID is required")
	}

	issue, err := h.issueService.RequestReturn(c.Context(), userID, req.IssueID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrIssueNotFound):
			return response.NotFound(c, "Issue request not found")
		case errors.Is(err, services.ErrNotRequestOwner):
			return response.Forbidden(c, "Issue request belongs to another user")
		case errors.Is(err, services.ErrBookNotIssued):
			return response.Conflict(c, "Book is not currently issued")
		default:
			return response.InternalServerError(c, "Failed to request return")
		}
	}

	return response.Success(c, "Return requested", fiber.Map{
		"request": issue,
	})
}

// ReturnRequests lists loans waiting for return approval
// @Summary List return requests
// @Description List pending return requests (admin only)
// @Tags Issues
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /return-requests [get]
func (h *IssueHandler) ReturnRequests(c *fiber.Ctx) error {
	requests, err := h.issueService.ListPendingReturns(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list return requests")
	}

	return response.Success(c, "Return requests retrieved successfully", fiber.Map{
		"requests": requests,
	})
}

// HandleReturn resolves a pending return request
// @Summary Handle return request
// @Description Accept or reject a pending return (admin only)
// @Tags Issues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body HandleRequestRequest true "Decision"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /handle-return [post]
func (h *IssueHandler) HandleReturn(c *fiber.Ctx) error {
	var req HandleRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.RequestID == 0 {
		return response.BadRequest(c, "Request ID is required")
	}

	issue, err := h.issueService.HandleReturnRequest(c.Context(), req.RequestID, req.Action)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrIssueNotFound):
			return response.NotFound(c, "Issue request not found")
		case errors.Is(err, services.ErrInvalidAction):
			return response.BadRequest(c, "Action must be accept or reject")
		case errors.Is(err, services.ErrRequestNotPending):
			return response.Conflict(c, "Request is not in a pending state")
		default:
			return response.InternalServerError(c, "Failed to handle return request")
		}
	}

	return response.Success(c, "Return request handled", fiber.Map{
		"request": issue,
	})
}

// ReturnedBooks lists the caller's closed loans and resolved requests
// @Summary Loan history
// @Description List the caller's returned, rejected and cancelled requests
// @Tags Issues
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /returned-books [get]
func (h *IssueHandler) ReturnedBooks(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	history, err := h.issueService.History(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list returned books")
	}

	return response.Success(c, "History retrieved successfully", fiber.Map{
		"history": history,
	})
}

// CancelRequest withdraws the caller's own pending issue request
// @Summary Cancel issue request
// @Description Cancel a pending issue request
// @Tags Issues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CancelRequestRequest true "Request to cancel"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /cancel-request [post]
func (h *IssueHandler) CancelRequest(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req CancelRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.IssueID == 0 {
		return response.BadRequest(c, "Issue ID is required")
	}

	issue, err := h.issueService.CancelRequest(c.Context(), userID, req.IssueID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrIssueNotFound):
			return response.NotFound(c, "Issue request not found")
		case errors.Is(err, services.ErrNotRequestOwner):
			return response.Forbidden(c, "Issue request belongs to another user")
		case errors.Is(err, services.ErrRequestNotOpen):
			return response.Conflict(c, "Request can no longer be cancelled")
		default:
			return response.InternalServerError(c, "Failed to cancel request")
		}
	}

	return response.Success(c, "Issue request cancelled", fiber.Map{
		"request": issue,
	})
}
