package handlers

import (
	"errors"

	"openshelf/internal/config"
	"openshelf/internal/core/services"
	"openshelf/internal/pkg/pagination"
	"openshelf/internal/pkg/response"
	"openshelf/internal/pkg/upload"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user management endpoints
type UserHandler struct {
	userService *services.UserService
	cfg         *config.Config
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, cfg *config.Config) *UserHandler {
	return &UserHandler{
		userService: userService,
		cfg:         cfg,
	}
}

// UpdateStatusRequest represents account status change request body
type UpdateStatusRequest struct {
	UserID uint   `json:"userId"`
	Status string `json:"status"`
}

// ListUsers lists student accounts
// @Summary List users
// @Description List student accounts with pagination (admin only)
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	result, err := h.userService.ListStudents(c.Context(), params)
	if err != nil {
		return response.InternalServerError(c, "Failed to list users")
	}

	return response.Success(c, "Users retrieved successfully", fiber.Map{
		"users": result.Users,
		"meta":  result.Meta,
	})
}

// UpdateStatus blocks or unblocks a student account
// @Summary Update account status
// @Description Block or unblock a student account (admin only)
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateStatusRequest true "Status change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/status [post]
func (h *UserHandler) UpdateStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UserID == 0 {
		return response.BadRequest(c, "User ID is required")
	}
	if req.Status == "" {
		return response.BadRequest(c, "Status is required")
	}

	user, err := h.userService.SetAccountStatus(c.Context(), req.UserID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStatus):
			return response.BadRequest(c, "Status must be active or blocked")
		case errors.Is(err, services.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, services.ErrCannotModifyAdmin):
			return response.Forbidden(c, "Cannot modify an admin account")
		default:
			return response.InternalServerError(c, "Failed to update account status")
		}
	}

	return response.Success(c, "Account status updated", fiber.Map{
		"user": user,
	})
}

// DeleteUser removes a student account
// @Summary Delete user
// @Description Delete a student account (admin only)
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID <= 0 {
		return response.BadRequest(c, "Invalid user ID")
	}

	actorID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.userService.DeleteUser(c.Context(), uint(userID), actorID); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, services.ErrCannotModifyAdmin):
			return response.Forbidden(c, "Cannot delete an admin account")
		case errors.Is(err, services.ErrCannotDeleteSelf):
			return response.BadRequest(c, "Cannot delete your own account")
		default:
			return response.InternalServerError(c, "Failed to delete user")
		}
	}

	return response.Success(c, "User deleted successfully", nil)
}

// UpdateProfilePicture uploads a new profile picture for the caller
// @Summary Update profile picture
// @Description Upload a new profile picture for the authenticated user
// @Tags Users
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Profile picture"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /user/update-profile-picture [post]
func (h *UserHandler) UpdateProfilePicture(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return response.BadRequest(c, "Image file is required")
	}

	imageURL, err := upload.SaveImage(c, file, h.cfg.Upload.Dir, "profile")
	if err != nil {
		if errors.Is(err, upload.ErrUnsupportedType) {
			return response.BadRequest(c, "Unsupported image type")
		}
		if errors.Is(err, upload.ErrFileTooLarge) {
			return response.BadRequest(c, "Image exceeds maximum size")
		}
		return response.InternalServerError(c, "Failed to save image")
	}

	user, err := h.userService.UpdateProfilePicture(c.Context(), userID, imageURL)
	if err != nil {
		return response.InternalServerError(c, "Failed to update profile picture")
	}

	return response.Success(c, "Profile picture updated", fiber.Map{
		"user": user,
	})
}
