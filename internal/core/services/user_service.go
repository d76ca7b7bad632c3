package services

import (
	"context"
	"errors"
	"log"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/core/domain"
	"openshelf/internal/pkg/pagination"

	"gorm.io/gorm"
)

// User management errors
var (
	ErrInvalidStatus     = errors.New("invalid account status")
	ErrCannotModifyAdmin = errors.New("cannot modify an admin account")
	ErrCannotDeleteSelf  = errors.New("cannot delete your own account")
)

// UserService handles user management business logic
type UserService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
) *UserService {
	return &UserService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
	}
}

// UserListOutput represents a paginated user listing
type UserListOutput struct {
	Users []*models.UserResponse `json:"users"`
	Meta  *pagination.Meta       `json:"meta"`
}

// ListStudents lists student accounts with pagination. Admin accounts
// are not part of the roster the admin UI manages.
func (s *UserService) ListStudents(ctx context.Context, params *pagination.Params) (*UserListOutput, error) {
	users, total, err := s.userRepo.ListByRole(ctx, string(domain.RoleStudent), params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, u.ToResponse())
	}

	return &UserListOutput{
		Users: responses,
		Meta:  pagination.GetMeta(params, total),
	}, nil
}

// SetAccountStatus blocks or unblocks a student account. Blocking also
// revokes every active session, so a blocked user cannot keep acting on
// an already issued refresh token.
func (s *UserService) SetAccountStatus(ctx context.Context, userID uint, status string) (*models.UserResponse, error) {
	if status != domain.AccountActive && status != domain.AccountBlocked {
		return nil, ErrInvalidStatus
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if user.IsAdmin() {
		return nil, ErrCannotModifyAdmin
	}

	user.AccountStatus = status
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if status == domain.AccountBlocked {
		if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
			log.Printf("⚠️ Failed to revoke sessions for blocked user %d: %v", userID, err)
		}
	}

	log.Printf("✅ User %s account status set to %s", user.Username, status)
	return user.ToResponse(), nil
}

// DeleteUser removes a student account and revokes its sessions
func (s *UserService) DeleteUser(ctx context.Context, userID, actorID uint) error {
	if userID == actorID {
		return ErrCannotDeleteSelf
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if user.IsAdmin() {
		return ErrCannotModifyAdmin
	}

	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}

	log.Printf("✅ User deleted: %s (ID: %d)", user.Username, userID)
	return nil
}

// UpdateProfilePicture stores the new profile picture URL for a user
func (s *UserService) UpdateProfilePicture(ctx context.Context, userID uint, imageURL string) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user.ProfilePictureURL = imageURL
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user.ToResponse(), nil
}
