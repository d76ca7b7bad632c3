package models

import (
	"time"

	"openshelf/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Accounts
// ============================================================

// User represents users table
type User struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Username          string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email             string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password          string         `gorm:"size:255;not null" json:"-"`
	Role              string         `gorm:"size:20;default:'student'" json:"role"`
	AccountStatus     string         `gorm:"size:20;default:'active'" json:"account_status"`
	ProfilePictureURL string         `gorm:"size:255" json:"profile_picture_url"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsBlocked() bool {
	return u.AccountStatus == domain.AccountBlocked
}

func (u *User) IsAdmin() bool {
	return u.Role == string(domain.RoleAdmin)
}

// UserResponse DTO
type UserResponse struct {
	ID                uint      `json:"user_id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	Role              string    `json:"role"`
	AccountStatus     string    `json:"account_status"`
	ProfilePictureURL string    `json:"profile_picture_url"`
	CreatedAt         time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		Role:              u.Role,
		AccountStatus:     u.AccountStatus,
		ProfilePictureURL: u.ProfilePictureURL,
		CreatedAt:         u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Catalog
// ============================================================

// Book represents books table.
// Invariant: 0 <= copies_available <= total_copies.
type Book struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Title           string         `gorm:"size:200;not null;index" json:"title"`
	Author          string         `gorm:"size:150;not null" json:"author"`
	Category        string         `gorm:"size:100;index" json:"category"`
	Description     string         `gorm:"type:text" json:"description"`
	ImageURL        string         `gorm:"size:255" json:"image_url"`
	PDFURL          string         `gorm:"size:255" json:"book_pdf_url"`
	TotalCopies     int            `gorm:"not null;default:0" json:"copies"`
	CopiesAvailable int            `gorm:"not null;default:0" json:"available_copies"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Book) TableName() string {
	return "books"
}

// BookResponse DTO. DisplayStatus is viewer-relative and computed per request.
type BookResponse struct {
	ID              uint   `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	Category        string `json:"category"`
	Description     string `json:"description"`
	ImageURL        string `json:"image_url"`
	PDFURL          string `json:"book_pdf_url"`
	TotalCopies     int    `json:"copies"`
	CopiesAvailable int    `json:"available_copies"`
	DisplayStatus   string `json:"display_status,omitempty"`
}

func (b *Book) ToResponse() *BookResponse {
	return &BookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		Category:        b.Category,
		Description:     b.Description,
		ImageURL:        b.ImageURL,
		PDFURL:          b.PDFURL,
		TotalCopies:     b.TotalCopies,
		CopiesAvailable: b.CopiesAvailable,
	}
}

// ============================================================
// Circulation
// ============================================================

// Issue represents one loan transaction linking a user and a book copy.
// Records are never deleted; terminal rows form the return-history ledger.
type Issue struct {
	ID          uint       `gorm:"primaryKey" json:"issue_id"`
	BookID      uint       `gorm:"index;not null" json:"book_id"`
	UserID      uint       `gorm:"index;not null" json:"user_id"`
	RequestDate time.Time  `gorm:"autoCreateTime" json:"request_date"`
	IssueDate   *time.Time `json:"issue_date"`
	ReturnDate  *time.Time `json:"return_date"`
	Status      string     `gorm:"column:return_status;size:20;not null;default:'pending_issue';index" json:"return_status"`

	// Relations
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Issue) TableName() string {
	return "issues"
}

func (i *Issue) IsTerminal() bool {
	return domain.IsTerminalIssueStatus(i.Status)
}

// IssueResponse DTO with denormalized book/user fields for list views
type IssueResponse struct {
	ID          uint       `json:"issue_id"`
	BookID      uint       `json:"book_id"`
	UserID      uint       `json:"user_id"`
	Username    string     `json:"username,omitempty"`
	Title       string     `json:"title,omitempty"`
	Author      string     `json:"author,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	RequestDate time.Time  `json:"request_date"`
	IssueDate   *time.Time `json:"issue_date,omitempty"`
	ReturnDate  *time.Time `json:"return_date,omitempty"`
	Status      string     `json:"return_status"`
}

func (i *Issue) ToResponse() *IssueResponse {
	resp := &IssueResponse{
		ID:          i.ID,
		BookID:      i.BookID,
		UserID:      i.UserID,
		RequestDate: i.RequestDate,
		IssueDate:   i.IssueDate,
		ReturnDate:  i.ReturnDate,
		Status:      i.Status,
	}

	if i.Book != nil {
		resp.Title = i.Book.Title
		resp.Author = i.Book.Author
		resp.ImageURL = i.Book.ImageURL
	}
	if i.User != nil {
		resp.Username = i.User.Username
	}

	return resp
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Book{},
		&Issue{},
	)
}
