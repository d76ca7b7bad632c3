package services

import (
	"context"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/core/domain"

	"gorm.io/gorm"
)

// DashboardService aggregates admin dashboard counters. It queries the
// database directly since the numbers span several tables.
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// DashboardStats represents admin dashboard counters
type DashboardStats struct {
	TotalStudents   int64 `json:"total_students"`
	BlockedStudents int64 `json:"blocked_students"`
	TotalBooks      int64 `json:"total_books"`
	TotalCopies     int64 `json:"total_copies"`
	AvailableCopies int64 `json:"available_copies"`
	ActiveLoans     int64 `json:"active_loans"`
	PendingIssues   int64 `json:"pending_issues"`
	PendingReturns  int64 `json:"pending_returns"`
}

// GetStats collects the dashboard counters
func (s *DashboardService) GetStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.User{}).
		Where("role = ?", domain.RoleStudent).
		Count(&stats.TotalStudents).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.User{}).
		Where("role = ? AND account_status = ?", domain.RoleStudent, domain.AccountBlocked).
		Count(&stats.BlockedStudents).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.Book{}).Count(&stats.TotalBooks).Error; err != nil {
		return nil, err
	}

	type copySums struct {
		Total     int64
		Available int64
	}
	var sums copySums
	if err := db.Model(&models.Book{}).
		Select("COALESCE(SUM(total_copies), 0) AS total, COALESCE(SUM(copies_available), 0) AS available").
		Scan(&sums).Error; err != nil {
		return nil, err
	}
	stats.TotalCopies = sums.Total
	stats.AvailableCopies = sums.Available

	if err := db.Model(&models.Issue{}).
		Where("return_status IN ?", []string{domain.IssueIssued, domain.IssuePendingReturn}).
		Count(&stats.ActiveLoans).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.Issue{}).
		Where("return_status = ?", domain.IssuePendingIssue).
		Count(&stats.PendingIssues).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.Issue{}).
		Where("return_status = ?", domain.IssuePendingReturn).
		Count(&stats.PendingReturns).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
