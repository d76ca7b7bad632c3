package services

import (
	"context"
	"log"
	"time"

	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/core/domain"

	"github.com/robfig/cron/v3"
)

// ReminderService runs a daily scan for overdue loans. Loans issued
// more than the loan period ago are logged so staff can follow up.
type ReminderService struct {
	issueRepo repositories.IssueRepository
	cron      *cron.Cron
}

// NewReminderService creates a new reminder service
func NewReminderService(issueRepo repositories.IssueRepository) *ReminderService {
	return &ReminderService{
		issueRepo: issueRepo,
		cron:      cron.New(),
	}
}

// Start schedules the daily overdue scan at 08:00 server time
func (s *ReminderService) Start() error {
	_, err := s.cron.AddFunc("0 8 * * *", s.runOverdueScan)
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Println("✅ Overdue reminder scheduler started (daily 08:00)")
	return nil
}

// Stop stops the scheduler and waits for a running scan to finish
func (s *ReminderService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 Overdue reminder scheduler stopped")
}

// runOverdueScan logs every loan past its due date
func (s *ReminderService) runOverdueScan() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -domain.LoanPeriodDays)
	overdue, err := s.issueRepo.ListIssuedBefore(ctx, cutoff)
	if err != nil {
		log.Printf("❌ Overdue scan failed: %v", err)
		return
	}

	if len(overdue) == 0 {
		log.Println("✅ Overdue scan: no overdue loans")
		return
	}

	log.Printf("⚠️ Overdue scan: %d loans past due", len(overdue))
	for _, issue := range overdue {
		dueDate := issue.IssueDate.AddDate(0, 0, domain.LoanPeriodDays)
		log.Printf("⚠️ Overdue: issue=%d user=%d book=%d due=%s",
			issue.ID, issue.UserID, issue.BookID, dueDate.Format("2006-01-02"))
	}
}
