package services

import (
	"context"
	"errors"
	"log"

	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/core/domain"

	"gorm.io/gorm"
)

// Circulation errors
var (
	ErrIssueNotFound     = errors.New("issue request not found")
	ErrDuplicateRequest  = errors.New("an open request for this book already exists")
	ErrNoAvailableCopies = errors.New("no copies available for this book")
	ErrNotRequestOwner   = errors.New("issue request belongs to another user")
	ErrInvalidAction     = errors.New("action must be accept or reject")
	ErrRequestNotPending = errors.New("request is not in a pending state")
	ErrBookNotIssued     = errors.New("book is not currently issued to this user")
	ErrRequestNotOpen    = errors.New("request can no longer be cancelled")
)

// IssueService drives the loan lifecycle state machine
type IssueService struct {
	issueRepo repositories.IssueRepository
	bookRepo  repositories.BookRepository
	userRepo  repositories.UserRepository
}

// NewIssueService creates a new issue service
func NewIssueService(
	issueRepo repositories.IssueRepository,
	bookRepo repositories.BookRepository,
	userRepo repositories.UserRepository,
) *IssueService {
	return &IssueService{
		issueRepo: issueRepo,
		bookRepo:  bookRepo,
		userRepo:  userRepo,
	}
}

// MyOrdersOutput splits a user's loans the way the profile page shows
// them: active loans (including those awaiting return approval) and
// requests still waiting for an admin decision.
type MyOrdersOutput struct {
	Issued  []*models.IssueResponse `json:"issued"`
	Pending []*models.IssueResponse `json:"pending"`
}

// RequestIssue creates a pending issue request for a book.
// Availability is only a precondition here; the copy is not reserved
// until an admin accepts the request.
func (s *IssueService) RequestIssue(ctx context.Context, userID, bookID uint) (*models.IssueResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.IsBlocked() {
		return nil, ErrUserBlocked
	}

	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	if book.CopiesAvailable <= 0 {
		return nil, ErrNoAvailableCopies
	}

	open, err := s.issueRepo.HasOpen(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, ErrDuplicateRequest
	}

	issue := &models.Issue{
		BookID: bookID,
		UserID: userID,
		Status: domain.IssuePendingIssue,
	}
	if err := s.issueRepo.Create(ctx, issue); err != nil {
		return nil, err
	}

	log.Printf("✅ Issue requested: user=%d book=%d (request %d)", userID, bookID, issue.ID)
	return s.loadResponse(ctx, issue.ID)
}

// HandleIssueRequest resolves a pending issue request. Accepting hands
// out a copy atomically; the decrement and the status flip either both
// happen or neither does.
func (s *IssueService) HandleIssueRequest(ctx context.Context, requestID uint, action string) (*models.IssueResponse, error) {
	issue, err := s.getIssue(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if issue.Status != domain.IssuePendingIssue {
		return nil, ErrRequestNotPending
	}

	switch action {
	case domain.ActionAccept:
		if err := s.issueRepo.ApproveIssue(ctx, requestID, issue.BookID); err != nil {
			if errors.Is(err, domain.ErrNoCopies) {
				return nil, ErrNoAvailableCopies
			}
			if errors.Is(err, domain.ErrInvalidTransition) {
				return nil, ErrRequestNotPending
			}
			return nil, err
		}
		log.Printf("✅ Issue request %d accepted", requestID)

	case domain.ActionReject:
		if err := s.issueRepo.Transition(ctx, requestID, domain.IssuePendingIssue, domain.IssueRejected); err != nil {
			if errors.Is(err, domain.ErrInvalidTransition) {
				return nil, ErrRequestNotPending
			}
			return nil, err
		}
		log.Printf("✅ Issue request %d rejected", requestID)

	default:
		return nil, ErrInvalidAction
	}

	return s.loadResponse(ctx, requestID)
}

// RequestReturn marks an issued book as awaiting return approval. The
// copy stays unavailable until an admin confirms the return.
func (s *IssueService) RequestReturn(ctx context.Context, userID, issueID uint) (*models.IssueResponse, error) {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.UserID != userID {
		return nil, ErrNotRequestOwner
	}
	if issue.Status != domain.IssueIssued {
		return nil, ErrBookNotIssued
	}

	if err := s.issueRepo.Transition(ctx, issueID, domain.IssueIssued, domain.IssuePendingReturn); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return nil, ErrBookNotIssued
		}
		return nil, err
	}

	log.Printf("✅ Return requested: issue=%d user=%d", issueID, userID)
	return s.loadResponse(ctx, issueID)
}

// HandleReturnRequest resolves a pending return. Accepting restores
// the copy and closes the loan in one transaction. Rejecting puts the
// book back in the borrower's hands.
func (s *IssueService) HandleReturnRequest(ctx context.Context, requestID uint, action string) (*models.IssueResponse, error) {
	issue, err := s.getIssue(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if issue.Status != domain.IssuePendingReturn {
		return nil, ErrRequestNotPending
	}

	switch action {
	case domain.ActionAccept:
		if err := s.issueRepo.ApproveReturn(ctx, requestID, issue.BookID); err != nil {
			if errors.Is(err, domain.ErrInvalidTransition) {
				return nil, ErrRequestNotPending
			}
			return nil, err
		}
		log.Printf("✅ Return request %d accepted", requestID)

	case domain.ActionReject:
		if err := s.issueRepo.Transition(ctx, requestID, domain.IssuePendingReturn, domain.IssueIssued); err != nil {
			if errors.Is(err, domain.ErrInvalidTransition) {
				return nil, ErrRequestNotPending
			}
			return nil, err
		}
		log.Printf("✅ Return request %d rejected, loan stays active", requestID)

	default:
		return nil, ErrInvalidAction
	}

	return s.loadResponse(ctx, requestID)
}

// CancelRequest lets a user withdraw their own issue request while it
// is still pending. Issued loans cannot be cancelled, only returned.
func (s *IssueService) CancelRequest(ctx context.Context, userID, issueID uint) (*models.IssueResponse, error) {
	issue, err := s.getIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.UserID != userID {
		return nil, ErrNotRequestOwner
	}
	if issue.Status != domain.IssuePendingIssue {
		return nil, ErrRequestNotOpen
	}

	if err := s.issueRepo.Transition(ctx, issueID, domain.IssuePendingIssue, domain.IssueCancelled); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return nil, ErrRequestNotOpen
		}
		return nil, err
	}

	log.Printf("✅ Issue request %d cancelled by user %d", issueID, userID)
	return s.loadResponse(ctx, issueID)
}

// MyOrders returns the caller's loans split into issued and pending
func (s *IssueService) MyOrders(ctx context.Context, userID uint) (*MyOrdersOutput, error) {
	issued, err := s.issueRepo.ListByUserAndStatuses(ctx, userID,
		[]string{domain.IssueIssued, domain.IssuePendingReturn})
	if err != nil {
		return nil, err
	}

	pending, err := s.issueRepo.ListByUserAndStatuses(ctx, userID,
		[]string{domain.IssuePendingIssue})
	if err != nil {
		return nil, err
	}

	return &MyOrdersOutput{
		Issued:  toResponses(issued),
		Pending: toResponses(pending),
	}, nil
}

// ListPendingIssues lists all requests waiting for issue approval
func (s *IssueService) ListPendingIssues(ctx context.Context) ([]*models.IssueResponse, error) {
	issues, err := s.issueRepo.ListByStatus(ctx, domain.IssuePendingIssue)
	if err != nil {
		return nil, err
	}
	return toResponses(issues), nil
}

// ListPendingReturns lists all loans waiting for return approval
func (s *IssueService) ListPendingReturns(ctx context.Context) ([]*models.IssueResponse, error) {
	issues, err := s.issueRepo.ListByStatus(ctx, domain.IssuePendingReturn)
	if err != nil {
		return nil, err
	}
	return toResponses(issues), nil
}

// History lists a user's closed loans and resolved requests
func (s *IssueService) History(ctx context.Context, userID uint) ([]*models.IssueResponse, error) {
	issues, err := s.issueRepo.ListByUserAndStatuses(ctx, userID, domain.TerminalIssueStatuses)
	if err != nil {
		return nil, err
	}
	return toResponses(issues), nil
}

func (s *IssueService) getIssue(ctx context.Context, id uint) (*models.Issue, error) {
	issue, err := s.issueRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIssueNotFound
		}
		return nil, err
	}
	return issue, nil
}

func (s *IssueService) loadResponse(ctx context.Context, id uint) (*models.IssueResponse, error) {
	issue, err := s.issueRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return issue.ToResponse(), nil
}

func toResponses(issues []*models.Issue) []*models.IssueResponse {
	responses := make([]*models.IssueResponse, 0, len(issues))
	for _, issue := range issues {
		responses = append(responses, issue.ToResponse())
	}
	return responses
}
