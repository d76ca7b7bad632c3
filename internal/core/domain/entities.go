package domain

// Role represents user role in the system
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Account status values
const (
	AccountActive  = "active"
	AccountBlocked = "blocked"
)

// Issue lifecycle statuses
const (
	IssuePendingIssue  = "pending_issue"
	IssueIssued        = "issued"
	IssuePendingReturn = "pending_return"
	IssueReturned      = "returned"
	IssueRejected      = "rejected"
	IssueCancelled     = "cancelled"
)

// IsTerminalIssueStatus reports whether an issue can no longer change state
func IsTerminalIssueStatus(status string) bool {
	switch status {
	case IssueReturned, IssueRejected, IssueCancelled:
		return true
	}
	return false
}

// OpenIssueStatuses are the non-terminal issue states
var OpenIssueStatuses = []string{IssuePendingIssue, IssueIssued, IssuePendingReturn}

// TerminalIssueStatuses form the return-history ledger
var TerminalIssueStatuses = []string{IssueReturned, IssueRejected, IssueCancelled}

// Viewer-relative display status of a book (derived, never persisted)
const (
	DisplayAvailable    = "available"
	DisplayPendingIssue = "pending_issue"
	DisplayIssued       = "issued"
	DisplayUnavailable  = "unavailable"
)

// Admin decision on a pending request
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// LoanPeriodDays is the standard loan period, used for due-date reminders
const LoanPeriodDays = 14
