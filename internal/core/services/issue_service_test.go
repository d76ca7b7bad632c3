package services

import (
	"context"
	"testing"

	"openshelf/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIssue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	student := env.createStudent(t, "alice")
	book := env.createBook(t, "Dune", 2)

	resp, err := env.issues.RequestIssue(ctx, student.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IssuePendingIssue, resp.Status)
	assert.Equal(t, book.ID, resp.BookID)
	assert.Equal(t, student.ID, resp.UserID)
	assert.Nil(t, resp.IssueDate)

	// Requesting does not reserve a copy
	assert.Equal(t, 2, env.bookByID(t, book.ID).CopiesAvailable)
}

func TestRequestIssueBookNotFound(t *testing.T) {
	env := newTestEnv(t)
	student := env.createStudent(t, "alice")

	_, err := env.issues.RequestIssue(context.Background(), student.ID, 9999)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestRequestIssueNoCopies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	student := env.createStudent(t, "alice")
	book := env.createBook(t, "Dune", 0)

	_, err := env.issues.RequestIssue(ctx, student.ID, book.ID)
	assert.ErrorIs(t, err, ErrNoAvailableCopies)

	// No issue record was created
	pending, err := env.issues.ListPendingIssues(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRequestIssueDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	student := env.createStudent(t, "alice")
	book := env.createBook(t, "Dune", 3)

	_, err := env.issues.RequestIssue(ctx, student.ID, book.ID)
	require.NoError(t, err)

	_, err = env.issues.RequestIssue(ctx, student.ID, book.ID)
	assert.ErrorIs(t, err, ErrDuplicateRequest)
}

func TestRequestIssueAfterReturnAllowed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	student := env.createStudent(t, "alice")
	book := env.createBook(t, "Dune", 1)

	first, err := env.issues.RequestIssue(ctx, student.ID, book.ID)
	require.NoError(t, err)

	_, err = env.issues.HandleIssueRequest(ctx, first.ID, domain.ActionAccept)
	require.NoError(t, err)
	_, err = env.issues.RequestReturn(ctx, student.ID, first.ID)
	require.NoError(t, err)
	_, err = env.issues.HandleReturnRequest(ctx, first.ID, domain.ActionAccept)
	require.NoError(t, err)

	// The loan is closed, so a fresh request is allowed
	_, err = env.issues.RequestIssue(ctx, student.ID, book.ID)
	assert.NoError(t, err)
}

func TestRequestIssueBlockedUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	student := env.createStudent(t, "alice")
	book := env.createBook(t, "Dune", 1)

	_, err := env.users.SetAccountStatus(ctx, student.ID, domain.AccountBlocked)
	require.NoError(t, err)

	_, err = env.issues.RequestIssue(ctx, student.ID, book.ID)
	assert.ErrorIs(t, err, ErrUserBlocked)
}

func TestHandleIssueRequestAccept(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	student := env.createStudent(t, "alice")
	book := env.createBook(t, "Dune", 2)

	req, err := env.issues.RequestIssue(ctx, student.ID, book.ID)
	require.NoError(t, err)

	resp, err := env.issues.HandleIssueRequest(ctx, req.ID, domain.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, domain.IssueIssued, resp.Status)
	assert.NotNil(t, resp.IssueDate)

	assert.Equal(t, 1, env.bookByID(t, book.ID).CopiesAvailable)
}

func TestHandleIssueRequestAcceptTwice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	student := env.createStudent(t, "alice")
	book := env.createBook(t, "Dune", 2)

	req, err := env.issues.RequestIssue(ctx, student.ID, book.ID)
	require.NoError(t, err)

	_, err = env.issues.HandleIssueRequest(ctx, req.ID, domain.ActionAccept)
	require.NoError(t, err)

	// The second accept is a stale decision and must not touch copies
	_, err = env.issues.HandleIssueRequest(ctx, req.ID, domain.ActionAccept)
	assert.ErrorIs(t, err, ErrRequestNotPending)
	assert.Equal(t, 1, env.bookByID(t, book.ID).CopiesAvailable)
}

func TestHandleIssueRequestReject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	student := env.createStudent(t, "alice")
	book := env.createBook(t, "Dune", 2)

	req, err := env.issues.RequestIssue(ctx, student.ID, book.ID)
	require.NoError(t, err)

	resp, err := env.issues.HandleIssueRequest(ctx, req.ID, domain.ActionReject)
	require.NoError(t, err)
	assert.Equal(t, domain.IssueRejected, resp.Status)
	assert.Nil(t, resp.IssueDate)

	// Rejection never touches availability
	assert.Equal(t, 2, env.bookByID(t, book.ID).CopiesAvailable)
}

func TestHandleIssueRequestInvalidAction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	student := env.createStudent(t, "alice")
	book := env.createBook(t, "Dune", 1)

	req, err := env.issues.RequestIssue(ctx, student.ID, book.ID)
	require.NoError(t, err)

	_, err = env.issues.HandleIssueRequest(ctx, req.ID, "approve")
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestAcceptFailsWhenCopiesRanOut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	book := env.createBook(t, "Dune", 2)
	alice := env.createStudent(t, "alice")
	bob := env.createStudent(t, "bob")
	carol := env.createStudent(t, "carol")

	reqA, err := env.issues.RequestIssue(ctx, alice.ID, book.ID)
	require.NoError(t, err)
	reqB, err := env.issues.RequestIssue(ctx, bob.ID, book.ID)
	require.NoError(t, err)
	reqC, err := env.issues.RequestIssue(ctx, carol.ID, book.ID)
	require.NoError(t, err)

	_, err = env.issues.HandleIssueRequest(ctx, reqA.ID, domain.ActionAccept)
	require.NoError(t, err)
	_, err = env.issues.HandleIssueRequest(ctx, reqB.ID, domain.ActionAccept)
	require.NoError(t, err)

	// Both copies are out. The third accept rolls back entirely.
	_, err = env.issues.HandleIssueRequest(ctx, reqC.ID, domain.ActionAccept)
	assert.ErrorIs(t, err, ErrNoAvailableCopies)

	assert.Equal(t, 0, env.bookByID(t, book.ID).CopiesAvailable)
	assert.Equal(t, domain.IssuePendingIssue, env.issueByID(t, reqC.ID).Status)
}

func TestReturnFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	student := env.createStudent(t, "alice")
	book := env.createBook(t, "Dune", 1)

	req, err := env.issues.RequestIssue(ctx, student.ID, book.ID)
	require.NoError(t, err)
	_, err = env.issues.HandleIssueRequest(ctx, req.ID, domain.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, 0, env.bookByID(t, book.ID).CopiesAvailable)

	resp, err := env.issues.RequestReturn(ctx, student.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IssuePendingReturn, resp.Status)

	// Copy stays out until the return is confirmed
	assert.Equal(t, 0, env.bookByID(t, book.ID).CopiesAvailable)

	resp, err = env.issues.HandleReturnRequest(ctx, req.ID, domain.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, domain.IssueReturned, resp.Status)
	assert.NotNil(t, resp.ReturnDate)
	assert.Equal(t, 1, env.bookByID(t, book.ID).CopiesAvailable)
}

func TestReturnRequestOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createStudent(t, "alice")
	bob := env.createStudent(t, "bob")
	book := env.createBook(t, "Dune", 1)

	req, err := env.issues.RequestIssue(ctx, alice.ID, book.ID)
	require.NoError(t, err)
	_, err = env.issues.HandleIssueRequest(ctx, req.ID, domain.ActionAccept)
	require.NoError(t, err)

	_, err = env.issues.RequestReturn(ctx, bob.ID, req.ID)
	assert.ErrorIs(t, err, ErrNotRequestOwner)
}

func TestReturnRequestNotIssued(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	student := env.createStudent(t, "alice")
	book := env.createBook(t, "Dune", 1)

	req, err := env.issues.RequestIssue(ctx, student.ID, book.ID)
	require.NoError(t, err)

	// Still pending, nothing to return yet
	_, err = env.issues.RequestReturn(ctx, student.ID, req.ID)
	assert.ErrorIs(t, err, ErrBookNotIssued)
}

func TestHandleReturnReject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	student := env.createStudent(t, "alice")
	book := env.createBook(t, "Dune", 1)

	req, err := env.issues.RequestIssue(ctx, student.ID, book.ID)
	require.NoError(t, err)
	_, err = env.issues.HandleIssueRequest(ctx, req.ID, domain.ActionAccept)
	require.NoError(t, err)
	_, err = env.issues.RequestReturn(ctx, student.ID, req.ID)
	require.NoError(t, err)

	resp, err := env.issues.HandleReturnRequest(ctx, req.ID, domain.ActionReject)
	require.NoError(t, err)

	// The loan goes back to the borrower, availability unchanged
	assert.Equal(t, domain.IssueIssued, resp.Status)
	assert.Nil(t, resp.ReturnDate)
	assert.Equal(t, 0, env.bookByID(t, book.ID).CopiesAvailable)
}

func TestHandleReturnAcceptTwice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	student := env.createStudent(t, "alice")
	book := env.createBook(t, "Dune", 1)

	req, err := env.issues.RequestIssue(ctx, student.ID, book.ID)
	require.NoError(t, err)
	_, err = env.issues.HandleIssueRequest(ctx, req.ID, domain.ActionAccept)
	require.NoError(t, err)
	_, err = env.issues.RequestReturn(ctx, student.ID, req.ID)
	require.NoError(t, err)
	_, err = env.issues.HandleReturnRequest(ctx, req.ID, domain.ActionAccept)
	require.NoError(t, err)

	// A second accept must not push availability past total copies
	_, err = env.issues.HandleReturnRequest(ctx, req.ID, domain.ActionAccept)
	assert.ErrorIs(t, err, ErrRequestNotPending)
	assert.Equal(t, 1, env.bookByID(t, book.ID).CopiesAvailable)
}

func TestCancelPendingRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	student := env.createStudent(t, "alice")
	book := env.createBook(t, "Dune", 1)

	req, err := env.issues.RequestIssue(ctx, student.ID, book.ID)
	require.NoError(t, err)

	resp, err := env.issues.CancelRequest(ctx, student.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IssueCancelled, resp.Status)
	assert.Equal(t, 1, env.bookByID(t, book.ID).CopiesAvailable)
}

func TestCancelIssuedLoanFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	student := env.createStudent(t, "alice")
	book := env.createBook(t, "Dune", 1)

	req, err := env.issues.RequestIssue(ctx, student.ID, book.ID)
	require.NoError(t, err)
	_, err = env.issues.HandleIssueRequest(ctx, req.ID, domain.ActionAccept)
	require.NoError(t, err)

	_, err = env.issues.CancelRequest(ctx, student.ID, req.ID)
	assert.ErrorIs(t, err, ErrRequestNotOpen)

	// The loan and its copy are untouched
	assert.Equal(t, domain.IssueIssued, env.issueByID(t, req.ID).Status)
	assert.Equal(t, 0, env.bookByID(t, book.ID).CopiesAvailable)
}

func TestMyOrdersSplit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	student := env.createStudent(t, "alice")
	issuedBook := env.createBook(t, "Dune", 1)
	pendingBook := env.createBook(t, "Neuromancer", 1)
	returningBook := env.createBook(t, "Foundation", 1)

	issued, err := env.issues.RequestIssue(ctx, student.ID, issuedBook.ID)
	require.NoError(t, err)
	_, err = env.issues.HandleIssueRequest(ctx, issued.ID, domain.ActionAccept)
	require.NoError(t, err)

	_, err = env.issues.RequestIssue(ctx, student.ID, pendingBook.ID)
	require.NoError(t, err)

	returning, err := env.issues.RequestIssue(ctx, student.ID, returningBook.ID)
	require.NoError(t, err)
	_, err = env.issues.HandleIssueRequest(ctx, returning.ID, domain.ActionAccept)
	require.NoError(t, err)
	_, err = env.issues.RequestReturn(ctx, student.ID, returning.ID)
	require.NoError(t, err)

	orders, err := env.issues.MyOrders(ctx, student.ID)
	require.NoError(t, err)

	// Loans awaiting return approval still count as issued
	assert.Len(t, orders.Issued, 2)
	assert.Len(t, orders.Pending, 1)
	assert.Equal(t, "Neuromancer", orders.Pending[0].Title)
}

func TestHistoryListsTerminalOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	student := env.createStudent(t, "alice")
	returnedBook := env.createBook(t, "Dune", 1)
	rejectedBook := env.createBook(t, "Neuromancer", 1)
	openBook := env.createBook(t, "Foundation", 1)

	req, err := env.issues.RequestIssue(ctx, student.ID, returnedBook.ID)
	require.NoError(t, err)
	_, err = env.issues.HandleIssueRequest(ctx, req.ID, domain.ActionAccept)
	require.NoError(t, err)
	_, err = env.issues.RequestReturn(ctx, student.ID, req.ID)
	require.NoError(t, err)
	_, err = env.issues.HandleReturnRequest(ctx, req.ID, domain.ActionAccept)
	require.NoError(t, err)

	rejected, err := env.issues.RequestIssue(ctx, student.ID, rejectedBook.ID)
	require.NoError(t, err)
	_, err = env.issues.HandleIssueRequest(ctx, rejected.ID, domain.ActionReject)
	require.NoError(t, err)

	_, err = env.issues.RequestIssue(ctx, student.ID, openBook.ID)
	require.NoError(t, err)

	history, err := env.issues.History(ctx, student.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	for _, entry := range history {
		assert.True(t, domain.IsTerminalIssueStatus(entry.Status))
	}
}

func TestAdminQueues(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createStudent(t, "alice")
	bob := env.createStudent(t, "bob")
	book := env.createBook(t, "Dune", 2)

	reqA, err := env.issues.RequestIssue(ctx, alice.ID, book.ID)
	require.NoError(t, err)
	_, err = env.issues.RequestIssue(ctx, bob.ID, book.ID)
	require.NoError(t, err)

	pending, err := env.issues.ListPendingIssues(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	// Queue is oldest first and carries denormalized book/user fields
	assert.Equal(t, "alice", pending[0].Username)
	assert.Equal(t, "Dune", pending[0].Title)

	_, err = env.issues.HandleIssueRequest(ctx, reqA.ID, domain.ActionAccept)
	require.NoError(t, err)
	_, err = env.issues.RequestReturn(ctx, alice.ID, reqA.ID)
	require.NoError(t, err)

	returns, err := env.issues.ListPendingReturns(ctx)
	require.NoError(t, err)
	assert.Len(t, returns, 1)

	_, err = env.issues.HandleReturnRequest(ctx, reqA.ID, domain.ActionAccept)
	require.NoError(t, err)

	history, err := env.issues.History(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, domain.IssueReturned, history[0].Status)
}
