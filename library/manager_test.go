package library

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *LibraryManager {
	t.Helper()
	dir := t.TempDir()
	mgr, err := NewLibraryManager(filepath.Join(dir, "lib.db"))
	if err != nil {
		t.Fatalf("mgr: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

// TestLendingLifecycle walks the whole flow through the facade with a
// fixed clock: register, stock, issue, advance three days, settle with a
// partial payment.
func TestLendingLifecycle(t *testing.T) {
	mgr := newManager(t)

	clock := day(0)
	mgr.SetClock(func() time.Time { return clock })

	memberID, err := mgr.AddMember("alice", "Alice Liddell", "alice@example.com", "s3cret")
	require.NoError(t, err)

	bookID, err := mgr.AddBooks("Dune", "Frank Herbert", "9780441172719", "Ace", 2)
	require.NoError(t, err)

	trans, err := mgr.IssueBook(memberID, bookID)
	require.NoError(t, err)
	assert.True(t, trans.BorrowedDate.Equal(day(0)))

	book, err := mgr.GetBook(bookID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), book.Quantity)

	clock = day(3)
	closed, err := mgr.ReturnBook(trans.ID, 40)
	require.NoError(t, err)
	require.NotNil(t, closed.TotalFee)
	assert.Equal(t, int64(150), *closed.TotalFee)

	member, err := mgr.GetMember(memberID)
	require.NoError(t, err)
	assert.Equal(t, int64(110), member.OutstandingDebt)

	book, err = mgr.GetBook(bookID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), book.Quantity)

	all, err := mgr.GetAllTransactions()
	require.NoError(t, err)
	assert.Len(t, all, 1)
	open, err := mgr.GetOpenTransactions()
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestManagerHashesPasswords(t *testing.T) {
	mgr := newManager(t)

	id, err := mgr.AddMember("alice", "Alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	member, err := mgr.GetMember(id)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", member.PasswordHash)
	assert.NotEmpty(t, member.PasswordHash)

	assert.NoError(t, mgr.AuthenticateMember(id, "s3cret"))
	assert.Error(t, mgr.AuthenticateMember(id, "nope"))
}

func TestManagerCatalogHelpers(t *testing.T) {
	mgr := newManager(t)

	id, err := mgr.AddBooks("Dune", "Frank Herbert", "9780441172719", "Ace", 4)
	require.NoError(t, err)

	byISBN, err := mgr.GetBookByISBN("9780441172719")
	require.NoError(t, err)
	assert.Equal(t, id, byISBN.ID)

	require.NoError(t, mgr.RemoveBooks("9780441172719", 1))
	require.NoError(t, mgr.UpdateBook(id, "Dune", "Frank Herbert", "9780441172719", "Chilton"))

	books, err := mgr.GetAllBooks()
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Chilton", books[0].Publisher)
	assert.Equal(t, int64(3), books[0].Quantity)
}

func TestManagerOpenLoanLookup(t *testing.T) {
	mgr := newManager(t)
	mgr.SetClock(func() time.Time { return day(0) })

	memberID, err := mgr.AddMember("alice", "Alice", "alice@example.com", "pw")
	require.NoError(t, err)
	bookID, err := mgr.AddBooks("Dune", "Frank Herbert", "9780441172719", "Ace", 1)
	require.NoError(t, err)

	open, err := mgr.GetOpenTransactionForMember(memberID)
	require.NoError(t, err)
	assert.Nil(t, open)

	trans, err := mgr.IssueBook(memberID, bookID)
	require.NoError(t, err)

	open, err = mgr.GetOpenTransactionForMember(memberID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, trans.ID, open.ID)

	got, err := mgr.GetTransaction(trans.ID)
	require.NoError(t, err)
	assert.True(t, got.Open())
}
