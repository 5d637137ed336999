package library

import (
	"fmt"
	"time"
)

// LibraryManager is a thin façade over the Database, keeping CLI code
// simple. It also owns the clock: circulation operations stamp dates
// from now(), which tests replace with a fixed clock.
type LibraryManager struct {
	db  *Database
	now func() time.Time
}

// NewLibraryManager opens (or creates) the SQLite database at dbPath.
func NewLibraryManager(dbPath string) (*LibraryManager, error) {
	db, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	return &LibraryManager{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (lm *LibraryManager) Close() error { return lm.db.Close() }

// SetClock replaces the time source used to stamp borrow and return
// dates.
func (lm *LibraryManager) SetClock(now func() time.Time) { lm.now = now }

// ------------------ Catalog helpers ------------------

func (lm *LibraryManager) AddBooks(title, author, isbn, publisher string, quantity int64) (int64, error) {
	return lm.db.AddBooks(title, author, isbn, publisher, quantity)
}

func (lm *LibraryManager) RemoveBooks(isbn string, quantity int64) error {
	return lm.db.RemoveBooks(isbn, quantity)
}

func (lm *LibraryManager) UpdateBook(id int64, title, author, isbn, publisher string) error {
	return lm.db.UpdateBook(id, title, author, isbn, publisher)
}

func (lm *LibraryManager) GetBook(id int64) (*Book, error)          { return lm.db.GetBook(id) }
func (lm *LibraryManager) GetBookByISBN(isbn string) (*Book, error) { return lm.db.GetBookByISBN(isbn) }
func (lm *LibraryManager) GetAllBooks() ([]*Book, error)            { return lm.db.GetAllBooks() }

// ------------------ Member helpers ------------------

// AddMember registers a member; the plain-text password is hashed here
// and never stored.
func (lm *LibraryManager) AddMember(username, fullname, email, password string) (int64, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return 0, err
	}
	return lm.db.AddMember(username, fullname, email, hash)
}

func (lm *LibraryManager) GetMember(id int64) (*Member, error) { return lm.db.GetMember(id) }

func (lm *LibraryManager) GetMemberByUsername(username string) (*Member, error) {
	return lm.db.GetMemberByUsername(username)
}

func (lm *LibraryManager) GetAllMembers() ([]*Member, error) { return lm.db.GetAllMembers() }

func (lm *LibraryManager) AuthenticateMember(id int64, password string) error {
	return lm.db.AuthenticateMember(id, password)
}

func (lm *LibraryManager) ResetPassword(id int64, oldPassword, newPassword string) error {
	return lm.db.ResetPassword(id, oldPassword, newPassword)
}

// ------------------ Circulation ------------------

// IssueBook lends a copy of the book to the member as of now.
func (lm *LibraryManager) IssueBook(memberID, bookID int64) (*Transaction, error) {
	return lm.db.IssueBook(memberID, bookID, lm.now())
}

// ReturnBook settles the open transaction as of now, applying the
// payment toward the fee.
func (lm *LibraryManager) ReturnBook(transactionID, amountPaid int64) (*Transaction, error) {
	return lm.db.ReturnBook(transactionID, amountPaid, lm.now())
}

// ------------------ Ledger views ------------------

func (lm *LibraryManager) GetTransaction(id int64) (*Transaction, error) {
	return lm.db.GetTransaction(id)
}

func (lm *LibraryManager) GetAllTransactions() ([]*Transaction, error) {
	return lm.db.GetAllTransactions()
}

func (lm *LibraryManager) GetOpenTransactions() ([]*Transaction, error) {
	return lm.db.GetOpenTransactions()
}

func (lm *LibraryManager) GetOpenTransactionForMember(memberID int64) (*Transaction, error) {
	return lm.db.GetOpenTransactionForMember(memberID)
}

// ------------------ Utilities ------------------

// PrettyBook formats a book for lists.
func PrettyBook(b *Book) string {
	return fmt.Sprintf("%-5d %-30s %-25s %-15s %-20s %5d", b.ID, b.Title, b.Author, b.ISBN, b.Publisher, b.Quantity)
}

// PrettyTransaction formats a ledger row for lists.
func PrettyTransaction(t *Transaction) string {
	status := "open"
	fee, paid := "-", "-"
	if !t.Open() {
		status = t.ReturnDate.Format("2006-01-02")
		fee = fmt.Sprintf("%d", *t.TotalFee)
		paid = fmt.Sprintf("%d", *t.AmountPaid)
	}
	return fmt.Sprintf("%-5d book:%-5d member:%-5d %-12s %-12s fee:%-6s paid:%-6s",
		t.ID, t.BookID, t.MemberID, t.BorrowedDate.Format("2006-01-02"), status, fee, paid)
}
