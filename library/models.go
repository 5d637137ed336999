package library

import (
	"fmt"
	"time"
)

// Book represents one catalog title. Quantity is the number of copies
// currently on the shelf; copies out on loan are tracked by open
// transactions, so Quantity plus the count of open transactions for the
// book is the total acquired stock.
type Book struct {
	ID        int64  `db:"id" json:"id"`
	Title     string `db:"title" json:"title"`
	Author    string `db:"author" json:"author"`
	ISBN      string `db:"isbn" json:"isbn"`
	Publisher string `db:"publisher" json:"publisher"`
	Quantity  int64  `db:"quantity" json:"quantity"`
}

// Member represents a registered library member.
// OutstandingDebt is a required field starting at zero; it accumulates
// the unpaid portion of each settled transaction and may never exceed
// DebtCeiling after a settlement.
type Member struct {
	ID              int64  `db:"id" json:"id"`
	Username        string `db:"username" json:"username"`
	FullName        string `db:"fullname" json:"fullname"`
	Email           string `db:"email" json:"email"`
	PasswordHash    string `db:"password_hash" json:"-"` // Don't serialize password hash
	OutstandingDebt int64  `db:"outstanding_debt" json:"outstanding_debt"`
}

// Transaction records one borrow/return event. It is created open
// (ReturnDate, TotalFee and AmountPaid all nil) and closed exactly once
// by settlement; closed transactions are never reopened or deleted.
type Transaction struct {
	ID           int64      `db:"id" json:"id"`
	BookID       int64      `db:"book_id" json:"book_id"`
	MemberID     int64      `db:"member_id" json:"member_id"`
	BorrowedDate time.Time  `db:"borrowed_date" json:"borrowed_date"`
	ReturnDate   *time.Time `db:"return_date" json:"return_date,omitempty"`
	TotalFee     *int64     `db:"total_fee" json:"total_fee,omitempty"`
	AmountPaid   *int64     `db:"amount_paid" json:"amount_paid,omitempty"`
}

// Open reports whether the book is still out, i.e. no return has been
// recorded yet.
func (t *Transaction) Open() bool { return t.ReturnDate == nil }

// Validate checks the transaction's field invariants: a closed
// transaction must have all three settlement fields, ordered dates and a
// non-negative fee covering the amount paid.
func (t *Transaction) Validate() error {
	if t.BookID <= 0 || t.MemberID <= 0 {
		return fmt.Errorf("transaction %d: missing book or member reference", t.ID)
	}
	if t.Open() {
		if t.TotalFee != nil || t.AmountPaid != nil {
			return fmt.Errorf("transaction %d: open but has settlement fields", t.ID)
		}
		return nil
	}
	if t.TotalFee == nil || t.AmountPaid == nil {
		return fmt.Errorf("transaction %d: closed but settlement fields incomplete", t.ID)
	}
	if t.ReturnDate.Before(t.BorrowedDate) {
		return fmt.Errorf("transaction %d: return date precedes borrowed date", t.ID)
	}
	if *t.TotalFee < 0 {
		return fmt.Errorf("transaction %d: negative fee", t.ID)
	}
	if *t.AmountPaid < 0 || *t.AmountPaid > *t.TotalFee {
		return fmt.Errorf("transaction %d: amount paid outside [0, fee]", t.ID)
	}
	return nil
}
