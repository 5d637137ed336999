package library

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// IssueBook lends one copy of a book to a member, recording an open
// transaction and taking the copy off the shelf in one atomic unit. The
// issue date `at` is supplied by the caller so day-count math stays
// deterministic under test.
//
// A member may hold at most one book at a time, and a copy must be on
// the shelf; either check failing aborts with no mutation.
func (d *Database) IssueBook(memberID, bookID int64, at time.Time) (*Transaction, error) {
	tx, err := d.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var member Member
	if err := tx.Get(&member, `SELECT id,username,fullname,email,password_hash,outstanding_debt FROM members WHERE id=?`, memberID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("member %d: %w", memberID, ErrMemberNotFound)
		}
		return nil, err
	}

	var open int
	if err := tx.Get(&open, `SELECT COUNT(*) FROM transactions WHERE member_id=? AND return_date IS NULL`, memberID); err != nil {
		return nil, err
	}
	if open > 0 {
		return nil, fmt.Errorf("member %s: %w", member.Username, ErrAlreadyBorrowed)
	}

	var book Book
	if err := tx.Get(&book, `SELECT id,title,author,isbn,publisher,quantity FROM books WHERE id=?`, bookID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("book %d: %w", bookID, ErrBookNotFound)
		}
		return nil, err
	}
	if book.Quantity < 1 {
		return nil, fmt.Errorf("book %q: %w", book.Title, ErrOutOfStock)
	}

	res, err := tx.Exec(`INSERT INTO transactions(book_id,member_id,borrowed_date) VALUES(?,?,?)`,
		bookID, memberID, at)
	if err != nil {
		// The partial unique index backstops the open-loan check.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("member %s: %w", member.Username, ErrAlreadyBorrowed)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`UPDATE books SET quantity=quantity-1 WHERE id=?`, bookID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit issue: %w", err)
	}

	return &Transaction{
		ID:           id,
		BookID:       bookID,
		MemberID:     memberID,
		BorrowedDate: at,
	}, nil
}

// ReturnBook settles an open transaction: it computes the fee for the
// rental period ending at `at`, applies the payment, adds the unpaid
// remainder to the member's outstanding debt and puts the copy back on
// the shelf — all in one atomic unit.
//
// The payment may not exceed the fee due, and the settlement may not
// push the member's debt past DebtCeiling. A transaction settled once
// is closed for good; settling it again is rejected rather than
// crediting stock and debt twice.
func (d *Database) ReturnBook(transactionID, amountPaid int64, at time.Time) (*Transaction, error) {
	if amountPaid < 0 {
		return nil, fmt.Errorf("amount %d: %w", amountPaid, ErrNegativePayment)
	}

	tx, err := d.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var trans Transaction
	err = tx.Get(&trans, `SELECT `+transactionColumns+` FROM transactions WHERE id=?`, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %d: %w", transactionID, ErrTransactionNotFound)
		}
		return nil, err
	}
	if !trans.Open() {
		return nil, fmt.Errorf("transaction %d: %w", transactionID, ErrAlreadyClosed)
	}

	totalFee := RentalFee(trans.BorrowedDate, at)
	if amountPaid > totalFee {
		return nil, fmt.Errorf("paid %d against fee %d: %w", amountPaid, totalFee, ErrOverpayment)
	}
	transactionDebt := totalFee - amountPaid

	var member Member
	if err := tx.Get(&member, `SELECT id,username,fullname,email,password_hash,outstanding_debt FROM members WHERE id=?`, trans.MemberID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("member %d: %w", trans.MemberID, ErrMemberNotFound)
		}
		return nil, err
	}
	if member.OutstandingDebt+transactionDebt > DebtCeiling {
		return nil, fmt.Errorf("debt %d + %d over ceiling %d: %w",
			member.OutstandingDebt, transactionDebt, DebtCeiling, ErrDebtCeilingExceeded)
	}

	if _, err := tx.Exec(`UPDATE transactions SET return_date=?, total_fee=?, amount_paid=? WHERE id=?`,
		at, totalFee, amountPaid, transactionID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(`UPDATE members SET outstanding_debt=outstanding_debt+? WHERE id=?`,
		transactionDebt, trans.MemberID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(`UPDATE books SET quantity=quantity+1 WHERE id=?`, trans.BookID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit return: %w", err)
	}

	trans.ReturnDate = &at
	trans.TotalFee = &totalFee
	trans.AmountPaid = &amountPaid
	return &trans, nil
}
