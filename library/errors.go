package library

import "errors"

// Validation errors. Each aborts the operation before any mutation, so
// the catalog, directory and ledger are unchanged when one is returned.
var (
	ErrBookNotFound        = errors.New("book not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrAlreadyBorrowed means the member already has an open loan;
	// a member may hold at most one book at a time.
	ErrAlreadyBorrowed = errors.New("member already has a book on loan")

	// ErrOutOfStock means no copy of the book is on the shelf.
	ErrOutOfStock = errors.New("book is not available for issue")

	// ErrAlreadyClosed means the transaction was settled earlier;
	// settling it again would double-credit stock and debt.
	ErrAlreadyClosed = errors.New("transaction is already closed")

	// ErrOverpayment means the amount paid exceeds the fee due.
	ErrOverpayment = errors.New("amount paid exceeds the fee due")

	// ErrNegativePayment means the amount paid is below zero.
	ErrNegativePayment = errors.New("amount paid cannot be negative")

	// ErrDebtCeilingExceeded means settling would push the member's
	// outstanding debt past DebtCeiling.
	ErrDebtCeilingExceeded = errors.New("outstanding debt cannot exceed the ceiling")

	// ErrInsufficientStock means a catalog removal asked for more
	// copies than the shelf holds.
	ErrInsufficientStock = errors.New("quantity to remove exceeds existing quantity")
)
