package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Database provides high-level helpers around a SQLite connection.
//
// Every multi-record mutation (issuance, settlement, catalog merge) runs
// in an immediate transaction: _txlock=immediate in the DSN makes BEGIN
// take the write lock up front, so concurrent issuances against the same
// book serialize at BEGIN instead of both passing the availability check
// and racing on the decrement.
type Database struct {
	db *sqlx.DB

	getBookStmt   *sqlx.Stmt
	getMemberStmt *sqlx.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies
// schema migrations, and prepares common statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// busy_timeout covers lock contention, foreign keys guard the
	// ledger's references, immediate txlock serializes writers.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1&_txlock=immediate", dbPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.getBookStmt != nil {
		d.getBookStmt.Close()
	}
	if d.getMemberStmt != nil {
		d.getMemberStmt.Close()
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sqlx.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS members (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT NOT NULL UNIQUE,
            fullname TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            outstanding_debt INTEGER NOT NULL DEFAULT 0
        );`,
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            isbn TEXT NOT NULL UNIQUE,
            publisher TEXT NOT NULL,
            quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0)
        );`,
		`CREATE TABLE IF NOT EXISTS transactions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            book_id INTEGER NOT NULL REFERENCES books(id),
            member_id INTEGER NOT NULL REFERENCES members(id),
            borrowed_date DATETIME NOT NULL,
            return_date DATETIME,
            total_fee INTEGER,
            amount_paid INTEGER
        );`,
		// At most one open loan per member, enforced by the store as
		// well as by the issuance check.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_open_loan_per_member
            ON transactions(member_id) WHERE return_date IS NULL;`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_book ON transactions(book_id);`,
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, schemaVersion); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.getBookStmt, err = d.db.Preparex(`SELECT id,title,author,isbn,publisher,quantity FROM books WHERE id=?`); err != nil {
		return err
	}
	if d.getMemberStmt, err = d.db.Preparex(`SELECT id,username,fullname,email,password_hash,outstanding_debt FROM members WHERE id=?`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// AddBooks adds quantity copies of a title to the catalog. If the ISBN
// is already known the existing row's quantity is incremented instead of
// inserting a duplicate title.
func (d *Database) AddBooks(title, author, isbn, publisher string, quantity int64) (int64, error) {
	if quantity < 1 {
		return 0, fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}
	tx, err := d.db.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var existing Book
	err = tx.Get(&existing, `SELECT id,title,author,isbn,publisher,quantity FROM books WHERE isbn=?`, isbn)
	switch {
	case err == nil:
		if _, err := tx.Exec(`UPDATE books SET quantity=quantity+? WHERE id=?`, quantity, existing.ID); err != nil {
			return 0, err
		}
		return existing.ID, tx.Commit()
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.Exec(`INSERT INTO books(title,author,isbn,publisher,quantity) VALUES(?,?,?,?,?)`,
			title, author, isbn, publisher, quantity)
		if err != nil {
			return 0, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		return id, tx.Commit()
	default:
		return 0, err
	}
}

// RemoveBooks takes quantity copies of the given ISBN out of the
// catalog. Copies out on loan are not on the shelf and cannot be
// removed this way.
func (d *Database) RemoveBooks(isbn string, quantity int64) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}
	tx, err := d.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var book Book
	if err := tx.Get(&book, `SELECT id,title,author,isbn,publisher,quantity FROM books WHERE isbn=?`, isbn); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("isbn %q: %w", isbn, ErrBookNotFound)
		}
		return err
	}
	if quantity > book.Quantity {
		return fmt.Errorf("remove %d of %d: %w", quantity, book.Quantity, ErrInsufficientStock)
	}
	if _, err := tx.Exec(`UPDATE books SET quantity=quantity-? WHERE id=?`, quantity, book.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateBook replaces the catalog metadata for a book. Quantity is not
// touched here; it moves only through circulation and AddBooks/RemoveBooks.
func (d *Database) UpdateBook(id int64, title, author, isbn, publisher string) error {
	res, err := d.db.Exec(`UPDATE books SET title=?, author=?, isbn=?, publisher=? WHERE id=?`,
		title, author, isbn, publisher, id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("isbn %q is already registered to another book", isbn)
		}
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("book %d: %w", id, ErrBookNotFound)
	}
	return nil
}

// GetBook fetches a single book.
func (d *Database) GetBook(id int64) (*Book, error) {
	var b Book
	if err := d.getBookStmt.Get(&b, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("book %d: %w", id, ErrBookNotFound)
		}
		return nil, err
	}
	return &b, nil
}

// GetBookByISBN fetches a single book by its unique ISBN.
func (d *Database) GetBookByISBN(isbn string) (*Book, error) {
	var b Book
	err := d.db.Get(&b, `SELECT id,title,author,isbn,publisher,quantity FROM books WHERE isbn=?`, isbn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("isbn %q: %w", isbn, ErrBookNotFound)
		}
		return nil, err
	}
	return &b, nil
}

// GetAllBooks returns the whole catalog ordered by id.
func (d *Database) GetAllBooks() ([]*Book, error) {
	var books []*Book
	if err := d.db.Select(&books, `SELECT id,title,author,isbn,publisher,quantity FROM books ORDER BY id`); err != nil {
		return nil, err
	}
	return books, nil
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

// AddMember registers a member with the given (already hashed)
// credential. Outstanding debt always starts at zero.
func (d *Database) AddMember(username, fullname, email, passwordHash string) (int64, error) {
	res, err := d.db.Exec(`INSERT INTO members(username,fullname,email,password_hash,outstanding_debt) VALUES(?,?,?,?,0)`,
		username, fullname, email, passwordHash)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, fmt.Errorf("username or email already registered")
		}
		return 0, err
	}
	return res.LastInsertId()
}

// GetMember fetches a single member.
func (d *Database) GetMember(id int64) (*Member, error) {
	var m Member
	if err := d.getMemberStmt.Get(&m, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("member %d: %w", id, ErrMemberNotFound)
		}
		return nil, err
	}
	return &m, nil
}

// GetMemberByUsername fetches a single member by unique username.
func (d *Database) GetMemberByUsername(username string) (*Member, error) {
	var m Member
	err := d.db.Get(&m, `SELECT id,username,fullname,email,password_hash,outstanding_debt FROM members WHERE username=?`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("member %q: %w", username, ErrMemberNotFound)
		}
		return nil, err
	}
	return &m, nil
}

// GetAllMembers returns all members ordered by id.
func (d *Database) GetAllMembers() ([]*Member, error) {
	var members []*Member
	if err := d.db.Select(&members, `SELECT id,username,fullname,email,password_hash,outstanding_debt FROM members ORDER BY id`); err != nil {
		return nil, err
	}
	return members, nil
}

func (d *Database) setPasswordHash(id int64, hash string) error {
	res, err := d.db.Exec(`UPDATE members SET password_hash=? WHERE id=?`, hash, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("member %d: %w", id, ErrMemberNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Transaction ledger
// ---------------------------------------------------------------------------

const transactionColumns = `id,book_id,member_id,borrowed_date,return_date,total_fee,amount_paid`

// GetTransaction fetches a single transaction.
func (d *Database) GetTransaction(id int64) (*Transaction, error) {
	var t Transaction
	err := d.db.Get(&t, `SELECT `+transactionColumns+` FROM transactions WHERE id=?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %d: %w", id, ErrTransactionNotFound)
		}
		return nil, err
	}
	return &t, nil
}

// GetAllTransactions returns the full ledger, oldest first.
func (d *Database) GetAllTransactions() ([]*Transaction, error) {
	var ts []*Transaction
	if err := d.db.Select(&ts, `SELECT `+transactionColumns+` FROM transactions ORDER BY id`); err != nil {
		return nil, err
	}
	return ts, nil
}

// GetOpenTransactions returns all transactions still awaiting a return.
func (d *Database) GetOpenTransactions() ([]*Transaction, error) {
	var ts []*Transaction
	if err := d.db.Select(&ts, `SELECT `+transactionColumns+` FROM transactions WHERE return_date IS NULL ORDER BY id`); err != nil {
		return nil, err
	}
	return ts, nil
}

// GetOpenTransactionForMember returns the member's open loan, or nil if
// the member has nothing out.
func (d *Database) GetOpenTransactionForMember(memberID int64) (*Transaction, error) {
	var t Transaction
	err := d.db.Get(&t, `SELECT `+transactionColumns+` FROM transactions WHERE member_id=? AND return_date IS NULL`, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
