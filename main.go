package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/shrey-kumbhare/LMS/library"
)

var dbFile string

// readPassword securely reads a password with masking when stdin is a
// terminal, falling back to a plain line read otherwise (tests, pipes).
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return "", err
		}
		fmt.Println() // Add newline after password input
		return strings.TrimSpace(string(bytePassword)), nil
	}
	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func openManager() (*library.LibraryManager, error) {
	return library.NewLibraryManager(dbFile)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lms",
		Short:         "Library management: catalog, members and circulation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dbFile, "db", "library.db", "path to the SQLite database")

	root.AddCommand(
		newAddBookCmd(),
		newRemoveBooksCmd(),
		newListBooksCmd(),
		newAddMemberCmd(),
		newListMembersCmd(),
		newIssueCmd(),
		newReturnCmd(),
		newTransactionsCmd(),
		newAuthenticateCmd(),
	)
	return root
}

func newAddBookCmd() *cobra.Command {
	var title, author, isbn, publisher string
	var quantity int64
	cmd := &cobra.Command{
		Use:   "add-book",
		Short: "Add copies of a book to the catalog (merges on ISBN)",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager()
			if err != nil {
				return err
			}
			defer mgr.Close()

			id, err := mgr.AddBooks(title, author, isbn, publisher, quantity)
			if err != nil {
				return err
			}
			book, err := mgr.GetBook(id)
			if err != nil {
				return err
			}
			fmt.Printf("Catalog now holds %d copy(ies) of %q (book %d)\n", book.Quantity, book.Title, book.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "book title")
	cmd.Flags().StringVar(&author, "author", "", "book author")
	cmd.Flags().StringVar(&isbn, "isbn", "", "unique ISBN")
	cmd.Flags().StringVar(&publisher, "publisher", "", "publisher")
	cmd.Flags().Int64Var(&quantity, "quantity", 1, "copies to add")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("author")
	cmd.MarkFlagRequired("isbn")
	cmd.MarkFlagRequired("publisher")
	return cmd
}

func newRemoveBooksCmd() *cobra.Command {
	var isbn string
	var quantity int64
	cmd := &cobra.Command{
		Use:   "remove-books",
		Short: "Remove shelf copies of an ISBN from the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager()
			if err != nil {
				return err
			}
			defer mgr.Close()

			if err := mgr.RemoveBooks(isbn, quantity); err != nil {
				return err
			}
			fmt.Printf("Removed %d copy(ies) of %s\n", quantity, isbn)
			return nil
		},
	}
	cmd.Flags().StringVar(&isbn, "isbn", "", "ISBN to remove copies of")
	cmd.Flags().Int64Var(&quantity, "quantity", 1, "copies to remove")
	cmd.MarkFlagRequired("isbn")
	return cmd
}

func newListBooksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-books",
		Short: "List the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager()
			if err != nil {
				return err
			}
			defer mgr.Close()

			books, err := mgr.GetAllBooks()
			if err != nil {
				return err
			}
			fmt.Printf("%-5s %-30s %-25s %-15s %-20s %5s\n", "ID", "Title", "Author", "ISBN", "Publisher", "Qty")
			for _, b := range books {
				fmt.Println(library.PrettyBook(b))
			}
			return nil
		},
	}
}

func newAddMemberCmd() *cobra.Command {
	var username, fullname, email string
	cmd := &cobra.Command{
		Use:   "add-member",
		Short: "Register a library member",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager()
			if err != nil {
				return err
			}
			defer mgr.Close()

			password, err := readPassword("Choose a password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			id, err := mgr.AddMember(username, fullname, email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Member %s registered with ID %d\n", username, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "unique username")
	cmd.Flags().StringVar(&fullname, "fullname", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "unique email address")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("fullname")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newListMembersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-members",
		Short: "List members with their outstanding debt",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager()
			if err != nil {
				return err
			}
			defer mgr.Close()

			members, err := mgr.GetAllMembers()
			if err != nil {
				return err
			}
			fmt.Printf("%-5s %-20s %-25s %-30s %s\n", "ID", "Username", "Name", "Email", "Debt")
			for _, m := range members {
				fmt.Printf("%-5d %-20s %-25s %-30s %d\n", m.ID, m.Username, m.FullName, m.Email, m.OutstandingDebt)
			}
			return nil
		},
	}
}

func newIssueCmd() *cobra.Command {
	var memberID, bookID int64
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a book to a member",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager()
			if err != nil {
				return err
			}
			defer mgr.Close()

			trans, err := mgr.IssueBook(memberID, bookID)
			if err != nil {
				return err
			}
			fmt.Printf("Issued book %d to member %d (transaction %d, borrowed %s)\n",
				trans.BookID, trans.MemberID, trans.ID, trans.BorrowedDate.Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().Int64Var(&memberID, "member", 0, "member ID")
	cmd.Flags().Int64Var(&bookID, "book", 0, "book ID")
	cmd.MarkFlagRequired("member")
	cmd.MarkFlagRequired("book")
	return cmd
}

func newReturnCmd() *cobra.Command {
	var transactionID, amountPaid int64
	cmd := &cobra.Command{
		Use:   "return",
		Short: "Return a book and settle the rental fee",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager()
			if err != nil {
				return err
			}
			defer mgr.Close()

			trans, err := mgr.ReturnBook(transactionID, amountPaid)
			if err != nil {
				return err
			}
			member, err := mgr.GetMember(trans.MemberID)
			if err != nil {
				return err
			}
			fmt.Printf("Transaction %d closed: fee %d, paid %d, member %s now owes %d\n",
				trans.ID, *trans.TotalFee, *trans.AmountPaid, member.Username, member.OutstandingDebt)
			return nil
		},
	}
	cmd.Flags().Int64Var(&transactionID, "transaction", 0, "transaction ID")
	cmd.Flags().Int64Var(&amountPaid, "paid", 0, "amount paid toward the fee")
	cmd.MarkFlagRequired("transaction")
	return cmd
}

func newTransactionsCmd() *cobra.Command {
	var openOnly bool
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List the transaction ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager()
			if err != nil {
				return err
			}
			defer mgr.Close()

			var (
				ts []*library.Transaction
			)
			if openOnly {
				ts, err = mgr.GetOpenTransactions()
			} else {
				ts, err = mgr.GetAllTransactions()
			}
			if err != nil {
				return err
			}
			for _, t := range ts {
				fmt.Println(library.PrettyTransaction(t))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&openOnly, "open", false, "show only open loans")
	return cmd
}

func newAuthenticateCmd() *cobra.Command {
	var memberID int64
	cmd := &cobra.Command{
		Use:   "authenticate",
		Short: "Verify a member's password",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager()
			if err != nil {
				return err
			}
			defer mgr.Close()

			password, err := readPassword("Enter your password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			if err := mgr.AuthenticateMember(memberID, password); err != nil {
				return err
			}
			fmt.Println("Authenticated.")
			return nil
		},
	}
	cmd.Flags().Int64Var(&memberID, "member", 0, "member ID")
	cmd.MarkFlagRequired("member")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
