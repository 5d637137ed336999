package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shrey-kumbhare/LMS/library"
)

// Bulk catalog importer. Reads a CSV of
// title,author,isbn,publisher,quantity and adds the rows through the
// same merge-on-ISBN path the CLI uses, so re-running an import tops up
// quantities instead of duplicating titles.
func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <database> <books.csv>\n", os.Args[0])
		os.Exit(1)
	}
	dbPath, csvPath := os.Args[1], os.Args[2]

	manager, err := library.NewLibraryManager(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 5

	successCount := 0
	errorCount := 0
	line := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			fmt.Fprintf(os.Stderr, "line %d: %v\n", line, err)
			errorCount++
			continue
		}
		if line == 1 && strings.EqualFold(record[0], "title") {
			continue // header row
		}

		quantity, err := strconv.ParseInt(strings.TrimSpace(record[4]), 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "line %d: bad quantity %q\n", line, record[4])
			errorCount++
			continue
		}

		title := strings.TrimSpace(record[0])
		author := strings.TrimSpace(record[1])
		isbn := strings.TrimSpace(record[2])
		publisher := strings.TrimSpace(record[3])

		fmt.Printf("Importing: %s by %s... ", title, author)
		if _, err := manager.AddBooks(title, author, isbn, publisher, quantity); err != nil {
			fmt.Printf("FAILED (%v)\n", err)
			errorCount++
			continue
		}
		fmt.Println("ok")
		successCount++
	}

	fmt.Printf("Import complete: %d succeeded, %d failed.\n", successCount, errorCount)
	if errorCount > 0 {
		os.Exit(1)
	}
}
