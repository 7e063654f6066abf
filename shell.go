package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"libcat/catalog"
)

// shell runs the interactive menu loop. Input and output are injected so
// tests can script a whole session against buffers.
type shell struct {
	in    *bufio.Scanner
	out   io.Writer
	store *catalog.Store

	catalogFile string
	loansFile   string // empty disables the loan ledger

	log zerolog.Logger
}

func newShell(in io.Reader, out io.Writer, store *catalog.Store, catalogFile, loansFile string, log zerolog.Logger) *shell {
	return &shell{
		in:          bufio.NewScanner(in),
		out:         out,
		store:       store,
		catalogFile: catalogFile,
		loansFile:   loansFile,
		log:         log,
	}
}

const menu = `
===== Library Catalog =====
 1) Add book
 2) Remove book
 3) Register member
 4) Lend book
 5) Return book
 6) Search books
 7) List books
 8) List members
 9) Save catalog
 0) Save and exit
`

// run loops until the exit option. End of input counts as save-and-exit so
// scripted sessions still persist their work. The returned error is only
// ever a failed save on the way out; mid-session errors are printed and
// the loop keeps going.
func (s *shell) run() error {
	fmt.Fprintf(s.out, "Welcome to the library catalog (%s).\n", s.catalogFile)

	for {
		fmt.Fprint(s.out, menu)
		choice, ok := s.prompt("Select an option: ")
		if !ok {
			return s.exit()
		}

		switch choice {
		case "1":
			s.handleAddBook()
		case "2":
			s.handleRemoveBook()
		case "3":
			s.handleRegisterMember()
		case "4":
			s.handleLend()
		case "5":
			s.handleReturn()
		case "6":
			s.handleSearch()
		case "7":
			s.handleListBooks()
		case "8":
			s.handleListMembers()
		case "9":
			s.handleSave()
		case "0":
			return s.exit()
		default:
			fmt.Fprintln(s.out, "Invalid option.")
		}
	}
}

// prompt prints a label and reads one trimmed line. ok is false once input
// is exhausted; handlers treat that as "abort this operation".
func (s *shell) prompt(label string) (string, bool) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

// promptID enforces the non-empty id rule shared by every operation that
// takes an id.
func (s *shell) promptID(label string) (string, bool) {
	id, ok := s.prompt(label)
	if !ok {
		return "", false
	}
	if id == "" {
		fmt.Fprintln(s.out, "Error: ID cannot be empty")
		return "", false
	}
	return id, true
}

func (s *shell) handleAddBook() {
	id, ok := s.promptID("Book ID: ")
	if !ok {
		return
	}
	title, ok := s.prompt("Title: ")
	if !ok {
		return
	}
	author, ok := s.prompt("Author: ")
	if !ok {
		return
	}
	copiesStr, ok := s.prompt("Copies: ")
	if !ok {
		return
	}
	copies, err := strconv.Atoi(copiesStr)
	if err != nil || copies < 0 {
		fmt.Fprintf(s.out, "Invalid number of copies: %s\n", copiesStr)
		return
	}

	if err := s.store.AddBook(id, title, author, copies); err != nil {
		fmt.Fprintf(s.out, "Error adding book: %v\n", err)
		return
	}
	s.log.Debug().Str("book", id).Int("copies", copies).Msg("book added")
	fmt.Fprintf(s.out, "Added book '%s' (ID %s, %d copies).\n", title, id, copies)
}

func (s *shell) handleRemoveBook() {
	id, ok := s.promptID("Book ID: ")
	if !ok {
		return
	}

	if err := s.store.RemoveBook(id); err != nil {
		var onLoan *catalog.BookOnLoanError
		if errors.As(err, &onLoan) {
			fmt.Fprintf(s.out, "Cannot remove book %s: %d active loan(s).\n", id, onLoan.Loans)
			return
		}
		fmt.Fprintf(s.out, "Error removing book: %v\n", err)
		return
	}
	s.log.Debug().Str("book", id).Msg("book removed")
	fmt.Fprintf(s.out, "Removed book %s.\n", id)
}

func (s *shell) handleRegisterMember() {
	id, ok := s.promptID("Member ID: ")
	if !ok {
		return
	}
	name, ok := s.prompt("Name: ")
	if !ok {
		return
	}

	if err := s.store.RegisterMember(id, name); err != nil {
		fmt.Fprintf(s.out, "Error registering member: %v\n", err)
		return
	}
	s.log.Debug().Str("member", id).Msg("member registered")
	fmt.Fprintf(s.out, "Added member '%s' with ID %s\n", name, id)
}

func (s *shell) handleLend() {
	memberID, ok := s.promptID("Member ID: ")
	if !ok {
		return
	}
	bookID, ok := s.promptID("Book ID: ")
	if !ok {
		return
	}

	if err := s.store.Lend(memberID, bookID); err != nil {
		fmt.Fprintf(s.out, "Error lending book: %v\n", err)
		return
	}
	b := s.store.FindBook(bookID)
	s.log.Debug().Str("member", memberID).Str("book", bookID).Msg("book lent")
	fmt.Fprintf(s.out, "Book '%s' lent to member %s (%d of %d copies left).\n",
		b.Title, memberID, b.AvailableCopies, b.TotalCopies)
}

func (s *shell) handleReturn() {
	memberID, ok := s.promptID("Member ID: ")
	if !ok {
		return
	}
	bookID, ok := s.promptID("Book ID: ")
	if !ok {
		return
	}

	if err := s.store.Return(memberID, bookID); err != nil {
		fmt.Fprintf(s.out, "Error returning book: %v\n", err)
		return
	}
	b := s.store.FindBook(bookID)
	s.log.Debug().Str("member", memberID).Str("book", bookID).Msg("book returned")
	fmt.Fprintf(s.out, "Book '%s' returned by member %s (%d of %d copies left).\n",
		b.Title, memberID, b.AvailableCopies, b.TotalCopies)
}

func (s *shell) handleSearch() {
	fmt.Fprint(s.out, "\n 1) By ID\n 2) By title\n 3) By author\n")
	choice, ok := s.prompt("Search by: ")
	if !ok {
		return
	}

	switch choice {
	case "1":
		id, ok := s.promptID("Book ID: ")
		if !ok {
			return
		}
		b := s.store.FindBook(id)
		if b == nil {
			fmt.Fprintf(s.out, "No book found with ID %s.\n", id)
			return
		}
		s.printBooks([]*catalog.Book{b})
	case "2":
		keyword, ok := s.prompt("Title keyword: ")
		if !ok {
			return
		}
		s.printSearchResults(s.store.SearchByTitle(keyword), keyword)
	case "3":
		keyword, ok := s.prompt("Author keyword: ")
		if !ok {
			return
		}
		s.printSearchResults(s.store.SearchByAuthor(keyword), keyword)
	default:
		fmt.Fprintln(s.out, "Invalid option.")
	}
}

func (s *shell) handleListBooks() {
	books := s.store.Books()
	if len(books) == 0 {
		fmt.Fprintln(s.out, "No books in library.")
		return
	}
	s.printBooks(books)
}

func (s *shell) handleListMembers() {
	members := s.store.Members()
	if len(members) == 0 {
		fmt.Fprintln(s.out, "No members registered.")
		return
	}

	fmt.Fprintf(s.out, "%-10s %s\n", "ID", "Name")
	fmt.Fprintln(s.out, strings.Repeat("-", 40))
	for _, m := range members {
		fmt.Fprintf(s.out, "%-10s %s\n", m.ID, m.Name)
	}
}

// handleSave reports the outcome on the console. A failed save is an
// operational error like any other and keeps the session alive.
func (s *shell) handleSave() {
	if err := s.save(); err != nil {
		fmt.Fprintf(s.out, "Error saving catalog: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Saved %d book(s) and %d member(s) to %s.\n",
		len(s.store.Books()), len(s.store.Members()), s.catalogFile)
	if s.loansFile != "" {
		fmt.Fprintf(s.out, "Saved %d active loan(s) to %s.\n",
			len(s.store.Loans()), s.loansFile)
	}
}

// exit saves and says goodbye. A failed save here does surface as an
// error: exiting without persisting is the one failure worth a nonzero
// exit status.
func (s *shell) exit() error {
	if err := s.save(); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Goodbye!")
	return nil
}

// save overwrites the catalog file, and the loan ledger when enabled.
func (s *shell) save() error {
	if err := catalog.SaveFile(s.catalogFile, s.store); err != nil {
		return err
	}
	s.log.Info().
		Str("file", s.catalogFile).
		Int("books", len(s.store.Books())).
		Int("members", len(s.store.Members())).
		Msg("catalog saved")

	if s.loansFile == "" {
		return nil
	}
	if err := catalog.SaveLoansFile(s.loansFile, s.store); err != nil {
		return err
	}
	s.log.Info().
		Str("file", s.loansFile).
		Int("loans", len(s.store.Loans())).
		Msg("loan ledger saved")
	return nil
}

func (s *shell) printSearchResults(books []*catalog.Book, keyword string) {
	if len(books) == 0 {
		fmt.Fprintf(s.out, "No books found matching '%s'.\n", keyword)
		return
	}
	fmt.Fprintf(s.out, "Found %d book(s) matching '%s':\n", len(books), keyword)
	s.printBooks(books)
}

func (s *shell) printBooks(books []*catalog.Book) {
	fmt.Fprintf(s.out, "%-10s %-30s %-25s %s\n", "ID", "Title", "Author", "Copies")
	fmt.Fprintln(s.out, strings.Repeat("-", 75))
	for _, b := range books {
		fmt.Fprintf(s.out, "%-10s %-30s %-25s %d/%d\n",
			b.ID, truncateString(b.Title, 30), truncateString(b.Author, 25),
			b.AvailableCopies, b.TotalCopies)
	}
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength-3] + "..."
}
