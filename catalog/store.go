package catalog

import (
	"fmt"
	"strings"
	"time"
)

// Store holds the whole catalog in memory: books and members keyed by id,
// plus the active loan list. Insertion order is kept separately so listings
// and saves are stable run over run. The store is not safe for concurrent
// use; the CLI drives it from a single goroutine.
type Store struct {
	books   map[string]*Book
	members map[string]*Member

	bookIDs   []string
	memberIDs []string

	loans []Loan
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		books:   make(map[string]*Book),
		members: make(map[string]*Member),
	}
}

// ------------------ Books ------------------

// AddBook registers a new title. Every copy starts available.
func (s *Store) AddBook(id, title, author string, copies int) error {
	if id == "" {
		return ErrEmptyID
	}
	if _, ok := s.books[id]; ok {
		return fmt.Errorf("book %q: %w", id, ErrDuplicateID)
	}
	s.putBook(&Book{
		ID:              id,
		Title:           title,
		Author:          author,
		TotalCopies:     copies,
		AvailableCopies: copies,
	})
	return nil
}

// RemoveBook deletes a title. Books with active loans cannot be removed;
// the returned *BookOnLoanError carries the loan count.
func (s *Store) RemoveBook(id string) error {
	if _, ok := s.books[id]; !ok {
		return fmt.Errorf("book %q: %w", id, ErrBookNotFound)
	}
	if n := s.LoanCount(id); n > 0 {
		return &BookOnLoanError{ID: id, Loans: n}
	}
	delete(s.books, id)
	for i, bid := range s.bookIDs {
		if bid == id {
			s.bookIDs = append(s.bookIDs[:i], s.bookIDs[i+1:]...)
			break
		}
	}
	return nil
}

// FindBook returns the book with the given id, or nil if there is none.
func (s *Store) FindBook(id string) *Book { return s.books[id] }

// Books lists every book in insertion order.
func (s *Store) Books() []*Book {
	out := make([]*Book, 0, len(s.bookIDs))
	for _, id := range s.bookIDs {
		out = append(out, s.books[id])
	}
	return out
}

// putBook inserts or replaces a record wholesale, keeping the original
// position on replace. The codec uses it for last-occurrence-wins loads.
func (s *Store) putBook(b *Book) {
	if _, ok := s.books[b.ID]; !ok {
		s.bookIDs = append(s.bookIDs, b.ID)
	}
	s.books[b.ID] = b
}

// ------------------ Members ------------------

// RegisterMember adds a member under a new id.
func (s *Store) RegisterMember(id, name string) error {
	if id == "" {
		return ErrEmptyID
	}
	if _, ok := s.members[id]; ok {
		return fmt.Errorf("member %q: %w", id, ErrDuplicateID)
	}
	s.putMember(&Member{ID: id, Name: name})
	return nil
}

// FindMember returns the member with the given id, or nil if there is none.
func (s *Store) FindMember(id string) *Member { return s.members[id] }

// Members lists every member in insertion order.
func (s *Store) Members() []*Member {
	out := make([]*Member, 0, len(s.memberIDs))
	for _, id := range s.memberIDs {
		out = append(out, s.members[id])
	}
	return out
}

func (s *Store) putMember(m *Member) {
	if _, ok := s.members[m.ID]; !ok {
		s.memberIDs = append(s.memberIDs, m.ID)
	}
	s.members[m.ID] = m
}

// ------------------ Search ------------------

// SearchByTitle returns every book whose title contains the keyword,
// case-insensitively, in insertion order. An empty keyword matches all.
func (s *Store) SearchByTitle(keyword string) []*Book {
	return s.searchBooks(keyword, func(b *Book) string { return b.Title })
}

// SearchByAuthor is SearchByTitle over the author field.
func (s *Store) SearchByAuthor(keyword string) []*Book {
	return s.searchBooks(keyword, func(b *Book) string { return b.Author })
}

func (s *Store) searchBooks(keyword string, field func(*Book) string) []*Book {
	needle := strings.ToLower(keyword)
	var matches []*Book
	for _, id := range s.bookIDs {
		b := s.books[id]
		if strings.Contains(strings.ToLower(field(b)), needle) {
			matches = append(matches, b)
		}
	}
	return matches
}

// ------------------ Circulation ------------------

// Lend checks one copy out to a member. Validation runs in a fixed order
// so the reported failure is deterministic: member exists, book exists,
// a copy is available, and the member does not already hold this title.
func (s *Store) Lend(memberID, bookID string) error {
	if _, ok := s.members[memberID]; !ok {
		return fmt.Errorf("member %q: %w", memberID, ErrMemberNotFound)
	}
	b, ok := s.books[bookID]
	if !ok {
		return fmt.Errorf("book %q: %w", bookID, ErrBookNotFound)
	}
	if b.AvailableCopies <= 0 {
		return fmt.Errorf("book %q: %w", bookID, ErrNoCopiesAvailable)
	}
	if s.findLoan(memberID, bookID) >= 0 {
		return fmt.Errorf("book %q: %w", bookID, ErrAlreadyBorrowed)
	}

	b.AvailableCopies--
	s.loans = append(s.loans, Loan{MemberID: memberID, BookID: bookID, LoanedAt: time.Now()})
	return nil
}

// Return ends a member's loan and puts the copy back on the shelf. The
// increment is not clamped against TotalCopies: a loan can only exist
// because Lend decremented, so lend/return symmetry keeps the count in
// range on its own.
func (s *Store) Return(memberID, bookID string) error {
	if _, ok := s.members[memberID]; !ok {
		return fmt.Errorf("member %q: %w", memberID, ErrMemberNotFound)
	}
	b, ok := s.books[bookID]
	if !ok {
		return fmt.Errorf("book %q: %w", bookID, ErrBookNotFound)
	}
	i := s.findLoan(memberID, bookID)
	if i < 0 {
		return fmt.Errorf("member %q, book %q: %w", memberID, bookID, ErrNoActiveLoan)
	}

	s.loans = append(s.loans[:i], s.loans[i+1:]...)
	b.AvailableCopies++
	return nil
}

// Loans returns a copy of the active loan list in the order the loans
// were made.
func (s *Store) Loans() []Loan {
	out := make([]Loan, len(s.loans))
	copy(out, s.loans)
	return out
}

// LoanCount reports how many active loans reference the book.
func (s *Store) LoanCount(bookID string) int {
	n := 0
	for _, l := range s.loans {
		if l.BookID == bookID {
			n++
		}
	}
	return n
}

// findLoan returns the index of the active loan for the pair, or -1.
func (s *Store) findLoan(memberID, bookID string) int {
	for i, l := range s.loans {
		if l.MemberID == memberID && l.BookID == bookID {
			return i
		}
	}
	return -1
}

// restoreLoan re-attaches a persisted loan without touching availability;
// the catalog file already stores the decremented copy counts.
func (s *Store) restoreLoan(l Loan) {
	s.loans = append(s.loans, l)
}
