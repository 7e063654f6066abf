package catalog

import (
	"errors"
	"fmt"
)

// Domain errors. Store operations wrap these with the offending id, so
// callers match with errors.Is and users still see which record was meant.
var (
	ErrEmptyID           = errors.New("id must not be empty")
	ErrDuplicateID       = errors.New("id already in use")
	ErrBookNotFound      = errors.New("no such book")
	ErrMemberNotFound    = errors.New("no such member")
	ErrNoCopiesAvailable = errors.New("no copies available")
	ErrAlreadyBorrowed   = errors.New("already on loan to this member")
	ErrNoActiveLoan      = errors.New("no active loan")
)

// BookOnLoanError rejects removing a book that members still have out. It
// carries the live loan count so the caller can report it.
type BookOnLoanError struct {
	ID    string
	Loans int
}

func (e *BookOnLoanError) Error() string {
	return fmt.Sprintf("book %q has %d active loan(s)", e.ID, e.Loans)
}
