package catalog

import "time"

// Book represents a title in the catalog and its current availability.
// AvailableCopies counts copies on the shelf; the gap to TotalCopies is
// the number of copies out on loan.
type Book struct {
	ID              string
	Title           string
	Author          string
	TotalCopies     int
	AvailableCopies int
}

// Member represents a registered library member.
type Member struct {
	ID   string
	Name string
}

// Loan records that a member currently has a copy of a book out. Returning
// the book deletes the record, so the loan list only ever holds active
// loans. At most one loan exists per (member, book) pair.
type Loan struct {
	MemberID string
	BookID   string
	LoanedAt time.Time
}
