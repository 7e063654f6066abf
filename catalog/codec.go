package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// The catalog file holds one record per line, fields separated by pipes:
//
//	BOOK|<id>|<title>|<author>|<totalCopies>|<availableCopies>
//	MEMBER|<id>|<name>
//
// The loan ledger is a separate file with a single record type:
//
//	LOAN|<memberId>|<bookId>|<loanedAt, RFC 3339 with nanoseconds>
//
// Loans never appear in the catalog file, so a freshly saved catalog with
// no active loans reloads into an identical store.
const (
	recordBook   = "BOOK"
	recordMember = "MEMBER"
	recordLoan   = "LOAN"
)

const loanTimeLayout = time.RFC3339Nano

// LoadStats reports what a catalog load actually did. Skipped counts lines
// the tolerant parser dropped (unknown tag, too few fields, empty id);
// blank lines are ignored without being counted.
type LoadStats struct {
	Books   int
	Members int
	Skipped int
}

// LedgerStats is LoadStats for the loan ledger.
type LedgerStats struct {
	Loans   int
	Skipped int
}

// sanitize keeps free-text fields from corrupting the line format. Lossy:
// pipes become spaces. Ids are written verbatim since they never round-trip
// through here.
func sanitize(field string) string {
	return strings.ReplaceAll(field, "|", " ")
}

// ------------------ Catalog ------------------

// Save writes every book and then every member, one line each, both in
// insertion order.
func Save(w io.Writer, s *Store) error {
	for _, b := range s.Books() {
		_, err := fmt.Fprintf(w, "%s|%s|%s|%s|%d|%d\n",
			recordBook, b.ID, sanitize(b.Title), sanitize(b.Author), b.TotalCopies, b.AvailableCopies)
		if err != nil {
			return err
		}
	}
	for _, m := range s.Members() {
		if _, err := fmt.Fprintf(w, "%s|%s|%s\n", recordMember, m.ID, sanitize(m.Name)); err != nil {
			return err
		}
	}
	return nil
}

// SaveFile overwrites path with the current catalog. The write truncates in
// place rather than renaming a temp file; at this tool's scale a crash
// mid-save losing the file is an accepted risk.
func SaveFile(path string, s *Store) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	if err := Save(f, s); err != nil {
		f.Close()
		return fmt.Errorf("save catalog: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}

// Load reads pipe-delimited records into s. A record whose id is already
// present replaces the earlier one wholesale but keeps its position, so the
// last occurrence in the file wins. Malformed lines are skipped and counted,
// never fatal; only a read failure returns an error.
func Load(r io.Reader, s *Store) (LoadStats, error) {
	var stats LoadStats
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "|")
		switch fields[0] {
		case recordBook:
			if len(fields) < 6 || fields[1] == "" {
				stats.Skipped++
				continue
			}
			// Unparseable counts degrade instead of killing the record:
			// total falls back to 0, available to total.
			total, err := strconv.Atoi(fields[4])
			if err != nil {
				total = 0
			}
			avail, err := strconv.Atoi(fields[5])
			if err != nil {
				avail = total
			}
			s.putBook(&Book{
				ID:              fields[1],
				Title:           fields[2],
				Author:          fields[3],
				TotalCopies:     total,
				AvailableCopies: avail,
			})
			stats.Books++
		case recordMember:
			if len(fields) < 3 || fields[1] == "" {
				stats.Skipped++
				continue
			}
			s.putMember(&Member{ID: fields[1], Name: fields[2]})
			stats.Members++
		default:
			stats.Skipped++
		}
	}
	if err := sc.Err(); err != nil {
		return stats, fmt.Errorf("load catalog: %w", err)
	}
	return stats, nil
}

// LoadFile loads path into s. A missing file is not an error; the catalog
// simply starts empty.
func LoadFile(path string, s *Store) (LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return LoadStats{}, nil
		}
		return LoadStats{}, fmt.Errorf("load catalog: %w", err)
	}
	defer f.Close()
	return Load(f, s)
}

// ------------------ Loan ledger ------------------

// SaveLoans writes the active-loan ledger, one line per loan in the order
// the loans were made.
func SaveLoans(w io.Writer, s *Store) error {
	for _, l := range s.Loans() {
		_, err := fmt.Fprintf(w, "%s|%s|%s|%s\n",
			recordLoan, l.MemberID, l.BookID, l.LoanedAt.Format(loanTimeLayout))
		if err != nil {
			return err
		}
	}
	return nil
}

// SaveLoansFile overwrites path with the current ledger.
func SaveLoansFile(path string, s *Store) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save loan ledger: %w", err)
	}
	if err := SaveLoans(f, s); err != nil {
		f.Close()
		return fmt.Errorf("save loan ledger: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("save loan ledger: %w", err)
	}
	return nil
}

// LoadLoans restores active loans into s. Availability is left alone; the
// catalog file already carries the decremented copy counts. Records that
// cannot be re-attached are skipped and counted: short or mistagged lines,
// bad timestamps, unknown members or books (the catalog may have changed
// since the ledger was written), and duplicate pairs.
func LoadLoans(r io.Reader, s *Store) (LedgerStats, error) {
	var stats LedgerStats
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if fields[0] != recordLoan || len(fields) < 4 {
			stats.Skipped++
			continue
		}
		memberID, bookID := fields[1], fields[2]
		loanedAt, err := time.Parse(loanTimeLayout, fields[3])
		if err != nil {
			stats.Skipped++
			continue
		}
		if s.FindMember(memberID) == nil || s.FindBook(bookID) == nil {
			stats.Skipped++
			continue
		}
		if s.findLoan(memberID, bookID) >= 0 {
			stats.Skipped++
			continue
		}
		s.restoreLoan(Loan{MemberID: memberID, BookID: bookID, LoanedAt: loanedAt})
		stats.Loans++
	}
	if err := sc.Err(); err != nil {
		return stats, fmt.Errorf("load loan ledger: %w", err)
	}
	return stats, nil
}

// LoadLoansFile loads the ledger at path into s. Like LoadFile, a missing
// file just means no active loans.
func LoadLoansFile(path string, s *Store) (LedgerStats, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return LedgerStats{}, nil
		}
		return LedgerStats{}, fmt.Errorf("load loan ledger: %w", err)
	}
	defer f.Close()
	return LoadLoans(f, s)
}
