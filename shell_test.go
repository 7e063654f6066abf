package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libcat/catalog"
)

// seedStore builds the catalog the scripted sessions run against.
func seedStore(t *testing.T) *catalog.Store {
	t.Helper()
	s := catalog.NewStore()
	require.NoError(t, s.AddBook("B1", "Dune", "Frank Herbert", 2))
	require.NoError(t, s.AddBook("B2", "Hyperion", "Dan Simmons", 1))
	require.NoError(t, s.RegisterMember("M1", "Alice"))
	require.NoError(t, s.RegisterMember("M2", "Bob"))
	return s
}

type sessionResult struct {
	out         string
	catalogFile string
	loansFile   string
}

// runSession feeds the lines to a fresh shell as if typed and returns
// everything it printed. Input ends after the last line, so scripts that
// do not end with "0" exercise the save-on-EOF path.
func runSession(t *testing.T, store *catalog.Store, lines ...string) sessionResult {
	t.Helper()
	dir := t.TempDir()
	res := sessionResult{
		catalogFile: filepath.Join(dir, "library.dat"),
		loansFile:   filepath.Join(dir, "library_loans.dat"),
	}

	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	sh := newShell(in, &out, store, res.catalogFile, res.loansFile, zerolog.Nop())
	require.NoError(t, sh.run())

	res.out = out.String()
	return res
}

func TestSessionAddLendListSaveExit(t *testing.T) {
	store := catalog.NewStore()
	res := runSession(t, store,
		"3", "M1", "Alice",
		"1", "B1", "Dune", "Frank Herbert", "2",
		"4", "M1", "B1",
		"7",
		"0",
	)

	assert.Contains(t, res.out, "Added member 'Alice' with ID M1")
	assert.Contains(t, res.out, "Added book 'Dune' (ID B1, 2 copies).")
	assert.Contains(t, res.out, "Book 'Dune' lent to member M1 (1 of 2 copies left).")
	assert.Contains(t, res.out, "1/2") // listing shows available/total
	assert.Contains(t, res.out, "Goodbye!")

	data, err := os.ReadFile(res.catalogFile)
	require.NoError(t, err)
	assert.Equal(t, "BOOK|B1|Dune|Frank Herbert|2|1\nMEMBER|M1|Alice\n", string(data))

	ledger, err := os.ReadFile(res.loansFile)
	require.NoError(t, err)
	assert.Contains(t, string(ledger), "LOAN|M1|B1|")
}

func TestSessionMenuRepeatsBeforeEveryRead(t *testing.T) {
	res := runSession(t, catalog.NewStore(), "banana", "0")

	assert.Contains(t, res.out, "Invalid option.")
	// Once before "banana", once before "0".
	assert.Equal(t, 2, strings.Count(res.out, "===== Library Catalog ====="))
}

func TestSessionRejectsBadCopyCounts(t *testing.T) {
	for _, bad := range []string{"two", "-3", ""} {
		store := catalog.NewStore()
		res := runSession(t, store, "1", "B1", "Dune", "Herbert", bad, "0")

		assert.Contains(t, res.out, "Invalid number of copies: "+bad)
		assert.Nil(t, store.FindBook("B1"), "input %q must not create the book", bad)
	}
}

func TestSessionRejectsEmptyIDs(t *testing.T) {
	store := catalog.NewStore()
	res := runSession(t, store, "1", "", "0")

	assert.Contains(t, res.out, "Error: ID cannot be empty")
	assert.Empty(t, store.Books())
}

func TestSessionReportsDomainErrors(t *testing.T) {
	store := seedStore(t)
	res := runSession(t, store,
		"1", "B1", "Impostor", "Nobody", "1",
		"4", "ghost", "B1",
		"5", "M1", "B1",
		"2", "nope",
		"0",
	)

	assert.Contains(t, res.out, "Error adding book: book \"B1\": id already in use")
	assert.Contains(t, res.out, "Error lending book: member \"ghost\": no such member")
	assert.Contains(t, res.out, "Error returning book: member \"M1\", book \"B1\": no active loan")
	assert.Contains(t, res.out, "Error removing book: book \"nope\": no such book")
}

func TestSessionSearchSubmenu(t *testing.T) {
	store := seedStore(t)
	res := runSession(t, store,
		"6", "2", "dun",
		"6", "3", "simmons",
		"6", "1", "B2",
		"6", "1", "nope",
		"6", "9",
		"0",
	)

	assert.Contains(t, res.out, "Found 1 book(s) matching 'dun':")
	assert.Contains(t, res.out, "Dune")
	assert.Contains(t, res.out, "Found 1 book(s) matching 'simmons':")
	assert.Contains(t, res.out, "Hyperion")
	assert.Contains(t, res.out, "No book found with ID nope.")
	assert.Contains(t, res.out, "Invalid option.")
}

func TestSessionSearchNoMatches(t *testing.T) {
	res := runSession(t, seedStore(t), "6", "2", "solaris", "0")
	assert.Contains(t, res.out, "No books found matching 'solaris'.")
}

func TestSessionRemoveBookOnLoan(t *testing.T) {
	store := seedStore(t)
	require.NoError(t, store.Lend("M1", "B1"))

	res := runSession(t, store,
		"2", "B1",
		"5", "M1", "B1",
		"2", "B1",
		"0",
	)

	assert.Contains(t, res.out, "Cannot remove book B1: 1 active loan(s).")
	assert.Contains(t, res.out, "Book 'Dune' returned by member M1 (2 of 2 copies left).")
	assert.Contains(t, res.out, "Removed book B1.")
	assert.Nil(t, store.FindBook("B1"))
}

func TestSessionListsWhenEmpty(t *testing.T) {
	res := runSession(t, catalog.NewStore(), "7", "8", "0")

	assert.Contains(t, res.out, "No books in library.")
	assert.Contains(t, res.out, "No members registered.")
}

func TestSessionExplicitSave(t *testing.T) {
	store := seedStore(t)
	require.NoError(t, store.Lend("M1", "B2"))
	res := runSession(t, store, "9", "0")

	assert.Contains(t, res.out, "Saved 2 book(s) and 2 member(s) to "+res.catalogFile+".")
	assert.Contains(t, res.out, "Saved 1 active loan(s) to "+res.loansFile+".")

	data, err := os.ReadFile(res.catalogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "BOOK|B1|Dune|Frank Herbert|2|2\n")
}

func TestSessionEndOfInputSavesAndExits(t *testing.T) {
	store := catalog.NewStore()
	res := runSession(t, store, "3", "M1", "Alice") // no exit option, just EOF

	assert.Contains(t, res.out, "Goodbye!")

	data, err := os.ReadFile(res.catalogFile)
	require.NoError(t, err)
	assert.Equal(t, "MEMBER|M1|Alice\n", string(data))
}

func TestSessionLoanLedgerDisabled(t *testing.T) {
	dir := t.TempDir()
	catalogFile := filepath.Join(dir, "library.dat")
	ledgerFile := filepath.Join(dir, "library_loans.dat")

	store := seedStore(t)
	require.NoError(t, store.Lend("M1", "B1"))

	var out bytes.Buffer
	sh := newShell(strings.NewReader("9\n0\n"), &out, store, catalogFile, "", zerolog.Nop())
	require.NoError(t, sh.run())

	assert.Contains(t, out.String(), "Saved 2 book(s) and 2 member(s) to "+catalogFile+".")
	assert.NotContains(t, out.String(), "active loan(s)")

	_, err := os.Stat(catalogFile)
	require.NoError(t, err)
	_, err = os.Stat(ledgerFile)
	assert.True(t, os.IsNotExist(err), "disabled ledger must not write a file")
}
