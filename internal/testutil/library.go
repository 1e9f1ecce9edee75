package testutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/mapping"
)

// Author, Book and Subject form the library fixture: an author has many
// books, and a book has one author and an optional subject.
type Author struct {
	ID    int
	Name  string
	Books []*Book
}

type Book struct {
	ID        int
	Title     string
	Price     float64
	InPrint   bool
	Published time.Time
	Author    *Author
	Subject   *Subject
}

type Subject struct {
	ID   int
	Name string
}

// Library fixture sizes.
const (
	AuthorCount  = 50
	SubjectCount = 3
)

// LibraryRegistry returns a registry with the library entities mapped.
func LibraryRegistry() *mapping.Registry {
	r := mapping.NewRegistry()
	if err := r.Register(&Author{}, &Book{}, &Subject{}); err != nil {
		panic(fmt.Sprintf("register library fixture: %v", err))
	}
	return r
}

// LibrarySchema creates the library tables.
const LibrarySchema = `
CREATE TABLE Author (
    ID   INTEGER PRIMARY KEY,
    Name TEXT NOT NULL
);
CREATE TABLE Subject (
    ID   INTEGER PRIMARY KEY,
    Name TEXT NOT NULL
);
CREATE TABLE Book (
    ID        INTEGER PRIMARY KEY,
    Title     TEXT NOT NULL,
    Price     REAL NOT NULL,
    InPrint   INTEGER NOT NULL,
    Published DATETIME NOT NULL,
    AuthorID  INTEGER REFERENCES Author(ID),
    SubjectID INTEGER REFERENCES Subject(ID)
);
`

// BooksOf returns the book ids written by author. Odd-numbered authors
// have two books each; even-numbered authors have none.
func BooksOf(author int) []int {
	if author%2 == 0 {
		return nil
	}
	return []int{author, author + 1000}
}

// SubjectOf returns the subject id of book, or 0 when the book has none.
func SubjectOf(book int) int {
	if book%5 == 0 {
		return 0
	}
	return book%SubjectCount + 1
}

// LibrarySeed returns the statements that insert the fixture rows.
func LibrarySeed() string {
	var b strings.Builder
	for s := 1; s <= SubjectCount; s++ {
		fmt.Fprintf(&b, "INSERT INTO Subject (ID, Name) VALUES (%d, 'Subject %d');\n", s, s)
	}
	for a := 1; a <= AuthorCount; a++ {
		fmt.Fprintf(&b, "INSERT INTO Author (ID, Name) VALUES (%d, 'Author %02d');\n", a, a)
		for _, id := range BooksOf(a) {
			subject := "NULL"
			if s := SubjectOf(id); s != 0 {
				subject = fmt.Sprint(s)
			}
			fmt.Fprintf(&b,
				"INSERT INTO Book (ID, Title, Price, InPrint, Published, AuthorID, SubjectID) "+
					"VALUES (%d, 'Book %d', %d.5, %d, '2001-02-03 04:05:06', %d, %s);\n",
				id, id, id%40, id%2, a, subject)
		}
	}
	return b.String()
}
