package catalog

import (
	"time"

	"github.com/shelfhub/shelfhub/pkg/apperr"
)

// ISBNLength is the required ISBN length
const ISBNLength = 13

// ValidateBook checks the writable fields of a book. All failing fields are
// reported together.
func ValidateBook(book *Book) error {
	ve := &apperr.ValidationError{}
	if book.Title == "" {
		ve.Add("title", "title is required")
	}
	if book.AuthorID == 0 {
		ve.Add("author_id", "author is required")
	}
	if len(book.ISBN) != ISBNLength {
		ve.Add("isbn", "isbn must be exactly 13 characters")
	}
	if book.PublicationYear > time.Now().Year() {
		ve.Add("publication_year", "publication year cannot be in the future")
	}
	if book.PublicationYear <= 0 {
		ve.Add("publication_year", "publication year is required")
	}
	return ve.OrNil()
}

// ValidateAuthor checks the writable fields of an author
func ValidateAuthor(author *Author) error {
	ve := &apperr.ValidationError{}
	if author.Name == "" {
		ve.Add("name", "name is required")
	}
	return ve.OrNil()
}

// ValidateLibrary checks the writable fields of a library
func ValidateLibrary(library *Library) error {
	ve := &apperr.ValidationError{}
	if library.Name == "" {
		ve.Add("name", "name is required")
	}
	return ve.OrNil()
}

// ValidateLibrarian checks the writable fields of a librarian
func ValidateLibrarian(librarian *Librarian) error {
	ve := &apperr.ValidationError{}
	if librarian.Name == "" {
		ve.Add("name", "name is required")
	}
	if librarian.LibraryID == 0 {
		ve.Add("library_id", "library is required")
	}
	return ve.OrNil()
}
