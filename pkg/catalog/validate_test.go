package catalog

import (
	"testing"
	"time"

	"github.com/shelfhub/shelfhub/pkg/apperr"
)

func TestValidateBook(t *testing.T) {
	valid := func() *Book {
		return &Book{
			Title:           "1984",
			AuthorID:        1,
			ISBN:            "9780451524935",
			PublicationYear: 1949,
		}
	}

	if err := ValidateBook(valid()); err != nil {
		t.Fatalf("valid book rejected: %v", err)
	}

	tests := []struct {
		name      string
		mutate    func(*Book)
		wantField string
	}{
		{"missing title", func(b *Book) { b.Title = "" }, "title"},
		{"missing author", func(b *Book) { b.AuthorID = 0 }, "author_id"},
		{"isbn too short", func(b *Book) { b.ISBN = "12345" }, "isbn"},
		{"isbn too long", func(b *Book) { b.ISBN = "97804515249351" }, "isbn"},
		{"future year", func(b *Book) { b.PublicationYear = time.Now().Year() + 1 }, "publication_year"},
		{"zero year", func(b *Book) { b.PublicationYear = 0 }, "publication_year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book := valid()
			tt.mutate(book)
			err := ValidateBook(book)
			ve, ok := apperr.IsValidation(err)
			if !ok {
				t.Fatalf("expected validation error, got %v", err)
			}
			if ve.Fields[tt.wantField] == "" {
				t.Errorf("expected error on %s, got %v", tt.wantField, ve.Fields)
			}
		})
	}
}

func TestValidateBookCollectsAllFields(t *testing.T) {
	err := ValidateBook(&Book{PublicationYear: time.Now().Year() + 5})
	ve, ok := apperr.IsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"title", "author_id", "isbn", "publication_year"} {
		if ve.Fields[field] == "" {
			t.Errorf("expected error on %s, got %v", field, ve.Fields)
		}
	}
}

func TestValidateBookCurrentYearAllowed(t *testing.T) {
	book := &Book{
		Title:           "Fresh Off the Press",
		AuthorID:        1,
		ISBN:            "9780451524935",
		PublicationYear: time.Now().Year(),
	}
	if err := ValidateBook(book); err != nil {
		t.Errorf("current year must be allowed: %v", err)
	}
}

func TestValidateAuthorAndLibrary(t *testing.T) {
	if err := ValidateAuthor(&Author{}); err == nil {
		t.Error("expected error for empty author name")
	}
	if err := ValidateAuthor(&Author{Name: "Jane Austen"}); err != nil {
		t.Errorf("valid author rejected: %v", err)
	}
	if err := ValidateLibrary(&Library{}); err == nil {
		t.Error("expected error for empty library name")
	}
	if err := ValidateLibrarian(&Librarian{Name: "Pat"}); err == nil {
		t.Error("expected error for missing library")
	}
}
