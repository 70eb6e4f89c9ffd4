package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shelfhub/shelfhub/pkg/apperr"
)

// Store persists catalog entities
type Store struct {
	db *sql.DB
}

// NewStore creates a catalog store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// --- Authors ---

// CreateAuthor inserts a new author
func (s *Store) CreateAuthor(ctx context.Context, author *Author) error {
	now := nowUTC()
	author.CreatedAt = now
	author.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO authors (name, bio, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		author.Name, author.Bio, author.CreatedAt, author.UpdatedAt,
	).Scan(&author.ID)
	if err != nil {
		return fmt.Errorf("failed to create author: %w", err)
	}
	return nil
}

// GetAuthor fetches an author by ID
func (s *Store) GetAuthor(ctx context.Context, id int64) (*Author, error) {
	var author Author
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, bio, created_at, updated_at FROM authors WHERE id = $1", id,
	).Scan(&author.ID, &author.Name, &author.Bio, &author.CreatedAt, &author.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("author %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get author: %w", err)
	}
	return &author, nil
}

// GetAuthorByName fetches an author by exact name
func (s *Store) GetAuthorByName(ctx context.Context, name string) (*Author, error) {
	var author Author
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, bio, created_at, updated_at FROM authors WHERE name = $1", name,
	).Scan(&author.ID, &author.Name, &author.Bio, &author.CreatedAt, &author.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("author %q not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get author: %w", err)
	}
	return &author, nil
}

// ListAuthors returns all authors ordered by name
func (s *Store) ListAuthors(ctx context.Context) ([]*Author, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, bio, created_at, updated_at FROM authors ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list authors: %w", err)
	}
	defer rows.Close()

	var authors []*Author
	for rows.Next() {
		var author Author
		if err := rows.Scan(&author.ID, &author.Name, &author.Bio, &author.CreatedAt, &author.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan author: %w", err)
		}
		authors = append(authors, &author)
	}
	return authors, rows.Err()
}

// UpdateAuthor updates an author's fields
func (s *Store) UpdateAuthor(ctx context.Context, author *Author) error {
	author.UpdatedAt = nowUTC()
	result, err := s.db.ExecContext(ctx,
		"UPDATE authors SET name = $1, bio = $2, updated_at = $3 WHERE id = $4",
		author.Name, author.Bio, author.UpdatedAt, author.ID)
	if err != nil {
		return fmt.Errorf("failed to update author: %w", err)
	}
	return requireRow(result, "author", author.ID)
}

// DeleteAuthor removes an author and, via cascade, their books
func (s *Store) DeleteAuthor(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM authors WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete author: %w", err)
	}
	return requireRow(result, "author", id)
}

// --- Books ---

const bookColumns = "id, title, author_id, isbn, publication_year, owner_id, created_at, updated_at"

// CreateBook inserts a new book. The ISBN must be unique and the author must
// exist.
func (s *Store) CreateBook(ctx context.Context, book *Book) error {
	if _, err := s.GetAuthor(ctx, book.AuthorID); err != nil {
		return err
	}

	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM books WHERE isbn = $1)", book.ISBN,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check isbn: %w", err)
	}
	if exists {
		return apperr.Conflictf("isbn %s already exists", book.ISBN)
	}

	now := nowUTC()
	book.CreatedAt = now
	book.UpdatedAt = now

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO books (title, author_id, isbn, publication_year, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		book.Title, book.AuthorID, book.ISBN, book.PublicationYear, book.OwnerID,
		book.CreatedAt, book.UpdatedAt,
	).Scan(&book.ID)
	if err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

// GetBook fetches a book by ID
func (s *Store) GetBook(ctx context.Context, id int64) (*Book, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+bookColumns+" FROM books WHERE id = $1", id)
	book, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("book %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return book, nil
}

// GetBookByISBN fetches a book by its ISBN
func (s *Store) GetBookByISBN(ctx context.Context, isbn string) (*Book, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+bookColumns+" FROM books WHERE isbn = $1", isbn)
	book, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("book with isbn %s not found", isbn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return book, nil
}

// bookOrderings whitelists the ordering query parameter
var bookOrderings = map[string]string{
	"title":             "b.title ASC",
	"-title":            "b.title DESC",
	"publication_year":  "b.publication_year ASC",
	"-publication_year": "b.publication_year DESC",
}

// ListBooks returns books matching the filter
func (s *Store) ListBooks(ctx context.Context, filter BookFilter) ([]*Book, error) {
	query := `SELECT b.id, b.title, b.author_id, b.isbn, b.publication_year,
		b.owner_id, b.created_at, b.updated_at
		FROM books b
		JOIN authors a ON a.id = b.author_id`

	var conditions []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.AuthorID != 0 {
		conditions = append(conditions, "b.author_id = "+arg(filter.AuthorID))
	}
	if filter.Title != "" {
		conditions = append(conditions, "b.title = "+arg(filter.Title))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		conditions = append(conditions,
			"(b.title LIKE "+arg(pattern)+" OR a.name LIKE "+arg(pattern)+")")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	orderBy, ok := bookOrderings[filter.Ordering]
	if !ok {
		orderBy = "b.id ASC"
	}
	query += " ORDER BY " + orderBy

	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// UpdateBook updates a book's writable fields. Changing the ISBN to one held
// by another book is a conflict.
func (s *Store) UpdateBook(ctx context.Context, book *Book) error {
	if _, err := s.GetAuthor(ctx, book.AuthorID); err != nil {
		return err
	}

	var holder int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM books WHERE isbn = $1 AND id != $2", book.ISBN, book.ID,
	).Scan(&holder)
	if err == nil {
		return apperr.Conflictf("isbn %s already exists", book.ISBN)
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check isbn: %w", err)
	}

	book.UpdatedAt = nowUTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE books SET title = $1, author_id = $2, isbn = $3,
			publication_year = $4, updated_at = $5
		WHERE id = $6`,
		book.Title, book.AuthorID, book.ISBN, book.PublicationYear,
		book.UpdatedAt, book.ID)
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}
	return requireRow(result, "book", book.ID)
}

// DeleteBook removes a book
func (s *Store) DeleteBook(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM books WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	return requireRow(result, "book", id)
}

// CountBooks returns the total number of books
func (s *Store) CountBooks(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	return count, nil
}

// --- Libraries ---

// CreateLibrary inserts a new library
func (s *Store) CreateLibrary(ctx context.Context, library *Library) error {
	now := nowUTC()
	library.CreatedAt = now
	library.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO libraries (name, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		library.Name, library.Location, library.CreatedAt, library.UpdatedAt,
	).Scan(&library.ID)
	if err != nil {
		return fmt.Errorf("failed to create library: %w", err)
	}
	return nil
}

// GetLibrary fetches a library by ID
func (s *Store) GetLibrary(ctx context.Context, id int64) (*Library, error) {
	var library Library
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, location, created_at, updated_at FROM libraries WHERE id = $1", id,
	).Scan(&library.ID, &library.Name, &library.Location, &library.CreatedAt, &library.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("library %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get library: %w", err)
	}
	return &library, nil
}

// GetLibraryByName fetches a library by exact name
func (s *Store) GetLibraryByName(ctx context.Context, name string) (*Library, error) {
	var library Library
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, location, created_at, updated_at FROM libraries WHERE name = $1", name,
	).Scan(&library.ID, &library.Name, &library.Location, &library.CreatedAt, &library.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("library %q not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get library: %w", err)
	}
	return &library, nil
}

// ListLibraries returns all libraries ordered by name
func (s *Store) ListLibraries(ctx context.Context) ([]*Library, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, location, created_at, updated_at FROM libraries ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list libraries: %w", err)
	}
	defer rows.Close()

	var libraries []*Library
	for rows.Next() {
		var library Library
		if err := rows.Scan(&library.ID, &library.Name, &library.Location, &library.CreatedAt, &library.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan library: %w", err)
		}
		libraries = append(libraries, &library)
	}
	return libraries, rows.Err()
}

// AddBookToLibrary shelves a book. Adding a book twice is a no-op.
func (s *Store) AddBookToLibrary(ctx context.Context, libraryID, bookID int64) error {
	if _, err := s.GetLibrary(ctx, libraryID); err != nil {
		return err
	}
	if _, err := s.GetBook(ctx, bookID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO library_books (library_id, book_id)
		VALUES ($1, $2)
		ON CONFLICT (library_id, book_id) DO NOTHING`,
		libraryID, bookID)
	if err != nil {
		return fmt.Errorf("failed to add book to library: %w", err)
	}
	return nil
}

// RemoveBookFromLibrary unshelves a book. Removing an absent book is a no-op.
func (s *Store) RemoveBookFromLibrary(ctx context.Context, libraryID, bookID int64) error {
	if _, err := s.GetLibrary(ctx, libraryID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM library_books WHERE library_id = $1 AND book_id = $2",
		libraryID, bookID)
	if err != nil {
		return fmt.Errorf("failed to remove book from library: %w", err)
	}
	return nil
}

// GetLibraryBooks returns the books shelved in a library
func (s *Store) GetLibraryBooks(ctx context.Context, libraryID int64) ([]*Book, error) {
	if _, err := s.GetLibrary(ctx, libraryID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.title, b.author_id, b.isbn, b.publication_year,
			b.owner_id, b.created_at, b.updated_at
		FROM books b
		JOIN library_books lb ON lb.book_id = b.id
		WHERE lb.library_id = $1
		ORDER BY b.title`, libraryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get library books: %w", err)
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// --- Librarians ---

// AssignLibrarian creates the librarian for a library. A library can have at
// most one librarian.
func (s *Store) AssignLibrarian(ctx context.Context, librarian *Librarian) error {
	if _, err := s.GetLibrary(ctx, librarian.LibraryID); err != nil {
		return err
	}

	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM librarians WHERE library_id = $1)", librarian.LibraryID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check librarian: %w", err)
	}
	if exists {
		return apperr.Conflictf("library %d already has a librarian", librarian.LibraryID)
	}

	librarian.CreatedAt = nowUTC()
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO librarians (name, library_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`,
		librarian.Name, librarian.LibraryID, librarian.CreatedAt,
	).Scan(&librarian.ID)
	if err != nil {
		return fmt.Errorf("failed to assign librarian: %w", err)
	}
	return nil
}

// GetLibrarian fetches the librarian for a library
func (s *Store) GetLibrarian(ctx context.Context, libraryID int64) (*Librarian, error) {
	var librarian Librarian
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, library_id, created_at FROM librarians WHERE library_id = $1", libraryID,
	).Scan(&librarian.ID, &librarian.Name, &librarian.LibraryID, &librarian.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("library %d has no librarian", libraryID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get librarian: %w", err)
	}
	return &librarian, nil
}

// --- helpers ---

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBook(row scanner) (*Book, error) {
	var book Book
	var owner sql.NullInt64
	err := row.Scan(&book.ID, &book.Title, &book.AuthorID, &book.ISBN,
		&book.PublicationYear, &owner, &book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if owner.Valid {
		book.OwnerID = &owner.Int64
	}
	return &book, nil
}

func requireRow(result sql.Result, entity string, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		return apperr.NotFoundf("%s %d not found", entity, id)
	}
	return nil
}
