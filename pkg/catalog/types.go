package catalog

import "time"

// Author represents a book author
type Author struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Book represents a catalog entry. ISBN is the 13-character unique key.
type Book struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	AuthorID        int64     `json:"author_id"`
	ISBN            string    `json:"isbn"`
	PublicationYear int       `json:"publication_year"`
	OwnerID         *int64    `json:"owner_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Library represents a physical library holding books
type Library struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Librarian represents the person running a library. Each library has at
// most one librarian.
type Librarian struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	LibraryID int64     `json:"library_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BookFilter narrows and orders book listings
type BookFilter struct {
	AuthorID int64  // 0 means no filter
	Title    string // exact title match
	Search   string // substring match on title or author name
	Ordering string // title, publication_year, or - prefixed for descending
	Limit    int
	Offset   int
}
