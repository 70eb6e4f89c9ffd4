package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixture describes the catalog data loaded at startup. Entities are matched
// by natural key (author name, ISBN, library name) so loading the same
// fixture twice changes nothing.
type Fixture struct {
	Authors   []FixtureAuthor    `yaml:"authors"`
	Books     []FixtureBook      `yaml:"books"`
	Libraries []FixtureLibrary   `yaml:"libraries"`
	Groups    []FixtureGroupLink `yaml:"groups"`
}

type FixtureAuthor struct {
	Name string `yaml:"name"`
	Bio  string `yaml:"bio"`
}

type FixtureBook struct {
	Title           string `yaml:"title"`
	Author          string `yaml:"author"`
	ISBN            string `yaml:"isbn"`
	PublicationYear int    `yaml:"publication_year"`
}

type FixtureLibrary struct {
	Name      string   `yaml:"name"`
	Location  string   `yaml:"location"`
	Librarian string   `yaml:"librarian"`
	Books     []string `yaml:"books"` // ISBNs shelved in this library
}

// FixtureGroupLink puts an existing user into a group by email.
type FixtureGroupLink struct {
	Group string   `yaml:"group"`
	Users []string `yaml:"users"`
}

// LoadFixture reads a fixture from a YAML file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &fixture, nil
}

// DefaultFixture is the catalog shipped when no fixture file is configured.
func DefaultFixture() *Fixture {
	return &Fixture{
		Authors: []FixtureAuthor{
			{Name: "Jane Austen", Bio: "English novelist known for social commentary."},
			{Name: "George Orwell", Bio: "English novelist and essayist."},
		},
		Books: []FixtureBook{
			{Title: "Pride and Prejudice", Author: "Jane Austen", ISBN: "9780141439518", PublicationYear: 1813},
			{Title: "Emma", Author: "Jane Austen", ISBN: "9780141439587", PublicationYear: 1815},
			{Title: "1984", Author: "George Orwell", ISBN: "9780451524935", PublicationYear: 1949},
			{Title: "Animal Farm", Author: "George Orwell", ISBN: "9780452284241", PublicationYear: 1945},
		},
		Libraries: []FixtureLibrary{
			{
				Name:      "Central Library",
				Location:  "1 Main Street",
				Librarian: "Pat Reader",
				Books:     []string{"9780141439518", "9780451524935"},
			},
			{
				Name:      "East Branch",
				Location:  "42 East Avenue",
				Librarian: "Sam Archivist",
				Books:     []string{"9780141439587", "9780452284241"},
			},
		},
	}
}
