package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/shelfhub/shelfhub/pkg/apperr"
	"github.com/shelfhub/shelfhub/pkg/auth"
	"github.com/shelfhub/shelfhub/pkg/catalog"
	"github.com/shelfhub/shelfhub/pkg/config"
	"github.com/shelfhub/shelfhub/pkg/observability"
	"github.com/shelfhub/shelfhub/pkg/rbac"
)

// Seeder provisions baseline data: built-in groups, the bootstrap admin,
// and the catalog fixture. Every step is idempotent, so the seeder runs
// unconditionally on startup.
type Seeder struct {
	users   *auth.Store
	groups  *rbac.Store
	catalog *catalog.Store
	logger  *observability.Logger
}

// NewSeeder creates a seeder over the given stores
func NewSeeder(users *auth.Store, groups *rbac.Store, cat *catalog.Store, logger *observability.Logger) *Seeder {
	return &Seeder{users: users, groups: groups, catalog: cat, logger: logger}
}

// Run applies all seed steps. Safe to call on every startup.
func (s *Seeder) Run(ctx context.Context, cfg *config.Config) error {
	if err := rbac.EnsureBuiltInGroups(ctx, s.groups); err != nil {
		return fmt.Errorf("failed to ensure groups: %w", err)
	}

	if cfg.Auth.AdminPassword != "" {
		if err := s.ensureAdmin(ctx, cfg.Auth); err != nil {
			return fmt.Errorf("failed to ensure admin: %w", err)
		}
	} else {
		s.logger.Warn("no admin password configured, skipping admin bootstrap")
	}

	fixture := DefaultFixture()
	if cfg.Seed.FixturePath != "" {
		loaded, err := LoadFixture(cfg.Seed.FixturePath)
		if err != nil {
			return err
		}
		fixture = loaded
	}
	return s.ApplyFixture(ctx, fixture)
}

func (s *Seeder) ensureAdmin(ctx context.Context, cfg config.AuthConfig) error {
	_, err := s.users.GetUserByEmail(ctx, cfg.AdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := &auth.User{
		Email:        cfg.AdminEmail,
		Username:     cfg.AdminUsername,
		PasswordHash: hash,
		Role:         auth.RoleAdmin,
		IsSuperuser:  true,
		IsActive:     true,
	}
	if err := s.users.CreateUser(ctx, admin); err != nil {
		// Lost a race against another instance booting the same database
		if errors.Is(err, apperr.ErrConflict) {
			return nil
		}
		return err
	}
	s.logger.WithField("email", cfg.AdminEmail).Info("bootstrap admin created")
	return nil
}

// ApplyFixture loads catalog entities, skipping any that already exist.
func (s *Seeder) ApplyFixture(ctx context.Context, fixture *Fixture) error {
	for _, fa := range fixture.Authors {
		if err := s.ensureAuthor(ctx, fa); err != nil {
			return err
		}
	}
	for _, fb := range fixture.Books {
		if err := s.ensureBook(ctx, fb); err != nil {
			return err
		}
	}
	for _, fl := range fixture.Libraries {
		if err := s.ensureLibrary(ctx, fl); err != nil {
			return err
		}
	}
	for _, fg := range fixture.Groups {
		if err := s.ensureGroupMembers(ctx, fg); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) ensureAuthor(ctx context.Context, fa FixtureAuthor) error {
	_, err := s.catalog.GetAuthorByName(ctx, fa.Name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	author := &catalog.Author{Name: fa.Name, Bio: fa.Bio}
	if err := s.catalog.CreateAuthor(ctx, author); err != nil {
		return fmt.Errorf("failed to seed author %q: %w", fa.Name, err)
	}
	return nil
}

func (s *Seeder) ensureBook(ctx context.Context, fb FixtureBook) error {
	_, err := s.catalog.GetBookByISBN(ctx, fb.ISBN)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}

	author, err := s.catalog.GetAuthorByName(ctx, fb.Author)
	if err != nil {
		return fmt.Errorf("fixture book %q references unknown author %q: %w", fb.Title, fb.Author, err)
	}
	book := &catalog.Book{
		Title:           fb.Title,
		AuthorID:        author.ID,
		ISBN:            fb.ISBN,
		PublicationYear: fb.PublicationYear,
	}
	if err := s.catalog.CreateBook(ctx, book); err != nil {
		return fmt.Errorf("failed to seed book %q: %w", fb.Title, err)
	}
	return nil
}

func (s *Seeder) ensureLibrary(ctx context.Context, fl FixtureLibrary) error {
	library, err := s.catalog.GetLibraryByName(ctx, fl.Name)
	if errors.Is(err, apperr.ErrNotFound) {
		library = &catalog.Library{Name: fl.Name, Location: fl.Location}
		if err := s.catalog.CreateLibrary(ctx, library); err != nil {
			return fmt.Errorf("failed to seed library %q: %w", fl.Name, err)
		}
	} else if err != nil {
		return err
	}

	if fl.Librarian != "" {
		if _, err := s.catalog.GetLibrarian(ctx, library.ID); errors.Is(err, apperr.ErrNotFound) {
			librarian := &catalog.Librarian{Name: fl.Librarian, LibraryID: library.ID}
			if err := s.catalog.AssignLibrarian(ctx, librarian); err != nil {
				return fmt.Errorf("failed to seed librarian for %q: %w", fl.Name, err)
			}
		} else if err != nil {
			return err
		}
	}

	for _, isbn := range fl.Books {
		book, err := s.catalog.GetBookByISBN(ctx, isbn)
		if err != nil {
			return fmt.Errorf("fixture library %q shelves unknown isbn %s: %w", fl.Name, isbn, err)
		}
		if err := s.catalog.AddBookToLibrary(ctx, library.ID, book.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) ensureGroupMembers(ctx context.Context, fg FixtureGroupLink) error {
	group, err := s.groups.GetGroupByName(ctx, fg.Group)
	if err != nil {
		return fmt.Errorf("fixture references unknown group %q: %w", fg.Group, err)
	}
	for _, email := range fg.Users {
		user, err := s.users.GetUserByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("fixture group %q references unknown user %q: %w", fg.Group, email, err)
		}
		if err := s.groups.AddUserToGroup(ctx, user.ID, group.ID); err != nil {
			return err
		}
	}
	return nil
}
