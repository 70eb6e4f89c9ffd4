package seed

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfhub/shelfhub/pkg/auth"
	"github.com/shelfhub/shelfhub/pkg/catalog"
	"github.com/shelfhub/shelfhub/pkg/config"
	"github.com/shelfhub/shelfhub/pkg/observability"
	"github.com/shelfhub/shelfhub/pkg/rbac"
	"github.com/shelfhub/shelfhub/pkg/storage"
)

func setupSeeder(t *testing.T) (*Seeder, *auth.Store, *rbac.Store, *catalog.Store) {
	t.Helper()
	db := storage.SetupTestDB(t)
	users := auth.NewStore(db)
	groups := rbac.NewStore(db)
	cat := catalog.NewStore(db)
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	return NewSeeder(users, groups, cat, logger), users, groups, cat
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			AdminEmail:    "admin@shelfhub.local",
			AdminUsername: "admin",
			AdminPassword: "bootstrap-secret",
		},
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	seeder, users, groups, cat := setupSeeder(t)
	ctx := context.Background()
	cfg := testConfig()

	require.NoError(t, seeder.Run(ctx, cfg))
	require.NoError(t, seeder.Run(ctx, cfg))

	userCount, err := users.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), userCount, "admin must not be duplicated")

	bookCount, err := cat.CountBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), bookCount, "fixture books must not be duplicated")

	allGroups, err := groups.ListGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, allGroups, len(rbac.BuiltInGroups()))
}

func TestSeedBootstrapAdmin(t *testing.T) {
	seeder, users, _, _ := setupSeeder(t)
	ctx := context.Background()

	require.NoError(t, seeder.Run(ctx, testConfig()))

	admin, err := users.GetUserByEmail(ctx, "admin@shelfhub.local")
	require.NoError(t, err)
	assert.True(t, admin.IsSuperuser)
	assert.Equal(t, auth.RoleAdmin, admin.Role)
	assert.True(t, auth.CheckPassword(admin.PasswordHash, "bootstrap-secret"))
}

func TestSeedSkipsAdminWithoutPassword(t *testing.T) {
	seeder, users, _, _ := setupSeeder(t)
	ctx := context.Background()

	cfg := testConfig()
	cfg.Auth.AdminPassword = ""
	require.NoError(t, seeder.Run(ctx, cfg))

	count, err := users.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "no admin should be created without a password")
}

func TestSeedDefaultFixtureWiring(t *testing.T) {
	seeder, _, _, cat := setupSeeder(t)
	ctx := context.Background()

	require.NoError(t, seeder.Run(ctx, testConfig()))

	library, err := cat.GetLibraryByName(ctx, "Central Library")
	require.NoError(t, err)

	books, err := cat.GetLibraryBooks(ctx, library.ID)
	require.NoError(t, err)
	assert.Len(t, books, 2)

	librarian, err := cat.GetLibrarian(ctx, library.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pat Reader", librarian.Name)
}

func TestSeedFromFixtureFile(t *testing.T) {
	seeder, _, _, cat := setupSeeder(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "fixture.yaml")
	fixture := `
authors:
  - name: Mary Shelley
    bio: Gothic novelist.
books:
  - title: Frankenstein
    author: Mary Shelley
    isbn: "9780486282114"
    publication_year: 1818
libraries:
  - name: North Branch
    location: 9 North Road
    librarian: Robin Stacks
    books: ["9780486282114"]
`
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

	cfg := testConfig()
	cfg.Seed.FixturePath = path
	require.NoError(t, seeder.Run(ctx, cfg))
	require.NoError(t, seeder.Run(ctx, cfg), "fixture load must be idempotent")

	book, err := cat.GetBookByISBN(ctx, "9780486282114")
	require.NoError(t, err)
	assert.Equal(t, "Frankenstein", book.Title)

	_, err = cat.GetLibraryByName(ctx, "North Branch")
	require.NoError(t, err)
}

func TestLoadFixtureMissingFile(t *testing.T) {
	_, err := LoadFixture("/nonexistent/fixture.yaml")
	require.Error(t, err)
}
