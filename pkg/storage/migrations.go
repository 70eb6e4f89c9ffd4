package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// nowUTC returns the current time truncated to whole seconds. Timestamps are
// passed as arguments rather than generated in SQL so the same statements run
// under both postgres and sqlite.
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all schema migrations in order
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id BIGSERIAL PRIMARY KEY,
					email VARCHAR(255) NOT NULL UNIQUE,
					username VARCHAR(255) NOT NULL,
					password_hash VARCHAR(255) NOT NULL,
					role VARCHAR(50) NOT NULL DEFAULT 'member',
					date_of_birth DATE,
					profile_photo_url TEXT,
					is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_users_email ON users(email);
				CREATE INDEX idx_users_role ON users(role);
			`,
		},
		{
			Version:     2,
			Description: "Create groups and membership tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS groups (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL UNIQUE,
					permissions JSONB NOT NULL DEFAULT '[]',
					is_built_in BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS user_groups (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					group_id BIGINT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
					added_at TIMESTAMP NOT NULL DEFAULT NOW(),
					UNIQUE(user_id, group_id)
				);

				CREATE INDEX idx_user_groups_user_id ON user_groups(user_id);
				CREATE INDEX idx_user_groups_group_id ON user_groups(group_id);
			`,
		},
		{
			Version:     3,
			Description: "Create user_permissions table for direct grants",
			SQL: `
				CREATE TABLE IF NOT EXISTS user_permissions (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					permission VARCHAR(100) NOT NULL,
					granted_at TIMESTAMP NOT NULL DEFAULT NOW(),
					UNIQUE(user_id, permission)
				);

				CREATE INDEX idx_user_permissions_user_id ON user_permissions(user_id);
			`,
		},
		{
			Version:     4,
			Description: "Create authors and books tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS authors (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					bio TEXT,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS books (
					id BIGSERIAL PRIMARY KEY,
					title VARCHAR(255) NOT NULL,
					author_id BIGINT NOT NULL REFERENCES authors(id) ON DELETE CASCADE,
					isbn CHAR(13) NOT NULL UNIQUE,
					publication_year INT NOT NULL,
					owner_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_books_author_id ON books(author_id);
				CREATE INDEX idx_books_owner_id ON books(owner_id);
				CREATE INDEX idx_books_title ON books(title);
			`,
		},
		{
			Version:     5,
			Description: "Create libraries, library_books and librarians tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS libraries (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					location VARCHAR(255),
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS library_books (
					id BIGSERIAL PRIMARY KEY,
					library_id BIGINT NOT NULL REFERENCES libraries(id) ON DELETE CASCADE,
					book_id BIGINT NOT NULL REFERENCES books(id) ON DELETE CASCADE,
					UNIQUE(library_id, book_id)
				);

				CREATE TABLE IF NOT EXISTS librarians (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					library_id BIGINT NOT NULL UNIQUE REFERENCES libraries(id) ON DELETE CASCADE,
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_library_books_library_id ON library_books(library_id);
				CREATE INDEX idx_library_books_book_id ON library_books(book_id);
			`,
		},
		{
			Version:     6,
			Description: "Create posts, likes and notifications tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS posts (
					id BIGSERIAL PRIMARY KEY,
					author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					title VARCHAR(255) NOT NULL,
					content TEXT NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS likes (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					post_id BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					UNIQUE(user_id, post_id)
				);

				CREATE TABLE IF NOT EXISTS notifications (
					id BIGSERIAL PRIMARY KEY,
					recipient_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					actor_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					verb VARCHAR(100) NOT NULL,
					post_id BIGINT REFERENCES posts(id) ON DELETE CASCADE,
					is_read BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_posts_author_id ON posts(author_id);
				CREATE INDEX idx_likes_post_id ON likes(post_id);
				CREATE INDEX idx_notifications_recipient_id ON notifications(recipient_id);
				CREATE INDEX idx_notifications_created_at ON notifications(created_at);
			`,
		},
		{
			Version:     7,
			Description: "Create comments table",
			SQL: `
				CREATE TABLE IF NOT EXISTS comments (
					id BIGSERIAL PRIMARY KEY,
					post_id BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
					author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					content TEXT NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_comments_post_id ON comments(post_id);
			`,
		},
	}
}

// RunMigrations applies all pending migrations
func RunMigrations(ctx context.Context, db *sql.DB) error {
	return applyMigrations(ctx, db, GetMigrations())
}

// applyMigrations records applied versions in schema_migrations and runs each
// pending migration in its own transaction.
func applyMigrations(ctx context.Context, db *sql.DB, migrations []Migration) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		appliedVersions[version] = true
	}
	rows.Close()

	for _, migration := range migrations {
		if appliedVersions[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES ($1, $2, $3)",
			migration.Version, migration.Description, nowUTC(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
