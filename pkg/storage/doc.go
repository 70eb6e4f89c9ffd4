// Package storage provides database connection management and schema migrations.
//
// # Overview
//
// The package owns the PostgreSQL connection pool and the versioned schema for
// every table in the application: identity (users, groups, permissions),
// catalog (authors, books, libraries, librarians) and the social layer
// (posts, likes, notifications).
//
// # Migrations
//
// Migrations are plain SQL applied in version order, each in its own
// transaction, with applied versions tracked in schema_migrations. Running
// them is idempotent:
//
//	db, err := storage.Connect(ctx, storage.DefaultConnectionConfig(url))
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := storage.RunMigrations(ctx, db); err != nil {
//		log.Fatal(err)
//	}
//
// # Testing
//
// SetupTestDB builds an in-memory sqlite database with an equivalent schema so
// store tests run without a PostgreSQL instance. Statements shared between
// production and tests use $N placeholders and pass timestamps as arguments,
// which both drivers accept.
package storage
