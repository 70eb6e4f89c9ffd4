package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shelfhub/shelfhub/pkg/apperr"
)

// Store persists users
type Store struct {
	db *sql.DB
}

// NewStore creates a user store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const userColumns = `id, email, username, password_hash, role, date_of_birth,
	profile_photo_url, is_superuser, is_active, created_at, updated_at`

// CreateUser inserts a new user. The email must be unique.
func (s *Store) CreateUser(ctx context.Context, user *User) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", user.Email,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return apperr.Conflictf("email %s is already registered", user.Email)
	}

	now := time.Now().UTC().Truncate(time.Second)
	user.CreatedAt = now
	user.UpdatedAt = now

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, username, password_hash, role, date_of_birth,
			profile_photo_url, is_superuser, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		user.Email, user.Username, user.PasswordHash, user.Role, user.DateOfBirth,
		nullString(user.ProfilePhotoURL), user.IsSuperuser, user.IsActive,
		user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID fetches a user by ID
func (s *Store) GetUserByID(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("user %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByEmail fetches a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1", email)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("user with email %s not found", email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateProfile updates a user's mutable profile fields
func (s *Store) UpdateProfile(ctx context.Context, id int64, username string, dateOfBirth *time.Time, photoURL string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET username = $1, date_of_birth = $2, profile_photo_url = $3, updated_at = $4
		WHERE id = $5`,
		username, dateOfBirth, nullString(photoURL),
		time.Now().UTC().Truncate(time.Second), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if rows == 0 {
		return apperr.NotFoundf("user %d not found", id)
	}
	return nil
}

// ListByRole returns all active users with the given role, ordered by ID
func (s *Store) ListByRole(ctx context.Context, role Role) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE role = $1 AND is_active ORDER BY id", role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CountUsers returns the total number of users
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row scanner) (*User, error) {
	var user User
	var dob sql.NullTime
	var photo sql.NullString
	err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.Role,
		&dob, &photo, &user.IsSuperuser, &user.IsActive,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if dob.Valid {
		user.DateOfBirth = &dob.Time
	}
	if photo.Valid {
		user.ProfilePhotoURL = photo.String
	}
	return &user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
