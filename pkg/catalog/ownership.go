package catalog

import (
	"context"
	"fmt"

	"github.com/shelfhub/shelfhub/pkg/apperr"
)

// AssignOwnersRoundRobin distributes unowned books across the given users,
// cycling through them in order. Books that already have an owner are left
// untouched. Runs in a single transaction and returns the number of books
// assigned.
func (s *Store) AssignOwnersRoundRobin(ctx context.Context, userIDs []int64) (int, error) {
	if len(userIDs) == 0 {
		return 0, apperr.NewValidation("user_ids", "at least one user is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		"SELECT id FROM books WHERE owner_id IS NULL ORDER BY id")
	if err != nil {
		return 0, fmt.Errorf("failed to list unowned books: %w", err)
	}

	var bookIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan book: %w", err)
		}
		bookIDs = append(bookIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to read unowned books: %w", err)
	}

	now := nowUTC()
	for i, bookID := range bookIDs {
		ownerID := userIDs[i%len(userIDs)]
		if _, err := tx.ExecContext(ctx,
			"UPDATE books SET owner_id = $1, updated_at = $2 WHERE id = $3",
			ownerID, now, bookID); err != nil {
			return 0, fmt.Errorf("failed to assign book %d: %w", bookID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return len(bookIDs), nil
}

// ReassignAllToAdmin hands every book to the given owner, including books
// that already have one. Runs in a single transaction and returns the number
// of books updated.
func (s *Store) ReassignAllToAdmin(ctx context.Context, adminID int64) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"UPDATE books SET owner_id = $1, updated_at = $2",
		adminID, nowUTC())
	if err != nil {
		return 0, fmt.Errorf("failed to reassign books: %w", err)
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count reassigned books: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return int(updated), nil
}
