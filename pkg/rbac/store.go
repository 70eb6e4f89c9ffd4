package rbac

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shelfhub/shelfhub/pkg/apperr"
)

// Store persists groups, memberships and direct permission grants
type Store struct {
	db *sql.DB
}

// NewStore creates an RBAC store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// CreateGroup inserts a new group. The name must be unique.
func (s *Store) CreateGroup(ctx context.Context, group *Group) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM groups WHERE name = $1)", group.Name,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check group name: %w", err)
	}
	if exists {
		return apperr.Conflictf("group %s already exists", group.Name)
	}

	permsJSON, err := json.Marshal(group.Permissions)
	if err != nil {
		return fmt.Errorf("failed to marshal permissions: %w", err)
	}

	now := nowUTC()
	group.CreatedAt = now
	group.UpdatedAt = now

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO groups (name, permissions, is_built_in, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		group.Name, string(permsJSON), group.IsBuiltIn, group.CreatedAt, group.UpdatedAt,
	).Scan(&group.ID)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

// GetGroupByName fetches a group by name
func (s *Store) GetGroupByName(ctx context.Context, name string) (*Group, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, permissions, is_built_in, created_at, updated_at
		FROM groups WHERE name = $1`, name)
	group, err := scanGroup(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFoundf("group %s not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// ListGroups returns all groups ordered by name
func (s *Store) ListGroups(ctx context.Context) ([]*Group, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, permissions, is_built_in, created_at, updated_at
		FROM groups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// UpdateGroupPermissions replaces a group's permission set
func (s *Store) UpdateGroupPermissions(ctx context.Context, groupID int64, permissions []Permission) error {
	permsJSON, err := json.Marshal(permissions)
	if err != nil {
		return fmt.Errorf("failed to marshal permissions: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE groups SET permissions = $1, updated_at = $2 WHERE id = $3",
		string(permsJSON), nowUTC(), groupID)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if rows == 0 {
		return apperr.NotFoundf("group %d not found", groupID)
	}
	return nil
}

// AddUserToGroup adds a user to a group. Adding twice is a no-op.
func (s *Store) AddUserToGroup(ctx context.Context, userID, groupID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_groups (user_id, group_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, group_id) DO NOTHING`,
		userID, groupID, nowUTC())
	if err != nil {
		return fmt.Errorf("failed to add user to group: %w", err)
	}
	return nil
}

// RemoveUserFromGroup removes a membership. Removing an absent membership
// is a no-op.
func (s *Store) RemoveUserFromGroup(ctx context.Context, userID, groupID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM user_groups WHERE user_id = $1 AND group_id = $2",
		userID, groupID)
	if err != nil {
		return fmt.Errorf("failed to remove user from group: %w", err)
	}
	return nil
}

// GetUserGroups returns all groups the user belongs to
func (s *Store) GetUserGroups(ctx context.Context, userID int64) ([]*Group, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.permissions, g.is_built_in, g.created_at, g.updated_at
		FROM groups g
		JOIN user_groups ug ON ug.group_id = g.id
		WHERE ug.user_id = $1
		ORDER BY g.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user groups: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// GrantPermission grants a permission directly to a user. Granting twice
// is a no-op.
func (s *Store) GrantPermission(ctx context.Context, userID int64, perm Permission) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_permissions (user_id, permission, granted_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, permission) DO NOTHING`,
		userID, perm.Code(), nowUTC())
	if err != nil {
		return fmt.Errorf("failed to grant permission: %w", err)
	}
	return nil
}

// RevokePermission removes a direct grant. Revoking an absent grant is a no-op.
func (s *Store) RevokePermission(ctx context.Context, userID int64, perm Permission) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM user_permissions WHERE user_id = $1 AND permission = $2",
		userID, perm.Code())
	if err != nil {
		return fmt.Errorf("failed to revoke permission: %w", err)
	}
	return nil
}

// GetDirectPermissions returns the permission codes granted directly to a user
func (s *Store) GetDirectPermissions(ctx context.Context, userID int64) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT permission FROM user_permissions WHERE user_id = $1", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get direct permissions: %w", err)
	}
	defer rows.Close()

	codes := make(map[string]bool)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		codes[code] = true
	}
	return codes, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanGroup(row scanner) (*Group, error) {
	var group Group
	var permsJSON string
	err := row.Scan(&group.ID, &group.Name, &permsJSON, &group.IsBuiltIn,
		&group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(permsJSON), &group.Permissions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
	}
	return &group, nil
}
