package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/shelfhub/shelfhub/pkg/apperr"
)

// BuiltInGroups returns the group definitions created at startup. Admins get
// every permission, Editors everything except delete, Viewers view only.
func BuiltInGroups() map[string][]Permission {
	var admins, editors, viewers []Permission
	for _, resource := range AllResources {
		for _, action := range AllActions {
			perm := Permission{Resource: resource, Action: action}
			admins = append(admins, perm)
			if action != ActionDelete {
				editors = append(editors, perm)
			}
			if action == ActionView {
				viewers = append(viewers, perm)
			}
		}
	}
	return map[string][]Permission{
		GroupAdmins:  admins,
		GroupEditors: editors,
		GroupViewers: viewers,
	}
}

// EnsureBuiltInGroups creates the built-in groups when missing and refreshes
// their permission sets when present. Safe to run on every startup.
func EnsureBuiltInGroups(ctx context.Context, store *Store) error {
	for name, permissions := range BuiltInGroups() {
		existing, err := store.GetGroupByName(ctx, name)
		if errors.Is(err, apperr.ErrNotFound) {
			group := &Group{
				Name:        name,
				Permissions: permissions,
				IsBuiltIn:   true,
			}
			if err := store.CreateGroup(ctx, group); err != nil {
				// A concurrent bootstrap may have won the race
				if errors.Is(err, apperr.ErrConflict) {
					continue
				}
				return fmt.Errorf("failed to create group %s: %w", name, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to look up group %s: %w", name, err)
		}

		if !samePermissions(existing.Permissions, permissions) {
			if err := store.UpdateGroupPermissions(ctx, existing.ID, permissions); err != nil {
				return fmt.Errorf("failed to refresh group %s: %w", name, err)
			}
		}
	}
	return nil
}

func samePermissions(a, b []Permission) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[Permission]bool, len(a))
	for _, p := range a {
		set[p] = true
	}
	for _, p := range b {
		if !set[p] {
			return false
		}
	}
	return true
}
