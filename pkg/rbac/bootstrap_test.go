package rbac

import (
	"context"
	"testing"

	"github.com/shelfhub/shelfhub/pkg/storage"
)

func TestEnsureBuiltInGroups(t *testing.T) {
	db := storage.SetupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	if err := EnsureBuiltInGroups(ctx, store); err != nil {
		t.Fatalf("EnsureBuiltInGroups failed: %v", err)
	}

	admins, err := store.GetGroupByName(ctx, GroupAdmins)
	if err != nil {
		t.Fatalf("GetGroupByName failed: %v", err)
	}
	if !admins.IsBuiltIn {
		t.Error("Admins must be marked built-in")
	}
	// 4 resources x 4 actions
	if len(admins.Permissions) != 16 {
		t.Errorf("expected 16 admin permissions, got %d", len(admins.Permissions))
	}

	editors, err := store.GetGroupByName(ctx, GroupEditors)
	if err != nil {
		t.Fatalf("GetGroupByName failed: %v", err)
	}
	if len(editors.Permissions) != 12 {
		t.Errorf("expected 12 editor permissions, got %d", len(editors.Permissions))
	}
	if editors.HasPermission(Permission{Resource: ResourceBook, Action: ActionDelete}) {
		t.Error("editors must not hold delete")
	}

	viewers, err := store.GetGroupByName(ctx, GroupViewers)
	if err != nil {
		t.Fatalf("GetGroupByName failed: %v", err)
	}
	if len(viewers.Permissions) != 4 {
		t.Errorf("expected 4 viewer permissions, got %d", len(viewers.Permissions))
	}
}

func TestEnsureBuiltInGroupsIdempotent(t *testing.T) {
	db := storage.SetupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	if err := EnsureBuiltInGroups(ctx, store); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if err := EnsureBuiltInGroups(ctx, store); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	groups, err := store.ListGroups(ctx)
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(groups) != 3 {
		t.Errorf("expected exactly 3 groups, got %d", len(groups))
	}
}

func TestEnsureBuiltInGroupsRepairsDrift(t *testing.T) {
	db := storage.SetupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	if err := EnsureBuiltInGroups(ctx, store); err != nil {
		t.Fatalf("EnsureBuiltInGroups failed: %v", err)
	}

	viewers, err := store.GetGroupByName(ctx, GroupViewers)
	if err != nil {
		t.Fatalf("GetGroupByName failed: %v", err)
	}
	// Simulate a manual edit that stripped the group's permissions
	if err := store.UpdateGroupPermissions(ctx, viewers.ID, nil); err != nil {
		t.Fatalf("UpdateGroupPermissions failed: %v", err)
	}

	if err := EnsureBuiltInGroups(ctx, store); err != nil {
		t.Fatalf("repair run failed: %v", err)
	}

	viewers, err = store.GetGroupByName(ctx, GroupViewers)
	if err != nil {
		t.Fatalf("GetGroupByName failed: %v", err)
	}
	if len(viewers.Permissions) != 4 {
		t.Errorf("expected permissions restored, got %d", len(viewers.Permissions))
	}
}
