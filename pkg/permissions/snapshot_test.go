package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cobaltcrm/console/pkg/api"
)

func TestSnapshotExactMatch(t *testing.T) {
	snap := newSnapshot([]api.Grant{
		{Path: "/users", Permission: "Edit", Module: "Admin"},
	}, false)

	assert.True(t, snap.CanEdit("/users"))

	// no fuzzy matching of any kind
	assert.False(t, snap.CanEdit("/users/"))
	assert.False(t, snap.CanEdit("/users/1"))
	assert.False(t, snap.CanView("/users"))
	assert.False(t, snap.CanDelete("/users"))
}

func TestSnapshotModuleQueries(t *testing.T) {
	snap := newSnapshot([]api.Grant{
		{Path: "/leads", Permission: "View", Module: "Sales"},
		{Path: "/orders", Permission: "Export", Module: "Sales"},
	}, false)

	assert.True(t, snap.HasModule("Sales", ActionView))
	assert.True(t, snap.HasModule("Sales", ActionExport))
	assert.False(t, snap.HasModule("Sales", ActionDelete))
	assert.False(t, snap.HasModule("Admin", ActionView))
}

func TestSnapshotDeniesWhileLoading(t *testing.T) {
	snap := newSnapshot([]api.Grant{
		{Path: "/users", Permission: "View", Module: "Admin"},
	}, true)

	assert.True(t, snap.Loading())
	assert.False(t, snap.CanView("/users"), "permissions unknown while loading must deny")
	assert.False(t, snap.HasModule("Admin", ActionView))
}

func TestEmptySnapshotDeniesEverything(t *testing.T) {
	snap := emptySnapshot(false)

	for _, action := range Actions() {
		assert.False(t, snap.Has("/anything", action))
		assert.False(t, snap.HasModule("Anything", action))
	}
	assert.Zero(t, snap.Len())
}
