package cli

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcrm/console/internal/backendtest"
	"github.com/cobaltcrm/console/pkg/api"
	"github.com/cobaltcrm/console/pkg/matrix"
	"github.com/cobaltcrm/console/pkg/navigation"
	"github.com/cobaltcrm/console/pkg/session"
)

const testToken = "itest-token"

func newTestApp(t *testing.T) (*app, *backendtest.Server) {
	t.Helper()

	srv := backendtest.New(t, testToken)
	t.Setenv("CONSOLE_API_URL", srv.URL())
	t.Setenv("CONSOLE_TOKEN_FILE", filepath.Join(t.TempDir(), "token"))
	t.Setenv("CONSOLE_CONFIG_FILE", "")
	t.Setenv("CONSOLE_REDIS_URL", "")

	app, err := newApp(context.Background())
	require.NoError(t, err)
	t.Cleanup(app.close)
	return app, srv
}

// Full session flow: log in, see only the granted navigation, and get
// turned away from a path without a View grant.
func TestLoginNavigateForbiddenFlow(t *testing.T) {
	app, srv := newTestApp(t)
	ctx := context.Background()

	srv.SeedGrants(
		api.Grant{Path: "/leads", Permission: "View", Module: "Sales"},
		api.Grant{Path: "/leads", Permission: "Edit", Module: "Sales"},
	)
	srv.SeedSidebar(
		api.Module{ID: 1, Name: "Sales", Menus: []api.Menu{
			{ID: 10, Name: "Leads", Path: "/leads"},
			{ID: 11, Name: "Orders", Path: "/orders"},
		}},
		api.Module{ID: 2, Name: "Admin", Menus: []api.Menu{
			{ID: 20, Name: "Users", Path: "/users"},
		}},
	)

	require.NoError(t, app.sess.Save(ctx, session.Credential{Token: testToken, IssuedAt: time.Now()}))
	require.NoError(t, app.startup(ctx))

	tree := app.builder.Tree()
	require.Len(t, tree.Modules, 1, "only Sales has a viewable menu")
	require.Len(t, tree.Modules[0].Menus, 1)
	assert.Equal(t, "/leads", tree.Modules[0].Menus[0].Path)

	require.NoError(t, app.builder.Navigate(ctx, "/leads"))
	assert.ErrorIs(t, app.builder.Navigate(ctx, "/users"), navigation.ErrForbidden)
	assert.ErrorIs(t, app.builder.Navigate(ctx, "/orders"), navigation.ErrForbidden)
}

func TestStartupWithoutCredentialFailsClosed(t *testing.T) {
	app, srv := newTestApp(t)
	ctx := context.Background()

	srv.SeedGrants(api.Grant{Path: "/leads", Permission: "View", Module: "Sales"})
	srv.SeedSidebar(api.Module{ID: 1, Name: "Sales", Menus: []api.Menu{
		{ID: 10, Name: "Leads", Path: "/leads"},
	}})

	// no login: the unauthenticated sidebar fetch 401s, the tree stays
	// empty and the permission store holds nothing
	err := app.startup(ctx)
	assert.Error(t, err)
	assert.Empty(t, app.builder.Tree().Modules)
	assert.Zero(t, app.store.Snapshot().Len())
}

func TestLogoutClearsGrantsEverywhere(t *testing.T) {
	app, srv := newTestApp(t)
	ctx := context.Background()

	srv.SeedGrants(api.Grant{Path: "/leads", Permission: "View", Module: "Sales"})
	srv.SeedSidebar(api.Module{ID: 1, Name: "Sales", Menus: []api.Menu{
		{ID: 10, Name: "Leads", Path: "/leads"},
	}})

	require.NoError(t, app.sess.Save(ctx, session.Credential{Token: testToken, IssuedAt: time.Now()}))
	require.NoError(t, app.startup(ctx))
	require.NotEmpty(t, app.builder.Tree().Modules)

	require.NoError(t, app.sess.Clear(ctx))

	// the credential-removed event clears the store and empties the tree
	require.Eventually(t, func() bool {
		return app.store.Snapshot().Len() == 0 && len(app.builder.Tree().Modules) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMatrixEditAgainstFakeBackend(t *testing.T) {
	app, srv := newTestApp(t)
	ctx := context.Background()

	srv.SeedMatrix(3,
		api.MatrixRow{
			Module: api.ModuleRef{ID: 1, Name: "Sales"},
			Menus:  []api.MatrixMenu{backendtest.MatrixMenu(10, "Leads", "/leads", 100)},
		},
	)

	require.NoError(t, app.sess.Save(ctx, session.Credential{Token: testToken, IssuedAt: time.Now()}))

	editor, err := newMatrixEditor(ctx, app, 3)
	require.NoError(t, err)

	require.NoError(t, editor.Toggle(1, 10, 100))
	require.NoError(t, editor.Save(ctx))
	assert.Equal(t, matrix.StateSaved, editor.State())

	// the committed grant shows up in a fresh fetch
	discarded, err := editor.LoadRole(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, discarded)

	rows := editor.Rows()
	require.Len(t, rows, 1)
	cell := rows[0].Menus[0].Permissions["View"]
	assert.True(t, cell.Granted)
}
