package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/flow"
)

// newTestStore connects to DATABASE_URL and skips the test when it is unset.
func newTestStore(t *testing.T) *PGStore {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := New(pool)
	require.NoError(t, store.DropSchema(ctx))
	require.NoError(t, store.CreateSchema(ctx))
	return store
}

func TestPGStore_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	g := flow.Graph{}
	g, a, _ := g.CreateNode("gateway", flow.Position{X: 1, Y: 2})
	g, b, _ := g.CreateNode("actor", flow.Position{X: 3, Y: 4})
	g, _, ok := g.Connect(a.ID, b.ID, "", "")
	require.True(t, ok)

	require.NoError(t, store.SaveWorkflow(ctx, "wf", g))

	got, err := store.GetWorkflow(ctx, "wf")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, g, *got)

	ids, err := store.ListWorkflows(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"wf"}, ids)

	require.NoError(t, store.DeleteWorkflow(ctx, "wf"))
	got, err = store.GetWorkflow(ctx, "wf")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestPGStore_NodeDeleteCascadesEdges(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	g := flow.Graph{}
	g, a, _ := g.CreateNode("gateway", flow.Position{})
	g, b, _ := g.CreateNode("actor", flow.Position{})
	g, _, _ = g.Connect(a.ID, b.ID, "", "")
	require.NoError(t, store.SaveWorkflow(ctx, "wf", g))

	_, err := store.db.Exec(ctx, `DELETE FROM flow_nodes WHERE workflow_id = $1 AND id = $2`, "wf", b.ID)
	require.NoError(t, err)

	edges, err := listEdges(ctx, store.db, "wf")
	require.NoError(t, err)
	require.Empty(t, edges)
}
