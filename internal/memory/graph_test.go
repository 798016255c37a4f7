package memory

import (
	"context"
	"testing"

	"github.com/alvmarrod/follow-weaver/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_UpsertEdgeTwiceYieldsOneEdge(t *testing.T) {
	ctx := context.Background()
	g := NewGraph()

	require.NoError(t, g.UpsertNode(ctx, "a", "https://github.com/a"))
	require.NoError(t, g.UpsertNode(ctx, "b", "https://github.com/b"))
	require.NoError(t, g.UpsertEdge(ctx, "a", "b"))
	require.NoError(t, g.UpsertEdge(ctx, "a", "b"))

	assert.Equal(t, []storage.Edge{{Follower: "a", Followee: "b"}}, g.Edges())

	nodes, edges, err := g.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, nodes)
	assert.Equal(t, 1, edges)
}

func TestGraph_UpsertNodeUpdatesURL(t *testing.T) {
	ctx := context.Background()
	g := NewGraph()

	require.NoError(t, g.UpsertNode(ctx, "a", "old"))
	require.NoError(t, g.UpsertNode(ctx, "a", "new"))

	assert.Equal(t, "new", g.GetNode("a").URL)
	assert.Equal(t, []string{"a"}, g.Logins())
	assert.Nil(t, g.GetNode("missing"))
}

func TestGraph_EdgeRequiresBothNodes(t *testing.T) {
	ctx := context.Background()
	g := NewGraph()
	require.NoError(t, g.UpsertNode(ctx, "a", ""))

	assert.ErrorIs(t, g.UpsertEdge(ctx, "a", "b"), storage.ErrMissingNode)
	assert.ErrorIs(t, g.UpsertEdge(ctx, "b", "a"), storage.ErrMissingNode)
	assert.Empty(t, g.Edges())
}

func TestGraph_WithSession(t *testing.T) {
	ctx := context.Background()
	g := NewGraph()

	err := g.WithSession(ctx, func(w storage.Writer) error {
		return w.UpsertNode(ctx, "a", "")
	})
	require.NoError(t, err)
	assert.Equal(t, 1, g.Sessions())
	assert.NotNil(t, g.GetNode("a"))
}
