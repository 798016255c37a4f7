package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alvmarrod/follow-weaver/internal/storage"
)

// Graph holds the follow graph in memory. It implements storage.GraphStore
// and backs dry runs as well as tests.
type Graph struct {
	nodes    map[string]*storage.Node // login -> node
	edges    map[storage.Edge]struct{}
	sessions int
	mu       sync.RWMutex
}

// NewGraph creates a new in-memory graph
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*storage.Node),
		edges: make(map[storage.Edge]struct{}),
	}
}

// WithSession hands the graph itself to fn; there is nothing to acquire
func (g *Graph) WithSession(ctx context.Context, fn func(w storage.Writer) error) error {
	g.mu.Lock()
	g.sessions++
	g.mu.Unlock()

	return fn(g)
}

// UpsertNode inserts a node or updates its url
func (g *Graph) UpsertNode(ctx context.Context, login, url string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if node, exists := g.nodes[login]; exists {
		node.URL = url
		return nil
	}

	g.nodes[login] = &storage.Node{
		Login:     login,
		URL:       url,
		CreatedAt: time.Now(),
	}
	return nil
}

// UpsertEdge records follower->followee once; both nodes must exist
func (g *Graph) UpsertEdge(ctx context.Context, follower, followee string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[follower]; !exists {
		return fmt.Errorf("follower %s: %w", follower, storage.ErrMissingNode)
	}
	if _, exists := g.nodes[followee]; !exists {
		return fmt.Errorf("followee %s: %w", followee, storage.ErrMissingNode)
	}

	g.edges[storage.Edge{Follower: follower, Followee: followee}] = struct{}{}
	return nil
}

// GetNode retrieves a node by login, nil when absent
func (g *Graph) GetNode(login string) *storage.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if node, exists := g.nodes[login]; exists {
		// Return a copy to prevent external modifications
		nodeCopy := *node
		return &nodeCopy
	}
	return nil
}

// Logins returns every stored login, sorted
func (g *Graph) Logins() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	logins := make([]string, 0, len(g.nodes))
	for login := range g.nodes {
		logins = append(logins, login)
	}
	sort.Strings(logins)
	return logins
}

// Edges returns every relationship sorted by follower then followee
func (g *Graph) Edges() []storage.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := make([]storage.Edge, 0, len(g.edges))
	for e := range g.edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Follower != edges[j].Follower {
			return edges[i].Follower < edges[j].Follower
		}
		return edges[i].Followee < edges[j].Followee
	})
	return edges
}

// Sessions returns how many sessions were opened
func (g *Graph) Sessions() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.sessions
}

// Stats returns current graph statistics
func (g *Graph) Stats(ctx context.Context) (nodes, edges int, err error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.nodes), len(g.edges), nil
}

// Close is a no-op
func (g *Graph) Close(ctx context.Context) error {
	return nil
}
