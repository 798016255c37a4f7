package storage

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"
)

const (
	upsertUserQuery = `
		MERGE (u:User {username: $username})
		SET u.url = $url
	`

	upsertFollowQuery = `
		MATCH (a:User {username: $follower}), (b:User {username: $followee})
		MERGE (a)-[:FOLLOWS]->(b)
		RETURN count(*) AS matched
	`

	userConstraintQuery = `
		CREATE CONSTRAINT user_username IF NOT EXISTS
		FOR (u:User) REQUIRE u.username IS UNIQUE
	`
)

// Neo4jStore writes the follow graph as (:User)-[:FOLLOWS]->(:User)
type Neo4jStore struct {
	driver neo4j.DriverWithContext
}

// NewNeo4jStore connects to Neo4j, verifies connectivity and ensures the uniqueness constraint
func NewNeo4jStore(ctx context.Context, uri, user, password string) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}

	store := &Neo4jStore{driver: driver}
	if err := store.initSchema(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Neo4jStore) initSchema(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	result, err := session.Run(ctx, userConstraintQuery, nil)
	if err != nil {
		return err
	}
	_, err = result.Consume(ctx)
	return err
}

// WithSession opens one write session for fn and closes it on every path
func (s *Neo4jStore) WithSession(ctx context.Context, fn func(w Writer) error) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer func() {
		if err := session.Close(ctx); err != nil {
			logrus.Warnf("Failed to close Neo4j session: %v", err)
		}
	}()

	return fn(&neo4jWriter{session: session})
}

// Stats returns the number of User nodes and FOLLOWS relationships
func (s *Neo4jStore) Stats(ctx context.Context) (nodes, edges int, err error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (u:User)
		OPTIONAL MATCH (u)-[f:FOLLOWS]->(:User)
		RETURN count(DISTINCT u) AS nodes, count(f) AS edges
	`, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count graph: %w", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read graph counts: %w", err)
	}

	return getIntFromRecord(record, "nodes"), getIntFromRecord(record, "edges"), nil
}

// Close closes the Neo4j driver connection
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

type neo4jWriter struct {
	session neo4j.SessionWithContext
}

func (w *neo4jWriter) UpsertNode(ctx context.Context, login, url string) error {
	_, err := w.session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, upsertUserQuery, map[string]any{
			"username": login,
			"url":      url,
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to upsert node %s: %w", login, err)
	}
	return nil
}

func (w *neo4jWriter) UpsertEdge(ctx context.Context, follower, followee string) error {
	matched, err := w.session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, upsertFollowQuery, map[string]any{
			"follower": follower,
			"followee": followee,
		})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		return getIntFromRecord(record, "matched"), nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert edge %s -> %s: %w", follower, followee, err)
	}
	if n, _ := matched.(int); n == 0 {
		return fmt.Errorf("failed to upsert edge %s -> %s: %w", follower, followee, ErrMissingNode)
	}
	return nil
}

func getIntFromRecord(record *neo4j.Record, key string) int {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return int(i)
	}
	if i, ok := val.(int); ok {
		return i
	}
	return 0
}
