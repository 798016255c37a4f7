package crawler

import (
	"context"
	"fmt"

	"github.com/alvmarrod/follow-weaver/internal/metrics"
	"github.com/alvmarrod/follow-weaver/internal/source"
	"github.com/alvmarrod/follow-weaver/internal/storage"
	"github.com/sirupsen/logrus"
)

// Source is the remote API the crawler reads users from
type Source interface {
	FetchProfile(ctx context.Context, login string) (*source.Profile, error)
	FetchFollowers(ctx context.Context, login string) ([]source.Contact, error)
	FetchFollowing(ctx context.Context, login string) ([]source.Contact, error)
}

// Crawler walks the follower graph depth-first from a root user and writes
// every expanded user's neighbourhood to the store.
// A Crawler runs one crawl at a time.
type Crawler struct {
	source          Source
	storage         storage.GraphStore
	threshold       int
	visited         map[string]bool
	metricsCallback func(metrics.Counter)
}

// NewCrawler creates a new crawler instance. A negative threshold selects the default.
func NewCrawler(src Source, store storage.GraphStore, threshold int, metricsCallback func(metrics.Counter)) *Crawler {
	if threshold < 0 {
		threshold = DefaultFollowerThreshold
	}
	return &Crawler{
		source:          src,
		storage:         store,
		threshold:       threshold,
		metricsCallback: metricsCallback,
	}
}

// Crawl expands root and, recursively, its followers up to maxDepth (root is depth 1).
// Users with more followers than the threshold are skipped unless allowLarge is set.
// The first error aborts the whole run; writes made before it stay in the store.
func (c *Crawler) Crawl(ctx context.Context, root string, maxDepth int, allowLarge bool) error {
	if maxDepth < 1 {
		return fmt.Errorf("%w: max depth must be >= 1, got %d", ErrInvalidArgument, maxDepth)
	}
	if !ValidLogin(root) {
		return fmt.Errorf("%w: %q is not a valid GitHub login", ErrInvalidArgument, root)
	}

	c.visited = make(map[string]bool)
	policy := SizePolicy{Threshold: c.threshold, AllowLarge: allowLarge}

	return c.expand(ctx, root, 1, maxDepth, policy)
}

// expand processes one user and then recurses into its followers
func (c *Crawler) expand(ctx context.Context, login string, depth, maxDepth int, policy SizePolicy) error {
	if c.visited[login] || depth > maxDepth {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	profile, err := c.source.FetchProfile(ctx, login)
	if err != nil {
		return fmt.Errorf("failed to fetch profile of %s: %w", login, err)
	}
	c.record(metrics.ProfilesFetched)

	if !policy.ShouldExpand(profile.Followers) {
		// Not marked visited: another path may reach this user and re-evaluate it
		logrus.Warnf("Skipping %s: has %d followers (more than %d, use --big to expand)",
			login, profile.Followers, policy.Threshold)
		c.record(metrics.NodesSkipped)
		return nil
	}

	logrus.Infof("Crawling %s at depth %d (%d followers)", login, depth, profile.Followers)
	c.visited[login] = true
	c.record(metrics.NodesExpanded)

	followers, err := c.source.FetchFollowers(ctx, login)
	if err != nil {
		return fmt.Errorf("failed to fetch followers of %s: %w", login, err)
	}
	following, err := c.source.FetchFollowing(ctx, login)
	if err != nil {
		return fmt.Errorf("failed to fetch following of %s: %w", login, err)
	}

	if err := c.writeNeighbourhood(ctx, login, profile.URL, followers, following); err != nil {
		return err
	}

	for _, f := range followers {
		if err := c.expand(ctx, f.Login, depth+1, maxDepth, policy); err != nil {
			return err
		}
	}

	return nil
}

// writeNeighbourhood upserts the user, its followers and followees and the
// edges between them in one session. Every node is written before its edge.
// The user is keyed by the login it was crawled as, matching the visited set.
func (c *Crawler) writeNeighbourhood(ctx context.Context, login, url string, followers, following []source.Contact) error {
	err := c.storage.WithSession(ctx, func(w storage.Writer) error {
		if err := c.upsertNode(ctx, w, login, url); err != nil {
			return err
		}

		for _, f := range followers {
			if err := c.upsertNode(ctx, w, f.Login, f.URL); err != nil {
				return err
			}
			if err := c.upsertEdge(ctx, w, f.Login, login); err != nil {
				return err
			}
		}

		for _, f := range following {
			if err := c.upsertNode(ctx, w, f.Login, f.URL); err != nil {
				return err
			}
			if err := c.upsertEdge(ctx, w, login, f.Login); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write neighbourhood of %s: %w", login, err)
	}

	logrus.Debugf("Wrote %s with %d followers and %d followees", login, len(followers), len(following))
	return nil
}

func (c *Crawler) upsertNode(ctx context.Context, w storage.Writer, login, url string) error {
	if err := w.UpsertNode(ctx, login, url); err != nil {
		return err
	}
	c.record(metrics.NodesWritten)
	return nil
}

func (c *Crawler) upsertEdge(ctx context.Context, w storage.Writer, follower, followee string) error {
	if err := w.UpsertEdge(ctx, follower, followee); err != nil {
		return err
	}
	c.record(metrics.EdgesWritten)
	return nil
}

func (c *Crawler) record(counter metrics.Counter) {
	if c.metricsCallback != nil {
		c.metricsCallback(counter)
	}
}
