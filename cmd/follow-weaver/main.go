package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alvmarrod/follow-weaver/internal/config"
	"github.com/alvmarrod/follow-weaver/internal/crawler"
	"github.com/alvmarrod/follow-weaver/internal/memory"
	"github.com/alvmarrod/follow-weaver/internal/metrics"
	"github.com/alvmarrod/follow-weaver/internal/source"
	"github.com/alvmarrod/follow-weaver/internal/storage"
	"github.com/alvmarrod/follow-weaver/internal/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	depth    int
	allowBig bool
	verbose  bool

	rootCmd = &cobra.Command{
		Use:           "follow-weaver <username>",
		Short:         "GitHub social graph crawler",
		Long:          "Crawls the followers of a GitHub user, depth-first, and stores who follows whom in a graph database.",
		Version:       version.Version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCrawl,
	}
)

func init() {
	rootCmd.Flags().IntVarP(&depth, "depth", "d", 2, "Depth of crawl")
	rootCmd.Flags().BoolVarP(&allowBig, "big", "b", false, "Allow crawling users with more followers than the threshold")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	// Configure logging
	logrus.SetLevel(logrus.InfoLevel)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := rootCmd.Execute(); err != nil {
		reportFailure(err)
		os.Exit(1)
	}
}

func runCrawl(cmd *cobra.Command, args []string) error {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	logrus.Infof("Follow Weaver v%s starting...", version.Version)

	root, err := crawler.NormalizeLogin(args[0])
	if err != nil {
		return err
	}
	if depth < 1 {
		return fmt.Errorf("%w: --depth must be >= 1, got %d", crawler.ErrInvalidArgument, depth)
	}

	// Load configuration before touching the network
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if !cfg.HasToken() {
		logrus.Warn("No GITHUB_TOKEN provided. You may hit rate limits.")
		logrus.Info("Consider setting a token in your .env file for better performance.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logrus.Warnf("Failed to close %s store: %v", cfg.StoreBackend, err)
		}
	}()

	logrus.Infof("Graph store initialized: %s", cfg.StoreBackend)

	client, err := source.NewGitHubClient(source.Options{
		BaseURL:   cfg.GitHubAPIURL,
		Token:     cfg.GitHubToken,
		UserAgent: "follow-weaver/" + version.Version,
		Timeout:   time.Duration(cfg.RequestTimeoutMs) * time.Millisecond,
		Delay:     time.Duration(cfg.RequestDelayMs) * time.Millisecond,
	})
	if err != nil {
		return err
	}

	tracker := metrics.NewTracker()
	c := crawler.NewCrawler(client, store, cfg.FollowerThreshold, tracker.Increment)

	logrus.Infof("Crawling from %s: depth=%d, big=%t, threshold=%d", root, depth, allowBig, cfg.FollowerThreshold)

	crawlErr := c.Crawl(ctx, root, depth, allowBig)

	logrus.Info("Final stats: " + tracker.LogProgress())
	logStoreStats(store)

	if cfg.MetricsPath != "" {
		if err := tracker.WriteToFile(cfg.MetricsPath, terminationReason(crawlErr)); err != nil {
			logrus.Errorf("Failed to write metrics: %v", err)
		} else {
			logrus.Infof("Metrics written to %s", cfg.MetricsPath)
		}
	}

	if crawlErr != nil {
		return crawlErr
	}

	logrus.Info("Done!")
	return nil
}

// openStore builds the configured graph store backend
func openStore(ctx context.Context, cfg *config.Config) (storage.GraphStore, error) {
	switch cfg.StoreBackend {
	case config.StoreNeo4j:
		store, err := storage.NewNeo4jStore(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreSQLite:
		store, err := storage.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreMemory:
		logrus.Warn("Using the in-memory store: nothing will be persisted")
		return memory.NewGraph(), nil
	default:
		return nil, fmt.Errorf("unknown graph store %q", cfg.StoreBackend)
	}
}

func logStoreStats(store storage.GraphStore) {
	reporter, ok := store.(storage.StatsReporter)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	nodes, edges, err := reporter.Stats(ctx)
	if err != nil {
		logrus.Warnf("Failed to read store stats: %v", err)
		return
	}
	logrus.Infof("Graph store now holds %d users and %d follows", nodes, edges)
}

// terminationReason classifies how the crawl ended for the metrics file
func terminationReason(err error) string {
	switch {
	case err == nil:
		return metrics.ReasonCompleted
	case source.IsRateLimit(err):
		return metrics.ReasonRateLimited
	case errors.Is(err, context.Canceled):
		return metrics.ReasonInterrupted
	default:
		return metrics.ReasonFailed
	}
}

// reportFailure logs err together with a remediation hint when one applies
func reportFailure(err error) {
	var missing *config.MissingConfigError
	var rateLimit *source.RateLimitError

	switch {
	case errors.As(err, &missing):
		logrus.Errorf("Missing config variables: %s", strings.Join(missing.Vars, ", "))
		logrus.Info("Make sure you have a .env file or environment variables set.")
	case errors.As(err, &rateLimit):
		logrus.Errorf("GitHub API returned %d, you might have hit the rate limit: %v", rateLimit.StatusCode, err)
		if !rateLimit.ResetAt.IsZero() {
			logrus.Infof("The quota resets at %s.", rateLimit.ResetAt.Local().Format(time.RFC1123))
		}
		logrus.Info("Try using a token or wait and try again.")
	case errors.Is(err, context.Canceled):
		logrus.Warn("Crawl interrupted, writes made so far are kept")
	default:
		logrus.Errorf("Crawl failed: %v", err)
	}
}
