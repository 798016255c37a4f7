package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/alvmarrod/follow-weaver/internal/storage"
)

// Counter identifies one crawl statistic
type Counter int

const (
	ProfilesFetched Counter = iota
	NodesExpanded
	NodesSkipped
	NodesWritten
	EdgesWritten
)

// Termination reasons written to the metrics file
const (
	ReasonCompleted   = "completed"
	ReasonRateLimited = "rate_limited"
	ReasonInterrupted = "interrupted"
	ReasonFailed      = "failed"
)

// Tracker holds and manages crawl metrics
type Tracker struct {
	mu   sync.Mutex
	data storage.Metrics
}

// NewTracker creates a new metrics tracker
func NewTracker() *Tracker {
	return &Tracker{
		data: storage.Metrics{
			StartTime: time.Now(),
		},
	}
}

// Increment bumps one counter. Its signature matches the crawler's metrics callback.
func (t *Tracker) Increment(c Counter) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch c {
	case ProfilesFetched:
		t.data.ProfilesFetched++
	case NodesExpanded:
		t.data.NodesExpanded++
	case NodesSkipped:
		t.data.NodesSkipped++
	case NodesWritten:
		t.data.NodesWritten++
	case EdgesWritten:
		t.data.EdgesWritten++
	}
}

// GetSnapshot returns a copy of current metrics
func (t *Tracker) GetSnapshot() storage.Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data
}

// WriteToFile exports metrics to a JSON file
func (t *Tracker) WriteToFile(path, reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Finalize metrics
	t.data.EndTime = time.Now()
	t.data.TerminationReason = reason

	jsonData, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}

	return nil
}

// LogProgress formats current metrics as a single line
func (t *Tracker) LogProgress() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return fmt.Sprintf("Users: %d expanded, %d skipped, %d profiles fetched | Writes: %d nodes, %d edges",
		t.data.NodesExpanded,
		t.data.NodesSkipped,
		t.data.ProfilesFetched,
		t.data.NodesWritten,
		t.data.EdgesWritten,
	)
}
