package metrics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alvmarrod/follow-weaver/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_Increment(t *testing.T) {
	tr := NewTracker()

	tr.Increment(ProfilesFetched)
	tr.Increment(ProfilesFetched)
	tr.Increment(NodesExpanded)
	tr.Increment(NodesSkipped)
	tr.Increment(NodesWritten)
	tr.Increment(NodesWritten)
	tr.Increment(NodesWritten)
	tr.Increment(EdgesWritten)

	snap := tr.GetSnapshot()
	assert.Equal(t, 2, snap.ProfilesFetched)
	assert.Equal(t, 1, snap.NodesExpanded)
	assert.Equal(t, 1, snap.NodesSkipped)
	assert.Equal(t, 3, snap.NodesWritten)
	assert.Equal(t, 1, snap.EdgesWritten)

	assert.Equal(t, "Users: 1 expanded, 1 skipped, 2 profiles fetched | Writes: 3 nodes, 1 edges", tr.LogProgress())
}

func TestTracker_WriteToFile(t *testing.T) {
	tr := NewTracker()
	tr.Increment(NodesExpanded)

	path := filepath.Join(t.TempDir(), "metrics.json")
	require.NoError(t, tr.WriteToFile(path, ReasonRateLimited))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var got storage.Metrics
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, ReasonRateLimited, got.TerminationReason)
	assert.Equal(t, 1, got.NodesExpanded)
	assert.False(t, got.EndTime.Before(got.StartTime))
}
