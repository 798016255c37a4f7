package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alvmarrod/follow-weaver/internal/config"
	"github.com/alvmarrod/follow-weaver/internal/memory"
	"github.com/alvmarrod/follow-weaver/internal/metrics"
	"github.com/alvmarrod/follow-weaver/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminationReason(t *testing.T) {
	rateLimited := fmt.Errorf("failed to fetch profile of bob: %w", &source.RateLimitError{StatusCode: 403})

	assert.Equal(t, metrics.ReasonCompleted, terminationReason(nil))
	assert.Equal(t, metrics.ReasonRateLimited, terminationReason(rateLimited))
	assert.Equal(t, metrics.ReasonInterrupted, terminationReason(context.Canceled))
	assert.Equal(t, metrics.ReasonFailed, terminationReason(errors.New("boom")))
}

func TestFlagDefaults(t *testing.T) {
	d := rootCmd.Flags().Lookup("depth")
	require.NotNil(t, d)
	assert.Equal(t, "2", d.DefValue)
	assert.Equal(t, "d", d.Shorthand)

	b := rootCmd.Flags().Lookup("big")
	require.NotNil(t, b)
	assert.Equal(t, "false", b.DefValue)
	assert.Equal(t, "b", b.Shorthand)
}

func TestOpenStore_Memory(t *testing.T) {
	store, err := openStore(context.Background(), &config.Config{StoreBackend: config.StoreMemory})
	require.NoError(t, err)
	assert.IsType(t, &memory.Graph{}, store)
}

func TestOpenStore_Unknown(t *testing.T) {
	_, err := openStore(context.Background(), &config.Config{StoreBackend: "postgres"})
	assert.Error(t, err)
}
