package headless_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outboard/go-fconv/fconv/backend"
	"github.com/outboard/go-fconv/fconv/backend/headless"
	"github.com/outboard/go-fconv/fconv/telemetry"
)

func TestHeadlessDashboardReturnsNoCommandByDefault(t *testing.T) {
	d := headless.New(0)
	require.NoError(t, d.Init(backend.Config{Title: "Test"}))

	cmd, err := d.Update(telemetry.Snapshot{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, backend.CommandNone, cmd)

	require.NoError(t, d.Cleanup())
}

func TestHeadlessDashboardReplaysInjectedCommands(t *testing.T) {
	d := headless.New(0)
	require.NoError(t, d.Init(backend.Config{}))

	d.Inject(backend.CommandReload)
	d.Inject(backend.CommandQuit)

	cmd, err := d.Update(telemetry.Snapshot{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, backend.CommandReload, cmd)

	cmd, err = d.Update(telemetry.Snapshot{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, backend.CommandQuit, cmd)

	cmd, err = d.Update(telemetry.Snapshot{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, backend.CommandNone, cmd)
}

func TestHeadlessImplementsDashboard(t *testing.T) {
	var _ backend.Dashboard = (*headless.Dashboard)(nil)
}

func TestHeadlessDashboardDoesNotPanicOnRealisticSnapshot(t *testing.T) {
	d := headless.New(1)
	require.NoError(t, d.Init(backend.Config{Title: "Test"}))
	snap := telemetry.Snapshot{
		InputBufferTimestamp:  time.Now(),
		OutputBufferTimestamp: time.Now(),
		MissedSampleCount:     3,
		TotalLatency:          2 * time.Millisecond,
	}
	_, err := d.Update(snap, 600, 12.5)
	assert.NoError(t, err)
}
