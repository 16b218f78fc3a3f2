package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outboard/go-fconv/fconv/config"
)

func TestLoadDefaultsWithNoFile(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, []int{1, 1, 1, 0, 0, 0, 0, 0}, cfg.ChannelMapping)
	assert.Equal(t, int64(600), cfg.ThrottleTarget)
	assert.Equal(t, 48000, cfg.SampleRate)
	assert.Len(t, cfg.ImpulseFiles, 8)

	written, err := os.ReadFile(filepath.Join(dir, "fconv.yaml"))
	require.NoError(t, err, "Load should write a starter fconv.yaml when none existed")
	assert.Contains(t, string(written), "throttle_target: 600")
}

func TestWriteExampleDoesNotOverwriteExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fconv.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sentinel: true\n"), 0o644))

	require.NoError(t, config.WriteExample(path, &config.Config{ThrottleTarget: 1}))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sentinel: true\n", string(contents))
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fconv.yaml")
	content := `
input_device_name: "Studio Input"
output_device_name: "Studio Output"
throttle_target: 800
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Studio Input", cfg.InputDeviceName)
	assert.Equal(t, "Studio Output", cfg.OutputDeviceName)
	assert.EqualValues(t, 800, cfg.ThrottleTarget)
	// Unspecified keys keep their defaults.
	assert.Equal(t, []int{1, 1, 1, 0, 0, 0, 0, 0}, cfg.ChannelMapping)
}

func TestLoadRejectsWrongMappingLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fconv.yaml")
	content := "channel_mapping: [1, 0, 0]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}
