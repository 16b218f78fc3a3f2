package impulse_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outboard/go-fconv/fconv/impulse"
)

func writeFile(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "impulse.txt")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParsesOneFloatPerLine(t *testing.T) {
	path := writeFile(t, []string{"1.0", "-0.5", "0.25"})
	got, err := impulse.Load(path, 3)
	require.NoError(t, err)
	assert.Equal(t, []float32{1.0, -0.5, 0.25}, got)
}

func TestLoadSkipsUnparseableLines(t *testing.T) {
	path := writeFile(t, []string{"1.0", "not a number", "2.0", ""})
	got, err := impulse.Load(path, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{1.0, 2.0}, got)
}

func TestLoadRejectsWrongCount(t *testing.T) {
	path := writeFile(t, []string{"1.0", "2.0"})
	_, err := impulse.Load(path, 3)
	assert.Error(t, err)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := impulse.Load(filepath.Join(t.TempDir(), "missing.txt"), 1)
	assert.Error(t, err)
}
