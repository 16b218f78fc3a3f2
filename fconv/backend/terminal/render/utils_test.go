package render_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/outboard/go-fconv/fconv/backend/terminal/render"
)

func TestLevelBarEmptyAtZero(t *testing.T) {
	bar := []rune(render.LevelBar(0, 10))
	assert.Len(t, bar, 10)
	for _, r := range bar {
		assert.Equal(t, ' ', r)
	}
}

func TestLevelBarFullAtOne(t *testing.T) {
	bar := []rune(render.LevelBar(1, 10))
	assert.Len(t, bar, 10)
	for _, r := range bar {
		assert.Equal(t, '█', r)
	}
}

func TestLevelBarClampsOutOfRange(t *testing.T) {
	assert.Equal(t, render.LevelBar(1, 5), render.LevelBar(5, 5))
	assert.Equal(t, render.LevelBar(0, 5), render.LevelBar(-3, 5))
}

func TestLevelBarZeroWidthIsEmptyString(t *testing.T) {
	assert.Equal(t, "", render.LevelBar(0.5, 0))
}
