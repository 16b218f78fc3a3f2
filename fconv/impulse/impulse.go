// Package impulse loads the per-channel FIR coefficient files referenced by
// configuration.
package impulse

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
)

// Length is the tap count of the reference impulse files.
const Length = 2046

// Load reads path as newline-separated decimal floats, one per line. Lines
// that fail to parse are silently skipped. It is an error — not a panic — if
// the final coefficient count isn't exactly want; callers load all impulses
// before constructing a fir.Filter, so a length mismatch surfaces as a
// single startup error rather than partway through playback.
func Load(path string, want int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("impulse: open %s: %w", path, err)
	}
	defer f.Close()

	var coeffs []float32
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		v, err := strconv.ParseFloat(sc.Text(), 32)
		if err != nil {
			continue
		}
		coeffs = append(coeffs, float32(v))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("impulse: read %s: %w", path, err)
	}

	if len(coeffs) != want {
		return nil, fmt.Errorf("impulse: invalid length (%d) for %s, want %d", len(coeffs), path, want)
	}
	return coeffs, nil
}
