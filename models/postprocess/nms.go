package postprocess

import (
	"sort"

	"github.com/framewatch-ai/go-detect/images"
)

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	// IoUThreshold is the overlap above which a lower-confidence box is
	// suppressed. The comparison is strict: a box at exactly the threshold
	// survives.
	IoUThreshold float32
	// ClassAware restricts suppression to candidates of the same class.
	// Detections of different classes never suppress each other, no matter
	// how much they overlap.
	ClassAware bool
}

// Apply performs greedy Non-Maximum Suppression.
//
// Candidates are ordered by descending confidence (stable, so equal scores
// keep their input order), then walked front to back: each unsuppressed
// candidate is kept, and every remaining candidate in its suppression group
// whose IoU with it exceeds the threshold is discarded. The operation is
// idempotent — running it on its own output returns the same set.
//
// Arguments:
//   - detections: The candidate detections; not modified.
//   - config: Suppression parameters.
//
// Returns:
//   - []Result: Kept detections in descending confidence order. Nil when no
//     candidates are provided.
func Apply(detections []Result, config *NMSConfig) []Result {
	n := len(detections)
	if n == 0 {
		return nil
	}

	ordered := make([]Result, n)
	copy(ordered, detections)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	filtered := make([]Result, 0, n)
	used := make([]bool, n)

	for i := 0; i < n; i++ {
		if used[i] {
			continue
		}

		anchor := ordered[i]
		filtered = append(filtered, anchor)
		used[i] = true

		for j := i + 1; j < n; j++ {
			if used[j] {
				continue
			}
			if config.ClassAware && anchor.Class != ordered[j].Class {
				continue
			}
			if images.CalculateIoU(anchor.Box, ordered[j].Box) > config.IoUThreshold {
				used[j] = true
			}
		}
	}

	return filtered
}
