package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framewatch-ai/go-detect/images"
)

// TestApplyCollapsesDuplicates verifies the canonical suppression case: two
// near-identical boxes of the same class collapse to the higher-confidence
// one.
func TestApplyCollapsesDuplicates(t *testing.T) {
	candidates := []Result{
		{Box: images.Rect{X1: 5, Y1: 5, X2: 100, Y2: 100}, Score: 0.7, Class: 0},
		{Box: images.Rect{X1: 0, Y1: 0, X2: 100, Y2: 100}, Score: 0.9, Class: 0},
	}

	kept := Apply(candidates, &NMSConfig{IoUThreshold: 0.5, ClassAware: true})

	require.Len(t, kept, 1)
	assert.InDelta(t, 0.9, kept[0].Score, 1e-6)
	assert.Equal(t, images.Rect{X1: 0, Y1: 0, X2: 100, Y2: 100}, kept[0].Box)
}

// TestApplyClassAware verifies that perfectly overlapping boxes of different
// classes never suppress each other when suppression is class-aware.
func TestApplyClassAware(t *testing.T) {
	box := images.Rect{X1: 10, Y1: 10, X2: 50, Y2: 50}
	candidates := []Result{
		{Box: box, Score: 0.9, Class: 0},
		{Box: box, Score: 0.8, Class: 1},
	}

	kept := Apply(candidates, &NMSConfig{IoUThreshold: 0.5, ClassAware: true})
	require.Len(t, kept, 2)

	// Without class awareness the lower-confidence box is suppressed.
	kept = Apply(candidates, &NMSConfig{IoUThreshold: 0.5, ClassAware: false})
	require.Len(t, kept, 1)
	assert.Equal(t, 0, kept[0].Class)
}

// TestApplyThresholdBoundary verifies the strict comparison: a pair whose
// IoU equals the threshold exactly is not suppressed.
func TestApplyThresholdBoundary(t *testing.T) {
	// Half horizontal overlap: IoU = 50/150 = 1/3.
	candidates := []Result{
		{Box: images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}, Score: 0.9, Class: 0},
		{Box: images.Rect{X1: 5, Y1: 0, X2: 15, Y2: 10}, Score: 0.8, Class: 0},
	}

	kept := Apply(candidates, &NMSConfig{IoUThreshold: 1.0 / 3.0, ClassAware: true})
	assert.Len(t, kept, 2)

	kept = Apply(candidates, &NMSConfig{IoUThreshold: 0.3, ClassAware: true})
	assert.Len(t, kept, 1)
}

// TestApplyOrderingAndIdempotence verifies that output is sorted by
// descending confidence and that suppressing an already-suppressed set is a
// no-op.
func TestApplyOrderingAndIdempotence(t *testing.T) {
	candidates := []Result{
		{Box: images.Rect{X1: 200, Y1: 200, X2: 250, Y2: 250}, Score: 0.5, Class: 1},
		{Box: images.Rect{X1: 0, Y1: 0, X2: 50, Y2: 50}, Score: 0.95, Class: 0},
		{Box: images.Rect{X1: 100, Y1: 100, X2: 150, Y2: 150}, Score: 0.7, Class: 0},
	}
	config := &NMSConfig{IoUThreshold: 0.5, ClassAware: true}

	kept := Apply(candidates, config)
	require.Len(t, kept, 3)
	assert.True(t, kept[0].Score >= kept[1].Score)
	assert.True(t, kept[1].Score >= kept[2].Score)

	again := Apply(kept, config)
	assert.Equal(t, kept, again)
}

func TestApplyEmptyInput(t *testing.T) {
	assert.Nil(t, Apply(nil, &NMSConfig{IoUThreshold: 0.5}))
	assert.Nil(t, Apply([]Result{}, &NMSConfig{IoUThreshold: 0.5}))
}

// TestApplyDoesNotMutateInput verifies the input slice keeps its order.
func TestApplyDoesNotMutateInput(t *testing.T) {
	candidates := []Result{
		{Box: images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}, Score: 0.2, Class: 0},
		{Box: images.Rect{X1: 100, Y1: 0, X2: 110, Y2: 10}, Score: 0.8, Class: 0},
	}

	Apply(candidates, &NMSConfig{IoUThreshold: 0.5, ClassAware: true})

	assert.InDelta(t, 0.2, candidates[0].Score, 1e-6)
	assert.InDelta(t, 0.8, candidates[1].Score, 1e-6)
}
