package position

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func siblings(positions ...float64) []Sibling {
	out := make([]Sibling, len(positions))
	for i, p := range positions {
		out[i] = Sibling{ID: "s" + strconv.Itoa(i), Position: p}
	}
	return out
}

func TestAppend(t *testing.T) {
	t.Run("empty container", func(t *testing.T) {
		assert.Equal(t, Gap, Append(nil))
	})

	t.Run("sequential appends", func(t *testing.T) {
		var sibs []Sibling
		want := []float64{65536, 131072, 196608, 262144}
		for i, w := range want {
			pos := Append(sibs)
			assert.Equal(t, w, pos, "append #%d", i)
			sibs = append(sibs, Sibling{ID: strconv.Itoa(i), Position: pos})
		}
	})

	t.Run("ignores unusable positions", func(t *testing.T) {
		assert.Equal(t, 2*Gap, Append(siblings(Gap, 0, math.NaN())))
	})
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name     string
		sibs     []Sibling
		moving   string
		target   int
		outcome  Outcome
		position float64
	}{
		{
			name:     "empty container",
			target:   0,
			moving:   "new",
			outcome:  Allocated,
			position: 65536,
		},
		{
			name:     "before first",
			sibs:     siblings(65536, 131072),
			moving:   "new",
			target:   0,
			outcome:  Allocated,
			position: 32768,
		},
		{
			name:     "between",
			sibs:     siblings(65536, 131072),
			moving:   "new",
			target:   1,
			outcome:  Allocated,
			position: 98304,
		},
		{
			name:     "after last",
			sibs:     siblings(65536, 131072),
			moving:   "new",
			target:   2,
			outcome:  Allocated,
			position: 196608,
		},
		{
			name:     "target clamped past the end",
			sibs:     siblings(65536),
			moving:   "new",
			target:   10,
			outcome:  Allocated,
			position: 131072,
		},
		{
			name:     "target clamped below zero",
			sibs:     siblings(65536),
			moving:   "new",
			target:   -3,
			outcome:  Allocated,
			position: 32768,
		},
		{
			name:     "member moved down excludes itself",
			sibs:     siblings(65536, 131072, 196608),
			moving:   "s0",
			target:   1, // between s1 and s2
			outcome:  Allocated,
			position: 163840,
		},
		{
			name:     "member moved up excludes itself",
			sibs:     siblings(65536, 131072, 196608),
			moving:   "s2",
			target:   0,
			outcome:  Allocated,
			position: 32768,
		},
		{
			name:     "member moved to the end",
			sibs:     siblings(65536, 131072, 196608),
			moving:   "s0",
			target:   2,
			outcome:  Allocated,
			position: 262144,
		},
		{
			name:     "member at its own index",
			sibs:     siblings(65536, 131072, 196608),
			moving:   "s1",
			target:   1,
			outcome:  NoChange,
			position: 131072,
		},
		{
			name:    "neighbour tie",
			sibs:    siblings(65536, 65536),
			moving:  "new",
			target:  1,
			outcome: RenumberRequired,
		},
		{
			name:    "non-positive first",
			sibs:    siblings(0, 65536),
			moving:  "new",
			target:  0,
			outcome: RenumberRequired,
		},
		{
			name:    "non-finite neighbour",
			sibs:    siblings(65536, math.Inf(1)),
			moving:  "new",
			target:  2,
			outcome: RenumberRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Allocate(tt.sibs, tt.moving, tt.target)
			assert.Equal(t, tt.outcome, res.Outcome)
			if tt.outcome != RenumberRequired {
				assert.Equal(t, tt.position, res.Position)
			}
		})
	}
}

func TestAllocate_StrictlyBetweenNeighbours(t *testing.T) {
	sibs := siblings(65536, 131072, 196608, 262144)
	for target := 0; target <= len(sibs); target++ {
		res := Allocate(sibs, "new", target)
		require.Equal(t, Allocated, res.Outcome)
		if target > 0 {
			assert.Greater(t, res.Position, sibs[target-1].Position)
		}
		if target < len(sibs) {
			assert.Less(t, res.Position, sibs[target].Position)
		}
	}
}

func TestAllocate_PrecisionExhaustion(t *testing.T) {
	sibs := siblings(65536, 131072)

	renumbered := false
	for i := 0; i < 200; i++ {
		res := Allocate(sibs, "new", 1)
		if res.Outcome == RenumberRequired {
			renumbered = true
			break
		}
		require.Equal(t, Allocated, res.Outcome)
		// Keep inserting right after the first sibling.
		sibs = append([]Sibling{sibs[0], {ID: "n" + strconv.Itoa(i), Position: res.Position}}, sibs[1:]...)
	}
	assert.True(t, renumbered, "midpoint insertion must eventually require renumbering")
}

func TestReorder(t *testing.T) {
	sibs := siblings(1, 2, 3)

	assert.Equal(t, []string{"s1", "s0", "s2"}, Reorder(sibs, "s0", 1))
	assert.Equal(t, []string{"s2", "s0", "s1"}, Reorder(sibs, "s2", 0))
	assert.Equal(t, []string{"s0", "s1", "s2", "x"}, Reorder(sibs, "x", 99))
}

func TestRenumber(t *testing.T) {
	out := Renumber([]string{"a", "b", "c"})
	assert.Equal(t, []Sibling{
		{ID: "a", Position: 65536},
		{ID: "b", Position: 131072},
		{ID: "c", Position: 196608},
	}, out)
}

func TestBackfill(t *testing.T) {
	t.Run("all missing", func(t *testing.T) {
		out := Backfill(siblings(0, 0, 0))
		assert.Equal(t, map[string]float64{"s0": 65536, "s1": 131072, "s2": 196608}, out)
	})

	t.Run("placed after positioned siblings", func(t *testing.T) {
		out := Backfill(siblings(0, 131072, math.NaN()))
		assert.Equal(t, map[string]float64{"s0": 196608, "s2": 262144}, out)
	})

	t.Run("nothing to do", func(t *testing.T) {
		assert.Empty(t, Backfill(siblings(1, 2)))
	})
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "no_change", NoChange.String())
	assert.Equal(t, "renumber_required", RenumberRequired.String())
}
