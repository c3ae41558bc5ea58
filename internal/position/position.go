// Package position allocates fractional sort keys for ordered siblings.
//
// Items inside a container are ordered by a float64 position. A moved or
// created item gets a position that falls strictly between its new
// neighbours, so that only the moved item has to be written. When repeated
// midpoint insertions exhaust float precision the allocator reports
// RenumberRequired and the caller rewrites the whole sibling set.
package position

import (
	"fmt"
	"math"
)

// Gap is the base spacing between consecutive positions (2^16).
const Gap float64 = 1 << 16

// Outcome describes the result of an allocation.
type Outcome int

const (
	// Allocated means Result.Position is a valid new position.
	Allocated Outcome = iota
	// NoChange means the item already sits at the requested slot.
	NoChange
	// RenumberRequired means no distinguishable position exists between the
	// target neighbours; all siblings must be renumbered.
	RenumberRequired
)

func (o Outcome) String() string {
	switch o {
	case Allocated:
		return "allocated"
	case NoChange:
		return "no_change"
	case RenumberRequired:
		return "renumber_required"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Sibling is an item of a container, identified by ID, with its position.
type Sibling struct {
	ID       string
	Position float64
}

// Result is the outcome of Allocate.
type Result struct {
	Outcome  Outcome
	Position float64
	// Index is the clamped target index in the final sibling order.
	Index int
}

// Append returns the position of an item added after the last sibling.
func Append(siblings []Sibling) float64 {
	last, ok := maxUsable(siblings)
	if !ok {
		return Gap
	}
	return last + Gap
}

// Allocate computes the position for movingID inserted at targetIndex.
//
// siblings must be sorted ascending by position. When movingID is one of
// them it is excluded from the neighbour computation and targetIndex is an
// index into the remaining siblings, i.e. the slot the item occupies in the
// final order. targetIndex is clamped to [0, len(remaining)].
func Allocate(siblings []Sibling, movingID string, targetIndex int) Result {
	others := make([]Sibling, 0, len(siblings))
	current := -1
	var currentPos float64
	for i, s := range siblings {
		if s.ID == movingID {
			current = i
			currentPos = s.Position
			continue
		}
		others = append(others, s)
	}

	n := len(others)
	if targetIndex < 0 {
		targetIndex = 0
	}
	if targetIndex > n {
		targetIndex = n
	}

	if current >= 0 && current == targetIndex {
		return Result{Outcome: NoChange, Position: currentPos, Index: targetIndex}
	}

	var pos, lower, upper float64
	switch {
	case n == 0:
		pos, lower, upper = Gap, 0, math.Inf(1)
	case targetIndex == 0:
		first := others[0].Position
		pos, lower, upper = first/2, 0, first
	case targetIndex == n:
		last := others[n-1].Position
		pos, lower, upper = last+Gap, last, math.Inf(1)
	default:
		prev, next := others[targetIndex-1].Position, others[targetIndex].Position
		pos, lower, upper = prev+(next-prev)/2, prev, next
	}

	if !usable(pos) || !(pos > lower) || !(pos < upper) {
		return Result{Outcome: RenumberRequired, Index: targetIndex}
	}
	if current >= 0 && pos == currentPos {
		return Result{Outcome: NoChange, Position: currentPos, Index: targetIndex}
	}
	return Result{Outcome: Allocated, Position: pos, Index: targetIndex}
}

// Reorder returns the sibling IDs in their final order once movingID is
// placed at targetIndex. movingID is removed from its current slot first.
func Reorder(siblings []Sibling, movingID string, targetIndex int) []string {
	ids := make([]string, 0, len(siblings)+1)
	for _, s := range siblings {
		if s.ID != movingID {
			ids = append(ids, s.ID)
		}
	}
	if targetIndex < 0 {
		targetIndex = 0
	}
	if targetIndex > len(ids) {
		targetIndex = len(ids)
	}
	ids = append(ids, "")
	copy(ids[targetIndex+1:], ids[targetIndex:])
	ids[targetIndex] = movingID
	return ids
}

// Renumber assigns evenly spaced positions (i+1)*Gap to ids in order.
func Renumber(ids []string) []Sibling {
	out := make([]Sibling, len(ids))
	for i, id := range ids {
		out[i] = Sibling{ID: id, Position: float64(i+1) * Gap}
	}
	return out
}

// Backfill assigns positions to siblings that have none (zero, negative or
// non-finite). They are placed after the positioned siblings, keeping their
// relative order. The returned map only holds the siblings that changed.
func Backfill(siblings []Sibling) map[string]float64 {
	last, ok := maxUsable(siblings)
	if !ok {
		last = 0
	}

	out := make(map[string]float64)
	for _, s := range siblings {
		if usable(s.Position) {
			continue
		}
		last += Gap
		out[s.ID] = last
	}
	return out
}

func usable(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}

func maxUsable(siblings []Sibling) (float64, bool) {
	var max float64
	found := false
	for _, s := range siblings {
		if usable(s.Position) && (!found || s.Position > max) {
			max, found = s.Position, true
		}
	}
	return max, found
}
