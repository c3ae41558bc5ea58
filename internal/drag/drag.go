// Package drag implements the lifecycle of a single drag gesture:
// pick up, hover, drop or cancel. It holds only transient per-gesture data
// and turns pointer (or keyboard) events into MoveIntent and CancelIntent
// values for the mutation coordinator.
package drag

import (
	"errors"
	"fmt"
)

var (
	// ErrDragInProgress is returned by PickUp when a gesture is already active.
	ErrDragInProgress = errors.New("drag already in progress")
	// ErrNotDragging is returned when an event arrives while idle.
	ErrNotDragging = errors.New("no drag in progress")
)

// State is the state of the gesture state machine.
type State int

const (
	Idle State = iota
	Dragging
	Hovering
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Hovering:
		return "hovering"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MoveIntent asks the coordinator to place ItemID at TargetIndex of
// ToContainerID. FromContainerID is the container the item currently sits in
// (which changes during a gesture as cross-container hovers are applied).
// Append marks a locked drop target: place the item after the last sibling.
type MoveIntent struct {
	ItemID          string
	FromContainerID string
	ToContainerID   string
	TargetIndex     int
	Append          bool
}

// CrossContainer reports whether the intent changes the item's container.
func (i MoveIntent) CrossContainer() bool {
	return i.FromContainerID != i.ToContainerID
}

// CancelIntent asks the coordinator to put ItemID back where the gesture
// started.
type CancelIntent struct {
	ItemID            string
	OriginContainerID string
	OriginIndex       int
}

// Tracker is the drag state machine. The zero value is an idle tracker.
// It is not safe for concurrent use; it lives on the UI event loop.
type Tracker struct {
	state State

	itemID      string
	origin      slot
	current     slot // where the last emitted intent put the item
	currentMode bool // current.append
}

type slot struct {
	containerID string
	index       int
}

// State returns the current state.
func (t *Tracker) State() State {
	return t.state
}

// Active reports whether a gesture is in progress.
func (t *Tracker) Active() bool {
	return t.state != Idle
}

// ItemID returns the dragged item, or "" when idle.
func (t *Tracker) ItemID() string {
	return t.itemID
}

// Origin returns the container and index where the gesture started.
func (t *Tracker) Origin() (containerID string, index int) {
	return t.origin.containerID, t.origin.index
}

// Current returns the container and index of the last emitted intent, or the
// origin when nothing was emitted yet.
func (t *Tracker) Current() (containerID string, index int) {
	return t.current.containerID, t.current.index
}

// PickUp starts a gesture for itemID sitting at index of containerID.
func (t *Tracker) PickUp(itemID, containerID string, index int) error {
	if t.state != Idle {
		return ErrDragInProgress
	}
	if itemID == "" {
		return errors.New("drag: empty item id")
	}
	t.state = Dragging
	t.itemID = itemID
	t.origin = slot{containerID: containerID, index: index}
	t.current = t.origin
	t.currentMode = false
	return nil
}

// Hover records the pointer over index of containerID. It returns an intent
// only when the target differs from the previously emitted one.
func (t *Tracker) Hover(containerID string, index int) (MoveIntent, bool) {
	if t.state == Idle {
		return MoveIntent{}, false
	}
	if index < 0 {
		index = 0
	}
	target := slot{containerID: containerID, index: index}
	if target == t.current && !t.currentMode {
		t.state = Hovering
		return MoveIntent{}, false
	}
	return t.emit(target, false), true
}

// HoverAppend records the pointer over a locked drop target of containerID,
// such as the "add card" affordance: the item goes after the last sibling.
func (t *Tracker) HoverAppend(containerID string) (MoveIntent, bool) {
	if t.state == Idle {
		return MoveIntent{}, false
	}
	if t.currentMode && t.current.containerID == containerID {
		return MoveIntent{}, false
	}
	return t.emit(slot{containerID: containerID, index: -1}, true), true
}

// Drop ends the gesture. It returns the final intent, which equals the last
// hover intent (or a no-op intent at the origin), and resets to Idle.
func (t *Tracker) Drop() (MoveIntent, error) {
	if t.state == Idle {
		return MoveIntent{}, ErrNotDragging
	}
	intent := MoveIntent{
		ItemID:          t.itemID,
		FromContainerID: t.current.containerID,
		ToContainerID:   t.current.containerID,
		TargetIndex:     t.current.index,
		Append:          t.currentMode,
	}
	t.reset()
	return intent, nil
}

// Cancel aborts the gesture and returns the rollback intent carrying the
// origin slot. The tracker resets to Idle.
func (t *Tracker) Cancel() (CancelIntent, error) {
	if t.state == Idle {
		return CancelIntent{}, ErrNotDragging
	}
	intent := CancelIntent{
		ItemID:            t.itemID,
		OriginContainerID: t.origin.containerID,
		OriginIndex:       t.origin.index,
	}
	t.reset()
	return intent, nil
}

// Moved reports whether the item left its origin slot during the gesture.
func (t *Tracker) Moved() bool {
	return t.current != t.origin || t.currentMode
}

func (t *Tracker) emit(target slot, appendMode bool) MoveIntent {
	intent := MoveIntent{
		ItemID:          t.itemID,
		FromContainerID: t.current.containerID,
		ToContainerID:   target.containerID,
		TargetIndex:     target.index,
		Append:          appendMode,
	}
	t.state = Hovering
	t.current = target
	t.currentMode = appendMode
	return intent
}

// Resolve records where an emitted intent actually placed the item, e.g. the
// resolved index of an append. Later hovers compare against this slot.
func (t *Tracker) Resolve(containerID string, index int) {
	if t.state == Idle {
		return
	}
	t.current = slot{containerID: containerID, index: index}
	t.currentMode = false
}

func (t *Tracker) reset() {
	*t = Tracker{}
}
