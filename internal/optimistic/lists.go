package optimistic

import (
	"context"
	"fmt"

	"github.com/h0rv/pulp/internal/domain"
	"github.com/h0rv/pulp/internal/drag"
	"github.com/h0rv/pulp/internal/position"
)

// CreateList appends a provisional list to a board.
func (c *Coordinator) CreateList(boardID, name string) (domain.List, *Mutation, error) {
	name, err := validateName("list name", name)
	if err != nil {
		return domain.List{}, nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.store.Board(boardID); err != nil {
		return domain.List{}, nil, fmt.Errorf("create list: %w", err)
	}

	l := domain.List{
		ID:       c.newID(),
		BoardID:  boardID,
		Name:     name,
		Position: position.Append(listSiblings(c.store.Lists(boardID))),
	}
	c.store.UpsertLists([]domain.List{l})

	key := listKey(l.ID)
	seq := c.issue(key, absentState{key: key})
	in := domain.ListCreate{ID: l.ID, Name: l.Name, Position: l.Position}
	return l, c.newMutation("list.create", step{key: key, seq: seq, call: func(ctx context.Context) (snapshot, error) {
		created, err := c.gw.CreateList(ctx, boardID, in)
		if err != nil {
			return nil, err
		}
		rec := l
		if created != nil {
			rec.Merge(*created)
			if created.ID != "" {
				rec.ID = created.ID
			}
		}
		return createdState{provisional: key, newID: rec.ID, next: listState{list: rec}}, nil
	}}), nil
}

// RenameList renames a list.
func (c *Coordinator) RenameList(id, name string) (*Mutation, error) {
	name, err := validateName("list name", name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cur, err := c.store.List(id)
	if err != nil || cur.Name == name {
		return nil, nil
	}

	patch := domain.ListPatch{Name: domain.Ptr(name)}
	c.store.PatchList(id, patch)
	next := cur
	patch.Apply(&next)

	key := listKey(id)
	seq := c.issue(key, listState{list: cur})
	return c.newMutation("list.rename", step{key: key, seq: seq, call: func(ctx context.Context) (snapshot, error) {
		updated, err := c.gw.UpdateList(ctx, id, patch)
		if err != nil {
			return nil, err
		}
		return listState{list: mergeList(next, updated)}, nil
	}}), nil
}

// DeleteList removes a list and its cached cards.
func (c *Coordinator) DeleteList(id string) (*Mutation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, err := c.store.List(id)
	if err != nil {
		return nil, nil
	}
	cards := c.store.RemoveList(id)

	key := listKey(id)
	seq := c.issue(key, listTree{list: cur, cards: cards})
	return c.newMutation("list.delete", step{key: key, seq: seq, call: func(ctx context.Context) (snapshot, error) {
		if err := c.gw.DeleteList(ctx, id); err != nil {
			return nil, err
		}
		return absentState{key: key}, nil
	}}), nil
}

// PreviewListMove applies a hover intent locally. Lists never change board,
// so a preview is only persisted when the board's lists had to be renumbered.
func (c *Coordinator) PreviewListMove(in drag.MoveIntent) (*Mutation, error) {
	return c.moveList(in, true)
}

// MoveList places a list at in.TargetIndex of its board. It ends the drag
// gesture of the list, if any. The returned mutation is nil when the list
// already sits at the requested slot and nothing is left to persist.
func (c *Coordinator) MoveList(in drag.MoveIntent) (*Mutation, error) {
	return c.moveList(in, false)
}

func (c *Coordinator) moveList(in drag.MoveIntent, preview bool) (*Mutation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := listKey(in.ItemID)
	cur, err := c.store.List(in.ItemID)
	if err != nil {
		c.abandon(key)
		return nil, nil
	}

	_, dragging := c.gestures[key]
	if preview && !dragging {
		c.gestures[key] = listState{list: cur}
		c.hold(key, listState{list: cur})
		dragging = true
	}

	sibs := c.store.Lists(cur.BoardID)
	index := in.TargetIndex
	if in.Append {
		index = len(sibs)
	}
	res := position.Allocate(listSiblings(sibs), cur.ID, index)

	op := "list.move"
	var steps []step
	moved := false
	switch res.Outcome {
	case position.Allocated:
		c.store.PatchList(cur.ID, domain.ListPatch{Position: domain.Ptr(res.Position)})
		moved = true
	case position.RenumberRequired:
		op = "list.renumber"
		var before []domain.List
		before, moved = c.renumberLists(cur, res.Index)
		for _, l := range before {
			steps = append(steps, c.listMoveStep(l.ID, listState{list: l}))
		}
	}

	switch {
	case preview:
		if res.Outcome == position.RenumberRequired {
			steps = append(steps, c.listMoveStep(cur.ID, nil))
		}
	case dragging:
		delete(c.gestures, key)
		if c.release(key) {
			steps = append(steps, c.listMoveStep(cur.ID, nil))
		}
	case moved:
		steps = append(steps, c.listMoveStep(cur.ID, listState{list: cur}))
	}
	return c.newMutation(op, steps...), nil
}

// CancelListMove puts a dragged list back where its gesture started.
func (c *Coordinator) CancelListMove(in drag.CancelIntent) (*Mutation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := listKey(in.ItemID)
	origin, ok := c.gestures[key]
	if !ok {
		return nil, nil
	}
	if _, err := c.store.List(in.ItemID); err != nil {
		c.abandon(key)
		return nil, nil
	}
	delete(c.gestures, key)
	origin.restore(c.store)

	op := "list.move"
	var steps []step
	cur, _ := c.store.List(in.ItemID)
	res := position.Allocate(listSiblings(c.store.Lists(cur.BoardID)), cur.ID, in.OriginIndex)
	switch res.Outcome {
	case position.Allocated:
		c.store.PatchList(cur.ID, domain.ListPatch{Position: domain.Ptr(res.Position)})
	case position.RenumberRequired:
		op = "list.renumber"
		before, _ := c.renumberLists(cur, res.Index)
		for _, l := range before {
			steps = append(steps, c.listMoveStep(l.ID, listState{list: l}))
		}
	}

	if c.release(key) {
		steps = append(steps, c.listMoveStep(cur.ID, nil))
	}
	return c.newMutation(op, steps...), nil
}

// renumberLists spreads the lists of mover's board evenly with mover at
// index. It returns the previous state of every other list it changed and
// whether mover itself changed.
func (c *Coordinator) renumberLists(mover domain.List, index int) ([]domain.List, bool) {
	sibs := c.store.Lists(mover.BoardID)
	byID := make(map[string]domain.List, len(sibs))
	for _, l := range sibs {
		byID[l.ID] = l
	}

	patches := make(map[string]domain.ListPatch)
	var before []domain.List
	moved := false
	for _, s := range position.Renumber(position.Reorder(listSiblings(sibs), mover.ID, index)) {
		rec := byID[s.ID]
		if rec.Position == s.Position {
			continue
		}
		patches[s.ID] = domain.ListPatch{Position: domain.Ptr(s.Position)}
		if s.ID == mover.ID {
			moved = true
			continue
		}
		before = append(before, rec)
	}
	c.store.PatchLists(patches)
	return before, moved
}

// listMoveStep issues a request persisting the list's current position.
func (c *Coordinator) listMoveStep(id string, base snapshot) step {
	key := listKey(id)
	seq := c.issue(key, base)
	rec, _ := c.store.List(id)
	patch := domain.ListPatch{Position: domain.Ptr(rec.Position)}
	return step{key: key, seq: seq, call: func(ctx context.Context) (snapshot, error) {
		updated, err := c.gw.UpdateList(ctx, id, patch)
		if err != nil {
			return nil, err
		}
		return listState{list: mergeList(rec, updated)}, nil
	}}
}

// abandon drops the gesture and hold of an item that disappeared.
func (c *Coordinator) abandon(key itemKey) {
	delete(c.gestures, key)
	if p, ok := c.pending[key]; ok {
		p.held = false
		if p.outstanding == 0 {
			delete(c.pending, key)
		}
	}
}

func mergeList(rec domain.List, server *domain.List) domain.List {
	if server != nil {
		rec.Merge(*server)
	}
	return rec
}
