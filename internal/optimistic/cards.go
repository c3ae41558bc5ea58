package optimistic

import (
	"context"
	"fmt"

	"github.com/h0rv/pulp/internal/domain"
	"github.com/h0rv/pulp/internal/drag"
	"github.com/h0rv/pulp/internal/position"
)

// CreateCard appends a provisional card to a list. The card keeps its
// client-generated ID when the server accepts it.
func (c *Coordinator) CreateCard(listID, name, description string) (domain.Card, *Mutation, error) {
	name, err := validateName("card name", name)
	if err != nil {
		return domain.Card{}, nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.store.List(listID)
	if err != nil {
		return domain.Card{}, nil, fmt.Errorf("create card: %w", err)
	}

	card := domain.Card{
		ID:          c.newID(),
		ListID:      listID,
		BoardID:     list.BoardID,
		Name:        name,
		Description: description,
		Position:    position.Append(cardSiblings(c.store.Cards(listID))),
	}
	c.store.UpsertCards([]domain.Card{card})

	key := cardKey(card.ID)
	seq := c.issue(key, absentState{key: key})
	in := domain.CardCreate{ID: card.ID, Name: card.Name, Description: card.Description, Position: card.Position}
	return card, c.newMutation("card.create", step{key: key, seq: seq, call: func(ctx context.Context) (snapshot, error) {
		created, err := c.gw.CreateCard(ctx, listID, in)
		if err != nil {
			return nil, err
		}
		rec := mergeCard(card, created)
		if created != nil && created.ID != "" {
			rec.ID = created.ID
		}
		return createdState{provisional: key, newID: rec.ID, next: cardState{card: rec}}, nil
	}}), nil
}

// UpdateCard changes the name and description of a card. List and position
// changes go through MoveCard so that ListID, BoardID and Position stay
// consistent.
func (c *Coordinator) UpdateCard(id string, patch domain.CardPatch) (*Mutation, error) {
	if patch.ListID != nil || patch.BoardID != nil || patch.Position != nil {
		return nil, &ValidationError{Field: "card patch", Reason: "list and position changes require a move"}
	}
	if patch.Name != nil {
		name, err := validateName("card name", *patch.Name)
		if err != nil {
			return nil, err
		}
		patch.Name = &name
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cur, err := c.store.Card(id)
	if err != nil {
		return nil, nil
	}
	next := cur
	patch.Apply(&next)
	if sameCard(cur, next) {
		return nil, nil
	}
	c.store.PatchCard(id, patch)

	key := cardKey(id)
	seq := c.issue(key, cardState{card: cur})
	return c.newMutation("card.update", step{key: key, seq: seq, call: func(ctx context.Context) (snapshot, error) {
		updated, err := c.gw.UpdateCard(ctx, id, patch)
		if err != nil {
			return nil, err
		}
		return cardState{card: mergeCard(next, updated)}, nil
	}}), nil
}

// RenameCard is UpdateCard with a new name.
func (c *Coordinator) RenameCard(id, name string) (*Mutation, error) {
	return c.UpdateCard(id, domain.CardPatch{Name: &name})
}

// DescribeCard is UpdateCard with a new description.
func (c *Coordinator) DescribeCard(id, description string) (*Mutation, error) {
	return c.UpdateCard(id, domain.CardPatch{Description: &description})
}

// DeleteCard removes a card.
func (c *Coordinator) DeleteCard(id string) (*Mutation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, err := c.store.Card(id)
	if err != nil {
		return nil, nil
	}
	c.store.RemoveCard(id)

	key := cardKey(id)
	seq := c.issue(key, cardState{card: cur})
	return c.newMutation("card.delete", step{key: key, seq: seq, call: func(ctx context.Context) (snapshot, error) {
		if err := c.gw.DeleteCard(ctx, id); err != nil {
			return nil, err
		}
		return absentState{key: key}, nil
	}}), nil
}

// PreviewCardMove applies a hover intent to the store. The first preview of
// a gesture records the card's pre-drag state and supersedes requests still
// in flight for it. Moves within a list stay local until the drop; a move
// to another list is persisted immediately.
func (c *Coordinator) PreviewCardMove(in drag.MoveIntent) (*Mutation, error) {
	return c.moveCard(in, true)
}

// MoveCard places a card at in.TargetIndex of list in.ToContainerID. After
// previews it ends the gesture and persists the final slot when it differs
// from what the server holds. Without previews it is a plain move. The
// returned mutation is nil when there is nothing to persist.
func (c *Coordinator) MoveCard(in drag.MoveIntent) (*Mutation, error) {
	return c.moveCard(in, false)
}

func (c *Coordinator) moveCard(in drag.MoveIntent, preview bool) (*Mutation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cardKey(in.ItemID)
	cur, err := c.store.Card(in.ItemID)
	if err != nil {
		c.abandon(key)
		return nil, nil
	}

	toList := in.ToContainerID
	if toList == "" {
		toList = cur.ListID
	}
	_, dragging := c.gestures[key]
	target, err := c.store.List(toList)
	if err != nil {
		err = fmt.Errorf("move card %s: %w", cur.ID, err)
		if dragging && !preview {
			return c.newMutation("card.move", c.endCardDrag(key)...), err
		}
		return nil, err
	}

	if preview && !dragging {
		c.gestures[key] = cardState{card: cur}
		c.hold(key, cardState{card: cur})
		dragging = true
	}

	sibs := c.store.Cards(target.ID)
	index := in.TargetIndex
	if in.Append {
		index = len(sibs)
	}
	res := position.Allocate(cardSiblings(sibs), cur.ID, index)

	op := "card.move"
	var steps []step
	moved := false
	switch res.Outcome {
	case position.Allocated:
		c.store.PatchCard(cur.ID, domain.CardPatch{
			ListID:   domain.Ptr(target.ID),
			BoardID:  domain.Ptr(target.BoardID),
			Position: domain.Ptr(res.Position),
		})
		moved = true
	case position.RenumberRequired:
		op = "card.renumber"
		var before []domain.Card
		before, moved = c.renumberCards(target, cur, res.Index)
		for _, card := range before {
			steps = append(steps, c.cardMoveStep(card.ID, cardState{card: card}))
		}
	}

	switch {
	case preview:
		if res.Outcome == position.RenumberRequired || (moved && cur.ListID != target.ID) {
			steps = append(steps, c.cardMoveStep(cur.ID, nil))
		}
	case dragging:
		steps = append(steps, c.endCardDrag(key)...)
	case moved:
		steps = append(steps, c.cardMoveStep(cur.ID, cardState{card: cur}))
	}
	return c.newMutation(op, steps...), nil
}

// CancelCardMove puts a dragged card back into its pre-drag list and slot.
// Nothing is sent unless the server may hold another state, i.e. the
// gesture persisted a list change or superseded a request in flight.
func (c *Coordinator) CancelCardMove(in drag.CancelIntent) (*Mutation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cardKey(in.ItemID)
	origin, ok := c.gestures[key]
	if !ok {
		return nil, nil
	}
	if _, err := c.store.Card(in.ItemID); err != nil {
		c.abandon(key)
		return nil, nil
	}
	origin.restore(c.store)

	op := "card.move"
	var steps []step
	cur, _ := c.store.Card(in.ItemID)
	if list, err := c.store.List(cur.ListID); err == nil {
		// Siblings renumbered during the gesture can sit on either side of
		// the restored position.
		res := position.Allocate(cardSiblings(c.store.Cards(list.ID)), cur.ID, in.OriginIndex)
		switch res.Outcome {
		case position.Allocated:
			c.store.PatchCard(cur.ID, domain.CardPatch{Position: domain.Ptr(res.Position)})
		case position.RenumberRequired:
			op = "card.renumber"
			before, _ := c.renumberCards(list, cur, res.Index)
			for _, card := range before {
				steps = append(steps, c.cardMoveStep(card.ID, cardState{card: card}))
			}
		}
	}

	steps = append(steps, c.endCardDrag(key)...)
	return c.newMutation(op, steps...), nil
}

// endCardDrag ends the gesture on a card and returns the request that
// persists its final state, if one is needed.
func (c *Coordinator) endCardDrag(key itemKey) []step {
	delete(c.gestures, key)
	if !c.release(key) {
		return nil
	}
	return []step{c.cardMoveStep(key.id, nil)}
}

// renumberCards spreads the cards of list evenly with mover at index. It
// returns the previous state of every other card it changed and whether
// mover itself changed.
func (c *Coordinator) renumberCards(list domain.List, mover domain.Card, index int) ([]domain.Card, bool) {
	sibs := c.store.Cards(list.ID)
	byID := make(map[string]domain.Card, len(sibs)+1)
	for _, card := range sibs {
		byID[card.ID] = card
	}
	byID[mover.ID] = mover

	patches := make(map[string]domain.CardPatch)
	var before []domain.Card
	moved := false
	for _, s := range position.Renumber(position.Reorder(cardSiblings(sibs), mover.ID, index)) {
		rec := byID[s.ID]
		if rec.ListID == list.ID && rec.Position == s.Position {
			continue
		}
		patches[s.ID] = domain.CardPatch{
			ListID:   domain.Ptr(list.ID),
			BoardID:  domain.Ptr(list.BoardID),
			Position: domain.Ptr(s.Position),
		}
		if s.ID == mover.ID {
			moved = true
			continue
		}
		before = append(before, rec)
	}
	c.store.PatchCards(patches)
	return before, moved
}

// cardMoveStep issues a request persisting the card's current list and
// position.
func (c *Coordinator) cardMoveStep(id string, base snapshot) step {
	key := cardKey(id)
	seq := c.issue(key, base)
	rec, _ := c.store.Card(id)
	patch := domain.CardPatch{
		ListID:   domain.Ptr(rec.ListID),
		Position: domain.Ptr(rec.Position),
	}
	return step{key: key, seq: seq, call: func(ctx context.Context) (snapshot, error) {
		updated, err := c.gw.UpdateCard(ctx, id, patch)
		if err != nil {
			return nil, err
		}
		return cardState{card: mergeCard(rec, updated)}, nil
	}}
}

func mergeCard(rec domain.Card, server *domain.Card) domain.Card {
	if server != nil {
		rec.Merge(*server)
	}
	return rec
}
