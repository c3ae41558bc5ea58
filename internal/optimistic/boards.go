package optimistic

import (
	"context"

	"github.com/h0rv/pulp/internal/domain"
)

// CreateBoard inserts a provisional board under a client-generated ID. The
// mutation replaces it with the board created by the server, or removes it
// when the request fails.
func (c *Coordinator) CreateBoard(name string) (domain.Board, *Mutation, error) {
	name, err := validateName("board name", name)
	if err != nil {
		return domain.Board{}, nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	b := domain.Board{ID: c.newID(), Name: name}
	c.store.UpsertBoards([]domain.Board{b})

	key := boardKey(b.ID)
	seq := c.issue(key, absentState{key: key})
	return b, c.newMutation("board.create", step{key: key, seq: seq, call: func(ctx context.Context) (snapshot, error) {
		created, err := c.gw.CreateBoard(ctx, domain.BoardCreate{Name: name})
		if err != nil {
			return nil, err
		}
		rec := b
		if created != nil {
			rec.Merge(*created)
			if created.ID != "" {
				rec.ID = created.ID
			}
		}
		return createdState{provisional: key, newID: rec.ID, next: boardState{board: rec}}, nil
	}}), nil
}

// RenameBoard renames a board. Renaming an unknown board, or to its current
// name, returns a nil mutation.
func (c *Coordinator) RenameBoard(id, name string) (*Mutation, error) {
	name, err := validateName("board name", name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cur, err := c.store.Board(id)
	if err != nil || cur.Name == name {
		return nil, nil
	}

	patch := domain.BoardPatch{Name: domain.Ptr(name)}
	c.store.PatchBoard(id, patch)
	next := cur
	patch.Apply(&next)

	key := boardKey(id)
	seq := c.issue(key, boardState{board: cur})
	return c.newMutation("board.rename", step{key: key, seq: seq, call: func(ctx context.Context) (snapshot, error) {
		updated, err := c.gw.UpdateBoard(ctx, id, patch)
		if err != nil {
			return nil, err
		}
		rec := next
		if updated != nil {
			rec.Merge(*updated)
		}
		return boardState{board: rec}, nil
	}}), nil
}

// DeleteBoard removes a board together with its cached lists and cards. A
// failed request puts all of them back.
func (c *Coordinator) DeleteBoard(id string) (*Mutation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, err := c.store.Board(id)
	if err != nil {
		return nil, nil
	}
	lists, cards := c.store.RemoveBoard(id)

	key := boardKey(id)
	seq := c.issue(key, boardTree{board: cur, lists: lists, cards: cards})
	return c.newMutation("board.delete", step{key: key, seq: seq, call: func(ctx context.Context) (snapshot, error) {
		if err := c.gw.DeleteBoard(ctx, id); err != nil {
			return nil, err
		}
		return absentState{key: key}, nil
	}}), nil
}
