package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/h0rv/pulp/internal/domain"
)

// CreateBoard creates a board owned by the authenticated user.
func (c *Client) CreateBoard(ctx context.Context, in domain.BoardCreate) (*domain.Board, error) {
	var b domain.Board
	if err := c.do(ctx, http.MethodPost, c.endpoint("user", "boards"), in, &b); err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}
	return &b, nil
}

// UpdateBoard patches a board.
func (c *Client) UpdateBoard(ctx context.Context, id string, patch domain.BoardPatch) (*domain.Board, error) {
	var b domain.Board
	if err := c.do(ctx, http.MethodPatch, c.endpoint("boards", id), patch, &b); err != nil {
		return nil, fmt.Errorf("failed to update board %s: %w", id, err)
	}
	return &b, nil
}

// DeleteBoard deletes a board with its lists and cards.
func (c *Client) DeleteBoard(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, c.endpoint("boards", id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete board %s: %w", id, err)
	}
	return nil
}

// CreateList creates a list in a board.
func (c *Client) CreateList(ctx context.Context, boardID string, in domain.ListCreate) (*domain.List, error) {
	var l domain.List
	if err := c.do(ctx, http.MethodPost, c.endpoint("boards", boardID, "lists"), in, &l); err != nil {
		return nil, fmt.Errorf("failed to create list: %w", err)
	}
	return &l, nil
}

// UpdateList patches a list.
func (c *Client) UpdateList(ctx context.Context, id string, patch domain.ListPatch) (*domain.List, error) {
	var l domain.List
	if err := c.do(ctx, http.MethodPatch, c.endpoint("lists", id), patch, &l); err != nil {
		return nil, fmt.Errorf("failed to update list %s: %w", id, err)
	}
	return &l, nil
}

// DeleteList deletes a list with its cards.
func (c *Client) DeleteList(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, c.endpoint("lists", id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete list %s: %w", id, err)
	}
	return nil
}

// CreateCard creates a card in a list. in.ID, when set, is kept by the
// server as the card ID.
func (c *Client) CreateCard(ctx context.Context, listID string, in domain.CardCreate) (*domain.Card, error) {
	var card domain.Card
	if err := c.do(ctx, http.MethodPost, c.endpoint("lists", listID, "cards"), in, &card); err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}
	return &card, nil
}

// UpdateCard patches a card. Setting ListID moves it to another list.
func (c *Client) UpdateCard(ctx context.Context, id string, patch domain.CardPatch) (*domain.Card, error) {
	var card domain.Card
	if err := c.do(ctx, http.MethodPatch, c.endpoint("cards", id), patch, &card); err != nil {
		return nil, fmt.Errorf("failed to update card %s: %w", id, err)
	}
	return &card, nil
}

// DeleteCard deletes a card.
func (c *Client) DeleteCard(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, c.endpoint("cards", id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	return nil
}
