package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/h0rv/pulp/internal/domain"
)

// ListBoards returns the boards of the authenticated user.
func (c *Client) ListBoards(ctx context.Context) ([]domain.Board, error) {
	var boards []domain.Board
	if err := c.do(ctx, http.MethodGet, c.endpoint("user", "boards"), nil, &boards); err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	return boards, nil
}

// GetBoard returns a board with all of its lists and cards. ref selects the
// board by ID or by owner login and slug.
func (c *Client) GetBoard(ctx context.Context, ref domain.BoardRef) (*domain.BoardSnapshot, error) {
	if ref.IsZero() {
		return nil, errors.New("failed to get board: empty board reference")
	}

	endpoint := c.endpoint("boards", ref.ID)
	if ref.ID == "" {
		endpoint = c.endpoint("boards", ref.Owner, ref.Slug)
	}

	var snap domain.BoardSnapshot
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &snap); err != nil {
		return nil, fmt.Errorf("failed to get board %s: %w", ref, err)
	}

	// Older servers omit the denormalized board ID on nested records.
	for i := range snap.Lists {
		if snap.Lists[i].BoardID == "" {
			snap.Lists[i].BoardID = snap.ID
		}
	}
	for i := range snap.Cards {
		if snap.Cards[i].BoardID == "" {
			snap.Cards[i].BoardID = snap.ID
		}
	}
	return &snap, nil
}
