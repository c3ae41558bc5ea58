package optimistic

import (
	"context"

	"github.com/h0rv/pulp/internal/domain"
)

// Gateway is the remote API the coordinator persists mutations to.
// Any error means the request failed and its optimistic change is undone.
type Gateway interface {
	ListBoards(ctx context.Context) ([]domain.Board, error)
	GetBoard(ctx context.Context, ref domain.BoardRef) (*domain.BoardSnapshot, error)
	CreateBoard(ctx context.Context, in domain.BoardCreate) (*domain.Board, error)
	UpdateBoard(ctx context.Context, id string, patch domain.BoardPatch) (*domain.Board, error)
	DeleteBoard(ctx context.Context, id string) error

	CreateList(ctx context.Context, boardID string, in domain.ListCreate) (*domain.List, error)
	UpdateList(ctx context.Context, id string, patch domain.ListPatch) (*domain.List, error)
	DeleteList(ctx context.Context, id string) error

	CreateCard(ctx context.Context, listID string, in domain.CardCreate) (*domain.Card, error)
	UpdateCard(ctx context.Context, id string, patch domain.CardPatch) (*domain.Card, error)
	DeleteCard(ctx context.Context, id string) error
}

// Notifier receives errors of failed mutations after their rollback.
type Notifier interface {
	Notify(err error)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(err error)

// Notify calls f(err).
func (f NotifierFunc) Notify(err error) {
	f(err)
}
