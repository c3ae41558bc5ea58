package optimistic

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/h0rv/pulp/internal/domain"
	"github.com/h0rv/pulp/internal/store"
)

var errServer = errors.New("500 internal server error")

// fakeGateway records calls and echoes requests back as server records.
type fakeGateway struct {
	mu          sync.Mutex
	calls       []string
	cardPatches map[string][]domain.CardPatch
	listPatches map[string][]domain.ListPatch
	failOn      map[string]error

	snapshot  *domain.BoardSnapshot
	boards    []domain.Board
	createdID string
	slug      string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		cardPatches: make(map[string][]domain.CardPatch),
		listPatches: make(map[string][]domain.ListPatch),
		failOn:      make(map[string]error),
	}
}

// fail makes a call fail. call is a method name, optionally followed by a
// space and an ID.
func (f *fakeGateway) fail(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[call] = errServer
}

func (f *fakeGateway) succeed(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failOn, call)
}

func (f *fakeGateway) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeGateway) lastCardPatch(id string) domain.CardPatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	patches := f.cardPatches[id]
	if len(patches) == 0 {
		return domain.CardPatch{}
	}
	return patches[len(patches)-1]
}

func (f *fakeGateway) record(ctx context.Context, method, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	f.calls = append(f.calls, method+" "+id)
	if err, ok := f.failOn[method+" "+id]; ok {
		return err
	}
	return f.failOn[method]
}

func (f *fakeGateway) ListBoards(ctx context.Context) ([]domain.Board, error) {
	if err := f.record(ctx, "ListBoards", ""); err != nil {
		return nil, err
	}
	return f.boards, nil
}

func (f *fakeGateway) GetBoard(ctx context.Context, ref domain.BoardRef) (*domain.BoardSnapshot, error) {
	if err := f.record(ctx, "GetBoard", ref.String()); err != nil {
		return nil, err
	}
	return f.snapshot, nil
}

func (f *fakeGateway) CreateBoard(ctx context.Context, in domain.BoardCreate) (*domain.Board, error) {
	if err := f.record(ctx, "CreateBoard", in.Name); err != nil {
		return nil, err
	}
	return &domain.Board{ID: f.createdID, Name: in.Name, Slug: f.slug}, nil
}

func (f *fakeGateway) UpdateBoard(ctx context.Context, id string, patch domain.BoardPatch) (*domain.Board, error) {
	if err := f.record(ctx, "UpdateBoard", id); err != nil {
		return nil, err
	}
	b := domain.Board{ID: id, Slug: f.slug}
	patch.Apply(&b)
	return &b, nil
}

func (f *fakeGateway) DeleteBoard(ctx context.Context, id string) error {
	return f.record(ctx, "DeleteBoard", id)
}

func (f *fakeGateway) CreateList(ctx context.Context, boardID string, in domain.ListCreate) (*domain.List, error) {
	if err := f.record(ctx, "CreateList", in.ID); err != nil {
		return nil, err
	}
	id := in.ID
	if f.createdID != "" {
		id = f.createdID
	}
	return &domain.List{ID: id, BoardID: boardID, Name: in.Name, Position: in.Position, Slug: f.slug}, nil
}

func (f *fakeGateway) UpdateList(ctx context.Context, id string, patch domain.ListPatch) (*domain.List, error) {
	if err := f.record(ctx, "UpdateList", id); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.listPatches[id] = append(f.listPatches[id], patch)
	f.mu.Unlock()

	l := domain.List{ID: id}
	patch.Apply(&l)
	return &l, nil
}

func (f *fakeGateway) DeleteList(ctx context.Context, id string) error {
	return f.record(ctx, "DeleteList", id)
}

func (f *fakeGateway) CreateCard(ctx context.Context, listID string, in domain.CardCreate) (*domain.Card, error) {
	if err := f.record(ctx, "CreateCard", in.ID); err != nil {
		return nil, err
	}
	id := in.ID
	if f.createdID != "" {
		id = f.createdID
	}
	return &domain.Card{
		ID:          id,
		ListID:      listID,
		Name:        in.Name,
		Description: in.Description,
		Position:    in.Position,
		Slug:        f.slug,
	}, nil
}

func (f *fakeGateway) UpdateCard(ctx context.Context, id string, patch domain.CardPatch) (*domain.Card, error) {
	if err := f.record(ctx, "UpdateCard", id); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.cardPatches[id] = append(f.cardPatches[id], patch)
	f.mu.Unlock()

	c := domain.Card{ID: id, Slug: f.slug}
	patch.Apply(&c)
	return &c, nil
}

func (f *fakeGateway) DeleteCard(ctx context.Context, id string) error {
	return f.record(ctx, "DeleteCard", id)
}

// testSnapshot returns board_1 with three lists:
//
//	list_todo:  card_1 (65536), card_2 (131072), card_3 (196608)
//	list_doing: card_4 (65536)
//	list_done:  empty
func testSnapshot() *domain.BoardSnapshot {
	return &domain.BoardSnapshot{
		Board: domain.Board{
			ID:    "board_1",
			Name:  "Roadmap",
			Slug:  "roadmap",
			Owner: &domain.User{ID: "user_1", Login: "alice"},
		},
		Lists: []domain.List{
			{ID: "list_todo", BoardID: "board_1", Name: "Todo", Slug: "todo", Position: 65536},
			{ID: "list_doing", BoardID: "board_1", Name: "Doing", Slug: "doing", Position: 131072},
			{ID: "list_done", BoardID: "board_1", Name: "Done", Slug: "done", Position: 196608},
		},
		Cards: []domain.Card{
			{ID: "card_1", ListID: "list_todo", BoardID: "board_1", Name: "Foo", Slug: "foo", Position: 65536},
			{ID: "card_2", ListID: "list_todo", BoardID: "board_1", Name: "Write tests", Position: 131072},
			{ID: "card_3", ListID: "list_todo", BoardID: "board_1", Name: "Ship", Position: 196608},
			{ID: "card_4", ListID: "list_doing", BoardID: "board_1", Name: "Review", Position: 65536},
		},
	}
}

type testEnv struct {
	c      *Coordinator
	store  *store.Store
	gw     *fakeGateway
	errors []error
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s := store.New()
	s.ReplaceBoard(*testSnapshot())

	env := &testEnv{store: s, gw: newFakeGateway()}
	n := 0
	env.c = New(s, env.gw,
		WithIDGenerator(func() string {
			n++
			return "new_" + strconv.Itoa(n)
		}),
		WithNotifier(NotifierFunc(func(err error) {
			env.errors = append(env.errors, err)
		})),
	)
	return env
}

func (e *testEnv) card(t *testing.T, id string) domain.Card {
	t.Helper()
	c, err := e.store.Card(id)
	require.NoError(t, err)
	return c
}

func (e *testEnv) list(t *testing.T, id string) domain.List {
	t.Helper()
	l, err := e.store.List(id)
	require.NoError(t, err)
	return l
}

func cardIDs(cards []domain.Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}

func listIDs(lists []domain.List) []string {
	ids := make([]string, len(lists))
	for i, l := range lists {
		ids[i] = l.ID
	}
	return ids
}
