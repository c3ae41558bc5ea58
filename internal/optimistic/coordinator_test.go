package optimistic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h0rv/pulp/internal/domain"
	"github.com/h0rv/pulp/internal/drag"
)

// pickUp starts a gesture on the tracker for a card at its current slot.
func pickUp(t *testing.T, env *testEnv, tr *drag.Tracker, cardID string) {
	t.Helper()
	card := env.card(t, cardID)
	index := -1
	for i, c := range env.store.Cards(card.ListID) {
		if c.ID == cardID {
			index = i
		}
	}
	require.NoError(t, tr.PickUp(cardID, card.ListID, index))
}

func hover(t *testing.T, env *testEnv, tr *drag.Tracker, listID string, index int) *Mutation {
	t.Helper()
	intent, ok := tr.Hover(listID, index)
	require.True(t, ok)
	m, err := env.c.PreviewCardMove(intent)
	require.NoError(t, err)
	return m
}

func TestDrag_HoverWithinListStaysLocal(t *testing.T) {
	env := newTestEnv(t)
	var tr drag.Tracker
	pickUp(t, env, &tr, "card_3")

	assert.Nil(t, hover(t, env, &tr, "list_todo", 0))
	assert.Equal(t, []string{"card_3", "card_1", "card_2"}, cardIDs(env.store.Cards("list_todo")))

	assert.Nil(t, hover(t, env, &tr, "list_todo", 1))
	assert.Equal(t, []string{"card_1", "card_3", "card_2"}, cardIDs(env.store.Cards("list_todo")))
	assert.Equal(t, float64(98304), env.card(t, "card_3").Position)
	assert.Empty(t, env.gw.Calls())

	final, err := tr.Drop()
	require.NoError(t, err)
	m, err := env.c.MoveCard(final)
	require.NoError(t, err)
	require.NotNil(t, m, "drop must persist the final slot")

	require.NoError(t, m.Send(context.Background()))
	assert.Equal(t, []string{"UpdateCard card_3"}, env.gw.Calls())
	assert.Equal(t, float64(98304), *env.gw.lastCardPatch("card_3").Position)
	assert.False(t, env.c.Syncing(domain.EntityCard, "card_3"))
}

func TestDrag_DropBackAtOriginSendsNothing(t *testing.T) {
	env := newTestEnv(t)
	var tr drag.Tracker
	pickUp(t, env, &tr, "card_3")

	hover(t, env, &tr, "list_todo", 0)
	hover(t, env, &tr, "list_todo", 2)
	assert.Equal(t, float64(196608), env.card(t, "card_3").Position)

	final, err := tr.Drop()
	require.NoError(t, err)
	m, err := env.c.MoveCard(final)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Empty(t, env.gw.Calls())
}

func TestDrag_CrossListHoverIsPersisted(t *testing.T) {
	env := newTestEnv(t)
	var tr drag.Tracker
	pickUp(t, env, &tr, "card_1")

	m := hover(t, env, &tr, "list_doing", 1)
	require.NotNil(t, m)
	card := env.card(t, "card_1")
	assert.Equal(t, "list_doing", card.ListID)
	assert.Equal(t, float64(131072), card.Position)
	assert.True(t, env.c.Syncing(domain.EntityCard, "card_1"))

	require.NoError(t, m.Send(context.Background()))
	assert.Equal(t, "list_doing", *env.gw.lastCardPatch("card_1").ListID)

	final, err := tr.Drop()
	require.NoError(t, err)
	m, err = env.c.MoveCard(final)
	require.NoError(t, err)
	assert.Nil(t, m, "the drop slot was already persisted by the hover")
}

func TestDrag_CancelWithinListIsLocal(t *testing.T) {
	env := newTestEnv(t)
	var tr drag.Tracker
	pickUp(t, env, &tr, "card_3")
	hover(t, env, &tr, "list_todo", 0)

	intent, err := tr.Cancel()
	require.NoError(t, err)
	m, err := env.c.CancelCardMove(intent)
	require.NoError(t, err)
	assert.Nil(t, m)

	assert.Equal(t, float64(196608), env.card(t, "card_3").Position)
	assert.Equal(t, []string{"card_1", "card_2", "card_3"}, cardIDs(env.store.Cards("list_todo")))
	assert.Empty(t, env.gw.Calls())
}

func TestDrag_CancelAfterCrossListHoverRevertsToOrigin(t *testing.T) {
	env := newTestEnv(t)
	var tr drag.Tracker
	pickUp(t, env, &tr, "card_1")

	m := hover(t, env, &tr, "list_doing", 0)
	require.NoError(t, m.Send(context.Background()))

	intent, err := tr.Cancel()
	require.NoError(t, err)
	assert.Equal(t, "list_todo", intent.OriginContainerID)

	m, err = env.c.CancelCardMove(intent)
	require.NoError(t, err)

	card := env.card(t, "card_1")
	assert.Equal(t, "list_todo", card.ListID)
	assert.Equal(t, float64(65536), card.Position)
	assert.Equal(t, []string{"card_1", "card_2", "card_3"}, cardIDs(env.store.Cards("list_todo")))
	assert.Equal(t, []string{"card_4"}, cardIDs(env.store.Cards("list_doing")))

	require.NotNil(t, m, "the persisted list change must be reverted on the server")
	require.NoError(t, m.Send(context.Background()))
	patch := env.gw.lastCardPatch("card_1")
	assert.Equal(t, "list_todo", *patch.ListID)
	assert.Equal(t, float64(65536), *patch.Position)
}

func TestDrag_CancelWithoutPreviewIsNoop(t *testing.T) {
	env := newTestEnv(t)

	m, err := env.c.CancelCardMove(drag.CancelIntent{ItemID: "card_1", OriginContainerID: "list_todo"})
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestDrag_PreviewSupersedesInFlightRequest(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.c.MoveCard(drag.MoveIntent{ItemID: "card_3", FromContainerID: "list_todo", ToContainerID: "list_todo", TargetIndex: 0})
	require.NoError(t, err)
	assert.Equal(t, float64(32768), env.card(t, "card_3").Position)

	var tr drag.Tracker
	pickUp(t, env, &tr, "card_3")
	hover(t, env, &tr, "list_todo", 2)
	assert.Equal(t, float64(196608), env.card(t, "card_3").Position)

	// The earlier request answers while the card is being dragged.
	assert.ErrorIs(t, first.Send(context.Background()), ErrStaleResponse)
	assert.Equal(t, float64(196608), env.card(t, "card_3").Position)

	final, err := tr.Drop()
	require.NoError(t, err)
	m, err := env.c.MoveCard(final)
	require.NoError(t, err)
	require.NotNil(t, m, "the server holds the superseded position")
	require.NoError(t, m.Send(context.Background()))
	assert.Equal(t, float64(196608), *env.gw.lastCardPatch("card_3").Position)
	assert.Equal(t, float64(196608), env.card(t, "card_3").Position)
}

// twoMoves issues two moves of card_3 and returns them in issue order.
func twoMoves(t *testing.T, env *testEnv) (*Mutation, *Mutation) {
	t.Helper()
	first, err := env.c.MoveCard(drag.MoveIntent{ItemID: "card_3", FromContainerID: "list_todo", ToContainerID: "list_todo", TargetIndex: 0})
	require.NoError(t, err)
	second, err := env.c.MoveCard(drag.MoveIntent{ItemID: "card_3", FromContainerID: "list_todo", ToContainerID: "list_todo", TargetIndex: 1})
	require.NoError(t, err)
	require.Less(t, first.ID(), second.ID())
	return first, second
}

func TestConcurrentMoves(t *testing.T) {
	t.Run("later request wins when it answers first", func(t *testing.T) {
		env := newTestEnv(t)
		first, second := twoMoves(t, env)
		assert.Equal(t, float64(98304), env.card(t, "card_3").Position)

		require.NoError(t, second.Send(context.Background()))
		assert.ErrorIs(t, first.Send(context.Background()), ErrStaleResponse)
		assert.Equal(t, float64(98304), env.card(t, "card_3").Position)
	})

	t.Run("later request wins when it answers last", func(t *testing.T) {
		env := newTestEnv(t)
		first, second := twoMoves(t, env)

		assert.ErrorIs(t, first.Send(context.Background()), ErrStaleResponse)
		assert.Equal(t, float64(98304), env.card(t, "card_3").Position)

		require.NoError(t, second.Send(context.Background()))
		assert.Equal(t, float64(98304), env.card(t, "card_3").Position)
		assert.False(t, env.c.Syncing(domain.EntityCard, "card_3"))
	})

	t.Run("stale failure is discarded", func(t *testing.T) {
		env := newTestEnv(t)
		first, second := twoMoves(t, env)

		env.gw.fail("UpdateCard")
		assert.ErrorIs(t, first.Send(context.Background()), ErrStaleResponse)
		assert.Equal(t, float64(98304), env.card(t, "card_3").Position)
		assert.Empty(t, env.errors)

		env.gw.succeed("UpdateCard")
		require.NoError(t, second.Send(context.Background()))
		assert.Equal(t, float64(98304), env.card(t, "card_3").Position)
	})

	t.Run("failure of the latest request restores the last known good state", func(t *testing.T) {
		env := newTestEnv(t)
		first, second := twoMoves(t, env)

		env.gw.fail("UpdateCard")
		require.Error(t, second.Send(context.Background()))
		assert.Equal(t, float64(196608), env.card(t, "card_3").Position)

		// The older request still succeeds on the server: local state
		// follows it, since nothing newer is pending.
		env.gw.succeed("UpdateCard")
		assert.ErrorIs(t, first.Send(context.Background()), ErrStaleResponse)
		assert.Equal(t, float64(32768), env.card(t, "card_3").Position)
	})
}

func TestLoadBoard(t *testing.T) {
	t.Run("replaces cached lists and cards", func(t *testing.T) {
		env := newTestEnv(t)
		snap := testSnapshot()
		snap.Lists = snap.Lists[:2]
		snap.Cards = snap.Cards[:2]
		env.gw.snapshot = snap

		board, m, err := env.c.LoadBoard(context.Background(), domain.ParseBoardRef("alice/roadmap"))
		require.NoError(t, err)
		assert.Nil(t, m)
		assert.Equal(t, "board_1", board.ID)
		assert.Equal(t, []string{"GetBoard alice/roadmap"}, env.gw.Calls())
		assert.Equal(t, []string{"list_todo", "list_doing"}, listIDs(env.store.Lists("board_1")))
		assert.Equal(t, []string{"card_1", "card_2"}, cardIDs(env.store.Cards("list_todo")))
	})

	t.Run("backfills missing positions", func(t *testing.T) {
		env := newTestEnv(t)
		env.gw.snapshot = &domain.BoardSnapshot{
			Board: domain.Board{ID: "board_2", Name: "Legacy"},
			Lists: []domain.List{
				{ID: "l1", BoardID: "board_2", Name: "One"},
				{ID: "l2", BoardID: "board_2", Name: "Two", Position: 65536},
			},
			Cards: []domain.Card{
				{ID: "c1", ListID: "l2", BoardID: "board_2", Name: "a"},
				{ID: "c2", ListID: "l2", BoardID: "board_2", Name: "b"},
			},
		}

		_, m, err := env.c.LoadBoard(context.Background(), domain.BoardRef{ID: "board_2"})
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, []string{"l1", "c1", "c2"}, m.Items())

		assert.Equal(t, []string{"l2", "l1"}, listIDs(env.store.Lists("board_2")))
		assert.Equal(t, float64(131072), env.list(t, "l1").Position)
		assert.Equal(t, float64(65536), env.card(t, "c1").Position)
		assert.Equal(t, float64(131072), env.card(t, "c2").Position)

		require.NoError(t, m.Send(context.Background()))
		assert.Equal(t, []string{"GetBoard board_2", "UpdateList l1", "UpdateCard c1", "UpdateCard c2"}, env.gw.Calls())
	})

	t.Run("keeps optimistic state of items in flight", func(t *testing.T) {
		env := newTestEnv(t)
		env.gw.snapshot = testSnapshot()

		m, err := env.c.RenameCard("card_1", "Bar")
		require.NoError(t, err)

		_, _, err = env.c.LoadBoard(context.Background(), domain.BoardRef{ID: "board_1"})
		require.NoError(t, err)
		assert.Equal(t, "Bar", env.card(t, "card_1").Name)

		env.gw.fail("UpdateCard")
		require.Error(t, m.Send(context.Background()))
		assert.Equal(t, "Foo", env.card(t, "card_1").Name)
	})

	t.Run("gateway error", func(t *testing.T) {
		env := newTestEnv(t)
		env.gw.fail("GetBoard")

		_, _, err := env.c.LoadBoard(context.Background(), domain.BoardRef{ID: "board_1"})
		assert.ErrorIs(t, err, errServer)
		assert.Len(t, env.store.Lists("board_1"), 3)
	})
}

func TestLoadBoards(t *testing.T) {
	env := newTestEnv(t)
	env.gw.boards = []domain.Board{
		{ID: "board_2", Name: "Archive"},
		{ID: "board_1", Name: "Roadmap", Slug: "roadmap"},
	}

	boards, err := env.c.LoadBoards(context.Background())
	require.NoError(t, err)
	require.Len(t, boards, 2)
	assert.Equal(t, "Archive", boards[0].Name)
	assert.Equal(t, "alice", boards[1].OwnerLogin(), "cached owner survives a partial record")
}

func TestSyncing(t *testing.T) {
	env := newTestEnv(t)
	assert.False(t, env.c.Syncing(domain.EntityCard, "card_1"))

	m, err := env.c.RenameCard("card_1", "Bar")
	require.NoError(t, err)
	assert.True(t, env.c.Syncing(domain.EntityCard, "card_1"))

	require.NoError(t, m.Send(context.Background()))
	assert.False(t, env.c.Syncing(domain.EntityCard, "card_1"))
}
