package optimistic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h0rv/pulp/internal/drag"
)

func TestCreateList(t *testing.T) {
	env := newTestEnv(t)

	l, m, err := env.c.CreateList("board_1", "Blocked")
	require.NoError(t, err)
	assert.Equal(t, float64(262144), l.Position)
	assert.Equal(t, []string{"list_todo", "list_doing", "list_done", "new_1"}, listIDs(env.store.Lists("board_1")))

	require.NoError(t, m.Send(context.Background()))
	assert.Equal(t, []string{"CreateList new_1"}, env.gw.Calls())
	assert.Equal(t, "Blocked", env.list(t, "new_1").Name)

	_, _, err = env.c.CreateList("board_404", "x")
	assert.Error(t, err)
}

func TestRenameList(t *testing.T) {
	env := newTestEnv(t)
	env.gw.fail("UpdateList")

	m, err := env.c.RenameList("list_todo", "Backlog")
	require.NoError(t, err)
	assert.Equal(t, "Backlog", env.list(t, "list_todo").Name)

	require.Error(t, m.Send(context.Background()))
	assert.Equal(t, "Todo", env.list(t, "list_todo").Name)

	_, err = env.c.RenameList("list_todo", "")
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestDeleteList(t *testing.T) {
	env := newTestEnv(t)
	env.gw.fail("DeleteList")

	m, err := env.c.DeleteList("list_todo")
	require.NoError(t, err)
	assert.Equal(t, []string{"list_doing", "list_done"}, listIDs(env.store.Lists("board_1")))
	assert.Empty(t, env.store.Cards("list_todo"))

	require.Error(t, m.Send(context.Background()))
	assert.Equal(t, []string{"list_todo", "list_doing", "list_done"}, listIDs(env.store.Lists("board_1")))
	assert.Equal(t, []string{"card_1", "card_2", "card_3"}, cardIDs(env.store.Cards("list_todo")))
}

func TestMoveList(t *testing.T) {
	t.Run("direct move", func(t *testing.T) {
		env := newTestEnv(t)

		m, err := env.c.MoveList(drag.MoveIntent{ItemID: "list_done", FromContainerID: "board_1", ToContainerID: "board_1", TargetIndex: 0})
		require.NoError(t, err)
		assert.Equal(t, float64(32768), env.list(t, "list_done").Position)
		assert.Equal(t, []string{"list_done", "list_todo", "list_doing"}, listIDs(env.store.Lists("board_1")))

		require.NoError(t, m.Send(context.Background()))
		assert.Equal(t, []string{"UpdateList list_done"}, env.gw.Calls())
	})

	t.Run("own slot", func(t *testing.T) {
		env := newTestEnv(t)

		m, err := env.c.MoveList(drag.MoveIntent{ItemID: "list_doing", ToContainerID: "board_1", TargetIndex: 1})
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("failed move is rolled back", func(t *testing.T) {
		env := newTestEnv(t)
		env.gw.fail("UpdateList")

		m, err := env.c.MoveList(drag.MoveIntent{ItemID: "list_todo", ToContainerID: "board_1", Append: true})
		require.NoError(t, err)
		assert.Equal(t, float64(262144), env.list(t, "list_todo").Position)

		require.Error(t, m.Send(context.Background()))
		assert.Equal(t, []string{"list_todo", "list_doing", "list_done"}, listIDs(env.store.Lists("board_1")))
	})

	t.Run("drag then drop", func(t *testing.T) {
		env := newTestEnv(t)
		var tr drag.Tracker
		require.NoError(t, tr.PickUp("list_todo", "board_1", 0))

		intent, ok := tr.Hover("board_1", 2)
		require.True(t, ok)
		m, err := env.c.PreviewListMove(intent)
		require.NoError(t, err)
		assert.Nil(t, m)
		assert.Equal(t, []string{"list_doing", "list_done", "list_todo"}, listIDs(env.store.Lists("board_1")))

		final, err := tr.Drop()
		require.NoError(t, err)
		m, err = env.c.MoveList(final)
		require.NoError(t, err)
		require.NotNil(t, m)
		require.NoError(t, m.Send(context.Background()))
		assert.Equal(t, []string{"UpdateList list_todo"}, env.gw.Calls())
	})

	t.Run("drag then cancel", func(t *testing.T) {
		env := newTestEnv(t)
		var tr drag.Tracker
		require.NoError(t, tr.PickUp("list_todo", "board_1", 0))

		intent, _ := tr.Hover("board_1", 1)
		_, err := env.c.PreviewListMove(intent)
		require.NoError(t, err)

		cancelIntent, err := tr.Cancel()
		require.NoError(t, err)
		m, err := env.c.CancelListMove(cancelIntent)
		require.NoError(t, err)
		assert.Nil(t, m)
		assert.Equal(t, float64(65536), env.list(t, "list_todo").Position)
		assert.Empty(t, env.gw.Calls())
	})
}
