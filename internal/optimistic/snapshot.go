package optimistic

import (
	"github.com/h0rv/pulp/internal/domain"
	"github.com/h0rv/pulp/internal/store"
)

// snapshot is a recorded state of one item that can be written back into
// the store: a last known good baseline, or a confirmed server response.
type snapshot interface {
	restore(s *store.Store)
	matches(s *store.Store) bool
}

type itemKey struct {
	kind domain.EntityType
	id   string
}

func (k itemKey) String() string {
	return string(k.kind) + ":" + k.id
}

func boardKey(id string) itemKey { return itemKey{kind: domain.EntityBoard, id: id} }
func listKey(id string) itemKey  { return itemKey{kind: domain.EntityList, id: id} }
func cardKey(id string) itemKey  { return itemKey{kind: domain.EntityCard, id: id} }

type boardState struct{ board domain.Board }

func (st boardState) restore(s *store.Store) {
	s.UpsertBoards([]domain.Board{st.board})
	s.PatchBoard(st.board.ID, domain.BoardSnapshotPatch(st.board))
}

func (st boardState) matches(s *store.Store) bool {
	cur, err := s.Board(st.board.ID)
	return err == nil && cur.Name == st.board.Name
}

type listState struct{ list domain.List }

func (st listState) restore(s *store.Store) {
	putList(s, st.list)
}

func (st listState) matches(s *store.Store) bool {
	cur, err := s.List(st.list.ID)
	return err == nil && sameList(cur, st.list)
}

type cardState struct{ card domain.Card }

func (st cardState) restore(s *store.Store) {
	putCard(s, st.card)
}

func (st cardState) matches(s *store.Store) bool {
	cur, err := s.Card(st.card.ID)
	return err == nil && sameCard(cur, st.card)
}

// absentState is the state of an item that does not exist.
type absentState struct{ key itemKey }

func (st absentState) restore(s *store.Store) {
	switch st.key.kind {
	case domain.EntityBoard:
		s.RemoveBoard(st.key.id)
	case domain.EntityList:
		s.RemoveList(st.key.id)
	case domain.EntityCard:
		s.RemoveCard(st.key.id)
	}
}

func (st absentState) matches(s *store.Store) bool {
	var err error
	switch st.key.kind {
	case domain.EntityBoard:
		_, err = s.Board(st.key.id)
	case domain.EntityList:
		_, err = s.List(st.key.id)
	case domain.EntityCard:
		_, err = s.Card(st.key.id)
	}
	return err != nil
}

// createdState swaps a provisional record for the one the server created,
// which may carry another ID.
type createdState struct {
	provisional itemKey
	newID       string
	next        snapshot
}

func (st createdState) restore(s *store.Store) {
	if st.newID != st.provisional.id {
		absentState{key: st.provisional}.restore(s)
	}
	st.next.restore(s)
}

func (st createdState) matches(s *store.Store) bool {
	return st.next.matches(s)
}

// listTree is a deleted list together with the cards removed with it.
type listTree struct {
	list  domain.List
	cards []domain.Card
}

func (st listTree) restore(s *store.Store) {
	putList(s, st.list)
	for _, c := range st.cards {
		putCard(s, c)
	}
}

func (st listTree) matches(s *store.Store) bool {
	return listState{list: st.list}.matches(s)
}

// boardTree is a deleted board together with its cascaded lists and cards.
type boardTree struct {
	board domain.Board
	lists []domain.List
	cards []domain.Card
}

func (st boardTree) restore(s *store.Store) {
	boardState{board: st.board}.restore(s)
	for _, l := range st.lists {
		putList(s, l)
	}
	for _, c := range st.cards {
		putCard(s, c)
	}
}

func (st boardTree) matches(s *store.Store) bool {
	return boardState{board: st.board}.matches(s)
}

// putList writes l into the store. Explicit zero values win over the cached
// ones, unlike a plain upsert.
func putList(s *store.Store, l domain.List) {
	s.UpsertLists([]domain.List{l})
	s.PatchList(l.ID, domain.ListSnapshotPatch(l))
}

func putCard(s *store.Store, c domain.Card) {
	s.UpsertCards([]domain.Card{c})
	s.PatchCard(c.ID, domain.CardSnapshotPatch(c))
}

func sameList(a, b domain.List) bool {
	return a.BoardID == b.BoardID && a.Name == b.Name && a.Position == b.Position
}

func sameCard(a, b domain.Card) bool {
	return a.ListID == b.ListID &&
		a.BoardID == b.BoardID &&
		a.Name == b.Name &&
		a.Description == b.Description &&
		a.Position == b.Position
}
