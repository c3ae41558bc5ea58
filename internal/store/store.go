// Package store provides the normalized in-memory entity cache for boards,
// lists and cards. It is the single owner of entity truth on the client: reads
// return copies, and writes go through a narrow upsert/patch/remove API that
// keeps the per-container ordered indices in sync.
package store

import (
	"errors"
	"sort"
	"sync"

	"github.com/h0rv/pulp/internal/domain"
)

var (
	// ErrBoardNotFound indicates the requested board is not cached.
	ErrBoardNotFound = errors.New("board not found")
	// ErrListNotFound indicates the requested list is not cached.
	ErrListNotFound = errors.New("list not found")
	// ErrCardNotFound indicates the requested card is not cached.
	ErrCardNotFound = errors.New("card not found")
)

// Store holds the normalized tables
// {boards: {byID}, lists: {byID, idsByBoard}, cards: {byID, idsByList}}.
// It is safe for concurrent use; every method is atomic.
type Store struct {
	mu sync.RWMutex

	boards map[string]*domain.Board // BoardID -> Board

	lists       map[string]*domain.List // ListID -> List
	listsBoard  map[string][]string     // BoardID -> []ListID
	cards       map[string]*domain.Card // CardID -> Card
	cardsByList map[string][]string     // ListID -> []CardID
}

// New creates a new empty Store instance.
func New() *Store {
	return &Store{
		boards:      make(map[string]*domain.Board),
		lists:       make(map[string]*domain.List),
		listsBoard:  make(map[string][]string),
		cards:       make(map[string]*domain.Card),
		cardsByList: make(map[string][]string),
	}
}

// UpsertBoards inserts unknown boards and merges known ones.
func (s *Store) UpsertBoards(boards []domain.Board) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range boards {
		if b.ID == "" {
			continue
		}
		existing, ok := s.boards[b.ID]
		if !ok {
			rec := b
			s.boards[b.ID] = &rec
			continue
		}
		existing.Merge(b)
	}
}

// UpsertLists inserts unknown lists and merges known ones.
// A changed BoardID moves the list between board indices.
func (s *Store) UpsertLists(lists []domain.List) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range lists {
		if l.ID == "" {
			continue
		}
		existing, ok := s.lists[l.ID]
		if !ok {
			rec := l
			s.lists[l.ID] = &rec
			s.listsBoard[l.BoardID] = appendID(s.listsBoard[l.BoardID], l.ID)
			continue
		}
		oldBoard := existing.BoardID
		existing.Merge(l)
		s.reindexList(existing.ID, oldBoard, existing.BoardID)
	}
}

// UpsertCards inserts unknown cards and merges known ones.
// A changed ListID moves the card between list indices.
func (s *Store) UpsertCards(cards []domain.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range cards {
		if c.ID == "" {
			continue
		}
		existing, ok := s.cards[c.ID]
		if !ok {
			rec := c
			s.cards[c.ID] = &rec
			s.cardsByList[c.ListID] = appendID(s.cardsByList[c.ListID], c.ID)
			continue
		}
		oldList := existing.ListID
		existing.Merge(c)
		s.reindexCard(existing.ID, oldList, existing.ListID)
	}
}

// PatchBoard shallow-merges a partial update into a board.
// Unknown IDs are ignored; the return value reports whether a record changed.
func (s *Store) PatchBoard(id string, patch domain.BoardPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.boards[id]
	if !ok {
		return false
	}
	patch.Apply(b)
	return true
}

// PatchList shallow-merges a partial update into a list.
func (s *Store) PatchList(id string, patch domain.ListPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.patchList(id, patch)
}

// PatchLists applies several list patches as one atomic batch.
// It returns the number of lists that were found and patched.
func (s *Store) PatchLists(patches map[string]domain.ListPatch) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, p := range patches {
		if s.patchList(id, p) {
			n++
		}
	}
	return n
}

// PatchCard shallow-merges a partial update into a card. Moving a card to
// another list updates both list indices in the same critical section.
func (s *Store) PatchCard(id string, patch domain.CardPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.patchCard(id, patch)
}

// PatchCards applies several card patches as one atomic batch.
// It returns the number of cards that were found and patched.
func (s *Store) PatchCards(patches map[string]domain.CardPatch) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, p := range patches {
		if s.patchCard(id, p) {
			n++
		}
	}
	return n
}

// RemoveBoard deletes a board and cascades to its lists and cards.
// It returns the removed lists and cards so callers can restore them.
func (s *Store) RemoveBoard(id string) (lists []domain.List, cards []domain.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.boards, id)
	for _, listID := range append([]string(nil), s.listsBoard[id]...) {
		l, lc := s.removeList(listID)
		if l != nil {
			lists = append(lists, *l)
		}
		cards = append(cards, lc...)
	}
	delete(s.listsBoard, id)

	// Cards whose list is unknown locally but that point at the board.
	for cardID, c := range s.cards {
		if c.BoardID == id {
			cards = append(cards, *c)
			s.removeCard(cardID)
		}
	}
	return lists, cards
}

// RemoveList deletes a list and cascades to its cards.
// It returns the removed cards so callers can restore them.
func (s *Store) RemoveList(id string) []domain.Card {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, cards := s.removeList(id)
	return cards
}

// RemoveCard deletes a card. Unknown IDs are ignored.
func (s *Store) RemoveCard(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeCard(id)
}

// Board returns a copy of a board.
func (s *Store) Board(id string) (domain.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boards[id]
	if !ok {
		return domain.Board{}, ErrBoardNotFound
	}
	return *b, nil
}

// BoardBySlug finds a board by owner login and slug.
func (s *Store) BoardBySlug(owner, slug string) (domain.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.boards {
		if b.Slug == slug && (owner == "" || b.OwnerLogin() == owner) {
			return *b, nil
		}
	}
	return domain.Board{}, ErrBoardNotFound
}

// Boards returns all boards sorted by name, then ID.
func (s *Store) Boards() []domain.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()

	boards := make([]domain.Board, 0, len(s.boards))
	for _, b := range s.boards {
		boards = append(boards, *b)
	}
	sort.SliceStable(boards, func(i, j int) bool {
		if boards[i].Name != boards[j].Name {
			return boards[i].Name < boards[j].Name
		}
		return boards[i].ID < boards[j].ID
	})
	return boards
}

// List returns a copy of a list.
func (s *Store) List(id string) (domain.List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lists[id]
	if !ok {
		return domain.List{}, ErrListNotFound
	}
	return *l, nil
}

// Card returns a copy of a card.
func (s *Store) Card(id string) (domain.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cards[id]
	if !ok {
		return domain.Card{}, ErrCardNotFound
	}
	return *c, nil
}

// CardBySlug finds a card of a board by its slug.
func (s *Store) CardBySlug(boardID, slug string) (domain.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.cards {
		if c.BoardID == boardID && c.Slug == slug {
			return *c, nil
		}
	}
	return domain.Card{}, ErrCardNotFound
}

// Lists returns the lists of a board in ascending position order,
// ties broken by ID.
func (s *Store) Lists(boardID string) []domain.List {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.listsBoard[boardID]
	lists := make([]domain.List, 0, len(ids))
	for _, id := range ids {
		if l, ok := s.lists[id]; ok {
			lists = append(lists, *l)
		}
	}
	sort.SliceStable(lists, func(i, j int) bool {
		return less(lists[i].Position, lists[i].ID, lists[j].Position, lists[j].ID)
	})
	return lists
}

// Cards returns the cards of a list in ascending position order,
// ties broken by ID.
func (s *Store) Cards(listID string) []domain.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.cardsByList[listID]
	cards := make([]domain.Card, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.cards[id]; ok {
			cards = append(cards, *c)
		}
	}
	sort.SliceStable(cards, func(i, j int) bool {
		return less(cards[i].Position, cards[i].ID, cards[j].Position, cards[j].ID)
	})
	return cards
}

// CardCount returns the number of cards cached for a list.
func (s *Store) CardCount(listID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.cardsByList[listID])
}

// ReplaceBoard installs a freshly fetched board snapshot: the board is
// merged, and its cached lists and cards are replaced by the snapshot's.
func (s *Store) ReplaceBoard(snap domain.BoardSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.boards[snap.ID]; ok {
		existing.Merge(snap.Board)
	} else {
		b := snap.Board
		s.boards[snap.ID] = &b
	}

	for _, listID := range append([]string(nil), s.listsBoard[snap.ID]...) {
		s.removeList(listID)
	}
	for cardID, c := range s.cards {
		if c.BoardID == snap.ID {
			s.removeCard(cardID)
		}
	}

	for _, l := range snap.Lists {
		rec := l
		if rec.BoardID == "" {
			rec.BoardID = snap.ID
		}
		s.lists[rec.ID] = &rec
		s.listsBoard[rec.BoardID] = appendID(s.listsBoard[rec.BoardID], rec.ID)
	}
	for _, c := range snap.Cards {
		rec := c
		if rec.BoardID == "" {
			rec.BoardID = snap.ID
		}
		s.cards[rec.ID] = &rec
		s.cardsByList[rec.ListID] = appendID(s.cardsByList[rec.ListID], rec.ID)
	}
}

// Clear resets the store to empty state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.boards = make(map[string]*domain.Board)
	s.lists = make(map[string]*domain.List)
	s.listsBoard = make(map[string][]string)
	s.cards = make(map[string]*domain.Card)
	s.cardsByList = make(map[string][]string)
}

func (s *Store) patchList(id string, patch domain.ListPatch) bool {
	l, ok := s.lists[id]
	if !ok {
		return false
	}
	patch.Apply(l)
	return true
}

func (s *Store) patchCard(id string, patch domain.CardPatch) bool {
	c, ok := s.cards[id]
	if !ok {
		return false
	}
	oldList := c.ListID
	patch.Apply(c)
	s.reindexCard(id, oldList, c.ListID)
	return true
}

func (s *Store) removeList(id string) (*domain.List, []domain.Card) {
	l, ok := s.lists[id]
	if ok {
		delete(s.lists, id)
		s.listsBoard[l.BoardID] = removeID(s.listsBoard[l.BoardID], id)
	}

	var cards []domain.Card
	for _, cardID := range s.cardsByList[id] {
		if c, ok := s.cards[cardID]; ok {
			cards = append(cards, *c)
			delete(s.cards, cardID)
		}
	}
	delete(s.cardsByList, id)
	return l, cards
}

func (s *Store) removeCard(id string) {
	c, ok := s.cards[id]
	if !ok {
		return
	}
	delete(s.cards, id)
	s.cardsByList[c.ListID] = removeID(s.cardsByList[c.ListID], id)
}

func (s *Store) reindexList(id, from, to string) {
	if from == to {
		return
	}
	s.listsBoard[from] = removeID(s.listsBoard[from], id)
	s.listsBoard[to] = appendID(s.listsBoard[to], id)
}

func (s *Store) reindexCard(id, from, to string) {
	if from == to {
		return
	}
	s.cardsByList[from] = removeID(s.cardsByList[from], id)
	s.cardsByList[to] = appendID(s.cardsByList[to], id)
}

func less(posA float64, idA string, posB float64, idB string) bool {
	if posA != posB {
		return posA < posB
	}
	return idA < idB
}

func appendID(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []string, id string) []string {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
