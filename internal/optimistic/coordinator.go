// Package optimistic applies board, list and card mutations to the local
// entity store before the server confirms them, then reconciles or rolls
// back once the gateway answers.
//
// Every mutating call patches the store synchronously and returns a
// *Mutation. Sending it performs the gateway requests. Requests on the same
// item are sequenced by a monotonic request id: only the latest request for
// an item may reconcile or roll back, and responses of superseded requests
// are discarded (they only advance the item's last known good state).
package optimistic

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/h0rv/pulp/internal/domain"
	"github.com/h0rv/pulp/internal/position"
	"github.com/h0rv/pulp/internal/store"
)

// Coordinator routes every write of the UI through the store and the
// gateway. It is safe for concurrent use: Send usually runs off the UI loop.
type Coordinator struct {
	store    *store.Store
	gw       Gateway
	log      logrus.FieldLogger
	notifier Notifier
	newID    func() string
	loads    singleflight.Group

	mu       sync.Mutex
	seq      uint64
	pending  map[itemKey]*pending
	gestures map[itemKey]snapshot // pre-drag state of items being dragged
}

// pending tracks the requests of one item.
type pending struct {
	latest      uint64 // newest local intent; older responses are stale
	outstanding int
	held        bool // a drag gesture owns the item
	rolledBack  bool // local state was reset to baseline by the latest request

	baseline    snapshot // last known good state
	baselineSeq uint64
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Coordinator) {
		c.log = l
	}
}

// WithNotifier registers the UI notification boundary for failed mutations.
func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) {
		c.notifier = n
	}
}

// WithIDGenerator replaces the UUID generator used for provisional records.
func WithIDGenerator(fn func() string) Option {
	return func(c *Coordinator) {
		c.newID = fn
	}
}

// New creates a Coordinator writing to s and persisting through gw.
func New(s *store.Store, gw Gateway, opts ...Option) *Coordinator {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Coordinator{
		store:    s,
		gw:       gw,
		log:      discard,
		newID:    uuid.NewString,
		pending:  make(map[itemKey]*pending),
		gestures: make(map[itemKey]snapshot),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the store the coordinator writes to.
func (c *Coordinator) Store() *store.Store {
	return c.store
}

// Syncing reports whether a request for the item is in flight.
func (c *Coordinator) Syncing(kind domain.EntityType, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[itemKey{kind: kind, id: id}]
	return ok && p.outstanding > 0
}

// LoadBoards fetches the boards of the current user into the store.
func (c *Coordinator) LoadBoards(ctx context.Context) ([]domain.Board, error) {
	v, err, _ := c.loads.Do("boards", func() (any, error) {
		return c.gw.ListBoards(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("load boards: %w", err)
	}
	boards := v.([]domain.Board)
	c.store.UpsertBoards(boards)
	return c.store.Boards(), nil
}

// LoadBoard fetches a board with its lists and cards and replaces the cached
// copy. Items with requests in flight keep their optimistic state. Lists and
// cards without a usable position are given one; the returned mutation
// persists those positions and is nil when nothing had to be fixed.
func (c *Coordinator) LoadBoard(ctx context.Context, ref domain.BoardRef) (domain.Board, *Mutation, error) {
	v, err, _ := c.loads.Do("board:"+ref.String(), func() (any, error) {
		return c.gw.GetBoard(ctx, ref)
	})
	if err != nil {
		return domain.Board{}, nil, fmt.Errorf("load board %s: %w", ref, err)
	}
	snap := v.(*domain.BoardSnapshot)
	if snap == nil || snap.ID == "" {
		return domain.Board{}, nil, fmt.Errorf("load board %s: %w", ref, store.ErrBoardNotFound)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	fetched := make(map[itemKey]bool, len(snap.Lists)+len(snap.Cards))
	for _, l := range snap.Lists {
		fetched[listKey(l.ID)] = true
	}
	for _, card := range snap.Cards {
		fetched[cardKey(card.ID)] = true
	}

	local := make(map[itemKey]snapshot)
	for key := range c.pending {
		if key.kind != domain.EntityBoard && (fetched[key] || c.onBoard(key, snap.ID)) {
			local[key] = c.capture(key)
		}
	}

	c.store.ReplaceBoard(*snap)

	for key, st := range local {
		p := c.pending[key]
		p.baseline = c.capture(key)
		st.restore(c.store)
	}

	steps := c.backfill(snap.ID)
	board, err := c.store.Board(snap.ID)
	if err != nil {
		return domain.Board{}, nil, err
	}
	c.log.WithFields(logrus.Fields{
		"board": board.ID,
		"lists": len(snap.Lists),
		"cards": len(snap.Cards),
	}).Debug("board loaded")
	return board, c.newMutation("board.backfill", steps...), nil
}

func (c *Coordinator) backfill(boardID string) []step {
	lists := c.store.Lists(boardID)

	var steps []step
	listFix := position.Backfill(listSiblings(lists))
	for _, l := range lists {
		pos, ok := listFix[l.ID]
		if !ok {
			continue
		}
		c.store.PatchList(l.ID, domain.ListPatch{Position: domain.Ptr(pos)})
		steps = append(steps, c.listMoveStep(l.ID, listState{list: l}))
	}

	for _, l := range lists {
		cards := c.store.Cards(l.ID)
		cardFix := position.Backfill(cardSiblings(cards))
		for _, card := range cards {
			pos, ok := cardFix[card.ID]
			if !ok {
				continue
			}
			c.store.PatchCard(card.ID, domain.CardPatch{Position: domain.Ptr(pos)})
			steps = append(steps, c.cardMoveStep(card.ID, cardState{card: card}))
		}
	}
	return steps
}

// onBoard reports whether the cached item belongs to boardID.
func (c *Coordinator) onBoard(key itemKey, boardID string) bool {
	switch key.kind {
	case domain.EntityList:
		l, err := c.store.List(key.id)
		return err == nil && l.BoardID == boardID
	case domain.EntityCard:
		card, err := c.store.Card(key.id)
		return err == nil && card.BoardID == boardID
	}
	return false
}

// capture records the current state of an item.
func (c *Coordinator) capture(key itemKey) snapshot {
	switch key.kind {
	case domain.EntityBoard:
		if b, err := c.store.Board(key.id); err == nil {
			return boardState{board: b}
		}
	case domain.EntityList:
		if l, err := c.store.List(key.id); err == nil {
			return listState{list: l}
		}
	case domain.EntityCard:
		if card, err := c.store.Card(key.id); err == nil {
			return cardState{card: card}
		}
	}
	return absentState{key: key}
}

// The methods below require c.mu.

func (c *Coordinator) track(key itemKey, base snapshot) *pending {
	p, ok := c.pending[key]
	if !ok {
		p = &pending{baseline: base}
		c.pending[key] = p
	}
	return p
}

// issue registers a new request for key. base is the last known good state
// and only used when no other request for key is being tracked.
func (c *Coordinator) issue(key itemKey, base snapshot) uint64 {
	p := c.track(key, base)
	c.seq++
	p.latest = c.seq
	p.outstanding++
	p.rolledBack = false
	return c.seq
}

// hold marks key as owned by a drag gesture. Responses of requests issued
// before the hold become stale so they cannot move the item under the
// pointer.
func (c *Coordinator) hold(key itemKey, base snapshot) {
	p := c.track(key, base)
	c.seq++
	p.latest = c.seq
	p.held = true
	p.rolledBack = false
}

// release ends a hold and reports whether the local state still has to be
// persisted: a superseded request is in flight, or the item differs from its
// last known good state.
func (c *Coordinator) release(key itemKey) bool {
	p, ok := c.pending[key]
	if !ok {
		return false
	}
	p.held = false
	if p.outstanding > 0 || !p.baseline.matches(c.store) {
		return true
	}
	delete(c.pending, key)
	return false
}

// settle applies the outcome of request seq and reports whether it was stale.
func (c *Coordinator) settle(key itemKey, seq uint64, confirmed snapshot, err error) bool {
	p, ok := c.pending[key]
	if !ok {
		return true
	}
	p.outstanding--
	stale := p.latest != seq

	entry := c.log.WithFields(logrus.Fields{"item": key.String(), "request": seq})
	switch {
	case err == nil && seq > p.baselineSeq:
		p.baseline, p.baselineSeq = confirmed, seq
		if !stale || p.rolledBack {
			confirmed.restore(c.store)
		}
		if stale {
			entry.Debug("stale response recorded as baseline")
		} else {
			entry.Debug("mutation confirmed")
		}
	case err != nil && !stale:
		p.baseline.restore(c.store)
		p.rolledBack = true
		entry.WithError(err).Warn("mutation rolled back")
	default:
		entry.Debug("stale response discarded")
	}

	if p.outstanding == 0 && !p.held {
		delete(c.pending, key)
	}
	return stale
}

func listSiblings(lists []domain.List) []position.Sibling {
	out := make([]position.Sibling, len(lists))
	for i, l := range lists {
		out[i] = position.Sibling{ID: l.ID, Position: l.Position}
	}
	return out
}

func cardSiblings(cards []domain.Card) []position.Sibling {
	out := make([]position.Sibling, len(cards))
	for i, card := range cards {
		out[i] = position.Sibling{ID: card.ID, Position: card.Position}
	}
	return out
}
