package optimistic

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Mutation is one optimistic change awaiting persistence. The local patch is
// already visible in the store; Send performs the gateway requests and then
// reconciles or rolls back. A nil *Mutation means there is nothing to send.
type Mutation struct {
	c     *Coordinator
	op    string
	steps []step
	sent  atomic.Bool
}

// step is one gateway request of a mutation. call returns the confirmed
// state of the item on success.
type step struct {
	key  itemKey
	seq  uint64
	call func(ctx context.Context) (snapshot, error)
}

func (c *Coordinator) newMutation(op string, steps ...step) *Mutation {
	if len(steps) == 0 {
		return nil
	}
	m := &Mutation{c: c, op: op, steps: steps}
	c.log.WithFields(logrus.Fields{
		"op":      op,
		"item":    steps[0].key.String(),
		"request": steps[0].seq,
		"steps":   len(steps),
	}).Debug("mutation issued")
	return m
}

// ID returns the request id of the mutation's first request. Ids grow
// monotonically in issue order.
func (m *Mutation) ID() uint64 {
	if m == nil {
		return 0
	}
	return m.steps[0].seq
}

// Op names the operation, e.g. "card.move".
func (m *Mutation) Op() string {
	if m == nil {
		return ""
	}
	return m.op
}

// Items returns the IDs of the items the mutation writes.
func (m *Mutation) Items() []string {
	if m == nil {
		return nil
	}
	ids := make([]string, len(m.steps))
	for i, st := range m.steps {
		ids[i] = st.key.id
	}
	return ids
}

// Send performs the requests in order and settles them. A batch is atomic
// from the store's point of view: when one request fails the remaining ones
// are not sent and every change of the batch is rolled back.
//
// Send returns nil on success, a *RequestError after a rollback, and
// ErrStaleResponse when all responses were superseded by later requests.
// Canceling ctx fails the pending requests like any other error.
func (m *Mutation) Send(ctx context.Context) error {
	if m == nil {
		return nil
	}
	if !m.sent.CompareAndSwap(false, true) {
		return ErrAlreadySent
	}

	confirmed := make([]snapshot, len(m.steps))
	var failure error
	failedAt := -1
	for i, st := range m.steps {
		snap, err := st.call(ctx)
		if err != nil {
			failure, failedAt = err, i
			break
		}
		confirmed[i] = snap
	}

	c := m.c
	c.mu.Lock()
	stale := 0
	for i, st := range m.steps {
		if c.settle(st.key, st.seq, confirmed[i], failure) {
			stale++
		}
	}
	c.mu.Unlock()

	if stale == len(m.steps) {
		return ErrStaleResponse
	}
	if failure == nil {
		return nil
	}

	reqErr := &RequestError{
		Op:     m.op,
		ItemID: m.steps[failedAt].key.id,
		Err:    failure,
		Reload: failedAt > 0,
	}
	if c.notifier != nil && !errors.Is(failure, context.Canceled) {
		c.notifier.Notify(reqErr)
	}
	return reqErr
}
