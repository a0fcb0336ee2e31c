// Package gate admits key requests into the delivery queue, holding at
// most one in-flight request per user.
package gate

import (
	"errors"
	"sync"

	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/models"
	"github.com/ToaiAnh1991/BotTeleUe3dFree/pkg/queue"
)

// Rejection reasons, in the order Admit checks them.
var (
	ErrDuplicateInFlight = errors.New("a request for this user is already in flight")
	ErrStoreNotReady     = errors.New("key table is empty or not loaded")
	ErrUnknownKey        = errors.New("unknown key")
)

// KeyResolver is the slice of the keystore the gate needs.
type KeyResolver interface {
	Ready() bool
	Lookup(key string) []models.FileRef
}

// Gate tracks which users currently have an admitted request. Entries
// are added on admission and removed by the worker's release call, so a
// user can have at most one item queued or processing.
type Gate struct {
	keys KeyResolver
	q    *queue.Queue

	mu     sync.Mutex
	active map[int64]struct{}
}

// New builds a Gate over the given key resolver and queue.
func New(keys KeyResolver, q *queue.Queue) *Gate {
	return &Gate{keys: keys, q: q, active: make(map[int64]struct{})}
}

// Admit validates the request and, on acceptance, marks the user active
// and enqueues the item. It returns immediately; delivery happens later
// on the worker. Rejections are reported as ErrDuplicateInFlight,
// ErrStoreNotReady, ErrUnknownKey, or queue.ErrQueueFull, checked in
// that order.
func (g *Gate) Admit(userID int64, key string, chatID int64, replyTo int) error {
	g.mu.Lock()
	if _, busy := g.active[userID]; busy {
		g.mu.Unlock()
		return ErrDuplicateInFlight
	}
	// reserve the slot before enqueueing so a concurrent duplicate
	// arriving between unlock and enqueue cannot slip through
	g.active[userID] = struct{}{}
	g.mu.Unlock()

	reject := func(err error) error {
		g.Release(userID)
		return err
	}
	if !g.keys.Ready() {
		return reject(ErrStoreNotReady)
	}
	if g.keys.Lookup(key) == nil {
		return reject(ErrUnknownKey)
	}
	if err := g.q.TryEnqueue(queue.Item{UserID: userID, Key: key, ChatID: chatID, ReplyTo: replyTo}); err != nil {
		return reject(err)
	}
	return nil
}

// Release frees the user's slot. The worker calls it exactly once per
// admitted item after the delivery attempt finishes, whatever the
// outcome.
func (g *Gate) Release(userID int64) {
	g.mu.Lock()
	delete(g.active, userID)
	g.mu.Unlock()
}

// Active returns the number of users with an in-flight request.
func (g *Gate) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active)
}
