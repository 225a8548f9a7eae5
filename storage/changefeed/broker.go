package changefeed

import (
	"context"
	"sync"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
)

// resyncEvent reaches every subscriber; it is sent when events may have been lost.
var resyncEvent = core.ChangeEvent{Table: "*", Op: "RESYNC"}

type subscription struct {
	table string
	mask  core.ChangeOp
	fn    func(core.ChangeEvent)
}

// Broker fans change events out to subscribers. Callbacks run on the publishing goroutine.
type Broker struct {
	mu   sync.RWMutex
	subs map[int]subscription
	next int
}

var _ core.ChangeFeed = (*Broker)(nil) // interface compliance check

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]subscription)}
}

func (b *Broker) Subscribe(ctx context.Context, table string, mask core.ChangeOp, fn func(core.ChangeEvent)) (func(), error) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = subscription{table: table, mask: mask, fn: fn}
	b.mu.Unlock()

	var once sync.Once
	done := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(done)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()
	return cancel, nil
}

func (b *Broker) Publish(ev core.ChangeEvent) {
	op := core.ParseChangeOp(ev.Op)
	b.mu.RLock()
	fns := make([]func(core.ChangeEvent), 0, len(b.subs))
	for _, sub := range b.subs {
		if ev == resyncEvent || (sub.table == ev.Table && sub.mask&op != 0) {
			fns = append(fns, sub.fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Len returns the number of active subscriptions.
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
