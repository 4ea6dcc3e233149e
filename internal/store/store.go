// Package store holds the client-side application state behind the dashboard:
// an authentication store and a workspace/flow store. Each is an owned,
// mutex-guarded state value plus a subscription list; every transition
// publishes an immutable snapshot to listeners. Stores are constructed once at
// startup and handed to whoever owns the UI tree; there are no package-level
// singletons.
//
// Snapshots share backing data with the store, which is safe because the
// store only ever replaces slices and entity pointers, never mutates them in
// place.
package store

import (
	"io"
	"log"
	"sync"
)

type pubsub[T any] struct {
	mu   sync.Mutex
	subs map[int]func(T)
	next int
}

func (p *pubsub[T]) subscribe(fn func(T)) (cancel func()) {
	p.mu.Lock()
	if p.subs == nil {
		p.subs = map[int]func(T){}
	}
	id := p.next
	p.next++
	p.subs[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// publish delivers snap to every listener registered at call time. Listeners
// run outside the store lock so they may call back into the store.
func (p *pubsub[T]) publish(snap T) {
	p.mu.Lock()
	fns := make([]func(T), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func ensureLogger(l *log.Logger) *log.Logger {
	if l != nil {
		return l
	}
	return log.New(io.Discard, "", 0)
}
