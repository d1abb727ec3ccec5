package triage

import (
	"context"
	"sync"
	"time"
)

const persistTimeout = 10 * time.Second

type decisionWrite struct {
	path   string
	record PartialRecord
	forget bool
}

// persister writes decisions in order on its own goroutine so the
// controller never waits on disk. The queue is unbounded.
type persister struct {
	store Persistence

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []decisionWrite
	pending int
	closed  bool
	done    chan struct{}
}

func newPersister(store Persistence) *persister {
	p := &persister{store: store, done: make(chan struct{})}
	p.cond = sync.NewCond(&p.mu)
	go p.loop()
	return p
}

func (p *persister) save(path string, rec PartialRecord) {
	p.enqueue(decisionWrite{path: path, record: rec})
}

// forget removes the stored decision for path when the store supports it,
// otherwise it stores rec.
func (p *persister) forget(path string, rec PartialRecord) {
	p.enqueue(decisionWrite{path: path, record: rec, forget: true})
}

func (p *persister) enqueue(w decisionWrite) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.queue = append(p.queue, w)
	p.pending++
	p.cond.Broadcast()
}

func (p *persister) loop() {
	defer close(p.done)
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		w := p.queue[0]
		p.queue[0] = decisionWrite{}
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.write(w)

		p.mu.Lock()
		p.pending--
		p.cond.Broadcast()
		p.mu.Unlock()
	}
}

func (p *persister) write(w decisionWrite) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if remover, ok := p.store.(DecisionRemover); ok && w.forget {
		if err := remover.DeleteDecision(ctx, w.path); err != nil {
			log.Error("Failed to delete decision for %s: %v", w.path, err)
		}
		return
	}
	if err := p.store.SaveDecision(ctx, w.path, w.record.Status, w.record.Rating, w.record.Color); err != nil {
		log.Error("Failed to save decision for %s: %v", w.path, err)
	}
}

// flush blocks until every queued write has been attempted.
func (p *persister) flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.pending > 0 {
		p.cond.Wait()
	}
}

// close drains the queue and stops the goroutine.
func (p *persister) close() {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	<-p.done
}
