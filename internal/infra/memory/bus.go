package memory

import (
	"context"
	"sync"
)

// Bus is an in-process broadcast channel, used when two views share a
// single process and in tests. Delivery is best-effort: each subscriber
// drains a bounded queue on its own goroutine, and a full queue drops
// the payload rather than blocking the publisher.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan []byte
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan []byte)}
}

func (b *Bus) Publish(_ context.Context, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

func (b *Bus) Subscribe(handler func(payload []byte)) (func(), error) {
	ch := make(chan []byte, 64)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for payload := range ch {
			handler(payload)
		}
	}()

	cancel := func() {
		b.mu.Lock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
		b.mu.Unlock()
		<-done
	}
	return cancel, nil
}
