package broadcast

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Bus is an in-process Transport. Handlers run on the publisher's goroutine.
type Bus struct {
	mu       sync.RWMutex
	channels map[string]map[*busPort]struct{}
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{channels: make(map[string]map[*busPort]struct{})}
}

// Open implements Transport.
func (b *Bus) Open(_ context.Context, name string) (Port, error) {
	p := &busPort{bus: b, name: name, id: uuid.NewString()}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.channels[name] == nil {
		b.channels[name] = make(map[*busPort]struct{})
	}
	b.channels[name][p] = struct{}{}
	return p, nil
}

// Ports returns how many ports are open on name.
func (b *Bus) Ports(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.channels[name])
}

func (b *Bus) peers(name string, self *busPort) []*busPort {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*busPort, 0, len(b.channels[name]))
	for p := range b.channels[name] {
		if p != self {
			out = append(out, p)
		}
	}
	return out
}

func (b *Bus) remove(p *busPort) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.channels[p.name], p)
	if len(b.channels[p.name]) == 0 {
		delete(b.channels, p.name)
	}
}

type busPort struct {
	listeners
	bus  *Bus
	name string
	id   string
}

func (p *busPort) ID() string { return p.id }

func (p *busPort) Publish(_ context.Context, ev Event) error {
	if p.isClosed() {
		return ErrClosed
	}
	ev = stamp(ev, p.id)
	for _, peer := range p.bus.peers(p.name, p) {
		peer.dispatch(ev)
	}
	return nil
}

func (p *busPort) Listen(h Handler) func() {
	return p.add(h)
}

func (p *busPort) Close() error {
	if !p.close() {
		p.bus.remove(p)
	}
	return nil
}
