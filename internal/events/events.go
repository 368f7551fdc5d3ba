// Package events carries change notifications from the services to whatever
// front end is listening. Services publish only after a transaction commits.
package events

import (
	"sync"

	"github.com/diewo77/go-pos/internal/logger"
)

// Event is implemented by every notification type.
type Event interface {
	Name() string
}

type InvoiceCreated struct {
	InvoiceID   uint
	TotalAmount int64
	ItemCount   int
}

type InvoiceCancelled struct {
	InvoiceID uint
	Restored  int // number of items whose stock was restored
}

type InvoiceCompleted struct {
	InvoiceID uint
}

// StockChanged is emitted once per quantity adjustment.
type StockChanged struct {
	ProductID uint
	Before    int64
	After     int64
	Reason    string
}

// ProductChanged is emitted when a product is created, edited or removed.
type ProductChanged struct {
	ProductID uint
	Deleted   bool
}

func (InvoiceCreated) Name() string   { return "invoice.created" }
func (InvoiceCancelled) Name() string { return "invoice.cancelled" }
func (InvoiceCompleted) Name() string { return "invoice.completed" }
func (StockChanged) Name() string     { return "stock.changed" }
func (ProductChanged) Name() string   { return "product.changed" }

// Publisher is the dependency services take.
type Publisher interface {
	Publish(events ...Event)
}

// Handler receives published events synchronously.
type Handler func(Event)

// Bus is an in-process fan-out publisher. The zero value is ready to use.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewBus() *Bus { return &Bus{} }

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
	idx := len(b.handlers) - 1
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if idx < len(b.handlers) {
			b.handlers[idx] = nil
		}
	}
}

// Publish delivers events in order to every handler. A panicking handler is
// logged and does not stop delivery to the others.
func (b *Bus) Publish(events ...Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		if h != nil {
			handlers = append(handlers, h)
		}
	}
	b.mu.RUnlock()

	for _, e := range events {
		for _, h := range handlers {
			deliver(h, e)
		}
	}
}

func deliver(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("event handler for %s panicked: %v", e.Name(), r)
		}
	}()
	h(e)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(...Event) {}

// Recorder keeps published events in memory. Tests use it as a Publisher.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Publish(events ...Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, events...)
}

// Names returns the names of the recorded events in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.Events))
	for i, e := range r.Events {
		names[i] = e.Name()
	}
	return names
}
