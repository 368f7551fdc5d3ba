package events

import (
	"io"
	"testing"

	"github.com/diewo77/go-pos/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestBusFanOut(t *testing.T) {
	bus := NewBus()
	var a, b []string
	bus.Subscribe(func(e Event) { a = append(a, e.Name()) })
	unsubscribe := bus.Subscribe(func(e Event) { b = append(b, e.Name()) })

	bus.Publish(InvoiceCreated{InvoiceID: 1}, StockChanged{ProductID: 2})
	unsubscribe()
	bus.Publish(InvoiceCancelled{InvoiceID: 1})

	assert.Equal(t, []string{"invoice.created", "stock.changed", "invoice.cancelled"}, a)
	assert.Equal(t, []string{"invoice.created", "stock.changed"}, b)
}

func TestBusSurvivesPanickingHandler(t *testing.T) {
	logger.SetOutput(io.Discard)
	bus := NewBus()
	var got int
	bus.Subscribe(func(Event) { panic("boom") })
	bus.Subscribe(func(Event) { got++ })

	bus.Publish(ProductChanged{ProductID: 1}, ProductChanged{ProductID: 2})
	assert.Equal(t, 2, got)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Publish(InvoiceCompleted{InvoiceID: 3})
	assert.Equal(t, []string{"invoice.completed"}, r.Names())
	Nop{}.Publish(InvoiceCompleted{})
}
