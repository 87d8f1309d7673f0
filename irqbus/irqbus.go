// Package irqbus is the out-of-scope event/IRQ demultiplexer collaborator
// of the host kernel (spec §6): Subscribe registers a handler and returns
// a Token; Trigger invokes it. The driver's single-threaded cooperative
// dispatch model (spec §5) means Trigger runs the handler synchronously,
// on the caller's goroutine -- there is no queueing or cross-thread
// handoff to model, only the subscribe/trigger shape the device's MSI-X
// vectors and the deferred-kick mechanism both rely on.
//
// Grounded on the IRQ line / subscribe-and-trigger pattern in gokvm's
// kvm/irq.go and the Events::get().subscribe/trigger_event calls the
// original driver makes for MSI-X vectors and the deferred-kick handler.
package irqbus

// Token identifies a registered handler.
type Token int

// Bus is the event demultiplexer collaborator interface (spec §6).
type Bus interface {
	Subscribe(handler func()) Token
	Trigger(tok Token)
}

// Dispatcher is an in-process Bus: each CPU's event dispatcher owns one.
type Dispatcher struct {
	handlers []func()
}

// NewDispatcher returns an empty, ready-to-use Bus.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe implements Bus.
func (d *Dispatcher) Subscribe(handler func()) Token {
	d.handlers = append(d.handlers, handler)
	return Token(len(d.handlers) - 1)
}

// Trigger implements Bus: it runs the handler registered at tok inline.
func (d *Dispatcher) Trigger(tok Token) {
	if int(tok) < 0 || int(tok) >= len(d.handlers) {
		return
	}

	if h := d.handlers[tok]; h != nil {
		h()
	}
}
