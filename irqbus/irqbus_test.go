package irqbus_test

import (
	"testing"

	"github.com/kjvmnet/netdrv/irqbus"
)

func TestTriggerRunsSubscribedHandler(t *testing.T) {
	t.Parallel()

	d := irqbus.NewDispatcher()

	fired := false
	tok := d.Subscribe(func() { fired = true })

	d.Trigger(tok)

	if !fired {
		t.Fatalf("expected handler to run on Trigger")
	}
}

func TestTriggerOutOfRangeIsNoop(t *testing.T) {
	t.Parallel()

	d := irqbus.NewDispatcher()
	d.Trigger(irqbus.Token(99)) // must not panic.
}

func TestMultipleSubscribersIndependentTokens(t *testing.T) {
	t.Parallel()

	d := irqbus.NewDispatcher()

	var a, b int
	tokA := d.Subscribe(func() { a++ })
	tokB := d.Subscribe(func() { b++ })

	d.Trigger(tokA)
	d.Trigger(tokA)
	d.Trigger(tokB)

	if a != 2 || b != 1 {
		t.Fatalf("expected a=2 b=1, got a=%d b=%d", a, b)
	}
}
