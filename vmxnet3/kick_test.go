package vmxnet3

import "testing"

// TestHandleDeferredFlushesEveryPendingDriverOnce exercises spec §4.5
// "Deferred kick": a Transmit call must not ring the TX doorbell until the
// deferred handler runs, and the registry must be empty afterward.
func TestHandleDeferredFlushesEveryPendingDriverOnce(t *testing.T) {
	t.Parallel()

	d := newWhiteboxDriver(t)

	reg := NewDeferredRegistry()
	d.deferred = reg

	pkt := d.CreatePacket(0)
	pkt.Data = pkt.Data[:32]

	producerBefore := d.tx.flushed
	d.Transmit(pkt)

	if d.tx.flushed != producerBefore {
		t.Fatalf("expected the doorbell write to be deferred, not flushed immediately")
	}

	if !d.deferredKick {
		t.Fatalf("expected deferredKick to be set after scheduling a kick")
	}

	reg.HandleDeferred()

	if d.deferredKick {
		t.Fatalf("expected deferredKick to be cleared after HandleDeferred")
	}

	if d.tx.flushed == producerBefore {
		t.Fatalf("expected HandleDeferred to flush the pending doorbell write")
	}

	if len(reg.pending) != 0 {
		t.Fatalf("expected the registry to be drained after HandleDeferred")
	}
}
