package vmxnet3

// DeferredRegistry is the process-wide deferred-kick registry (spec §3,
// §5): the set of driver instances with a pending doorbell write, drained
// by a single event handler registered once per dispatcher. Modeled as
// explicit state passed to every Driver at construction rather than a
// package-level global, per spec §9's "Model as explicit module state
// initialised deterministically at boot."
//
// Only ever touched by the single dispatcher that also drains it (spec
// §5), so it carries no internal locking.
type DeferredRegistry struct {
	pending []*Driver
}

// NewDeferredRegistry returns an empty registry.
func NewDeferredRegistry() *DeferredRegistry {
	return &DeferredRegistry{}
}

// enqueue registers drv as having a pending doorbell write.
func (r *DeferredRegistry) enqueue(drv *Driver) {
	r.pending = append(r.pending, drv)
}

// HandleDeferred is the single handler subscribed on the event bus for
// the deferred-kick IRQ token: it flushes every registered device exactly
// once and clears the registry (spec §4.5 "Deferred kick").
func (r *DeferredRegistry) HandleDeferred() {
	for _, drv := range r.pending {
		drv.Flush()
		drv.deferredKick = false
	}

	r.pending = r.pending[:0]
}
