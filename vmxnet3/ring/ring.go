// Package ring implements the two descriptor-ring shapes shared by the
// vmxnet3 TX and RX queues: a two-sided producer/consumer ring (posted
// descriptors, generation bit owned by the producer) and a consumer-only
// completion ring (entries written by the device, generation bit owned by
// the consumer). Both flip their generation bit on wrap, which is the sole
// ownership handshake between driver and device.
//
// Generalized from the RingData<T> template in the vmxnet3 driver this
// package is ported from; split in two because the original conflates a
// producer ring and a consumer ring under one template even though they
// never use the same half of its API.
package ring

// Desc is a descriptor ring written by the driver (producer) and drained
// by the device out of band, or vice-versa for an RX descriptor ring
// written by the driver and consumed by the driver itself once the device
// reports completion. Either way, exactly one side here advances the
// producer and flips generation on wrap; the other side advances the
// consumer and frees slots.
type Desc[T any] struct {
	slots      []T
	size       uint32
	producer   uint32
	consumer   uint32
	generation uint32 // producer-side generation; starts at 1 per spec.
	free       uint32
}

// NewDesc allocates a descriptor ring of the given size backed by slots.
// len(slots) must equal size; slots is typically a slice view into the DMA
// area rather than freshly allocated memory.
func NewDesc[T any](slots []T) *Desc[T] {
	return &Desc[T]{
		slots:      slots,
		size:       uint32(len(slots)),
		generation: 1,
		free:       uint32(len(slots)),
	}
}

// Size returns ring capacity.
func (r *Desc[T]) Size() uint32 { return r.size }

// Free returns the number of slots not currently posted to the device.
func (r *Desc[T]) Free() uint32 { return r.free }

// Full reports whether the ring has no free slots left to post into.
func (r *Desc[T]) Full() bool { return r.free == 0 }

// Empty reports whether every posted slot has been reclaimed.
func (r *Desc[T]) Empty() bool { return r.free == r.size }

// Gen returns the producer's current generation bit (0 or 1).
func (r *Desc[T]) Gen() uint32 { return r.generation }

// Producer returns the current producer index.
func (r *Desc[T]) Producer() uint32 { return r.producer }

// Consumer returns the current consumer index.
func (r *Desc[T]) Consumer() uint32 { return r.consumer }

// AtProducer returns a pointer to the slot at the producer index.
func (r *Desc[T]) AtProducer() *T { return &r.slots[r.producer] }

// AtConsumer returns a pointer to the slot at the consumer index.
func (r *Desc[T]) AtConsumer() *T { return &r.slots[r.consumer] }

// At returns a pointer to the slot at the given index.
func (r *Desc[T]) At(i uint32) *T { return &r.slots[i%r.size] }

// Advance posts one descriptor: decrements free, advances the producer,
// and flips generation when the producer wraps past size-1 back to 0. It
// returns the index that was just posted.
func (r *Desc[T]) Advance() uint32 {
	idx := r.producer
	r.free--
	r.producer++
	if r.producer == r.size {
		r.producer = 0
		r.generation ^= 1
	}
	return idx
}

// Release reclaims one descriptor: advances the consumer, wrapping at
// size, and increments free. It returns the index that was just released.
func (r *Desc[T]) Release() uint32 {
	idx := r.consumer
	r.consumer++
	if r.consumer == r.size {
		r.consumer = 0
	}
	r.free++
	return idx
}

// Comp is a completion ring: written entirely by the device, drained by
// the driver. The driver tracks only a consumer cursor and the generation
// bit it expects the next entry to carry; both flip together on wrap.
type Comp[T any] struct {
	slots      []T
	size       uint32
	consumer   uint32
	generation uint32 // expected generation of the next unread entry.
}

// NewComp allocates a completion ring view over slots, with the consumer
// expecting initialGen as the first entry's generation bit. The vmxnet3
// driver starts both its RX and TX completion rings at 1, since the device
// writes its first lap of entries with the generation bit set and a
// zeroed ring must not look like fresh completions.
func NewComp[T any](slots []T, initialGen uint32) *Comp[T] {
	return &Comp[T]{
		slots:      slots,
		size:       uint32(len(slots)),
		generation: initialGen,
	}
}

// Size returns ring capacity.
func (r *Comp[T]) Size() uint32 { return r.size }

// Gen returns the generation bit the driver currently expects.
func (r *Comp[T]) Gen() uint32 { return r.generation }

// Consumer returns the current consumer index.
func (r *Comp[T]) Consumer() uint32 { return r.consumer }

// AtConsumer returns a pointer to the entry at the consumer index.
func (r *Comp[T]) AtConsumer() *T { return &r.slots[r.consumer] }

// At returns a pointer to the entry at the given index, independent of
// the consumer cursor. Tests use this to forge device-written entries at
// specific slots without perturbing the ring's own consumer state.
func (r *Comp[T]) At(i uint32) *T { return &r.slots[i%r.size] }

// Advance moves past the current entry, wrapping the consumer and flipping
// the expected generation when it wraps past size-1 back to 0.
func (r *Comp[T]) Advance() {
	r.consumer++
	if r.consumer == r.size {
		r.consumer = 0
		r.generation ^= 1
	}
}
