package vmxnet3

import (
	"sync/atomic"
	"unsafe"

	"github.com/kjvmnet/netdrv/ethlink"
)

// Transmit enqueues a chain of outbound packets and drains as much of the
// send queue as the TX ring currently has room for (spec §4.5). Admission
// is checked once per call, against the chain as a whole: a full chain is
// either entirely enqueued or entirely dropped.
func (d *Driver) Transmit(pkt *ethlink.Packet) {
	chainLen := pkt.ChainLength()

	if d.uplink != nil && !d.uplink.SendqStillAvailable(len(d.sendq)+chainLen) {
		d.statSendqDropped.Add(uint64(chainLen))
		return
	}

	for cur := pkt; cur != nil; cur = cur.Next {
		d.sendq = append(d.sendq, cur)
	}

	d.updateSendqStats()
	d.drainSendq()
}

func (d *Driver) updateSendqStats() {
	n := uint64(len(d.sendq))
	d.statSendqCur.Set(n)

	if n > d.statSendqMax.Load() {
		d.statSendqMax.Set(n)
	}
}

// drainSendq posts as many queued packets as the TX ring has free tokens
// for (keeping the reserved slot open), and nothing while the link is
// down, then schedules a single deferred doorbell write for whatever was
// posted (spec §4.5 "Deferred kick").
func (d *Driver) drainSendq() {
	posted := false

	for len(d.sendq) > 0 && d.txTokensFree() > 0 && d.linkUp {
		pkt := d.sendq[0]
		d.sendq = d.sendq[1:]
		d.transmitData(pkt)
		posted = true
	}

	d.updateSendqStats()

	if posted {
		d.scheduleKick()
	}
}

// transmitData posts one packet as a single TX descriptor. Segmentation
// across descriptors is out of scope (spec §1 Non-goals: no TSO), so
// every descriptor both opens and closes its packet.
//
// The generation bit is the ring's own wrap-tracked generation (spec §9,
// Open Question 2): that is exactly "bit log2(NumTXDesc) of the raw
// producer count" the spec calls for, since the ring flips its
// generation exactly when the producer count crosses a multiple of
// NumTXDesc -- the original's bug was computing this against the
// completion ring's size instead of the descriptor ring's.
func (d *Driver) transmitData(pkt *ethlink.Packet) {
	buf := pkt.Buffer()
	addr := uintptr(unsafe.Pointer(&buf[0]))
	length := uint32(pkt.Len()) & txLengthMask

	flags0 := length
	if d.tx.desc.Gen() == 1 {
		flags0 |= txfGen
	}

	*d.tx.desc.AtProducer() = TXDesc{
		Address: uint64(addr),
		Flags0:  flags0,
		Flags1:  txfEOP | txfCQ,
	}

	idx := d.tx.desc.Advance()
	d.tx.buffers[idx] = buf
}

// txTokensFree reports how many more packets can be posted before the TX
// ring is full, reserving the one slot that must always stay open so
// producer==consumer is unambiguous (spec §4.5 "Token accounting").
func (d *Driver) txTokensFree() int {
	free := int(d.tx.desc.Free()) - 1
	if free < 0 {
		free = 0
	}

	return free
}

// Flush writes the TX ring's current producer index to the doorbell
// register, if it has moved since the last flush (spec §4.5 "Deferred
// kick"). This is the only place the TX doorbell is ever written.
func (d *Driver) Flush() {
	producer := d.tx.desc.Producer()
	if producer == d.tx.flushed {
		return
	}

	d.regs.writePT(ptTXProd, producer)
	d.tx.flushed = producer
}

// scheduleKick registers this driver with the deferred registry and
// triggers the shared deferred-kick event exactly once per batch, rather
// than writing the doorbell on every single Transmit call (spec §4.5,
// §5).
func (d *Driver) scheduleKick() {
	if d.deferred == nil {
		d.Flush()
		return
	}

	if d.deferredKick {
		return
	}

	d.deferredKick = true
	d.deferred.enqueue(d)

	if d.bus != nil {
		d.bus.Trigger(d.deferredToken)
	}
}

// reclaimTX walks the TX completion ring, releasing every buffer whose
// transmission the device has confirmed, and reports how many tokens
// freed up (spec §4.5 "TX completion handling"). It always attempts to
// drain more of the send queue afterward, and notifies the uplink
// whenever the number of free tokens grew.
func (d *Driver) reclaimTX() int {
	before := d.txTokensFree()

	for {
		entry := d.tx.comp.AtConsumer()

		// Same load-acquire discipline as the RX completion ring (spec
		// §5): entry.Index must not be read until this has observed the
		// expected generation.
		flags := atomic.LoadUint32(&entry.Flags)
		if (flags>>31)&1 != d.tx.comp.Gen() {
			break
		}

		idx := entry.Index
		if buf := d.tx.buffers[idx]; buf != nil {
			d.store.Release(buf)
			d.tx.buffers[idx] = nil
		}

		d.tx.desc.Release()
		d.tx.comp.Advance()
	}

	d.drainSendq()

	after := d.txTokensFree()
	if after > before && d.uplink != nil {
		d.uplink.TransmitQueueAvailableEvent(after - before)
	}

	return after - before
}
