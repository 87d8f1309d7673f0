package vmxnet3

import (
	"unsafe"

	"github.com/kjvmnet/netdrv/vmxnet3/ring"
)

// refill tops up both RX descriptor rings for queue q (spec §4.3). It is
// called once during activation and again at the end of every receive and
// interrupt cycle that drained at least one completion entry.
func (d *Driver) refill(q int) {
	rq := &d.rx[q]

	d.refillRing(rq, rq.desc0, uint32(q), 0)
	d.refillRing(rq, rq.desc1, uint32(q), 1)

	rq.filled = true
}

// refillRing posts buffers into one descriptor ring until it is full or
// the admission predicate denies further posting (spec §4.3):
//
//  1. Stop once the ring has no free slots.
//  2. If a prior refill has already run for this queue, consult
//     uplink.BuffersStillAvailable before drawing another buffer; a
//     denial stops the loop and counts a drop, it is not an error.
//  3. Otherwise draw a buffer, compute its bus address (payload start,
//     DriverOffset bytes past the buffer's base), and post a descriptor
//     whose generation bit matches the ring's current producer
//     generation.
//  4. Ring the doorbell once, after the loop, if anything was posted.
func (d *Driver) refillRing(rq *rxQueueState, r *ring.Desc[RXDesc], qid uint32, which int) {
	advanced := false

	for !r.Full() {
		if rq.filled && d.uplink != nil && !d.uplink.BuffersStillAvailable(d.store.BuffersInUse()) {
			d.statRxRefillDropped.Add(uint64(r.Free()))
			break
		}

		buf := d.store.GetBuffer()
		addr := uintptr(unsafe.Pointer(&buf[DriverOffset]))
		length := uint32(d.maxPacketLen()) & maxPacketLenMask

		flags := length
		if r.Gen() == 1 {
			flags |= rxfGen
		}

		*r.AtProducer() = RXDesc{Address: uint64(addr), Flags: flags}

		idx := r.Advance()
		if which == 0 {
			rq.buffers0[idx] = buf
		} else {
			rq.buffers1[idx] = buf
		}

		advanced = true
	}

	if advanced {
		d.ringRXDoorbell(qid, which)
	}
}

// ringRXDoorbell writes the producer index for one RX ring to its PT
// doorbell register (spec §4.1, §5: store-release before the write is
// implicit in sync/atomic.StoreUint32's sequential-consistency semantics).
func (d *Driver) ringRXDoorbell(qid uint32, which int) {
	var r *ring.Desc[RXDesc]
	if which == 0 {
		r = d.rx[qid%NumRXQueues].desc0
	} else {
		r = d.rx[qid%NumRXQueues].desc1
	}

	base := uint32(ptRXProd0Base)
	if which == 1 {
		base = ptRXProd1Base
	}

	d.regs.writePT(base+qid*8, r.Producer())
}
