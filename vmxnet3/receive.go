package vmxnet3

import (
	"sync/atomic"

	"github.com/kjvmnet/netdrv/ethlink"
)

// receive drains queue q's completion ring and returns every finished
// packet in arrival order (spec §4.4 steps 1-8). It never refills or
// delivers upward itself: the caller must refill and re-enable the
// vector first, then deliver the batch upstream, per the RX row of spec
// §4.6 ("Mask, receive-handler, refill, unmask, then deliver upward").
func (d *Driver) receive(q int) []*ethlink.Packet {
	rq := &d.rx[q]

	var batch []*ethlink.Packet

	for {
		entry := rq.comp.AtConsumer()

		// The generation word is the sole ownership handshake with the
		// device; every other field in entry must only be read once this
		// load-acquire has observed the expected generation (spec §5).
		flags := atomic.LoadUint32(&entry.Flags)

		if (flags>>31)&1 != rq.comp.Gen() {
			break
		}

		qid := entry.QID
		idx := entry.Index
		length := entry.Length

		var buf []byte

		switch qid {
		case rq.id0:
			buf = rq.buffers0[idx]
			rq.buffers0[idx] = nil
			rq.desc0.Release()
		case rq.id1:
			buf = rq.buffers1[idx]
			rq.buffers1[idx] = nil
			rq.desc1.Release()
		default:
			panic(ErrProtocolViolation)
		}

		rq.comp.Advance()

		batch = append(batch, d.recvPacket(buf, uint16(length)))

		// Nothing posted to either ring can complete once both are
		// empty of outstanding descriptors (spec §4.4 step 8).
		if rq.desc0.Empty() && rq.desc1.Empty() {
			break
		}
	}

	return batch
}
