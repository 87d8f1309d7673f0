// Package ethlink is the out-of-scope upstream Ethernet link-layer
// collaborator (spec §6): the consumer of receive(packet) and the
// producer of transmit chains, plus the admission predicates the driver's
// refill and transmit paths must honor. The real link layer lives above
// the driver in the network stack; this package only defines the narrow
// capability-set surface spec §9 calls out ("a trait/interface, not
// inheritance").
package ethlink

import "github.com/kjvmnet/netdrv/bufpool"

// MAC is a 6-byte Ethernet hardware address.
type MAC [6]byte

func (m MAC) String() string {
	const hex = "0123456789abcdef"
	b := make([]byte, 0, 17)

	for i, octet := range m {
		if i > 0 {
			b = append(b, ':')
		}

		b = append(b, hex[octet>>4], hex[octet&0xf])
	}

	return string(b)
}

// Packet is a zero-copy view over a buffer drawn from a bufpool.Store. Its
// header lives driverOffset bytes before Data begins, mirroring the fixed
// negative-offset packet descriptor header in spec §3's data model.
type Packet struct {
	store     bufpool.Store
	buf       []byte
	driverOff int
	Data      []byte
	// Next links packets into a chain; transmit()'s input argument is a
	// chain of outbound packets (spec §4.5).
	Next *Packet
}

// NewPacket wraps buf (obtained from store) as a packet whose payload
// starts driverOff bytes into buf and runs for length bytes.
func NewPacket(store bufpool.Store, buf []byte, driverOff, length int) *Packet {
	return &Packet{
		store:     store,
		buf:       buf,
		driverOff: driverOff,
		Data:      buf[driverOff : driverOff+length],
	}
}

// Release returns the packet's underlying buffer to its store. Called
// once the upstream consumer is done with a received packet, or once a
// transmitted packet's buffer has been reclaimed off the TX completion
// ring.
func (p *Packet) Release() {
	p.store.Release(p.buf)
}

// Len returns the current payload length.
func (p *Packet) Len() int { return len(p.Data) }

// Buffer returns the packet's underlying store-owned buffer, the one
// Release returns and the one a descriptor's bus address must point
// into. Transmit uses this to post the actual backing storage rather
// than just the narrower Data view.
func (p *Packet) Buffer() []byte { return p.buf }

// ChainLength reports how many packets remain linked starting at p,
// following Next. A single unchained packet has length 1.
func (p *Packet) ChainLength() int {
	n := 0
	for cur := p; cur != nil; cur = cur.Next {
		n++
	}

	return n
}

// Uplink is the capability set the driver calls into on the upstream
// link-layer side (spec §6, §9):
//   - Receive delivers one completed inbound packet.
//   - BuffersStillAvailable/SendqStillAvailable are admission predicates
//     consulted by the refill engine and the transmit enqueue path.
//   - TransmitQueueAvailableEvent notifies the stack that TX tokens freed
//     up after a reclaim.
type Uplink interface {
	Receive(pkt *Packet)
	BuffersStillAvailable(inUse int) bool
	SendqStillAvailable(depth int) bool
	TransmitQueueAvailableEvent(tokens int)
}
