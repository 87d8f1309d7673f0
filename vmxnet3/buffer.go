package vmxnet3

import (
	"fmt"

	"github.com/kjvmnet/netdrv/ethlink"
)

const (
	// headerSlack reserves room ahead of the payload for the packet
	// descriptor header spec §3 says every buffer embeds at a fixed
	// negative offset, plus DriverOffset itself. The original computes
	// this as sizeof(net::Packet)+DRIVER_OFFSET; this port fixes a
	// conservative constant since there is no equivalent packet struct
	// whose size to borrow (see DESIGN.md).
	headerSlack = 62

	// vlanHeaderLen is the 802.1Q VLAN tag header size folded into every
	// buffer's capacity (spec §3).
	vlanHeaderLen = 4
)

// bufferSizeForMTU returns the fixed per-buffer size for the given MTU:
// header slack + VLAN header + MTU, rounded up to a 16-byte multiple. A
// size above maxBufferLen is an error (spec §3, §8 scenario 1).
func bufferSizeForMTU(mtu uint16) (int, error) {
	total := headerSlack + vlanHeaderLen + int(mtu)
	if r := total % 16; r != 0 {
		total += 16 - r
	}

	if total > maxBufferLen {
		return 0, fmt.Errorf("vmxnet3: buffer size %d for MTU %d exceeds %d byte limit", total, mtu, maxBufferLen)
	}

	return total, nil
}

// maxPacketLen is the largest packet this driver will post RX descriptors
// to accept (spec §4.3, §8). The TX path does not check it; a TX
// descriptor's length is only masked to txLengthMask.
func maxPacketLen(mtu uint16) uint16 {
	return vlanHeaderLen + mtu
}

// recvPacket reconstructs an upstream packet view over a buffer that was
// posted to an RX descriptor, given the length the device's completion
// entry reported (spec §4.4 step 6).
func (d *Driver) recvPacket(buf []byte, length uint16) *ethlink.Packet {
	return ethlink.NewPacket(d.store, buf, DriverOffset, int(length))
}

// CreatePacket allocates a fresh buffer from the store for the upper stack
// to build an outgoing frame in, reserving linkOffset bytes of additional
// header room beyond DriverOffset (spec §12, ported from
// vmxnet3::create_packet -- dropped by the spec distillation, recovered
// from original_source).
func (d *Driver) CreatePacket(linkOffset int) *ethlink.Packet {
	buf := d.store.GetBuffer()
	return ethlink.NewPacket(d.store, buf, DriverOffset+linkOffset, 0)
}
