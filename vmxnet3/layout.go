// Package vmxnet3 implements the data-plane core of a paravirtual Ethernet
// driver binding to a VMware-class virtual NIC over PCI: DMA-backed
// descriptor rings, MSI-X interrupt dispatch, refill discipline, deferred
// doorbell batching and zero-copy buffer lifecycle.
//
// Ported from the vmxnet3 driver in original_source/src/drivers, in the
// style of gokvm's virtio package (virtio/net.go): small typed structs
// describing the wire layout, a Mem-backed ring, and plain methods rather
// than an object hierarchy.
package vmxnet3

const (
	// DriverOffset is the fixed offset from a buffer's base to its
	// payload, leaving room for the packet descriptor header embedded
	// at a negative offset from the payload (spec §3, §4.3).
	DriverOffset = 2

	// NumRXQueues is fixed at 1; multi-queue RX is not modeled (spec §1
	// scopes multi-queue TX out, and both the original driver and this
	// port fix RX at one queue).
	NumRXQueues = 1

	// NumTXDesc is the TX descriptor ring capacity.
	NumTXDesc = 128

	// NumRXDesc0 and NumRXDesc1 are the two RX descriptor ring capacities
	// making up one RX queue.
	NumRXDesc0 = 1024
	NumRXDesc1 = 256

	// NumTXComp is the TX completion ring capacity (equal to NumTXDesc).
	NumTXComp = NumTXDesc

	// NumRXComp is the RX completion ring capacity (sum of both RX rings).
	NumRXComp = NumRXDesc0 + NumRXDesc1

	// txFill is one less than NumTXDesc: one slot is always reserved so
	// producer==consumer can mean "empty" (spec §3 ring invariants).
	txFill = NumTXDesc - 1

	// maxBufferLen is the largest buffer this driver will ever size
	// (spec §3).
	maxBufferLen = 0x4000

	// dmaAlign is the alignment the single DMA allocation must satisfy
	// (spec §9).
	dmaAlign = 512
)

// Descriptor/completion flag bits (spec §3, §4.3-§4.5).
const (
	rxfGen  = 0x80000000 // RX descriptor generation bit.
	rxcfGen = 0x80000000 // RX completion generation bit.
	txfGen  = 0x00004000 // TX descriptor generation bit.
	txfEOP  = 0x00001000 // TX descriptor end-of-packet bit.
	txfCQ   = 0x00002000 // TX descriptor request-completion bit.
	txcfGen = 0x80000000 // TX completion generation bit.

	maxPacketLenMask = 0x7FFF // RX descriptor length field mask (15 bits); generation lives in bit31, no overlap.
	txLengthMask     = 0x3FFF // TX descriptor length field mask (14 bits); generation lives in bit14 of the same field (txfGen), so length must stay below it.
)

// TXDesc is one TX descriptor ring slot (spec §3 "TX ring").
type TXDesc struct {
	Address uint64
	Flags0  uint32 // generation bit | length
	Flags1  uint32 // request-completion | end-of-packet
}

// TXComp is one TX completion ring entry.
type TXComp struct {
	Index uint32
	Flags uint32 // generation bit (txcfGen)
}

// RXDesc is one RX descriptor ring slot (either ring0 or ring1).
type RXDesc struct {
	Address uint64
	Flags   uint32 // generation bit | length-in-flags
}

// RXComp is one RX completion ring entry.
type RXComp struct {
	QID    uint32
	Index  uint32
	Length uint32
	Flags  uint32 // generation bit (rxcfGen)
}

// guestArch / guestType / upt feature constants for the shared info block
// (spec §4.7).
const (
	gosBits32Bits = 0
	gosBits64Bits = 1
	gosTypeLinux  = 1

	vmxnet3VersionMagic = 0x01
	uptV1Features       = 0x1

	itAuto  = 0
	immAuto = 0
	imlAdaptive = 0x1

	rxmUnicast     = 0x01
	rxmBroadcast   = 0x02
	rxmAllMulti    = 0x08
	rxFilterMode   = rxmUnicast | rxmBroadcast | rxmAllMulti

	sharedMagic = 0xbabefee1
)

// miscInfo mirrors shared.misc in spec §3/§4.7.
type miscInfo struct {
	GuestArch         uint32
	GuestType         uint32
	DriverVersion     uint32
	VersionSupport    uint32
	UPTVersionSupport uint32
	UPTFeatures       uint32
	DriverDataAddress uint64
	QueueDescAddress  uint64
	DriverDataLen     uint32
	QueueDescLen      uint32
	MTU               uint32
	NumTXQueues       uint32
	NumRXQueues       uint32
}

const maxIntrs = 2 + NumRXQueues

// intrInfo mirrors shared.interrupt in spec §3/§4.7.
type intrInfo struct {
	MaskMode      uint32
	NumIntrs      uint32
	EventIntrIdx  uint32
	Moderation    [maxIntrs]uint8
	Control       uint32
}

// sharedInfo mirrors the device's shared info block (spec §3/§4.7).
type sharedInfo struct {
	Magic     uint32
	Misc      miscInfo
	Intr      intrInfo
	RxFilter  struct{ Mode uint32 }
	ECR       uint32
}

// rxQueueConfig is one RX queue descriptor's config sub-block.
type rxQueueConfig struct {
	Desc0Address uint64
	Desc1Address uint64
	CompAddress  uint64
	NumDesc0     uint32
	NumDesc1     uint32
	NumComp      uint32
	DriverDataLen uint32
	IntrIndex    uint32
}

// txQueueConfig is the (single) TX queue descriptor's config sub-block.
type txQueueConfig struct {
	DescAddress uint64
	CompAddress uint64
	NumDesc     uint32
	NumComp     uint32
	IntrIndex   uint32
}

// queueDescs mirrors dma->queues in the original driver: one TX queue
// config plus NumRXQueues RX queue configs (spec §3 "queue descriptors").
type queueDescs struct {
	TX txQueueConfig
	RX [NumRXQueues]rxQueueConfig
}
