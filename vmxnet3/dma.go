package vmxnet3

import "unsafe"

// dmaArea is the single contiguous allocation holding every ring, the
// queue descriptors and the shared info block (spec §3 "DMA area"). It is
// never resized; created at activation, destroyed (dropped) at
// deactivation.
type dmaArea struct {
	txDesc [NumTXDesc]TXDesc
	txComp [NumTXComp]TXComp
	rx     [NumRXQueues]rxDMA
	queues queueDescs
	shared sharedInfo
}

// rxDMA is the per-RX-queue slice of the DMA area: its dual descriptor
// rings plus the one completion ring they share (spec §3 "RX queue").
type rxDMA struct {
	desc0 [NumRXDesc0]RXDesc
	desc1 [NumRXDesc1]RXDesc
	comp  [NumRXComp]RXComp
}

// newDMAArea allocates a dmaArea aligned to dmaAlign bytes. Go's allocator
// gives no alignment guarantee beyond the platform word size, so a
// slightly larger raw buffer is padded and the aligned interior pointer is
// reinterpreted as *dmaArea; the raw buffer is kept alongside the typed
// pointer so nothing outside this function ever does the pointer
// adjustment itself (spec §9: "must not rely on post-hoc pointer
// adjustment... which would leak the base pointer" -- the adjustment
// happens once, here, and only the aligned view escapes).
func newDMAArea() (*dmaArea, []byte) {
	size := int(unsafe.Sizeof(dmaArea{}))
	raw := make([]byte, size+dmaAlign)

	base := uintptr(unsafe.Pointer(&raw[0]))
	aligned := (base + dmaAlign - 1) &^ (dmaAlign - 1)
	offset := aligned - base

	dma := (*dmaArea)(unsafe.Pointer(&raw[offset]))

	return dma, raw
}

// baseAddress returns the DMA area's own bus address -- the value that
// belongs in shared.misc.driver_data_address. This resolves the open
// question flagged in spec §9: the original writes &dma (the address of
// the local pointer variable) where the DMA area's base address was
// clearly intended; here there is no such pointer-to-pointer to
// mistakenly take the address of.
func (d *dmaArea) baseAddress() uintptr {
	return uintptr(unsafe.Pointer(d))
}

var (
	sizeofDMAArea    = uint32(unsafe.Sizeof(dmaArea{}))
	sizeofQueueDescs = uint32(unsafe.Sizeof(queueDescs{}))
	sizeofRXDesc     = uint32(unsafe.Sizeof(RXDesc{}))
)

// uintptrOf returns the address of v as a bus-visible uintptr. Every
// shared-info field that points somewhere else in the DMA area goes
// through this rather than ad-hoc unsafe.Pointer casts scattered across
// the package.
func uintptrOf[T any](v *T) uintptr {
	return uintptr(unsafe.Pointer(v))
}

// guestArchBits reports this process's pointer width in the encoding the
// shared info block's misc.guest_arch field expects (spec §4.7).
func guestArchBits() uint32 {
	if unsafe.Sizeof(uintptr(0)) == 8 {
		return gosBits64Bits
	}

	return gosBits32Bits
}
