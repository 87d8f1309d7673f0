package vmxnet3

import (
	"sync/atomic"
	"unsafe"

	"github.com/kjvmnet/netdrv/pcidev"
)

// Virtual Device (VD) BAR register offsets (spec §6).
const (
	vdVersionMajor = 0x00
	vdVersionMinor = 0x08
	vdSharedLow    = 0x10
	vdSharedHigh   = 0x18
	vdCommand      = 0x20
	vdMACLow       = 0x28
	vdMACHigh      = 0x30
	vdECR          = 0x40
)

// Pass-Through (PT) BAR register offsets (spec §6).
const (
	ptIntrMaskBase = 0x000
	ptTXProd       = 0x600
	ptRXProd0Base  = 0x800
	ptRXProd1Base  = 0xA00
)

// Command codes (spec §4.1). Numeric order is load-bearing: set-commands
// start at 0xcafe0000, get-commands at 0xf00d0000, and every command's
// value is FIRST+offset in this exact enumeration order.
const (
	cmdFirstSet           = 0xcafe0000
	cmdActivateDev        = cmdFirstSet + 0
	cmdQuiesceDev         = cmdFirstSet + 1
	cmdResetDev           = cmdFirstSet + 2
	cmdUpdateRxMode       = cmdFirstSet + 3
	cmdUpdateMacFilters   = cmdFirstSet + 4
	cmdUpdateVlanFilters  = cmdFirstSet + 5
	cmdUpdateRSSIDT       = cmdFirstSet + 6
	cmdUpdateIML          = cmdFirstSet + 7
	cmdUpdatePMCfg        = cmdFirstSet + 8
	cmdUpdateFeature      = cmdFirstSet + 9
	cmdLoadPlugin         = cmdFirstSet + 10

	cmdFirstGet          = 0xf00d0000
	cmdGetQueueStatus    = cmdFirstGet + 0
	cmdGetStats          = cmdFirstGet + 1
	cmdGetLink           = cmdFirstGet + 2
	cmdGetPermMacLo      = cmdFirstGet + 3
	cmdGetPermMacHi      = cmdFirstGet + 4
	cmdGetDidLo          = cmdFirstGet + 5
	cmdGetDidHi          = cmdFirstGet + 6
	cmdGetDevExtraInfo   = cmdFirstGet + 7
	cmdGetConfIntr       = cmdFirstGet + 8
)

// regs is the register-I/O and command-channel layer (spec §4.1): typed
// 32-bit volatile accesses against the VD and PT BARs. sync/atomic stands
// in for volatile-with-relaxed-plus-explicit-fences: Go has no language
// volatile, and atomic load/store is the strictest primitive available
// without reaching for cgo (see DESIGN.md).
type regs struct {
	vd     []byte
	pt     []byte
	notify func(offset uint32, value uint32)
}

func newRegs(vd, pt pcidev.BAR, dev pcidev.Device) *regs {
	r := &regs{vd: vd.Mem, pt: pt.Mem}
	if n, ok := dev.(pcidev.Notifier); ok {
		r.notify = n.NotifyVDWrite
	}

	return r
}

func (r *regs) readVD(offset uint32) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&r.vd[offset])))
}

func (r *regs) writeVD(offset uint32, value uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&r.vd[offset])), value)
	if r.notify != nil {
		r.notify(offset, value)
	}
}

func (r *regs) readPT(offset uint32) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&r.pt[offset])))
}

func (r *regs) writePT(offset uint32, value uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&r.pt[offset])), value)
}

// command writes cmd to the command register and immediately reads back
// the synchronous status (spec §4.1).
func (r *regs) command(cmd uint32) uint32 {
	r.writeVD(vdCommand, cmd)
	return r.readVD(vdCommand)
}

// enableIntr and disableIntr toggle one MSI-X vector's mask bit via the PT
// interrupt-mask window (spec §4.2/§4.6).
func (r *regs) enableIntr(idx uint8) {
	r.writePT(ptIntrMaskBase+uint32(idx)*8, 0)
}

func (r *regs) disableIntr(idx uint8) {
	r.writePT(ptIntrMaskBase+uint32(idx)*8, 1)
}
