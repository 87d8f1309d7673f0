package main

import (
	"encoding/binary"

	"github.com/kjvmnet/netdrv/pcidev"
)

// The VD register offsets and command codes below mirror the vmxnet3
// package's own (unexported) regs.go constants. Demo firmware and driver
// are independent implementations of the same wire protocol, so
// duplicating the handful of offsets here is the realistic shape rather
// than a shortcut: a real device's microcode doesn't import the driver's
// Go package either.
const (
	vdVersionMajor = 0x00
	vdVersionMinor = 0x08
	vdCommand      = 0x20
	vdMACLow       = 0x28
	vdMACHigh      = 0x30

	cmdActivateDev = 0xcafe0000
	cmdResetDev    = 0xcafe0002
	cmdGetLink     = 0xf00d0002
)

// demoFirmware returns a WriteHook that answers the handful of VD
// protocol steps newDemoDriver's activation handshake exercises: version
// negotiation, reset, link query and activation. It is the test-double
// firmware pcidev.Fake's doc comment describes.
func demoFirmware(dev *pcidev.Fake) func(vd []byte, offset, value uint32) {
	binary.LittleEndian.PutUint32(dev.VDBytes[vdVersionMajor:], 1)
	binary.LittleEndian.PutUint32(dev.VDBytes[vdVersionMinor:], 1)
	binary.LittleEndian.PutUint32(dev.VDBytes[vdMACLow:], 0x01020304)
	binary.LittleEndian.PutUint32(dev.VDBytes[vdMACHigh:], 0x0000a0a1)

	return func(vd []byte, offset, value uint32) {
		if offset != vdCommand {
			return
		}

		var status uint32

		switch value {
		case cmdResetDev, cmdActivateDev:
			status = 0
		case cmdGetLink:
			status = 1 | (1000 << 16) // up, 1000 Mbps.
		default:
			status = 0
		}

		binary.LittleEndian.PutUint32(vd[vdCommand:], status)
	}
}
