package vmxnet3_test

import (
	"encoding/binary"
	"testing"

	"github.com/kjvmnet/netdrv/bufpool"
	"github.com/kjvmnet/netdrv/ethlink"
	"github.com/kjvmnet/netdrv/irqbus"
	"github.com/kjvmnet/netdrv/pcidev"
	"github.com/kjvmnet/netdrv/vmxnet3"
)

// Register offsets and command codes duplicated from the package's own
// (unexported) regs.go, the same way independent firmware would encode
// the wire protocol without importing the driver (see
// cmd/vmxnet3ctl/firmware.go).
const (
	vdVersionMajor = 0x00
	vdMACLow       = 0x28
	vdMACHigh      = 0x30
	vdCommand      = 0x20

	cmdActivateDev = 0xcafe0000
	cmdResetDev    = 0xcafe0002
	cmdGetLink     = 0xf00d0002
)

// newFakeDevice returns a Fake whose firmware answers the activation
// handshake; linkUp controls what cmdGetLink reports, and newTestDriver
// passes its own linkUp argument through.
func newFakeDevice(linkUp bool) *pcidev.Fake {
	dev := pcidev.NewFake()

	binary.LittleEndian.PutUint32(dev.VDBytes[vdVersionMajor:], 1)
	binary.LittleEndian.PutUint32(dev.VDBytes[vdVersionMajor+8:], 1) // minor
	binary.LittleEndian.PutUint32(dev.VDBytes[vdMACLow:], 0x01020304)
	binary.LittleEndian.PutUint32(dev.VDBytes[vdMACHigh:], 0x0000a0a1)

	dev.WriteHook = func(vd []byte, offset, value uint32) {
		if offset != vdCommand {
			return
		}

		status := uint32(0)

		switch value {
		case cmdGetLink:
			if linkUp {
				status = 1 | (1000 << 16)
			}
		case cmdResetDev, cmdActivateDev:
			status = 0
		}

		binary.LittleEndian.PutUint32(vd[vdCommand:], status)
	}

	return dev
}

// fakeUplink is a scripted ethlink.Uplink for driving admission
// predicates and recording what the driver hands back upstream.
type fakeUplink struct {
	received        []*ethlink.Packet
	buffersAllow    bool
	sendqAllow      bool
	tqaEventsCalled []int
}

func (u *fakeUplink) Receive(pkt *ethlink.Packet) { u.received = append(u.received, pkt) }

func (u *fakeUplink) BuffersStillAvailable(inUse int) bool { return u.buffersAllow }

func (u *fakeUplink) SendqStillAvailable(depth int) bool { return u.sendqAllow }

func (u *fakeUplink) TransmitQueueAvailableEvent(tokens int) {
	u.tqaEventsCalled = append(u.tqaEventsCalled, tokens)
}

func newTestDriver(t *testing.T, linkUp bool) (*vmxnet3.Driver, *fakeUplink, *pcidev.Fake) {
	t.Helper()

	dev := newFakeDevice(linkUp)
	uplink := &fakeUplink{buffersAllow: true, sendqAllow: true}

	d, err := vmxnet3.New(vmxnet3.Config{
		Device:   dev,
		MTU:      1500,
		Store:    bufpool.NewPool(4096, 2048),
		Uplink:   uplink,
		Bus:      irqbus.NewDispatcher(),
		Deferred: vmxnet3.NewDeferredRegistry(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return d, uplink, dev
}

func TestNewRetrievesMAC(t *testing.T) {
	t.Parallel()

	d, _, _ := newTestDriver(t, true)

	expected := ethlink.MAC{0x04, 0x03, 0x02, 0x01, 0xa1, 0xa0}
	if d.MAC() != expected {
		t.Fatalf("expected MAC %s, got %s", expected, d.MAC())
	}
}

func TestNewRejectsWrongRevision(t *testing.T) {
	t.Parallel()

	dev := newFakeDevice(true)
	dev.Rev = 0x99

	_, err := vmxnet3.New(vmxnet3.Config{
		Device: dev,
		MTU:    1500,
		Store:  bufpool.NewPool(4096, 2048),
	})
	if err == nil {
		t.Fatalf("expected an error for a mismatched revision id")
	}
}

func TestNewRejectsNoMSIX(t *testing.T) {
	t.Parallel()

	dev := newFakeDevice(true)
	dev.MSIX = 0

	_, err := vmxnet3.New(vmxnet3.Config{
		Device: dev,
		MTU:    1500,
		Store:  bufpool.NewPool(4096, 2048),
	})
	if err == nil {
		t.Fatalf("expected an error for a device with no MSI-X vectors")
	}
}

func TestTransmitConsumesOneToken(t *testing.T) {
	t.Parallel()

	d, _, _ := newTestDriver(t, true)

	pkt := d.CreatePacket(0)
	pkt.Data = pkt.Data[:64]

	before := d.TransmitQueueAvailable()

	send := d.CreatePhysicalDownstream()
	send(pkt)

	if d.TransmitQueueAvailable() != before-1 {
		t.Fatalf("expected one token consumed, free went %d -> %d", before, d.TransmitQueueAvailable())
	}
}

func TestTransmitDropsWhenSendqFull(t *testing.T) {
	t.Parallel()

	d, uplink, _ := newTestDriver(t, true)
	uplink.sendqAllow = false

	pkt := d.CreatePacket(0)
	pkt.Data = pkt.Data[:64]

	before := d.TransmitQueueAvailable()
	d.Transmit(pkt)

	if d.TransmitQueueAvailable() != before {
		t.Fatalf("expected transmit to be dropped, but a token was consumed")
	}
}

func TestDeactivateReleasesBuffers(t *testing.T) {
	t.Parallel()

	store := bufpool.NewPool(4096, 2048)

	d, err := vmxnet3.New(vmxnet3.Config{
		Device: newFakeDevice(true),
		MTU:    1500,
		Store:  store,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if store.BuffersInUse() == 0 {
		t.Fatalf("expected the initial refill to hold buffers before Deactivate")
	}

	d.Deactivate()

	if store.BuffersInUse() != 0 {
		t.Fatalf("expected Deactivate to release every buffer, %d still in use", store.BuffersInUse())
	}
}
