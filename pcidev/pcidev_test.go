package pcidev_test

import (
	"testing"

	"github.com/kjvmnet/netdrv/pcidev"
)

func TestFakeBARLookup(t *testing.T) {
	t.Parallel()

	dev := pcidev.NewFake()

	vd, err := dev.BAR(pcidev.BarVD)
	if err != nil {
		t.Fatalf("BAR(BarVD): %v", err)
	}

	if len(vd.Mem) == 0 {
		t.Fatalf("expected a non-empty VD BAR")
	}

	if _, err := dev.BAR(99); err == nil {
		t.Fatalf("expected an error for an unknown BAR index")
	}
}

func TestFakeSetupMSIXVectorRecordsAffinity(t *testing.T) {
	t.Parallel()

	dev := pcidev.NewFake()

	if err := dev.SetupMSIXVector(0, 1); err != nil {
		t.Fatalf("SetupMSIXVector: %v", err)
	}

	if len(dev.Affinity) != 1 || dev.Affinity[0].Vector != 1 {
		t.Fatalf("expected one affinity record for vector 1, got %+v", dev.Affinity)
	}

	if err := dev.RebalanceMSIXVector(0, 2, 1); err != nil {
		t.Fatalf("RebalanceMSIXVector: %v", err)
	}

	if dev.Affinity[0].CPU != 2 {
		t.Fatalf("expected rebalance to update cpu affinity")
	}

	if err := dev.RebalanceMSIXVector(5, 0, 0); err == nil {
		t.Fatalf("expected an error rebalancing an unregistered vector index")
	}
}

func TestManagerRegisterAndNew(t *testing.T) {
	t.Parallel()

	m := pcidev.NewManager()

	m.Register(pcidev.VendorVMware, pcidev.ProductID, func(d pcidev.Device, mtu uint16) (any, error) {
		return d.RevisionID(), nil
	})

	dev := pcidev.NewFake()

	got, err := m.New(pcidev.VendorVMware, pcidev.ProductID, dev, 1500)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got.(uint8) != pcidev.RevisionID {
		t.Fatalf("expected factory to receive the registered device")
	}

	if _, err := m.New(0xffff, 0xffff, dev, 1500); err == nil {
		t.Fatalf("expected an error for an unregistered vendor/product pair")
	}
}

func TestNotifyVDWriteCallsHook(t *testing.T) {
	t.Parallel()

	dev := pcidev.NewFake()

	var gotOffset, gotValue uint32

	dev.WriteHook = func(vd []byte, offset, value uint32) {
		gotOffset = offset
		gotValue = value
	}

	dev.NotifyVDWrite(0x20, 0xcafe0000)

	if gotOffset != 0x20 || gotValue != 0xcafe0000 {
		t.Fatalf("expected hook to observe (0x20, 0xcafe0000), got (%#x, %#x)", gotOffset, gotValue)
	}
}
