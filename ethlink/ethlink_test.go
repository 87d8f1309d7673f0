package ethlink_test

import (
	"testing"

	"github.com/kjvmnet/netdrv/bufpool"
	"github.com/kjvmnet/netdrv/ethlink"
)

func TestMACString(t *testing.T) {
	t.Parallel()

	mac := ethlink.MAC{0x00, 0x1a, 0x2b, 0x3c, 0x4d, 0x5e}
	expected := "00:1a:2b:3c:4d:5e"

	if mac.String() != expected {
		t.Fatalf("expected %q, got %q", expected, mac.String())
	}
}

func TestPacketReleaseReturnsBuffer(t *testing.T) {
	t.Parallel()

	store := bufpool.NewPool(1, 128)
	buf := store.GetBuffer()

	pkt := ethlink.NewPacket(store, buf, 2, 64)

	if pkt.Len() != 64 {
		t.Fatalf("expected length 64, got %d", pkt.Len())
	}

	if store.BuffersInUse() != 1 {
		t.Fatalf("expected 1 buffer in use before release")
	}

	pkt.Release()

	if store.BuffersInUse() != 0 {
		t.Fatalf("expected 0 buffers in use after release")
	}
}

func TestChainLength(t *testing.T) {
	t.Parallel()

	store := bufpool.NewPool(3, 64)

	a := ethlink.NewPacket(store, store.GetBuffer(), 0, 10)
	b := ethlink.NewPacket(store, store.GetBuffer(), 0, 10)
	c := ethlink.NewPacket(store, store.GetBuffer(), 0, 10)

	a.Next = b
	b.Next = c

	if a.ChainLength() != 3 {
		t.Fatalf("expected chain length 3, got %d", a.ChainLength())
	}

	if c.ChainLength() != 1 {
		t.Fatalf("expected tail chain length 1, got %d", c.ChainLength())
	}
}
