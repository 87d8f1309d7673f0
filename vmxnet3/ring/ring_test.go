package ring_test

import (
	"testing"

	"github.com/kjvmnet/netdrv/vmxnet3/ring"
)

func TestDescAdvanceWrapsGeneration(t *testing.T) {
	t.Parallel()

	r := ring.NewDesc(make([]uint32, 4))

	if r.Gen() != 1 {
		t.Fatalf("expected initial generation 1, got %d", r.Gen())
	}

	for i := 0; i < 4; i++ {
		r.Advance()
	}

	if r.Gen() != 0 {
		t.Fatalf("expected generation 0 after one full wrap, got %d", r.Gen())
	}

	if !r.Full() {
		t.Fatalf("expected ring full after posting every slot")
	}
}

func TestDescReleaseFreesSlot(t *testing.T) {
	t.Parallel()

	r := ring.NewDesc(make([]uint32, 4))

	r.Advance()
	r.Advance()

	if r.Free() != 2 {
		t.Fatalf("expected 2 free slots, got %d", r.Free())
	}

	r.Release()

	if r.Free() != 3 {
		t.Fatalf("expected 3 free slots after release, got %d", r.Free())
	}

	if r.Consumer() != 1 {
		t.Fatalf("expected consumer at 1, got %d", r.Consumer())
	}
}

func TestDescEmpty(t *testing.T) {
	t.Parallel()

	r := ring.NewDesc(make([]uint32, 2))

	if !r.Empty() {
		t.Fatalf("expected fresh ring to be empty")
	}

	r.Advance()

	if r.Empty() {
		t.Fatalf("expected ring not empty after advance")
	}
}

func TestCompAdvanceWrapsGeneration(t *testing.T) {
	t.Parallel()

	c := ring.NewComp(make([]uint32, 3), 0)

	if c.Gen() != 0 {
		t.Fatalf("expected initial generation 0, got %d", c.Gen())
	}

	c.Advance()
	c.Advance()

	if c.Gen() != 0 {
		t.Fatalf("expected generation still 0 before wrap, got %d", c.Gen())
	}

	c.Advance()

	if c.Gen() != 1 {
		t.Fatalf("expected generation 1 after wrap, got %d", c.Gen())
	}

	if c.Consumer() != 0 {
		t.Fatalf("expected consumer to wrap to 0, got %d", c.Consumer())
	}
}

func TestCompHonorsInitialGeneration(t *testing.T) {
	t.Parallel()

	c := ring.NewComp(make([]uint32, 3), 1)

	if c.Gen() != 1 {
		t.Fatalf("expected initial generation 1, got %d", c.Gen())
	}
}

func TestAtIndexesModuloSize(t *testing.T) {
	t.Parallel()

	r := ring.NewDesc(make([]uint32, 4))
	*r.At(0) = 42

	if *r.At(4) != 42 {
		t.Fatalf("expected At(4) to alias At(0) modulo size")
	}
}
