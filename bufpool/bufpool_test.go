package bufpool_test

import (
	"testing"

	"github.com/kjvmnet/netdrv/bufpool"
)

func TestGetBufferTracksInUse(t *testing.T) {
	t.Parallel()

	p := bufpool.NewPool(4, 128)

	if p.BuffersInUse() != 0 {
		t.Fatalf("expected 0 buffers in use initially, got %d", p.BuffersInUse())
	}

	buf := p.GetBuffer()

	if len(buf) != 128 {
		t.Fatalf("expected buffer of size 128, got %d", len(buf))
	}

	if p.BuffersInUse() != 1 {
		t.Fatalf("expected 1 buffer in use, got %d", p.BuffersInUse())
	}
}

func TestReleaseReturnsBufferToFreeList(t *testing.T) {
	t.Parallel()

	p := bufpool.NewPool(2, 64)

	a := p.GetBuffer()
	b := p.GetBuffer()

	if p.BuffersInUse() != 2 {
		t.Fatalf("expected 2 buffers in use, got %d", p.BuffersInUse())
	}

	p.Release(a)

	if p.BuffersInUse() != 1 {
		t.Fatalf("expected 1 buffer in use after release, got %d", p.BuffersInUse())
	}

	c := p.GetBuffer()
	if len(c) != 64 {
		t.Fatalf("expected a reused buffer of size 64, got %d", len(c))
	}

	p.Release(b)
	p.Release(c)
}

func TestGetBufferPanicsWhenExhausted(t *testing.T) {
	t.Parallel()

	p := bufpool.NewPool(1, 32)
	p.GetBuffer()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected GetBuffer to panic once the pool is exhausted")
		}
	}()

	p.GetBuffer()
}
