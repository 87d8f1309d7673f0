// Package bufpool is the out-of-scope buffer-store collaborator (spec §6):
// a slab-style allocator handing out fixed-size buffers with admission
// control. The driver never owns buffer lifetime outright; it only ever
// holds a reference borrowed from a Store, and returns buffers here on
// drop -- the "ownership cycle" resolved with a back-reference instead of
// shared ownership (spec §9 design notes).
//
// Modeled on the guest-memory slab in gokvm's memory package (fixed-size
// slot bookkeeping, explicit free list) generalized to fixed-size network
// buffers with a CPU-affinity reattach hook.
package bufpool

import "sync"

// Store is the buffer-store collaborator interface the driver depends on
// (spec §6).
type Store interface {
	// GetBuffer returns a fixed-size buffer drawn from the pool.
	GetBuffer() []byte

	// Release returns a buffer previously obtained from GetBuffer.
	Release(buf []byte)

	// BufSize returns the fixed size of every buffer in the pool.
	BufSize() int

	// BuffersInUse returns how many buffers are currently checked out.
	BuffersInUse() int

	// MoveToThisCPU reattaches the pool to the calling CPU after
	// migration; existing in-flight buffers remain valid.
	MoveToThisCPU()
}

// Pool is a fixed-capacity slab of same-size buffers, backing bufpool.Store.
// Every method that touches the free list or the in-use count takes mu, so
// the pool stays consistent if the upper stack frees a buffer
// asynchronously.
type Pool struct {
	mu       sync.Mutex
	bufSize  int
	capacity int
	free     [][]byte
	inUse    int
}

// NewPool allocates capacity buffers of size bufSize.
func NewPool(capacity, bufSize int) *Pool {
	p := &Pool{
		bufSize:  bufSize,
		capacity: capacity,
		free:     make([][]byte, 0, capacity),
	}
	for i := 0; i < capacity; i++ {
		p.free = append(p.free, make([]byte, bufSize))
	}

	return p
}

// GetBuffer draws one buffer from the free list. It panics if the pool is
// exhausted: the pool itself refuses nothing, so admission control (such
// as the buffers_still_available predicate, spec §4.3/§4.5) is up to the
// caller.
func (p *Pool) GetBuffer() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.free)
	buf := p.free[n-1]
	p.free = p.free[:n-1]
	p.inUse++

	return buf
}

// Release returns buf to the free list.
func (p *Pool) Release(buf []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.free = append(p.free, buf)
	p.inUse--
}

// BufSize implements Store.
func (p *Pool) BufSize() int { return p.bufSize }

// BuffersInUse implements Store.
func (p *Pool) BuffersInUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.inUse
}

// Capacity returns the total number of buffers the pool was built with.
func (p *Pool) Capacity() int { return p.capacity }

// MoveToThisCPU implements Store. Pool has no per-CPU state of its own, so
// this is a no-op; a sharded/per-CPU implementation would reattach here.
func (p *Pool) MoveToThisCPU() {}
