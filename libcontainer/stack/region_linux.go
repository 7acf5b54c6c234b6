// Package stack reserves the fixed-size region a new init process is
// launched with. The region holds the init's bootstrap frame for the window
// between process creation and exec; it is exclusively owned by one spawn and
// is never resized. It is a data buffer: no code runs on it and it holds no
// call stack frames.
package stack

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sys/unix"
)

// DefaultSize is the size of a region, 1 MiB.
const DefaultSize = 1 << 20

var (
	ErrRegionFull = errors.New("stack region is full")
	ErrReleased   = errors.New("stack region already released")
)

// Region is an anonymous private mapping. Writes append to it until it is
// full; Release unmaps it.
type Region struct {
	mu  sync.Mutex
	mem []byte
	n   int
}

// Acquire maps a new region of size bytes.
func Acquire(size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid stack region size %d", size)
	}
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_NORESERVE)
	if err != nil {
		return nil, fmt.Errorf("unable to map stack region: %w", err)
	}
	return &Region{mem: mem}, nil
}

// Size returns the fixed capacity of the region.
func (r *Region) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.mem)
}

// Len returns the number of bytes written so far.
func (r *Region) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Write appends p. A write that does not fit entirely fails with
// ErrRegionFull and leaves the region unchanged.
func (r *Region) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mem == nil {
		return 0, ErrReleased
	}
	if len(p) > len(r.mem)-r.n {
		return 0, ErrRegionFull
	}
	copy(r.mem[r.n:], p)
	r.n += len(p)
	return len(p), nil
}

// WriteTo streams the written part of the region to w.
func (r *Region) WriteTo(w io.Writer) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mem == nil {
		return 0, ErrReleased
	}
	return bytes.NewReader(r.mem[:r.n]).WriteTo(w)
}

// Release unmaps the region. Calling it more than once is a no-op.
func (r *Region) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mem == nil {
		return nil
	}
	mem := r.mem
	r.mem = nil
	r.n = 0
	if err := unix.Munmap(mem); err != nil {
		return fmt.Errorf("unable to unmap stack region: %w", err)
	}
	return nil
}
