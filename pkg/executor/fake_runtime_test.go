package executor

import (
	"context"
	"fmt"
)

// fakeCall records one foreign invocation as seen by the fake runtime.
type fakeCall struct {
	name string
	args []uint64
}

// fakeRuntime is an in-process Runtime that tracks buffer ownership strictly:
// reading or writing a freed or unknown address fails, so tests catch
// use-after-free and double-free the way a real engine would corrupt memory
// silently. Addresses start above zero so a zero result stays distinguishable
// from a real buffer.
type fakeRuntime struct {
	next    uint32
	buffers map[uint32][]byte
	freed   map[uint32]bool

	allocs int
	frees  []uint32
	calls  []fakeCall

	failAlloc bool
	funcs     map[string]func(args []uint64) (uint64, error)
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		next:    1024,
		buffers: make(map[uint32][]byte),
		freed:   make(map[uint32]bool),
		funcs:   make(map[string]func(args []uint64) (uint64, error)),
	}
}

func (f *fakeRuntime) Allocate(_ context.Context, size uint32) (uint32, error) {
	if f.failAlloc {
		return 0, fmt.Errorf("out of memory")
	}
	addr := f.next
	f.next += size
	f.buffers[addr] = make([]byte, size)
	f.allocs++
	return addr, nil
}

func (f *fakeRuntime) Free(_ context.Context, addr uint32) error {
	if f.freed[addr] {
		return fmt.Errorf("double free at %d", addr)
	}
	if _, ok := f.buffers[addr]; !ok {
		return fmt.Errorf("free of unknown address %d", addr)
	}
	f.freed[addr] = true
	delete(f.buffers, addr)
	f.frees = append(f.frees, addr)
	return nil
}

func (f *fakeRuntime) WriteString(addr uint32, s string) error {
	buf, ok := f.buffers[addr]
	if !ok {
		return fmt.Errorf("write to unknown or freed address %d", addr)
	}
	if len(s)+1 > len(buf) {
		return fmt.Errorf("write of %d bytes overflows %d-byte buffer at %d", len(s)+1, len(buf), addr)
	}
	copy(buf, s)
	buf[len(s)] = 0
	return nil
}

func (f *fakeRuntime) ReadString(addr uint32) (string, error) {
	buf, ok := f.buffers[addr]
	if !ok {
		return "", fmt.Errorf("read from unknown or freed address %d", addr)
	}
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i]), nil
		}
	}
	return "", fmt.Errorf("unterminated string at %d", addr)
}

func (f *fakeRuntime) Call(_ context.Context, name string, args ...uint64) (uint64, error) {
	f.calls = append(f.calls, fakeCall{name: name, args: append([]uint64(nil), args...)})
	fn, ok := f.funcs[name]
	if !ok {
		return 0, fmt.Errorf("no function %q", name)
	}
	return fn(args)
}

// placeResult installs s as an engine-owned result buffer and returns its
// address. Result buffers come from the engine side of the boundary, so they
// bypass the allocation counter but still participate in free tracking.
func (f *fakeRuntime) placeResult(s string) uint32 {
	addr := f.next
	f.next += uint32(len(s)) + 1
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	f.buffers[addr] = buf
	return addr
}

// stringAt reads the null-terminated string currently stored at addr,
// failing the calling test indirectly through an error-shaped sentinel when
// the address is not live.
func (f *fakeRuntime) stringAt(addr uint32) string {
	s, err := f.ReadString(addr)
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return s
}

// liveBuffers reports how many guest buffers are currently allocated.
func (f *fakeRuntime) liveBuffers() int {
	return len(f.buffers)
}
