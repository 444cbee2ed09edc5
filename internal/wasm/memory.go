package wasm

import (
	"bytes"

	"github.com/tetratelabs/wazero/api"
)

// Memory provides safe operations on a Wasm module's linear memory.
//
// The engine exchanges strings as null-terminated byte runs at 32-bit
// addresses inside its own memory space, separate from Go's. Raw access to
// that space risks out-of-bounds reads, unterminated scans, and writes that
// silently clip. This helper wraps wazero's api.Memory so every operation is
// bounds checked and every failure comes back as a typed error.
type Memory struct {
	mem api.Memory
}

// NewMemory creates a memory helper over a module's exported linear memory.
func NewMemory(mem api.Memory) *Memory {
	return &Memory{mem: mem}
}

// readChunk is the step size used when scanning for a terminator. Engine
// responses are JSON documents, usually well past a single step.
const readChunk = 4096

// ReadCString reads the null-terminated string starting at ptr. The scan is
// chunked so short strings near the end of memory do not trip a bounds
// failure, and it stops with an error instead of wrapping when no terminator
// exists before the end of memory.
func (m *Memory) ReadCString(ptr uint32) (string, error) {
	size := m.mem.Size()
	if ptr >= size {
		return "", &MemoryAccessError{Operation: "read", Address: ptr, Length: 1}
	}

	var out []byte
	for off := ptr; off < size; {
		n := uint32(readChunk)
		if off+n > size || off+n < off {
			n = size - off
		}
		buf, ok := m.mem.Read(off, n)
		if !ok {
			return "", &MemoryAccessError{Operation: "read", Address: off, Length: n}
		}
		if i := bytes.IndexByte(buf, 0); i >= 0 {
			out = append(out, buf[:i]...)
			return string(out), nil
		}
		out = append(out, buf...)
		off += n
	}

	return "", &MemoryAccessError{Operation: "scan", Address: ptr, Length: size - ptr}
}

// WriteCString writes s plus a null terminator at ptr. The destination buffer
// must hold len(s)+1 bytes.
func (m *Memory) WriteCString(ptr uint32, s string) error {
	if !m.mem.Write(ptr, []byte(s)) {
		return &MemoryAccessError{Operation: "write", Address: ptr, Length: uint32(len(s)) + 1}
	}
	if !m.mem.WriteByte(ptr+uint32(len(s)), 0) {
		return &MemoryAccessError{Operation: "write", Address: ptr, Length: uint32(len(s)) + 1}
	}
	return nil
}

// ReadBytes reads raw bytes from Wasm memory.
func (m *Memory) ReadBytes(ptr uint32, length uint32) ([]byte, bool) {
	return m.mem.Read(ptr, length)
}

// Size returns the current memory size in bytes.
func (m *Memory) Size() uint32 {
	return m.mem.Size()
}
