package executor

import (
	"context"
)

// Runtime is the foreign-engine binding the executor drives: a flat
// byte-addressable memory plus exported functions callable with integer
// arguments. Addresses are opaque offsets into that memory and must never be
// dereferenced on the host side except through this interface.
//
// Implementations are not required to be safe for concurrent use; the
// executor never calls them concurrently.
type Runtime interface {
	// Allocate reserves size bytes of foreign memory and returns their
	// address. A failure is fatal to the operation that needed the buffer.
	Allocate(ctx context.Context, size uint32) (uint32, error)

	// Free releases memory previously returned by Allocate, or a result
	// buffer the engine's calling convention hands over to the caller.
	Free(ctx context.Context, addr uint32) error

	// WriteString encodes s as null-terminated UTF-8 starting at addr. The
	// destination must hold at least EncodedLen(s) bytes.
	WriteString(addr uint32, s string) error

	// ReadString decodes the null-terminated UTF-8 string at addr.
	ReadString(addr uint32) (string, error)

	// Call invokes the named exported function and returns its first result,
	// or 0 for functions that return nothing.
	Call(ctx context.Context, name string, args ...uint64) (uint64, error)
}

// EncodedLen returns the foreign buffer size needed to hold s: its UTF-8
// bytes plus the null terminator.
func EncodedLen(s string) uint32 {
	return uint32(len(s)) + 1
}
