package executor

import (
	"context"
)

// dispatcher turns mixed primitive/string argument lists into all-numeric
// foreign calls. Strings are materialized through the arena; everything else
// passes through as-is, every argument keeping its original position.
type dispatcher struct {
	rt    Runtime
	arena *arena
}

// invoke calls the named foreign function. Accepted argument kinds are Go
// integer primitives and strings; strings are replaced by the address of an
// arena buffer holding their null-terminated encoding. The raw integer
// result is returned verbatim; callers interpret it as a handle or as the
// address of a result buffer.
func (d *dispatcher) invoke(ctx context.Context, name string, args ...any) (uint64, error) {
	numeric := make([]uint64, len(args))

	var strs []string
	var positions []int
	for i, arg := range args {
		switch v := arg.(type) {
		case string:
			strs = append(strs, v)
			positions = append(positions, i)
		case uint64:
			numeric[i] = v
		case int64:
			numeric[i] = uint64(v)
		case int:
			numeric[i] = uint64(v)
		case uint32:
			numeric[i] = uint64(v)
		case int32:
			numeric[i] = uint64(uint32(v))
		default:
			return 0, &ArgumentError{Function: name, Position: i, Value: arg}
		}
	}

	addrs, err := d.arena.resolve(ctx, strs)
	if err != nil {
		return 0, err
	}
	for i, pos := range positions {
		numeric[pos] = uint64(addrs[i])
	}

	result, callErr := d.rt.Call(ctx, name, numeric...)

	// The batch completes once the call returns; only now may the arena
	// reclaim buffers (see arena.trim).
	var trimErr error
	if len(strs) > 0 {
		trimErr = d.arena.trim(ctx)
	}
	// Call failure takes precedence over a trim failure.
	if callErr != nil {
		return 0, &CallError{Function: name, Err: callErr}
	}
	if trimErr != nil {
		return 0, trimErr
	}
	return result, nil
}
