package executor

import (
	"context"
)

// extract reads the null-terminated result string the engine left at addr,
// then frees the buffer. Result buffers are caller-owned exactly once: read
// once, freed once, never touched again. Only addresses the engine's calling
// convention marks as caller-owned results may be passed here.
func (e *Executor) extract(ctx context.Context, addr uint32) (string, error) {
	s, err := e.rt.ReadString(addr)
	if err != nil {
		return "", &ExtractError{Address: addr, Err: err}
	}
	if err := e.rt.Free(ctx, addr); err != nil {
		return "", &ExtractError{Address: addr, Err: err}
	}
	return s, nil
}
