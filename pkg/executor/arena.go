package executor

import (
	"context"
	"sort"
)

// pointerRecord tracks one foreign string buffer: the bytes it can hold
// (terminator included), where it lives, and whether the current batch
// claimed it. Its address is valid only while the record stays in the
// arena's record set.
type pointerRecord struct {
	capacity uint32
	addr     uint32
	claimed  bool
}

// arena pools the foreign buffers that carry string arguments. Buffers are
// reused across batches so repeated calls with similar payloads stop paying
// for allocation; after each batch the pool is trimmed back to the largest
// buffers, keeping at most one per string of the biggest batch seen so far.
type arena struct {
	rt      Runtime
	records []*pointerRecord
	mark    int // high-water mark: most strings requested in a single batch
}

func newArena(rt Runtime) *arena {
	return &arena{rt: rt}
}

// resolve writes each string into a foreign buffer and returns the buffer
// addresses in input order. Strings are placed longest-first so large
// reusable buffers are not exhausted by small payloads.
func (a *arena) resolve(ctx context.Context, strs []string) ([]uint32, error) {
	if len(strs) == 0 {
		return nil, nil
	}
	if len(strs) > a.mark {
		a.mark = len(strs)
	}

	order := make([]int, len(strs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return len(strs[order[i]]) > len(strs[order[j]])
	})

	addrs := make([]uint32, len(strs))
	for _, idx := range order {
		s := strs[idx]
		need := EncodedLen(s)

		rec := a.claimBestFit(need)
		if rec == nil {
			addr, err := a.rt.Allocate(ctx, need)
			if err != nil {
				return nil, &AllocationError{Size: need, Err: err}
			}
			rec = &pointerRecord{capacity: need, addr: addr, claimed: true}
			a.records = append(a.records, rec)
		}

		if err := a.rt.WriteString(rec.addr, s); err != nil {
			return nil, err
		}
		addrs[idx] = rec.addr
	}

	return addrs, nil
}

// claimBestFit claims the smallest unclaimed record that can hold need bytes,
// or returns nil when none fits. A record is never handed to a string larger
// than its capacity.
func (a *arena) claimBestFit(need uint32) *pointerRecord {
	var best *pointerRecord
	for _, rec := range a.records {
		if rec.claimed || rec.capacity < need {
			continue
		}
		if best == nil || rec.capacity < best.capacity {
			best = rec
		}
	}
	if best != nil {
		best.claimed = true
	}
	return best
}

// trim frees every record beyond the high-water mark, smallest capacities
// first, and unclaims the survivors for the next batch. It must run only
// after the batch's foreign call has returned: a record claimed for the
// current batch can rank below a larger unclaimed one, so trimming earlier
// could free a buffer the call still reads.
func (a *arena) trim(ctx context.Context) error {
	sort.Slice(a.records, func(i, j int) bool {
		return a.records[i].capacity > a.records[j].capacity
	})

	keep := len(a.records)
	if keep > a.mark {
		keep = a.mark
	}
	for _, rec := range a.records[keep:] {
		if err := a.rt.Free(ctx, rec.addr); err != nil {
			return err
		}
	}

	a.records = a.records[:keep]
	for _, rec := range a.records {
		rec.claimed = false
	}
	return nil
}
