package trace

import "sync"

// span is one contiguous slice of work assigned to a single goroutine.
type span struct {
	lo, hi int
}

// spans splits [0, n) into at most workers contiguous ranges. The same
// split is reused across the phases of a step so per-chunk results line up.
func spans(n, workers int) []span {
	if n <= 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (n + workers - 1) / workers
	out := make([]span, 0, workers)
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		out = append(out, span{lo, hi})
	}
	return out
}

// parallelFor runs fn over the ranges of [0, n), one goroutine per range,
// and blocks until every range is done. Each step of an iteration is one
// such barriered fan-out; no goroutine outlives the call. fn receives the
// chunk index so callers can write per-chunk results without sharing.
func parallelFor(n, workers int, fn func(chunk, lo, hi int)) {
	sp := spans(n, workers)
	if len(sp) == 0 {
		return
	}
	if len(sp) == 1 {
		fn(0, sp[0].lo, sp[0].hi)
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(sp))
	for i, s := range sp {
		go func(chunk, lo, hi int) {
			defer wg.Done()
			fn(chunk, lo, hi)
		}(i, s.lo, s.hi)
	}
	wg.Wait()
}
