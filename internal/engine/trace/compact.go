package trace

// compact shrinks the active range [0, n) to just the still-alive paths
// with a prefix-sum stable partition: each chunk counts its survivors, an
// exclusive prefix over the chunk counts fixes every chunk's write offset,
// then each chunk copies its survivors in order into the scratch buffer.
// Chunks write disjoint scratch ranges, so the copy phase is race-free,
// and survivors keep their relative order. The buffers swap roles and the
// survivor count is returned.
func (t *Tracer) compact(n int) int {
	sp := spans(n, t.cfg.Workers)
	if len(sp) == 0 {
		return 0
	}

	counts := make([]int, len(sp))
	parallelFor(n, t.cfg.Workers, func(chunk, lo, hi int) {
		c := 0
		for i := lo; i < hi; i++ {
			if t.paths[i].Alive {
				c++
			}
		}
		counts[chunk] = c
	})

	offsets := make([]int, len(sp))
	total := 0
	for i, c := range counts {
		offsets[i] = total
		total += c
	}

	parallelFor(n, t.cfg.Workers, func(chunk, lo, hi int) {
		out := offsets[chunk]
		for i := lo; i < hi; i++ {
			if t.paths[i].Alive {
				t.scratch[out] = t.paths[i]
				out++
			}
		}
	})

	t.paths, t.scratch = t.scratch, t.paths
	return total
}
