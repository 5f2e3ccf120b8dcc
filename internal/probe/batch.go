package probe

import (
	"context"
	"sync"
)

// BatchOutcome is one slot of a batch-probe: either an observation or an
// execution error, never both.
type BatchOutcome struct {
	Obs *Observation
	Err error
}

// Batch issues n identical probes concurrently and joins them all before
// returning. No ordering is implied across the slots; the only guarantee is
// that every probe has finished.
func (p *Prober) Batch(ctx context.Context, r Request, n int) []BatchOutcome {
	if n < 1 {
		n = 1
	}
	out := make([]BatchOutcome, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			obs, err := p.Do(ctx, r)
			out[slot] = BatchOutcome{Obs: obs, Err: err}
		}(i)
	}
	wg.Wait()
	return out
}

// Completed counts the outcomes that produced any response at all.
func Completed(outcomes []BatchOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err == nil && o.Obs != nil {
			n++
		}
	}
	return n
}

// CountStatus counts outcomes with the given status code.
func CountStatus(outcomes []BatchOutcome, status int) int {
	n := 0
	for _, o := range outcomes {
		if o.Err == nil && o.Obs != nil && o.Obs.Status == status {
			n++
		}
	}
	return n
}
