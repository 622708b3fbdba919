// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package slab

import (
	"sync/atomic"

	"extsort/queue"
)

// Pool hands out fixed-size Slabs, cycling them through empty and filled
// queues between the map phase and the sort workers, never allocating more
// than budget slabs over its lifetime (spec.md §4.3). Both internal queues
// are non-spillable: a Slab never leaves memory, so paging one to disk
// would defeat the bound it exists to enforce.
type Pool struct {
	budget    int64
	k, l      int
	allocated int64 // atomic; relaxed load/store only, per spec.md §5

	empty  *queue.Spill[*Slab]
	filled *queue.Spill[*Slab]
}

// NewPool creates a Pool that allocates at most budget slabs, each holding
// up to k lines. budget is slab_budget == num_threads in spec.md's sizing;
// k is max_strings_in_memory / num_threads.
func NewPool(budget, k int) *Pool {
	return &Pool{
		budget: int64(budget),
		k:      k,
		empty:  queue.NewSpill[*Slab](0, nil, "", ""),
		filled: queue.NewSpill[*Slab](0, nil, "", ""),
	}
}

// Acquire returns a cleared Slab, blocking if the budget has been reached
// and no released Slab is available. Until the budget is reached, Acquire
// prefers allocating a fresh Slab over blocking, trying a non-blocking pop
// of the empty queue first only to avoid leaving Slabs an earlier Release
// already deposited there stranded.
func (p *Pool) Acquire() *Slab {
	if atomic.LoadInt64(&p.allocated) < p.budget {
		if s, ok := p.empty.TryPop(); ok {
			s.Reset()
			return s
		}
		if atomic.AddInt64(&p.allocated, 1) <= p.budget {
			s := newSlab(p.k)
			return s
		}
		atomic.AddInt64(&p.allocated, -1)
	}
	s, _ := p.empty.WaitAndPop()
	s.Reset()
	return s
}

// Release returns a Slab to the empty queue for reuse.
func (p *Pool) Release(s *Slab) {
	p.empty.Push(s)
}

// PushFilled hands a full (or EOF-partial) Slab to the sort workers.
func (p *Pool) PushFilled(s *Slab) {
	p.filled.Push(s)
}

// PopFilled blocks until a filled Slab is available or the filled queue
// has finished draining, in which case it returns false.
func (p *Pool) PopFilled() (*Slab, bool) {
	return p.filled.WaitAndPop()
}

// FinishMapPhase signals that the map phase has read EOF: no more filled
// Slabs will be pushed, and no more empty Slabs will be acquired.
func (p *Pool) FinishMapPhase() {
	p.filled.Finish()
	p.empty.Finish()
}

// Allocated returns the number of Slabs allocated so far (relaxed load,
// for diagnostics only).
func (p *Pool) Allocated() int64 {
	return atomic.LoadInt64(&p.allocated)
}
