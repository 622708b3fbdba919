// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package sortpipeline implements the memory-bounded map/sort/reduce
// dataflow that reads an oversized line-delimited file, sorts it in
// bounded-memory runs, and repeatedly 2-way-merges those runs down to one.
package sortpipeline

import (
	"sync/atomic"

	"extsort/queue"
	"extsort/runid"
	"extsort/slab"
)

// Config bundles Run's tunables, mapping directly onto cmd/extsort's flags.
type Config struct {
	// MaxStrings bounds the total number of lines resident across all
	// slabs at once (max_strings_in_memory in spec terms). Zero selects
	// the default of 120000.
	MaxStrings int
	// QueueCapacity is the files queue's resident capacity before it
	// spills filenames to disk. Zero selects the default of 1<<20.
	QueueCapacity int
	// TmpDir is the directory run files and spill files are written to.
	// Empty selects the current directory.
	TmpDir string
	// NumThreads overrides the worker count for tests. Zero selects
	// max(runtime.NumCPU(), 4).
	NumThreads int
}

// runContext threads the state a run of the pipeline shares across its
// goroutines: the slab pool, the files queue, the temp-file enumerator, and
// the remaining-files counter. It plays the role of the original's free
// function parameters, gathered into one value so Map, SortWorker, and
// Reduce share an identical call shape.
type runContext struct {
	tmpDir     string
	enumerator *runid.Enumerator
	pool       *slab.Pool
	files      *queue.DoublePop[string]
	remaining  int64 // atomic; relaxed load/store only
}

func (rc *runContext) loadRemaining() int64 {
	return atomic.LoadInt64(&rc.remaining)
}

func (rc *runContext) addRemaining(delta int64) {
	atomic.AddInt64(&rc.remaining, delta)
}
