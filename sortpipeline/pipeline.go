// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package sortpipeline

import (
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"extsort/errors"
	"extsort/log"
	"extsort/queue"
	"extsort/runid"
	"extsort/slab"
)

const (
	defaultMaxStrings    = 120000
	defaultQueueCapacity = 1 << 20
)

// Run executes one end-to-end sort: it reads inputPath, sorts it in bounded
// memory across a pool of goroutines, and writes the result to outputPath.
// All worker goroutines are joined before Run returns, per the redesign
// note against relying on detached threads and process-exit ordering.
func Run(inputPath, outputPath string, cfg Config) (err error) {
	numThreads := cfg.NumThreads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
		if numThreads < 4 {
			numThreads = 4
		}
	}

	maxStrings := cfg.MaxStrings
	if maxStrings <= 0 {
		maxStrings = defaultMaxStrings
	}
	queueCapacity := cfg.QueueCapacity
	if queueCapacity <= 0 {
		queueCapacity = defaultQueueCapacity
	}
	k := maxStrings / numThreads
	if k < 1 {
		k = 1
	}

	in, openErr := os.Open(inputPath)
	if openErr != nil {
		return errors.E(errors.NotExist, "sortpipeline: open input "+inputPath, openErr)
	}
	defer errors.CleanUp(in.Close, &err)

	rc := &runContext{
		tmpDir:     cfg.TmpDir,
		enumerator: &runid.Enumerator{},
		pool:       slab.NewPool(numThreads, k),
		files:      queue.NewDoublePop[string](queueCapacity, queue.StringCodec{}, cfg.TmpDir, "tmp_queue"),
	}

	// firstErr records the first fatal error seen by any goroutine in the
	// pool, independent of which one errgroup happens to report from
	// Wait. Every failing goroutine also logs through it, so a run that
	// fails on several goroutines at once still leaves one coherent
	// cause in the log rather than a jumble of partial-shutdown noise.
	var firstErr errors.Once

	// unblock wakes every goroutine parked on rc's queues. It is called
	// from within any goroutine that is about to return a fatal error, so
	// that siblings still waiting on WaitAndPop/WaitAndPop2 don't block
	// forever once the run as a whole is doomed.
	unblock := func() {
		rc.pool.FinishMapPhase()
		rc.files.Finish()
	}

	// guarded runs fn, converting any panic raised by the queue package's
	// I/O failure path into a normal error, and unblocking sibling
	// goroutines if fn fails.
	guarded := func(fn func() error) (err error) {
		defer recoverToError(&err)
		defer func() {
			if err != nil {
				if firstErr.Err() == nil {
					log.Error.Printf("sortpipeline: %v", err)
				}
				firstErr.Set(err)
				unblock()
			}
		}()
		return fn()
	}

	var eg errgroup.Group
	for i := 1; i < numThreads; i++ {
		threadIndex := i
		eg.Go(func() error {
			return guarded(func() error {
				if err := SortWorker(rc); err != nil {
					return err
				}
				return Reduce(rc, threadIndex, false, outputPath)
			})
		})
	}
	eg.Go(func() error {
		return guarded(func() error {
			if err := Map(rc, in); err != nil {
				return err
			}
			return Reduce(rc, 0, true, outputPath)
		})
	})

	if err := eg.Wait(); err != nil {
		if fe := firstErr.Err(); fe != nil {
			return fe
		}
		return err
	}
	return nil
}

// recoverToError converts a panic raised by the queue package's I/O failure
// path (queue.Spill methods panic with an *errors.Error rather than
// threading an error return through every blocking queue call) back into a
// normal error return, so it can be folded into the errgroup like any other
// worker failure.
func recoverToError(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(error); ok {
		*err = e
		return
	}
	panic(r)
}
