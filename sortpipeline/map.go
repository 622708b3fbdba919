// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package sortpipeline

import (
	"bufio"
	"io"
	"math"

	"extsort/errors"
)

// Map is the main thread's producer role: it reads r line by line, packing
// lines into slabs borrowed from rc.pool, and pushes each slab onto the
// filled queue as it fills or as input is exhausted. Lines longer than
// slab.MaxLineBytes are truncated; the read continues at the next line.
//
// On EOF, Map finishes the map phase (no more filled slabs, no more empty
// slabs acquired) and returns.
func Map(rc *runContext, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), math.MaxInt)

	s := rc.pool.Acquire()
	for scanner.Scan() {
		line := scanner.Bytes()
		if !s.Add(line) {
			rc.pool.PushFilled(s)
			rc.addRemaining(1)
			s = rc.pool.Acquire()
			if !s.Add(line) {
				// A fresh slab always has room for one line; this would
				// only fail if MaxStrings rounded K down to 0.
				return errors.E(errors.Invalid, "sortpipeline: slab capacity too small to hold a single line")
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.E(errors.IO, "sortpipeline: read input", err)
	}

	if s.Len() > 0 {
		rc.pool.PushFilled(s)
		rc.addRemaining(1)
	} else {
		rc.pool.Release(s)
	}
	rc.pool.FinishMapPhase()
	return nil
}
