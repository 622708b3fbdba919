// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package runid mints the unique filenames the sort and merge phases need
// for their temporary files, and the unique scratch subdirectory a single
// run of the pipeline confines all of them to.
package runid

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"

	"extsort/errors"
)

// Enumerator mints a strictly increasing sequence of integers, starting at
// 0, used to name the temporary sorted-run files (tmp<N>) the sort workers
// and reduce coordinator pass between themselves. It plays the role the
// original's files_enumerator_ atomic counter plays, expressed as the small
// atomic-counter idiom the teacher's errors.Once uses for its own state.
type Enumerator struct {
	next int64
}

// Next returns the next unused integer.
func (e *Enumerator) Next() int64 {
	return atomic.AddInt64(&e.next, 1) - 1
}

// TmpPath returns the path of the N'th temporary sorted-run file under dir.
func TmpPath(dir string, n int64) string {
	return filepath.Join(dir, fmt.Sprintf("tmp%d", n))
}

// ScratchDir creates and returns a fresh, uniquely named subdirectory of
// base for one run of the pipeline to spill its queue and sorted-run files
// into, so that concurrent runs sharing a -tmp-dir never collide and a
// finished run can be cleaned up as a single unit. base defaults to the
// working directory when empty, matching spec.md's -tmp-dir default.
func ScratchDir(base string) (string, error) {
	if base == "" {
		base = "."
	}
	dir := filepath.Join(base, "extsort-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", errors.E(errors.IO, fmt.Sprintf("runid: create scratch dir %s", dir), err)
	}
	return dir, nil
}
