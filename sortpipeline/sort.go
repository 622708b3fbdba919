// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package sortpipeline

import (
	"bufio"
	"bytes"
	"os"
	"sort"

	"extsort/errors"
	"extsort/log"
	"extsort/runid"
	"extsort/slab"
)

// SortWorker loops popping filled slabs, sorting and persisting each as a
// fresh run file, until the filled queue is drained and finished, at which
// point it returns nil so the caller can proceed to the reduce role.
func SortWorker(rc *runContext) error {
	for {
		s, ok := rc.pool.PopFilled()
		if !ok {
			return nil
		}
		if err := sortAndPersist(rc, s); err != nil {
			return err
		}
	}
}

func sortAndPersist(rc *runContext, s *slab.Slab) (err error) {
	lines := s.Lines()
	sort.Slice(lines, func(i, j int) bool { return bytes.Compare(lines[i], lines[j]) < 0 })

	name := runid.TmpPath(rc.tmpDir, rc.enumerator.Next())
	f, createErr := os.Create(name)
	if createErr != nil {
		return errors.E(errors.IO, "sortpipeline: create run file "+name, createErr)
	}
	defer errors.CleanUp(f.Close, &err)

	w := bufio.NewWriterSize(f, 64*1024)
	for _, line := range lines {
		if _, werr := w.Write(line); werr != nil {
			return errors.E(errors.IO, "sortpipeline: write run file "+name, werr)
		}
		if werr := w.WriteByte('\n'); werr != nil {
			return errors.E(errors.IO, "sortpipeline: write run file "+name, werr)
		}
	}
	if werr := w.Flush(); werr != nil {
		return errors.E(errors.IO, "sortpipeline: flush run file "+name, werr)
	}

	log.Debug.Printf("sortpipeline: wrote run %s (%d strings)", name, len(lines))

	rc.pool.Release(s)
	rc.files.PushForce(name)
	return nil
}
