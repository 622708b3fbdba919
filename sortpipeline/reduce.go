// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package sortpipeline

import (
	"os"

	"extsort/errors"
	"extsort/runid"
)

// Reduce runs one thread's share of the pair-popping merge loop until
// termination. threadIndex is 1-based among the non-main worker threads and
// is ignored when isMain is true. The main thread alone is responsible for
// producing outputPath once exactly one run remains, and for the
// degenerate case of an input that produced no runs at all.
func Reduce(rc *runContext, threadIndex int, isMain bool, outputPath string) error {
	for {
		remaining := rc.loadRemaining()

		// remaining == 1 is the normal termination signal: one run is
		// left, and no thread will ever push another. remaining == 0 can
		// only happen when the map phase produced no runs whatsoever
		// (empty input); no thread will ever observe remaining == 1 in
		// that case, so it is folded into the same finish trigger.
		if remaining <= 1 {
			rc.files.Finish()
		}

		if !isMain && remaining < 2*int64(threadIndex+1) {
			return nil
		}

		if isMain && remaining == 0 {
			return writeEmptyResult(outputPath)
		}

		f1, f2, ok := rc.files.WaitAndPop2()
		if !ok {
			if !isMain {
				return nil
			}
			f1 := rc.files.WaitAndPopForce()
			return finalizeResult(f1, outputPath)
		}

		rc.addRemaining(-1)

		outName := runid.TmpPath(rc.tmpDir, rc.enumerator.Next())
		if err := merge(f1, f2, outName); err != nil {
			return err
		}
		rc.files.PushForce(outName)

		if err := os.Remove(f1); err != nil {
			return errors.E(errors.IO, "sortpipeline: remove merged input "+f1, err)
		}
		if err := os.Remove(f2); err != nil {
			return errors.E(errors.IO, "sortpipeline: remove merged input "+f2, err)
		}
	}
}

func finalizeResult(runFile, outputPath string) error {
	if err := os.Rename(runFile, outputPath); err != nil {
		return errors.E(errors.IO, "sortpipeline: rename result "+runFile, err)
	}
	return nil
}

func writeEmptyResult(outputPath string) (err error) {
	f, createErr := os.Create(outputPath)
	if createErr != nil {
		return errors.E(errors.IO, "sortpipeline: create empty result "+outputPath, createErr)
	}
	defer errors.CleanUp(f.Close, &err)
	return nil
}
