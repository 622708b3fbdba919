// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package sortpipeline

import (
	"bufio"
	"os"

	"extsort/errors"
	"extsort/slab"
)

// merge streams two sorted files into a fresh sorted file at outPath, using
// O(1) additional memory beyond the two current line buffers. Ties (equal
// lines) favor f2's line, matching spec's tie-break policy.
//
// Unlike a stream-extraction read that must be told "did that last read
// actually succeed" after the fact, bufio.Scanner's Scan() reports EOF
// before Text() is ever called, so the held-stale-line bug spec.md warns
// against has no equivalent here as long as Text() is never called after a
// false Scan().
func merge(f1, f2, outPath string) (err error) {
	r1, openErr := os.Open(f1)
	if openErr != nil {
		return errors.E(errors.IO, "sortpipeline: open merge input "+f1, openErr)
	}
	defer errors.CleanUp(r1.Close, &err)

	r2, openErr := os.Open(f2)
	if openErr != nil {
		return errors.E(errors.IO, "sortpipeline: open merge input "+f2, openErr)
	}
	defer errors.CleanUp(r2.Close, &err)

	out, createErr := os.Create(outPath)
	if createErr != nil {
		return errors.E(errors.IO, "sortpipeline: create merge output "+outPath, createErr)
	}
	defer errors.CleanUp(out.Close, &err)

	w := bufio.NewWriterSize(out, 64*1024)
	defer errors.CleanUp(w.Flush, &err)

	sc1 := newLineScanner(r1)
	sc2 := newLineScanner(r2)

	ok1 := sc1.Scan()
	ok2 := sc2.Scan()
	for ok1 && ok2 {
		if sc1.Text() < sc2.Text() {
			if werr := writeLine(w, sc1.Text()); werr != nil {
				return werr
			}
			ok1 = sc1.Scan()
		} else {
			if werr := writeLine(w, sc2.Text()); werr != nil {
				return werr
			}
			ok2 = sc2.Scan()
		}
	}

	switch {
	case ok1:
		if werr := drain(w, sc1); werr != nil {
			return werr
		}
	case ok2:
		if werr := drain(w, sc2); werr != nil {
			return werr
		}
	}

	if scErr := sc1.Err(); scErr != nil {
		return errors.E(errors.IO, "sortpipeline: read merge input "+f1, scErr)
	}
	if scErr := sc2.Err(); scErr != nil {
		return errors.E(errors.IO, "sortpipeline: read merge input "+f2, scErr)
	}
	return nil
}

func newLineScanner(r *os.File) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), slab.MaxLineBytes+16)
	return sc
}

// drain writes sc's currently held line (the finalize step's held line)
// followed by the rest of sc's lines.
func drain(w *bufio.Writer, sc *bufio.Scanner) error {
	if err := writeLine(w, sc.Text()); err != nil {
		return err
	}
	for sc.Scan() {
		if err := writeLine(w, sc.Text()); err != nil {
			return err
		}
	}
	return nil
}

func writeLine(w *bufio.Writer, s string) error {
	if _, err := w.WriteString(s); err != nil {
		return errors.E(errors.IO, "sortpipeline: write merge output", err)
	}
	if err := w.WriteByte('\n'); err != nil {
		return errors.E(errors.IO, "sortpipeline: write merge output", err)
	}
	return nil
}
