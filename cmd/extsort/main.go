// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Command extsort sorts a newline-delimited text file too large to fit in
// memory, producing a byte-wise non-decreasing permutation of its lines.
package main

import (
	"flag"
	"fmt"
	"os"

	"extsort/errors"
	"extsort/log"
	"extsort/must"
	"extsort/runid"
	"extsort/sortpipeline"
)

func main() {
	log.AddFlags()

	out := flag.String("out", "result", "output file path")
	maxStrings := flag.Int("max-strings", 0, "approximate number of lines resident in memory at once (0 selects the built-in default)")
	queueCapacity := flag.Int("queue-capacity", 0, "resident capacity of the run-filename queue before it spills to disk (0 selects the built-in default)")
	tmpDir := flag.String("tmp-dir", "", "directory for temporary and spill files (default: current directory)")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: extsort [flags] <input-file>")
		os.Exit(1)
	}
	input := flag.Arg(0)

	// No -tmp-dir given: temp files land directly in the current working
	// directory, matching spec's fixed tmp<N> naming scheme. Only when
	// the caller explicitly names a -tmp-dir do we mint a run-scoped
	// scratch subdirectory under it, so concurrent invocations sharing
	// that one -tmp-dir can't collide over tmp<N>/tmp_queue<N> names.
	runTmpDir := *tmpDir
	if runTmpDir != "" {
		dir, err := runid.ScratchDir(runTmpDir)
		must.Nil(err, "extsort: create scratch directory")
		runTmpDir = dir
		defer os.RemoveAll(dir)
	}

	cfg := sortpipeline.Config{
		MaxStrings:    *maxStrings,
		QueueCapacity: *queueCapacity,
		TmpDir:        runTmpDir,
	}

	err := sortpipeline.Run(input, *out, cfg)
	if errors.Is(errors.NotExist, err) {
		fmt.Fprintf(os.Stderr, "extsort: %v\n", err)
		os.Exit(2)
	}
	must.Nil(err, "extsort: sort failed")
	log.Debug.Printf("extsort: wrote %s", *out)
}
