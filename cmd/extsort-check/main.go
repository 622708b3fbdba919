// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Command extsort-check verifies that a candidate output file is a
// byte-wise sorted permutation of an original input file's lines.
//
// Exit codes: 0 sorted and a permutation; 1 not sorted; 2 multiset
// mismatch (writes a "diff" file listing missed and extra lines).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"extsort/log"
)

func main() {
	flag.Parse()
	if flag.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "usage: extsort-check <candidate> <original>")
		os.Exit(1)
	}
	candidate, original := flag.Arg(0), flag.Arg(1)

	candLines, err := readLines(candidate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "extsort-check: %v\n", err)
		os.Exit(2)
	}
	for i := 1; i < len(candLines); i++ {
		if candLines[i] < candLines[i-1] {
			os.Exit(1)
		}
	}

	origLines, err := readLines(original)
	if err != nil {
		fmt.Fprintf(os.Stderr, "extsort-check: %v\n", err)
		os.Exit(2)
	}

	counts := make(map[string]int, len(candLines))
	for _, l := range candLines {
		counts[l]++
	}
	// missed: lines the original has that the candidate is missing.
	var missed []string
	for _, l := range origLines {
		if counts[l] > 0 {
			counts[l]--
			continue
		}
		missed = append(missed, l)
	}
	// extra: lines left over in the candidate unmatched by the original.
	var extra []string
	for l, n := range counts {
		for i := 0; i < n; i++ {
			extra = append(extra, l)
		}
	}

	if len(missed) == 0 && len(extra) == 0 {
		os.Exit(0)
	}

	diff, err := os.Create("diff")
	if err != nil {
		log.Fatalf("extsort-check: %v", err)
	}
	defer diff.Close()
	if len(missed) > 0 {
		fmt.Fprintln(diff, "Missed strings:")
		for _, l := range missed {
			fmt.Fprintln(diff, l)
		}
	}
	if len(extra) > 0 {
		fmt.Fprintln(diff, "additional strings:")
		for _, l := range extra {
			fmt.Fprintln(diff, l)
		}
	}
	os.Exit(2)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
