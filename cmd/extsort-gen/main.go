// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Command extsort-gen writes str_array.txt, a file of random uppercase-ASCII
// lines, for exercising cmd/extsort and cmd/extsort-check against inputs
// larger than fit comfortably in a test fixture.
package main

import (
	"bufio"
	"flag"
	"math/rand"
	"os"
	"strconv"
	"time"

	"extsort/log"
)

const maxLineLen = 9

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		log.Fatal("extsort-gen: number of lines is needed")
	}
	n, err := strconv.Atoi(flag.Arg(0))
	if err != nil || n <= 0 {
		log.Fatalf("extsort-gen: invalid line count %q", flag.Arg(0))
	}

	f, err := os.Create("str_array.txt")
	if err != nil {
		log.Fatalf("extsort-gen: %v", err)
	}

	w := bufio.NewWriterSize(f, 64*1024)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 0; i < n; i++ {
		size := rng.Intn(maxLineLen) + 1
		for j := 0; j < size; j++ {
			w.WriteByte(byte('A' + rng.Intn(26)))
		}
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("extsort-gen: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("extsort-gen: %v", err)
	}
}
