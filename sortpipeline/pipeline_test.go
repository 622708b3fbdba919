// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package sortpipeline

import (
	"bufio"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSort(t *testing.T, input string, cfg Config) string {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "input")
	require.NoError(t, os.WriteFile(in, []byte(input), 0o644))
	out := filepath.Join(dir, "result")

	cfg.TmpDir = dir
	require.NoError(t, Run(in, out, cfg))

	assertNoLeftoverTempFiles(t, dir)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	return string(got)
}

func assertNoLeftoverTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "tmp") {
			t.Errorf("leftover temp file after Run: %s", name)
		}
	}
}

func TestRunEmptyInput(t *testing.T) {
	got := runSort(t, "", Config{NumThreads: 4})
	assert.Equal(t, "", got)
}

func TestRunSingleLine(t *testing.T) {
	got := runSort(t, "hello\n", Config{NumThreads: 4})
	assert.Equal(t, "hello\n", got)
}

func TestRunAlreadySorted(t *testing.T) {
	got := runSort(t, "a\nb\nc\n", Config{NumThreads: 4})
	assert.Equal(t, "a\nb\nc\n", got)
}

func TestRunReverseSorted(t *testing.T) {
	got := runSort(t, "c\nb\na\n", Config{NumThreads: 4})
	assert.Equal(t, "a\nb\nc\n", got)
}

func TestRunDuplicates(t *testing.T) {
	got := runSort(t, "b\na\nb\na\n", Config{NumThreads: 4})
	assert.Equal(t, "a\na\nb\nb\n", got)
}

// TestRunIdempotent sorts an already-sorted file and checks the output is
// byte-identical.
func TestRunIdempotent(t *testing.T) {
	const sorted = "alpha\nbeta\ngamma\nzeta\n"
	got := runSort(t, sorted, Config{NumThreads: 4})
	assert.Equal(t, sorted, got)
}

// TestRunComposition checks that concatenating two sorted halves and
// re-sorting yields the same result as sorting the whole input at once.
func TestRunComposition(t *testing.T) {
	lines := randomLines(rand.New(rand.NewSource(1)), 400)

	half := len(lines) / 2
	first := append([]string{}, lines[:half]...)
	second := append([]string{}, lines[half:]...)
	sort.Strings(first)
	sort.Strings(second)

	combined := strings.Join(append(append([]string{}, first...), second...), "\n") + "\n"
	gotFromHalves := runSort(t, combined, Config{NumThreads: 4, MaxStrings: 40})

	whole := strings.Join(lines, "\n") + "\n"
	gotFromWhole := runSort(t, whole, Config{NumThreads: 4, MaxStrings: 40})

	if diff := deep.Equal(strings.Split(gotFromWhole, "\n"), strings.Split(gotFromHalves, "\n")); diff != nil {
		t.Fatalf("sorting from halves diverged from sorting the whole input:\n%s", strings.Join(diff, "\n"))
	}
}

// TestRunLargeSpill forces many slabs, many run files, and many merges by
// keeping MaxStrings and QueueCapacity small relative to the input size.
func TestRunLargeSpill(t *testing.T) {
	const n = 5000
	rng := rand.New(rand.NewSource(42))
	lines := randomLines(rng, n)
	input := strings.Join(lines, "\n") + "\n"

	got := runSort(t, input, Config{NumThreads: 4, MaxStrings: 37, QueueCapacity: 5})

	gotLines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	require.Len(t, gotLines, n)
	assert.True(t, sort.StringsAreSorted(gotLines))

	wantCount := make(map[string]int, n)
	for _, l := range lines {
		wantCount[l]++
	}
	gotCount := make(map[string]int, n)
	for _, l := range gotLines {
		gotCount[l]++
	}
	assert.Equal(t, wantCount, gotCount)
}

func randomLines(rng *rand.Rand, n int) []string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lines := make([]string, n)
	for i := range lines {
		length := 1 + rng.Intn(9)
		var b strings.Builder
		for j := 0; j < length; j++ {
			b.WriteByte(alphabet[rng.Intn(len(alphabet))])
		}
		lines[i] = b.String()
	}
	return lines
}

func TestMergeTiesFavorSecondFile(t *testing.T) {
	dir := t.TempDir()
	f1 := writeFile(t, dir, "f1", "a\nb\n")
	f2 := writeFile(t, dir, "f2", "a\nc\n")
	out := filepath.Join(dir, "out")

	require.NoError(t, merge(f1, f2, out))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "a\na\nb\nc\n", string(got))
}

func TestMergeFinalizeFlushesRemainder(t *testing.T) {
	dir := t.TempDir()
	f1 := writeFile(t, dir, "f1", "a\n")
	f2 := writeFile(t, dir, "f2", "b\nc\nd\n")
	out := filepath.Join(dir, "out")

	require.NoError(t, merge(f1, f2, out))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\nd\n", string(got))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestMapTruncatesOversizedLines checks that a line exceeding
// slab.MaxLineBytes is truncated rather than rejected.
func TestMapTruncatesOversizedLines(t *testing.T) {
	long := strings.Repeat("x", 2000)
	got := runSort(t, long+"\n", Config{NumThreads: 4})
	want, err := bufio.NewReader(strings.NewReader(got)).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, 999+1, len(want)) // 999 bytes of content + trailing newline
}
