// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package runid

import (
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumeratorMonotonicUnique(t *testing.T) {
	var e Enumerator
	seen := make(map[int64]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(100)
	for i := 0; i < 100; i++ {
		go func() {
			defer wg.Done()
			n := e.Next()
			mu.Lock()
			defer mu.Unlock()
			require.False(t, seen[n], "duplicate id %d", n)
			seen[n] = true
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 100)
}

func TestScratchDirCreatesUniqueDirs(t *testing.T) {
	base := t.TempDir()
	d1, err := ScratchDir(base)
	require.NoError(t, err)
	d2, err := ScratchDir(base)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d2)

	for _, d := range []string{d1, d2} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
