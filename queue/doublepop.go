// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package queue

// DoublePop is a Spill queue with an additional atomic two-element pop,
// used by the reduce coordinator so that two merger threads can never each
// grab one file and deadlock waiting for a partner. It plays the role the
// teacher's syncqueue.LIFO plays for its own callers: a small, mutex-and-
// condition-variable primitive with one extra, task-specific operation
// layered on top of the base queue.
type DoublePop[T any] struct {
	*Spill[T]
}

// NewDoublePop creates an empty DoublePop queue with the given spill
// capacity, codec, and spill-file location.
func NewDoublePop[T any](capacity int, codec Codec[T], tmpDir, prefix string) *DoublePop[T] {
	return &DoublePop[T]{Spill: NewSpill[T](capacity, codec, tmpDir, prefix)}
}

// WaitAndPop2 blocks until at least two elements are available or Finish
// has been observed. If Finish is observed first, it returns false even if
// exactly one element remains resident: that last element is reserved for
// WaitAndPopForce, called by the finalizing consumer alone. Otherwise it
// pops two elements atomically under a single lock acquisition.
func (q *DoublePop[T]) WaitAndPop2() (T, T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.size <= 1 && !q.finished {
		q.cond.Wait()
	}
	var zero T
	if q.finished {
		return zero, zero, false
	}
	first, _ := q.pop()
	second, _ := q.pop()
	return first, second, true
}

// WaitAndPopForce blocks until at least one element is resident, regardless
// of Finish, and returns it. It is used by the main thread to collect the
// single remaining file once the files queue has finished.
func (q *DoublePop[T]) WaitAndPopForce() T {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.size == 0 {
		q.cond.Wait()
	}
	v, _ := q.pop()
	return v
}
