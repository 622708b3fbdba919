// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package queue

// Codec converts values of type T to and from a single line of text so a
// Spill queue can page them out to a spill file when it overflows its
// resident capacity. Encode must never produce a string containing '\n'.
//
// A queue that is never spillable (capacity <= 0) may be constructed with a
// nil Codec; it is a programmer error to let such a queue overflow.
type Codec[T any] interface {
	Encode(T) string
	Decode(string) (T, error)
}

// StringCodec is the identity Codec for plain strings, used for the files
// queue (spec's RunFile filenames).
type StringCodec struct{}

func (StringCodec) Encode(s string) string { return s }

func (StringCodec) Decode(s string) (string, error) { return s, nil }
