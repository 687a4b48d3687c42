// Copyright 2024 The hprofredact Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package redact

import "testing"

func TestMUTF8RoundTrip(t *testing.T) {
	cases := []string{
		"",
		"hello",
		"café",     // 2-byte sequence
		"東京",  // 3-byte sequences (CJK)
		"\U0001F600",    // supplementary plane, surrogate pair
		"a\x00b",        // embedded NUL, overlong 0xC0 0x80
		"\U0001F600x\U0001F601",
	}
	for _, s := range cases {
		encoded := encodeMUTF8(s)
		got, err := decodeMUTF8(encoded)
		if err != nil {
			t.Fatalf("decodeMUTF8(%q): %v", s, err)
		}
		if got != s {
			t.Errorf("round trip mismatch: got %q, want %q", got, s)
		}
	}
}

func TestMUTF8EncodeNULIsOverlong(t *testing.T) {
	encoded := encodeMUTF8("\x00")
	want := []byte{0xC0, 0x80}
	if len(encoded) != 2 || encoded[0] != want[0] || encoded[1] != want[1] {
		t.Errorf("NUL encoding = % x, want % x", encoded, want)
	}
}

func TestMUTF8DecodeInvalidTruncated(t *testing.T) {
	cases := [][]byte{
		{0xC0},       // truncated 2-byte sequence
		{0xE0, 0x80}, // truncated 3-byte sequence
		{0xF0, 0x80, 0x80, 0x80}, // 4-byte leading byte, rejected outright
		{0xC0, 0x00}, // continuation byte not in 10xxxxxx form
	}
	for _, c := range cases {
		if _, err := decodeMUTF8(c); err != ErrInvalidMUTF8 {
			t.Errorf("decodeMUTF8(% x) err = %v, want ErrInvalidMUTF8", c, err)
		}
	}
}

func TestMUTF8DecodeLoneSurrogateReplaced(t *testing.T) {
	// A high surrogate (U+D800) with no following low surrogate, each
	// independently encoded in the 3-byte form HotSpot never actually
	// produces standalone but which the decoder must not choke on.
	lone := append3Byte(nil, 0xD800)
	s, err := decodeMUTF8(lone)
	if err != nil {
		t.Fatalf("decodeMUTF8: %v", err)
	}
	if s != "�" {
		t.Errorf("lone surrogate decoded to %q, want U+FFFD", s)
	}
}

func FuzzMUTF8Decode(f *testing.F) {
	f.Add([]byte("hello"))
	f.Add([]byte{0xC0, 0x80})
	f.Add([]byte{0xE0, 0x80, 0x80})
	f.Add([]byte{0xF0, 0x80, 0x80, 0x80})
	f.Fuzz(func(t *testing.T, b []byte) {
		s, err := decodeMUTF8(b)
		if err != nil {
			return
		}
		// A successful decode must re-encode to something decodeMUTF8
		// accepts again, even if not byte-identical (surrogate repair
		// and the NUL/ASCII fast path can both change the exact bytes).
		again, err := decodeMUTF8(encodeMUTF8(s))
		if err != nil {
			t.Fatalf("re-decode of re-encoded %q failed: %v", s, err)
		}
		if again != s {
			t.Fatalf("re-decode mismatch: got %q, want %q", again, s)
		}
	})
}
