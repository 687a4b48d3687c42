// Copyright 2024 The hprofredact Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package redact

import "testing"

func TestNameKindTableFirstObservedWins(t *testing.T) {
	nt := newNameKindTable()
	nt.classify(1, KindClassName)
	nt.classify(1, KindFieldName) // must not overwrite

	if got := nt.kindOf(1); got != KindClassName {
		t.Errorf("kindOf(1) = %v, want KindClassName", got)
	}
}

func TestNameKindTableUnknownNeverOverwrites(t *testing.T) {
	nt := newNameKindTable()
	nt.classify(1, KindClassName)
	nt.classify(1, KindUnknown)

	if got := nt.kindOf(1); got != KindClassName {
		t.Errorf("kindOf(1) = %v, want KindClassName unaffected by KindUnknown", got)
	}
}

func TestNameKindTableUnreferencedIsUnknown(t *testing.T) {
	nt := newNameKindTable()
	if got := nt.kindOf(42); got != KindUnknown {
		t.Errorf("kindOf(42) = %v, want KindUnknown", got)
	}
}
