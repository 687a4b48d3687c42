// Copyright 2024 The hprofredact Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package redact

import "testing"

func TestClassStoreFlattenInheritance(t *testing.T) {
	cs := NewClassStore()
	cs.Update(1, 0, []FieldDef{{NameID: 10, Type: TypeInt}})
	cs.Update(2, 1, []FieldDef{{NameID: 11, Type: TypeLong}})

	types, ok := cs.Flatten(2)
	if !ok {
		t.Fatal("Flatten(2) unresolved, want resolved")
	}
	want := []PrimitiveType{TypeInt, TypeLong}
	if len(types) != len(want) {
		t.Fatalf("Flatten(2) = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("Flatten(2)[%d] = %v, want %v", i, types[i], want[i])
		}
	}
}

func TestClassStoreFlattenUnresolvedAncestor(t *testing.T) {
	cs := NewClassStore()
	// Class 2's superclass (99) has never been recorded.
	cs.Update(2, 99, []FieldDef{{NameID: 11, Type: TypeLong}})

	if _, ok := cs.Flatten(2); ok {
		t.Fatal("Flatten(2) resolved despite an unknown ancestor")
	}
}

func TestClassStoreFlattenRootHasNoSuper(t *testing.T) {
	cs := NewClassStore()
	types, ok := cs.Flatten(0)
	if !ok {
		t.Fatal("Flatten(0) should resolve: class id 0 means no superclass")
	}
	if len(types) != 0 {
		t.Errorf("Flatten(0) = %v, want empty", types)
	}
}

func TestClassStoreUpdateInvalidatesCache(t *testing.T) {
	cs := NewClassStore()
	cs.Update(1, 0, []FieldDef{{NameID: 10, Type: TypeInt}})
	cs.Update(2, 1, []FieldDef{{NameID: 11, Type: TypeLong}})

	if _, ok := cs.Flatten(2); !ok {
		t.Fatal("Flatten(2) unresolved before re-update")
	}

	// Re-declaring class 1 with a different field set must be reflected
	// the next time class 2 is flattened, not served from a stale cache.
	cs.Update(1, 0, []FieldDef{{NameID: 10, Type: TypeBoolean}})
	types, ok := cs.Flatten(2)
	if !ok {
		t.Fatal("Flatten(2) unresolved after re-update")
	}
	if types[0] != TypeBoolean {
		t.Errorf("Flatten(2)[0] = %v after re-update, want TypeBoolean (cache not invalidated)", types[0])
	}
}

func TestFieldWidths(t *testing.T) {
	types := []PrimitiveType{TypeBoolean, TypeInt, TypeLong, TypeObject}
	got, err := FieldWidths(types, 8)
	if err != nil {
		t.Fatalf("FieldWidths: %v", err)
	}
	want := 1 + 4 + 8 + 8
	if got != want {
		t.Errorf("FieldWidths = %d, want %d", got, want)
	}
}
