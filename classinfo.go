// Copyright 2024 The hprofredact Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package redact

// FieldDef is one instance field definition as declared in a class dump:
// the field's name symbol id and its primitive type.
type FieldDef struct {
	NameID uint64
	Type   PrimitiveType
}

// ClassInfo is the metadata known about one class: its superclass id (0 if
// none) and its own (non-inherited) ordered instance field definitions.
type ClassInfo struct {
	SuperID uint64
	Fields  []FieldDef
}

// flattenResult caches the outcome of flattening a class's inherited-first
// field type sequence, or records that it is unresolved because some
// ancestor in the chain has not yet been observed.
type flattenResult struct {
	types      []PrimitiveType
	unresolved bool
}

// ClassStore is the in-memory map from class identifier to its metadata,
// plus a memoized flattener for inherited-first instance field layouts.
// It is owned exclusively by the pipeline driver for the lifetime of one
// filter operation; no class entry is ever removed, while the
// memoization cache is cleared on every Update.
type ClassStore struct {
	classes map[uint64]*ClassInfo
	cache   map[uint64]flattenResult
}

// NewClassStore returns an empty class metadata store.
func NewClassStore() *ClassStore {
	return &ClassStore{
		classes: make(map[uint64]*ClassInfo),
		cache:   make(map[uint64]flattenResult),
	}
}

// Update records or overwrites the metadata for classID, as observed in a
// GC_CLASS_DUMP sub-record. Re-encountering a class (rare, but the wire
// format does not forbid it) invalidates its flatten memoization and that
// of every class that was already resolved relative to it.
func (s *ClassStore) Update(classID, superID uint64, fields []FieldDef) {
	s.classes[classID] = &ClassInfo{SuperID: superID, Fields: fields}
	// A re-dump can change the field layout of any class whose flattened
	// sequence was computed through this one, directly or transitively;
	// the cheapest correct fix is to drop the whole memoization cache
	// rather than track a dependency graph for a case the format allows
	// but HotSpot never actually exercises.
	for k := range s.cache {
		delete(s.cache, k)
	}
}

// Lookup returns the metadata recorded for classID, if any.
func (s *ClassStore) Lookup(classID uint64) (*ClassInfo, bool) {
	c, ok := s.classes[classID]
	return c, ok
}

// Flatten returns the inherited-first sequence of instance field types for
// classID: the concatenation of the superclass's flattened sequence
// followed by classID's own fields. The second return value is false if
// classID itself, or any ancestor in its chain, is not yet known to the
// store — callers must treat that as "unresolved," not as an empty layout.
func (s *ClassStore) Flatten(classID uint64) ([]PrimitiveType, bool) {
	if classID == 0 {
		return nil, true
	}
	if cached, ok := s.cache[classID]; ok {
		if cached.unresolved {
			return nil, false
		}
		return cached.types, true
	}

	info, ok := s.classes[classID]
	if !ok {
		return nil, false
	}

	var types []PrimitiveType
	if info.SuperID != 0 {
		superTypes, resolved := s.Flatten(info.SuperID)
		if !resolved {
			s.cache[classID] = flattenResult{unresolved: true}
			return nil, false
		}
		types = append(types, superTypes...)
	}
	for _, f := range info.Fields {
		types = append(types, f.Type)
	}

	s.cache[classID] = flattenResult{types: types}
	return types, true
}

// Ancestors returns classID and its chain of superclass ids, closest first,
// or false if any ancestor is unresolved. This is a diagnostic helper, not
// used by the rewriter itself.
func (s *ClassStore) Ancestors(classID uint64) ([]uint64, bool) {
	var chain []uint64
	for classID != 0 {
		chain = append(chain, classID)
		info, ok := s.classes[classID]
		if !ok {
			return chain, false
		}
		classID = info.SuperID
	}
	return chain, true
}

// FieldWidths sums the wire widths of types under the given identifier
// size; it is used to validate an instance dump's declared data length
// against its resolved flattened layout (spec.md property 3).
func FieldWidths(types []PrimitiveType, idSize int) (int, error) {
	total := 0
	for _, t := range types {
		w, err := t.Width(idSize)
		if err != nil {
			return 0, err
		}
		total += w
	}
	return total, nil
}
