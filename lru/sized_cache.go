// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package lru

import "container/list"

// Sized is a recency list bounded by the total size of its entries and,
// optionally, by their count. Sizes are supplied by the caller and may change
// after insertion through Resize.
//
// Sized never evicts on its own: owners call Trim with a predicate deciding
// which entries may go. It is not safe for concurrent use; owners guard it
// with their own lock.
type Sized[K comparable, V any] struct {
	maxSize     int64
	maxLen      int
	currentSize int64
	items       map[K]*list.Element
	lru         *list.List
	onEvict     func(K, V, int64)
}

type sizedEntry[K comparable, V any] struct {
	key   K
	value V
	size  int64
}

// NewSized creates a size-bounded recency list. A maxLen <= 0 disables the
// count bound. onEvict, if non-nil, is called for every entry removed by
// Evict, Trim or EvictIf.
func NewSized[K comparable, V any](maxSize int64, maxLen int, onEvict func(K, V, int64)) *Sized[K, V] {
	if maxSize < 0 {
		maxSize = 0
	}
	return &Sized[K, V]{
		maxSize: maxSize,
		maxLen:  maxLen,
		items:   make(map[K]*list.Element),
		lru:     list.New(),
		onEvict: onEvict,
	}
}

// Put inserts or replaces a value as the most recently used entry.
func (s *Sized[K, V]) Put(key K, value V, size int64) {
	if elem, ok := s.items[key]; ok {
		e := elem.Value.(*sizedEntry[K, V])
		s.currentSize += size - e.size
		e.value = value
		e.size = size
		s.lru.MoveToFront(elem)
		return
	}
	s.items[key] = s.lru.PushFront(&sizedEntry[K, V]{key: key, value: value, size: size})
	s.currentSize += size
}

// Get retrieves a value and marks it as most recently used.
func (s *Sized[K, V]) Get(key K) (V, bool) {
	if elem, ok := s.items[key]; ok {
		s.lru.MoveToFront(elem)
		return elem.Value.(*sizedEntry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Peek retrieves a value without touching its recency.
func (s *Sized[K, V]) Peek(key K) (V, bool) {
	if elem, ok := s.items[key]; ok {
		return elem.Value.(*sizedEntry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Resize adjusts the recorded size of key by delta. It reports whether key
// was present.
func (s *Sized[K, V]) Resize(key K, delta int64) bool {
	elem, ok := s.items[key]
	if !ok {
		return false
	}
	elem.Value.(*sizedEntry[K, V]).size += delta
	s.currentSize += delta
	return true
}

// Evict removes key from the list.
func (s *Sized[K, V]) Evict(key K) bool {
	elem, ok := s.items[key]
	if !ok {
		return false
	}
	s.remove(elem)
	return true
}

// Over reports whether the list exceeds either of its bounds.
func (s *Sized[K, V]) Over() bool {
	return s.currentSize > s.maxSize || (s.maxLen > 0 && s.lru.Len() > s.maxLen)
}

// Trim evicts entries from the least recently used end, skipping those for
// which canEvict returns false, until the list is within its bounds or no
// candidates remain. It returns the number of evicted entries.
func (s *Sized[K, V]) Trim(canEvict func(K, V) bool) int {
	evicted := 0
	for elem := s.lru.Back(); elem != nil && s.Over(); {
		prev := elem.Prev()
		e := elem.Value.(*sizedEntry[K, V])
		if canEvict == nil || canEvict(e.key, e.value) {
			s.remove(elem)
			evicted++
		}
		elem = prev
	}
	return evicted
}

// EvictIf removes every entry matching pred, regardless of bounds.
func (s *Sized[K, V]) EvictIf(pred func(K, V) bool) int {
	evicted := 0
	for elem := s.lru.Back(); elem != nil; {
		prev := elem.Prev()
		e := elem.Value.(*sizedEntry[K, V])
		if pred(e.key, e.value) {
			s.remove(elem)
			evicted++
		}
		elem = prev
	}
	return evicted
}

// Range calls fn from most to least recently used until fn returns false.
func (s *Sized[K, V]) Range(fn func(K, V, int64) bool) {
	for elem := s.lru.Front(); elem != nil; elem = elem.Next() {
		e := elem.Value.(*sizedEntry[K, V])
		if !fn(e.key, e.value, e.size) {
			return
		}
	}
}

func (s *Sized[K, V]) remove(elem *list.Element) {
	e := elem.Value.(*sizedEntry[K, V])
	s.lru.Remove(elem)
	delete(s.items, e.key)
	s.currentSize -= e.size
	if s.onEvict != nil {
		s.onEvict(e.key, e.value, e.size)
	}
}

// Len returns number of entries.
func (s *Sized[K, V]) Len() int { return s.lru.Len() }

// Size returns the sum of the recorded entry sizes.
func (s *Sized[K, V]) Size() int64 { return s.currentSize }

// MaxSize returns the size bound.
func (s *Sized[K, V]) MaxSize() int64 { return s.maxSize }

// SetMaxSize updates the size bound. Callers Trim afterwards.
func (s *Sized[K, V]) SetMaxSize(maxSize int64) {
	if maxSize < 0 {
		maxSize = 0
	}
	s.maxSize = maxSize
}

// MaxLen returns the count bound, 0 when disabled.
func (s *Sized[K, V]) MaxLen() int { return s.maxLen }

// SetMaxLen updates the count bound. Values <= 0 disable it.
func (s *Sized[K, V]) SetMaxLen(maxLen int) {
	if maxLen < 0 {
		maxLen = 0
	}
	s.maxLen = maxLen
}

// PortionFilled returns the ratio of size used to max size.
func (s *Sized[K, V]) PortionFilled() float64 {
	if s.maxSize == 0 {
		return 0
	}
	return float64(s.currentSize) / float64(s.maxSize)
}
