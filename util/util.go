package util

import (
	"fmt"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

func Assert(cond bool, msg ...interface{}) {
	if !cond {
		if len(msg) > 0 {
			panic(fmt.Sprint(msg...))
		}
		panic("assertion failed")
	}
}

func Assertf(cond bool, format string, v ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(format, v...))
	}
}

func Tern[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

type Set[T comparable] struct {
	m map[T]struct{}
}

func NewSet[T comparable](items ...T) *Set[T] {
	s := &Set[T]{m: make(map[T]struct{}, len(items))}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

func (s *Set[T]) Add(v T)           { s.m[v] = struct{}{} }
func (s *Set[T]) Len() int          { return len(s.m) }
func (s *Set[T]) Contains(v T) bool { _, ok := s.m[v]; return ok }
