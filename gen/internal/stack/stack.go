// Package stack models the operand stack at one program point as an ordered
// list of value types, top at the end.
package stack

import (
	"errors"

	"github.com/wippyai/wasm-fuzzgen/wasm"
)

// ErrUnderflow is returned when popping from an empty stack.
var ErrUnderflow = errors.New("stack underflow")

// Stack is a symbolic operand stack. The zero value is an empty stack.
type Stack struct {
	types []wasm.ValType
}

// New returns an empty stack.
func New() *Stack {
	return &Stack{}
}

// Push appends t on top of the stack.
func (s *Stack) Push(t wasm.ValType) {
	s.types = append(s.types, t)
}

// Pop removes and returns the top slot.
func (s *Stack) Pop() (wasm.ValType, error) {
	if len(s.types) == 0 {
		return 0, ErrUnderflow
	}
	t := s.types[len(s.types)-1]
	s.types = s.types[:len(s.types)-1]
	return t, nil
}

// Peek returns the top slot without removing it.
func (s *Stack) Peek() (wasm.ValType, bool) {
	if len(s.types) == 0 {
		return 0, false
	}
	return s.types[len(s.types)-1], true
}

// Depth returns the number of slots.
func (s *Stack) Depth() int {
	return len(s.types)
}

// Snapshot returns a copy of the slots, bottom first.
func (s *Stack) Snapshot() []wasm.ValType {
	out := make([]wasm.ValType, len(s.types))
	copy(out, s.types)
	return out
}

// Top returns the top n slots in stack order (deepest first).
// The returned slice aliases the stack and must not be modified.
func (s *Stack) Top(n int) []wasm.ValType {
	if n > len(s.types) {
		n = len(s.types)
	}
	return s.types[len(s.types)-n:]
}

// Drop removes n slots, failing without change if fewer exist.
func (s *Stack) Drop(n int) error {
	if n > len(s.types) {
		return ErrUnderflow
	}
	s.types = s.types[:len(s.types)-n]
	return nil
}

// Matches reports whether the stack holds exactly types.
func (s *Stack) Matches(types []wasm.ValType) bool {
	if len(s.types) != len(types) {
		return false
	}
	return s.PrefixOf(types)
}

// PrefixOf reports whether the stack is a prefix of types, slot by slot.
func (s *Stack) PrefixOf(types []wasm.ValType) bool {
	if len(s.types) > len(types) {
		return false
	}
	for i, t := range s.types {
		if types[i] != t {
			return false
		}
	}
	return true
}

// TopMatches reports whether the top len(types) slots equal types.
func (s *Stack) TopMatches(types []wasm.ValType) bool {
	if len(types) > len(s.types) {
		return false
	}
	top := s.Top(len(types))
	for i, t := range types {
		if top[i] != t {
			return false
		}
	}
	return true
}
