package database

import (
	"slices"
	"strings"
	"sync"
)

// UTXOSet is the index of unspent outputs keyed by output id. All mutation
// happens under a single lock so two transactions can never resolve and
// spend the same output.
type UTXOSet struct {
	mu      sync.RWMutex
	outputs map[string]Output
}

// NewUTXOSet constructs a set holding the specified outputs.
func NewUTXOSet(outputs ...Output) *UTXOSet {
	s := UTXOSet{
		outputs: make(map[string]Output, len(outputs)),
	}

	for _, out := range outputs {
		s.outputs[out.ID] = out
	}

	return &s
}

// Get looks up an unspent output by id.
func (s *UTXOSet) Get(id string) (Output, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out, exists := s.outputs[id]
	return out, exists
}

// Len returns the number of unspent outputs.
func (s *UTXOSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.outputs)
}

// Values returns the unspent outputs ordered by id.
func (s *UTXOSet) Values() []Output {
	return s.filter(func(Output) bool { return true })
}

// Owned returns the unspent outputs owned by the key ordered by id.
func (s *UTXOSet) Owned(pk PublicKey) []Output {
	return s.filter(func(out Output) bool { return out.IsMine(pk) })
}

// Balance returns the total value of the outputs owned by the key.
func (s *UTXOSet) Balance(pk PublicKey) uint64 {
	var total uint64
	for _, out := range s.Owned(pk) {
		total += out.Value
	}
	return total
}

// Copy makes an independent copy of the set.
func (s *UTXOSet) Copy() *UTXOSet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cpy := UTXOSet{
		outputs: make(map[string]Output, len(s.outputs)),
	}
	for id, out := range s.outputs {
		cpy.outputs[id] = out
	}

	return &cpy
}

// Equal reports whether both sets hold the same outputs.
func (s *UTXOSet) Equal(other *UTXOSet) bool {
	a, b := s.Values(), other.Values()
	return slices.Equal(a, b)
}

// =============================================================================

// update runs the function as a critical section over the outputs. The
// function must leave the map untouched when it returns an error.
func (s *UTXOSet) update(fn func(outputs map[string]Output) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(s.outputs)
}

// filter returns the outputs matching the function ordered by id.
func (s *UTXOSet) filter(match func(Output) bool) []Output {
	s.mu.RLock()
	var outputs []Output
	for _, out := range s.outputs {
		if match(out) {
			outputs = append(outputs, out)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(outputs, func(a, b Output) int {
		return strings.Compare(a.ID, b.ID)
	})

	return outputs
}
