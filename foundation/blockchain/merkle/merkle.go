// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.
// This code has been cleaned up, refactored, and turned into generics.

// Package merkle provides an implementation of a merkle tree for committing
// to an ordered set of block transactions.
package merkle

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
)

// ErrNoContent is returned when a tree is constructed with no values.
var ErrNoContent = errors.New("cannot construct tree with no content")

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree.
type Hashable[T any] interface {
	Hash() ([]byte, error)
	Equals(other T) bool
}

// DefaultHashStrategy is HMAC-SHA256 with an empty key, the same keyed hash
// used for every other id in the ledger.
func DefaultHashStrategy() hash.Hash {
	return hmac.New(sha256.New, nil)
}

// =============================================================================

// Tree represents a merkle tree that uses data of some type T that exhibits the
// behavior defined by the Hashable constraint.
type Tree[T Hashable[T]] struct {
	Root         *Node[T]
	Leafs        []*Node[T]
	MerkleRoot   []byte
	hashStrategy func() hash.Hash
}

// WithHashStrategy is used to change the default hash strategy when
// constructing a new tree.
func WithHashStrategy[T Hashable[T]](hashStrategy func() hash.Hash) func(t *Tree[T]) {
	return func(t *Tree[T]) {
		t.hashStrategy = hashStrategy
	}
}

// NewTree constructs a new merkle tree that uses data of some type T that
// exhibits the behavior defined by the Hashable interface.
func NewTree[T Hashable[T]](values []T, options ...func(t *Tree[T])) (*Tree[T], error) {
	t := Tree[T]{
		hashStrategy: DefaultHashStrategy,
	}

	for _, option := range options {
		option(&t)
	}

	if err := t.Generate(values); err != nil {
		return nil, err
	}

	return &t, nil
}

// Generate constructs the leafs and nodes of the tree from the specified
// data. Any existing tree is discarded.
func (t *Tree[T]) Generate(values []T) error {
	if len(values) == 0 {
		return ErrNoContent
	}

	leafs := make([]*Node[T], 0, len(values)+1)
	for _, value := range values {
		h, err := value.Hash()
		if err != nil {
			return err
		}

		leafs = append(leafs, &Node[T]{Tree: t, Hash: h, Value: value, leaf: true})
	}

	// An odd level is evened out by repeating its last node.
	if len(leafs)%2 == 1 {
		last := leafs[len(leafs)-1]
		leafs = append(leafs, &Node[T]{Tree: t, Hash: last.Hash, Value: last.Value, leaf: true, dup: true})
	}

	level := leafs
	for len(level) > 1 {
		next, err := t.buildLevel(level)
		if err != nil {
			return err
		}
		level = next
	}

	t.Root = level[0]
	t.Leafs = leafs
	t.MerkleRoot = level[0].Hash

	return nil
}

// buildLevel pairs adjacent nodes and hashes their concatenation to produce
// the parent level.
func (t *Tree[T]) buildLevel(nodes []*Node[T]) ([]*Node[T], error) {
	parents := make([]*Node[T], 0, (len(nodes)+1)/2)

	for i := 0; i < len(nodes); i += 2 {
		left, right := nodes[i], nodes[i]
		if i+1 < len(nodes) {
			right = nodes[i+1]
		}

		h, err := t.sum(left.Hash, right.Hash)
		if err != nil {
			return nil, err
		}

		parent := Node[T]{Tree: t, Left: left, Right: right, Hash: h}
		left.Parent = &parent
		right.Parent = &parent

		parents = append(parents, &parent)
	}

	return parents, nil
}

// sum hashes the concatenation of the left and right hashes.
func (t *Tree[T]) sum(left []byte, right []byte) ([]byte, error) {
	h := t.hashStrategy()

	data := make([]byte, 0, len(left)+len(right))
	data = append(data, left...)
	data = append(data, right...)

	if _, err := h.Write(data); err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}

// Proof returns the set of hashes and the order of concatenating those
// hashes for proving a value is in the tree. An order of 0 means the proof
// hash is concatenated first, 1 means it's concatenated second.
func (t *Tree[T]) Proof(data T) ([][]byte, []int64, error) {
	for _, node := range t.Leafs {
		if !node.Value.Equals(data) {
			continue
		}

		var proof [][]byte
		var order []int64

		for parent := node.Parent; parent != nil; node, parent = parent, parent.Parent {
			if parent.Left == node {
				proof = append(proof, parent.Right.Hash)
				order = append(order, 1)
				continue
			}
			proof = append(proof, parent.Left.Hash)
			order = append(order, 0)
		}

		return proof, order, nil
	}

	return nil, nil, errors.New("unable to find data in tree")
}

// VerifyProof folds the proof hashes into the leaf hash in the specified
// order and checks the result is the root. No tree is needed, so a holder
// of only the root can check a proof produced by Proof.
func VerifyProof(leaf []byte, proof [][]byte, order []int64, root []byte) error {
	if len(proof) != len(order) {
		return errors.New("proof and order lengths differ")
	}

	h := leaf
	for i := range proof {
		sum := DefaultHashStrategy()

		switch order[i] {
		case 0:
			sum.Write(proof[i])
			sum.Write(h)
		case 1:
			sum.Write(h)
			sum.Write(proof[i])
		default:
			return fmt.Errorf("invalid proof order %d", order[i])
		}

		h = sum.Sum(nil)
	}

	if !bytes.Equal(h, root) {
		return errors.New("proof does not produce the merkle root")
	}

	return nil
}

// Verify recalculates every level of the tree from the leaf values and
// checks the result matches the stored merkle root.
func (t *Tree[T]) Verify() error {
	calculated, err := t.Root.verify()
	if err != nil {
		return err
	}

	if !bytes.Equal(t.MerkleRoot, calculated) {
		return errors.New("root hash invalid")
	}

	return nil
}

// VerifyData checks the critical path from the value's leaf to the root.
func (t *Tree[T]) VerifyData(data T) error {
	for _, node := range t.Leafs {
		if !node.Value.Equals(data) {
			continue
		}

		for parent := node.Parent; parent != nil; parent = parent.Parent {
			h, err := t.sum(parent.Left.Hash, parent.Right.Hash)
			if err != nil {
				return err
			}

			if !bytes.Equal(h, parent.Hash) {
				return errors.New("merkle root is not equivalent to the merkle root calculated on the critical path")
			}
		}

		return nil
	}

	return errors.New("unable to find data in tree")
}

// Values returns the values stored in the tree in their original order,
// without the duplicate used to even out the leaf level.
func (t *Tree[T]) Values() []T {
	values := make([]T, 0, len(t.Leafs))
	for _, node := range t.Leafs {
		if node.dup {
			continue
		}
		values = append(values, node.Value)
	}

	return values
}

// RootHex converts the merkle root byte hash to a lowercase hex string.
func (t *Tree[T]) RootHex() string {
	return hex.EncodeToString(t.MerkleRoot)
}

// String returns a string representation of the tree. Only leaf nodes are
// included in the output.
func (t *Tree[T]) String() string {
	var b bytes.Buffer
	for _, l := range t.Leafs {
		fmt.Fprintln(&b, l)
	}

	return b.String()
}

// MarshalText implements the TextMarshaler interface and produces a panic
// if anyone tries to marshal the tree. Use Values to marshal the data.
func (t *Tree[T]) MarshalText() (text []byte, err error) {
	panic("do not marshal the merkle tree, use Values")
}

// =============================================================================

// Node represents a node, root, or leaf in the tree.
type Node[T Hashable[T]] struct {
	Tree   *Tree[T]
	Parent *Node[T]
	Left   *Node[T]
	Right  *Node[T]
	Hash   []byte
	Value  T
	leaf   bool
	dup    bool
}

// verify walks down to the leafs, recalculating the hash at each level.
func (n *Node[T]) verify() ([]byte, error) {
	if n.leaf {
		return n.Value.Hash()
	}

	left, err := n.Left.verify()
	if err != nil {
		return nil, err
	}

	right, err := n.Right.verify()
	if err != nil {
		return nil, err
	}

	return n.Tree.sum(left, right)
}

// String returns a string representation of the node.
func (n *Node[T]) String() string {
	return fmt.Sprintf("%t %t %x %v", n.leaf, n.dup, n.Hash, n.Value)
}
