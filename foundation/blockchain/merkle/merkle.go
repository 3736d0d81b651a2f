// Package merkle builds a merkle tree over the transaction hashes of a block
// so a client can prove a transaction was included without the whole block.
package merkle

import (
	"errors"

	"github.com/treeledger/blockchain/foundation/blockchain/digest"
)

// ErrNotFound is returned when a proof is asked for a hash that isn't a
// leaf of the tree.
var ErrNotFound = errors.New("transaction not in tree")

// Step is one sibling hash on the path from a leaf to the root.
type Step struct {
	Hash string `json:"hash"`
	Left bool   `json:"left"` // The sibling is concatenated first.
}

// Tree holds every level of the tree, leaves first. A level with an odd
// number of nodes has its last node duplicated.
type Tree struct {
	levels [][]string
}

// New constructs a tree from the leaf hashes in block order.
func New(hashes []string) (*Tree, error) {
	if len(hashes) == 0 {
		return nil, errors.New("cannot construct tree with no content")
	}

	level := make([]string, len(hashes))
	copy(level, hashes)

	levels := [][]string{level}
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
			levels[len(levels)-1] = level
		}

		next := make([]string, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, digest.Concat(level[i], level[i+1]))
		}

		levels = append(levels, next)
		level = next
	}

	return &Tree{levels: levels}, nil
}

// Root returns the merkle root.
func (t *Tree) Root() string {
	return t.levels[len(t.levels)-1][0]
}

// Proof returns the sibling hashes needed to rebuild the root from the
// specified leaf.
func (t *Tree) Proof(hash string) ([]Step, error) {
	idx := -1
	for i, leaf := range t.levels[0] {
		if leaf == hash {
			idx = i
			break
		}
	}

	if idx == -1 {
		return nil, ErrNotFound
	}

	proof := make([]Step, 0, len(t.levels)-1)
	for _, level := range t.levels[:len(t.levels)-1] {
		switch idx % 2 {
		case 0:
			proof = append(proof, Step{Hash: level[idx+1]})
		default:
			proof = append(proof, Step{Hash: level[idx-1], Left: true})
		}
		idx /= 2
	}

	return proof, nil
}

// Verify reports whether the proof rebuilds the root from the leaf hash.
func Verify(root string, hash string, proof []Step) bool {
	h := hash
	for _, step := range proof {
		switch step.Left {
		case true:
			h = digest.Concat(step.Hash, h)
		default:
			h = digest.Concat(h, step.Hash)
		}
	}

	return h == root
}
