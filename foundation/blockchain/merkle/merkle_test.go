package merkle_test

import (
	"fmt"
	"testing"

	"github.com/treeledger/blockchain/foundation/blockchain/digest"
	"github.com/treeledger/blockchain/foundation/blockchain/merkle"
)

const (
	success = "\u2713"
	failed  = "\u2717"
)

func leaves(n int) []string {
	hashes := make([]string, n)
	for i := range hashes {
		hashes[i] = digest.String(fmt.Sprintf("tx-%d", i))
	}
	return hashes
}

func Test_Proof(t *testing.T) {
	t.Log("Given the need to prove a transaction is in a block.")
	{
		for _, n := range []int{1, 2, 3, 4, 5, 8, 11} {
			f := func(t *testing.T) {
				hashes := leaves(n)

				tree, err := merkle.New(hashes)
				if err != nil {
					t.Fatalf("\t%s\tShould be able to build a tree of %d leaves: %v", failed, n, err)
				}

				for _, hash := range hashes {
					proof, err := tree.Proof(hash)
					if err != nil {
						t.Fatalf("\t%s\tShould get a proof for %s: %v", failed, hash, err)
					}

					if !merkle.Verify(tree.Root(), hash, proof) {
						t.Fatalf("\t%s\tShould verify the proof for %s.", failed, hash)
					}

					if merkle.Verify(tree.Root(), digest.String("forged"), proof) {
						t.Fatalf("\t%s\tShould not verify a forged leaf with the proof of %s.", failed, hash)
					}
				}
				t.Logf("\t%s\tShould verify every leaf of a tree of %d leaves.", success, n)
			}

			t.Run(fmt.Sprintf("leaves-%d", n), f)
		}
	}
}

func Test_Root(t *testing.T) {
	hashes := leaves(3)

	tree, err := merkle.New(hashes)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to build the tree: %v", failed, err)
	}

	left := digest.Concat(hashes[0], hashes[1])
	right := digest.Concat(hashes[2], hashes[2])
	if exp := digest.Concat(left, right); tree.Root() != exp {
		t.Fatalf("\t%s\tShould duplicate the odd leaf: got %s, exp %s", failed, tree.Root(), exp)
	}
	t.Logf("\t%s\tShould duplicate the odd leaf.", success)

	single, _ := merkle.New(hashes[:1])
	if single.Root() != hashes[0] {
		t.Fatalf("\t%s\tShould use the only leaf as the root.", failed)
	}
	t.Logf("\t%s\tShould use the only leaf as the root.", success)

	if _, err := merkle.New(nil); err == nil {
		t.Fatalf("\t%s\tShould not build an empty tree.", failed)
	}
	t.Logf("\t%s\tShould not build an empty tree.", success)

	if _, err := tree.Proof(digest.String("missing")); err == nil {
		t.Fatalf("\t%s\tShould not prove a missing transaction.", failed)
	}
	t.Logf("\t%s\tShould not prove a missing transaction.", success)
}
