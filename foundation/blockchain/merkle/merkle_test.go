package merkle_test

import (
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/merkle"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// Data hashes its value with sha256 so expected roots can be computed
// outside of Go.
type Data struct {
	x string
}

// Hash implements the merkle Hashable interface.
func (d Data) Hash() ([]byte, error) {
	h := sha256.Sum256([]byte(d.x))
	return h[:], nil
}

// Equals implements the merkle Hashable interface.
func (d Data) Equals(other Data) bool {
	return d.x == other.x
}

func values(xs ...string) []Data {
	data := make([]Data, len(xs))
	for i, x := range xs {
		data[i] = Data{x: x}
	}
	return data
}

// =============================================================================

func Test_Root(t *testing.T) {
	type table struct {
		name string
		data []Data
		root string
	}

	tt := []table{
		{
			name: "one",
			data: values("a"),
			root: "251a262291b87cb3c93a6ed71865da1f2c090c3d0196661a8f4a705b65836f71",
		},
		{
			name: "odd",
			data: values("a", "b", "c"),
			root: "d31a37ef6ac14a2db1470c4316beb5592e6afd4465022339adafda76a18ffabe",
		},
	}

	t.Log("Given the need to build a merkle root over ordered values.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling %d values.", testID, len(tst.data))
				{
					tree, err := merkle.NewTree(tst.data, merkle.WithHashStrategy[Data](sha256.New))
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to build the tree: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to build the tree.", success, testID)

					if tree.RootHex() != tst.root {
						t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, tree.RootHex())
						t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.root)
						t.Fatalf("\t%s\tTest %d:\tShould get the expected root.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get the expected root.", success, testID)

					if got := tree.Values(); len(got) != len(tst.data) {
						t.Fatalf("\t%s\tTest %d:\tShould get back %d values, got %d.", failed, testID, len(tst.data), len(got))
					}
					t.Logf("\t%s\tTest %d:\tShould get back the original values.", success, testID)

					if err := tree.Verify(); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould verify the tree: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould verify the tree.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Order(t *testing.T) {
	t.Log("Given the need for the root to commit to the order of values.")
	{
		first, err := merkle.NewTree(values("a", "b", "c", "d"))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the tree: %v", failed, err)
		}

		again, err := merkle.NewTree(values("a", "b", "c", "d"))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the tree: %v", failed, err)
		}

		if first.RootHex() != again.RootHex() {
			t.Fatalf("\t%s\tShould get the same root for the same values.", failed)
		}
		t.Logf("\t%s\tShould get the same root for the same values.", success)

		swapped, err := merkle.NewTree(values("b", "a", "c", "d"))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the tree: %v", failed, err)
		}

		if first.RootHex() == swapped.RootHex() {
			t.Fatalf("\t%s\tShould get a different root when the order changes.", failed)
		}
		t.Logf("\t%s\tShould get a different root when the order changes.", success)
	}
}

func Test_Proof(t *testing.T) {
	t.Log("Given the need to prove a value is part of the tree.")
	{
		data := values("a", "b", "c", "d", "e")

		tree, err := merkle.NewTree(data)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the tree: %v", failed, err)
		}

		for _, d := range data {
			proof, order, err := tree.Proof(d)
			if err != nil {
				t.Fatalf("\t%s\tShould get a proof for %q: %v", failed, d.x, err)
			}

			h, _ := d.Hash()
			for i := range proof {
				sum := merkle.DefaultHashStrategy()
				if order[i] == 0 {
					sum.Write(append(append([]byte{}, proof[i]...), h...))
				} else {
					sum.Write(append(append([]byte{}, h...), proof[i]...))
				}
				h = sum.Sum(nil)
			}

			if string(h) != string(tree.MerkleRoot) {
				t.Fatalf("\t%s\tShould rebuild the root from the proof for %q.", failed, d.x)
			}

			leaf, _ := d.Hash()
			if err := merkle.VerifyProof(leaf, proof, order, tree.MerkleRoot); err != nil {
				t.Fatalf("\t%s\tShould verify the proof for %q: %v", failed, d.x, err)
			}

			other, _ := Data{x: "z"}.Hash()
			if err := merkle.VerifyProof(other, proof, order, tree.MerkleRoot); err == nil {
				t.Fatalf("\t%s\tShould not verify the proof for %q against other data.", failed, d.x)
			}

			if err := tree.VerifyData(d); err != nil {
				t.Fatalf("\t%s\tShould verify the data for %q: %v", failed, d.x, err)
			}
		}
		t.Logf("\t%s\tShould rebuild the root from every proof.", success)

		if _, _, err := tree.Proof(Data{x: "z"}); err == nil {
			t.Fatalf("\t%s\tShould not get a proof for unknown data.", failed)
		}
		t.Logf("\t%s\tShould not get a proof for unknown data.", success)
	}
}

func Test_Tamper(t *testing.T) {
	t.Log("Given the need to detect a modified tree.")
	{
		tree, err := merkle.NewTree(values("a", "b", "c"))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the tree: %v", failed, err)
		}

		tree.MerkleRoot = []byte{1}
		if err := tree.Verify(); err == nil {
			t.Fatalf("\t%s\tShould fail to verify a modified root.", failed)
		}
		t.Logf("\t%s\tShould fail to verify a modified root.", success)

		if _, err := merkle.NewTree[Data](nil); !errors.Is(err, merkle.ErrNoContent) {
			t.Fatalf("\t%s\tShould fail to build a tree without values: %v", failed, err)
		}
		t.Logf("\t%s\tShould fail to build a tree without values.", success)
	}
}
