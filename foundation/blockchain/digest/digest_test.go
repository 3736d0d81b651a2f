package digest_test

import (
	"testing"

	"github.com/treeledger/blockchain/foundation/blockchain/digest"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestHash(t *testing.T) {
	type table struct {
		name  string
		input string
		hash  string
	}

	tt := []table{
		{
			name:  "empty",
			input: "",
			hash:  "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:  "abc",
			input: "abc",
			hash:  "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
	}

	t.Log("Given the need to hash content.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen hashing %q.", testID, tst.input)
				{
					got := digest.String(tst.input)
					if got != tst.hash {
						t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, got)
						t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.hash)
						t.Fatalf("\t%s\tTest %d:\tShould get the expected hash.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get the expected hash.", success, testID)

					if digest.Hash([]byte(tst.input)) != got {
						t.Fatalf("\t%s\tTest %d:\tShould get the same hash for bytes and string.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get the same hash for bytes and string.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func TestConcat(t *testing.T) {
	t.Log("Given the need to hash concatenated content.")
	{
		t.Logf("\tTest 0:\tWhen hashing parts.")
		{
			if digest.Concat("ab", "", "c") != digest.String("abc") {
				t.Fatalf("\t%s\tTest 0:\tShould match hashing the joined string.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould match hashing the joined string.", success)
		}
	}
}
