package database_test

import (
	"encoding/json"
	"testing"

	"github.com/treeledger/blockchain/foundation/blockchain/database"
)

func Test_TransactionSignature(t *testing.T) {
	pkA, accountA := key(t, pkHexKeyA)
	_, accountB := key(t, pkHexKeyB)

	t.Log("Given the need to verify who signed a transaction.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen sending a signed transaction to a peer.", testID)
		{
			tx := signedTx(t, pkA, accountB, "3.25", "0.25")
			if !tx.HasValidSignature() {
				t.Fatalf("\t%s\tTest %d:\tShould have a valid signature.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould have a valid signature.", success, testID)

			if err := tx.Validate(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be well formed: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be well formed.", success, testID)

			data, err := json.Marshal(tx)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to marshal: %v", failed, testID, err)
			}

			var got database.Transaction
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal: %v", failed, testID, err)
			}

			if got.Hash != tx.Hash || got.Signature != tx.Signature || got.InputOwner != accountA || !got.HasValidSignature() {
				t.Fatalf("\t%s\tTest %d:\tShould keep the hash and signature: %s", failed, testID, data)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the hash and signature.", success, testID)

			got.Amount = dec("30")
			if got.HasValidSignature() {
				t.Fatalf("\t%s\tTest %d:\tShould reject a changed amount.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a changed amount.", success, testID)
		}
	}
}

func Test_TxSetOrder(t *testing.T) {
	pkA, _ := key(t, pkHexKeyA)
	_, accountB := key(t, pkHexKeyB)

	t.Log("Given the need to keep transaction order across peers.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen round tripping a set of transactions.", testID)
		{
			ts := database.NewTxSet()
			for _, amount := range []string{"5", "1", "3", "2"} {
				ts.Add(signedTx(t, pkA, accountB, amount, "0"))
			}

			data, err := json.Marshal(ts)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to marshal: %v", failed, testID, err)
			}

			got := database.NewTxSet()
			if err := json.Unmarshal(data, got); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal: %v", failed, testID, err)
			}

			exp := ts.Hashes()
			hashes := got.Hashes()
			if len(hashes) != len(exp) {
				t.Fatalf("\t%s\tTest %d:\tShould get %d transactions, got %d.", failed, testID, len(exp), len(hashes))
			}
			for i := range exp {
				if hashes[i] != exp[i] {
					t.Fatalf("\t%s\tTest %d:\tShould keep insertion order at %d.", failed, testID, i)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould keep insertion order.", success, testID)

			bad := []byte(`{"abc":` + string(mustJSON(t, got.Values()[0])) + `}`)
			if err := json.Unmarshal(bad, database.NewTxSet()); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject a key that is not the hash.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a key that is not the hash.", success, testID)
		}
	}
}

func mustJSON(t *testing.T, v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Should be able to marshal: %v", err)
	}

	return data
}
