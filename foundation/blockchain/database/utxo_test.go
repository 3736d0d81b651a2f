package database_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/treeledger/blockchain/foundation/blockchain/database"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	ownerA   database.AccountID = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
	ownerB   database.AccountID = "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"
	receiver database.AccountID = "0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// =============================================================================

func Test_HandleTransaction(t *testing.T) {
	type table struct {
		name   string
		amount string
		fee    string
		final  map[database.AccountID]string
		count  int
	}

	tt := []table{
		{
			name:   "partial",
			amount: "10",
			fee:    "1",
			final:  map[database.AccountID]string{ownerA: "1.5", ownerB: "10", receiver: "1"},
			count:  3,
		},
		{
			name:   "drained",
			amount: "12",
			fee:    "0.5",
			final:  map[database.AccountID]string{ownerA: "0", ownerB: "12", receiver: "0.5"},
			count:  2,
		},
	}

	t.Log("Given the need to apply transactions to a UTXO pool.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %s transaction.", testID, tst.name)
				{
					pool := database.NewUTXOPool()
					pool.AddUTXO(ownerA, database.BlockSubsidy)

					tx := database.NewTransaction(ownerA, ownerB, dec(tst.amount), dec(tst.fee))
					if !pool.IsValidTransaction(tx) {
						t.Fatalf("\t%s\tTest %d:\tShould be a valid transaction for the pool: %s", failed, testID, pool.AddingTransactionErrorMessage(tx))
					}
					t.Logf("\t%s\tTest %d:\tShould be a valid transaction for the pool.", success, testID)

					if err := pool.HandleTransaction(tx, receiver); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to handle the transaction: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to handle the transaction.", success, testID)

					for owner, exp := range tst.final {
						got := pool.Balance(owner)
						if !got.Equal(dec(exp)) {
							t.Errorf("\t%s\tTest %d:\tShould have the correct balance for %s.", failed, testID, owner)
							t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, got)
							t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, exp)
						} else {
							t.Logf("\t%s\tTest %d:\tShould have the correct balance for %s.", success, testID, owner)
						}
					}

					if pool.Count() != tst.count {
						t.Fatalf("\t%s\tTest %d:\tShould remove entries that reach zero: got %d, exp %d", failed, testID, pool.Count(), tst.count)
					}
					t.Logf("\t%s\tTest %d:\tShould remove entries that reach zero.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_InvalidTransaction(t *testing.T) {
	type table struct {
		name   string
		input  database.AccountID
		amount string
		fee    string
		msg    string
	}

	tt := []table{
		{
			name:   "no-utxo",
			input:  ownerB,
			amount: "1",
			fee:    "0",
			msg:    "No UTXO was associated with this public key",
		},
		{
			name:   "zero-amount",
			input:  ownerA,
			amount: "0",
			fee:    "1",
			msg:    "Amount has to be at least 0",
		},
		{
			name:   "insufficient",
			input:  ownerA,
			amount: "12",
			fee:    "1",
			msg:    "UTXO associated with this public key (12.5) does not cover desired amount (12) and fee (1)",
		},
		{
			name:   "negative-fee",
			input:  ownerA,
			amount: "12.5",
			fee:    "-20",
			msg:    "Fee can't be negative, got -20",
		},
	}

	t.Log("Given the need to reject transactions a pool can't cover.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %s transaction.", testID, tst.name)
				{
					pool := database.NewUTXOPool()
					pool.AddUTXO(ownerA, database.BlockSubsidy)

					tx := database.NewTransaction(tst.input, ownerB, dec(tst.amount), dec(tst.fee))
					if pool.IsValidTransaction(tx) {
						t.Fatalf("\t%s\tTest %d:\tShould be an invalid transaction for the pool.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be an invalid transaction for the pool.", success, testID)

					if msg := pool.AddingTransactionErrorMessage(tx); msg != tst.msg {
						t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, msg)
						t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.msg)
						t.Fatalf("\t%s\tTest %d:\tShould describe the problem.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould describe the problem.", success, testID)

					err := pool.HandleTransaction(tx, receiver)
					if !errors.Is(err, database.ErrInvalidTransaction) {
						t.Fatalf("\t%s\tTest %d:\tShould get an invalid transaction error: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get an invalid transaction error.", success, testID)

					if !pool.Balance(ownerA).Equal(database.BlockSubsidy) || pool.Count() != 1 {
						t.Fatalf("\t%s\tTest %d:\tShould leave the pool untouched.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould leave the pool untouched.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_CloneNoAliasing(t *testing.T) {
	t.Log("Given the need to derive pools without sharing balances.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen mutating a clone.", testID)
		{
			pool := database.NewUTXOPool()
			pool.AddUTXO(ownerA, database.BlockSubsidy)

			clone := pool.Clone()
			clone.AddUTXO(ownerA, dec("1"))
			clone.AddUTXO(ownerB, dec("5"))

			tx := database.NewTransaction(ownerA, ownerB, dec("13.5"), dec("0"))
			if err := clone.HandleTransaction(tx, receiver); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to spend from the clone: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to spend from the clone.", success, testID)

			if !pool.Balance(ownerA).Equal(database.BlockSubsidy) {
				t.Fatalf("\t%s\tTest %d:\tShould not change the original balance: got %s", failed, testID, pool.Balance(ownerA))
			}
			if pool.Count() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould not add entries to the original: got %d", failed, testID, pool.Count())
			}
			t.Logf("\t%s\tTest %d:\tShould not change the original.", success, testID)

			values := clone.Values()
			if len(values) != 1 || values[0].Owner != ownerB || !values[0].Amount.Equal(dec("18.5")) {
				t.Fatalf("\t%s\tTest %d:\tShould hold only the receiving owner: %v", failed, testID, values)
			}
			t.Logf("\t%s\tTest %d:\tShould hold only the receiving owner.", success, testID)
		}
	}
}

func Test_ZeroCredit(t *testing.T) {
	t.Log("Given the need to keep zero credits out of the pool.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen an absent owner is credited zero.", testID)
		{
			pool := database.NewUTXOPool()
			pool.AddUTXO(receiver, dec("0"))

			if pool.Count() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not create an entry: got %d", failed, testID, pool.Count())
			}
			t.Logf("\t%s\tTest %d:\tShould not create an entry.", success, testID)

			tx := database.NewTransaction(receiver, ownerB, dec("1"), dec("0"))
			if msg := pool.AddingTransactionErrorMessage(tx); msg != "No UTXO was associated with this public key" {
				t.Fatalf("\t%s\tTest %d:\tShould report the owner as having no UTXO: got %s", failed, testID, msg)
			}
			t.Logf("\t%s\tTest %d:\tShould report the owner as having no UTXO.", success, testID)
		}
	}
}
