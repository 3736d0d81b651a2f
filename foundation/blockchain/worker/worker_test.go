package worker_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/treeledger/blockchain/foundation/blockchain/database"
	"github.com/treeledger/blockchain/foundation/blockchain/genesis"
	"github.com/treeledger/blockchain/foundation/blockchain/peer"
	"github.com/treeledger/blockchain/foundation/blockchain/state"
	"github.com/treeledger/blockchain/foundation/blockchain/worker"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const minerKey = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"

func Test_MineAndSync(t *testing.T) {
	t.Log("Given the need to mine and sync in the background.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen mining is signaled.", testID)
		{
			pk, err := crypto.HexToECDSA(minerKey)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to load the key: %v", failed, testID, err)
			}

			ev := func(v string, args ...any) {}
			bus := peer.NewLocalBus()

			minerEndpoint := bus.Join("miner")
			miner, err := state.New(state.Config{
				NodeID:      "miner",
				Genesis:     genesis.Default("ledger"),
				Beneficiary: database.PublicKeyToAccountID(pk.PublicKey),
				Publisher:   minerEndpoint,
				EvHandler:   ev,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct the miner: %v", failed, testID, err)
			}
			minerEndpoint.Subscribe(miner.HandleMessage)

			w := worker.Run(miner, time.Hour, ev)
			defer miner.Shutdown()

			w.SignalStartMining()

			deadline := time.Now().Add(30 * time.Second)
			for miner.MaxHeightBlock().Header.Height < 2 {
				if time.Now().After(deadline) {
					t.Fatalf("\t%s\tTest %d:\tShould mine a block.", failed, testID)
				}
				time.Sleep(10 * time.Millisecond)
			}
			t.Logf("\t%s\tTest %d:\tShould mine a block.", success, testID)

			observerEndpoint := bus.Join("observer")
			observer, err := state.New(state.Config{
				NodeID:    "observer",
				Genesis:   genesis.Default("ledger"),
				Publisher: observerEndpoint,
				EvHandler: ev,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct the observer: %v", failed, testID, err)
			}
			observerEndpoint.Subscribe(observer.HandleMessage)

			ow := worker.Run(observer, time.Hour, ev)
			defer ow.Shutdown()

			if observer.MaxHeightBlock().Header.Height < 2 {
				t.Fatalf("\t%s\tTest %d:\tShould sync the mined blocks on start.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould sync the mined blocks on start.", success, testID)
		}
	}
}
