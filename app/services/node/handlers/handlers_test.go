package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/treeledger/blockchain/app/services/node/handlers"
	"github.com/treeledger/blockchain/foundation/blockchain/genesis"
	"github.com/treeledger/blockchain/foundation/blockchain/peer"
	"github.com/treeledger/blockchain/foundation/blockchain/peer/httpbus"
	"github.com/treeledger/blockchain/foundation/blockchain/state"
	"github.com/treeledger/blockchain/foundation/events"
	"github.com/treeledger/blockchain/foundation/nameservice"
	"go.uber.org/zap"
)

const (
	success = "\u2713"
	failed  = "\u2717"
)

type node struct {
	st      *state.State
	ns      *nameservice.NameService
	public  http.Handler
	private http.Handler
}

func newNode(t *testing.T) node {
	ns, err := nameservice.New(t.TempDir())
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the name service: %v", failed, err)
	}

	st, err := state.New(state.Config{
		NodeID:  "node1",
		Genesis: genesis.Default("handlers"),
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	peers := peer.NewPeerSet()
	bus := httpbus.New("node1:9080", peers, nil)
	bus.Subscribe(st.HandleMessage)

	cfg := handlers.MuxConfig{
		Shutdown:   make(chan os.Signal, 1),
		Log:        zap.NewNop().Sugar(),
		State:      st,
		NS:         ns,
		Evts:       events.New(),
		KnownPeers: peers,
		Host:       "node1:9080",
		Bus:        bus,
	}

	return node{
		st:      st,
		ns:      ns,
		public:  handlers.PublicMux(cfg),
		private: handlers.PrivateMux(cfg),
	}
}

func call(t *testing.T, h http.Handler, method string, path string, body any, resp any) int {
	var b bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&b).Encode(body); err != nil {
			t.Fatalf("\t%s\tShould be able to encode the request: %v", failed, err)
		}
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, &b))

	if resp != nil && w.Body.Len() > 0 {
		if err := json.NewDecoder(w.Body).Decode(resp); err != nil {
			t.Fatalf("\t%s\tShould be able to decode the response of %s: %v", failed, path, err)
		}
	}

	return w.Code
}

func Test_PublicAPI(t *testing.T) {
	n := newNode(t)

	t.Log("Given the need to query the ledger over the public API.")
	{
		var chain []map[string]any
		if code := call(t, n.public, http.MethodGet, "/v1/chain", nil, &chain); code != http.StatusOK || len(chain) != 1 {
			t.Fatalf("\t%s\tShould get a chain with the genesis block: %d %v", failed, code, chain)
		}
		t.Logf("\t%s\tShould get a chain with the genesis block.", success)

		hash := n.st.MaxHeightBlock().Hash()

		var detail map[string]any
		if code := call(t, n.public, http.MethodGet, "/v1/blocks/"+hash, nil, &detail); code != http.StatusOK || detail["hash"] != hash {
			t.Fatalf("\t%s\tShould get the genesis block by hash: %d %v", failed, code, detail)
		}
		t.Logf("\t%s\tShould get the genesis block by hash.", success)

		if code := call(t, n.public, http.MethodGet, "/v1/blocks/nope", nil, nil); code != http.StatusNotFound {
			t.Fatalf("\t%s\tShould get a 404 for an unknown block: %d", failed, code)
		}
		t.Logf("\t%s\tShould get a 404 for an unknown block.", success)

		var valid struct {
			Valid bool `json:"valid"`
		}
		if code := call(t, n.public, http.MethodGet, "/v1/chain/validate", nil, &valid); code != http.StatusOK || !valid.Valid {
			t.Fatalf("\t%s\tShould validate the chain: %d %v", failed, code, valid)
		}
		t.Logf("\t%s\tShould validate the chain.", success)
	}

	t.Log("Given the need to manage identities and send transactions.")
	{
		var alice, bob nameservice.Identity
		if code := call(t, n.public, http.MethodPost, "/v1/identities", map[string]string{"name": "alice"}, &alice); code != http.StatusCreated {
			t.Fatalf("\t%s\tShould create alice: %d", failed, code)
		}
		if code := call(t, n.public, http.MethodPost, "/v1/identities", map[string]string{"name": "bob"}, &bob); code != http.StatusCreated {
			t.Fatalf("\t%s\tShould create bob: %d", failed, code)
		}
		t.Logf("\t%s\tShould create identities.", success)

		if code := call(t, n.public, http.MethodPost, "/v1/identities", map[string]string{"name": "alice"}, nil); code != http.StatusConflict {
			t.Fatalf("\t%s\tShould not create alice twice: %d", failed, code)
		}
		t.Logf("\t%s\tShould not create alice twice.", success)

		var renamed nameservice.Identity
		if code := call(t, n.public, http.MethodPut, "/v1/identities/"+string(bob.Account), map[string]string{"name": "robert"}, &renamed); code != http.StatusOK || renamed.Name != "robert" {
			t.Fatalf("\t%s\tShould rename bob: %d %v", failed, code, renamed)
		}
		t.Logf("\t%s\tShould rename bob.", success)

		send := map[string]string{
			"from":   string(alice.Account),
			"to":     string(bob.Account),
			"amount": "1.5",
			"fee":    "0.1",
		}

		var tx map[string]any
		if code := call(t, n.public, http.MethodPost, "/v1/tx/send", send, &tx); code != http.StatusOK {
			t.Fatalf("\t%s\tShould accept a signed transaction: %d %v", failed, code, tx)
		}
		t.Logf("\t%s\tShould accept a signed transaction.", success)

		var pending []map[string]any
		if code := call(t, n.public, http.MethodGet, "/v1/tx/pending/list", nil, &pending); code != http.StatusOK || len(pending) != 1 {
			t.Fatalf("\t%s\tShould list the pending transaction: %d %v", failed, code, pending)
		}
		t.Logf("\t%s\tShould list the pending transaction.", success)

		var check struct {
			Valid  bool   `json:"valid"`
			Reason string `json:"reason"`
		}
		if code := call(t, n.public, http.MethodPost, "/v1/tx/check", n.st.RetrievePending()[0], &check); code != http.StatusOK || check.Valid || check.Reason == "" {
			t.Fatalf("\t%s\tShould explain why alice can't cover it: %d %v", failed, code, check)
		}
		t.Logf("\t%s\tShould explain why alice can't cover it.", success)

		send["amount"] = "0"
		if code := call(t, n.public, http.MethodPost, "/v1/tx/send", send, nil); code != http.StatusBadRequest {
			t.Fatalf("\t%s\tShould reject a zero amount: %d", failed, code)
		}
		t.Logf("\t%s\tShould reject a zero amount.", success)
	}

	t.Log("Given a node without a beneficiary.")
	{
		if code := call(t, n.public, http.MethodGet, "/v1/mining/signal", nil, nil); code != http.StatusBadRequest {
			t.Fatalf("\t%s\tShould refuse to mine: %d", failed, code)
		}
		t.Logf("\t%s\tShould refuse to mine.", success)
	}
}

func Test_PrivateAPI(t *testing.T) {
	n := newNode(t)

	t.Log("Given the need to serve other nodes.")
	{
		var status peer.PeerStatus
		if code := call(t, n.private, http.MethodGet, "/v1/node/status", nil, &status); code != http.StatusOK {
			t.Fatalf("\t%s\tShould get the node status: %d", failed, code)
		}
		if status.NodeID != "node1" || status.Blocks != 1 || status.BlockchainName != "handlers" {
			t.Fatalf("\t%s\tShould describe the node: %+v", failed, status)
		}
		t.Logf("\t%s\tShould describe the node.", success)

		msg := peer.NewRequestBlocks("node2", "handlers")
		if code := call(t, n.private, http.MethodPost, httpbus.MessagePath, msg, nil); code != http.StatusAccepted {
			t.Fatalf("\t%s\tShould accept a peer message: %d", failed, code)
		}
		t.Logf("\t%s\tShould accept a peer message.", success)

		if code := call(t, n.private, http.MethodPost, httpbus.MessagePath, map[string]string{"kind": "NOPE"}, nil); code != http.StatusBadRequest {
			t.Fatalf("\t%s\tShould reject a malformed message: %d", failed, code)
		}
		t.Logf("\t%s\tShould reject a malformed message.", success)
	}
}
