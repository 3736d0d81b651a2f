// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/treeledger/blockchain/business/sys/validate"
	"github.com/treeledger/blockchain/business/web/errs"
	"github.com/treeledger/blockchain/foundation/blockchain/database"
	"github.com/treeledger/blockchain/foundation/blockchain/state"
	"github.com/treeledger/blockchain/foundation/events"
	"github.com/treeledger/blockchain/foundation/nameservice"
	"github.com/treeledger/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}

		case <-ctx.Done():
			return nil
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Genesis(), http.StatusOK)
}

// Chain returns the longest chain, root first.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toBlocks(h.NS, h.State.LongestChain()), http.StatusOK)
}

// ValidateChain reports whether every block of the longest chain is valid.
func (h Handlers) ValidateChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		Valid bool `json:"valid"`
	}{
		Valid: h.State.ValidateChain(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Blocks returns every known block, including the ones on forks, in the
// order they were added.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toBlocks(h.NS, h.State.RetrieveBlocks()), http.StatusOK)
}

// Block returns the details of a single block, including the balances at
// that block.
func (h Handlers) Block(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blk, err := h.State.QueryBlock(web.Param(r, "hash"))
	if err != nil {
		return err
	}

	detail := blockDetail{
		block:    toBlock(h.NS, blk),
		Balances: toBalances(h.NS, blk.UTXOPool().Values()),
	}

	return web.Respond(ctx, w, detail, http.StatusOK)
}

// Balances returns the balances at the max height block, or at the block
// named by the hash parameter.
func (h Handlers) Balances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blk := h.State.MaxHeightBlock()

	if hash := web.Param(r, "hash"); hash != "" {
		var err error
		if blk, err = h.State.QueryBlock(hash); err != nil {
			return err
		}
	}

	bals := balances{
		BlockHash: blk.Hash(),
		Height:    blk.Header.Height,
		Pending:   len(h.State.RetrievePending()),
		Balances:  toBalances(h.NS, blk.UTXOPool().Values()),
	}

	return web.Respond(ctx, w, bals, http.StatusOK)
}

// Balance returns the balance of a single account on the longest chain.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account, err := database.ToAccountID(web.Param(r, "account"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	bal := balance{
		Account: account,
		Name:    h.NS.Lookup(account),
		Balance: h.State.QueryBalance(account),
	}

	return web.Respond(ctx, w, bal, http.StatusOK)
}

// Pending returns the transactions waiting to be included in a block.
func (h Handlers) Pending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toTxs(h.NS, h.State.RetrievePending()), http.StatusOK)
}

// SubmitTransaction adds a signed transaction to the pending set and shares
// it with the peers.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tran database.Transaction
	if err := web.Decode(r, &tran); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit tran", "traceid", v.TraceID, "hash", tran.Hash, "input", tran.InputOwner, "output", tran.OutputOwner, "amount", tran.Amount, "fee", tran.Fee)

	if err := h.State.SubmitTransaction(ctx, tran); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
		Hash   string `json:"hash"`
	}{
		Status: "transaction added to pending",
		Hash:   tran.Hash,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// CheckTransaction reports whether the transaction could be included on top
// of the max height block, and why not.
func (h Handlers) CheckTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var tran database.Transaction
	if err := web.Decode(r, &tran); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := struct {
		Valid  bool   `json:"valid"`
		Reason string `json:"reason,omitempty"`
	}{
		Valid: true,
	}

	if err := h.State.CheckTransaction(tran); err != nil {
		resp.Valid = false
		resp.Reason = err.Error()
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SendTransaction signs a transaction with one of the node's identities and
// submits it.
func (h Handlers) SendTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req sendTx
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	from, err := database.ToAccountID(req.From)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	to, err := database.ToAccountID(req.To)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	fee := decimal.Zero
	if req.Fee != "" {
		if fee, err = decimal.NewFromString(req.Fee); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
	}

	privateKey, err := h.NS.PrivateKey(from)
	if err != nil {
		return err
	}

	tran, err := database.NewTransaction(from, to, amount, fee).Sign(privateKey)
	if err != nil {
		return err
	}

	if err := h.State.SubmitTransaction(ctx, tran); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, toTx(h.NS, tran), http.StatusOK)
}

// TransactionProof returns the merkle proof that a transaction was included
// in a block.
func (h Handlers) TransactionProof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	proof, err := h.State.ProveTransaction(web.Param(r, "block"), web.Param(r, "tx"))
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, proof, http.StatusOK)
}

// SignalMining asks the worker to start a mining operation.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.State.Beneficiary() == "" {
		return state.ErrNoBeneficiary
	}

	if h.State.Worker != nil {
		h.State.Worker.SignalStartMining()
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signaled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Identities returns the identities held by this node.
func (h Handlers) Identities(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.NS.Identities(), http.StatusOK)
}

// GenerateIdentity creates a new key pair under the requested name.
func (h Handlers) GenerateIdentity(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req newIdentity
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	id, err := h.NS.Generate(req.Name)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, id, http.StatusCreated)
}

// RenameIdentity changes the name of an existing identity.
func (h Handlers) RenameIdentity(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account, err := database.ToAccountID(web.Param(r, "account"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	var req newIdentity
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	id, err := h.NS.Rename(account, req.Name)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, id, http.StatusOK)
}
