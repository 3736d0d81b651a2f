// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"net/http"

	"github.com/treeledger/blockchain/business/web/errs"
	"github.com/treeledger/blockchain/foundation/blockchain/database"
	"github.com/treeledger/blockchain/foundation/blockchain/peer"
	"github.com/treeledger/blockchain/foundation/blockchain/peer/httpbus"
	"github.com/treeledger/blockchain/foundation/blockchain/state"
	"github.com/treeledger/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log        *zap.SugaredLogger
	State      *state.State
	KnownPeers *peer.PeerSet
	Host       string
	Bus        *httpbus.Bus
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	status := h.State.Status(h.KnownPeers.Copy(h.Host))
	return web.Respond(ctx, w, status, http.StatusOK)
}

// Blocks returns every known block in wire form, in the order the blocks
// were added.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks := h.State.RetrieveBlocks()

	data := make([]database.BlockData, len(blocks))
	for i, block := range blocks {
		data[i] = database.NewBlockData(block)
	}

	return web.Respond(ctx, w, data, http.StatusOK)
}

// Message takes a peer message posted by another node and hands it to the
// subscribers of the HTTP transport.
func (h Handlers) Message(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var msg peer.Message
	if err := web.Decode(r, &msg); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := msg.Validate(); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("peer message", "traceid", v.TraceID, "kind", msg.Kind, "from", msg.From, "blocks", len(msg.Blocks))

	h.Bus.Deliver(ctx, msg)

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "delivered",
	}

	return web.Respond(ctx, w, resp, http.StatusAccepted)
}
