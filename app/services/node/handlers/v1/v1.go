// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/treeledger/blockchain/app/services/node/handlers/v1/private"
	"github.com/treeledger/blockchain/app/services/node/handlers/v1/public"
	"github.com/treeledger/blockchain/foundation/blockchain/peer"
	"github.com/treeledger/blockchain/foundation/blockchain/peer/httpbus"
	"github.com/treeledger/blockchain/foundation/blockchain/state"
	"github.com/treeledger/blockchain/foundation/events"
	"github.com/treeledger/blockchain/foundation/nameservice"
	"github.com/treeledger/blockchain/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log        *zap.SugaredLogger
	State      *state.State
	NS         *nameservice.NameService
	Evts       *events.Events
	KnownPeers *peer.PeerSet
	Host       string
	Bus        *httpbus.Bus
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/chain", pbl.Chain)
	app.Handle(http.MethodGet, version, "/chain/validate", pbl.ValidateChain)
	app.Handle(http.MethodGet, version, "/blocks/list", pbl.Blocks)
	app.Handle(http.MethodGet, version, "/blocks/:hash", pbl.Block)
	app.Handle(http.MethodGet, version, "/balances/list", pbl.Balances)
	app.Handle(http.MethodGet, version, "/balances/block/:hash", pbl.Balances)
	app.Handle(http.MethodGet, version, "/balances/account/:account", pbl.Balance)
	app.Handle(http.MethodGet, version, "/tx/pending/list", pbl.Pending)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitTransaction)
	app.Handle(http.MethodPost, version, "/tx/check", pbl.CheckTransaction)
	app.Handle(http.MethodPost, version, "/tx/send", pbl.SendTransaction)
	app.Handle(http.MethodGet, version, "/tx/proof/:block/:tx", pbl.TransactionProof)
	app.Handle(http.MethodGet, version, "/mining/signal", pbl.SignalMining)
	app.Handle(http.MethodGet, version, "/identities/list", pbl.Identities)
	app.Handle(http.MethodPost, version, "/identities", pbl.GenerateIdentity)
	app.Handle(http.MethodPut, version, "/identities/:account", pbl.RenameIdentity)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:        cfg.Log,
		State:      cfg.State,
		KnownPeers: cfg.KnownPeers,
		Host:       cfg.Host,
		Bus:        cfg.Bus,
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodGet, version, "/node/block/list", prv.Blocks)

	// Peers only post messages when the node runs the HTTP transport.
	if cfg.Bus != nil {
		app.Handle(http.MethodPost, "", httpbus.MessagePath, prv.Message)
	}
}
