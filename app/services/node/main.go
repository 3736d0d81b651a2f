package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/treeledger/blockchain/app/services/node/handlers"
	"github.com/treeledger/blockchain/foundation/blockchain/database"
	"github.com/treeledger/blockchain/foundation/blockchain/genesis"
	"github.com/treeledger/blockchain/foundation/blockchain/peer"
	"github.com/treeledger/blockchain/foundation/blockchain/peer/gossip"
	"github.com/treeledger/blockchain/foundation/blockchain/peer/httpbus"
	"github.com/treeledger/blockchain/foundation/blockchain/state"
	"github.com/treeledger/blockchain/foundation/blockchain/worker"
	"github.com/treeledger/blockchain/foundation/events"
	"github.com/treeledger/blockchain/foundation/logger"
	"github.com/treeledger/blockchain/foundation/nameservice"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
			PrivateHost     string        `conf:"default:0.0.0.0:9080"`
		}
		State struct {
			NodeID       string        `conf:"help:defaults to a random uuid"`
			Blockchain   string        `conf:"default:treeledger"`
			GenesisPath  string        `conf:"help:json genesis file; empty uses the defaults"`
			Beneficiary  string        `conf:"default:miner1,help:identity credited with mined blocks; empty disables mining"`
			Transport    string        `conf:"default:http,help:http or gossip"`
			KnownPeers   []string      `conf:"default:0.0.0.0:9080;0.0.0.0:9180"`
			SyncInterval time.Duration `conf:"default:1m"`
		}
		Gossip struct {
			ListenAddr string   `conf:"default:/ip4/0.0.0.0/tcp/9280"`
			Bootstrap  []string `conf:"help:multiaddrs including the /p2p/ peer id"`
		}
		NameService struct {
			Folder string `conf:"default:zblock/accounts/"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "tree ledger node",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Name Service Support

	// The nameservice package provides name resolution for account addresses.
	// The names come from the file names in the zblock/accounts folder.
	ns, err := nameservice.New(cfg.NameService.Folder)
	if err != nil {
		return fmt.Errorf("unable to load account name service: %w", err)
	}

	// Logging the accounts for documentation in the logs.
	for account, name := range ns.Copy() {
		log.Infow("startup", "status", "nameservice", "name", name, "account", account)
	}

	// =========================================================================
	// Blockchain Support

	gen := genesis.Default(cfg.State.Blockchain)
	if cfg.State.GenesisPath != "" {
		if gen, err = genesis.Load(cfg.State.GenesisPath); err != nil {
			return fmt.Errorf("unable to load genesis: %w", err)
		}
	}

	// The beneficiary identity gets credited with the subsidy and fees of
	// the blocks this node mines. It is created on first start.
	beneficiary, err := beneficiaryAccount(ns, cfg.State.Beneficiary)
	if err != nil {
		return err
	}

	// A peer set is a collection of known nodes in the network so transactions
	// and blocks can be shared.
	peerSet := peer.NewPeerSet()
	for _, host := range cfg.State.KnownPeers {
		peerSet.Add(peer.New(host))
	}

	// The blockchain packages accept a function of this signature to allow the
	// application to log. For now, these raw messages are sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The transport carries the peer messages. The HTTP bus posts to the
	// private API of the known peers, gossip joins a libp2p pubsub topic.
	var transport peer.Transport
	var bus *httpbus.Bus
	switch cfg.State.Transport {
	case "http":
		bus = httpbus.New(cfg.Web.PrivateHost, peerSet, ev)
		transport = bus

	case "gossip":
		node, err := gossip.New(ctx, gossip.Config{
			ListenAddr: cfg.Gossip.ListenAddr,
			Blockchain: gen.Name,
			Bootstrap:  cfg.Gossip.Bootstrap,
			EvHandler:  ev,
		})
		if err != nil {
			return fmt.Errorf("unable to start gossip: %w", err)
		}
		defer node.Close()

		for _, addr := range node.Addrs() {
			log.Infow("startup", "status", "gossip listening", "addr", addr)
		}
		transport = node

	default:
		return fmt.Errorf("unknown transport %q", cfg.State.Transport)
	}

	// The state value represents the blockchain node and manages the block
	// tree and provides an API for application support.
	var st *state.State
	st, err = state.New(state.Config{
		NodeID:      cfg.State.NodeID,
		Genesis:     gen,
		Beneficiary: beneficiary,
		Publisher:   transport,
		OnChange: func() {
			head := st.MaxHeightBlock()
			evts.Send(fmt.Sprintf("viewer: head: %s: height[%d]", head.Hash(), head.Header.Height))
		},
		EvHandler: ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	transport.Subscribe(st.HandleMessage)

	// The worker package implements mining and the periodic catch up with
	// the peers. The worker will register itself with the state.
	worker.Run(st, cfg.State.SyncInterval, ev)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, st)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		NS:       ns,
		Evts:     evts,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Start Private Service

	log.Infow("startup", "status", "initializing V1 private API support")

	// Construct the mux for the private API calls.
	privateMux := handlers.PrivateMux(handlers.MuxConfig{
		Shutdown:   shutdown,
		Log:        log,
		State:      st,
		KnownPeers: peerSet,
		Host:       cfg.Web.PrivateHost,
		Bus:        bus,
	})

	// Construct a server to service the requests against the mux.
	private := http.Server{
		Addr:         cfg.Web.PrivateHost,
		Handler:      privateMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "private api router started", "host", private.Addr)
		serverErrors <- private.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Write the chain this node ends up with to the logs.
		st.LogChain()

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancelPri := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPri()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown private API started")
		if err := private.Shutdown(ctx); err != nil {
			private.Close()
			return fmt.Errorf("could not stop private service gracefully: %w", err)
		}

		// Give outstanding requests a deadline for completion.
		ctx, cancelPub := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPub()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}

// beneficiaryAccount resolves the identity credited by mining, generating
// its key pair when the name service doesn't hold it yet. An empty name
// means the node doesn't mine.
func beneficiaryAccount(ns *nameservice.NameService, name string) (database.AccountID, error) {
	if name == "" {
		return "", nil
	}

	for _, id := range ns.Identities() {
		if id.Name == name {
			return id.Account, nil
		}
	}

	id, err := ns.Generate(name)
	if err != nil {
		return "", fmt.Errorf("unable to create beneficiary identity: %w", err)
	}

	return id.Account, nil
}
