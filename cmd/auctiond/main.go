package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nftauction/config"
	"nftauction/core/state"
	"nftauction/native/auction"
	"nftauction/native/gate"
	"nftauction/native/gateway"
	"nftauction/native/oracle"
	"nftauction/native/upgrade"
	"nftauction/observability/logging"
	"nftauction/rpc"
	"nftauction/storage"
)

func main() {
	configPath := flag.String("config", "auctiond.toml", "path to the daemon configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup("auctiond", cfg.Env)

	admin, err := cfg.Admin()
	if err != nil {
		fatal(logger, "decode admin address", err)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		fatal(logger, "open database", err)
	}
	defer db.Close()

	manager := state.NewManager(db)
	tokens := gateway.NewMemoryTokenLedger()
	nfts := gateway.NewMemoryNFTLedger()
	gw := gateway.New(manager, tokens, nfts, auction.CustodyAddress)
	g := gate.New(manager)

	engine := auction.NewEngine()
	engine.SetState(manager)
	engine.SetGateway(gw)
	engine.SetMinDuration(cfg.MinDurationSeconds)

	proxy := upgrade.NewProxy(manager, g)
	initialized, err := manager.Initialized()
	if err != nil {
		fatal(logger, "read init flag", err)
	}
	if initialized {
		if err := proxy.Attach(engine); err != nil {
			fatal(logger, "attach logic", err)
		}
		logger.Info("attached logic to existing store", "version", proxy.Version())
	} else {
		if err := proxy.Initialize(admin.Array(), engine); err != nil {
			fatal(logger, "initialize store", err)
		}
		logger.Info("initialized fresh store", "admin", admin.String(), "version", proxy.Version())
	}

	feeds := oracle.NewRegistry(manager)
	if err := registerFeeds(cfg, feeds, g, admin.Array()); err != nil {
		fatal(logger, "configure price feeds", err)
	}

	server := rpc.NewServer(proxy, feeds, g, logger)
	mux := http.NewServeMux()
	mux.Handle("/", server.Handler())
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info("starting JSON-RPC server", "addr", cfg.RPCAddress)
	if err := http.ListenAndServe(cfg.RPCAddress, mux); err != nil {
		fatal(logger, "serve rpc", err)
	}
}

// registerFeeds registers the configured feed implementations and binds any
// asset that has no persisted binding yet. Existing bindings are left alone
// so admin overrides survive restarts.
func registerFeeds(cfg *config.Config, feeds *oracle.Registry, g *gate.Gate, admin [20]byte) error {
	for _, fc := range cfg.PriceFeeds {
		var impl oracle.PriceFeed
		switch strings.ToLower(strings.TrimSpace(fc.Kind)) {
		case "manual":
			manual := oracle.NewManualFeed(fc.Decimals)
			if strings.TrimSpace(fc.Price) != "" {
				price, ok := new(big.Int).SetString(strings.TrimSpace(fc.Price), 10)
				if !ok {
					return fmt.Errorf("feed %q: invalid price %q", fc.Name, fc.Price)
				}
				if err := manual.SetPrice(price); err != nil {
					return fmt.Errorf("feed %q: %w", fc.Name, err)
				}
			}
			impl = manual
		case "http":
			impl = oracle.NewHTTPFeed(nil, fc.Endpoint, os.Getenv("AUCTION_FEED_API_KEY"))
		default:
			return fmt.Errorf("feed %q: unknown kind %q", fc.Name, fc.Kind)
		}
		feeds.Register(fc.Name, impl)

		asset, err := config.ParseAsset(fc.Asset)
		if err != nil {
			return err
		}
		_, bound, err := feeds.Feed(asset)
		if err != nil {
			return err
		}
		if bound {
			continue
		}
		cap, err := g.Authorize(admin)
		if err != nil {
			return err
		}
		if err := feeds.SetFeed(cap, asset, fc.Name); err != nil {
			return err
		}
	}
	return nil
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
