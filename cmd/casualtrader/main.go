package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/sacahan/casualtrader/internal/agent"
	"github.com/sacahan/casualtrader/internal/agent/coordinator"
	"github.com/sacahan/casualtrader/internal/api"
	"github.com/sacahan/casualtrader/internal/logger"
	"github.com/sacahan/casualtrader/internal/market"
	"github.com/sacahan/casualtrader/internal/notify"
	"github.com/sacahan/casualtrader/internal/session"
	"github.com/sacahan/casualtrader/internal/store"
	"github.com/sacahan/casualtrader/internal/trade"
	"github.com/sacahan/casualtrader/internal/trade/fee"
	"github.com/sacahan/casualtrader/pkg/config"
)

const shutdownTimeout = 30 * time.Second

// serveAction wires the full service together and runs it until interrupted.
func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	log, err := logger.NewLoggerWithLevel(logger.ParseLevel(cfg.Logging.Level))
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath = ":memory:"
	}

	st, err := store.NewStore(dbPath, log.Named("store"))
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Initialize(); err != nil {
		return err
	}

	provider, err := market.NewProvider(market.ProviderConfig{
		Type:          cfg.Market.Provider,
		PolygonAPIKey: cfg.Market.PolygonAPIKey,
		BaseURL:       cfg.Market.BaseURL,
	}, log.Named("market"))
	if err != nil {
		return err
	}

	executor := trade.NewExecutor(st, provider, fee.GetFeeSchedule(cfg.Trading.Broker), log.Named("trade"))
	provisioner := agent.NewProvisioner(st, provider, executor, log.Named("provision"))
	recorder := session.NewRecorder(st, log.Named("session"))
	bus := notify.NewBus(cfg.Trading.EventBufferSize, log.Named("notify"))
	defer bus.Close()

	engine := agent.NewScriptedEngine(cfg.Trading.Watchlist, nil)

	coord := coordinator.New(st, provisioner, engine, recorder, bus,
		cfg.Trading.RunTimeout, log.Named("coordinator"))

	broadcaster := notify.NewWSBroadcaster(bus, log.Named("ws"))
	server := api.NewServer(coord, recorder, st, broadcaster, log.Named("api"))

	if err := server.Start(cfg.Server.Address); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	coord.Shutdown(shutdownCtx)

	return server.Shutdown(shutdownCtx)
}

func main() {
	cmd := &cli.Command{
		Name:  "casualtrader",
		Usage: "AI stock trading simulation service",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the trading simulation API server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to the YAML configuration file",
					},
				},
				Action: serveAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
