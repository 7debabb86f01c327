package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lastpot/lastpot/internal/access"
	"github.com/lastpot/lastpot/internal/ledger"
	"github.com/lastpot/lastpot/internal/round"
	"github.com/lastpot/lastpot/internal/server"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"lastpotd.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"Listen address (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
}

func main() {
	kctx := kong.Parse(&CLI)

	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		kctx.Exit(1)
	}

	// Apply command line overrides
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		kctx.Exit(1)
	}

	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	addr := cfg.GetServerAddress()
	if CLI.Addr != "" {
		addr = CLI.Addr
	}

	if err := run(cfg, addr, logger); err != nil {
		logger.Error("daemon failed", "error", err)
		kctx.Exit(1)
	}
}

func run(cfg *server.Config, addr string, logger *log.Logger) error {
	clock := quartz.NewReal()

	// Built-in memory ledger seeded from config. A production host swaps
	// this for a gateway onto its real value ledger.
	mem := ledger.NewMemoryLedger(cfg.Game.Custody)
	for _, account := range cfg.Accounts {
		if account.Balance > 0 {
			if err := mem.Deposit(account.Name, account.Balance); err != nil {
				return fmt.Errorf("seed account %s: %w", account.Name, err)
			}
		}
		if account.Allowance > 0 {
			if err := mem.Approve(account.Name, account.Allowance); err != nil {
				return fmt.Errorf("seed allowance for %s: %w", account.Name, err)
			}
		}
	}

	guard := access.NewGuard(cfg.Game.Admin)
	params := round.NewParamStore(cfg.Game.MinStake, cfg.MinDelay())
	bus := round.NewEventBus()
	engine := round.NewLedger(mem, guard, cfg.Game.Custody, params, clock, bus, logger)

	service := server.NewService(engine, logger)
	srv := server.NewServer(addr, service, logger)
	bus.Subscribe(srv)

	if cfg.Game.AutoStart {
		err := engine.StartRound(cfg.Game.Admin, round.Params{
			CloseTime: clock.Now().Add(cfg.OpenFor()),
			Stake:     cfg.Game.Stake,
			Delay:     cfg.Delay(),
		})
		if err != nil {
			return fmt.Errorf("auto-start round: %w", err)
		}
		logger.Info("initial round opened",
			"stake", cfg.Game.Stake,
			"delay", cfg.Delay(),
			"closeTime", engine.CloseTime())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	logger.Info("lastpotd running", "addr", addr, "admin", cfg.Game.Admin)
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
