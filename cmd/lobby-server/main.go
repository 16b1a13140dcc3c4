package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pokerrooms/internal/history"
	"github.com/lox/pokerrooms/internal/lobby"
	"github.com/lox/pokerrooms/internal/server"
)

var CLI struct {
	Config        string `short:"c" long:"config" default:"lobby-server.hcl" env:"LOBBY_CONFIG" help:"Path to HCL configuration file"`
	Addr          string `short:"a" long:"addr" env:"LOBBY_ADDR" help:"Server address to bind to, host:port (overrides config)"`
	LogLevel      string `short:"l" long:"log-level" env:"LOBBY_LOG_LEVEL" help:"Log level (overrides config)"`
	Seed          int64  `long:"seed" env:"LOBBY_SEED" help:"Deterministic shuffle seed, 0 for random (overrides config)"`
	HistoryDriver string `long:"history-driver" env:"LOBBY_HISTORY_DRIVER" help:"Round history store: none, sqlite or postgres (overrides config)"`
	HistoryDSN    string `long:"history-dsn" env:"LOBBY_HISTORY_DSN" help:"Round history DSN or sqlite path (overrides config)"`
}

func main() {
	// a missing .env is fine; real environment variables still apply
	_ = godotenv.Load()

	kctx := kong.Parse(&CLI,
		kong.Name("lobby-server"),
		kong.Description("Multiplayer Hold'em lobby server"))

	cfg, err := server.LoadServerConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		kctx.Exit(1)
	}
	applyOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		kctx.Exit(1)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	level, err := log.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		kctx.Exit(1)
	}
}

func applyOverrides(cfg *server.ServerConfig) {
	if CLI.Addr != "" {
		if host, port, ok := splitAddr(CLI.Addr); ok {
			cfg.Server.Address = host
			cfg.Server.Port = port
		} else {
			cfg.Server.Address = CLI.Addr
		}
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.Seed != 0 {
		cfg.Lobby.Seed = CLI.Seed
	}
	if CLI.HistoryDriver != "" {
		cfg.History.Driver = CLI.HistoryDriver
	}
	if CLI.HistoryDSN != "" {
		cfg.History.DSN = CLI.HistoryDSN
	}
}

func splitAddr(addr string) (string, int, bool) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, false
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, false
	}
	return host, port, true
}

func run(cfg *server.ServerConfig, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lobbyCfg, err := cfg.LobbyConfig()
	if err != nil {
		return err
	}

	store, err := history.Open(ctx, cfg.History.Driver, cfg.History.DSN)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() { _ = store.Close() }()

	hub := server.NewHub(logger)
	registry := lobby.NewRegistry(lobbyCfg, hub, logger, lobby.WithRecorder(store))
	dispatcher := lobby.NewDispatcher(registry, logger)
	srv := server.NewServer(cfg.GetServerAddress(), dispatcher, registry, hub, logger, server.WithHistory(store))

	logger.Info("Starting lobby server",
		"addr", cfg.GetServerAddress(),
		"maxPlayers", lobbyCfg.MaxPlayers,
		"startingChips", lobbyCfg.StartingChips,
		"history", cfg.History.Driver)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		registry.Shutdown()
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
