package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobmcallan/fundlens/internal/app"
	"github.com/bobmcallan/fundlens/internal/common"
	"github.com/bobmcallan/fundlens/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to fundlens.toml (default: $FUNDLENS_CONFIG, then next to the binary)")
	seedPath := flag.String("seed", "", "import funds from a JSON file into the configured store, then exit")
	flag.Parse()

	a, err := app.NewApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	if *seedPath != "" {
		os.Exit(runSeed(a, *seedPath))
	}

	common.PrintBanner(a.Config, a.Logger)

	srv := server.NewServer(a)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			a.Logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	a.Logger.Info().
		Str("url", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)).
		Msg("Server ready")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	a.Logger.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	a.Close()
	common.PrintShutdownBanner(a.Logger)
}

func runSeed(a *app.App, path string) int {
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	imported, skipped, err := app.ImportFundsFromFile(ctx, a.Storage.Writer(), a.Logger, path)
	if err != nil {
		a.Logger.Error().Err(err).Str("file", path).Msg("Seed failed")
		return 1
	}
	fmt.Fprintf(os.Stdout, "imported %d funds, skipped %d\n", imported, skipped)
	return 0
}
