package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"market_backend/internal/app/di"
	"market_backend/internal/platform/config"
	"market_backend/internal/platform/logging"
)

func main() {
	class := flag.String("class", "all", "asset class to reinitialize (stock, crypto, forex or all)")
	symbols := flag.String("symbols", "", "comma separated symbols; empty means every tracked symbol")
	force := flag.Bool("force", false, "rebuild and replace existing histories")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall deadline")
	flag.Parse()

	if err := run(*class, *symbols, *force, *timeout); err != nil {
		slog.Error("reinit failed", "error", err)
		os.Exit(1)
	}
}

func run(class, symbols string, force bool, timeout time.Duration) error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}
	logging.Setup(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	app, err := di.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	var subset []string
	for _, s := range strings.Split(symbols, ",") {
		if s = strings.TrimSpace(s); s != "" {
			subset = append(subset, s)
		}
	}

	summaries, err := app.Reinit.Reinit(ctx, class, subset, force)
	if err != nil {
		return err
	}

	failed := 0
	for _, s := range summaries {
		fmt.Printf("%s: processed=%d unchanged=%d errors=%d\n", s.AssetClass, len(s.Processed), len(s.Unchanged), len(s.Errors))
		for sym, msg := range s.Errors {
			fmt.Printf("  %s: %s\n", sym, msg)
		}
		failed += len(s.Errors)
	}
	if failed > 0 {
		return fmt.Errorf("%d symbols failed", failed)
	}
	return nil
}
