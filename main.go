package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"smcsim/api"
)

// Version is injected by build scripts via -ldflags "-X main.Version=..."
var Version = "dev"

var (
	backtestMode   bool
	backtestConfig string
	backtestOut    string
	chartDir       string
	serveMode      bool
	port           int
)

func main() {
	// Best-effort: server defaults may come from a local .env.
	_ = godotenv.Load()

	flag.BoolVar(&backtestMode, "backtest", false, "run backtests from a YAML config and exit")
	flag.StringVar(&backtestConfig, "config", "config.yaml", "backtest YAML config path")
	flag.StringVar(&backtestOut, "out", "", "backtest JSON output path (default stdout)")
	flag.StringVar(&chartDir, "chart-dir", "", "write per-symbol equity SVG charts into this directory")
	flag.BoolVar(&serveMode, "serve", false, "serve the backtest HTTP API")
	flag.IntVar(&port, "port", defaultPort(), "HTTP API port")
	flag.Parse()

	switch {
	case backtestMode:
		if err := runBacktest(backtestConfig, backtestOut, chartDir); err != nil {
			log.Fatalf("[backtest] %v", err)
		}
	case serveMode:
		if err := runServer(port); err != nil {
			log.Fatalf("[serve] %v", err)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func defaultPort() int {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			return p
		}
	}
	return 8390
}

func runServer(port int) error {
	s := api.NewServer(port)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Printf("[serve] got %v, shutting down", sig)
		return s.Shutdown()
	}
}
