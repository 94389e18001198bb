package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/olehkaliuzhnyi/piwallet/internal/config"
	"github.com/olehkaliuzhnyi/piwallet/internal/horizon"
	"github.com/olehkaliuzhnyi/piwallet/internal/metrics"
	"github.com/olehkaliuzhnyi/piwallet/internal/service"
	"github.com/olehkaliuzhnyi/piwallet/internal/storage"
	"github.com/olehkaliuzhnyi/piwallet/internal/tx"
	"github.com/olehkaliuzhnyi/piwallet/internal/wallet"
	"github.com/olehkaliuzhnyi/piwallet/pkg/models"
	"github.com/urfave/cli/v2"
)

const mnemonicEnv = "PIWALLET_MNEMONIC"

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "[piwallet] %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "piwallet"
	app.Version = version
	app.Usage = "Check a Pi account balance and sweep it above a reserve"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "path to a config file (yaml, json or toml)",
			EnvVars: []string{"PIWALLET_CONFIG"},
		},
	}
	app.Commands = []*cli.Command{
		&serveCmd,
		&balanceCmd,
		&sendCmd,
		&addressCmd,
	}
	return app
}

// setup loads the configuration and installs the default logger.
func setup(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, err
	}
	slog.SetDefault(newLogger(c.App.ErrWriter, cfg.LogLevel, cfg.LogFormat))
	return cfg, nil
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// newService wires the Horizon client, transaction builder and journal
// into a Service for the Pi network.
func newService(cfg config.Config, m *metrics.Metrics) *service.Service {
	hc := horizon.NewClient(cfg.HorizonURL,
		horizon.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		horizon.WithRateLimit(cfg.RateLimit),
		horizon.WithObserver(m),
	)
	builder := tx.NewBuilder(tx.BuilderConfig{
		Network:           models.NetworkPi,
		NetworkPassphrase: cfg.NetworkPassphrase,
		BaseFee:           cfg.BaseFee,
		Memo:              cfg.Memo,
		Timeout:           cfg.TxTimeout,
	}, hc, hc, storage.NewMemoryJournal())

	return service.New(wallet.NewPiDeriver(), hc, builder, service.Settings{
		MinReserve:         cfg.MinReserve,
		PlanningFee:        cfg.PlanningFee,
		DefaultDestination: cfg.DefaultDestination,
	}, service.WithRecorder(m))
}

// readMnemonic takes the phrase from the environment, or else the first
// line of r. It is never accepted as a flag so it stays out of shell history.
func readMnemonic(r io.Reader, getenv func(string) string) (string, error) {
	if m := strings.TrimSpace(getenv(mnemonicEnv)); m != "" {
		return m, nil
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read mnemonic: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("no mnemonic: set %s or pipe it on stdin", mnemonicEnv)
	}
	return line, nil
}

func mnemonicFrom(c *cli.Context) (string, error) {
	in := c.App.Reader
	if in == nil {
		in = os.Stdin
	}
	return readMnemonic(in, os.Getenv)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
