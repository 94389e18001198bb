package main

import (
	"github.com/olehkaliuzhnyi/piwallet/internal/api"
	"github.com/olehkaliuzhnyi/piwallet/internal/metrics"
	"github.com/urfave/cli/v2"
)

var serveCmd = cli.Command{
	Name:   "serve",
	Usage:  "run the HTTP API",
	Action: serveAction,
}

func serveAction(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}

	m := metrics.New()
	srv := api.New(newService(cfg, m),
		api.WithMetrics(m.Handler()),
		api.WithCORSOrigins(cfg.CORSOrigins),
	)
	return srv.ListenAndServe(c.Context, cfg.ListenAddr)
}
