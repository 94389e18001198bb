package main

import (
	"fmt"

	"github.com/olehkaliuzhnyi/piwallet/internal/metrics"
	"github.com/urfave/cli/v2"
)

var addressCmd = cli.Command{
	Name:  "address",
	Usage: "print the public address derived from the mnemonic",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "print address, derivation path and hex public key as JSON",
		},
	},
	Action: addressAction,
}

func addressAction(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	mnemonic, err := mnemonicFrom(c)
	if err != nil {
		return err
	}

	svc := newService(cfg, metrics.New())
	if c.Bool("json") {
		derived, err := svc.Describe(mnemonic)
		if err != nil {
			return err
		}
		return printJSON(c.App.Writer, derived)
	}

	address, err := svc.Address(mnemonic)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, address)
	return err
}
