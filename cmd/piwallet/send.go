package main

import (
	"github.com/olehkaliuzhnyi/piwallet/internal/metrics"
	"github.com/olehkaliuzhnyi/piwallet/internal/service"
	"github.com/urfave/cli/v2"
)

var sendCmd = cli.Command{
	Name:  "send",
	Usage: "send everything above the reserve and fee to a destination",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "destination",
			Usage: "destination account, defaults to the configured one",
		},
		&cli.StringFlag{
			Name:  "min-reserve",
			Usage: "amount to leave on the account, defaults to the configured one",
		},
	},
	Action: sendAction,
}

func sendAction(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	mnemonic, err := mnemonicFrom(c)
	if err != nil {
		return err
	}

	result, err := newService(cfg, metrics.New()).AutoSend(c.Context, service.AutoSendRequest{
		Mnemonic:    mnemonic,
		Destination: c.String("destination"),
		MinReserve:  c.String("min-reserve"),
	})
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, result)
}
