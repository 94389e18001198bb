package main

import (
	"github.com/olehkaliuzhnyi/piwallet/internal/metrics"
	"github.com/urfave/cli/v2"
)

var balanceCmd = cli.Command{
	Name:   "balance",
	Usage:  "derive the account and report what can be sent",
	Action: balanceAction,
}

func balanceAction(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	mnemonic, err := mnemonicFrom(c)
	if err != nil {
		return err
	}

	report, err := newService(cfg, metrics.New()).CheckBalance(c.Context, mnemonic)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, report)
}
