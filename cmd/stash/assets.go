package main

import (
	"context"

	"github.com/stash-network/stash-daemon/pkg/invoice"
	"github.com/urfave/cli/v2"
)

var assets = cli.Command{
	Name:   "assets",
	Usage:  "list all known assets with their stash balance",
	Action: assetsAction,
}

func assetsAction(ctx *cli.Context) error {
	svc, cleanup, err := getServices(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	infos, err := svc.issuer.ListAssets(context.Background())
	if err != nil {
		return err
	}

	list := make([]map[string]interface{}, 0, len(infos))
	for _, info := range infos {
		list = append(list, map[string]interface{}{
			"contract_id": info.ContractID.String(),
			"schema":      info.Schema.String(),
			"ticker":      info.Ticker,
			"name":        info.Name,
			"precision":   info.Precision,
			"supply":      invoice.AmountToDecimalString(info.Supply, info.Precision),
			"balance":     invoice.AmountToDecimalString(info.Balance, info.Precision),
		})
	}
	printRespJSON(list)
	return nil
}
