package main

import (
	"context"
	"errors"

	"github.com/stash-network/stash-daemon/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var outpoint = cli.Command{
	Name:      "outpoint",
	Usage:     "show the asset state bound to a bitcoin outpoint",
	ArgsUsage: "txid:vout",
	Action:    outpointAction,
}

func outpointAction(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return errors.New("missing outpoint in txid:vout notation")
	}
	seal, err := domain.NewSealFromString(ctx.Args().First())
	if err != nil {
		return err
	}

	svc, cleanup, err := getServices(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	states, err := svc.issuer.ListOutpointStates(context.Background(), *seal)
	if err != nil {
		return err
	}

	list := make([]map[string]interface{}, 0, len(states))
	for _, state := range states {
		list = append(list, map[string]interface{}{
			"contract_id": state.ContractID.String(),
			"ticker":      state.Ticker,
			"outpoint":    state.Outpoint.String(),
			"value":       state.Value,
			"spent":       state.Spent,
		})
	}
	printRespJSON(list)
	return nil
}
