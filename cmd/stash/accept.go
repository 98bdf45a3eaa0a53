package main

import (
	"context"

	"github.com/stash-network/stash-daemon/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var accept = cli.Command{
	Name:  "accept",
	Usage: "validate an inbound consignment and commit it to the stash",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "file",
			Usage:    "consignment file received from the counterparty",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "seal",
			Usage:    "outpoint the invoice was issued for, in txid:vout notation",
			Required: true,
		},
		&cli.Uint64Flag{
			Name:     "blinding",
			Usage:    "blinding factor generated at invoice time",
			Required: true,
		},
	},
	Action: acceptAction,
}

func acceptAction(ctx *cli.Context) error {
	consignment, err := readConsignment(ctx.String("file"))
	if err != nil {
		return err
	}
	seal, err := domain.NewSealFromString(ctx.String("seal"))
	if err != nil {
		return err
	}

	svc, cleanup, err := getServices(ctx, true)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := svc.accept.Accept(
		context.Background(), consignment, *seal, ctx.Uint64("blinding"),
	)
	if err != nil {
		return err
	}

	printRespJSON(map[string]interface{}{
		"contract_id": res.ContractID.String(),
		"node_id":     res.NodeID.String(),
		"seal":        res.Seal.String(),
		"value":       res.Value,
	})
	return nil
}
