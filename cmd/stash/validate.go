package main

import (
	"context"
	"errors"

	"github.com/urfave/cli/v2"
)

var validateconsignment = cli.Command{
	Name:      "validate",
	Usage:     "re-validate a consignment without touching the stash",
	ArgsUsage: "<consignment file>",
	Action:    validateAction,
}

func validateAction(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return errors.New("missing consignment file")
	}
	consignment, err := readConsignment(ctx.Args().First())
	if err != nil {
		return err
	}

	svc, cleanup, err := getServices(ctx, true)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := svc.accept.Validate(context.Background(), consignment); err != nil {
		return err
	}

	printRespJSON(map[string]interface{}{
		"contract_id": consignment.Genesis.ContractID().String(),
		"node_id":     consignment.Target().ID().String(),
		"valid":       true,
	})
	return nil
}
