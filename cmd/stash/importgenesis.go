package main

import (
	"context"
	"errors"

	"github.com/urfave/cli/v2"
)

var importgenesis = cli.Command{
	Name:      "import",
	Usage:     "import an asset genesis exported by its issuer",
	ArgsUsage: "<genesis blob>",
	Action:    importGenesisAction,
}

func importGenesisAction(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return errors.New("missing genesis blob")
	}

	svc, cleanup, err := getServices(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	contractID, err := svc.issuer.ImportGenesis(
		context.Background(), ctx.Args().First(),
	)
	if err != nil {
		return err
	}

	printRespJSON(map[string]interface{}{
		"contract_id": contractID.String(),
	})
	return nil
}
