package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/stash-network/stash-daemon/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var exportgenesis = cli.Command{
	Name:      "export",
	Usage:     "export an asset genesis for sharing, without any history",
	ArgsUsage: "<contract id>",
	Action:    exportGenesisAction,
}

func exportGenesisAction(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return errors.New("missing contract id")
	}
	contractID, err := domain.ContractIDFromString(ctx.Args().First())
	if err != nil {
		return err
	}

	svc, cleanup, err := getServices(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	blob, err := svc.issuer.ExportGenesis(context.Background(), contractID)
	if err != nil {
		return err
	}

	fmt.Println(blob)
	return nil
}
