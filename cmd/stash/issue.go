package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/stash-network/stash-daemon/internal/core/application"
	"github.com/stash-network/stash-daemon/internal/core/domain"
	"github.com/stash-network/stash-daemon/pkg/invoice"
	"github.com/urfave/cli/v2"
)

var issue = cli.Command{
	Name:  "issue",
	Usage: "issue a new asset allocating its supply to bitcoin outpoints",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "ticker",
			Usage:    "short uppercase ticker of the asset",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "human readable name of the asset, defaults to the ticker",
		},
		&cli.UintFlag{
			Name:  "precision",
			Usage: "number of decimal digits of the asset",
		},
		&cli.StringFlag{
			Name:  "schema",
			Usage: "validation schema: fungible or collectible",
			Value: domain.SchemaFungible.String(),
		},
		&cli.StringSliceFlag{
			Name:     "allocation",
			Usage:    "supply allocation in amount@txid:vout notation, repeatable",
			Required: true,
		},
	},
	Action: issueAction,
}

func issueAction(ctx *cli.Context) error {
	svc, cleanup, err := getServices(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	schema, err := domain.SchemaKindFromString(ctx.String("schema"))
	if err != nil {
		return err
	}
	precision := uint8(ctx.Uint("precision"))

	allocations := make([]application.AllocationRequest, 0)
	for _, s := range ctx.StringSlice("allocation") {
		alloc, err := parseAllocation(s, schema, precision)
		if err != nil {
			return err
		}
		allocations = append(allocations, *alloc)
	}

	name := ctx.String("name")
	if len(name) == 0 {
		name = ctx.String("ticker")
	}

	contractID, err := svc.issuer.IssueAsset(context.Background(), application.IssueArgs{
		Schema:      schema,
		Ticker:      ctx.String("ticker"),
		Name:        name,
		Precision:   precision,
		Allocations: allocations,
	})
	if err != nil {
		return err
	}

	printRespJSON(map[string]interface{}{
		"contract_id": contractID.String(),
	})
	return nil
}

// parseAllocation decodes the amount@txid:vout notation. Fungible amounts
// are given in decimal units of the asset, collectible token ids as plain
// integers.
func parseAllocation(
	s string, schema domain.SchemaKind, precision uint8,
) (*application.AllocationRequest, error) {
	parts := strings.SplitN(s, "@", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid allocation %q, want amount@txid:vout", s)
	}

	var value uint64
	var err error
	if schema == domain.SchemaCollectible {
		if value, err = strconv.ParseUint(parts[0], 10, 64); err != nil {
			return nil, fmt.Errorf("invalid token id in allocation %q", s)
		}
	} else {
		if value, err = invoice.AmountFromDecimalString(parts[0], precision); err != nil {
			return nil, err
		}
	}

	seal, err := domain.NewSealFromString(parts[1])
	if err != nil {
		return nil, err
	}
	return &application.AllocationRequest{Value: value, Seal: *seal}, nil
}
