package main

import (
	"context"
	"fmt"

	"github.com/stash-network/stash-daemon/internal/core/domain"
	"github.com/stash-network/stash-daemon/pkg/invoice"
	"github.com/urfave/cli/v2"
)

var newinvoice = cli.Command{
	Name:  "invoice",
	Usage: "request a payment to one of your outpoints",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "contract",
			Usage:    "contract id of the asset to receive",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "amount",
			Usage:    "amount to receive, in decimal units of the asset",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "seal",
			Usage:    "outpoint receiving the state, in txid:vout notation",
			Required: true,
		},
	},
	Action: newInvoiceAction,
}

func newInvoiceAction(ctx *cli.Context) error {
	contractID, err := domain.ContractIDFromString(ctx.String("contract"))
	if err != nil {
		return err
	}
	seal, err := domain.NewSealFromString(ctx.String("seal"))
	if err != nil {
		return err
	}

	svc, cleanup, err := getServices(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	precision, err := assetPrecision(svc, contractID)
	if err != nil {
		return err
	}
	amount, err := invoice.AmountFromDecimalString(ctx.String("amount"), precision)
	if err != nil {
		return err
	}

	res, err := svc.transfer.NewInvoice(
		context.Background(), contractID, amount, *seal,
	)
	if err != nil {
		return err
	}

	printRespJSON(map[string]interface{}{
		"invoice":  res.Invoice,
		"seal":     res.Seal.String(),
		"blinding": res.Blinding,
	})
	return nil
}

func assetPrecision(svc *services, id domain.ContractID) (uint8, error) {
	infos, err := svc.issuer.ListAssets(context.Background())
	if err != nil {
		return 0, err
	}
	for _, info := range infos {
		if info.ContractID == id {
			return info.Precision, nil
		}
	}
	return 0, fmt.Errorf("unknown contract %s", id)
}
