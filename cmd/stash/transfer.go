package main

import (
	"context"
	"errors"
	"io/ioutil"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stash-network/stash-daemon/internal/core/application"
	"github.com/stash-network/stash-daemon/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var transfer = cli.Command{
	Name:  "transfer",
	Usage: "pay an invoice and build the consignment for the counterparty",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "invoice",
			Usage:    "invoice handed over by the receiver",
			Required: true,
		},
		&cli.StringSliceFlag{
			Name:     "input",
			Usage:    "owned outpoint to spend, in txid:vout notation, repeatable",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "change",
			Usage: "outpoint receiving the change, in txid:vout notation",
		},
		&cli.Uint64Flag{
			Name:  "change-blinding",
			Usage: "fixed blinding for the change seal, required with --dry-run",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "only print the commitment the anchor transaction must carry",
		},
		&cli.StringFlag{
			Name:  "anchor-tx",
			Usage: "txid of the anchor transaction carrying the commitment",
		},
		&cli.UintFlag{
			Name:  "anchor-vout",
			Usage: "output of the anchor transaction holding the committed value",
		},
		&cli.StringFlag{
			Name:  "merkle-proof",
			Usage: "comma separated inclusion path from the commitment to the committed value",
		},
		&cli.UintFlag{
			Name:  "merkle-index",
			Usage: "position of the commitment leaf in the inclusion path",
		},
		&cli.BoolFlag{
			Name:  "pending",
			Usage: "allow building the consignment before the anchor exists",
		},
		&cli.StringFlag{
			Name:  "out",
			Usage: "file the consignment is written to",
			Value: "consignment.stc",
		},
	},
	Action: transferAction,
}

func transferAction(ctx *cli.Context) error {
	args, err := parseTransferArgs(ctx)
	if err != nil {
		return err
	}

	svc, cleanup, err := getServices(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	if ctx.Bool("dry-run") {
		preview, err := svc.transfer.PrepareTransfer(context.Background(), *args)
		if err != nil {
			return err
		}
		printRespJSON(map[string]interface{}{
			"node_id":    preview.NodeID.String(),
			"commitment": preview.Commitment.String(),
		})
		return nil
	}

	res, err := svc.transfer.Transfer(context.Background(), *args)
	if err != nil {
		return err
	}
	if err := writeConsignment(ctx.String("out"), res.Consignment); err != nil {
		return err
	}

	out := map[string]interface{}{
		"node_id":     res.NodeID.String(),
		"commitment":  res.Commitment.String(),
		"consignment": ctx.String("out"),
	}
	if res.ChangeSeal != nil {
		out["change_seal"] = res.ChangeSeal.String()
		out["change_blinding"] = *res.ChangeBlinding
	}
	printRespJSON(out)
	return nil
}

func parseTransferArgs(ctx *cli.Context) (*application.TransferArgs, error) {
	inputs := make([]domain.Seal, 0)
	for _, s := range ctx.StringSlice("input") {
		seal, err := domain.NewSealFromString(s)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, *seal)
	}

	args := &application.TransferArgs{
		Invoice:      ctx.String("invoice"),
		Inputs:       inputs,
		AllowPending: ctx.Bool("pending"),
	}
	if s := ctx.String("change"); len(s) > 0 {
		seal, err := domain.NewSealFromString(s)
		if err != nil {
			return nil, err
		}
		args.ChangeSeal = seal
	}
	if ctx.IsSet("change-blinding") {
		blinding := ctx.Uint64("change-blinding")
		args.ChangeBlinding = &blinding
	}

	anchor, err := parseAnchorFlags(ctx)
	if err != nil {
		return nil, err
	}
	args.Anchor = anchor
	if args.Anchor == nil && !args.AllowPending {
		return nil, errors.New("either provide the anchor or pass --pending")
	}
	return args, nil
}

func parseAnchorFlags(ctx *cli.Context) (*domain.Anchor, error) {
	txid := ctx.String("anchor-tx")
	if len(txid) == 0 {
		return nil, nil
	}
	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return nil, err
	}

	anchor := &domain.Anchor{
		TxID:        *hash,
		Vout:        uint32(ctx.Uint("anchor-vout")),
		MerkleIndex: uint32(ctx.Uint("merkle-index")),
	}
	if proof := ctx.String("merkle-proof"); len(proof) > 0 {
		for _, s := range strings.Split(proof, ",") {
			h, err := chainhash.NewHashFromStr(strings.TrimSpace(s))
			if err != nil {
				return nil, err
			}
			anchor.MerklePath = append(anchor.MerklePath, *h)
		}
	}
	return anchor, nil
}

func writeConsignment(path string, c *domain.Consignment) error {
	return ioutil.WriteFile(path, c.Encode(), 0644)
}

func readConsignment(path string) (*domain.Consignment, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return domain.DecodeConsignment(raw)
}
