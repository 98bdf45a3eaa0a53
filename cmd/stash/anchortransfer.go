package main

import (
	"context"
	"errors"

	"github.com/stash-network/stash-daemon/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var anchortransfer = cli.Command{
	Name:  "anchor",
	Usage: "attach the anchor to a pending transfer and rebuild its consignment",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "node",
			Usage:    "id of the pending transition",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "anchor-tx",
			Usage:    "txid of the anchor transaction carrying the commitment",
			Required: true,
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
		&cli.StringFlag{
			Name:  "out",
			Usage: "file the consignment is written to",
			Value: "consignment.stc",
		},
	},
	Action: anchorTransferAction,
}

func anchorTransferAction(ctx *cli.Context) error {
	nodeID, err := domain.NodeIDFromString(ctx.String("node"))
	if err != nil {
		return err
	}
	anchor, err := parseAnchorFlags(ctx)
	if err != nil {
		return err
	}
	if anchor == nil {
		return errors.New("missing anchor transaction")
	}

	svc, cleanup, err := getServices(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := svc.transfer.AnchorTransfer(context.Background(), nodeID, anchor)
	if err != nil {
		return err
	}
	if err := writeConsignment(ctx.String("out"), res.Consignment); err != nil {
		return err
	}

	printRespJSON(map[string]interface{}{
		"node_id":     res.NodeID.String(),
		"commitment":  res.Commitment.String(),
		"consignment": ctx.String("out"),
	})
	return nil
}
