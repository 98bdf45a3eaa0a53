package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/stash-network/stash-daemon/internal/core/application"
	"github.com/stash-network/stash-daemon/internal/core/ports"
	"github.com/stash-network/stash-daemon/internal/infrastructure/ledger/esplora"
	dbbadger "github.com/stash-network/stash-daemon/internal/infrastructure/storage/db/badger"
	"github.com/urfave/cli/v2"
)

var (
	stashDataDir = btcutil.AppDataDir("stash", false)

	datadirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "directory holding the stash database",
		Value: stashDataDir,
	}

	explorerFlag = cli.StringFlag{
		Name:  "explorer",
		Usage: "endpoint of the esplora-compatible explorer",
		Value: "https://blockstream.info/api",
	}
)

func main() {
	app := cli.NewApp()

	app.Version = "0.0.1"
	app.Name = "stash CLI"
	app.Usage = "Command line interface for managing assets bound to bitcoin outputs"
	app.Flags = []cli.Flag{
		&datadirFlag,
		&explorerFlag,
	}
	app.Commands = append(
		app.Commands,
		&issue,
		&assets,
		&outpoint,
		&newinvoice,
		&transfer,
		&anchortransfer,
		&validateconsignment,
		&accept,
		&exportgenesis,
		&importgenesis,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	log.WithError(err).Fatal("command failed")
}

// openRepoManager opens the same badger store the daemon uses. CLI and
// daemon share the datadir; badger's single-writer lock keeps them from
// running concurrently.
func openRepoManager(ctx *cli.Context) (ports.RepoManager, func(), error) {
	dbDir := filepath.Join(ctx.String("datadir"), "db")
	if err := os.MkdirAll(dbDir, os.ModeDir|0755); err != nil {
		return nil, nil, err
	}
	repoManager, err := dbbadger.NewRepoManager(dbDir, nil)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { repoManager.Close() }
	return repoManager, cleanup, nil
}

// services bundles the application services over a single store handle.
// The accept service talks to the explorer and is only wired when asked
// for, so offline commands never hit the network.
type services struct {
	issuer   application.IssuerService
	transfer application.TransferService
	accept   application.AcceptService
}

func getServices(ctx *cli.Context, withLedger bool) (*services, func(), error) {
	repoManager, cleanup, err := openRepoManager(ctx)
	if err != nil {
		return nil, nil, err
	}

	svc := &services{
		issuer:   application.NewIssuerService(repoManager),
		transfer: application.NewTransferService(repoManager),
	}
	if withLedger {
		ledgerSvc, err := esplora.NewService(ctx.String("explorer"))
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		svc.accept = application.NewAcceptService(repoManager, ledgerSvc)
	}
	return svc, cleanup, nil
}

func printRespJSON(resp interface{}) {
	jsonStr, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}

	fmt.Println(string(jsonStr))
}
