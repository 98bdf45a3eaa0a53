package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stash-network/stash-daemon/internal/config"
	"github.com/stash-network/stash-daemon/internal/core/application"
	"github.com/stash-network/stash-daemon/internal/core/ports"
	"github.com/stash-network/stash-daemon/internal/infrastructure/ledger/esplora"
	dbbadger "github.com/stash-network/stash-daemon/internal/infrastructure/storage/db/badger"
	"github.com/stash-network/stash-daemon/internal/infrastructure/storage/db/inmemory"
	"golang.org/x/sync/errgroup"
)

const anchorSweepInterval = 5 * time.Minute

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	repoManager, err := openRepoManager()
	if err != nil {
		log.WithError(err).Fatal("error while opening stash db")
	}
	defer repoManager.Close()

	ledgerSvc, err := esplora.NewService(config.GetString(config.ExplorerURLKey))
	if err != nil {
		log.WithError(err).Fatal("error while connecting to explorer")
	}

	watcher := application.NewAnchorWatcher(
		repoManager, ledgerSvc, anchorSweepInterval,
	)

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watcher.Start(ctx)
	})

	log.Info("daemon started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down")
	cancel()
	if err := g.Wait(); err != nil && err != context.Canceled {
		log.WithError(err).Error("error while shutting down")
	}
	log.Info("exiting")
}

func openRepoManager() (ports.RepoManager, error) {
	if config.GetString(config.DBTypeKey) == config.DBInMemory {
		return inmemory.NewRepoManager(), nil
	}
	dbDir := filepath.Join(config.GetDatadir(), config.DbLocation)
	return dbbadger.NewRepoManager(dbDir, log.New())
}
