package dbbadger

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/stash-network/stash-daemon/internal/core/domain"
	"github.com/stash-network/stash-daemon/internal/core/ports"
	"github.com/timshannon/badgerhold/v4"
)

type repoManager struct {
	store *badgerhold.Store

	stashRepository domain.StashRepository
}

// NewRepoManager opens (or creates) the badger store under the given base
// data dir. An empty dir opens an in-memory store, used by tests.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	var stashDir string
	if len(baseDbDir) > 0 {
		stashDir = filepath.Join(baseDbDir, "stash")
	}

	store, err := createDb(stashDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening stash db: %w", err)
	}

	db := &repoManager{store: store}
	db.stashRepository = newStashRepositoryImpl(db)
	return db, nil
}

func (d *repoManager) StashRepository() domain.StashRepository {
	return d.stashRepository
}

// RunTransaction implements the ports.RepoManager contract on top of a
// native badger transaction: committed only if the handler succeeds,
// discarded otherwise.
func (d *repoManager) RunTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	tx := d.store.Badger().NewTransaction(!readOnly)
	defer tx.Discard()

	res, err := handler(context.WithValue(ctx, "tx", tx))
	if err != nil {
		return nil, err
	}
	if !readOnly {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (d *repoManager) Close() {
	d.store.Close()
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	if !isInMemory {
		ticker := time.NewTicker(30 * time.Minute)

		go func() {
			for {
				<-ticker.C
				if err := db.Badger().RunValueLogGC(0.5); err != nil &&
					err != badger.ErrNoRewrite {
					log.Error(err)
				}
			}
		}()
	}

	return db, nil
}
