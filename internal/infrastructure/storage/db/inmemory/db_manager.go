package inmemory

import (
	"context"
	"sync"

	"github.com/stash-network/stash-daemon/internal/core/domain"
	"github.com/stash-network/stash-daemon/internal/core/ports"
)

type transitionEntry struct {
	transition *domain.Transition
	anchor     *domain.Anchor
	contractID string
}

// stashStorage is one immutable-ish snapshot of the whole store. Write
// transactions run against a deep copy that replaces the live snapshot
// only when the handler succeeds, which gives the same all-or-nothing
// semantics as a real database transaction.
type stashStorage struct {
	geneses     map[string]*domain.Genesis
	transitions map[string]transitionEntry
	closedSeals map[string]string
	ownedSeals  map[string]domain.OwnedSeal
}

func newStashStorage() *stashStorage {
	return &stashStorage{
		geneses:     make(map[string]*domain.Genesis),
		transitions: make(map[string]transitionEntry),
		closedSeals: make(map[string]string),
		ownedSeals:  make(map[string]domain.OwnedSeal),
	}
}

// clone copies the maps; the domain values inside are immutable once
// stored and can be shared.
func (s *stashStorage) clone() *stashStorage {
	c := newStashStorage()
	for k, v := range s.geneses {
		c.geneses[k] = v
	}
	for k, v := range s.transitions {
		c.transitions[k] = v
	}
	for k, v := range s.closedSeals {
		c.closedSeals[k] = v
	}
	for k, v := range s.ownedSeals {
		c.ownedSeals[k] = v
	}
	return c
}

// DbManager keeps the whole stash in memory. Used by tests and by daemons
// running with an ephemeral datadir.
type DbManager struct {
	mtx   sync.Mutex
	store *stashStorage

	stashRepository domain.StashRepository
}

// NewRepoManager returns an empty in-memory repo manager.
func NewRepoManager() ports.RepoManager {
	db := &DbManager{store: newStashStorage()}
	db.stashRepository = newStashRepositoryImpl(db)
	return db
}

func (d *DbManager) StashRepository() domain.StashRepository {
	return d.stashRepository
}

// RunTransaction implements the ports.RepoManager contract. Writes run on
// a private copy of the store, swapped in atomically on success and
// dropped entirely on failure.
func (d *DbManager) RunTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	if readOnly {
		return handler(context.WithValue(ctx, "tx", d.store))
	}

	staging := d.store.clone()
	res, err := handler(context.WithValue(ctx, "tx", staging))
	if err != nil {
		return nil, err
	}
	d.store = staging
	return res, nil
}

func (d *DbManager) Close() {}

// storageByContext returns the transaction snapshot installed by
// RunTransaction, or the live store for calls made outside any
// transaction scope.
func (d *DbManager) storageByContext(ctx context.Context) *stashStorage {
	if s, ok := ctx.Value("tx").(*stashStorage); ok {
		return s
	}
	return d.store
}
