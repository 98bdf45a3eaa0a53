package inmemory

import (
	"context"
	"sort"

	"github.com/stash-network/stash-daemon/internal/core/domain"
)

type stashRepositoryImpl struct {
	db *DbManager
}

func newStashRepositoryImpl(db *DbManager) domain.StashRepository {
	return stashRepositoryImpl{db: db}
}

func (r stashRepositoryImpl) AddGenesis(
	ctx context.Context, g *domain.Genesis,
) error {
	store := r.db.storageByContext(ctx)
	key := g.ContractID().String()
	if _, ok := store.geneses[key]; ok {
		return nil
	}
	store.geneses[key] = g
	return nil
}

func (r stashRepositoryImpl) GetGenesis(
	ctx context.Context, id domain.ContractID,
) (*domain.Genesis, error) {
	store := r.db.storageByContext(ctx)
	g, ok := store.geneses[id.String()]
	if !ok {
		return nil, domain.ErrContractNotFound
	}
	return g, nil
}

func (r stashRepositoryImpl) ListContracts(
	ctx context.Context,
) ([]domain.ContractID, error) {
	store := r.db.storageByContext(ctx)
	keys := make([]string, 0, len(store.geneses))
	for k := range store.geneses {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ids := make([]domain.ContractID, 0, len(keys))
	for _, k := range keys {
		id, err := domain.ContractIDFromString(k)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r stashRepositoryImpl) GetStash(
	ctx context.Context, id domain.ContractID,
) (*domain.Stash, error) {
	store := r.db.storageByContext(ctx)
	genesis, ok := store.geneses[id.String()]
	if !ok {
		return nil, domain.ErrContractNotFound
	}

	graph := domain.NewGraph(genesis)
	contractKey := id.String()
	for _, entry := range store.transitions {
		if entry.contractID != contractKey {
			continue
		}
		if err := graph.Add(entry.transition, entry.anchor); err != nil {
			return nil, err
		}
	}

	owned := make([]domain.OwnedSeal, 0)
	for _, o := range store.ownedSeals {
		if o.ContractID == id {
			owned = append(owned, o)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		return o2key(owned[i]) < o2key(owned[j])
	})

	return &domain.Stash{Genesis: genesis, Graph: graph, Owned: owned}, nil
}

func o2key(o domain.OwnedSeal) string {
	return o.Reveal.Conceal().String()
}

func (r stashRepositoryImpl) AddTransition(
	ctx context.Context, t *domain.Transition, a *domain.Anchor,
) error {
	store := r.db.storageByContext(ctx)
	key := t.ID().String()
	if existing, ok := store.transitions[key]; ok {
		if existing.anchor == nil && a != nil {
			existing.anchor = a
			store.transitions[key] = existing
		}
		return nil
	}
	store.transitions[key] = transitionEntry{
		transition: t,
		anchor:     a,
		contractID: t.ContractID.String(),
	}
	return nil
}

func (r stashRepositoryImpl) AnchorTransition(
	ctx context.Context, id domain.NodeID, a *domain.Anchor,
) error {
	store := r.db.storageByContext(ctx)
	entry, ok := store.transitions[id.String()]
	if !ok {
		return domain.ErrTransitionNotFound
	}
	entry.anchor = a
	store.transitions[id.String()] = entry
	return nil
}

func (r stashRepositoryImpl) GetTransition(
	ctx context.Context, id domain.NodeID,
) (*domain.Transition, *domain.Anchor, error) {
	store := r.db.storageByContext(ctx)
	entry, ok := store.transitions[id.String()]
	if !ok {
		return nil, nil, domain.ErrTransitionNotFound
	}
	return entry.transition, entry.anchor, nil
}

func (r stashRepositoryImpl) HasTransition(
	ctx context.Context, id domain.NodeID,
) (bool, error) {
	store := r.db.storageByContext(ctx)
	_, ok := store.transitions[id.String()]
	return ok, nil
}

func (r stashRepositoryImpl) MarkSealClosed(
	ctx context.Context, seal domain.SecretSeal, by domain.NodeID,
) error {
	store := r.db.storageByContext(ctx)
	store.closedSeals[seal.String()] = by.String()
	return nil
}

func (r stashRepositoryImpl) IsSealClosed(
	ctx context.Context, seal domain.SecretSeal,
) (bool, error) {
	store := r.db.storageByContext(ctx)
	_, ok := store.closedSeals[seal.String()]
	return ok, nil
}

func (r stashRepositoryImpl) AddOwnedSeal(
	ctx context.Context, owned domain.OwnedSeal,
) error {
	store := r.db.storageByContext(ctx)
	store.ownedSeals[owned.Reveal.Conceal().String()] = owned
	return nil
}

func (r stashRepositoryImpl) MarkOwnedSealSpent(
	ctx context.Context, seal domain.SecretSeal,
) error {
	store := r.db.storageByContext(ctx)
	owned, ok := store.ownedSeals[seal.String()]
	if !ok {
		return domain.ErrSealNotFound
	}
	owned.Spent = true
	store.ownedSeals[seal.String()] = owned
	return nil
}

func (r stashRepositoryImpl) GetOwnedSeal(
	ctx context.Context, seal domain.SecretSeal,
) (*domain.OwnedSeal, error) {
	store := r.db.storageByContext(ctx)
	owned, ok := store.ownedSeals[seal.String()]
	if !ok {
		return nil, domain.ErrSealNotFound
	}
	return &owned, nil
}

func (r stashRepositoryImpl) ListOwnedSeals(
	ctx context.Context, id domain.ContractID,
) ([]domain.OwnedSeal, error) {
	store := r.db.storageByContext(ctx)
	owned := make([]domain.OwnedSeal, 0)
	for _, o := range store.ownedSeals {
		if o.ContractID == id {
			owned = append(owned, o)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		return o2key(owned[i]) < o2key(owned[j])
	})
	return owned, nil
}
