package dbbadger

import (
	"context"
	"sort"
	"strconv"

	"github.com/dgraph-io/badger/v3"
	"github.com/stash-network/stash-daemon/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

// Records keep the domain payloads in their canonical binary form, so the
// on-disk representation is stable no matter what badgerhold's own encoder
// does to the envelope.
type genesisRecord struct {
	ContractID string
	Genesis    []byte
}

type transitionRecord struct {
	NodeID     string
	ContractID string
	Transition []byte
	// Anchor is empty while the transition is pending.
	Anchor []byte
}

type sealRecord struct {
	SecretSeal string
	ClosedBy   string
}

type ownedSealRecord struct {
	SecretSeal string
	ContractID string
	TxID       string
	Vout       uint32
	Blinding   uint64
	Value      uint64
	CreatedBy  string
	Spent      bool
}

type stashRepositoryImpl struct {
	db *repoManager
}

func newStashRepositoryImpl(db *repoManager) domain.StashRepository {
	return stashRepositoryImpl{db: db}
}

func (r stashRepositoryImpl) tx(ctx context.Context) *badger.Txn {
	tx, _ := ctx.Value("tx").(*badger.Txn)
	return tx
}

func (r stashRepositoryImpl) insert(
	ctx context.Context, key string, data interface{},
) error {
	if tx := r.tx(ctx); tx != nil {
		return r.db.store.TxInsert(tx, key, data)
	}
	return r.db.store.Insert(key, data)
}

func (r stashRepositoryImpl) update(
	ctx context.Context, key string, data interface{},
) error {
	if tx := r.tx(ctx); tx != nil {
		return r.db.store.TxUpdate(tx, key, data)
	}
	return r.db.store.Update(key, data)
}

func (r stashRepositoryImpl) get(
	ctx context.Context, key string, result interface{},
) error {
	if tx := r.tx(ctx); tx != nil {
		return r.db.store.TxGet(tx, key, result)
	}
	return r.db.store.Get(key, result)
}

func (r stashRepositoryImpl) find(
	ctx context.Context, result interface{}, query *badgerhold.Query,
) error {
	if tx := r.tx(ctx); tx != nil {
		return r.db.store.TxFind(tx, result, query)
	}
	return r.db.store.Find(result, query)
}

func (r stashRepositoryImpl) AddGenesis(
	ctx context.Context, g *domain.Genesis,
) error {
	record := genesisRecord{
		ContractID: g.ContractID().String(),
		Genesis:    g.Encode(),
	}
	if err := r.insert(ctx, record.ContractID, &record); err != nil {
		if err == badgerhold.ErrKeyExists {
			return nil
		}
		return err
	}
	return nil
}

func (r stashRepositoryImpl) GetGenesis(
	ctx context.Context, id domain.ContractID,
) (*domain.Genesis, error) {
	var record genesisRecord
	if err := r.get(ctx, id.String(), &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrContractNotFound
		}
		return nil, err
	}
	return domain.DecodeGenesis(record.Genesis)
}

func (r stashRepositoryImpl) ListContracts(
	ctx context.Context,
) ([]domain.ContractID, error) {
	var records []genesisRecord
	if err := r.find(ctx, &records, nil); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(records))
	for _, record := range records {
		keys = append(keys, record.ContractID)
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
	genesis, err := r.GetGenesis(ctx, id)
	if err != nil {
		return nil, err
	}

	var records []transitionRecord
	query := badgerhold.Where("ContractID").Eq(id.String())
	if err := r.find(ctx, &records, query); err != nil {
		return nil, err
	}

	graph := domain.NewGraph(genesis)
	for _, record := range records {
		transition, anchor, err := decodeTransitionRecord(record)
		if err != nil {
			return nil, err
		}
		if err := graph.Add(transition, anchor); err != nil {
			return nil, err
		}
	}

	owned, err := r.ListOwnedSeals(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.Stash{Genesis: genesis, Graph: graph, Owned: owned}, nil
}

func (r stashRepositoryImpl) AddTransition(
	ctx context.Context, t *domain.Transition, a *domain.Anchor,
) error {
	record := transitionRecord{
		NodeID:     t.ID().String(),
		ContractID: t.ContractID.String(),
		Transition: t.Encode(),
	}
	if a != nil {
		record.Anchor = a.Encode()
	}
	if err := r.insert(ctx, record.NodeID, &record); err != nil {
		if err == badgerhold.ErrKeyExists {
			if a != nil {
				return r.AnchorTransition(ctx, t.ID(), a)
			}
			return nil
		}
		return err
	}
	return nil
}

func (r stashRepositoryImpl) AnchorTransition(
	ctx context.Context, id domain.NodeID, a *domain.Anchor,
) error {
	var record transitionRecord
	if err := r.get(ctx, id.String(), &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return domain.ErrTransitionNotFound
		}
		return err
	}
	record.Anchor = a.Encode()
	return r.update(ctx, record.NodeID, &record)
}

func (r stashRepositoryImpl) GetTransition(
	ctx context.Context, id domain.NodeID,
) (*domain.Transition, *domain.Anchor, error) {
	var record transitionRecord
	if err := r.get(ctx, id.String(), &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil, domain.ErrTransitionNotFound
		}
		return nil, nil, err
	}
	return decodeTransitionRecord(record)
}

func (r stashRepositoryImpl) HasTransition(
	ctx context.Context, id domain.NodeID,
) (bool, error) {
	var record transitionRecord
	if err := r.get(ctx, id.String(), &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r stashRepositoryImpl) MarkSealClosed(
	ctx context.Context, seal domain.SecretSeal, by domain.NodeID,
) error {
	record := sealRecord{SecretSeal: seal.String(), ClosedBy: by.String()}
	if err := r.insert(ctx, record.SecretSeal, &record); err != nil {
		if err == badgerhold.ErrKeyExists {
			return nil
		}
		return err
	}
	return nil
}

func (r stashRepositoryImpl) IsSealClosed(
	ctx context.Context, seal domain.SecretSeal,
) (bool, error) {
	var record sealRecord
	if err := r.get(ctx, seal.String(), &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r stashRepositoryImpl) AddOwnedSeal(
	ctx context.Context, owned domain.OwnedSeal,
) error {
	record := ownedSealRecord{
		SecretSeal: owned.Reveal.Conceal().String(),
		ContractID: owned.ContractID.String(),
		TxID:       owned.Reveal.TxID.String(),
		Vout:       owned.Reveal.Vout,
		Blinding:   owned.Reveal.Blinding,
		Value:      owned.Value,
		CreatedBy:  owned.CreatedBy.String(),
		Spent:      owned.Spent,
	}
	if err := r.insert(ctx, record.SecretSeal, &record); err != nil {
		if err == badgerhold.ErrKeyExists {
			return nil
		}
		return err
	}
	return nil
}

func (r stashRepositoryImpl) MarkOwnedSealSpent(
	ctx context.Context, seal domain.SecretSeal,
) error {
	var record ownedSealRecord
	if err := r.get(ctx, seal.String(), &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return domain.ErrSealNotFound
		}
		return err
	}
	record.Spent = true
	return r.update(ctx, record.SecretSeal, &record)
}

func (r stashRepositoryImpl) GetOwnedSeal(
	ctx context.Context, seal domain.SecretSeal,
) (*domain.OwnedSeal, error) {
	var record ownedSealRecord
	if err := r.get(ctx, seal.String(), &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrSealNotFound
		}
		return nil, err
	}
	return decodeOwnedSealRecord(record)
}

func (r stashRepositoryImpl) ListOwnedSeals(
	ctx context.Context, id domain.ContractID,
) ([]domain.OwnedSeal, error) {
	var records []ownedSealRecord
	query := badgerhold.Where("ContractID").Eq(id.String())
	if err := r.find(ctx, &records, query); err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].SecretSeal < records[j].SecretSeal
	})

	owned := make([]domain.OwnedSeal, 0, len(records))
	for _, record := range records {
		o, err := decodeOwnedSealRecord(record)
		if err != nil {
			return nil, err
		}
		owned = append(owned, *o)
	}
	return owned, nil
}

func decodeTransitionRecord(
	record transitionRecord,
) (*domain.Transition, *domain.Anchor, error) {
	transition, err := domain.DecodeTransition(record.Transition)
	if err != nil {
		return nil, nil, err
	}
	var anchor *domain.Anchor
	if len(record.Anchor) > 0 {
		if anchor, err = domain.DecodeAnchor(record.Anchor); err != nil {
			return nil, nil, err
		}
	}
	return transition, anchor, nil
}

func decodeOwnedSealRecord(record ownedSealRecord) (*domain.OwnedSeal, error) {
	contractID, err := domain.ContractIDFromString(record.ContractID)
	if err != nil {
		return nil, err
	}
	createdBy, err := domain.NodeIDFromString(record.CreatedBy)
	if err != nil {
		return nil, err
	}
	outpoint, err := domain.NewSealFromString(
		record.TxID + ":" + strconv.FormatUint(uint64(record.Vout), 10),
	)
	if err != nil {
		return nil, err
	}
	return &domain.OwnedSeal{
		ContractID: contractID,
		Reveal: domain.RevealedSeal{
			Seal:     *outpoint,
			Blinding: record.Blinding,
		},
		Value:     record.Value,
		CreatedBy: createdBy,
		Spent:     record.Spent,
	}, nil
}
