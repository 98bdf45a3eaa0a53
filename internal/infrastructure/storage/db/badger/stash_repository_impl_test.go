package dbbadger

import (
	"context"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stash-network/stash-daemon/internal/core/domain"
	"github.com/stash-network/stash-daemon/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

// newTestRepoManager opens a throwaway in-memory badger store.
func newTestRepoManager(t *testing.T) ports.RepoManager {
	t.Helper()
	repoManager, err := NewRepoManager("", nil)
	require.NoError(t, err)
	t.Cleanup(repoManager.Close)
	return repoManager
}

func testHash(b byte) chainhash.Hash {
	var h chainhash.Hash
	for i := range h {
		h[i] = b
	}
	return h
}

func testReveal(b byte) domain.RevealedSeal {
	return domain.RevealedSeal{
		Seal:     domain.Seal{TxID: testHash(b), Vout: uint32(b)},
		Blinding: uint64(b),
	}
}

func newTestGenesis(t *testing.T, ticker string) *domain.Genesis {
	t.Helper()
	g, err := domain.NewGenesis(
		domain.SchemaFungible, ticker, "test asset", 0, 100,
		[]domain.StateAssignment{{Seal: testReveal(1).Conceal(), Value: 100}},
	)
	require.NoError(t, err)
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	g.Sign(priv)
	return g
}

func newTestTransition(t *testing.T, contractID domain.ContractID) *domain.Transition {
	t.Helper()
	transition, err := domain.NewTransition(
		contractID, []domain.NodeID{},
		[]domain.SecretSeal{testReveal(1).Conceal()},
		[]domain.StateAssignment{{Seal: testReveal(2).Conceal(), Value: 100}},
	)
	require.NoError(t, err)
	return transition
}

func TestGenesisRoundTrip(t *testing.T) {
	repo := newTestRepoManager(t).StashRepository()
	genesis := newTestGenesis(t, "AAA")

	_, err := repo.GetGenesis(ctx, genesis.ContractID())
	assert.ErrorIs(t, err, domain.ErrContractNotFound)

	require.NoError(t, repo.AddGenesis(ctx, genesis))
	require.NoError(t, repo.AddGenesis(ctx, genesis))

	got, err := repo.GetGenesis(ctx, genesis.ContractID())
	require.NoError(t, err)
	assert.Equal(t, genesis.ContractID(), got.ContractID())
	assert.Equal(t, genesis.Ticker, got.Ticker)
	require.NoError(t, got.VerifyIssuerSig())
}

func TestListContracts(t *testing.T) {
	repo := newTestRepoManager(t).StashRepository()
	a := newTestGenesis(t, "AAA")
	b := newTestGenesis(t, "BBB")
	require.NoError(t, repo.AddGenesis(ctx, a))
	require.NoError(t, repo.AddGenesis(ctx, b))

	contracts, err := repo.ListContracts(ctx)
	require.NoError(t, err)
	assert.Len(t, contracts, 2)
	assert.Contains(t, contracts, a.ContractID())
	assert.Contains(t, contracts, b.ContractID())
}

func TestTransitionAnchorUpgrade(t *testing.T) {
	repo := newTestRepoManager(t).StashRepository()
	genesis := newTestGenesis(t, "AAA")
	require.NoError(t, repo.AddGenesis(ctx, genesis))

	transition := newTestTransition(t, genesis.ContractID())
	require.NoError(t, repo.AddTransition(ctx, transition, nil))

	got, anchor, err := repo.GetTransition(ctx, transition.ID())
	require.NoError(t, err)
	assert.Equal(t, transition.ID(), got.ID())
	assert.Nil(t, anchor)

	a := &domain.Anchor{
		TxID:        testHash(9),
		Vout:        1,
		MerklePath:  []chainhash.Hash{testHash(8)},
		MerkleIndex: 1,
	}
	require.NoError(t, repo.AddTransition(ctx, transition, a))
	_, anchor, err = repo.GetTransition(ctx, transition.ID())
	require.NoError(t, err)
	assert.Equal(t, a, anchor)

	has, err := repo.HasTransition(ctx, transition.ID())
	require.NoError(t, err)
	assert.True(t, has)
	has, err = repo.HasTransition(ctx, domain.NodeID(testHash(0xaa)))
	require.NoError(t, err)
	assert.False(t, has)

	err = repo.AnchorTransition(ctx, domain.NodeID(testHash(0xaa)), a)
	assert.ErrorIs(t, err, domain.ErrTransitionNotFound)
}

func TestOwnedSealsByContract(t *testing.T) {
	repo := newTestRepoManager(t).StashRepository()
	genesis := newTestGenesis(t, "AAA")
	other := newTestGenesis(t, "BBB")
	require.NoError(t, repo.AddGenesis(ctx, genesis))
	require.NoError(t, repo.AddGenesis(ctx, other))

	require.NoError(t, repo.AddOwnedSeal(ctx, domain.OwnedSeal{
		ContractID: genesis.ContractID(), Reveal: testReveal(1), Value: 100,
	}))
	require.NoError(t, repo.AddOwnedSeal(ctx, domain.OwnedSeal{
		ContractID: other.ContractID(), Reveal: testReveal(2), Value: 50,
	}))

	owned, err := repo.ListOwnedSeals(ctx, genesis.ContractID())
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, testReveal(1), owned[0].Reveal)
	assert.Equal(t, uint64(100), owned[0].Value)

	require.NoError(t, repo.MarkOwnedSealSpent(ctx, testReveal(1).Conceal()))
	got, err := repo.GetOwnedSeal(ctx, testReveal(1).Conceal())
	require.NoError(t, err)
	assert.True(t, got.Spent)

	_, err = repo.GetOwnedSeal(ctx, testReveal(9).Conceal())
	assert.ErrorIs(t, err, domain.ErrSealNotFound)
}

func TestSealClosure(t *testing.T) {
	repo := newTestRepoManager(t).StashRepository()

	seal := testReveal(1).Conceal()
	closed, err := repo.IsSealClosed(ctx, seal)
	require.NoError(t, err)
	assert.False(t, closed)

	by := domain.NodeID(testHash(2))
	require.NoError(t, repo.MarkSealClosed(ctx, seal, by))
	require.NoError(t, repo.MarkSealClosed(ctx, seal, by))
	closed, err = repo.IsSealClosed(ctx, seal)
	require.NoError(t, err)
	assert.True(t, closed)
}

func TestGetStashAssemblesGraph(t *testing.T) {
	repo := newTestRepoManager(t).StashRepository()
	genesis := newTestGenesis(t, "AAA")
	contractID := genesis.ContractID()
	require.NoError(t, repo.AddGenesis(ctx, genesis))

	transition := newTestTransition(t, contractID)
	require.NoError(t, repo.AddTransition(ctx, transition, nil))
	require.NoError(t, repo.AddOwnedSeal(ctx, domain.OwnedSeal{
		ContractID: contractID,
		Reveal:     testReveal(2),
		Value:      100,
		CreatedBy:  transition.ID(),
	}))

	stash, err := repo.GetStash(ctx, contractID)
	require.NoError(t, err)
	assert.Equal(t, contractID, stash.Genesis.ContractID())
	assert.Len(t, stash.Graph.Nodes(), 1)
	require.Len(t, stash.Owned, 1)
	assert.Equal(t, uint64(100), stash.Balance())
}

func TestRunTransactionRollsBackOnError(t *testing.T) {
	repoManager := newTestRepoManager(t)
	genesis := newTestGenesis(t, "AAA")
	boom := errors.New("boom")

	_, err := repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			repo := repoManager.StashRepository()
			if err := repo.AddGenesis(ctx, genesis); err != nil {
				return nil, err
			}
			if _, err := repo.GetGenesis(ctx, genesis.ContractID()); err != nil {
				return nil, err
			}
			return nil, boom
		},
	)
	assert.ErrorIs(t, err, boom)

	_, err = repoManager.StashRepository().GetGenesis(ctx, genesis.ContractID())
	assert.ErrorIs(t, err, domain.ErrContractNotFound)
}
