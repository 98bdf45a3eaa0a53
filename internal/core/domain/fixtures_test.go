package domain

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

func testHash(b byte) chainhash.Hash {
	var h chainhash.Hash
	for i := range h {
		h[i] = b
	}
	return h
}

func testReveal(b byte) RevealedSeal {
	return RevealedSeal{
		Seal:     Seal{TxID: testHash(b), Vout: uint32(b)},
		Blinding: uint64(b)*1000 + 7,
	}
}

// newTestGenesis returns a signed fungible genesis allocating the given
// state. Supply is derived from the allocations.
func newTestGenesis(t *testing.T, allocations ...StateAssignment) *Genesis {
	t.Helper()

	var supply uint64
	for _, a := range allocations {
		supply += a.Value
	}
	g, err := NewGenesis(SchemaFungible, "TEST", "Test Asset", 0, supply, allocations)
	require.NoError(t, err)

	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	g.Sign(priv)
	return g
}

func mustTransition(
	t *testing.T, contractID ContractID, prev []NodeID,
	inputs []SecretSeal, outputs []StateAssignment,
) *Transition {
	t.Helper()
	transition, err := NewTransition(contractID, prev, inputs, outputs)
	require.NoError(t, err)
	return transition
}

// anchorFor builds an anchor whose inclusion path folds the transition
// commitment up to the returned committed value.
func anchorFor(t *testing.T, transition *Transition, txSeed byte) (*Anchor, chainhash.Hash) {
	t.Helper()
	anchor := &Anchor{
		TxID:        testHash(txSeed),
		Vout:        0,
		MerklePath:  []chainhash.Hash{testHash(txSeed + 1)},
		MerkleIndex: 0,
	}
	committed := anchor.MerkleRoot(DeriveCommitment(transition))
	return anchor, committed
}
