package domain

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// commitmentTag separates seal commitments from every other tagged hash of
// the protocol.
var commitmentTag = []byte("stash/commitment/v1")

// DeriveCommitment computes the value tweaked into a base-ledger output to
// bind the transition to the seals it closes. The canonical transition
// encoding covers the closed seals, so the commitment is a deterministic,
// collision-resistant function of both.
//
// Total over well-formed transitions: constructors reject anything Encode
// cannot represent.
func DeriveCommitment(t *Transition) chainhash.Hash {
	return *chainhash.TaggedHash(commitmentTag, t.Encode())
}
