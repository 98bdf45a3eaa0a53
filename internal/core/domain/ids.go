package domain

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// ContractID is the content hash of a contract genesis. It identifies the
// contract across all parties and never changes.
type ContractID chainhash.Hash

func (id ContractID) String() string {
	return hex.EncodeToString(id[:])
}

// ContractIDFromString parses the hex form produced by String.
func ContractIDFromString(str string) (ContractID, error) {
	var id ContractID
	b, err := hex.DecodeString(str)
	if err != nil || len(b) != chainhash.HashSize {
		return id, ErrContractNotFound
	}
	copy(id[:], b)
	return id, nil
}

// NodeID is the content hash of a state transition. Transitions are
// immutable, so the id doubles as the edge reference inside the graph.
// The zero NodeID refers to the contract genesis.
type NodeID chainhash.Hash

func (id NodeID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether the id refers to the genesis.
func (id NodeID) IsZero() bool {
	return id == NodeID{}
}

// NodeIDFromString parses the hex form produced by String.
func NodeIDFromString(str string) (NodeID, error) {
	var id NodeID
	b, err := hex.DecodeString(str)
	if err != nil || len(b) != chainhash.HashSize {
		return id, ErrTransitionNotFound
	}
	copy(id[:], b)
	return id, nil
}
