package domain

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Anchor proves that a transition commitment is carried by a specific
// base-ledger transaction: the transaction id, the output holding the
// committed value and the inclusion path from the commitment leaf up to
// that value. A transition without an anchor is pending, not final.
type Anchor struct {
	TxID        chainhash.Hash
	Vout        uint32
	MerklePath  []chainhash.Hash
	MerkleIndex uint32
}

// MerkleRoot recomputes the committed value from the given leaf along the
// inclusion path. Bitcoin-style double-SHA256 inner nodes; the index bits
// select the side of each sibling, least significant bit first.
func (a *Anchor) MerkleRoot(leaf chainhash.Hash) chainhash.Hash {
	node := leaf
	index := a.MerkleIndex
	var buf [chainhash.HashSize * 2]byte
	for _, sibling := range a.MerklePath {
		if index&1 == 1 {
			copy(buf[:chainhash.HashSize], sibling[:])
			copy(buf[chainhash.HashSize:], node[:])
		} else {
			copy(buf[:chainhash.HashSize], node[:])
			copy(buf[chainhash.HashSize:], sibling[:])
		}
		node = chainhash.DoubleHashH(buf[:])
		index >>= 1
	}
	return node
}

// VerifyCommitment reports whether the given transition commitment folds
// up to the value committed on the base ledger.
func (a *Anchor) VerifyCommitment(commitment, committed chainhash.Hash) bool {
	return a.MerkleRoot(commitment) == committed
}

func (a *Anchor) encode(s *serializer) {
	s.putHash(a.TxID)
	s.putUint32(a.Vout)
	s.putUint32(a.MerkleIndex)
	s.putUint16(uint16(len(a.MerklePath)))
	for _, h := range a.MerklePath {
		s.putHash(h)
	}
}

// Encode returns the canonical binary form of the anchor.
func (a *Anchor) Encode() []byte {
	s := &serializer{}
	a.encode(s)
	return s.bytes()
}

func decodeAnchor(d *deserializer) (*Anchor, error) {
	a := &Anchor{}
	var err error
	if a.TxID, err = d.hash(); err != nil {
		return nil, err
	}
	if a.Vout, err = d.uint32(); err != nil {
		return nil, err
	}
	if a.MerkleIndex, err = d.uint32(); err != nil {
		return nil, err
	}
	count, err := d.uint16()
	if err != nil {
		return nil, err
	}
	a.MerklePath = make([]chainhash.Hash, count)
	for i := range a.MerklePath {
		if a.MerklePath[i], err = d.hash(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// DecodeAnchor parses the canonical binary form produced by Encode.
func DecodeAnchor(b []byte) (*Anchor, error) {
	d := newDeserializer(b)
	a, err := decodeAnchor(d)
	if err != nil {
		return nil, err
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return a, nil
}
