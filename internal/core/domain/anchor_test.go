package domain

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerkleRootEmptyPath(t *testing.T) {
	anchor := &Anchor{TxID: testHash(1)}
	leaf := testHash(2)
	assert.Equal(t, leaf, anchor.MerkleRoot(leaf))
}

func TestMerkleRootFoldsBothSides(t *testing.T) {
	left, right := testHash(1), testHash(2)

	var buf [chainhash.HashSize * 2]byte
	copy(buf[:chainhash.HashSize], left[:])
	copy(buf[chainhash.HashSize:], right[:])
	root := chainhash.DoubleHashH(buf[:])

	// The commitment sits on the left at index 0 and on the right at
	// index 1; both fold to the same root.
	fromLeft := &Anchor{MerklePath: []chainhash.Hash{right}, MerkleIndex: 0}
	assert.Equal(t, root, fromLeft.MerkleRoot(left))

	fromRight := &Anchor{MerklePath: []chainhash.Hash{left}, MerkleIndex: 1}
	assert.Equal(t, root, fromRight.MerkleRoot(right))

	assert.True(t, fromLeft.VerifyCommitment(left, root))
	assert.False(t, fromLeft.VerifyCommitment(right, root))
}

func TestAnchorEncodeDecode(t *testing.T) {
	anchor := &Anchor{
		TxID:        testHash(3),
		Vout:        2,
		MerklePath:  []chainhash.Hash{testHash(4), testHash(5)},
		MerkleIndex: 1,
	}

	decoded, err := DecodeAnchor(anchor.Encode())
	require.NoError(t, err)
	assert.Equal(t, anchor, decoded)

	_, err = DecodeAnchor(append(anchor.Encode(), 0x00))
	assert.Error(t, err)
}
