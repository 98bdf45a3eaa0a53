package domain

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenesisRejectsBadMetadata(t *testing.T) {
	alloc := []StateAssignment{{Seal: testReveal(1).Conceal(), Value: 100}}

	tests := []struct {
		name        string
		ticker      string
		assetName   string
		precision   uint8
		allocations []StateAssignment
		expectedErr error
	}{
		{"lowercase ticker", "usd", "ok", 0, alloc, ErrGenesisInvalidTicker},
		{"empty ticker", "", "ok", 0, alloc, ErrGenesisInvalidTicker},
		{"too long ticker", "TOOLONGTICKER", "ok", 0, alloc, ErrGenesisInvalidTicker},
		{"empty name", "USD", "", 0, alloc, ErrGenesisInvalidName},
		{"too long name", "USD", strings.Repeat("x", 33), 0, alloc, ErrGenesisInvalidName},
		{"precision too high", "USD", "ok", 9, alloc, ErrGenesisInvalidPrecision},
		{"no allocations", "USD", "ok", 0, nil, ErrGenesisNoAllocations},
		{
			"duplicated seal", "USD", "ok", 0,
			append(alloc, alloc[0]), ErrTransitionDuplicatedSeal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGenesis(
				SchemaFungible, tt.ticker, tt.assetName, tt.precision, 100,
				tt.allocations,
			)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestGenesisSignAndVerify(t *testing.T) {
	g, err := NewGenesis(
		SchemaFungible, "TEST", "Test Asset", 2, 100,
		[]StateAssignment{{Seal: testReveal(1).Conceal(), Value: 100}},
	)
	require.NoError(t, err)

	assert.ErrorIs(t, g.VerifyIssuerSig(), ErrGenesisNotSigned)

	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	g.Sign(priv)
	require.NoError(t, g.VerifyIssuerSig())

	// The contract id covers every field, so editing one invalidates the
	// signature.
	tampered := *g
	tampered.Supply++
	assert.ErrorIs(t, tampered.VerifyIssuerSig(), ErrGenesisInvalidSignature)
}

func TestGenesisEncodeDecode(t *testing.T) {
	g := newTestGenesis(
		t,
		StateAssignment{Seal: testReveal(1).Conceal(), Value: 60},
		StateAssignment{Seal: testReveal(2).Conceal(), Value: 40},
	)

	decoded, err := DecodeGenesis(g.Encode())
	require.NoError(t, err)
	assert.Equal(t, g, decoded)
	assert.Equal(t, g.ContractID(), decoded.ContractID())
	require.NoError(t, decoded.VerifyIssuerSig())

	_, err = DecodeGenesis(append(g.Encode(), 0x00))
	assert.Error(t, err)
	_, err = DecodeGenesis(g.Encode()[:10])
	assert.Error(t, err)
}

func TestContractIDCoversMetadata(t *testing.T) {
	alloc := []StateAssignment{{Seal: testReveal(1).Conceal(), Value: 100}}
	a, err := NewGenesis(SchemaFungible, "AAA", "asset", 0, 100, alloc)
	require.NoError(t, err)
	b, err := NewGenesis(SchemaFungible, "BBB", "asset", 0, 100, alloc)
	require.NoError(t, err)

	assert.NotEqual(t, a.ContractID(), b.ContractID())
}
