package invoice

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stash-network/stash-daemon/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInvoice() Invoice {
	var txid chainhash.Hash
	for i := range txid {
		txid[i] = 0xab
	}
	reveal := domain.RevealedSeal{
		Seal:     domain.Seal{TxID: txid, Vout: 1},
		Blinding: 42,
	}
	var contractID domain.ContractID
	for i := range contractID {
		contractID[i] = 0xcd
	}
	return Invoice{ContractID: contractID, Amount: 400, Seal: reveal.Conceal()}
}

func TestInvoiceRoundTrip(t *testing.T) {
	inv := testInvoice()
	parsed, err := Parse(inv.String())
	require.NoError(t, err)
	assert.Equal(t, inv, *parsed)
}

func TestParseRejectsGarbage(t *testing.T) {
	inv := testInvoice()
	invalid := []string{
		"",
		"400",
		"400@deadbeef",
		"@" + inv.Seal.String() + "/" + inv.ContractID.String(),
		"-1@" + inv.Seal.String() + "/" + inv.ContractID.String(),
		"400@" + inv.Seal.String(),
		"400@" + inv.Seal.String() + "/tooshort",
		inv.String() + "x",
	}
	for _, s := range invalid {
		_, err := Parse(s)
		assert.ErrorIs(t, err, ErrInvalidInvoice, s)
	}
}

func TestAmountFromDecimalString(t *testing.T) {
	tests := []struct {
		in        string
		precision uint8
		expected  uint64
		wantErr   bool
	}{
		{"1", 0, 1, false},
		{"1", 8, 100000000, false},
		{"0.5", 1, 5, false},
		{"0.00000001", 8, 1, false},
		{"123.456", 3, 123456, false},
		{"0.1", 0, 0, true},
		{"0.001", 2, 0, true},
		{"0", 2, 0, true},
		{"-5", 2, 0, true},
		{"abc", 2, 0, true},
		{"18446744073709551616", 0, 0, true},
	}
	for _, tt := range tests {
		amount, err := AmountFromDecimalString(tt.in, tt.precision)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidAmount, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.expected, amount, tt.in)
	}
}

func TestAmountToDecimalString(t *testing.T) {
	assert.Equal(t, "1", AmountToDecimalString(1, 0))
	assert.Equal(t, "1", AmountToDecimalString(100000000, 8))
	assert.Equal(t, "0.5", AmountToDecimalString(5, 1))
	assert.Equal(t, "123.456", AmountToDecimalString(123456, 3))
}
