package invoice

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"

	"github.com/shopspring/decimal"
	"github.com/stash-network/stash-daemon/internal/core/domain"
)

var (
	// ErrInvalidInvoice ...
	ErrInvalidInvoice = errors.New("invalid invoice string")
	// ErrInvalidAmount ...
	ErrInvalidAmount = errors.New("amount is not representable with the asset precision")

	invoiceRegex = regexp.MustCompile(
		`^(?P<amount>\d+)@(?P<seal>[a-f0-9]{64})/(?P<contract>[a-f0-9]{64})$`,
	)
)

// Invoice is the payment request a receiver hands to a sender: the
// contract to move state of, the amount requested and the blinded seal the
// state must be assigned to. The blinding factor behind the seal stays
// with the receiver until accept time.
type Invoice struct {
	ContractID domain.ContractID
	Amount     uint64
	Seal       domain.SecretSeal
}

func (i Invoice) String() string {
	return fmt.Sprintf("%d@%s/%s", i.Amount, i.Seal, i.ContractID)
}

// Parse decodes the amount@seal/contract form produced by String.
func Parse(s string) (*Invoice, error) {
	m := invoiceRegex.FindStringSubmatch(s)
	if m == nil {
		return nil, ErrInvalidInvoice
	}
	var amount uint64
	if _, err := fmt.Sscanf(m[1], "%d", &amount); err != nil {
		return nil, ErrInvalidInvoice
	}
	seal, err := domain.SecretSealFromString(m[2])
	if err != nil {
		return nil, ErrInvalidInvoice
	}
	contractID, err := domain.ContractIDFromString(m[3])
	if err != nil {
		return nil, ErrInvalidInvoice
	}
	return &Invoice{ContractID: contractID, Amount: amount, Seal: seal}, nil
}

// AmountFromDecimalString converts a human-readable amount into atomic
// units given the asset precision.
func AmountFromDecimalString(s string, precision uint8) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	atomic := d.Shift(int32(precision))
	if !atomic.IsInteger() || atomic.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	bi := atomic.BigInt()
	if !bi.IsUint64() {
		return 0, ErrInvalidAmount
	}
	return bi.Uint64(), nil
}

// AmountToDecimalString renders atomic units with the asset precision.
func AmountToDecimalString(amount uint64, precision uint8) string {
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(precision))
	return d.String()
}
