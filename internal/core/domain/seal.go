package domain

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// sealTag is the tag of the hash turning a revealed seal into its
// confidential form. Fixed by the protocol.
var sealTag = []byte("stash/seal/v1")

// Seal is a reference to an unspent output of the base ledger used as a
// single-use commitment anchor. Closing a seal invalidates it for any
// further use.
type Seal struct {
	TxID chainhash.Hash
	Vout uint32
}

// NewSealFromString parses an outpoint in "txid:vout" notation.
func NewSealFromString(s string) (*Seal, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return nil, ErrSealInvalidOutpoint
	}
	txid, err := chainhash.NewHashFromStr(parts[0])
	if err != nil {
		return nil, ErrSealInvalidOutpoint
	}
	vout, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return nil, ErrSealInvalidOutpoint
	}
	return &Seal{TxID: *txid, Vout: uint32(vout)}, nil
}

func (s Seal) String() string {
	return fmt.Sprintf("%s:%d", s.TxID.String(), s.Vout)
}

// RevealedSeal couples a seal with the blinding factor hiding it. The
// blinding factor is generated at invoice time, handed to the counterparty
// out of band and never leaves the wallet of whoever owns the seal.
type RevealedSeal struct {
	Seal
	Blinding uint64
}

// Conceal derives the confidential identifier checked for uniqueness by
// the validator. Without the blinding factor the outpoint behind it cannot
// be linked to the seal.
func (r RevealedSeal) Conceal() SecretSeal {
	var buf [44]byte
	copy(buf[:32], r.TxID[:])
	binary.LittleEndian.PutUint32(buf[32:36], r.Vout)
	binary.LittleEndian.PutUint64(buf[36:], r.Blinding)
	return SecretSeal(*chainhash.TaggedHash(sealTag, buf[:]))
}

// SecretSeal is the blinded form of a seal, the only form ever seen by
// counterparties and by the seal-closure index.
type SecretSeal chainhash.Hash

func (s SecretSeal) String() string {
	return hex.EncodeToString(s[:])
}

// SecretSealFromString parses the hex form produced by String.
func SecretSealFromString(str string) (SecretSeal, error) {
	var s SecretSeal
	b, err := hex.DecodeString(str)
	if err != nil || len(b) != chainhash.HashSize {
		return s, ErrSealInvalidSecret
	}
	copy(s[:], b)
	return s, nil
}

// NewBlinding draws a fresh blinding factor from the system entropy source.
func NewBlinding() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("generating blinding factor: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
