package domain

import (
	"regexp"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

var (
	genesisTag  = []byte("stash/genesis/v1")
	tickerRegex = regexp.MustCompile(`^[A-Z0-9]{1,8}$`)
)

// StateAssignment binds a schema-defined state value to the seal that owns
// it. For fungible schemas Value is an amount in atomic units, for
// collectible schemas it is the token id.
type StateAssignment struct {
	Seal  SecretSeal
	Value uint64
}

// Genesis is the immutable root node of a contract. It fixes the asset
// metadata, the total supply and the seals owning the initial state. Its
// content hash is the contract id.
type Genesis struct {
	Schema      SchemaKind
	Ticker      string
	Name        string
	Precision   uint8
	Supply      uint64
	Allocations []StateAssignment
	IssuerKey   []byte
	IssuerSig   []byte
}

// NewGenesis validates the asset metadata and returns an unsigned genesis.
// Supply must equal what the allocations assign; the schema validator
// checks that relation, the constructor only checks well-formedness.
func NewGenesis(
	schema SchemaKind, ticker, name string, precision uint8,
	supply uint64, allocations []StateAssignment,
) (*Genesis, error) {
	if !tickerRegex.MatchString(ticker) {
		return nil, ErrGenesisInvalidTicker
	}
	if len(name) < 1 || len(name) > 32 {
		return nil, ErrGenesisInvalidName
	}
	if precision > 8 {
		return nil, ErrGenesisInvalidPrecision
	}
	if len(allocations) < 1 || len(allocations) > maxListLen {
		return nil, ErrGenesisNoAllocations
	}
	seen := make(map[SecretSeal]struct{}, len(allocations))
	for _, a := range allocations {
		if _, ok := seen[a.Seal]; ok {
			return nil, ErrTransitionDuplicatedSeal
		}
		seen[a.Seal] = struct{}{}
	}
	return &Genesis{
		Schema:      schema,
		Ticker:      ticker,
		Name:        name,
		Precision:   precision,
		Supply:      supply,
		Allocations: allocations,
	}, nil
}

// encodeUnsigned writes every field covered by the contract id, ie. all of
// them but the signature.
func (g *Genesis) encodeUnsigned(s *serializer) {
	s.putUint8(uint8(g.Schema))
	s.putString(g.Ticker)
	s.putString(g.Name)
	s.putUint8(g.Precision)
	s.putUint64(g.Supply)
	s.putUint16(uint16(len(g.Allocations)))
	for _, a := range g.Allocations {
		s.putHash(chainhash.Hash(a.Seal))
		s.putUint64(a.Value)
	}
	s.putBytes(g.IssuerKey)
}

// ContractID returns the content hash identifying the contract.
func (g *Genesis) ContractID() ContractID {
	s := &serializer{}
	g.encodeUnsigned(s)
	return ContractID(*chainhash.TaggedHash(genesisTag, s.bytes()))
}

// Sign sets the issuer key and signs the contract id with it. Must be
// called once, after which the genesis is immutable.
func (g *Genesis) Sign(priv *btcec.PrivateKey) {
	g.IssuerKey = priv.PubKey().SerializeCompressed()
	id := g.ContractID()
	g.IssuerSig = ecdsa.Sign(priv, id[:]).Serialize()
}

// VerifyIssuerSig checks the issuer signature against the contract id.
func (g *Genesis) VerifyIssuerSig() error {
	if len(g.IssuerKey) == 0 || len(g.IssuerSig) == 0 {
		return ErrGenesisNotSigned
	}
	pub, err := btcec.ParsePubKey(g.IssuerKey)
	if err != nil {
		return ErrGenesisInvalidSignature
	}
	sig, err := ecdsa.ParseDERSignature(g.IssuerSig)
	if err != nil {
		return ErrGenesisInvalidSignature
	}
	id := g.ContractID()
	if !sig.Verify(id[:], pub) {
		return ErrGenesisInvalidSignature
	}
	return nil
}

// Encode returns the canonical binary form including the signature.
func (g *Genesis) Encode() []byte {
	s := &serializer{}
	g.encodeUnsigned(s)
	s.putBytes(g.IssuerSig)
	return s.bytes()
}

func decodeGenesis(d *deserializer) (*Genesis, error) {
	g := &Genesis{}
	schema, err := d.uint8()
	if err != nil {
		return nil, err
	}
	g.Schema = SchemaKind(schema)
	if g.Ticker, err = d.string(); err != nil {
		return nil, err
	}
	if g.Name, err = d.string(); err != nil {
		return nil, err
	}
	if g.Precision, err = d.uint8(); err != nil {
		return nil, err
	}
	if g.Supply, err = d.uint64(); err != nil {
		return nil, err
	}
	count, err := d.uint16()
	if err != nil {
		return nil, err
	}
	g.Allocations = make([]StateAssignment, count)
	for i := range g.Allocations {
		h, err := d.hash()
		if err != nil {
			return nil, err
		}
		v, err := d.uint64()
		if err != nil {
			return nil, err
		}
		g.Allocations[i] = StateAssignment{Seal: SecretSeal(h), Value: v}
	}
	if g.IssuerKey, err = d.bytes(); err != nil {
		return nil, err
	}
	if g.IssuerSig, err = d.bytes(); err != nil {
		return nil, err
	}
	return g, nil
}

// DecodeGenesis parses the canonical binary form produced by Encode.
func DecodeGenesis(b []byte) (*Genesis, error) {
	d := newDeserializer(b)
	g, err := decodeGenesis(d)
	if err != nil {
		return nil, err
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return g, nil
}
