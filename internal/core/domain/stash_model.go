package domain

// OwnedSeal is a seal this party controls, together with the revealed
// blinding data and the state assigned to it. Owned seals are what the
// wallet spends from when building a transfer.
type OwnedSeal struct {
	ContractID ContractID
	Reveal     RevealedSeal
	Value      uint64
	// CreatedBy is the transition that opened the seal; zero for genesis
	// allocations.
	CreatedBy NodeID
	Spent     bool
}

// Stash is the aggregate view of everything known about one contract:
// genesis, the transition graph and the seals owned locally. Persisted
// state grows append-only; historical nodes are never mutated.
type Stash struct {
	Genesis *Genesis
	Graph   *Graph
	Owned   []OwnedSeal
}

// Balance sums the state held by unspent owned seals. For fungible
// contracts this is the spendable amount in atomic units, for collectible
// contracts the number of tokens held.
func (s *Stash) Balance() uint64 {
	var total uint64
	for _, o := range s.Owned {
		if o.Spent {
			continue
		}
		if s.Genesis.Schema == SchemaCollectible {
			total++
			continue
		}
		total += o.Value
	}
	return total
}
