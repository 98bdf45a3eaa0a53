package domain

import (
	"fmt"
)

// consignmentMagic prefixes the consignment wire blob.
var consignmentMagic = [4]byte{'S', 'T', 'C', '1'}

// ConsignmentNode is one entry of a consignment: a transition plus the
// anchor binding it to the base ledger. A nil anchor marks a pending
// transition, only allowed when the builder was told to export them.
type ConsignmentNode struct {
	Transition *Transition
	Anchor     *Anchor
}

// Consignment is the self-contained bundle of proofs one party hands to
// another to let it re-validate a transfer from scratch: the genesis, the
// full path(s) of transitions from genesis to the transfer target in
// root-first order, and the blinding factors the recipient is entitled to
// learn. Transient by design: built per transfer, persisted only by the
// receiver and only after successful validation.
type Consignment struct {
	Genesis *Genesis
	Nodes   []ConsignmentNode
	Reveals []RevealedSeal
}

// BuildConsignment walks the graph from the target back to genesis and
// packages the minimal node set a counterparty needs, root-first. Fails
// with ErrIncompleteHistory when an ancestor is missing, or when one is
// still unanchored and pending transfers were not allowed.
func BuildConsignment(
	g *Graph, target NodeID, reveals []RevealedSeal, allowPending bool,
) (*Consignment, error) {
	history, err := g.History(target)
	if err != nil {
		return nil, err
	}

	nodes := make([]ConsignmentNode, 0, len(history))
	for _, id := range history {
		transition, anchor, _ := g.Node(id)
		if anchor == nil && !allowPending {
			return nil, fmt.Errorf(
				"%w: transition %s is not anchored yet", ErrIncompleteHistory, id,
			)
		}
		nodes = append(nodes, ConsignmentNode{Transition: transition, Anchor: anchor})
	}

	return &Consignment{
		Genesis: g.Genesis(),
		Nodes:   nodes,
		Reveals: reveals,
	}, nil
}

// Target returns the transition the consignment proves the transfer of,
// by construction the last node.
func (c *Consignment) Target() *Transition {
	if len(c.Nodes) == 0 {
		return nil
	}
	return c.Nodes[len(c.Nodes)-1].Transition
}

// VerifyStructure re-checks what the builder guarantees, since inbound
// consignments are adversarial input: a present genesis, at least one
// node, no duplicated nodes, all nodes bound to the genesis contract and
// every node appearing after all of its predecessors.
func (c *Consignment) VerifyStructure() error {
	if c.Genesis == nil {
		return fmt.Errorf("%w: missing genesis", ErrMalformedConsignment)
	}
	if len(c.Nodes) == 0 {
		return fmt.Errorf("%w: no transitions", ErrMalformedConsignment)
	}
	contractID := c.Genesis.ContractID()

	seen := make(map[NodeID]struct{}, len(c.Nodes))
	for _, node := range c.Nodes {
		if node.Transition == nil {
			return fmt.Errorf("%w: empty node", ErrMalformedConsignment)
		}
		id := node.Transition.ID()
		if node.Transition.ContractID != contractID {
			return fmt.Errorf(
				"%w: node %s belongs to another contract", ErrMalformedConsignment, id,
			)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf(
				"%w: node %s delivered twice", ErrMalformedConsignment, id,
			)
		}
		for _, prev := range node.Transition.Prev {
			if _, ok := seen[prev]; !ok {
				return fmt.Errorf(
					"%w: node %s delivered before its predecessor %s",
					ErrMalformedConsignment, id, prev,
				)
			}
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Encode returns the canonical wire blob carried by the transport.
func (c *Consignment) Encode() []byte {
	s := &serializer{}
	s.putBytes(consignmentMagic[:])
	s.putBytes32(c.Genesis.Encode())
	s.putUint16(uint16(len(c.Nodes)))
	for _, node := range c.Nodes {
		s.putBytes32(node.Transition.Encode())
		if node.Anchor != nil {
			s.putUint8(1)
			s.putBytes32(node.Anchor.Encode())
		} else {
			s.putUint8(0)
		}
	}
	s.putUint16(uint16(len(c.Reveals)))
	for _, r := range c.Reveals {
		s.putHash(r.TxID)
		s.putUint32(r.Vout)
		s.putUint64(r.Blinding)
	}
	return s.bytes()
}

// DecodeConsignment parses a wire blob. Every structural defect is
// reported as ErrMalformedConsignment.
func DecodeConsignment(b []byte) (*Consignment, error) {
	d := newDeserializer(b)
	malformed := func(err error) error {
		return fmt.Errorf("%w: %v", ErrMalformedConsignment, err)
	}

	magic, err := d.bytes()
	if err != nil {
		return nil, malformed(err)
	}
	if len(magic) != len(consignmentMagic) ||
		string(magic) != string(consignmentMagic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrMalformedConsignment)
	}

	c := &Consignment{}
	genesisBytes, err := d.bytes32()
	if err != nil {
		return nil, malformed(err)
	}
	if c.Genesis, err = DecodeGenesis(genesisBytes); err != nil {
		return nil, malformed(err)
	}

	count, err := d.uint16()
	if err != nil {
		return nil, malformed(err)
	}
	c.Nodes = make([]ConsignmentNode, count)
	for i := range c.Nodes {
		transitionBytes, err := d.bytes32()
		if err != nil {
			return nil, malformed(err)
		}
		if c.Nodes[i].Transition, err = DecodeTransition(transitionBytes); err != nil {
			return nil, malformed(err)
		}
		anchored, err := d.uint8()
		if err != nil {
			return nil, malformed(err)
		}
		if anchored == 1 {
			anchorBytes, err := d.bytes32()
			if err != nil {
				return nil, malformed(err)
			}
			if c.Nodes[i].Anchor, err = DecodeAnchor(anchorBytes); err != nil {
				return nil, malformed(err)
			}
		} else if anchored != 0 {
			return nil, fmt.Errorf("%w: bad anchor flag", ErrMalformedConsignment)
		}
	}

	if count, err = d.uint16(); err != nil {
		return nil, malformed(err)
	}
	c.Reveals = make([]RevealedSeal, count)
	for i := range c.Reveals {
		if c.Reveals[i].TxID, err = d.hash(); err != nil {
			return nil, malformed(err)
		}
		if c.Reveals[i].Vout, err = d.uint32(); err != nil {
			return nil, malformed(err)
		}
		if c.Reveals[i].Blinding, err = d.uint64(); err != nil {
			return nil, malformed(err)
		}
	}

	if err := d.finish(); err != nil {
		return nil, malformed(err)
	}
	return c, nil
}
