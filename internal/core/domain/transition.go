package domain

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

var transitionTag = []byte("stash/transition/v1")

// Transition is a node of the contract state graph. It closes the input
// seals, opens the output seals with fresh state and references the
// transitions that created its inputs. Immutable once built; its content
// hash is the node id.
type Transition struct {
	ContractID ContractID
	// Prev lists the direct predecessor transitions, deduplicated and
	// excluding the genesis (inputs allocated at genesis carry no
	// predecessor reference).
	Prev []NodeID
	// Inputs are the seals this transition closes.
	Inputs []SecretSeal
	// Outputs are the seals it opens together with their assigned state.
	Outputs []StateAssignment
}

// NewTransition validates structural well-formedness. State semantics
// (conservation etc.) are the schema engine's job, not the constructor's.
func NewTransition(
	contractID ContractID, prev []NodeID,
	inputs []SecretSeal, outputs []StateAssignment,
) (*Transition, error) {
	if len(inputs) == 0 {
		return nil, ErrTransitionNoInputs
	}
	if len(outputs) == 0 {
		return nil, ErrTransitionNoOutputs
	}
	if len(inputs) > maxListLen || len(outputs) > maxListLen ||
		len(prev) > maxListLen {
		return nil, ErrTransitionTooLarge
	}

	seen := make(map[SecretSeal]struct{}, len(inputs)+len(outputs))
	for _, in := range inputs {
		if _, ok := seen[in]; ok {
			return nil, ErrTransitionDuplicatedSeal
		}
		seen[in] = struct{}{}
	}
	for _, out := range outputs {
		if _, ok := seen[out.Seal]; ok {
			return nil, ErrTransitionDuplicatedSeal
		}
		seen[out.Seal] = struct{}{}
	}

	return &Transition{
		ContractID: contractID,
		Prev:       prev,
		Inputs:     inputs,
		Outputs:    outputs,
	}, nil
}

// Encode returns the canonical binary form of the transition.
func (t *Transition) Encode() []byte {
	s := &serializer{}
	s.putHash(chainhash.Hash(t.ContractID))
	s.putUint16(uint16(len(t.Prev)))
	for _, p := range t.Prev {
		s.putHash(chainhash.Hash(p))
	}
	s.putUint16(uint16(len(t.Inputs)))
	for _, in := range t.Inputs {
		s.putHash(chainhash.Hash(in))
	}
	s.putUint16(uint16(len(t.Outputs)))
	for _, out := range t.Outputs {
		s.putHash(chainhash.Hash(out.Seal))
		s.putUint64(out.Value)
	}
	return s.bytes()
}

// ID returns the content hash identifying the transition.
func (t *Transition) ID() NodeID {
	return NodeID(*chainhash.TaggedHash(transitionTag, t.Encode()))
}

func decodeTransition(d *deserializer) (*Transition, error) {
	t := &Transition{}
	h, err := d.hash()
	if err != nil {
		return nil, err
	}
	t.ContractID = ContractID(h)

	count, err := d.uint16()
	if err != nil {
		return nil, err
	}
	if count > 0 {
		t.Prev = make([]NodeID, count)
		for i := range t.Prev {
			if h, err = d.hash(); err != nil {
				return nil, err
			}
			t.Prev[i] = NodeID(h)
		}
	}

	if count, err = d.uint16(); err != nil {
		return nil, err
	}
	t.Inputs = make([]SecretSeal, count)
	for i := range t.Inputs {
		if h, err = d.hash(); err != nil {
			return nil, err
		}
		t.Inputs[i] = SecretSeal(h)
	}

	if count, err = d.uint16(); err != nil {
		return nil, err
	}
	t.Outputs = make([]StateAssignment, count)
	for i := range t.Outputs {
		if h, err = d.hash(); err != nil {
			return nil, err
		}
		v, err := d.uint64()
		if err != nil {
			return nil, err
		}
		t.Outputs[i] = StateAssignment{Seal: SecretSeal(h), Value: v}
	}
	return t, nil
}

// DecodeTransition parses the canonical binary form produced by Encode.
func DecodeTransition(b []byte) (*Transition, error) {
	d := newDeserializer(b)
	t, err := decodeTransition(d)
	if err != nil {
		return nil, err
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return t, nil
}
