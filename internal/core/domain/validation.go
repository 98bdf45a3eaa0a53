package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// LedgerResolver is the boundary to the base-ledger lookup collaborator.
// It reports whether the anchor transaction is confirmed and the value it
// commits to. ErrAnchorNotFound means the ledger does not know the
// transaction, which the engine treats as pending, not as a hard failure.
type LedgerResolver interface {
	ResolveAnchor(ctx context.Context, a Anchor) (confirmed bool, committed chainhash.Hash, err error)
}

// SealIndex is the slice of the stash the validator reads: which seals are
// closed and which transitions are already accepted.
type SealIndex interface {
	IsSealClosed(ctx context.Context, seal SecretSeal) (bool, error)
	HasTransition(ctx context.Context, id NodeID) (bool, error)
}

// StagedNode is a validated consignment node ready to be committed to the
// stash. Known nodes were already accepted earlier and need no
// re-persisting; replaying their state is still required to feed the
// schema checks of their descendants.
type StagedNode struct {
	ID         NodeID
	Transition *Transition
	Anchor     *Anchor
	Known      bool
}

// ValidateConsignment replays a consignment node by node against the seal
// index and the base ledger and returns the nodes to persist. It is a pure
// function of (stash state, consignment): no side effect happens here, so
// aborting at any node is always safe. On the first failing node the whole
// consignment is rejected with a ValidationError naming it.
func ValidateConsignment(
	ctx context.Context, c *Consignment, ledger LedgerResolver, index SealIndex,
) ([]*StagedNode, error) {
	if err := c.VerifyStructure(); err != nil {
		return nil, &ValidationError{Err: err}
	}
	if err := c.Genesis.VerifyIssuerSig(); err != nil {
		return nil, &ValidationError{Err: fmt.Errorf("%w: %v", ErrMalformedConsignment, err)}
	}
	schema, ok := SchemaForKind(c.Genesis.Schema)
	if !ok {
		return nil, &ValidationError{Err: fmt.Errorf(
			"%w: no validator registered for schema %s",
			ErrSchemaViolation, c.Genesis.Schema,
		)}
	}
	if err := schema.ValidateGenesis(c.Genesis); err != nil {
		return nil, &ValidationError{Err: err}
	}

	// available tracks every seal opened so far and the state assigned to
	// it; consuming a seal moves it to spent. Both maps are scoped to this
	// validation run.
	available := make(map[SecretSeal]uint64)
	spent := make(map[SecretSeal]struct{})
	for _, a := range c.Genesis.Allocations {
		available[a.Seal] = a.Value
	}

	staged := make([]*StagedNode, 0, len(c.Nodes))
	for _, node := range c.Nodes {
		t := node.Transition
		id := t.ID()

		known, err := index.HasTransition(ctx, id)
		if err != nil {
			return nil, err
		}
		if !known {
			if err := validateNode(ctx, t, id, node.Anchor, ledger, index, available, spent); err != nil {
				return nil, err
			}
		}

		// Replay the state movement so descendants see the right inputs.
		inputs := make([]StateAssignment, 0, len(t.Inputs))
		for _, in := range t.Inputs {
			value, ok := available[in]
			if !ok {
				if _, wasSpent := spent[in]; wasSpent {
					return nil, &ValidationError{Node: id, Err: ErrSealAlreadyClosed}
				}
				return nil, &ValidationError{Node: id, Err: fmt.Errorf(
					"%w: input seal %s never opened", ErrMalformedConsignment, in,
				)}
			}
			inputs = append(inputs, StateAssignment{Seal: in, Value: value})
			delete(available, in)
			spent[in] = struct{}{}
		}
		for _, out := range t.Outputs {
			if _, ok := available[out.Seal]; ok {
				return nil, &ValidationError{Node: id, Err: fmt.Errorf(
					"%w: output seal %s opened twice", ErrMalformedConsignment, out.Seal,
				)}
			}
			if _, ok := spent[out.Seal]; ok {
				return nil, &ValidationError{Node: id, Err: fmt.Errorf(
					"%w: output seal %s was already consumed", ErrMalformedConsignment, out.Seal,
				)}
			}
			available[out.Seal] = out.Value
		}

		if !known {
			if err := schema.ValidateTransition(inputs, t.Outputs); err != nil {
				return nil, &ValidationError{Node: id, Err: err}
			}
		}

		staged = append(staged, &StagedNode{
			ID: id, Transition: t, Anchor: node.Anchor, Known: known,
		})
	}
	return staged, nil
}

// validateNode runs the per-node checks that only apply to transitions not
// yet in the stash: anchor confirmation, commitment equality and seal
// closure.
func validateNode(
	ctx context.Context, t *Transition, id NodeID, anchor *Anchor,
	ledger LedgerResolver, index SealIndex,
	available map[SecretSeal]uint64, spent map[SecretSeal]struct{},
) error {
	if anchor == nil {
		return &ValidationError{Node: id, Err: ErrPendingAnchor}
	}

	confirmed, committed, err := ledger.ResolveAnchor(ctx, *anchor)
	if err != nil {
		if errors.Is(err, ErrAnchorNotFound) {
			return &ValidationError{Node: id, Err: ErrPendingAnchor}
		}
		return err
	}
	if !confirmed {
		return &ValidationError{Node: id, Err: ErrPendingAnchor}
	}
	if !anchor.VerifyCommitment(DeriveCommitment(t), committed) {
		return &ValidationError{Node: id, Err: ErrCommitmentMismatch}
	}

	for _, in := range t.Inputs {
		closed, err := index.IsSealClosed(ctx, in)
		if err != nil {
			return err
		}
		if closed {
			return &ValidationError{Node: id, Err: ErrSealAlreadyClosed}
		}
	}
	return nil
}
