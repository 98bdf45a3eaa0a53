package ports

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stash-network/stash-daemon/internal/core/domain"
)

// AnchorStatus is what the base ledger knows about an anchor transaction.
type AnchorStatus struct {
	Confirmed bool
	// CommittedValue is the 32-byte value carried by the anchor output.
	CommittedValue chainhash.Hash
}

// LedgerService is the external base-ledger lookup collaborator. Lookups
// are the engine's only suspension points besides storage I/O; callers
// bound them through the context, the engine imposes no timeout of its
// own.
type LedgerService interface {
	// ResolveAnchor returns domain.ErrAnchorNotFound when the ledger does
	// not know the anchor transaction. The engine maps that, and
	// unconfirmed transactions, to a pending (retryable) outcome.
	ResolveAnchor(ctx context.Context, a domain.Anchor) (*AnchorStatus, error)
}
