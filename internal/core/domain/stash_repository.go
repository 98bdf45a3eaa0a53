package domain

import "context"

// StashRepository is the persistence contract of the engine. Backends must
// honor the transaction scope installed by the repo manager: every write
// issued within one RunTransaction handler is committed atomically or not
// at all, which is what makes all-or-nothing consignment acceptance
// possible.
type StashRepository interface {
	// AddGenesis persists a contract root. The id is its content hash, so
	// re-adding an existing genesis is a no-op.
	AddGenesis(ctx context.Context, g *Genesis) error
	// GetGenesis returns ErrContractNotFound for unknown ids.
	GetGenesis(ctx context.Context, id ContractID) (*Genesis, error)
	ListContracts(ctx context.Context) ([]ContractID, error)
	// GetStash assembles the full aggregate for a contract.
	GetStash(ctx context.Context, id ContractID) (*Stash, error)

	// AddTransition persists a transition and its anchor together.
	// Idempotent by content hash.
	AddTransition(ctx context.Context, t *Transition, a *Anchor) error
	// AnchorTransition attaches an anchor to a pending transition.
	AnchorTransition(ctx context.Context, id NodeID, a *Anchor) error
	GetTransition(ctx context.Context, id NodeID) (*Transition, *Anchor, error)
	HasTransition(ctx context.Context, id NodeID) (bool, error)

	// MarkSealClosed records a seal as consumed by the given transition.
	// Idempotent.
	MarkSealClosed(ctx context.Context, seal SecretSeal, by NodeID) error
	IsSealClosed(ctx context.Context, seal SecretSeal) (bool, error)

	AddOwnedSeal(ctx context.Context, owned OwnedSeal) error
	MarkOwnedSealSpent(ctx context.Context, seal SecretSeal) error
	GetOwnedSeal(ctx context.Context, seal SecretSeal) (*OwnedSeal, error)
	ListOwnedSeals(ctx context.Context, id ContractID) ([]OwnedSeal, error)
}
