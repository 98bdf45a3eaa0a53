package domain

import "errors"

var (
	// ErrMalformedConsignment is returned for structural defects of an
	// inbound consignment: out-of-order nodes, duplicated nodes, unknown
	// input seals, decoding failures. Nothing gets persisted.
	ErrMalformedConsignment = errors.New("malformed consignment")
	// ErrCommitmentMismatch is returned when a re-derived transition
	// commitment does not match the value anchored on the base ledger.
	// Always fatal for the whole consignment.
	ErrCommitmentMismatch = errors.New("commitment does not match anchored value")
	// ErrSealAlreadyClosed signals a double-spend attempt: one of the seals
	// a transition tries to close is already recorded as closed.
	ErrSealAlreadyClosed = errors.New("seal already closed")
	// ErrSchemaViolation is returned when a transition breaks the rules of
	// the contract schema, eg. fungible amounts not being conserved.
	ErrSchemaViolation = errors.New("schema rule violation")
	// ErrIncompleteHistory is returned by the consignment builder when some
	// ancestor of the target transition is missing or still unanchored.
	ErrIncompleteHistory = errors.New("incomplete transition history")
	// ErrPendingAnchor marks a transition whose anchor the base ledger does
	// not confirm yet. Recoverable: the caller may retry later.
	ErrPendingAnchor = errors.New("anchor not yet confirmed on the base ledger")
	// ErrAnchorNotFound is returned by ledger lookups for transactions the
	// base ledger does not know about.
	ErrAnchorNotFound = errors.New("anchor transaction not found")

	// ErrContractNotFound ...
	ErrContractNotFound = errors.New("contract not found in stash")
	// ErrTransitionNotFound ...
	ErrTransitionNotFound = errors.New("transition not found in stash")
	// ErrSealNotFound ...
	ErrSealNotFound = errors.New("seal not found in stash")

	// ErrSealInvalidOutpoint ...
	ErrSealInvalidOutpoint = errors.New("seal outpoint must be in txid:vout form")
	// ErrSealInvalidSecret ...
	ErrSealInvalidSecret = errors.New("secret seal must be a 32-byte hex string")

	// ErrGenesisInvalidTicker ...
	ErrGenesisInvalidTicker = errors.New("ticker must be 1 to 8 uppercase characters")
	// ErrGenesisInvalidName ...
	ErrGenesisInvalidName = errors.New("asset name must be 1 to 32 characters")
	// ErrGenesisInvalidPrecision ...
	ErrGenesisInvalidPrecision = errors.New("precision must not exceed 8 decimal places")
	// ErrGenesisNoAllocations ...
	ErrGenesisNoAllocations = errors.New("genesis must allocate to at least one seal")
	// ErrGenesisNotSigned ...
	ErrGenesisNotSigned = errors.New("genesis carries no issuer signature")
	// ErrGenesisInvalidSignature ...
	ErrGenesisInvalidSignature = errors.New("issuer signature does not verify against contract id")

	// ErrTransitionNoInputs ...
	ErrTransitionNoInputs = errors.New("transition must close at least one seal")
	// ErrTransitionNoOutputs ...
	ErrTransitionNoOutputs = errors.New("transition must open at least one seal")
	// ErrTransitionDuplicatedSeal ...
	ErrTransitionDuplicatedSeal = errors.New("transition references the same seal twice")
	// ErrTransitionTooLarge ...
	ErrTransitionTooLarge = errors.New("transition exceeds encoding limits")
)

// ValidationError qualifies a validation failure with the identity of the
// offending node, so that callers can report which part of a consignment
// was rejected. A zero NodeID refers to the genesis.
type ValidationError struct {
	Node NodeID
	Err  error
}

func (e *ValidationError) Error() string {
	return "node " + NodeID(e.Node).String() + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
