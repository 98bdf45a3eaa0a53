package application

import "errors"

var (
	// ErrInsufficientFunds is returned when the selected inputs do not
	// cover the invoiced amount.
	ErrInsufficientFunds = errors.New("selected inputs do not cover the invoiced amount")
	// ErrChangeSealRequired is returned when a transfer leaves change but
	// no change seal was provided.
	ErrChangeSealRequired = errors.New("transfer leaves change but no change seal was given")
	// ErrChangeBlindingRequired is returned by PrepareTransfer when change
	// is due but the blinding was left to chance: the commitment handed out
	// would not match the one Transfer derives later.
	ErrChangeBlindingRequired = errors.New("dry run needs a fixed change blinding")
	// ErrSealNotInConsignment is returned by accept when the recipient's
	// blinded seal does not appear among the consignment outputs.
	ErrSealNotInConsignment = errors.New("recipient seal does not appear in the consignment")
	// ErrUnknownInput is returned when a transfer references an outpoint
	// the stash holds no blinding data for.
	ErrUnknownInput = errors.New("input outpoint is not owned by this stash")
	// ErrInputAlreadySpent ...
	ErrInputAlreadySpent = errors.New("input outpoint was already spent")
	// ErrStorageFailure wraps backend I/O errors. The engine never retries;
	// atomicity guarantees make a caller-side retry always safe.
	ErrStorageFailure = errors.New("storage backend failure")
)
