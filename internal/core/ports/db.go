package ports

import (
	"context"

	"github.com/stash-network/stash-daemon/internal/core/domain"
)

// RepoManager gives access to the stash repository and to the transaction
// scope the validator stages consignments in.
type RepoManager interface {
	StashRepository() domain.StashRepository

	// RunTransaction runs the handler within a storage transaction: every
	// repository call made through the handler's context is committed
	// atomically if and only if the handler returns no error, and fully
	// discarded otherwise.
	RunTransaction(
		ctx context.Context,
		readOnly bool,
		handler func(ctx context.Context) (interface{}, error),
	) (interface{}, error)

	Close()
}
