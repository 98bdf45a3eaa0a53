package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/stash-network/stash-daemon/internal/core/domain"
	"github.com/stash-network/stash-daemon/internal/core/ports"
)

// AnchorWatcher periodically sweeps every stored contract and re-resolves
// the anchors of its transitions against the base ledger, surfacing
// transitions whose anchor never confirmed or whose committed value no
// longer matches. It only observes; repairing a broken history is an
// operator decision.
type AnchorWatcher interface {
	// Start blocks until the context is canceled.
	Start(ctx context.Context) error
}

type anchorWatcher struct {
	repoManager ports.RepoManager
	ledger      ports.LedgerService
	interval    time.Duration
}

func NewAnchorWatcher(
	repoManager ports.RepoManager, ledger ports.LedgerService,
	interval time.Duration,
) AnchorWatcher {
	return &anchorWatcher{
		repoManager: repoManager,
		ledger:      ledger,
		interval:    interval,
	}
}

func (w *anchorWatcher) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *anchorWatcher) sweep(ctx context.Context) {
	// Sweeps overlap in the logs when resolution is slow; the id keeps
	// their lines apart.
	sweepID := uuid.NewString()

	res, err := w.repoManager.RunTransaction(
		ctx, true, func(ctx context.Context) (interface{}, error) {
			return w.repoManager.StashRepository().ListContracts(ctx)
		},
	)
	if err != nil {
		log.WithError(err).WithField("sweep", sweepID).
			Warn("anchor sweep: listing contracts")
		return
	}

	for _, contractID := range res.([]domain.ContractID) {
		if err := w.sweepContract(ctx, contractID); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"sweep":    sweepID,
				"contract": contractID,
			}).Warn("anchor sweep")
		}
	}
}

func (w *anchorWatcher) sweepContract(
	ctx context.Context, contractID domain.ContractID,
) error {
	res, err := w.repoManager.RunTransaction(
		ctx, true, func(ctx context.Context) (interface{}, error) {
			return w.repoManager.StashRepository().GetStash(ctx, contractID)
		},
	)
	if err != nil {
		return err
	}
	stash := res.(*domain.Stash)

	var pending, mismatched int
	for _, id := range stash.Graph.Nodes() {
		transition, anchor, _ := stash.Graph.Node(id)
		if anchor == nil {
			pending++
			continue
		}

		status, err := w.ledger.ResolveAnchor(ctx, *anchor)
		if err != nil {
			if errors.Is(err, domain.ErrAnchorNotFound) {
				pending++
				continue
			}
			return err
		}
		if !status.Confirmed {
			pending++
			continue
		}
		if !anchor.VerifyCommitment(
			domain.DeriveCommitment(transition), status.CommittedValue,
		) {
			mismatched++
			log.WithFields(log.Fields{
				"contract": contractID,
				"node":     id,
				"txid":     anchor.TxID,
			}).Error("stored anchor no longer matches on-chain commitment")
		}
	}

	if pending > 0 {
		log.WithFields(log.Fields{
			"contract": contractID,
			"pending":  pending,
		}).Info("transitions awaiting anchor confirmation")
	}
	if mismatched == 0 && pending == 0 {
		log.WithField("contract", contractID).Debug("all anchors confirmed")
	}
	return nil
}
