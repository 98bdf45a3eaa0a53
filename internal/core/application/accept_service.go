package application

import (
	"context"
	"errors"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	log "github.com/sirupsen/logrus"
	"github.com/stash-network/stash-daemon/internal/core/domain"
	"github.com/stash-network/stash-daemon/internal/core/ports"
)

// AcceptService is the inbound half of a transfer: deterministic
// re-validation of a consignment and, on success, a single atomic commit
// into the stash. A failed validation leaves the stash byte-identical to
// what it was before the call.
type AcceptService interface {
	// Validate replays the consignment without touching persisted state.
	// It reports the verdict an Accept call would reach; nodes already in
	// the stash are recognized instead of rejected, so a party can always
	// validate its own exports.
	Validate(ctx context.Context, c *domain.Consignment) error
	// Accept validates the consignment and commits it together with the
	// receiver's seal disclosure. Replaying an already-accepted
	// consignment fails with ErrSealAlreadyClosed.
	Accept(
		ctx context.Context, c *domain.Consignment,
		seal domain.Seal, blinding uint64,
	) (*AcceptResult, error)
}

type acceptService struct {
	repoManager ports.RepoManager
	ledger      ports.LedgerService
}

func NewAcceptService(
	repoManager ports.RepoManager, ledger ports.LedgerService,
) AcceptService {
	return &acceptService{repoManager: repoManager, ledger: ledger}
}

func (s *acceptService) Validate(ctx context.Context, c *domain.Consignment) error {
	if c == nil || c.Genesis == nil {
		return &domain.ValidationError{Err: domain.ErrMalformedConsignment}
	}

	unlock := locker.lock(c.Genesis.ContractID())
	defer unlock()

	_, err := s.repoManager.RunTransaction(
		ctx, true, func(ctx context.Context) (interface{}, error) {
			return domain.ValidateConsignment(
				ctx, c,
				ledgerResolver{s.ledger},
				sealIndex{s.repoManager.StashRepository()},
			)
		},
	)
	return err
}

func (s *acceptService) Accept(
	ctx context.Context, c *domain.Consignment,
	seal domain.Seal, blinding uint64,
) (*AcceptResult, error) {
	if c == nil || c.Genesis == nil {
		return nil, &domain.ValidationError{Err: domain.ErrMalformedConsignment}
	}
	contractID := c.Genesis.ContractID()

	unlock := locker.lock(contractID)
	defer unlock()

	res, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			repo := s.repoManager.StashRepository()

			staged, err := domain.ValidateConsignment(
				ctx, c, ledgerResolver{s.ledger}, sealIndex{repo},
			)
			if err != nil {
				return nil, err
			}

			// A known target means this exact consignment was accepted
			// before: its input seals are closed by the very node it
			// delivers, so the replay is reported as a double spend.
			target := staged[len(staged)-1]
			if target.Known {
				return nil, &domain.ValidationError{
					Node: target.ID,
					Err:  domain.ErrSealAlreadyClosed,
				}
			}

			reveal := domain.RevealedSeal{Seal: seal, Blinding: blinding}
			secret := reveal.Conceal()
			owned := domain.OwnedSeal{ContractID: contractID, Reveal: reveal}
			found := false
			for _, node := range staged {
				if node.Known {
					continue
				}
				for _, out := range node.Transition.Outputs {
					if out.Seal == secret {
						owned.Value = out.Value
						owned.CreatedBy = node.ID
						found = true
					}
				}
			}
			if !found {
				return nil, ErrSealNotInConsignment
			}

			if err := repo.AddGenesis(ctx, c.Genesis); err != nil {
				return nil, err
			}
			for _, node := range staged {
				if node.Known {
					continue
				}
				if err := repo.AddTransition(ctx, node.Transition, node.Anchor); err != nil {
					return nil, err
				}
				for _, in := range node.Transition.Inputs {
					if err := repo.MarkSealClosed(ctx, in, node.ID); err != nil {
						return nil, err
					}
				}
			}
			if err := repo.AddOwnedSeal(ctx, owned); err != nil {
				return nil, err
			}

			return &AcceptResult{
				ContractID: contractID,
				NodeID:     target.ID,
				Seal:       secret,
				Value:      owned.Value,
			}, nil
		},
	)
	if err != nil {
		if errors.Is(err, domain.ErrSealAlreadyClosed) {
			// Double-spend attempts are a fraud signal, not just a failed
			// call.
			log.WithError(err).WithField("contract", contractID).
				Warn("rejected consignment trying to re-close a seal")
		}
		return nil, err
	}

	result := res.(*AcceptResult)
	log.WithFields(log.Fields{
		"contract": result.ContractID,
		"node":     result.NodeID,
		"value":    result.Value,
	}).Info("accepted consignment")
	return result, nil
}

// ledgerResolver adapts the ledger port to the domain validation boundary.
type ledgerResolver struct {
	svc ports.LedgerService
}

func (l ledgerResolver) ResolveAnchor(
	ctx context.Context, a domain.Anchor,
) (bool, chainhash.Hash, error) {
	status, err := l.svc.ResolveAnchor(ctx, a)
	if err != nil {
		return false, chainhash.Hash{}, err
	}
	return status.Confirmed, status.CommittedValue, nil
}

// sealIndex adapts the repository to the read-only view the validator
// needs.
type sealIndex struct {
	repo domain.StashRepository
}

func (s sealIndex) IsSealClosed(
	ctx context.Context, seal domain.SecretSeal,
) (bool, error) {
	return s.repo.IsSealClosed(ctx, seal)
}

func (s sealIndex) HasTransition(
	ctx context.Context, id domain.NodeID,
) (bool, error) {
	return s.repo.HasTransition(ctx, id)
}
