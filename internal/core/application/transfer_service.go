package application

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/stash-network/stash-daemon/internal/core/domain"
	"github.com/stash-network/stash-daemon/internal/core/ports"
	"github.com/stash-network/stash-daemon/pkg/invoice"
)

// TransferService is the outbound half of a transfer: invoice generation
// on the receiving side, consignment building on the sending side.
type TransferService interface {
	// NewInvoice blinds the given seal and returns the invoice string to
	// hand to the sender. The blinding factor is returned to the caller
	// and kept nowhere else until accept time.
	NewInvoice(
		ctx context.Context, contractID domain.ContractID,
		amount uint64, seal domain.Seal,
	) (*InvoiceResult, error)
	// PrepareTransfer dry-runs a transfer and returns the commitment the
	// wallet must embed in the witness transaction. Requires a fixed
	// change blinding (or no change) so that Transfer rebuilds the exact
	// same transition.
	PrepareTransfer(ctx context.Context, args TransferArgs) (*TransferPreview, error)
	// Transfer closes the input seals, persists the new transition and
	// packages the consignment for the counterparty.
	Transfer(ctx context.Context, args TransferArgs) (*TransferResult, error)
	// AnchorTransfer attaches the anchor to a previously pending transfer
	// and rebuilds its consignment.
	AnchorTransfer(
		ctx context.Context, id domain.NodeID, anchor *domain.Anchor,
	) (*TransferResult, error)
}

type transferService struct {
	repoManager ports.RepoManager
}

func NewTransferService(repoManager ports.RepoManager) TransferService {
	return &transferService{repoManager: repoManager}
}

func (s *transferService) NewInvoice(
	ctx context.Context, contractID domain.ContractID,
	amount uint64, seal domain.Seal,
) (*InvoiceResult, error) {
	if _, err := s.repoManager.RunTransaction(
		ctx, true, func(ctx context.Context) (interface{}, error) {
			return s.repoManager.StashRepository().GetGenesis(ctx, contractID)
		},
	); err != nil {
		return nil, err
	}

	blinding, err := domain.NewBlinding()
	if err != nil {
		return nil, err
	}
	secret := domain.RevealedSeal{Seal: seal, Blinding: blinding}.Conceal()
	inv := invoice.Invoice{ContractID: contractID, Amount: amount, Seal: secret}

	return &InvoiceResult{
		Invoice:  inv.String(),
		Seal:     secret,
		Blinding: blinding,
	}, nil
}

func (s *transferService) PrepareTransfer(
	ctx context.Context, args TransferArgs,
) (*TransferPreview, error) {
	inv, err := invoice.Parse(args.Invoice)
	if err != nil {
		return nil, err
	}

	unlock := locker.lock(inv.ContractID)
	defer unlock()

	res, err := s.repoManager.RunTransaction(
		ctx, true, func(ctx context.Context) (interface{}, error) {
			transition, changeReveal, err := s.buildTransition(ctx, inv, args)
			if err != nil {
				return nil, err
			}
			if changeReveal != nil && args.ChangeBlinding == nil {
				return nil, ErrChangeBlindingRequired
			}
			return transition, nil
		},
	)
	if err != nil {
		return nil, err
	}

	transition := res.(*domain.Transition)
	return &TransferPreview{
		NodeID:     transition.ID(),
		Commitment: domain.DeriveCommitment(transition),
	}, nil
}

func (s *transferService) Transfer(
	ctx context.Context, args TransferArgs,
) (*TransferResult, error) {
	inv, err := invoice.Parse(args.Invoice)
	if err != nil {
		return nil, err
	}

	unlock := locker.lock(inv.ContractID)
	defer unlock()

	res, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			repo := s.repoManager.StashRepository()

			transition, changeReveal, err := s.buildTransition(ctx, inv, args)
			if err != nil {
				return nil, err
			}
			id := transition.ID()

			if err := repo.AddTransition(ctx, transition, args.Anchor); err != nil {
				return nil, err
			}
			for _, in := range transition.Inputs {
				if err := repo.MarkSealClosed(ctx, in, id); err != nil {
					return nil, err
				}
				if err := repo.MarkOwnedSealSpent(ctx, in); err != nil {
					return nil, err
				}
			}

			result := &TransferResult{
				NodeID:     id,
				Commitment: domain.DeriveCommitment(transition),
			}
			if changeReveal != nil {
				changeSecret := changeReveal.Conceal()
				changeValue := transition.Outputs[len(transition.Outputs)-1].Value
				if err := repo.AddOwnedSeal(ctx, domain.OwnedSeal{
					ContractID: inv.ContractID,
					Reveal:     *changeReveal,
					Value:      changeValue,
					CreatedBy:  id,
				}); err != nil {
					return nil, err
				}
				result.ChangeSeal = &changeSecret
				result.ChangeBlinding = &changeReveal.Blinding
			}

			stash, err := repo.GetStash(ctx, inv.ContractID)
			if err != nil {
				return nil, err
			}
			consignment, err := domain.BuildConsignment(
				stash.Graph, id, nil, args.AllowPending,
			)
			if err != nil {
				return nil, err
			}
			result.Consignment = consignment
			return result, nil
		},
	)
	if err != nil {
		return nil, err
	}

	result := res.(*TransferResult)
	log.WithFields(log.Fields{
		"contract": inv.ContractID,
		"node":     result.NodeID,
		"pending":  args.Anchor == nil,
	}).Info("built transfer consignment")
	return result, nil
}

func (s *transferService) AnchorTransfer(
	ctx context.Context, id domain.NodeID, anchor *domain.Anchor,
) (*TransferResult, error) {
	res, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			repo := s.repoManager.StashRepository()

			transition, _, err := repo.GetTransition(ctx, id)
			if err != nil {
				return nil, err
			}
			if err := repo.AnchorTransition(ctx, id, anchor); err != nil {
				return nil, err
			}
			stash, err := repo.GetStash(ctx, transition.ContractID)
			if err != nil {
				return nil, err
			}
			consignment, err := domain.BuildConsignment(stash.Graph, id, nil, false)
			if err != nil {
				return nil, err
			}
			return &TransferResult{
				Consignment: consignment,
				NodeID:      id,
				Commitment:  domain.DeriveCommitment(transition),
			}, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return res.(*TransferResult), nil
}

// buildTransition turns invoice plus selected inputs into the transition
// to be anchored. Runs within a repository transaction scope.
func (s *transferService) buildTransition(
	ctx context.Context, inv *invoice.Invoice, args TransferArgs,
) (*domain.Transition, *domain.RevealedSeal, error) {
	repo := s.repoManager.StashRepository()

	genesis, err := repo.GetGenesis(ctx, inv.ContractID)
	if err != nil {
		return nil, nil, err
	}
	if genesis.Schema != domain.SchemaFungible {
		return nil, nil, fmt.Errorf(
			"%w: interactive transfer is only defined for fungible schemas",
			domain.ErrSchemaViolation,
		)
	}

	owned, err := repo.ListOwnedSeals(ctx, inv.ContractID)
	if err != nil {
		return nil, nil, err
	}
	byOutpoint := make(map[domain.Seal]domain.OwnedSeal, len(owned))
	for _, o := range owned {
		byOutpoint[o.Reveal.Seal] = o
	}

	var (
		inputs  []domain.SecretSeal
		prev    []domain.NodeID
		seen    = make(map[domain.NodeID]struct{})
		balance uint64
	)
	for _, outpoint := range args.Inputs {
		o, ok := byOutpoint[outpoint]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownInput, outpoint)
		}
		if o.Spent {
			return nil, nil, fmt.Errorf("%w: %s", ErrInputAlreadySpent, outpoint)
		}
		inputs = append(inputs, o.Reveal.Conceal())
		balance += o.Value
		if !o.CreatedBy.IsZero() {
			if _, ok := seen[o.CreatedBy]; !ok {
				seen[o.CreatedBy] = struct{}{}
				prev = append(prev, o.CreatedBy)
			}
		}
	}
	if balance < inv.Amount {
		return nil, nil, fmt.Errorf(
			"%w: have %d, need %d", ErrInsufficientFunds, balance, inv.Amount,
		)
	}

	outputs := []domain.StateAssignment{{Seal: inv.Seal, Value: inv.Amount}}
	var changeReveal *domain.RevealedSeal
	if change := balance - inv.Amount; change > 0 {
		if args.ChangeSeal == nil {
			return nil, nil, ErrChangeSealRequired
		}
		blinding := uint64(0)
		if args.ChangeBlinding != nil {
			blinding = *args.ChangeBlinding
		} else {
			if blinding, err = domain.NewBlinding(); err != nil {
				return nil, nil, err
			}
		}
		changeReveal = &domain.RevealedSeal{Seal: *args.ChangeSeal, Blinding: blinding}
		outputs = append(outputs, domain.StateAssignment{
			Seal:  changeReveal.Conceal(),
			Value: change,
		})
	}

	transition, err := domain.NewTransition(inv.ContractID, prev, inputs, outputs)
	if err != nil {
		return nil, nil, err
	}
	return transition, changeReveal, nil
}
