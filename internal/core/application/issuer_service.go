package application

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	log "github.com/sirupsen/logrus"
	"github.com/stash-network/stash-daemon/internal/core/domain"
	"github.com/stash-network/stash-daemon/internal/core/ports"
)

// IssuerService covers the issuance side of the engine: creating
// contracts, importing and exporting their geneses and inspecting what
// sits on the local stash.
type IssuerService interface {
	// IssueAsset creates a new contract and records the allocated seals as
	// owned. Supply is the sum of the allocation values for fungible
	// assets and their count for collectibles.
	IssueAsset(ctx context.Context, args IssueArgs) (domain.ContractID, error)
	ListAssets(ctx context.Context) ([]AssetInfo, error)
	// ExportGenesis returns the hex-encoded canonical genesis, suitable
	// for sharing an asset definition without any transfer history.
	ExportGenesis(ctx context.Context, id domain.ContractID) (string, error)
	ImportGenesis(ctx context.Context, blob string) (domain.ContractID, error)
	// ListOutpointStates returns the state every known contract assigns to
	// the given base-ledger outpoint.
	ListOutpointStates(ctx context.Context, outpoint domain.Seal) ([]OutpointState, error)
}

type issuerService struct {
	repoManager ports.RepoManager
}

func NewIssuerService(repoManager ports.RepoManager) IssuerService {
	return &issuerService{repoManager: repoManager}
}

func (s *issuerService) IssueAsset(
	ctx context.Context, args IssueArgs,
) (domain.ContractID, error) {
	schema, ok := domain.SchemaForKind(args.Schema)
	if !ok {
		return domain.ContractID{}, fmt.Errorf(
			"%w: no validator registered for schema %s",
			domain.ErrSchemaViolation, args.Schema,
		)
	}

	owned := make([]domain.OwnedSeal, 0, len(args.Allocations))
	allocations := make([]domain.StateAssignment, 0, len(args.Allocations))
	var supply uint64
	for _, alloc := range args.Allocations {
		blinding, err := domain.NewBlinding()
		if err != nil {
			return domain.ContractID{}, err
		}
		reveal := domain.RevealedSeal{Seal: alloc.Seal, Blinding: blinding}
		allocations = append(allocations, domain.StateAssignment{
			Seal:  reveal.Conceal(),
			Value: alloc.Value,
		})
		owned = append(owned, domain.OwnedSeal{
			Reveal: reveal,
			Value:  alloc.Value,
		})
		if args.Schema == domain.SchemaCollectible {
			supply++
		} else {
			supply += alloc.Value
		}
	}

	genesis, err := domain.NewGenesis(
		args.Schema, args.Ticker, args.Name, args.Precision, supply, allocations,
	)
	if err != nil {
		return domain.ContractID{}, err
	}

	// The issuer key only ever signs this one genesis; long-term key
	// custody belongs to the wallet, not to the engine.
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return domain.ContractID{}, err
	}
	genesis.Sign(priv)

	if err := schema.ValidateGenesis(genesis); err != nil {
		return domain.ContractID{}, err
	}

	contractID := genesis.ContractID()
	unlock := locker.lock(contractID)
	defer unlock()

	if _, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			repo := s.repoManager.StashRepository()
			if err := repo.AddGenesis(ctx, genesis); err != nil {
				return nil, err
			}
			for _, o := range owned {
				o.ContractID = contractID
				if err := repo.AddOwnedSeal(ctx, o); err != nil {
					return nil, err
				}
			}
			return nil, nil
		},
	); err != nil {
		return domain.ContractID{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	log.WithFields(log.Fields{
		"contract": contractID,
		"ticker":   args.Ticker,
		"supply":   supply,
	}).Info("issued new asset")

	return contractID, nil
}

func (s *issuerService) ListAssets(ctx context.Context) ([]AssetInfo, error) {
	res, err := s.repoManager.RunTransaction(
		ctx, true, func(ctx context.Context) (interface{}, error) {
			repo := s.repoManager.StashRepository()
			contracts, err := repo.ListContracts(ctx)
			if err != nil {
				return nil, err
			}
			assets := make([]AssetInfo, 0, len(contracts))
			for _, id := range contracts {
				stash, err := repo.GetStash(ctx, id)
				if err != nil {
					return nil, err
				}
				assets = append(assets, AssetInfo{
					ContractID: id,
					Schema:     stash.Genesis.Schema,
					Ticker:     stash.Genesis.Ticker,
					Name:       stash.Genesis.Name,
					Precision:  stash.Genesis.Precision,
					Supply:     stash.Genesis.Supply,
					Balance:    stash.Balance(),
				})
			}
			return assets, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return res.([]AssetInfo), nil
}

func (s *issuerService) ExportGenesis(
	ctx context.Context, id domain.ContractID,
) (string, error) {
	res, err := s.repoManager.RunTransaction(
		ctx, true, func(ctx context.Context) (interface{}, error) {
			return s.repoManager.StashRepository().GetGenesis(ctx, id)
		},
	)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(res.(*domain.Genesis).Encode()), nil
}

func (s *issuerService) ImportGenesis(
	ctx context.Context, blob string,
) (domain.ContractID, error) {
	raw, err := hex.DecodeString(blob)
	if err != nil {
		return domain.ContractID{}, domain.ErrMalformedConsignment
	}
	genesis, err := domain.DecodeGenesis(raw)
	if err != nil {
		return domain.ContractID{}, domain.ErrMalformedConsignment
	}
	if err := genesis.VerifyIssuerSig(); err != nil {
		return domain.ContractID{}, err
	}
	schema, ok := domain.SchemaForKind(genesis.Schema)
	if !ok {
		return domain.ContractID{}, fmt.Errorf(
			"%w: no validator registered for schema %s",
			domain.ErrSchemaViolation, genesis.Schema,
		)
	}
	if err := schema.ValidateGenesis(genesis); err != nil {
		return domain.ContractID{}, err
	}

	contractID := genesis.ContractID()
	unlock := locker.lock(contractID)
	defer unlock()

	if _, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			return nil, s.repoManager.StashRepository().AddGenesis(ctx, genesis)
		},
	); err != nil {
		return domain.ContractID{}, err
	}

	log.WithField("contract", contractID).Info("imported asset genesis")
	return contractID, nil
}

func (s *issuerService) ListOutpointStates(
	ctx context.Context, outpoint domain.Seal,
) ([]OutpointState, error) {
	res, err := s.repoManager.RunTransaction(
		ctx, true, func(ctx context.Context) (interface{}, error) {
			repo := s.repoManager.StashRepository()
			contracts, err := repo.ListContracts(ctx)
			if err != nil {
				return nil, err
			}
			states := make([]OutpointState, 0)
			for _, id := range contracts {
				genesis, err := repo.GetGenesis(ctx, id)
				if err != nil {
					return nil, err
				}
				owned, err := repo.ListOwnedSeals(ctx, id)
				if err != nil {
					return nil, err
				}
				for _, o := range owned {
					if o.Reveal.Seal != outpoint {
						continue
					}
					states = append(states, OutpointState{
						ContractID: id,
						Ticker:     genesis.Ticker,
						Outpoint:   o.Reveal.Seal,
						Value:      o.Value,
						Spent:      o.Spent,
					})
				}
			}
			return states, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return res.([]OutpointState), nil
}

// locker is shared by every service so that build and accept operations on
// the same contract are serialized no matter which entry point they come
// through.
var locker = newContractLocker()
