package application

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stash-network/stash-daemon/internal/core/domain"
)

// AssetInfo is the per-contract summary returned by ListAssets.
type AssetInfo struct {
	ContractID domain.ContractID
	Schema     domain.SchemaKind
	Ticker     string
	Name       string
	Precision  uint8
	Supply     uint64
	Balance    uint64
}

// AllocationRequest assigns part of the issued supply to a base-ledger
// outpoint at issuance time.
type AllocationRequest struct {
	Value uint64
	Seal  domain.Seal
}

// IssueArgs collects everything needed to create a new contract. Supply is
// derived from the allocations: their sum for fungible assets, their count
// for collectibles.
type IssueArgs struct {
	Schema      domain.SchemaKind
	Ticker      string
	Name        string
	Precision   uint8
	Allocations []AllocationRequest
}

// InvoiceResult is returned by NewInvoice. The blinding factor must be
// kept secret by the receiver until accept time.
type InvoiceResult struct {
	Invoice  string
	Seal     domain.SecretSeal
	Blinding uint64
}

// TransferArgs describes an outbound transfer. Inputs name owned
// outpoints; the anchor binds the new transition to the witness
// transaction the caller's wallet built, or is left nil for a pending
// transfer.
type TransferArgs struct {
	Invoice    string
	Inputs     []domain.Seal
	ChangeSeal *domain.Seal
	// ChangeBlinding fixes the change seal blinding; when nil a fresh one
	// is drawn. Setting it makes the transition reproducible, which
	// PrepareTransfer needs to hand out the commitment ahead of anchoring.
	ChangeBlinding *uint64
	Anchor         *domain.Anchor
	AllowPending   bool
}

// TransferPreview is the dry-run result a wallet needs before building
// the witness transaction: the commitment to embed and the id the
// transition will have.
type TransferPreview struct {
	NodeID     domain.NodeID
	Commitment chainhash.Hash
}

// TransferResult couples the consignment to hand to the counterparty with
// the identity of the transition it proves.
type TransferResult struct {
	Consignment    *domain.Consignment
	NodeID         domain.NodeID
	Commitment     chainhash.Hash
	ChangeSeal     *domain.SecretSeal
	ChangeBlinding *uint64
}

// AcceptResult reports what an accepted consignment assigned to the
// receiver.
type AcceptResult struct {
	ContractID domain.ContractID
	NodeID     domain.NodeID
	Seal       domain.SecretSeal
	Value      uint64
}

// OutpointState pairs an owned outpoint with the state sitting on it.
type OutpointState struct {
	ContractID domain.ContractID
	Ticker     string
	Outpoint   domain.Seal
	Value      uint64
	Spent      bool
}
