package domain

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	committed   map[chainhash.Hash]chainhash.Hash
	unconfirmed map[chainhash.Hash]struct{}
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		committed:   make(map[chainhash.Hash]chainhash.Hash),
		unconfirmed: make(map[chainhash.Hash]struct{}),
	}
}

func (l *fakeLedger) confirm(a *Anchor, committed chainhash.Hash) {
	l.committed[a.TxID] = committed
}

func (l *fakeLedger) ResolveAnchor(
	_ context.Context, a Anchor,
) (bool, chainhash.Hash, error) {
	if committed, ok := l.committed[a.TxID]; ok {
		if _, pending := l.unconfirmed[a.TxID]; pending {
			return false, committed, nil
		}
		return true, committed, nil
	}
	return false, chainhash.Hash{}, ErrAnchorNotFound
}

type fakeIndex struct {
	closed map[SecretSeal]struct{}
	known  map[NodeID]struct{}
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		closed: make(map[SecretSeal]struct{}),
		known:  make(map[NodeID]struct{}),
	}
}

func (i *fakeIndex) IsSealClosed(_ context.Context, seal SecretSeal) (bool, error) {
	_, ok := i.closed[seal]
	return ok, nil
}

func (i *fakeIndex) HasTransition(_ context.Context, id NodeID) (bool, error) {
	_, ok := i.known[id]
	return ok, nil
}

// validConsignment anchors the whole fixture chain on the fake ledger and
// packages the t3 history.
func validConsignment(t *testing.T, f *chainFixture, ledger *fakeLedger) *Consignment {
	t.Helper()
	g := NewGraph(f.genesis)
	for i, transition := range []*Transition{f.t1, f.t2, f.t3} {
		anchor, committed := anchorFor(t, transition, byte(0x10*(i+1)))
		ledger.confirm(anchor, committed)
		require.NoError(t, g.Add(transition, anchor))
	}
	c, err := BuildConsignment(g, f.t3.ID(), nil, false)
	require.NoError(t, err)
	return c
}

func TestValidateConsignment(t *testing.T) {
	f := newChainFixture(t)
	ledger := newFakeLedger()
	c := validConsignment(t, f, ledger)

	staged, err := ValidateConsignment(context.Background(), c, ledger, newFakeIndex())
	require.NoError(t, err)
	require.Len(t, staged, 3)
	for _, node := range staged {
		assert.False(t, node.Known)
	}
	assert.Equal(t, f.t3.ID(), staged[2].ID)
}

func TestValidateConsignmentKnownNodesAreSkipped(t *testing.T) {
	f := newChainFixture(t)
	ledger := newFakeLedger()
	c := validConsignment(t, f, ledger)

	// t1 sits in the stash already: its input seal is recorded closed and
	// the node is known. Validation must recognize it instead of reporting
	// a double spend, otherwise no one could validate an export of its own
	// stash.
	index := newFakeIndex()
	index.known[f.t1.ID()] = struct{}{}
	index.closed[f.t1.Inputs[0]] = struct{}{}

	staged, err := ValidateConsignment(context.Background(), c, ledger, index)
	require.NoError(t, err)
	assert.True(t, staged[0].Known)
	assert.False(t, staged[1].Known)
	assert.False(t, staged[2].Known)
}

func TestValidateConsignmentPendingAnchor(t *testing.T) {
	f := newChainFixture(t)
	ledger := newFakeLedger()
	c := validConsignment(t, f, ledger)

	// Unknown to the ledger.
	delete(ledger.committed, c.Nodes[1].Anchor.TxID)
	_, err := ValidateConsignment(context.Background(), c, ledger, newFakeIndex())
	assert.ErrorIs(t, err, ErrPendingAnchor)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, f.t2.ID(), vErr.Node)

	// Known but unconfirmed.
	ledger = newFakeLedger()
	c = validConsignment(t, f, ledger)
	ledger.unconfirmed[c.Nodes[0].Anchor.TxID] = struct{}{}
	_, err = ValidateConsignment(context.Background(), c, ledger, newFakeIndex())
	assert.ErrorIs(t, err, ErrPendingAnchor)

	// Delivered without any anchor at all.
	ledger = newFakeLedger()
	c = validConsignment(t, f, ledger)
	c.Nodes[2].Anchor = nil
	_, err = ValidateConsignment(context.Background(), c, ledger, newFakeIndex())
	assert.ErrorIs(t, err, ErrPendingAnchor)
}

func TestValidateConsignmentTamperedAmount(t *testing.T) {
	f := newChainFixture(t)
	ledger := newFakeLedger()
	c := validConsignment(t, f, ledger)

	// Inflate the terminal output. The transition re-hashes to a different
	// commitment than the one anchored on the ledger.
	tampered := *c.Nodes[2].Transition
	tampered.Outputs = []StateAssignment{{
		Seal:  tampered.Outputs[0].Seal,
		Value: tampered.Outputs[0].Value + 1,
	}}
	c.Nodes[2].Transition = &tampered

	_, err := ValidateConsignment(context.Background(), c, ledger, newFakeIndex())
	assert.ErrorIs(t, err, ErrCommitmentMismatch)
}

func TestValidateConsignmentDoubleSpend(t *testing.T) {
	f := newChainFixture(t)
	ledger := newFakeLedger()
	c := validConsignment(t, f, ledger)

	// The target's input seal is already closed by some other accepted
	// transition.
	index := newFakeIndex()
	index.closed[f.t3.Inputs[0]] = struct{}{}

	_, err := ValidateConsignment(context.Background(), c, ledger, index)
	assert.ErrorIs(t, err, ErrSealAlreadyClosed)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, f.t3.ID(), vErr.Node)
}

func TestValidateConsignmentUnknownInput(t *testing.T) {
	f := newChainFixture(t)
	ledger := newFakeLedger()
	c := validConsignment(t, f, ledger)

	// Drop t2 from the consignment: t3 references a predecessor that was
	// never delivered and consumes a seal never opened in the replay.
	c.Nodes = []ConsignmentNode{c.Nodes[0], c.Nodes[2]}
	_, err := ValidateConsignment(context.Background(), c, ledger, newFakeIndex())
	assert.ErrorIs(t, err, ErrMalformedConsignment)
}

func TestValidateConsignmentBadIssuerSig(t *testing.T) {
	f := newChainFixture(t)
	ledger := newFakeLedger()
	c := validConsignment(t, f, ledger)

	c.Genesis.IssuerSig = nil
	_, err := ValidateConsignment(context.Background(), c, ledger, newFakeIndex())
	assert.ErrorIs(t, err, ErrMalformedConsignment)
}

func TestValidateConsignmentSchemaViolation(t *testing.T) {
	f := newChainFixture(t)
	ledger := newFakeLedger()

	// A deflating transition, properly anchored: the commitment matches,
	// only the schema rule fails.
	r1 := testReveal(1)
	bad := mustTransition(t, f.genesis.ContractID(), nil,
		[]SecretSeal{r1.Conceal()},
		[]StateAssignment{{Seal: testReveal(6).Conceal(), Value: 99}},
	)
	anchor, committed := anchorFor(t, bad, 0x50)
	ledger.confirm(anchor, committed)

	c := &Consignment{
		Genesis: f.genesis,
		Nodes:   []ConsignmentNode{{Transition: bad, Anchor: anchor}},
	}
	_, err := ValidateConsignment(context.Background(), c, ledger, newFakeIndex())
	assert.ErrorIs(t, err, ErrSchemaViolation)
}
