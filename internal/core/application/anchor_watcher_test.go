package application

import (
	"context"
	"testing"
	"time"

	"github.com/stash-network/stash-daemon/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnchorWatcherStopsOnCancel(t *testing.T) {
	ledger := newFakeLedgerService()
	p := newParty(ledger)
	issueTestAsset(t, p, 1000)

	watcher := NewAnchorWatcher(p.repo, ledger, 10*time.Millisecond)

	watchCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Start(watchCtx) }()

	// Let a few sweeps pass before shutting down.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}

func TestAnchorWatcherSweepsContracts(t *testing.T) {
	ledger := newFakeLedgerService()
	sender := newParty(ledger)

	contractID := issueTestAsset(t, sender, 1000)
	inv, err := sender.transfer.NewInvoice(ctx, contractID, 1000, outpoint(0x20))
	require.NoError(t, err)
	res := sendTransfer(
		t, sender, ledger, inv.Invoice, []domain.Seal{outpoint(0x01)}, nil, 0x40,
	)
	require.NotNil(t, res)

	w := NewAnchorWatcher(sender.repo, ledger, time.Minute).(*anchorWatcher)
	require.NoError(t, w.sweepContract(ctx, contractID))

	// A vanished anchor transaction only counts as pending, never as a
	// sweep failure.
	delete(ledger.committed, res.Consignment.Nodes[0].Anchor.TxID)
	require.NoError(t, w.sweepContract(ctx, contractID))
}
