package esplora

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/sony/gobreaker"
	"github.com/stash-network/stash-daemon/internal/core/domain"
	"github.com/stash-network/stash-daemon/internal/core/ports"
	"github.com/stash-network/stash-daemon/pkg/circuitbreaker"
	"github.com/stash-network/stash-daemon/pkg/httputil"
)

type esplora struct {
	apiURL string
	cb     *gobreaker.CircuitBreaker
}

// NewService returns a new esplora service as a ports.LedgerService
// interface.
func NewService(apiURL string) (ports.LedgerService, error) {
	service := &esplora{
		apiURL: strings.TrimSuffix(apiURL, "/"),
		cb:     circuitbreaker.NewCircuitBreaker(),
	}

	if err := service.healthCheck(); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}

	return service, nil
}

func (e *esplora) healthCheck() error {
	url := fmt.Sprintf("%s/blocks/tip/height", e.apiURL)
	status, resp, err := httputil.NewHTTPRequest("GET", url, "", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf(resp)
	}
	return nil
}

func (e *esplora) ResolveAnchor(
	ctx context.Context, a domain.Anchor,
) (*ports.AnchorStatus, error) {
	confirmed, err := e.getTransactionStatus(a.TxID.String())
	if err != nil {
		return nil, err
	}

	tx, err := e.getTransaction(a.TxID.String())
	if err != nil {
		return nil, err
	}

	status := &ports.AnchorStatus{Confirmed: confirmed}
	// A missing or malformed commitment output leaves CommittedValue at
	// zero, which can never match a real commitment.
	if int(a.Vout) < len(tx.TxOut) {
		if committed, ok := commitmentFromScript(tx.TxOut[a.Vout].PkScript); ok {
			status.CommittedValue = committed
		}
	}
	return status, nil
}

func (e *esplora) getTransactionStatus(hash string) (bool, error) {
	url := fmt.Sprintf("%s/tx/%s/status", e.apiURL, hash)
	res, err := e.cb.Execute(func() (interface{}, error) {
		status, resp, err := httputil.NewHTTPRequest("GET", url, "", nil)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound {
			return nil, domain.ErrAnchorNotFound
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf(resp)
		}

		var txStatus struct {
			Confirmed bool `json:"confirmed"`
		}
		if err := json.Unmarshal([]byte(resp), &txStatus); err != nil {
			return nil, err
		}
		return txStatus.Confirmed, nil
	})
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

func (e *esplora) getTransaction(hash string) (*wire.MsgTx, error) {
	url := fmt.Sprintf("%s/tx/%s/hex", e.apiURL, hash)
	res, err := e.cb.Execute(func() (interface{}, error) {
		status, resp, err := httputil.NewHTTPRequest("GET", url, "", nil)
		if err != nil {
			return nil, err
		}
		if status == http.StatusNotFound {
			return nil, domain.ErrAnchorNotFound
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf(resp)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	rawTx, err := hex.DecodeString(res.(string))
	if err != nil {
		return nil, fmt.Errorf("invalid transaction hex: %w", err)
	}
	tx := &wire.MsgTx{}
	if err := tx.Deserialize(bytes.NewReader(rawTx)); err != nil {
		return nil, fmt.Errorf("invalid transaction: %w", err)
	}
	return tx, nil
}

// commitmentFromScript extracts the 32-byte committed value from an
// OP_RETURN output of the form OP_RETURN <32-byte push>.
func commitmentFromScript(script []byte) (chainhash.Hash, bool) {
	if len(script) != 34 ||
		script[0] != txscript.OP_RETURN ||
		script[1] != txscript.OP_DATA_32 {
		return chainhash.Hash{}, false
	}
	var committed chainhash.Hash
	copy(committed[:], script[2:])
	return committed, true
}
