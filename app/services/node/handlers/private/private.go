// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ardanlabs/utxoledger/business/web/errs"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/state"
	"github.com/ardanlabs/utxoledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	status := struct {
		Height      uint64 `json:"height"`
		LatestHash  string `json:"latest_hash"`
		Uncommitted int    `json:"uncommitted"`
		Difficulty  uint   `json:"difficulty"`
	}{
		Uncommitted: h.State.QueryMempoolLength(),
		Difficulty:  h.State.RetrieveGenesis().Difficulty,
	}

	if latest, err := h.State.RetrieveLatestBlock(); err == nil {
		status.Height = latest.Index + 1
		status.LatestHash = latest.Hash
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// BlocksByNumber returns the raw blocks within the specified range. Use
// "latest" for either end of the range.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, err := blockNumber(web.Param(r, "from"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	to, err := blockNumber(web.Param(r, "to"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if from > to {
		return errs.NewTrusted(fmt.Errorf("from block %d is after to block %d", from, to), http.StatusBadRequest)
	}

	blocks := h.State.QueryBlocksByNumber(from, to)
	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// Mempool returns the raw uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryMempool(), http.StatusOK)
}

// =============================================================================

func blockNumber(s string) (uint64, error) {
	if s == "latest" {
		return state.QueryLatest, nil
	}
	return strconv.ParseUint(s, 10, 64)
}
