// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/utxoledger/business/web/errs"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/state"
	"github.com/ardanlabs/utxoledger/foundation/blockchain/wallet"
	"github.com/ardanlabs/utxoledger/foundation/events"
	"github.com/ardanlabs/utxoledger/foundation/nameservice"
	"github.com/ardanlabs/utxoledger/foundation/validate"
	"github.com/ardanlabs/utxoledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Balances returns the current balance for the key, or for every named
// wallet when no key is provided.
func (h Handlers) Balances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var keys []database.PublicKey
	switch key := web.Param(r, "key"); key {
	case "":
		for pk := range h.NS.Copy() {
			keys = append(keys, pk)
		}

	default:
		pk, err := h.NS.Resolve(key)
		if err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		keys = append(keys, pk)
	}

	bals := make([]balance, len(keys))
	for i, pk := range keys {
		bals[i] = balance{
			Key:     pk,
			Name:    h.NS.Lookup(pk),
			Balance: h.State.QueryBalance(pk),
		}
	}

	var latest string
	if blk, err := h.State.RetrieveLatestBlock(); err == nil {
		latest = blk.Hash
	}

	resp := balances{
		LatestBlock: latest,
		Uncommitted: h.State.QueryMempoolLength(),
		Balances:    bals,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// UTXOs returns the unspent outputs for the key, or every unspent output
// when no key is provided.
func (h Handlers) UTXOs(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var pk database.PublicKey
	if key := web.Param(r, "key"); key != "" {
		var err error
		if pk, err = h.NS.Resolve(key); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
	}

	return web.Respond(ctx, w, toOutputs(h.NS, h.State.QueryUTXOs(pk)), http.StatusOK)
}

// BlocksByKey returns all the blocks holding transactions for the key, or
// every block when no key is provided.
func (h Handlers) BlocksByKey(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var pk database.PublicKey
	if key := web.Param(r, "key"); key != "" {
		var err error
		if pk, err = h.NS.Resolve(key); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
	}

	dbBlocks, err := h.State.QueryBlocksByKey(pk)
	if err != nil {
		return err
	}

	if len(dbBlocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	blocks := make([]block, len(dbBlocks))
	for i, dbBlock := range dbBlocks {
		blocks[i] = toBlock(h.NS, dbBlock)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// TxProof returns the merkle inclusion proof for a transaction in a block.
func (h Handlers) TxProof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid block index: %w", err), http.StatusBadRequest)
	}

	mp, err := h.State.QueryTxProof(index, web.Param(r, "txid"))
	if err != nil {
		return errs.FromLedger(err)
	}

	resp := proof{
		BlockIndex: mp.BlockIndex,
		BlockHash:  mp.BlockHash,
		MerkleRoot: mp.MerkleRoot,
		Tx:         toTx(h.NS, mp.Tx),
		Hashes:     mp.Hashes,
		Order:      mp.Order,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	mempool := h.State.QueryMempool()

	trans := make([]tx, len(mempool))
	for i, dbTx := range mempool {
		trans[i] = toTx(h.NS, dbTx)
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// SendTransaction builds a transaction from a wallet held by the node and
// adds it to the mempool.
func (h Handlers) SendTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req SendRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	file, exists := h.NS.File(req.From)
	if !exists {
		return errs.NewTrusted(fmt.Errorf("wallet %q is not held by this node", req.From), http.StatusBadRequest)
	}

	from, err := wallet.Load(req.From, file)
	if err != nil {
		return err
	}

	to, err := h.NS.Resolve(req.To)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	dbTx, err := from.Send(h.State, to, req.Value)
	if err != nil {
		return errs.FromLedger(err)
	}

	h.Log.Infow("send tran", "traceid", web.GetTraceID(ctx), "from", req.From, "to", h.NS.Lookup(to), "value", req.Value, "nonce", dbTx.Nonce)

	if err := h.State.SubmitWalletTransaction(dbTx); err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, toTx(h.NS, dbTx), http.StatusOK)
}

// SubmitWalletTransaction adds a transaction signed by an outside wallet
// to the mempool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req SubmitRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	dbTx, err := req.toDatabaseTx()
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit tran", "traceid", web.GetTraceID(ctx), "sender", dbTx.Sender.Short(), "recipient", dbTx.Recipient.Short(), "value", dbTx.Value, "nonce", dbTx.Nonce)

	if err := h.State.SubmitWalletTransaction(dbTx); err != nil {
		return errs.FromLedger(err)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Verify re-derives the chain and reports whether it is consistent.
func (h Handlers) Verify(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := verify{
		Consistent: true,
		Height:     len(h.State.QueryBlocksByNumber(0, state.QueryLatest)),
	}

	if err := h.State.ConsistencyCheck(); err != nil {
		var ce *database.ConsistencyError
		if !errors.As(err, &ce) {
			return err
		}

		resp.Consistent = false
		resp.Error = ce.Err.Error()
		resp.BlockIndex = ce.BlockIndex
		resp.TxIndex = ce.TxIndex
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SignalMining signals to start a mining operation.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.State.Worker == nil {
		return errs.NewTrusted(errors.New("mining is not running on this node"), http.StatusServiceUnavailable)
	}

	h.State.Worker.SignalStartMining()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signalled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
