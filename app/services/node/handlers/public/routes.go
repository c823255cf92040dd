package public

import (
	"net/http"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/state"
	"github.com/ardanlabs/utxoledger/foundation/events"
	"github.com/ardanlabs/utxoledger/foundation/nameservice"
	"github.com/ardanlabs/utxoledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Events
}

// Routes binds all the public routes.
func Routes(app *web.App, cfg Config) {
	pbl := Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	const version = "v1"

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/balances", pbl.Balances)
	app.Handle(http.MethodGet, version, "/balances/:key", pbl.Balances)
	app.Handle(http.MethodGet, version, "/utxos", pbl.UTXOs)
	app.Handle(http.MethodGet, version, "/utxos/:key", pbl.UTXOs)
	app.Handle(http.MethodGet, version, "/blocks/list", pbl.BlocksByKey)
	app.Handle(http.MethodGet, version, "/blocks/list/:key", pbl.BlocksByKey)
	app.Handle(http.MethodGet, version, "/blocks/proof/:index/:txid", pbl.TxProof)
	app.Handle(http.MethodGet, version, "/tx/uncommitted/list", pbl.Mempool)
	app.Handle(http.MethodPost, version, "/tx/send", pbl.SendTransaction)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitWalletTransaction)
	app.Handle(http.MethodGet, version, "/chain/verify", pbl.Verify)
	app.Handle(http.MethodGet, version, "/mining/signal", pbl.SignalMining)
}
