package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

var client = http.Client{
	Timeout: 10 * time.Second,
}

// nodeLedger finds a wallet's outputs by asking the node.
type nodeLedger struct {
	url string
	err error
}

// QueryUTXOs implements the wallet.Ledger interface. A failed request
// reports no outputs and keeps the error for the caller to inspect.
func (nl *nodeLedger) QueryUTXOs(pk database.PublicKey) []database.Output {
	var outputs []database.Output
	if err := get(fmt.Sprintf("%s/v1/utxos/%s", nl.url, pk), &outputs); err != nil {
		nl.err = err
		return nil
	}
	return outputs
}

func get(url string, v any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decode(resp, v)
}

func post(url string, payload any, v any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decode(resp, v)
}

func decode(resp *http.Response, v any) error {
	if resp.StatusCode != http.StatusOK {
		var er struct {
			Error string `json:"error"`
		}
		body, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(body, &er); err != nil || er.Error == "" {
			return fmt.Errorf("node responded %d: %s", resp.StatusCode, body)
		}
		return fmt.Errorf("node responded %d: %s", resp.StatusCode, er.Error)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
