package selector

import (
	"cmp"
	"slices"

	"github.com/ardanlabs/utxoledger/foundation/blockchain/database"
)

// valueSelect returns the transactions moving the most value while
// respecting the arrival order for each sender.
var valueSelect = func(txs []database.Tx, howMany int) []database.Tx {

	/*
		alice: {Nonce: a1, Value: 10}, {Nonce: a2, Value: 90}
		bob:   {Nonce: b1, Value: 50}
		carol: {Nonce: c1, Value: 5},  {Nonce: c2, Value: 75}
	*/

	// Group the transactions by sender, keeping the senders in the order
	// their first transaction arrived.
	var senders []database.PublicKey
	m := make(map[database.PublicKey][]database.Tx)
	for _, tx := range txs {
		if _, exists := m[tx.Sender]; !exists {
			senders = append(senders, tx.Sender)
		}
		m[tx.Sender] = append(m[tx.Sender], tx)
	}

	// Pick the first transaction for each sender. Each iteration represents
	// a new row of selections. Keep doing that until all the transactions
	// have been selected.
	var rows [][]database.Tx
	for {
		var row []database.Tx
		for _, sender := range senders {
			if len(m[sender]) > 0 {
				row = append(row, m[sender][0])
				m[sender] = m[sender][1:]
			}
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
	}

	/*
		0: alice a1 10, bob b1 50, carol c1 5
		1: alice a2 90, carol c2 75
	*/

	// Sort a row by value only when it won't be taken whole. Keep pulling
	// transactions from each row until the amount is fulfilled or there are
	// no more transactions.
	final := []database.Tx{}
	for _, row := range rows {
		need := howMany - len(final)
		if need <= 0 {
			break
		}

		if len(row) > need {
			slices.SortStableFunc(row, func(a, b database.Tx) int {
				return cmp.Compare(b.Value, a.Value)
			})
			final = append(final, row[:need]...)
			break
		}
		final = append(final, row...)
	}

	return final
}
