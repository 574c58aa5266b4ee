package portfolio

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/wwade/cgtlots/date"
)

func mkDate(t *testing.T, s string) date.Date {
	d, err := date.Parse(s)
	require.NoError(t, err)
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecEqual(t *testing.T, exp string, actual decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.Truef(t, dec(exp).Equal(actual), "expected %s, got %s %v", exp, actual, msgAndArgs)
}

type txOpts struct {
	sec    string
	date   string
	shares string
	price  string
	// total is optional
	total string
}

var readIndex uint32

func mkTx(t *testing.T, action TxAction, o txOpts) *Tx {
	readIndex++
	tx := &Tx{
		Security:  o.sec,
		Date:      mkDate(t, o.date),
		Action:    action,
		Shares:    dec(o.shares),
		Price:     dec(o.price),
		ReadIndex: readIndex,
	}
	if o.total != "" {
		tx.Total = SomeDecimal(dec(o.total))
	}
	tx.NormalizeSigns()
	return tx
}

func buy(t *testing.T, sec, day, shares, price, total string) *Tx {
	return mkTx(t, BUY, txOpts{sec: sec, date: day, shares: shares, price: price, total: total})
}

func sell(t *testing.T, sec, day, shares, price, total string) *Tx {
	return mkTx(t, SELL, txOpts{sec: sec, date: day, shares: shares, price: price, total: total})
}

func addTxs(t *testing.T, h *Holding, resolver CorporateActionResolver, txs ...*Tx) {
	t.Helper()
	for _, tx := range txs {
		require.NoError(t, h.AddTx(tx, resolver))
		require.NoError(t, h.CheckInvariants())
	}
}

func sumProfits(h *Holding) decimal.Decimal {
	total := decimal.Zero
	for _, p := range h.AllProfits() {
		total = total.Add(p.Profit)
	}
	return total
}

// sampleTrades is the CBA and NAB history used across several tests.
func sampleTrades(t *testing.T) *Trades {
	trades := NewTrades()
	for _, tx := range []*Tx{
		buy(t, "CBA", "2023-02-15", "100", "100", "10019.95"),
		sell(t, "CBA", "2023-05-15", "-100", "105", "-10480.05"),
		buy(t, "NAB", "2023-02-20", "200", "30.50", "6119.95"),
		sell(t, "NAB", "2023-06-25", "-100", "32.75", "-3255.05"),
	} {
		trades.Add(tx)
	}
	return trades
}
