package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTxAction(t *testing.T) {
	for s, exp := range map[string]TxAction{
		"B": BUY, "buy": BUY, " Buy ": BUY,
		"S": SELL, "SELL": SELL,
	} {
		a, err := ParseTxAction(s)
		require.NoError(t, err, s)
		require.Equal(t, exp, a, s)
	}
	_, err := ParseTxAction("dividend")
	require.Error(t, err)

	var a TxAction
	require.NoError(t, a.UnmarshalText([]byte("sell")))
	b, err := a.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "sell", string(b))
}

func TestNormalizeSigns(t *testing.T) {
	tx := &Tx{Action: SELL, Shares: dec("100"), Price: dec("-2"), Total: SomeDecimal(dec("199"))}
	tx.NormalizeSigns()
	requireDecEqual(t, "-100", tx.Shares)
	requireDecEqual(t, "2", tx.Price)
	requireDecEqual(t, "-200", tx.Value)
	requireDecEqual(t, "-199", tx.Total.Decimal)
	assert.Equal(t, 1, tx.Count)

	tx = &Tx{Action: BUY, Shares: dec("-5"), Price: dec("3")}
	tx.NormalizeSigns()
	requireDecEqual(t, "5", tx.Shares)
	requireDecEqual(t, "15", tx.SettlementTotal())
	assert.False(t, tx.HasTotal())
}

func TestZeroTotalFallsBack(t *testing.T) {
	tx := &Tx{Action: BUY, Shares: dec("5"), Price: dec("3"), Total: SomeDecimal(dec("0"))}
	assert.False(t, tx.HasTotal())
	requireDecEqual(t, "15", tx.SettlementTotal())
}

func TestSortTxs(t *testing.T) {
	a := buy(t, "XYZ", "2023-01-10", "1", "1", "")
	b := buy(t, "XYZ", "2023-01-09", "1", "1", "")
	c := sell(t, "XYZ", "2023-01-10", "1", "1", "")
	in := []*Tx{c, a, b}
	sorted := SortTxs(in)
	require.Equal(t, []*Tx{b, a, c}, sorted)
	// Input is left alone.
	require.Equal(t, []*Tx{c, a, b}, in)
}

func TestMergeSameInstant(t *testing.T) {
	at := mkDate(t, "2023-01-10").WithClock(10, 30, 0, 0)
	p1 := buy(t, "XYZ", "2023-01-10", "100", "10", "1010")
	p2 := buy(t, "XYZ", "2023-01-10", "300", "10.40", "3130")
	p3 := buy(t, "XYZ", "2023-01-10", "5", "11", "")
	p1.Date, p2.Date = at, at
	p1.Memo, p2.Memo = "parcel 1", "parcel 2"
	other := buy(t, "ABC", "2023-01-10", "1", "1", "")
	other.Date = at

	merged := MergeSameInstant([]*Tx{p1, p2, p3, other})
	require.Len(t, merged, 3)
	m := merged[0]
	requireDecEqual(t, "400", m.Shares)
	requireDecEqual(t, "4120", m.Value)
	requireDecEqual(t, "10.3", m.Price)
	requireDecEqual(t, "4140", m.Total.Decimal)
	assert.Equal(t, 2, m.Count)
	assert.Equal(t, "parcel 1 parcel 2", m.Memo)
	// Originals are not modified.
	requireDecEqual(t, "100", p1.Shares)
	assert.Same(t, p3, merged[1])
	assert.Same(t, other, merged[2])
}

func TestTxString(t *testing.T) {
	tx := sell(t, "CBA", "2023-05-15", "100", "105", "10480.05")
	tx.ID = "C123"
	assert.Equal(t, "2023-05-15 Sell -100 CBA @ 105 total -10480.05 (id C123)", tx.String())
}
