package portfolio

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wwade/cgtlots/date"
)

func TestRoundTrip(t *testing.T) {
	h := NewHolding("CBA")
	addTxs(t, h, nil,
		buy(t, "CBA", "2023-02-15", "100", "100", "10019.95"),
		sell(t, "CBA", "2023-05-15", "100", "105", "10480.05"),
	)

	profits := h.Profits[2022]
	require.Len(t, profits, 1)
	p := profits[0]
	requireDecEqual(t, "100", p.Quantity)
	requireDecEqual(t, "10019.95", p.Cost)
	requireDecEqual(t, "100.1995", p.CostPrice)
	requireDecEqual(t, "105", p.ClosePrice)
	requireDecEqual(t, "460.10", p.Profit)
	assert.False(t, p.DiscountEligible)
	assert.Equal(t, BUY, p.TradeType)
	assert.Equal(t, mkDate(t, "2023-02-15"), p.YearInit)
	assert.Equal(t, mkDate(t, "2023-05-15"), p.YearClose)

	assert.True(t, h.Shares.IsZero())
	assert.Empty(t, h.Lots)
	assert.True(t, h.Cost.IsZero())
	assert.True(t, h.Value.IsZero())
	requireDecEqual(t, "460.10", h.Profit)
	requireDecEqual(t, "105", h.AverageClose)
	assert.Equal(t, mkDate(t, "2023-05-15"), h.DateClose)

	tv := h.TradeValues[2022]
	require.NotNil(t, tv)
	requireDecEqual(t, "10019.95", tv.Buy)
	requireDecEqual(t, "10480.05", tv.Sell)
	assert.Len(t, tv.Txs, 2)
}

func TestPartialClose(t *testing.T) {
	h := NewHolding("XYZ")
	addTxs(t, h, nil,
		buy(t, "XYZ", "2023-01-10", "100", "10", "1000"),
		sell(t, "XYZ", "2023-02-10", "40", "12", "480"),
	)
	require.Len(t, h.Profits[2022], 1)
	requireDecEqual(t, "40", h.Profits[2022][0].Quantity)
	requireDecEqual(t, "400", h.Profits[2022][0].Cost)
	requireDecEqual(t, "80", h.Profits[2022][0].Profit)

	requireDecEqual(t, "60", h.Shares)
	requireDecEqual(t, "10", h.AveragePrice)
	require.Len(t, h.Lots, 1)
	leftover := h.Lots[0]
	requireDecEqual(t, "60", leftover.Shares)
	requireDecEqual(t, "10", leftover.Price)
	requireDecEqual(t, "600", leftover.Total.Decimal)
	assert.Equal(t, BUY, leftover.Action)
	// Net settlement of what is still open.
	requireDecEqual(t, "520", h.Cost)

	// The original record is untouched.
	requireDecEqual(t, "100", h.Profits[2022][0].Open.Shares)
}

func TestCloseWithoutTotal(t *testing.T) {
	h := NewHolding("XYZ")
	addTxs(t, h, nil,
		buy(t, "XYZ", "2023-01-10", "100", "10", ""),
		sell(t, "XYZ", "2023-02-10", "100", "9", ""),
	)
	requireDecEqual(t, "-100", h.Profit)
	requireDecEqual(t, "900", h.TradeValues[2022].Sell)
}

func TestReversal(t *testing.T) {
	h := NewHolding("XYZ")
	addTxs(t, h, nil,
		buy(t, "XYZ", "2023-01-10", "100", "10", "1000"),
		sell(t, "XYZ", "2023-01-20", "150", "12", "1800"),
	)
	require.Len(t, h.Profits[2022], 1)
	p := h.Profits[2022][0]
	requireDecEqual(t, "100", p.Quantity)
	requireDecEqual(t, "200", p.Profit)

	requireDecEqual(t, "-50", h.Shares)
	require.Len(t, h.Lots, 1)
	surplus := h.Lots[0]
	assert.Equal(t, SELL, surplus.Action)
	requireDecEqual(t, "-50", surplus.Shares)
	requireDecEqual(t, "-600", surplus.Total.Decimal)
	requireDecEqual(t, "-600", surplus.Value)
	requireDecEqual(t, "12", h.AveragePrice)
	requireDecEqual(t, "-600", h.Cost)
	requireDecEqual(t, "-600", h.Value)

	// Covering the short profits when the buy back is cheaper.
	addTxs(t, h, nil, buy(t, "XYZ", "2023-02-01", "50", "11", "550"))
	require.Len(t, h.Profits[2022], 2)
	cover := h.Profits[2022][1]
	assert.Equal(t, SELL, cover.TradeType)
	requireDecEqual(t, "600", cover.Cost)
	requireDecEqual(t, "50", cover.Profit)
	assert.True(t, h.Shares.IsZero())
	requireDecEqual(t, "250", h.Profit)
	requireDecEqual(t, "11.5", h.AverageClose)
}

func TestShortFromFlat(t *testing.T) {
	h := NewHolding("XYZ")
	addTxs(t, h, nil,
		sell(t, "XYZ", "2023-01-10", "100", "10", "990"),
		buy(t, "XYZ", "2023-02-10", "100", "8", "810"),
	)
	require.Len(t, h.Profits[2022], 1)
	requireDecEqual(t, "9.9", h.Profits[2022][0].CostPrice)
	requireDecEqual(t, "180", h.Profits[2022][0].Profit)
	assert.Equal(t, SELL, h.Profits[2022][0].TradeType)
}

func TestDiscountBoundary(t *testing.T) {
	for _, tc := range []struct {
		closeDate string
		price     string
		eligible  bool
	}{
		{"2023-06-15", "12", true},
		{"2023-06-14", "12", false},
		// A loss is never eligible.
		{"2024-06-15", "8", false},
	} {
		t.Run(tc.closeDate+"@"+tc.price, func(t *testing.T) {
			h := NewHolding("XYZ")
			addTxs(t, h, nil,
				buy(t, "XYZ", "2022-06-15", "10", "10", ""),
				sell(t, "XYZ", tc.closeDate, "10", tc.price, ""),
			)
			profits := h.AllProfits()
			require.Len(t, profits, 1)
			require.Equal(t, tc.eligible, profits[0].DiscountEligible)
		})
	}
}

func TestFinancialYearAttribution(t *testing.T) {
	h := NewHolding("XYZ")
	addTxs(t, h, nil,
		buy(t, "XYZ", "2023-01-01", "20", "10", ""),
		sell(t, "XYZ", "2023-06-30", "10", "11", ""),
		sell(t, "XYZ", "2023-07-01", "10", "12", ""),
	)
	require.Len(t, h.Profits[2022], 1)
	require.Len(t, h.Profits[2023], 1)
	requireDecEqual(t, "10", h.Profits[2022][0].Profit)
	requireDecEqual(t, "20", h.Profits[2023][0].Profit)
	assert.False(t, h.Profits[2022][0].SpansFinancialYears())
	assert.True(t, h.Profits[2023][0].SpansFinancialYears())
	// Turnover follows each transaction's own year.
	requireDecEqual(t, "200", h.TradeValues[2022].Buy)
	requireDecEqual(t, "110", h.TradeValues[2022].Sell)
	requireDecEqual(t, "120", h.TradeValues[2023].Sell)
}

func TestAveragingUp(t *testing.T) {
	h := NewHolding("XYZ")
	addTxs(t, h, nil,
		buy(t, "XYZ", "2023-01-10", "100", "10", "1000"),
		buy(t, "XYZ", "2023-01-11", "100", "20", "2000"),
	)
	requireDecEqual(t, "15", h.AveragePrice)
	requireDecEqual(t, "3000", h.Cost)
	requireDecEqual(t, "3000", h.OpenCost())
	assert.Len(t, h.Lots, 2)
	assert.Equal(t, mkDate(t, "2023-01-10"), h.DateInit)
}

func TestMatchOrder(t *testing.T) {
	for _, tc := range []struct {
		order         MatchOrder
		eligible      bool
		remainingDate string
	}{
		{LIFO, false, "2021-01-04"},
		{FIFO, true, "2022-03-01"},
	} {
		t.Run(tc.order.String(), func(t *testing.T) {
			h := NewHolding("XYZ")
			h.MatchOrder = tc.order
			addTxs(t, h, nil,
				buy(t, "XYZ", "2021-01-04", "100", "10", "1000"),
				buy(t, "XYZ", "2022-03-01", "100", "20", "2000"),
				sell(t, "XYZ", "2022-03-10", "100", "30", "3000"),
			)
			profits := h.Profits[2021]
			require.Len(t, profits, 1)
			requireDecEqual(t, "1500", profits[0].Cost)
			requireDecEqual(t, "1500", profits[0].Profit)
			require.Equal(t, tc.eligible, profits[0].DiscountEligible)
			require.Len(t, h.Lots, 1)
			require.Equal(t, mkDate(t, tc.remainingDate), h.Lots[0].Date)
		})
	}
}

func TestFIFOLeftoverStaysInFront(t *testing.T) {
	h := NewHolding("XYZ")
	h.MatchOrder = FIFO
	addTxs(t, h, nil,
		buy(t, "XYZ", "2023-01-10", "100", "10", ""),
		buy(t, "XYZ", "2023-01-11", "100", "10", ""),
		sell(t, "XYZ", "2023-01-12", "50", "11", ""),
	)
	require.Len(t, h.Lots, 2)
	assert.Equal(t, mkDate(t, "2023-01-10"), h.Lots[0].Date)
	requireDecEqual(t, "50", h.Lots[0].Shares)

	// The next close consumes the leftover, then the second lot.
	addTxs(t, h, nil, sell(t, "XYZ", "2023-01-13", "100", "11", ""))
	profits := h.Profits[2022]
	require.Len(t, profits, 3)
	requireDecEqual(t, "50", profits[1].Quantity)
	requireDecEqual(t, "50", profits[2].Quantity)
	assert.Equal(t, mkDate(t, "2023-01-11"), profits[2].Open.Date)
}

func TestMultiLotClose(t *testing.T) {
	h := NewHolding("XYZ")
	addTxs(t, h, nil,
		buy(t, "XYZ", "2023-01-10", "30", "10", ""),
		buy(t, "XYZ", "2023-01-11", "30", "10", ""),
		buy(t, "XYZ", "2023-01-12", "30", "10", ""),
		sell(t, "XYZ", "2023-01-13", "75", "12", "900"),
	)
	profits := h.Profits[2022]
	require.Len(t, profits, 3)
	requireDecEqual(t, "30", profits[0].Quantity)
	requireDecEqual(t, "30", profits[1].Quantity)
	requireDecEqual(t, "15", profits[2].Quantity)
	requireDecEqual(t, "360", profits[0].Profit.Add(profits[0].Cost))
	requireDecEqual(t, "150", h.Profit)
	requireDecEqual(t, "15", h.Shares)
	requireDecEqual(t, h.Profit.String(), sumProfits(h))
}

func TestLotTotalsDoNotSetTheBasis(t *testing.T) {
	h := NewHolding("XYZ")
	addTxs(t, h, nil,
		buy(t, "XYZ", "2023-01-10", "100", "10", "1000"),
		buy(t, "XYZ", "2023-01-11", "100", "20", "2000"),
		sell(t, "XYZ", "2023-01-12", "50", "30", "1500"),
	)
	requireDecEqual(t, "15", h.AveragePrice)
	lotTotals := decimal.Zero
	for _, lot := range h.Lots {
		lotTotals = lotTotals.Add(lot.SettlementTotal())
	}
	requireDecEqual(t, "1750", lotTotals)
	requireDecEqual(t, "2250", h.OpenCost())

	// Closing the rest is costed at the average, whatever the lots carry.
	addTxs(t, h, nil, sell(t, "XYZ", "2023-01-13", "150", "30", "4500"))
	require.Len(t, h.Profits[2022], 3)
	requireDecEqual(t, "750", h.Profits[2022][1].Cost)
	requireDecEqual(t, "1500", h.Profits[2022][2].Cost)
	requireDecEqual(t, "3000", h.Profit)
}

func TestReversalAcrossLots(t *testing.T) {
	h := NewHolding("XYZ")
	addTxs(t, h, nil,
		buy(t, "XYZ", "2023-01-10", "30", "10", ""),
		buy(t, "XYZ", "2023-01-11", "20", "10", ""),
		sell(t, "XYZ", "2023-01-12", "80", "10", ""),
	)
	require.Len(t, h.Profits[2022], 2)
	require.Len(t, h.Lots, 1)
	require.Equal(t, SELL, h.Lots[0].Action)
	requireDecEqual(t, "-30", h.Shares)
	requireDecEqual(t, "10", h.AveragePrice)
}

func TestCorporateAction(t *testing.T) {
	effective := mkDate(t, "2023-02-01")
	lookups := 0
	resolver := CorporateActionFunc(func(sec string, on, lastApplied date.Date) (CorporateAction, bool) {
		lookups++
		if sec == "XYZ" && on.After(effective) && lastApplied.Before(effective) {
			return CorporateAction{Date: effective, Factor: decimal.NewFromInt(2)}, true
		}
		return CorporateAction{}, false
	})

	h := NewHolding("XYZ")
	addTxs(t, h, resolver, buy(t, "XYZ", "2023-01-10", "100", "10", "1000"))
	addTxs(t, h, resolver, sell(t, "XYZ", "2023-03-01", "100", "6", ""))

	requireDecEqual(t, "100", h.Shares)
	requireDecEqual(t, "5", h.AveragePrice)
	assert.Equal(t, effective, h.LastCorporateAction)
	require.Len(t, h.Lots, 1)
	requireDecEqual(t, "100", h.Lots[0].Shares)
	requireDecEqual(t, "5", h.Lots[0].Price)
	requireDecEqual(t, "100", h.Profits[2022][0].Profit)

	// Applied once only.
	addTxs(t, h, resolver, sell(t, "XYZ", "2023-04-01", "100", "6", ""))
	requireDecEqual(t, "0", h.Shares)
	requireDecEqual(t, "200", h.Profit)
	assert.Equal(t, 3, lookups)
}

func TestInvalidCorporateAction(t *testing.T) {
	resolver := CorporateActionFunc(func(string, date.Date, date.Date) (CorporateAction, bool) {
		return CorporateAction{Date: date.New(2023, 1, 1), Factor: decimal.Zero}, true
	})
	h := NewHolding("XYZ")
	err := h.AddTx(buy(t, "XYZ", "2023-01-10", "100", "10", ""), resolver)
	require.ErrorIs(t, err, ErrInvalidCorporateAction)
}

func TestZeroQuantityIsNoop(t *testing.T) {
	h := NewHolding("XYZ")
	tx := &Tx{Security: "XYZ", Date: mkDate(t, "2023-01-10"), Action: NO_ACTION}
	require.NoError(t, h.AddTx(tx, nil))
	assert.Empty(t, h.TradeValues)
	assert.Empty(t, h.Lots)
}

func TestUnknownAction(t *testing.T) {
	h := NewHolding("XYZ")
	tx := &Tx{Security: "XYZ", Date: mkDate(t, "2023-01-10"), Action: NO_ACTION, Shares: dec("10")}
	err := h.AddTx(tx, nil)
	require.ErrorIs(t, err, ErrUnknownAction)

	var die *DataIntegrityError
	require.True(t, errors.As(err, &die))
	require.Equal(t, "XYZ", die.Security)
	require.Equal(t, []*Tx{tx}, die.Txs)
}

func TestSameDirectionLot(t *testing.T) {
	h := NewHolding("XYZ")
	// A corrupted stack: long position whose only lot is a sell.
	bad := sell(t, "XYZ", "2023-01-09", "100", "10", "")
	h.Shares = dec("100")
	h.AveragePrice = dec("10")
	h.Lots = []*Tx{bad}

	closing := sell(t, "XYZ", "2023-01-10", "50", "11", "")
	err := h.AddTx(closing, nil)
	require.ErrorIs(t, err, ErrSameDirectionLot)
	var die *DataIntegrityError
	require.True(t, errors.As(err, &die))
	require.Equal(t, []*Tx{bad, closing}, die.Txs)
	require.Contains(t, err.Error(), "XYZ")
	require.Contains(t, err.Error(), "2023-01-10")
}

func TestNegativeAveragePrice(t *testing.T) {
	h := NewHolding("XYZ")
	tx := &Tx{
		Security: "XYZ", Date: mkDate(t, "2023-01-10"), Action: BUY,
		Shares: dec("10"), Price: dec("1"), Total: SomeDecimal(dec("-50")),
	}
	err := h.AddTx(tx, nil)
	require.ErrorIs(t, err, ErrNegativeAveragePrice)
}

func TestCheckInvariants(t *testing.T) {
	h := NewHolding("XYZ")
	require.NoError(t, h.CheckInvariants())
	h.Shares = dec("10")
	require.ErrorIs(t, h.CheckInvariants(), ErrBrokenInvariant)
	h.Lots = []*Tx{buy(t, "XYZ", "2023-01-10", "5", "1", "")}
	require.ErrorIs(t, h.CheckInvariants(), ErrBrokenInvariant)
	h.Shares = dec("5")
	require.NoError(t, h.CheckInvariants())
}

func TestParseMatchOrder(t *testing.T) {
	o, err := ParseMatchOrder("FIFO")
	require.NoError(t, err)
	require.Equal(t, FIFO, o)
	o, err = ParseMatchOrder("")
	require.NoError(t, err)
	require.Equal(t, LIFO, o)
	_, err = ParseMatchOrder("hifo")
	require.Error(t, err)
}

func TestSplitTxsBySecurity(t *testing.T) {
	a := buy(t, "AAA", "2023-01-10", "1", "1", "")
	b := buy(t, "BBB", "2023-01-10", "1", "1", "")
	c := sell(t, "AAA", "2023-01-11", "1", "1", "")
	split := SplitTxsBySecurity([]*Tx{a, b, c})
	require.Equal(t, []*Tx{a, c}, split["AAA"])
	require.Equal(t, []*Tx{b}, split["BBB"])
}
