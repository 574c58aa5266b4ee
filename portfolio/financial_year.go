package portfolio

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/wwade/cgtlots/date"
)

// Trade describes a single round trip, as reported for the best and worst
// trade of a year.
type Trade struct {
	Security   string
	Quantity   decimal.Decimal
	CostPrice  decimal.Decimal
	ClosePrice decimal.Decimal
	Profit     decimal.Decimal
	Type       TxAction
}

func (t Trade) IsZero() bool {
	return t.Security == ""
}

func (t Trade) String() string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s (%s): open @%s, close @%s, profit: %s",
		t.Security, t.Quantity, t.CostPrice.Round(4), t.ClosePrice.Round(4), t.Profit.StringFixed(2))
}

func tradeFromProfit(security string, p *Profit) Trade {
	return Trade{
		Security:   security,
		Quantity:   p.Quantity,
		CostPrice:  p.CostPrice,
		ClosePrice: p.ClosePrice,
		Profit:     p.Profit,
		Type:       p.TradeType,
	}
}

// FinancialYearSummary aggregates every holding for one financial year.
// Profit is all realized profit, of which ProfitDiscount is eligible for the
// long-term discount.
type FinancialYearSummary struct {
	Year              int
	Profit            decimal.Decimal
	ProfitDiscount    decimal.Decimal
	TotalCost         decimal.Decimal
	TotalBuy          decimal.Decimal
	TotalSell         decimal.Decimal
	TotalTrades       int
	TotalProfitGain   decimal.Decimal
	TotalProfitLoss   decimal.Decimal
	TotalProfitTrades int
	TotalLossTrades   int
	TradeProfitMax    Trade
	TradeLossMax      Trade
}

func (s *FinancialYearSummary) Label() string {
	return date.FinancialYearLabel(s.Year)
}

func (s *FinancialYearSummary) ProfitNonDiscount() decimal.Decimal {
	return s.Profit.Sub(s.ProfitDiscount)
}

// IsEmpty reports whether nothing was traded in the year.
func (s *FinancialYearSummary) IsEmpty() bool {
	return s.TotalTrades == 0 && s.TotalProfitTrades == 0 && s.TotalLossTrades == 0
}

type SummaryOptions struct {
	// Details writes a per-holding breakdown to Out.
	Details bool
	Out     io.Writer
}

type holdingYearDetail struct {
	profit       decimal.Decimal
	discount     decimal.Decimal
	gain         decimal.Decimal
	loss         decimal.Decimal
	profitTrades int
	lossTrades   int
	trades       int
	cost         decimal.Decimal
}

// SummarizeFinancialYear reduces the holdings' profits and turnover for
// year. It does not modify the portfolio, so calling it repeatedly gives the
// same result.
func SummarizeFinancialYear(p *Portfolio, year int, opts SummaryOptions) *FinancialYearSummary {
	s := &FinancialYearSummary{Year: year}

	for _, security := range p.SortedSecurities() {
		h := p.Holdings[security]
		var d holdingYearDetail

		for _, profit := range h.Profits[year] {
			d.profit = d.profit.Add(profit.Profit)
			if profit.DiscountEligible {
				d.discount = d.discount.Add(profit.Profit)
			}
			if profit.Profit.IsPositive() {
				d.gain = d.gain.Add(profit.Profit)
				d.profitTrades++
				if profit.Profit.GreaterThan(s.TradeProfitMax.Profit) {
					s.TradeProfitMax = tradeFromProfit(security, profit)
				}
			} else {
				d.loss = d.loss.Add(profit.Profit)
				d.lossTrades++
				if profit.Profit.LessThan(s.TradeLossMax.Profit) {
					s.TradeLossMax = tradeFromProfit(security, profit)
				}
			}
			d.cost = d.cost.Add(profit.Cost)
		}

		if tv, ok := h.TradeValues[year]; ok {
			s.TotalBuy = s.TotalBuy.Add(tv.Buy)
			s.TotalSell = s.TotalSell.Add(tv.Sell)
			d.trades = len(tv.Txs)
		}

		s.Profit = s.Profit.Add(d.profit)
		s.ProfitDiscount = s.ProfitDiscount.Add(d.discount)
		s.TotalProfitGain = s.TotalProfitGain.Add(d.gain)
		s.TotalProfitLoss = s.TotalProfitLoss.Add(d.loss)
		s.TotalProfitTrades += d.profitTrades
		s.TotalLossTrades += d.lossTrades
		s.TotalTrades += d.trades
		s.TotalCost = s.TotalCost.Add(d.cost)

		if opts.Details && opts.Out != nil && len(h.Profits[year]) > 0 {
			writeHoldingYearDetail(opts.Out, year, security, &d)
		}
	}
	return s
}

func writeHoldingYearDetail(w io.Writer, year int, security string, d *holdingYearDetail) {
	fmt.Fprintf(w, "%s details for %s:\n", date.FinancialYearLabel(year), security)
	fmt.Fprintf(w, "  Profit: %s\n", d.profit.StringFixed(2))
	fmt.Fprintf(w, "  Discount eligible: %s\n", d.discount.StringFixed(2))
	fmt.Fprintf(w, "  Profit gain: %s\n", d.gain.StringFixed(2))
	fmt.Fprintf(w, "  Profit loss: %s\n", d.loss.StringFixed(2))
	fmt.Fprintf(w, "  Profit trades: %d\n", d.profitTrades)
	fmt.Fprintf(w, "  Loss trades: %d\n", d.lossTrades)
	fmt.Fprintf(w, "  Trades: %d\n", d.trades)
	fmt.Fprintf(w, "  Cost: %s\n", d.cost.StringFixed(2))
}
