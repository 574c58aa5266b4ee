package portfolio

import (
	"github.com/shopspring/decimal"

	"github.com/wwade/cgtlots/util"
)

// CumulativeGains totals realized profit by financial year and since the
// first trade. GrossIncome is the close value of everything sold or covered.
type CumulativeGains struct {
	GainsTotal         decimal.Decimal
	GainsYearTotals    map[int]decimal.Decimal
	DiscountTotal      decimal.Decimal
	DiscountYearTotals map[int]decimal.Decimal
	GrossIncomeTotal   decimal.Decimal
	GrossIncomeByYear  map[int]decimal.Decimal
}

func newCumulativeGains() *CumulativeGains {
	return &CumulativeGains{
		GainsYearTotals:    map[int]decimal.Decimal{},
		DiscountYearTotals: map[int]decimal.Decimal{},
		GrossIncomeByYear:  map[int]decimal.Decimal{},
	}
}

func (g *CumulativeGains) YearsSorted() []int {
	return util.SortedKeys(g.GainsYearTotals)
}

func addTo(m map[int]decimal.Decimal, year int, v decimal.Decimal) {
	m[year] = m[year].Add(v)
}

func CalcHoldingCumulativeGains(h *Holding) *CumulativeGains {
	cc := newCumulativeGains()
	for year, profits := range h.Profits {
		for _, p := range profits {
			cc.GainsTotal = cc.GainsTotal.Add(p.Profit)
			addTo(cc.GainsYearTotals, year, p.Profit)
			if p.DiscountEligible {
				cc.DiscountTotal = cc.DiscountTotal.Add(p.Profit)
				addTo(cc.DiscountYearTotals, year, p.Profit)
			}
			// Long closes receive cost + profit; short covers pay cost - profit.
			gross := util.Tern(p.TradeType == SELL, p.Cost.Sub(p.Profit), p.Cost.Add(p.Profit))
			cc.GrossIncomeTotal = cc.GrossIncomeTotal.Add(gross)
			addTo(cc.GrossIncomeByYear, year, gross)
		}
	}
	return cc
}

func CalcCumulativeGains(holdingGains map[string]*CumulativeGains) *CumulativeGains {
	cc := newCumulativeGains()
	for _, gains := range holdingGains {
		cc.GainsTotal = cc.GainsTotal.Add(gains.GainsTotal)
		cc.DiscountTotal = cc.DiscountTotal.Add(gains.DiscountTotal)
		cc.GrossIncomeTotal = cc.GrossIncomeTotal.Add(gains.GrossIncomeTotal)
		for year, v := range gains.GainsYearTotals {
			addTo(cc.GainsYearTotals, year, v)
		}
		for year, v := range gains.DiscountYearTotals {
			addTo(cc.DiscountYearTotals, year, v)
		}
		for year, v := range gains.GrossIncomeByYear {
			addTo(cc.GrossIncomeByYear, year, v)
		}
	}
	return cc
}

// CalcPortfolioCumulativeGains returns the per holding gains and their
// combined total.
func CalcPortfolioCumulativeGains(p *Portfolio) (map[string]*CumulativeGains, *CumulativeGains) {
	perHolding := make(map[string]*CumulativeGains, len(p.Holdings))
	for sec, h := range p.Holdings {
		perHolding[sec] = CalcHoldingCumulativeGains(h)
	}
	return perHolding, CalcCumulativeGains(perHolding)
}
