package portfolio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/wwade/cgtlots/date"
	"github.com/wwade/cgtlots/util"
)

type _PrintHelper struct {
	PrintAllDecimals bool
	// Humanize adds thousands separators.
	Humanize bool
}

func humanizeDecimalStr(val string) string {
	negative := ""
	if strings.HasPrefix(val, "-") {
		negative, val = val[:1], val[1:]
	}
	before, after, found := strings.Cut(val, ".")
	suffix := ""
	if found {
		suffix = fmt.Sprintf(".%s", after)
	}
	i, err := strconv.ParseInt(before, 10, 64)
	if err != nil {
		panic(err)
	}
	p := message.NewPrinter(language.English)
	return p.Sprintf("%s%d%s", negative, i, suffix)
}

func (h _PrintHelper) CurrStr(val decimal.Decimal) string {
	var s string
	if h.PrintAllDecimals {
		s = val.String()
	} else {
		s = val.StringFixed(2)
	}
	if h.Humanize {
		return humanizeDecimalStr(s)
	}
	return s
}

func (h _PrintHelper) DollarStr(val decimal.Decimal) string {
	if val.IsNegative() {
		return "-$" + h.CurrStr(val.Neg())
	}
	return "$" + h.CurrStr(val)
}

// PriceStr prints a per unit price, which keeps more precision than a
// dollar amount.
func (h _PrintHelper) PriceStr(val decimal.Decimal) string {
	if h.PrintAllDecimals {
		return h.DollarStr(val)
	}
	return "$" + val.Round(4).String()
}

func strOrDash(useStr bool, str string) string {
	if useStr {
		return str
	}
	return "-"
}

func (h _PrintHelper) PlusMinusDollar(val decimal.Decimal, showPlus bool) string {
	if val.IsNegative() {
		return fmt.Sprintf("-$%s", h.CurrStr(val.Neg()))
	}
	plus := ""
	if showPlus {
		plus = "+"
	}
	return fmt.Sprintf("%s$%s", plus, h.CurrStr(val))
}

type RenderTable struct {
	Header []string
	Rows   [][]string
	Footer []string
	Notes  []string
	Errors []error
}

type RenderOptions struct {
	FullValues bool
	Humanize   bool
}

func (o RenderOptions) helper() _PrintHelper {
	return _PrintHelper{PrintAllDecimals: o.FullValues, Humanize: o.Humanize}
}

// RenderFinancialYearSummary renders one financial year as a two column
// item/value table.
func RenderFinancialYearSummary(s *FinancialYearSummary, opts RenderOptions) *RenderTable {
	ph := opts.helper()
	table := &RenderTable{Header: []string{"Item", s.Label()}}

	rows := [][]string{
		{"Total cost", ph.DollarStr(s.TotalCost)},
		{"Total buy", ph.DollarStr(s.TotalBuy)},
		{"Total sell", ph.DollarStr(s.TotalSell)},
		{"Total trades", strconv.Itoa(s.TotalTrades)},
		{"Profit", ph.PlusMinusDollar(s.Profit, false)},
		{"Profit (discount eligible)", ph.PlusMinusDollar(s.ProfitDiscount, false)},
		{"Profit (not discount eligible)", ph.PlusMinusDollar(s.ProfitNonDiscount(), false)},
		{"Total gain", ph.PlusMinusDollar(s.TotalProfitGain, false)},
		{"Winning trades", strconv.Itoa(s.TotalProfitTrades)},
		{"Total loss", ph.PlusMinusDollar(s.TotalProfitLoss, false)},
		{"Losing trades", strconv.Itoa(s.TotalLossTrades)},
		{"Best trade", strOrDash(!s.TradeProfitMax.IsZero(), s.TradeProfitMax.String())},
		{"Worst trade", strOrDash(!s.TradeLossMax.IsZero(), s.TradeLossMax.String())},
	}
	table.Rows = rows
	return table
}

// RenderHoldingsProfit lists the realized profit of every holding that
// closed anything in the given financial years.
func RenderHoldingsProfit(p *Portfolio, years []int, opts RenderOptions) *RenderTable {
	ph := opts.helper()
	table := &RenderTable{
		Header: []string{"Security", "Company", "Year", "Closes", "Cost", "Profit", "Discount Eligible"},
	}

	total := decimal.Zero
	totalDiscount := decimal.Zero
	for _, sec := range p.SortedSecurities() {
		h := p.Holdings[sec]
		for _, year := range years {
			profits := h.Profits[year]
			if len(profits) == 0 {
				continue
			}
			var cost, profit, discount decimal.Decimal
			for _, pr := range profits {
				cost = cost.Add(pr.Cost)
				profit = profit.Add(pr.Profit)
				if pr.DiscountEligible {
					discount = discount.Add(pr.Profit)
				}
			}
			total = total.Add(profit)
			totalDiscount = totalDiscount.Add(discount)
			table.Rows = append(table.Rows, []string{
				sec, h.Company, date.FinancialYearLabel(year), strconv.Itoa(len(profits)),
				ph.DollarStr(cost), ph.PlusMinusDollar(profit, false),
				strOrDash(!discount.IsZero(), ph.PlusMinusDollar(discount, false)),
			})
		}
	}
	table.Footer = []string{"", "", "", "", "Total",
		ph.PlusMinusDollar(total, false), ph.PlusMinusDollar(totalDiscount, false)}
	return table
}

// RenderProfitsTable lists every closing event of one holding.
func RenderProfitsTable(h *Holding, opts RenderOptions) *RenderTable {
	ph := opts.helper()
	table := &RenderTable{
		Header: []string{"Opened", "Closed", "Type", "Quantity", "Cost Price", "Close Price",
			"Cost", "Profit", "Discount"},
	}
	sawCrossYear := false
	for _, pr := range h.AllProfits() {
		crossYear := ""
		if pr.SpansFinancialYears() {
			crossYear = " *"
			sawCrossYear = true
		}
		table.Rows = append(table.Rows, []string{
			pr.YearInit.String(), pr.YearClose.String() + crossYear,
			util.Tern(pr.TradeType == SELL, "Short", "Long"),
			pr.Quantity.String(),
			ph.PriceStr(pr.CostPrice), ph.PriceStr(pr.ClosePrice),
			ph.DollarStr(pr.Cost), ph.PlusMinusDollar(pr.Profit, false),
			util.Tern(pr.DiscountEligible, "Yes", "No"),
		})
	}
	table.Footer = []string{"", "", "", "", "", "", "Total", ph.PlusMinusDollar(h.Profit, false), ""}
	if sawCrossYear {
		table.Notes = append(table.Notes, " * Opened in an earlier financial year")
	}
	return table
}

// RenderOpenHoldings lists the positions still open, long or short.
func RenderOpenHoldings(p *Portfolio, opts RenderOptions) *RenderTable {
	ph := opts.helper()
	table := &RenderTable{
		Header: []string{"Security", "Company", "Shares", "Average Price", "Cost", "Open Lots", "Since"},
	}
	for _, h := range p.OpenHoldings() {
		table.Rows = append(table.Rows, []string{
			h.Security, h.Company, h.Shares.String(), ph.PriceStr(h.AveragePrice),
			ph.DollarStr(h.OpenCost()), strconv.Itoa(len(h.Lots)), h.DateInit.String(),
		})
	}
	table.Footer = []string{"", "", "", "Total", ph.DollarStr(p.RemainingCost()), "", ""}
	return table
}

// RenderAggregateGains generates a RenderTable that will render out to this:
//
//	| Year             | Capital Gains | Discount Eligible | Gross Income |
//	+------------------+---------------+-------------------+--------------+
//	| 2021-2022        | xxxx.xx       | xxxx.xx           | xxxx.xx      |
//	| 2022-2023        | xxxx.xx       | xxxx.xx           | xxxx.xx      |
//	| Since inception  | xxxx.xx       | xxxx.xx           | xxxx.xx      |
func RenderAggregateGains(gains *CumulativeGains, opts RenderOptions) *RenderTable {
	ph := opts.helper()
	table := &RenderTable{}
	table.Header = []string{"Year", "Capital Gains", "Discount Eligible", "Gross Income"}

	for _, year := range gains.YearsSorted() {
		table.Rows = append(table.Rows, []string{
			date.FinancialYearLabel(year),
			ph.PlusMinusDollar(gains.GainsYearTotals[year], false),
			ph.PlusMinusDollar(gains.DiscountYearTotals[year], false),
			ph.DollarStr(gains.GrossIncomeByYear[year]),
		})
	}
	table.Rows = append(table.Rows, []string{
		"Since inception",
		ph.PlusMinusDollar(gains.GainsTotal, false),
		ph.PlusMinusDollar(gains.DiscountTotal, false),
		ph.DollarStr(gains.GrossIncomeTotal),
	})
	return table
}
