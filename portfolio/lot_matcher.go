package portfolio

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/wwade/cgtlots/date"
	"github.com/wwade/cgtlots/util"
)

// matchClosingLot consumes open lots against tx, which reduces (or reverses)
// the position, and files a Profit under fy for every lot it touches.
//
// The cost of each matched slice is the holding's average price, not the
// lot's own price. Lots only decide the quantity and the opening date used
// for the discount test.
func (h *Holding) matchClosingLot(tx *Tx, fy int) error {
	target := tx.Shares.Abs()
	acquired := decimal.Zero
	// Sells carry a negative total, so the close value is taken unsigned.
	closeTotal := tx.Total.Decimal.Abs()
	hasTotal := tx.HasTotal()
	realized := decimal.Zero

	for acquired.LessThan(target) {
		lot := h.popLot()
		if lot == nil {
			break
		}
		if lot.Action == tx.Action {
			return newDataIntegrityError(h.Security, ErrSameDirectionLot,
				fmt.Sprintf("open lot is a %s", lot.Action), lot, tx)
		}

		lotShares := lot.Shares.Abs()
		matched := util.MinDecimal(target.Sub(acquired), lotShares)
		acquired = acquired.Add(lotShares)

		cost := h.AveragePrice.Mul(matched)
		var closeValue decimal.Decimal
		if hasTotal {
			closeValue = util.Prorate(closeTotal, matched, target)
		} else {
			closeValue = tx.Price.Mul(matched)
		}
		profit := util.Tern(lot.Action == BUY, closeValue.Sub(cost), cost.Sub(closeValue))

		p := &Profit{
			Quantity:         matched,
			Cost:             cost,
			CostPrice:        h.AveragePrice,
			ClosePrice:       tx.Price,
			Profit:           profit,
			DiscountEligible: profit.IsPositive() && date.HeldTwelveMonths(lot.Date, tx.Date),
			TradeType:        lot.Action,
			Open:             lot,
			Close:            tx,
			YearInit:         lot.Date,
			YearClose:        tx.Date,
		}
		if p.SpansFinancialYears() {
			slog.Debug("close matched against a lot from an earlier financial year",
				"security", h.Security, "opened", lot.Date.String(), "closed", tx.Date.String(),
				"quantity", matched.String())
		}
		h.Profits[fy] = append(h.Profits[fy], p)
		realized = realized.Add(profit)

		if acquired.GreaterThanOrEqual(target) {
			if leftover := acquired.Sub(target); leftover.IsPositive() {
				h.returnLot(h.leftoverLot(lot, leftover))
			}
			break
		}
	}

	if acquired.LessThan(target) {
		util.Assertf(len(h.Lots) == 0,
			"matchClosingLot: %s shares unmatched with %d lots open", target.Sub(acquired), len(h.Lots))
		surplus := h.surplusLot(tx, target.Sub(acquired), target)
		h.pushLot(surplus)
		h.AveragePrice = surplus.SettlementTotal().Div(surplus.Shares)
	}

	if h.AverageClose.IsZero() {
		h.AverageClose = tx.Price
	} else {
		h.AverageClose = h.AverageClose.Add(tx.Price).Div(decimal.NewFromInt(2))
	}
	h.Profit = h.Profit.Add(realized)
	return nil
}

// leftoverLot is what remains open of lot after a partial close. Its total
// is carried at the average price so later matches see a consistent basis.
func (h *Holding) leftoverLot(lot *Tx, leftover decimal.Decimal) *Tx {
	rest := lot.Copy()
	if lot.Shares.IsNegative() {
		leftover = leftover.Neg()
	}
	rest.Shares = leftover
	rest.Value = lot.Price.Mul(leftover)
	rest.Total = SomeDecimal(h.AveragePrice.Mul(leftover))
	rest.Count = 1
	return rest
}

// surplusLot opens a position in the direction of tx for the shares it sold
// (or bought) beyond what the holding had.
func (h *Holding) surplusLot(tx *Tx, surplus, target decimal.Decimal) *Tx {
	lot := tx.Copy()
	if tx.Shares.IsNegative() {
		surplus = surplus.Neg()
	}
	lot.Shares = surplus
	lot.Value = tx.Price.Mul(surplus)
	if tx.HasTotal() {
		lot.Total = SomeDecimal(util.Prorate(tx.Total.Decimal, surplus.Abs(), target))
	} else {
		lot.Total = decimal.NullDecimal{}
	}
	lot.Count = 1
	return lot
}
