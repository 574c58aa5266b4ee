package portfolio

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/wwade/cgtlots/util"
)

// AddTx applies one transaction to the holding. Transactions must be added
// in ascending date order. resolver may be nil, which disables split and
// consolidation adjustments.
//
// Errors returned are *DataIntegrityError. The holding should not be used
// further after an error.
func (h *Holding) AddTx(tx *Tx, resolver CorporateActionResolver) error {
	util.Assertf(tx.Security == h.Security,
		"AddTx: securities do not match (%s and %s)", tx.Security, h.Security)

	// Zero-quantity records (dividends, fee adjustments) carry nothing the
	// cost basis cares about.
	if tx.Shares.IsZero() {
		return nil
	}
	if tx.Action != BUY && tx.Action != SELL {
		return newDataIntegrityError(h.Security, ErrUnknownAction,
			fmt.Sprintf("action %d", int(tx.Action)), tx)
	}
	if h.Company == "" {
		h.Company = tx.Company
	}

	if resolver != nil {
		if action, ok := resolver.Lookup(h.Security, tx.Date, h.LastCorporateAction); ok {
			if err := h.applyCorporateAction(action, tx); err != nil {
				return err
			}
		}
	}

	fy := tx.Date.FinancialYear()
	total := signedTotal(tx)
	reversed := false

	if util.OppositeSign(h.Shares, tx.Shares) {
		prevShares := h.Shares
		if err := h.matchClosingLot(tx, fy); err != nil {
			return err
		}
		reversed = prevShares.Abs().LessThan(tx.Shares.Abs())
	} else {
		if h.Shares.IsZero() {
			h.AveragePrice = total.Div(tx.Shares)
			h.DateInit = tx.Date
		} else {
			h.AveragePrice = h.AveragePrice.Mul(h.Shares).Add(total).Div(h.Shares.Add(tx.Shares))
		}
		h.pushLot(tx)
	}
	if h.AveragePrice.IsNegative() {
		return newDataIntegrityError(h.Security, ErrNegativeAveragePrice,
			fmt.Sprintf("average price %s", h.AveragePrice), tx)
	}

	h.Shares = h.Shares.Add(tx.Shares)
	switch {
	case h.Shares.IsZero():
		h.Cost = decimal.Zero
		h.Value = decimal.Zero
		h.DateClose = tx.Date
	case reversed:
		// Only the surplus lot is open now.
		surplus := h.Lots[0]
		h.Cost = surplus.SettlementTotal()
		h.Value = surplus.Value
		h.DateInit = tx.Date
	default:
		h.Cost = h.Cost.Add(total)
		h.Value = h.Value.Add(tx.Value)
	}

	h.addTradeValue(tx, fy)
	h.CostHistory = append(h.CostHistory, CostPoint{Date: tx.Date, Cost: h.OpenCost()})
	return nil
}

func (h *Holding) applyCorporateAction(action CorporateAction, tx *Tx) error {
	if !action.Factor.IsPositive() {
		return newDataIntegrityError(h.Security, ErrInvalidCorporateAction,
			fmt.Sprintf("factor %s effective %s", action.Factor, action.Date), tx)
	}
	h.Shares = h.Shares.Mul(action.Factor)
	h.AveragePrice = h.AveragePrice.Div(action.Factor)
	for i, lot := range h.Lots {
		scaled := lot.Copy()
		scaled.Shares = lot.Shares.Mul(action.Factor)
		scaled.Price = lot.Price.Div(action.Factor)
		h.Lots[i] = scaled
	}
	h.LastCorporateAction = action.Date
	slog.Debug("applied corporate action",
		"security", h.Security, "effective", action.Date.String(),
		"factor", action.Factor.String(), "before", tx.Date.String())
	return nil
}

func (h *Holding) addTradeValue(tx *Tx, fy int) {
	tv, ok := h.TradeValues[fy]
	if !ok {
		tv = &TradeValue{Year: fy}
		h.TradeValues[fy] = tv
	}
	amount := tx.SettlementTotal().Abs()
	switch tx.Action {
	case BUY:
		tv.Buy = tv.Buy.Add(amount)
	case SELL:
		tv.Sell = tv.Sell.Add(amount)
	}
	tv.Txs = append(tv.Txs, tx)
}

// signedTotal is the settlement total if supplied, else the trade value.
func signedTotal(tx *Tx) decimal.Decimal {
	if tx.HasTotal() {
		return tx.Total.Decimal
	}
	if !tx.Value.IsZero() {
		return tx.Value
	}
	return tx.Shares.Mul(tx.Price)
}

// SplitTxsBySecurity groups txs by security. Each group keeps the order
// its transactions had in txs.
func SplitTxsBySecurity(txs []*Tx) map[string][]*Tx {
	bySecurity := make(map[string][]*Tx)
	for _, tx := range txs {
		bySecurity[tx.Security] = append(bySecurity[tx.Security], tx)
	}
	return bySecurity
}
