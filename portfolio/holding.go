package portfolio

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wwade/cgtlots/date"
	"github.com/wwade/cgtlots/util"
)

// MatchOrder selects which open lot a closing transaction consumes first.
type MatchOrder int

const (
	// LIFO pops the most recently opened lot first. This is the default,
	// and matches how historical results were produced.
	LIFO MatchOrder = iota
	// FIFO consumes the oldest open lot first.
	FIFO
)

func (o MatchOrder) String() string {
	if o == FIFO {
		return "fifo"
	}
	return "lifo"
}

func ParseMatchOrder(s string) (MatchOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lifo":
		return LIFO, nil
	case "fifo":
		return FIFO, nil
	}
	return LIFO, fmt.Errorf("invalid match order %q (expected lifo or fifo)", s)
}

// CorporateAction is a split or consolidation. Holdings are multiplied by
// Factor and the average price divided by it.
type CorporateAction struct {
	Date   date.Date
	Factor decimal.Decimal
}

// CorporateActionResolver finds an adjustment effective after lastApplied
// and before on. A zero lastApplied means none has been applied yet.
type CorporateActionResolver interface {
	Lookup(security string, on date.Date, lastApplied date.Date) (CorporateAction, bool)
}

// CorporateActionFunc adapts a plain function to CorporateActionResolver.
type CorporateActionFunc func(security string, on date.Date, lastApplied date.Date) (CorporateAction, bool)

func (f CorporateActionFunc) Lookup(security string, on date.Date, lastApplied date.Date) (CorporateAction, bool) {
	return f(security, on, lastApplied)
}

// Profit is one realized closing event, possibly covering only part of the
// closing transaction.
type Profit struct {
	Quantity         decimal.Decimal
	Cost             decimal.Decimal
	CostPrice        decimal.Decimal
	ClosePrice       decimal.Decimal
	Profit           decimal.Decimal
	DiscountEligible bool
	// TradeType is the action of the opening leg. SELL means a short was
	// covered.
	TradeType TxAction
	Open      *Tx
	Close     *Tx
	YearInit  date.Date
	YearClose date.Date
}

// SpansFinancialYears reports whether the open and close legs fall in
// different financial years.
func (p *Profit) SpansFinancialYears() bool {
	return p.YearInit.FinancialYear() != p.YearClose.FinancialYear()
}

// TradeValue is the buy and sell turnover of one holding in one financial
// year. Buy and Sell are absolute settlement amounts.
type TradeValue struct {
	Year int
	Buy  decimal.Decimal
	Sell decimal.Decimal
	Txs  []*Tx
}

// Holding is the running position in one security.
type Holding struct {
	Security string
	Company  string
	// Shares is signed: negative while short.
	Shares       decimal.Decimal
	AveragePrice decimal.Decimal
	// AverageClose is a running mean of close prices, for information only.
	AverageClose decimal.Decimal
	// Cost and Value accumulate the settlement totals and trade values of the
	// currently open position. Both reset to zero when it goes flat.
	Cost   decimal.Decimal
	Value  decimal.Decimal
	Profit decimal.Decimal
	// Profits and TradeValues are keyed by financial year.
	Profits     map[int][]*Profit
	TradeValues map[int]*TradeValue
	// Lots is the stack of not yet fully closed opening transactions, in the
	// order they were opened. Lot totals are informational; AveragePrice is
	// the cost basis.
	Lots                []*Tx
	LastCorporateAction date.Date
	DateInit            date.Date
	DateClose           date.Date
	// CostHistory records the open cost after every applied transaction.
	CostHistory []CostPoint
	MatchOrder  MatchOrder `json:"-"`
}

type CostPoint struct {
	Date date.Date
	Cost decimal.Decimal
}

func NewHolding(security string) *Holding {
	return &Holding{
		Security:    security,
		Profits:     make(map[int][]*Profit),
		TradeValues: make(map[int]*TradeValue),
	}
}

// ProfitsForYear returns the profits filed under a financial year.
func (h *Holding) ProfitsForYear(year int) []*Profit {
	return h.Profits[year]
}

// AllProfits returns every profit record, in financial year order.
func (h *Holding) AllProfits() []*Profit {
	var all []*Profit
	for _, year := range util.SortedKeys(h.Profits) {
		all = append(all, h.Profits[year]...)
	}
	return all
}

// OpenCost is the cost basis of the open position.
func (h *Holding) OpenCost() decimal.Decimal {
	return h.AveragePrice.Mul(h.Shares)
}

func (h *Holding) pushLot(lot *Tx) {
	h.Lots = append(h.Lots, lot)
}

// popLot removes the next lot to match according to MatchOrder.
func (h *Holding) popLot() *Tx {
	n := len(h.Lots)
	if n == 0 {
		return nil
	}
	var lot *Tx
	if h.MatchOrder == FIFO {
		lot = h.Lots[0]
		h.Lots = h.Lots[1:]
	} else {
		lot = h.Lots[n-1]
		h.Lots = h.Lots[:n-1]
	}
	return lot
}

// returnLot puts a partially consumed lot back where popLot will find it
// next.
func (h *Holding) returnLot(lot *Tx) {
	if h.MatchOrder == FIFO {
		h.Lots = append([]*Tx{lot}, h.Lots...)
		return
	}
	h.pushLot(lot)
}

// CheckInvariants verifies that the share balance and the open lots agree.
func (h *Holding) CheckInvariants() error {
	sum := decimal.Zero
	for _, lot := range h.Lots {
		sum = sum.Add(lot.Shares)
	}
	switch {
	case h.Shares.IsZero() != (len(h.Lots) == 0):
		return newDataIntegrityError(h.Security, ErrBrokenInvariant,
			fmt.Sprintf("share balance %s with %d open lots", h.Shares, len(h.Lots)), h.Lots...)
	case !sum.Equal(h.Shares):
		return newDataIntegrityError(h.Security, ErrBrokenInvariant,
			fmt.Sprintf("share balance %s but open lots hold %s", h.Shares, sum), h.Lots...)
	}
	return nil
}
