package portfolio

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wwade/cgtlots/date"
)

type TxAction int

const (
	NO_ACTION TxAction = iota
	BUY
	SELL
)

func (a TxAction) String() string {
	switch a {
	case BUY:
		return "Buy"
	case SELL:
		return "Sell"
	}
	return "Invalid"
}

// ParseTxAction accepts the buy/sell codes used across broker exports
// ("B", "Buy", "S", "SELL", ...).
func ParseTxAction(s string) (TxAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "b", "buy":
		return BUY, nil
	case "s", "sell":
		return SELL, nil
	}
	return NO_ACTION, fmt.Errorf("unknown transaction type: %q", s)
}

func (a TxAction) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(a.String())), nil
}

func (a *TxAction) UnmarshalText(text []byte) error {
	parsed, err := ParseTxAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

type Currency string

const (
	DEFAULT_CURRENCY Currency = ""
	AUD              Currency = "AUD"
)

// Tx is one normalized transaction. Shares, Value and Total are signed:
// buys are positive and sells negative. Price is per unit and never negative.
//
// The engine treats a Tx as immutable. Partially consumed lots and reversal
// surpluses are new records built with Copy.
type Tx struct {
	ID       string
	Security string
	Company  string
	Date     date.Date
	Action   TxAction
	Shares   decimal.Decimal
	Price    decimal.Decimal
	Value    decimal.Decimal
	// Total is the settlement amount including fees. It is invalid when the
	// broker export doesn't carry one.
	Total    decimal.NullDecimal
	Fee      decimal.Decimal
	Tax      decimal.Decimal
	Currency Currency
	Exchange string
	Memo     string
	// Count is the number of broker rows merged into this record.
	Count int
	// ReadIndex keeps the file order stable when dates are equal.
	ReadIndex uint32
}

// HasTotal reports whether a non-zero settlement total was supplied.
func (tx *Tx) HasTotal() bool {
	return tx.Total.Valid && !tx.Total.Decimal.IsZero()
}

// SettlementTotal is the signed settlement amount, falling back to
// shares * price when no total was supplied.
func (tx *Tx) SettlementTotal() decimal.Decimal {
	if tx.HasTotal() {
		return tx.Total.Decimal
	}
	return tx.Shares.Mul(tx.Price)
}

func (tx *Tx) Copy() *Tx {
	c := *tx
	return &c
}

func (tx *Tx) String() string {
	id := ""
	if tx.ID != "" {
		id = fmt.Sprintf(" (id %s)", tx.ID)
	}
	return fmt.Sprintf("%s %s %s %s @ %s total %s%s",
		tx.Date, tx.Action, tx.Shares, tx.Security, tx.Price, tx.SettlementTotal(), id)
}

// NormalizeSigns forces the sign convention expected by the engine, since
// some exports sign sells and others don't.
func (tx *Tx) NormalizeSigns() {
	neg := tx.Action == SELL
	fix := func(v decimal.Decimal) decimal.Decimal {
		if neg {
			return v.Abs().Neg()
		}
		return v.Abs()
	}
	tx.Shares = fix(tx.Shares)
	tx.Value = fix(tx.Value)
	if tx.Total.Valid {
		tx.Total.Decimal = fix(tx.Total.Decimal)
	}
	tx.Price = tx.Price.Abs()
	if tx.Value.IsZero() {
		tx.Value = tx.Shares.Mul(tx.Price)
	}
	if tx.Count == 0 {
		tx.Count = 1
	}
}

// SortTxs returns a copy of txs ordered by date. Equal dates keep their read
// order.
func SortTxs(txs []*Tx) []*Tx {
	sorted := make([]*Tx, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if c := sorted[i].Date.Compare(sorted[j].Date); c != 0 {
			return c < 0
		}
		return sorted[i].ReadIndex < sorted[j].ReadIndex
	})
	return sorted
}

// MergeSameInstant combines consecutive transactions of the same security
// and action that happened at exactly the same instant, which is how
// brokers report a single order filled in several parcels. txs must already
// be sorted.
func MergeSameInstant(txs []*Tx) []*Tx {
	merged := make([]*Tx, 0, len(txs))
	for _, tx := range txs {
		if n := len(merged); n > 0 {
			last := merged[n-1]
			if last.Security == tx.Security && last.Action == tx.Action && last.Date.Equal(tx.Date) {
				merged[n-1] = mergeTxs(last, tx)
				continue
			}
		}
		merged = append(merged, tx)
	}
	return merged
}

func mergeTxs(a, b *Tx) *Tx {
	m := a.Copy()
	m.Shares = a.Shares.Add(b.Shares)
	m.Value = a.Value.Add(b.Value)
	if a.HasTotal() || b.HasTotal() {
		m.Total = SomeDecimal(a.SettlementTotal().Add(b.SettlementTotal()))
	}
	m.Fee = a.Fee.Add(b.Fee)
	m.Tax = a.Tax.Add(b.Tax)
	if !m.Shares.IsZero() {
		m.Price = m.Value.Div(m.Shares).Abs()
	}
	m.Count = txCount(a) + txCount(b)
	if b.Memo != "" {
		m.Memo = strings.TrimSpace(strings.Join([]string{a.Memo, b.Memo}, " "))
	}
	return m
}

func txCount(tx *Tx) int {
	if tx.Count < 1 {
		return 1
	}
	return tx.Count
}

// SomeDecimal wraps v as a valid NullDecimal.
func SomeDecimal(v decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: v, Valid: true}
}
