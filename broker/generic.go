package broker

import (
	"fmt"
	"strings"

	"github.com/markphelps/optional"
	"github.com/shopspring/decimal"

	"github.com/wwade/cgtlots/date"
	ptf "github.com/wwade/cgtlots/portfolio"
)

// Generic reads any CSV layout given the column of each field. The first
// line with enough columns is taken as the header.
type Generic struct {
	cols      Columns
	priceUnit decimal.Decimal
	totalUnit decimal.Decimal
}

func NewGeneric(opts Options) (*Generic, error) {
	var missing []string
	for _, req := range []struct {
		flag string
		col  optional.Int
	}{
		{"col-symbol", opts.Columns.Symbol},
		{"col-date", opts.Columns.Date},
		{"col-quantity", opts.Columns.Quantity},
		{"col-price", opts.Columns.Price},
		{"col-type", opts.Columns.Type},
	} {
		if !req.col.Present() {
			missing = append(missing, req.flag)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	one := decimal.NewFromInt(1)
	g := &Generic{cols: opts.Columns, priceUnit: opts.PriceUnit, totalUnit: opts.TotalUnit}
	if g.priceUnit.IsZero() {
		g.priceUnit = one
	}
	if g.totalUnit.IsZero() {
		g.totalUnit = one
	}
	return g, nil
}

func (g *Generic) Name() string { return "Any" }

func (g *Generic) Layout(content string) (RowFunc, error) {
	return g.row, nil
}

// field returns the mapped column, or ok == false when it is unmapped.
func field(fields []string, col optional.Int, name string) (string, bool, error) {
	i, err := col.Get()
	if err != nil {
		return "", false, nil
	}
	if i < 0 || i >= len(fields) {
		return "", false, fmt.Errorf("column %d for %s is out of range (row has %d fields)", i, name, len(fields))
	}
	return fields[i], true, nil
}

func (g *Generic) row(fields []string, index int) (*ptf.Tx, error) {
	get := func(col optional.Int, name string) (string, error) {
		v, _, err := field(fields, col, name)
		return v, err
	}

	symbol, err := get(g.cols.Symbol, "symbol")
	if err != nil {
		return nil, err
	}
	dateStr, err := get(g.cols.Date, "date")
	if err != nil {
		return nil, err
	}
	d, err := date.Parse(dateStr)
	if err != nil {
		return nil, err
	}
	typeStr, err := get(g.cols.Type, "type")
	if err != nil {
		return nil, err
	}
	action, err := ptf.ParseTxAction(typeStr)
	if err != nil {
		return nil, err
	}

	tx := &ptf.Tx{
		Security: strings.ToUpper(strings.TrimSpace(symbol)),
		Date:     d,
		Action:   action,
	}

	quantity, err := get(g.cols.Quantity, "quantity")
	if err != nil {
		return nil, err
	}
	if tx.Shares, err = parseDecimal("quantity", quantity); err != nil {
		return nil, err
	}
	price, err := get(g.cols.Price, "price")
	if err != nil {
		return nil, err
	}
	if tx.Price, err = parseDecimal("price", price); err != nil {
		return nil, err
	}
	tx.Price = tx.Price.Mul(g.priceUnit)

	if total, ok, err := field(fields, g.cols.Total, "total"); err != nil {
		return nil, err
	} else if ok {
		if tx.Total, err = parseOptDecimal("total", total); err != nil {
			return nil, err
		}
		if tx.Total.Valid {
			tx.Total.Decimal = tx.Total.Decimal.Mul(g.totalUnit)
		}
	}
	for _, fee := range []struct {
		col  optional.Int
		name string
	}{
		{g.cols.Commission, "commission"},
		{g.cols.Fees, "fees"},
	} {
		s, ok, err := field(fields, fee.col, fee.name)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		v, err := parseDecimalOrZero(fee.name, s)
		if err != nil {
			return nil, err
		}
		tx.Fee = tx.Fee.Add(v)
	}
	if s, ok, err := field(fields, g.cols.Tax, "tax"); err != nil {
		return nil, err
	} else if ok {
		if tx.Tax, err = parseDecimalOrZero("tax", s); err != nil {
			return nil, err
		}
	}
	if s, ok, err := field(fields, g.cols.Exchange, "exchange"); err != nil {
		return nil, err
	} else if ok {
		tx.Exchange = strings.ToUpper(s)
	}
	if s, ok, err := field(fields, g.cols.Currency, "currency"); err != nil {
		return nil, err
	} else if ok {
		tx.Currency = ptf.Currency(strings.ToUpper(s))
	}
	return tx, nil
}
