package broker

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wwade/cgtlots/date"
	ptf "github.com/wwade/cgtlots/portfolio"
)

// FPMarkets reads the FP Markets trade history export. Prices are quoted in
// cents and the value column excludes commission, which is charged
// separately.
type FPMarkets struct{}

func (f *FPMarkets) Name() string { return "FP Markets" }

func isFPMarkets(content string) bool {
	return strings.Contains(content, "Account Code") && strings.Contains(content, "Volume")
}

func (f *FPMarkets) Layout(content string) (RowFunc, error) {
	return fpMarketsRow, nil
}

var hundred = decimal.NewFromInt(100)

// ID, Date, Time, Account Code, Buy/Sell, Currency, Exchange, Stock,
// Volume, Price, Value
func fpMarketsRow(fields []string, index int) (*ptf.Tx, error) {
	if err := requireFields(fields, 11); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(fields[0])
	if err != nil {
		return nil, fmt.Errorf("invalid trade id %q: %w", fields[0], err)
	}
	d, err := date.ParseDayFirst(fields[1], "/")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(fields[2]) != "" {
		h, m, s, ms, err := date.ParseClock(fields[2])
		if err != nil {
			return nil, err
		}
		d = d.WithClock(h, m, s, ms)
	}
	action, err := ptf.ParseTxAction(fields[4])
	if err != nil {
		return nil, err
	}

	tx := &ptf.Tx{
		ID:       id.String(),
		Security: strings.ToUpper(fields[7]),
		Date:     d,
		Action:   action,
		Currency: ptf.Currency(strings.ToUpper(fields[5])),
		Exchange: strings.ToUpper(fields[6]),
	}
	if tx.Shares, err = parseDecimal("volume", fields[8]); err != nil {
		return nil, err
	}
	cents, err := parseDecimal("price", fields[9])
	if err != nil {
		return nil, err
	}
	tx.Price = cents.Div(hundred)
	if tx.Value, err = parseDecimal("value", fields[10]); err != nil {
		return nil, err
	}
	tx.Total = ptf.SomeDecimal(tx.Value)
	return tx, nil
}
