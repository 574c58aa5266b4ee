package broker

import (
	"fmt"
	"strings"

	"github.com/wwade/cgtlots/date"
	ptf "github.com/wwade/cgtlots/portfolio"
)

// CommSec reads both CommSec layouts. Until the 2023 financial year the
// export was a detailed transaction summary; since then it is the account
// statement, where the trade is described in a single text field.
type CommSec struct{}

func (c *CommSec) Name() string { return "CommSec" }

func isCommSecBefore2023(content string) bool {
	return strings.Contains(content, "Code,") && strings.Contains(content, "Transaction Summary")
}

func isCommSecAfter2023(content string) bool {
	return strings.Contains(content, "Date,Reference")
}

func (c *CommSec) Layout(content string) (RowFunc, error) {
	switch {
	case isCommSecBefore2023(content):
		return commSecBefore2023Row, nil
	case isCommSecAfter2023(content):
		return commSecAfter2023Row, nil
	case strings.Contains(content, "No data available"):
		return nil, nil
	}
	return nil, fmt.Errorf("%w: unknown CommSec format (starts with %q)", ErrUnknownFormat, firstLines(content, 3))
}

func firstLines(content string, n int) string {
	lines := strings.SplitN(content, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

// Code, Company, Date, Type, Quantity, Unit Price ($), Trade Value ($),
// Brokerage+GST ($), GST ($), Contract Note, Total Value ($)
func commSecBefore2023Row(fields []string, index int) (*ptf.Tx, error) {
	if err := requireFields(fields, 11); err != nil {
		return nil, err
	}
	d, err := date.ParseDayFirst(fields[2], "/")
	if err != nil {
		return nil, err
	}
	action, err := ptf.ParseTxAction(fields[3])
	if err != nil {
		return nil, err
	}
	tx := &ptf.Tx{
		ID:       fields[9],
		Security: strings.ToUpper(fields[0]),
		Company:  fields[1],
		Date:     d,
		Action:   action,
		Currency: ptf.AUD,
		Exchange: "ASX",
	}
	if tx.Shares, err = parseDecimal("quantity", fields[4]); err != nil {
		return nil, err
	}
	if tx.Price, err = parseDecimal("unit price", fields[5]); err != nil {
		return nil, err
	}
	if tx.Value, err = parseDecimalOrZero("trade value", fields[6]); err != nil {
		return nil, err
	}
	if tx.Fee, err = parseDecimalOrZero("brokerage", fields[7]); err != nil {
		return nil, err
	}
	if tx.Tax, err = parseDecimalOrZero("GST", fields[8]); err != nil {
		return nil, err
	}
	if tx.Total, err = parseOptDecimal("total value", fields[10]); err != nil {
		return nil, err
	}
	return tx, nil
}

// Date, Reference, Details, Debit($), Credit($), Balance($)
//
// Details of a trade look like "B 100 CBA @ 105.50". Rows with any other
// details (dividends, transfers) are skipped.
func commSecAfter2023Row(fields []string, index int) (*ptf.Tx, error) {
	if err := requireFields(fields, 5); err != nil {
		return nil, err
	}
	tokens := strings.Fields(strings.ReplaceAll(fields[2], "@", " "))
	if len(tokens) == 0 {
		return nil, nil
	}
	var action ptf.TxAction
	switch strings.ToLower(tokens[0]) {
	case "b":
		action = ptf.BUY
	case "s":
		action = ptf.SELL
	default:
		return nil, nil
	}
	if len(tokens) < 4 {
		return nil, fmt.Errorf("invalid trade details %q", fields[2])
	}

	d, err := date.ParseDayFirst(fields[0], "/")
	if err != nil {
		return nil, err
	}
	tx := &ptf.Tx{
		ID:       fields[1],
		Security: strings.ToUpper(tokens[2]),
		Date:     d,
		Action:   action,
		Currency: ptf.AUD,
		Exchange: "ASX",
	}
	if tx.Shares, err = parseDecimal("quantity", tokens[1]); err != nil {
		return nil, err
	}
	if tx.Price, err = parseDecimal("price", tokens[3]); err != nil {
		return nil, err
	}
	tx.Value = tx.Shares.Mul(tx.Price)
	// Buys are paid from the account, sells credited to it.
	settlement := fields[3]
	if action == ptf.SELL {
		settlement = fields[4]
	}
	if tx.Total, err = parseOptDecimal("settlement amount", settlement); err != nil {
		return nil, err
	}
	return tx, nil
}
