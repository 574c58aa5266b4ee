package broker

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/markphelps/optional"
	"github.com/shopspring/decimal"

	ptf "github.com/wwade/cgtlots/portfolio"
)

// A header line needs at least this many commas. Every supported layout has
// six or more columns, so preamble lines before the header are skipped.
const minimumHeaderCommas = 5

type DescribedReader struct {
	Desc   string
	Reader io.Reader
}

// Columns maps fields of the generic layout to their zero-based column
// index.
type Columns struct {
	Symbol     optional.Int
	Date       optional.Int
	Quantity   optional.Int
	Price      optional.Int
	Type       optional.Int
	Total      optional.Int
	Commission optional.Int
	Fees       optional.Int
	Tax        optional.Int
	Exchange   optional.Int
	Currency   optional.Int
}

type Options struct {
	Columns Columns
	// PriceUnit and TotalUnit scale prices and totals of the generic layout,
	// for exports that quote in cents. Zero means 1.
	PriceUnit decimal.Decimal
	TotalUnit decimal.Decimal
	// MergeSameInstant combines parcels of one order reported at the same
	// instant.
	MergeSameInstant bool
}

type dataRow struct {
	line int
	text string
}

// dataRows returns the lines after the header up to the first blank line.
func dataRows(content string) []dataRow {
	lines := strings.Split(content, "\n")
	var rows []dataRow
	started := false
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if !started {
			started = strings.Count(line, ",") >= minimumHeaderCommas
			continue
		}
		if strings.TrimSpace(line) == "" {
			break
		}
		rows = append(rows, dataRow{line: i + 1, text: line})
	}
	return rows
}

func splitRow(text string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	fields, err := r.Read()
	if err != nil {
		return nil, err
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields, nil
}

// ParseCsv reads the transactions of one export file. Rows are numbered
// from initialIndex + 1, which also sets their read order.
func ParseCsv(r io.Reader, initialIndex int, desc string, parser Parser) ([]*ptf.Tx, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", desc, err)
	}
	content := string(raw)

	rowFn, err := parser.Layout(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", desc, parser.Name(), err)
	}
	if rowFn == nil {
		slog.Info("no data in file", "file", desc, "broker", parser.Name())
		return nil, nil
	}

	var txs []*ptf.Tx
	index := initialIndex
	for _, row := range dataRows(content) {
		fields, err := splitRow(row.text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", desc, row.line, err)
		}
		index++
		tx, err := rowFn(fields, index)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", desc, row.line, err)
		}
		if tx == nil {
			continue
		}
		if tx.ID == "" {
			tx.ID = strconv.Itoa(index)
		}
		tx.ReadIndex = uint32(index)
		tx.NormalizeSigns()
		txs = append(txs, tx)
	}
	slog.Debug("loaded transactions", "file", desc, "broker", parser.Name(), "count", len(txs))
	return txs, nil
}

// Load reads every input into one Trades history. A nil parser means the
// broker is detected for each file.
func Load(inputs []DescribedReader, parser Parser, opts Options) (*ptf.Trades, error) {
	var all []*ptf.Tx
	index := 0
	for _, in := range inputs {
		p := parser
		reader := in.Reader
		if p == nil {
			raw, err := io.ReadAll(in.Reader)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", in.Desc, err)
			}
			name, ok := Sniff(string(raw))
			if !ok {
				return nil, fmt.Errorf("%s: %w: cannot detect the broker, set it explicitly", in.Desc, ErrUnknownFormat)
			}
			if p, err = Get(name, opts); err != nil {
				return nil, err
			}
			reader = strings.NewReader(string(raw))
		}

		txs, err := ParseCsv(reader, index, in.Desc, p)
		if err != nil {
			return nil, err
		}
		for _, tx := range txs {
			if int(tx.ReadIndex) > index {
				index = int(tx.ReadIndex)
			}
		}
		all = append(all, txs...)
	}

	trades := ptf.NewTradesFromTxs(all)
	if opts.MergeSameInstant {
		for sec, txs := range trades.Symbols {
			trades.Symbols[sec] = ptf.MergeSameInstant(ptf.SortTxs(txs))
		}
	}
	return trades, nil
}
