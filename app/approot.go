package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/markphelps/optional"

	"github.com/wwade/cgtlots/broker"
	"github.com/wwade/cgtlots/corpaction"
	"github.com/wwade/cgtlots/date"
	"github.com/wwade/cgtlots/log"
	ptf "github.com/wwade/cgtlots/portfolio"
)

// Version is of the format 0.YY.MM[.i], or 0.year.month.optional_minor_increment
var Version = "0.24.10"

type Options struct {
	// Year restricts the report to one financial year, given by its starting
	// calendar year.
	Year    optional.Int
	Details bool
	Symbols []string
	Ignore  []string

	MatchOrder  ptf.MatchOrder
	Parallelism int

	FullValues  bool
	Humanize    bool
	CostHistory bool

	// Save writes the built portfolio as JSON to PortfolioFile.
	Save          bool
	PortfolioFile string

	CorporateActionsFile string

	// BrokerName selects the export format. Empty means detect it per file.
	BrokerName string
	Broker     broker.Options
}

func NewOptions() Options {
	return Options{
		PortfolioFile: "portfolio.json",
		MatchOrder:    ptf.LIFO,
	}
}

func (o *Options) renderOptions() ptf.RenderOptions {
	return ptf.RenderOptions{FullValues: o.FullValues, Humanize: o.Humanize}
}

// financialYears lists the years to report on for the loaded history.
func (o *Options) financialYears(trades *ptf.Trades) []int {
	if year, err := o.Year.Get(); err == nil {
		return []int{year}
	}
	return trades.FinancialYearsToReport()
}

type AppResults struct {
	Trades    *ptf.Trades
	Portfolio *ptf.Portfolio
	Years     []int
	// Summaries has one entry per reported financial year that saw any
	// trading.
	Summaries    []*ptf.FinancialYearSummary
	HoldingGains map[string]*ptf.CumulativeGains
	Gains        *ptf.CumulativeGains
}

// RunAppToModel loads every input, builds the portfolio and summarizes it.
// Per-holding details of the summaries are written to details when
// options.Details is set.
func RunAppToModel(
	ctx context.Context,
	inputs []broker.DescribedReader,
	options Options,
	details io.Writer) (*AppResults, error) {

	var parser broker.Parser
	if options.BrokerName != "" {
		var err error
		if parser, err = broker.Get(options.BrokerName, options.Broker); err != nil {
			return nil, err
		}
	}

	trades, err := broker.Load(inputs, parser, options.Broker)
	if err != nil {
		return nil, err
	}
	if trades.Len() == 0 {
		return nil, fmt.Errorf("no transactions found in %d file(s)", len(inputs))
	}
	slog.Info("loaded trades", "transactions", trades.Len(), "securities", len(trades.Symbols),
		"first", trades.First.String(), "last", trades.Last.String())

	corpActions, err := corpaction.LoadWithDefault(options.CorporateActionsFile)
	if err != nil {
		return nil, err
	}

	p, err := ptf.BuildPortfolio(ctx, trades, corpActions, ptf.BuildOptions{
		Symbols:     options.Symbols,
		Ignore:      options.Ignore,
		MatchOrder:  options.MatchOrder,
		Parallelism: options.Parallelism,
	})
	if err != nil {
		return nil, err
	}

	res := &AppResults{Trades: trades, Portfolio: p, Years: options.financialYears(trades)}
	for _, year := range res.Years {
		s := ptf.SummarizeFinancialYear(p, year, ptf.SummaryOptions{Details: options.Details, Out: details})
		if s.IsEmpty() {
			continue
		}
		res.Summaries = append(res.Summaries, s)
	}
	res.HoldingGains, res.Gains = ptf.CalcPortfolioCumulativeGains(p)
	return res, nil
}

func WriteResults(res *AppResults, options Options, writer io.Writer) {
	renderOpts := options.renderOptions()

	if len(res.Summaries) == 0 {
		labels := make([]string, 0, len(res.Years))
		for _, year := range res.Years {
			labels = append(labels, date.FinancialYearLabel(year))
		}
		fmt.Fprintf(writer, "No trades in financial year(s) %s\n\n", strings.Join(labels, ", "))
	}
	for _, s := range res.Summaries {
		ptf.PrintRenderTable(fmt.Sprintf("Financial year %s", s.Label()),
			ptf.RenderFinancialYearSummary(s, renderOpts), writer)
	}

	p := res.Portfolio
	ptf.PrintRenderTable("Profit by holding", ptf.RenderHoldingsProfit(p, res.Years, renderOpts), writer)

	if options.Details {
		for _, sec := range p.SortedSecurities() {
			h := p.Holdings[sec]
			if len(h.Profits) == 0 {
				continue
			}
			ptf.PrintRenderTable(fmt.Sprintf("Closed trades for %s", sec), ptf.RenderProfitsTable(h, renderOpts), writer)
		}
	}

	if len(p.OpenHoldings()) > 0 {
		ptf.PrintRenderTable("Open holdings", ptf.RenderOpenHoldings(p, renderOpts), writer)
	}
	if options.CostHistory {
		ptf.PrintRenderTable("Peak cost by year", ptf.RenderYearlyPeakCost(p, renderOpts), writer)
	}
	ptf.PrintRenderTable("Aggregate Gains", ptf.RenderAggregateGains(res.Gains, renderOpts), writer)
}

// WritePortfolio writes p as indented JSON.
func WritePortfolio(p *ptf.Portfolio, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

func SavePortfolio(p *ptf.Portfolio, path string) error {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePortfolio(p, fp); err != nil {
		fp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := fp.Close(); err != nil {
		return err
	}
	slog.Info("saved portfolio", "path", path, "securities", len(p.Holdings))
	return nil
}

// Returns an OK flag. Used to signal what exit code to use.
// All errors get printed to the errPrinter or to the writer (as appropriate).
func RunAppToWriter(
	ctx context.Context,
	writer io.Writer,
	inputs []broker.DescribedReader,
	options Options,
	errPrinter log.ErrorPrinter) (bool, *AppResults) {

	res, err := RunAppToModel(ctx, inputs, options, writer)
	if err != nil {
		errPrinter.Ln("Error:", err)
		return false, nil
	}
	if options.Details {
		fmt.Fprintln(writer, "")
	}

	WriteResults(res, options, writer)

	if options.Save {
		if err := SavePortfolio(res.Portfolio, options.PortfolioFile); err != nil {
			errPrinter.Ln("Error:", err)
			return false, res
		}
	}
	return true, res
}

// Returns an OK flag. Used to signal what exit code to use.
func RunAppToConsole(
	ctx context.Context,
	inputs []broker.DescribedReader,
	options Options,
	errPrinter log.ErrorPrinter) bool {

	ok, _ := RunAppToWriter(ctx, os.Stdout, inputs, options, errPrinter)
	return ok
}
