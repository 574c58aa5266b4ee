package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/markphelps/optional"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/wwade/cgtlots/app"
	"github.com/wwade/cgtlots/broker"
	"github.com/wwade/cgtlots/config"
	"github.com/wwade/cgtlots/log"
	ptf "github.com/wwade/cgtlots/portfolio"
)

// errReported means the failure was already printed.
var errReported = errors.New("failed")

type columnFlag struct {
	name  string
	usage string
	value int
	dest  *optional.Int
}

// cli holds the root command and the values its flags are bound to.
type cli struct {
	cmd     *cobra.Command
	options app.Options

	year       int
	matchOrder string
	logLevel   string
	priceUnit  string
	totalUnit  string
	columns    []*columnFlag
}

func newCLI(cfg *config.Config, errPrinter log.ErrorPrinter) *cli {
	c := &cli{options: app.NewOptions(), matchOrder: cfg.MatchOrder, logLevel: cfg.LogLevel}
	options := &c.options
	options.BrokerName = cfg.Broker
	options.PortfolioFile = cfg.PortfolioFile
	options.CorporateActionsFile = cfg.CorporateActions
	options.Parallelism = cfg.Parallelism
	options.Broker.MergeSameInstant = cfg.MergeSameInstant

	cols := &options.Broker.Columns
	for _, col := range []struct {
		name string
		dest *optional.Int
	}{
		{"symbol", &cols.Symbol},
		{"date", &cols.Date},
		{"quantity", &cols.Quantity},
		{"price", &cols.Price},
		{"type", &cols.Type},
		{"total", &cols.Total},
		{"commission", &cols.Commission},
		{"fees", &cols.Fees},
		{"tax", &cols.Tax},
		{"exchange", &cols.Exchange},
		{"currency", &cols.Currency},
	} {
		c.columns = append(c.columns, &columnFlag{
			name:  "col-" + col.name,
			usage: fmt.Sprintf("Zero-based column of the %s field (generic layout)", col.name),
			dest:  col.dest,
		})
	}

	c.cmd = &cobra.Command{
		Use:   "cgtlots [flags] FILE...",
		Short: "Capital gains calculator for Australian share trades",
		Long: "Reads broker transaction exports and reports realized profit per " +
			"Australian financial year, using average cost with lot matching.\n\n" +
			"Supported brokers: " + strings.Join(broker.Names(), ", "),
		Version:       app.Version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Init(os.Stderr, c.logLevel)
			if err := c.resolve(); err != nil {
				return err
			}

			var inputs []broker.DescribedReader
			for _, path := range args {
				fp, err := os.Open(path)
				if err != nil {
					return err
				}
				defer fp.Close()
				inputs = append(inputs, broker.DescribedReader{Desc: path, Reader: fp})
			}

			if !app.RunAppToConsole(cmd.Context(), inputs, c.options, errPrinter) {
				return errReported
			}
			return nil
		},
	}

	fl := c.cmd.Flags()
	fl.StringVarP(&options.BrokerName, "broker", "b", options.BrokerName,
		"Broker of the export files ("+strings.Join(broker.Names(), ", ")+"). Detected per file when empty")
	fl.IntVarP(&c.year, "year", "y", 0,
		"Only report the financial year starting in this calendar year (2022 for 2022-2023)")
	fl.BoolVarP(&options.Details, "details", "d", false, "Print per holding details and every closed trade")
	fl.StringSliceVarP(&options.Symbols, "symbol", "s", nil, "Only process these securities (comma separated)")
	fl.StringArrayVarP(&options.Ignore, "ignore", "i", nil, "Skip this security. May be repeated")
	fl.BoolVar(&options.Save, "save", false, "Save the portfolio as JSON to the portfolio file")
	fl.StringVar(&options.PortfolioFile, "portfolio-file", options.PortfolioFile, "Where --save writes the portfolio")
	fl.StringVar(&options.CorporateActionsFile, "corporate-actions", options.CorporateActionsFile,
		"YAML file of splits and consolidations, added to the built in table")
	fl.StringVar(&c.matchOrder, "match-order", c.matchOrder, "Order closing trades consume open lots (lifo or fifo)")
	fl.BoolVar(&options.Broker.MergeSameInstant, "merge-same-instant", options.Broker.MergeSameInstant,
		"Merge parcels of one order reported at the same instant")
	fl.IntVar(&options.Parallelism, "parallelism", options.Parallelism,
		"Maximum securities processed at once (0 for no limit)")
	fl.BoolVar(&options.FullValues, "full-values", false, "Print values with full precision")
	fl.BoolVar(&options.Humanize, "humanize", false, "Print values with thousands separators")
	fl.BoolVar(&options.CostHistory, "cost-history", false, "Print the peak portfolio cost of each calendar year")
	fl.StringVar(&c.logLevel, "log-level", c.logLevel, "Diagnostics level (debug, info, warn, error)")
	for _, col := range c.columns {
		fl.IntVar(&col.value, col.name, 0, col.usage)
	}
	fl.StringVar(&c.priceUnit, "price-unit", "1", "Multiplier for prices of the generic layout (0.01 for cents)")
	fl.StringVar(&c.totalUnit, "total-unit", "1", "Multiplier for totals of the generic layout (0.01 for cents)")
	return c
}

// resolve copies flag values that need parsing into the options.
func (c *cli) resolve() error {
	fl := c.cmd.Flags()
	if fl.Changed("year") {
		c.options.Year = optional.NewInt(c.year)
	}
	for _, col := range c.columns {
		if fl.Changed(col.name) {
			if col.value < 0 {
				return fmt.Errorf("--%s must not be negative", col.name)
			}
			col.dest.Set(col.value)
		}
	}

	var err error
	if c.options.MatchOrder, err = ptf.ParseMatchOrder(c.matchOrder); err != nil {
		return err
	}
	if c.options.Broker.PriceUnit, err = parseUnit("price-unit", c.priceUnit); err != nil {
		return err
	}
	if c.options.Broker.TotalUnit, err = parseUnit("total-unit", c.totalUnit); err != nil {
		return err
	}
	return nil
}

func parseUnit(name, s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !v.IsPositive() {
		return decimal.Zero, fmt.Errorf("--%s must be a positive number, got %q", name, s)
	}
	return v, nil
}

func main() {
	errPrinter := &log.StderrErrorPrinter{}
	cfg, err := config.Load()
	if err != nil {
		errPrinter.Ln("Error:", err)
		os.Exit(1)
	}
	if err := newCLI(cfg, errPrinter).cmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errReported) {
			errPrinter.Ln("Error:", err)
		}
		os.Exit(1)
	}
}
