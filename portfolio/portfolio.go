package portfolio

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/wwade/cgtlots/date"
	"github.com/wwade/cgtlots/util"
)

// Trades is the loaded transaction history, grouped by security.
type Trades struct {
	Symbols map[string][]*Tx
	// Years holds every calendar year a transaction was seen in.
	Years map[int]bool
	First date.Date
	Last  date.Date
}

func NewTrades() *Trades {
	return &Trades{
		Symbols: make(map[string][]*Tx),
		Years:   make(map[int]bool),
	}
}

// NewTradesFromTxs builds the history of txs, grouped by security in read
// order.
func NewTradesFromTxs(txs []*Tx) *Trades {
	t := NewTrades()
	t.Symbols = SplitTxsBySecurity(txs)
	for _, tx := range txs {
		t.observe(tx)
	}
	return t
}

func (t *Trades) Add(tx *Tx) {
	t.Symbols[tx.Security] = append(t.Symbols[tx.Security], tx)
	t.observe(tx)
}

func (t *Trades) observe(tx *Tx) {
	t.Years[tx.Date.Year()] = true
	if t.First.IsZero() || tx.Date.Before(t.First) {
		t.First = tx.Date
	}
	if t.Last.IsZero() || tx.Date.After(t.Last) {
		t.Last = tx.Date
	}
}

func (t *Trades) Len() int {
	n := 0
	for _, txs := range t.Symbols {
		n += len(txs)
	}
	return n
}

func (t *Trades) SortedYears() []int {
	return util.SortedKeys(t.Years)
}

// FinancialYearsToReport lists the financial years that may hold results.
// The financial year starting the calendar year before the first trade is
// included, since January to June trades belong to it.
func (t *Trades) FinancialYearsToReport() []int {
	years := t.SortedYears()
	if len(years) == 0 {
		return nil
	}
	return append([]int{years[0] - 1}, years...)
}

// Portfolio is the set of holdings built from a Trades history.
type Portfolio struct {
	Holdings map[string]*Holding
}

func NewPortfolio() *Portfolio {
	return &Portfolio{Holdings: make(map[string]*Holding)}
}

func (p *Portfolio) SortedSecurities() []string {
	return util.SortedKeys(p.Holdings)
}

// OpenHoldings returns the holdings with a non-zero position, long or short,
// in security order.
func (p *Portfolio) OpenHoldings() []*Holding {
	var open []*Holding
	for _, sec := range p.SortedSecurities() {
		if h := p.Holdings[sec]; !h.Shares.IsZero() {
			open = append(open, h)
		}
	}
	return open
}

// RemainingCost is the total cost basis of the open holdings.
func (p *Portfolio) RemainingCost() decimal.Decimal {
	total := decimal.Zero
	for _, h := range p.OpenHoldings() {
		total = total.Add(h.OpenCost())
	}
	return total
}

type BuildOptions struct {
	// Symbols restricts processing to these securities when non-empty.
	Symbols    []string
	Ignore     []string
	MatchOrder MatchOrder
	// Parallelism bounds the number of securities processed at once. Zero
	// means no limit.
	Parallelism int
}

func (o *BuildOptions) selected(trades *Trades) []string {
	only := util.NewSet[string]()
	for _, s := range o.Symbols {
		only.Add(strings.ToUpper(strings.TrimSpace(s)))
	}
	ignore := util.NewSet[string]()
	for _, s := range o.Ignore {
		ignore.Add(strings.ToUpper(strings.TrimSpace(s)))
	}

	var securities []string
	for _, sec := range util.SortedKeys(trades.Symbols) {
		key := strings.ToUpper(sec)
		if only.Len() > 0 && !only.Contains(key) {
			continue
		}
		if ignore.Contains(key) {
			continue
		}
		securities = append(securities, sec)
	}
	return securities
}

// BuildPortfolio runs every selected security's transactions through the
// engine. Securities are independent, so each is processed in its own
// goroutine. The first error stops the build.
func BuildPortfolio(
	ctx context.Context, trades *Trades, resolver CorporateActionResolver, opts BuildOptions,
) (*Portfolio, error) {

	securities := opts.selected(trades)
	holdings := make([]*Holding, len(securities))

	g, ctx := errgroup.WithContext(ctx)
	if opts.Parallelism > 0 {
		g.SetLimit(opts.Parallelism)
	}
	for i, sec := range securities {
		i, sec := i, sec
		g.Go(func() error {
			h, err := buildHolding(ctx, sec, trades.Symbols[sec], resolver, opts.MatchOrder)
			if err != nil {
				return err
			}
			holdings[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p := NewPortfolio()
	for _, h := range holdings {
		p.Holdings[h.Security] = h
	}
	return p, nil
}

func buildHolding(
	ctx context.Context, security string, txs []*Tx, resolver CorporateActionResolver, order MatchOrder,
) (*Holding, error) {
	h := NewHolding(security)
	h.MatchOrder = order
	for _, tx := range SortTxs(txs) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := h.AddTx(tx, resolver); err != nil {
			return nil, err
		}
	}
	if err := h.CheckInvariants(); err != nil {
		return nil, fmt.Errorf("after processing %d transactions: %w", len(txs), err)
	}
	return h, nil
}
