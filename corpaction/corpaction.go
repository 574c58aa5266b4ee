// Package corpaction holds the table of share splits and consolidations
// used to rescale holdings.
package corpaction

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/wwade/cgtlots/date"
	ptf "github.com/wwade/cgtlots/portfolio"
)

//go:embed default.yaml
var defaultTable []byte

// Event is one split or consolidation. Holdings are multiplied by Factor.
type Event struct {
	Date   date.Date
	Factor decimal.Decimal
}

type rawEvent struct {
	Date   string `yaml:"date"`
	Factor string `yaml:"factor"`
}

// Table is read-only after loading, so lookups are safe from several
// goroutines.
type Table struct {
	events map[string][]Event
}

func NewTable() *Table {
	return &Table{events: make(map[string][]Event)}
}

func normSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func (t *Table) add(symbol string, e Event) {
	sym := normSymbol(symbol)
	t.events[sym] = append(t.events[sym], e)
}

// sort orders each security's events by date and drops exact duplicates,
// which appear when a user table repeats a built in event.
func (t *Table) sort() {
	for sym, evs := range t.events {
		sort.SliceStable(evs, func(i, j int) bool { return evs[i].Date.Before(evs[j].Date) })
		uniq := evs[:0]
		for _, e := range evs {
			if n := len(uniq); n > 0 && e.Date.Equal(uniq[n-1].Date) && e.Factor.Equal(uniq[n-1].Factor) {
				continue
			}
			uniq = append(uniq, e)
		}
		t.events[sym] = uniq
	}
}

// Events returns the events for symbol, oldest first.
func (t *Table) Events(symbol string) []Event {
	return t.events[normSymbol(symbol)]
}

func (t *Table) Len() int {
	return len(t.events)
}

// Lookup combines every event for security effective after lastApplied and
// before on. The returned action is dated at the latest of them.
func (t *Table) Lookup(security string, on date.Date, lastApplied date.Date) (ptf.CorporateAction, bool) {
	var action ptf.CorporateAction
	found := false
	for _, e := range t.events[normSymbol(security)] {
		if !e.Date.Before(on) {
			break
		}
		if !lastApplied.IsZero() && !lastApplied.Before(e.Date) {
			continue
		}
		if !found {
			action.Factor = decimal.NewFromInt(1)
			found = true
		}
		action.Factor = action.Factor.Mul(e.Factor)
		action.Date = e.Date
	}
	return action, found
}

func parseEvent(symbol string, raw rawEvent) (Event, error) {
	d, err := date.Parse(raw.Date)
	if err != nil {
		return Event{}, fmt.Errorf("%s: invalid date: %w", symbol, err)
	}
	factor, err := decimal.NewFromString(strings.TrimSpace(raw.Factor))
	if err != nil {
		return Event{}, fmt.Errorf("%s: invalid factor %q: %w", symbol, raw.Factor, err)
	}
	if !factor.IsPositive() {
		return Event{}, fmt.Errorf("%s: factor must be positive, got %s", symbol, factor)
	}
	return Event{Date: d, Factor: factor}, nil
}

// Load parses a YAML table. Each key is a security mapping to either one
// event or a list of events.
func Load(r io.Reader) (*Table, error) {
	var doc map[string]yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("corporate actions: %w", err)
	}

	t := NewTable()
	for symbol, node := range doc {
		var raws []rawEvent
		switch node.Kind {
		case yaml.SequenceNode:
			if err := node.Decode(&raws); err != nil {
				return nil, fmt.Errorf("corporate actions: %s: %w", symbol, err)
			}
		case yaml.MappingNode:
			var raw rawEvent
			if err := node.Decode(&raw); err != nil {
				return nil, fmt.Errorf("corporate actions: %s: %w", symbol, err)
			}
			raws = append(raws, raw)
		default:
			return nil, fmt.Errorf("corporate actions: %s: expected an event or a list of events", symbol)
		}
		for _, raw := range raws {
			e, err := parseEvent(symbol, raw)
			if err != nil {
				return nil, fmt.Errorf("corporate actions: %w", err)
			}
			t.add(symbol, e)
		}
	}
	t.sort()
	return t, nil
}

func LoadFile(path string) (*Table, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	t, err := Load(fp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Debug("loaded corporate actions", "path", path, "securities", t.Len())
	return t, nil
}

var (
	defaultOnce sync.Once
	defaultTbl  *Table
)

// Default returns the built in table.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Load(bytes.NewReader(defaultTable))
		if err != nil {
			panic(fmt.Sprintf("built in corporate action table: %v", err))
		}
		defaultTbl = t
	})
	return defaultTbl
}

// Merge combines tables into a new one. Events from every table are kept.
func Merge(tables ...*Table) *Table {
	merged := NewTable()
	for _, t := range tables {
		if t == nil {
			continue
		}
		for sym, evs := range t.events {
			merged.events[sym] = append(merged.events[sym], evs...)
		}
	}
	merged.sort()
	return merged
}

// LoadWithDefault returns the built in table, extended by the file at path
// when path is not empty.
func LoadWithDefault(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	user, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Merge(Default(), user), nil
}
