// Package broker reads the transaction exports of supported brokers into
// normalized portfolio transactions.
package broker

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	ptf "github.com/wwade/cgtlots/portfolio"
)

var (
	// ErrUnknownBroker is returned by Get for an unregistered name.
	ErrUnknownBroker = errors.New("unknown broker")

	// ErrUnknownFormat indicates the file doesn't match any layout the
	// broker is known to export.
	ErrUnknownFormat = errors.New("unknown file format")

	// ErrMissingColumns indicates required column mappings were not given
	// for the generic layout.
	ErrMissingColumns = errors.New("missing column mappings")
)

// RowFunc converts the fields of one data row. It returns a nil Tx for rows
// that are not trades, such as dividends or transfers. index is the 1-based
// position of the row across all loaded files.
type RowFunc func(fields []string, index int) (*ptf.Tx, error)

// Parser knows the export layouts of one broker.
type Parser interface {
	Name() string
	// Layout inspects the content of a whole file and picks how its rows are
	// read. A nil RowFunc with a nil error means the file holds no data.
	Layout(content string) (RowFunc, error)
}

type factory func(opts Options) (Parser, error)

var registry = map[string]factory{
	"commsec":   func(Options) (Parser, error) { return &CommSec{}, nil },
	"fpmarkets": func(Options) (Parser, error) { return &FPMarkets{}, nil },
	"any":       newGenericParser,
}

func newGenericParser(opts Options) (Parser, error) {
	g, err := NewGeneric(opts)
	if err != nil {
		return nil, err
	}
	return g, nil
}

var aliases = map[string]string{
	"fp":         "fpmarkets",
	"fp-markets": "fpmarkets",
	"generic":    "any",
}

func canonicalName(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[key]; ok {
		return alias
	}
	return key
}

// Names lists the registered broker names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the parser for the named broker.
func Get(name string, opts Options) (Parser, error) {
	f, ok := registry[canonicalName(name)]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownBroker, name, strings.Join(Names(), ", "))
	}
	return f(opts)
}

// Sniff guesses the broker from file content. The generic layout is never
// guessed since it depends on column mappings.
func Sniff(content string) (string, bool) {
	switch {
	case isCommSecBefore2023(content), isCommSecAfter2023(content):
		return "commsec", true
	case isFPMarkets(content):
		return "fpmarkets", true
	}
	return "", false
}
