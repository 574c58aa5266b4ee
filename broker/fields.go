package broker

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	ptf "github.com/wwade/cgtlots/portfolio"
)

// cleanNumber strips currency symbols, thousands separators and
// surrounding space.
func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "$", "")
	return strings.TrimSpace(s)
}

func parseDecimal(name, s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(cleanNumber(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q", name, s)
	}
	return v, nil
}

// parseOptDecimal treats an empty field as absent.
func parseOptDecimal(name, s string) (decimal.NullDecimal, error) {
	if cleanNumber(s) == "" {
		return decimal.NullDecimal{}, nil
	}
	v, err := parseDecimal(name, s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return ptf.SomeDecimal(v), nil
}

// parseDecimalOrZero treats an empty field as zero.
func parseDecimalOrZero(name, s string) (decimal.Decimal, error) {
	v, err := parseOptDecimal(name, s)
	if err != nil {
		return decimal.Zero, err
	}
	return v.Decimal, nil
}

func requireFields(fields []string, n int) error {
	if len(fields) < n {
		return fmt.Errorf("expected at least %d fields, found %d", n, len(fields))
	}
	return nil
}
