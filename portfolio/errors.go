package portfolio

import (
	"errors"
	"fmt"
	"strings"
)

// Kinds of data-integrity violation. Any of these means the cost basis of
// the security can no longer be trusted, so processing of it must stop.
var (
	// ErrUnknownAction indicates a transaction reached the engine with an
	// action other than buy or sell.
	ErrUnknownAction = errors.New("unknown transaction action")

	// ErrSameDirectionLot indicates the open-lot stack held a lot with the
	// same direction as the transaction closing against it.
	ErrSameDirectionLot = errors.New("open lot has the same direction as the closing transaction")

	// ErrNegativeAveragePrice indicates the average cost per share went
	// below zero, usually from an impossible fee or total.
	ErrNegativeAveragePrice = errors.New("average price is negative")

	// ErrInvalidCorporateAction indicates a split or consolidation factor
	// that is not positive.
	ErrInvalidCorporateAction = errors.New("invalid corporate action factor")

	// ErrBrokenInvariant indicates the share balance and the open lots
	// disagree.
	ErrBrokenInvariant = errors.New("holding invariant violated")
)

// DataIntegrityError is returned by the engine for fatal data problems. It
// names the security and the transactions involved so the source data can
// be corrected.
type DataIntegrityError struct {
	Security string
	Kind     error
	Detail   string
	Txs      []*Tx
}

func newDataIntegrityError(security string, kind error, detail string, txs ...*Tx) *DataIntegrityError {
	return &DataIntegrityError{Security: security, Kind: kind, Detail: detail, Txs: txs}
}

func (e *DataIntegrityError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v", e.Security, e.Kind)
	if e.Detail != "" {
		fmt.Fprintf(&b, " (%s)", e.Detail)
	}
	for _, tx := range e.Txs {
		fmt.Fprintf(&b, "\n  %s", tx)
	}
	return b.String()
}

func (e *DataIntegrityError) Unwrap() error {
	return e.Kind
}
