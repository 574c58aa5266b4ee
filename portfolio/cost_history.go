package portfolio

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/wwade/cgtlots/date"
)

// CostSnapshot is the open cost of every holding right after a transaction.
type CostSnapshot struct {
	Date       date.Date
	Total      decimal.Decimal
	BySecurity map[string]decimal.Decimal
}

type datedCost struct {
	security string
	CostPoint
}

// CostHistory replays the holdings' cost histories in date order.
func CostHistory(p *Portfolio) []CostSnapshot {
	var points []datedCost
	for _, sec := range p.SortedSecurities() {
		for _, cp := range p.Holdings[sec].CostHistory {
			points = append(points, datedCost{security: sec, CostPoint: cp})
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	current := map[string]decimal.Decimal{}
	snapshots := make([]CostSnapshot, 0, len(points))
	for _, pt := range points {
		current[pt.security] = pt.Cost
		snap := CostSnapshot{Date: pt.Date, BySecurity: make(map[string]decimal.Decimal, len(current))}
		for sec, cost := range current {
			snap.Total = snap.Total.Add(cost)
			snap.BySecurity[sec] = cost
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots
}

// YearlyPeakCost picks the snapshot with the highest total in each calendar
// year. Ties keep the earliest.
func YearlyPeakCost(history []CostSnapshot) []CostSnapshot {
	var peaks []CostSnapshot
	for _, snap := range history {
		n := len(peaks)
		if n == 0 || peaks[n-1].Date.Year() != snap.Date.Year() {
			peaks = append(peaks, snap)
			continue
		}
		if snap.Total.GreaterThan(peaks[n-1].Total) {
			peaks[n-1] = snap
		}
	}
	return peaks
}

// RenderYearlyPeakCost renders one row per calendar year with the peak total
// cost and each security's share of it.
func RenderYearlyPeakCost(p *Portfolio, opts RenderOptions) *RenderTable {
	ph := opts.helper()
	secs := p.SortedSecurities()
	table := &RenderTable{
		Header: append([]string{"Year", "Date", "Total"}, secs...),
	}
	for _, snap := range YearlyPeakCost(CostHistory(p)) {
		row := []string{strconv.Itoa(snap.Date.Year()), snap.Date.String(), ph.DollarStr(snap.Total)}
		for _, sec := range secs {
			row = append(row, ph.DollarStr(snap.BySecurity[sec]))
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
