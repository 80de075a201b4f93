package model

import "time"

// BacktestResult is the outcome of a moving-average crossover backtest.
// It is derived on demand and never persisted.
type BacktestResult struct {
	FastWindow int
	SlowWindow int
	// Time holds the bar timestamps the other series are aligned to.
	Time []time.Time
	// Signal[i] is 1 when the fast MA is above the slow MA at bar i.
	Signal []int
	// Returns[i] is the strategy return realized over bar i; Returns[0] is 0.
	Returns               []float64
	CumulativeReturnCurve []float64
	TotalReturnPct        float64
}

// CrossKind distinguishes entries from exits.
type CrossKind string

const (
	CrossEntry CrossKind = "ENTRY"
	CrossExit  CrossKind = "EXIT"
)

// Cross marks a bar where the crossover signal flipped.
type Cross struct {
	Index int       `json:"index"`
	Kind  CrossKind `json:"kind"`
}
