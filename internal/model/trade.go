package model

import (
	"strings"
	"time"
)

// Side is the direction of a paper trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide accepts "buy"/"sell" in any case.
func ParseSide(s string) (Side, bool) {
	switch {
	case strings.EqualFold(s, string(SideBuy)):
		return SideBuy, true
	case strings.EqualFold(s, string(SideSell)):
		return SideSell, true
	}
	return "", false
}

// Fill is a simulated execution recorded by the paper ledger.
type Fill struct {
	ID     string    `json:"id"`
	Side   Side      `json:"side"`
	Symbol string    `json:"symbol"`
	Qty    int64     `json:"qty"`
	Price  float64   `json:"price"`
	Amount float64   `json:"amount"`
	Time   time.Time `json:"time"`
}
