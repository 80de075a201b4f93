package strategy

import (
	"math"

	"github.com/Aikkad/mac-trading-academy/internal/calculator"
	"github.com/Aikkad/mac-trading-academy/internal/model"
)

// CrossoverSignal returns 1 where the fast SMA is above the slow SMA and 0
// elsewhere, including every position where either average is undefined.
func CrossoverSignal(closes []float64, fastWindow, slowWindow int) []int {
	fast := calculator.SMASeries(closes, fastWindow)
	slow := calculator.SMASeries(closes, slowWindow)

	signal := make([]int, len(closes))
	for i := range closes {
		if math.IsNaN(fast[i]) || math.IsNaN(slow[i]) {
			continue
		}
		if fast[i] > slow[i] {
			signal[i] = 1
		}
	}
	return signal
}

// Crossovers lists the bars where the signal flips: 0->1 is an entry, 1->0 an exit.
func Crossovers(result *model.BacktestResult) []model.Cross {
	var crosses []model.Cross
	for i := 1; i < len(result.Signal); i++ {
		switch {
		case result.Signal[i-1] == 0 && result.Signal[i] == 1:
			crosses = append(crosses, model.Cross{Index: i, Kind: model.CrossEntry})
		case result.Signal[i-1] == 1 && result.Signal[i] == 0:
			crosses = append(crosses, model.Cross{Index: i, Kind: model.CrossExit})
		}
	}
	return crosses
}
