package model

// IndicatorOutput holds indicator series aligned with a BarSeries.
// Every slice has the series length; positions without enough history are NaN.
type IndicatorOutput struct {
	FastWindow int
	SlowWindow int
	RSIWindow  int
	MAFast     []float64
	MASlow     []float64
	RSI        []float64
	// Up[i] is true for an up bar. Bar 0 is always up.
	Up []bool
}
