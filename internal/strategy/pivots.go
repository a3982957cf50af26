package strategy

import (
	"math"

	"crypto-trading-bot/internal/types"
)

// DetectPivots finds swing highs and swing lows. A bar is a pivot high
// when its high is the maximum of the window spanning left bars before and
// right bars after it; pivot lows mirror this on the low. The returned
// slices are parallel to candles, NaN where the bar is not a pivot.
func DetectPivots(candles []types.Candle, left, right int) (pivotHighs, pivotLows []float64) {
	n := len(candles)
	pivotHighs = make([]float64, n)
	pivotLows = make([]float64, n)
	for i := range pivotHighs {
		pivotHighs[i] = math.NaN()
		pivotLows[i] = math.NaN()
	}

	for i := left; i < n-right; i++ {
		isHigh, isLow := true, true
		for j := i - left; j <= i+right; j++ {
			if candles[j].High > candles[i].High {
				isHigh = false
			}
			if candles[j].Low < candles[i].Low {
				isLow = false
			}
		}
		if isHigh {
			pivotHighs[i] = candles[i].High
		}
		if isLow {
			pivotLows[i] = candles[i].Low
		}
	}
	return pivotHighs, pivotLows
}

// lastPivotBefore returns the most recent non-NaN pivot value and its
// bar index at an index strictly before i.
func lastPivotBefore(pivots []float64, i int) (float64, int, bool) {
	for j := i - 1; j >= 0; j-- {
		if !math.IsNaN(pivots[j]) {
			return pivots[j], j, true
		}
	}
	return 0, 0, false
}

// lastPivot returns the most recent non-NaN pivot value and its bar
// index.
func lastPivot(pivots []float64) (float64, int, bool) {
	return lastPivotBefore(pivots, len(pivots))
}
