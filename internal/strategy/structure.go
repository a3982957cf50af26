package strategy

import "crypto-trading-bot/internal/types"

// DetectBreakOfStructure marks bars whose close breaks the most recent
// swing. A bullish break closes above the latest pivot high before the
// bar; a bearish break closes below the latest pivot low.
func DetectBreakOfStructure(candles []types.Candle, pivotHighs, pivotLows []float64) (bosUp, bosDown []bool) {
	n := len(candles)
	bosUp = make([]bool, n)
	bosDown = make([]bool, n)

	for i := 1; i < n; i++ {
		if ph, _, ok := lastPivotBefore(pivotHighs, i); ok && candles[i].Close > ph {
			bosUp[i] = true
		}
		if pl, _, ok := lastPivotBefore(pivotLows, i); ok && candles[i].Close < pl {
			bosDown[i] = true
		}
	}
	return bosUp, bosDown
}
