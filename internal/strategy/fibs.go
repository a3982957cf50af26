package strategy

// DefaultFibLevels are the standard retracement fractions.
var DefaultFibLevels = []float64{0.236, 0.382, 0.5, 0.618, 0.786}

// FibLevels computes retracement prices for a swing. For a long setup the
// retracement walks down from the swing high towards the low; for a short
// it walks up from the low towards the high.
func FibLevels(swingLow, swingHigh float64, direction string, levels []float64) map[float64]float64 {
	if levels == nil {
		levels = DefaultFibLevels
	}

	fibs := make(map[float64]float64, len(levels))
	delta := swingHigh - swingLow

	for _, lvl := range levels {
		if direction == "long" {
			fibs[lvl] = swingHigh - delta*lvl
		} else {
			fibs[lvl] = swingLow + delta*lvl
		}
	}
	return fibs
}
