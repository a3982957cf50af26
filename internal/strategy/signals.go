package strategy

import "crypto-trading-bot/internal/types"

// Params tunes signal generation.
type Params struct {
	PivotLeft  int
	PivotRight int
	FibEntries []float64
	MaxEntries int
	MinBars    int
}

func DefaultParams() Params {
	return Params{
		PivotLeft:  2,
		PivotRight: 2,
		FibEntries: []float64{0.5, 0.618},
		MaxEntries: 3,
		MinBars:    30,
	}
}

// Generate evaluates the closed candles and returns a setup when the
// latest bar broke structure: a ladder of limit entries at the configured
// retracement levels, stop at the swing extreme and target one swing-range
// away. Returns nil when no setup exists.
//
// SignalTs is the bar timestamp of the broken pivot, so consecutive
// closes beyond the same swing all carry one timestamp and callers can
// dedupe on it.
func Generate(candles []types.Candle, p Params) *types.Signal {
	if len(candles) < p.MinBars {
		return nil
	}

	pivotHighs, pivotLows := DetectPivots(candles, p.PivotLeft, p.PivotRight)
	bosUp, bosDown := DetectBreakOfStructure(candles, pivotHighs, pivotLows)

	last := len(candles) - 1
	swingHigh, highIdx, okHigh := lastPivot(pivotHighs)
	swingLow, lowIdx, okLow := lastPivot(pivotLows)
	if !okHigh || !okLow {
		return nil
	}

	switch {
	case bosUp[last]:
		entries := ladderEntries(FibLevels(swingLow, swingHigh, "long", p.FibEntries), p)
		if len(entries) == 0 {
			return nil
		}
		return &types.Signal{
			Direction:  "long",
			Entries:    entries,
			StopLoss:   swingLow,
			TakeProfit: swingHigh + (swingHigh - swingLow),
			SignalTs:   candles[highIdx].Ts,
		}

	case bosDown[last]:
		entries := ladderEntries(FibLevels(swingLow, swingHigh, "short", p.FibEntries), p)
		if len(entries) == 0 {
			return nil
		}
		return &types.Signal{
			Direction:  "short",
			Entries:    entries,
			StopLoss:   swingHigh,
			TakeProfit: swingLow - (swingHigh - swingLow),
			SignalTs:   candles[lowIdx].Ts,
		}
	}

	return nil
}

// ladderEntries picks the entry prices for the configured retracement
// levels, capped at MaxEntries orders.
func ladderEntries(fibs map[float64]float64, p Params) []float64 {
	entries := make([]float64, 0, len(p.FibEntries))
	for _, lvl := range p.FibEntries {
		entries = append(entries, fibs[lvl])
	}
	if p.MaxEntries > 0 && len(entries) > p.MaxEntries {
		entries = entries[:p.MaxEntries]
	}
	return entries
}
