package execution

import (
	"errors"
	"math"
)

var (
	ErrNoEntries        = errors.New("no entry prices provided")
	ErrNonPositiveRisk  = errors.New("risk amount must be positive")
	ErrZeroStopDistance = errors.New("stop loss equals all entry prices, cannot size positions")
)

// ComputeEqualSizedOrders sizes a ladder of entries with equal per-order
// quantity such that if every entry fills and price then hits the stop,
// the total loss equals accountSize * riskFraction.
func ComputeEqualSizedOrders(entries []float64, stopLoss, accountSize, riskFraction float64) ([]float64, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	riskAmount := accountSize * riskFraction
	if riskAmount <= 0 {
		return nil, ErrNonPositiveRisk
	}

	denom := 0.0
	for _, e := range entries {
		denom += math.Abs(e - stopLoss)
	}
	if denom == 0 {
		return nil, ErrZeroStopDistance
	}

	perOrder := riskAmount / denom
	sizes := make([]float64, len(entries))
	for i := range sizes {
		sizes[i] = perOrder
	}
	return sizes, nil
}
