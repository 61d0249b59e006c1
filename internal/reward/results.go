// Package reward turns predictions and boundary prices into deterministic
// outcomes and coin amounts.
package reward

import (
	"fmt"

	"github.com/shopspring/decimal"

	"updown/internal/models"
)

// AssetResult is the per-asset outcome of one settled round.
type AssetResult struct {
	Correct bool
	Pct     decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Results scores each prediction against the round's boundary prices. An "up"
// bet wins when the change is non-negative. A missing or zero start price is a
// transient data error; the caller skips the item and retries next cycle.
func Results(preds []models.PricePrediction, startPrices, endPrices map[string]decimal.Decimal) (map[string]AssetResult, error) {
	results := make(map[string]AssetResult, len(preds))

	for _, pred := range preds {
		start, ok := startPrices[pred.AssetID]
		if !ok || start.IsZero() {
			return nil, fmt.Errorf("no start price for asset %s", pred.AssetID)
		}
		end, ok := endPrices[pred.AssetID]
		if !ok {
			return nil, fmt.Errorf("no end price for asset %s", pred.AssetID)
		}

		pct := end.Sub(start).Div(start).Mul(hundred)

		correct := pct.IsNegative()
		if pred.Direction == models.DirectionUp {
			correct = !pct.IsNegative()
		}

		results[pred.AssetID] = AssetResult{Correct: correct, Pct: pct}
	}
	return results, nil
}

// Correctness reduces results to the per-asset map the streak tracker consumes.
func Correctness(results map[string]AssetResult) map[string]bool {
	out := make(map[string]bool, len(results))
	for assetID, r := range results {
		out[assetID] = r.Correct
	}
	return out
}
