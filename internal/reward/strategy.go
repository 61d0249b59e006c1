package reward

import (
	"fmt"

	"github.com/shopspring/decimal"

	"updown/internal/models"
)

const (
	earnedCoinsPrecision      = 2
	maxStreakMultiplier       = 10
	streakMultiplierThreshold = 3
	initialStreakMultiplier   = 2
)

// Strategy computes the coin reward of one settled submission. The streak
// state supplied is the post-update state for the same round.
type Strategy interface {
	Calculate(results map[string]AssetResult, assetStreaks map[string]int, choicesStreak int) models.SubmissionResult
}

// ForName selects a strategy by its configured name.
func ForName(name string, baseAssetCoins decimal.Decimal) (Strategy, error) {
	switch name {
	case "streak":
		return &StreakWeighted{BaseAssetCoins: baseAssetCoins}, nil
	case "percentage":
		return &PercentageChange{BaseAssetCoins: baseAssetCoins}, nil
	default:
		return nil, fmt.Errorf("unknown reward strategy %q", name)
	}
}

// StreakWeighted pays a base amount per correct asset scaled by a capped
// linear streak multiplier, with the whole round scaled by the choice-streak
// hot-hand bonus.
type StreakWeighted struct {
	BaseAssetCoins decimal.Decimal
}

func (s *StreakWeighted) Calculate(results map[string]AssetResult, assetStreaks map[string]int, choicesStreak int) models.SubmissionResult {
	total := decimal.Zero
	summaries := make(map[string]models.PredictionSummary, len(results))

	for assetID, r := range results {
		coins := decimal.Zero
		if r.Correct {
			mult := multiplierForStreak(assetStreaks[assetID])
			coins = s.BaseAssetCoins.Mul(decimal.NewFromInt(mult))
		}

		summaries[assetID] = models.PredictionSummary{
			Correct: r.Correct,
			Pct:     r.Pct.Round(earnedCoinsPrecision),
			Coins:   coins,
		}
		total = total.Add(coins)
	}

	hotHand := int64(choicesStreak)
	if hotHand < 1 {
		hotHand = 1
	}

	return models.SubmissionResult{
		EarnedCoins: total.Mul(decimal.NewFromInt(hotHand)).Round(earnedCoinsPrecision),
		Summaries:   summaries,
	}
}

func multiplierForStreak(streak int) int64 {
	if streak < streakMultiplierThreshold {
		return 1
	}
	mult := int64(streak) - streakMultiplierThreshold + initialStreakMultiplier
	if mult > maxStreakMultiplier {
		return maxStreakMultiplier
	}
	return mult
}

// PercentageChange pays the base amount scaled by the magnitude of the price
// move for each correct asset; streak state is ignored.
type PercentageChange struct {
	BaseAssetCoins decimal.Decimal
}

func (s *PercentageChange) Calculate(results map[string]AssetResult, _ map[string]int, _ int) models.SubmissionResult {
	total := decimal.Zero
	summaries := make(map[string]models.PredictionSummary, len(results))

	for assetID, r := range results {
		coins := decimal.Zero
		if r.Correct {
			coins = s.BaseAssetCoins.Mul(r.Pct.Abs()).Round(earnedCoinsPrecision)
		}

		summaries[assetID] = models.PredictionSummary{
			Correct: r.Correct,
			Pct:     r.Pct.Round(earnedCoinsPrecision),
			Coins:   coins,
		}
		total = total.Add(coins)
	}

	return models.SubmissionResult{
		EarnedCoins: total.Round(earnedCoinsPrecision),
		Summaries:   summaries,
	}
}
