package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PriceDirection string

const (
	DirectionUp   PriceDirection = "up"
	DirectionDown PriceDirection = "down"
)

// PricePrediction is a single directional bet on one asset.
type PricePrediction struct {
	AssetID   string         `json:"asset_id"`
	Direction PriceDirection `json:"direction"`
}

// PredictionSummary is the settled outcome of one prediction.
type PredictionSummary struct {
	Correct bool            `json:"correct"`
	Pct     decimal.Decimal `json:"pct"`
	Coins   decimal.Decimal `json:"coins"`
}

// SubmissionResult is the write-once result payload set when a submission
// settles.
type SubmissionResult struct {
	EarnedCoins decimal.Decimal              `json:"earned_coins"`
	Summaries   map[string]PredictionSummary `json:"summaries"`
}

// Submission is one entry per (user, round). Predictions are immutable after
// creation; Settled flips false→true exactly once, together with Result.
type Submission struct {
	ID           uint64  `gorm:"primaryKey;autoIncrement"`
	UserID       uint64  `gorm:"not null;uniqueIndex:idx_submissions_user_round,priority:1;index"`
	Round        int64   `gorm:"not null;uniqueIndex:idx_submissions_user_round,priority:2;index:idx_submissions_round_settled,priority:1"`
	TournamentID *uint64 `gorm:"index"`

	Predictions datatypes.JSON `gorm:"type:jsonb;not null"`

	IntervalStart int64 `gorm:"not null;index"`
	IntervalEnd   int64 `gorm:"not null"`

	Settled bool           `gorm:"not null;default:false;index:idx_submissions_round_settled,priority:2"`
	Result  datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (Submission) TableName() string {
	return "submissions"
}

func (s *Submission) DecodePredictions() ([]PricePrediction, error) {
	var preds []PricePrediction
	if err := json.Unmarshal(s.Predictions, &preds); err != nil {
		return nil, err
	}
	return preds, nil
}

func (s *Submission) DecodeResult() (*SubmissionResult, error) {
	if len(s.Result) == 0 {
		return nil, nil
	}
	var res SubmissionResult
	if err := json.Unmarshal(s.Result, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func EncodePredictions(preds []PricePrediction) (datatypes.JSON, error) {
	raw, err := json.Marshal(preds)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func EncodeResult(res SubmissionResult) (datatypes.JSON, error) {
	raw, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
