package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"updown/internal/models"
	"updown/internal/repository"
	"updown/internal/round"
	"updown/internal/txn"
)

var (
	ErrDuplicateSubmission = errors.New("service: submission already exists for round")
	ErrInvalidPredictions  = errors.New("service: invalid predictions")
	ErrNotParticipant      = errors.New("service: not a tournament participant")
	ErrTournamentInactive  = errors.New("service: tournament not active")
)

// SubmissionService accepts prediction entries for the upcoming round.
type SubmissionService struct {
	Repo     repository.Repository
	Tx       *txn.Manager
	Schedule *round.Schedule
	Logger   *zap.Logger
}

// Submit records a user's predictions for the round after the current one.
// Entries close once a round starts, so the settlement boundary price can
// never be known at submission time. Submissions are immutable: a second
// submission for the same round is rejected.
func (s *SubmissionService) Submit(ctx context.Context, userID uint64, tournamentID *uint64, preds []models.PricePrediction) (*models.Submission, error) {
	now := time.Now().UTC()
	targetRound := s.Schedule.Current(now) + 1

	if err := s.validatePredictions(targetRound, userID, preds); err != nil {
		return nil, err
	}

	if tournamentID != nil {
		if err := s.validateTournamentEntry(ctx, *tournamentID, userID, now); err != nil {
			return nil, err
		}
	}

	encoded, err := models.EncodePredictions(preds)
	if err != nil {
		return nil, fmt.Errorf("encode predictions: %w", err)
	}

	bounds := s.Schedule.Boundaries(targetRound)
	submission := &models.Submission{
		UserID:        userID,
		Round:         targetRound,
		TournamentID:  tournamentID,
		Predictions:   encoded,
		IntervalStart: bounds.StartTimestamp,
		IntervalEnd:   bounds.EndTimestamp,
	}

	err = s.Tx.Run(ctx, func(ctx context.Context) error {
		return s.Repo.CreateSubmission(ctx, submission)
	})
	if errors.Is(err, repository.ErrDuplicateSubmission) {
		return nil, ErrDuplicateSubmission
	}
	if err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Info("submission accepted",
			zap.Uint64("user_id", userID),
			zap.Int64("round", targetRound),
			zap.Int("predictions", len(preds)))
	}
	return submission, nil
}

func (s *SubmissionService) validatePredictions(targetRound int64, userID uint64, preds []models.PricePrediction) error {
	if len(preds) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidPredictions)
	}

	lineup := map[string]bool{}
	for _, assetID := range s.Schedule.AssetsForUser(targetRound, userID) {
		lineup[assetID] = true
	}

	seen := map[string]bool{}
	for _, pred := range preds {
		if pred.Direction != models.DirectionUp && pred.Direction != models.DirectionDown {
			return fmt.Errorf("%w: unknown direction %q", ErrInvalidPredictions, pred.Direction)
		}
		if !lineup[pred.AssetID] {
			return fmt.Errorf("%w: asset %s not in round lineup", ErrInvalidPredictions, pred.AssetID)
		}
		if seen[pred.AssetID] {
			return fmt.Errorf("%w: duplicate asset %s", ErrInvalidPredictions, pred.AssetID)
		}
		seen[pred.AssetID] = true
	}
	return nil
}

func (s *SubmissionService) validateTournamentEntry(ctx context.Context, tournamentID, userID uint64, now time.Time) error {
	tournament, err := s.Repo.GetTournament(ctx, tournamentID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	day := round.UTCDay(now)
	if day < tournament.StartDay || day >= tournament.EndDay {
		return ErrTournamentInactive
	}

	if _, err := s.Repo.GetParticipation(ctx, tournamentID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotParticipant
		}
		return err
	}
	return nil
}

func (s *SubmissionService) Get(ctx context.Context, id uint64) (*models.Submission, error) {
	sub, err := s.Repo.GetSubmission(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return sub, err
}

func (s *SubmissionService) ListLatestForUser(ctx context.Context, userID uint64, limit int) ([]models.Submission, error) {
	return s.Repo.ListLatestSubmissionsForUser(ctx, userID, limit)
}

// LineupForUser exposes the deterministic asset draw for the upcoming round.
func (s *SubmissionService) LineupForUser(userID uint64) (int64, []string) {
	targetRound := s.Schedule.Current(time.Now().UTC()) + 1
	return targetRound, s.Schedule.AssetsForUser(targetRound, userID)
}
