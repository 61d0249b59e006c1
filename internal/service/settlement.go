package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"updown/internal/config"
	"updown/internal/cursor"
	"updown/internal/lock"
	"updown/internal/models"
	"updown/internal/repository"
	"updown/internal/reward"
	"updown/internal/round"
	"updown/internal/streak"
	"updown/internal/txn"
)

const settlementLockKey = "settlement-cycle"

var errMissingBoundary = errors.New("service: boundary snapshot unavailable")

// SettlementService scores pending submissions against round boundary prices.
// One cycle settles every round that has both boundary snapshots, in order,
// and advances the marker only once a round's submissions and battles have
// all settled. A round with failed items holds the marker, so the next cycle
// re-drains it: settled rows no longer match the pending filter and the
// write-once settled guard makes any overlap a no-op.
type SettlementService struct {
	Repo     repository.Repository
	Tx       *txn.Manager
	Schedule *round.Schedule
	Streaks  *streak.Service
	Strategy reward.Strategy
	Battles  *BattleService
	Locker   lock.Locker
	Logger   *zap.Logger
	Config   config.SettlementConfig
}

// RunCycle is the cron entrypoint. A cycle already running here or on
// another instance makes this call a logged no-op.
func (s *SettlementService) RunCycle(ctx context.Context) error {
	ttl := s.Config.LockTTL
	if ttl <= 0 {
		ttl = 25 * time.Minute
	}

	release, err := s.Locker.Acquire(ctx, settlementLockKey, ttl)
	if errors.Is(err, lock.ErrHeld) {
		s.Logger.Info("settlement cycle already running, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("acquire settlement lock: %w", err)
	}
	defer release()

	return s.runCycle(ctx)
}

func (s *SettlementService) runCycle(ctx context.Context) error {
	latest, err := s.Repo.LatestCompleteSnapshot(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		s.Logger.Info("no complete snapshot yet, nothing to settle")
		return nil
	}
	if err != nil {
		return fmt.Errorf("latest snapshot: %w", err)
	}

	available := s.Schedule.ByTimestamp(latest.Timestamp)
	last, err := s.Repo.GetLastProcessedRound(ctx)
	if err != nil {
		return fmt.Errorf("last processed round: %w", err)
	}

	if available-1 <= last {
		return nil
	}

	// Boundary prices are shared between consecutive rounds; cache them for
	// the whole cycle.
	prices := map[int64]map[string]decimal.Decimal{}

	for r := last + 1; r <= available-1; r++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.processRound(ctx, r, prices); err != nil {
			// The round stays unprocessed and blocks later rounds so the
			// marker remains contiguous; the next cycle retries from here.
			s.Logger.Error("round settlement stopped",
				zap.Int64("round", r),
				zap.Error(err))
			return err
		}

		if err := s.Battles.SettleForRound(ctx, r); err != nil {
			// Pending battles only get revisited for rounds at or past the
			// marker, so a failed battle pass holds the round open too.
			s.Logger.Error("battle pass failed",
				zap.Int64("round", r),
				zap.Error(err))
			return err
		}

		if err := s.Repo.SetLastProcessedRound(ctx, r); err != nil {
			return fmt.Errorf("advance marker to round %d: %w", r, err)
		}
	}
	return nil
}

func (s *SettlementService) processRound(ctx context.Context, r int64, cache map[int64]map[string]decimal.Decimal) error {
	bounds := s.Schedule.Boundaries(r)

	startPrices, err := s.boundaryPrices(ctx, bounds.StartTimestamp, cache)
	if err != nil {
		return fmt.Errorf("start boundary %d: %w", bounds.StartTimestamp, err)
	}
	endPrices, err := s.boundaryPrices(ctx, bounds.EndTimestamp, cache)
	if err != nil {
		return fmt.Errorf("end boundary %d: %w", bounds.EndTimestamp, err)
	}

	pageSize := s.Config.PageSize
	if pageSize <= 0 {
		pageSize = cursor.DefaultPageSize
	}

	var settled, failed int
	var erroredIDs []uint64

	fetch := func(ctx context.Context, afterID uint64, limit int) ([]models.Submission, error) {
		return s.Repo.ListPendingSubmissions(ctx, r, afterID, limit)
	}
	key := func(sub models.Submission) uint64 { return sub.ID }
	handle := func(ctx context.Context, page []models.Submission) error {
		for i := range page {
			if err := s.settleOne(ctx, &page[i], r, startPrices, endPrices); err != nil {
				failed++
				erroredIDs = append(erroredIDs, page[i].ID)
				s.Logger.Warn("submission settlement failed",
					zap.Uint64("submission_id", page[i].ID),
					zap.Int64("round", r),
					zap.Error(err))
				continue
			}
			settled++
		}
		return nil
	}

	if err := cursor.Process(ctx, pageSize, fetch, key, handle); err != nil {
		return fmt.Errorf("drain pending submissions: %w", err)
	}

	if len(erroredIDs) > 0 {
		// The failed items are still pending; holding the round keeps them
		// inside the due window for the next cycle.
		s.Logger.Error("round drained with failures",
			zap.Int64("round", r),
			zap.Int("settled", settled),
			zap.Uint64s("errored_ids", erroredIDs))
		return fmt.Errorf("round %d: %d of %d submissions failed to settle", r, failed, failed+settled)
	}

	s.Logger.Info("round settled",
		zap.Int64("round", r),
		zap.Int("settled", settled))
	return nil
}

// settleOne processes a single submission atomically: result computation,
// streak transition, reward and crediting commit or roll back together.
func (s *SettlementService) settleOne(ctx context.Context, sub *models.Submission, r int64, startPrices, endPrices map[string]decimal.Decimal) error {
	timeout := s.Config.ItemTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	itemCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	preds, err := sub.DecodePredictions()
	if err != nil {
		return fmt.Errorf("decode predictions: %w", err)
	}

	return s.Tx.Run(itemCtx, func(ctx context.Context) error {
		results, err := reward.Results(preds, startPrices, endPrices)
		if err != nil {
			return err
		}

		state, err := s.Streaks.Apply(ctx, sub.UserID, r, reward.Correctness(results))
		if err != nil {
			return err
		}

		outcome := s.Strategy.Calculate(results, state.AssetStreaks, state.ChoicesStreak)
		encoded, err := models.EncodeResult(outcome)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}

		if err := s.Repo.MarkSubmissionSettled(ctx, sub.ID, encoded); err != nil {
			if errors.Is(err, repository.ErrAlreadySettled) {
				// Raced with another settler; nothing to credit.
				return nil
			}
			return err
		}

		if !outcome.EarnedCoins.IsPositive() {
			return nil
		}
		if sub.TournamentID != nil {
			return s.Repo.AddParticipationPoints(ctx, *sub.TournamentID, sub.UserID, outcome.EarnedCoins)
		}
		return s.Repo.AddUserCoins(ctx, sub.UserID, outcome.EarnedCoins)
	})
}

func (s *SettlementService) boundaryPrices(ctx context.Context, timestamp int64, cache map[int64]map[string]decimal.Decimal) (map[string]decimal.Decimal, error) {
	if prices, ok := cache[timestamp]; ok {
		return prices, nil
	}

	snap, err := s.Repo.GetSnapshotByTimestamp(ctx, timestamp)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errMissingBoundary
	}
	if err != nil {
		return nil, err
	}
	if !snap.Complete {
		return nil, errMissingBoundary
	}

	prices, err := snap.PriceMap()
	if err != nil {
		return nil, fmt.Errorf("decode snapshot prices: %w", err)
	}
	cache[timestamp] = prices
	return prices, nil
}
