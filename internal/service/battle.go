package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"updown/internal/models"
	"updown/internal/repository"
	"updown/internal/round"
	"updown/internal/txn"
)

var (
	ErrBattleClosed    = errors.New("service: battle round already started")
	ErrAlreadyInBattle = errors.New("service: already in battle")
	ErrOwnBattleExists = errors.New("service: battle already exists for round")
)

// BattleService runs head-to-head wagers scoped to a single round. Entry
// fees accumulate into the prize pool; after the round settles, the pool is
// split among the players with the highest earned coins.
type BattleService struct {
	Repo     repository.Repository
	Tx       *txn.Manager
	Schedule *round.Schedule
	Logger   *zap.Logger
}

// Create opens a battle for the upcoming round, debiting the owner's entry.
func (s *BattleService) Create(ctx context.Context, ownerID uint64, entryPrice decimal.Decimal) (*models.Battle, error) {
	targetRound := s.Schedule.Current(time.Now().UTC()) + 1

	players, err := models.EncodePlayers([]models.BattlePlayer{
		{UserID: ownerID, Points: decimal.Zero},
	})
	if err != nil {
		return nil, err
	}

	battle := &models.Battle{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		Round:      targetRound,
		EntryPrice: entryPrice,
		PrizePool:  entryPrice,
		Players:    players,
	}

	err = s.Tx.Run(ctx, func(ctx context.Context) error {
		if _, err := s.Repo.GetBattleForOwner(ctx, ownerID, targetRound); err == nil {
			return ErrOwnBattleExists
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if err := s.Repo.WithdrawUserCoins(ctx, ownerID, entryPrice); err != nil {
			return translateBalanceErr(err)
		}
		return s.Repo.CreateBattle(ctx, battle)
	})
	if err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Info("battle created",
			zap.String("battle_id", battle.ID),
			zap.Uint64("owner_id", ownerID),
			zap.Int64("round", targetRound))
	}
	return battle, nil
}

// Join adds a player before the battle's round starts.
func (s *BattleService) Join(ctx context.Context, battleID string, userID uint64) (*models.Battle, error) {
	var battle *models.Battle
	err := s.Tx.Run(ctx, func(ctx context.Context) error {
		// Locked read: concurrent joins serialize on the battle row so the
		// player list and pool update never clobber each other.
		var err error
		battle, err = s.Repo.GetBattleForUpdate(ctx, battleID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		bounds := s.Schedule.Boundaries(battle.Round)
		if time.Now().UTC().Unix() >= bounds.StartTimestamp {
			return ErrBattleClosed
		}

		players, err := battle.PlayerList()
		if err != nil {
			return fmt.Errorf("decode players: %w", err)
		}
		for _, p := range players {
			if p.UserID == userID {
				return ErrAlreadyInBattle
			}
		}

		if err := s.Repo.WithdrawUserCoins(ctx, userID, battle.EntryPrice); err != nil {
			return translateBalanceErr(err)
		}

		players = append(players, models.BattlePlayer{UserID: userID, Points: decimal.Zero})
		encoded, err := models.EncodePlayers(players)
		if err != nil {
			return err
		}

		battle.PrizePool = battle.PrizePool.Add(battle.EntryPrice)
		battle.Players = encoded
		return s.Repo.UpdateBattlePlayers(ctx, battle.ID, encoded, battle.PrizePool)
	})
	if err != nil {
		return nil, err
	}
	return battle, nil
}

func (s *BattleService) Get(ctx context.Context, id string) (*models.Battle, error) {
	battle, err := s.Repo.GetBattle(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return battle, err
}

// SettleForRound resolves every pending battle of an already-settled round.
// An empty score set settles as a no-contest; a battle whose settlement
// errored stays pending, and the error keeps the round open so the next
// cycle lists it again.
func (s *BattleService) SettleForRound(ctx context.Context, settledRound int64) error {
	battles, err := s.Repo.ListPendingBattlesByRound(ctx, settledRound)
	if err != nil {
		return fmt.Errorf("list pending battles: %w", err)
	}

	var failed int
	for i := range battles {
		battle := &battles[i]
		if err := s.settleOne(ctx, battle); err != nil {
			failed++
			if s.Logger != nil {
				s.Logger.Error("battle settlement failed",
					zap.String("battle_id", battle.ID),
					zap.Int64("round", settledRound),
					zap.Error(err))
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("round %d: %d of %d battles failed to settle", settledRound, failed, len(battles))
	}
	return nil
}

func (s *BattleService) settleOne(ctx context.Context, battle *models.Battle) error {
	return s.Tx.Run(ctx, func(ctx context.Context) error {
		// Re-read under lock: the listing happened outside this transaction
		// and a late join could still be mutating the row.
		fresh, err := s.Repo.GetBattleForUpdate(ctx, battle.ID)
		if err != nil {
			return err
		}
		if fresh.Settled {
			return nil
		}

		players, err := fresh.PlayerList()
		if err != nil {
			return fmt.Errorf("decode players: %w", err)
		}

		userIDs := make([]uint64, 0, len(players))
		for _, p := range players {
			userIDs = append(userIDs, p.UserID)
		}

		subs, err := s.Repo.ListSettledSubmissionsForUsers(ctx, userIDs, fresh.Round)
		if err != nil {
			return err
		}

		earned := map[uint64]decimal.Decimal{}
		for i := range subs {
			result, err := subs[i].DecodeResult()
			if err != nil || result == nil {
				continue
			}
			earned[subs[i].UserID] = result.EarnedCoins
		}

		updated, payouts := computeBattleOutcome(players, earned, fresh.EntryPrice, fresh.PrizePool)

		for userID, amount := range payouts {
			if amount.IsPositive() {
				if err := s.Repo.AddUserCoins(ctx, userID, amount); err != nil {
					return err
				}
			}
		}

		encoded, err := models.EncodePlayers(updated)
		if err != nil {
			return err
		}
		return s.Repo.SettleBattle(ctx, fresh.ID, encoded)
	})
}

// computeBattleOutcome resolves standings. With no scored players the battle
// is a no-contest; with one, that player gets the entry fee back; otherwise
// the players tied at the highest earned amount split the pool evenly and
// record their net gain as points.
func computeBattleOutcome(players []models.BattlePlayer, earned map[uint64]decimal.Decimal, entryPrice, prizePool decimal.Decimal) ([]models.BattlePlayer, map[uint64]decimal.Decimal) {
	payouts := map[uint64]decimal.Decimal{}

	scored := make([]uint64, 0, len(players))
	for _, p := range players {
		if _, ok := earned[p.UserID]; ok {
			scored = append(scored, p.UserID)
		}
	}

	switch len(scored) {
	case 0:
		return players, payouts
	case 1:
		payouts[scored[0]] = entryPrice
		return players, payouts
	}

	best := decimal.Zero
	for i, userID := range scored {
		if i == 0 || earned[userID].GreaterThan(best) {
			best = earned[userID]
		}
	}

	winners := make([]uint64, 0, len(scored))
	for _, userID := range scored {
		if earned[userID].Equal(best) {
			winners = append(winners, userID)
		}
	}

	shares := splitEvenly(prizePool, len(winners))
	winnerShare := map[uint64]decimal.Decimal{}
	for i, userID := range winners {
		winnerShare[userID] = shares[i]
		payouts[userID] = shares[i]
	}

	updated := make([]models.BattlePlayer, len(players))
	for i, p := range players {
		updated[i] = p
		if share, ok := winnerShare[p.UserID]; ok {
			updated[i].Points = share.Sub(entryPrice)
		}
	}
	return updated, payouts
}

// splitEvenly divides amount into n shares at 2-decimal precision that sum
// exactly to amount; the leftover cents go to the earliest shares.
func splitEvenly(amount decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}

	cent := decimal.New(1, -2)
	totalCents := amount.Div(cent).IntPart()
	baseCents := totalCents / int64(n)
	remainder := totalCents % int64(n)

	shares := make([]decimal.Decimal, n)
	for i := range shares {
		cents := baseCents
		if int64(i) < remainder {
			cents++
		}
		shares[i] = decimal.New(cents, -2)
	}
	return shares
}

func translateBalanceErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrInsufficientBalance):
		return ErrInsufficientBalance
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	}
	return err
}
