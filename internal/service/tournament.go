package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"updown/internal/models"
	"updown/internal/repository"
	"updown/internal/round"
	"updown/internal/txn"
)

var (
	ErrAlreadyJoined  = errors.New("service: already joined tournament")
	ErrTournamentOver = errors.New("service: tournament has ended")
)

// TournamentService runs multi-day point competitions. Settlement credits
// points here instead of the user's coin balance when a submission was made
// under a tournament.
type TournamentService struct {
	Repo   repository.Repository
	Tx     *txn.Manager
	Logger *zap.Logger
}

func (s *TournamentService) Get(ctx context.Context, id uint64) (*models.Tournament, error) {
	tournament, err := s.Repo.GetTournament(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return tournament, err
}

func (s *TournamentService) Create(ctx context.Context, tournament *models.Tournament) error {
	return s.Repo.CreateTournament(ctx, tournament)
}

func (s *TournamentService) ListActive(ctx context.Context, now time.Time) ([]models.Tournament, error) {
	return s.Repo.ListTournamentsBetweenDays(ctx, round.UTCDay(now))
}

// Join enrolls a user: the entry fee debit, the participant counter bump and
// the participation row commit or roll back together.
func (s *TournamentService) Join(ctx context.Context, tournamentID, userID uint64) (*models.TournamentParticipation, error) {
	tournament, err := s.Repo.GetTournament(ctx, tournamentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if round.UTCDay(time.Now().UTC()) >= tournament.EndDay {
		return nil, ErrTournamentOver
	}

	participation := &models.TournamentParticipation{
		TournamentID: tournamentID,
		UserID:       userID,
		Points:       decimal.Zero,
	}

	err = s.Tx.Run(ctx, func(ctx context.Context) error {
		if _, err := s.Repo.GetParticipation(ctx, tournamentID, userID); err == nil {
			return ErrAlreadyJoined
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if err := s.Repo.WithdrawUserCoins(ctx, userID, tournament.EntryPrice); err != nil {
			if errors.Is(err, repository.ErrInsufficientBalance) {
				return ErrInsufficientBalance
			}
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := s.Repo.IncrementTournamentParticipants(ctx, tournamentID); err != nil {
			return err
		}

		if err := s.Repo.CreateParticipation(ctx, participation); err != nil {
			if errors.Is(err, repository.ErrAlreadyJoined) {
				return ErrAlreadyJoined
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Info("tournament joined",
			zap.Uint64("tournament_id", tournamentID),
			zap.Uint64("user_id", userID))
	}
	return participation, nil
}

func (s *TournamentService) AddPoints(ctx context.Context, tournamentID, userID uint64, points decimal.Decimal) error {
	err := s.Repo.AddParticipationPoints(ctx, tournamentID, userID, points)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotParticipant
	}
	return err
}

func (s *TournamentService) Rank(ctx context.Context, tournamentID, userID uint64) (int64, error) {
	rank, err := s.Repo.ParticipantRank(ctx, tournamentID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, ErrNotParticipant
	}
	return rank, err
}

func (s *TournamentService) Leaderboard(ctx context.Context, tournamentID uint64, limit int) ([]repository.LeaderboardRow, error) {
	return s.Repo.Leaderboard(ctx, tournamentID, limit)
}
