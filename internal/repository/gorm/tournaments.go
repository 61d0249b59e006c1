package gormrepository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"updown/internal/models"
	"updown/internal/repository"
)

func (s *Store) GetTournament(ctx context.Context, id uint64) (*models.Tournament, error) {
	var tournament models.Tournament
	if err := s.dbc(ctx).First(&tournament, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &tournament, nil
}

func (s *Store) GetTournamentByDisplayID(ctx context.Context, displayID int64) (*models.Tournament, error) {
	var tournament models.Tournament
	if err := s.dbc(ctx).First(&tournament, "display_id = ?", displayID).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &tournament, nil
}

func (s *Store) CreateTournament(ctx context.Context, tournament *models.Tournament) error {
	return s.dbc(ctx).Create(tournament).Error
}

// ListTournamentsBetweenDays returns tournaments whose day window contains
// the given UTC day ordinal.
func (s *Store) ListTournamentsBetweenDays(ctx context.Context, day int64) ([]models.Tournament, error) {
	var tournaments []models.Tournament
	err := s.dbc(ctx).
		Where("start_day <= ? AND end_day > ?", day, day).
		Order("start_day asc").
		Find(&tournaments).Error
	if err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (s *Store) IncrementTournamentParticipants(ctx context.Context, id uint64) error {
	res := s.dbc(ctx).Model(&models.Tournament{}).
		Where("id = ?", id).
		Update("participants_count", gorm.Expr("participants_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) GetParticipation(ctx context.Context, tournamentID, userID uint64) (*models.TournamentParticipation, error) {
	var participation models.TournamentParticipation
	err := s.dbc(ctx).
		First(&participation, "tournament_id = ? AND user_id = ?", tournamentID, userID).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &participation, nil
}

func (s *Store) CreateParticipation(ctx context.Context, participation *models.TournamentParticipation) error {
	err := s.dbc(ctx).Create(participation).Error
	if err != nil && isUniqueViolation(err) {
		return repository.ErrAlreadyJoined
	}
	return err
}

func (s *Store) AddParticipationPoints(ctx context.Context, tournamentID, userID uint64, points decimal.Decimal) error {
	res := s.dbc(ctx).Model(&models.TournamentParticipation{}).
		Where("tournament_id = ? AND user_id = ?", tournamentID, userID).
		Update("points", gorm.Expr("points + ?", points))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ParticipantRank computes a stable 1-based rank without sorting the whole
// table: everyone with strictly more points ranks above, and ties are broken
// by participation id (earlier joiner wins).
func (s *Store) ParticipantRank(ctx context.Context, tournamentID, userID uint64) (int64, error) {
	participation, err := s.GetParticipation(ctx, tournamentID, userID)
	if err != nil {
		return 0, err
	}

	var above int64
	err = s.dbc(ctx).Model(&models.TournamentParticipation{}).
		Where("tournament_id = ? AND points > ?", tournamentID, participation.Points).
		Count(&above).Error
	if err != nil {
		return 0, err
	}

	var tiedBefore int64
	err = s.dbc(ctx).Model(&models.TournamentParticipation{}).
		Where("tournament_id = ? AND points = ? AND id < ?", tournamentID, participation.Points, participation.ID).
		Count(&tiedBefore).Error
	if err != nil {
		return 0, err
	}

	return 1 + above + tiedBefore, nil
}

func (s *Store) Leaderboard(ctx context.Context, tournamentID uint64, limit int) ([]repository.LeaderboardRow, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []repository.LeaderboardRow
	err := s.dbc(ctx).Model(&models.TournamentParticipation{}).
		Select(`tournament_participations.user_id,
			users.username,
			users.avatar_url,
			tournament_participations.points,
			tournament_participations.id as entry_order`).
		Joins("JOIN users ON users.id = tournament_participations.user_id").
		Where("tournament_participations.tournament_id = ?", tournamentID).
		Order("tournament_participations.points desc, tournament_participations.id asc").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
