package gormrepository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"

	"updown/internal/models"
	"updown/internal/repository"
)

func (s *Store) GetBattle(ctx context.Context, id string) (*models.Battle, error) {
	var battle models.Battle
	if err := s.dbc(ctx).First(&battle, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &battle, nil
}

func (s *Store) GetBattleForUpdate(ctx context.Context, id string) (*models.Battle, error) {
	var battle models.Battle
	err := s.dbc(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&battle, "id = ?", id).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &battle, nil
}

func (s *Store) GetBattleForOwner(ctx context.Context, ownerID uint64, round int64) (*models.Battle, error) {
	var battle models.Battle
	err := s.dbc(ctx).First(&battle, "owner_id = ? AND round = ?", ownerID, round).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &battle, nil
}

func (s *Store) ListPendingBattlesByRound(ctx context.Context, round int64) ([]models.Battle, error) {
	var battles []models.Battle
	err := s.dbc(ctx).
		Where("round = ? AND settled = ?", round, false).
		Order("created_at asc").
		Find(&battles).Error
	if err != nil {
		return nil, err
	}
	return battles, nil
}

func (s *Store) CreateBattle(ctx context.Context, battle *models.Battle) error {
	return s.dbc(ctx).Create(battle).Error
}

func (s *Store) UpdateBattlePlayers(ctx context.Context, id string, players datatypes.JSON, prizePool decimal.Decimal) error {
	res := s.dbc(ctx).Model(&models.Battle{}).
		Where("id = ? AND settled = ?", id, false).
		Updates(map[string]any{"players": players, "prize_pool": prizePool})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrAlreadySettled
	}
	return nil
}

func (s *Store) SettleBattle(ctx context.Context, id string, players datatypes.JSON) error {
	res := s.dbc(ctx).Model(&models.Battle{}).
		Where("id = ? AND settled = ?", id, false).
		Updates(map[string]any{"players": players, "settled": true})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrAlreadySettled
	}
	return nil
}
