package gormrepository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"updown/internal/models"
	"updown/internal/repository"
)

func (s *Store) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := s.dbc(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (s *Store) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	if err := s.dbc(ctx).First(&user, "external_id = ?", externalID).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.dbc(ctx).Create(user).Error
}

func (s *Store) AddUserCoins(ctx context.Context, userID uint64, amount decimal.Decimal) error {
	res := s.dbc(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("coins_balance", gorm.Expr("coins_balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// WithdrawUserCoins debits atomically. The balance guard is in the WHERE
// clause so two concurrent debits cannot overdraw.
func (s *Store) WithdrawUserCoins(ctx context.Context, userID uint64, amount decimal.Decimal) error {
	res := s.dbc(ctx).Model(&models.User{}).
		Where("id = ? AND coins_balance >= ?", userID, amount).
		Update("coins_balance", gorm.Expr("coins_balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.dbc(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrInsufficientBalance
	}
	return nil
}
