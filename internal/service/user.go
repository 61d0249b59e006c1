package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"updown/internal/models"
	"updown/internal/repository"
)

var (
	ErrNotFound            = errors.New("service: not found")
	ErrInsufficientBalance = errors.New("service: insufficient balance")
)

// UserService manages player accounts and their coin balances.
type UserService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (s *UserService) Get(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.Repo.GetUser(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

func (s *UserService) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	user, err := s.Repo.GetUserByExternalID(ctx, externalID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

func (s *UserService) Create(ctx context.Context, externalID, username, avatarURL string, initialCoins decimal.Decimal) (*models.User, error) {
	user := &models.User{
		ExternalID:   externalID,
		Username:     username,
		AvatarURL:    avatarURL,
		CoinsBalance: initialCoins,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user created",
			zap.Uint64("user_id", user.ID),
			zap.String("external_id", externalID))
	}
	return user, nil
}

func (s *UserService) Credit(ctx context.Context, userID uint64, amount decimal.Decimal) error {
	err := s.Repo.AddUserCoins(ctx, userID, amount)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *UserService) Debit(ctx context.Context, userID uint64, amount decimal.Decimal) error {
	err := s.Repo.WithdrawUserCoins(ctx, userID, amount)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrInsufficientBalance):
		return ErrInsufficientBalance
	}
	return err
}
