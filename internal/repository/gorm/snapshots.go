package gormrepository

import (
	"context"

	"updown/internal/models"
)

func (s *Store) LatestCompleteSnapshot(ctx context.Context) (*models.PriceSnapshot, error) {
	var snap models.PriceSnapshot
	err := s.dbc(ctx).
		Where("complete = ?", true).
		Order("timestamp desc").
		First(&snap).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &snap, nil
}

func (s *Store) ListLatestSnapshots(ctx context.Context, limit int) ([]models.PriceSnapshot, error) {
	if limit <= 0 {
		limit = 24
	}
	var snaps []models.PriceSnapshot
	err := s.dbc(ctx).
		Order("timestamp desc").
		Limit(limit).
		Find(&snaps).Error
	if err != nil {
		return nil, err
	}
	return snaps, nil
}

func (s *Store) GetSnapshotByTimestamp(ctx context.Context, timestamp int64) (*models.PriceSnapshot, error) {
	var snap models.PriceSnapshot
	err := s.dbc(ctx).First(&snap, "timestamp = ?", timestamp).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &snap, nil
}

func (s *Store) ListSnapshotsInInterval(ctx context.Context, from, to int64) ([]models.PriceSnapshot, error) {
	var snaps []models.PriceSnapshot
	err := s.dbc(ctx).
		Where("timestamp >= ? AND timestamp <= ?", from, to).
		Order("timestamp asc").
		Find(&snaps).Error
	if err != nil {
		return nil, err
	}
	return snaps, nil
}

func (s *Store) CreateSnapshot(ctx context.Context, snapshot *models.PriceSnapshot) error {
	return s.dbc(ctx).Create(snapshot).Error
}
