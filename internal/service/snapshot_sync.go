package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"updown/internal/client/prices"
	"updown/internal/config"
	"updown/internal/models"
	"updown/internal/repository"
)

// SnapshotSyncService polls hourly price history and persists one snapshot
// per hour bucket. A snapshot is Complete only when every tracked asset has a
// price in the bucket; incomplete snapshots are stored but never serve as a
// settlement boundary.
type SnapshotSyncService struct {
	Repo   repository.Repository
	Client *prices.Client
	Assets []string
	Logger *zap.Logger
	Config config.PricesConfig
}

// RunOnce is the cron entrypoint. It is a no-op while the newest stored
// snapshot is younger than the configured threshold.
func (s *SnapshotSyncService) RunOnce(ctx context.Context) error {
	threshold := s.Config.SnapshotThreshold
	if threshold <= 0 {
		threshold = 62 * time.Minute
	}

	var lastTimestamp int64
	latest, err := s.latestSnapshot(ctx)
	if err != nil {
		return err
	}
	if latest != nil {
		lastTimestamp = latest.Timestamp
		if time.Since(time.Unix(lastTimestamp, 0)) < threshold {
			return nil
		}
	}

	byBucket, err := s.fetchHistory(ctx, lastTimestamp)
	if err != nil {
		return err
	}
	if len(byBucket) == 0 {
		return nil
	}

	buckets := make([]int64, 0, len(byBucket))
	for ts := range byBucket {
		buckets = append(buckets, ts)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i] < buckets[j] })

	var created int
	for _, ts := range buckets {
		bucket := byBucket[ts]
		encoded, err := models.EncodePrices(bucket)
		if err != nil {
			return fmt.Errorf("encode prices: %w", err)
		}

		snap := &models.PriceSnapshot{
			Timestamp: ts,
			Prices:    encoded,
			Complete:  len(bucket) == len(s.Assets),
		}
		if err := s.Repo.CreateSnapshot(ctx, snap); err != nil {
			return fmt.Errorf("create snapshot %d: %w", ts, err)
		}
		created++
	}

	s.Logger.Info("price snapshots ingested",
		zap.Int("created", created),
		zap.Int64("newest", buckets[len(buckets)-1]))
	return nil
}

func (s *SnapshotSyncService) latestSnapshot(ctx context.Context) (*models.PriceSnapshot, error) {
	snaps, err := s.Repo.ListLatestSnapshots(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return &snaps[0], nil
}

// fetchHistory pulls each asset's hourly candles and groups closing prices
// into hour buckets strictly newer than after. A failed asset fetch aborts
// the run; partial buckets from a flaky upstream would otherwise poison the
// completeness flag.
func (s *SnapshotSyncService) fetchHistory(ctx context.Context, after int64) (map[int64]map[string]decimal.Decimal, error) {
	limit := s.Config.HistoryLimit
	if limit <= 0 {
		limit = 48
	}

	byBucket := map[int64]map[string]decimal.Decimal{}
	for _, asset := range s.Assets {
		items, err := s.Client.HourlyHistory(ctx, asset, limit)
		if err != nil {
			var apiErr *prices.APIError
			if errors.As(err, &apiErr) {
				s.Logger.Warn("price history fetch rejected",
					zap.String("asset", asset),
					zap.Int("status", apiErr.Status))
			}
			return nil, fmt.Errorf("history for %s: %w", asset, err)
		}

		for _, item := range items {
			// A candle's close belongs to the end of its hour.
			ts := item.Time + 3600
			if ts <= after {
				continue
			}
			if byBucket[ts] == nil {
				byBucket[ts] = map[string]decimal.Decimal{}
			}
			byBucket[ts][asset] = item.Close
		}
	}

	// The newest bucket may be a still-open hour; drop it so boundaries only
	// ever come from closed candles.
	if len(byBucket) > 0 {
		var newest int64
		for ts := range byBucket {
			if ts > newest {
				newest = ts
			}
		}
		if newest > time.Now().UTC().Unix() {
			delete(byBucket, newest)
		}
	}
	return byBucket, nil
}
