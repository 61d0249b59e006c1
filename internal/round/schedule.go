// Package round maps wall-clock time onto the fixed grid of prediction rounds
// and derives each user's asset lineup for a round deterministically.
package round

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"updown/internal/config"
)

type Boundaries struct {
	StartTimestamp int64
	EndTimestamp   int64
}

type Schedule struct {
	initial  int64
	duration int64
	assets   []string
	perRound int
	secret   string
}

func NewSchedule(cfg config.GameConfig) *Schedule {
	duration := int64(cfg.RoundDuration / time.Second)
	if duration <= 0 {
		duration = 3600
	}
	perRound := cfg.AssetsPerRound
	if perRound <= 0 || perRound > len(cfg.Assets) {
		perRound = len(cfg.Assets)
	}
	return &Schedule{
		initial:  cfg.InitialRoundTimestamp,
		duration: duration,
		assets:   cfg.Assets,
		perRound: perRound,
		secret:   cfg.AssetsSecret,
	}
}

func (s *Schedule) Current(now time.Time) int64 {
	return s.ByTimestamp(now.Unix())
}

func (s *Schedule) ByTimestamp(unix int64) int64 {
	return (unix - s.initial) / s.duration
}

func (s *Schedule) Boundaries(round int64) Boundaries {
	return Boundaries{
		StartTimestamp: s.initial + round*s.duration,
		EndTimestamp:   s.initial + (round+1)*s.duration,
	}
}

func (s *Schedule) Assets() []string {
	return s.assets
}

// AssetsForUser picks the user's lineup for a round: a seeded draw without
// replacement, so every caller computes the same set for the same
// (user, round) pair.
func (s *Schedule) AssetsForUser(round int64, userID uint64) []string {
	picked := make([]string, 0, s.perRound)
	available := make([]string, len(s.assets))
	copy(available, s.assets)

	for i := 0; i < s.perRound; i++ {
		seed := fmt.Sprintf("%d:%d:%d:%s", userID, round, i, s.secret)
		idx := seededIntn(seed, len(available))

		picked = append(picked, available[idx])
		available = append(available[:idx], available[idx+1:]...)
	}
	return picked
}

func seededIntn(seed string, n int) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	return rand.New(rand.NewSource(int64(h.Sum64()))).Intn(n)
}
