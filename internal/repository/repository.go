package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"updown/internal/models"
)

var (
	ErrNotFound            = errors.New("repository: not found")
	ErrInsufficientBalance = errors.New("repository: insufficient balance")
	ErrDuplicateSubmission = errors.New("repository: submission already exists for round")
	ErrAlreadySettled      = errors.New("repository: already settled")
	ErrAlreadyJoined       = errors.New("repository: already joined")
)

// LeaderboardRow is a participation joined with its user's display fields.
type LeaderboardRow struct {
	UserID     uint64
	Username   string
	AvatarURL  string
	Points     decimal.Decimal
	EntryOrder uint64
}

// Repository is the unified data access surface shared by the services and
// the settlement engine. Write methods observe the transaction carried in
// the context, so a service can compose them atomically.
type Repository interface {
	// Users
	GetUser(ctx context.Context, id uint64) (*models.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	AddUserCoins(ctx context.Context, userID uint64, amount decimal.Decimal) error
	WithdrawUserCoins(ctx context.Context, userID uint64, amount decimal.Decimal) error

	// Submissions
	GetSubmission(ctx context.Context, id uint64) (*models.Submission, error)
	GetSubmissionForUserAndRound(ctx context.Context, userID uint64, round int64) (*models.Submission, error)
	ListLatestSubmissionsForUser(ctx context.Context, userID uint64, limit int) ([]models.Submission, error)
	ListPendingSubmissions(ctx context.Context, round int64, afterID uint64, limit int) ([]models.Submission, error)
	ListSettledSubmissionsForUsers(ctx context.Context, userIDs []uint64, round int64) ([]models.Submission, error)
	CreateSubmission(ctx context.Context, submission *models.Submission) error
	MarkSubmissionSettled(ctx context.Context, id uint64, result datatypes.JSON) error

	// Price snapshots
	LatestCompleteSnapshot(ctx context.Context) (*models.PriceSnapshot, error)
	ListLatestSnapshots(ctx context.Context, limit int) ([]models.PriceSnapshot, error)
	GetSnapshotByTimestamp(ctx context.Context, timestamp int64) (*models.PriceSnapshot, error)
	ListSnapshotsInInterval(ctx context.Context, from, to int64) ([]models.PriceSnapshot, error)
	CreateSnapshot(ctx context.Context, snapshot *models.PriceSnapshot) error

	// Streaks
	GetStreakForUser(ctx context.Context, userID uint64) (*models.StreakState, error)
	SaveStreak(ctx context.Context, state *models.StreakState) error

	// Tournaments
	GetTournament(ctx context.Context, id uint64) (*models.Tournament, error)
	GetTournamentByDisplayID(ctx context.Context, displayID int64) (*models.Tournament, error)
	CreateTournament(ctx context.Context, tournament *models.Tournament) error
	ListTournamentsBetweenDays(ctx context.Context, day int64) ([]models.Tournament, error)
	IncrementTournamentParticipants(ctx context.Context, id uint64) error
	GetParticipation(ctx context.Context, tournamentID, userID uint64) (*models.TournamentParticipation, error)
	CreateParticipation(ctx context.Context, participation *models.TournamentParticipation) error
	AddParticipationPoints(ctx context.Context, tournamentID, userID uint64, points decimal.Decimal) error
	ParticipantRank(ctx context.Context, tournamentID, userID uint64) (int64, error)
	Leaderboard(ctx context.Context, tournamentID uint64, limit int) ([]LeaderboardRow, error)

	// Battles
	GetBattle(ctx context.Context, id string) (*models.Battle, error)
	// GetBattleForUpdate reads the battle under a row lock; read-modify-write
	// callers (join, settle) go through it inside a transaction.
	GetBattleForUpdate(ctx context.Context, id string) (*models.Battle, error)
	GetBattleForOwner(ctx context.Context, ownerID uint64, round int64) (*models.Battle, error)
	ListPendingBattlesByRound(ctx context.Context, round int64) ([]models.Battle, error)
	CreateBattle(ctx context.Context, battle *models.Battle) error
	UpdateBattlePlayers(ctx context.Context, id string, players datatypes.JSON, prizePool decimal.Decimal) error
	SettleBattle(ctx context.Context, id string, players datatypes.JSON) error

	// Settlement progress
	GetLastProcessedRound(ctx context.Context) (int64, error)
	SetLastProcessedRound(ctx context.Context, round int64) error
}
