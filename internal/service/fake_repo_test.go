package service

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"updown/internal/models"
	"updown/internal/repository"
)

// fakeRepo is a fully in-memory repository.Repository used by the service
// tests. Semantics mirror the gorm store: atomic balance guards, write-once
// settlement, unique (user, round) submissions.
type fakeRepo struct {
	mu sync.Mutex

	users          map[uint64]*models.User
	submissions    map[uint64]*models.Submission
	snapshots      map[int64]*models.PriceSnapshot
	streaks        map[uint64]*models.StreakState
	tournaments    map[uint64]*models.Tournament
	participations map[uint64]*models.TournamentParticipation
	battles        map[string]*models.Battle

	lastProcessedRound int64

	nextUserID          uint64
	nextSubmissionID    uint64
	nextSnapshotID      uint64
	nextStreakID        uint64
	nextTournamentID    uint64
	nextParticipationID uint64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:          map[uint64]*models.User{},
		submissions:    map[uint64]*models.Submission{},
		snapshots:      map[int64]*models.PriceSnapshot{},
		streaks:        map[uint64]*models.StreakState{},
		tournaments:    map[uint64]*models.Tournament{},
		participations: map[uint64]*models.TournamentParticipation{},
		battles:        map[string]*models.Battle{},
	}
}

var _ repository.Repository = (*fakeRepo)(nil)

// --- users ------------------------------------------------------------------

func (f *fakeRepo) GetUser(_ context.Context, id uint64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (f *fakeRepo) GetUserByExternalID(_ context.Context, externalID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.ExternalID == externalID {
			cp := *user
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRepo) CreateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextUserID++
	user.ID = f.nextUserID
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeRepo) AddUserCoins(_ context.Context, userID uint64, amount decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.CoinsBalance = user.CoinsBalance.Add(amount)
	return nil
}

func (f *fakeRepo) WithdrawUserCoins(_ context.Context, userID uint64, amount decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if user.CoinsBalance.LessThan(amount) {
		return repository.ErrInsufficientBalance
	}
	user.CoinsBalance = user.CoinsBalance.Sub(amount)
	return nil
}

// --- submissions ------------------------------------------------------------

func (f *fakeRepo) GetSubmission(_ context.Context, id uint64) (*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.submissions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (f *fakeRepo) GetSubmissionForUserAndRound(_ context.Context, userID uint64, round int64) (*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.submissions {
		if sub.UserID == userID && sub.Round == round {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRepo) ListLatestSubmissionsForUser(_ context.Context, userID uint64, limit int) ([]models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var subs []models.Submission
	for _, sub := range f.submissions {
		if sub.UserID == userID {
			subs = append(subs, *sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Round > subs[j].Round })
	if limit > 0 && len(subs) > limit {
		subs = subs[:limit]
	}
	return subs, nil
}

func (f *fakeRepo) ListPendingSubmissions(_ context.Context, round int64, afterID uint64, limit int) ([]models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var subs []models.Submission
	for _, sub := range f.submissions {
		if sub.Round == round && !sub.Settled && sub.ID > afterID {
			subs = append(subs, *sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	if limit > 0 && len(subs) > limit {
		subs = subs[:limit]
	}
	return subs, nil
}

func (f *fakeRepo) ListSettledSubmissionsForUsers(_ context.Context, userIDs []uint64, round int64) ([]models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := map[uint64]bool{}
	for _, id := range userIDs {
		wanted[id] = true
	}
	var subs []models.Submission
	for _, sub := range f.submissions {
		if sub.Round == round && sub.Settled && wanted[sub.UserID] {
			subs = append(subs, *sub)
		}
	}
	return subs, nil
}

func (f *fakeRepo) CreateSubmission(_ context.Context, submission *models.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.submissions {
		if sub.UserID == submission.UserID && sub.Round == submission.Round {
			return repository.ErrDuplicateSubmission
		}
	}
	f.nextSubmissionID++
	submission.ID = f.nextSubmissionID
	cp := *submission
	f.submissions[submission.ID] = &cp
	return nil
}

func (f *fakeRepo) MarkSubmissionSettled(_ context.Context, id uint64, result datatypes.JSON) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.submissions[id]
	if !ok {
		return repository.ErrNotFound
	}
	if sub.Settled {
		return repository.ErrAlreadySettled
	}
	sub.Settled = true
	sub.Result = result
	return nil
}

// --- snapshots --------------------------------------------------------------

func (f *fakeRepo) LatestCompleteSnapshot(_ context.Context) (*models.PriceSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.PriceSnapshot
	for _, snap := range f.snapshots {
		if !snap.Complete {
			continue
		}
		if latest == nil || snap.Timestamp > latest.Timestamp {
			latest = snap
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeRepo) ListLatestSnapshots(_ context.Context, limit int) ([]models.PriceSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var snaps []models.PriceSnapshot
	for _, snap := range f.snapshots {
		snaps = append(snaps, *snap)
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Timestamp > snaps[j].Timestamp })
	if limit > 0 && len(snaps) > limit {
		snaps = snaps[:limit]
	}
	return snaps, nil
}

func (f *fakeRepo) GetSnapshotByTimestamp(_ context.Context, timestamp int64) (*models.PriceSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.snapshots[timestamp]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *snap
	return &cp, nil
}

func (f *fakeRepo) ListSnapshotsInInterval(_ context.Context, from, to int64) ([]models.PriceSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var snaps []models.PriceSnapshot
	for _, snap := range f.snapshots {
		if snap.Timestamp >= from && snap.Timestamp <= to {
			snaps = append(snaps, *snap)
		}
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Timestamp < snaps[j].Timestamp })
	return snaps, nil
}

func (f *fakeRepo) CreateSnapshot(_ context.Context, snapshot *models.PriceSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextSnapshotID++
	snapshot.ID = f.nextSnapshotID
	cp := *snapshot
	f.snapshots[snapshot.Timestamp] = &cp
	return nil
}

// --- streaks ----------------------------------------------------------------

func (f *fakeRepo) GetStreakForUser(_ context.Context, userID uint64) (*models.StreakState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.streaks[userID]
	if !ok {
		return nil, nil
	}
	cp := *state
	return &cp, nil
}

func (f *fakeRepo) SaveStreak(_ context.Context, state *models.StreakState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if state.ID == 0 {
		f.nextStreakID++
		state.ID = f.nextStreakID
	}
	cp := *state
	f.streaks[state.UserID] = &cp
	return nil
}

// --- tournaments ------------------------------------------------------------

func (f *fakeRepo) GetTournament(_ context.Context, id uint64) (*models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tournament, ok := f.tournaments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *tournament
	return &cp, nil
}

func (f *fakeRepo) GetTournamentByDisplayID(_ context.Context, displayID int64) (*models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tournament := range f.tournaments {
		if tournament.DisplayID == displayID {
			cp := *tournament
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRepo) CreateTournament(_ context.Context, tournament *models.Tournament) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTournamentID++
	tournament.ID = f.nextTournamentID
	cp := *tournament
	f.tournaments[tournament.ID] = &cp
	return nil
}

func (f *fakeRepo) ListTournamentsBetweenDays(_ context.Context, day int64) ([]models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var tournaments []models.Tournament
	for _, tournament := range f.tournaments {
		if tournament.StartDay <= day && tournament.EndDay > day {
			tournaments = append(tournaments, *tournament)
		}
	}
	sort.Slice(tournaments, func(i, j int) bool { return tournaments[i].StartDay < tournaments[j].StartDay })
	return tournaments, nil
}

func (f *fakeRepo) IncrementTournamentParticipants(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tournament, ok := f.tournaments[id]
	if !ok {
		return repository.ErrNotFound
	}
	tournament.ParticipantsCount++
	return nil
}

func (f *fakeRepo) GetParticipation(_ context.Context, tournamentID, userID uint64) (*models.TournamentParticipation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, participation := range f.participations {
		if participation.TournamentID == tournamentID && participation.UserID == userID {
			cp := *participation
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRepo) CreateParticipation(_ context.Context, participation *models.TournamentParticipation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.participations {
		if existing.TournamentID == participation.TournamentID && existing.UserID == participation.UserID {
			return repository.ErrAlreadyJoined
		}
	}
	f.nextParticipationID++
	participation.ID = f.nextParticipationID
	cp := *participation
	f.participations[participation.ID] = &cp
	return nil
}

func (f *fakeRepo) AddParticipationPoints(_ context.Context, tournamentID, userID uint64, points decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, participation := range f.participations {
		if participation.TournamentID == tournamentID && participation.UserID == userID {
			participation.Points = participation.Points.Add(points)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeRepo) ParticipantRank(_ context.Context, tournamentID, userID uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var mine *models.TournamentParticipation
	for _, participation := range f.participations {
		if participation.TournamentID == tournamentID && participation.UserID == userID {
			mine = participation
			break
		}
	}
	if mine == nil {
		return 0, repository.ErrNotFound
	}
	rank := int64(1)
	for _, other := range f.participations {
		if other.TournamentID != tournamentID {
			continue
		}
		if other.Points.GreaterThan(mine.Points) {
			rank++
		} else if other.Points.Equal(mine.Points) && other.ID < mine.ID {
			rank++
		}
	}
	return rank, nil
}

func (f *fakeRepo) Leaderboard(_ context.Context, tournamentID uint64, limit int) ([]repository.LeaderboardRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []repository.LeaderboardRow
	for _, participation := range f.participations {
		if participation.TournamentID != tournamentID {
			continue
		}
		row := repository.LeaderboardRow{
			UserID:     participation.UserID,
			Points:     participation.Points,
			EntryOrder: participation.ID,
		}
		if user, ok := f.users[participation.UserID]; ok {
			row.Username = user.Username
			row.AvatarURL = user.AvatarURL
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Points.Equal(rows[j].Points) {
			return rows[i].Points.GreaterThan(rows[j].Points)
		}
		return rows[i].EntryOrder < rows[j].EntryOrder
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// --- battles ----------------------------------------------------------------

func (f *fakeRepo) GetBattle(_ context.Context, id string) (*models.Battle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	battle, ok := f.battles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *battle
	return &cp, nil
}

func (f *fakeRepo) GetBattleForUpdate(ctx context.Context, id string) (*models.Battle, error) {
	return f.GetBattle(ctx, id)
}

func (f *fakeRepo) GetBattleForOwner(_ context.Context, ownerID uint64, round int64) (*models.Battle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, battle := range f.battles {
		if battle.OwnerID == ownerID && battle.Round == round {
			cp := *battle
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRepo) ListPendingBattlesByRound(_ context.Context, round int64) ([]models.Battle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var battles []models.Battle
	for _, battle := range f.battles {
		if battle.Round == round && !battle.Settled {
			battles = append(battles, *battle)
		}
	}
	sort.Slice(battles, func(i, j int) bool { return battles[i].ID < battles[j].ID })
	return battles, nil
}

func (f *fakeRepo) CreateBattle(_ context.Context, battle *models.Battle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *battle
	f.battles[battle.ID] = &cp
	return nil
}

func (f *fakeRepo) UpdateBattlePlayers(_ context.Context, id string, players datatypes.JSON, prizePool decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	battle, ok := f.battles[id]
	if !ok || battle.Settled {
		return repository.ErrAlreadySettled
	}
	battle.Players = players
	battle.PrizePool = prizePool
	return nil
}

func (f *fakeRepo) SettleBattle(_ context.Context, id string, players datatypes.JSON) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	battle, ok := f.battles[id]
	if !ok || battle.Settled {
		return repository.ErrAlreadySettled
	}
	battle.Players = players
	battle.Settled = true
	return nil
}

// --- settlement marker ------------------------------------------------------

func (f *fakeRepo) GetLastProcessedRound(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastProcessedRound, nil
}

func (f *fakeRepo) SetLastProcessedRound(_ context.Context, round int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastProcessedRound = round
	return nil
}
