package gormrepository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"updown/internal/models"
	"updown/internal/repository"
)

func (s *Store) GetSubmission(ctx context.Context, id uint64) (*models.Submission, error) {
	var sub models.Submission
	if err := s.dbc(ctx).First(&sub, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &sub, nil
}

func (s *Store) GetSubmissionForUserAndRound(ctx context.Context, userID uint64, round int64) (*models.Submission, error) {
	var sub models.Submission
	err := s.dbc(ctx).First(&sub, "user_id = ? AND round = ?", userID, round).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &sub, nil
}

func (s *Store) ListLatestSubmissionsForUser(ctx context.Context, userID uint64, limit int) ([]models.Submission, error) {
	if limit <= 0 {
		limit = 20
	}
	var subs []models.Submission
	err := s.dbc(ctx).
		Where("user_id = ?", userID).
		Order("round desc").
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// ListPendingSubmissions pages unsettled submissions of a round by primary
// key, ascending, strictly after afterID. Settling a row moves it out of the
// result set, so the cursor never revisits work.
func (s *Store) ListPendingSubmissions(ctx context.Context, round int64, afterID uint64, limit int) ([]models.Submission, error) {
	var subs []models.Submission
	err := s.dbc(ctx).
		Where("round = ? AND settled = ? AND id > ?", round, false, afterID).
		Order("id asc").
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *Store) ListSettledSubmissionsForUsers(ctx context.Context, userIDs []uint64, round int64) ([]models.Submission, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var subs []models.Submission
	err := s.dbc(ctx).
		Where("user_id IN ? AND round = ? AND settled = ?", userIDs, round, true).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *Store) CreateSubmission(ctx context.Context, submission *models.Submission) error {
	err := s.dbc(ctx).Create(submission).Error
	if err != nil && isUniqueViolation(err) {
		return repository.ErrDuplicateSubmission
	}
	return err
}

// MarkSubmissionSettled is write-once: the settled guard in the WHERE clause
// makes a second settlement attempt report ErrAlreadySettled instead of
// overwriting the stored result.
func (s *Store) MarkSubmissionSettled(ctx context.Context, id uint64, result datatypes.JSON) error {
	res := s.dbc(ctx).Model(&models.Submission{}).
		Where("id = ? AND settled = ?", id, false).
		Updates(map[string]any{"settled": true, "result": result})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.dbc(ctx).Model(&models.Submission{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrAlreadySettled
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// Postgres unique_violation surfaces as SQLSTATE 23505.
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key")
}
