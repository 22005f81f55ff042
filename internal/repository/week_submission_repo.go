package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"absence-assistant/internal/apperr"
	"absence-assistant/internal/models"
)

// WeekSubmissionRepository is the ledger of submitted weeks.
type WeekSubmissionRepository interface {
	// Get returns nil, nil when the week was never submitted.
	Get(ctx context.Context, userID string, year, week int) (*models.WeekSubmission, error)
	// Record stores s unless the week is already recorded. It returns the
	// stored row and whether this call created it.
	Record(ctx context.Context, s models.WeekSubmission) (*models.WeekSubmission, bool, error)
}

type GormWeekSubmissionRepository struct {
	db *gorm.DB
}

func NewGormWeekSubmissionRepository(db *gorm.DB) (WeekSubmissionRepository, error) {
	if err := db.AutoMigrate(&models.WeekSubmission{}); err != nil {
		return nil, err
	}
	return &GormWeekSubmissionRepository{db: db}, nil
}

func (r *GormWeekSubmissionRepository) Get(ctx context.Context, userID string, year, week int) (*models.WeekSubmission, error) {
	var s models.WeekSubmission
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND year = ? AND week = ?", userID, year, week).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Service("submissions.get", err)
	}
	return &s, nil
}

func (r *GormWeekSubmissionRepository) Record(ctx context.Context, s models.WeekSubmission) (*models.WeekSubmission, bool, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	var (
		stored  models.WeekSubmission
		created bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&s)
		if result.Error != nil {
			return result.Error
		}
		created = result.RowsAffected == 1
		return tx.Where("user_id = ? AND year = ? AND week = ?", s.UserID, s.Year, s.Week).
			First(&stored).Error
	})
	if err != nil {
		return nil, false, apperr.Service("submissions.record", err)
	}
	return &stored, created, nil
}
