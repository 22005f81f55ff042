// internal/repository/absence_repo.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"absence-assistant/internal/apperr"
	"absence-assistant/internal/calendar"
	"absence-assistant/internal/models"
)

// AbsenceRepository is the absence store consumed by the service.
// Every method reports backend failures as *apperr.ServiceError.
type AbsenceRepository interface {
	// Upsert creates or overwrites the record for (a.UserID, a.Date) and
	// returns the stored row. It is atomic per key: concurrent calls for the
	// same key never produce two rows. The ID of an existing row is kept.
	Upsert(ctx context.Context, a models.Absence) (*models.Absence, error)
	// Find returns nil, nil when no record exists.
	Find(ctx context.Context, userID string, date time.Time) (*models.Absence, error)
	// Query returns the user's records within r, ascending by date.
	Query(ctx context.Context, userID string, r calendar.DateRange) ([]models.Absence, error)
}

type GormAbsenceRepository struct {
	db *gorm.DB
}

func NewGormAbsenceRepository(db *gorm.DB) (AbsenceRepository, error) {
	if err := db.AutoMigrate(&models.Absence{}); err != nil {
		return nil, err
	}
	return &GormAbsenceRepository{db: db}, nil
}

func (r *GormAbsenceRepository) Upsert(ctx context.Context, a models.Absence) (*models.Absence, error) {
	a.ID = uuid.NewString()

	var stored models.Absence
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// INSERT ... ON CONFLICT (user_id, date) DO UPDATE on SQLite,
		// ON DUPLICATE KEY UPDATE on MySQL; both keep the original id
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"reason", "justified", "created_at"}),
		}).Create(&a).Error
		if err != nil {
			return err
		}
		return tx.Where("user_id = ? AND date = ?", a.UserID, a.Date).First(&stored).Error
	})
	if err != nil {
		return nil, apperr.Service("absences.upsert", err)
	}
	return &stored, nil
}

func (r *GormAbsenceRepository) Find(ctx context.Context, userID string, date time.Time) (*models.Absence, error) {
	var absence models.Absence
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, calendar.FormatDate(date)).
		First(&absence).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Service("absences.find", err)
	}
	return &absence, nil
}

func (r *GormAbsenceRepository) Query(ctx context.Context, userID string, dr calendar.DateRange) ([]models.Absence, error) {
	absences := []models.Absence{}
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date BETWEEN ? AND ?",
			userID, calendar.FormatDate(dr.Start()), calendar.FormatDate(dr.End())).
		Order("date ASC").
		Find(&absences).Error
	if err != nil {
		return nil, apperr.Service("absences.query", err)
	}
	return absences, nil
}
