package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"absence-assistant/internal/apperr"
	"absence-assistant/internal/calendar"
	"absence-assistant/internal/models"
)

const (
	absenceCollection    = "absences"
	submissionCollection = "week_submissions"
)

// MongoAbsenceRepository stores one document per (user_id, date), enforced by
// a unique compound index.
type MongoAbsenceRepository struct {
	coll *mongo.Collection
}

func NewMongoAbsenceRepository(ctx context.Context, db *mongo.Database) (AbsenceRepository, error) {
	coll := db.Collection(absenceCollection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("ux_absence_user_date"),
	})
	if err != nil {
		return nil, err
	}
	return &MongoAbsenceRepository{coll: coll}, nil
}

func (r *MongoAbsenceRepository) Upsert(ctx context.Context, a models.Absence) (*models.Absence, error) {
	filter := bson.M{"user_id": a.UserID, "date": a.Date}
	update := bson.M{
		"$set": bson.M{
			"reason":     a.Reason,
			"justified":  a.Justified,
			"created_at": a.CreatedAt,
		},
		"$setOnInsert": bson.M{"_id": uuid.NewString()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.Absence
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	if mongo.IsDuplicateKeyError(err) {
		// two upserts raced on the insert; the loser now sees the row and updates it
		err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	}
	if err != nil {
		return nil, apperr.Service("absences.upsert", err)
	}
	return &stored, nil
}

func (r *MongoAbsenceRepository) Find(ctx context.Context, userID string, date time.Time) (*models.Absence, error) {
	var absence models.Absence
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID, "date": calendar.FormatDate(date)}).Decode(&absence)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Service("absences.find", err)
	}
	return &absence, nil
}

func (r *MongoAbsenceRepository) Query(ctx context.Context, userID string, dr calendar.DateRange) ([]models.Absence, error) {
	filter := bson.M{
		"user_id": userID,
		"date": bson.M{
			"$gte": calendar.FormatDate(dr.Start()),
			"$lte": calendar.FormatDate(dr.End()),
		},
	}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, apperr.Service("absences.query", err)
	}

	absences := []models.Absence{}
	if err := cur.All(ctx, &absences); err != nil {
		return nil, apperr.Service("absences.query", err)
	}
	return absences, nil
}

type MongoWeekSubmissionRepository struct {
	coll *mongo.Collection
}

func NewMongoWeekSubmissionRepository(ctx context.Context, db *mongo.Database) (WeekSubmissionRepository, error) {
	coll := db.Collection(submissionCollection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "year", Value: 1}, {Key: "week", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("ux_submission_user_week"),
	})
	if err != nil {
		return nil, err
	}
	return &MongoWeekSubmissionRepository{coll: coll}, nil
}

func (r *MongoWeekSubmissionRepository) Get(ctx context.Context, userID string, year, week int) (*models.WeekSubmission, error) {
	var s models.WeekSubmission
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID, "year": year, "week": week}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Service("submissions.get", err)
	}
	return &s, nil
}

func (r *MongoWeekSubmissionRepository) Record(ctx context.Context, s models.WeekSubmission) (*models.WeekSubmission, bool, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	filter := bson.M{"user_id": s.UserID, "year": s.Year, "week": s.Week}
	update := bson.M{"$setOnInsert": s}

	res, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return nil, false, apperr.Service("submissions.record", err)
	}
	created := err == nil && res.UpsertedCount == 1

	stored, err := r.Get(ctx, s.UserID, s.Year, s.Week)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, apperr.Service("submissions.record", errors.New("submission vanished after upsert"))
	}
	return stored, created, nil
}
