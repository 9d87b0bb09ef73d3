package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/abhi542/MouldLensAI/internal/entity"
)

// listCap bounds a single dashboard query; matches the original monitor's
// page size.
const listCap = 5000

// ReadingRepository is the primary durable sink plus the dashboard's read
// surface. Records are append-only: corrections insert, never update.
type ReadingRepository interface {
	Insert(ctx context.Context, rec *entity.OutcomeRecord) error
	GetByID(ctx context.Context, id string) (*entity.OutcomeRecord, error)
	ListRange(ctx context.Context, from, to time.Time) ([]entity.OutcomeRecord, error)
	InsertCorrection(ctx context.Context, originalID string, cope *string, drag *entity.DragValue) (*entity.OutcomeRecord, error)
}

type mongoReadings struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

// NewReadingRepository wraps the readings collection and ensures the
// indexes the dashboard queries rely on.
func NewReadingRepository(ctx context.Context, client *mongo.Client, database, collection string, logger *slog.Logger) (ReadingRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	coll := client.Database(database).Collection(collection)

	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "camera_id", Value: 1}}},
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("create reading indexes: %w", err)
	}
	return &mongoReadings{coll: coll, logger: logger}, nil
}

func (r *mongoReadings) Insert(ctx context.Context, rec *entity.OutcomeRecord) error {
	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

func (r *mongoReadings) GetByID(ctx context.Context, id string) (*entity.OutcomeRecord, error) {
	var rec entity.OutcomeRecord
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		return nil, fmt.Errorf("find reading %s: %w", id, err)
	}
	return &rec, nil
}

// ListRange returns records in [from, to), newest first, capped at listCap.
func (r *mongoReadings) ListRange(ctx context.Context, from, to time.Time) ([]entity.OutcomeRecord, error) {
	filter := bson.M{"timestamp": bson.M{"$gte": from, "$lt": to}}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(listCap)

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer func() {
		if cerr := cursor.Close(ctx); cerr != nil {
			r.logger.Warn("reading cursor close error", "error", cerr)
		}
	}()

	var out []entity.OutcomeRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode readings: %w", err)
	}
	return out, nil
}

// InsertCorrection clones the original record with human-supplied values
// and a fresh timestamp. The original is left untouched.
func (r *mongoReadings) InsertCorrection(ctx context.Context, originalID string, cope *string, drag *entity.DragValue) (*entity.OutcomeRecord, error) {
	orig, err := r.GetByID(ctx, originalID)
	if err != nil {
		return nil, err
	}

	corrected := *orig
	corrected.ID = uuid.New().String()
	corrected.CorrectedFrom = orig.ID
	corrected.Timestamp = time.Now().UTC()
	corrected.Message = "Human-corrected reading"
	if cope != nil {
		corrected.Cope = cope
	}
	if drag != nil {
		corrected.Drag = drag
	}

	if err := r.Insert(ctx, &corrected); err != nil {
		return nil, err
	}
	r.logger.Info("reading.correction_inserted",
		"original_id", orig.ID, "corrected_id", corrected.ID)
	return &corrected, nil
}
