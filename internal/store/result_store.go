package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"drawparty-backend/internal/cache"
	"drawparty-backend/internal/model"
)

// ErrNotFound no result record exists for the room.
var ErrNotFound = errors.New("result not found")

// ResultStore is the narrow persistence surface the pipeline and the HTTP
// layer write/read analysis records through.
type ResultStore interface {
	Create(ctx context.Context, result *model.RoomResult) error
	Get(ctx context.Context, roomID string) (*model.RoomResult, error)
	Update(ctx context.Context, roomID string, fields map[string]any) error
	ListFinished(ctx context.Context, cursor time.Time, limit int) ([]model.RoomResult, error)
}

// GormResultStore backs ResultStore with Postgres, with an optional Redis
// read-through cache in front of Get.
type GormResultStore struct {
	db    *gorm.DB
	redis *cache.RedisClient
}

// NewGormResultStore builds the store. redisClient may be nil.
func NewGormResultStore(db *gorm.DB, redisClient *cache.RedisClient) *GormResultStore {
	return &GormResultStore{db: db, redis: redisClient}
}

// Create inserts the round's record. Room ids are client-addressed and rooms
// are destroyed when empty, so a later round can reuse an id; the insert is
// an upsert that resets every stage field so the old round's analysis never
// bleeds into the new record.
func (s *GormResultStore) Create(ctx context.Context, result *model.RoomResult) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "room_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"status":        result.Status,
				"topic":         result.Topic,
				"player_count":  result.PlayerCount,
				"analysis":      nil,
				"drawing_key":   nil,
				"generated_key": nil,
				"error":         nil,
			}),
		}).
		Create(result).Error
	if err != nil {
		return err
	}
	if s.redis != nil {
		s.redis.SetResult(ctx, result)
	}
	return nil
}

func (s *GormResultStore) Get(ctx context.Context, roomID string) (*model.RoomResult, error) {
	if s.redis != nil {
		if cached, err := s.redis.GetResult(ctx, roomID); err == nil && cached != nil {
			return cached, nil
		}
	}

	var result model.RoomResult
	err := s.db.WithContext(ctx).First(&result, "room_id = ?", roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		s.redis.SetResult(ctx, &result)
	}
	return &result, nil
}

func (s *GormResultStore) Update(ctx context.Context, roomID string, fields map[string]any) error {
	err := s.db.WithContext(ctx).
		Model(&model.RoomResult{}).
		Where("room_id = ?", roomID).
		Updates(fields).Error
	if err != nil {
		return err
	}
	// The pipeline mutates the record, so the cached copy is stale now.
	if s.redis != nil {
		s.redis.InvalidateResult(ctx, roomID)
	}
	return nil
}

func (s *GormResultStore) ListFinished(ctx context.Context, cursor time.Time, limit int) ([]model.RoomResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	q := s.db.WithContext(ctx).
		Where("status IN ?", []model.ResultStatus{model.ResultStatusCompleted, model.ResultStatusFailed}).
		Order("created_at DESC").
		Limit(limit)
	if !cursor.IsZero() {
		q = q.Where("created_at < ?", cursor)
	}

	var results []model.RoomResult
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
