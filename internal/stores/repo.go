package stores

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dutchbamin/together/internal/localstore"
)

// FavoriteRepo persists favorited store ids in the local sqlite store.
type FavoriteRepo struct {
	db *gorm.DB
}

func NewFavoriteRepo(db *gorm.DB) *FavoriteRepo {
	return &FavoriteRepo{db: db}
}

// Add records a favorite and ignores duplicates.
func (r *FavoriteRepo) Add(ctx context.Context, storeID, storeName string) error {
	if storeID == "" {
		return gorm.ErrInvalidValue
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&localstore.FavoriteStore{
			StoreID:   storeID,
			StoreName: storeName,
			AddedAt:   time.Now(),
		}).
		Error
}

// Remove deletes the favorite if it exists.
func (r *FavoriteRepo) Remove(ctx context.Context, storeID string) error {
	return r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Delete(&localstore.FavoriteStore{}).
		Error
}

// IDs returns every favorited store id as a set.
func (r *FavoriteRepo) IDs(ctx context.Context) (map[string]bool, error) {
	var rows []localstore.FavoriteStore
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(rows))
	for _, row := range rows {
		ids[row.StoreID] = true
	}
	return ids, nil
}

// Contains reports whether the store is favorited.
func (r *FavoriteRepo) Contains(ctx context.Context, storeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&localstore.FavoriteStore{}).
		Where("store_id = ?", storeID).
		Count(&count).
		Error
	return count > 0, err
}

// RecentRoomRepo keeps the short list of recently visited rooms.
type RecentRoomRepo struct {
	db   *gorm.DB
	keep int
}

const defaultRecentKeep = 10

func NewRecentRoomRepo(db *gorm.DB) *RecentRoomRepo {
	return &RecentRoomRepo{db: db, keep: defaultRecentKeep}
}

// RecordVisit upserts the room as most recent and prunes the list down
// to the retention cap.
func (r *RecentRoomRepo) RecordVisit(ctx context.Context, roomID, storeName string) error {
	if roomID == "" {
		return gorm.ErrInvalidValue
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"store_name", "visited_at"}),
		}).
		Create(&localstore.RecentRoom{
			RoomID:    roomID,
			StoreName: storeName,
			VisitedAt: time.Now(),
		}).
		Error
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Exec(`DELETE FROM recent_rooms WHERE room_id NOT IN (
			SELECT room_id FROM recent_rooms ORDER BY visited_at DESC LIMIT ?
		)`, r.keep).
		Error
}

// List returns recent rooms, newest first.
func (r *RecentRoomRepo) List(ctx context.Context) ([]localstore.RecentRoom, error) {
	var rows []localstore.RecentRoom
	err := r.db.WithContext(ctx).
		Order("visited_at DESC").
		Limit(r.keep).
		Find(&rows).
		Error
	return rows, err
}

// Forget drops one room from the recent list.
func (r *RecentRoomRepo) Forget(ctx context.Context, roomID string) error {
	return r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Delete(&localstore.RecentRoom{}).
		Error
}
