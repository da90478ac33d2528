package localstore

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dutchbamin/together/pkg/config"
	"github.com/dutchbamin/together/pkg/logger"
)

// Store is the client-local sqlite database. It holds only state that
// never leaves this machine: the saved session, favorited store ids, and
// recently visited rooms. All room/cart/payment truth stays remote.
type Store struct {
	conn *gorm.DB
}

// SessionRecord persists the bearer token and minimal profile restored
// at startup. A single row (ID 1) is maintained.
type SessionRecord struct {
	ID          uint   `gorm:"primaryKey"`
	AccessToken string `gorm:"not null"`
	UserID      string `gorm:"not null"`
	Email       string
	Nickname    string
	SavedAt     time.Time
}

// FavoriteStore is one favorited store id.
type FavoriteStore struct {
	StoreID   string `gorm:"primaryKey"`
	StoreName string
	AddedAt   time.Time
}

// RecentRoom is one recently visited room id.
type RecentRoom struct {
	RoomID    string `gorm:"primaryKey"`
	StoreName string
	VisitedAt time.Time `gorm:"index"`
}

// Open boots the sqlite store and migrates the local schema.
func Open(ctx context.Context, cfg config.LocalStoreConfig, logg *logger.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("local store path is required")
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}

	if err := conn.AutoMigrate(&SessionRecord{}, &FavoriteStore{}, &RecentRoom{}); err != nil {
		return nil, fmt.Errorf("migrating local store: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "local store opened")
	}

	return &Store{conn: conn}, nil
}

// DB returns the underlying GORM connection.
func (s *Store) DB() *gorm.DB {
	return s.conn
}

// Close shuts down the sqlite handle.
func (s *Store) Close() error {
	sqlDB, err := s.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
