package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"linkstash/bookmarks"
	apperrors "linkstash/internal/errors"
)

// bookmarkRecord is the persisted row shape.
type bookmarkRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID   string    `gorm:"type:text;not null;index"`
	Title     string    `gorm:"type:text;not null"`
	URL       string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (bookmarkRecord) TableName() string { return "bookmarks" }

// Store is the PostgreSQL-backed bookmark store. Owner scoping on every
// query is the server-side stand-in for datastore row-level access control.
// Successful mutations are echoed onto the live feed.
type Store struct {
	db   *gorm.DB
	feed bookmarks.Feed
}

var _ bookmarks.Store = (*Store)(nil)

// Connect opens the database, applies the schema, and returns a Store that
// publishes change events to feed.
func Connect(ctx context.Context, dsn string, feed bookmarks.Feed) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, apperrors.Wrapf(err, "[postgres Connect] opening database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, apperrors.Wrapf(err, "[postgres Connect] unwrapping sql.DB")
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := db.WithContext(ctx).AutoMigrate(&bookmarkRecord{}); err != nil {
		return nil, apperrors.Wrapf(err, "[postgres Connect] migrating schema")
	}

	return &Store{db: db, feed: feed}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]bookmarks.Bookmark, error) {
	var records []bookmarkRecord
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, apperrors.Wrapf(err, "[postgres ListByOwner] querying bookmarks")
	}

	out := make([]bookmarks.Bookmark, 0, len(records))
	for _, r := range records {
		out = append(out, bookmarks.Bookmark(r))
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, ownerID, title, url string) (bookmarks.Bookmark, error) {
	record := bookmarkRecord{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     title,
		URL:       url,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return bookmarks.Bookmark{}, apperrors.Wrapf(err, "[postgres Insert] creating bookmark")
	}

	created := bookmarks.Bookmark(record)
	if s.feed != nil {
		_ = s.feed.Publish(ctx, bookmarks.Event{Kind: bookmarks.EventInsert, Bookmark: created})
	}
	return created, nil
}

func (s *Store) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&bookmarkRecord{})
	if result.Error != nil {
		return apperrors.Wrapf(result.Error, "[postgres Delete] deleting bookmark")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrBookmarkNotFound
	}

	if s.feed != nil {
		_ = s.feed.Publish(ctx, bookmarks.Event{
			Kind:     bookmarks.EventDelete,
			Bookmark: bookmarks.Bookmark{ID: id, OwnerID: ownerID},
		})
	}
	return nil
}
