package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// pgUniqueViolation is SQLSTATE unique_violation.
const pgUniqueViolation = "23505"

// GormStore persists records in Postgres.
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to dsn and migrates the draft_records table.
func Open(dsn string, logger *zap.Logger) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&DraftRecord{}); err != nil {
		return nil, fmt.Errorf("migrate draft records: %w", err)
	}
	return &GormStore{db: db, logger: logger}, nil
}

func (s *GormStore) Save(ctx context.Context, rec DraftRecord) error {
	err := s.db.WithContext(ctx).Create(&rec).Error
	if isUniqueViolation(err) {
		return ErrDuplicateRecord
	}
	if err != nil {
		return fmt.Errorf("save draft %s: %w", rec.SessionID, err)
	}
	s.logger.Debug("draft recorded", zap.String("room", rec.RoomCode), zap.String("session", rec.SessionID))
	return nil
}

func (s *GormStore) ListByRoom(ctx context.Context, roomCode string) ([]DraftRecord, error) {
	var recs []DraftRecord
	err := s.db.WithContext(ctx).
		Where("room_code = ?", roomCode).
		Order("created_at").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list drafts for %s: %w", roomCode, err)
	}
	return recs, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
