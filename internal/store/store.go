package store

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store는 PostgreSQL 기반 저장소를 구현합니다
type Store struct {
	db *gorm.DB
}

// Open은 DSN으로 데이터베이스에 연결하고 스키마를 마이그레이션합니다
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("데이터베이스 연결 실패: %w", err)
	}

	if err := db.AutoMigrate(
		&Agent{},
		&Order{},
		&Position{},
		&PerformanceSnapshot{},
		&ActivityEvent{},
	); err != nil {
		return nil, fmt.Errorf("스키마 마이그레이션 실패: %w", err)
	}

	return &Store{db: db}, nil
}

// NewWithDB는 이미 열린 gorm 연결로 저장소를 생성합니다 (테스트용)
func NewWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Close는 데이터베이스 연결을 닫습니다
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
