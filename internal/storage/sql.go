package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"job-bot-go/internal/config"
	"job-bot-go/internal/models"
)

// SQLStore keeps bookmarks and history in SQLite or Postgres through one
// long-lived gorm connection pool.
type SQLStore struct {
	db     *gorm.DB
	logger zerolog.Logger
	now    func() time.Time
}

// NewSQLStore opens the database described by cfg and creates the tables and
// indexes if they do not exist yet.
func NewSQLStore(cfg config.StorageConfig, logger zerolog.Logger) (*SQLStore, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.Path)
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("driver %q is not a SQL driver", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == config.DriverSQLite {
		// a single writer avoids "database is locked" under concurrent handlers
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&models.Bookmark{}, &models.HistoryEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger = logger.With().Str("component", "storage").Str("driver", cfg.Driver).Logger()
	logger.Info().Msg("database ready")

	return &SQLStore{db: db, logger: logger, now: time.Now}, nil
}

func (s *SQLStore) AddBookmark(ctx context.Context, userID string, job models.Job) (bool, error) {
	data, err := encodeJob(job)
	if err != nil {
		return false, err
	}

	added := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Bookmark
		err := tx.Where("user_id = ? AND job_title = ? AND employer_name = ?", userID, job.Title, job.EmployerName).
			Take(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		bookmark := models.Bookmark{
			UserID:       userID,
			JobTitle:     job.Title,
			EmployerName: job.EmployerName,
			JobData:      data,
			CreatedAt:    s.now(),
		}
		if err := tx.Create(&bookmark).Error; err != nil {
			return err
		}
		added = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to save bookmark: %w", err)
	}
	return added, nil
}

func (s *SQLStore) GetBookmarks(ctx context.Context, userID string) ([]models.Job, error) {
	var rows []models.Bookmark
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load bookmarks: %w", err)
	}

	return decodeBookmarks(rows, s.logger), nil
}

func (s *SQLStore) ClearBookmarks(ctx context.Context, userID string) (int64, error) {
	result := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Bookmark{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clear bookmarks: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *SQLStore) AddSearchHistory(ctx context.Context, userID, query string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := models.HistoryEntry{
			UserID:    userID,
			Query:     query,
			Timestamp: s.now(),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		var ids []uint
		err := tx.Model(&models.HistoryEntry{}).
			Where("user_id = ?", userID).
			Order("timestamp DESC, id DESC").
			Pluck("id", &ids).Error
		if err != nil {
			return err
		}
		if len(ids) <= HistoryLimit {
			return nil
		}
		return tx.Delete(&models.HistoryEntry{}, ids[HistoryLimit:]).Error
	})
	if err != nil {
		return fmt.Errorf("failed to record search history: %w", err)
	}
	return nil
}

func (s *SQLStore) GetSearchHistory(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC, id DESC").
		Limit(HistoryLimit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load search history: %w", err)
	}
	return entries, nil
}

func (s *SQLStore) ClearSearchHistory(ctx context.Context, userID string) (int64, error) {
	result := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.HistoryEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clear search history: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *SQLStore) ClearAllUserData(ctx context.Context, userID string) (int64, int64, error) {
	var bookmarks, history int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ?", userID).Delete(&models.Bookmark{})
		if result.Error != nil {
			return result.Error
		}
		bookmarks = result.RowsAffected

		result = tx.Where("user_id = ?", userID).Delete(&models.HistoryEntry{})
		if result.Error != nil {
			return result.Error
		}
		history = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to clear user data: %w", err)
	}
	return bookmarks, history, nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func encodeJob(job models.Job) (string, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to encode job: %w", err)
	}
	return string(data), nil
}

// decodeBookmarks unpacks the stored payloads, dropping corrupt rows.
func decodeBookmarks(rows []models.Bookmark, logger zerolog.Logger) []models.Job {
	jobs := make([]models.Job, 0, len(rows))
	for _, row := range rows {
		var job models.Job
		if err := json.Unmarshal([]byte(row.JobData), &job); err != nil {
			logger.Debug().Err(err).Uint("bookmark_id", row.ID).Msg("skipping corrupt bookmark")
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs
}
