package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"job-bot-go/internal/config"
	"job-bot-go/internal/models"
)

// HistoryLimit is the number of searches kept per user.
const HistoryLimit = 10

// Store persists per-user bookmarks and search history.
type Store interface {
	// AddBookmark saves job for user. It returns false when the user already
	// has a bookmark with the same title and employer.
	AddBookmark(ctx context.Context, userID string, job models.Job) (bool, error)
	// GetBookmarks returns the user's saved jobs, newest first. Rows whose
	// payload cannot be decoded are skipped.
	GetBookmarks(ctx context.Context, userID string) ([]models.Job, error)
	ClearBookmarks(ctx context.Context, userID string) (int64, error)

	// AddSearchHistory records a raw search and evicts everything but the
	// newest HistoryLimit entries for the user.
	AddSearchHistory(ctx context.Context, userID, query string) error
	GetSearchHistory(ctx context.Context, userID string) ([]models.HistoryEntry, error)
	ClearSearchHistory(ctx context.Context, userID string) (int64, error)

	// ClearAllUserData removes bookmarks and history and returns both counts.
	ClearAllUserData(ctx context.Context, userID string) (bookmarks int64, history int64, err error)

	Close() error
}

// Open returns the Store selected by cfg.Driver.
func Open(cfg config.StorageConfig, logger zerolog.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite, config.DriverPostgres:
		return NewSQLStore(cfg, logger)
	case config.DriverSupabase:
		return NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
