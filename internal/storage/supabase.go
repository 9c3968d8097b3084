package storage

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	supabase "github.com/nedpals/supabase-go"
	"github.com/rs/zerolog"

	"job-bot-go/internal/models"
)

// SupabaseStore uses the nedpals/supabase-go SDK to persist bookmarks and
// history in hosted Postgres tables with the same layout as SQLStore.
//
// PostgREST cannot create tables, so they must exist before the bot starts:
//
//	create table bookmarks (
//	    id bigserial primary key,
//	    user_id text not null,
//	    job_title text not null,
//	    employer_name text not null,
//	    job_data text not null,
//	    created_at timestamptz not null default now()
//	);
//	create index idx_bookmarks_user_id on bookmarks (user_id);
//	create table search_history (
//	    id bigserial primary key,
//	    user_id text not null,
//	    query text not null,
//	    timestamp timestamptz not null default now()
//	);
//	create index idx_history_user_id on search_history (user_id);
type SupabaseStore struct {
	client *supabase.Client
	logger zerolog.Logger
	now    func() time.Time
}

// NewSupabaseStore creates a SupabaseStore. It reads SUPABASE_URL and SUPABASE_KEY
// from environment variables if empty values are provided.
func NewSupabaseStore(supabaseURL, supabaseKey string, logger zerolog.Logger) (*SupabaseStore, error) {
	if supabaseURL == "" {
		supabaseURL = os.Getenv("SUPABASE_URL")
	}
	if supabaseKey == "" {
		supabaseKey = os.Getenv("SUPABASE_KEY")
	}
	if supabaseURL == "" || supabaseKey == "" {
		return nil, fmt.Errorf("supabase URL and key must be provided via args or SUPABASE_URL / SUPABASE_KEY env vars")
	}

	// CreateClient returns *supabase.Client (no error)
	client := supabase.CreateClient(supabaseURL, supabaseKey)
	return &SupabaseStore{
		client: client,
		logger: logger.With().Str("component", "storage").Str("driver", "supabase").Logger(),
		now:    time.Now,
	}, nil
}

func (s *SupabaseStore) AddBookmark(ctx context.Context, userID string, job models.Job) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var existing []models.Bookmark
	err := s.client.DB.From("bookmarks").Select("id").
		Eq("user_id", userID).
		Eq("job_title", job.Title).
		Eq("employer_name", job.EmployerName).
		ExecuteWithContext(ctx, &existing)
	if err != nil {
		return false, fmt.Errorf("failed to check bookmark: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}

	data, err := encodeJob(job)
	if err != nil {
		return false, err
	}

	bookmark := models.Bookmark{
		UserID:       userID,
		JobTitle:     job.Title,
		EmployerName: job.EmployerName,
		JobData:      data,
		CreatedAt:    s.now().UTC(),
	}

	var results []models.Bookmark
	if err := s.client.DB.From("bookmarks").Insert(bookmark).ExecuteWithContext(ctx, &results); err != nil {
		return false, fmt.Errorf("failed to save bookmark: %w", err)
	}
	return true, nil
}

func (s *SupabaseStore) GetBookmarks(ctx context.Context, userID string) ([]models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []models.Bookmark
	if err := s.client.DB.From("bookmarks").Select("*").Eq("user_id", userID).ExecuteWithContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to load bookmarks: %w", err)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	return decodeBookmarks(rows, s.logger), nil
}

func (s *SupabaseStore) ClearBookmarks(ctx context.Context, userID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count, err := s.deleteUserRows(ctx, "bookmarks", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear bookmarks: %w", err)
	}
	return count, nil
}

func (s *SupabaseStore) AddSearchHistory(ctx context.Context, userID, query string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := models.HistoryEntry{
		UserID:    userID,
		Query:     query,
		Timestamp: s.now().UTC(),
	}

	var results []models.HistoryEntry
	if err := s.client.DB.From("search_history").Insert(entry).ExecuteWithContext(ctx, &results); err != nil {
		return fmt.Errorf("failed to record search history: %w", err)
	}

	entries, err := s.loadHistory(ctx, userID)
	if err != nil {
		return err
	}
	for _, stale := range entries[min(len(entries), HistoryLimit):] {
		var deleted []models.HistoryEntry
		err := s.client.DB.From("search_history").Delete().
			Eq("id", strconv.FormatUint(uint64(stale.ID), 10)).
			ExecuteWithContext(ctx, &deleted)
		if err != nil {
			return fmt.Errorf("failed to trim search history: %w", err)
		}
	}
	return nil
}

func (s *SupabaseStore) GetSearchHistory(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := s.loadHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	return entries[:min(len(entries), HistoryLimit)], nil
}

func (s *SupabaseStore) ClearSearchHistory(ctx context.Context, userID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count, err := s.deleteUserRows(ctx, "search_history", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear search history: %w", err)
	}
	return count, nil
}

// ClearAllUserData runs two independent deletes; PostgREST has no
// multi-table transaction.
func (s *SupabaseStore) ClearAllUserData(ctx context.Context, userID string) (int64, int64, error) {
	bookmarks, err := s.ClearBookmarks(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	history, err := s.ClearSearchHistory(ctx, userID)
	if err != nil {
		return bookmarks, 0, err
	}
	return bookmarks, history, nil
}

func (s *SupabaseStore) Close() error {
	return nil
}

// loadHistory returns every history row of the user, newest first.
func (s *SupabaseStore) loadHistory(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	if err := s.client.DB.From("search_history").Select("*").Eq("user_id", userID).ExecuteWithContext(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to load search history: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

// deleteUserRows deletes every row of table owned by userID and returns how
// many there were. PostgREST answers a DELETE with an empty body, so the rows
// are counted first.
func (s *SupabaseStore) deleteUserRows(ctx context.Context, table, userID string) (int64, error) {
	var ids []struct {
		ID uint `json:"id"`
	}
	if err := s.client.DB.From(table).Select("id").Eq("user_id", userID).ExecuteWithContext(ctx, &ids); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted []map[string]interface{}
	if err := s.client.DB.From(table).Delete().Eq("user_id", userID).ExecuteWithContext(ctx, &deleted); err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}
