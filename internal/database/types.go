package database

import (
	"context"
	"database/sql"
	"time"
)

type Database interface {
	GetDB() *sql.DB

	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	ExecWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error)
	Close() error

	// Download history
	IsDownloaded(ctx context.Context, postID int64) (bool, error)
	SaveDownload(ctx context.Context, d Download) error
	GetDownload(ctx context.Context, postID int64) (*Download, error)
	GetRunDownloads(ctx context.Context, runID string) ([]Download, error)
	CountDownloads(ctx context.Context) (int, error)
}

// Download is one file fetched by a download run.
type Download struct {
	PostID       int64     `json:"post_id"`
	Hash         string    `json:"hash"`
	FileName     string    `json:"file_name"`
	FileURL      string    `json:"file_url"`
	Size         int64     `json:"size"`
	RunID        string    `json:"run_id"`
	DownloadedAt time.Time `json:"downloaded_at"`
}
