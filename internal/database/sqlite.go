package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/muratoffalex/shuller/internal/logger"
	_ "modernc.org/sqlite"
)

type sqliteDB struct {
	db     *sql.DB
	logger logger.Logger
}

func NewSQLiteDB(dsn string, log logger.Logger) (Database, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	log.WithFields(logger.Fields{
		"DSN": dsn,
	}).Debug("Database opened")

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	version, err := RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	log.WithFields(logger.Fields{
		"DSN":     dsn,
		"version": version,
	}).Debug("Database ready")

	return &sqliteDB{db: db, logger: log}, nil
}

func (s *sqliteDB) GetDB() *sql.DB {
	return s.db
}

func (s *sqliteDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}

func (s *sqliteDB) Close() error {
	return s.db.Close()
}

func (s *sqliteDB) ExecWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	var err error
	for i := range 3 {
		res, err = s.ExecContext(ctx, query, args...)
		if err == nil || !strings.Contains(err.Error(), "database is locked") {
			return res, err
		}
		s.logger.WithFields(logger.Fields{
			"attempt": i + 1,
			"error":   err.Error(),
		}).Warn("Database locked, retrying...")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond * time.Duration(i+1)):
		}
	}
	return res, err
}

func (s *sqliteDB) IsDownloaded(ctx context.Context, postID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM downloads WHERE post_id = ?)", postID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check download %d: %w", postID, err)
	}
	return exists, nil
}

func (s *sqliteDB) SaveDownload(ctx context.Context, d Download) error {
	_, err := s.ExecWithRetry(ctx, `
		INSERT INTO downloads (post_id, hash, file_name, file_url, size, run_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(post_id) DO UPDATE SET
			hash = excluded.hash,
			file_name = excluded.file_name,
			file_url = excluded.file_url,
			size = excluded.size,
			run_id = excluded.run_id,
			downloaded_at = CURRENT_TIMESTAMP
	`, d.PostID, d.Hash, d.FileName, d.FileURL, d.Size, d.RunID)
	if err != nil {
		return fmt.Errorf("failed to save download %d: %w", d.PostID, err)
	}
	return nil
}

const selectDownload = `SELECT post_id, hash, file_name, file_url, size, run_id, downloaded_at FROM downloads`

func scanDownload(row interface{ Scan(...any) error }) (Download, error) {
	var d Download
	err := row.Scan(&d.PostID, &d.Hash, &d.FileName, &d.FileURL, &d.Size, &d.RunID, &d.DownloadedAt)
	return d, err
}

// GetDownload returns nil without error when the post was never downloaded.
func (s *sqliteDB) GetDownload(ctx context.Context, postID int64) (*Download, error) {
	d, err := scanDownload(s.db.QueryRowContext(ctx, selectDownload+" WHERE post_id = ?", postID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get download %d: %w", postID, err)
	}
	return &d, nil
}

func (s *sqliteDB) GetRunDownloads(ctx context.Context, runID string) ([]Download, error) {
	rows, err := s.db.QueryContext(ctx, selectDownload+" WHERE run_id = ? ORDER BY post_id", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	var downloads []Download
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		downloads = append(downloads, d)
	}
	return downloads, rows.Err()
}

func (s *sqliteDB) CountDownloads(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM downloads").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count downloads: %w", err)
	}
	return count, nil
}
