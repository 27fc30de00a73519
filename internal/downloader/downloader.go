package downloader

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/muratoffalex/shuller/internal/booru"
	"github.com/muratoffalex/shuller/internal/database"
	"github.com/muratoffalex/shuller/internal/logger"
	"golang.org/x/sync/errgroup"
)

var ErrNoFileName = errors.New("cannot derive file name")

type Options struct {
	Directory string
	Threads   int
	Overwrite bool
	UserAgent string
}

// Result summarizes one Download call.
type Result struct {
	RunID      string
	Downloaded int
	Skipped    int
	Bytes      int64
}

func (r Result) String() string {
	return fmt.Sprintf("run %s: %d downloaded (%s), %d skipped",
		r.RunID, r.Downloaded, humanize.Bytes(uint64(r.Bytes)), r.Skipped)
}

type Downloader struct {
	client booru.HTTPClient
	db     database.Database
	logger logger.Logger
	opts   Options
}

// New creates a downloader. db may be nil, then only files on disk are
// checked for duplicates and nothing is recorded.
func New(client booru.HTTPClient, db database.Database, l logger.Logger, opts Options) *Downloader {
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	if opts.Directory == "" {
		opts.Directory = "."
	}
	if opts.UserAgent == "" {
		opts.UserAgent = booru.DefaultUserAgent
	}
	return &Downloader{
		client: client,
		db:     db,
		logger: l.WithField("component", "downloader"),
		opts:   opts,
	}
}

// Download fetches the file of every post with at most Threads transfers in
// flight. The first failure cancels the remaining transfers and is returned
// together with the partial result.
func (d *Downloader) Download(ctx context.Context, posts booru.Posts) (Result, error) {
	runID := uuid.NewString()
	log := d.logger.WithField("run_id", runID)

	if err := os.MkdirAll(d.opts.Directory, 0o755); err != nil {
		return Result{RunID: runID}, fmt.Errorf("failed to create output directory: %w", err)
	}

	var downloaded, skipped atomic.Int64
	var total atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Threads)

	log.WithFields(logger.Fields{
		"posts":     len(posts),
		"threads":   d.opts.Threads,
		"directory": d.opts.Directory,
	}).Info("Download started")

	for _, post := range posts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			size, done, err := d.downloadPost(gctx, runID, post)
			if err != nil {
				return fmt.Errorf("post %d: %w", post.ID, err)
			}
			if !done {
				skipped.Add(1)
				return nil
			}
			downloaded.Add(1)
			total.Add(size)
			return nil
		})
	}

	err := g.Wait()
	result := Result{
		RunID:      runID,
		Downloaded: int(downloaded.Load()),
		Skipped:    int(skipped.Load()),
		Bytes:      total.Load(),
	}
	if err != nil {
		log.WithError(err).Error("Download failed")
		return result, err
	}
	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	log.WithFields(logger.Fields{
		"downloaded": result.Downloaded,
		"skipped":    result.Skipped,
		"size":       humanize.Bytes(uint64(result.Bytes)),
	}).Info("Download finished")
	return result, nil
}

// downloadPost reports false when the post was skipped.
func (d *Downloader) downloadPost(ctx context.Context, runID string, post booru.Post) (int64, bool, error) {
	log := d.logger.WithField("post_id", post.ID)

	if post.FileURL == "" {
		log.Warn("Post has no file url, skipping")
		return 0, false, nil
	}

	name, err := FileName(post)
	if err != nil {
		return 0, false, err
	}
	target := filepath.Join(d.opts.Directory, name)

	if !d.opts.Overwrite {
		if d.db != nil {
			recorded, err := d.db.IsDownloaded(ctx, post.ID)
			if err != nil {
				return 0, false, err
			}
			if recorded {
				log.Debug("Already downloaded, skipping")
				return 0, false, nil
			}
		}
		if exists(target) {
			log.WithField("file", target).Debug("File exists, skipping")
			return 0, false, nil
		}
	}

	size, hash, err := d.fetchFile(ctx, post.FileURL, target)
	if err != nil {
		return 0, false, err
	}
	if post.Hash != "" {
		hash = post.Hash
	}

	if d.db != nil {
		err = d.db.SaveDownload(ctx, database.Download{
			PostID:   post.ID,
			Hash:     hash,
			FileName: name,
			FileURL:  post.FileURL,
			Size:     size,
			RunID:    runID,
		})
		if err != nil {
			return 0, false, err
		}
	}

	log.WithFields(logger.Fields{
		"file": name,
		"size": humanize.Bytes(uint64(size)),
	}).Info("Downloaded")
	return size, true, nil
}

// fetchFile streams rawURL into a temporary file next to target and renames
// it on success, so an interrupted transfer never leaves a partial target.
func (d *Downloader) fetchFile(ctx context.Context, rawURL, target string) (int64, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, "", &booru.FetchError{URL: rawURL, Err: fmt.Errorf("%w: %w", booru.ErrRequest, err)}
	}
	req.Header.Set("User-Agent", d.opts.UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, "", &booru.FetchError{URL: rawURL, Err: fmt.Errorf("%w: %w", booru.ErrRequest, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, "", &booru.FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: booru.ErrUnexpectedStatus}
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.part")
	if err != nil {
		return 0, "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	h := md5.New()
	size, err := io.Copy(io.MultiWriter(tmp, h), resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, "", &booru.FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %w", booru.ErrRequest, err)}
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return 0, "", fmt.Errorf("failed to move file into place: %w", err)
	}
	return size, hex.EncodeToString(h.Sum(nil)), nil
}

// FileName prefers the API's image name and falls back to the last path
// segment of the file url.
func FileName(post booru.Post) (string, error) {
	if name := filepath.Base(post.Image); post.Image != "" && usableName(name) {
		return name, nil
	}
	u, err := url.Parse(post.FileURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoFileName, err)
	}
	name := path.Base(u.Path)
	if !usableName(name) {
		return "", fmt.Errorf("%w: %s", ErrNoFileName, post.FileURL)
	}
	return name, nil
}

func usableName(name string) bool {
	switch name {
	case "", ".", "..", "/":
		return false
	}
	return true
}

func exists(file string) bool {
	_, err := os.Stat(file)
	return err == nil
}
