package downloader

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/muratoffalex/shuller/internal/booru"
	"github.com/muratoffalex/shuller/internal/database"
	"github.com/muratoffalex/shuller/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fileServer struct {
	*httptest.Server
	hits atomic.Int64
}

func newFileServer(t *testing.T) *fileServer {
	t.Helper()
	fs := &fileServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.hits.Add(1)
		if strings.HasPrefix(r.URL.Path, "/missing") {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, "content of "+r.URL.Path)
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fileServer) post(id int64, name string) booru.Post {
	return booru.Post{ID: id, FileURL: fs.URL + "/images/" + name}
}

func newTestDB(t *testing.T) database.Database {
	t.Helper()
	db, err := database.NewSQLiteDB(":memory:", logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDownloader_Download(t *testing.T) {
	ctx := context.Background()

	t.Run("downloads and records posts", func(t *testing.T) {
		srv := newFileServer(t)
		db := newTestDB(t)
		dir := filepath.Join(t.TempDir(), "out")
		l := logger.NewTestLogger()
		d := New(srv.Client(), db, l, Options{Directory: dir, Threads: 2})

		posts := booru.Posts{srv.post(1, "a.jpg"), srv.post(2, "b.png"), srv.post(3, "c.webm")}
		result, err := d.Download(ctx, posts)

		require.NoError(t, err)
		assert.Equal(t, 3, result.Downloaded)
		assert.Zero(t, result.Skipped)
		assert.NotEmpty(t, result.RunID)
		assert.Positive(t, result.Bytes)

		content, err := os.ReadFile(filepath.Join(dir, "b.png"))
		require.NoError(t, err)
		assert.Equal(t, "content of /images/b.png", string(content))

		recorded, err := db.GetRunDownloads(ctx, result.RunID)
		require.NoError(t, err)
		assert.Len(t, recorded, 3)
		assert.NotEmpty(t, recorded[0].Hash)
		assert.True(t, l.HasEntry("info", "Download finished"))

		leftovers, err := filepath.Glob(filepath.Join(dir, "*.part"))
		require.NoError(t, err)
		assert.Empty(t, leftovers)
	})

	t.Run("skips posts recorded in the database", func(t *testing.T) {
		srv := newFileServer(t)
		db := newTestDB(t)
		require.NoError(t, db.SaveDownload(ctx, database.Download{PostID: 1, FileName: "a.jpg", FileURL: "x", RunID: "old"}))
		d := New(srv.Client(), db, logger.NewTestLogger(), Options{Directory: t.TempDir()})

		result, err := d.Download(ctx, booru.Posts{srv.post(1, "a.jpg"), srv.post(2, "b.jpg")})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Downloaded)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, int64(1), srv.hits.Load())
	})

	t.Run("skips files already on disk", func(t *testing.T) {
		srv := newFileServer(t)
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("local"), 0o644))
		d := New(srv.Client(), nil, logger.NewTestLogger(), Options{Directory: dir})

		result, err := d.Download(ctx, booru.Posts{srv.post(1, "a.jpg")})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Skipped)
		assert.Zero(t, srv.hits.Load())
		content, _ := os.ReadFile(filepath.Join(dir, "a.jpg"))
		assert.Equal(t, "local", string(content))
	})

	t.Run("overwrite ignores history", func(t *testing.T) {
		srv := newFileServer(t)
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("local"), 0o644))
		d := New(srv.Client(), nil, logger.NewTestLogger(), Options{Directory: dir, Overwrite: true})

		result, err := d.Download(ctx, booru.Posts{srv.post(1, "a.jpg")})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Downloaded)
		content, _ := os.ReadFile(filepath.Join(dir, "a.jpg"))
		assert.Equal(t, "content of /images/a.jpg", string(content))
	})

	t.Run("posts without file url are skipped", func(t *testing.T) {
		d := New(http.DefaultClient, nil, logger.NewTestLogger(), Options{Directory: t.TempDir()})

		result, err := d.Download(ctx, booru.Posts{{ID: 9}})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Skipped)
	})

	t.Run("http error fails the run", func(t *testing.T) {
		srv := newFileServer(t)
		dir := t.TempDir()
		l := logger.NewTestLogger()
		d := New(srv.Client(), nil, l, Options{Directory: dir})

		post := booru.Post{ID: 5, FileURL: srv.URL + "/missing/x.jpg"}
		_, err := d.Download(ctx, booru.Posts{post})

		require.Error(t, err)
		assert.ErrorIs(t, err, booru.ErrUnexpectedStatus)
		assert.Contains(t, err.Error(), "post 5")
		assert.True(t, l.HasEntry("error", "Download failed"))
		assert.NoFileExists(t, filepath.Join(dir, "x.jpg"))
	})

	t.Run("dot dot image name stays inside the directory", func(t *testing.T) {
		srv := newFileServer(t)
		dir := filepath.Join(t.TempDir(), "out")
		d := New(srv.Client(), nil, logger.NewTestLogger(), Options{Directory: dir})

		post := srv.post(1, "a.jpg")
		post.Image = ".."
		result, err := d.Download(ctx, booru.Posts{post})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Downloaded)
		assert.FileExists(t, filepath.Join(dir, "a.jpg"))
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv := newFileServer(t)
		d := New(srv.Client(), nil, logger.NewTestLogger(), Options{Directory: t.TempDir()})
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := d.Download(cctx, booru.Posts{srv.post(1, "a.jpg")})

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name     string
		post     booru.Post
		expected string
		wantErr  bool
	}{
		{"image field", booru.Post{Image: "abc.jpg", FileURL: "https://x/images/1/zzz.jpg"}, "abc.jpg", false},
		{"image with path", booru.Post{Image: "../../etc/passwd"}, "passwd", false},
		{"from url", booru.Post{FileURL: "https://x/images/1/zzz.png?123"}, "zzz.png", false},
		{"dot dot image falls back to url", booru.Post{Image: "..", FileURL: "https://x/images/1/zzz.gif"}, "zzz.gif", false},
		{"dot image falls back to url", booru.Post{Image: ".", FileURL: "https://x/images/1/y.jpg"}, "y.jpg", false},
		{"dot dot url", booru.Post{FileURL: "https://x/.."}, "", true},
		{"no name", booru.Post{FileURL: "https://x/"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, err := FileName(tt.post)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoFileName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, name)
		})
	}
}

func TestResult_String(t *testing.T) {
	r := Result{RunID: "abc", Downloaded: 2, Skipped: 1, Bytes: 2048}
	assert.Equal(t, "run abc: 2 downloaded (2.0 kB), 1 skipped", r.String())
}
