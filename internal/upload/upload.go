package upload

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"sipeta/internal/metrics"
	"sipeta/internal/storage"
)

// File is an incoming upload.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// Result is what a form needs to reference the stored blob.
type Result struct {
	PublicURL string `json:"public_url"`
	FileName  string `json:"file_name"`
	FilePath  string `json:"file_path"`
	Size      int64  `json:"size"`
}

// Uploader validates files and stores them under their category folder.
type Uploader struct {
	store    storage.Storage
	progress *Tracker
	metrics  *metrics.Archive
	log      zerolog.Logger

	now      func() time.Time
	newToken func() string
}

// NewUploader builds an Uploader. progress and m may be nil.
func NewUploader(store storage.Storage, progress *Tracker, m *metrics.Archive, log zerolog.Logger) *Uploader {
	return &Uploader{
		store:    store,
		progress: progress,
		metrics:  m,
		log:      log,
		now:      time.Now,
		newToken: func() string { return xid.New().String() },
	}
}

// ObjectName is "<token>_<unix millis><ext>".
func ObjectName(token string, at time.Time, original string) string {
	return token + "_" + strconv.FormatInt(at.UnixMilli(), 10) + filepath.Ext(original)
}

// Upload checks f against p and stores it at "<folder>/<generated name>".
// Rejected files never reach the store. When id is set, progress is published under it.
func (u *Uploader) Upload(ctx context.Context, id string, f File, p Policy) (*Result, error) {
	if err := p.Check(f.Name, f.Size, f.ContentType); err != nil {
		u.metrics.Upload("rejected", 0)
		return nil, err
	}

	key := path.Join(p.Folder, ObjectName(u.newToken(), u.now(), f.Name))

	state := u.progress.start(id, f.Size)
	info, err := u.store.Put(ctx, key, f.Body, storage.PutObjectOptions{
		Size:        f.Size,
		ContentType: f.ContentType,
		Metadata:    map[string]string{"original-name": f.Name},
		Progress:    counter{s: state},
	})
	if err != nil {
		state.failed.Store(true)
		state.done.Store(true)
		u.metrics.Upload("failed", 0)
		u.log.Error().
			Str("event", "upload_failed").
			Str("file_path", key).
			Err(err).
			Msg("")
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	state.done.Store(true)

	size := info.Size
	if size <= 0 {
		size = f.Size
	}
	u.metrics.Upload("success", size)

	return &Result{
		PublicURL: u.store.PublicURL(key),
		FileName:  f.Name,
		FilePath:  key,
		Size:      size,
	}, nil
}

// Progress returns the progress published under id.
func (u *Uploader) Progress(id string) (Progress, bool) {
	if u.progress == nil {
		return Progress{}, false
	}
	return u.progress.Get(id)
}
