package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sipeta/internal/category"
	"sipeta/internal/config"
	"sipeta/internal/database"
	"sipeta/internal/history"
	"sipeta/internal/metrics"
	"sipeta/internal/model"
	"sipeta/internal/repository"
	"sipeta/internal/storage"
	"sipeta/internal/upload"
)

// SubmitInput is a filled category form plus the reference of its uploaded file.
type SubmitInput struct {
	Category  string         `json:"-"`
	Fields    map[string]any `json:"fields"`
	FileURL   string         `json:"file_url"`
	FileName  string         `json:"file_name"`
	FilePath  string         `json:"file_path"`
	CreatedBy string         `json:"-"`
}

// BoardQuery narrows a section board.
type BoardQuery struct {
	Search   string
	Category string
	Refresh  bool
}

// Download is an opened file blob.
type Download struct {
	Body        io.ReadCloser
	FileName    string
	ContentType string
	Size        int64
}

// ArchiveService is the document archive: uploads, form submission, history and deletion.
type ArchiveService interface {
	Categories() []*category.Category
	Sections() []category.Section

	// Upload validates a file against the category policy and stores it in the
	// category folder of sectionKey. An empty sectionKey uses the default folder.
	Upload(ctx context.Context, uploadID, categoryKey, sectionKey string, f upload.File) (*upload.Result, error)
	UploadProgress(uploadID string) (upload.Progress, bool)

	// Submit validates the form and inserts one row.
	Submit(ctx context.Context, in SubmitInput) (*model.Entry, error)

	List(ctx context.Context, categoryKey, q string) ([]model.Entry, error)
	Get(ctx context.Context, categoryKey, id string) (*model.Entry, error)
	Open(ctx context.Context, categoryKey, id string) (*Download, error)
	Link(ctx context.Context, categoryKey, id string, expiry time.Duration) (string, error)

	// Delete removes the blob then the row. See ErrDeletePending.
	Delete(ctx context.Context, categoryKey, id string, confirmed bool) error

	Board(ctx context.Context, sectionKey string, q BoardQuery) (*history.View, error)
}

type archiveService struct {
	reg      *category.Registry
	repo     repository.RecordRepository
	store    storage.Storage
	uploader *upload.Uploader
	boards   *history.Boards
	metrics  *metrics.Archive
	defaults config.UploadConfig
	loc      *time.Location
	log      zerolog.Logger
	now      func() time.Time
}

// ArchiveDeps groups the collaborators of the archive service.
type ArchiveDeps struct {
	Registry *category.Registry
	Repo     repository.RecordRepository
	Store    storage.Storage
	Uploader *upload.Uploader
	Boards   *history.Boards
	Metrics  *metrics.Archive
	Upload   config.UploadConfig
	Location *time.Location
	Logger   zerolog.Logger
}

// NewArchiveService constructs the archive service.
func NewArchiveService(d ArchiveDeps) ArchiveService {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	return &archiveService{
		reg:      d.Registry,
		repo:     d.Repo,
		store:    d.Store,
		uploader: d.Uploader,
		boards:   d.Boards,
		metrics:  d.Metrics,
		defaults: d.Upload,
		loc:      loc,
		log:      d.Logger,
		now:      time.Now,
	}
}

func (s *archiveService) Categories() []*category.Category { return s.reg.All() }

func (s *archiveService) Sections() []category.Section { return s.reg.Sections() }

// Policy resolves the upload policy of a category over the configured defaults.
func Policy(c *category.Category, section string, defaults config.UploadConfig) upload.Policy {
	accept := defaults.Accept
	if c.Accept != "" {
		accept = c.Accept
	}
	maxMB := defaults.MaxSizeMB
	if c.MaxSizeMB > 0 {
		maxMB = c.MaxSizeMB
	}
	return upload.Policy{Accept: upload.ParseAccept(accept), MaxSizeMB: maxMB, Folder: c.FolderFor(section)}
}

func (s *archiveService) Upload(ctx context.Context, uploadID, categoryKey, sectionKey string, f upload.File) (*upload.Result, error) {
	c, err := s.reg.Lookup(categoryKey)
	if err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "archive.Upload", trace.WithAttributes(
		attribute.String("sipeta.category", c.Key),
		attribute.Int64("sipeta.file_size", f.Size),
	))
	defer span.End()

	res, err := s.uploader.Upload(ctx, uploadID, f, Policy(c, sectionKey, s.defaults))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

func (s *archiveService) UploadProgress(uploadID string) (upload.Progress, bool) {
	return s.uploader.Progress(uploadID)
}

func (s *archiveService) Submit(ctx context.Context, in SubmitInput) (*model.Entry, error) {
	c, err := s.reg.Lookup(in.Category)
	if err != nil {
		return nil, err
	}
	if in.FileURL == "" || in.FileName == "" || in.FilePath == "" {
		return nil, ErrFileRequired
	}
	if !c.OwnsPath(in.FilePath) {
		return nil, ErrForeignFile
	}
	fields, err := c.Normalize(in.Fields)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "archive.Submit", trace.WithAttributes(attribute.String("sipeta.category", c.Key)))
	defer span.End()

	stored, err := s.repo.Insert(ctx, c, &model.Record{
		ID:        uuid.NewString(),
		Category:  c.Key,
		Fields:    fields,
		FileURL:   in.FileURL,
		FileName:  in.FileName,
		FilePath:  in.FilePath,
		CreatedBy: in.CreatedBy,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}

	entry := c.Entry(*stored, s.loc)
	s.boards.Apply(entry)
	s.metrics.RecordCreated(c.Key)
	return &entry, nil
}

func (s *archiveService) List(ctx context.Context, categoryKey, q string) ([]model.Entry, error) {
	c, err := s.reg.Lookup(categoryKey)
	if err != nil {
		return nil, err
	}
	recs, err := s.repo.List(ctx, c, repository.ListQuery{Search: q})
	if err != nil {
		return nil, err
	}
	entries := make([]model.Entry, 0, len(recs))
	for _, rec := range recs {
		entries = append(entries, c.Entry(rec, s.loc))
	}
	return entries, nil
}

func (s *archiveService) find(ctx context.Context, categoryKey, id string) (*category.Category, *model.Record, error) {
	c, err := s.reg.Lookup(categoryKey)
	if err != nil {
		return nil, nil, err
	}
	if id == "" {
		return nil, nil, ErrIDRequired
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil, ErrNotFound
	}
	rec, err := s.repo.FindByID(ctx, c, id)
	if err != nil {
		if repository.IsNoRowsError(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return c, rec, nil
}

func (s *archiveService) Get(ctx context.Context, categoryKey, id string) (*model.Entry, error) {
	c, rec, err := s.find(ctx, categoryKey, id)
	if err != nil {
		return nil, err
	}
	e := c.Entry(*rec, s.loc)
	return &e, nil
}

func (s *archiveService) Open(ctx context.Context, categoryKey, id string) (*Download, error) {
	_, rec, err := s.find(ctx, categoryKey, id)
	if err != nil {
		return nil, err
	}
	body, info, err := s.store.Get(ctx, rec.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: open: %w", upload.ErrStorage, err)
	}
	return &Download{Body: body, FileName: rec.FileName, ContentType: info.ContentType, Size: info.Size}, nil
}

func (s *archiveService) Link(ctx context.Context, categoryKey, id string, expiry time.Duration) (string, error) {
	_, rec, err := s.find(ctx, categoryKey, id)
	if err != nil {
		return "", err
	}
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	u, err := s.store.PresignGet(ctx, rec.FilePath, expiry)
	if err != nil {
		return "", fmt.Errorf("%w: presign: %w", upload.ErrStorage, err)
	}
	return u, nil
}

func (s *archiveService) Delete(ctx context.Context, categoryKey, id string, confirmed bool) error {
	c, err := s.reg.Lookup(categoryKey)
	if err != nil {
		return err
	}
	if !c.Deletable {
		return ErrNotDeletable
	}
	if !confirmed {
		return ErrConfirmationRequired
	}
	_, rec, err := s.find(ctx, categoryKey, id)
	if err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "archive.Delete", trace.WithAttributes(
		attribute.String("sipeta.category", c.Key),
		attribute.String("sipeta.record_id", id),
	))
	defer span.End()

	log := s.log.With().Str("category", c.Key).Str("record_id", id).Str("file_path", rec.FilePath).Logger()

	if err := s.repo.MarkDeleting(ctx, c, id, s.now()); err != nil {
		if repository.IsNoRowsError(err) {
			return ErrNotFound
		}
		return fmt.Errorf("mark deleting: %w", err)
	}

	if err := s.store.Delete(ctx, rec.FilePath); err != nil {
		span.SetStatus(codes.Error, err.Error())
		if clearErr := s.clearDeleting(ctx, c, id); clearErr != nil {
			log.Error().Str("event", "delete_compensation_failed").Err(clearErr).Msg("row stays hidden until the janitor sweeps it")
		}
		s.metrics.Delete(metrics.DeleteCompensated)
		return fmt.Errorf("%w: delete: %w", upload.ErrStorage, err)
	}

	s.boards.Remove(c.Key, id)

	if err := s.repo.Delete(ctx, c, id); err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Warn().Str("event", "delete_row_pending").Err(err).Msg("")
		s.metrics.Delete(metrics.DeletePending)
		return fmt.Errorf("%w: %v", ErrDeletePending, err)
	}

	s.metrics.Delete(metrics.DeleteDone)
	return nil
}

// clearDeleting undoes a tombstone, trying twice. The retry ignores cancellation of ctx.
func (s *archiveService) clearDeleting(ctx context.Context, c *category.Category, id string) error {
	err := s.repo.ClearDeleting(ctx, c, id)
	if err == nil {
		return nil
	}
	s.log.Warn().Str("event", "delete_compensation_retry").Str("record_id", id).Err(err).Msg("")
	return s.repo.ClearDeleting(context.WithoutCancel(ctx), c, id)
}

func (s *archiveService) Board(ctx context.Context, sectionKey string, q BoardQuery) (*history.View, error) {
	board, err := s.boards.Get(ctx, sectionKey, q.Refresh)
	if err != nil {
		return nil, err
	}
	if q.Category != "" && !board.Has(q.Category) {
		return nil, category.ErrUnknownCategory
	}
	v := board.View(q.Search, q.Category)
	return &v, nil
}
