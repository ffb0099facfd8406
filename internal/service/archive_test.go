package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sipeta/internal/category"
	"sipeta/internal/config"
	"sipeta/internal/history"
	"sipeta/internal/metrics"
	"sipeta/internal/model"
	"sipeta/internal/repository"
	repoMocks "sipeta/internal/repository/mocks"
	"sipeta/internal/storage"
	storeMocks "sipeta/internal/storage/mocks"
	"sipeta/internal/upload"
)

const recID = "7d0b6a52-2f4e-4c8e-9a53-0f0b7e3c9a11"

type archiveFixture struct {
	svc    *archiveService
	repo   *repoMocks.MockRecordRepository
	store  *storeMocks.MockStorage
	boards *history.Boards
	reg    *category.Registry
}

func newArchiveFixture(t *testing.T) *archiveFixture {
	t.Helper()
	reg := category.Default()
	repo := new(repoMocks.MockRecordRepository)
	store := new(storeMocks.MockStorage)
	m, err := metrics.NewArchive(prometheus.NewRegistry())
	require.NoError(t, err)

	boards := history.NewBoards(reg, repo, time.UTC, time.Minute, zerolog.Nop())
	svc := NewArchiveService(ArchiveDeps{
		Registry: reg,
		Repo:     repo,
		Store:    store,
		Uploader: upload.NewUploader(store, upload.NewTracker(time.Minute), m, zerolog.Nop()),
		Boards:   boards,
		Metrics:  m,
		Upload:   config.UploadConfig{MaxSizeMB: 10, Accept: upload.DefaultAccept},
		Location: time.UTC,
		Logger:   zerolog.Nop(),
	}).(*archiveService)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }

	return &archiveFixture{svc: svc, repo: repo, store: store, boards: boards, reg: reg}
}

func (f *archiveFixture) lookup(t *testing.T, key string) *category.Category {
	t.Helper()
	c, err := f.reg.Lookup(key)
	require.NoError(t, err)
	return c
}

func TestArchiveService_SubmitMemo(t *testing.T) {
	ctx := context.Background()
	f := newArchiveFixture(t)
	memo := f.lookup(t, "memorandum-personalia")

	// Load the personnel board empty first so the submission is applied to it.
	f.repo.On("Count", mock.Anything, mock.Anything).Return(0, nil)
	f.repo.On("List", mock.Anything, mock.Anything, repository.ListQuery{}).Return([]model.Record{}, nil)
	before, err := f.svc.Board(ctx, "personalia-umum", BoardQuery{})
	require.NoError(t, err)
	require.Empty(t, before.Entries)

	tanggal := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	f.repo.On("Insert", mock.Anything, memo, mock.MatchedBy(func(r *model.Record) bool {
		_, hasPerihal := r.Fields["perihal"]
		return r.FileName == "scan.pdf" &&
			r.Fields["nomor_surat"] == "MEMO-001" &&
			r.Fields["tanggal"].(time.Time).Equal(tanggal) &&
			!hasPerihal &&
			r.CreatedBy == "user-1"
	})).Return(&model.Record{
		ID:        recID,
		Category:  memo.Key,
		Fields:    map[string]any{"nomor_surat": "MEMO-001", "dari": "HR", "tanggal": tanggal},
		FileURL:   "http://files.local/sipeta/personalia-umum/memorandum/x.pdf",
		FileName:  "scan.pdf",
		FilePath:  "personalia-umum/memorandum/x.pdf",
		CreatedAt: time.Now(),
	}, nil).Once()

	entry, err := f.svc.Submit(ctx, SubmitInput{
		Category:  memo.Key,
		Fields:    map[string]any{"nomor_surat": "MEMO-001", "dari": "HR", "tanggal": "2024-01-10", "perihal": ""},
		FileURL:   "http://files.local/sipeta/personalia-umum/memorandum/x.pdf",
		FileName:  "scan.pdf",
		FilePath:  "personalia-umum/memorandum/x.pdf",
		CreatedBy: "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "MEMO-001", entry.Subject)
	assert.Equal(t, "scan.pdf", entry.FileName)

	after, err := f.svc.Board(ctx, "personalia-umum", BoardQuery{})
	require.NoError(t, err)
	require.Len(t, after.Entries, 1)
	assert.Equal(t, "MEMO-001", after.Entries[0].Subject)
	assert.Equal(t, before.Total+1, after.Total)

	f.repo.AssertExpectations(t)
}

func TestArchiveService_SubmitRejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		in      SubmitInput
		setup   func(f *archiveFixture)
		wantErr error
		check   func(t *testing.T, err error)
	}{
		{
			name:    "unknown category",
			in:      SubmitInput{Category: "nope", FileURL: "u", FileName: "n"},
			wantErr: category.ErrUnknownCategory,
		},
		{
			name:    "file required",
			in:      SubmitInput{Category: "memorandum", Fields: map[string]any{"nomor_surat": "M", "dari": "HR"}},
			wantErr: ErrFileRequired,
		},
		{
			name:    "empty file path",
			in:      SubmitInput{Category: "surat-keluar", FileURL: "u", FileName: "n", Fields: map[string]any{"nomor_surat": "SK-1"}},
			wantErr: ErrFileRequired,
		},
		{
			name: "file of another category",
			in: SubmitInput{Category: "surat-keluar", FileURL: "u", FileName: "victim.pdf",
				FilePath: "personalia-umum/database-karyawan/victim.pdf", Fields: map[string]any{"nomor_surat": "SK-1"}},
			wantErr: ErrForeignFile,
		},
		{
			name: "path escaping the folder",
			in: SubmitInput{Category: "surat-keluar", FileURL: "u", FileName: "victim.pdf",
				FilePath: "surat-keluar/../personalia-umum/database-karyawan/victim.pdf", Fields: map[string]any{"nomor_surat": "SK-1"}},
			wantErr: ErrForeignFile,
		},
		{
			name: "missing fields named",
			in:   SubmitInput{Category: "surat-keluar", FileURL: "u", FileName: "n", FilePath: "surat-keluar/n.pdf", Fields: map[string]any{"tujuan": "Dinas"}},
			check: func(t *testing.T, err error) {
				var verr *category.ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Contains(t, verr.Missing, "Nomor Surat")
				assert.Contains(t, err.Error(), "Perihal/Hal")
			},
		},
		{
			name: "duplicate in any category",
			in:   SubmitInput{Category: "bukti-kas-bank", FileURL: "u", FileName: "n", FilePath: "tata-usaha-keuangan/bukti-kas-bank/n.pdf", Fields: map[string]any{"bukti_dokumen": "penerimaan-kas", "nomor_voucher": "V-1"}},
			setup: func(f *archiveFixture) {
				f.repo.On("Insert", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
			},
			wantErr: ErrDuplicate,
		},
		{
			name: "other database error keeps message",
			in:   SubmitInput{Category: "memorandum", FileURL: "u", FileName: "n", FilePath: "tata-usaha-keuangan/memorandum/n.pdf", Fields: map[string]any{"nomor_surat": "M", "dari": "HR"}},
			setup: func(f *archiveFixture) {
				f.repo.On("Insert", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, errors.New(`null value in column "dari"`))
			},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), `null value in column "dari"`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newArchiveFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}
			entry, err := f.svc.Submit(ctx, tt.in)
			require.Error(t, err)
			assert.Nil(t, entry)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, err)
			}
			if tt.setup == nil {
				f.repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestArchiveService_Upload(t *testing.T) {
	ctx := context.Background()
	f := newArchiveFixture(t)

	f.store.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "tata-usaha-keuangan/memorandum/") && strings.HasSuffix(key, ".pdf")
	}), mock.Anything, mock.Anything).Return(storage.ObjectInfo{Size: 3}, nil).Once()

	res, err := f.svc.Upload(ctx, "up-1", "memorandum", "", upload.File{Name: "memo.pdf", Size: 3, Body: strings.NewReader("abc")})
	require.NoError(t, err)
	assert.Equal(t, "memo.pdf", res.FileName)

	p, ok := f.svc.UploadProgress("up-1")
	require.True(t, ok)
	assert.Equal(t, 100, p.Percent)

	_, err = f.svc.Upload(ctx, "", "memorandum", "", upload.File{Name: "memo.exe", Size: 3, Body: strings.NewReader("abc")})
	assert.ErrorIs(t, err, upload.ErrUnsupportedType)

	_, err = f.svc.Upload(ctx, "", "nope", "", upload.File{Name: "memo.pdf", Size: 3})
	assert.ErrorIs(t, err, category.ErrUnknownCategory)

	f.store.AssertNumberOfCalls(t, "Put", 1)
}

func TestArchiveService_UploadUsesSectionFolder(t *testing.T) {
	ctx := context.Background()
	f := newArchiveFixture(t)

	f.store.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "personalia-umum/arsip-dokumen-lain/")
	}), mock.Anything, mock.Anything).Return(storage.ObjectInfo{Size: 3}, nil).Once()
	f.store.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "tata-usaha-keuangan/arsip-dokumen-lain/")
	}), mock.Anything, mock.Anything).Return(storage.ObjectInfo{Size: 3}, nil).Once()

	res, err := f.svc.Upload(ctx, "", "arsip-dokumen-lain", "personalia-umum", upload.File{Name: "sk.pdf", Size: 3, Body: strings.NewReader("abc")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.FilePath, "personalia-umum/arsip-dokumen-lain/"))

	res, err = f.svc.Upload(ctx, "", "arsip-dokumen-lain", "", upload.File{Name: "sk.pdf", Size: 3, Body: strings.NewReader("abc")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.FilePath, "tata-usaha-keuangan/arsip-dokumen-lain/"))

	f.store.AssertExpectations(t)
}

func TestPolicy(t *testing.T) {
	defaults := config.UploadConfig{MaxSizeMB: 10, Accept: ".pdf"}
	p := Policy(&category.Category{Folder: "surat-masuk"}, "", defaults)
	assert.Equal(t, []string{".pdf"}, p.Accept)
	assert.Equal(t, 10, p.MaxSizeMB)

	p = Policy(&category.Category{Folder: "x", Accept: "image/*", MaxSizeMB: 2}, "", defaults)
	assert.Equal(t, []string{"image/*"}, p.Accept)
	assert.Equal(t, 2, p.MaxSizeMB)
	assert.Equal(t, "x", p.Folder)

	p = Policy(&category.Category{Folder: "x", SectionFolders: map[string]string{"s": "s/x"}}, "s", defaults)
	assert.Equal(t, "s/x", p.Folder)
}

func TestArchiveService_Delete(t *testing.T) {
	ctx := context.Background()
	stored := &model.Record{ID: recID, FilePath: "surat-masuk/a.pdf", FileName: "a.pdf"}

	tests := []struct {
		name      string
		category  string
		confirmed bool
		setup     func(f *archiveFixture, c *category.Category)
		wantErr   error
		wantMsg   string
		assert    func(t *testing.T, f *archiveFixture, c *category.Category)
	}{
		{
			name:      "success removes blob then row",
			category:  "surat-masuk",
			confirmed: true,
			setup: func(f *archiveFixture, c *category.Category) {
				f.repo.On("FindByID", ctx, c, recID).Return(stored, nil)
				f.repo.On("MarkDeleting", mock.Anything, c, recID, mock.Anything).Return(nil)
				f.store.On("Delete", mock.Anything, "surat-masuk/a.pdf").Return(nil)
				f.repo.On("Delete", mock.Anything, c, recID).Return(nil)
			},
		},
		{
			name:      "blob failure keeps row and clears tombstone",
			category:  "surat-masuk",
			confirmed: true,
			setup: func(f *archiveFixture, c *category.Category) {
				f.repo.On("FindByID", ctx, c, recID).Return(stored, nil)
				f.repo.On("MarkDeleting", mock.Anything, c, recID, mock.Anything).Return(nil)
				f.store.On("Delete", mock.Anything, "surat-masuk/a.pdf").Return(errors.New("access denied"))
				f.repo.On("ClearDeleting", mock.Anything, c, recID).Return(nil)
			},
			wantMsg: "access denied",
			assert: func(t *testing.T, f *archiveFixture, c *category.Category) {
				f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name:      "compensation retried once",
			category:  "surat-masuk",
			confirmed: true,
			setup: func(f *archiveFixture, c *category.Category) {
				f.repo.On("FindByID", ctx, c, recID).Return(stored, nil)
				f.repo.On("MarkDeleting", mock.Anything, c, recID, mock.Anything).Return(nil)
				f.store.On("Delete", mock.Anything, "surat-masuk/a.pdf").Return(errors.New("access denied"))
				f.repo.On("ClearDeleting", mock.Anything, c, recID).Return(errors.New("conn reset")).Once()
				f.repo.On("ClearDeleting", mock.Anything, c, recID).Return(nil).Once()
			},
			wantErr: upload.ErrStorage,
			assert: func(t *testing.T, f *archiveFixture, c *category.Category) {
				f.repo.AssertNumberOfCalls(t, "ClearDeleting", 2)
				f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
			},
		},
		{
			name:      "compensation failing twice still reports the storage error",
			category:  "surat-masuk",
			confirmed: true,
			setup: func(f *archiveFixture, c *category.Category) {
				f.repo.On("FindByID", ctx, c, recID).Return(stored, nil)
				f.repo.On("MarkDeleting", mock.Anything, c, recID, mock.Anything).Return(nil)
				f.store.On("Delete", mock.Anything, "surat-masuk/a.pdf").Return(errors.New("access denied"))
				f.repo.On("ClearDeleting", mock.Anything, c, recID).Return(errors.New("conn reset")).Twice()
			},
			wantErr: upload.ErrStorage,
			assert: func(t *testing.T, f *archiveFixture, c *category.Category) {
				f.repo.AssertNumberOfCalls(t, "ClearDeleting", 2)
			},
		},
		{
			name:      "row failure is pending",
			category:  "surat-keluar",
			confirmed: true,
			setup: func(f *archiveFixture, c *category.Category) {
				f.repo.On("FindByID", ctx, c, recID).Return(stored, nil)
				f.repo.On("MarkDeleting", mock.Anything, c, recID, mock.Anything).Return(nil)
				f.store.On("Delete", mock.Anything, "surat-masuk/a.pdf").Return(nil)
				f.repo.On("Delete", mock.Anything, c, recID).Return(errors.New("conn reset"))
			},
			wantErr: ErrDeletePending,
		},
		{
			name:      "not deletable",
			category:  "memorandum",
			confirmed: true,
			wantErr:   ErrNotDeletable,
		},
		{
			name:     "confirmation required",
			category: "surat-masuk",
			wantErr:  ErrConfirmationRequired,
		},
		{
			name:      "not found",
			category:  "surat-masuk",
			confirmed: true,
			setup: func(f *archiveFixture, c *category.Category) {
				f.repo.On("FindByID", ctx, c, recID).Return(nil, fmt.Errorf("find: %w", sql.ErrNoRows))
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newArchiveFixture(t)
			c := f.lookup(t, tt.category)
			if tt.setup != nil {
				tt.setup(f, c)
			}

			err := f.svc.Delete(ctx, tt.category, recID, tt.confirmed)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantMsg != "":
				assert.ErrorContains(t, err, tt.wantMsg)
			default:
				assert.NoError(t, err)
			}
			if tt.assert != nil {
				tt.assert(t, f, c)
			}
			f.repo.AssertExpectations(t)
			f.store.AssertExpectations(t)
		})
	}
}

func TestArchiveService_GetOpenLink(t *testing.T) {
	ctx := context.Background()
	f := newArchiveFixture(t)
	c := f.lookup(t, "surat-masuk")
	rec := &model.Record{ID: recID, Fields: map[string]any{"nomor_surat": "SM-1"}, FilePath: "surat-masuk/a.pdf", FileName: "surat.pdf"}

	f.repo.On("FindByID", ctx, c, recID).Return(rec, nil)
	f.store.On("Get", ctx, "surat-masuk/a.pdf").
		Return(io.NopCloser(strings.NewReader("pdf")), storage.ObjectInfo{ContentType: "application/pdf", Size: 3}, nil)
	f.store.On("PresignGet", ctx, "surat-masuk/a.pdf", 15*time.Minute).Return("http://signed", nil)

	e, err := f.svc.Get(ctx, "surat-masuk", recID)
	require.NoError(t, err)
	assert.Equal(t, "SM-1", e.Subject)

	d, err := f.svc.Open(ctx, "surat-masuk", recID)
	require.NoError(t, err)
	assert.Equal(t, "surat.pdf", d.FileName)
	assert.Equal(t, "application/pdf", d.ContentType)

	link, err := f.svc.Link(ctx, "surat-masuk", recID, 0)
	require.NoError(t, err)
	assert.Equal(t, "http://signed", link)

	_, err = f.svc.Get(ctx, "surat-masuk", "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Get(ctx, "surat-masuk", "")
	assert.ErrorIs(t, err, ErrIDRequired)
}

func TestArchiveService_ListAndBoard(t *testing.T) {
	ctx := context.Background()
	f := newArchiveFixture(t)
	c := f.lookup(t, "surat-masuk")

	f.repo.On("List", ctx, c, repository.ListQuery{Search: "dinas"}).
		Return([]model.Record{{ID: "a", Fields: map[string]any{"nomor_surat": "SM-9"}}}, nil)

	entries, err := f.svc.List(ctx, "surat-masuk", "dinas")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "SM-9", entries[0].Subject)

	_, err = f.svc.List(ctx, "nope", "")
	assert.ErrorIs(t, err, category.ErrUnknownCategory)

	f.repo.On("Count", mock.Anything, mock.Anything).Return(0, nil)
	f.repo.On("List", mock.Anything, mock.Anything, repository.ListQuery{}).Return([]model.Record{}, nil)

	_, err = f.svc.Board(ctx, "surat-masuk", BoardQuery{Category: "memorandum"})
	assert.ErrorIs(t, err, category.ErrUnknownCategory)
	_, err = f.svc.Board(ctx, "nope", BoardQuery{})
	assert.ErrorIs(t, err, category.ErrUnknownSection)
}
