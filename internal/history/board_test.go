package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sipeta/internal/category"
	"sipeta/internal/model"
	"sipeta/internal/repository"
	"sipeta/internal/repository/mocks"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func personnelBoard(t *testing.T) (*Board, *category.Registry) {
	t.Helper()
	reg := category.Default()
	section, err := reg.Section("personalia-umum")
	require.NoError(t, err)
	cats, err := reg.SectionCategories("personalia-umum")
	require.NoError(t, err)
	return NewBoard(section, cats, time.UTC), reg
}

func expectEmptySection(repo *mocks.MockRecordRepository) {
	repo.On("Count", mock.Anything, mock.Anything).Return(0, nil).Maybe()
	repo.On("List", mock.Anything, mock.Anything, repository.ListQuery{}).Return([]model.Record{}, nil).Maybe()
}

func TestBoardLoad(t *testing.T) {
	ctx := context.Background()
	board, reg := personnelBoard(t)
	memo, _ := reg.Lookup("memorandum-personalia")
	ispo, _ := reg.Lookup("dokumen-ispo")

	repo := new(mocks.MockRecordRepository)
	repo.On("Count", mock.Anything, memo).Return(2, nil)
	repo.On("Count", mock.Anything, ispo).Return(0, errors.New("timeout"))
	repo.On("List", mock.Anything, memo, repository.ListQuery{}).Return([]model.Record{
		{ID: "m1", Fields: map[string]any{"nomor_surat": "MEMO-001", "tanggal": day(3)}},
		{ID: "m2", Fields: map[string]any{"nomor_surat": "MEMO-002", "tanggal": day(1)}},
	}, nil)
	repo.On("List", mock.Anything, ispo, repository.ListQuery{}).Return([]model.Record{
		{ID: "i1", Fields: map[string]any{"jenis_dokumen": "Sertifikat", "tanggal": day(2)}},
	}, nil)
	expectEmptySection(repo)

	board.counts[ispo.Key] = 9
	require.NoError(t, board.Load(ctx, repo, zerolog.Nop()))

	v := board.View("", "")
	require.Len(t, v.Entries, 3)
	assert.Equal(t, []string{"m1", "i1", "m2"}, []string{v.Entries[0].ID, v.Entries[1].ID, v.Entries[2].ID})
	assert.Equal(t, "MEMO-001", v.Entries[0].Subject)

	counts := map[string]int{}
	for _, s := range v.Stats {
		counts[s.Category] = s.Count
	}
	assert.Equal(t, 2, counts[memo.Key])
	assert.Equal(t, 9, counts[ispo.Key], "failed count keeps previous value")
	assert.Equal(t, 11, v.Total)
}

func TestBoardLoadReadFailure(t *testing.T) {
	board, reg := personnelBoard(t)
	memo, _ := reg.Lookup("memorandum-personalia")

	repo := new(mocks.MockRecordRepository)
	repo.On("List", mock.Anything, memo, repository.ListQuery{}).Return(nil, errors.New("permission denied"))
	expectEmptySection(repo)

	err := board.Load(context.Background(), repo, zerolog.Nop())
	assert.ErrorContains(t, err, "permission denied")
	assert.Empty(t, board.Filter("", ""))
}

func TestBoardLoadCancelled(t *testing.T) {
	board, _ := personnelBoard(t)
	repo := new(mocks.MockRecordRepository)
	expectEmptySection(repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, board.Load(ctx, repo, zerolog.Nop()), context.Canceled)
}

func TestBoardApplyRemove(t *testing.T) {
	board, reg := personnelBoard(t)
	memo, _ := reg.Lookup("memorandum-personalia")

	board.Apply(model.Entry{ID: "old", Category: memo.Key, Subject: "OLD", Date: day(1)})
	board.Apply(model.Entry{ID: "mid", Category: memo.Key, Subject: "MID", Date: day(5)})
	board.Apply(model.Entry{ID: "new", Category: memo.Key, Subject: "NEW", Date: day(3)})
	board.Apply(model.Entry{ID: "x", Category: "surat-masuk", Date: day(9)})

	v := board.View("", "")
	require.Len(t, v.Entries, 3)
	assert.Equal(t, "mid", v.Entries[0].ID, "globally re-sorted by date")
	assert.Equal(t, 3, v.Total)

	board.Remove(memo.Key, "mid")
	board.Remove(memo.Key, "missing")
	v = board.View("", "")
	assert.Len(t, v.Entries, 2)
	assert.Equal(t, 2, v.Total)
}

func TestBoardFilter(t *testing.T) {
	board, _ := personnelBoard(t)
	board.Apply(model.Entry{ID: "1", Category: "memorandum-personalia", CategoryTitle: "Memorandum", Subject: "MEMO-001", FileName: "scan.pdf", Date: day(1)})
	board.Apply(model.Entry{ID: "2", Category: "dokumen-ispo", CategoryTitle: "Dokumen ISPO", Subject: "Sertifikat", FileName: "cert.png", Date: day(2),
		Details: []model.Detail{{Key: "jenis_dokumen", Value: "Sertifikat Kebun"}}})

	assert.Len(t, board.Filter("", ""), 2)
	assert.Len(t, board.Filter("SCAN", ""), 1)
	assert.Len(t, board.Filter("ispo", ""), 1)
	assert.Len(t, board.Filter("kebun", ""), 1)
	assert.Len(t, board.Filter("", "dokumen-ispo"), 1)
	assert.Empty(t, board.Filter("memo", "dokumen-ispo"))
}

func TestBoardsCache(t *testing.T) {
	ctx := context.Background()
	reg := category.Default()
	repo := new(mocks.MockRecordRepository)
	repo.On("Count", mock.Anything, mock.Anything).Return(0, nil)
	repo.On("List", mock.Anything, mock.Anything, repository.ListQuery{}).Return([]model.Record{}, nil)

	boards := NewBoards(reg, repo, time.UTC, time.Minute, zerolog.Nop())

	b1, err := boards.Get(ctx, "surat-masuk", false)
	require.NoError(t, err)
	b2, err := boards.Get(ctx, "surat-masuk", false)
	require.NoError(t, err)
	assert.Same(t, b1, b2)
	repo.AssertNumberOfCalls(t, "List", 1)

	b3, err := boards.Get(ctx, "surat-masuk", true)
	require.NoError(t, err)
	assert.NotSame(t, b1, b3)
	repo.AssertNumberOfCalls(t, "List", 2)

	boards.Apply(model.Entry{ID: "a", Category: "surat-masuk", Date: day(1)})
	assert.Equal(t, 1, b3.View("", "").Total)
	boards.Remove("surat-masuk", "a")
	assert.Equal(t, 0, b3.View("", "").Total)

	_, err = boards.Get(ctx, "nope", false)
	assert.ErrorIs(t, err, category.ErrUnknownSection)

	empty, err := boards.Get(ctx, "tanaman", false)
	require.NoError(t, err)
	assert.Empty(t, empty.View("", "").Entries)
}
