package history

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"sipeta/internal/category"
	"sipeta/internal/model"
	"sipeta/internal/repository"
)

// Boards caches one loaded Board per section.
type Boards struct {
	reg   *category.Registry
	repo  repository.RecordRepository
	loc   *time.Location
	log   zerolog.Logger
	cache *cache.Cache
	group singleflight.Group
}

// NewBoards creates the cache; boards expire ttl after their load.
func NewBoards(reg *category.Registry, repo repository.RecordRepository, loc *time.Location, ttl time.Duration, log zerolog.Logger) *Boards {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Boards{
		reg:   reg,
		repo:  repo,
		loc:   loc,
		log:   log,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Get returns the board of a section, loading it when absent or when refresh is set.
// Concurrent loads of one section share a single query round.
func (b *Boards) Get(ctx context.Context, sectionKey string, refresh bool) (*Board, error) {
	if !refresh {
		if v, ok := b.cache.Get(sectionKey); ok {
			return v.(*Board), nil
		}
	}

	section, err := b.reg.Section(sectionKey)
	if err != nil {
		return nil, err
	}
	cats, err := b.reg.SectionCategories(sectionKey)
	if err != nil {
		return nil, err
	}

	v, err, _ := b.group.Do(section.Key, func() (any, error) {
		board := NewBoard(section, cats, b.loc)
		if err := board.Load(ctx, b.repo, b.log); err != nil {
			return nil, err
		}
		b.cache.SetDefault(section.Key, board)
		return board, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Board), nil
}

// Apply adds a new entry to every cached board showing its category.
func (b *Boards) Apply(e model.Entry) {
	for _, key := range b.reg.SectionsOf(e.Category) {
		if v, ok := b.cache.Get(key); ok {
			v.(*Board).Apply(e)
		}
	}
}

// Remove drops an entry from every cached board showing its category.
func (b *Boards) Remove(categoryKey, id string) {
	for _, key := range b.reg.SectionsOf(categoryKey) {
		if v, ok := b.cache.Get(key); ok {
			v.(*Board).Remove(categoryKey, id)
		}
	}
}
