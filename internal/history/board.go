// Package history keeps the per-section document history: category counters
// plus every entry of the section's categories, newest first.
package history

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"sipeta/internal/category"
	"sipeta/internal/model"
	"sipeta/internal/repository"
)

// maxConcurrentLoads bounds the per-category fan-out of one board load.
const maxConcurrentLoads = 4

// Stat is the counter of one category.
type Stat struct {
	Category string `json:"category"`
	Title    string `json:"title"`
	Count    int    `json:"count"`
}

// View is an immutable copy of a board.
type View struct {
	Section  category.Section `json:"section"`
	Stats    []Stat           `json:"stats"`
	Total    int              `json:"total"`
	Entries  []model.Entry    `json:"entries"`
	LoadedAt time.Time        `json:"loaded_at"`
}

// Board is the state of one section. It is safe for concurrent use.
type Board struct {
	section    category.Section
	categories []*category.Category
	loc        *time.Location

	mu       sync.RWMutex
	counts   map[string]int
	entries  []model.Entry
	loadedAt time.Time
}

// NewBoard creates an empty board for the given section categories.
func NewBoard(section category.Section, cats []*category.Category, loc *time.Location) *Board {
	if loc == nil {
		loc = time.UTC
	}
	return &Board{
		section:    section,
		categories: cats,
		loc:        loc,
		counts:     make(map[string]int, len(cats)),
	}
}

// Has reports whether the board shows the category.
func (b *Board) Has(categoryKey string) bool {
	return slices.ContainsFunc(b.categories, func(c *category.Category) bool { return c.Key == categoryKey })
}

// Load refreshes counters and entries. Counts run concurrently; a failed count
// keeps its previous value. A failed read fails the load and leaves the board as it was.
func (b *Board) Load(ctx context.Context, repo repository.RecordRepository, log zerolog.Logger) error {
	counts := make([]int, len(b.categories))
	countOK := make([]bool, len(b.categories))

	cg, cctx := errgroup.WithContext(ctx)
	cg.SetLimit(maxConcurrentLoads)
	for i, c := range b.categories {
		cg.Go(func() error {
			n, err := repo.Count(cctx, c)
			if err != nil {
				log.Warn().
					Str("event", "board_count_failed").
					Str("section", b.section.Key).
					Str("category", c.Key).
					Err(err).
					Msg("keeping previous count")
				return nil
			}
			counts[i], countOK[i] = n, true
			return nil
		})
	}

	lists := make([][]model.Record, len(b.categories))
	lg, lctx := errgroup.WithContext(ctx)
	lg.SetLimit(maxConcurrentLoads)
	for i, c := range b.categories {
		lg.Go(func() error {
			recs, err := repo.List(lctx, c, repository.ListQuery{})
			if err != nil {
				return fmt.Errorf("list %s: %w", c.Key, err)
			}
			lists[i] = recs
			return nil
		})
	}

	_ = cg.Wait()
	if err := lg.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var entries []model.Entry
	for i, c := range b.categories {
		for _, rec := range lists[i] {
			entries = append(entries, c.Entry(rec, b.loc))
		}
	}
	sortEntries(entries)

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, c := range b.categories {
		if countOK[i] {
			b.counts[c.Key] = counts[i]
		}
	}
	b.entries = entries
	b.loadedAt = time.Now()
	return nil
}

// Apply records a newly created entry.
func (b *Board) Apply(e model.Entry) {
	if !b.Has(e.Category) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := make([]model.Entry, 0, len(b.entries)+1)
	entries = append(entries, e)
	entries = append(entries, b.entries...)
	sortEntries(entries)
	b.entries = entries
	b.counts[e.Category]++
}

// Remove drops an entry and decrements its category counter.
func (b *Board) Remove(categoryKey, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := slices.IndexFunc(b.entries, func(e model.Entry) bool {
		return e.Category == categoryKey && e.ID == id
	})
	if idx < 0 {
		return
	}
	b.entries = slices.Delete(slices.Clone(b.entries), idx, idx+1)
	if b.counts[categoryKey] > 0 {
		b.counts[categoryKey]--
	}
}

// Filter returns the entries matching q (case-insensitive) against category
// title, subject, file name and every detail value. categoryKey, when set,
// restricts the result to one category.
func (b *Board) Filter(q, categoryKey string) []model.Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]model.Entry, 0, len(b.entries))
	for _, e := range b.entries {
		if categoryKey != "" && e.Category != categoryKey {
			continue
		}
		if q != "" && !matches(e, q) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// View snapshots the board, filtered like Filter.
func (b *Board) View(q, categoryKey string) View {
	entries := b.Filter(q, categoryKey)

	b.mu.RLock()
	defer b.mu.RUnlock()

	v := View{Section: b.section, Entries: entries, LoadedAt: b.loadedAt}
	for _, c := range b.categories {
		n := b.counts[c.Key]
		v.Stats = append(v.Stats, Stat{Category: c.Key, Title: c.Title, Count: n})
		v.Total += n
	}
	return v
}

func matches(e model.Entry, q string) bool {
	if strings.Contains(strings.ToLower(e.CategoryTitle), q) ||
		strings.Contains(strings.ToLower(e.Subject), q) ||
		strings.Contains(strings.ToLower(e.FileName), q) {
		return true
	}
	for _, d := range e.Details {
		if strings.Contains(strings.ToLower(d.Value), q) {
			return true
		}
	}
	return false
}

func sortEntries(entries []model.Entry) {
	slices.SortStableFunc(entries, func(a, b model.Entry) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
