// Package janitor finishes deletions that stopped after the blob was removed.
package janitor

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"sipeta/internal/category"
	"sipeta/internal/config"
	"sipeta/internal/metrics"
	"sipeta/internal/repository"
	"sipeta/internal/storage"
)

// Remover drops entries from cached history boards.
type Remover interface {
	Remove(categoryKey, id string)
}

// Janitor periodically sweeps tombstoned rows of deletable categories.
type Janitor struct {
	reg     *category.Registry
	repo    repository.RecordRepository
	store   storage.Storage
	boards  Remover
	metrics *metrics.Archive
	log     zerolog.Logger

	interval time.Duration
	grace    time.Duration
	now      func() time.Time
}

// New builds a janitor. boards and m may be nil.
func New(reg *category.Registry, repo repository.RecordRepository, store storage.Storage, boards Remover, m *metrics.Archive, cfg config.JanitorConfig, log zerolog.Logger) *Janitor {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	grace := cfg.Grace
	if grace <= 0 {
		grace = time.Minute
	}
	return &Janitor{
		reg:      reg,
		repo:     repo,
		store:    store,
		boards:   boards,
		metrics:  m,
		log:      log,
		interval: interval,
		grace:    grace,
		now:      time.Now,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.log.Info().Str("event", "janitor_start").Dur("interval", j.interval).Dur("grace", j.grace).Msg("")
	for {
		if n, err := j.Sweep(ctx); err != nil {
			j.log.Error().Str("event", "janitor_sweep_failed").Int("swept", n).Err(err).Msg("")
		} else if n > 0 {
			j.log.Info().Str("event", "janitor_sweep").Int("swept", n).Msg("")
		}

		select {
		case <-ctx.Done():
			j.log.Info().Str("event", "janitor_stop").Msg("")
			return
		case <-ticker.C:
		}
	}
}

// Sweep removes every tombstone older than the grace period. A tombstone whose
// blob is already gone only needs its row deleted. It returns the rows removed
// and the joined errors of the rows that were not.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	before := j.now().Add(-j.grace)
	swept := 0
	var errs []error

	for _, c := range j.reg.All() {
		if !c.Deletable {
			continue
		}
		recs, err := j.repo.ListDeleting(ctx, c, before)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, rec := range recs {
			if err := ctx.Err(); err != nil {
				return swept, errors.Join(append(errs, err)...)
			}
			if err := j.removeBlob(ctx, rec.FilePath); err != nil {
				errs = append(errs, err)
				continue
			}
			if err := j.repo.Delete(ctx, c, rec.ID); err != nil {
				errs = append(errs, err)
				continue
			}
			if j.boards != nil {
				j.boards.Remove(c.Key, rec.ID)
			}
			j.metrics.Delete(metrics.DeleteSwept)
			j.log.Info().
				Str("event", "janitor_deleted").
				Str("category", c.Key).
				Str("record_id", rec.ID).
				Msg("")
			swept++
		}
	}
	return swept, errors.Join(errs...)
}

func (j *Janitor) removeBlob(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if _, err := j.store.Stat(ctx, key); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil
		}
		return err
	}
	return j.store.Delete(ctx, key)
}
