package upload

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
)

// Progress is a snapshot of one upload.
type Progress struct {
	Bytes   int64 `json:"bytes"`
	Total   int64 `json:"total"`
	Percent int   `json:"percent"`
	Done    bool  `json:"done"`
	Failed  bool  `json:"failed"`
}

type progressState struct {
	bytes  atomic.Int64
	total  int64
	done   atomic.Bool
	failed atomic.Bool
}

func (s *progressState) snapshot() Progress {
	p := Progress{
		Bytes:  s.bytes.Load(),
		Total:  s.total,
		Done:   s.done.Load(),
		Failed: s.failed.Load(),
	}
	switch {
	case p.Done && !p.Failed:
		p.Percent = 100
	case p.Total > 0:
		p.Percent = int(p.Bytes * 100 / p.Total)
		if p.Percent > 99 {
			p.Percent = 99
		}
	}
	return p
}

// Tracker publishes upload progress under client supplied ids. Entries expire.
type Tracker struct {
	c *cache.Cache
}

// NewTracker keeps entries for ttl after their last start.
func NewTracker(ttl time.Duration) *Tracker {
	return &Tracker{c: cache.New(ttl, 2*ttl)}
}

// start registers a fresh state under a copy of id.
func (t *Tracker) start(id string, total int64) *progressState {
	s := &progressState{total: total}
	if t != nil && id != "" {
		t.c.SetDefault(strings.Clone(id), s)
	}
	return s
}

// Get returns the progress of id.
func (t *Tracker) Get(id string) (Progress, bool) {
	v, ok := t.c.Get(id)
	if !ok {
		return Progress{}, false
	}
	return v.(*progressState).snapshot(), true
}

// counter is handed to the object store as its progress reader: every chunk the
// store consumes is "read" through it.
type counter struct {
	s *progressState
}

func (c counter) Read(p []byte) (int, error) {
	c.s.bytes.Add(int64(len(p)))
	return len(p), nil
}
